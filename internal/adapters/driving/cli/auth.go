package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/almanac/internal/adapters/driving/oauth"
)

var authNoBrowser bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Obtain credentials for integrations",
}

var authGoogleCmd = &cobra.Command{
	Use:   "google",
	Short: "Authorize read-only Drive access and store the refresh token",
	Long: `Opens Google's consent page, receives the authorization code on a
loopback redirect and stores the refresh token as google.refresh_token.
google.client_id and google.client_secret must be set first.`,
	RunE: runAuthGoogle,
}

func init() {
	authGoogleCmd.Flags().BoolVar(&authNoBrowser, "no-browser", false, "print the consent URL instead of opening a browser")
	authCmd.AddCommand(authGoogleCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthGoogle(cmd *cobra.Command, _ []string) error {
	if svc == nil || svc.AuthorizeGoogle == nil || svc.Config == nil {
		return errors.New("google authorization not configured")
	}

	open := func(url string) error {
		cmd.Printf("Open this URL to authorize almanac:\n\n  %s\n\n", url)
		if authNoBrowser {
			return nil
		}
		if err := oauth.OpenBrowser(url); err != nil {
			cmd.Printf("Could not open a browser: %v\n", err)
		}
		return nil
	}

	refresh, err := svc.AuthorizeGoogle(cmd.Context(), open)
	if err != nil {
		return fmt.Errorf("google authorization failed: %w", err)
	}
	if err := svc.Config.Set("google.refresh_token", refresh); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	cmd.Printf("Stored google.refresh_token in %s\n", svc.Config.Path())
	return nil
}
