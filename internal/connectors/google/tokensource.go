package google

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// Endpoint is Google's OAuth 2.0 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// ReadonlyDriveScope grants read access to file metadata and content.
const ReadonlyDriveScope = "https://www.googleapis.com/auth/drive.readonly"

// ErrMissingCredentials indicates the client id, secret or refresh token is not configured.
var ErrMissingCredentials = errors.New("google: client id, client secret and refresh token are required")

// Credentials identify the OAuth client and the user grant.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// OAuthConfig returns the OAuth client config for the Drive scope.
// endpoint may be the zero value to use Google's.
func OAuthConfig(clientID, clientSecret string, endpoint oauth2.Endpoint) *oauth2.Config {
	if endpoint.TokenURL == "" {
		endpoint = Endpoint
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoint,
		Scopes:       []string{ReadonlyDriveScope},
	}
}

// NewTokenSource creates an oauth2.TokenSource that exchanges the refresh
// token for access tokens and caches them until they expire.
// endpoint may be the zero value to use Google's.
func NewTokenSource(ctx context.Context, creds Credentials, endpoint oauth2.Endpoint) (oauth2.TokenSource, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.RefreshToken == "" {
		return nil, ErrMissingCredentials
	}
	cfg := OAuthConfig(creds.ClientID, creds.ClientSecret, endpoint)
	return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}), nil
}
