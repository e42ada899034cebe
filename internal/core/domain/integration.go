package domain

import (
	"fmt"
	"strings"
)

// IntegrationType tags one external source.
type IntegrationType string

const (
	// IntegrationGitHubCommits ingests commits authored by the configured user.
	IntegrationGitHubCommits IntegrationType = "github_commits"
	// IntegrationGitHubStars ingests repositories starred by the configured user.
	IntegrationGitHubStars IntegrationType = "github_stars"
	// IntegrationGitHubEnrichment fills in partial owners and repositories.
	IntegrationGitHubEnrichment IntegrationType = "github_enrichment"
	// IntegrationGoogleDrive ingests Drive file metadata as documents.
	IntegrationGoogleDrive IntegrationType = "google_drive"
	// IntegrationBrowserHistory ingests a local browser history snapshot.
	IntegrationBrowserHistory IntegrationType = "browser_history"
)

// AllIntegrationTypes returns every known integration in dependency order:
// enrichment runs after the sources that create partial entities.
func AllIntegrationTypes() []IntegrationType {
	return []IntegrationType{
		IntegrationGitHubCommits,
		IntegrationGitHubStars,
		IntegrationGitHubEnrichment,
		IntegrationGoogleDrive,
		IntegrationBrowserHistory,
	}
}

// IsValid reports whether t is a known integration.
func (t IntegrationType) IsValid() bool {
	for _, known := range AllIntegrationTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (t IntegrationType) String() string {
	return string(t)
}

// ParseIntegrationType parses a user supplied integration name.
// Dashes are accepted in place of underscores.
func ParseIntegrationType(s string) (IntegrationType, error) {
	t := IntegrationType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: integration %q", ErrUnsupportedType, s)
	}
	return t, nil
}
