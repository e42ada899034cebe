package github

import (
	"github.com/custodia-labs/almanac/internal/core/domain"
)

// Config holds the settings shared by the GitHub sources.
type Config struct {
	// Token is the personal access or OAuth token.
	Token string

	// Login is the account whose commits are synced.
	Login string

	// EnrichmentConcurrency bounds parallel enrichment calls.
	EnrichmentConcurrency int

	// EnrichmentBatch is how many partial records one enrichment run fetches per kind.
	EnrichmentBatch int
}

// ConfigFromSettings builds a Config from resolved application settings.
func ConfigFromSettings(s domain.Settings) Config {
	return Config{
		Token:                 s.GitHub.Token,
		Login:                 s.GitHub.Login,
		EnrichmentConcurrency: s.EnrichmentConcurrency,
		EnrichmentBatch:       domain.DefaultPageSize,
	}
}

// Validate checks the configuration has what every GitHub source needs.
func (c Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.Login == "" {
		return ErrMissingLogin
	}
	return nil
}
