package github

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

// GitHub-specific errors.
var (
	// ErrMissingToken indicates no access token is configured.
	ErrMissingToken = errors.New("github: access token is required")

	// ErrMissingLogin indicates the GitHub login to sync is not configured.
	ErrMissingLogin = errors.New("github: login is required")
)

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return errors.Is(err, domain.ErrNotFound)
}

// IsGone reports a failure that retrying will not fix for this resource:
// not found, gone, forbidden without a rate limit, or withheld for legal
// reasons. Rate limits never reach here as *APIError.
func IsGone(err error) bool {
	if IsNotFound(err) {
		return true
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusForbidden, http.StatusGone, http.StatusUnavailableForLegalReasons:
		return true
	}
	return false
}

// wrapError converts go-github errors to domain errors.
// Throttling becomes *domain.RateLimitError so the fetch executor can back off;
// rejected credentials become domain.ErrAuthInvalid and fail the run.
func wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Primary limit exhausted: X-RateLimit-Remaining reached 0.
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &domain.RateLimitError{
			Source:  "github",
			ResetAt: rateLimitErr.Rate.Reset.Time,
		}
	}

	// Secondary limit: Retry-After is advertised when known.
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		rl := &domain.RateLimitError{Source: "github"}
		if abuseErr.RetryAfter != nil {
			rl.RetryAfter = *abuseErr.RetryAfter
		}
		return rl
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		resp := ghErr.Response
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return &domain.RateLimitError{Source: "github", RetryAfter: retryAfter(resp)}
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w: %s", operation, domain.ErrAuthInvalid, ghErr.Message)
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Message: ghErr.Message}
		if resp.Request != nil && resp.Request.URL != nil {
			apiErr.URL = resp.Request.URL.String()
		}
		return fmt.Errorf("%s: %w", operation, apiErr)
	}

	return fmt.Errorf("%s: %w", operation, err)
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get(HeaderRetryAfter); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}
