package google

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

// Reasons Google reports in the errors array of a 403 response.
const (
	reasonRateLimit     = "rateLimitExceeded"
	reasonUserRateLimit = "userRateLimitExceeded"
	reasonDailyLimit    = "dailyLimitExceeded"
	reasonQuotaExceeded = "quotaExceeded"
)

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	if errors.Is(err, domain.ErrNotFound) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound
	}
	return false
}

// WrapError converts a Google API error to a domain error.
// Throttling becomes *domain.RateLimitError so the fetch executor backs off;
// exhausted daily quota is distinct and fails the run.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch gerr.Code {
	case http.StatusUnauthorized:
		return fmt.Errorf("google: %w: %s", domain.ErrAuthInvalid, gerr.Message)
	case http.StatusTooManyRequests:
		return &domain.RateLimitError{Source: "google", RetryAfter: retryAfter(gerr.Header)}
	case http.StatusForbidden:
		switch reason(gerr) {
		case reasonRateLimit, reasonUserRateLimit:
			return &domain.RateLimitError{Source: "google", RetryAfter: retryAfter(gerr.Header)}
		case reasonDailyLimit, reasonQuotaExceeded:
			return fmt.Errorf("google: %w: %s", domain.ErrQuotaExceeded, gerr.Message)
		}
		return fmt.Errorf("google: %w: %s", domain.ErrAuthInvalid, gerr.Message)
	case http.StatusNotFound:
		return fmt.Errorf("google: %w: %s", domain.ErrNotFound, gerr.Message)
	default:
		return err
	}
}

func reason(gerr *googleapi.Error) string {
	if len(gerr.Errors) == 0 {
		return ""
	}
	return gerr.Errors[0].Reason
}

func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	if seconds, err := strconv.Atoi(h.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
