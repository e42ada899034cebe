package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
	"github.com/custodia-labs/almanac/internal/logger"
)

// FetchExecutor holds the pacing and back-off policy shared by paginated fetches.
type FetchExecutor struct {
	pacer    *rate.Limiter
	fallback time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetchExecutor creates an executor allowing one page per pageDelay.
// fallback is the back-off when a rate limit response carries no hint.
func NewFetchExecutor(pageDelay, fallback time.Duration) *FetchExecutor {
	limit := rate.Inf
	if pageDelay > 0 {
		limit = rate.Every(pageDelay)
	}
	if fallback <= 0 {
		fallback = domain.DefaultRateLimitFallback
	}
	return &FetchExecutor{
		pacer:    rate.NewLimiter(limit, 1),
		fallback: fallback,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// WithSleep replaces the back-off sleep. Used by tests to observe delays.
func (e *FetchExecutor) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *FetchExecutor {
	e.sleep = sleep
	return e
}

// backoff returns the wait for a rate limit error.
func (e *FetchExecutor) backoff(rl *domain.RateLimitError) time.Duration {
	if d := rl.Delay(e.now()); d > 0 {
		return d
	}
	return e.fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FetchOptions tunes one paginated fetch.
type FetchOptions[T any] struct {
	// Reached reports that an item is already ingested. The source must list
	// newest first: the first reached item and everything after it is dropped.
	// Nil fetches every page.
	Reached func(item T) bool
}

// FetchStats summarises a paginated fetch.
type FetchStats struct {
	Pages   int
	Items   int
	Retries int

	// Stopped is true when the fetch ended at the boundary.
	Stopped bool
}

// PageHandler processes one page of items in fetch order.
// A returned error aborts the fetch and fails the run.
type PageHandler[T any] func(ctx context.Context, items []T) error

// Paginate fetches pages until an empty page, an empty continuation token, or
// the boundary. Rate limited pages are retried with the same token after the
// advertised delay, without a retry cap. Any other fetch error is returned.
func Paginate[T any](
	ctx context.Context,
	ex *FetchExecutor,
	fetcher driven.PageFetcher[T],
	opts FetchOptions[T],
	handle PageHandler[T],
) (FetchStats, error) {
	var stats FetchStats
	token := ""

	for {
		if err := ex.pacer.Wait(ctx); err != nil {
			return stats, fmt.Errorf("wait for page: %w", err)
		}

		page, err := fetcher.FetchPage(ctx, token)
		if err != nil {
			rl, ok := domain.AsRateLimit(err)
			if !ok {
				return stats, fmt.Errorf("fetch page %d: %w", stats.Pages+1, err)
			}
			delay := ex.backoff(rl)
			stats.Retries++
			logger.Warn("%s: rate limited, retrying page %d in %s", rl.Source, stats.Pages+1, delay)
			if err := ex.sleep(ctx, delay); err != nil {
				return stats, fmt.Errorf("rate limit back-off: %w", err)
			}
			continue
		}
		stats.Pages++

		items := page.Items
		if opts.Reached != nil {
			for i, item := range items {
				if opts.Reached(item) {
					items = items[:i]
					stats.Stopped = true
					break
				}
			}
		}

		if len(items) > 0 {
			stats.Items += len(items)
			if err := handle(ctx, items); err != nil {
				return stats, err
			}
		}

		if stats.Stopped {
			logger.Debug("Reached boundary on page %d", stats.Pages)
			return stats, nil
		}
		if len(page.Items) == 0 || page.NextToken == "" {
			return stats, nil
		}
		token = page.NextToken
	}
}
