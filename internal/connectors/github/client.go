package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// PageSize is the page size requested from list and search endpoints.
	PageSize = 100
)

// Client wraps the go-github client with proactive throttling and error mapping.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewClient creates a GitHub client with a static access token.
// Works for both PAT and OAuth access tokens.
func NewClient(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return &Client{
		gh:          gh.NewClient(tc),
		rateLimiter: NewRateLimiter(ProactiveRate),
	}
}

// NewClientWithHTTPClient creates a client against baseURL using httpClient,
// without proactive throttling. Used against GitHub Enterprise and test servers.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		client.BaseURL = u
	}
	return &Client{
		gh:          client,
		rateLimiter: NewRateLimiter(0),
	}, nil
}

// Quota reports the rate limit seen on the latest response.
func (c *Client) Quota() Quota {
	return c.rateLimiter.Quota()
}

// SearchCommits runs one page of a commit search, newest committer date first.
func (c *Client) SearchCommits(ctx context.Context, query string, page int) ([]*gh.CommitResult, int, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.SearchOptions{
		Sort:        "committer-date",
		Order:       "desc",
		ListOptions: gh.ListOptions{Page: page, PerPage: PageSize},
	}
	result, resp, err := c.gh.Search.Commits(ctx, query, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, 0, wrapError(err, "search commits")
	}
	return result.Commits, nextPage(resp), nil
}

// ListStarred lists one page of the authenticated user's stars, most recently starred first.
func (c *Client) ListStarred(ctx context.Context, page int) ([]*gh.StarredRepository, int, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.ActivityListStarredOptions{
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{Page: page, PerPage: PageSize},
	}
	stars, resp, err := c.gh.Activity.ListStarred(ctx, "", opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, 0, wrapError(err, "list starred")
	}
	return stars, nextPage(resp), nil
}

// GetUser fetches a user or organisation by numeric id.
func (c *Client) GetUser(ctx context.Context, id int64) (*gh.User, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	user, resp, err := c.gh.Users.GetByID(ctx, id)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, wrapError(err, "get user "+strconv.FormatInt(id, 10))
	}
	return user, nil
}

// GetRepository fetches a repository by numeric id.
func (c *Client) GetRepository(ctx context.Context, id int64) (*gh.Repository, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	repo, resp, err := c.gh.Repositories.GetByID(ctx, id)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, wrapError(err, "get repository "+strconv.FormatInt(id, 10))
	}
	return repo, nil
}

// ValidateCredentials checks the token by fetching the authenticated user.
// Returns the login the token belongs to.
func (c *Client) ValidateCredentials(ctx context.Context) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	user, resp, err := c.gh.Users.Get(ctx, "")
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return "", wrapError(err, "validate credentials")
	}
	return user.GetLogin(), nil
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

func nextPage(resp *gh.Response) int {
	if resp == nil {
		return 0
	}
	return resp.NextPage
}

// pageToken encodes a page number as a fetch continuation token.
func pageToken(page int) string {
	if page == 0 {
		return ""
	}
	return strconv.Itoa(page)
}

// parsePageToken decodes a continuation token. An empty token is the first page.
func parsePageToken(token string) (int, error) {
	if token == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(token)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("github: invalid page token %q", token)
	}
	return page, nil
}
