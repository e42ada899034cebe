package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/almanac/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/almanac/internal/core/services"
)

// fakeGitHub is an httptest server with a mux for the endpoints under test.
type fakeGitHub struct {
	*httptest.Server
	mux *http.ServeMux
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return &fakeGitHub{Server: server, mux: mux}
}

func (f *fakeGitHub) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClientWithHTTPClient(f.Server.Client(), f.Server.URL)
	require.NoError(t, err)
	return c
}

// nextLink writes a Link header pointing at page of path.
func (f *fakeGitHub) nextLink(w http.ResponseWriter, path string, page int) {
	w.Header().Set("Link", fmt.Sprintf(`<%s%s?page=%d>; rel="next"`, f.Server.URL, path, page))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// testExecutor paces nothing and records back-off delays instead of sleeping.
func testExecutor(delays *[]time.Duration) *services.FetchExecutor {
	return services.NewFetchExecutor(0, time.Minute).WithSleep(func(_ context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	})
}

func testStore() *memory.CanonicalStore {
	return memory.NewCanonicalStore()
}

type jsonUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Type  string `json:"type,omitempty"`
	Name  string `json:"name,omitempty"`
}

type jsonRepo struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	FullName string   `json:"full_name"`
	Owner    jsonUser `json:"owner"`
	Language string   `json:"language,omitempty"`
	Stars    int      `json:"stargazers_count,omitempty"`
}

func commitItem(sha string, committed string, repo jsonRepo, author *jsonUser) map[string]any {
	item := map[string]any{
		"sha":      sha,
		"html_url": "https://github.com/" + repo.FullName + "/commit/" + sha,
		"commit": map[string]any{
			"message":   "commit " + sha,
			"author":    map[string]any{"name": "Me", "email": "me@example.com", "date": committed},
			"committer": map[string]any{"name": "Me", "email": "me@example.com", "date": committed},
		},
		"repository": repo,
	}
	if author != nil {
		item["author"] = author
	}
	return item
}
