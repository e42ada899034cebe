package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

func TestSyncCmd(t *testing.T) {
	t.Run("runs named integrations", func(t *testing.T) {
		runner := &mockRunner{
			registered: []domain.IntegrationType{domain.IntegrationGitHubStars},
			results: []domain.RunResult{{
				RunID: "run-1", Integration: domain.IntegrationGitHubStars,
				RunType: domain.RunTypeSync, EntriesCreated: 7, Duration: time.Second,
			}},
		}
		setupServices(t, &Services{Runner: runner})

		out, err := execute(t, "sync", "github-stars")

		require.NoError(t, err)
		assert.Equal(t, []domain.IntegrationType{domain.IntegrationGitHubStars}, runner.gotIntegrations)
		assert.Equal(t, domain.RunTypeSync, runner.gotRunType)
		assert.Contains(t, out, "7 created")
		assert.Contains(t, out, "run-1")
	})

	t.Run("unknown integration", func(t *testing.T) {
		setupServices(t, &Services{Runner: &mockRunner{}})

		_, err := execute(t, "sync", "myspace")

		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("nothing configured", func(t *testing.T) {
		runner := &mockRunner{}
		setupServices(t, &Services{Runner: runner})

		out, err := execute(t, "sync")

		require.NoError(t, err)
		assert.Contains(t, out, "No integrations configured.")
		assert.Empty(t, runner.gotRunType)
	})

	t.Run("failure is reported", func(t *testing.T) {
		runner := &mockRunner{
			registered: []domain.IntegrationType{domain.IntegrationGoogleDrive},
			err:        domain.ErrAuthInvalid,
		}
		setupServices(t, &Services{Runner: runner})

		_, err := execute(t, "sync")

		assert.ErrorIs(t, err, domain.ErrAuthInvalid)
		assert.ErrorContains(t, err, "sync failed")
	})
}

func TestSeedCmd(t *testing.T) {
	runner := &mockRunner{registered: []domain.IntegrationType{domain.IntegrationBrowserHistory}}
	setupServices(t, &Services{Runner: runner})

	_, err := execute(t, "seed")

	require.NoError(t, err)
	assert.Equal(t, domain.RunTypeSeed, runner.gotRunType)
	assert.Empty(t, runner.gotIntegrations)
}

func TestRunsListCmd(t *testing.T) {
	ended := time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)
	msg := "google: auth invalid"

	t.Run("filters and renders", func(t *testing.T) {
		runner := &mockRunner{runs: []domain.IntegrationRun{
			{ID: "run-2", Integration: domain.IntegrationGoogleDrive, RunType: domain.RunTypeSync,
				Status: domain.RunStatusFail, StartedAt: ended.Add(-time.Minute), EndedAt: &ended, Message: &msg},
		}}
		setupServices(t, &Services{Runner: runner})

		out, err := execute(t, "runs", "list", "--integration", "google_drive", "--status", "fail", "-n", "5")

		require.NoError(t, err)
		assert.Equal(t, domain.RunFilter{
			Integration: domain.IntegrationGoogleDrive,
			Status:      domain.RunStatusFail,
			Limit:       5,
		}, runner.gotFilter)
		assert.Contains(t, out, "run-2")
		assert.Contains(t, out, msg)
	})

	t.Run("invalid status", func(t *testing.T) {
		setupServices(t, &Services{Runner: &mockRunner{}})

		_, err := execute(t, "runs", "list", "--status", "done")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("empty", func(t *testing.T) {
		setupServices(t, &Services{Runner: &mockRunner{}})

		out, err := execute(t, "runs", "list")

		require.NoError(t, err)
		assert.Contains(t, out, "No runs recorded.")
	})
}

func TestRunsSweepCmd(t *testing.T) {
	t.Run("defaults to orphan timeout", func(t *testing.T) {
		runner := &mockRunner{}
		setupServices(t, &Services{Runner: runner, Settings: domain.DefaultSettings()})

		out, err := execute(t, "runs", "sweep")

		require.NoError(t, err)
		assert.Equal(t, domain.DefaultOrphanTimeout, runner.gotOlderThan)
		assert.Contains(t, out, "Marked 2 orphaned run(s) as failed.")
	})

	t.Run("explicit age", func(t *testing.T) {
		runner := &mockRunner{}
		setupServices(t, &Services{Runner: runner, Settings: domain.DefaultSettings()})

		_, err := execute(t, "runs", "sweep", "--older-than", "30m")

		require.NoError(t, err)
		assert.Equal(t, 30*time.Minute, runner.gotOlderThan)
	})
}

func TestScheduleCmd(t *testing.T) {
	t.Run("interrupt is a clean exit", func(t *testing.T) {
		sched := &mockScheduler{err: context.Canceled}
		setupServices(t, &Services{Scheduler: sched, Settings: domain.DefaultSettings()})

		out, err := execute(t, "schedule")

		require.NoError(t, err)
		assert.True(t, sched.started)
		assert.Contains(t, out, "every 1h0m0s")
	})

	t.Run("not configured", func(t *testing.T) {
		setupServices(t, &Services{})

		_, err := execute(t, "schedule")

		assert.ErrorContains(t, err, "scheduler not configured")
	})
}

func TestConfigCmds(t *testing.T) {
	t.Run("set stores typed values", func(t *testing.T) {
		store := &mockConfigStore{}
		setupServices(t, &Services{Config: store})

		out, err := execute(t, "config", "set", "enrichment_concurrency", "8")
		require.NoError(t, err)
		_, err = execute(t, "config", "set", "github.login", "octocat")
		require.NoError(t, err)

		assert.Equal(t, int64(8), store.data["enrichment_concurrency"])
		assert.Equal(t, "octocat", store.data["github.login"])
		assert.Contains(t, out, "/tmp/almanac/config.toml")
	})

	t.Run("show masks secrets", func(t *testing.T) {
		settings := domain.DefaultSettings()
		settings.GitHub = domain.GitHubSettings{Token: "ghp_abcdefghijklmnop", Login: "octocat"}
		setupServices(t, &Services{Config: &mockConfigStore{}, Settings: settings})

		out, err := execute(t, "config", "show")

		require.NoError(t, err)
		assert.Contains(t, out, "Login: octocat")
		assert.Contains(t, out, "ghp_")
		assert.NotContains(t, out, "ghp_abcdefghijklmnop")
	})
}

func TestBootstrap(t *testing.T) {
	t.Run("sweeps on start", func(t *testing.T) {
		setupServices(t, nil)
		runner := &mockRunner{}
		settings := domain.DefaultSettings()
		settings.SweepOnStart = true

		var gotPath string
		SetBootstrap(func(_ context.Context, path string, _ bool) (*Services, error) {
			gotPath = path
			return &Services{Runner: runner, Settings: settings}, nil
		})

		_, err := execute(t, "--config", "/etc/almanac.toml", "runs", "list")

		require.NoError(t, err)
		assert.Equal(t, "/etc/almanac.toml", gotPath)
		assert.Equal(t, 1, runner.swept)
		assert.Equal(t, settings.OrphanTimeout, runner.gotOlderThan)
		configPath = ""
	})

	t.Run("bootstrap error", func(t *testing.T) {
		setupServices(t, nil)
		SetBootstrap(func(context.Context, string, bool) (*Services, error) {
			return nil, errors.New("invalid configuration")
		})

		_, err := execute(t, "sync")

		assert.ErrorContains(t, err, "invalid configuration")
	})

	t.Run("no bootstrap", func(t *testing.T) {
		setupServices(t, nil)
		bootstrap = nil

		_, err := execute(t, "sync")

		assert.ErrorContains(t, err, "services not configured")
	})
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, int64(42), parseValue("42"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, "1h", parseValue("1h"))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "(not set)", maskSecret(""))
	assert.Equal(t, "*****", maskSecret("short"))
	assert.Equal(t, "abcd****mnop", maskSecret("abcdefghmnop"))
}

func TestAuthGoogleCmd(t *testing.T) {
	t.Cleanup(func() { authNoBrowser = false })

	t.Run("stores refresh token", func(t *testing.T) {
		store := &mockConfigStore{}
		setupServices(t, &Services{
			Config: store,
			AuthorizeGoogle: func(_ context.Context, open func(string) error) (string, error) {
				require.NoError(t, open("https://accounts.example.com/consent"))
				return "refresh-1", nil
			},
		})

		out, err := execute(t, "auth", "google", "--no-browser")

		require.NoError(t, err)
		assert.Equal(t, "refresh-1", store.data["google.refresh_token"])
		assert.Contains(t, out, "https://accounts.example.com/consent")
	})

	t.Run("flow failure", func(t *testing.T) {
		setupServices(t, &Services{
			Config: &mockConfigStore{},
			AuthorizeGoogle: func(context.Context, func(string) error) (string, error) {
				return "", errors.New("access_denied")
			},
		})

		_, err := execute(t, "auth", "google", "--no-browser")

		assert.ErrorContains(t, err, "access_denied")
	})
}
