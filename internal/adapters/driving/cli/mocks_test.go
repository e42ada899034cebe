package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

// mockRunner implements driving.IntegrationRunner for testing.
type mockRunner struct {
	registered []domain.IntegrationType
	results    []domain.RunResult
	runs       []domain.IntegrationRun
	err        error

	gotIntegrations []domain.IntegrationType
	gotRunType      domain.RunType
	gotFilter       domain.RunFilter
	gotOlderThan    time.Duration
	swept           int
}

func (m *mockRunner) RunIntegration(ctx context.Context, it domain.IntegrationType, rt domain.RunType) (*domain.RunResult, error) {
	results, err := m.RunAll(ctx, []domain.IntegrationType{it}, rt)
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

func (m *mockRunner) RunAll(_ context.Context, its []domain.IntegrationType, rt domain.RunType) ([]domain.RunResult, error) {
	m.gotIntegrations = its
	m.gotRunType = rt
	return m.results, m.err
}

func (m *mockRunner) SweepOrphans(_ context.Context, olderThan time.Duration) (int, error) {
	m.gotOlderThan = olderThan
	m.swept++
	return 2, m.err
}

func (m *mockRunner) ListRuns(_ context.Context, f domain.RunFilter) ([]domain.IntegrationRun, error) {
	m.gotFilter = f
	return m.runs, m.err
}

func (m *mockRunner) Registered() []domain.IntegrationType {
	return m.registered
}

// mockScheduler implements driving.Scheduler for testing.
type mockScheduler struct {
	err     error
	started bool
}

func (m *mockScheduler) Start(_ context.Context) error {
	m.started = true
	return m.err
}

func (m *mockScheduler) Stop() error { return nil }

// mockConfigStore implements driven.ConfigStore for testing.
type mockConfigStore struct {
	data map[string]any
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.data[key].(string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.data == nil {
		m.data = map[string]any{}
	}
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Load() error  { return nil }
func (m *mockConfigStore) Path() string { return "/tmp/almanac/config.toml" }

func (m *mockConfigStore) Settings() (domain.Settings, error) {
	return domain.DefaultSettings(), nil
}

// setupServices installs s for one test and resets command state afterwards.
func setupServices(t *testing.T, s *Services) {
	t.Helper()
	old, oldBootstrap := svc, bootstrap
	svc = s
	t.Cleanup(func() {
		svc, bootstrap = old, oldBootstrap
		runsIntegration, runsStatus, runsLimit, sweepOlderThan = "", "", 20, 0
		rootCmd.SetArgs(nil)
	})
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
