package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrationRun_CompleteSuccess(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	run := NewIntegrationRun("run-1", IntegrationGitHubCommits, RunTypeSync, start)

	require.Equal(t, RunStatusInProgress, run.Status)
	assert.Nil(t, run.EndedAt)
	assert.Zero(t, run.Duration())

	err := run.Complete(Succeeded(start.Add(time.Minute), 7))
	require.NoError(t, err)

	assert.Equal(t, RunStatusSuccess, run.Status)
	require.NotNil(t, run.EndedAt)
	assert.Equal(t, start.Add(time.Minute), *run.EndedAt)
	assert.Nil(t, run.Message)
	assert.Equal(t, 7, run.EntriesCreated)
	assert.Equal(t, time.Minute, run.Duration())
}

func TestIntegrationRun_CompleteFail(t *testing.T) {
	start := time.Now()
	run := NewIntegrationRun("run-2", IntegrationGoogleDrive, RunTypeSeed, start)

	err := run.Complete(RunCompletion{
		Status:         RunStatusFail,
		EndedAt:        start,
		Message:        Failed(start, errors.New("boom")).Message,
		EntriesCreated: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, RunStatusFail, run.Status)
	require.NotNil(t, run.Message)
	assert.Equal(t, "boom", *run.Message)
	assert.Zero(t, run.EntriesCreated, "entries only count on success")
}

func TestIntegrationRun_CompleteTwice(t *testing.T) {
	run := NewIntegrationRun("run-3", IntegrationGitHubStars, RunTypeSync, time.Now())
	require.NoError(t, run.Complete(Succeeded(time.Now(), 1)))

	err := run.Complete(Failed(time.Now(), errors.New("late")))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, RunStatusSuccess, run.Status)
}

func TestIntegrationRun_CompleteNonTerminal(t *testing.T) {
	run := NewIntegrationRun("run-4", IntegrationGitHubStars, RunTypeSync, time.Now())

	err := run.Complete(RunCompletion{Status: RunStatusInProgress, EndedAt: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Nil(t, run.EndedAt)
}

func TestRunStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   RunStatus
		terminal bool
		valid    bool
	}{
		{RunStatusInProgress, false, true},
		{RunStatusSuccess, true, true},
		{RunStatusFail, true, true},
		{RunStatus("paused"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
			assert.Equal(t, tt.valid, tt.status.IsValid())
		})
	}
}

func TestRunType_IsValid(t *testing.T) {
	assert.True(t, RunTypeSeed.IsValid())
	assert.True(t, RunTypeSync.IsValid())
	assert.False(t, RunType("full").IsValid())
}
