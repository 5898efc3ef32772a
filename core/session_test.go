package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Labels(t *testing.T) {
	s := &Session{ID: "abc123"}

	labels := s.Labels(map[string]string{"team": "nmstate", LabelManagedBy: "someone-else"})
	assert.Equal(t, map[string]string{
		"team":         "nmstate",
		LabelManagedBy: ManagedByTestbox,
		LabelSessionID: "abc123",
	}, labels)
}

func TestSession_Duration(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{StartedAt: start}
	assert.Zero(t, s.Duration())

	s.FinishedAt = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, s.Duration())
}

func TestStepResult_Failed(t *testing.T) {
	assert.False(t, StepResult{}.Failed())
	assert.True(t, StepResult{Err: errors.New("boom")}.Failed())
}

func TestRandomID(t *testing.T) {
	a, err := randomID()
	require.NoError(t, err)
	b, err := randomID()
	require.NoError(t, err)

	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
}
