package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Session is the state of one run: the acquired handles and the step outcomes.
// It is mutated only by the controller goroutine.
type Session struct {
	ID            string
	Image         string
	ContainerID   string
	ContainerName string
	Networks      []NetworkHandle
	TTY           bool

	ExitStatus int
	Err        error
	Steps      []StepResult

	CleanupErrors []error

	StartedAt  time.Time
	FinishedAt time.Time
}

// NetworkHandle is a network acquired for the session.
type NetworkHandle struct {
	Name      string
	ID        string
	Interface string
	// Reused is set when the network already existed.
	Reused bool
}

// StepResult records the outcome of one step.
type StepResult struct {
	Name     string
	Kind     StepKind
	Policy   StepPolicy
	ExitCode int
	Duration time.Duration
	Err      error
	// Output is the bounded tail of the combined step output.
	Output string
}

// Failed reports whether the step did not succeed.
func (r StepResult) Failed() bool {
	return r.Err != nil
}

// Duration is the wall time of the whole session.
func (s *Session) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Labels returns the labels put on every resource of the session.
func (s *Session) Labels(extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+2)
	for k, v := range extra {
		labels[k] = v
	}
	labels[LabelManagedBy] = ManagedByTestbox
	labels[LabelSessionID] = s.ID
	return labels
}

func randomID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
