package cli

import (
	"fmt"
	"time"

	"github.com/moby/sys/atomicwriter"
	"gopkg.in/yaml.v3"

	"github.com/nmstate/testbox/core"
)

// SessionReport is the YAML document written by run --report.
type SessionReport struct {
	Session       string          `yaml:"session"`
	Config        string          `yaml:"config"`
	Image         string          `yaml:"image,omitempty"`
	Container     string          `yaml:"container,omitempty"`
	Networks      []NetworkReport `yaml:"networks,omitempty"`
	TTY           bool            `yaml:"tty"`
	ExitStatus    int             `yaml:"exit_status"`
	Error         string          `yaml:"error,omitempty"`
	StartedAt     time.Time       `yaml:"started_at"`
	FinishedAt    time.Time       `yaml:"finished_at"`
	Duration      string          `yaml:"duration"`
	Steps         []StepReport    `yaml:"steps"`
	CleanupErrors []string        `yaml:"cleanup_errors,omitempty"`
}

// NetworkReport describes one network of the session.
type NetworkReport struct {
	Name      string `yaml:"name"`
	ID        string `yaml:"id"`
	Interface string `yaml:"interface,omitempty"`
	Reused    bool   `yaml:"reused,omitempty"`
}

// StepReport describes one step of the session.
type StepReport struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Policy   string `yaml:"policy"`
	ExitCode int    `yaml:"exit_code"`
	Duration string `yaml:"duration"`
	Error    string `yaml:"error,omitempty"`
	Output   string `yaml:"output,omitempty"`
}

// NewSessionReport builds the report of session. source names the profile.
func NewSessionReport(session *core.Session, source string) *SessionReport {
	r := &SessionReport{
		Session:    session.ID,
		Config:     source,
		Image:      session.Image,
		Container:  session.ContainerName,
		TTY:        session.TTY,
		ExitStatus: session.ExitStatus,
		StartedAt:  session.StartedAt.UTC(),
		FinishedAt: session.FinishedAt.UTC(),
		Duration:   session.Duration().String(),
		Steps:      make([]StepReport, 0, len(session.Steps)),
	}
	if session.Err != nil {
		r.Error = session.Err.Error()
	}

	for _, n := range session.Networks {
		r.Networks = append(r.Networks, NetworkReport{
			Name:      n.Name,
			ID:        n.ID,
			Interface: n.Interface,
			Reused:    n.Reused,
		})
	}
	for _, s := range session.Steps {
		step := StepReport{
			Name:     s.Name,
			Kind:     string(s.Kind),
			Policy:   string(s.Policy),
			ExitCode: s.ExitCode,
			Duration: s.Duration.String(),
			Output:   s.Output,
		}
		if s.Err != nil {
			step.Error = s.Err.Error()
		}
		r.Steps = append(r.Steps, step)
	}
	for _, err := range session.CleanupErrors {
		r.CleanupErrors = append(r.CleanupErrors, err.Error())
	}
	return r
}

// WriteReport writes r to path, replacing any previous report atomically.
func WriteReport(path string, r *SessionReport) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := atomicwriter.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
