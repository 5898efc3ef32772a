package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validPlan() *Plan {
	return &Plan{
		Container:  ContainerSpec{Image: "fedora", Workspace: "/workspace"},
		ProjectDir: "/src/nmstate",
		Networks:   []NetworkSpec{{Name: "net0"}, {Name: "net1"}},
		Steps: []Step{
			{Name: "networks", Kind: StepNetworks},
			{Name: "test", Run: "pytest"},
		},
	}
}

func TestPlan_Defaults(t *testing.T) {
	p := validPlan()
	p.Defaults()

	assert.Equal(t, DefaultShell, p.Shell)
	assert.Equal(t, PullMissing, p.Pull)
	assert.Equal(t, TTYAuto, p.TTY)
	assert.Equal(t, DefaultStartTimeout, p.StartTimeout)
	assert.Equal(t, DefaultCleanupTimeout, p.CleanupTimeout)
	assert.Equal(t, DefaultNetworkDriver, p.Networks[0].Driver)
	assert.Equal(t, StepExec, p.Steps[1].Kind)
	assert.Equal(t, PolicyFatal, p.Steps[1].Policy)
	assert.NoError(t, p.Validate())
}

func TestPlan_DefaultsKeepExplicitValues(t *testing.T) {
	p := validPlan()
	p.Shell = []string{"/bin/sh", "-c"}
	p.Pull = PullNever
	p.StartTimeout = time.Minute
	p.Networks[0].Driver = "macvlan"
	p.Defaults()

	assert.Equal(t, []string{"/bin/sh", "-c"}, p.Shell)
	assert.Equal(t, PullNever, p.Pull)
	assert.Equal(t, time.Minute, p.StartTimeout)
	assert.Equal(t, "macvlan", p.Networks[0].Driver)
}

func TestPlan_DefaultShellIsCopied(t *testing.T) {
	p := validPlan()
	p.Defaults()
	p.Shell[0] = "/bin/zsh"

	assert.Equal(t, "/bin/bash", DefaultShell[0])
}

func TestPlan_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Plan)
	}{
		{"missing image", func(p *Plan) { p.Container.Image = "" }},
		{"relative project dir", func(p *Plan) { p.ProjectDir = "nmstate" }},
		{"relative workspace", func(p *Plan) { p.Container.Workspace = "workspace" }},
		{"no steps", func(p *Plan) { p.Steps = nil }},
		{"unknown pull policy", func(p *Plan) { p.Pull = "sometimes" }},
		{"unknown tty mode", func(p *Plan) { p.TTY = "maybe" }},
		{"unnamed network", func(p *Plan) { p.Networks[1].Name = "" }},
		{"duplicate network", func(p *Plan) { p.Networks[1].Name = "net0" }},
		{"unnamed step", func(p *Plan) { p.Steps[1].Name = "" }},
		{"duplicate step", func(p *Plan) { p.Steps[1].Name = "networks"; p.Steps[1].Kind = StepPurge }},
		{"empty command", func(p *Plan) { p.Steps[1].Run = "" }},
		{"unknown kind", func(p *Plan) { p.Steps[1].Kind = "reboot" }},
		{"unknown policy", func(p *Plan) { p.Steps[1].Policy = "ignored" }},
		{"negative timeout", func(p *Plan) { p.Steps[1].Timeout = -time.Second }},
		{"two networks steps", func(p *Plan) { p.Steps[1] = Step{Name: "again", Kind: StepNetworks} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlan()
			p.Defaults()
			tt.mutate(p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidPlan)
		})
	}
}

func TestPlan_EmptyCommandError(t *testing.T) {
	p := validPlan()
	p.Defaults()
	p.Steps[1].Run = ""

	assert.ErrorIs(t, p.Validate(), ErrEmptyCommand)
}

func TestPlan_HasNetworksStep(t *testing.T) {
	p := validPlan()
	p.Defaults()
	assert.True(t, p.HasNetworksStep())

	p.Steps = p.Steps[1:]
	assert.False(t, p.HasNetworksStep())
}

func TestStep_Fatal(t *testing.T) {
	assert.True(t, Step{}.Fatal())
	assert.True(t, Step{Policy: PolicyFatal}.Fatal())
	assert.False(t, Step{Policy: PolicyTolerated}.Fatal())
}
