package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	defaults "github.com/creasty/defaults"
	"github.com/gobs/args"
	ini "gopkg.in/ini.v1"

	"github.com/nmstate/testbox/core"
)

const (
	sectionGlobal    = "global"
	sectionContainer = "container"
	sectionMount     = "mount"
	sectionNetwork   = "network"
	sectionStep      = "step"
)

// iniLoadOptions keeps ';' and '#' inside values: step commands are shell.
var iniLoadOptions = ini.LoadOptions{
	AllowShadows:        true,
	InsensitiveKeys:     true,
	IgnoreInlineComment: true,
}

// ErrConfig marks a profile that cannot be loaded or turned into a plan.
var ErrConfig = errors.New("invalid configuration")

// Config is a parsed testbox profile.
type Config struct {
	Global    GlobalConfig    `json:"global"`
	Container ContainerConfig `json:"container"`
	Mounts    []*MountConfig   `json:"mounts" validate:"dive"`
	Networks  []*NetworkConfig `json:"networks" validate:"dive"`
	Steps     []*StepConfig    `json:"steps" validate:"required,min=1,dive"`

	// Warnings lists the unknown keys found while parsing
	Warnings []string `json:"warnings,omitempty"`

	configPath string
	builtin    bool
	logger     core.Logger
}

// GlobalConfig is the [global] section.
type GlobalConfig struct {
	LogLevel       string        `mapstructure:"log-level" json:"log-level,omitempty" validate:"omitempty,oneof=trace debug info warning warn error fatal panic"`
	ProjectDir     string        `mapstructure:"project-dir" json:"project-dir" default:"."`
	ProjectMarkers []string      `mapstructure:"project-marker" json:"project-markers,omitempty"`
	Shell          string        `mapstructure:"shell" json:"shell" default:"/bin/bash -c" validate:"required"`
	Pull           string        `mapstructure:"pull" json:"pull" default:"missing" validate:"oneof=always missing never"`
	TTY            string        `mapstructure:"tty" json:"tty" default:"auto" validate:"oneof=auto always never"`
	StartTimeout   time.Duration `mapstructure:"start-timeout" json:"start-timeout" default:"30s" validate:"duration_gte=1s"`
	CleanupTimeout time.Duration `mapstructure:"cleanup-timeout" json:"cleanup-timeout" default:"60s" validate:"duration_gte=1s"`
	OutputTail     int64         `mapstructure:"output-tail" json:"output-tail" default:"65536" validate:"gte=0"`
	// TestArgs are the extra args used when none are given on the command line
	TestArgs string `mapstructure:"test-args" json:"test-args,omitempty"`
}

// ContainerConfig is the [container] section.
type ContainerConfig struct {
	Image      string   `mapstructure:"image" json:"image" validate:"required,dockerimage"`
	Name       string   `mapstructure:"name" json:"name,omitempty" validate:"resourcename"`
	Privileged bool     `mapstructure:"privileged" json:"privileged"`
	CgroupNS   string   `mapstructure:"cgroupns" json:"cgroupns,omitempty" validate:"omitempty,oneof=host private"`
	Workspace  string   `mapstructure:"workspace" json:"workspace" default:"/workspace" validate:"required,startswith=/"`
	Platform   string   `mapstructure:"platform" json:"platform,omitempty"`
	Labels     []string `mapstructure:"label" json:"labels,omitempty"`
}

// MountConfig is a [mount "name"] section.
type MountConfig struct {
	Name     string `mapstructure:"-" json:"name"`
	Source   string `mapstructure:"source" json:"source" validate:"required"`
	Target   string `mapstructure:"target" json:"target" validate:"required,startswith=/"`
	ReadOnly bool   `mapstructure:"read-only" json:"read-only"`
}

// NetworkConfig is a [network "name"] section.
type NetworkConfig struct {
	Name      string `mapstructure:"-" json:"name" validate:"required,resourcename"`
	Driver    string `mapstructure:"driver" json:"driver" default:"bridge"`
	Interface string `mapstructure:"interface" json:"interface,omitempty" validate:"ifname"`
}

// StepConfig is a [step "name"] section.
type StepConfig struct {
	Name       string        `mapstructure:"-" json:"name" validate:"required"`
	Kind       string        `mapstructure:"kind" json:"kind" default:"exec" validate:"oneof=exec networks purge"`
	Run        string        `mapstructure:"run" json:"run,omitempty" validate:"required_if=Kind exec"`
	Policy     string        `mapstructure:"policy" json:"policy" default:"fatal" validate:"oneof=fatal tolerated"`
	Timeout    time.Duration `mapstructure:"timeout" json:"timeout,omitempty" validate:"gte=0"`
	WorkingDir string        `mapstructure:"workdir" json:"workdir,omitempty" validate:"omitempty,startswith=/"`
	Env        []string      `mapstructure:"env" json:"env,omitempty" validate:"dive,envvar"`
	AppendArgs bool          `mapstructure:"append-args" json:"append-args,omitempty"`
}

// NewConfig creates an empty config with defaults applied.
func NewConfig(logger core.Logger) *Config {
	c := &Config{logger: logger}
	_ = defaults.Set(c)
	return c
}

// BuildFromFile loads the profile at filename. Relative paths in it are
// resolved against the directory holding it.
func BuildFromFile(filename string, logger core.Logger) (*Config, error) {
	c := NewConfig(logger)
	cfg, err := ini.LoadSources(iniLoadOptions, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := parseIni(cfg, c); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	c.configPath = abs
	logger.Debugf("loaded config file %s", abs)
	return c, nil
}

// BuildFromString parses a profile held in memory. Relative paths in it are
// resolved against the directory of the running executable.
func BuildFromString(config string, logger core.Logger) (*Config, error) {
	c := NewConfig(logger)
	cfg, err := ini.LoadSources(iniLoadOptions, []byte(config))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := parseIni(cfg, c); err != nil {
		return nil, err
	}
	c.builtin = true
	return c, nil
}

// LoadConfig loads filename, or the built-in profile when filename is empty.
func LoadConfig(filename string, logger core.Logger) (*Config, error) {
	if filename == "" {
		logger.Debugf("using built-in nmstate profile")
		return BuildFromString(DefaultProfile, logger)
	}
	return BuildFromFile(filename, logger)
}

// Source describes where the profile came from.
func (c *Config) Source() string {
	if c.builtin || c.configPath == "" {
		return "built-in"
	}
	return c.configPath
}

func parseIni(cfg *ini.File, c *Config) error {
	for _, section := range cfg.Sections() {
		kind, name := parseSectionName(section.Name())

		var (
			target any
			label  = section.Name()
		)
		switch kind {
		case ini.DefaultSection:
			if len(section.Keys()) == 0 {
				continue
			}
			c.warnf("keys outside of any section are ignored")
			continue
		case sectionGlobal:
			target = &c.Global
		case sectionContainer:
			target = &c.Container
		case sectionMount:
			m := &MountConfig{Name: name}
			c.Mounts = append(c.Mounts, m)
			target = m
		case sectionNetwork:
			n := &NetworkConfig{Name: name}
			c.Networks = append(c.Networks, n)
			target = n
		case sectionStep:
			s := &StepConfig{Name: name}
			c.Steps = append(c.Steps, s)
			target = s
		default:
			c.warnf("unknown section [%s] is ignored", label)
			continue
		}

		if err := c.checkSectionName(kind, name); err != nil {
			return err
		}

		res, err := decodeWithMetadata(sectionToMap(section), target)
		if err != nil {
			return fmt.Errorf("%w: section [%s]: %w", ErrConfig, label, err)
		}
		for _, key := range res.UnusedKeys {
			c.warnf("unknown key %q in section [%s]", key, label)
		}
		if err := defaults.Set(target); err != nil {
			return fmt.Errorf("%w: section [%s]: %w", ErrConfig, label, err)
		}
	}
	return nil
}

func (c *Config) checkSectionName(kind, name string) error {
	switch kind {
	case sectionGlobal, sectionContainer:
		if name != "" {
			return fmt.Errorf("%w: section [%s] takes no name", ErrConfig, kind)
		}
	default:
		if err := nameValidator.ValidateSectionName(name); err != nil {
			return fmt.Errorf("%w: [%s]: %w", ErrConfig, kind, err)
		}
	}
	return nil
}

func (c *Config) warnf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	c.Warnings = append(c.Warnings, msg)
	if c.logger != nil {
		c.logger.Warningf("%s", msg)
	}
}

// Validate checks the profile beyond what the struct tags express.
func (c *Config) Validate() error {
	if err := ValidateConfig(c); err != nil {
		return err
	}

	var problems []string
	for _, l := range c.Container.Labels {
		if k, _, ok := strings.Cut(l, "="); !ok || strings.TrimSpace(k) == "" {
			problems = append(problems, fmt.Sprintf("label %q must have the form key=value", l))
		}
	}
	seen := make(map[string]bool)
	for _, s := range c.Steps {
		if seen[s.Name] {
			problems = append(problems, fmt.Sprintf("step %q is defined twice", s.Name))
		}
		seen[s.Name] = true
	}
	networkSteps := 0
	for _, s := range c.Steps {
		if s.Kind == string(core.StepNetworks) {
			networkSteps++
		}
		if s.AppendArgs && s.Kind != string(core.StepExec) {
			problems = append(problems, fmt.Sprintf("step %q: append-args needs an exec step", s.Name))
		}
	}
	if networkSteps > 1 {
		problems = append(problems, "at most one networks step is allowed")
	}
	if networkSteps == 1 && len(c.Networks) == 0 {
		problems = append(problems, "networks step without any [network] section")
	}

	names := make(map[string]bool)
	interfaces := make(map[string]bool)
	for _, n := range c.Networks {
		if names[n.Name] {
			problems = append(problems, fmt.Sprintf("network %q is defined twice", n.Name))
		}
		names[n.Name] = true
		if n.Interface != "" {
			if interfaces[n.Interface] {
				problems = append(problems, fmt.Sprintf("interface %q is used by two networks", n.Interface))
			}
			interfaces[n.Interface] = true
		}
	}
	for _, m := range c.Mounts {
		if err := nameValidator.ValidateHostPath(m.Source); err != nil {
			problems = append(problems, fmt.Sprintf("mount %q: %v", m.Name, err))
		}
	}
	if _, err := c.shell(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrValidationFailed, strings.Join(problems, "\n  "))
	}
	return nil
}

func (c *Config) shell() ([]string, error) {
	shell := args.GetArgs(c.Global.Shell)
	if len(shell) == 0 {
		return nil, fmt.Errorf("shell %q has no command", c.Global.Shell)
	}
	return shell, nil
}

// baseDir is the directory relative paths in the profile are resolved against.
func (c *Config) baseDir() (string, error) {
	if c.builtin || c.configPath == "" {
		return core.ExecutableDir()
	}
	return filepath.Dir(c.configPath), nil
}

// ToPlan converts the profile into a plan. extraArgs replace test-args when
// non-empty.
func (c *Config) ToPlan(extraArgs []string) (*core.Plan, error) {
	base, err := c.baseDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	projectDir, err := core.ResolveProjectDir(c.Global.ProjectDir, base)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := core.CheckProjectMarkers(projectDir, c.Global.ProjectMarkers); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	shell, err := c.shell()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if len(extraArgs) == 0 && c.Global.TestArgs != "" {
		extraArgs = args.GetArgs(c.Global.TestArgs)
	}
	if err := nameValidator.ValidateArgs(extraArgs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	plan := &core.Plan{
		Container: core.ContainerSpec{
			Image:      c.Container.Image,
			Name:       c.Container.Name,
			Privileged: c.Container.Privileged,
			CgroupNS:   c.Container.CgroupNS,
			Workspace:  c.Container.Workspace,
			Platform:   c.Container.Platform,
			Labels:     parseLabels(c.Container.Labels),
		},
		ProjectDir:     projectDir,
		Shell:          shell,
		ExtraArgs:      extraArgs,
		Pull:           core.PullPolicy(c.Global.Pull),
		TTY:            core.TTYMode(c.Global.TTY),
		StartTimeout:   c.Global.StartTimeout,
		CleanupTimeout: c.Global.CleanupTimeout,
		OutputTail:     c.Global.OutputTail,
	}

	for _, m := range c.Mounts {
		source := m.Source
		if !filepath.IsAbs(source) {
			source = filepath.Join(base, source)
		}
		plan.Container.Mounts = append(plan.Container.Mounts, core.Mount{
			Source:   source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}
	for _, n := range c.Networks {
		plan.Networks = append(plan.Networks, core.NetworkSpec{
			Name:      n.Name,
			Driver:    n.Driver,
			Interface: n.Interface,
		})
	}
	for _, s := range c.Steps {
		plan.Steps = append(plan.Steps, core.Step{
			Name:       s.Name,
			Kind:       core.StepKind(s.Kind),
			Run:        s.Run,
			Policy:     core.StepPolicy(s.Policy),
			Timeout:    s.Timeout,
			WorkingDir: s.WorkingDir,
			Env:        s.Env,
			AppendArgs: s.AppendArgs,
		})
	}

	return plan, nil
}

func parseLabels(entries []string) map[string]string {
	if len(entries) == 0 {
		return nil
	}
	labels := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, _ := strings.Cut(e, "=")
		labels[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return labels
}
