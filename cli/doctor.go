package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nmstate/testbox/core"
	"github.com/nmstate/testbox/core/ports"
)

const doctorTimeout = 30 * time.Second

// Status constants for health check results.
const (
	statusPass = "pass"
	statusWarn = "warn"
	statusFail = "fail"
	statusSkip = "skip"
)

// Check categories, in report order.
const (
	categoryConfiguration = "configuration"
	categoryProject       = "project"
	categoryDocker        = "docker"
	categoryImage         = "image"
	categoryLeftovers     = "leftovers"
)

var categoryOrder = []string{
	categoryConfiguration,
	categoryProject,
	categoryDocker,
	categoryImage,
	categoryLeftovers,
}

var titleCase = cases.Title(language.English)

// DoctorCommand checks that a session can run: profile, project tree,
// daemon, image and leftovers of earlier sessions.
type DoctorCommand struct {
	ConfigFile string `long:"config" env:"TESTBOX_CONFIG" description:"profile to check; the built-in nmstate profile when empty"`
	LogLevel   string `long:"log-level" env:"TESTBOX_LOG_LEVEL" description:"Set log level"`
	JSON       bool   `long:"json" description:"Output results as JSON"`
	Logger     core.Logger

	newClient ClientFactory
	out       io.Writer
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Status   string   `json:"status"` // "pass", "warn", "fail", "skip"
	Message  string   `json:"message,omitempty"`
	Hints    []string `json:"hints,omitempty"`
}

// DoctorReport contains all health check results
type DoctorReport struct {
	Healthy bool          `json:"healthy"`
	Checks  []CheckResult `json:"checks"`
}

func (r *DoctorReport) add(check CheckResult) {
	if check.Status == statusFail {
		r.Healthy = false
	}
	r.Checks = append(r.Checks, check)
}

// Execute runs all health checks
func (c *DoctorCommand) Execute(_ []string) error {
	if err := ApplyLogLevel(c.LogLevel); err != nil {
		c.Logger.Warningf("Failed to apply log level (using default): %v", err)
	}

	report := &DoctorReport{
		Healthy: true,
		Checks:  []CheckResult{},
	}

	// Show progress only in non-JSON mode
	var progress *ProgressReporter
	if !c.JSON {
		c.Logger.Noticef("🏥 Running testbox health diagnostics...\n")
		progress = NewProgressReporter(c.Logger, os.Stderr, 4)
	}
	step := func(n int, message string) {
		if progress != nil {
			progress.Step(n, message)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()

	step(1, "Checking configuration...")
	conf := c.checkConfiguration(report)

	step(2, "Checking project...")
	plan := c.checkProject(report, conf)

	step(3, "Checking Docker connectivity...")
	client := c.checkDocker(ctx, report)
	if client != nil {
		defer client.Close()
	}

	step(4, "Checking image and leftovers...")
	if client != nil {
		c.checkImage(ctx, report, client.Images(), plan)
		c.checkLeftovers(ctx, report, client)
	} else {
		for _, category := range []string{categoryImage, categoryLeftovers} {
			report.add(CheckResult{
				Category: category,
				Name:     "Availability",
				Status:   statusSkip,
				Message:  "Skipped (Docker connectivity required)",
			})
		}
	}

	if progress != nil {
		progress.Complete("Health check complete")
	}

	if c.JSON {
		return c.outputJSON(report)
	}
	return c.outputHuman(report)
}

// checkConfiguration loads and validates the profile
func (c *DoctorCommand) checkConfiguration(report *DoctorReport) *Config {
	conf, err := LoadConfig(c.ConfigFile, c.Logger)
	if err != nil {
		hints := []string{"Check INI syntax (sections, keys, values)"}
		if c.ConfigFile != "" {
			hints = append(hints, fmt.Sprintf("Validate with: testbox validate --config=%s", c.ConfigFile))
		}
		report.add(CheckResult{
			Category: categoryConfiguration,
			Name:     "Profile",
			Status:   statusFail,
			Message:  fmt.Sprintf("Cannot load profile: %v", err),
			Hints:    hints,
		})
		return nil
	}

	report.add(CheckResult{
		Category: categoryConfiguration,
		Name:     "Profile",
		Status:   statusPass,
		Message:  conf.Source(),
	})

	if err := conf.Validate(); err != nil {
		report.add(CheckResult{
			Category: categoryConfiguration,
			Name:     "Valid",
			Status:   statusFail,
			Message:  err.Error(),
		})
		return nil
	}

	report.add(CheckResult{
		Category: categoryConfiguration,
		Name:     "Valid",
		Status:   statusPass,
		Message:  fmt.Sprintf("%d step(s), %d network(s)", len(conf.Steps), len(conf.Networks)),
	})

	for _, w := range conf.Warnings {
		report.add(CheckResult{
			Category: categoryConfiguration,
			Name:     "Warning",
			Status:   statusWarn,
			Message:  w,
		})
	}
	return conf
}

// checkProject resolves the project tree and the host side of every mount
func (c *DoctorCommand) checkProject(report *DoctorReport, conf *Config) *core.Plan {
	if conf == nil {
		report.add(CheckResult{
			Category: categoryProject,
			Name:     "Project Directory",
			Status:   statusSkip,
			Message:  "Skipped (configuration validation failed)",
		})
		return nil
	}

	plan, err := conf.ToPlan(nil)
	if err != nil {
		hints := []string{
			"Set project-dir in the [global] section",
			"A relative project-dir is resolved against the profile directory",
		}
		if errors.Is(err, core.ErrNotAProject) {
			hints = append(hints, "The built-in profile expects the binary in a directory of the nmstate checkout; pass --config otherwise")
		}
		report.add(CheckResult{
			Category: categoryProject,
			Name:     "Project Directory",
			Status:   statusFail,
			Message:  err.Error(),
			Hints:    hints,
		})
		return nil
	}

	report.add(CheckResult{
		Category: categoryProject,
		Name:     "Project Directory",
		Status:   statusPass,
		Message:  plan.ProjectDir,
	})

	for _, m := range plan.Container.Mounts {
		name := fmt.Sprintf("Mount %s", m.Target)
		if _, err := os.Stat(m.Source); err != nil {
			report.add(CheckResult{
				Category: categoryProject,
				Name:     name,
				Status:   statusFail,
				Message:  fmt.Sprintf("Host path %s is not available: %v", m.Source, err),
				Hints:    []string{"Fix the source of the [mount] section or create the path on the host"},
			})
			continue
		}
		report.add(CheckResult{
			Category: categoryProject,
			Name:     name,
			Status:   statusPass,
			Message:  m.Source,
		})
	}
	return plan
}

// checkDocker validates Docker connectivity. The returned client is nil when
// the daemon cannot be used.
func (c *DoctorCommand) checkDocker(ctx context.Context, report *DoctorReport) ports.DockerClient {
	client, err := c.newClient.orDefault()(c.Logger)
	if err != nil {
		report.add(CheckResult{
			Category: categoryDocker,
			Name:     "Connectivity",
			Status:   statusFail,
			Message:  fmt.Sprintf("Cannot create Docker client: %v", err),
			Hints:    []string{"Check DOCKER_HOST and the DOCKER_* environment"},
		})
		return nil
	}

	if _, err := client.System().Ping(ctx); err != nil {
		_ = client.Close()
		report.add(CheckResult{
			Category: categoryDocker,
			Name:     "Connectivity",
			Status:   statusFail,
			Message:  fmt.Sprintf("Docker ping failed: %v", err),
			Hints: []string{
				"Check daemon status: systemctl status docker",
				"Check socket: ls -l /var/run/docker.sock",
				"Fix permissions: sudo usermod -aG docker $USER",
			},
		})
		return nil
	}

	report.add(CheckResult{
		Category: categoryDocker,
		Name:     "Connectivity",
		Status:   statusPass,
		Message:  "Docker daemon responding",
	})

	info, err := client.System().Info(ctx)
	if err != nil {
		report.add(CheckResult{
			Category: categoryDocker,
			Name:     "Cgroups",
			Status:   statusWarn,
			Message:  fmt.Sprintf("Cannot read daemon info: %v", err),
		})
		return client
	}

	report.add(CheckResult{
		Category: categoryDocker,
		Name:     "Cgroups",
		Status:   statusPass,
		Message:  fmt.Sprintf("Docker %s, cgroup v%s (%s driver)", info.ServerVersion, info.CgroupVersion, info.CgroupDriver),
	})
	return client
}

// checkImage reports whether the session image is present or can be pulled
func (c *DoctorCommand) checkImage(ctx context.Context, report *DoctorReport, images ports.ImageService, plan *core.Plan) {
	if plan == nil {
		report.add(CheckResult{
			Category: categoryImage,
			Name:     "Availability",
			Status:   statusSkip,
			Message:  "Skipped (configuration validation failed)",
		})
		return
	}

	ref, err := core.NormalizeImage(plan.Container.Image)
	if err != nil {
		report.add(CheckResult{
			Category: categoryImage,
			Name:     "Availability",
			Status:   statusFail,
			Message:  err.Error(),
		})
		return
	}

	exists, err := images.Exists(ctx, ref)
	switch {
	case err != nil:
		report.add(CheckResult{
			Category: categoryImage,
			Name:     "Availability",
			Status:   statusFail,
			Message:  fmt.Sprintf("Cannot inspect %s: %v", ref, err),
		})
	case exists:
		report.add(CheckResult{
			Category: categoryImage,
			Name:     "Availability",
			Status:   statusPass,
			Message:  ref,
		})
	case plan.Pull == core.PullNever:
		report.add(CheckResult{
			Category: categoryImage,
			Name:     "Availability",
			Status:   statusFail,
			Message:  fmt.Sprintf("%s is not present and the pull policy is never", ref),
			Hints:    []string{"Pull it with: docker pull " + ref},
		})
	default:
		report.add(CheckResult{
			Category: categoryImage,
			Name:     "Availability",
			Status:   statusWarn,
			Message:  fmt.Sprintf("%s is not present and will be pulled", ref),
		})
	}
}

// checkLeftovers looks for resources of sessions that were not released
func (c *DoctorCommand) checkLeftovers(ctx context.Context, report *DoctorReport, client ports.DockerClient) {
	leftovers, err := FindLeftovers(ctx, client)
	if err != nil {
		report.add(CheckResult{
			Category: categoryLeftovers,
			Name:     "Managed Resources",
			Status:   statusFail,
			Message:  err.Error(),
		})
		return
	}
	if leftovers.Empty() {
		report.add(CheckResult{
			Category: categoryLeftovers,
			Name:     "Managed Resources",
			Status:   statusPass,
			Message:  "No leftover containers or networks",
		})
		return
	}

	report.add(CheckResult{
		Category: categoryLeftovers,
		Name:     "Managed Resources",
		Status:   statusFail,
		Message:  fmt.Sprintf("%d leftover resource(s): %s", leftovers.Count(), strings.Join(leftovers.Describe(), ", ")),
		Hints:    []string{"Remove them with: testbox prune"},
	})
}

// outputJSON writes the report as JSON
func (c *DoctorCommand) outputJSON(report *DoctorReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	w := c.out
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintln(w, string(data))

	if !report.Healthy {
		return ErrHealthCheckFailed
	}
	return nil
}

// outputHuman outputs results in human-readable format
func (c *DoctorCommand) outputHuman(report *DoctorReport) error {
	c.Logger.Noticef("🏥 testbox Health Check\n")

	categories := make(map[string][]CheckResult)
	for _, check := range report.Checks {
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, category := range categoryOrder {
		checks, exists := categories[category]
		if !exists {
			continue
		}

		c.Logger.Noticef("%s %s", getCategoryIcon(category), titleCase.String(category))
		for _, check := range checks {
			statusIcon := getStatusIcon(check.Status)
			if check.Message != "" {
				c.Logger.Noticef("  %s %s: %s", statusIcon, check.Name, check.Message)
			} else {
				c.Logger.Noticef("  %s %s", statusIcon, check.Name)
			}
			for _, hint := range check.Hints {
				c.Logger.Noticef("    → %s", hint)
			}
		}
		c.Logger.Noticef("")
	}

	failCount := 0
	skipCount := 0
	for _, check := range report.Checks {
		switch check.Status {
		case statusFail:
			failCount++
		case statusSkip:
			skipCount++
		}
	}

	if report.Healthy {
		c.Logger.Noticef("Summary: All checks passed ✅")
		return nil
	}

	c.Logger.Noticef("Summary: %d issue(s) found ❌", failCount)
	if skipCount > 0 {
		c.Logger.Noticef("  (%d check(s) skipped due to blockers)", skipCount)
	}
	return ErrHealthCheckFailed
}

// getCategoryIcon returns emoji for category
func getCategoryIcon(category string) string {
	icons := map[string]string{
		categoryConfiguration: "📋",
		categoryProject:       "📁",
		categoryDocker:        "🐳",
		categoryImage:         "🖼️",
		categoryLeftovers:     "🧹",
	}
	if icon, ok := icons[category]; ok {
		return icon
	}
	return "📌"
}

// getStatusIcon returns emoji for check status
func getStatusIcon(status string) string {
	switch status {
	case statusPass:
		return "✅"
	case statusWarn:
		return "⚠️"
	case statusFail:
		return "❌"
	case statusSkip:
		return "⏭️"
	default:
		return "❓"
	}
}
