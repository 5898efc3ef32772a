package cli

import (
	"context"
	"errors"

	"github.com/nmstate/testbox/core"
	"github.com/nmstate/testbox/metrics"
)

// RunCommand runs a test session: it acquires the container and networks,
// runs the profile steps and releases everything again.
type RunCommand struct {
	ConfigFile  string `long:"config" env:"TESTBOX_CONFIG" description:"profile to run; the built-in nmstate profile when empty"`
	Image       string `long:"image" env:"TESTBOX_IMAGE" description:"container image (overrides config)"`
	Pull        string `long:"pull" choice:"always" choice:"missing" choice:"never" description:"image pull policy (overrides config)"`
	TTY         string `long:"tty" choice:"auto" choice:"always" choice:"never" description:"attach a TTY to exec steps (overrides config)"`
	Report      string `long:"report" value-name:"FILE" description:"write a YAML session report to FILE"`
	MetricsFile string `long:"metrics-file" value-name:"FILE" description:"write session metrics in Prometheus text format to FILE"`
	LogLevel    string `long:"log-level" env:"TESTBOX_LOG_LEVEL" description:"Set log level (overrides config)"`
	Logger      core.Logger

	newClient      ClientFactory
	controllerOpts []core.ControllerOption
}

// Execute runs the session. args are passed to the test runner.
func (c *RunCommand) Execute(args []string) error {
	if err := ApplyLogLevel(c.LogLevel); err != nil {
		return c.fail(core.ExitFailure, err)
	}

	conf, err := LoadConfig(c.ConfigFile, c.Logger)
	if err != nil {
		return c.fail(core.ExitFailure, err)
	}
	if c.LogLevel == "" {
		if err := ApplyLogLevel(conf.Global.LogLevel); err != nil {
			c.Logger.Warningf("Failed to apply log level from config (using default): %v", err)
		}
	}

	c.applyOverrides(conf)
	if err := conf.Validate(); err != nil {
		return c.fail(core.ExitFailure, err)
	}
	plan, err := conf.ToPlan(args)
	if err != nil {
		return c.fail(core.ExitFailure, err)
	}
	c.Logger.Debugf("Running profile %s with %d step(s)", conf.Source(), len(plan.Steps))

	client, err := c.newClient.orDefault()(c.Logger)
	if err != nil {
		return c.fail(core.ExitStatus(err), err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			c.Logger.Debugf("Closing docker client: %v", err)
		}
	}()

	ctx, stop := core.NotifyInterrupt(context.Background(), c.Logger)
	defer stop()

	session, runErr := core.NewController(client, c.Logger, c.controllerOpts...).Run(ctx, plan)
	for _, err := range session.CleanupErrors {
		c.Logger.Warningf("Cleanup: %v", err)
	}
	c.writeOutputs(conf, session)

	if session.ExitStatus != core.ExitOK {
		if runErr == nil {
			runErr = errors.New("session failed")
		}
		return &ExitError{Code: session.ExitStatus, Err: runErr}
	}

	c.Logger.Noticef("Session %s passed in %v", session.ID, session.Duration())
	return nil
}

func (c *RunCommand) applyOverrides(conf *Config) {
	if c.Image != "" {
		conf.Container.Image = c.Image
	}
	if c.Pull != "" {
		conf.Global.Pull = c.Pull
	}
	if c.TTY != "" {
		conf.Global.TTY = c.TTY
	}
}

// writeOutputs writes the report and metrics files. Failing to write them
// never changes the session exit status.
func (c *RunCommand) writeOutputs(conf *Config, session *core.Session) {
	if c.Report != "" {
		if err := WriteReport(c.Report, NewSessionReport(session, conf.Source())); err != nil {
			c.Logger.Errorf("%v", err)
		} else {
			c.Logger.Debugf("Session report written to %s", c.Report)
		}
	}
	if c.MetricsFile != "" {
		if err := metrics.WriteSessionFile(c.MetricsFile, session); err != nil {
			c.Logger.Errorf("%v", err)
		} else {
			c.Logger.Debugf("Session metrics written to %s", c.MetricsFile)
		}
	}
}

// fail logs err and wraps it with the exit status of a session that never started.
func (c *RunCommand) fail(code int, err error) error {
	c.Logger.Errorf("%v", err)
	return &ExitError{Code: code, Err: err}
}
