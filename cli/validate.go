package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nmstate/testbox/core"
)

// ValidateCommand validates a profile and prints the effective config
type ValidateCommand struct {
	ConfigFile string `long:"config" env:"TESTBOX_CONFIG" description:"profile to validate; the built-in nmstate profile when empty"`
	LogLevel   string `long:"log-level" env:"TESTBOX_LOG_LEVEL" description:"Set log level (overrides config)"`
	Logger     core.Logger

	out io.Writer
}

// Execute runs the validation command
func (c *ValidateCommand) Execute(_ []string) error {
	if err := ApplyLogLevel(c.LogLevel); err != nil {
		return err
	}

	conf, err := LoadConfig(c.ConfigFile, c.Logger)
	if err != nil {
		c.Logger.Errorf("ERROR")
		return err
	}
	c.Logger.Debugf("Validating %s ... ", conf.Source())
	if c.LogLevel == "" {
		if err := ApplyLogLevel(conf.Global.LogLevel); err != nil {
			c.Logger.Warningf("Failed to apply log level from config (using default): %v", err)
		}
	}

	if err := conf.Validate(); err != nil {
		c.Logger.Errorf("ERROR")
		return err
	}

	out, err := json.MarshalIndent(conf, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	w := c.out
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintln(w, string(out))

	c.Logger.Debugf("OK")
	return nil
}
