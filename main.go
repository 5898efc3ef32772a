package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	ini "gopkg.in/ini.v1"

	"github.com/nmstate/testbox/cli"
	"github.com/nmstate/testbox/core"
)

var version string
var build string

// buildLogger sends logs to stderr; stdout carries the step output.
func buildLogger(level string) core.Logger {
	logrus.SetOutput(os.Stderr)
	logrus.SetReportCaller(true)
	forceColors := false
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb" && os.Getenv("NO_COLOR") == "" {
		forceColors = true
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		ForceColors:     forceColors,
		DisableQuote:    true,
		TimestampFormat: "2006-01-02 15:04:05",
		CallerPrettyfier: func(frame *runtime.Frame) (string, string) {
			return "", fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		},
	})
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	return core.NewLogrusAdapter(logrus.StandardLogger())
}

// configLogLevel reads [global] log-level from the profile, if any.
func configLogLevel(configFile string) string {
	if configFile == "" {
		return ""
	}
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true, InsensitiveKeys: true, IgnoreInlineComment: true}, configFile)
	if err != nil {
		return ""
	}
	sec, err := cfg.GetSection("global")
	if err != nil {
		return ""
	}
	return sec.Key("log-level").String()
}

var commands = []string{"run", "validate", "doctor", "prune"}

// valueFlags are the long options that take the next argument as their value.
var valueFlags = map[string]bool{
	"--config":       true,
	"--image":        true,
	"--pull":         true,
	"--tty":          true,
	"--report":       true,
	"--metrics-file": true,
	"--log-level":    true,
}

// withDefaultCommand moves a command given after leading options to the
// front, and prepends "run" when args name no command. Top-level help is
// left alone.
func withDefaultCommand(args []string) []string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return append([]string{"run"}, args...)
		case i == 0 && (arg == "-h" || arg == "--help"):
			return args
		case strings.HasPrefix(arg, "-"):
			if valueFlags[arg] {
				i++
			}
		case slices.Contains(commands, arg):
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, arg)
			reordered = append(reordered, args[:i]...)
			return append(reordered, args[i+1:]...)
		default:
			return append([]string{"run"}, args...)
		}
	}
	return append([]string{"run"}, args...)
}

func newParser(logger core.Logger, logLevel, configFile string) *flags.Parser {
	parser := flags.NewNamedParser("testbox", flags.HelpFlag|flags.PassDoubleDash)
	parser.AddCommand(
		"run",
		"run the test session (default)",
		"Acquires the container and networks, runs the profile steps and releases everything. "+
			"Arguments after -- are passed to the test runner.",
		&cli.RunCommand{Logger: logger, LogLevel: logLevel, ConfigFile: configFile},
	)
	parser.AddCommand(
		"validate",
		"validates the profile",
		"",
		&cli.ValidateCommand{Logger: logger, LogLevel: logLevel, ConfigFile: configFile},
	)
	parser.AddCommand(
		"doctor",
		"checks that a session can run",
		"",
		&cli.DoctorCommand{Logger: logger, LogLevel: logLevel, ConfigFile: configFile},
	)
	parser.AddCommand(
		"prune",
		"removes containers and networks left behind by killed sessions",
		"",
		&cli.PruneCommand{Logger: logger, LogLevel: logLevel},
	)
	return parser
}

func main() {
	// Pre-parse log-level and config to configure the logger early
	var pre struct {
		LogLevel   string `long:"log-level" env:"TESTBOX_LOG_LEVEL"`
		ConfigFile string `long:"config" env:"TESTBOX_CONFIG"`
	}
	args := withDefaultCommand(os.Args[1:])
	preParser := flags.NewParser(&pre, flags.IgnoreUnknown|flags.PassDoubleDash)
	_, _ = preParser.ParseArgs(args)

	level := pre.LogLevel
	if level == "" {
		level = configLogLevel(pre.ConfigFile)
	}
	logger := buildLogger(level)

	parser := newParser(logger, pre.LogLevel, pre.ConfigFile)
	if _, err := parser.ParseArgs(args); err != nil {
		os.Exit(exitCode(parser, logger, err))
	}
}

func exitCode(parser *flags.Parser, logger core.Logger, err error) int {
	if flagErr, ok := errors.AsType[*flags.Error](err); ok {
		if flagErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagErr.Message)
			return 0
		}
		fmt.Fprintln(os.Stderr, flagErr.Message)
		parser.WriteHelp(os.Stderr)
		fmt.Fprintf(os.Stderr, "\nBuild information\n  commit: %s\n  date:%s\n", version, build)
		return 1
	}

	// A session logs its own failure
	if _, ok := errors.AsType[*cli.ExitError](err); !ok {
		logger.Errorf("%v", err)
	}
	return cli.ExitCode(err)
}
