package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/born-ml/micrograd/internal/app"
	"github.com/born-ml/micrograd/internal/config"
)

// Version is the release reported by the version subcommand.
const Version = "v0.1.0-dev"

// ExitError carries the process exit code for a failed invocation.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns the app configuration,
// whether the program should exit cleanly without running, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("micrograd", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprintf(output, `
micrograd - scalar reverse-mode autodiff and dense network trainer.

Usage:
  micrograd [options] <run>
  micrograd version

Arguments:
  run
    Run block name in the -config file, or one of the embedded demos:
    %s

Options:
`, strings.Join(config.Demos(), ", "))
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an HCL run file. Without it, <run> names an embedded demo.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	seedFlag := flagSet.Int64("seed", 0, "Override the run seed. 0 keeps the configured seed.")
	iterationsFlag := flagSet.Int("iterations", 0, "Override the number of training steps. 0 keeps the configured value.")
	dumpFlag := flagSet.Bool("dump", false, "Print every graph node after training.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() > 0 && flagSet.Arg(0) == "version" {
		fmt.Fprintf(output, "micrograd %s\n", Version)
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %v", flagSet.Args()[1:])}
	}

	runName := flagSet.Arg(0)
	if runName == "" && *configFlag == "" {
		slog.Debug("No run given, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg, err := app.NewConfig(app.Config{
		ConfigPath: *configFlag,
		RunName:    runName,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
		Seed:       *seedFlag,
		Iterations: *iterationsFlag,
		Dump:       *dumpFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return cfg, false, nil
}
