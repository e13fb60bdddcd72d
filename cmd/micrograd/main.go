// Package main provides the micrograd CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/born-ml/micrograd/internal/app"
	"github.com/born-ml/micrograd/internal/cli"
)

func main() {
	// Minimal logger until the app configures its own.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args, trains the selected run and prints its summary to outW.
func run(outW io.Writer, args []string) (err error) {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Tape exhaustion and width mismatches panic; report them as errors.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("micrograd panicked: %v", r)
		}
	}()

	a, err := app.New(outW, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := a.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(outW, "run %s (%s): %d iterations, loss %.6f\n", summary.Run, summary.RunID, summary.Iterations, summary.Loss)
	if summary.HasAccuracy {
		fmt.Fprintf(outW, "accuracy %.4f\n", summary.Accuracy)
	}
	return nil
}
