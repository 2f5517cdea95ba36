// Command truss reads a DXF drawing and normalizes the structure drawn on one
// layer into a graph of nodes, elements, supports and loads.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chazu/truss/pkg/ctxlog"
)

func main() {
	// Minimal logger until the configured one exists.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(outW io.Writer, args []string) error {
	return runWithLog(outW, os.Stderr, args)
}

// runWithLog is run with the log destination made explicit.
func runWithLog(outW, logW io.Writer, args []string) error {
	ctx := context.Background()
	inv, exit, err := parseArgs(ctx, args, outW)
	if err != nil {
		return err
	}
	if exit {
		return nil
	}

	logger := newLogger(logW, inv.Config.Log.Level, inv.Config.Log.Format)
	ctx = ctxlog.WithLogger(ctx, logger)

	_, err = NewApp(outW, inv).Run(ctx)
	return err
}
