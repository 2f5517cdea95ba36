package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/truss/pkg/config"
)

// ExitError carries the process exit code for a failed run.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Print selections.
const (
	printSummary   = "summary"
	printStructure = "structure"
	printCalls     = "calls"
	printWarnings  = "warnings"
	printAll       = "all"
)

// invocation is a fully resolved command line.
type invocation struct {
	Input  string
	Config config.Config
	Print  map[string]bool
}

// parseArgs resolves the command line into an invocation. Settings come from
// config.Default, then the -config file, then flags and the LAYER argument.
// It reports exit=true when the run should stop cleanly (help, no input).
func parseArgs(ctx context.Context, args []string, output io.Writer) (inv *invocation, exit bool, err error) {
	fs := flag.NewFlagSet("truss", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
truss - normalize a structural drawing into a solver-ready graph.

Usage:
  truss [options] INPUT.dxf [LAYER]

Arguments:
  INPUT.dxf
    Drawing to read.
  LAYER
    Layer holding the structure. Required unless set in the config file.

Options:
`)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "Path to an HCL config file.")
	exportPath := fs.String("o", "", "Write the normalized structure to this .dxf file.")
	spatialIndex := fs.Bool("spatial-index", false, "Back the vertex registry with an R-tree.")
	tolerance := fs.Float64("tolerance", 0, "Vertex merge tolerance in drawing units.")
	logLevel := fs.String("log-level", "", "Logging level: 'debug', 'info', 'warn' or 'error'.")
	logFormat := fs.String("log-format", "", "Log format: 'text' or 'json'. Defaults to text on a terminal.")

	printSel := make(map[string]bool)
	fs.Func("print", "Output to print: 'summary', 'structure', 'calls', 'warnings' or 'all'. Repeatable.", func(v string) error {
		v = strings.ToLower(v)
		switch v {
		case printSummary, printStructure, printCalls, printWarnings:
			printSel[v] = true
		case printAll:
			for _, s := range []string{printSummary, printStructure, printCalls, printWarnings} {
				printSel[s] = true
			}
		default:
			return fmt.Errorf("unknown output %q", v)
		}
		return nil
	})

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err)
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return nil, true, nil
	}
	if fs.NArg() > 2 {
		return nil, false, usageError("expected INPUT.dxf [LAYER], got %d arguments", fs.NArg())
	}

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(ctx, *configPath, cfg)
		if err != nil {
			return nil, false, usageError("%s", err)
		}
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["o"] {
		cfg.Export.Path = *exportPath
	}
	if set["spatial-index"] {
		cfg.SpatialIndex = *spatialIndex
	}
	if set["tolerance"] {
		cfg.Tolerance = *tolerance
	}
	if set["log-level"] {
		cfg.Log.Level = strings.ToLower(*logLevel)
	}
	if set["log-format"] {
		cfg.Log.Format = strings.ToLower(*logFormat)
	}
	if fs.NArg() == 2 {
		cfg.Layer = fs.Arg(1)
	}

	if err := cfg.Validate(); err != nil {
		return nil, false, usageError("%s", err)
	}

	input := fs.Arg(0)
	if err := checkInput(input); err != nil {
		return nil, false, usageError("%s", err)
	}
	if cfg.Export.Path != "" {
		if err := checkOutput(cfg.Export.Path); err != nil {
			return nil, false, usageError("%s", err)
		}
	}

	if len(printSel) == 0 {
		printSel[printSummary] = true
	}
	return &invocation{Input: input, Config: cfg, Print: printSel}, false, nil
}

func hasDXFExt(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".dxf")
}

func checkInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input %s is a directory", path)
	}
	if !hasDXFExt(path) {
		return fmt.Errorf("input %s is not a .dxf file", path)
	}
	return nil
}

// checkOutput verifies the export target by creating a scratch file next to
// it.
func checkOutput(path string) error {
	if !hasDXFExt(path) {
		return fmt.Errorf("output %s is not a .dxf file", path)
	}
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", dir)
	}
	f, err := os.CreateTemp(dir, ".truss-"+strconv.Itoa(os.Getpid())+"-*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
