package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chazu/truss/pkg/compile"
	"github.com/chazu/truss/pkg/ctxlog"
	"github.com/chazu/truss/pkg/drawing"
	"github.com/chazu/truss/pkg/export"
	"github.com/chazu/truss/pkg/extract"
	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/solver"
	"golang.org/x/term"
)

// App runs the drawing-to-graph pipeline for one invocation.
type App struct {
	out io.Writer
	inv *invocation
}

// Result is everything one run produced.
type Result struct {
	Pass       *extract.Pass
	Structure  *graph.Structure
	Validation graph.ValidationResult
	Calls      *solver.Recorder
}

// NewApp creates an App writing its reports to out.
func NewApp(out io.Writer, inv *invocation) *App {
	return &App{out: out, inv: inv}
}

// newLogger builds the run logger. With no format configured it writes text
// to a terminal and JSON otherwise.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if format == "" {
		format = "json"
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = "text"
		}
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Run reads the drawing, extracts and compiles the structure, validates it,
// hands it to a recording solver, prints the selected reports and finally
// exports the structure if an output path is configured.
func (a *App) Run(ctx context.Context) (*Result, error) {
	cfg := a.inv.Config
	logger := ctxlog.FromContext(ctx)
	logger.Debug("pipeline started", "input", a.inv.Input, "layer", cfg.Layer)

	doc, err := drawing.Open(a.inv.Input)
	if err != nil {
		return nil, &ExitError{Code: 1, Message: err.Error()}
	}

	pass, err := extract.Run(ctx, doc, cfg.ExtractOptions())
	if err != nil {
		return nil, &ExitError{Code: 1, Message: err.Error()}
	}

	res := &Result{Pass: pass}
	res.Structure = compile.FromPass(ctx, pass, cfg.CompileOptions())
	res.Validation = graph.Validate(res.Structure)
	for _, w := range res.Validation.Warnings {
		logger.Warn("validation warning", "node", w.Node, "message", w.Message)
	}
	if !res.Validation.OK() {
		msgs := make([]string, 0, len(res.Validation.Errors))
		for _, e := range res.Validation.Errors {
			logger.Error("validation error", "node", e.Node, "element", e.Element, "message", e.Message)
			msgs = append(msgs, "  "+e.Error())
		}
		return res, &ExitError{Code: 1, Message: "structure is invalid:\n" + strings.Join(msgs, "\n")}
	}

	res.Calls = &solver.Recorder{}
	if err := solver.Submit(res.Structure, res.Calls); err != nil {
		return res, &ExitError{Code: 1, Message: err.Error()}
	}

	if err := a.print(res); err != nil {
		return res, fmt.Errorf("writing report: %w", err)
	}

	if cfg.Export.Path != "" {
		if err := export.WriteDXF(cfg.Export.Path, res.Structure, cfg.ExportOptions()); err != nil {
			return res, &ExitError{Code: 1, Message: err.Error()}
		}
		logger.Info("structure exported", "path", cfg.Export.Path)
	}

	logger.Debug("pipeline finished")
	return res, nil
}

func (a *App) print(res *Result) error {
	sel := a.inv.Print
	s := res.Structure

	if sel[printSummary] {
		fmt.Fprintf(a.out, "layer %s: %d nodes, %d elements, %d supports, %d loads\n",
			res.Pass.Layer, len(s.Nodes), len(s.Elements), len(s.Supports), len(s.Loads))
		fmt.Fprintf(a.out, "vertices %d, splits %d, dropped %d, warnings %d\n",
			res.Pass.Registry.Len(), res.Pass.Splits, s.Dropped.Total(),
			len(s.Warnings)+len(res.Validation.Warnings))
	}
	if sel[printStructure] {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	if sel[printCalls] {
		if _, err := res.Calls.WriteTo(a.out); err != nil {
			return err
		}
	}
	if sel[printWarnings] {
		for _, w := range s.Warnings {
			fmt.Fprintf(a.out, "warning: %s\n", w)
		}
		for _, w := range res.Validation.Warnings {
			fmt.Fprintf(a.out, "warning: %s\n", w)
		}
	}
	return nil
}
