// Package config loads run settings from an optional HCL file. Values are
// layered: Default, then the file, then whatever the caller sets afterwards
// (the CLI applies its flags last).
//
// Expressions in the file are evaluated with an "env" map holding the
// process environment:
//
//	layer     = env.TRUSS_LAYER
//	tolerance = 1e-4
//
//	default_material {
//	  ea = 21000
//	  ei = 7000
//	}
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/chazu/truss/pkg/compile"
	"github.com/chazu/truss/pkg/ctxlog"
	"github.com/chazu/truss/pkg/export"
	"github.com/chazu/truss/pkg/extract"
	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/registry"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// MaxLayerLength bounds layer names.
const MaxLayerLength = 255

var layerPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Config is the full set of run settings.
type Config struct {
	Layer           string
	Tolerance       float64
	SpatialIndex    bool
	DefaultMaterial graph.Material
	Blocks          extract.BlockNames
	Log             Log
	Export          Export
}

// Log selects the logger. An empty Format lets the caller choose.
type Log struct {
	Level  string
	Format string
}

// Export configures the optional DXF export. An empty Path disables it.
type Export struct {
	Path      string
	GlyphSize float64
}

// Default returns the built-in settings. Layer has no default.
func Default() Config {
	return Config{
		Tolerance:       registry.DefaultTolerance,
		DefaultMaterial: compile.DefaultOptions().DefaultMaterial,
		Blocks:          extract.DefaultBlockNames(),
		Log:             Log{Level: "info"},
	}
}

// file mirrors the HCL layout. Pointers tell an absent key from a zero one.
type file struct {
	Layer           *string        `hcl:"layer,optional"`
	Tolerance       *float64       `hcl:"tolerance,optional"`
	SpatialIndex    *bool          `hcl:"spatial_index,optional"`
	DefaultMaterial *materialBlock `hcl:"default_material,block"`
	Blocks          *blocksBlock   `hcl:"blocks,block"`
	Log             *logBlock      `hcl:"log,block"`
	Export          *exportBlock   `hcl:"export,block"`
}

type materialBlock struct {
	EA *float64 `hcl:"ea,optional"`
	EI *float64 `hcl:"ei,optional"`
}

type blocksBlock struct {
	SupportFixed   *string `hcl:"support_fixed,optional"`
	SupportHinged  *string `hcl:"support_hinged,optional"`
	SupportRoll    *string `hcl:"support_roll,optional"`
	Material       *string `hcl:"material,optional"`
	Arrow          *string `hcl:"arrow,optional"`
	Arrowhead      *string `hcl:"arrowhead,optional"`
	DefpointsLayer *string `hcl:"defpoints_layer,optional"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type exportBlock struct {
	Path      *string  `hcl:"path,optional"`
	GlyphSize *float64 `hcl:"glyph_size,optional"`
}

// Load reads the HCL file at path and applies it on top of base. The result
// is not validated; call Validate once every layer has been applied.
func Load(ctx context.Context, path string, base Config) (Config, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("loading config file", "path", path)

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return base, fmt.Errorf("config: failed to parse %s: %w", path, diags)
	}
	return decode(f.Body, path, base)
}

// Parse is Load for in-memory source; filename is used in diagnostics.
func Parse(src []byte, filename string, base Config) (Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return base, fmt.Errorf("config: failed to parse %s: %w", filename, diags)
	}
	return decode(f.Body, filename, base)
}

func decode(body hcl.Body, name string, c Config) (Config, error) {
	var raw file
	if diags := gohcl.DecodeBody(body, evalContext(), &raw); diags.HasErrors() {
		return c, fmt.Errorf("config: failed to decode %s: %w", name, diags)
	}

	set(&c.Layer, raw.Layer)
	set(&c.Tolerance, raw.Tolerance)
	set(&c.SpatialIndex, raw.SpatialIndex)
	if m := raw.DefaultMaterial; m != nil {
		set(&c.DefaultMaterial.EA, m.EA)
		set(&c.DefaultMaterial.EI, m.EI)
	}
	if b := raw.Blocks; b != nil {
		set(&c.Blocks.SupportFixed, b.SupportFixed)
		set(&c.Blocks.SupportHinged, b.SupportHinged)
		set(&c.Blocks.SupportRoll, b.SupportRoll)
		set(&c.Blocks.Material, b.Material)
		set(&c.Blocks.Arrow, b.Arrow)
		set(&c.Blocks.Arrowhead, b.Arrowhead)
		set(&c.Blocks.DefpointsLayer, b.DefpointsLayer)
	}
	if l := raw.Log; l != nil {
		set(&c.Log.Level, l.Level)
		set(&c.Log.Format, l.Format)
	}
	if e := raw.Export; e != nil {
		set(&c.Export.Path, e.Path)
		set(&c.Export.GlyphSize, e.GlyphSize)
	}
	return c, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}
	envVal := cty.MapValEmpty(cty.String)
	if len(env) > 0 {
		envVal = cty.MapVal(env)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envVal},
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch {
	case c.Layer == "":
		errs = append(errs, errors.New("layer is required"))
	case len(c.Layer) > MaxLayerLength:
		errs = append(errs, fmt.Errorf("layer name is %d characters, maximum is %d", len(c.Layer), MaxLayerLength))
	case !layerPattern.MatchString(c.Layer):
		errs = append(errs, fmt.Errorf("layer %q may only contain letters, digits, '_' and '-'", c.Layer))
	}
	if c.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("tolerance is %g, must be positive", c.Tolerance))
	}
	if c.DefaultMaterial.EA <= 0 {
		errs = append(errs, fmt.Errorf("default material EA is %g, must be positive", c.DefaultMaterial.EA))
	}
	if c.DefaultMaterial.EI <= 0 {
		errs = append(errs, fmt.Errorf("default material EI is %g, must be positive", c.DefaultMaterial.EI))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q is not one of text, json", c.Log.Format))
	}
	if c.Export.GlyphSize < 0 {
		errs = append(errs, fmt.Errorf("export glyph size is %g, must not be negative", c.Export.GlyphSize))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ExtractOptions returns the extraction settings.
func (c Config) ExtractOptions() extract.Options {
	return extract.Options{
		Layer:        c.Layer,
		Tolerance:    c.Tolerance,
		SpatialIndex: c.SpatialIndex,
		Blocks:       c.Blocks,
	}
}

// CompileOptions returns the compilation settings.
func (c Config) CompileOptions() compile.Options {
	return compile.Options{DefaultMaterial: c.DefaultMaterial}
}

// ExportOptions returns the export settings.
func (c Config) ExportOptions() export.Options {
	return export.Options{GlyphSize: c.Export.GlyphSize}
}
