package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, registry.DefaultTolerance, c.Tolerance)
	assert.Equal(t, graph.Material{EA: 15000, EI: 5000}, c.DefaultMaterial)
	assert.Equal(t, "support_roll", c.Blocks.SupportRoll)
	assert.Equal(t, "info", c.Log.Level)
	assert.Empty(t, c.Layer)
}

func TestParseOverlaysDefaults(t *testing.T) {
	src := `
layer         = "FRAME"
tolerance     = 0.001
spatial_index = true

default_material {
  ea = 21000
}

blocks {
  arrow = "PFEIL"
}

log {
  format = "json"
}

export {
  path       = "out.dxf"
  glyph_size = 0.25
}
`
	c, err := Parse([]byte(src), "truss.hcl", Default())
	require.NoError(t, err)

	assert.Equal(t, "FRAME", c.Layer)
	assert.Equal(t, 0.001, c.Tolerance)
	assert.True(t, c.SpatialIndex)
	assert.Equal(t, graph.Material{EA: 21000, EI: 5000}, c.DefaultMaterial, "unset ei keeps its default")
	assert.Equal(t, "PFEIL", c.Blocks.Arrow)
	assert.Equal(t, "Arrowhead", c.Blocks.Arrowhead)
	assert.Equal(t, Log{Level: "info", Format: "json"}, c.Log)
	assert.Equal(t, Export{Path: "out.dxf", GlyphSize: 0.25}, c.Export)
	require.NoError(t, c.Validate())
}

func TestParseEnv(t *testing.T) {
	t.Setenv("TRUSS_TEST_LAYER", "STATIK")
	c, err := Parse([]byte(`layer = env.TRUSS_TEST_LAYER`), "env.hcl", Default())
	require.NoError(t, err)
	assert.Equal(t, "STATIK", c.Layer)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `layer = `},
		{"unknown key", `colour = 3`},
		{"wrong type", `tolerance = "small"`},
		{"unknown env", `layer = env.TRUSS_TEST_SURELY_UNSET_VARIABLE`},
		{"duplicate block", "log {}\nlog {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := Default()
			c, err := Parse([]byte(tt.src), "bad.hcl", base)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "config: "), err.Error())
			assert.Equal(t, base, c, "base returned untouched on error")
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truss.hcl")
	require.NoError(t, os.WriteFile(path, []byte("layer = \"L1\"\n"), 0o644))

	c, err := Load(context.Background(), path, Default())
	require.NoError(t, err)
	assert.Equal(t, "L1", c.Layer)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.hcl"), Default())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Layer = "FRAME_1-a"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no layer", func(c *Config) { c.Layer = "" }, "layer is required"},
		{"long layer", func(c *Config) { c.Layer = strings.Repeat("x", MaxLayerLength+1) }, "maximum is 255"},
		{"bad layer", func(c *Config) { c.Layer = "A B" }, "may only contain"},
		{"zero tolerance", func(c *Config) { c.Tolerance = 0 }, "tolerance is 0"},
		{"negative EA", func(c *Config) { c.DefaultMaterial.EA = -1 }, "EA is -1"},
		{"zero EI", func(c *Config) { c.DefaultMaterial.EI = 0 }, "EI is 0"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
		{"glyph size", func(c *Config) { c.Export.GlyphSize = -2 }, "glyph size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("reports all", func(t *testing.T) {
		c := Config{}
		err := c.Validate()
		require.Error(t, err)
		for _, want := range []string{"layer", "tolerance", "EA", "EI", "log level"} {
			assert.Contains(t, err.Error(), want)
		}
	})
}

func TestOptions(t *testing.T) {
	c := Default()
	c.Layer = "FRAME"
	c.SpatialIndex = true
	c.Export.GlyphSize = 2

	eo := c.ExtractOptions()
	assert.Equal(t, "FRAME", eo.Layer)
	assert.True(t, eo.SpatialIndex)
	assert.Equal(t, c.Blocks, eo.Blocks)
	assert.Equal(t, c.DefaultMaterial, c.CompileOptions().DefaultMaterial)
	assert.Equal(t, 2.0, c.ExportOptions().GlyphSize)
}
