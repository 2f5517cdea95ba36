package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractValue(t *testing.T) {
	tests := []struct {
		in     string
		want   Quantity
		wantOK bool
	}{
		{"12,345.5mm", Quantity{12345.5, "mm"}, true},
		{"10 kN", Quantity{10, "kN"}, true},
		{"1 000 000", Quantity{1000000, ""}, true},
		{"0.5", Quantity{0.5, ""}, true},
		{".5m", Quantity{0.5, "m"}, true},
		{" kN", Quantity{0, "kN"}, true},
		{",", Quantity{0, ""}, true},
		{"abc", Quantity{}, false},
		{"", Quantity{}, false},
		{"-5kN", Quantity{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok, err := ExtractValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractValueInvalidNumber(t *testing.T) {
	_, _, err := ExtractValue("1.2.3kN")
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "1.2.3kN", pe.Text)
}

func TestExtractParameters(t *testing.T) {
	p, err := ExtractParameters(`E:200000\PA:0.01\PI:0.0001`)
	require.NoError(t, err)
	assert.Equal(t, Parameters{E: 200000, A: 0.01, I: 0.0001}, p)
	assert.InDelta(t, 2000.0, p.EA(), 1e-9)
	assert.InDelta(t, 20.0, p.EI(), 1e-9)
}

func TestExtractParametersSeparatorsAndUnits(t *testing.T) {
	p, err := ExtractParameters(`E = 210 000 MPa\P A=0.0053 m2 \PI: 0.0000836m4`)
	require.NoError(t, err)
	assert.Equal(t, 210000.0, p.E)
	assert.Equal(t, 0.0053, p.A)
	assert.Equal(t, 0.0000836, p.I)
}

func TestExtractParametersErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		field string
	}{
		{"missing I", `E:200000\PA:0.01`, KeyI},
		{"zero A", `E:200000\PA:0\PI:0.0001`, KeyA},
		{"unknown key", `E:200000\PA:0.01\PI:0.0001\PG:80000`, "G"},
		{"conflicting duplicate", `E:200000\PE:210000\PA:0.01\PI:0.0001`, KeyE},
		{"no number", `E:steel\PA:0.01\PI:0.0001`, KeyE},
		{"lowercase key", `e:200000\PA:0.01\PI:0.0001`, "e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractParameters(tt.in)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected *ParseError, got %v", err)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestExtractParametersEmptyField(t *testing.T) {
	_, err := ExtractParameters(`E:200000\P\PA:0.01\PI:0.0001`)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Reason, "empty")
}

func TestExtractParametersConsistentDuplicate(t *testing.T) {
	p, err := ExtractParameters(`E:200000\PE=200,000\PA:0.01\PI:0.0001`)
	require.NoError(t, err)
	assert.Equal(t, 200000.0, p.E)
}

func TestParametersFromAttributes(t *testing.T) {
	p, err := ParametersFromAttributes(map[string]string{
		"E":    "30 000 MPa",
		"A":    "0.12",
		"I":    "0.0016",
		"NAME": "C30/37",
	})
	require.NoError(t, err)
	assert.Equal(t, Parameters{E: 30000, A: 0.12, I: 0.0016}, p)

	_, err = ParametersFromAttributes(map[string]string{"E": "30000", "A": "0.12"})
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KeyI, pe.Field)
}
