package cli_test

import (
	"bytes"
	"testing"

	"github.com/born-ml/micrograd/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := cli.Parse([]string{
		"-log-level", "DEBUG",
		"-log-format", "json",
		"-seed", "9",
		"-iterations", "50",
		"-dump",
		"regress",
	}, out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "regress", cfg.RunName)
	assert.Empty(t, cfg.ConfigPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, 50, cfg.Iterations)
	assert.True(t, cfg.Dump)
}

func TestParse_ConfigOnly(t *testing.T) {
	cfg, exit, err := cli.Parse([]string{"-config", "runs.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "runs.hcl", cfg.ConfigPath)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParse_Help(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := cli.Parse([]string{"-h"}, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "linreg")
}

func TestParse_NoArgs(t *testing.T) {
	out := &bytes.Buffer{}
	_, exit, err := cli.Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Version(t *testing.T) {
	out := &bytes.Buffer{}
	_, exit, err := cli.Parse([]string{"version"}, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Equal(t, "micrograd "+cli.Version+"\n", out.String())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown_flag", []string{"--nope"}},
		{"bad_format", []string{"-log-format", "xml", "linreg"}},
		{"bad_level", []string{"-log-level", "trace", "linreg"}},
		{"extra_args", []string{"linreg", "regress"}},
		{"negative_iterations", []string{"-iterations", "-5", "linreg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := cli.Parse(tt.args, &bytes.Buffer{})
			require.Error(t, err)
			var exitErr *cli.ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
