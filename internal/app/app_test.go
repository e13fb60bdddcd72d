package app

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/micrograd/internal/autodiff"
	"github.com/born-ml/micrograd/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg Config) (*App, *bytes.Buffer) {
	t.Helper()
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	out := &bytes.Buffer{}
	c, err := NewConfig(cfg)
	require.NoError(t, err)
	a, err := New(out, c)
	require.NoError(t, err)
	return a, out
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.Error(t, err)

	_, err = NewConfig(Config{RunName: "linreg", Iterations: -1})
	assert.Error(t, err)

	cfg, err := NewConfig(Config{RunName: "linreg"})
	require.NoError(t, err)
	assert.Equal(t, "linreg", cfg.RunName)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

// TestRun_LinearRegression trains the embedded linreg demo to completion.
func TestRun_LinearRegression(t *testing.T) {
	a, out := newTestApp(t, Config{RunName: "linreg", Dump: true})

	summary, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "linreg", summary.Run)
	assert.Equal(t, 10000, summary.Iterations)
	assert.Equal(t, 14, summary.GraphNodes)
	assert.False(t, summary.HasAccuracy)

	// The neuron allocates its bias before the weights. Noise adds 0.05 to
	// the mean target, which the bias absorbs.
	require.Len(t, summary.Parameters, 3)
	assert.Equal(t, "b", summary.Parameters[0].Tag)
	assert.InDelta(t, -1.95, summary.Parameters[0].Value, 0.2)
	assert.InDelta(t, 3.0, summary.Parameters[1].Value, 0.2)
	assert.InDelta(t, -1.0, summary.Parameters[2].Value, 0.2)

	assert.Contains(t, out.String(), "===== Graph(14 values, topological) =====")
}

func TestRun_Overrides(t *testing.T) {
	a, _ := newTestApp(t, Config{RunName: "regress", Iterations: 30, Seed: 99})
	assert.Equal(t, int64(99), a.run.Seed)
	assert.Equal(t, 30, a.run.LogInterval)

	summary, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, summary.Iterations)
	assert.Len(t, summary.Parameters, 3*4+3*4+4)
}

func TestRun_Deterministic(t *testing.T) {
	run := func() Summary {
		a, _ := newTestApp(t, Config{RunName: "regress", Iterations: 200})
		s, err := a.Run(context.Background())
		require.NoError(t, err)
		return s
	}

	first, second := run(), run()
	assert.Equal(t, first.Loss, second.Loss)
	assert.Equal(t, first.Parameters, second.Parameters)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_Cancelled(t *testing.T) {
	a, _ := newTestApp(t, Config{RunName: "regress"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := a.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Iterations)
}

func TestRun_GraphCapacityExceeded(t *testing.T) {
	path := writeRunFile(t, `
run "tight" {
  iterations     = 10
  learning_rate  = 0.1
  graph_capacity = 5
  network {
    inputs = 2
    layers = [1]
  }
  dataset "linear" { weights = [1, 1] }
}
`)
	a, _ := newTestApp(t, Config{ConfigPath: path})

	_, err := a.Run(context.Background())
	assert.ErrorIs(t, err, autodiff.ErrCapacityExceeded)
}

func TestRun_DiscoveryOrder(t *testing.T) {
	path := writeRunFile(t, `
run "discovery" {
  iterations    = 100
  learning_rate = 0.05
  graph_order   = "discovery"
  network {
    inputs            = 2
    layers            = [2, 1]
    hidden_activation = "sigmoid"
  }
  dataset "linear" { weights = [1, -1] }
}
`)
	a, out := newTestApp(t, Config{ConfigPath: path, Dump: true})

	_, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "discovery) =====")
}

func TestNew_Errors(t *testing.T) {
	c, err := NewConfig(Config{RunName: "xor"})
	require.NoError(t, err)
	_, err = New(&bytes.Buffer{}, c)
	assert.Error(t, err)

	path := writeRunFile(t, `
run "a" {
  iterations    = 1
  learning_rate = 0.1
  network {
    inputs = 1
    layers = [1]
  }
  dataset "linear" { weights = [1] }
}
`)
	c, err = NewConfig(Config{ConfigPath: path, RunName: "b"})
	require.NoError(t, err)
	_, err = New(&bytes.Buffer{}, c)
	assert.ErrorContains(t, err, "available: [a]")
}

func TestRun_ProgressServerUnavailable(t *testing.T) {
	path := writeRunFile(t, `
run "progress" {
  iterations    = 10
  learning_rate = 0.1
  network {
    inputs = 1
    layers = [1]
  }
  dataset "linear" { weights = [1] }
  progress {
    url = "not-a-url"
  }
}
`)
	a, out := newTestApp(t, Config{ConfigPath: path})

	summary, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Iterations)
	assert.Contains(t, out.String(), "Progress server unavailable")
}

// TestRun_MNIST trains on a synthetic IDX dataset: bright images are ones,
// dark images are zeros, and sevens are filtered out.
func TestRun_MNIST(t *testing.T) {
	dir := t.TempDir()
	var images, labels []byte
	count := 0
	for i := 0; i < 60; i++ {
		label := byte(i % 3)
		switch label {
		case 0:
			images = append(images, bytes.Repeat([]byte{10}, 4)...)
		case 1:
			images = append(images, bytes.Repeat([]byte{240}, 4)...)
		default:
			label = 7
			images = append(images, bytes.Repeat([]byte{128}, 4)...)
		}
		labels = append(labels, label)
		count++
	}
	writeIDX(t, filepath.Join(dir, "images"), []uint32{dataset.ImagesMagic, uint32(count), 2, 2}, images)
	writeIDX(t, filepath.Join(dir, "labels"), []uint32{dataset.LabelsMagic, uint32(count)}, labels)

	path := writeRunFile(t, fmt.Sprintf(`
run "digits" {
  iterations    = 2000
  learning_rate = 0.5
  network {
    inputs            = 4
    layers            = [1]
    output_activation = "sigmoid"
  }
  dataset "mnist" {
    images = "%s"
    labels = "%s"
  }
}
`, filepath.ToSlash(filepath.Join(dir, "images")), filepath.ToSlash(filepath.Join(dir, "labels"))))
	a, _ := newTestApp(t, Config{ConfigPath: path})

	summary, err := a.Run(context.Background())
	require.NoError(t, err)
	require.True(t, summary.HasAccuracy)
	assert.Equal(t, 1.0, summary.Accuracy)
}

func TestRun_MNISTWidthMismatch(t *testing.T) {
	dir := t.TempDir()
	writeIDX(t, filepath.Join(dir, "images"), []uint32{dataset.ImagesMagic, 1, 2, 2}, []byte{0, 0, 0, 0})
	writeIDX(t, filepath.Join(dir, "labels"), []uint32{dataset.LabelsMagic, 1}, []byte{1})

	path := writeRunFile(t, fmt.Sprintf(`
run "wide" {
  iterations    = 1
  learning_rate = 0.1
  network {
    inputs = 784
    layers = [1]
  }
  dataset "mnist" {
    images = "%s"
    labels = "%s"
  }
}
`, filepath.ToSlash(filepath.Join(dir, "images")), filepath.ToSlash(filepath.Join(dir, "labels"))))
	a, _ := newTestApp(t, Config{ConfigPath: path})

	_, err := a.Run(context.Background())
	assert.ErrorContains(t, err, "784 inputs")
}

func writeRunFile(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func writeIDX(t *testing.T, path string, header []uint32, data []byte) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, header))
	buf.Write(data)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}
