// Package nn builds dense networks out of scalar autodiff nodes.
//
// This package provides:
//   - Inputs: constant placeholders overwritten with feature values
//   - Neuron: random bias plus weighted inputs, followed by an activation
//   - Layer: independent neurons over a shared input vector
//   - Network: layers chained from inputs to a single output vector
//   - Loss: MSE and squared-error loss selection
//
// Every builder allocates on the caller's Tape. Use NodeCount to size the
// tape before building.
package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/micrograd/internal/autodiff"
)

// Common errors.
var (
	ErrUnsupportedActivation = errors.New("unsupported activation")
	ErrUnknownActivation     = errors.New("unknown activation")
	ErrUnknownLoss           = errors.New("unknown loss")
	ErrInvalidConfig         = errors.New("invalid network config")
)

// Config describes a dense network. It is used only while building.
type Config struct {
	Inputs int        // Input width
	Layers []int      // Neurons per layer; the last entry is the output layer
	Hidden Activation // Applied to every layer but the last
	Output Activation // Applied to the last layer
}

// Validate checks widths and activations.
func (c Config) Validate() error {
	if c.Inputs <= 0 {
		return fmt.Errorf("%w: inputs must be positive, got %d", ErrInvalidConfig, c.Inputs)
	}
	if len(c.Layers) == 0 {
		return fmt.Errorf("%w: at least one layer is required", ErrInvalidConfig)
	}
	for i, n := range c.Layers {
		if n <= 0 {
			return fmt.Errorf("%w: layer %d has %d neurons", ErrInvalidConfig, i, n)
		}
	}
	if len(c.Layers) > 1 && !c.Hidden.Supported() {
		return fmt.Errorf("%w: hidden %s", ErrUnsupportedActivation, c.Hidden)
	}
	if !c.Output.Supported() {
		return fmt.Errorf("%w: output %s", ErrUnsupportedActivation, c.Output)
	}
	return nil
}

// Outputs returns the width of the last layer.
func (c Config) Outputs() int {
	if len(c.Layers) == 0 {
		return 0
	}
	return c.Layers[len(c.Layers)-1]
}

// NodeCount returns the exact number of nodes Inputs and Network allocate
// for cfg. A neuron over n inputs takes 1 + 3n nodes, plus one for a
// non-linear activation.
func NodeCount(cfg Config) int {
	total := cfg.Inputs
	width := cfg.Inputs
	for i, count := range cfg.Layers {
		act := cfg.Hidden
		if i == len(cfg.Layers)-1 {
			act = cfg.Output
		}
		total += count * (1 + 3*width + act.nodes())
		width = count
	}
	return total
}

// Inputs creates n constant placeholders tagged "x".
func Inputs(t *autodiff.Tape, n int) []autodiff.NodeID {
	xs := make([]autodiff.NodeID, n)
	for i := range xs {
		xs[i] = t.SetTag(t.Constant(0), "x")
	}
	return xs
}

// Neuron creates bias + Σ wᵢ·xᵢ with random bias and weights, then applies act.
func Neuron(t *autodiff.Tape, inputs []autodiff.NodeID, act Activation) (autodiff.NodeID, error) {
	if !act.Supported() {
		return 0, fmt.Errorf("neuron: %w: %s", ErrUnsupportedActivation, act)
	}

	sum := t.SetTag(t.Random(), "b")
	for _, x := range inputs {
		w := t.SetTag(t.Random(), "w")
		sum = t.Add(sum, t.Mul(w, x))
	}
	return act.apply(t, sum)
}

// Layer creates count independent neurons over the same inputs.
func Layer(t *autodiff.Tape, inputs []autodiff.NodeID, count int, act Activation) ([]autodiff.NodeID, error) {
	outputs := make([]autodiff.NodeID, count)
	for i := range outputs {
		out, err := Neuron(t, inputs, act)
		if err != nil {
			return nil, fmt.Errorf("layer neuron %d: %w", i, err)
		}
		outputs[i] = out
	}
	return outputs, nil
}

// Network chains cfg.Layers starting from inputs and returns the output layer.
//
// Example:
//
//	cfg := nn.Config{Inputs: 3, Layers: []int{3, 3, 1}, Hidden: nn.ReLU, Output: nn.Linear}
//	tape := autodiff.NewTape(nn.NodeCount(cfg)+16, rng)
//	xs := nn.Inputs(tape, cfg.Inputs)
//	out, err := nn.Network(tape, xs, cfg)
func Network(t *autodiff.Tape, inputs []autodiff.NodeID, cfg Config) ([]autodiff.NodeID, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(inputs) != cfg.Inputs {
		return nil, fmt.Errorf("%w: got %d inputs, config expects %d", ErrInvalidConfig, len(inputs), cfg.Inputs)
	}

	outputs := inputs
	for i, count := range cfg.Layers {
		act := cfg.Hidden
		if i == len(cfg.Layers)-1 {
			act = cfg.Output
		}
		var err error
		outputs, err = Layer(t, outputs, count, act)
		if err != nil {
			return nil, fmt.Errorf("network layer %d: %w", i, err)
		}
	}
	return outputs, nil
}
