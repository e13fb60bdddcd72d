package config

import (
	"errors"
	"fmt"

	"github.com/born-ml/micrograd/internal/autodiff"
	"github.com/born-ml/micrograd/internal/nn"
	"github.com/born-ml/micrograd/internal/train"
)

// Defaults applied to optional attributes.
const (
	DefaultSeed      = 1
	DefaultNamespace = "/"
	DefaultEvent     = "progress"
)

func (r *Run) applyDefaults() {
	if r.Seed == 0 {
		r.Seed = DefaultSeed
	}
	if r.LogInterval == 0 {
		r.LogInterval = r.Iterations
	}
	if r.Dataset != nil && r.Dataset.Kind == DatasetMNIST && len(r.Dataset.Digits) == 0 {
		r.Dataset.Digits = []int{0, 1}
	}
	if r.Progress != nil {
		if r.Progress.Namespace == "" {
			r.Progress.Namespace = DefaultNamespace
		}
		if r.Progress.Event == "" {
			r.Progress.Event = DefaultEvent
		}
	}
}

// Validate checks every field that can be checked without touching the
// filesystem or network.
func (r *Run) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: run name is empty", ErrInvalid)
	}
	if _, err := r.TrainConfig(); err != nil {
		return err
	}
	if _, err := r.Order(); err != nil {
		return r.invalid(err)
	}
	if _, err := r.LossKind(); err != nil {
		return r.invalid(err)
	}
	if r.GraphCapacity < 0 {
		return r.invalid(fmt.Errorf("negative graph_capacity %d", r.GraphCapacity))
	}

	if r.Network == nil {
		return r.invalid(errors.New("missing network block"))
	}
	if _, err := r.NetworkConfig(); err != nil {
		return r.invalid(err)
	}
	if r.Network.Layers[len(r.Network.Layers)-1] != 1 {
		return r.invalid(fmt.Errorf("output layer must have exactly one neuron, got %d", r.Network.Layers[len(r.Network.Layers)-1]))
	}

	if err := r.validateDataset(); err != nil {
		return r.invalid(err)
	}

	if r.Progress != nil && r.Progress.URL == "" {
		return r.invalid(errors.New("progress block needs a url"))
	}
	return nil
}

func (r *Run) validateDataset() error {
	d := r.Dataset
	if d == nil {
		return errors.New("missing dataset block")
	}

	switch d.Kind {
	case DatasetLinear:
		if len(d.Weights) != r.Network.Inputs {
			return fmt.Errorf("linear dataset has %d weights, network has %d inputs", len(d.Weights), r.Network.Inputs)
		}
	case DatasetMNIST:
		if d.Images == "" || d.Labels == "" {
			return errors.New("mnist dataset needs images and labels")
		}
		if len(d.Digits) != 2 || d.Digits[0] == d.Digits[1] {
			return fmt.Errorf("mnist dataset needs two distinct digits, got %v", d.Digits)
		}
		for _, digit := range d.Digits {
			if digit < 0 || digit > 9 {
				return fmt.Errorf("digit %d out of range", digit)
			}
		}
		if d.Limit < 0 {
			return fmt.Errorf("negative limit %d", d.Limit)
		}
	default:
		return fmt.Errorf("unknown dataset kind %q", d.Kind)
	}
	return nil
}

func (r *Run) invalid(err error) error {
	return fmt.Errorf("%w: run %q: %w", ErrInvalid, r.Name, err)
}

// NetworkConfig converts the network block.
func (r *Run) NetworkConfig() (nn.Config, error) {
	hidden, err := nn.ParseActivation(r.Network.HiddenActivation)
	if err != nil {
		return nn.Config{}, fmt.Errorf("hidden_activation: %w", err)
	}
	output, err := nn.ParseActivation(r.Network.OutputActivation)
	if err != nil {
		return nn.Config{}, fmt.Errorf("output_activation: %w", err)
	}

	cfg := nn.Config{
		Inputs: r.Network.Inputs,
		Layers: r.Network.Layers,
		Hidden: hidden,
		Output: output,
	}
	if err := cfg.Validate(); err != nil {
		return nn.Config{}, err
	}
	return cfg, nil
}

// TrainConfig converts the run cadence.
func (r *Run) TrainConfig() (train.Config, error) {
	cfg := train.Config{
		Iterations:   r.Iterations,
		LearningRate: r.LearningRate,
		LogInterval:  r.LogInterval,
	}
	if err := cfg.Validate(); err != nil {
		return train.Config{}, r.invalid(err)
	}
	return cfg, nil
}

// Order parses graph_order.
func (r *Run) Order() (autodiff.Order, error) {
	return autodiff.ParseOrder(r.GraphOrder)
}

// LossKind parses loss.
func (r *Run) LossKind() (nn.Loss, error) {
	return nn.ParseLoss(r.Loss)
}
