// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn builds dense networks of scalar neurons on an autodiff Tape.
//
// Example:
//
//	tape := autodiff.NewTape(nn.NodeCount(cfg)+nn.MSE.NodeCount()+1, rng)
//	inputs := nn.Inputs(tape, cfg.Inputs)
//	outs, err := nn.Network(tape, inputs, cfg)
package nn

import (
	"github.com/born-ml/micrograd/internal/autodiff"
	"github.com/born-ml/micrograd/internal/nn"
)

// Activation is applied to a neuron's weighted sum.
type Activation = nn.Activation

// Activations.
const (
	Linear  = nn.Linear
	ReLU    = nn.ReLU
	Sigmoid = nn.Sigmoid
	Softmax = nn.Softmax
)

// ParseActivation parses an activation name.
func ParseActivation(s string) (Activation, error) {
	return nn.ParseActivation(s)
}

// Loss selects the loss expression.
type Loss = nn.Loss

// Losses.
const (
	MSE     = nn.MSE
	Squared = nn.Squared
)

// ParseLoss parses a loss name.
func ParseLoss(s string) (Loss, error) {
	return nn.ParseLoss(s)
}

// Config describes a dense network.
type Config = nn.Config

// Errors.
var (
	ErrUnsupportedActivation = nn.ErrUnsupportedActivation
	ErrUnknownActivation     = nn.ErrUnknownActivation
	ErrUnknownLoss           = nn.ErrUnknownLoss
	ErrInvalidConfig         = nn.ErrInvalidConfig
)

// NodeCount returns the number of tape nodes Inputs plus Network allocate.
func NodeCount(cfg Config) int {
	return nn.NodeCount(cfg)
}

// Inputs allocates n constant input nodes.
func Inputs(t *autodiff.Tape, n int) []autodiff.NodeID {
	return nn.Inputs(t, n)
}

// Neuron builds act(b + sum(w_i * x_i)) with fresh random parameters.
func Neuron(t *autodiff.Tape, inputs []autodiff.NodeID, act Activation) (autodiff.NodeID, error) {
	return nn.Neuron(t, inputs, act)
}

// Layer builds count neurons over the same inputs.
func Layer(t *autodiff.Tape, inputs []autodiff.NodeID, count int, act Activation) ([]autodiff.NodeID, error) {
	return nn.Layer(t, inputs, count, act)
}

// Network builds the layers of cfg in sequence and returns the output nodes.
func Network(t *autodiff.Tape, inputs []autodiff.NodeID, cfg Config) ([]autodiff.NodeID, error) {
	return nn.Network(t, inputs, cfg)
}
