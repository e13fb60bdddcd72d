// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides scalar reverse-mode automatic differentiation.
//
// Nodes live on a Tape and are addressed by NodeID. Build collects the nodes
// reachable from a loss into a Graph, which runs forward, backward and
// gradient descent steps over them.
//
// Example:
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/micrograd/autodiff"
//	)
//
//	func main() {
//	    tape := autodiff.NewTape(16, rand.New(rand.NewSource(1)))
//	    x := tape.Constant(2)
//	    w := tape.Random()
//	    loss := tape.MSE(tape.Constant(6), tape.Mul(w, x))
//
//	    graph, err := autodiff.Build(tape, loss, 0)
//	    if err != nil {
//	        panic(err)
//	    }
//	    for range 1000 {
//	        graph.Step(0.05)
//	    }
//	    // tape.Value(w) is now close to 3.
//	}
package autodiff

import (
	"math/rand"

	"github.com/born-ml/micrograd/internal/autodiff"
)

// NodeID addresses a node on its Tape.
type NodeID = autodiff.NodeID

// Kind identifies the operation a node performs.
type Kind = autodiff.Kind

// Node kinds.
const (
	KindLeaf    = autodiff.KindLeaf
	KindAdd     = autodiff.KindAdd
	KindMul     = autodiff.KindMul
	KindReLU    = autodiff.KindReLU
	KindSigmoid = autodiff.KindSigmoid
	KindClip    = autodiff.KindClip
)

// Epsilon bounds the Clip operator to [Epsilon, 1-Epsilon].
const Epsilon = autodiff.Epsilon

// Node is a scalar value with its gradient accumulator.
type Node = autodiff.Node

// Tape owns every node of one model.
type Tape = autodiff.Tape

// NewTape creates a tape holding up to capacity nodes. rng seeds the
// trainable leaves created by Tape.Random.
func NewTape(capacity int, rng *rand.Rand) *Tape {
	return autodiff.NewTape(capacity, rng)
}

// Graph is the ordered set of nodes reachable from a root.
type Graph = autodiff.Graph

// Order selects how Build sequences the graph.
type Order = autodiff.Order

// Graph orders.
const (
	OrderTopological = autodiff.OrderTopological
	OrderDiscovery   = autodiff.OrderDiscovery
)

// ParseOrder parses "topological" or "discovery".
func ParseOrder(s string) (Order, error) {
	return autodiff.ParseOrder(s)
}

// BuildOption configures Build.
type BuildOption = autodiff.BuildOption

// WithOrder selects the graph order.
func WithOrder(o Order) BuildOption {
	return autodiff.WithOrder(o)
}

// Build collects the nodes reachable from root. A capacity of zero or less
// means the tape length.
//
// Example:
//
//	graph, err := autodiff.Build(tape, loss, 0, autodiff.WithOrder(autodiff.OrderDiscovery))
func Build(tape *Tape, root NodeID, capacity int, opts ...BuildOption) (*Graph, error) {
	return autodiff.Build(tape, root, capacity, opts...)
}

// Errors returned by Build.
var (
	ErrCapacityExceeded = autodiff.ErrCapacityExceeded
	ErrUnknownNode      = autodiff.ErrUnknownNode
	ErrEmptyGraph       = autodiff.ErrEmptyGraph
)

// NumericalGradient estimates d(loss)/d(leaf) by central differences.
func NumericalGradient(g *Graph, leaf NodeID, step float64) float64 {
	return autodiff.NumericalGradient(g, leaf, step)
}

// AnalyticGradient runs one zero-grad, forward and backward pass and returns
// the gradient of leaf.
func AnalyticGradient(g *Graph, leaf NodeID) float64 {
	return autodiff.AnalyticGradient(g, leaf)
}
