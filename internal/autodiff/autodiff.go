// Package autodiff implements scalar reverse-mode automatic differentiation.
//
// Architecture:
//   - Tape: arena of Nodes for one training run, in creation order
//   - Node: scalar value, gradient accumulator, operands and a closed Kind
//   - Graph: ordered, deduplicated nodes reachable from a root
//   - Evaluator: zero-grad, forward, backward and SGD update over a Graph
//
// Every operand is created before the node that consumes it, so operand
// NodeIDs are always smaller than their consumer's and the graph is acyclic
// by construction.
//
// Usage:
//
//	tape := autodiff.NewTape(64, rand.New(rand.NewSource(1)))
//	x := tape.Constant(2)
//	w := tape.Random()
//	loss := tape.MSE(tape.Constant(6), tape.Mul(w, x))
//
//	graph, err := autodiff.Build(tape, loss, 0)
//	if err != nil {
//	    return err
//	}
//	for range 1000 {
//	    graph.Step(0.05)
//	}
package autodiff

import (
	"fmt"
)

const (
	// Epsilon bounds the Clip operator to [Epsilon, 1-Epsilon].
	Epsilon = 0.01

	// RandomScale scales uniform draws for trainable leaves created by Random.
	RandomScale = 0.2
)

// NodeID addresses a Node inside its Tape.
type NodeID int32

// Kind identifies the operation a Node performs.
type Kind uint8

// Node kinds.
const (
	KindLeaf Kind = iota
	KindAdd
	KindMul
	KindReLU
	KindSigmoid
	KindClip
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindAdd:
		return "add"
	case KindMul:
		return "mul"
	case KindReLU:
		return "relu"
	case KindSigmoid:
		return "sigmoid"
	case KindClip:
		return "clip"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Arity returns the number of operands a node of this kind consumes.
func (k Kind) Arity() int {
	switch k {
	case KindAdd, KindMul:
		return 2
	case KindReLU, KindSigmoid, KindClip:
		return 1
	default:
		return 0
	}
}

// Node is one scalar unit of the computation graph.
type Node struct {
	Tag      string    // Diagnostic label, e.g. "w", "b", "+"
	Value    float64   // Current value
	Grad     float64   // Gradient accumulator
	Kind     Kind      // Operation performed by this node
	Operands [2]NodeID // Operand IDs; only the first Kind.Arity() are meaningful
	Constant bool      // Excluded from parameter updates
}

// Trainable reports whether the optimizer updates this node.
// Only non-constant leaves are parameters; derived values are recomputed
// on every forward pass.
func (n *Node) Trainable() bool {
	return n.Kind == KindLeaf && !n.Constant
}

// String formats the node like "w(value=0.100000, grad=-0.250000, trainable=true)".
func (n *Node) String() string {
	return fmt.Sprintf("%s(value=%f, grad=%f, trainable=%t)", n.Tag, n.Value, n.Grad, n.Trainable())
}
