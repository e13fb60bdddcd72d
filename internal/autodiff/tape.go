package autodiff

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/micrograd/internal/arena"
)

// Tape records every Node of a training run in creation order.
//
// Nodes live in a fixed-capacity arena and are addressed by NodeID. Running
// out of capacity while building is fatal: constructors panic with an error
// wrapping arena.ErrExhausted.
//
// Usage:
//
//	tape := NewTape(1024, rand.New(rand.NewSource(42)))
//	w := tape.Random()
//	y := tape.Mul(w, tape.Constant(3))
type Tape struct {
	nodes *arena.Arena[Node]
	rng   *rand.Rand
}

// NewTape creates a tape holding at most capacity nodes.
// rng seeds trainable leaves created by Random; nil falls back to a fixed seed.
func NewTape(capacity int, rng *rand.Rand) *Tape {
	if rng == nil {
		rng = rand.New(rand.NewSource(1)) //nolint:gosec // Deterministic weight init, not security-critical
	}
	return &Tape{
		nodes: arena.New[Node](capacity),
		rng:   rng,
	}
}

// record allocates n and returns its ID.
func (t *Tape) record(n Node) NodeID {
	for i := 0; i < n.Kind.Arity(); i++ {
		t.mustContain(n.Operands[i])
	}
	idx, err := t.nodes.Alloc(n)
	if err != nil {
		panic(fmt.Errorf("autodiff: allocating %s node: %w", n.Kind, err))
	}
	return NodeID(idx)
}

func (t *Tape) mustContain(id NodeID) {
	if !t.Contains(id) {
		panic(fmt.Errorf("%w: %d (tape holds %d nodes)", ErrUnknownNode, id, t.nodes.Len()))
	}
}

// Contains reports whether id addresses a node on this tape.
func (t *Tape) Contains(id NodeID) bool {
	return id >= 0 && int(id) < t.nodes.Len()
}

// Node returns the node addressed by id. The pointer stays valid until Release.
func (t *Tape) Node(id NodeID) *Node {
	t.mustContain(id)
	return t.nodes.At(int(id))
}

// Value returns the current value of id.
func (t *Tape) Value(id NodeID) float64 {
	return t.Node(id).Value
}

// SetValue overwrites the value of id. Drivers use it to feed inputs and targets.
func (t *Tape) SetValue(id NodeID, v float64) {
	t.Node(id).Value = v
}

// Grad returns the accumulated gradient of id.
func (t *Tape) Grad(id NodeID) float64 {
	return t.Node(id).Grad
}

// SetTag sets the diagnostic tag of id and returns id for chaining.
func (t *Tape) SetTag(id NodeID, tag string) NodeID {
	t.Node(id).Tag = tag
	return id
}

// Len returns the number of recorded nodes.
func (t *Tape) Len() int {
	return t.nodes.Len()
}

// Cap returns the node capacity of the tape.
func (t *Tape) Cap() int {
	return t.nodes.Cap()
}

// Release frees every node at once. The tape must not be used afterwards.
func (t *Tape) Release() {
	t.nodes.Release()
}

// Constant creates a non-trainable leaf with a fixed value.
func (t *Tape) Constant(v float64) NodeID {
	return t.record(Node{Tag: "v", Value: v, Kind: KindLeaf, Constant: true})
}

// Variable creates a trainable leaf with the given initial value.
func (t *Tape) Variable(v float64) NodeID {
	return t.record(Node{Tag: "v", Value: v, Kind: KindLeaf})
}

// Random creates a trainable leaf drawn from U[0, RandomScale).
func (t *Tape) Random() NodeID {
	return t.Variable(RandomScale * t.rng.Float64())
}
