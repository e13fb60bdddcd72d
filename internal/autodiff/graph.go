package autodiff

import (
	"errors"
	"fmt"
	"io"
)

// Common errors.
var (
	ErrCapacityExceeded = errors.New("graph capacity exceeded")
	ErrUnknownNode      = errors.New("unknown node")
	ErrEmptyGraph       = errors.New("empty graph")
)

// Order selects how Build sequences the reachable nodes.
type Order uint8

const (
	// OrderTopological places every node after all of its consumers
	// (reverse DFS post-order). Shared sub-expressions receive their full
	// gradient before propagating it further.
	OrderTopological Order = iota

	// OrderDiscovery keeps DFS pre-order discovery: a node is recorded the
	// first time it is reached and never re-descended. Exact for tree-shaped
	// graphs; a node shared by parents discovered in different subtrees may
	// propagate before every parent has contributed to its gradient.
	OrderDiscovery
)

// String returns the order name.
func (o Order) String() string {
	switch o {
	case OrderTopological:
		return "topological"
	case OrderDiscovery:
		return "discovery"
	default:
		return fmt.Sprintf("order(%d)", uint8(o))
	}
}

// ParseOrder converts "topological" or "discovery" into an Order.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "topological", "":
		return OrderTopological, nil
	case "discovery":
		return OrderDiscovery, nil
	default:
		return 0, fmt.Errorf("unknown graph order %q", s)
	}
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	order Order
}

// WithOrder selects the node ordering. The default is OrderTopological.
func WithOrder(o Order) BuildOption {
	return func(opts *buildOptions) {
		opts.order = o
	}
}

// Graph is the ordered, deduplicated set of nodes reachable from a root.
//
// Invariants:
//   - nodes[0] is the root
//   - for every edge parent → operand, the parent comes first
//
// A Graph is built once per architecture and reused for every iteration.
type Graph struct {
	tape  *Tape
	nodes []NodeID
	index map[NodeID]int
	order Order
}

// Build collects every node reachable from root.
//
// capacity bounds the number of distinct nodes; capacity <= 0 uses the tape
// length. Exceeding it returns ErrCapacityExceeded.
func Build(tape *Tape, root NodeID, capacity int, opts ...BuildOption) (*Graph, error) {
	o := buildOptions{order: OrderTopological}
	for _, opt := range opts {
		opt(&o)
	}

	if !tape.Contains(root) {
		return nil, fmt.Errorf("%w: root %d", ErrUnknownNode, root)
	}
	if capacity <= 0 {
		capacity = tape.Len()
	}

	var (
		nodes []NodeID
		err   error
	)
	switch o.order {
	case OrderDiscovery:
		nodes, err = discover(tape, root, capacity)
	case OrderTopological:
		nodes, err = topological(tape, root, capacity)
	default:
		return nil, fmt.Errorf("build: unsupported %s", o.order)
	}
	if err != nil {
		return nil, err
	}

	index := make(map[NodeID]int, len(nodes))
	for i, id := range nodes {
		index[id] = i
	}

	return &Graph{
		tape:  tape,
		nodes: nodes,
		index: index,
		order: o.order,
	}, nil
}

// discover walks the graph depth-first in pre-order, operands left to right.
func discover(tape *Tape, root NodeID, capacity int) ([]NodeID, error) {
	seen := make([]bool, tape.Len())
	nodes := make([]NodeID, 0, min(capacity, tape.Len()))
	stack := []NodeID{root}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		if len(nodes) == capacity {
			return nil, fmt.Errorf("%w: more than %d nodes", ErrCapacityExceeded, capacity)
		}
		seen[id] = true
		nodes = append(nodes, id)

		n := tape.nodes.At(int(id))
		// Push right to left so the leftmost operand is visited first.
		for i := n.Kind.Arity() - 1; i >= 0; i-- {
			if !seen[n.Operands[i]] {
				stack = append(stack, n.Operands[i])
			}
		}
	}

	return nodes, nil
}

// topological returns the reverse DFS post-order from root.
func topological(tape *Tape, root NodeID, capacity int) ([]NodeID, error) {
	type frame struct {
		id       NodeID
		expanded bool
	}

	visited := make([]bool, tape.Len())
	post := make([]NodeID, 0, min(capacity, tape.Len()))
	stack := []frame{{id: root}}
	count := 0

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.expanded {
			post = append(post, f.id)
			continue
		}
		if visited[f.id] {
			continue
		}
		if count == capacity {
			return nil, fmt.Errorf("%w: more than %d nodes", ErrCapacityExceeded, capacity)
		}
		visited[f.id] = true
		count++

		stack = append(stack, frame{id: f.id, expanded: true})
		n := tape.nodes.At(int(f.id))
		for i := n.Kind.Arity() - 1; i >= 0; i-- {
			if !visited[n.Operands[i]] {
				stack = append(stack, frame{id: n.Operands[i]})
			}
		}
	}

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post, nil
}

// Tape returns the tape the graph was built from.
func (g *Graph) Tape() *Tape {
	return g.tape
}

// Root returns the root node ID.
func (g *Graph) Root() NodeID {
	g.mustNotBeEmpty()
	return g.nodes[0]
}

// Loss returns the current value of the root.
func (g *Graph) Loss() float64 {
	return g.tape.Value(g.Root())
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// Nodes returns the ordered node IDs. The slice must not be modified.
func (g *Graph) Nodes() []NodeID {
	return g.nodes
}

// Index returns the position of id in the graph order.
func (g *Graph) Index(id NodeID) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Order returns the ordering the graph was built with.
func (g *Graph) Order() Order {
	return g.order
}

// Dump writes every node of the graph, one per line, root first.
func (g *Graph) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "===== Graph(%d values, %s) =====\n", len(g.nodes), g.order); err != nil {
		return err
	}
	for _, id := range g.nodes {
		if _, err := fmt.Fprintln(w, g.tape.nodes.At(int(id)).String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "================================")
	return err
}

func (g *Graph) mustNotBeEmpty() {
	if g.Len() == 0 {
		panic(ErrEmptyGraph)
	}
}
