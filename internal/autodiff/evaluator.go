package autodiff

// ZeroGrad resets the gradient of every node in the graph to zero.
func (g *Graph) ZeroGrad() {
	for _, id := range g.nodes {
		g.tape.nodes.At(int(id)).Grad = 0
	}
}

// Forward recomputes every derived node, walking the graph from the last node
// back to the root so operands are fresh before their consumers.
//
// Forward alone is the inference path: write inputs with Tape.SetValue, call
// Forward, read the output node.
func (g *Graph) Forward() {
	for i := len(g.nodes) - 1; i >= 0; i-- {
		g.tape.recompute(g.tape.nodes.At(int(g.nodes[i])))
	}
}

// Backward seeds the root gradient with 1 and propagates it to every operand,
// walking the graph root first.
//
// Gradients accumulate: call ZeroGrad first unless accumulation across passes
// is intended.
func (g *Graph) Backward() {
	g.mustNotBeEmpty()
	g.tape.nodes.At(int(g.nodes[0])).Grad = 1
	for _, id := range g.nodes {
		g.tape.propagate(g.tape.nodes.At(int(id)))
	}
}

// Update applies plain gradient descent to every trainable leaf:
//
//	value = value - lr * grad
//
// Constant nodes and derived nodes are never touched, so Loss still reports the
// value computed by the last forward pass.
func (g *Graph) Update(lr float64) {
	for _, id := range g.nodes {
		n := g.tape.nodes.At(int(id))
		if n.Trainable() {
			n.Value -= lr * n.Grad
		}
	}
}

// Step runs one optimization step: ZeroGrad, Forward, Backward, Update.
//
// It panics with ErrEmptyGraph when called on a graph without nodes.
//
// Example:
//
//	for i := range iterations {
//	    tape.SetValue(x, xs[i])
//	    tape.SetValue(y, ys[i])
//	    graph.Step(0.003)
//	    log.Println(graph.Loss())
//	}
func (g *Graph) Step(lr float64) {
	g.mustNotBeEmpty()
	g.ZeroGrad()
	g.Forward()
	g.Backward()
	g.Update(lr)
}
