package autodiff

import (
	"math"
)

// Add creates a + b.
//
// Backward:
//
//	∂L/∂a += ∂L/∂out
//	∂L/∂b += ∂L/∂out
func (t *Tape) Add(a, b NodeID) NodeID {
	return t.record(Node{Tag: "+", Kind: KindAdd, Operands: [2]NodeID{a, b}})
}

// Mul creates a * b.
//
// Backward:
//
//	∂L/∂a += b * ∂L/∂out
//	∂L/∂b += a * ∂L/∂out
func (t *Tape) Mul(a, b NodeID) NodeID {
	return t.record(Node{Tag: "*", Kind: KindMul, Operands: [2]NodeID{a, b}})
}

// Neg creates -a as a * (-1).
func (t *Tape) Neg(a NodeID) NodeID {
	return t.Mul(a, t.Constant(-1))
}

// Sub creates a - b as a + (-b).
func (t *Tape) Sub(a, b NodeID) NodeID {
	return t.Add(a, t.Neg(b))
}

// ReLU creates max(0, a). The gradient passes only where the output is positive.
func (t *Tape) ReLU(a NodeID) NodeID {
	return t.record(Node{Tag: "r", Kind: KindReLU, Operands: [2]NodeID{a}})
}

// Sigmoid creates σ(a) = 1 / (1 + exp(-a)).
//
// Backward uses the forward output s: ∂L/∂a += ∂L/∂out * s * (1 - s).
func (t *Tape) Sigmoid(a NodeID) NodeID {
	return t.record(Node{Tag: "s", Kind: KindSigmoid, Operands: [2]NodeID{a}})
}

// Clip clamps a into [Epsilon, 1-Epsilon]. The gradient passes through unchanged.
func (t *Tape) Clip(a NodeID) NodeID {
	return t.record(Node{Tag: "c", Kind: KindClip, Operands: [2]NodeID{a}})
}

// MSE creates 0.5 * (yPred - yTrue)². Its gradient with respect to yPred is
// yPred - yTrue.
func (t *Tape) MSE(yTrue, yPred NodeID) NodeID {
	diff := t.Add(yPred, t.Neg(yTrue))
	loss := t.Mul(t.Constant(0.5), t.Mul(diff, diff))
	return t.SetTag(loss, "l")
}

// SquaredError creates (yPred - yTrue)² without the 0.5 factor.
func (t *Tape) SquaredError(yTrue, yPred NodeID) NodeID {
	diff := t.Add(t.Mul(t.Constant(-1), yTrue), yPred)
	return t.SetTag(t.Mul(diff, diff), "l")
}

// recompute derives the value of n from its operands. Leaves are untouched.
func (t *Tape) recompute(n *Node) {
	switch n.Kind {
	case KindLeaf:
	case KindAdd:
		n.Value = t.nodes.At(int(n.Operands[0])).Value + t.nodes.At(int(n.Operands[1])).Value
	case KindMul:
		n.Value = t.nodes.At(int(n.Operands[0])).Value * t.nodes.At(int(n.Operands[1])).Value
	case KindReLU:
		n.Value = math.Max(0, t.nodes.At(int(n.Operands[0])).Value)
	case KindSigmoid:
		n.Value = sigmoid(t.nodes.At(int(n.Operands[0])).Value)
	case KindClip:
		n.Value = clip(t.nodes.At(int(n.Operands[0])).Value)
	}
}

// propagate adds n's contribution to the gradient of each operand.
func (t *Tape) propagate(n *Node) {
	switch n.Kind {
	case KindLeaf:
	case KindAdd:
		t.nodes.At(int(n.Operands[0])).Grad += n.Grad
		t.nodes.At(int(n.Operands[1])).Grad += n.Grad
	case KindMul:
		a, b := t.nodes.At(int(n.Operands[0])), t.nodes.At(int(n.Operands[1]))
		a.Grad += b.Value * n.Grad
		b.Grad += a.Value * n.Grad
	case KindReLU:
		if n.Value > 0 {
			t.nodes.At(int(n.Operands[0])).Grad += n.Grad
		}
	case KindSigmoid:
		t.nodes.At(int(n.Operands[0])).Grad += n.Grad * n.Value * (1 - n.Value)
	case KindClip:
		t.nodes.At(int(n.Operands[0])).Grad += n.Grad
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clip(x float64) float64 {
	return math.Min(math.Max(x, Epsilon), 1-Epsilon)
}
