package autodiff

import (
	"gonum.org/v1/gonum/diff/fd"
)

// DefaultGradientStep is the finite-difference step used by NumericalGradient
// when step <= 0.
const DefaultGradientStep = 1e-4

// NumericalGradient estimates ∂root/∂leaf with a central finite difference:
//
//	(f(x+h) - f(x-h)) / 2h
//
// where f runs a forward pass with the leaf set to the given value. The leaf
// value is restored and a final forward pass leaves the graph consistent.
func NumericalGradient(g *Graph, leaf NodeID, step float64) float64 {
	if step <= 0 {
		step = DefaultGradientStep
	}

	tape := g.Tape()
	orig := tape.Value(leaf)
	defer func() {
		tape.SetValue(leaf, orig)
		g.Forward()
	}()

	f := func(x float64) float64 {
		tape.SetValue(leaf, x)
		g.Forward()
		return g.Loss()
	}

	return fd.Derivative(f, orig, &fd.Settings{
		Formula: fd.Central,
		Step:    step,
	})
}

// AnalyticGradient runs ZeroGrad, Forward and Backward and returns the
// gradient accumulated on leaf. Parameters are not updated.
func AnalyticGradient(g *Graph, leaf NodeID) float64 {
	g.ZeroGrad()
	g.Forward()
	g.Backward()
	return g.tape.Grad(leaf)
}
