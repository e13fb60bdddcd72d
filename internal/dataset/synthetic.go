package dataset

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Linear generates y = w·x + b + noise with x drawn from U[0, 1).
// Noise is Noise * U[0, 1), matching the uniform jitter of the regression demo.
type Linear struct {
	Weights []float64
	Bias    float64
	Noise   float64
}

// Width returns the number of features per sample.
func (l Linear) Width() int {
	return len(l.Weights)
}

// Sample fills x with fresh features and returns the target.
func (l Linear) Sample(rng *rand.Rand, x []float64) float64 {
	if len(x) != len(l.Weights) {
		panic(fmt.Sprintf("dataset: sample width %d, model has %d weights", len(x), len(l.Weights)))
	}
	for i := range x {
		x[i] = rng.Float64()
	}
	y := floats.Dot(l.Weights, x) + l.Bias
	if l.Noise != 0 {
		y += l.Noise * rng.Float64()
	}
	return y
}
