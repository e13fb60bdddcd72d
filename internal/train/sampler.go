package train

import (
	"math/rand"
)

// Dataset is a finite, indexed collection of examples.
type Dataset interface {
	Len() int
	// Example writes the features of example i into x and returns its target.
	Example(i int, x []float64) float64
}

// Sampler draws one example per call.
type Sampler interface {
	// Sample writes features into x and returns the target.
	Sample(rng *rand.Rand, x []float64) float64
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(rng *rand.Rand, x []float64) float64

// Sample calls f.
func (f SamplerFunc) Sample(rng *rand.Rand, x []float64) float64 {
	return f(rng, x)
}

// Uniform samples examples of d with replacement, uniformly at random.
func Uniform(d Dataset) Sampler {
	return SamplerFunc(func(rng *rand.Rand, x []float64) float64 {
		return d.Example(rng.Intn(d.Len()), x)
	})
}

// Cycle walks d in order and wraps around. It ignores rng.
func Cycle(d Dataset) Sampler {
	next := 0
	return SamplerFunc(func(_ *rand.Rand, x []float64) float64 {
		i := next
		next = (next + 1) % d.Len()
		return d.Example(i, x)
	})
}
