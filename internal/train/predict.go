package train

import (
	"fmt"

	"github.com/born-ml/micrograd/internal/autodiff"
)

// Predictor runs forward-only passes: no zero-grad, backward or update.
// Output must be reachable from the graph root.
type Predictor struct {
	Graph  *autodiff.Graph
	Inputs []autodiff.NodeID
	Output autodiff.NodeID
}

// Predict writes x into the input nodes and returns the recomputed output.
func (p Predictor) Predict(x []float64) float64 {
	if len(x) != len(p.Inputs) {
		panic(fmt.Sprintf("train: predict with %d features, model has %d inputs", len(x), len(p.Inputs)))
	}
	tape := p.Graph.Tape()
	for i, id := range p.Inputs {
		tape.SetValue(id, x[i])
	}
	p.Graph.Forward()
	return tape.Value(p.Output)
}

// Accuracy returns the fraction of examples in d whose prediction falls on
// the same side of threshold as the target.
func Accuracy(p Predictor, d Dataset, threshold float64) float64 {
	n := d.Len()
	if n == 0 {
		return 0
	}

	x := make([]float64, len(p.Inputs))
	correct := 0
	for i := 0; i < n; i++ {
		y := d.Example(i, x)
		if (p.Predict(x) >= threshold) == (y >= threshold) {
			correct++
		}
	}
	return float64(correct) / float64(n)
}
