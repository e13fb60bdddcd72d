package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/micrograd/internal/autodiff"
)

// Activation selects the non-linearity applied to a neuron's output.
type Activation uint8

// Supported activations.
const (
	// Linear leaves the weighted sum unchanged.
	Linear Activation = iota

	// ReLU applies max(0, x).
	ReLU

	// Sigmoid applies 1 / (1 + exp(-x)).
	Sigmoid

	// Softmax is declared for configuration compatibility but has no scalar
	// operator. Building a neuron with it returns ErrUnsupportedActivation.
	Softmax
)

// String returns the activation name used in run configurations.
func (a Activation) String() string {
	switch a {
	case Linear:
		return "linear"
	case ReLU:
		return "relu"
	case Sigmoid:
		return "sigmoid"
	case Softmax:
		return "softmax"
	default:
		return fmt.Sprintf("activation(%d)", uint8(a))
	}
}

// ParseActivation converts a case-insensitive name into an Activation.
// The empty string maps to Linear.
func ParseActivation(s string) (Activation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "", "none":
		return Linear, nil
	case "relu":
		return ReLU, nil
	case "sigmoid":
		return Sigmoid, nil
	case "softmax":
		return Softmax, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownActivation, s)
	}
}

// Supported reports whether a has a scalar operator.
func (a Activation) Supported() bool {
	return a == Linear || a == ReLU || a == Sigmoid
}

// nodes returns how many nodes apply adds to a neuron.
func (a Activation) nodes() int {
	if a == Linear {
		return 0
	}
	return 1
}

// apply wraps x in the activation operator.
func (a Activation) apply(t *autodiff.Tape, x autodiff.NodeID) (autodiff.NodeID, error) {
	switch a {
	case Linear:
		return x, nil
	case ReLU:
		return t.ReLU(x), nil
	case Sigmoid:
		return t.Sigmoid(x), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedActivation, a)
	}
}
