package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/micrograd/internal/autodiff"
)

// Loss selects how a prediction is compared against its target.
type Loss uint8

const (
	// MSE is 0.5 * (yPred - yTrue)².
	MSE Loss = iota

	// Squared is (yPred - yTrue)² without the 0.5 factor.
	Squared
)

// String returns the loss name used in run configurations.
func (l Loss) String() string {
	switch l {
	case MSE:
		return "mse"
	case Squared:
		return "squared"
	default:
		return fmt.Sprintf("loss(%d)", uint8(l))
	}
}

// ParseLoss converts "mse" or "squared" into a Loss. The empty string maps to MSE.
func ParseLoss(s string) (Loss, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mse", "":
		return MSE, nil
	case "squared", "squared_error":
		return Squared, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLoss, s)
	}
}

// Build creates the loss node comparing yPred against yTrue.
func (l Loss) Build(t *autodiff.Tape, yTrue, yPred autodiff.NodeID) (autodiff.NodeID, error) {
	switch l {
	case MSE:
		return t.MSE(yTrue, yPred), nil
	case Squared:
		return t.SquaredError(yTrue, yPred), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownLoss, l)
	}
}

// NodeCount returns the number of nodes Build allocates.
func (l Loss) NodeCount() int {
	if l == Squared {
		return 4
	}
	return 6
}
