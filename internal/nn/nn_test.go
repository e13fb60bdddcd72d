package nn_test

import (
	"math/rand"
	"testing"

	"github.com/born-ml/micrograd/internal/autodiff"
	"github.com/born-ml/micrograd/internal/nn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTape(capacity int) *autodiff.Tape {
	return autodiff.NewTape(capacity, rand.New(rand.NewSource(42)))
}

func TestInputs(t *testing.T) {
	tape := newTape(4)
	xs := nn.Inputs(tape, 3)

	require.Len(t, xs, 3)
	for _, x := range xs {
		n := tape.Node(x)
		assert.Equal(t, "x", n.Tag)
		assert.True(t, n.Constant)
		assert.Equal(t, 0.0, n.Value)
	}
}

func TestNeuron_Structure(t *testing.T) {
	tests := []struct {
		name  string
		act   nn.Activation
		kind  autodiff.Kind
		nodes int
	}{
		{"linear", nn.Linear, autodiff.KindAdd, 1 + 3*2},
		{"relu", nn.ReLU, autodiff.KindReLU, 1 + 3*2 + 1},
		{"sigmoid", nn.Sigmoid, autodiff.KindSigmoid, 1 + 3*2 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tape := newTape(32)
			xs := nn.Inputs(tape, 2)
			before := tape.Len()

			out, err := nn.Neuron(tape, xs, tt.act)
			require.NoError(t, err)

			assert.Equal(t, tt.kind, tape.Node(out).Kind)
			assert.Equal(t, tt.nodes, tape.Len()-before)

			var weights, biases int
			for id := autodiff.NodeID(before); int(id) < tape.Len(); id++ {
				switch tape.Node(id).Tag {
				case "w":
					weights++
					assert.True(t, tape.Node(id).Trainable())
				case "b":
					biases++
				}
			}
			assert.Equal(t, 2, weights)
			assert.Equal(t, 1, biases)
		})
	}
}

// TestNeuron_Value tests bias + Σ w·x against the tape values.
func TestNeuron_Value(t *testing.T) {
	tape := newTape(32)
	xs := nn.Inputs(tape, 2)
	tape.SetValue(xs[0], 1.5)
	tape.SetValue(xs[1], -2)

	out, err := nn.Neuron(tape, xs, nn.Linear)
	require.NoError(t, err)

	// Layout after the inputs: b, w0, w0*x0, +, w1, w1*x1, +
	b := tape.Value(autodiff.NodeID(2))
	w0 := tape.Value(autodiff.NodeID(3))
	w1 := tape.Value(autodiff.NodeID(6))

	g, err := autodiff.Build(tape, out, 0)
	require.NoError(t, err)
	g.Forward()

	assert.InDelta(t, b+1.5*w0-2*w1, tape.Value(out), 1e-12)
}

func TestNeuron_Softmax(t *testing.T) {
	tape := newTape(32)
	xs := nn.Inputs(tape, 2)

	_, err := nn.Neuron(tape, xs, nn.Softmax)
	require.ErrorIs(t, err, nn.ErrUnsupportedActivation)
	assert.Equal(t, 2, tape.Len(), "nothing allocated for a rejected neuron")
}

func TestLayer(t *testing.T) {
	tape := newTape(64)
	xs := nn.Inputs(tape, 3)

	outs, err := nn.Layer(tape, xs, 4, nn.ReLU)
	require.NoError(t, err)

	require.Len(t, outs, 4)
	seen := make(map[autodiff.NodeID]bool)
	for _, o := range outs {
		assert.Equal(t, autodiff.KindReLU, tape.Node(o).Kind)
		assert.False(t, seen[o])
		seen[o] = true
	}
}

func TestNetwork(t *testing.T) {
	cfg := nn.Config{Inputs: 3, Layers: []int{3, 3, 1}, Hidden: nn.ReLU, Output: nn.Linear}
	tape := newTape(nn.NodeCount(cfg))
	xs := nn.Inputs(tape, cfg.Inputs)

	outs, err := nn.Network(tape, xs, cfg)
	require.NoError(t, err)

	require.Len(t, outs, 1)
	assert.Equal(t, autodiff.KindAdd, tape.Node(outs[0]).Kind, "linear output layer")
	assert.Equal(t, nn.NodeCount(cfg), tape.Len())
	assert.Equal(t, 1, cfg.Outputs())
}

func TestNetwork_SigmoidOutput(t *testing.T) {
	cfg := nn.Config{Inputs: 4, Layers: []int{2}, Output: nn.Sigmoid}
	tape := newTape(nn.NodeCount(cfg))
	xs := nn.Inputs(tape, cfg.Inputs)

	outs, err := nn.Network(tape, xs, cfg)
	require.NoError(t, err)

	require.Len(t, outs, 2)
	for _, o := range outs {
		assert.Equal(t, autodiff.KindSigmoid, tape.Node(o).Kind)
	}
	assert.Equal(t, nn.NodeCount(cfg), tape.Len())
}

func TestNetwork_InputMismatch(t *testing.T) {
	cfg := nn.Config{Inputs: 3, Layers: []int{1}}
	tape := newTape(64)
	xs := nn.Inputs(tape, 2)

	_, err := nn.Network(tape, xs, cfg)
	assert.ErrorIs(t, err, nn.ErrInvalidConfig)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     nn.Config
		wantErr error
	}{
		{"ok", nn.Config{Inputs: 2, Layers: []int{2, 1}, Hidden: nn.ReLU}, nil},
		{"no_inputs", nn.Config{Layers: []int{1}}, nn.ErrInvalidConfig},
		{"no_layers", nn.Config{Inputs: 2}, nn.ErrInvalidConfig},
		{"empty_layer", nn.Config{Inputs: 2, Layers: []int{2, 0}}, nn.ErrInvalidConfig},
		{"softmax_output", nn.Config{Inputs: 2, Layers: []int{2}, Output: nn.Softmax}, nn.ErrUnsupportedActivation},
		{"softmax_hidden", nn.Config{Inputs: 2, Layers: []int{2, 1}, Hidden: nn.Softmax}, nn.ErrUnsupportedActivation},
		// Hidden is unused by a single-layer network.
		{"softmax_hidden_unused", nn.Config{Inputs: 2, Layers: []int{1}, Hidden: nn.Softmax}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNodeCount(t *testing.T) {
	// 784 inputs, one sigmoid neuron: 784 + (1 + 3*784 + 1)
	cfg := nn.Config{Inputs: 784, Layers: []int{1}, Output: nn.Sigmoid}
	assert.Equal(t, 784+2+3*784, nn.NodeCount(cfg))

	// 3 inputs, [3, 3, 1], relu hidden, linear output:
	// 3 + 3*(1+9+1) + 3*(1+9+1) + 1*(1+9)
	cfg = nn.Config{Inputs: 3, Layers: []int{3, 3, 1}, Hidden: nn.ReLU}
	assert.Equal(t, 3+33+33+10, nn.NodeCount(cfg))
}

func TestParseActivation(t *testing.T) {
	tests := []struct {
		in   string
		want nn.Activation
	}{
		{"linear", nn.Linear},
		{"", nn.Linear},
		{"ReLU", nn.ReLU},
		{"sigmoid", nn.Sigmoid},
		{"softmax", nn.Softmax},
	}
	for _, tt := range tests {
		got, err := nn.ParseActivation(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := nn.ParseActivation("tanh")
	assert.ErrorIs(t, err, nn.ErrUnknownActivation)
	assert.Equal(t, "relu", nn.ReLU.String())
}

func TestLoss(t *testing.T) {
	for _, l := range []nn.Loss{nn.MSE, nn.Squared} {
		t.Run(l.String(), func(t *testing.T) {
			tape := newTape(16)
			y := tape.Constant(1)
			pred := tape.Variable(3)
			before := tape.Len()

			loss, err := l.Build(tape, y, pred)
			require.NoError(t, err)
			assert.Equal(t, l.NodeCount(), tape.Len()-before)

			g, err := autodiff.Build(tape, loss, 0)
			require.NoError(t, err)
			g.Forward()

			want := 4.0
			if l == nn.MSE {
				want = 2.0
			}
			assert.Equal(t, want, g.Loss())
		})
	}

	got, err := nn.ParseLoss("squared")
	require.NoError(t, err)
	assert.Equal(t, nn.Squared, got)

	_, err = nn.ParseLoss("hinge")
	assert.ErrorIs(t, err, nn.ErrUnknownLoss)
}

// TestSingleNeuronClassifier trains a sigmoid neuron on two separable points.
func TestSingleNeuronClassifier(t *testing.T) {
	cfg := nn.Config{Inputs: 2, Layers: []int{1}, Output: nn.Sigmoid}
	tape := newTape(nn.NodeCount(cfg) + nn.MSE.NodeCount() + 1)
	xs := nn.Inputs(tape, cfg.Inputs)
	y := tape.Constant(0)

	outs, err := nn.Network(tape, xs, cfg)
	require.NoError(t, err)
	loss, err := nn.MSE.Build(tape, y, outs[0])
	require.NoError(t, err)

	g, err := autodiff.Build(tape, loss, 0)
	require.NoError(t, err)

	examples := []struct {
		x     [2]float64
		label float64
	}{
		{[2]float64{1, 0}, 1},
		{[2]float64{0, 1}, 0},
	}
	feed := func(i int) {
		tape.SetValue(xs[0], examples[i].x[0])
		tape.SetValue(xs[1], examples[i].x[1])
		tape.SetValue(y, examples[i].label)
	}

	for step := 0; step < 4000; step++ {
		feed(step % 2)
		g.Step(1.0)
	}

	for i := range examples {
		feed(i)
		g.Forward()
		assert.Less(t, g.Loss(), 0.01, "example %d", i)
	}
	assert.Less(t, tape.Value(outs[0]), 0.5, "[0 1] classified as 0")
}
