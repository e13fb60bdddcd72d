package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"github.com/born-ml/micrograd/internal/autodiff"
	"github.com/born-ml/micrograd/internal/config"
	"github.com/born-ml/micrograd/internal/ctxlog"
	"github.com/born-ml/micrograd/internal/dataset"
	"github.com/born-ml/micrograd/internal/nn"
	"github.com/born-ml/micrograd/internal/train"
	"github.com/google/uuid"
)

// maxLoggedParameters caps per-parameter log lines; larger models log a count.
const maxLoggedParameters = 16

// App holds one resolved run and its isolated logger.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
	run    *config.Run
}

// Parameter is a learned value after training.
type Parameter struct {
	ID    autodiff.NodeID
	Tag   string
	Value float64
}

// Summary reports the outcome of App.Run.
type Summary struct {
	Run         string
	RunID       uuid.UUID
	Iterations  int
	Loss        float64 // Mean loss of the last log interval
	GraphNodes  int
	Parameters  []Parameter
	Accuracy    float64 // Fraction of correctly classified examples
	HasAccuracy bool
}

// New resolves the run named by cfg and applies the CLI overrides.
func New(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)

	var (
		file *config.File
		err  error
	)
	if cfg.ConfigPath != "" {
		file, err = config.Load(cfg.ConfigPath)
	} else {
		file, err = config.Demo(cfg.RunName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	run, err := file.Run(cfg.RunName)
	if err != nil {
		return nil, fmt.Errorf("failed to select run: %w (available: %v)", err, file.Names())
	}

	if cfg.Seed != 0 {
		run.Seed = cfg.Seed
	}
	if cfg.Iterations > 0 {
		run.Iterations = cfg.Iterations
		run.LogInterval = min(run.LogInterval, run.Iterations)
	}
	if err := run.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Run configuration resolved.", "run", run.Name, "seed", run.Seed)

	return &App{
		outW:   outW,
		logger: logger,
		cfg:    cfg,
		run:    run,
	}, nil
}

// Run trains the configured model until the iterations are exhausted or ctx
// is cancelled.
func (a *App) Run(ctx context.Context) (Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := a.logger.With("run", a.run.Name)

	netCfg, err := a.run.NetworkConfig()
	if err != nil {
		return Summary{}, err
	}
	order, err := a.run.Order()
	if err != nil {
		return Summary{}, err
	}
	lossKind, err := a.run.LossKind()
	if err != nil {
		return Summary{}, err
	}
	trainCfg, err := a.run.TrainConfig()
	if err != nil {
		return Summary{}, err
	}

	sampler, evalSet, err := a.loadData(ctx, netCfg.Inputs)
	if err != nil {
		return Summary{}, err
	}

	rng := rand.New(rand.NewSource(a.run.Seed)) //nolint:gosec // Reproducible training, not security-critical
	m, err := buildModel(rng, netCfg, lossKind, a.run.GraphCapacity, order)
	if err != nil {
		return Summary{}, err
	}
	defer m.tape.Release()
	logger.Info("Model built.",
		"tape_nodes", m.tape.Len(),
		"graph_nodes", m.graph.Len(),
		"graph_order", order.String(),
		"loss", lossKind.String(),
	)

	reporters := a.reporters(ctx)
	defer func() {
		for _, r := range reporters {
			if err := r.Close(); err != nil {
				logger.Warn("Closing reporter failed.", "error", err)
			}
		}
	}()

	trainer := train.New(m.graph, m.inputs, m.target, trainCfg, reporters...)
	logger.Info("Starting training.", "run_id", trainer.RunID().String(), "iterations", trainCfg.Iterations)

	res, err := trainer.Run(ctx, sampler, rng)
	summary := Summary{
		Run:        a.run.Name,
		RunID:      res.RunID,
		Iterations: res.Iterations,
		Loss:       res.Loss,
		GraphNodes: m.graph.Len(),
		Parameters: m.parameters(),
	}
	if err != nil {
		return summary, err
	}
	logger.Info("Training finished.", "loss", res.Loss, "duration", res.Duration)

	a.logParameters(logger, summary.Parameters)

	if evalSet != nil {
		p := train.Predictor{Graph: m.graph, Inputs: m.inputs, Output: m.output}
		summary.Accuracy = train.Accuracy(p, evalSet, 0.5)
		summary.HasAccuracy = true
		logger.Info("Training accuracy.", "accuracy", summary.Accuracy, "examples", evalSet.Len())
	}

	if a.cfg.Dump {
		if err := m.graph.Dump(a.outW); err != nil {
			return summary, fmt.Errorf("failed to dump graph: %w", err)
		}
	}
	return summary, nil
}

// loadData returns the training sampler and, for classification datasets, the
// set to measure accuracy on.
func (a *App) loadData(ctx context.Context, inputs int) (train.Sampler, train.Dataset, error) {
	d := a.run.Dataset
	switch d.Kind {
	case config.DatasetLinear:
		return dataset.Linear{Weights: d.Weights, Bias: d.Bias, Noise: d.Noise}, nil, nil

	case config.DatasetMNIST:
		logger := ctxlog.FromContext(ctx)
		logger.Info("Loading data.", "images", d.Images, "labels", d.Labels)
		all, err := dataset.LoadMNIST(d.Images, d.Labels, d.Limit)
		if err != nil {
			return nil, nil, err
		}
		if all.Width() != inputs {
			return nil, nil, fmt.Errorf("mnist images have %d pixels, network has %d inputs", all.Width(), inputs)
		}

		neg, pos := byte(d.Digits[0]), byte(d.Digits[1])
		set := dataset.OneVsRest{MNIST: all.Filter(neg, pos), Positive: pos}
		if set.Len() == 0 {
			return nil, nil, fmt.Errorf("no examples labelled %d or %d", neg, pos)
		}
		logger.Info("Data loaded.", "examples", set.Len(), "total", all.Len())
		return train.Uniform(set), set, nil

	default:
		return nil, nil, fmt.Errorf("unknown dataset kind %q", d.Kind)
	}
}

// reporters always logs progress and adds socket.io when configured. A
// progress server that cannot be reached is logged and skipped.
func (a *App) reporters(ctx context.Context) []train.Reporter {
	reporters := []train.Reporter{train.NewLogReporter()}

	p := a.run.Progress
	if p == nil {
		return reporters
	}
	sio, err := train.DialSocketIO(ctx, p.URL, p.Namespace, p.Event)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Progress server unavailable, continuing without it.", "url", p.URL, "error", err)
		return reporters
	}
	return append(reporters, sio)
}

func (a *App) logParameters(logger *slog.Logger, params []Parameter) {
	if len(params) > maxLoggedParameters {
		logger.Info("Learned parameters.", "count", len(params))
		return
	}
	for _, p := range params {
		logger.Info("Learned parameter.", "id", p.ID, "tag", p.Tag, "value", p.Value)
	}
}

// model is the tape, graph and designated nodes of one network.
type model struct {
	tape   *autodiff.Tape
	graph  *autodiff.Graph
	inputs []autodiff.NodeID
	target autodiff.NodeID
	output autodiff.NodeID
}

func buildModel(rng *rand.Rand, cfg nn.Config, loss nn.Loss, capacity int, order autodiff.Order) (*model, error) {
	tape := autodiff.NewTape(nn.NodeCount(cfg)+loss.NodeCount()+1, rng)

	inputs := nn.Inputs(tape, cfg.Inputs)
	target := tape.SetTag(tape.Constant(0), "y")
	outs, err := nn.Network(tape, inputs, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build network: %w", err)
	}
	root, err := loss.Build(tape, target, outs[0])
	if err != nil {
		return nil, fmt.Errorf("failed to build loss: %w", err)
	}

	graph, err := autodiff.Build(tape, root, capacity, autodiff.WithOrder(order))
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}

	return &model{
		tape:   tape,
		graph:  graph,
		inputs: inputs,
		target: target,
		output: outs[0],
	}, nil
}

// parameters lists the trainable leaves in creation order.
func (m *model) parameters() []Parameter {
	var params []Parameter
	for id := autodiff.NodeID(0); int(id) < m.tape.Len(); id++ {
		n := m.tape.Node(id)
		if n.Trainable() {
			params = append(params, Parameter{ID: id, Tag: n.Tag, Value: n.Value})
		}
	}
	return params
}
