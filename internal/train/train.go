// Package train drives repeated optimization steps over a fixed graph.
//
// A Trainer owns the cadence of a run: it draws one example per iteration from
// a Sampler, writes it into the graph's input and target nodes, runs one
// autodiff step and reports the mean loss of each log interval.
package train

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/born-ml/micrograd/internal/autodiff"
	"github.com/born-ml/micrograd/internal/ctxlog"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid training config")

// Config holds the training cadence.
type Config struct {
	Iterations   int     // Number of optimization steps
	LearningRate float64 // Step size (default: 0.01)
	LogInterval  int     // Steps per progress report (default: Iterations)
}

// DefaultConfig returns a short run with a conservative learning rate.
func DefaultConfig() Config {
	return Config{
		Iterations:   1000,
		LearningRate: 0.01,
		LogInterval:  100,
	}
}

// Validate checks the config after defaults are applied.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be positive, got %g", ErrInvalidConfig, c.LearningRate)
	}
	if c.LogInterval < 0 {
		return fmt.Errorf("%w: negative log interval %d", ErrInvalidConfig, c.LogInterval)
	}
	return nil
}

// Progress is the summary of one log interval.
type Progress struct {
	RunID      uuid.UUID
	Iteration  int     // 1-based index of the last step in the interval
	Iterations int     // Total steps of the run
	Loss       float64 // Mean loss over the interval
	Elapsed    time.Duration
}

// Map returns the progress as a JSON-friendly map.
func (p Progress) Map() map[string]any {
	return map[string]any{
		"run_id":     p.RunID.String(),
		"iteration":  p.Iteration,
		"iterations": p.Iterations,
		"loss":       p.Loss,
		"elapsed_ms": p.Elapsed.Milliseconds(),
	}
}

// Result summarizes a finished (or interrupted) run.
type Result struct {
	RunID      uuid.UUID
	Iterations int     // Steps actually executed
	Loss       float64 // Mean loss of the last reported interval
	Duration   time.Duration
}

// Trainer runs optimization steps over one graph.
type Trainer struct {
	graph     *autodiff.Graph
	inputs    []autodiff.NodeID
	target    autodiff.NodeID
	cfg       Config
	reporters []Reporter
	runID     uuid.UUID
}

// New creates a Trainer. inputs and target must be nodes of graph's tape; the
// trainer overwrites their values before every step.
func New(graph *autodiff.Graph, inputs []autodiff.NodeID, target autodiff.NodeID, cfg Config, reporters ...Reporter) *Trainer {
	if cfg.LearningRate == 0 {
		cfg.LearningRate = 0.01
	}
	if cfg.LogInterval == 0 {
		cfg.LogInterval = cfg.Iterations
	}

	return &Trainer{
		graph:     graph,
		inputs:    inputs,
		target:    target,
		cfg:       cfg,
		reporters: reporters,
		runID:     uuid.New(),
	}
}

// RunID identifies this trainer's run in progress reports.
func (t *Trainer) RunID() uuid.UUID {
	return t.runID
}

// Config returns the effective config after defaults.
func (t *Trainer) Config() Config {
	return t.cfg
}

// Run executes cfg.Iterations steps, drawing examples from sampler with rng.
//
// Cancellation is checked between steps; an interrupted run returns the
// partial Result together with the context error.
func (t *Trainer) Run(ctx context.Context, sampler Sampler, rng *rand.Rand) (Result, error) {
	if err := t.cfg.Validate(); err != nil {
		return Result{}, err
	}

	logger := ctxlog.FromContext(ctx).With("run_id", t.runID.String())
	logger.Debug("Training started.",
		"iterations", t.cfg.Iterations,
		"learning_rate", t.cfg.LearningRate,
		"graph_nodes", t.graph.Len(),
	)

	tape := t.graph.Tape()
	x := make([]float64, len(t.inputs))
	losses := make([]float64, 0, t.cfg.LogInterval)
	res := Result{RunID: t.runID}
	start := time.Now()

	for i := 0; i < t.cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			logger.Warn("Training interrupted.", "iteration", i, "error", err)
			return res, fmt.Errorf("training interrupted after %d steps: %w", i, err)
		}

		y := sampler.Sample(rng, x)
		for j, id := range t.inputs {
			tape.SetValue(id, x[j])
		}
		tape.SetValue(t.target, y)

		t.graph.Step(t.cfg.LearningRate)
		losses = append(losses, t.graph.Loss())
		res.Iterations = i + 1

		if len(losses) == t.cfg.LogInterval || i == t.cfg.Iterations-1 {
			res.Loss = floats.Sum(losses) / float64(len(losses))
			losses = losses[:0]
			t.report(ctx, Progress{
				RunID:      t.runID,
				Iteration:  i + 1,
				Iterations: t.cfg.Iterations,
				Loss:       res.Loss,
				Elapsed:    time.Since(start),
			})
		}
	}

	res.Duration = time.Since(start)
	logger.Debug("Training finished.", "loss", res.Loss, "duration", res.Duration)
	return res, nil
}

// report delivers p to every reporter. Failures are logged, never fatal.
func (t *Trainer) report(ctx context.Context, p Progress) {
	for _, r := range t.reporters {
		if err := r.Report(ctx, p); err != nil {
			ctxlog.FromContext(ctx).Warn("Progress report failed.", "error", err)
		}
	}
}
