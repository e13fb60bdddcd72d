// Package config loads training runs from HCL files.
//
// A file holds one or more run blocks:
//
//	run "regress" {
//	  seed          = 7
//	  iterations    = 5000
//	  learning_rate = 0.3
//
//	  network {
//	    inputs            = 3
//	    layers            = [3, 3, 1]
//	    hidden_activation = "relu"
//	  }
//
//	  dataset "linear" {
//	    weights = [3, -1, 5]
//	    bias    = -2
//	  }
//	}
//
// Expressions can read the process environment through the env object
// (env.HOME) or the getenv(name, fallback) function.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Common errors.
var (
	ErrInvalid     = errors.New("invalid run configuration")
	ErrRunNotFound = errors.New("run not found")
	ErrNoRuns      = errors.New("no run blocks")
)

// File is the decoded content of one HCL file.
type File struct {
	Runs []*Run `hcl:"run,block"`
}

// Run describes one training run.
type Run struct {
	Name          string    `hcl:"name,label"`
	Seed          int64     `hcl:"seed,optional"`
	Iterations    int       `hcl:"iterations"`
	LearningRate  float64   `hcl:"learning_rate"`
	LogInterval   int       `hcl:"log_interval,optional"`
	GraphOrder    string    `hcl:"graph_order,optional"`
	GraphCapacity int       `hcl:"graph_capacity,optional"`
	Loss          string    `hcl:"loss,optional"`
	Network       *Network  `hcl:"network,block"`
	Dataset       *Dataset  `hcl:"dataset,block"`
	Progress      *Progress `hcl:"progress,block"`
}

// Network describes the dense network.
type Network struct {
	Inputs           int    `hcl:"inputs"`
	Layers           []int  `hcl:"layers"`
	HiddenActivation string `hcl:"hidden_activation,optional"`
	OutputActivation string `hcl:"output_activation,optional"`
}

// Dataset kinds.
const (
	DatasetLinear = "linear"
	DatasetMNIST  = "mnist"
)

// Dataset selects the example source. Linear uses weights, bias and noise;
// mnist uses images, labels, digits and limit.
type Dataset struct {
	Kind    string    `hcl:"kind,label"`
	Weights []float64 `hcl:"weights,optional"`
	Bias    float64   `hcl:"bias,optional"`
	Noise   float64   `hcl:"noise,optional"`
	Images  string    `hcl:"images,optional"`
	Labels  string    `hcl:"labels,optional"`
	Digits  []int     `hcl:"digits,optional"`
	Limit   int       `hcl:"limit,optional"`
}

// Progress configures the optional socket.io progress reporter.
type Progress struct {
	URL       string `hcl:"url"`
	Namespace string `hcl:"namespace,optional"`
	Event     string `hcl:"event,optional"`
}

// Load parses and validates the HCL file at path.
func Load(path string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decode(hclFile, path)
}

// Parse parses and validates HCL source. filename is used in diagnostics.
func Parse(src []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decode(hclFile, filename)
}

func decode(hclFile *hcl.File, filename string) (*File, error) {
	var f File
	if diags := gohcl.DecodeBody(hclFile.Body, newEvalContext(os.Environ()), &f); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	if len(f.Runs) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoRuns)
	}

	seen := make(map[string]bool, len(f.Runs))
	for _, r := range f.Runs {
		if seen[r.Name] {
			return nil, fmt.Errorf("%s: %w: duplicate run %q", filename, ErrInvalid, r.Name)
		}
		seen[r.Name] = true
		r.applyDefaults()
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return &f, nil
}

// Run returns the run called name. An empty name selects the only run of a
// single-run file.
func (f *File) Run(name string) (*Run, error) {
	if name == "" && len(f.Runs) == 1 {
		return f.Runs[0], nil
	}
	for _, r := range f.Runs {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrRunNotFound, name)
}

// Names returns the run names in file order.
func (f *File) Names() []string {
	names := make([]string, len(f.Runs))
	for i, r := range f.Runs {
		names[i] = r.Name
	}
	return names
}

// newEvalContext exposes environ as the env object and the getenv function.
func newEvalContext(environ []string) *hcl.EvalContext {
	env := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}

	getenv := function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
			{Name: "fallback", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if v, ok := env[args[0].AsString()]; ok && v.AsString() != "" {
				return v, nil
			}
			return args[1], nil
		},
	})

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(env)},
		Functions: map[string]function.Function{"getenv": getenv},
	}
}
