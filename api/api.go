// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api is the compilation entry point: it lowers a program
// through a pass pipeline and hands the result to a backend.
package api

import (
	"github.com/pkg/errors"
	"github.com/pto-org/pto/build/fmterr"
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/passes"
)

// Backend consumes a fully lowered program and produces an artifact.
type Backend interface {
	// Name of the backend, for logs and errors.
	Name() string
	// Emit generates the backend artifact for a lowered program.
	Emit(program *ir.Program) ([]byte, error)
}

// Strategy selects the lowering pipeline applied before the backend
// runs.
type Strategy interface {
	// Name of the strategy.
	Name() string
	// Pipeline returns the pass pipeline to run, built over the given
	// conversion registry.
	Pipeline(registry *passes.ConversionRegistry) *passes.Pipeline
}

// defaultStrategy lowers through the standard pipeline.
type defaultStrategy struct{}

func (defaultStrategy) Name() string { return "default" }

func (defaultStrategy) Pipeline(registry *passes.ConversionRegistry) *passes.Pipeline {
	return passes.Default(registry)
}

// DefaultStrategy returns the standard lowering strategy.
func DefaultStrategy() Strategy { return defaultStrategy{} }

// CompileOptions configures a compilation. The zero value selects the
// default strategy, the default conversion registry, the text backend
// and no verification.
type CompileOptions struct {
	// Strategy selecting the pass pipeline. Nil selects the default
	// strategy.
	Strategy Strategy
	// Backend consuming the lowered program. Nil selects the text
	// backend.
	Backend Backend
	// Registry driving tensor-to-block conversions. Nil selects the
	// built-in conversions.
	Registry *passes.ConversionRegistry
	// Verification mode applied while the pipeline runs.
	Verification passes.VerificationMode
	// DumpPasses, when set, receives the program after each pass.
	DumpPasses func(passName string, program *ir.Program)
}

// Artifact is the result of a compilation.
type Artifact struct {
	// Program after all passes ran.
	Program *ir.Program
	// Backend that produced the output.
	Backend string
	// Output emitted by the backend.
	Output []byte
}

// Compile lowers a program and emits it through a backend. A pass or
// verification failure aborts the compilation with no artifact.
func Compile(program *ir.Program, opts CompileOptions) (*Artifact, error) {
	if program == nil {
		return nil, fmterr.Errorf(fmterr.InvalidArgument, ir.UnknownSpan(), "cannot compile a nil program")
	}
	strategy := opts.Strategy
	if strategy == nil {
		strategy = DefaultStrategy()
	}
	registry := opts.Registry
	if registry == nil {
		registry = passes.DefaultConversions()
	}
	backend := opts.Backend
	if backend == nil {
		backend = TextBackend()
	}
	pipeline := strategy.Pipeline(registry)
	pipeline.SetVerificationMode(opts.Verification)
	if opts.DumpPasses != nil {
		pipeline.SetDump(opts.DumpPasses)
	}
	lowered, err := pipeline.Run(program)
	if err != nil {
		return nil, errors.WithMessagef(err, "strategy %s", strategy.Name())
	}
	output, err := backend.Emit(lowered)
	if err != nil {
		return nil, errors.WithMessagef(err, "backend %s", backend.Name())
	}
	return &Artifact{Program: lowered, Backend: backend.Name(), Output: output}, nil
}
