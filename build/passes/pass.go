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

// Package passes transforms whole programs through ordered rewrites:
// SSA conversion, InCore scope outlining and tensor-to-block-operation
// lowering. Each pass consumes a Program and produces a new Program,
// leaving its input untouched.
package passes

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/pto-org/pto/build/fmterr"
	"github.com/pto-org/pto/build/ir"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("pto.build.passes")

// Property identifies a named invariant of a Program. Passes declare
// the properties they require, produce and invalidate; the pipeline
// tracks them across the run.
type Property int

const (
	// TypeChecked holds when every expression carries a resolved type.
	TypeChecked Property = iota
	// SSAForm holds when each variable is bound exactly once along
	// any execution path.
	SSAForm
	// SplitIncoreOrch holds when no orchestration body contains an
	// incore scope: all of them have been outlined into standalone
	// InCore functions.
	SplitIncoreOrch
	// IncoreBlockOps holds when InCore bodies are expressed purely in
	// block-level operations.
	IncoreBlockOps
)

// String returns the name of the property.
func (p Property) String() string {
	switch p {
	case TypeChecked:
		return "TypeChecked"
	case SSAForm:
		return "SSAForm"
	case SplitIncoreOrch:
		return "SplitIncoreOrch"
	case IncoreBlockOps:
		return "IncoreBlockOps"
	}
	return "invalid"
}

// Properties declares how a pass interacts with program properties.
type Properties struct {
	// Required must hold before the pass runs.
	Required []Property
	// Produced holds after the pass runs.
	Produced []Property
	// Invalidated no longer holds after the pass runs.
	Invalidated []Property
}

// Pass is a whole-program rewrite.
type Pass struct {
	// Name of the pass, for logs and dumps.
	Name string
	// Properties declared by the pass.
	Properties Properties
	// Transform builds the output program from the input program.
	Transform func(*ir.Program) (*ir.Program, error)
}

// Run executes the pass on a program.
func (p Pass) Run(program *ir.Program) (*ir.Program, error) {
	log.Debugf("running pass %s on program %s", p.Name, program.Name)
	out, err := p.Transform(program)
	if err != nil {
		return nil, errors.WithMessagef(err, "pass %s", p.Name)
	}
	return out, nil
}

// VerificationMode controls when a pipeline checks properties against
// the actual program.
type VerificationMode int

const (
	// VerifyNone disables automatic verification.
	VerifyNone VerificationMode = iota
	// VerifyBefore checks required properties before each pass.
	VerifyBefore
	// VerifyAfter checks produced properties after each pass.
	VerifyAfter
	// VerifyBeforeAndAfter checks both.
	VerifyBeforeAndAfter
)

// Verifier checks that a property actually holds on a program.
type Verifier interface {
	// Property the verifier checks.
	Property() Property
	// Verify returns an error describing every violation found.
	Verify(program *ir.Program) error
}

// Pipeline runs passes in sequence with property tracking. Properties
// are tags carried across the run; with a verification mode set, the
// registered verifiers additionally check them against the program.
type Pipeline struct {
	passes    []Pass
	mode      VerificationMode
	initial   []Property
	verifiers map[Property]Verifier
	dump      func(passName string, program *ir.Program)
}

// NewPipeline returns an empty pipeline with the built-in property
// verifiers registered.
func NewPipeline() *Pipeline {
	pl := &Pipeline{verifiers: map[Property]Verifier{}}
	pl.RegisterVerifier(ssaFormVerifier{})
	pl.RegisterVerifier(splitIncoreOrchVerifier{})
	pl.RegisterVerifier(incoreBlockOpsVerifier{})
	return pl
}

// AddPass appends a pass to the pipeline.
func (pl *Pipeline) AddPass(p Pass) {
	pl.passes = append(pl.passes, p)
}

// SetVerificationMode sets when properties are verified.
func (pl *Pipeline) SetVerificationMode(mode VerificationMode) {
	pl.mode = mode
}

// SetInitialProperties declares properties known to hold before the
// pipeline runs.
func (pl *Pipeline) SetInitialProperties(props ...Property) {
	pl.initial = props
}

// RegisterVerifier installs a verifier for its property, replacing
// any previous verifier of the same property.
func (pl *Pipeline) RegisterVerifier(v Verifier) {
	pl.verifiers[v.Property()] = v
}

// SetDump installs a callback invoked with the program after each
// pass.
func (pl *Pipeline) SetDump(dump func(passName string, program *ir.Program)) {
	pl.dump = dump
}

// PassNames returns the names of the passes in run order.
func (pl *Pipeline) PassNames() []string {
	names := make([]string, len(pl.passes))
	for i, p := range pl.passes {
		names[i] = p.Name
	}
	return names
}

func (pl *Pipeline) verify(program *ir.Program, props []Property, held []Property, passName string) error {
	for _, prop := range props {
		if !slices.Contains(held, prop) {
			return fmterr.Errorf(fmterr.PreconditionViolation, program.Source(),
				"pass %s requires property %s, which no earlier pass produced", passName, prop)
		}
		v, ok := pl.verifiers[prop]
		if !ok {
			continue
		}
		if err := v.Verify(program); err != nil {
			return errors.WithMessagef(err, "pass %s: property %s does not hold", passName, prop)
		}
	}
	return nil
}

func (pl *Pipeline) checkProduced(program *ir.Program, props []Property, passName string) error {
	for _, prop := range props {
		v, ok := pl.verifiers[prop]
		if !ok {
			continue
		}
		if err := v.Verify(program); err != nil {
			return errors.WithMessagef(err, "pass %s: produced property %s does not hold", passName, prop)
		}
	}
	return nil
}

// Run executes all passes in order. Verification failures and pass
// errors abort the run: no partial program is returned.
func (pl *Pipeline) Run(program *ir.Program) (*ir.Program, error) {
	held := slices.Clone(pl.initial)
	for _, p := range pl.passes {
		if pl.mode == VerifyBefore || pl.mode == VerifyBeforeAndAfter {
			if err := pl.verify(program, p.Properties.Required, held, p.Name); err != nil {
				return nil, err
			}
		}
		out, err := p.Run(program)
		if err != nil {
			return nil, err
		}
		program = out
		for _, prop := range p.Properties.Invalidated {
			if i := slices.Index(held, prop); i >= 0 {
				held = slices.Delete(held, i, i+1)
			}
		}
		for _, prop := range p.Properties.Produced {
			if !slices.Contains(held, prop) {
				held = append(held, prop)
			}
		}
		if pl.mode == VerifyAfter || pl.mode == VerifyBeforeAndAfter {
			if err := pl.checkProduced(program, p.Properties.Produced, p.Name); err != nil {
				return nil, err
			}
		}
		if pl.dump != nil {
			pl.dump(p.Name, program)
		}
	}
	return program, nil
}

// Default returns the standard lowering pipeline: SSA conversion,
// InCore scope outlining, then tensor-to-block-operation conversion
// driven by the given registry.
func Default(registry *ConversionRegistry) *Pipeline {
	pl := NewPipeline()
	pl.SetInitialProperties(TypeChecked)
	pl.AddPass(ConvertToSSA())
	pl.AddPass(OutlineIncoreScopes())
	pl.AddPass(ConvertTensorToBlockOps(registry))
	return pl
}
