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

// Package ir is the PTO Intermediate Representation (IR) tree.
//
// The tree represents tensor/kernel programs between the surface language
// and backend code generation. Nodes are built once, either by a producer
// (the parser) or by a pass, and are never mutated in place: a pass that
// changes a program returns a new Program built from the old one.
package ir

import (
	"github.com/pto-org/pto/base/ordered"
	"github.com/pto-org/pto/build/ir/irkind"
)

// ----------------------------------------------------------------------------
// Types of node in the tree.
type (
	// Node in the tree.
	Node interface {
		// node marks a structure as a node structure.
		// It prevents external implementations of the interface.
		node()
	}

	// SourceNode is a node with a position in source code.
	SourceNode interface {
		Node
		Source() Span
	}

	// Type of a value.
	Type interface {
		Node

		// Kind of the type.
		Kind() irkind.Kind

		// String representation of the type.
		String() string
	}

	// Expr is an expression node. Every expression carries its
	// resolved type and a source span.
	Expr interface {
		SourceNode

		// Type of the value computed by the expression.
		Type() Type

		// String returns the expression in surface syntax.
		String() string
	}

	// Stmt is a statement node.
	Stmt interface {
		SourceNode

		// String returns the statement in surface syntax.
		String() string

		stmtNode()
	}

	// Callee is the target of a Call expression: either a primitive
	// operation (Op) or a reference to a function (GlobalVar).
	Callee interface {
		Node

		// CalleeName returns the name the call dispatches on.
		CalleeName() string
	}
)

// ----------------------------------------------------------------------------
// Function and program containers.

// FuncKind distinguishes orchestration functions from on-chip kernels.
type FuncKind int

const (
	// OrchestrationFunc composes calls to InCore and other orchestration
	// functions into a data-flow graph. It contains no block operations.
	OrchestrationFunc FuncKind = iota
	// InCoreFunc is a kernel body expressed in block-level (on-chip tile)
	// operations: load, compute, store.
	InCoreFunc
)

// String returns the name of the function kind.
func (k FuncKind) String() string {
	switch k {
	case OrchestrationFunc:
		return "Orchestration"
	case InCoreFunc:
		return "InCore"
	}
	return "invalid"
}

// Func is a function definition.
type Func struct {
	Name    string
	Kind    FuncKind
	Params  []*Var
	Body    Stmt
	Results []Type
	Src     Span
}

var _ SourceNode = (*Func)(nil)

func (*Func) node() {}

// Source returns the span of the function definition.
func (f *Func) Source() Span { return f.Src }

// NewFunc returns a new function definition.
func NewFunc(name string, kind FuncKind, params []*Var, body Stmt, results []Type, span Span) *Func {
	return &Func{Name: name, Kind: kind, Params: params, Body: body, Results: results, Src: span}
}

// BodyStmts returns the function body as a flat statement list.
// A SeqStmts body is unwrapped; any other body becomes a list of one.
func (f *Func) BodyStmts() []Stmt {
	if f.Body == nil {
		return nil
	}
	if seq, ok := f.Body.(*SeqStmts); ok {
		return seq.Stmts
	}
	return []Stmt{f.Body}
}

// Program owns an ordered mapping from global function identifiers
// to function definitions. Insertion order is preserved.
type Program struct {
	Name      string
	Functions *ordered.Map[string, *Func]
	Src       Span
}

var _ SourceNode = (*Program)(nil)

func (*Program) node() {}

// Source returns the span of the program definition.
func (p *Program) Source() Span { return p.Src }

// NewProgram returns a program owning the given functions,
// registered in order.
func NewProgram(name string, span Span, funcs ...*Func) *Program {
	p := &Program{Name: name, Functions: ordered.NewMap[string, *Func](), Src: span}
	for _, f := range funcs {
		p.Functions.Store(f.Name, f)
	}
	return p
}

// Func returns a function given its global identifier.
func (p *Program) Func(name string) (*Func, bool) {
	return p.Functions.Load(name)
}
