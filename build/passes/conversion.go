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

package passes

import (
	"fmt"

	"github.com/pto-org/pto/build/fmterr"
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/op"
)

func errUnsupported(opName string, span ir.Span) error {
	return fmterr.Errorf(fmterr.UnsupportedOperation, span, "no conversion registered for operation %s", opName)
}

// ConversionContext accumulates the prologue statements a custom
// conversion rule emits before its replacement expression.
type ConversionContext struct {
	prologue []ir.Stmt
	fresh    func(name string) string
}

// Let binds an expression to a fresh variable, emits the assignment
// into the prologue and returns the variable for reuse in later steps
// of the same rule.
func (c *ConversionContext) Let(name string, value ir.Expr, span ir.Span) *ir.Var {
	v := ir.NewVar(c.fresh(name), value.Type(), span)
	c.prologue = append(c.prologue, ir.NewAssign(v, value, span))
	return v
}

// Emit appends a raw statement to the prologue.
func (c *ConversionContext) Emit(stmt ir.Stmt) {
	c.prologue = append(c.prologue, stmt)
}

// ConversionFunc rewrites one tensor-level operation into its
// block-level form. Arguments arrive with tensor variables already
// substituted by their tiles. Multi-step lowerings emit their
// intermediate statements through the context.
type ConversionFunc func(ctx *ConversionContext, args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Expr, error)

// ConversionResult is the outcome of converting one operation: the
// prologue statements to splice before the rewritten assignment, and
// the replacement expression.
type ConversionResult struct {
	Prologue []ir.Stmt
	Result   ir.Expr
}

// ConversionRegistry maps tensor-level operation names to conversion
// rules. Registering a name already present overwrites the previous
// rule, whichever mode registered it.
type ConversionRegistry struct {
	rules map[string]ConversionFunc
	ops   *op.Registry
}

// NewConversionRegistry returns a registry populated with the
// built-in tensor-to-block conversions, creating block calls through
// the given operation registry.
func NewConversionRegistry(ops *op.Registry) *ConversionRegistry {
	r := &ConversionRegistry{rules: map[string]ConversionFunc{}, ops: ops}

	// Elementwise binary ops.
	r.RegisterSimple("tensor.add", "block.add")
	r.RegisterSimple("tensor.sub", "block.sub")
	r.RegisterSimple("tensor.mul", "block.mul")
	r.RegisterSimple("tensor.div", "block.div")
	r.RegisterSimple("tensor.maximum", "block.maximum")

	// Scalar ops.
	r.RegisterSimple("tensor.add_scalar", "block.adds")
	r.RegisterSimple("tensor.sub_scalar", "block.subs")
	r.RegisterSimple("tensor.mul_scalar", "block.muls")
	r.RegisterSimple("tensor.div_scalar", "block.divs")

	// Unary ops.
	r.RegisterSimple("tensor.exp", "block.exp")
	r.RegisterSimple("tensor.cast", "block.cast")

	// Reductions.
	r.RegisterSimple("tensor.row_max", "block.row_max")
	r.RegisterSimple("tensor.row_sum", "block.row_sum")

	// Transform ops.
	r.RegisterSimple("tensor.reshape", "block.reshape")
	r.RegisterSimple("tensor.transpose", "block.transpose")

	// Matmul stages its operands into the matrix-unit buffers first.
	r.RegisterCustom("tensor.matmul", r.convertMatmul)

	return r
}

// DefaultConversions returns a registry over the default operation
// registry.
func DefaultConversions() *ConversionRegistry {
	return NewConversionRegistry(op.Default)
}

// RegisterSimple registers a verbatim rename: the operation name is
// replaced, arguments and attributes pass through unchanged.
func (r *ConversionRegistry) RegisterSimple(fromOp, toOp string) {
	r.rules[fromOp] = func(ctx *ConversionContext, args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Expr, error) {
		return r.ops.Create(toOp, args, attrs, span)
	}
}

// RegisterCustom registers a custom rewrite rule.
func (r *ConversionRegistry) RegisterCustom(fromOp string, fn ConversionFunc) {
	r.rules[fromOp] = fn
}

// Has reports whether a conversion is registered for an operation.
func (r *ConversionRegistry) Has(opName string) bool {
	_, ok := r.rules[opName]
	return ok
}

// Convert rewrites one operation call. fresh generates collision-free
// variable names for the prologue bindings of custom rules; a nil
// fresh keeps rule-chosen names as-is.
func (r *ConversionRegistry) Convert(opName string, args []ir.Expr, attrs []ir.Attr, span ir.Span, fresh func(string) string) (ConversionResult, error) {
	fn, ok := r.rules[opName]
	if !ok {
		return ConversionResult{}, errUnsupported(opName, span)
	}
	if fresh == nil {
		fresh = func(name string) string { return name }
	}
	ctx := &ConversionContext{fresh: fresh}
	result, err := fn(ctx, args, attrs, span)
	if err != nil {
		return ConversionResult{}, err
	}
	return ConversionResult{Prologue: ctx.prologue, Result: result}, nil
}

func (r *ConversionRegistry) convertMatmul(ctx *ConversionContext, args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Expr, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("tensor.matmul requires 2 arguments, got %d", len(args))
	}
	lhsMove, err := r.ops.Create("block.move", []ir.Expr{args[0]}, []ir.Attr{{Name: "target_memory", Value: op.L0A}}, span)
	if err != nil {
		return nil, err
	}
	rhsMove, err := r.ops.Create("block.move", []ir.Expr{args[1]}, []ir.Attr{{Name: "target_memory", Value: op.L0B}}, span)
	if err != nil {
		return nil, err
	}
	lhs := ctx.Let("lhs_l0a", lhsMove, span)
	rhs := ctx.Let("rhs_l0b", rhsMove, span)
	return r.ops.Create("block.matmul", []ir.Expr{lhs, rhs}, attrs, span)
}
