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

// Package op builds typed Call expressions for the primitive tensor
// and block operations of the IR.
package op

import (
	"slices"

	"github.com/pto-org/pto/build/fmterr"
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/irkind"
	"golang.org/x/exp/maps"
)

// Category classifies an operation by the level of the program it
// belongs to.
type Category int

const (
	// TensorOp operates on whole logical tensors in global memory.
	TensorOp Category = iota
	// BlockOp operates on on-chip tiles.
	BlockOp
)

// String returns the name of the category.
func (c Category) String() string {
	if c == BlockOp {
		return "block"
	}
	return "tensor"
}

// ResultFunc computes the result type of an operation from its
// arguments and attributes.
type ResultFunc func(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error)

type entry struct {
	category Category
	result   ResultFunc
}

// Registry maps symbolic operation names to their category and their
// result-type rule. Create is the only way the rest of the compiler
// builds primitive op calls.
type Registry struct {
	ops map[string]entry
}

// NewRegistry returns a registry populated with the built-in tensor
// and block operations.
func NewRegistry() *Registry {
	r := &Registry{ops: map[string]entry{}}
	r.registerBuiltins()
	return r
}

// Register adds an operation to the registry. Registering a name
// already present overwrites the previous entry.
func (r *Registry) Register(name string, category Category, result ResultFunc) {
	r.ops[name] = entry{category: category, result: result}
}

// Category returns the category of a registered operation.
func (r *Registry) Category(name string) (Category, bool) {
	e, ok := r.ops[name]
	return e.category, ok
}

// Ops returns the names of all registered operations, sorted.
func (r *Registry) Ops() []string {
	names := maps.Keys(r.ops)
	slices.Sort(names)
	return names
}

// Create builds a typed call to a registered operation. The result
// type is computed by the operation's result rule.
func (r *Registry) Create(name string, args []ir.Expr, attrs []ir.Attr, span ir.Span) (*ir.Call, error) {
	e, ok := r.ops[name]
	if !ok {
		return nil, fmterr.Errorf(fmterr.UnsupportedOperation, span, "operation %s is not registered", name)
	}
	typ, err := e.result(args, attrs, span)
	if err != nil {
		return nil, err
	}
	return ir.NewCall(ir.NewOp(name), args, attrs, typ, span), nil
}

// Default is the registry holding the built-in operations. Builders
// of this package create their calls through it.
var Default = NewRegistry()

func (r *Registry) registerBuiltins() {
	tensorOps := map[string]ResultFunc{
		"tensor.create":     resultCreate,
		"tensor.read":       resultRead,
		"tensor.dim":        resultDim,
		"tensor.view":       resultViewTensor,
		"tensor.matmul":     resultMatmulTensor,
		"tensor.add":        resultSameAsFirst,
		"tensor.add_scalar": resultSameAsFirst,
		"tensor.sub":        resultSameAsFirst,
		"tensor.sub_scalar": resultSameAsFirst,
		"tensor.mul":        resultSameAsFirst,
		"tensor.mul_scalar": resultSameAsFirst,
		"tensor.div":        resultSameAsFirst,
		"tensor.div_scalar": resultSameAsFirst,
		"tensor.maximum":    resultSameAsFirst,
		"tensor.row_max":    resultRowReduce,
		"tensor.row_sum":    resultRowReduce,
		"tensor.exp":        resultSameAsFirst,
		"tensor.cast":       resultCast,
		"tensor.assemble":   resultSameAsFirst,
		"tensor.reshape":    resultReshapeTensor,
		"tensor.transpose":  resultTransposeTensor,
	}
	for name, result := range tensorOps {
		r.Register(name, TensorOp, result)
	}
	blockOps := map[string]ResultFunc{
		"block.load":      resultLoad,
		"block.store":     resultStore,
		"block.move":      resultSameAsFirst,
		"block.add":       resultSameAsFirst,
		"block.adds":      resultSameAsFirst,
		"block.sub":       resultSameAsFirst,
		"block.subs":      resultSameAsFirst,
		"block.mul":       resultSameAsFirst,
		"block.muls":      resultSameAsFirst,
		"block.div":       resultSameAsFirst,
		"block.divs":      resultSameAsFirst,
		"block.maximum":   resultSameAsFirst,
		"block.row_max":   resultRowReduce,
		"block.row_sum":   resultRowReduce,
		"block.exp":       resultSameAsFirst,
		"block.cast":      resultCast,
		"block.reshape":   resultReshapeTile,
		"block.transpose": resultTransposeTile,
		"block.matmul":    resultMatmulTile,
	}
	for name, result := range blockOps {
		r.Register(name, BlockOp, result)
	}
}

func argAt(args []ir.Expr, i int, span ir.Span) (ir.Expr, error) {
	if i >= len(args) {
		return nil, fmterr.Errorf(fmterr.InvalidArgument, span, "missing argument %d: got %d argument(s)", i, len(args))
	}
	return args[i], nil
}

func tupleArg(args []ir.Expr, i int, span ir.Span) ([]ir.Expr, error) {
	arg, err := argAt(args, i, span)
	if err != nil {
		return nil, err
	}
	tuple, ok := arg.(*ir.MakeTuple)
	if !ok {
		return nil, fmterr.Errorf(fmterr.TypeMismatch, span, "argument %d: expected a tuple expression, got %T", i, arg)
	}
	return tuple.Elems, nil
}

func kindAttr(attrs []ir.Attr, name string, span ir.Span) (irkind.Kind, error) {
	for _, attr := range attrs {
		if attr.Name != name {
			continue
		}
		knd, ok := attr.Value.(irkind.Kind)
		if !ok {
			return irkind.Invalid, fmterr.Errorf(fmterr.InvalidArgument, span, "attribute %s: expected a kind, got %T", name, attr.Value)
		}
		return knd, nil
	}
	return irkind.Invalid, fmterr.Errorf(fmterr.InvalidArgument, span, "missing attribute %s", name)
}

func resultSameAsFirst(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	arg, err := argAt(args, 0, span)
	if err != nil {
		return nil, err
	}
	return arg.Type(), nil
}

func resultCreate(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	shape, err := tupleArg(args, 0, span)
	if err != nil {
		return nil, err
	}
	knd, err := kindAttr(attrs, "dtype", span)
	if err != nil {
		return nil, err
	}
	return ir.TensorOf(knd, shape), nil
}

func resultRead(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	arg, err := argAt(args, 0, span)
	if err != nil {
		return nil, err
	}
	knd := ir.DTypeOf(arg.Type())
	if knd == irkind.Invalid {
		return nil, fmterr.Errorf(fmterr.TypeMismatch, span, "cannot read from a value of type %s", arg.Type())
	}
	return ir.Scalar(knd), nil
}

func resultDim(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	if _, err := argAt(args, 1, span); err != nil {
		return nil, err
	}
	return ir.Scalar(irkind.Int64), nil
}

func resultViewTensor(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	arg, err := argAt(args, 0, span)
	if err != nil {
		return nil, err
	}
	shape, err := tupleArg(args, 1, span)
	if err != nil {
		return nil, err
	}
	return ir.TensorOf(ir.DTypeOf(arg.Type()), shape), nil
}

func resultReshapeTensor(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	return resultViewTensor(args, attrs, span)
}

func resultReshapeTile(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	arg, err := argAt(args, 0, span)
	if err != nil {
		return nil, err
	}
	shape, err := tupleArg(args, 1, span)
	if err != nil {
		return nil, err
	}
	return ir.TileOf(ir.DTypeOf(arg.Type()), shape), nil
}

func transposedShape(args []ir.Expr, span ir.Span) ([]ir.Expr, irkind.Kind, error) {
	arg, err := argAt(args, 0, span)
	if err != nil {
		return nil, irkind.Invalid, err
	}
	shape := ir.ShapeOf(arg.Type())
	if shape == nil {
		return nil, irkind.Invalid, fmterr.Errorf(fmterr.TypeMismatch, span, "cannot transpose a value of type %s", arg.Type())
	}
	axis1, err := axisArg(args, 1, len(shape), span)
	if err != nil {
		return nil, irkind.Invalid, err
	}
	axis2, err := axisArg(args, 2, len(shape), span)
	if err != nil {
		return nil, irkind.Invalid, err
	}
	out := slices.Clone(shape)
	out[axis1], out[axis2] = out[axis2], out[axis1]
	return out, ir.DTypeOf(arg.Type()), nil
}

func axisArg(args []ir.Expr, i, rank int, span ir.Span) (int, error) {
	arg, err := argAt(args, i, span)
	if err != nil {
		return 0, err
	}
	c, ok := arg.(*ir.ConstInt)
	if !ok {
		return 0, fmterr.Errorf(fmterr.InvalidArgument, span, "argument %d: expected a constant axis, got %s", i, arg)
	}
	axis := int(c.Val)
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, fmterr.Errorf(fmterr.InvalidArgument, span, "axis %d out of range for rank %d", c.Val, rank)
	}
	return axis, nil
}

func resultTransposeTensor(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	shape, knd, err := transposedShape(args, span)
	if err != nil {
		return nil, err
	}
	return ir.TensorOf(knd, shape), nil
}

func resultTransposeTile(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	shape, knd, err := transposedShape(args, span)
	if err != nil {
		return nil, err
	}
	return ir.TileOf(knd, shape), nil
}

func resultRowReduce(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	arg, err := argAt(args, 0, span)
	if err != nil {
		return nil, err
	}
	shape := ir.ShapeOf(arg.Type())
	if len(shape) == 0 {
		return nil, fmterr.Errorf(fmterr.TypeMismatch, span, "cannot row-reduce a value of type %s", arg.Type())
	}
	out := slices.Clone(shape)
	out[len(out)-1] = ir.NewConstInt(1, irkind.Index, span)
	knd := ir.DTypeOf(arg.Type())
	if _, isTile := arg.Type().(*ir.TileType); isTile {
		return ir.TileOf(knd, out), nil
	}
	return ir.TensorOf(knd, out), nil
}

func resultCast(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	arg, err := argAt(args, 0, span)
	if err != nil {
		return nil, err
	}
	knd, err := kindAttr(attrs, "target_type", span)
	if err != nil {
		return nil, err
	}
	switch typ := arg.Type().(type) {
	case *ir.TensorType:
		return ir.TensorOf(knd, typ.Shape), nil
	case *ir.TileType:
		return ir.TileOf(knd, typ.Shape), nil
	case *ir.ScalarType:
		return ir.Scalar(knd), nil
	}
	return nil, fmterr.Errorf(fmterr.TypeMismatch, span, "cannot cast a value of type %s", arg.Type())
}

func matmulShape(args []ir.Expr, span ir.Span) ([]ir.Expr, irkind.Kind, error) {
	lhs, err := argAt(args, 0, span)
	if err != nil {
		return nil, irkind.Invalid, err
	}
	rhs, err := argAt(args, 1, span)
	if err != nil {
		return nil, irkind.Invalid, err
	}
	lhsShape, rhsShape := ir.ShapeOf(lhs.Type()), ir.ShapeOf(rhs.Type())
	if len(lhsShape) != 2 || len(rhsShape) != 2 {
		return nil, irkind.Invalid, fmterr.Errorf(fmterr.TypeMismatch, span, "matmul requires rank-2 operands, got %s and %s", lhs.Type(), rhs.Type())
	}
	return []ir.Expr{lhsShape[0], rhsShape[1]}, ir.DTypeOf(lhs.Type()), nil
}

func matmulKind(attrs []ir.Attr, dflt irkind.Kind, span ir.Span) (irkind.Kind, error) {
	for _, attr := range attrs {
		if attr.Name == "out_dtype" {
			return kindAttr(attrs, "out_dtype", span)
		}
	}
	return dflt, nil
}

func resultMatmulTensor(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	shape, knd, err := matmulShape(args, span)
	if err != nil {
		return nil, err
	}
	knd, err = matmulKind(attrs, knd, span)
	if err != nil {
		return nil, err
	}
	return ir.TensorOf(knd, shape), nil
}

func resultMatmulTile(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	shape, knd, err := matmulShape(args, span)
	if err != nil {
		return nil, err
	}
	knd, err = matmulKind(attrs, knd, span)
	if err != nil {
		return nil, err
	}
	return ir.TileOf(knd, shape), nil
}

func resultLoad(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	arg, err := argAt(args, 0, span)
	if err != nil {
		return nil, err
	}
	shape, err := tupleArg(args, 2, span)
	if err != nil {
		return nil, err
	}
	if _, ok := arg.Type().(*ir.TensorType); !ok {
		return nil, fmterr.Errorf(fmterr.TypeMismatch, span, "block.load requires a tensor source, got %s", arg.Type())
	}
	return ir.TileOf(ir.DTypeOf(arg.Type()), shape), nil
}

func resultStore(args []ir.Expr, attrs []ir.Attr, span ir.Span) (ir.Type, error) {
	out, err := argAt(args, 3, span)
	if err != nil {
		return nil, err
	}
	if _, ok := out.Type().(*ir.TensorType); !ok {
		return nil, fmterr.Errorf(fmterr.TypeMismatch, span, "block.store requires a tensor destination, got %s", out.Type())
	}
	return out.Type(), nil
}
