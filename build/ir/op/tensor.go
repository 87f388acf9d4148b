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

package op

import (
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/irkind"
)

// Raw numeric literals passed to the elementwise builders are typed
// with this kind.
const scalarLiteralKind = irkind.Float32

// Create builds a call allocating a new tensor with the given shape
// and element kind. shape is a *ir.MakeTuple, a []ir.Expr or a []int.
func Create(shape any, dtype irkind.Kind, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	shapeTuple, err := toMakeTuple(shape, span)
	if err != nil {
		return nil, err
	}
	return Default.Create("tensor.create", []ir.Expr{shapeTuple}, []ir.Attr{{Name: "dtype", Value: dtype}}, span)
}

// Read builds a call reading a scalar value from a tensor at the
// given indices, one per tensor dimension.
func Read(tensor ir.Expr, indices any, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	indicesTuple, err := toMakeTuple(indices, span)
	if err != nil {
		return nil, err
	}
	return Default.Create("tensor.read", []ir.Expr{tensor, indicesTuple}, nil, span)
}

// Dim builds a call extracting a shape dimension of a tensor as a
// scalar value. A negative axis indexes from the last dimension.
func Dim(tensor ir.Expr, axis any, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	axisExpr, err := normalizeScalar(axis, irkind.Index, span)
	if err != nil {
		return nil, err
	}
	return Default.Create("tensor.dim", []ir.Expr{tensor, axisExpr}, nil, span)
}

// View builds a call slicing a tensor into a new shape at an offset.
func View(tensor ir.Expr, shape, offset any, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	shapeTuple, err := toMakeTuple(shape, span)
	if err != nil {
		return nil, err
	}
	offsetTuple, err := toMakeTuple(offset, span)
	if err != nil {
		return nil, err
	}
	return Default.Create("tensor.view", []ir.Expr{tensor, shapeTuple, offsetTuple}, nil, span)
}

// MatmulOptions configures a matrix multiplication call.
type MatmulOptions struct {
	// OutDType overrides the result element kind.
	OutDType irkind.Kind
	// ATrans transposes the left operand.
	ATrans bool
	// BTrans transposes the right operand.
	BTrans bool
	// CMatrixNZ marks the result matrix as stored in NZ layout.
	CMatrixNZ bool
}

// Matmul builds a matrix multiplication call. A zero options value
// selects the defaults: no transpose, result kind inferred from the
// left operand.
func Matmul(lhs, rhs ir.Expr, opts MatmulOptions, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	attrs := []ir.Attr{
		{Name: "a_trans", Value: opts.ATrans},
		{Name: "b_trans", Value: opts.BTrans},
		{Name: "c_matrix_nz", Value: opts.CMatrixNZ},
	}
	if opts.OutDType != irkind.Invalid {
		attrs = append(attrs, ir.Attr{Name: "out_dtype", Value: opts.OutDType})
	}
	return Default.Create("tensor.matmul", []ir.Expr{lhs, rhs}, attrs, span)
}

func elementwise(name string, lhs ir.Expr, rhs any, span ir.Span) (*ir.Call, error) {
	rhsExpr, err := normalizeScalar(rhs, scalarLiteralKind, span)
	if err != nil {
		return nil, err
	}
	if isScalar(rhsExpr) {
		name += "_scalar"
	}
	return Default.Create(name, []ir.Expr{lhs, rhsExpr}, nil, span)
}

func elementwiseScalar(name string, lhs ir.Expr, rhs any, span ir.Span) (*ir.Call, error) {
	rhsExpr, err := normalizeScalar(rhs, scalarLiteralKind, span)
	if err != nil {
		return nil, err
	}
	return Default.Create(name, []ir.Expr{lhs, rhsExpr}, nil, span)
}

// Add builds an elementwise addition call. The right operand may be a
// tensor expression, a scalar expression or a raw numeric literal;
// a scalar-typed right operand selects tensor.add_scalar.
func Add(lhs ir.Expr, rhs any, spans ...ir.Span) (*ir.Call, error) {
	return elementwise("tensor.add", lhs, rhs, spanOf(spans))
}

// AddScalar builds a tensor plus scalar addition call.
func AddScalar(lhs ir.Expr, rhs any, spans ...ir.Span) (*ir.Call, error) {
	return elementwiseScalar("tensor.add_scalar", lhs, rhs, spanOf(spans))
}

// Sub builds an elementwise subtraction call, dispatching on the
// right operand type like Add.
func Sub(lhs ir.Expr, rhs any, spans ...ir.Span) (*ir.Call, error) {
	return elementwise("tensor.sub", lhs, rhs, spanOf(spans))
}

// SubScalar builds a tensor minus scalar subtraction call.
func SubScalar(lhs ir.Expr, rhs any, spans ...ir.Span) (*ir.Call, error) {
	return elementwiseScalar("tensor.sub_scalar", lhs, rhs, spanOf(spans))
}

// Mul builds an elementwise multiplication call, dispatching on the
// right operand type like Add.
func Mul(lhs ir.Expr, rhs any, spans ...ir.Span) (*ir.Call, error) {
	return elementwise("tensor.mul", lhs, rhs, spanOf(spans))
}

// MulScalar builds a tensor times scalar multiplication call.
func MulScalar(lhs ir.Expr, rhs any, spans ...ir.Span) (*ir.Call, error) {
	return elementwiseScalar("tensor.mul_scalar", lhs, rhs, spanOf(spans))
}

// Div builds an elementwise division call, dispatching on the right
// operand type like Add.
func Div(lhs ir.Expr, rhs any, spans ...ir.Span) (*ir.Call, error) {
	return elementwise("tensor.div", lhs, rhs, spanOf(spans))
}

// DivScalar builds a tensor over scalar division call.
func DivScalar(lhs ir.Expr, rhs any, spans ...ir.Span) (*ir.Call, error) {
	return elementwiseScalar("tensor.div_scalar", lhs, rhs, spanOf(spans))
}

// Maximum builds an elementwise maximum call over two tensors.
func Maximum(lhs, rhs ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	return Default.Create("tensor.maximum", []ir.Expr{lhs, rhs}, nil, spanOf(spans))
}

// RowMax builds a row-wise max reduction call. The reduction runs
// along the last axis and keeps the dimension.
func RowMax(input ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	return Default.Create("tensor.row_max", []ir.Expr{input}, nil, spanOf(spans))
}

// RowSum builds a row-wise sum reduction call. The reduction runs
// along the last axis and keeps the dimension.
func RowSum(input ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	return Default.Create("tensor.row_sum", []ir.Expr{input}, nil, spanOf(spans))
}

// Exp builds an elementwise exponential call.
func Exp(input ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	return Default.Create("tensor.exp", []ir.Expr{input}, nil, spanOf(spans))
}

var castModes = map[string]int{
	"none":  0,
	"rint":  1,
	"round": 2,
	"floor": 3,
	"ceil":  4,
	"trunc": 5,
	"odd":   6,
}

// Cast builds a type casting call. mode names the rounding mode, one
// of none, rint, round, floor, ceil, trunc or odd.
func Cast(input ir.Expr, target irkind.Kind, mode string, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	modeVal, ok := castModes[mode]
	if !ok {
		return nil, errInvalidCastMode(mode, span)
	}
	attrs := []ir.Attr{
		{Name: "target_type", Value: target},
		{Name: "mode", Value: modeVal},
	}
	return Default.Create("tensor.cast", []ir.Expr{input}, attrs, span)
}

// Assemble builds a call writing the source tensor into the target
// tensor at an offset.
func Assemble(target, source ir.Expr, offset any, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	offsetTuple, err := toMakeTuple(offset, span)
	if err != nil {
		return nil, err
	}
	return Default.Create("tensor.assemble", []ir.Expr{target, source, offsetTuple}, nil, span)
}

// Reshape builds a call reshaping a tensor to a new shape.
func Reshape(tensor ir.Expr, shape any, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	shapeTuple, err := toMakeTuple(shape, span)
	if err != nil {
		return nil, err
	}
	return Default.Create("tensor.reshape", []ir.Expr{tensor, shapeTuple}, nil, span)
}

// Transpose builds a call swapping two axes of a tensor. Negative
// axes index from the last dimension.
func Transpose(tensor ir.Expr, axis1, axis2 int, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	args := []ir.Expr{
		tensor,
		ir.NewConstInt(int64(axis1), irkind.Index, span),
		ir.NewConstInt(int64(axis2), irkind.Index, span),
	}
	return Default.Create("tensor.transpose", args, nil, span)
}
