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
	"github.com/pto-org/pto/build/fmterr"
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/irkind"
)

// spanOf returns the first explicitly supplied span, or a span
// captured from the builder's caller.
func spanOf(spans []ir.Span) ir.Span {
	if len(spans) > 0 {
		return spans[0]
	}
	return ir.CaptureSpan(2)
}

// toMakeTuple normalizes a shape, offset or index list into a tuple
// expression. Accepted forms: an already-built *ir.MakeTuple, a list
// of expressions, or a list of raw integers.
func toMakeTuple(v any, span ir.Span) (*ir.MakeTuple, error) {
	switch vT := v.(type) {
	case *ir.MakeTuple:
		return vT, nil
	case []ir.Expr:
		return ir.NewMakeTuple(vT, span), nil
	case []int:
		elems := make([]ir.Expr, len(vT))
		for i, dim := range vT {
			elems[i] = ir.NewConstInt(int64(dim), irkind.Index, span)
		}
		return ir.NewMakeTuple(elems, span), nil
	case []int64:
		elems := make([]ir.Expr, len(vT))
		for i, dim := range vT {
			elems[i] = ir.NewConstInt(dim, irkind.Index, span)
		}
		return ir.NewMakeTuple(elems, span), nil
	}
	return nil, fmterr.Errorf(fmterr.InvalidArgument, span, "expected a tuple, a list of expressions or a list of ints, got %T", v)
}

// normalizeScalar turns a raw numeric literal into a typed constant
// expression. Expressions pass through unchanged. knd is the kind
// given to raw literals.
func normalizeScalar(v any, knd irkind.Kind, span ir.Span) (ir.Expr, error) {
	switch vT := v.(type) {
	case ir.Expr:
		return vT, nil
	case int:
		return constOfKind(float64(vT), int64(vT), knd, span), nil
	case int64:
		return constOfKind(float64(vT), vT, knd, span), nil
	case float64:
		return ir.NewConstFloat(vT, knd, span), nil
	case float32:
		return ir.NewConstFloat(float64(vT), knd, span), nil
	}
	return nil, fmterr.Errorf(fmterr.InvalidArgument, span, "expected a numeric literal or an expression, got %T", v)
}

func constOfKind(fval float64, ival int64, knd irkind.Kind, span ir.Span) ir.Expr {
	if irkind.IsFloatKind(knd) {
		return ir.NewConstFloat(fval, knd, span)
	}
	return ir.NewConstInt(ival, knd, span)
}

func errInvalidCastMode(mode string, span ir.Span) error {
	return fmterr.Errorf(fmterr.InvalidArgument, span, "invalid rounding mode %q, expected one of none, rint, round, floor, ceil, trunc, odd", mode)
}

// isScalar reports whether an expression resolves to a scalar type.
// The binary elementwise builders dispatch on it to select the
// _scalar variant of an operation.
func isScalar(x ir.Expr) bool {
	_, ok := x.Type().(*ir.ScalarType)
	return ok
}
