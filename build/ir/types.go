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

package ir

import (
	"fmt"
	"strings"

	"github.com/pto-org/pto/build/ir/irkind"
)

type (
	// ScalarType is the type of a single value.
	ScalarType struct {
		Knd irkind.Kind
	}

	// TensorType is the type of a logical tensor in global memory.
	// Each dimension of the shape is a ConstInt for a concrete extent,
	// nil for an unknown (dynamic) extent, or a symbolic expression.
	// The dimensionality of the shape is fixed once created.
	TensorType struct {
		Knd   irkind.Kind
		Shape []Expr
	}

	// TileType is the on-chip, block-level counterpart of a tensor
	// region, produced by a load and consumed by a store.
	TileType struct {
		Knd   irkind.Kind
		Shape []Expr
	}

	// TupleType is the type of the result of a function that returns
	// more than one value, and of MakeTuple expressions.
	TupleType struct {
		Types []Type
	}

	// VoidType is a type for representing an absence of value.
	VoidType struct{}

	// UnknownType is a temporary unknown type.
	UnknownType struct{}
)

var (
	_ Type = (*ScalarType)(nil)
	_ Type = (*TensorType)(nil)
	_ Type = (*TileType)(nil)
	_ Type = (*TupleType)(nil)
	_ Type = (*VoidType)(nil)
	_ Type = (*UnknownType)(nil)
)

// Scalar returns the scalar type of a kind.
func Scalar(knd irkind.Kind) *ScalarType {
	return &ScalarType{Knd: knd}
}

func (*ScalarType) node() {}

// Kind of the scalar element.
func (t *ScalarType) Kind() irkind.Kind { return t.Knd }

// String representation of the type.
func (t *ScalarType) String() string { return t.Knd.String() }

// Tensor returns a tensor type given an element kind and concrete
// dimension extents.
func Tensor(knd irkind.Kind, dims ...int) *TensorType {
	return &TensorType{Knd: knd, Shape: shapeExprs(dims)}
}

// TensorOf returns a tensor type given an element kind and dimension
// expressions.
func TensorOf(knd irkind.Kind, shape []Expr) *TensorType {
	return &TensorType{Knd: knd, Shape: shape}
}

func (*TensorType) node() {}

// Kind identifying tensor types.
func (t *TensorType) Kind() irkind.Kind { return irkind.Tensor }

// DType returns the kind of the tensor elements.
func (t *TensorType) DType() irkind.Kind { return t.Knd }

// String representation of the type.
func (t *TensorType) String() string {
	return fmt.Sprintf("Tensor[[%s], %s]", shapeString(t.Shape), t.Knd)
}

// Tile returns a tile type given an element kind and concrete
// dimension extents.
func Tile(knd irkind.Kind, dims ...int) *TileType {
	return &TileType{Knd: knd, Shape: shapeExprs(dims)}
}

// TileOf returns a tile type given an element kind and dimension
// expressions.
func TileOf(knd irkind.Kind, shape []Expr) *TileType {
	return &TileType{Knd: knd, Shape: shape}
}

func (*TileType) node() {}

// Kind identifying tile types.
func (t *TileType) Kind() irkind.Kind { return irkind.Tile }

// DType returns the kind of the tile elements.
func (t *TileType) DType() irkind.Kind { return t.Knd }

// String representation of the type.
func (t *TileType) String() string {
	return fmt.Sprintf("Tile[[%s], %s]", shapeString(t.Shape), t.Knd)
}

// Tuple returns the type of a tuple of values.
func Tuple(types ...Type) *TupleType {
	return &TupleType{Types: types}
}

func (*TupleType) node() {}

// Kind identifying tuple types.
func (t *TupleType) Kind() irkind.Kind { return irkind.Tuple }

// String representation of the type.
func (t *TupleType) String() string {
	ss := make([]string, len(t.Types))
	for i, typ := range t.Types {
		ss[i] = typ.String()
	}
	return "(" + strings.Join(ss, ", ") + ")"
}

func (*VoidType) node() {}

// Kind identifying the void type.
func (*VoidType) Kind() irkind.Kind { return irkind.Void }

// String representation of the type.
func (*VoidType) String() string { return "void" }

func (*UnknownType) node() {}

// Kind identifying the unknown type.
func (*UnknownType) Kind() irkind.Kind { return irkind.Unknown }

// String representation of the type.
func (*UnknownType) String() string { return "unknown" }

func shapeExprs(dims []int) []Expr {
	shape := make([]Expr, len(dims))
	for i, dim := range dims {
		shape[i] = NewConstInt(int64(dim), irkind.Index, UnknownSpan())
	}
	return shape
}

func shapeString(shape []Expr) string {
	ss := make([]string, len(shape))
	for i, dim := range shape {
		if dim == nil {
			ss[i] = "?"
			continue
		}
		ss[i] = dim.String()
	}
	return strings.Join(ss, ", ")
}

// ShapeOf returns the shape of a tensor or tile type, or nil for any
// other type.
func ShapeOf(typ Type) []Expr {
	switch typT := typ.(type) {
	case *TensorType:
		return typT.Shape
	case *TileType:
		return typT.Shape
	}
	return nil
}

// DTypeOf returns the element kind of a scalar, tensor or tile type,
// or irkind.Invalid for any other type.
func DTypeOf(typ Type) irkind.Kind {
	switch typT := typ.(type) {
	case *ScalarType:
		return typT.Knd
	case *TensorType:
		return typT.Knd
	case *TileType:
		return typT.Knd
	}
	return irkind.Invalid
}
