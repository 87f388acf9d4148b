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

// Package irkind defines kinds for the PTO intermediate representation (IR).
package irkind

import "github.com/gx-org/backend/dtype"

// Kind of a type.
type Kind uint

// DefaultInt is the default kind for integer.
const DefaultInt = Int64

// DefaultFloat is the default kind for scalar floating point values.
const DefaultFloat = Float32

// Kind of data supported by PTO.
const (
	Invalid = Kind(dtype.Invalid)

	Bool     = Kind(dtype.Bool)
	Int32    = Kind(dtype.Int32)
	Int64    = Kind(dtype.Int64)
	Uint32   = Kind(dtype.Uint32)
	Uint64   = Kind(dtype.Uint64)
	Bfloat16 = Kind(dtype.Bfloat16)
	Float32  = Kind(dtype.Float32)
	Float64  = Kind(dtype.Float64)

	// Index is the kind used for axis indices and loop bounds.
	Index = Kind(iota + dtype.MaxDataType)

	// Unknown is a proxy kind used while a type is being inferred.
	Unknown
	// Void is the kind of expressions returning nothing.
	Void

	String
	Tensor
	Tile
	Tuple

	// Max value for a Kind constant.
	Max
)

// String returns a string representation of a kind.
func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Bfloat16:
		return "bfloat16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Index:
		return "index"
	case Unknown:
		return "unknown"
	case Void:
		return "void"
	case String:
		return "string"
	case Tensor:
		return "tensor"
	case Tile:
		return "tile"
	case Tuple:
		return "tuple"
	}
	return "invalid"
}

// DType converts a PTO kind into an array data type.
func (k Kind) DType() dtype.DataType {
	if k == Index {
		return DefaultInt.DType()
	}
	if k >= Kind(dtype.MaxDataType) {
		return dtype.Invalid
	}
	return dtype.DataType(k)
}

// IsIntegerKind returns true if the kind is an integer kind.
func IsIntegerKind(k Kind) bool {
	switch k {
	case Int32, Int64, Uint32, Uint64, Index:
		return true
	}
	return false
}

// IsFloatKind returns true if the kind is a floating point kind.
func IsFloatKind(k Kind) bool {
	switch k {
	case Bfloat16, Float32, Float64:
		return true
	}
	return false
}

// IsDataKind returns true if the kind can be the element type of a
// tensor or a tile.
func IsDataKind(k Kind) bool {
	return k != Invalid && k < Kind(dtype.MaxDataType)
}

// KindFromString returns a kind given an identifier.
// Only works for element kinds: composite kinds (tensor, tile, tuple)
// take parameters and have no single identifier.
func KindFromString(ident string) Kind {
	switch ident {
	case "bool":
		return Bool
	case "int32":
		return Int32
	case "int64":
		return Int64
	case "uint32":
		return Uint32
	case "uint64":
		return Uint64
	case "bfloat16":
		return Bfloat16
	case "float32":
		return Float32
	case "float64":
		return Float64
	case "index":
		return Index
	case "string":
		return String
	}
	return Invalid
}
