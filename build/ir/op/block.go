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

// MemorySpace identifies a physical memory a tile lives in.
type MemorySpace int

const (
	// DDR is the off-chip global memory.
	DDR MemorySpace = iota
	// UB is the unified on-chip buffer for vector compute.
	UB
	// L0A is the left operand buffer of the matrix unit.
	L0A
	// L0B is the right operand buffer of the matrix unit.
	L0B
	// L0C is the accumulator buffer of the matrix unit.
	L0C
)

// String returns the name of the memory space.
func (m MemorySpace) String() string {
	switch m {
	case DDR:
		return "DDR"
	case UB:
		return "UB"
	case L0A:
		return "L0A"
	case L0B:
		return "L0B"
	case L0C:
		return "L0C"
	}
	return "invalid"
}

// BlockLoad builds a call reading a tensor region into an on-chip
// tile. offset and shape are tuples with one element per tensor
// dimension; target names the memory space the tile is loaded into.
func BlockLoad(tensor ir.Expr, offset, shape any, target MemorySpace, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	offsetTuple, err := toMakeTuple(offset, span)
	if err != nil {
		return nil, err
	}
	shapeTuple, err := toMakeTuple(shape, span)
	if err != nil {
		return nil, err
	}
	args := []ir.Expr{tensor, offsetTuple, shapeTuple}
	attrs := []ir.Attr{{Name: "target_memory", Value: target}}
	return Default.Create("block.load", args, attrs, span)
}

// BlockStore builds a call writing a tile back into a tensor region.
// The destination tensor is the fourth argument of the call.
func BlockStore(tile ir.Expr, offset, shape any, out ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	offsetTuple, err := toMakeTuple(offset, span)
	if err != nil {
		return nil, err
	}
	shapeTuple, err := toMakeTuple(shape, span)
	if err != nil {
		return nil, err
	}
	args := []ir.Expr{tile, offsetTuple, shapeTuple, out}
	return Default.Create("block.store", args, nil, span)
}

// BlockMove builds a call relocating a tile into another memory
// space.
func BlockMove(tile ir.Expr, target MemorySpace, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	attrs := []ir.Attr{{Name: "target_memory", Value: target}}
	return Default.Create("block.move", []ir.Expr{tile}, attrs, span)
}

// BlockAdd builds an elementwise addition call over two tiles.
func BlockAdd(lhs, rhs ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	return Default.Create("block.add", []ir.Expr{lhs, rhs}, nil, spanOf(spans))
}

// BlockAdds builds a tile plus scalar addition call.
func BlockAdds(lhs ir.Expr, rhs any, spans ...ir.Span) (*ir.Call, error) {
	return elementwiseScalar("block.adds", lhs, rhs, spanOf(spans))
}

// BlockSub builds an elementwise subtraction call over two tiles.
func BlockSub(lhs, rhs ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	return Default.Create("block.sub", []ir.Expr{lhs, rhs}, nil, spanOf(spans))
}

// BlockSubs builds a tile minus scalar subtraction call.
func BlockSubs(lhs ir.Expr, rhs any, spans ...ir.Span) (*ir.Call, error) {
	return elementwiseScalar("block.subs", lhs, rhs, spanOf(spans))
}

// BlockMul builds an elementwise multiplication call over two tiles.
func BlockMul(lhs, rhs ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	return Default.Create("block.mul", []ir.Expr{lhs, rhs}, nil, spanOf(spans))
}

// BlockMuls builds a tile times scalar multiplication call.
func BlockMuls(lhs ir.Expr, rhs any, spans ...ir.Span) (*ir.Call, error) {
	return elementwiseScalar("block.muls", lhs, rhs, spanOf(spans))
}

// BlockDiv builds an elementwise division call over two tiles.
func BlockDiv(lhs, rhs ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	return Default.Create("block.div", []ir.Expr{lhs, rhs}, nil, spanOf(spans))
}

// BlockDivs builds a tile over scalar division call.
func BlockDivs(lhs ir.Expr, rhs any, spans ...ir.Span) (*ir.Call, error) {
	return elementwiseScalar("block.divs", lhs, rhs, spanOf(spans))
}

// BlockMaximum builds an elementwise maximum call over two tiles.
func BlockMaximum(lhs, rhs ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	return Default.Create("block.maximum", []ir.Expr{lhs, rhs}, nil, spanOf(spans))
}

// BlockRowMax builds a row-wise max reduction call over a tile.
func BlockRowMax(input ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	return Default.Create("block.row_max", []ir.Expr{input}, nil, spanOf(spans))
}

// BlockRowSum builds a row-wise sum reduction call over a tile.
func BlockRowSum(input ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	return Default.Create("block.row_sum", []ir.Expr{input}, nil, spanOf(spans))
}

// BlockExp builds an elementwise exponential call over a tile.
func BlockExp(input ir.Expr, spans ...ir.Span) (*ir.Call, error) {
	return Default.Create("block.exp", []ir.Expr{input}, nil, spanOf(spans))
}

// BlockCast builds a type casting call over a tile.
func BlockCast(input ir.Expr, target irkind.Kind, mode string, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	modeVal, ok := castModes[mode]
	if !ok {
		return nil, errInvalidCastMode(mode, span)
	}
	attrs := []ir.Attr{
		{Name: "target_type", Value: target},
		{Name: "mode", Value: modeVal},
	}
	return Default.Create("block.cast", []ir.Expr{input}, attrs, span)
}

// BlockReshape builds a call reshaping a tile to a new shape.
func BlockReshape(tile ir.Expr, shape any, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	shapeTuple, err := toMakeTuple(shape, span)
	if err != nil {
		return nil, err
	}
	return Default.Create("block.reshape", []ir.Expr{tile, shapeTuple}, nil, span)
}

// BlockTranspose builds a call swapping two axes of a tile.
func BlockTranspose(tile ir.Expr, axis1, axis2 int, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	args := []ir.Expr{
		tile,
		ir.NewConstInt(int64(axis1), irkind.Index, span),
		ir.NewConstInt(int64(axis2), irkind.Index, span),
	}
	return Default.Create("block.transpose", args, nil, span)
}

// BlockMatmul builds a matrix multiplication call over tiles staged
// in the matrix-unit buffers.
func BlockMatmul(lhs, rhs ir.Expr, opts MatmulOptions, spans ...ir.Span) (*ir.Call, error) {
	span := spanOf(spans)
	attrs := []ir.Attr{
		{Name: "a_trans", Value: opts.ATrans},
		{Name: "b_trans", Value: opts.BTrans},
		{Name: "c_matrix_nz", Value: opts.CMatrixNZ},
	}
	if opts.OutDType != irkind.Invalid {
		attrs = append(attrs, ir.Attr{Name: "out_dtype", Value: opts.OutDType})
	}
	return Default.Create("block.matmul", []ir.Expr{lhs, rhs}, attrs, span)
}
