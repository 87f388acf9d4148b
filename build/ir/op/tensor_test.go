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

package op_test

import (
	"testing"

	"github.com/pto-org/pto/build/fmterr"
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/irhelper"
	"github.com/pto-org/pto/build/ir/irkind"
	"github.com/pto-org/pto/build/ir/op"
)

func opName(call *ir.Call) string {
	return call.Callee.CalleeName()
}

func TestElementwiseDispatch(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64)
	y := irhelper.TensorVar("y", irkind.Float32, 64)

	call, err := op.Add(x, y)
	if err != nil {
		t.Fatalf("Add(x, y): %v", err)
	}
	if got, want := opName(call), "tensor.add"; got != want {
		t.Errorf("tensor rhs dispatches to %s, want %s", got, want)
	}

	call, err = op.Add(x, 1.5)
	if err != nil {
		t.Fatalf("Add(x, 1.5): %v", err)
	}
	if got, want := opName(call), "tensor.add_scalar"; got != want {
		t.Errorf("literal rhs dispatches to %s, want %s", got, want)
	}
	c, ok := call.Args[1].(*ir.ConstFloat)
	if !ok {
		t.Fatalf("literal rhs is %T, want *ir.ConstFloat", call.Args[1])
	}
	if c.Knd != irkind.Float32 {
		t.Errorf("literal rhs has kind %s, want %s", c.Knd, irkind.Float32)
	}

	s := irhelper.Var("s", ir.Scalar(irkind.Float32))
	call, err = op.Mul(x, s)
	if err != nil {
		t.Fatalf("Mul(x, s): %v", err)
	}
	if got, want := opName(call), "tensor.mul_scalar"; got != want {
		t.Errorf("scalar-typed rhs dispatches to %s, want %s", got, want)
	}
}

func TestElementwiseResultType(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64, 64)
	call, err := op.Sub(x, 1)
	if err != nil {
		t.Fatalf("Sub(x, 1): %v", err)
	}
	if !ir.StructuralEqual(call.Type(), x.Typ, false) {
		t.Errorf("result type is %s, want %s", call.Type(), x.Typ)
	}
}

func TestCreateShapeNormalization(t *testing.T) {
	call, err := op.Create([]int{64, 128}, irkind.Float32)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tuple, ok := call.Args[0].(*ir.MakeTuple)
	if !ok {
		t.Fatalf("shape argument is %T, want *ir.MakeTuple", call.Args[0])
	}
	if len(tuple.Elems) != 2 {
		t.Errorf("shape tuple has %d elements, want 2", len(tuple.Elems))
	}
	want := ir.Tensor(irkind.Float32, 64, 128)
	if !ir.StructuralEqual(call.Type(), want, false) {
		t.Errorf("result type is %s, want %s", call.Type(), want)
	}
}

func TestCastMode(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64)
	call, err := op.Cast(x, irkind.Int32, "floor")
	if err != nil {
		t.Fatalf("Cast: %v", err)
	}
	mode, ok := call.Attr("mode")
	if !ok {
		t.Fatalf("cast call has no mode attribute")
	}
	if mode != 3 {
		t.Errorf("floor encodes as %v, want 3", mode)
	}
	want := ir.Tensor(irkind.Int32, 64)
	if !ir.StructuralEqual(call.Type(), want, false) {
		t.Errorf("result type is %s, want %s", call.Type(), want)
	}
}

func TestCastInvalidMode(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64)
	_, err := op.Cast(x, irkind.Int32, "nearest")
	if err == nil {
		t.Fatalf("Cast accepts an invalid rounding mode")
	}
	if got := fmterr.KindOf(err); got != fmterr.InvalidArgument {
		t.Errorf("error kind is %s, want %s", got, fmterr.InvalidArgument)
	}
}

func TestMatmulResultType(t *testing.T) {
	lhs := irhelper.TensorVar("a", irkind.Float32, 64, 32)
	rhs := irhelper.TensorVar("b", irkind.Float32, 32, 16)
	call, err := op.Matmul(lhs, rhs, op.MatmulOptions{})
	if err != nil {
		t.Fatalf("Matmul: %v", err)
	}
	want := ir.Tensor(irkind.Float32, 64, 16)
	if !ir.StructuralEqual(call.Type(), want, false) {
		t.Errorf("result type is %s, want %s", call.Type(), want)
	}

	call, err = op.Matmul(lhs, rhs, op.MatmulOptions{OutDType: irkind.Float64})
	if err != nil {
		t.Fatalf("Matmul with out_dtype: %v", err)
	}
	want = ir.Tensor(irkind.Float64, 64, 16)
	if !ir.StructuralEqual(call.Type(), want, false) {
		t.Errorf("result type with out_dtype is %s, want %s", call.Type(), want)
	}
}

func TestMatmulRankMismatch(t *testing.T) {
	lhs := irhelper.TensorVar("a", irkind.Float32, 64)
	rhs := irhelper.TensorVar("b", irkind.Float32, 64)
	_, err := op.Matmul(lhs, rhs, op.MatmulOptions{})
	if err == nil {
		t.Fatalf("Matmul accepts rank-1 operands")
	}
	if got := fmterr.KindOf(err); got != fmterr.TypeMismatch {
		t.Errorf("error kind is %s, want %s", got, fmterr.TypeMismatch)
	}
}

func TestRowReduceResultType(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64, 64)
	call, err := op.RowMax(x)
	if err != nil {
		t.Fatalf("RowMax: %v", err)
	}
	want := ir.Tensor(irkind.Float32, 64, 1)
	if !ir.StructuralEqual(call.Type(), want, false) {
		t.Errorf("result type is %s, want %s", call.Type(), want)
	}
}

func TestTransposeResultType(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64, 32)
	call, err := op.Transpose(x, 0, 1)
	if err != nil {
		t.Fatalf("Transpose: %v", err)
	}
	want := ir.Tensor(irkind.Float32, 32, 64)
	if !ir.StructuralEqual(call.Type(), want, false) {
		t.Errorf("result type is %s, want %s", call.Type(), want)
	}
	if _, err := op.Transpose(x, 0, 2); err == nil {
		t.Errorf("Transpose accepts an out-of-range axis")
	}
}

func TestBlockLoadResultType(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64, 64)
	call, err := op.BlockLoad(x, []int{0, 0}, []int{64, 64}, op.UB)
	if err != nil {
		t.Fatalf("BlockLoad: %v", err)
	}
	want := ir.Tile(irkind.Float32, 64, 64)
	if !ir.StructuralEqual(call.Type(), want, false) {
		t.Errorf("result type is %s, want %s", call.Type(), want)
	}
	target, ok := call.Attr("target_memory")
	if !ok || target != op.UB {
		t.Errorf("target_memory attribute is %v, want %v", target, op.UB)
	}
}

func TestBlockStoreResultType(t *testing.T) {
	tile := irhelper.TileVar("t", irkind.Float32, 64)
	out := irhelper.TensorVar("out", irkind.Float32, 64)
	call, err := op.BlockStore(tile, []int{0}, []int{64}, out)
	if err != nil {
		t.Fatalf("BlockStore: %v", err)
	}
	if !ir.StructuralEqual(call.Type(), out.Typ, false) {
		t.Errorf("result type is %s, want %s", call.Type(), out.Typ)
	}
}

func TestUnknownOperation(t *testing.T) {
	_, err := op.Default.Create("tensor.unknown", nil, nil, ir.UnknownSpan())
	if err == nil {
		t.Fatalf("creating an unregistered operation succeeds")
	}
	if got := fmterr.KindOf(err); got != fmterr.UnsupportedOperation {
		t.Errorf("error kind is %s, want %s", got, fmterr.UnsupportedOperation)
	}
}
