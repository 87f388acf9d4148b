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

package passes_test

import (
	"testing"

	"github.com/pto-org/pto/build/fmterr"
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/irhelper"
	"github.com/pto-org/pto/build/ir/irkind"
	"github.com/pto-org/pto/build/ir/op"
	"github.com/pto-org/pto/build/passes"
)

func runBlockOps(t *testing.T, program *ir.Program) *ir.Program {
	t.Helper()
	out, err := passes.ConvertTensorToBlockOps(passes.DefaultConversions()).Run(program)
	if err != nil {
		t.Fatalf("ConvertTensorToBlockOps: %v", err)
	}
	return out
}

// Offsets synthesized by the pass are int64 zeros; shapes reuse the
// index-kind extents of the tensor type.
func zeroOffset() []ir.Expr {
	return []ir.Expr{ir.NewConstInt(0, irkind.Int64, span)}
}

func dim64() []ir.Expr {
	return []ir.Expr{ir.NewConstInt(64, irkind.Index, span)}
}

// mustCall returns a function turning the (call, error) pair of an op
// builder into the call, failing the test on error.
func mustCall(t *testing.T) func(*ir.Call, error) *ir.Call {
	return func(call *ir.Call, err error) *ir.Call {
		t.Helper()
		if err != nil {
			t.Fatalf("building call: %v", err)
		}
		return call
	}
}

func TestConvertSimpleAdd(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64)
	y := irhelper.TensorVar("y", irkind.Float32, 64)
	add := mustAdd(t, x, y)

	kernel := irhelper.Func("kernel", ir.InCoreFunc,
		[]*ir.Var{x, y}, []ir.Type{add.Type()},
		irhelper.Assign("c", add),
		irhelper.Return(irhelper.Var("c", add.Type())),
	)
	kernelCall := ir.NewCall(ir.NewGlobalVar("kernel"), []ir.Expr{x, y}, nil, add.Type(), span)
	main := irhelper.Func("main", ir.OrchestrationFunc,
		[]*ir.Var{x, y}, []ir.Type{add.Type()},
		irhelper.Assign("r", kernelCall),
		irhelper.Return(irhelper.Var("r", add.Type())),
	)
	got := runBlockOps(t, irhelper.Program("p", kernel, main))

	xTile := irhelper.TileVar("x_tile", irkind.Float32, 64)
	yTile := irhelper.TileVar("y_tile", irkind.Float32, 64)
	cTile := irhelper.TileVar("c_tile", irkind.Float32, 64)
	out0 := irhelper.TensorVar("out_0", irkind.Float32, 64)
	must := mustCall(t)
	store := must(op.BlockStore(cTile, zeroOffset(), dim64(), out0, span))
	wantKernel := irhelper.Func("kernel", ir.InCoreFunc,
		[]*ir.Var{x, y, out0}, []ir.Type{store.Type()},
		irhelper.Assign("x_tile", must(op.BlockLoad(x, zeroOffset(), dim64(), op.UB, span))),
		irhelper.Assign("y_tile", must(op.BlockLoad(y, zeroOffset(), dim64(), op.UB, span))),
		irhelper.Assign("c_tile", must(op.BlockAdd(xTile, yTile, span))),
		irhelper.Assign("out_0", store),
		irhelper.Return(irhelper.Var("out_0", store.Type())),
	)
	gotKernel, _ := got.Func("kernel")
	if !ir.StructuralEqual(gotKernel, wantKernel, false) {
		t.Errorf("kernel mismatch:\ngot:\n%s\nwant:\n%s", gotKernel, wantKernel)
	}

	create := must(op.Create(dim64(), irkind.Float32, span))
	newCall := ir.NewCall(ir.NewGlobalVar("kernel"), []ir.Expr{x, y, irhelper.Var("out_0", create.Type())}, nil, store.Type(), span)
	wantMain := irhelper.Func("main", ir.OrchestrationFunc,
		[]*ir.Var{x, y}, []ir.Type{add.Type()},
		irhelper.Assign("out_0", create),
		irhelper.Assign("r", newCall),
		irhelper.Return(irhelper.Var("r", store.Type())),
	)
	gotMain, _ := got.Func("main")
	if !ir.StructuralEqual(gotMain, wantMain, false) {
		t.Errorf("call site mismatch:\ngot:\n%s\nwant:\n%s", gotMain, wantMain)
	}
}

func TestConvertScalarOp(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64)
	adds := mustCall(t)(op.AddScalar(x, 2.0, span))
	kernel := irhelper.Func("kernel", ir.InCoreFunc,
		[]*ir.Var{x}, []ir.Type{adds.Type()},
		irhelper.Assign("c", adds),
		irhelper.Return(irhelper.Var("c", adds.Type())),
	)
	got := runBlockOps(t, irhelper.Program("p", kernel))
	gotKernel, _ := got.Func("kernel")

	stmts := gotKernel.BodyStmts()
	compute := stmts[1].(*ir.AssignStmt)
	call, ok := compute.Value.(*ir.Call)
	if !ok {
		t.Fatalf("compute statement value is %T, want *ir.Call", compute.Value)
	}
	if got, want := call.Callee.CalleeName(), "block.adds"; got != want {
		t.Errorf("scalar op converts to %s, want %s", got, want)
	}
	if c, ok := call.Args[1].(*ir.ConstFloat); !ok || c.Val != 2 {
		t.Errorf("scalar operand is %v, want the literal 2.0", call.Args[1])
	}
}

func TestConvertChainedOps(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64)
	must := mustCall(t)
	exp := must(op.Exp(x, span))
	add := must(op.Add(irhelper.TensorVar("c", irkind.Float32, 64), x, span))
	kernel := irhelper.Func("kernel", ir.InCoreFunc,
		[]*ir.Var{x}, []ir.Type{add.Type()},
		irhelper.Assign("c", exp),
		irhelper.Assign("d", add),
		irhelper.Return(irhelper.Var("d", add.Type())),
	)
	got := runBlockOps(t, irhelper.Program("p", kernel))
	gotKernel, _ := got.Func("kernel")

	// The second op consumes the tile produced by the first, not the
	// original tensor binding.
	stmts := gotKernel.BodyStmts()
	second := stmts[2].(*ir.AssignStmt)
	call := second.Value.(*ir.Call)
	if got, want := call.Callee.CalleeName(), "block.add"; got != want {
		t.Errorf("chained op converts to %s, want %s", got, want)
	}
	if v, ok := call.Args[0].(*ir.Var); !ok || v.Name != "c_tile" {
		t.Errorf("chained op consumes %v, want c_tile", call.Args[0])
	}
}

func TestConvertMatmulStaging(t *testing.T) {
	a := irhelper.TensorVar("a", irkind.Float32, 64, 32)
	b := irhelper.TensorVar("b", irkind.Float32, 32, 16)
	matmul := mustCall(t)(op.Matmul(a, b, op.MatmulOptions{}, span))
	kernel := irhelper.Func("kernel", ir.InCoreFunc,
		[]*ir.Var{a, b}, []ir.Type{matmul.Type()},
		irhelper.Assign("c", matmul),
		irhelper.Return(irhelper.Var("c", matmul.Type())),
	)
	got := runBlockOps(t, irhelper.Program("p", kernel))
	gotKernel, _ := got.Func("kernel")

	// Two loads, two moves into the matrix-unit buffers, the matmul,
	// the store and the return.
	stmts := gotKernel.BodyStmts()
	if len(stmts) != 7 {
		t.Fatalf("kernel has %d statements, want 7:\n%s", len(stmts), gotKernel)
	}
	lhsMove := stmts[2].(*ir.AssignStmt)
	call := lhsMove.Value.(*ir.Call)
	if got, want := call.Callee.CalleeName(), "block.move"; got != want {
		t.Fatalf("staging statement calls %s, want %s", got, want)
	}
	if target, _ := call.Attr("target_memory"); target != op.L0A {
		t.Errorf("left operand staged into %v, want %v", target, op.L0A)
	}
	rhsMove := stmts[3].(*ir.AssignStmt)
	if target, _ := rhsMove.Value.(*ir.Call).Attr("target_memory"); target != op.L0B {
		t.Errorf("right operand staged into %v, want %v", target, op.L0B)
	}
	compute := stmts[4].(*ir.AssignStmt)
	mm := compute.Value.(*ir.Call)
	if got, want := mm.Callee.CalleeName(), "block.matmul"; got != want {
		t.Fatalf("compute statement calls %s, want %s", got, want)
	}
	if v, ok := mm.Args[0].(*ir.Var); !ok || v.Name != "lhs_l0a" {
		t.Errorf("matmul left operand is %v, want lhs_l0a", mm.Args[0])
	}
	if v, ok := mm.Args[1].(*ir.Var); !ok || v.Name != "rhs_l0b" {
		t.Errorf("matmul right operand is %v, want rhs_l0b", mm.Args[1])
	}
}

func TestConvertUnregisteredTensorOpFails(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64)
	y := irhelper.TensorVar("y", irkind.Float32, 32)
	assemble := mustCall(t)(op.Assemble(x, y, []int{0}, span))
	kernel := irhelper.Func("kernel", ir.InCoreFunc,
		[]*ir.Var{x, y}, []ir.Type{assemble.Type()},
		irhelper.Assign("c", assemble),
		irhelper.Return(irhelper.Var("c", assemble.Type())),
	)
	_, err := passes.ConvertTensorToBlockOps(passes.DefaultConversions()).Run(irhelper.Program("p", kernel))
	if err == nil {
		t.Fatalf("converting an unregistered tensor op succeeds")
	}
	if got := fmterr.KindOf(err); got != fmterr.UnsupportedOperation {
		t.Errorf("error kind is %s, want %s", got, fmterr.UnsupportedOperation)
	}
}

func TestConvertMissingReturnFails(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64)
	kernel := irhelper.Func("kernel", ir.InCoreFunc,
		[]*ir.Var{x}, nil,
		irhelper.Assign("c", mustAdd(t, x, x)),
	)
	_, err := passes.ConvertTensorToBlockOps(passes.DefaultConversions()).Run(irhelper.Program("p", kernel))
	if err == nil {
		t.Fatalf("converting a kernel with no return succeeds")
	}
	if got := fmterr.KindOf(err); got != fmterr.PreconditionViolation {
		t.Errorf("error kind is %s, want %s", got, fmterr.PreconditionViolation)
	}
}

func TestConvertLeavesUntouchedOrchestrationAlone(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64)
	main := irhelper.Func("main", ir.OrchestrationFunc,
		[]*ir.Var{x}, []ir.Type{x.Typ},
		irhelper.Return(x),
	)
	got := runBlockOps(t, irhelper.Program("p", main))
	gotMain, _ := got.Func("main")
	if gotMain != main {
		t.Errorf("pass rebuilt an orchestration function with no transformed call sites")
	}
}
