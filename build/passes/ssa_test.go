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

	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/irhelper"
	"github.com/pto-org/pto/build/ir/irkind"
	"github.com/pto-org/pto/build/passes"
)

var span = ir.UnknownSpan()

func intVar(name string) *ir.Var {
	return ir.NewVar(name, ir.Scalar(irkind.Int64), span)
}

func intBin(op ir.BinaryOp, x, y ir.Expr) *ir.BinaryExpr {
	return ir.NewBinary(op, x, y, irkind.Int64, span)
}

func runSSA(t *testing.T, program *ir.Program) *ir.Program {
	t.Helper()
	out, err := passes.ConvertToSSA().Run(program)
	if err != nil {
		t.Fatalf("ConvertToSSA: %v", err)
	}
	return out
}

func assertFuncEqual(t *testing.T, got, want *ir.Func) {
	t.Helper()
	if !ir.StructuralEqual(got, want, false) {
		t.Errorf("function mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestSSARenamesRebindings(t *testing.T) {
	x := intVar("x")
	fn := irhelper.Func("f", ir.OrchestrationFunc, nil, []ir.Type{x.Typ},
		irhelper.Assign("x", irhelper.Int(1)),
		ir.NewAssign(x, intBin(ir.OpAdd, intVar("x"), irhelper.Int(1)), span),
		irhelper.Return(intVar("x")),
	)
	got := runSSA(t, irhelper.Program("p", fn))

	want := irhelper.Func("f", ir.OrchestrationFunc, nil, []ir.Type{x.Typ},
		irhelper.Assign("x", irhelper.Int(1)),
		irhelper.Assign("x_1", intBin(ir.OpAdd, intVar("x"), irhelper.Int(1))),
		irhelper.Return(intVar("x_1")),
	)
	gotFn, _ := got.Func("f")
	assertFuncEqual(t, gotFn, want)
}

func TestSSAParamRebinding(t *testing.T) {
	// Parameters hold version 0 of their name: rebinding one starts at
	// version 1.
	n := intVar("n")
	fn := irhelper.Func("f", ir.OrchestrationFunc, []*ir.Var{n}, []ir.Type{n.Typ},
		ir.NewAssign(intVar("n"), intBin(ir.OpMul, intVar("n"), irhelper.Int(2)), span),
		irhelper.Return(intVar("n")),
	)
	got := runSSA(t, irhelper.Program("p", fn))

	want := irhelper.Func("f", ir.OrchestrationFunc, []*ir.Var{n}, []ir.Type{n.Typ},
		irhelper.Assign("n_1", intBin(ir.OpMul, intVar("n"), irhelper.Int(2))),
		irhelper.Return(intVar("n_1")),
	)
	gotFn, _ := got.Func("f")
	assertFuncEqual(t, gotFn, want)
}

func TestSSABranchLocalBindings(t *testing.T) {
	c := ir.NewVar("c", ir.Scalar(irkind.Bool), span)
	fn := irhelper.Func("f", ir.OrchestrationFunc, []*ir.Var{c}, []ir.Type{ir.Scalar(irkind.Int64)},
		irhelper.Assign("x", irhelper.Int(1)),
		ir.NewIf(c, []ir.Stmt{
			ir.NewAssign(intVar("x"), irhelper.Int(2), span),
		}, nil, span),
		irhelper.Return(intVar("x")),
	)
	got := runSSA(t, irhelper.Program("p", fn))

	want := irhelper.Func("f", ir.OrchestrationFunc, []*ir.Var{c}, []ir.Type{ir.Scalar(irkind.Int64)},
		irhelper.Assign("x", irhelper.Int(1)),
		ir.NewIf(c, []ir.Stmt{
			irhelper.Assign("x_1", irhelper.Int(2)),
		}, nil, span),
		irhelper.Return(intVar("x")),
	)
	gotFn, _ := got.Func("f")
	assertFuncEqual(t, gotFn, want)
}

func TestSSALoopCarriedVariable(t *testing.T) {
	fn := irhelper.Func("f", ir.OrchestrationFunc, nil, []ir.Type{ir.Scalar(irkind.Int64)},
		irhelper.Assign("acc", irhelper.Int(0)),
		ir.NewFor(intVar("i"), irhelper.Int(0), irhelper.Int(4), irhelper.Int(1), []ir.Stmt{
			ir.NewAssign(intVar("acc"), intBin(ir.OpAdd, intVar("acc"), intVar("i")), span),
		}, span),
		irhelper.Return(intVar("acc")),
	)
	got := runSSA(t, irhelper.Program("p", fn))
	gotFn, _ := got.Func("f")

	stmts := gotFn.BodyStmts()
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3:\n%s", len(stmts), gotFn)
	}
	loop, ok := stmts[1].(*ir.ForStmt)
	if !ok {
		t.Fatalf("statement 1 is %T, want *ir.ForStmt", stmts[1])
	}
	if len(loop.Body) != 2 {
		t.Fatalf("loop body has %d statements, want assign plus yield:\n%s", len(loop.Body), loop)
	}

	// The carried variable enters the body as an IterArg initialized
	// with its value before the loop.
	assign := loop.Body[0].(*ir.AssignStmt)
	sum, ok := assign.Value.(*ir.BinaryExpr)
	if !ok {
		t.Fatalf("loop assign value is %T, want *ir.BinaryExpr", assign.Value)
	}
	iter, ok := sum.X.(*ir.IterArg)
	if !ok {
		t.Fatalf("carried operand is %T, want *ir.IterArg", sum.X)
	}
	if iter.Name != "acc_1" {
		t.Errorf("IterArg name is %s, want acc_1", iter.Name)
	}
	init, ok := iter.Init.(*ir.Var)
	if !ok || init.Name != "acc" {
		t.Errorf("IterArg init is %v, want the variable acc", iter.Init)
	}
	if assign.LHS.Name != "acc_2" {
		t.Errorf("loop assign binds %s, want acc_2", assign.LHS.Name)
	}

	// The body ends with a yield of the final carried values.
	yield, ok := loop.Body[1].(*ir.YieldStmt)
	if !ok {
		t.Fatalf("loop body ends with %T, want *ir.YieldStmt", loop.Body[1])
	}
	if len(yield.Results) != 1 {
		t.Fatalf("yield carries %d values, want 1", len(yield.Results))
	}
	if v, ok := yield.Results[0].(*ir.Var); !ok || v.Name != "acc_2" {
		t.Errorf("yield carries %v, want acc_2", yield.Results[0])
	}

	// After the loop the carried name resolves to a fresh version.
	ret := stmts[2].(*ir.ReturnStmt)
	if v, ok := ret.Results[0].(*ir.Var); !ok || v.Name != "acc_3" {
		t.Errorf("return references %v, want acc_3", ret.Results[0])
	}
}

func TestSSAIdempotentOnSingleAssignments(t *testing.T) {
	x := intVar("x")
	fn := irhelper.Func("f", ir.OrchestrationFunc, nil, []ir.Type{x.Typ},
		irhelper.Assign("x", irhelper.Int(1)),
		irhelper.Assign("y", intBin(ir.OpAdd, intVar("x"), irhelper.Int(1))),
		irhelper.Return(intVar("y")),
	)
	program := irhelper.Program("p", fn)
	once := runSSA(t, program)
	twice := runSSA(t, once)
	if !ir.StructuralEqual(once, twice, false) {
		t.Errorf("re-running SSA conversion changes an already converted program:\nonce:\n%s\ntwice:\n%s", once, twice)
	}
}
