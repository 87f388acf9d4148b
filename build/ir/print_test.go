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

package ir_test

import (
	"testing"

	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/irhelper"
	"github.com/pto-org/pto/build/ir/irkind"
)

var span = ir.UnknownSpan()

func intVar(name string) *ir.Var {
	return ir.NewVar(name, ir.Scalar(irkind.Int64), span)
}

func bin(op ir.BinaryOp, x, y ir.Expr) *ir.BinaryExpr {
	return ir.NewBinary(op, x, y, irkind.Int64, span)
}

func intConst(v int64) *ir.ConstInt {
	return ir.NewConstInt(v, irkind.Int64, span)
}

func TestExprString(t *testing.T) {
	a, b, c, d := intVar("a"), intVar("b"), intVar("c"), intVar("d")
	tests := []struct {
		expr ir.Expr
		want string
	}{
		{bin(ir.OpAdd, a, b), "a + b"},
		{bin(ir.OpMul, bin(ir.OpAdd, a, b), bin(ir.OpAdd, c, d)), "(a + b) * (c + d)"},
		{bin(ir.OpSub, bin(ir.OpSub, a, b), c), "a - b - c"},
		{bin(ir.OpSub, a, bin(ir.OpSub, b, c)), "a - (b - c)"},
		{bin(ir.OpAdd, a, bin(ir.OpMul, b, c)), "a + b * c"},
		{bin(ir.OpMul, a, bin(ir.OpAdd, b, c)), "a * (b + c)"},
		{bin(ir.OpPow, intConst(2), bin(ir.OpPow, intConst(3), intConst(4))), "2 ** 3 ** 4"},
		{bin(ir.OpPow, bin(ir.OpPow, intConst(2), intConst(3)), intConst(4)), "(2 ** 3) ** 4"},
		{bin(ir.OpFloorDiv, a, b), "a // b"},
		{bin(ir.OpFloorMod, bin(ir.OpAdd, a, b), c), "(a + b) % c"},
		{bin(ir.OpMin, a, bin(ir.OpMax, b, c)), "min(a, max(b, c))"},
		{bin(ir.OpLt, bin(ir.OpAdd, a, b), c), "a + b < c"},
		{bin(ir.OpAnd, bin(ir.OpLt, a, b), bin(ir.OpLt, b, c)), "a < b and b < c"},
		{ir.NewBinary(ir.OpAnd, ir.NewUnary(ir.OpNot, a, irkind.Bool, span), b, irkind.Bool, span), "not a and b"},
		{ir.NewUnary(ir.OpNeg, bin(ir.OpAdd, a, b), irkind.Int64, span), "-(a + b)"},
		{ir.NewUnary(ir.OpNeg, a, irkind.Int64, span), "-a"},
		{ir.NewUnary(ir.OpAbs, bin(ir.OpSub, a, b), irkind.Int64, span), "abs(a - b)"},
		{ir.NewConstFloat(2, irkind.Float32, span), "2.0"},
		{ir.NewConstFloat(1.5, irkind.Float32, span), "1.5"},
		{ir.NewConstBool(true, span), "True"},
		{ir.NewConstBool(false, span), "False"},
		{irhelper.IntTuple(64, 128), "[64, 128]"},
	}
	for _, test := range tests {
		got := test.expr.String()
		if got != test.want {
			t.Errorf("expression prints as %q, want %q", got, test.want)
		}
	}
}

func TestCallString(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64)
	call := ir.NewCall(ir.NewOp("block.load"),
		[]ir.Expr{x, irhelper.IntTuple(0), irhelper.IntTuple(64)},
		[]ir.Attr{{Name: "target_memory", Value: "UB"}},
		ir.Tile(irkind.Float32, 64), span)
	want := "block.load(x, [0], [64], target_memory=UB)"
	if got := call.String(); got != want {
		t.Errorf("call prints as %q, want %q", got, want)
	}
}

func TestStmtString(t *testing.T) {
	a, b := intVar("a"), intVar("b")
	x := intVar("x")
	tests := []struct {
		stmt ir.Stmt
		want string
	}{
		{
			ir.NewAssign(x, bin(ir.OpAdd, a, b), span),
			"x = a + b",
		},
		{
			ir.NewIf(bin(ir.OpLt, a, b),
				[]ir.Stmt{ir.NewAssign(x, a, span)},
				[]ir.Stmt{ir.NewAssign(x, b, span)},
				span),
			"if a < b:\n  x = a\nelse:\n  x = b",
		},
		{
			ir.NewFor(intVar("i"), intConst(0), intConst(10), intConst(1),
				[]ir.Stmt{ir.NewAssign(x, intVar("i"), span)},
				span),
			"for i in range(0, 10, 1):\n  x = i",
		},
		{
			ir.NewReturn([]ir.Expr{a, b}, span),
			"return a, b",
		},
		{
			ir.NewYield([]ir.Expr{x}, span),
			"yield x",
		},
		{
			ir.NewScope(ir.ScopeInCore, []ir.Stmt{ir.NewAssign(x, a, span)}, span),
			"incore:\n  x = a",
		},
	}
	for _, test := range tests {
		got := test.stmt.String()
		if got != test.want {
			t.Errorf("statement prints as %q, want %q", got, test.want)
		}
	}
}

func TestFuncString(t *testing.T) {
	x := irhelper.TensorVar("x", irkind.Float32, 64)
	fn := irhelper.Func("double", ir.OrchestrationFunc,
		[]*ir.Var{x}, []ir.Type{x.Typ},
		irhelper.Return(x),
	)
	want := "def double(x: Tensor[[64], float32]) -> Tensor[[64], float32]:\n  return x"
	if got := fn.String(); got != want {
		t.Errorf("function prints as:\n%s\nwant:\n%s", got, want)
	}
}

func TestFuncStringMultiResult(t *testing.T) {
	x := intVar("x")
	fn := irhelper.Func("pair", ir.OrchestrationFunc,
		[]*ir.Var{x}, []ir.Type{x.Typ, x.Typ},
		irhelper.Return(x, x),
	)
	want := "def pair(x: int64) -> (int64, int64):\n  return x, x"
	if got := fn.String(); got != want {
		t.Errorf("function prints as:\n%s\nwant:\n%s", got, want)
	}
}

func TestNestedIndent(t *testing.T) {
	x := intVar("x")
	inner := ir.NewIf(ir.NewConstBool(true, span),
		[]ir.Stmt{ir.NewAssign(x, intConst(1), span)}, nil, span)
	outer := ir.NewFor(intVar("i"), intConst(0), intConst(4), intConst(1),
		[]ir.Stmt{inner}, span)
	want := "for i in range(0, 4, 1):\n  if True:\n    x = 1"
	if got := outer.String(); got != want {
		t.Errorf("nested statement prints as:\n%s\nwant:\n%s", got, want)
	}
}
