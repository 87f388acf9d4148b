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

// Package irhelper provides helper functions to build IR programmatically.
package irhelper

import (
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/irkind"
)

// Var returns a variable reference.
func Var(name string, typ ir.Type) *ir.Var {
	return ir.NewVar(name, typ, ir.UnknownSpan())
}

// TensorVar returns a variable of a tensor type.
func TensorVar(name string, knd irkind.Kind, dims ...int) *ir.Var {
	return Var(name, ir.Tensor(knd, dims...))
}

// TileVar returns a variable of a tile type.
func TileVar(name string, knd irkind.Kind, dims ...int) *ir.Var {
	return Var(name, ir.Tile(knd, dims...))
}

// Int returns an integer literal of the default integer kind.
func Int(val int64) *ir.ConstInt {
	return ir.NewConstInt(val, irkind.DefaultInt, ir.UnknownSpan())
}

// Index returns an integer literal of the index kind.
func Index(val int64) *ir.ConstInt {
	return ir.NewConstInt(val, irkind.Index, ir.UnknownSpan())
}

// Float returns a floating point literal of the default float kind.
func Float(val float64) *ir.ConstFloat {
	return ir.NewConstFloat(val, irkind.DefaultFloat, ir.UnknownSpan())
}

// IntTuple returns a tuple of integer literals of the index kind.
func IntTuple(vals ...int64) *ir.MakeTuple {
	elems := make([]ir.Expr, len(vals))
	for i, val := range vals {
		elems[i] = Index(val)
	}
	return ir.NewMakeTuple(elems, ir.UnknownSpan())
}

// Assign returns an assignment of an expression to a fresh variable
// of the expression's type.
func Assign(name string, value ir.Expr) *ir.AssignStmt {
	return ir.NewAssign(Var(name, value.Type()), value, ir.UnknownSpan())
}

// Return returns a return statement over expressions.
func Return(results ...ir.Expr) *ir.ReturnStmt {
	return ir.NewReturn(results, ir.UnknownSpan())
}

// Body returns a sequence of statements usable as a function body.
func Body(stmts ...ir.Stmt) *ir.SeqStmts {
	return ir.NewSeq(stmts, ir.UnknownSpan())
}

// Func returns a function definition with a body built from the
// given statements.
func Func(name string, kind ir.FuncKind, params []*ir.Var, results []ir.Type, stmts ...ir.Stmt) *ir.Func {
	return ir.NewFunc(name, kind, params, Body(stmts...), results, ir.UnknownSpan())
}

// Program returns a program owning the given functions.
func Program(name string, funcs ...*ir.Func) *ir.Program {
	return ir.NewProgram(name, ir.UnknownSpan(), funcs...)
}
