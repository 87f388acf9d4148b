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

package passes

import (
	"github.com/pto-org/pto/build/ir"
)

// SubstituteExpr replaces variable references by name. The input is
// never mutated: subtrees containing no substitution are returned
// as-is, others are rebuilt around the replaced references.
func SubstituteExpr(expr ir.Expr, varMap map[string]ir.Expr) ir.Expr {
	if len(varMap) == 0 {
		return expr
	}
	switch x := expr.(type) {
	case *ir.Var:
		if repl, ok := varMap[x.Name]; ok {
			return repl
		}
		return expr
	case *ir.Call:
		args, changed := substituteExprs(x.Args, varMap)
		if !changed {
			return expr
		}
		return ir.NewCall(x.Callee, args, x.Attrs, x.Typ, x.Src)
	case *ir.MakeTuple:
		elems, changed := substituteExprs(x.Elems, varMap)
		if !changed {
			return expr
		}
		return ir.NewMakeTuple(elems, x.Src)
	case *ir.TupleGetItem:
		tuple := SubstituteExpr(x.Tuple, varMap)
		if tuple == x.Tuple {
			return expr
		}
		return ir.NewTupleGetItem(tuple, x.Index, x.Src)
	case *ir.BinaryExpr:
		left := SubstituteExpr(x.X, varMap)
		right := SubstituteExpr(x.Y, varMap)
		if left == x.X && right == x.Y {
			return expr
		}
		return ir.NewBinary(x.Op, left, right, x.Knd, x.Src)
	case *ir.UnaryExpr:
		operand := SubstituteExpr(x.X, varMap)
		if operand == x.X {
			return expr
		}
		return ir.NewUnary(x.Op, operand, x.Knd, x.Src)
	}
	return expr
}

func substituteExprs(exprs []ir.Expr, varMap map[string]ir.Expr) ([]ir.Expr, bool) {
	out := make([]ir.Expr, len(exprs))
	changed := false
	for i, expr := range exprs {
		if expr == nil {
			continue
		}
		out[i] = SubstituteExpr(expr, varMap)
		if out[i] != expr {
			changed = true
		}
	}
	return out, changed
}

// SubstituteStmt replaces variable references by name throughout a
// statement, returning the input unchanged when nothing matches.
func SubstituteStmt(stmt ir.Stmt, varMap map[string]ir.Expr) ir.Stmt {
	if len(varMap) == 0 {
		return stmt
	}
	switch s := stmt.(type) {
	case *ir.AssignStmt:
		value := SubstituteExpr(s.Value, varMap)
		if value == s.Value {
			return stmt
		}
		return ir.NewAssign(s.LHS, value, s.Src)
	case *ir.IfStmt:
		cond := SubstituteExpr(s.Cond, varMap)
		then, thenChanged := substituteStmts(s.Then, varMap)
		els, elseChanged := substituteStmts(s.Else, varMap)
		if cond == s.Cond && !thenChanged && !elseChanged {
			return stmt
		}
		return ir.NewIf(cond, then, els, s.Src)
	case *ir.ForStmt:
		start := SubstituteExpr(s.Start, varMap)
		stop := SubstituteExpr(s.Stop, varMap)
		step := SubstituteExpr(s.Step, varMap)
		body, bodyChanged := substituteStmts(s.Body, varMap)
		if start == s.Start && stop == s.Stop && step == s.Step && !bodyChanged {
			return stmt
		}
		return ir.NewFor(s.LoopVar, start, stop, step, body, s.Src)
	case *ir.ReturnStmt:
		results, changed := substituteExprs(s.Results, varMap)
		if !changed {
			return stmt
		}
		return ir.NewReturn(results, s.Src)
	case *ir.YieldStmt:
		results, changed := substituteExprs(s.Results, varMap)
		if !changed {
			return stmt
		}
		return ir.NewYield(results, s.Src)
	case *ir.EvalStmt:
		x := SubstituteExpr(s.X, varMap)
		if x == s.X {
			return stmt
		}
		return ir.NewEval(x, s.Src)
	case *ir.SeqStmts:
		stmts, changed := substituteStmts(s.Stmts, varMap)
		if !changed {
			return stmt
		}
		return ir.NewSeq(stmts, s.Src)
	case *ir.ScopeStmt:
		body, changed := substituteStmts(s.Body, varMap)
		if !changed {
			return stmt
		}
		return ir.NewScope(s.Kind, body, s.Src)
	}
	return stmt
}

func substituteStmts(stmts []ir.Stmt, varMap map[string]ir.Expr) ([]ir.Stmt, bool) {
	out := make([]ir.Stmt, len(stmts))
	changed := false
	for i, stmt := range stmts {
		out[i] = SubstituteStmt(stmt, varMap)
		if out[i] != stmt {
			changed = true
		}
	}
	return out, changed
}
