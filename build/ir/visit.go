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

// Visit walks the tree rooted at n in pre-order, calling f on every
// node. If f returns false the children of that node are skipped.
// Types are not visited: the walk covers the program structure, not
// the type annotations.
func Visit(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch nT := n.(type) {
	case *Program:
		for _, fn := range nT.Functions.Iter() {
			Visit(fn, f)
		}
	case *Func:
		for _, param := range nT.Params {
			Visit(param, f)
		}
		if nT.Body != nil {
			Visit(nT.Body, f)
		}
	case *AssignStmt:
		Visit(nT.LHS, f)
		Visit(nT.Value, f)
	case *IfStmt:
		Visit(nT.Cond, f)
		visitStmts(nT.Then, f)
		visitStmts(nT.Else, f)
	case *ForStmt:
		Visit(nT.LoopVar, f)
		Visit(nT.Start, f)
		Visit(nT.Stop, f)
		Visit(nT.Step, f)
		visitStmts(nT.Body, f)
	case *ReturnStmt:
		visitExprs(nT.Results, f)
	case *YieldStmt:
		visitExprs(nT.Results, f)
	case *EvalStmt:
		Visit(nT.X, f)
	case *SeqStmts:
		visitStmts(nT.Stmts, f)
	case *ScopeStmt:
		visitStmts(nT.Body, f)
	case *IterArg:
		if nT.Init != nil {
			Visit(nT.Init, f)
		}
	case *BinaryExpr:
		Visit(nT.X, f)
		Visit(nT.Y, f)
	case *UnaryExpr:
		Visit(nT.X, f)
	case *Call:
		Visit(nT.Callee, f)
		visitExprs(nT.Args, f)
	case *MakeTuple:
		visitExprs(nT.Elems, f)
	case *TupleGetItem:
		Visit(nT.Tuple, f)
	}
}

func visitStmts(stmts []Stmt, f func(Node) bool) {
	for _, stmt := range stmts {
		Visit(stmt, f)
	}
}

func visitExprs(exprs []Expr, f func(Node) bool) {
	for _, expr := range exprs {
		if expr == nil {
			continue
		}
		Visit(expr, f)
	}
}

// VisitCalls calls f on every Call in the tree rooted at n.
func VisitCalls(n Node, f func(*Call)) {
	Visit(n, func(node Node) bool {
		if call, ok := node.(*Call); ok {
			f(call)
		}
		return true
	})
}
