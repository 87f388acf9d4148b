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
	"maps"
	"strings"

	"github.com/pto-org/pto/build/fmterr"
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/op"
	"go.uber.org/multierr"
)

// ssaFormVerifier checks that no name is bound more than once along
// any execution path. Parameters count as bindings; the two arms of an
// if are distinct paths and may bind the same name.
type ssaFormVerifier struct{}

func (ssaFormVerifier) Property() Property { return SSAForm }

func (ssaFormVerifier) Verify(program *ir.Program) error {
	var err error
	for fn := range program.Functions.Values() {
		bound := map[string]bool{}
		for _, param := range fn.Params {
			bound[param.Name] = true
		}
		w := &ssaWalker{fn: fn.Name, seen: map[*ir.IterArg]bool{}}
		w.stmts(fn.BodyStmts(), bound)
		err = multierr.Append(err, w.err)
	}
	return err
}

// ssaWalker carries the binding state of one function check. A
// loop-carried value may be referenced at several sites through the
// same IterArg node; the seen set counts the node as one binding.
type ssaWalker struct {
	fn   string
	seen map[*ir.IterArg]bool
	err  error
}

func (w *ssaWalker) bind(name string, span ir.Span, bound map[string]bool) {
	if bound[name] {
		w.err = multierr.Append(w.err, fmterr.Errorf(fmterr.PreconditionViolation, span,
			"function %s: %s is bound more than once", w.fn, name))
		return
	}
	bound[name] = true
}

func (w *ssaWalker) expr(expr ir.Expr, bound map[string]bool) {
	if expr == nil {
		return
	}
	ir.Visit(expr, func(n ir.Node) bool {
		if iter, ok := n.(*ir.IterArg); ok && !w.seen[iter] {
			w.seen[iter] = true
			w.bind(iter.Name, iter.Src, bound)
		}
		return true
	})
}

func (w *ssaWalker) exprs(exprs []ir.Expr, bound map[string]bool) {
	for _, expr := range exprs {
		w.expr(expr, bound)
	}
}

func (w *ssaWalker) stmts(stmts []ir.Stmt, bound map[string]bool) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ir.AssignStmt:
			w.expr(s.Value, bound)
			w.bind(s.LHS.Name, s.Src, bound)
		case *ir.IfStmt:
			w.expr(s.Cond, bound)
			w.stmts(s.Then, maps.Clone(bound))
			w.stmts(s.Else, maps.Clone(bound))
		case *ir.ForStmt:
			w.expr(s.Start, bound)
			w.expr(s.Stop, bound)
			w.expr(s.Step, bound)
			bodyBound := maps.Clone(bound)
			w.bind(s.LoopVar.Name, s.Src, bodyBound)
			w.stmts(s.Body, bodyBound)
		case *ir.ReturnStmt:
			w.exprs(s.Results, bound)
		case *ir.YieldStmt:
			w.exprs(s.Results, bound)
		case *ir.EvalStmt:
			w.expr(s.X, bound)
		case *ir.SeqStmts:
			w.stmts(s.Stmts, bound)
		case *ir.ScopeStmt:
			w.stmts(s.Body, bound)
		}
	}
}

// splitIncoreOrchVerifier checks that no function body still contains
// an incore scope.
type splitIncoreOrchVerifier struct{}

func (splitIncoreOrchVerifier) Property() Property { return SplitIncoreOrch }

func (splitIncoreOrchVerifier) Verify(program *ir.Program) error {
	var err error
	for fn := range program.Functions.Values() {
		ir.Visit(fn, func(n ir.Node) bool {
			scope, ok := n.(*ir.ScopeStmt)
			if ok && scope.Kind == ir.ScopeInCore {
				err = multierr.Append(err, fmterr.Errorf(fmterr.PreconditionViolation, scope.Src,
					"function %s still contains an incore scope", fn.Name))
			}
			return true
		})
	}
	return err
}

// incoreBlockOpsVerifier checks that InCore bodies contain no
// tensor-level operation calls.
type incoreBlockOpsVerifier struct{}

func (incoreBlockOpsVerifier) Property() Property { return IncoreBlockOps }

func (incoreBlockOpsVerifier) Verify(program *ir.Program) error {
	var err error
	for fn := range program.Functions.Values() {
		if fn.Kind != ir.InCoreFunc {
			continue
		}
		ir.VisitCalls(fn, func(call *ir.Call) {
			if call.FuncCallee() != nil {
				return
			}
			name := call.Callee.CalleeName()
			tensorOp := strings.HasPrefix(name, "tensor.")
			if category, ok := op.Default.Category(name); ok {
				tensorOp = category == op.TensorOp
			}
			if tensorOp {
				err = multierr.Append(err, fmterr.Errorf(fmterr.PreconditionViolation, call.Src,
					"function %s: tensor op %s should have been converted", fn.Name, name))
			}
		})
	}
	return err
}
