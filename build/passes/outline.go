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
	"fmt"

	"github.com/pto-org/pto/build/fmterr"
	"github.com/pto-org/pto/build/ir"
)

// OutlineIncoreScopes returns the pass extracting every incore scope
// of an orchestration body into a standalone InCore function. The
// scope's free variables become the function's parameters, its
// live-out bindings become the function's results, and the scope
// statement is replaced by a call binding those results under their
// original names.
func OutlineIncoreScopes() Pass {
	return Pass{
		Name: "OutlineIncoreScopes",
		Properties: Properties{
			Required: []Property{SSAForm},
			Produced: []Property{SplitIncoreOrch},
		},
		Transform: outlineIncoreScopes,
	}
}

func outlineIncoreScopes(program *ir.Program) (*ir.Program, error) {
	var funcs []*ir.Func
	for fn := range program.Functions.Values() {
		if fn.Kind != ir.OrchestrationFunc {
			funcs = append(funcs, fn)
			continue
		}
		outlined, host, err := outlineFunc(fn)
		if err != nil {
			return nil, err
		}
		// Outlined kernels come before their host so the program
		// reads callee-first.
		funcs = append(funcs, outlined...)
		funcs = append(funcs, host)
	}
	return ir.NewProgram(program.Name, program.Src, funcs...), nil
}

func outlineFunc(fn *ir.Func) ([]*ir.Func, *ir.Func, error) {
	stmts := fn.BodyStmts()
	var outlined []*ir.Func
	newStmts := make([]ir.Stmt, 0, len(stmts))
	counter := 0
	for i, stmt := range stmts {
		scope, ok := stmt.(*ir.ScopeStmt)
		if !ok {
			if containsScope(stmt) {
				return nil, nil, fmterr.Errorf(fmterr.PreconditionViolation, stmt.Source(),
					"incore scope nested under control flow cannot be outlined")
			}
			newStmts = append(newStmts, stmt)
			continue
		}
		if scope.Kind != ir.ScopeInCore {
			newStmts = append(newStmts, stmt)
			continue
		}
		name := fmt.Sprintf("%s_incore_%d", fn.Name, counter)
		counter++
		kernel, call, err := outlineScope(name, scope, stmts[i+1:])
		if err != nil {
			return nil, nil, err
		}
		outlined = append(outlined, kernel)
		newStmts = append(newStmts, call...)
	}
	host := ir.NewFunc(fn.Name, fn.Kind, fn.Params, ir.NewSeq(newStmts, fn.Src), fn.Results, fn.Src)
	return outlined, host, nil
}

func containsScope(stmt ir.Stmt) bool {
	found := false
	ir.Visit(stmt, func(n ir.Node) bool {
		if _, ok := n.(*ir.ScopeStmt); ok {
			found = true
		}
		return !found
	})
	return found
}

// boundNames returns the names bound by the statements of a scope.
func boundNames(stmts []ir.Stmt) map[string]*ir.Var {
	bound := map[string]*ir.Var{}
	for _, stmt := range stmts {
		ir.Visit(stmt, func(n ir.Node) bool {
			switch nT := n.(type) {
			case *ir.AssignStmt:
				bound[nT.LHS.Name] = nT.LHS
			case *ir.ForStmt:
				bound[nT.LoopVar.Name] = nT.LoopVar
			}
			return true
		})
	}
	return bound
}

// freeVars returns the variables a scope references without binding,
// in first-use order.
func freeVars(stmts []ir.Stmt, bound map[string]*ir.Var) []*ir.Var {
	var free []*ir.Var
	seen := map[string]bool{}
	for _, stmt := range stmts {
		assign, isAssign := stmt.(*ir.AssignStmt)
		var root ir.Node = stmt
		if isAssign {
			// The LHS is a definition, not a use.
			root = assign.Value
		}
		ir.Visit(root, func(n ir.Node) bool {
			v, ok := n.(*ir.Var)
			if !ok {
				return true
			}
			if _, local := bound[v.Name]; local || seen[v.Name] {
				return true
			}
			seen[v.Name] = true
			free = append(free, v)
			return true
		})
	}
	return free
}

// usedNames returns every variable name the statements reference.
func usedNames(stmts []ir.Stmt) map[string]bool {
	used := map[string]bool{}
	for _, stmt := range stmts {
		ir.Visit(stmt, func(n ir.Node) bool {
			if v, ok := n.(*ir.Var); ok {
				used[v.Name] = true
			}
			return true
		})
	}
	return used
}

// carriesLoopResults reports whether the statements contain a loop
// with loop-carried values. Such a loop binds the carried names' next
// versions implicitly, so free-variable analysis cannot see them.
func carriesLoopResults(stmts []ir.Stmt) bool {
	found := false
	for _, stmt := range stmts {
		ir.Visit(stmt, func(n ir.Node) bool {
			loop, ok := n.(*ir.ForStmt)
			if !ok {
				return !found
			}
			if len(loop.Body) > 0 {
				if _, yields := loop.Body[len(loop.Body)-1].(*ir.YieldStmt); yields {
					found = true
				}
			}
			return !found
		})
	}
	return found
}

// outlineScope builds the InCore function for one scope and the host
// statements replacing it.
func outlineScope(name string, scope *ir.ScopeStmt, rest []ir.Stmt) (*ir.Func, []ir.Stmt, error) {
	if carriesLoopResults(scope.Body) {
		return nil, nil, fmterr.Errorf(fmterr.PreconditionViolation, scope.Src,
			"incore scope contains a loop with carried values, whose result bindings cannot be outlined")
	}
	bound := boundNames(scope.Body)
	free := freeVars(scope.Body, bound)
	after := usedNames(rest)

	// Live-outs in binding order.
	var liveOuts []*ir.Var
	seen := map[string]bool{}
	for _, stmt := range scope.Body {
		assign, ok := stmt.(*ir.AssignStmt)
		if !ok {
			continue
		}
		if after[assign.LHS.Name] && !seen[assign.LHS.Name] {
			seen[assign.LHS.Name] = true
			liveOuts = append(liveOuts, assign.LHS)
		}
	}

	params := make([]*ir.Var, len(free))
	args := make([]ir.Expr, len(free))
	for i, v := range free {
		params[i] = ir.NewVar(v.Name, v.Typ, v.Src)
		args[i] = v
	}
	results := make([]ir.Type, len(liveOuts))
	returns := make([]ir.Expr, len(liveOuts))
	for i, v := range liveOuts {
		results[i] = v.Typ
		returns[i] = ir.NewVar(v.Name, v.Typ, v.Src)
	}
	body := make([]ir.Stmt, 0, len(scope.Body)+1)
	body = append(body, scope.Body...)
	body = append(body, ir.NewReturn(returns, scope.Src))
	kernel := ir.NewFunc(name, ir.InCoreFunc, params, ir.NewSeq(body, scope.Src), results, scope.Src)

	callee := ir.NewGlobalVar(name)
	switch len(liveOuts) {
	case 0:
		call := ir.NewCall(callee, args, nil, &ir.VoidType{}, scope.Src)
		return kernel, []ir.Stmt{ir.NewEval(call, scope.Src)}, nil
	case 1:
		call := ir.NewCall(callee, args, nil, results[0], scope.Src)
		lhs := ir.NewVar(liveOuts[0].Name, liveOuts[0].Typ, liveOuts[0].Src)
		return kernel, []ir.Stmt{ir.NewAssign(lhs, call, scope.Src)}, nil
	default:
		tupleType := ir.Tuple(results...)
		call := ir.NewCall(callee, args, nil, tupleType, scope.Src)
		tupleVar := ir.NewVar(name+"_res", tupleType, scope.Src)
		stmts := []ir.Stmt{ir.NewAssign(tupleVar, call, scope.Src)}
		for i, v := range liveOuts {
			item := ir.NewTupleGetItem(tupleVar, i, scope.Src)
			lhs := ir.NewVar(v.Name, v.Typ, v.Src)
			stmts = append(stmts, ir.NewAssign(lhs, item, scope.Src))
		}
		return kernel, stmts, nil
	}
}
