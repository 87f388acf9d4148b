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
	"maps"

	"github.com/pto-org/pto/build/ir"
)

// ConvertToSSA returns the pass renaming every rebinding of a
// variable to a fresh versioned name, so that each name is bound
// exactly once along any execution path. A variable rebound inside a
// loop becomes a loop-carried IterArg initialized with its value
// before the loop, and the loop body ends with a yield of the carried
// values. After the loop the carried names resolve to fresh versions
// bound by the loop itself, not by any assignment: later statements
// reference them, but no statement's left-hand side carries them.
func ConvertToSSA() Pass {
	return Pass{
		Name: "ConvertToSSA",
		Properties: Properties{
			Required: []Property{TypeChecked},
			Produced: []Property{SSAForm},
		},
		Transform: convertToSSA,
	}
}

func convertToSSA(program *ir.Program) (*ir.Program, error) {
	funcs := make([]*ir.Func, 0, program.Functions.Size())
	for fn := range program.Functions.Values() {
		converted, err := funcToSSA(fn)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, converted)
	}
	return ir.NewProgram(program.Name, program.Src, funcs...), nil
}

// ssaScope tracks, per source name, how many times it has been bound
// and which expression currently holds its value. The current value
// is a Var, or an IterArg inside a loop body carrying the name.
type ssaScope struct {
	versions map[string]int
	current  map[string]ir.Expr
}

func newSSAScope() *ssaScope {
	return &ssaScope{versions: map[string]int{}, current: map[string]ir.Expr{}}
}

func (s *ssaScope) clone() *ssaScope {
	return &ssaScope{versions: maps.Clone(s.versions), current: maps.Clone(s.current)}
}

// bind returns the variable holding a fresh binding of name. The
// first binding keeps the source name; later ones append a version
// suffix.
func (s *ssaScope) bind(name string, typ ir.Type, span ir.Span) *ir.Var {
	n := s.versions[name]
	s.versions[name] = n + 1
	bound := name
	if n > 0 {
		bound = fmt.Sprintf("%s_%d", name, n)
	}
	v := ir.NewVar(bound, typ, span)
	s.current[name] = v
	return v
}

func funcToSSA(fn *ir.Func) (*ir.Func, error) {
	scope := newSSAScope()
	for _, param := range fn.Params {
		scope.versions[param.Name] = 1
		scope.current[param.Name] = param
	}
	stmts, err := stmtsToSSA(fn.BodyStmts(), scope)
	if err != nil {
		return nil, err
	}
	return ir.NewFunc(fn.Name, fn.Kind, fn.Params, ir.NewSeq(stmts, fn.Src), fn.Results, fn.Src), nil
}

func stmtsToSSA(stmts []ir.Stmt, scope *ssaScope) ([]ir.Stmt, error) {
	out := make([]ir.Stmt, 0, len(stmts))
	for _, stmt := range stmts {
		converted, err := stmtToSSA(stmt, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, converted...)
	}
	return out, nil
}

func stmtToSSA(stmt ir.Stmt, scope *ssaScope) ([]ir.Stmt, error) {
	switch s := stmt.(type) {
	case *ir.AssignStmt:
		value := SubstituteExpr(s.Value, scope.current)
		lhs := scope.bind(s.LHS.Name, s.LHS.Typ, s.LHS.Src)
		return []ir.Stmt{ir.NewAssign(lhs, value, s.Src)}, nil
	case *ir.IfStmt:
		// Bindings created inside a branch stay local to it: with no
		// join nodes in the IR, a rebinding visible after the if
		// would need a merge this pass cannot express.
		cond := SubstituteExpr(s.Cond, scope.current)
		then, err := stmtsToSSA(s.Then, scope.clone())
		if err != nil {
			return nil, err
		}
		els, err := stmtsToSSA(s.Else, scope.clone())
		if err != nil {
			return nil, err
		}
		return []ir.Stmt{ir.NewIf(cond, then, els, s.Src)}, nil
	case *ir.ForStmt:
		return forToSSA(s, scope)
	case *ir.ReturnStmt:
		results, _ := substituteExprs(s.Results, scope.current)
		return []ir.Stmt{ir.NewReturn(results, s.Src)}, nil
	case *ir.YieldStmt:
		results, _ := substituteExprs(s.Results, scope.current)
		return []ir.Stmt{ir.NewYield(results, s.Src)}, nil
	case *ir.EvalStmt:
		return []ir.Stmt{ir.NewEval(SubstituteExpr(s.X, scope.current), s.Src)}, nil
	case *ir.SeqStmts:
		converted, err := stmtsToSSA(s.Stmts, scope)
		if err != nil {
			return nil, err
		}
		return []ir.Stmt{ir.NewSeq(converted, s.Src)}, nil
	case *ir.ScopeStmt:
		// Scoped regions share the enclosing binding scope. The
		// outlining pass gives them their own function later.
		body, err := stmtsToSSA(s.Body, scope)
		if err != nil {
			return nil, err
		}
		return []ir.Stmt{ir.NewScope(s.Kind, body, s.Src)}, nil
	}
	return []ir.Stmt{stmt}, nil
}

// assignedNames collects the names bound by a statement list, in
// binding order, without descending into nested loops or scopes.
func assignedNames(stmts []ir.Stmt) []string {
	var names []string
	seen := map[string]bool{}
	for _, stmt := range stmts {
		assign, ok := stmt.(*ir.AssignStmt)
		if !ok {
			continue
		}
		if !seen[assign.LHS.Name] {
			seen[assign.LHS.Name] = true
			names = append(names, assign.LHS.Name)
		}
	}
	return names
}

func forToSSA(s *ir.ForStmt, scope *ssaScope) ([]ir.Stmt, error) {
	start := SubstituteExpr(s.Start, scope.current)
	stop := SubstituteExpr(s.Stop, scope.current)
	step := SubstituteExpr(s.Step, scope.current)

	// Variables bound both before the loop and inside its body are
	// loop-carried: they enter the body as IterArgs and leave it
	// through a yield.
	bodyScope := scope.clone()
	var carried []string
	for _, name := range assignedNames(s.Body) {
		outer, boundOutside := scope.current[name]
		if !boundOutside {
			continue
		}
		carried = append(carried, name)
		n := bodyScope.versions[name]
		bodyScope.versions[name] = n + 1
		iterName := fmt.Sprintf("%s_%d", name, n)
		bodyScope.current[name] = ir.NewIterArg(iterName, outer.Type(), outer, s.Src)
	}

	loopVar := ir.NewVar(s.LoopVar.Name, s.LoopVar.Typ, s.LoopVar.Src)
	bodyScope.versions[loopVar.Name]++
	bodyScope.current[loopVar.Name] = loopVar

	body, err := stmtsToSSA(s.Body, bodyScope)
	if err != nil {
		return nil, err
	}
	if len(carried) > 0 {
		finals := make([]ir.Expr, len(carried))
		for i, name := range carried {
			finals[i] = bodyScope.current[name]
		}
		body = append(body, ir.NewYield(finals, s.Src))
	}

	// After the loop the carried names resolve to the loop's result
	// bindings, versioned past every name used inside the body.
	for _, name := range carried {
		scope.versions[name] = bodyScope.versions[name]
		scope.bind(name, scope.current[name].Type(), s.Src)
	}
	return []ir.Stmt{ir.NewFor(loopVar, start, stop, step, body, s.Src)}, nil
}
