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

// ScopeKind identifies the kind of a scoped statement region.
type ScopeKind int

const (
	// ScopeInCore marks a region of an orchestration body to be
	// outlined into a standalone InCore function.
	ScopeInCore ScopeKind = iota
)

// String returns the name of the scope kind.
func (k ScopeKind) String() string {
	if k == ScopeInCore {
		return "incore"
	}
	return "invalid"
}

type (
	// AssignStmt binds the value of an expression to a variable.
	AssignStmt struct {
		LHS   *Var
		Value Expr
		Src   Span
	}

	// IfStmt branches on a condition.
	IfStmt struct {
		Cond Expr
		Then []Stmt
		Else []Stmt
		Src  Span
	}

	// ForStmt is a C-style range loop: left-closed, right-open, with
	// an explicit step. The step may be negative.
	ForStmt struct {
		LoopVar *Var
		Start   Expr
		Stop    Expr
		Step    Expr
		Body    []Stmt
		Src     Span
	}

	// ReturnStmt terminates a function with zero or more values.
	ReturnStmt struct {
		Results []Expr
		Src     Span
	}

	// YieldStmt updates the loop-carried values of the enclosing loop.
	YieldStmt struct {
		Results []Expr
		Src     Span
	}

	// EvalStmt evaluates an expression for its side effect and
	// discards the result.
	EvalStmt struct {
		X   Expr
		Src Span
	}

	// SeqStmts is the sequential composition of statements.
	SeqStmts struct {
		Stmts []Stmt
		Src   Span
	}

	// ScopeStmt delimits a region of statements carrying a scope kind.
	// The outlining pass consumes and eliminates ScopeInCore regions.
	ScopeStmt struct {
		Kind ScopeKind
		Body []Stmt
		Src  Span
	}
)

var (
	_ Stmt = (*AssignStmt)(nil)
	_ Stmt = (*IfStmt)(nil)
	_ Stmt = (*ForStmt)(nil)
	_ Stmt = (*ReturnStmt)(nil)
	_ Stmt = (*YieldStmt)(nil)
	_ Stmt = (*EvalStmt)(nil)
	_ Stmt = (*SeqStmts)(nil)
	_ Stmt = (*ScopeStmt)(nil)
)

// NewAssign binds the value of an expression to a variable.
func NewAssign(lhs *Var, value Expr, span Span) *AssignStmt {
	return &AssignStmt{LHS: lhs, Value: value, Src: span}
}

func (*AssignStmt) node()     {}
func (*AssignStmt) stmtNode() {}

// Source returns the span of the statement.
func (s *AssignStmt) Source() Span { return s.Src }

// NewIf returns a conditional statement.
func NewIf(cond Expr, then, els []Stmt, span Span) *IfStmt {
	return &IfStmt{Cond: cond, Then: then, Else: els, Src: span}
}

func (*IfStmt) node()     {}
func (*IfStmt) stmtNode() {}

// Source returns the span of the statement.
func (s *IfStmt) Source() Span { return s.Src }

// NewFor returns a range loop statement.
func NewFor(loopVar *Var, start, stop, step Expr, body []Stmt, span Span) *ForStmt {
	return &ForStmt{LoopVar: loopVar, Start: start, Stop: stop, Step: step, Body: body, Src: span}
}

func (*ForStmt) node()     {}
func (*ForStmt) stmtNode() {}

// Source returns the span of the statement.
func (s *ForStmt) Source() Span { return s.Src }

// NewReturn returns a return statement.
func NewReturn(results []Expr, span Span) *ReturnStmt {
	return &ReturnStmt{Results: results, Src: span}
}

func (*ReturnStmt) node()     {}
func (*ReturnStmt) stmtNode() {}

// Source returns the span of the statement.
func (s *ReturnStmt) Source() Span { return s.Src }

// NewYield returns a yield statement.
func NewYield(results []Expr, span Span) *YieldStmt {
	return &YieldStmt{Results: results, Src: span}
}

func (*YieldStmt) node()     {}
func (*YieldStmt) stmtNode() {}

// Source returns the span of the statement.
func (s *YieldStmt) Source() Span { return s.Src }

// NewEval returns an expression statement.
func NewEval(x Expr, span Span) *EvalStmt {
	return &EvalStmt{X: x, Src: span}
}

func (*EvalStmt) node()     {}
func (*EvalStmt) stmtNode() {}

// Source returns the span of the statement.
func (s *EvalStmt) Source() Span { return s.Src }

// NewSeq returns the sequential composition of statements.
func NewSeq(stmts []Stmt, span Span) *SeqStmts {
	return &SeqStmts{Stmts: stmts, Src: span}
}

func (*SeqStmts) node()     {}
func (*SeqStmts) stmtNode() {}

// Source returns the span of the statement.
func (s *SeqStmts) Source() Span { return s.Src }

// NewScope returns a scoped statement region.
func NewScope(kind ScopeKind, body []Stmt, span Span) *ScopeStmt {
	return &ScopeStmt{Kind: kind, Body: body, Src: span}
}

func (*ScopeStmt) node()     {}
func (*ScopeStmt) stmtNode() {}

// Source returns the span of the statement.
func (s *ScopeStmt) Source() Span { return s.Src }
