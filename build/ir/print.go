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

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator precedence levels, loosest first. Operands print with
// parentheses only when required by precedence and associativity.
const (
	precOr = iota + 1
	precXor
	precAnd
	precNot
	precCmp
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAddSub
	precMulDiv
	precUnary
	precPow
	precAtom = 100
)

type binOpInfo struct {
	token      string
	prec       int
	rightAssoc bool
	funcStyle  bool
}

var binOps = map[BinaryOp]binOpInfo{
	OpAdd:        {token: "+", prec: precAddSub},
	OpSub:        {token: "-", prec: precAddSub},
	OpMul:        {token: "*", prec: precMulDiv},
	OpFloatDiv:   {token: "/", prec: precMulDiv},
	OpFloorDiv:   {token: "//", prec: precMulDiv},
	OpFloorMod:   {token: "%", prec: precMulDiv},
	OpPow:        {token: "**", prec: precPow, rightAssoc: true},
	OpMin:        {token: "min", funcStyle: true},
	OpMax:        {token: "max", funcStyle: true},
	OpAnd:        {token: "and", prec: precAnd},
	OpOr:         {token: "or", prec: precOr},
	OpXor:        {token: "xor", prec: precXor},
	OpBitAnd:     {token: "&", prec: precBitAnd},
	OpBitOr:      {token: "|", prec: precBitOr},
	OpBitXor:     {token: "^", prec: precBitXor},
	OpShiftLeft:  {token: "<<", prec: precShift},
	OpShiftRight: {token: ">>", prec: precShift},
	OpEq:         {token: "==", prec: precCmp},
	OpNe:         {token: "!=", prec: precCmp},
	OpLt:         {token: "<", prec: precCmp},
	OpLe:         {token: "<=", prec: precCmp},
	OpGt:         {token: ">", prec: precCmp},
	OpGe:         {token: ">=", prec: precCmp},
}

func exprPrec(x Expr) int {
	switch xT := x.(type) {
	case *BinaryExpr:
		info := binOps[xT.Op]
		if info.funcStyle {
			return precAtom
		}
		return info.prec
	case *UnaryExpr:
		switch xT.Op {
		case OpAbs:
			return precAtom
		case OpNot:
			return precNot
		default:
			return precUnary
		}
	default:
		return precAtom
	}
}

func operand(x Expr, parens bool) string {
	s := x.String()
	if parens {
		return "(" + s + ")"
	}
	return s
}

// String returns the expression in surface syntax.
func (x *Var) String() string { return x.Name }

// String returns the expression in surface syntax.
func (x *IterArg) String() string { return x.Name }

// String returns the expression in surface syntax.
func (x *ConstInt) String() string { return strconv.FormatInt(x.Val, 10) }

// String returns the expression in surface syntax.
func (x *ConstFloat) String() string {
	s := strconv.FormatFloat(x.Val, 'g', -1, 64)
	if !strings.ContainsAny(s, ".einf") {
		s += ".0"
	}
	return s
}

// String returns the expression in surface syntax.
func (x *ConstBool) String() string {
	if x.Val {
		return "True"
	}
	return "False"
}

// String returns the expression in surface syntax.
func (x *ConstString) String() string { return strconv.Quote(x.Val) }

// String returns the expression in surface syntax with minimal
// parenthesization.
func (x *BinaryExpr) String() string {
	info := binOps[x.Op]
	if info.funcStyle {
		return fmt.Sprintf("%s(%s, %s)", info.token, x.X, x.Y)
	}
	left := operand(x.X, exprPrec(x.X) < info.prec || (exprPrec(x.X) == info.prec && info.rightAssoc))
	right := operand(x.Y, exprPrec(x.Y) < info.prec || (exprPrec(x.Y) == info.prec && !info.rightAssoc))
	return left + " " + info.token + " " + right
}

// String returns the expression in surface syntax.
func (x *UnaryExpr) String() string {
	switch x.Op {
	case OpAbs:
		return fmt.Sprintf("abs(%s)", x.X)
	case OpNot:
		return "not " + operand(x.X, exprPrec(x.X) < precNot)
	case OpBitNot:
		return "~" + operand(x.X, exprPrec(x.X) < precUnary)
	default:
		return "-" + operand(x.X, exprPrec(x.X) < precUnary)
	}
}

// String returns the call in surface syntax, with keyword arguments
// after the positional ones.
func (x *Call) String() string {
	args := make([]string, 0, len(x.Args)+len(x.Attrs))
	for _, arg := range x.Args {
		args = append(args, arg.String())
	}
	for _, attr := range x.Attrs {
		args = append(args, fmt.Sprintf("%s=%v", attr.Name, attr.Value))
	}
	return fmt.Sprintf("%s(%s)", x.Callee.CalleeName(), strings.Join(args, ", "))
}

// String returns the tuple in surface syntax.
func (x *MakeTuple) String() string {
	elems := make([]string, len(x.Elems))
	for i, elem := range x.Elems {
		elems[i] = elem.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

// String returns the selection in surface syntax.
func (x *TupleGetItem) String() string {
	return fmt.Sprintf("%s[%d]", operand(x.Tuple, exprPrec(x.Tuple) < precAtom), x.Index)
}

func indentBody(stmts []Stmt) string {
	if len(stmts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		for line := range strings.Lines(stmt.String()) {
			lines = append(lines, "  "+strings.TrimSuffix(line, "\n"))
		}
	}
	return strings.Join(lines, "\n")
}

// String returns the statement in surface syntax.
func (s *AssignStmt) String() string {
	return fmt.Sprintf("%s = %s", s.LHS, s.Value)
}

// String returns the statement in surface syntax with a 2-space
// indent per nesting level.
func (s *IfStmt) String() string {
	b := fmt.Sprintf("if %s:\n%s", s.Cond, indentBody(s.Then))
	if len(s.Else) > 0 {
		b += fmt.Sprintf("\nelse:\n%s", indentBody(s.Else))
	}
	return b
}

// String returns the statement in surface syntax.
func (s *ForStmt) String() string {
	return fmt.Sprintf("for %s in range(%s, %s, %s):\n%s", s.LoopVar, s.Start, s.Stop, s.Step, indentBody(s.Body))
}

func resultList(results []Expr) string {
	ss := make([]string, len(results))
	for i, result := range results {
		ss[i] = result.String()
	}
	return strings.Join(ss, ", ")
}

// String returns the statement in surface syntax.
func (s *ReturnStmt) String() string {
	if len(s.Results) == 0 {
		return "return"
	}
	return "return " + resultList(s.Results)
}

// String returns the statement in surface syntax.
func (s *YieldStmt) String() string {
	if len(s.Results) == 0 {
		return "yield"
	}
	return "yield " + resultList(s.Results)
}

// String returns the statement in surface syntax.
func (s *EvalStmt) String() string { return s.X.String() }

// String returns the statements in surface syntax, one per line.
func (s *SeqStmts) String() string {
	lines := make([]string, len(s.Stmts))
	for i, stmt := range s.Stmts {
		lines[i] = stmt.String()
	}
	return strings.Join(lines, "\n")
}

// String returns the scoped region in surface syntax.
func (s *ScopeStmt) String() string {
	return fmt.Sprintf("%s:\n%s", s.Kind, indentBody(s.Body))
}

// String returns the function in surface syntax.
func (f *Func) String() string {
	params := make([]string, len(f.Params))
	for i, param := range f.Params {
		params[i] = fmt.Sprintf("%s: %s", param.Name, param.Typ)
	}
	results := ""
	switch len(f.Results) {
	case 0:
	case 1:
		results = " -> " + f.Results[0].String()
	default:
		ss := make([]string, len(f.Results))
		for i, typ := range f.Results {
			ss[i] = typ.String()
		}
		results = " -> (" + strings.Join(ss, ", ") + ")"
	}
	body := ""
	if f.Body != nil {
		body = indentBody([]Stmt{f.Body})
	}
	return fmt.Sprintf("def %s(%s)%s:\n%s", f.Name, strings.Join(params, ", "), results, body)
}

// String returns all the functions of the program in surface syntax.
func (p *Program) String() string {
	var funcs []string
	for _, fn := range p.Functions.Iter() {
		funcs = append(funcs, fn.String())
	}
	return strings.Join(funcs, "\n\n")
}
