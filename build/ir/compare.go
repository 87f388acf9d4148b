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
	"hash/fnv"
	"io"
	"slices"
	"strconv"
)

// StructuralEqual reports whether two nodes have the same structure.
// Source spans never participate in the comparison. With autoMapVars,
// variable names are matched positionally: the first occurrence of a
// name on one side is paired with the name at the same position on the
// other side, and the pairing must stay a bijection for the rest of
// the walk. An IterArg never equals a Var, whatever the names.
func StructuralEqual(x, y Node, autoMapVars bool) bool {
	m := &matcher{autoMap: autoMapVars}
	if autoMapVars {
		m.fwd = map[string]string{}
		m.rev = map[string]string{}
	}
	return m.nodes(x, y)
}

type matcher struct {
	autoMap  bool
	fwd, rev map[string]string
}

func (m *matcher) names(x, y string) bool {
	if !m.autoMap {
		return x == y
	}
	if mapped, ok := m.fwd[x]; ok {
		return mapped == y
	}
	if _, ok := m.rev[y]; ok {
		return false
	}
	m.fwd[x] = y
	m.rev[y] = x
	return true
}

func (m *matcher) nodes(x, y Node) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	switch xT := x.(type) {
	case Type:
		yT, ok := y.(Type)
		return ok && m.types(xT, yT)
	case Expr:
		yT, ok := y.(Expr)
		return ok && m.exprs(xT, yT)
	case Stmt:
		yT, ok := y.(Stmt)
		return ok && m.stmts(xT, yT)
	case Callee:
		yT, ok := y.(Callee)
		return ok && m.callees(xT, yT)
	case *Func:
		yT, ok := y.(*Func)
		return ok && m.funcs(xT, yT)
	case *Program:
		yT, ok := y.(*Program)
		return ok && m.programs(xT, yT)
	}
	return false
}

func (m *matcher) types(x, y Type) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	switch xT := x.(type) {
	case *ScalarType:
		yT, ok := y.(*ScalarType)
		return ok && xT.Knd == yT.Knd
	case *TensorType:
		yT, ok := y.(*TensorType)
		return ok && xT.Knd == yT.Knd && m.exprList(xT.Shape, yT.Shape)
	case *TileType:
		yT, ok := y.(*TileType)
		return ok && xT.Knd == yT.Knd && m.exprList(xT.Shape, yT.Shape)
	case *TupleType:
		yT, ok := y.(*TupleType)
		if !ok || len(xT.Types) != len(yT.Types) {
			return false
		}
		for i, elt := range xT.Types {
			if !m.types(elt, yT.Types[i]) {
				return false
			}
		}
		return true
	case *VoidType:
		_, ok := y.(*VoidType)
		return ok
	case *UnknownType:
		_, ok := y.(*UnknownType)
		return ok
	}
	return false
}

func (m *matcher) exprList(xs, ys []Expr) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i, x := range xs {
		if x == nil || ys[i] == nil {
			if x != nil || ys[i] != nil {
				return false
			}
			continue
		}
		if !m.exprs(x, ys[i]) {
			return false
		}
	}
	return true
}

func (m *matcher) exprs(x, y Expr) bool {
	switch xT := x.(type) {
	case *Var:
		yT, ok := y.(*Var)
		return ok && m.names(xT.Name, yT.Name) && m.types(xT.Typ, yT.Typ)
	case *IterArg:
		yT, ok := y.(*IterArg)
		return ok && m.names(xT.Name, yT.Name) && m.types(xT.Typ, yT.Typ) && m.optExprs(xT.Init, yT.Init)
	case *ConstInt:
		yT, ok := y.(*ConstInt)
		return ok && xT.Val == yT.Val && xT.Knd == yT.Knd
	case *ConstFloat:
		yT, ok := y.(*ConstFloat)
		return ok && xT.Val == yT.Val && xT.Knd == yT.Knd
	case *ConstBool:
		yT, ok := y.(*ConstBool)
		return ok && xT.Val == yT.Val
	case *ConstString:
		yT, ok := y.(*ConstString)
		return ok && xT.Val == yT.Val
	case *BinaryExpr:
		yT, ok := y.(*BinaryExpr)
		return ok && xT.Op == yT.Op && xT.Knd == yT.Knd && m.exprs(xT.X, yT.X) && m.exprs(xT.Y, yT.Y)
	case *UnaryExpr:
		yT, ok := y.(*UnaryExpr)
		return ok && xT.Op == yT.Op && xT.Knd == yT.Knd && m.exprs(xT.X, yT.X)
	case *Call:
		yT, ok := y.(*Call)
		return ok && m.callees(xT.Callee, yT.Callee) && m.exprList(xT.Args, yT.Args) &&
			m.attrs(xT.Attrs, yT.Attrs) && m.types(xT.Typ, yT.Typ)
	case *MakeTuple:
		yT, ok := y.(*MakeTuple)
		return ok && m.exprList(xT.Elems, yT.Elems)
	case *TupleGetItem:
		yT, ok := y.(*TupleGetItem)
		return ok && xT.Index == yT.Index && m.exprs(xT.Tuple, yT.Tuple)
	}
	return false
}

func (m *matcher) optExprs(x, y Expr) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	return m.exprs(x, y)
}

func (m *matcher) callees(x, y Callee) bool {
	switch xT := x.(type) {
	case *Op:
		yT, ok := y.(*Op)
		return ok && xT.Name == yT.Name
	case *GlobalVar:
		yT, ok := y.(*GlobalVar)
		return ok && xT.Name == yT.Name
	}
	return false
}

func (m *matcher) attrs(xs, ys []Attr) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i, x := range xs {
		if x.Name != ys[i].Name || x.Value != ys[i].Value {
			return false
		}
	}
	return true
}

func (m *matcher) stmtList(xs, ys []Stmt) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i, x := range xs {
		if !m.stmts(x, ys[i]) {
			return false
		}
	}
	return true
}

func (m *matcher) stmts(x, y Stmt) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	switch xT := x.(type) {
	case *AssignStmt:
		yT, ok := y.(*AssignStmt)
		return ok && m.exprs(xT.LHS, yT.LHS) && m.exprs(xT.Value, yT.Value)
	case *IfStmt:
		yT, ok := y.(*IfStmt)
		return ok && m.exprs(xT.Cond, yT.Cond) && m.stmtList(xT.Then, yT.Then) && m.stmtList(xT.Else, yT.Else)
	case *ForStmt:
		yT, ok := y.(*ForStmt)
		return ok && m.exprs(xT.LoopVar, yT.LoopVar) && m.exprs(xT.Start, yT.Start) &&
			m.exprs(xT.Stop, yT.Stop) && m.exprs(xT.Step, yT.Step) && m.stmtList(xT.Body, yT.Body)
	case *ReturnStmt:
		yT, ok := y.(*ReturnStmt)
		return ok && m.exprList(xT.Results, yT.Results)
	case *YieldStmt:
		yT, ok := y.(*YieldStmt)
		return ok && m.exprList(xT.Results, yT.Results)
	case *EvalStmt:
		yT, ok := y.(*EvalStmt)
		return ok && m.exprs(xT.X, yT.X)
	case *SeqStmts:
		yT, ok := y.(*SeqStmts)
		return ok && m.stmtList(xT.Stmts, yT.Stmts)
	case *ScopeStmt:
		yT, ok := y.(*ScopeStmt)
		return ok && xT.Kind == yT.Kind && m.stmtList(xT.Body, yT.Body)
	}
	return false
}

func (m *matcher) funcs(x, y *Func) bool {
	if x.Name != y.Name || x.Kind != y.Kind || len(x.Params) != len(y.Params) || len(x.Results) != len(y.Results) {
		return false
	}
	for i, param := range x.Params {
		if !m.exprs(param, y.Params[i]) {
			return false
		}
	}
	for i, result := range x.Results {
		if !m.types(result, y.Results[i]) {
			return false
		}
	}
	if x.Body == nil || y.Body == nil {
		return x.Body == nil && y.Body == nil
	}
	return m.stmts(x.Body, y.Body)
}

func (m *matcher) programs(x, y *Program) bool {
	if x.Name != y.Name || x.Functions.Size() != y.Functions.Size() {
		return false
	}
	yNames := slices.Collect(y.Functions.Keys())
	i := 0
	for name, fn := range x.Functions.Iter() {
		if yNames[i] != name {
			return false
		}
		yFn, _ := y.Functions.Load(name)
		if !m.funcs(fn, yFn) {
			return false
		}
		i++
	}
	return true
}

// StructuralHash returns a 64-bit digest of the structure of a node.
// The digest ignores source spans and agrees with StructuralEqual:
// equal nodes (under the same autoMapVars setting) hash equal. With
// autoMapVars, variable names hash as their order of first occurrence,
// so renamings that StructuralEqual accepts produce the same digest.
func StructuralHash(n Node, autoMapVars bool) uint64 {
	h := &hasher{w: fnv.New64a(), autoMap: autoMapVars}
	if autoMapVars {
		h.varIDs = map[string]int{}
	}
	h.node(n)
	return h.w.Sum64()
}

type hasher struct {
	w interface {
		io.Writer
		Sum64() uint64
	}
	autoMap bool
	varIDs  map[string]int
}

func (h *hasher) str(s string) {
	h.int(int64(len(s)))
	io.WriteString(h.w, s)
}

func (h *hasher) int(v int64) {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
	h.w.Write(buf[:])
}

func (h *hasher) name(s string) {
	if !h.autoMap {
		h.str(s)
		return
	}
	id, ok := h.varIDs[s]
	if !ok {
		id = len(h.varIDs)
		h.varIDs[s] = id
	}
	h.int(int64(id))
}

func (h *hasher) tag(s string) { h.str(s) }

func (h *hasher) node(n Node) {
	switch nT := n.(type) {
	case Type:
		h.typ(nT)
	case Expr:
		h.expr(nT)
	case Stmt:
		h.stmt(nT)
	case Callee:
		h.callee(nT)
	case *Func:
		h.fn(nT)
	case *Program:
		h.program(nT)
	default:
		h.tag("nil")
	}
}

func (h *hasher) typ(t Type) {
	switch tT := t.(type) {
	case *ScalarType:
		h.tag("scalar")
		h.int(int64(tT.Knd))
	case *TensorType:
		h.tag("tensor")
		h.int(int64(tT.Knd))
		h.exprList(tT.Shape)
	case *TileType:
		h.tag("tile")
		h.int(int64(tT.Knd))
		h.exprList(tT.Shape)
	case *TupleType:
		h.tag("tuple")
		h.int(int64(len(tT.Types)))
		for _, elt := range tT.Types {
			h.typ(elt)
		}
	case *VoidType:
		h.tag("void")
	case *UnknownType:
		h.tag("unknown")
	default:
		h.tag("notype")
	}
}

func (h *hasher) exprList(xs []Expr) {
	h.int(int64(len(xs)))
	for _, x := range xs {
		if x == nil {
			h.tag("hole")
			continue
		}
		h.expr(x)
	}
}

func (h *hasher) expr(x Expr) {
	switch xT := x.(type) {
	case *Var:
		h.tag("var")
		h.name(xT.Name)
		h.typ(xT.Typ)
	case *IterArg:
		h.tag("iterarg")
		h.name(xT.Name)
		h.typ(xT.Typ)
		if xT.Init != nil {
			h.expr(xT.Init)
		}
	case *ConstInt:
		h.tag("int")
		h.int(xT.Val)
		h.int(int64(xT.Knd))
	case *ConstFloat:
		h.tag("float")
		h.str(strconv.FormatFloat(xT.Val, 'b', -1, 64))
		h.int(int64(xT.Knd))
	case *ConstBool:
		h.tag("bool")
		if xT.Val {
			h.int(1)
		} else {
			h.int(0)
		}
	case *ConstString:
		h.tag("string")
		h.str(xT.Val)
	case *BinaryExpr:
		h.tag("binary")
		h.int(int64(xT.Op))
		h.int(int64(xT.Knd))
		h.expr(xT.X)
		h.expr(xT.Y)
	case *UnaryExpr:
		h.tag("unary")
		h.int(int64(xT.Op))
		h.int(int64(xT.Knd))
		h.expr(xT.X)
	case *Call:
		h.tag("call")
		h.callee(xT.Callee)
		h.exprList(xT.Args)
		h.int(int64(len(xT.Attrs)))
		for _, attr := range xT.Attrs {
			h.str(attr.Name)
			h.str(fmt.Sprintf("%v", attr.Value))
		}
		h.typ(xT.Typ)
	case *MakeTuple:
		h.tag("maketuple")
		h.exprList(xT.Elems)
	case *TupleGetItem:
		h.tag("getitem")
		h.int(int64(xT.Index))
		h.expr(xT.Tuple)
	}
}

func (h *hasher) callee(c Callee) {
	switch cT := c.(type) {
	case *Op:
		h.tag("op")
		h.str(cT.Name)
	case *GlobalVar:
		h.tag("gvar")
		h.str(cT.Name)
	}
}

func (h *hasher) stmtList(ss []Stmt) {
	h.int(int64(len(ss)))
	for _, s := range ss {
		h.stmt(s)
	}
}

func (h *hasher) stmt(s Stmt) {
	switch sT := s.(type) {
	case *AssignStmt:
		h.tag("assign")
		h.expr(sT.LHS)
		h.expr(sT.Value)
	case *IfStmt:
		h.tag("if")
		h.expr(sT.Cond)
		h.stmtList(sT.Then)
		h.stmtList(sT.Else)
	case *ForStmt:
		h.tag("for")
		h.expr(sT.LoopVar)
		h.expr(sT.Start)
		h.expr(sT.Stop)
		h.expr(sT.Step)
		h.stmtList(sT.Body)
	case *ReturnStmt:
		h.tag("return")
		h.exprList(sT.Results)
	case *YieldStmt:
		h.tag("yield")
		h.exprList(sT.Results)
	case *EvalStmt:
		h.tag("eval")
		h.expr(sT.X)
	case *SeqStmts:
		h.tag("seq")
		h.stmtList(sT.Stmts)
	case *ScopeStmt:
		h.tag("scope")
		h.int(int64(sT.Kind))
		h.stmtList(sT.Body)
	}
}

func (h *hasher) fn(f *Func) {
	h.tag("func")
	h.str(f.Name)
	h.int(int64(f.Kind))
	h.int(int64(len(f.Params)))
	for _, param := range f.Params {
		h.expr(param)
	}
	h.int(int64(len(f.Results)))
	for _, result := range f.Results {
		h.typ(result)
	}
	if f.Body != nil {
		h.stmt(f.Body)
	}
}

func (h *hasher) program(p *Program) {
	h.tag("program")
	h.str(p.Name)
	h.int(int64(p.Functions.Size()))
	for name, fn := range p.Functions.Iter() {
		h.str(name)
		h.fn(fn)
	}
}
