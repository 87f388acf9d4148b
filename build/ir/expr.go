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
	"github.com/pto-org/pto/build/ir/irkind"
)

// BinaryOp identifies a binary operator.
type BinaryOp int

// Binary operators.
const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpFloatDiv
	OpFloorDiv
	OpFloorMod
	OpPow
	OpMin
	OpMax
	OpAnd
	OpOr
	OpXor
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftLeft
	OpShiftRight
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// UnaryOp identifies a unary operator.
type UnaryOp int

// Unary operators.
const (
	OpNeg UnaryOp = iota
	OpNot
	OpBitNot
	OpAbs
)

type (
	// Var is a reference to a named binding.
	Var struct {
		Name string
		Typ  Type
		Src  Span
	}

	// IterArg is a loop-carried variable. It is a distinct node
	// variant from Var: an IterArg and a Var with identical name and
	// type never compare or hash equal.
	IterArg struct {
		Name string
		Typ  Type
		Init Expr
		Src  Span
	}

	// ConstInt is an integer literal.
	ConstInt struct {
		Val int64
		Knd irkind.Kind
		Src Span
	}

	// ConstFloat is a floating point literal.
	ConstFloat struct {
		Val float64
		Knd irkind.Kind
		Src Span
	}

	// ConstBool is a boolean literal.
	ConstBool struct {
		Val bool
		Src Span
	}

	// ConstString is a string literal.
	ConstString struct {
		Val string
		Src Span
	}

	// BinaryExpr applies a binary operator to two operands.
	BinaryExpr struct {
		Op   BinaryOp
		X, Y Expr
		Knd  irkind.Kind
		Src  Span
	}

	// UnaryExpr applies a unary operator to one operand.
	UnaryExpr struct {
		Op  UnaryOp
		X   Expr
		Knd irkind.Kind
		Src Span
	}

	// Op is a primitive operation identified by a symbolic name
	// (for example "tensor.add" or "block.load").
	Op struct {
		Name string
	}

	// GlobalVar is a reference to a function of the program. A Call
	// whose callee is a GlobalVar is a function call (a subgraph
	// reference), not a primitive op call.
	GlobalVar struct {
		Name string
	}

	// Attr is a keyword argument attached to a call. Values are
	// plain comparable Go values (kinds, memory spaces, ints, bools).
	Attr struct {
		Name  string
		Value any
	}

	// Call applies an operation or a function to arguments.
	Call struct {
		Callee Callee
		Args   []Expr
		Attrs  []Attr
		Typ    Type
		Src    Span
	}

	// MakeTuple constructs a fixed-size tuple of expressions. It is
	// used to pass shape, offset and index lists to operations.
	MakeTuple struct {
		Elems []Expr
		Src   Span
	}

	// TupleGetItem selects one element of a tuple-typed expression.
	TupleGetItem struct {
		Tuple Expr
		Index int
		Src   Span
	}
)

var (
	_ Expr   = (*Var)(nil)
	_ Expr   = (*IterArg)(nil)
	_ Expr   = (*ConstInt)(nil)
	_ Expr   = (*ConstFloat)(nil)
	_ Expr   = (*ConstBool)(nil)
	_ Expr   = (*ConstString)(nil)
	_ Expr   = (*BinaryExpr)(nil)
	_ Expr   = (*UnaryExpr)(nil)
	_ Expr   = (*Call)(nil)
	_ Expr   = (*MakeTuple)(nil)
	_ Expr   = (*TupleGetItem)(nil)
	_ Callee = (*Op)(nil)
	_ Callee = (*GlobalVar)(nil)
)

// NewVar returns a reference to a named binding.
func NewVar(name string, typ Type, span Span) *Var {
	return &Var{Name: name, Typ: typ, Src: span}
}

func (*Var) node() {}

// Type of the binding.
func (x *Var) Type() Type { return x.Typ }

// Source returns the span of the reference.
func (x *Var) Source() Span { return x.Src }

// NewIterArg returns a loop-carried variable with its initial value.
func NewIterArg(name string, typ Type, init Expr, span Span) *IterArg {
	return &IterArg{Name: name, Typ: typ, Init: init, Src: span}
}

func (*IterArg) node() {}

// Type of the carried value.
func (x *IterArg) Type() Type { return x.Typ }

// Source returns the span of the iteration argument.
func (x *IterArg) Source() Span { return x.Src }

// NewConstInt returns an integer literal of the given kind.
func NewConstInt(val int64, knd irkind.Kind, span Span) *ConstInt {
	return &ConstInt{Val: val, Knd: knd, Src: span}
}

func (*ConstInt) node() {}

// Type of the literal.
func (x *ConstInt) Type() Type { return Scalar(x.Knd) }

// Source returns the span of the literal.
func (x *ConstInt) Source() Span { return x.Src }

// NewConstFloat returns a floating point literal of the given kind.
func NewConstFloat(val float64, knd irkind.Kind, span Span) *ConstFloat {
	return &ConstFloat{Val: val, Knd: knd, Src: span}
}

func (*ConstFloat) node() {}

// Type of the literal.
func (x *ConstFloat) Type() Type { return Scalar(x.Knd) }

// Source returns the span of the literal.
func (x *ConstFloat) Source() Span { return x.Src }

// NewConstBool returns a boolean literal.
func NewConstBool(val bool, span Span) *ConstBool {
	return &ConstBool{Val: val, Src: span}
}

func (*ConstBool) node() {}

// Type of the literal.
func (x *ConstBool) Type() Type { return Scalar(irkind.Bool) }

// Source returns the span of the literal.
func (x *ConstBool) Source() Span { return x.Src }

// NewConstString returns a string literal.
func NewConstString(val string, span Span) *ConstString {
	return &ConstString{Val: val, Src: span}
}

func (*ConstString) node() {}

// Type of the literal.
func (x *ConstString) Type() Type { return Scalar(irkind.String) }

// Source returns the span of the literal.
func (x *ConstString) Source() Span { return x.Src }

// NewBinary returns a binary operator node. The result kind is the
// scalar kind of the value computed by the operator.
func NewBinary(op BinaryOp, x, y Expr, knd irkind.Kind, span Span) *BinaryExpr {
	return &BinaryExpr{Op: op, X: x, Y: y, Knd: knd, Src: span}
}

func (*BinaryExpr) node() {}

// Type of the value computed by the operator.
func (x *BinaryExpr) Type() Type { return Scalar(x.Knd) }

// Source returns the span of the operator.
func (x *BinaryExpr) Source() Span { return x.Src }

// NewUnary returns a unary operator node.
func NewUnary(op UnaryOp, x Expr, knd irkind.Kind, span Span) *UnaryExpr {
	return &UnaryExpr{Op: op, X: x, Knd: knd, Src: span}
}

func (*UnaryExpr) node() {}

// Type of the value computed by the operator.
func (x *UnaryExpr) Type() Type { return Scalar(x.Knd) }

// Source returns the span of the operator.
func (x *UnaryExpr) Source() Span { return x.Src }

// NewOp returns a primitive operation callee.
func NewOp(name string) *Op {
	return &Op{Name: name}
}

func (*Op) node() {}

// CalleeName returns the symbolic operation name.
func (o *Op) CalleeName() string { return o.Name }

// NewGlobalVar returns a function reference callee.
func NewGlobalVar(name string) *GlobalVar {
	return &GlobalVar{Name: name}
}

func (*GlobalVar) node() {}

// CalleeName returns the global function identifier.
func (g *GlobalVar) CalleeName() string { return g.Name }

// NewCall returns a call of a callee over arguments, carrying the
// resolved result type.
func NewCall(callee Callee, args []Expr, attrs []Attr, typ Type, span Span) *Call {
	return &Call{Callee: callee, Args: args, Attrs: attrs, Typ: typ, Src: span}
}

func (*Call) node() {}

// Type of the value computed by the call.
func (x *Call) Type() Type { return x.Typ }

// Source returns the span of the call.
func (x *Call) Source() Span { return x.Src }

// Attr returns the value of a keyword argument and whether it is set.
func (x *Call) Attr(name string) (any, bool) {
	for _, attr := range x.Attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return nil, false
}

// FuncCallee returns the callee as a function reference, or nil if
// the call targets a primitive operation.
func (x *Call) FuncCallee() *GlobalVar {
	gvar, _ := x.Callee.(*GlobalVar)
	return gvar
}

// NewMakeTuple returns a tuple construction over elements.
func NewMakeTuple(elems []Expr, span Span) *MakeTuple {
	return &MakeTuple{Elems: elems, Src: span}
}

func (*MakeTuple) node() {}

// Type of the tuple.
func (x *MakeTuple) Type() Type {
	types := make([]Type, len(x.Elems))
	for i, elem := range x.Elems {
		types[i] = elem.Type()
	}
	return Tuple(types...)
}

// Source returns the span of the tuple construction.
func (x *MakeTuple) Source() Span { return x.Src }

// NewTupleGetItem returns the selection of one tuple element.
func NewTupleGetItem(tuple Expr, index int, span Span) *TupleGetItem {
	return &TupleGetItem{Tuple: tuple, Index: index, Src: span}
}

func (*TupleGetItem) node() {}

// Type of the selected element.
func (x *TupleGetItem) Type() Type {
	tupleType, ok := x.Tuple.Type().(*TupleType)
	if !ok || x.Index < 0 || x.Index >= len(tupleType.Types) {
		return &UnknownType{}
	}
	return tupleType.Types[x.Index]
}

// Source returns the span of the selection.
func (x *TupleGetItem) Source() Span { return x.Src }
