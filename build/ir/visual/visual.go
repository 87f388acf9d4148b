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

// Package visual exports a program as a node/edge graph for
// rendering. Node identities are integers assigned once per export,
// monotonically increasing and shared across all functions, so edges
// can cross function boundaries.
package visual

import (
	"encoding/json"

	"github.com/pto-org/pto/build/ir"
)

// Graph is the exported form of a program.
type Graph struct {
	Name      string       `json:"name"`
	Functions []*FuncGraph `json:"functions"`
}

// FuncGraph is the exported form of one function.
type FuncGraph struct {
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// Node is one vertex of the graph.
type Node struct {
	ID    int    `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Type  string `json:"type,omitempty"`
	Role  string `json:"role,omitempty"`
	Value string `json:"value,omitempty"`
	// Target names the function a subgraph node calls into.
	Target string `json:"target,omitempty"`
}

// Edge is one data-flow arc, ordered by argument index.
type Edge struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Index int `json:"index"`
}

// Export renders a program as an indented JSON graph.
func Export(program *ir.Program) ([]byte, error) {
	e := &exporter{}
	graph := &Graph{Name: program.Name}
	for fn := range program.Functions.Values() {
		graph.Functions = append(graph.Functions, e.exportFunc(fn))
	}
	return json.MarshalIndent(graph, "", "  ")
}

type exporter struct {
	nextID int
}

func (e *exporter) id() int {
	id := e.nextID
	e.nextID++
	return id
}

func (e *exporter) exportFunc(fn *ir.Func) *FuncGraph {
	fg := &FuncGraph{Name: fn.Name, Kind: fn.Kind.String()}
	// Node id of the current binding of each variable name.
	bindings := map[string]int{}

	roles := ir.InferParamRoles(fn)
	for _, param := range fn.Params {
		node := &Node{
			ID:    e.id(),
			Kind:  "param",
			Label: param.Name,
			Type:  param.Typ.String(),
			Role:  roles[param].String(),
		}
		fg.Nodes = append(fg.Nodes, node)
		bindings[param.Name] = node.ID
	}

	for _, stmt := range fn.BodyStmts() {
		switch s := stmt.(type) {
		case *ir.AssignStmt:
			id := e.exportExpr(fg, s.Value, bindings)
			bindings[s.LHS.Name] = id
		case *ir.EvalStmt:
			e.exportExpr(fg, s.X, bindings)
		case *ir.ReturnStmt:
			out := &Node{ID: e.id(), Kind: "output", Label: "return"}
			fg.Nodes = append(fg.Nodes, out)
			for i, result := range s.Results {
				from := e.exportExpr(fg, result, bindings)
				fg.Edges = append(fg.Edges, &Edge{From: from, To: out.ID, Index: i})
			}
		}
	}
	return fg
}

// exportExpr adds the nodes of an expression to the graph and returns
// the node id producing its value.
func (e *exporter) exportExpr(fg *FuncGraph, expr ir.Expr, bindings map[string]int) int {
	switch x := expr.(type) {
	case *ir.Var:
		if id, ok := bindings[x.Name]; ok {
			return id
		}
		node := &Node{ID: e.id(), Kind: "var", Label: x.Name, Type: x.Typ.String()}
		fg.Nodes = append(fg.Nodes, node)
		bindings[x.Name] = node.ID
		return node.ID
	case *ir.Call:
		node := &Node{ID: e.id(), Kind: "op", Label: x.Callee.CalleeName(), Type: x.Typ.String()}
		if callee := x.FuncCallee(); callee != nil {
			node.Kind = "subgraph"
			node.Target = callee.Name
		}
		fg.Nodes = append(fg.Nodes, node)
		for i, arg := range x.Args {
			from := e.exportExpr(fg, arg, bindings)
			fg.Edges = append(fg.Edges, &Edge{From: from, To: node.ID, Index: i})
		}
		return node.ID
	case *ir.MakeTuple:
		node := &Node{ID: e.id(), Kind: "tuple", Label: x.String()}
		fg.Nodes = append(fg.Nodes, node)
		return node.ID
	case *ir.TupleGetItem:
		node := &Node{ID: e.id(), Kind: "op", Label: "getitem", Type: x.Type().String()}
		fg.Nodes = append(fg.Nodes, node)
		from := e.exportExpr(fg, x.Tuple, bindings)
		fg.Edges = append(fg.Edges, &Edge{From: from, To: node.ID, Index: 0})
		return node.ID
	default:
		node := &Node{ID: e.id(), Kind: "const", Label: expr.String(), Value: expr.String(), Type: expr.Type().String()}
		fg.Nodes = append(fg.Nodes, node)
		return node.ID
	}
}
