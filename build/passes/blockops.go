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
	"strings"

	"github.com/pto-org/pto/build/fmterr"
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/irkind"
	"github.com/pto-org/pto/build/ir/op"
)

// ConvertTensorToBlockOps returns the pass rewriting every InCore
// function from whole-tensor operations into explicit block-level
// load, compute and store operations. Tensor parameters are loaded
// into tiles at function entry, tensor op calls are rewritten through
// the conversion registry, and tile results are stored into
// synthesized output tensor parameters. Orchestration call sites gain
// a tensor.create plus an extra argument per synthesized output.
func ConvertTensorToBlockOps(registry *ConversionRegistry) Pass {
	return Pass{
		Name: "ConvertTensorToBlockOps",
		Properties: Properties{
			Required: []Property{SplitIncoreOrch},
			Produced: []Property{IncoreBlockOps},
		},
		Transform: func(program *ir.Program) (*ir.Program, error) {
			return convertTensorToBlockOps(program, registry)
		},
	}
}

func convertTensorToBlockOps(program *ir.Program, registry *ConversionRegistry) (*ir.Program, error) {
	addedOutputs := map[string]int{}
	transformed := map[string]*ir.Func{}
	phase1 := make([]*ir.Func, 0, program.Functions.Size())
	for fn := range program.Functions.Values() {
		if fn.Kind != ir.InCoreFunc {
			phase1 = append(phase1, fn)
			continue
		}
		converted, numOutputs, err := transformIncoreFunc(fn, registry)
		if err != nil {
			return nil, err
		}
		addedOutputs[fn.Name] = numOutputs
		transformed[fn.Name] = converted
		phase1 = append(phase1, converted)
	}
	funcs := make([]*ir.Func, 0, len(phase1))
	for _, fn := range phase1 {
		if fn.Kind == ir.InCoreFunc {
			funcs = append(funcs, fn)
			continue
		}
		updated, err := updateCallSites(fn, addedOutputs, transformed, registry)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, updated)
	}
	return ir.NewProgram(program.Name, program.Src, funcs...), nil
}

func zeroOffsets(ndim int, span ir.Span) *ir.MakeTuple {
	zeros := make([]ir.Expr, ndim)
	for i := range zeros {
		zeros[i] = ir.NewConstInt(0, irkind.Int64, span)
	}
	return ir.NewMakeTuple(zeros, span)
}

func shapeTuple(shape []ir.Expr, span ir.Span) *ir.MakeTuple {
	return ir.NewMakeTuple(shape, span)
}

// freshNamer returns a name generator that never collides with a
// name already used in the function.
func freshNamer(fn *ir.Func) func(string) string {
	used := map[string]bool{}
	ir.Visit(fn, func(n ir.Node) bool {
		switch nT := n.(type) {
		case *ir.Var:
			used[nT.Name] = true
		case *ir.IterArg:
			used[nT.Name] = true
		}
		return true
	})
	return func(name string) string {
		if !used[name] {
			used[name] = true
			return name
		}
		for i := 1; ; i++ {
			candidate := fmt.Sprintf("%s_%d", name, i)
			if !used[candidate] {
				used[candidate] = true
				return candidate
			}
		}
	}
}

// isTensorOp reports whether an operation belongs to the tensor-level
// vocabulary the conversion pass must eliminate.
func (r *ConversionRegistry) isTensorOp(opName string) bool {
	if category, ok := r.ops.Category(opName); ok {
		return category == op.TensorOp
	}
	return strings.HasPrefix(opName, "tensor.")
}

func transformIncoreFunc(fn *ir.Func, registry *ConversionRegistry) (*ir.Func, int, error) {
	span := fn.Src
	fresh := freshNamer(fn)
	tensorToTile := map[string]ir.Expr{}
	var newStmts []ir.Stmt

	// Phase 1: load every tensor parameter into a tile.
	for _, param := range fn.Params {
		tensorType, ok := param.Typ.(*ir.TensorType)
		if !ok {
			continue
		}
		offsets := zeroOffsets(len(tensorType.Shape), span)
		shapes := shapeTuple(tensorType.Shape, span)
		attrs := []ir.Attr{{Name: "target_memory", Value: op.UB}}
		loadCall, err := registry.ops.Create("block.load", []ir.Expr{param, offsets, shapes}, attrs, span)
		if err != nil {
			return nil, 0, err
		}
		tileVar := ir.NewVar(param.Name+"_tile", loadCall.Type(), span)
		newStmts = append(newStmts, ir.NewAssign(tileVar, loadCall, span))
		tensorToTile[param.Name] = tileVar
	}

	// Phase 2: rewrite the body statements in order.
	var returnStmt *ir.ReturnStmt
	keepSubstituted := func(assign *ir.AssignStmt) {
		value := SubstituteExpr(assign.Value, tensorToTile)
		if value == assign.Value {
			newStmts = append(newStmts, assign)
			return
		}
		newVar := ir.NewVar(assign.LHS.Name, value.Type(), assign.LHS.Src)
		newStmts = append(newStmts, ir.NewAssign(newVar, value, assign.Src))
		tensorToTile[assign.LHS.Name] = newVar
	}
	for _, stmt := range fn.BodyStmts() {
		if ret, ok := stmt.(*ir.ReturnStmt); ok {
			returnStmt = ret
			continue
		}
		assign, ok := stmt.(*ir.AssignStmt)
		if !ok {
			newStmts = append(newStmts, stmt)
			continue
		}
		call, ok := assign.Value.(*ir.Call)
		if !ok || call.FuncCallee() != nil {
			keepSubstituted(assign)
			continue
		}
		opName := call.Callee.CalleeName()
		if !registry.Has(opName) {
			if registry.isTensorOp(opName) {
				return nil, 0, errUnsupported(opName, call.Src)
			}
			keepSubstituted(assign)
			continue
		}
		args, _ := substituteExprs(call.Args, tensorToTile)
		result, err := registry.Convert(opName, args, call.Attrs, call.Src, fresh)
		if err != nil {
			return nil, 0, err
		}
		newStmts = append(newStmts, result.Prologue...)
		tileVar := ir.NewVar(assign.LHS.Name+"_tile", result.Result.Type(), assign.LHS.Src)
		newStmts = append(newStmts, ir.NewAssign(tileVar, result.Result, assign.Src))
		tensorToTile[assign.LHS.Name] = tileVar
	}

	if returnStmt == nil {
		return nil, 0, fmterr.Errorf(fmterr.PreconditionViolation, span, "InCore function %s has no return statement", fn.Name)
	}

	// Phase 3: store tile results into synthesized output parameters.
	newParams := append([]*ir.Var{}, fn.Params...)
	var newResults []ir.Type
	var newReturns []ir.Expr
	numOutputs := 0
	for i, retExpr := range returnStmt.Results {
		retExpr = SubstituteExpr(retExpr, tensorToTile)
		tileType, ok := retExpr.Type().(*ir.TileType)
		if !ok {
			newResults = append(newResults, retExpr.Type())
			newReturns = append(newReturns, retExpr)
			continue
		}
		origTensor, ok := fn.Results[i].(*ir.TensorType)
		if !ok {
			return nil, 0, fmterr.Errorf(fmterr.TypeMismatch, span,
				"InCore function %s: result %d is %s, expected a tensor type", fn.Name, i, fn.Results[i])
		}
		outName := fmt.Sprintf("out_%d", numOutputs)
		outParam := ir.NewVar(outName, origTensor, span)
		newParams = append(newParams, outParam)
		offsets := zeroOffsets(len(tileType.Shape), span)
		shapes := shapeTuple(tileType.Shape, span)
		storeCall, err := registry.ops.Create("block.store", []ir.Expr{retExpr, offsets, shapes, outParam}, nil, span)
		if err != nil {
			return nil, 0, err
		}
		storeVar := ir.NewVar(outName, storeCall.Type(), span)
		newStmts = append(newStmts, ir.NewAssign(storeVar, storeCall, span))
		newResults = append(newResults, storeCall.Type())
		newReturns = append(newReturns, storeVar)
		numOutputs++
	}
	newStmts = append(newStmts, ir.NewReturn(newReturns, returnStmt.Src))

	newFunc := ir.NewFunc(fn.Name, ir.InCoreFunc, newParams, ir.NewSeq(newStmts, span), newResults, span)
	return newFunc, numOutputs, nil
}

// updateCallSites extends orchestration-level calls of transformed
// InCore functions with their new output tensor arguments. Only
// top-level statements are inspected: outlining produces flat bodies.
func updateCallSites(fn *ir.Func, addedOutputs map[string]int, transformed map[string]*ir.Func, registry *ConversionRegistry) (*ir.Func, error) {
	span := fn.Src
	fresh := freshNamer(fn)
	var newStmts []ir.Stmt
	changed := false
	varMap := map[string]ir.Expr{}

	keepOrRebind := func(assign *ir.AssignStmt, value ir.Expr) {
		if value == assign.Value {
			newStmts = append(newStmts, assign)
			return
		}
		newVar := ir.NewVar(assign.LHS.Name, value.Type(), assign.LHS.Src)
		newStmts = append(newStmts, ir.NewAssign(newVar, value, assign.Src))
		varMap[assign.LHS.Name] = newVar
		changed = true
	}

	for _, stmt := range fn.BodyStmts() {
		if ret, ok := stmt.(*ir.ReturnStmt); ok {
			results, resultsChanged := substituteExprs(ret.Results, varMap)
			if resultsChanged {
				newStmts = append(newStmts, ir.NewReturn(results, ret.Src))
			} else {
				newStmts = append(newStmts, stmt)
			}
			continue
		}
		assign, ok := stmt.(*ir.AssignStmt)
		if !ok {
			newStmts = append(newStmts, stmt)
			continue
		}
		value := SubstituteExpr(assign.Value, varMap)
		call, ok := value.(*ir.Call)
		if !ok {
			keepOrRebind(assign, value)
			continue
		}
		callee := call.FuncCallee()
		if callee == nil || addedOutputs[callee.Name] == 0 {
			keepOrRebind(assign, value)
			continue
		}

		// The call targets a transformed InCore function: materialize
		// its output tensors and pass them as extra arguments.
		incoreFunc := transformed[callee.Name]
		numOutputs := addedOutputs[callee.Name]
		origParamCount := len(incoreFunc.Params) - numOutputs
		extraArgs := make([]ir.Expr, 0, numOutputs)
		for i := 0; i < numOutputs; i++ {
			outParam := incoreFunc.Params[origParamCount+i]
			outTensor, ok := outParam.Typ.(*ir.TensorType)
			if !ok {
				return nil, fmterr.Errorf(fmterr.TypeMismatch, span,
					"function %s: output parameter %s is %s, expected a tensor type", callee.Name, outParam.Name, outParam.Typ)
			}
			createAttrs := []ir.Attr{{Name: "dtype", Value: outTensor.Knd}}
			createCall, err := registry.ops.Create("tensor.create", []ir.Expr{shapeTuple(outTensor.Shape, span)}, createAttrs, span)
			if err != nil {
				return nil, err
			}
			outVar := ir.NewVar(fresh(fmt.Sprintf("out_%d", i)), createCall.Type(), span)
			newStmts = append(newStmts, ir.NewAssign(outVar, createCall, span))
			extraArgs = append(extraArgs, outVar)
		}

		newArgs := append(append([]ir.Expr{}, call.Args...), extraArgs...)
		var newType ir.Type
		switch len(incoreFunc.Results) {
		case 0:
			newType = &ir.VoidType{}
		case 1:
			newType = incoreFunc.Results[0]
		default:
			newType = ir.Tuple(incoreFunc.Results...)
		}
		newCall := ir.NewCall(call.Callee, newArgs, call.Attrs, newType, call.Src)
		newVar := ir.NewVar(assign.LHS.Name, newType, assign.LHS.Src)
		newStmts = append(newStmts, ir.NewAssign(newVar, newCall, assign.Src))
		varMap[assign.LHS.Name] = newVar
		changed = true
	}

	if !changed {
		return fn, nil
	}
	return ir.NewFunc(fn.Name, fn.Kind, fn.Params, ir.NewSeq(newStmts, span), fn.Results, span), nil
}
