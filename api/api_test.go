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

package api_test

import (
	"encoding/json"
	"testing"

	"github.com/pto-org/pto/api"
	"github.com/pto-org/pto/build/fmterr"
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/irhelper"
	"github.com/pto-org/pto/build/ir/irkind"
	"github.com/pto-org/pto/build/ir/op"
	"github.com/pto-org/pto/build/passes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func incoreAddProgram(t *testing.T) *ir.Program {
	t.Helper()
	span := ir.UnknownSpan()
	a := irhelper.TensorVar("a", irkind.Float32, 64)
	b := irhelper.TensorVar("b", irkind.Float32, 64)
	add, err := op.Add(a, b, span)
	require.NoError(t, err)
	main := irhelper.Func("main", ir.OrchestrationFunc,
		[]*ir.Var{a, b}, []ir.Type{add.Type()},
		ir.NewScope(ir.ScopeInCore, []ir.Stmt{
			irhelper.Assign("c", add),
		}, span),
		irhelper.Return(irhelper.Var("c", add.Type())),
	)
	return irhelper.Program("p", main)
}

func TestCompileDefaults(t *testing.T) {
	artifact, err := api.Compile(incoreAddProgram(t), api.CompileOptions{})
	require.NoError(t, err)
	assert.Equal(t, "text", artifact.Backend)

	output := string(artifact.Output)
	assert.Contains(t, output, "def main_incore_0")
	assert.Contains(t, output, "block.add")
	assert.Contains(t, output, "tensor.create")
	assert.NotContains(t, output, "incore:")

	_, ok := artifact.Program.Func("main_incore_0")
	assert.True(t, ok, "lowered program misses the outlined kernel")
}

func TestCompileNilProgram(t *testing.T) {
	_, err := api.Compile(nil, api.CompileOptions{})
	require.Error(t, err)
	assert.Equal(t, fmterr.InvalidArgument, fmterr.KindOf(err))
}

func TestCompileVisualBackend(t *testing.T) {
	artifact, err := api.Compile(incoreAddProgram(t), api.CompileOptions{Backend: api.VisualBackend()})
	require.NoError(t, err)
	assert.Equal(t, "visual", artifact.Backend)

	var graph map[string]any
	require.NoError(t, json.Unmarshal(artifact.Output, &graph))
	assert.Equal(t, "p", graph["name"])
}

func TestCompileDumpPasses(t *testing.T) {
	var dumped []string
	_, err := api.Compile(incoreAddProgram(t), api.CompileOptions{
		Verification: passes.VerifyBeforeAndAfter,
		DumpPasses: func(passName string, program *ir.Program) {
			dumped = append(dumped, passName)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ConvertToSSA", "OutlineIncoreScopes", "ConvertTensorToBlockOps"}, dumped)
}

func TestCompileFailureReturnsNoArtifact(t *testing.T) {
	span := ir.UnknownSpan()
	x := irhelper.TensorVar("x", irkind.Float32, 64)
	y := irhelper.TensorVar("y", irkind.Float32, 32)
	assemble, err := op.Assemble(x, y, []int{0}, span)
	require.NoError(t, err)
	main := irhelper.Func("main", ir.OrchestrationFunc,
		[]*ir.Var{x, y}, []ir.Type{assemble.Type()},
		ir.NewScope(ir.ScopeInCore, []ir.Stmt{
			irhelper.Assign("c", assemble),
		}, span),
		irhelper.Return(irhelper.Var("c", assemble.Type())),
	)
	artifact, err := api.Compile(irhelper.Program("p", main), api.CompileOptions{})
	require.Error(t, err)
	assert.Nil(t, artifact)
	assert.Equal(t, fmterr.UnsupportedOperation, fmterr.KindOf(err))
}
