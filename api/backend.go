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

package api

import (
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/visual"
)

// textBackend renders the lowered program in surface syntax.
type textBackend struct{}

func (textBackend) Name() string { return "text" }

func (textBackend) Emit(program *ir.Program) ([]byte, error) {
	return []byte(program.String()), nil
}

// TextBackend returns a backend emitting the program in surface
// syntax.
func TextBackend() Backend { return textBackend{} }

// visualBackend exports the lowered program as a renderable graph.
type visualBackend struct{}

func (visualBackend) Name() string { return "visual" }

func (visualBackend) Emit(program *ir.Program) ([]byte, error) {
	return visual.Export(program)
}

// VisualBackend returns a backend emitting the program as a JSON
// node/edge graph.
func VisualBackend() Backend { return visualBackend{} }
