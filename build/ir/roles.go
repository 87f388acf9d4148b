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

// ParamRole classifies how an InCore function parameter moves data
// between global memory and on-chip buffers.
type ParamRole int

const (
	// RoleData is a parameter with no load or store attached to it.
	RoleData ParamRole = iota
	// RoleIncast is a tensor parameter read on chip by a block.load.
	RoleIncast
	// RoleOutcast is a tensor parameter written back by a block.store.
	RoleOutcast
)

// String returns the name of the role.
func (r ParamRole) String() string {
	switch r {
	case RoleIncast:
		return "incast"
	case RoleOutcast:
		return "outcast"
	}
	return "data"
}

// InferParamRoles classifies the parameters of a function from its
// body. A parameter appearing as the source of a block.load is an
// incast; one appearing as the destination of a block.store is an
// outcast. A parameter doing both keeps the role seen last in body
// order. Parameter names are assumed unique within a function.
func InferParamRoles(fn *Func) map[*Var]ParamRole {
	roles := make(map[*Var]ParamRole, len(fn.Params))
	byName := make(map[string]*Var, len(fn.Params))
	for _, param := range fn.Params {
		roles[param] = RoleData
		byName[param.Name] = param
	}
	mark := func(arg Expr, role ParamRole) {
		ref, ok := arg.(*Var)
		if !ok {
			return
		}
		param, ok := byName[ref.Name]
		if !ok {
			return
		}
		roles[param] = role
	}
	VisitCalls(fn, func(call *Call) {
		switch call.Callee.CalleeName() {
		case "block.load":
			if len(call.Args) > 0 {
				mark(call.Args[0], RoleIncast)
			}
		case "block.store":
			if len(call.Args) > 3 {
				mark(call.Args[3], RoleOutcast)
			}
		}
	})
	return roles
}
