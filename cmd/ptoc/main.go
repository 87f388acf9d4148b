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

// ptoc lowers a demo tensor program through the pass pipeline and
// prints the program after each pass.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pto-org/pto/api"
	"github.com/pto-org/pto/build/ir"
	"github.com/pto-org/pto/build/ir/irhelper"
	"github.com/pto-org/pto/build/ir/irkind"
	"github.com/pto-org/pto/build/ir/op"
	"github.com/pto-org/pto/build/passes"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var (
	flagVerbose = flag.Int("verbose", 0, "log verbosity")
	flagBackend = flag.String("backend", "text", "backend emitting the final artifact (text or visual)")
	flagDump    = flag.Bool("dump", true, "print the program after each pass")
)

func main() {
	flag.Parse()
	commonlog.Configure(*flagVerbose, nil)
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("ptoc: %v", err))
		os.Exit(1)
	}
}

func run() error {
	program, err := demoProgram()
	if err != nil {
		return err
	}

	heading := color.New(color.FgCyan, color.Bold)
	heading.Println("== source ==")
	fmt.Println(program.String())

	opts := api.CompileOptions{Verification: passes.VerifyAfter}
	if *flagDump {
		opts.DumpPasses = func(passName string, program *ir.Program) {
			heading.Printf("== after %s ==\n", passName)
			fmt.Println(program.String())
		}
	}
	switch *flagBackend {
	case "text":
		opts.Backend = api.TextBackend()
	case "visual":
		opts.Backend = api.VisualBackend()
	default:
		return fmt.Errorf("unknown backend %q", *flagBackend)
	}

	artifact, err := api.Compile(program, opts)
	if err != nil {
		return err
	}
	heading.Printf("== %s artifact ==\n", artifact.Backend)
	fmt.Println(string(artifact.Output))
	return nil
}

// demoProgram builds a softmax-flavored orchestration function with
// one incore scope, the shape of program the pipeline is made for.
func demoProgram() (*ir.Program, error) {
	x := irhelper.TensorVar("x", irkind.Float32, 64, 64)
	span := ir.UnknownSpan()

	rowMax, err := op.RowMax(x, span)
	if err != nil {
		return nil, err
	}
	shifted, err := op.Sub(x, irhelper.Var("m", rowMax.Type()), span)
	if err != nil {
		return nil, err
	}
	exp, err := op.Exp(irhelper.Var("shifted", shifted.Type()), span)
	if err != nil {
		return nil, err
	}
	rowSum, err := op.RowSum(irhelper.Var("e", exp.Type()), span)
	if err != nil {
		return nil, err
	}
	out, err := op.Div(irhelper.Var("e", exp.Type()), irhelper.Var("s", rowSum.Type()), span)
	if err != nil {
		return nil, err
	}

	scope := ir.NewScope(ir.ScopeInCore, []ir.Stmt{
		irhelper.Assign("m", rowMax),
		irhelper.Assign("shifted", shifted),
		irhelper.Assign("e", exp),
		irhelper.Assign("s", rowSum),
		irhelper.Assign("out", out),
	}, span)

	fn := irhelper.Func("softmax", ir.OrchestrationFunc,
		[]*ir.Var{x}, []ir.Type{out.Type()},
		scope,
		irhelper.Return(irhelper.Var("out", out.Type())),
	)
	return irhelper.Program("demo", fn), nil
}
