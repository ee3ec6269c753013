// This file is part of pl0c.
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

// Command pl0c compiles and runs a PL/0C source program (spec.md §6):
//
//	pl0c [-v] [-] [sourcefile]
//
// This is the out-of-scope "driver glue" of spec.md §1: command-line
// parsing, file opening, and diagnostic printing, wired here the way the
// teacher's cmd/retro/main.go wires flag parsing, VM construction and
// atExit-style error reporting around its core packages.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/pl0c-lang/pl0c/code"
	"github.com/pl0c-lang/pl0c/compiler"
	"github.com/pl0c-lang/pl0c/internal/diag"
	"github.com/pl0c-lang/pl0c/lexer"
	"github.com/pl0c-lang/pl0c/symtab"
	"github.com/pl0c-lang/pl0c/vm"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pl0c", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.BoolP("verbose", "v", false, "enable verbose tracing (token, emit, patch and register events)")
	disasm := fs.Bool("disasm", false, "print a disassembly of the compiled program instead of running it")
	dump := fs.Bool("dump", false, "dump final register state and the data stack after the run, including a failed one")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	var (
		name string
		src  io.Reader
	)
	switch {
	case len(rest) == 0:
		name, src = "-", os.Stdin
	case rest[0] == "-":
		name, src = "-", os.Stdin
	case len(rest) == 1:
		f, err := os.Open(rest[0])
		if err != nil {
			fmt.Fprintf(stderr, "pl0c: %s\n", errors.Wrap(err, "could not open source file"))
			return 1
		}
		defer f.Close()
		name, src = rest[0], f
	default:
		fmt.Fprintln(stderr, "usage: pl0c [-v] [-] [sourcefile]")
		return 2
	}

	var trace func(format string, args ...interface{})
	if *verbose {
		trace = func(format string, args ...interface{}) {
			fmt.Fprintf(stderr, format+"\n", args...)
		}
	}

	sink := diag.NewSink(name)

	lex := lexer.New(name, src)
	lex.Trace = lexer.Tracer(trace)

	sym := symtab.New()
	comp := compiler.New(lex, sym, sink)
	comp.SetTrace(compiler.Tracer(trace))

	program := comp.Compile()

	if err := lex.Err(); err != nil {
		sink.Error("%s", err)
	}

	if sink.Count() > 0 {
		sink.Print(stderr)
		return sink.ExitCode()
	}

	if *disasm {
		code.Disassemble(stdout, program)
		return 0
	}

	machine := vm.New(program, vm.WithStackSize(512), vm.WithTrace(vm.Tracer(trace)))
	runErr := machine.Run()
	if *dump {
		machine.Dump(stderr)
	}
	if runErr != nil {
		fmt.Fprintf(stderr, "%s: %s\n", name, runErr)
		return 1
	}
	return 0
}
