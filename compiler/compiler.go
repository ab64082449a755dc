// Package compiler drives MiniPar source through the full pipeline —
// lexer, parser, semantic analysis, three-address code, ARM codegen, and
// the tree-walking interpreter — and collects the results of each stage
// for a caller (CLI, REPL, or test) to inspect.
package compiler

import (
	"github.com/minipar-lang/miniparc/armgen"
	"github.com/minipar-lang/miniparc/ast"
	"github.com/minipar-lang/miniparc/config"
	"github.com/minipar-lang/miniparc/interp"
	"github.com/minipar-lang/miniparc/lexer"
	"github.com/minipar-lang/miniparc/parser"
	"github.com/minipar-lang/miniparc/sema"
	"github.com/minipar-lang/miniparc/tac"
	"github.com/minipar-lang/miniparc/token"
)

// CompileResult carries every artifact produced while compiling a MiniPar
// program, stopping before execution. A later stage's field is nil/empty
// if an earlier stage failed.
type CompileResult struct {
	Tokens      []token.Token
	AST         *ast.Program
	TAC         *tac.Program
	Assembly    string
	Diagnostics []string
}

// OK reports whether compilation produced no diagnostics at any stage.
func (r *CompileResult) OK() bool {
	return len(r.Diagnostics) == 0
}

// Compile runs source through lexing, parsing, semantic analysis, TAC
// generation, and ARM assembly generation. It never executes the
// program — see Execute for that.
func Compile(source string, cfg *config.Config) *CompileResult {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	result := &CompileResult{}

	result.Tokens = lexer.All(source)

	prog, errs := parser.Parse(source)
	if errs.HasErrors() {
		result.Diagnostics = append(result.Diagnostics, errs.Strings()...)
		return result
	}
	result.AST = prog

	if semaErrs := sema.Analyze(prog); len(semaErrs) > 0 {
		result.Diagnostics = append(result.Diagnostics, semaErrs...)
		return result
	}

	tacProg := tac.Generate(prog)
	result.TAC = tacProg

	result.Assembly = armgen.GenerateWithInterval(prog, tacProg, cfg.Compiler.LtorgInterval)

	return result
}

// ExecutionResult carries the outcome of running a MiniPar program through
// the interpreter, plus the compile-time artifacts produced along the way.
type ExecutionResult struct {
	*CompileResult
	Output string
}

// Execute compiles source and, if it compiles cleanly, interprets it with
// input supplied as newline-separated canned answers to LEIA statements.
func Execute(source string, input string, cfg *config.Config) *ExecutionResult {
	compileResult := Compile(source, cfg)
	result := &ExecutionResult{CompileResult: compileResult}
	if !compileResult.OK() {
		return result
	}

	it := interp.New()
	it.SetInput(input)
	it.SetMaxLoopIterations(cfg.Interpreter.MaxLoopIterations)
	result.Output = it.Run(compileResult.AST)
	return result
}
