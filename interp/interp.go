// Package interp tree-walks a parsed MiniPar program directly, without
// going through TAC or an assembly backend. It exists alongside armgen as
// the fast, no-toolchain way to run a program and capture its output.
package interp

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/minipar-lang/miniparc/ast"
)

type arrayValue struct {
	Dims []int
	Data []Value
	Type string
}

type funcInfo struct {
	Params  []ast.Param
	RetType string
	Body    []ast.Stmt
}

type channel struct {
	Endpoint1 string
	Endpoint2 string
	Queue     []Value
}

// defaultMaxLoopIterations bounds a While/For that never reaches its exit
// condition, matching config.Config.Interpreter.MaxLoopIterations's default.
const defaultMaxLoopIterations = 1000000

// Interpreter holds all mutable state for one program execution: the
// scalar and array stores, the function table, open channels, and the
// accumulated output. State persists across Run calls, so reusing one
// Interpreter continues the same session (the REPL relies on this); New
// returns one ready to use.
type Interpreter struct {
	vars         map[string]Value
	arrays       map[string]*arrayValue
	funcs        map[string]funcInfo
	channels     map[string]*channel
	output       []string
	inputQueue   []string
	inputIndex   int
	maxLoopIters int
}

func New() *Interpreter {
	return &Interpreter{
		vars:         map[string]Value{},
		arrays:       map[string]*arrayValue{},
		funcs:        map[string]funcInfo{},
		channels:     map[string]*channel{},
		maxLoopIters: defaultMaxLoopIterations,
	}
}

// SetMaxLoopIterations overrides the per-loop iteration cap a runaway
// While/For is stopped at. n <= 0 is ignored (the default stands).
func (it *Interpreter) SetMaxLoopIterations(n int) {
	if n > 0 {
		it.maxLoopIters = n
	}
}

// SetInput seeds the queue LEIA reads from, one value per non-blank line.
func (it *Interpreter) SetInput(input string) {
	it.inputQueue = nil
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			it.inputQueue = append(it.inputQueue, line)
		}
	}
	it.inputIndex = 0
}

// Output joins everything ESCREVA has produced so far, one line each.
func (it *Interpreter) Output() string {
	return strings.Join(it.output, "\n")
}

// Vars returns a snapshot of the scalar variable store, for a REPL or TUI
// to inspect between statements.
func (it *Interpreter) Vars() map[string]Value {
	out := make(map[string]Value, len(it.vars))
	for k, v := range it.vars {
		out[k] = v
	}
	return out
}

// ArrayNames returns the names of every declared array, for a REPL or TUI
// to inspect between statements.
func (it *Interpreter) ArrayNames() []string {
	names := make([]string, 0, len(it.arrays))
	for k := range it.arrays {
		names = append(names, k)
	}
	return names
}

// Run executes prog's top-level statements and returns the accumulated
// output. Function declarations are registered in a first pass so a
// function can call another declared later in the same program.
func (it *Interpreter) Run(prog *ast.Program) string {
	for _, stmt := range prog.Body {
		if fd, ok := stmt.(*ast.FuncDecl); ok {
			it.registerFunc(fd)
		}
	}
	for _, stmt := range prog.Body {
		if _, ok := stmt.(*ast.FuncDecl); ok {
			continue
		}
		it.execStmt(stmt)
	}
	return it.Output()
}

func (it *Interpreter) registerFunc(f *ast.FuncDecl) {
	it.funcs[f.Name] = funcInfo{Params: f.Params, RetType: f.RetType, Body: f.Body}
}

// execBlock runs stmts in order, stopping as soon as one of them hits a
// RETURN, and bubbling that value (and the fact a return happened) up to
// the caller so enclosing If/While/For/SeqBlock stop too.
func (it *Interpreter) execBlock(stmts []ast.Stmt) (Value, bool) {
	for _, s := range stmts {
		if v, didReturn := it.execStmt(s); didReturn {
			return v, true
		}
	}
	return Value{}, false
}

func (it *Interpreter) execStmt(stmt ast.Stmt) (Value, bool) {
	switch s := stmt.(type) {
	case *ast.SeqBlock:
		return it.execBlock(s.Body)
	case *ast.ParBlock:
		it.execPar(s)
		return Value{}, false
	case *ast.VarDecl:
		it.vars[s.Name] = ZeroValue(s.Type)
		return Value{}, false
	case *ast.ArrayDecl:
		it.declareArray(s)
		return Value{}, false
	case *ast.Channel:
		it.channels[s.Name] = &channel{Endpoint1: s.Endpoint1, Endpoint2: s.Endpoint2}
		return Value{}, false
	case *ast.FuncDecl:
		it.registerFunc(s)
		return Value{}, false
	case *ast.Return:
		if s.Expr == nil {
			return Value{}, true
		}
		return it.eval(s.Expr), true
	case *ast.Assign:
		it.vars[s.Name] = it.eval(s.Expr)
		return Value{}, false
	case *ast.ArrayAssign:
		it.execArrayAssign(s)
		return Value{}, false
	case *ast.If:
		if it.eval(s.Cond).Truthy() {
			return it.execBlock(s.Then)
		}
		if s.Else != nil {
			return it.execBlock(s.Else)
		}
		return Value{}, false
	case *ast.While:
		n := 0
		for it.eval(s.Cond).Truthy() {
			if n >= it.maxLoopIters {
				it.reportLoopCapExceeded(s.Cond)
				break
			}
			if v, didReturn := it.execBlock(s.Body); didReturn {
				return v, true
			}
			n++
		}
		return Value{}, false
	case *ast.For:
		lo := it.eval(s.Lo).I
		hi := it.eval(s.Hi).I
		it.vars[s.Var] = IntValue(lo)
		n := 0
		for it.vars[s.Var].I <= hi {
			if n >= it.maxLoopIters {
				it.output = append(it.output, fmt.Sprintf("Erro: loop de '%s' excedeu %d iterações", s.Var, it.maxLoopIters))
				break
			}
			if v, didReturn := it.execBlock(s.Body); didReturn {
				return v, true
			}
			it.vars[s.Var] = IntValue(it.vars[s.Var].I + 1)
			n++
		}
		return Value{}, false
	case *ast.Read:
		it.execRead(s)
		return Value{}, false
	case *ast.Write:
		it.execWrite(s)
		return Value{}, false
	case *ast.Send:
		it.execSend(s)
		return Value{}, false
	case *ast.Receive:
		it.execReceive(s)
		return Value{}, false
	case *ast.ExprStmt:
		it.eval(s.Expr)
		return Value{}, false
	}
	return Value{}, false
}

// reportLoopCapExceeded emits the diagnostic line for a While that hit
// the iteration cap, naming the condition's control variable purely for
// a more readable message — it never feeds back into control flow.
func (it *Interpreter) reportLoopCapExceeded(cond ast.Expr) {
	name := "?"
	if bin, ok := cond.(*ast.BinOp); ok {
		if id, ok := bin.L.(*ast.Id); ok {
			name = id.Name
		} else if id, ok := bin.R.(*ast.Id); ok {
			name = id.Name
		}
	}
	it.output = append(it.output, fmt.Sprintf("Erro: loop de '%s' excedeu %d iterações", name, it.maxLoopIters))
}

// execPar runs each top-level child of the PAR block as its own worker
// over a private copy of program state, then merges the workers' output
// back in round-robin order (the original's thread-based interleave) and
// folds their variable writes back in declaration order, last writer
// wins, so the merge is deterministic regardless of goroutine scheduling.
func (it *Interpreter) execPar(block *ast.ParBlock) {
	base := it.Vars()
	baseArrays := make(map[string]*arrayValue, len(it.arrays))
	for k, v := range it.arrays {
		baseArrays[k] = v
	}
	workers := make([]*Interpreter, len(block.Body))
	var wg sync.WaitGroup
	for i, worker := range block.Body {
		sub := it.fork()
		workers[i] = sub
		wg.Add(1)
		go func(sub *Interpreter, stmt ast.Stmt) {
			defer wg.Done()
			sub.execStmt(stmt)
		}(sub, worker)
	}
	wg.Wait()

	maxLen := 0
	for _, w := range workers {
		if len(w.output) > maxLen {
			maxLen = len(w.output)
		}
	}
	for i := 0; i < maxLen; i++ {
		for _, w := range workers {
			if i < len(w.output) {
				it.output = append(it.output, w.output[i])
			}
		}
	}
	for _, w := range workers {
		for name, v := range w.vars {
			if old, ok := base[name]; !ok || old != v {
				it.vars[name] = v
			}
		}
		for name, a := range w.arrays {
			old, ok := baseArrays[name]
			changed := !ok || len(old.Data) != len(a.Data)
			for i := 0; !changed && i < len(a.Data); i++ {
				changed = old.Data[i] != a.Data[i]
			}
			if changed {
				it.arrays[name] = a
			}
		}
	}
}

func (it *Interpreter) fork() *Interpreter {
	sub := New()
	for k, v := range it.vars {
		sub.vars[k] = v
	}
	for k, v := range it.arrays {
		cp := *v
		cp.Data = append([]Value(nil), v.Data...)
		sub.arrays[k] = &cp
	}
	for k, v := range it.funcs {
		sub.funcs[k] = v
	}
	for k, v := range it.channels {
		cp := *v
		cp.Queue = append([]Value(nil), v.Queue...)
		sub.channels[k] = &cp
	}
	sub.inputQueue = it.inputQueue
	sub.inputIndex = it.inputIndex
	sub.maxLoopIters = it.maxLoopIters
	return sub
}

func (it *Interpreter) declareArray(s *ast.ArrayDecl) {
	total := 1
	for _, d := range s.Dims {
		total *= d
	}
	data := make([]Value, total)
	zero := ZeroValue(s.Type)
	for i := range data {
		data[i] = zero
	}
	it.arrays[s.Name] = &arrayValue{Dims: s.Dims, Data: data, Type: s.Type}
}

// arrayIndex computes a linear offset from multi-dimensional indices,
// row-major (the last dimension varies fastest), growing the backing
// array with zero values if the computed offset runs past its current
// length rather than panicking.
func (it *Interpreter) arrayIndex(name string, indices []ast.Expr) (*arrayValue, int) {
	arr, ok := it.arrays[name]
	if !ok {
		return nil, -1
	}
	idx := make([]int64, len(indices))
	for i, e := range indices {
		idx[i] = it.eval(e).I
	}
	pos := idx[0]
	for i := 1; i < len(idx); i++ {
		pos = pos*int64(arr.Dims[i]) + idx[i]
	}
	if pos < 0 {
		return arr, -1
	}
	for int64(len(arr.Data)) <= pos {
		arr.Data = append(arr.Data, ZeroValue(arr.Type))
	}
	return arr, int(pos)
}

func (it *Interpreter) execArrayAssign(s *ast.ArrayAssign) {
	arr, pos := it.arrayIndex(s.Name, s.Indices)
	if arr == nil || pos < 0 {
		return
	}
	arr.Data[pos] = it.eval(s.Expr)
}

func (it *Interpreter) execWrite(s *ast.Write) {
	var sb strings.Builder
	for _, e := range s.Exprs {
		sb.WriteString(it.eval(e).String())
	}
	it.output = append(it.output, sb.String())
}

// execRead coerces the incoming line to whatever type the variable
// already holds (its declared or implicitly-declared type); a variable
// seen for the first time here becomes INTEIRO when the text is numeric
// without a decimal point, REAL when it is numeric with one, and a string
// otherwise.
func (it *Interpreter) execRead(s *ast.Read) {
	if it.inputIndex >= len(it.inputQueue) {
		if cur, ok := it.vars[s.Name]; ok {
			it.vars[s.Name] = ZeroValue(kindName(cur.Kind))
		}
		return
	}
	text := it.inputQueue[it.inputIndex]
	it.inputIndex++

	cur, known := it.vars[s.Name]
	if !known {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			if strings.Contains(text, ".") {
				it.vars[s.Name] = RealValue(f)
			} else {
				it.vars[s.Name] = IntValue(int64(f))
			}
			return
		}
		it.vars[s.Name] = StrValue(text)
		return
	}
	switch cur.Kind {
	case KindBool:
		low := strings.ToLower(text)
		it.vars[s.Name] = BoolValue(low == "true" || low == "verdadeiro" || low == "1")
	case KindInt:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			n = 0
		}
		it.vars[s.Name] = IntValue(n)
	case KindReal:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			f = 0
		}
		it.vars[s.Name] = RealValue(f)
	default:
		it.vars[s.Name] = StrValue(text)
	}
}

func kindName(k Kind) string {
	switch k {
	case KindReal:
		return "REAL"
	case KindStr:
		return "STRING_TYPE"
	case KindBool:
		return "BOOL"
	default:
		return "INTEIRO"
	}
}

var arithOps = map[string]bool{"+": true, "-": true, "*": true, "/": true}

// execSend evaluates its arguments and appends them to the channel's
// queue, logging a [CLIENT] trace line the way the original logged a
// computador_1/computador_2 handshake.
//
// When Args take the shape (op, a, b[, resultVar]) with op one of the
// arithmetic operators, Send additionally computes a op b immediately
// and, if a fourth identifier argument was given, stores the result
// straight into that variable — the generalized form of the original's
// hardcoded arithmetic channel server.
func (it *Interpreter) execSend(s *ast.Send) {
	ch, ok := it.channels[s.Channel]
	if !ok {
		it.output = append(it.output, fmt.Sprintf("Erro: canal '%s' nao encontrado", s.Channel))
		return
	}

	if len(s.Args) >= 3 {
		if opLit, isStr := s.Args[0].(*ast.Str); isStr && arithOps[opLit.Value] {
			a := it.eval(s.Args[1])
			b := it.eval(s.Args[2])
			result, err := BinOp(opLit.Value, a, b)
			if err != nil {
				result = IntValue(0)
			}
			it.output = append(it.output, fmt.Sprintf("[CLIENT] %s solicita %s %s %s", s.Channel, a.String(), opLit.Value, b.String()))
			ch.Queue = append(ch.Queue, result)
			it.output = append(it.output, fmt.Sprintf("[SERVER] %s responde %s", s.Channel, result.String()))
			if len(s.Args) > 3 {
				if dest, isID := s.Args[3].(*ast.Id); isID {
					it.vars[dest.Name] = result
				}
			}
			return
		}
	}

	values := make([]Value, len(s.Args))
	for i, a := range s.Args {
		values[i] = it.eval(a)
	}
	ch.Queue = append(ch.Queue, values...)

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	it.output = append(it.output, fmt.Sprintf("[CLIENT] %s <- %s", s.Channel, strings.Join(parts, " ")))
}

// execReceive pops up to len(s.Vars) values off the channel's queue into
// the named variables, logging a [SERVER] trace line; a channel that ran
// dry yields zero values, same as a LEIA with no input left.
func (it *Interpreter) execReceive(s *ast.Receive) {
	ch, ok := it.channels[s.Channel]
	if !ok {
		it.output = append(it.output, fmt.Sprintf("Erro: canal '%s' nao encontrado", s.Channel))
		return
	}
	for _, name := range s.Vars {
		var v Value
		if len(ch.Queue) > 0 {
			v, ch.Queue = ch.Queue[0], ch.Queue[1:]
		}
		it.vars[name] = v
	}
	it.output = append(it.output, fmt.Sprintf("[SERVER] %s -> %s", s.Channel, strings.Join(s.Vars, ", ")))
}

// eval evaluates an expression down to a Value. Call expressions run the
// callee over a copy of the caller's scalar store with the parameters
// bound on top: a function can read the caller's variables, and the
// caller's store is restored afterwards, untouched by the callee's writes.
func (it *Interpreter) eval(expr ast.Expr) Value {
	switch e := expr.(type) {
	case *ast.Int:
		return IntValue(e.Value)
	case *ast.Real:
		return RealValue(e.Value)
	case *ast.Bool:
		return BoolValue(e.Value)
	case *ast.Str:
		return StrValue(e.Value)
	case *ast.Id:
		if v, ok := it.vars[e.Name]; ok {
			return v
		}
		it.vars[e.Name] = IntValue(0)
		return it.vars[e.Name]
	case *ast.ArrayRef:
		arr, pos := it.arrayIndex(e.Name, e.Indices)
		if arr == nil || pos < 0 || pos >= len(arr.Data) {
			return ZeroValue("INTEIRO")
		}
		return arr.Data[pos]
	case *ast.BinOp:
		l := it.eval(e.L)
		r := it.eval(e.R)
		v, err := BinOp(e.Op, l, r)
		if err != nil && err != ErrDivByZero {
			it.output = append(it.output, "Erro: "+err.Error())
		}
		return v
	case *ast.UnOp:
		return UnOp(e.Op, it.eval(e.E))
	case *ast.Call:
		args := make([]Value, len(e.Args))
		for i, a := range e.Args {
			args[i] = it.eval(a)
		}
		return it.callFunc(e.Name, args)
	}
	return Value{}
}

func (it *Interpreter) callFunc(name string, args []Value) Value {
	fn, ok := it.funcs[name]
	if !ok {
		return IntValue(0)
	}
	saved := it.vars
	it.vars = make(map[string]Value, len(saved))
	for k, v := range saved {
		it.vars[k] = v
	}
	for i, p := range fn.Params {
		if i < len(args) {
			it.vars[p.Name] = args[i]
		} else {
			it.vars[p.Name] = ZeroValue(p.Type)
		}
	}

	result, didReturn := it.execBlock(fn.Body)
	it.vars = saved
	if !didReturn {
		return ZeroValue(fn.RetType)
	}
	return result
}
