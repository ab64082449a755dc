// Package armgen lowers three-address code into ARMv7 assembly text in
// the no-libc, CPUlator-compatible shape the original toolchain targeted:
// WRITE/READ are emitted as comments rather than printf/scanf calls, and
// the program ends in an infinite branch instead of an exit syscall.
// Generating machine code or linking/running the result is out of scope;
// see DESIGN.md for why the original's encoder/loader/vm packages aren't
// wired here.
package armgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minipar-lang/miniparc/ast"
	"github.com/minipar-lang/miniparc/tac"
)

// ltorgInterval matches the original generator's periodic literal-pool
// flush, keeping PC-relative `ldr =literal` loads within their 4KB reach.
const ltorgInterval = 25

type arrayInfo struct {
	Dims      []int
	TotalSize int // element count, product of Dims
}

// frame is one function's (or the top level program's) local stack
// layout. Each function gets its own offset counter and its own
// sub/add sp pair sized to what it actually allocated, rather than one
// counter shared by the whole program with a single stack adjustment
// computed before any function ran: that would let a later function's
// locals land below a stack pointer that was never moved to cover them.
type frame struct {
	locations  map[string]int
	nextOffset int
}

func newFrame() *frame { return &frame{locations: map[string]int{}} }

func (f *frame) locate(name string) int {
	if off, ok := f.locations[name]; ok {
		return off
	}
	f.nextOffset -= 4
	f.locations[name] = f.nextOffset
	return f.nextOffset
}

func (f *frame) reserveArray(name string, elems int) int {
	if off, ok := f.locations[name]; ok {
		return off
	}
	f.nextOffset -= elems * 4
	f.locations[name] = f.nextOffset
	return f.nextOffset
}

func (f *frame) size() int { return -f.nextOffset }

// Generator renders a tac.Program as ARMv7 assembly text.
type Generator struct {
	arrays     map[string]arrayInfo
	stringLits map[string]bool
	floatLits  map[string]bool
	data       []string
	divCounter int
	ltorgEvery int
}

// Generate lowers prog/tacProg into a complete assembly listing: a .text
// section (the _start entry point followed by each user function) and a
// .data section holding string and float literals. Literal pools are
// flushed every ltorgInterval instructions.
func Generate(prog *ast.Program, tacProg *tac.Program) string {
	return GenerateWithInterval(prog, tacProg, ltorgInterval)
}

// GenerateWithInterval is Generate with the literal-pool flush cadence
// overridden, letting config.Config.Compiler.LtorgInterval drive codegen
// instead of the original's fixed constant.
func GenerateWithInterval(prog *ast.Program, tacProg *tac.Program, interval int) string {
	if interval <= 0 {
		interval = ltorgInterval
	}
	g := &Generator{
		arrays:     collectArrays(prog),
		stringLits: map[string]bool{},
		floatLits:  map[string]bool{},
		ltorgEvery: interval,
	}

	var text []string
	text = append(text, ".global _start", "_start:", "    mov fp, sp")

	mainFrame := newFrame()
	body := g.lowerBlock(tacProg.Code, mainFrame)
	if mainFrame.size() > 0 {
		text = append(text, fmt.Sprintf("    sub sp, sp, #%d", mainFrame.size()))
	}
	text = append(text, body...)
	if mainFrame.size() > 0 {
		text = append(text, fmt.Sprintf("    add sp, sp, #%d", mainFrame.size()))
	}
	text = append(text, "END:", "    B .")

	for _, name := range tacProg.FuncOrder {
		text = append(text, "", name+":", "    push {fp, lr}", "    mov fp, sp")
		fnFrame := newFrame()
		fnBody := g.lowerFunction(tacProg.Functions[name], fnFrame)
		if fnFrame.size() > 0 {
			text = append(text, fmt.Sprintf("    sub sp, sp, #%d", fnFrame.size()))
		}
		text = append(text, fnBody...)
		if fnFrame.size() > 0 {
			text = append(text, fmt.Sprintf("    add sp, sp, #%d", fnFrame.size()))
		}
		text = append(text, "    pop {fp, pc}")
	}

	var out []string
	out = append(out, ".text")
	out = append(out, text...)
	out = append(out, "", ".ltorg", "", ".data")
	out = append(out, g.data...)
	return strings.Join(out, "\n") + "\n"
}

// collectArrays walks prog for every ArrayDecl, anywhere in its nesting,
// recording each array's dimensions and total element count.
func collectArrays(prog *ast.Program) map[string]arrayInfo {
	arrays := map[string]arrayInfo{}
	var walkStmts func([]ast.Stmt)
	walkStmts = func(stmts []ast.Stmt) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case *ast.ArrayDecl:
				total := 1
				for _, d := range s.Dims {
					total *= d
				}
				arrays[s.Name] = arrayInfo{Dims: s.Dims, TotalSize: total}
			case *ast.SeqBlock:
				walkStmts(s.Body)
			case *ast.ParBlock:
				walkStmts(s.Body)
			case *ast.If:
				walkStmts(s.Then)
				walkStmts(s.Else)
			case *ast.While:
				walkStmts(s.Body)
			case *ast.For:
				walkStmts(s.Body)
			case *ast.FuncDecl:
				walkStmts(s.Body)
			}
		}
	}
	walkStmts(prog.Body)
	return arrays
}

// lowerFunction lowers a function body, additionally wiring PARAM
// instructions to the incoming 4-register-then-stack calling convention:
// the first four parameters arrive in r0-r3, and any beyond that were
// pushed by the caller and sit above the callee's saved {fp, lr}.
func (g *Generator) lowerFunction(instrs []tac.Instruction, f *frame) []string {
	var out []string
	paramIndex := 0
	count := 0
	for _, in := range instrs {
		if count > 0 && count%g.ltorgEvery == 0 {
			out = append(out, "    .ltorg")
		}
		count++

		if in.Op == "PARAM" {
			name := in.Args[0]
			loc := f.locate(name)
			if paramIndex < 4 {
				out = append(out, fmt.Sprintf("    str r%d, %s", paramIndex, formatLoc(loc)))
			} else {
				stackOff := (paramIndex-4)*4 + 8
				out = append(out, fmt.Sprintf("    ldr r4, [fp, #%d]", stackOff))
				out = append(out, fmt.Sprintf("    str r4, %s", formatLoc(loc)))
			}
			paramIndex++
			continue
		}
		out = append(out, g.lowerOne(in, f)...)
	}
	return out
}

func (g *Generator) lowerBlock(instrs []tac.Instruction, f *frame) []string {
	var out []string
	count := 0
	for _, in := range instrs {
		if count > 0 && count%g.ltorgEvery == 0 {
			out = append(out, "    .ltorg")
		}
		count++
		out = append(out, g.lowerOne(in, f)...)
	}
	return out
}

func (g *Generator) lowerOne(in tac.Instruction, f *frame) []string {
	switch in.Op {
	case "START_PROGRAM", "END_PROGRAM", "FUNC_BEGIN", "PARAM":
		return nil
	case "FUNC_END":
		return []string{"    @ FUNC_END " + in.Args[0]}
	case "RETURN":
		var lines []string
		if len(in.Args) > 0 {
			lines = append(lines, g.loadToReg(in.Args[0], "r0", f)...)
		}
		lines = append(lines, "    mov sp, fp", "    pop {fp, pc}  @ Return")
		return lines
	case "LABEL":
		return []string{in.Args[0] + ":"}
	case "GOTO":
		return []string{"    b " + in.Args[0]}
	case "IF_GOTO":
		lines := g.loadToReg(in.Args[0], "r0", f)
		lines = append(lines, "    cmp r0, #1", "    beq "+in.Args[1])
		return lines
	case "WRITE":
		lines := g.loadToReg(in.Args[0], "r0", f)
		return append([]string{"    @ WRITE " + in.Args[0] + " - no libc in the CPUlator target"}, lines...)
	case "READ":
		loc := f.locate(in.Args[0])
		return []string{
			"    @ READ " + in.Args[0] + " - no stdin in the CPUlator target, zero-initialized",
			"    mov r0, #0",
			fmt.Sprintf("    str r0, %s", formatLoc(loc)),
		}
	case "PUSH_PARAM":
		return nil // consumed together with CALL_RESULT below via its own arg list
	case "CALL_RESULT":
		return g.lowerCall(in, f)
	case "ASSIGN":
		dest, src := in.Args[0], in.Args[1]
		lines := g.loadToReg(src, "r0", f)
		lines = append(lines, g.storeFromReg(dest, "r0", f)...)
		return lines
	case "BINOP":
		return g.lowerBinOp(in, f)
	case "ARRAY_ADDR":
		return g.lowerArrayAddr(in, f)
	case "ARRAY_STORE":
		lines := g.loadToReg(in.Args[0], "r0", f)
		lines = append(lines, g.loadToReg(in.Args[1], "r1", f)...)
		lines = append(lines, "    str r1, [r0]")
		return lines
	case "ARRAY_LOAD":
		lines := g.loadToReg(in.Args[1], "r0", f)
		lines = append(lines, "    ldr r1, [r0]")
		lines = append(lines, g.storeFromReg(in.Args[0], "r1", f)...)
		return lines
	case "STRING_DEF":
		g.addStringLiteral(in.Args[0], unquote(in.Args[1]))
		return nil
	case "CHANNEL_DEF", "SEND_PARAM", "SEND", "RECEIVE", "GET_RECV_PARAM":
		// Channels have no representation in the ARM/CPUlator target;
		// they are only meaningful to the tree-walking interpreter.
		return []string{"    @ " + in.Op + " " + strings.Join(in.Args, " ") + " - unsupported on the ARM backend"}
	case "PARALLEL_START":
		return []string{"    @ PARALLEL_START - ARM backend runs PAR children sequentially"}
	case "PARALLEL_END":
		return []string{"    @ PARALLEL_END"}
	default:
		return []string{"    @ unimplemented TAC op: " + in.Op + " " + strings.Join(in.Args, " ")}
	}
}

// lowerCall renders a call site: the operand list recorded on the
// CALL_RESULT instruction itself (dest, funcName, argc) together with
// whatever PUSH_PARAM lines immediately preceded it in the original TAC
// stream, which lowerBlock/lowerFunction already turned into register
// loads via the shared param counter below.
func (g *Generator) lowerCall(in tac.Instruction, f *frame) []string {
	dest, funcName := in.Args[0], in.Args[1]
	argc, _ := strconv.Atoi(in.Args[2])
	return append([]string{fmt.Sprintf("    bl %s", funcName)}, g.afterCall(dest, argc, f)...)
}

func (g *Generator) afterCall(dest string, argc int, f *frame) []string {
	var lines []string
	if argc > 4 {
		lines = append(lines, fmt.Sprintf("    add sp, sp, #%d", (argc-4)*4))
	}
	lines = append(lines, g.storeFromReg(dest, "r0", f)...)
	return lines
}

func (g *Generator) lowerBinOp(in tac.Instruction, f *frame) []string {
	dest, left, op, right := in.Args[0], in.Args[1], in.Args[2], in.Args[3]
	lines := g.loadToReg(left, "r0", f)
	lines = append(lines, g.loadToReg(right, "r1", f)...)

	switch op {
	case "+":
		lines = append(lines, "    add r0, r0, r1")
	case "-":
		lines = append(lines, "    sub r0, r0, r1")
	case "*":
		lines = append(lines, "    mul r0, r0, r1")
	case "/":
		lines = append(lines, g.lowerDivision()...)
	case "==", "!=", "<", ">", "<=", ">=":
		lines = append(lines, "    cmp r0, r1", "    mov r0, #0")
		switch op {
		case "==":
			lines = append(lines, "    moveq r0, #1")
		case "!=":
			lines = append(lines, "    movne r0, #1")
		case "<":
			lines = append(lines, "    movlt r0, #1")
		case ">":
			lines = append(lines, "    movgt r0, #1")
		case "<=":
			lines = append(lines, "    movle r0, #1")
		case ">=":
			lines = append(lines, "    movge r0, #1")
		}
	}
	lines = append(lines, g.storeFromReg(dest, "r0", f)...)
	return lines
}

// lowerDivision emits the subtract-loop software division routine: r0 is
// the dividend, r1 the divisor, r0 holds the quotient on exit. Sign is
// handled by normalizing both operands positive and restoring the sign
// of the result (XOR of the two original signs) afterward; dividing by
// zero yields 0 rather than trapping, since ARM has no integer division
// instruction in this mode.
func (g *Generator) lowerDivision() []string {
	id := g.divCounter
	g.divCounter++
	dz := fmt.Sprintf("div_zero_%d", id)
	loop := fmt.Sprintf("div_loop_%d", id)
	done := fmt.Sprintf("div_done_%d", id)
	pos := fmt.Sprintf("div_pos_%d", id)
	exit := fmt.Sprintf("div_exit_%d", id)
	return []string{
		"    push {r2, r3, lr}",
		"    cmp r1, #0",
		"    beq " + dz,
		"    mov r2, #0",
		"    mov r3, #0",
		"    cmp r0, #0",
		"    rsblt r0, r0, #0",
		"    addlt r3, r3, #1",
		"    cmp r1, #0",
		"    rsblt r1, r1, #0",
		"    eorlt r3, r3, #1",
		loop + ":",
		"    cmp r0, r1",
		"    blt " + done,
		"    sub r0, r0, r1",
		"    add r2, r2, #1",
		"    b " + loop,
		done + ":",
		"    cmp r3, #0",
		"    beq " + pos,
		"    rsb r2, r2, #0",
		pos + ":",
		"    mov r0, r2",
		"    pop {r2, r3, lr}",
		"    b " + exit,
		dz + ":",
		"    mov r0, #0",
		"    pop {r2, r3, lr}",
		exit + ":",
	}
}

func (g *Generator) lowerArrayAddr(in tac.Instruction, f *frame) []string {
	dest, name := in.Args[0], in.Args[1]
	indices := in.Args[2:]
	info, known := g.arrays[name]

	lines := g.loadToReg(name, "r0", f) // array base address
	if !known {
		lines = append(lines, "    @ unknown array: "+name)
	}
	if len(indices) == 1 {
		lines = append(lines, g.loadToReg(indices[0], "r1", f)...)
		lines = append(lines, "    lsl r1, r1, #2", "    add r0, r0, r1")
	} else {
		lines = append(lines, g.loadToReg(indices[0], "r1", f)...)
		for i := 1; i < len(indices) && i < len(info.Dims); i++ {
			lines = append(lines, fmt.Sprintf("    mov r2, #%d", info.Dims[i]))
			lines = append(lines, "    mul r1, r1, r2")
			lines = append(lines, g.loadToReg(indices[i], "r2", f)...)
			lines = append(lines, "    add r1, r1, r2")
		}
		lines = append(lines, "    lsl r1, r1, #2", "    add r0, r0, r1")
	}
	lines = append(lines, g.storeFromReg(dest, "r0", f)...)
	return lines
}

// loadToReg loads an operand's value (or, for an array name, its base
// address) into reg: a numeric literal becomes mov/ldr-literal, a known
// string label becomes a PC-relative ldr, an array name computes
// fp-relative address arithmetic, and anything else is an ordinary
// variable/temporary loaded from its frame slot.
func (g *Generator) loadToReg(src, reg string, f *frame) []string {
	if isNumericLiteral(src) {
		if strings.Contains(src, ".") {
			label := g.addFloatLiteral(src)
			return []string{fmt.Sprintf("    ldr %s, =%s", reg, label)}
		}
		return []string{fmt.Sprintf("    mov %s, #%s", reg, src)}
	}
	if g.stringLits[src] {
		return []string{fmt.Sprintf("    ldr %s, =%s", reg, src)}
	}
	if info, ok := g.arrays[src]; ok {
		off := f.reserveArray(src, info.TotalSize)
		return []string{arithFPOffset(reg, off)}
	}
	loc := f.locate(src)
	return []string{fmt.Sprintf("    ldr %s, %s", reg, formatLoc(loc))}
}

func (g *Generator) storeFromReg(dest, reg string, f *frame) []string {
	loc := f.locate(dest)
	return []string{fmt.Sprintf("    str %s, %s", reg, formatLoc(loc))}
}

func (g *Generator) addStringLiteral(label, text string) {
	if g.stringLits[label] {
		return
	}
	g.stringLits[label] = true
	g.data = append(g.data, fmt.Sprintf("%s: .asciz %q", label, text))
}

func (g *Generator) addFloatLiteral(value string) string {
	label := "float_" + strings.NewReplacer(".", "_", "-", "n").Replace(value)
	if !g.floatLits[label] {
		g.floatLits[label] = true
		g.data = append(g.data, fmt.Sprintf("%s: .float %s", label, value))
	}
	return label
}

func formatLoc(offset int) string {
	return fmt.Sprintf("[fp, #%d]", offset)
}

func arithFPOffset(reg string, offset int) string {
	if offset < 0 {
		return fmt.Sprintf("    sub %s, fp, #%d", reg, -offset)
	}
	return fmt.Sprintf("    add %s, fp, #%d", reg, offset)
}

func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	seenDot := false
	for _, r := range s {
		if r == '.' && !seenDot {
			seenDot = true
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return strings.Trim(s, `"`)
}
