// Package tac lowers a type-checked MiniPar *ast.Program into three-address
// code: a flat, linear instruction set that the armgen package can lower
// further into ARMv7 assembly, or that a future interpreter backend could
// execute directly.
package tac

import "strings"

// Instruction is one three-address-code line. Op names the operation
// (matching the opcode vocabulary of the original compiler's generator);
// Args holds its operands in a fixed, Op-dependent order.
type Instruction struct {
	Op   string
	Args []string
}

func inst(op string, args ...string) Instruction {
	return Instruction{Op: op, Args: args}
}

// String renders an instruction the way the reference generator prints
// three-address code: most forms as `op arg1 arg2 ...`, assignment-shaped
// forms (ASSIGN/BINOP/CALL_RESULT/ARRAY_ADDR/ARRAY_LOAD) as `dest = ...`,
// and ARRAY_STORE as `ARRAY_STORE addr = v`.
func (i Instruction) String() string {
	switch i.Op {
	case "ASSIGN":
		return i.Args[0] + " = " + i.Args[1]
	case "BINOP":
		return i.Args[0] + " = " + i.Args[1] + " " + i.Args[2] + " " + i.Args[3]
	case "CALL_RESULT":
		return i.Args[0] + " = CALL " + i.Args[1] + " " + i.Args[2]
	case "ARRAY_ADDR":
		return i.Args[0] + " = ARRAY_ADDR " + strings.Join(i.Args[1:], " ")
	case "ARRAY_LOAD":
		return i.Args[0] + " = ARRAY_LOAD " + i.Args[1]
	case "ARRAY_STORE":
		return "ARRAY_STORE " + i.Args[0] + " = " + i.Args[1]
	default:
		return strings.TrimSpace(i.Op + " " + strings.Join(i.Args, " "))
	}
}

// Program is the generated code for a whole compilation: the top-level
// instruction stream plus one instruction stream per user function.
type Program struct {
	Code      []Instruction
	Functions map[string][]Instruction
	FuncOrder []string // declaration order, for deterministic textual output
}

// Listing renders the whole program as text: top-level code, then each
// function's code in declaration order.
func (p *Program) Listing() string {
	var sb strings.Builder
	for _, in := range p.Code {
		sb.WriteString(in.String())
		sb.WriteString("\n")
	}
	for _, name := range p.FuncOrder {
		for _, in := range p.Functions[name] {
			sb.WriteString(in.String())
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
