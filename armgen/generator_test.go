package armgen_test

import (
	"strings"
	"testing"

	"github.com/minipar-lang/miniparc/armgen"
	"github.com/minipar-lang/miniparc/parser"
	"github.com/minipar-lang/miniparc/tac"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	prog, errs := parser.Parse(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected syntax errors: %s", errs.Error())
	}
	tacProg := tac.Generate(prog)
	return armgen.Generate(prog, tacProg)
}

func TestGenerateEmitsEntryPointAndHaltLoop(t *testing.T) {
	asm := generate(t, `PROGRAMA
		DECLARE x: INTEIRO
		x = 1
	FIM_PROGRAMA`)
	if !strings.Contains(asm, ".global _start") || !strings.Contains(asm, "_start:") {
		t.Fatalf("expected _start entry point in:\n%s", asm)
	}
	if !strings.Contains(asm, "END:") || !strings.Contains(asm, "B .") {
		t.Fatalf("expected terminal halt loop in:\n%s", asm)
	}
}

func TestGenerateSizesStackFromDeclaredVars(t *testing.T) {
	asm := generate(t, `PROGRAMA
		DECLARE a: INTEIRO
		DECLARE b: INTEIRO
		a = 1
		b = 2
	FIM_PROGRAMA`)
	if !strings.Contains(asm, "sub sp, sp, #") {
		t.Fatalf("expected a stack allocation in:\n%s", asm)
	}
}

func TestGenerateLowersBinOpAndWrite(t *testing.T) {
	asm := generate(t, `PROGRAMA
		DECLARE a: INTEIRO
		DECLARE b: INTEIRO
		a = 1
		b = 2
		ESCREVA(a + b)
	FIM_PROGRAMA`)
	if !strings.Contains(asm, "add r0, r0, r1") {
		t.Fatalf("expected an add instruction in:\n%s", asm)
	}
	if !strings.Contains(asm, "@ WRITE") {
		t.Fatalf("expected a WRITE comment stub in:\n%s", asm)
	}
}

func TestGenerateDivisionUsesSubtractLoop(t *testing.T) {
	asm := generate(t, `PROGRAMA
		DECLARE a: INTEIRO
		DECLARE b: INTEIRO
		DECLARE c: INTEIRO
		a = 10
		b = 2
		c = a / b
	FIM_PROGRAMA`)
	for _, want := range []string{"div_loop_0", "div_done_0", "div_zero_0", "div_exit_0"} {
		if !strings.Contains(asm, want) {
			t.Fatalf("expected %q in division lowering:\n%s", want, asm)
		}
	}
}

func TestGenerateComparisonUsesConditionalMov(t *testing.T) {
	asm := generate(t, `PROGRAMA
		DECLARE x: INTEIRO
		x = 1
		SE x > 0 ENTAO
			ESCREVA(1)
		FIM_SE
	FIM_PROGRAMA`)
	if !strings.Contains(asm, "movgt r0, #1") {
		t.Fatalf("expected movgt in comparison lowering:\n%s", asm)
	}
}

func TestGenerateArrayAddressingIsRowMajor(t *testing.T) {
	asm := generate(t, `PROGRAMA
		DECLARE grid: INTEIRO[2][3]
		grid[1][2] = 9
	FIM_PROGRAMA`)
	if !strings.Contains(asm, "mov r2, #3") {
		t.Fatalf("expected row stride of 3 loaded for 2D array indexing:\n%s", asm)
	}
	if !strings.Contains(asm, "lsl r1, r1, #2") {
		t.Fatalf("expected index scaled by element size 4:\n%s", asm)
	}
}

func TestGenerateFunctionGetsOwnPrologueAndEpilogue(t *testing.T) {
	asm := generate(t, `PROGRAMA
		DEF soma(a: INTEIRO, b: INTEIRO): INTEIRO:
			RETURN a + b
		DECLARE total: INTEIRO
		total = soma(1, 2)
	FIM_PROGRAMA`)
	if !strings.Contains(asm, "soma:") {
		t.Fatalf("expected a soma: label in:\n%s", asm)
	}
	if !strings.Contains(asm, "push {fp, lr}") || !strings.Contains(asm, "pop {fp, pc}") {
		t.Fatalf("expected function prologue/epilogue in:\n%s", asm)
	}
	if !strings.Contains(asm, "bl soma") {
		t.Fatalf("expected a call site bl soma in:\n%s", asm)
	}
}

func TestGenerateChannelOpsAreUnsupportedComments(t *testing.T) {
	asm := generate(t, `PROGRAMA
		C_CHANNEL ch a b
		ch.SEND("hi")
	FIM_PROGRAMA`)
	if !strings.Contains(asm, "unsupported on the ARM backend") {
		t.Fatalf("expected channel ops flagged unsupported in:\n%s", asm)
	}
}

func TestGenerateStringLiteralGoesToDataSection(t *testing.T) {
	asm := generate(t, `PROGRAMA
		ESCREVA("hello")
	FIM_PROGRAMA`)
	if !strings.Contains(asm, ".data") || !strings.Contains(asm, ".asciz \"hello\"") {
		t.Fatalf("expected hello string literal in data section:\n%s", asm)
	}
}
