package tac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minipar-lang/miniparc/parser"
	"github.com/minipar-lang/miniparc/tac"
)

func generate(t *testing.T, src string) *tac.Program {
	t.Helper()
	prog, errs := parser.Parse(src)
	require.Falsef(t, errs.HasErrors(), "unexpected syntax errors: %s", errs.Error())
	return tac.Generate(prog)
}

func TestStartAndEndProgramBracketTopLevelCode(t *testing.T) {
	p := generate(t, `PROGRAMA
		DECLARE x: INTEIRO
		x = 1
	FIM_PROGRAMA`)
	require.GreaterOrEqual(t, len(p.Code), 2, "expected at least START/END markers, got %v", p.Code)
	assert.Equal(t, "START_PROGRAM", p.Code[0].Op)
	assert.Equal(t, "END_PROGRAM", p.Code[len(p.Code)-1].Op)
}

func TestAssignEmitsAssignInstruction(t *testing.T) {
	p := generate(t, `PROGRAMA
		DECLARE x: INTEIRO
		x = 5
	FIM_PROGRAMA`)
	found := false
	for _, in := range p.Code {
		if in.Op == "ASSIGN" && in.Args[0] == "x" && in.Args[1] == "5" {
			found = true
		}
	}
	assert.True(t, found, "expected ASSIGN x 5 in %v", p.Code)
}

func TestBinOpAndWriteLowering(t *testing.T) {
	p := generate(t, `PROGRAMA
		DECLARE a: INTEIRO
		DECLARE b: INTEIRO
		a = 1
		b = 2
		ESCREVA(a + b)
	FIM_PROGRAMA`)
	listing := p.Listing()
	assert.Contains(t, listing, "+")
	assert.Contains(t, listing, "WRITE")
}

func TestIfLoweringHasThenElseEndLabels(t *testing.T) {
	p := generate(t, `PROGRAMA
		DECLARE x: INTEIRO
		x = 1
		SE x > 0 ENTAO
			ESCREVA(1)
		SENAO
			ESCREVA(0)
		FIM_SE
	FIM_PROGRAMA`)
	labelCount := 0
	for _, in := range p.Code {
		if in.Op == "LABEL" {
			labelCount++
		}
	}
	assert.Equal(t, 3, labelCount, "expected 3 labels (then/else/end), got %v", p.Code)
}

func TestWhileLoweringLoopsBack(t *testing.T) {
	p := generate(t, `PROGRAMA
		DECLARE i: INTEIRO
		i = 0
		ENQUANTO i < 3 FACA
			i = i + 1
		FIM_ENQUANTO
	FIM_PROGRAMA`)
	gotos := 0
	for _, in := range p.Code {
		if in.Op == "GOTO" {
			gotos++
		}
	}
	assert.GreaterOrEqual(t, gotos, 2, "expected at least 2 GOTOs (loop back + exit)")
}

func TestFuncDeclEmitsSeparateFunctionBuffer(t *testing.T) {
	p := generate(t, `PROGRAMA
		DEF soma(a: INTEIRO, b: INTEIRO): INTEIRO:
			RETURN a + b
	FIM_PROGRAMA`)
	require.Len(t, p.FuncOrder, 1)
	assert.Equal(t, "soma", p.FuncOrder[0])

	body := p.Functions["soma"]
	require.NotEmpty(t, body)
	assert.Equal(t, "FUNC_BEGIN", body[0].Op)
	assert.Equal(t, "FUNC_END", body[len(body)-1].Op)

	for _, in := range p.Code {
		assert.NotEqual(t, "FUNC_BEGIN", in.Op, "function body leaked into top-level code: %v", p.Code)
	}
}

func TestArrayAssignAndLoadLowering(t *testing.T) {
	p := generate(t, `PROGRAMA
		DECLARE nums: INTEIRO[5]
		nums[0] = 1
		ESCREVA(nums[0])
	FIM_PROGRAMA`)
	listing := p.Listing()
	assert.Contains(t, listing, "ARRAY_ADDR")
	assert.Contains(t, listing, "ARRAY_STORE")
	assert.Contains(t, listing, "ARRAY_LOAD")
}

func TestSendReceiveLowering(t *testing.T) {
	p := generate(t, `PROGRAMA
		C_CHANNEL ch a b
		ch.SEND("hi")
		ch.RECEIVE(msg)
	FIM_PROGRAMA`)
	listing := p.Listing()
	assert.Contains(t, listing, "CHANNEL_DEF")
	assert.Contains(t, listing, "SEND_PARAM")
	assert.Contains(t, listing, "RECEIVE")
}
