package interp_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minipar-lang/miniparc/interp"
	"github.com/minipar-lang/miniparc/parser"
)

func run(t *testing.T, src string) string {
	t.Helper()
	prog, errs := parser.Parse(src)
	require.Falsef(t, errs.HasErrors(), "unexpected syntax errors: %s", errs.Error())
	return interp.New().Run(prog)
}

func TestAddTwoNumbers(t *testing.T) {
	out := run(t, `PROGRAMA
		DECLARE a: INTEIRO
		DECLARE b: INTEIRO
		a = 2
		b = 3
		ESCREVA(a + b)
	FIM_PROGRAMA`)
	assert.Equal(t, "5", out)
}

func TestFactorialFive(t *testing.T) {
	out := run(t, `PROGRAMA
		DECLARE n: INTEIRO
		DECLARE fat: INTEIRO
		DECLARE i: INTEIRO
		n = 5
		fat = 1
		i = 1
		ENQUANTO i <= n FACA
			fat = fat * i
			i = i + 1
		FIM_ENQUANTO
		ESCREVA(fat)
	FIM_PROGRAMA`)
	assert.Equal(t, "120", out)
}

func TestFunctionCallReturnsValueAndRestoresCallerScope(t *testing.T) {
	out := run(t, `PROGRAMA
		DEF soma(a: INTEIRO, b: INTEIRO): INTEIRO:
			RETURN a + b
		DECLARE a: INTEIRO
		DECLARE total: INTEIRO
		a = 100
		total = soma(1, 2)
		ESCREVA(total)
		ESCREVA(a)
	FIM_PROGRAMA`)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "3", lines[0])
	assert.Equal(t, "100", lines[1])
}

func TestArraySumOverWhileLoop(t *testing.T) {
	out := run(t, `PROGRAMA
		DECLARE nums: INTEIRO[5]
		DECLARE soma: INTEIRO
		DECLARE i: INTEIRO
		nums[0] = 1
		nums[1] = 2
		nums[2] = 3
		nums[3] = 4
		nums[4] = 5
		soma = 0
		i = 0
		ENQUANTO i < 5 FACA
			soma = soma + nums[i]
			i = i + 1
		FIM_ENQUANTO
		ESCREVA(soma)
	FIM_PROGRAMA`)
	assert.Equal(t, "15", out)
}

func TestTwoDArrayAddressingIsRowMajor(t *testing.T) {
	out := run(t, `PROGRAMA
		DECLARE grid: INTEIRO[2][3]
		grid[0][0] = 1
		grid[1][2] = 9
		ESCREVA(grid[1][2])
	FIM_PROGRAMA`)
	assert.Equal(t, "9", out)
}

func TestFibonacciFirstFive(t *testing.T) {
	out := run(t, `PROGRAMA
		DECLARE a: INTEIRO
		DECLARE b: INTEIRO
		DECLARE prox: INTEIRO
		DECLARE j: INTEIRO
		a = 0
		b = 1
		j = 0
		ENQUANTO j < 5 FACA
			ESCREVA(a)
			prox = a + b
			a = b
			b = prox
			j = j + 1
		FIM_ENQUANTO
	FIM_PROGRAMA`)
	assert.Equal(t, "0\n1\n1\n2\n3", out)
}

func TestForLoopCountsInclusive(t *testing.T) {
	out := run(t, `PROGRAMA
		PARA i EM 1..3
			ESCREVA(i)
		FIM_PROGRAMA`)
	assert.Equal(t, "1\n2\n3", out)
}

func TestParBlockInterleavesOutputRoundRobin(t *testing.T) {
	out := run(t, `PROGRAMA
		PAR {
			ESCREVA("A1")
			ESCREVA("A2")
		} {
			ESCREVA("B1")
			ESCREVA("B2")
		}
	FIM_PROGRAMA`)
	assert.Equal(t, "A1\nB1\nA2\nB2", out)
}

func TestChannelSendReceiveTracesAndDelivers(t *testing.T) {
	out := run(t, `PROGRAMA
		C_CHANNEL ch client server
		ch.SEND("hello")
		ch.RECEIVE(msg)
		ESCREVA(msg)
	FIM_PROGRAMA`)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "[CLIENT]"), "expected a [CLIENT] trace line first, got %v", lines)
	assert.True(t, strings.HasPrefix(lines[1], "[SERVER]"), "expected a [SERVER] trace line second, got %v", lines)
	assert.Equal(t, "hello", lines[2])
}

func TestChannelArithmeticEchoStoresResultDirectly(t *testing.T) {
	out := run(t, `PROGRAMA
		C_CHANNEL c client server
		DECLARE r: INTEIRO
		c.SEND("+", 10, 5, r)
		ESCREVA(r)
	FIM_PROGRAMA`)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "15", lines[len(lines)-1])
}

func TestReadCoercesToDeclaredType(t *testing.T) {
	it := interp.New()
	it.SetInput("42")
	prog, errs := parser.Parse(`PROGRAMA
		DECLARE x: INTEIRO
		LEIA(x)
		ESCREVA(x)
	FIM_PROGRAMA`)
	require.Falsef(t, errs.HasErrors(), "unexpected syntax errors: %s", errs.Error())
	assert.Equal(t, "42", it.Run(prog))
}

func TestDivisionByZeroYieldsZeroNotPanic(t *testing.T) {
	out := run(t, `PROGRAMA
		DECLARE a: INTEIRO
		DECLARE b: INTEIRO
		a = 10
		b = 0
		ESCREVA(a / b)
	FIM_PROGRAMA`)
	assert.Equal(t, "0", out)
}

func TestFloatFormattingDropsTrailingZerosWhenIntegral(t *testing.T) {
	out := run(t, `PROGRAMA
		DECLARE x: REAL
		x = 4.0
		ESCREVA(x)
	FIM_PROGRAMA`)
	assert.Equal(t, "4", out)
}

func TestWhileWithoutControlVariableUpdateStopsAtIterationCap(t *testing.T) {
	prog, errs := parser.Parse(`PROGRAMA
		DECLARE i: INTEIRO
		i = 0
		ENQUANTO i < 1 FACA
			ESCREVA("spin")
		FIM_ENQUANTO
	FIM_PROGRAMA`)
	require.Falsef(t, errs.HasErrors(), "unexpected syntax errors: %s", errs.Error())

	it := interp.New()
	it.SetMaxLoopIterations(5)
	out := it.Run(prog)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6, "expected 5 spins plus one cap diagnostic, got %v", lines)
	for _, line := range lines[:5] {
		assert.Equal(t, "spin", line)
	}
	assert.Contains(t, lines[5], "i")
	assert.Contains(t, lines[5], "5")
}
