package sema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minipar-lang/miniparc/parser"
	"github.com/minipar-lang/miniparc/sema"
)

func analyze(t *testing.T, src string) []string {
	t.Helper()
	prog, errs := parser.Parse(src)
	require.Falsef(t, errs.HasErrors(), "unexpected syntax errors: %s", errs.Error())
	return sema.Analyze(prog)
}

func TestWellTypedProgramHasNoErrors(t *testing.T) {
	errs := analyze(t, `PROGRAMA
		DECLARE x: INTEIRO
		x = 10
		DECLARE y: REAL
		y = x
		SE x > 0 ENTAO
			ESCREVA(x)
		FIM_SE
	FIM_PROGRAMA`)
	assert.Empty(t, errs)
}

func TestDuplicateDeclarationIsReported(t *testing.T) {
	errs := analyze(t, `PROGRAMA
		DECLARE x: INTEIRO
		DECLARE x: REAL
	FIM_PROGRAMA`)
	assert.True(t, containsSubstr(errs, "já declarada"), "expected duplicate-declaration error, got %v", errs)
}

func TestImplicitDeclarationOnFirstWrite(t *testing.T) {
	errs := analyze(t, `PROGRAMA
		z = 5
		ESCREVA(z)
	FIM_PROGRAMA`)
	assert.Empty(t, errs, "expected implicit INTEIRO declaration to succeed")
}

func TestIncompatibleAssignmentIsReported(t *testing.T) {
	errs := analyze(t, `PROGRAMA
		DECLARE s: STRING
		s = 5
	FIM_PROGRAMA`)
	assert.True(t, containsSubstr(errs, "Tipos incompatíveis"), "expected type-mismatch error, got %v", errs)
}

func TestConditionMustBeBool(t *testing.T) {
	errs := analyze(t, `PROGRAMA
		DECLARE x: INTEIRO
		x = 1
		SE x ENTAO
			ESCREVA(x)
		FIM_SE
	FIM_PROGRAMA`)
	assert.True(t, containsSubstr(errs, "deve ser 'BOOL'"), "expected condition-type error, got %v", errs)
}

func TestUndeclaredChannelIsReported(t *testing.T) {
	errs := analyze(t, `PROGRAMA
		ch.SEND("x")
	FIM_PROGRAMA`)
	assert.True(t, containsSubstr(errs, "não declarado"), "expected undeclared-channel error, got %v", errs)
}

func TestFunctionArityAndTypeChecking(t *testing.T) {
	errs := analyze(t, `PROGRAMA
		DEF soma(a: INTEIRO, b: INTEIRO): INTEIRO:
			RETURN a + b
		DECLARE total: INTEIRO
		total = soma(1)
	FIM_PROGRAMA`)
	assert.True(t, containsSubstr(errs, "espera 2 argumentos"), "expected arity error, got %v", errs)
}

func TestReturnOutsideFunctionIsReported(t *testing.T) {
	errs := analyze(t, `PROGRAMA
		RETURN 1
	FIM_PROGRAMA`)
	assert.True(t, containsSubstr(errs, "fora de uma função"), "expected return-outside-function error, got %v", errs)
}

func TestArrayIndexMustBeInteiro(t *testing.T) {
	errs := analyze(t, `PROGRAMA
		DECLARE nums: INTEIRO[5]
		DECLARE s: STRING
		s = "oops"
		nums[s] = 1
	FIM_PROGRAMA`)
	assert.True(t, containsSubstr(errs, "Índice de array deve ser INTEIRO"), "expected array-index-type error, got %v", errs)
}

func containsSubstr(errs []string, needle string) bool {
	for _, e := range errs {
		if strings.Contains(e, needle) {
			return true
		}
	}
	return false
}
