package compiler_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minipar-lang/miniparc/compiler"
	"github.com/minipar-lang/miniparc/config"
)

func readSample(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "samples", name))
	require.NoError(t, err)
	return string(data)
}

func TestSeedSuiteEndToEnd(t *testing.T) {
	cfg := config.DefaultConfig()

	cases := []struct {
		name     string
		file     string
		expected string
	}{
		{"add two numbers", "add_two_numbers.mp", "15"},
		{"factorial of five by while", "factorial_while.mp", "120"},
		{"parallel two writers", "parallel_two_writers.mp", "A1\nB1\nA2\nB2"},
		{"array sum", "array_sum.mp", "10"},
		{"first five fibonacci numbers", "fibonacci_first_five.mp", "0\n1\n1\n2\n3"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			source := readSample(t, c.file)
			result := compiler.Execute(source, "", cfg)
			require.Truef(t, result.OK(), "unexpected diagnostics: %v", result.Diagnostics)
			assert.Equal(t, c.expected, result.Output)
		})
	}
}

func TestChannelEchoSeedEndsWithComputedSum(t *testing.T) {
	source := readSample(t, "channel_echo.mp")
	result := compiler.Execute(source, "", config.DefaultConfig())
	require.Truef(t, result.OK(), "unexpected diagnostics: %v", result.Diagnostics)

	lines := strings.Split(result.Output, "\n")
	assert.Equal(t, "15", lines[len(lines)-1])
}

func TestCompileStopsAtFirstFailingStage(t *testing.T) {
	result := compiler.Compile(`PROGRAMA
		DECLARE x INTEIRO
		x = 1 +
	FIM_PROGRAMA`, config.DefaultConfig())

	require.False(t, result.OK())
	assert.Nil(t, result.AST)
	assert.Nil(t, result.TAC)
	assert.Empty(t, result.Assembly)
	assert.NotEmpty(t, result.Tokens, "lexing should still have produced a token stream")
}

func TestCompileStopsAtSemanticErrorsBeforeTAC(t *testing.T) {
	result := compiler.Compile(`PROGRAMA
		ESCREVA(naoDeclarada)
	FIM_PROGRAMA`, config.DefaultConfig())

	require.False(t, result.OK())
	require.NotNil(t, result.AST, "parsing should have succeeded")
	assert.Nil(t, result.TAC, "TAC generation should not run after semantic errors")
	assert.Empty(t, result.Assembly)
}

func TestCompileProducesAssemblyForCleanProgram(t *testing.T) {
	result := compiler.Compile(readSample(t, "add_two_numbers.mp"), config.DefaultConfig())

	require.True(t, result.OK())
	assert.NotEmpty(t, result.Assembly)
	assert.Contains(t, result.Assembly, ".ltorg")
}

func TestExecuteShortCircuitsOnCompileFailureWithoutRunningInterpreter(t *testing.T) {
	result := compiler.Execute(`PROGRAMA
		DECLARE x INTEIRO
	FIM_PROGRAMA`, "", config.DefaultConfig())

	require.False(t, result.OK())
	assert.Empty(t, result.Output)
}

func TestCompileHonorsLtorgIntervalFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Compiler.LtorgInterval = 1

	source := readSample(t, "factorial_while.mp")
	result := compiler.Compile(source, cfg)

	require.True(t, result.OK())
	assert.NotEmpty(t, result.Assembly)
	assert.Contains(t, result.Assembly, "    .ltorg")
}

func TestExecuteFeedsInputToLeia(t *testing.T) {
	result := compiler.Execute(`PROGRAMA
		DECLARE x: INTEIRO
		LEIA(x)
		ESCREVA(x + 1)
	FIM_PROGRAMA`, "41", config.DefaultConfig())

	require.True(t, result.OK())
	assert.Equal(t, "42", result.Output)
}
