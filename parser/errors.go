package parser

import (
	"fmt"
	"strings"

	"github.com/minipar-lang/miniparc/token"
)

// SyntaxError records one unexpected-token or unexpected-EOF condition.
type SyntaxError struct {
	Kind    token.Kind
	Lexeme  string
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Kind == token.EOF {
		return fmt.Sprintf("Erro de Sintaxe: Fim inesperado do arquivo (linha %d).", e.Line)
	}
	return fmt.Sprintf("Erro de Sintaxe: Token inesperado %q (Tipo: %s) na linha %d", e.Lexeme, e.Kind, e.Line)
}

// ErrorList collects every syntax error seen during one parse, matching
// the teacher's parser.ErrorList shape (accumulate, never abort).
type ErrorList struct {
	Errors []*SyntaxError
}

func (el *ErrorList) add(e *SyntaxError) {
	el.Errors = append(el.Errors, e)
}

// HasErrors reports whether any syntax error was recorded.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Error implements the error interface, rendering every recorded error.
func (el *ErrorList) Error() string {
	var sb strings.Builder
	for _, e := range el.Errors {
		sb.WriteString(e.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Strings renders each error on its own line, for CompileResult.Diagnostics.
func (el *ErrorList) Strings() []string {
	out := make([]string, len(el.Errors))
	for i, e := range el.Errors {
		out[i] = e.Error()
	}
	return out
}
