// Package sema type-checks a MiniPar *ast.Program, resolving each
// expression's static type and reporting diagnostics for duplicate
// declarations, undeclared names, type mismatches, and misuse of
// channels/functions. It mirrors the original compiler's single linear
// pass rather than separate declare/check phases.
package sema

import (
	"fmt"

	"github.com/minipar-lang/miniparc/ast"
)

// Known scalar type names, matching the strings ast.VarDecl/ast.Param use.
const (
	Inteiro = "INTEIRO"
	Real    = "REAL"
	Str     = "STRING_TYPE"
	Bool    = "BOOL"
	Err     = "error"
)

// FuncSig is a resolved function signature.
type FuncSig struct {
	ParamTypes []string
	RetType    string
}

// channelEndpoints records the two named participants of a C_CHANNEL.
type channelEndpoints struct {
	Endpoint1 string
	Endpoint2 string
}

// Analyzer walks a program once, threading a mutable symbol table and
// collecting every diagnostic it finds rather than stopping at the first.
type Analyzer struct {
	symbols   map[string]string
	arrayDims map[string][]int
	channels  map[string]channelEndpoints
	functions map[string]FuncSig
	curFunc   string // "" when not inside a function body
	errors    []string
}

// New creates an empty Analyzer.
func New() *Analyzer {
	return &Analyzer{
		symbols:   map[string]string{},
		arrayDims: map[string][]int{},
		channels:  map[string]channelEndpoints{},
		functions: map[string]FuncSig{},
	}
}

// Analyze type-checks prog and returns every diagnostic found, in the
// order they were produced. An empty slice means the program is
// well-typed.
func Analyze(prog *ast.Program) []string {
	a := New()
	a.visitStmts(prog.Body)
	return a.errors
}

func (a *Analyzer) errorf(format string, args ...any) {
	a.errors = append(a.errors, fmt.Sprintf("Erro Semântico: "+format, args...))
}

func (a *Analyzer) cloneSymbols() map[string]string {
	clone := make(map[string]string, len(a.symbols))
	for k, v := range a.symbols {
		clone[k] = v
	}
	return clone
}

func (a *Analyzer) visitStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		a.visitStmt(s)
	}
}

func (a *Analyzer) visitStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.SeqBlock:
		a.visitStmts(s.Body)
	case *ast.ParBlock:
		for _, worker := range s.Body {
			a.visitStmt(worker)
		}
	case *ast.VarDecl:
		a.declareScalar(s.Name, s.Type)
	case *ast.ArrayDecl:
		a.declareArray(s.Name, s.Type, s.Dims)
	case *ast.Channel:
		if _, exists := a.channels[s.Name]; exists {
			a.errorf("Canal '%s' já declarado.", s.Name)
		} else {
			a.channels[s.Name] = channelEndpoints{Endpoint1: s.Endpoint1, Endpoint2: s.Endpoint2}
		}
	case *ast.FuncDecl:
		a.visitFuncDecl(s)
	case *ast.Return:
		a.visitReturn(s)
	case *ast.Assign:
		a.visitAssign(s)
	case *ast.ArrayAssign:
		a.visitArrayAssign(s)
	case *ast.If:
		a.checkCondType(a.typeOf(s.Cond), "SE")
		a.visitStmts(s.Then)
		a.visitStmts(s.Else)
	case *ast.While:
		a.checkCondType(a.typeOf(s.Cond), "ENQUANTO")
		a.visitStmts(s.Body)
	case *ast.For:
		a.visitFor(s)
	case *ast.Read:
		if _, ok := a.symbols[s.Name]; !ok {
			a.errorf("Variável '%s' não declarada (em 'leia').", s.Name)
		}
	case *ast.Write:
		for _, e := range s.Exprs {
			a.typeOf(e)
		}
	case *ast.Send:
		if _, ok := a.channels[s.Channel]; !ok {
			a.errorf("Canal '%s' não declarado.", s.Channel)
		}
		for _, e := range s.Args {
			a.typeOf(e)
		}
	case *ast.Receive:
		if _, ok := a.channels[s.Channel]; !ok {
			a.errorf("Canal '%s' não declarado.", s.Channel)
		}
		for _, v := range s.Vars {
			if _, ok := a.symbols[v]; !ok {
				a.errorf("Variável '%s' não declarada (em 'receive').", v)
			}
		}
	case *ast.ExprStmt:
		a.typeOf(s.Expr)
	}
}

func (a *Analyzer) declareScalar(name, typ string) {
	if _, exists := a.symbols[name]; exists {
		a.errorf("Variável '%s' já declarada.", name)
		return
	}
	a.symbols[name] = typ
}

func (a *Analyzer) declareArray(name, typ string, dims []int) {
	if _, exists := a.symbols[name]; exists {
		a.errorf("Variável '%s' já declarada.", name)
		return
	}
	a.symbols[name] = typ
	a.arrayDims[name] = dims
}

func (a *Analyzer) checkCondType(t, construct string) {
	if t != Bool && t != Err {
		a.errorf("A condição do '%s' deve ser 'BOOL', mas é '%s'.", construct, t)
	}
}

func (a *Analyzer) visitFuncDecl(f *ast.FuncDecl) {
	if _, exists := a.functions[f.Name]; exists {
		a.errorf("Função '%s' já declarada.", f.Name)
		return
	}
	paramTypes := make([]string, len(f.Params))
	seen := map[string]bool{}
	for i, p := range f.Params {
		if seen[p.Name] {
			a.errorf("Parâmetro '%s' duplicado na função '%s'.", p.Name, f.Name)
		}
		seen[p.Name] = true
		paramTypes[i] = p.Type
	}
	a.functions[f.Name] = FuncSig{ParamTypes: paramTypes, RetType: f.RetType}

	saved := a.cloneSymbols()
	savedFunc := a.curFunc
	for _, p := range f.Params {
		a.symbols[p.Name] = p.Type
	}
	a.curFunc = f.RetType
	a.visitStmts(f.Body)
	a.curFunc = savedFunc
	a.symbols = saved
}

func (a *Analyzer) visitReturn(r *ast.Return) {
	if a.curFunc == "" {
		a.errorf("Comando 'return' encontrado fora de uma função.")
		a.typeOf(r.Expr)
		return
	}
	exprType := a.typeOf(r.Expr)
	if exprType != a.curFunc && exprType != Err && !(a.curFunc == Real && exprType == Inteiro) {
		a.errorf("Tipo de retorno da função (%s) não é compatível com o tipo esperado (%s).", exprType, a.curFunc)
	}
}

func (a *Analyzer) visitAssign(asn *ast.Assign) {
	if _, ok := a.symbols[asn.Name]; !ok {
		// Implicit declaration as INTEIRO on first write.
		a.symbols[asn.Name] = Inteiro
	}
	varType := a.symbols[asn.Name]
	exprType := a.typeOf(asn.Expr)
	a.checkAssignable(asn.Name, varType, exprType)
}

func (a *Analyzer) visitArrayAssign(asn *ast.ArrayAssign) {
	varType, ok := a.symbols[asn.Name]
	if !ok {
		a.errorf("Variável '%s' não foi declarada.", asn.Name)
		a.typeOf(asn.Expr)
		return
	}
	for _, idx := range asn.Indices {
		it := a.typeOf(idx)
		if it != Inteiro && it != Err {
			a.errorf("Índice de array deve ser INTEIRO, mas é '%s'.", it)
		}
	}
	if dims, ok := a.arrayDims[asn.Name]; ok && len(asn.Indices) != len(dims) {
		a.errorf("Array '%s' tem %d dimensão(ões), mas foi indexado com %d.", asn.Name, len(dims), len(asn.Indices))
	}
	exprType := a.typeOf(asn.Expr)
	a.checkAssignable(asn.Name, varType, exprType)
}

func (a *Analyzer) checkAssignable(name, varType, exprType string) {
	if varType == exprType || exprType == Err {
		return
	}
	if varType == Real && exprType == Inteiro {
		return // implicit widening, allowed
	}
	a.errorf("Tipos incompatíveis. Não é possível atribuir '%s' à variável '%s' (tipo '%s').", exprType, name, varType)
}

func (a *Analyzer) visitFor(f *ast.For) {
	saved := a.cloneSymbols()
	if _, exists := a.symbols[f.Var]; exists {
		a.errorf("Variável de loop '%s' já declarada no escopo.", f.Var)
	}
	a.symbols[f.Var] = Inteiro
	a.visitStmts(f.Body)
	a.symbols = saved

	if lo := a.typeOf(f.Lo); lo != Inteiro && lo != Err {
		a.errorf("Limites do loop 'PARA' devem ser 'INTEIRO'.")
	}
	if hi := a.typeOf(f.Hi); hi != Inteiro && hi != Err {
		a.errorf("Limites do loop 'PARA' devem ser 'INTEIRO'.")
	}
}

// typeOf resolves an expression's static type, recording diagnostics for
// any problem found along the way.
func (a *Analyzer) typeOf(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Int:
		return Inteiro
	case *ast.Real:
		return Real
	case *ast.Str:
		return Str
	case *ast.Bool:
		return Bool
	case *ast.Id:
		if t, ok := a.symbols[e.Name]; ok {
			return t
		}
		a.errorf("Variável '%s' não declarada.", e.Name)
		return Err
	case *ast.ArrayRef:
		t, ok := a.symbols[e.Name]
		if !ok {
			a.errorf("Variável '%s' não foi declarada.", e.Name)
			t = Err
		}
		for _, idx := range e.Indices {
			it := a.typeOf(idx)
			if it != Inteiro && it != Err {
				a.errorf("Índice de array deve ser INTEIRO, mas é '%s'.", it)
			}
		}
		if dims, ok := a.arrayDims[e.Name]; ok && len(e.Indices) != len(dims) {
			a.errorf("Array '%s' tem %d dimensão(ões), mas foi indexado com %d.", e.Name, len(dims), len(e.Indices))
		}
		return t
	case *ast.BinOp:
		return a.typeOfBinOp(e)
	case *ast.UnOp:
		t := a.typeOf(e.E)
		if e.Op == "-" {
			if t != Inteiro && t != Real {
				a.errorf("Operador '-' unário aplicado a tipo incompatível: '%s'.", t)
				return Err
			}
			return t
		}
		return Err
	case *ast.Call:
		return a.typeOfCall(e)
	}
	return Err
}

func isNumeric(t string) bool { return t == Inteiro || t == Real }

func (a *Analyzer) typeOfBinOp(e *ast.BinOp) string {
	left := a.typeOf(e.L)
	right := a.typeOf(e.R)
	if left == Err || right == Err {
		return Err
	}
	switch e.Op {
	case "+", "-", "*", "/":
		if isNumeric(left) && isNumeric(right) {
			if left == Real || right == Real || e.Op == "/" {
				return Real
			}
			return Inteiro
		}
		a.errorf("Operação '%s' entre tipos incompatíveis: '%s' e '%s'.", e.Op, left, right)
		return Err
	case "==", "!=", "<", ">", "<=", ">=":
		if isNumeric(left) && isNumeric(right) {
			return Bool
		}
		a.errorf("Operação relacional '%s' entre tipos incompatíveis: '%s' e '%s'.", e.Op, left, right)
		return Err
	}
	return Err
}

func (a *Analyzer) typeOfCall(c *ast.Call) string {
	sig, ok := a.functions[c.Name]
	if !ok {
		a.errorf("Função '%s' não foi declarada.", c.Name)
		for _, arg := range c.Args {
			a.typeOf(arg)
		}
		return Err
	}
	if len(c.Args) != len(sig.ParamTypes) {
		a.errorf("Função '%s' espera %d argumentos, mas recebeu %d.", c.Name, len(sig.ParamTypes), len(c.Args))
		for _, arg := range c.Args {
			a.typeOf(arg)
		}
		return sig.RetType
	}
	for i, arg := range c.Args {
		argType := a.typeOf(arg)
		expected := sig.ParamTypes[i]
		if argType == expected || argType == Err {
			continue
		}
		if expected == Real && argType == Inteiro {
			continue // implicit INTEIRO->REAL conversion allowed
		}
		a.errorf("Argumento %d da função '%s': esperava '%s', mas recebeu '%s'.", i+1, c.Name, expected, argType)
	}
	return sig.RetType
}
