// Package parser turns a MiniPar token stream into an *ast.Program,
// recovering from syntax errors by collecting them and continuing rather
// than aborting on the first one.
package parser

import (
	"strconv"

	"github.com/minipar-lang/miniparc/ast"
	"github.com/minipar-lang/miniparc/lexer"
	"github.com/minipar-lang/miniparc/token"
)

// Parser consumes a pre-scanned token slice with one token of lookahead.
type Parser struct {
	tokens  []token.Token
	pos     int
	errors  *ErrorList
	current token.Token
	peek    token.Token
}

// New constructs a Parser over source, lexing it up front.
func New(source string) *Parser {
	p := &Parser{
		tokens: lexer.All(source),
		errors: &ErrorList{},
	}
	p.current = p.tokens[0]
	if len(p.tokens) > 1 {
		p.peek = p.tokens[1]
	} else {
		p.peek = p.tokens[0]
	}
	return p
}

// Parse lexes and parses source, returning the (possibly partial) program
// and its collected syntax errors. It never panics on malformed input.
func Parse(source string) (*ast.Program, *ErrorList) {
	p := New(source)
	return p.ParseProgram(), p.errors
}

func (p *Parser) advance() {
	p.pos++
	p.current = p.peek
	if p.pos+1 < len(p.tokens) {
		p.peek = p.tokens[p.pos+1]
	} else {
		p.peek = p.tokens[len(p.tokens)-1]
	}
}

func (p *Parser) errorHere(message string) {
	p.errors.add(&SyntaxError{
		Kind:    p.current.Kind,
		Lexeme:  p.current.Lexeme,
		Line:    p.current.Line,
		Message: message,
	})
}

// expect consumes the current token if it matches kind, recording a
// syntax error and leaving position unchanged otherwise (so the caller
// can attempt to resynchronize).
func (p *Parser) expect(kind token.Kind) token.Token {
	t := p.current
	if t.Kind != kind {
		p.errorHere("expected " + kind.String())
		return t
	}
	p.advance()
	return t
}

// isBlockEnder identifies tokens that end a statement list without being
// consumed by it: the mandatory loop/conditional terminators, a brace
// closing a PAR worker body, and end of file.
func isBlockEnder(k token.Kind) bool {
	switch k {
	case token.EOF, token.FECHA_CHAVES, token.SENAO, token.FIM_SE, token.FIM_ENQUANTO, token.FIM_PROGRAMA:
		return true
	}
	return false
}

// ParseProgram parses `PROGRAMA <stmts> [FIM_PROGRAMA]`.
func (p *Parser) ParseProgram() *ast.Program {
	line := p.current.Line
	if p.current.Kind == token.PROGRAMA {
		p.advance()
	} else {
		p.errorHere("expected PROGRAMA")
	}
	body := p.parseStmtList()
	if p.current.Kind == token.FIM_PROGRAMA {
		p.advance()
	}
	return &ast.Program{Pos: line, Body: body}
}

// parseStmtList parses statements until a block-ending token, without
// consuming the ender.
func (p *Parser) parseStmtList() []ast.Stmt {
	var stmts []ast.Stmt
	for !isBlockEnder(p.current.Kind) {
		before := p.pos
		stmt := p.parseStmt()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.pos == before {
			// parseStmt made no progress on an unrecognized token; skip it
			// so error recovery can continue.
			p.errorHere("unexpected token in statement")
			p.advance()
		}
	}
	return stmts
}

func (p *Parser) optColon() {
	if p.current.Kind == token.DOIS_PONTOS {
		p.advance()
	}
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.current.Kind {
	case token.DEF:
		return p.parseFuncDecl()
	case token.DECLARE:
		return p.parseVarDecl()
	case token.C_CHANNEL:
		return p.parseChannel()
	case token.SE:
		return p.parseIf()
	case token.ENQUANTO:
		return p.parseWhile()
	case token.PARA:
		return p.parseFor()
	case token.RETURN:
		return p.parseReturn()
	case token.ESCREVA:
		return p.parseWrite()
	case token.LEIA:
		return p.parseRead()
	case token.SEQ:
		return p.parseSeqBlock()
	case token.PAR:
		return p.parseParBlock()
	case token.ABRE_CHAVES:
		return p.parseBraceBlock()
	case token.IDENT:
		return p.parseIdentStmt()
	}
	return nil
}

func (p *Parser) parseBraceBlock() ast.Stmt {
	line := p.current.Line
	p.expect(token.ABRE_CHAVES)
	body := p.parseStmtList()
	p.expect(token.FECHA_CHAVES)
	return &ast.SeqBlock{Pos: line, Body: body}
}

func (p *Parser) parseSeqBlock() ast.Stmt {
	line := p.current.Line
	p.advance() // SEQ
	p.optColon()
	body := p.parseStmtList()
	return &ast.SeqBlock{Pos: line, Body: body}
}

// parseParBlock reads PAR's children as one or more explicit brace-delimited
// worker blocks (`PAR { ... } { ... }`). When no brace follows, the block
// instead spans the remainder of the enclosing statement list as a single
// implicit worker.
func (p *Parser) parseParBlock() ast.Stmt {
	line := p.current.Line
	p.advance() // PAR
	p.optColon()
	var workers []ast.Stmt
	for p.current.Kind == token.ABRE_CHAVES {
		workers = append(workers, p.parseBraceBlock())
	}
	if len(workers) == 0 {
		workers = p.parseStmtList()
	}
	return &ast.ParBlock{Pos: line, Body: workers}
}

func (p *Parser) parseVarDecl() ast.Stmt {
	line := p.current.Line
	p.advance() // DECLARE
	name := p.expect(token.IDENT).Lexeme
	p.expect(token.DOIS_PONTOS)
	typ := p.parseTypeName()
	if p.current.Kind == token.ABRE_COLCHETE {
		dims := p.parseDims()
		return &ast.ArrayDecl{Pos: line, Name: name, Type: typ, Dims: dims}
	}
	return &ast.VarDecl{Pos: line, Name: name, Type: typ}
}

func (p *Parser) parseTypeName() string {
	switch p.current.Kind {
	case token.INTEIRO, token.REAL, token.STRING_TYPE, token.BOOL:
		lex := p.current.Kind.String()
		p.advance()
		return lex
	}
	p.errorHere("expected type name")
	p.advance()
	return "INTEIRO"
}

func (p *Parser) parseDims() []int {
	var dims []int
	for p.current.Kind == token.ABRE_COLCHETE {
		p.advance()
		n := p.expect(token.NUM_INTEIRO)
		v, _ := strconv.Atoi(n.Lexeme)
		dims = append(dims, v)
		p.expect(token.FECHA_COLCHETE)
	}
	return dims
}

func (p *Parser) parseChannel() ast.Stmt {
	line := p.current.Line
	p.advance() // C_CHANNEL
	name := p.expect(token.IDENT).Lexeme
	e1 := p.expect(token.IDENT).Lexeme
	e2 := p.expect(token.IDENT).Lexeme
	return &ast.Channel{Pos: line, Name: name, Endpoint1: e1, Endpoint2: e2}
}

// parseFuncDecl parses a DEF header and its body. The body ends right after
// its first top-level RETURN, or at the enclosing block's ender, so the
// statements following that RETURN belong to the surrounding program.
func (p *Parser) parseFuncDecl() ast.Stmt {
	line := p.current.Line
	p.advance() // DEF
	name := p.expect(token.IDENT).Lexeme
	p.expect(token.ABRE_PARENTESES)
	var params []ast.Param
	for p.current.Kind != token.FECHA_PARENTESES && p.current.Kind != token.EOF {
		pname := p.expect(token.IDENT).Lexeme
		p.expect(token.DOIS_PONTOS)
		ptype := p.parseTypeName()
		params = append(params, ast.Param{Name: pname, Type: ptype})
		if p.current.Kind == token.VIRGULA {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.FECHA_PARENTESES)
	p.expect(token.DOIS_PONTOS)
	retType := p.parseTypeName()
	p.expect(token.DOIS_PONTOS)
	var body []ast.Stmt
	for !isBlockEnder(p.current.Kind) {
		before := p.pos
		stmt := p.parseStmt()
		if stmt != nil {
			body = append(body, stmt)
		}
		if p.pos == before {
			p.errorHere("unexpected token in statement")
			p.advance()
		}
		if _, isReturn := stmt.(*ast.Return); isReturn {
			break
		}
	}
	return &ast.FuncDecl{Pos: line, Name: name, Params: params, RetType: retType, Body: body}
}

func (p *Parser) parseReturn() ast.Stmt {
	line := p.current.Line
	p.advance() // RETURN
	expr := p.parseExpr()
	return &ast.Return{Pos: line, Expr: expr}
}

func (p *Parser) parseWrite() ast.Stmt {
	line := p.current.Line
	p.advance() // ESCREVA
	p.expect(token.ABRE_PARENTESES)
	exprs := p.parseExprList()
	p.expect(token.FECHA_PARENTESES)
	return &ast.Write{Pos: line, Exprs: exprs}
}

func (p *Parser) parseRead() ast.Stmt {
	line := p.current.Line
	p.advance() // LEIA
	p.expect(token.ABRE_PARENTESES)
	name := p.expect(token.IDENT).Lexeme
	p.expect(token.FECHA_PARENTESES)
	return &ast.Read{Pos: line, Name: name}
}

func (p *Parser) parseExprList() []ast.Expr {
	var exprs []ast.Expr
	exprs = append(exprs, p.parseExpr())
	for p.current.Kind == token.VIRGULA {
		p.advance()
		exprs = append(exprs, p.parseExpr())
	}
	return exprs
}

func (p *Parser) parseIdentList() []string {
	var names []string
	names = append(names, p.expect(token.IDENT).Lexeme)
	for p.current.Kind == token.VIRGULA {
		p.advance()
		names = append(names, p.expect(token.IDENT).Lexeme)
	}
	return names
}

// parseIdentStmt disambiguates the several statement forms that start
// with an identifier: send/receive (`id.SEND(...)` / `id.RECEIVE(...)`),
// array assignment (`id[..] = expr`), plain assignment (`id = expr`), and
// a bare function call used as a statement (`id(...)`).
func (p *Parser) parseIdentStmt() ast.Stmt {
	line := p.current.Line
	name := p.current.Lexeme
	p.advance()

	if p.current.Kind == token.PONTO {
		p.advance()
		switch p.current.Kind {
		case token.SEND:
			p.advance()
			p.expect(token.ABRE_PARENTESES)
			args := p.parseExprList()
			p.expect(token.FECHA_PARENTESES)
			return &ast.Send{Pos: line, Channel: name, Args: args}
		case token.RECEIVE:
			p.advance()
			p.expect(token.ABRE_PARENTESES)
			vars := p.parseIdentList()
			p.expect(token.FECHA_PARENTESES)
			return &ast.Receive{Pos: line, Channel: name, Vars: vars}
		}
		p.errorHere("expected SEND or RECEIVE after '.'")
		return nil
	}

	if p.current.Kind == token.ABRE_COLCHETE {
		indices := p.parseIndices()
		p.expect(token.ATRIBUICAO)
		expr := p.parseExpr()
		return &ast.ArrayAssign{Pos: line, Name: name, Indices: indices, Expr: expr}
	}

	if p.current.Kind == token.ATRIBUICAO {
		p.advance()
		expr := p.parseExpr()
		return &ast.Assign{Pos: line, Name: name, Expr: expr}
	}

	if p.current.Kind == token.ABRE_PARENTESES {
		p.advance()
		var args []ast.Expr
		if p.current.Kind != token.FECHA_PARENTESES {
			args = p.parseExprList()
		}
		p.expect(token.FECHA_PARENTESES)
		return &ast.ExprStmt{Pos: line, Expr: &ast.Call{Pos: line, Name: name, Args: args}}
	}

	p.errorHere("expected assignment, call, send, or receive")
	return nil
}

func (p *Parser) parseIndices() []ast.Expr {
	var indices []ast.Expr
	for p.current.Kind == token.ABRE_COLCHETE {
		p.advance()
		indices = append(indices, p.parseExpr())
		p.expect(token.FECHA_COLCHETE)
	}
	return indices
}

func (p *Parser) parseIf() ast.Stmt {
	line := p.current.Line
	p.advance() // SE
	cond := p.parseExpr()
	p.expect(token.ENTAO)
	p.optColon()
	then := p.parseStmtList()
	var els []ast.Stmt
	if p.current.Kind == token.SENAO {
		p.advance()
		p.optColon()
		els = p.parseStmtList()
	}
	p.expect(token.FIM_SE)
	return &ast.If{Pos: line, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() ast.Stmt {
	line := p.current.Line
	p.advance() // ENQUANTO
	cond := p.parseExpr()
	p.expect(token.FACA)
	p.optColon()
	body := p.parseStmtList()
	p.expect(token.FIM_ENQUANTO)
	body = RepairLoopIncrements(cond, body)
	return &ast.While{Pos: line, Cond: cond, Body: body}
}

func (p *Parser) parseFor() ast.Stmt {
	line := p.current.Line
	p.advance() // PARA
	v := p.expect(token.IDENT).Lexeme
	p.expect(token.EM)
	lo := p.parsePrimaryNumberExpr()
	p.expect(token.PONTO)
	p.expect(token.PONTO)
	hi := p.parsePrimaryNumberExpr()
	body := p.parseStmtList()
	return &ast.For{Pos: line, Var: v, Lo: lo, Hi: hi, Body: body}
}

func (p *Parser) parsePrimaryNumberExpr() ast.Expr {
	line := p.current.Line
	if p.current.Kind == token.NUM_INTEIRO {
		v, _ := strconv.ParseInt(p.current.Lexeme, 10, 64)
		p.advance()
		return &ast.Int{Pos: line, Value: v}
	}
	p.errorHere("expected integer bound")
	p.advance()
	return &ast.Int{Pos: line, Value: 0}
}

// --- expressions, precedence-climbing: relational < additive < multiplicative < unary < primary ---

func (p *Parser) parseExpr() ast.Expr {
	left := p.parseAdditive()
	for p.current.Kind == token.OP_REL {
		op := p.current.Lexeme
		line := p.current.Line
		p.advance()
		right := p.parseAdditive()
		left = &ast.BinOp{Pos: line, Op: op, L: left, R: right}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.current.Kind == token.OP_SOMA || p.current.Kind == token.OP_SUB {
		op := p.current.Lexeme
		line := p.current.Line
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinOp{Pos: line, Op: op, L: left, R: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.current.Kind == token.OP_MULT || p.current.Kind == token.OP_DIV {
		op := p.current.Lexeme
		line := p.current.Line
		p.advance()
		right := p.parseUnary()
		left = &ast.BinOp{Pos: line, Op: op, L: left, R: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if p.current.Kind == token.OP_SUB {
		line := p.current.Line
		p.advance()
		e := p.parseUnary()
		return &ast.UnOp{Pos: line, Op: "-", E: e}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.current
	switch t.Kind {
	case token.NUM_INTEIRO:
		p.advance()
		v, _ := strconv.ParseInt(t.Lexeme, 10, 64)
		return &ast.Int{Pos: t.Line, Value: v}
	case token.NUM_REAL:
		p.advance()
		v, _ := strconv.ParseFloat(t.Lexeme, 64)
		return &ast.Real{Pos: t.Line, Value: v}
	case token.STRING:
		p.advance()
		return &ast.Str{Pos: t.Line, Value: t.Lexeme}
	case token.BOOLEAN:
		p.advance()
		v, _ := token.LookupBool(t.Lexeme)
		return &ast.Bool{Pos: t.Line, Value: v}
	case token.ABRE_PARENTESES:
		p.advance()
		e := p.parseExpr()
		p.expect(token.FECHA_PARENTESES)
		return e
	case token.IDENT:
		p.advance()
		if p.current.Kind == token.ABRE_PARENTESES {
			p.advance()
			var args []ast.Expr
			if p.current.Kind != token.FECHA_PARENTESES {
				args = p.parseExprList()
			}
			p.expect(token.FECHA_PARENTESES)
			return &ast.Call{Pos: t.Line, Name: t.Lexeme, Args: args}
		}
		if p.current.Kind == token.ABRE_COLCHETE {
			indices := p.parseIndices()
			return &ast.ArrayRef{Pos: t.Line, Name: t.Lexeme, Indices: indices}
		}
		return &ast.Id{Pos: t.Line, Name: t.Lexeme}
	}
	p.errorHere("expected expression")
	p.advance()
	return &ast.Int{Pos: t.Line, Value: 0}
}
