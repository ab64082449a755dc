package tac

import (
	"strconv"

	"github.com/minipar-lang/miniparc/ast"
)

// Generator walks a type-checked program once and emits three-address
// code, threading monotone temp/label counters and redirecting emission
// into the current function's own instruction buffer while inside one.
type Generator struct {
	tempCount  int
	labelCount int
	code       []Instruction
	functions  map[string][]Instruction
	funcOrder  []string
	current    string // "" when emitting top-level code
}

// Generate lowers prog into a tac.Program.
func Generate(prog *ast.Program) *Program {
	g := &Generator{functions: map[string][]Instruction{}}
	g.emit(inst("START_PROGRAM"))
	for _, stmt := range prog.Body {
		g.visitStmt(stmt)
	}
	g.emit(inst("END_PROGRAM"))
	return &Program{Code: g.code, Functions: g.functions, FuncOrder: g.funcOrder}
}

func (g *Generator) newTemp() string {
	g.tempCount++
	return "t" + strconv.Itoa(g.tempCount)
}

func (g *Generator) newLabel() string {
	g.labelCount++
	return "L" + strconv.Itoa(g.labelCount)
}

func (g *Generator) emit(in Instruction) {
	if g.current != "" {
		g.functions[g.current] = append(g.functions[g.current], in)
		return
	}
	g.code = append(g.code, in)
}

func (g *Generator) visitStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.SeqBlock:
		for _, inner := range s.Body {
			g.visitStmt(inner)
		}
	case *ast.ParBlock:
		g.emit(inst("PARALLEL_START"))
		for _, worker := range s.Body {
			g.visitStmt(worker)
		}
		g.emit(inst("PARALLEL_END"))
	case *ast.VarDecl, *ast.ArrayDecl:
		// Declarations carry no runtime effect of their own; storage is
		// allocated by armgen/interp from the declared type and dims.
	case *ast.Channel:
		g.emit(inst("CHANNEL_DEF", s.Name, s.Endpoint1, s.Endpoint2))
	case *ast.FuncDecl:
		g.visitFuncDecl(s)
	case *ast.Return:
		result := g.visitExpr(s.Expr)
		g.emit(inst("RETURN", result))
	case *ast.Assign:
		result := g.visitExpr(s.Expr)
		g.emit(inst("ASSIGN", s.Name, result))
	case *ast.ArrayAssign:
		indexResults := make([]string, len(s.Indices))
		for i, idx := range s.Indices {
			indexResults[i] = g.visitExpr(idx)
		}
		exprResult := g.visitExpr(s.Expr)
		addr := g.newTemp()
		g.emit(inst("ARRAY_ADDR", append([]string{addr, s.Name}, indexResults...)...))
		g.emit(inst("ARRAY_STORE", addr, exprResult))
	case *ast.If:
		g.visitIf(s)
	case *ast.While:
		g.visitWhile(s)
	case *ast.For:
		g.visitFor(s)
	case *ast.Read:
		g.emit(inst("READ", s.Name))
	case *ast.Write:
		for _, e := range s.Exprs {
			g.emit(inst("WRITE", g.visitExpr(e)))
		}
	case *ast.Send:
		results := make([]string, len(s.Args))
		for i, e := range s.Args {
			results[i] = g.visitExpr(e)
		}
		for _, r := range results {
			g.emit(inst("SEND_PARAM", r))
		}
		g.emit(inst("SEND", s.Channel, strconv.Itoa(len(results))))
	case *ast.Receive:
		g.emit(inst("RECEIVE", s.Channel, strconv.Itoa(len(s.Vars))))
		for i, name := range s.Vars {
			tmp := g.newTemp()
			g.emit(inst("GET_RECV_PARAM", tmp, strconv.Itoa(i)))
			g.emit(inst("ASSIGN", name, tmp))
		}
	case *ast.ExprStmt:
		g.visitExpr(s.Expr)
	}
}

func (g *Generator) visitFuncDecl(f *ast.FuncDecl) {
	g.functions[f.Name] = nil
	g.funcOrder = append(g.funcOrder, f.Name)
	saved := g.current
	g.current = f.Name

	g.emit(inst("FUNC_BEGIN", f.Name))
	for _, p := range f.Params {
		g.emit(inst("PARAM", p.Name))
	}
	for _, stmt := range f.Body {
		g.visitStmt(stmt)
	}
	g.emit(inst("FUNC_END", f.Name))

	g.current = saved
}

func (g *Generator) visitIf(s *ast.If) {
	cond := g.visitExpr(s.Cond)
	labelThen := g.newLabel()
	labelElse := g.newLabel()
	labelEnd := g.newLabel()

	g.emit(inst("IF_GOTO", cond, labelThen))
	if len(s.Else) > 0 {
		g.emit(inst("GOTO", labelElse))
	} else {
		g.emit(inst("GOTO", labelEnd))
	}

	g.emit(inst("LABEL", labelThen))
	for _, stmt := range s.Then {
		g.visitStmt(stmt)
	}
	g.emit(inst("GOTO", labelEnd))

	if len(s.Else) > 0 {
		g.emit(inst("LABEL", labelElse))
		for _, stmt := range s.Else {
			g.visitStmt(stmt)
		}
	}
	g.emit(inst("LABEL", labelEnd))
}

func (g *Generator) visitWhile(s *ast.While) {
	labelStart := g.newLabel()
	labelBody := g.newLabel()
	labelEnd := g.newLabel()

	g.emit(inst("LABEL", labelStart))
	cond := g.visitExpr(s.Cond)
	g.emit(inst("IF_GOTO", cond, labelBody))
	g.emit(inst("GOTO", labelEnd))

	g.emit(inst("LABEL", labelBody))
	for _, stmt := range s.Body {
		g.visitStmt(stmt)
	}
	g.emit(inst("GOTO", labelStart))
	g.emit(inst("LABEL", labelEnd))
}

func (g *Generator) visitFor(s *ast.For) {
	start := g.visitExpr(s.Lo)
	end := g.visitExpr(s.Hi)

	labelStart := g.newLabel()
	labelBody := g.newLabel()
	labelEnd := g.newLabel()

	g.emit(inst("ASSIGN", s.Var, start))
	g.emit(inst("LABEL", labelStart))

	cond := g.newTemp()
	g.emit(inst("BINOP", cond, s.Var, "<=", end))
	g.emit(inst("IF_GOTO", cond, labelBody))
	g.emit(inst("GOTO", labelEnd))

	g.emit(inst("LABEL", labelBody))
	for _, stmt := range s.Body {
		g.visitStmt(stmt)
	}
	g.emit(inst("BINOP", s.Var, s.Var, "+", "1"))
	g.emit(inst("GOTO", labelStart))
	g.emit(inst("LABEL", labelEnd))
}

// visitExpr lowers expr and returns the name of the temp/variable/literal
// holding its value.
func (g *Generator) visitExpr(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Int:
		return strconv.FormatInt(e.Value, 10)
	case *ast.Real:
		return strconv.FormatFloat(e.Value, 'g', -1, 64)
	case *ast.Bool:
		if e.Value {
			return "1"
		}
		return "0"
	case *ast.Str:
		label := g.newLabel()
		g.emit(inst("STRING_DEF", label, strconv.Quote(e.Value)))
		return label
	case *ast.Id:
		return e.Name
	case *ast.ArrayRef:
		indexResults := make([]string, len(e.Indices))
		for i, idx := range e.Indices {
			indexResults[i] = g.visitExpr(idx)
		}
		addr := g.newTemp()
		g.emit(inst("ARRAY_ADDR", append([]string{addr, e.Name}, indexResults...)...))
		value := g.newTemp()
		g.emit(inst("ARRAY_LOAD", value, addr))
		return value
	case *ast.BinOp:
		left := g.visitExpr(e.L)
		right := g.visitExpr(e.R)
		temp := g.newTemp()
		g.emit(inst("BINOP", temp, left, e.Op, right))
		return temp
	case *ast.UnOp:
		inner := g.visitExpr(e.E)
		temp := g.newTemp()
		if e.Op == "-" {
			g.emit(inst("BINOP", temp, "0", "-", inner))
		}
		return temp
	case *ast.Call:
		argResults := make([]string, len(e.Args))
		for i, a := range e.Args {
			argResults[i] = g.visitExpr(a)
		}
		for _, r := range argResults {
			g.emit(inst("PUSH_PARAM", r))
		}
		result := g.newTemp()
		g.emit(inst("CALL_RESULT", result, e.Name, strconv.Itoa(len(e.Args))))
		return result
	}
	return ""
}
