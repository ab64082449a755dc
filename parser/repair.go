package parser

import "github.com/minipar-lang/miniparc/ast"

// relOps are the relational operators a while condition may use to expose
// its control variable.
var relOps = map[string]bool{
	"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true,
}

// controlVar returns the name of the variable a while condition tests,
// when the condition has the shape `id <rel> expr` or `expr <rel> id`.
// Conditions that don't name a bare identifier on either side have no
// detectable control variable and are left untouched.
func controlVar(cond ast.Expr) (string, bool) {
	bin, ok := cond.(*ast.BinOp)
	if !ok || !relOps[bin.Op] {
		return "", false
	}
	if id, ok := bin.L.(*ast.Id); ok {
		return id.Name, true
	}
	if id, ok := bin.R.(*ast.Id); ok {
		return id.Name, true
	}
	return "", false
}

// isIncrementOf reports whether stmt is an assignment of the shape
// `v = v + k` or `v = v - k` for the named control variable.
func isIncrementOf(stmt ast.Stmt, name string) bool {
	asn, ok := stmt.(*ast.Assign)
	if !ok || asn.Name != name {
		return false
	}
	bin, ok := asn.Expr.(*ast.BinOp)
	if !ok || (bin.Op != "+" && bin.Op != "-") {
		return false
	}
	id, ok := bin.L.(*ast.Id)
	return ok && id.Name == name
}

// RepairLoopIncrements is a defensive, compatibility-only pass: well-formed
// MiniPar programs place a while loop's own control-variable increment
// directly in the loop's body, and the canonical parse path never needs
// this to run. It exists because some source accidentally buries the
// increment inside a nested SE/SENAO arm or inside a differently-controlled
// nested ENQUANTO/PARA, which would otherwise loop forever; this walks the
// body once and moves any such increments to the end of the loop's own
// statement list. An increment is never moved past an ESCREVA that
// follows it at that level: if one does, the pending increments are placed
// just before the first such ESCREVA instead.
func RepairLoopIncrements(cond ast.Expr, body []ast.Stmt) []ast.Stmt {
	name, ok := controlVar(cond)
	if !ok {
		return body
	}

	out := make([]ast.Stmt, 0, len(body))
	var pending []ast.Stmt
	for _, stmt := range body {
		if _, isWrite := stmt.(*ast.Write); isWrite {
			out = append(out, pending...)
			pending = nil
		}
		if isIncrementOf(stmt, name) {
			out = append(out, stmt)
			continue
		}
		rewritten, found := extractIncrements(stmt, name)
		if rewritten != nil {
			out = append(out, rewritten)
		}
		pending = append(pending, found...)
	}
	return append(out, pending...)
}

// extractIncrements removes increments of name from anywhere inside
// stmt's nested If/SeqBlock/While/For bodies, bubbling them up to the
// caller rather than reinserting them at an intermediate nesting level,
// so a multiply-nested increment still surfaces at the outer loop's own
// body. If a SE arm is emptied entirely by the removal, the arm itself is
// dropped. It never descends into a ParBlock: each child runs as an
// independent worker, and relocating an increment out of one would change
// which worker performs it.
func extractIncrements(stmt ast.Stmt, name string) (ast.Stmt, []ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.If:
		thenKept, thenFound := removeAndBubble(s.Then, name)
		elseKept, elseFound := removeAndBubble(s.Else, name)
		s.Then = thenKept
		s.Else = elseKept
		found := append(thenFound, elseFound...)
		if len(s.Then) == 0 && len(s.Else) == 0 {
			return nil, found
		}
		return s, found
	case *ast.SeqBlock:
		kept, found := removeAndBubble(s.Body, name)
		s.Body = kept
		return s, found
	case *ast.While:
		if inner, ok := controlVar(s.Cond); ok && inner == name {
			// This nested loop shares the same control variable; its
			// increment belongs to it, not to the outer loop.
			return s, nil
		}
		kept, found := removeAndBubble(s.Body, name)
		s.Body = kept
		return s, found
	case *ast.For:
		if s.Var == name {
			return s, nil
		}
		kept, found := removeAndBubble(s.Body, name)
		s.Body = kept
		return s, found
	default:
		return stmt, nil
	}
}

func removeAndBubble(stmts []ast.Stmt, name string) ([]ast.Stmt, []ast.Stmt) {
	if stmts == nil {
		return nil, nil
	}
	var kept []ast.Stmt
	var found []ast.Stmt
	for _, stmt := range stmts {
		if isIncrementOf(stmt, name) {
			found = append(found, stmt)
			continue
		}
		rewritten, sub := extractIncrements(stmt, name)
		if rewritten != nil {
			kept = append(kept, rewritten)
		}
		found = append(found, sub...)
	}
	return kept, found
}
