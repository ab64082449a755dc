package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Pretty renders a node as an indented tree, used for the compiler's
// textual AST output.
func Pretty(n Node) string {
	var sb strings.Builder
	writeNode(&sb, n, 0)
	return sb.String()
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
}

func writeStmts(sb *strings.Builder, stmts []Stmt, depth int) {
	for _, s := range stmts {
		writeNode(sb, s, depth)
	}
}

func writeNode(sb *strings.Builder, n Node, depth int) {
	indent(sb, depth)
	switch v := n.(type) {
	case *Program:
		sb.WriteString("Program\n")
		writeStmts(sb, v.Body, depth+1)
	case *SeqBlock:
		sb.WriteString("SeqBlock\n")
		writeStmts(sb, v.Body, depth+1)
	case *ParBlock:
		sb.WriteString("ParBlock\n")
		writeStmts(sb, v.Body, depth+1)
	case *VarDecl:
		fmt.Fprintf(sb, "VarDecl %s:%s\n", v.Name, v.Type)
	case *ArrayDecl:
		fmt.Fprintf(sb, "ArrayDecl %s:%s%s\n", v.Name, v.Type, dimsString(v.Dims))
	case *Channel:
		fmt.Fprintf(sb, "Channel %s %s %s\n", v.Name, v.Endpoint1, v.Endpoint2)
	case *FuncDecl:
		fmt.Fprintf(sb, "FuncDecl %s(%s):%s\n", v.Name, paramsString(v.Params), v.RetType)
		writeStmts(sb, v.Body, depth+1)
	case *Return:
		sb.WriteString("Return\n")
		writeNode(sb, v.Expr, depth+1)
	case *Assign:
		fmt.Fprintf(sb, "Assign %s =\n", v.Name)
		writeNode(sb, v.Expr, depth+1)
	case *ArrayAssign:
		fmt.Fprintf(sb, "ArrayAssign %s%s =\n", v.Name, indicesString(v.Indices, depth+1))
		writeNode(sb, v.Expr, depth+1)
	case *If:
		sb.WriteString("If\n")
		writeNode(sb, v.Cond, depth+1)
		indent(sb, depth)
		sb.WriteString("Then\n")
		writeStmts(sb, v.Then, depth+1)
		if v.Else != nil {
			indent(sb, depth)
			sb.WriteString("Else\n")
			writeStmts(sb, v.Else, depth+1)
		}
	case *While:
		sb.WriteString("While\n")
		writeNode(sb, v.Cond, depth+1)
		indent(sb, depth)
		sb.WriteString("Do\n")
		writeStmts(sb, v.Body, depth+1)
	case *For:
		fmt.Fprintf(sb, "For %s\n", v.Var)
		writeNode(sb, v.Lo, depth+1)
		writeNode(sb, v.Hi, depth+1)
		writeStmts(sb, v.Body, depth+1)
	case *Read:
		fmt.Fprintf(sb, "Read %s\n", v.Name)
	case *Write:
		sb.WriteString("Write\n")
		for _, e := range v.Exprs {
			writeNode(sb, e, depth+1)
		}
	case *Send:
		fmt.Fprintf(sb, "Send %s\n", v.Channel)
		for _, e := range v.Args {
			writeNode(sb, e, depth+1)
		}
	case *Receive:
		fmt.Fprintf(sb, "Receive %s %s\n", v.Channel, strings.Join(v.Vars, ","))
	case *ExprStmt:
		sb.WriteString("ExprStmt\n")
		writeNode(sb, v.Expr, depth+1)
	case *Int:
		fmt.Fprintf(sb, "Int %d\n", v.Value)
	case *Real:
		fmt.Fprintf(sb, "Real %s\n", strconv.FormatFloat(v.Value, 'g', -1, 64))
	case *Str:
		fmt.Fprintf(sb, "Str %q\n", v.Value)
	case *Bool:
		fmt.Fprintf(sb, "Bool %t\n", v.Value)
	case *Id:
		fmt.Fprintf(sb, "Id %s\n", v.Name)
	case *ArrayRef:
		fmt.Fprintf(sb, "ArrayRef %s%s\n", v.Name, indicesString(v.Indices, depth+1))
	case *BinOp:
		fmt.Fprintf(sb, "BinOp %s\n", v.Op)
		writeNode(sb, v.L, depth+1)
		writeNode(sb, v.R, depth+1)
	case *UnOp:
		fmt.Fprintf(sb, "UnOp %s\n", v.Op)
		writeNode(sb, v.E, depth+1)
	case *Call:
		fmt.Fprintf(sb, "Call %s\n", v.Name)
		for _, a := range v.Args {
			writeNode(sb, a, depth+1)
		}
	default:
		fmt.Fprintf(sb, "?%T\n", v)
	}
}

func dimsString(dims []int) string {
	var sb strings.Builder
	for _, d := range dims {
		fmt.Fprintf(&sb, "[%d]", d)
	}
	return sb.String()
}

func paramsString(params []Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + ":" + p.Type
	}
	return strings.Join(parts, ", ")
}

func indicesString(indices []Expr, depth int) string {
	var sb strings.Builder
	for _, idx := range indices {
		fmt.Fprintf(&sb, "[%s]", compactExpr(idx))
	}
	return sb.String()
}

// compactExpr renders an expression on a single line, for use inside
// bracketed index lists and other inline positions.
func compactExpr(e Expr) string {
	switch v := e.(type) {
	case *Int:
		return strconv.FormatInt(v.Value, 10)
	case *Real:
		return strconv.FormatFloat(v.Value, 'g', -1, 64)
	case *Str:
		return strconv.Quote(v.Value)
	case *Bool:
		return strconv.FormatBool(v.Value)
	case *Id:
		return v.Name
	case *ArrayRef:
		return v.Name + indicesString(v.Indices, 0)
	case *BinOp:
		return compactExpr(v.L) + " " + v.Op + " " + compactExpr(v.R)
	case *UnOp:
		return v.Op + compactExpr(v.E)
	case *Call:
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			parts[i] = compactExpr(a)
		}
		return v.Name + "(" + strings.Join(parts, ", ") + ")"
	default:
		return fmt.Sprintf("?%T", v)
	}
}

func (n *Program) String() string     { return Pretty(n) }
func (n *SeqBlock) String() string    { return Pretty(n) }
func (n *ParBlock) String() string    { return Pretty(n) }
func (n *VarDecl) String() string     { return Pretty(n) }
func (n *ArrayDecl) String() string   { return Pretty(n) }
func (n *Channel) String() string     { return Pretty(n) }
func (n *FuncDecl) String() string    { return Pretty(n) }
func (n *Return) String() string      { return Pretty(n) }
func (n *Assign) String() string      { return Pretty(n) }
func (n *ArrayAssign) String() string { return Pretty(n) }
func (n *If) String() string          { return Pretty(n) }
func (n *While) String() string       { return Pretty(n) }
func (n *For) String() string         { return Pretty(n) }
func (n *Read) String() string        { return Pretty(n) }
func (n *Write) String() string       { return Pretty(n) }
func (n *Send) String() string        { return Pretty(n) }
func (n *Receive) String() string     { return Pretty(n) }
func (n *ExprStmt) String() string    { return Pretty(n) }
func (n *Int) String() string         { return Pretty(n) }
func (n *Real) String() string        { return Pretty(n) }
func (n *Str) String() string         { return Pretty(n) }
func (n *Bool) String() string        { return Pretty(n) }
func (n *Id) String() string          { return Pretty(n) }
func (n *ArrayRef) String() string    { return Pretty(n) }
func (n *BinOp) String() string       { return Pretty(n) }
func (n *UnOp) String() string        { return Pretty(n) }
func (n *Call) String() string        { return Pretty(n) }
