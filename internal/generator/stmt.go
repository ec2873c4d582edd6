package generator

import (
	"strings"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
)

// block prints a braced block starting at the current column. The closing
// brace is left unterminated so callers can continue with "else" or
// "while".
func (g *Generator) block(id ast.NodeID) {
	b, ok := g.prog.Nodes.Get(id).(*ast.Block)
	if !ok {
		// A lone statement body gets braces of its own.
		g.print("{\n")
		g.indentAdd()
		g.statement(id)
		g.indentSub()
		g.writeIndent()
		g.print("}")
		return
	}
	if len(b.Statements) == 0 {
		g.print("{}")
		return
	}
	g.print("{\n")
	g.indentAdd()
	for _, s := range b.Statements {
		g.statement(s)
	}
	g.indentSub()
	g.writeIndent()
	g.print("}")
}

// statement prints one statement on its own indented line(s).
func (g *Generator) statement(id ast.NodeID) {
	switch n := g.prog.Nodes.Get(id).(type) {
	case *ast.Block:
		g.writeIndent()
		g.block(id)
		g.newline()

	case *ast.ExpressionStatement:
		g.line("%s;", g.exprString(n.Expr))

	case *ast.VariableDeclaration:
		g.line("%s;", g.variableDeclaration(n))

	case *ast.If:
		g.writeIndent()
		g.ifChain(n)
		g.newline()

	case *ast.While:
		g.writeIndent()
		g.printf("while (%s) ", g.exprString(n.Condition))
		g.block(n.Body)
		g.newline()

	case *ast.DoWhile:
		g.writeIndent()
		g.print("do ")
		g.block(n.Body)
		g.printf(" while (%s);", g.exprString(n.Condition))
		g.newline()

	case *ast.For:
		g.writeIndent()
		g.printf("for (%s; %s; %s) ", g.forInit(n.Init), g.optionalExpr(n.Condition), g.optionalExpr(n.Update))
		g.block(n.Body)
		g.newline()

	case *ast.Switch:
		g.line("switch (%s) {", g.exprString(n.Value))
		for _, c := range n.Cases {
			g.switchCase(c)
		}
		g.line("}")

	case *ast.Return:
		if n.Value.IsValid() {
			g.line("return %s;", g.exprString(n.Value))
		} else {
			g.line("return;")
		}

	case *ast.Break:
		g.line("break;")

	case *ast.Continue:
		g.line("continue;")

	case *ast.Discard:
		g.dialect.Discard(g)

	default:
		g.fail(diagnostic.CodeUnsupportedNode, "unsupported statement %s", g.prog.Nodes.Get(id).Kind())
	}
}

// ifChain prints if / else if / else without nesting the else branches.
func (g *Generator) ifChain(n *ast.If) {
	g.printf("if (%s) ", g.exprString(n.Condition))
	g.block(n.Then)
	if !n.Else.IsValid() {
		return
	}
	g.print(" else ")
	if next, ok := g.prog.Nodes.Get(n.Else).(*ast.If); ok {
		g.ifChain(next)
		return
	}
	g.block(n.Else)
}

func (g *Generator) switchCase(id ast.NodeID) {
	var body []ast.NodeID
	switch c := g.prog.Nodes.Get(id).(type) {
	case *ast.Case:
		g.line("case %s:", g.exprString(c.Value))
		body = c.Body
	case *ast.Default:
		g.line("default:")
		body = c.Body
	default:
		g.fail(diagnostic.CodeUnsupportedNode, "unsupported switch label %s", c.Kind())
		return
	}
	g.indentAdd()
	for _, s := range body {
		g.statement(s)
	}
	g.indentSub()
}

// variableDeclaration renders "T a = x, b[4]" without the semicolon.
func (g *Generator) variableDeclaration(n *ast.VariableDeclaration) string {
	var sb strings.Builder
	for i, id := range n.Variables {
		v := &g.prog.Variables[id]
		if i == 0 {
			sb.WriteString(g.typeName(v.Type) + " ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(g.variableName(id) + arraySuffix(v))
		if i < len(n.Initializers) && n.Initializers[i].IsValid() {
			sb.WriteString(" = " + g.exprString(n.Initializers[i]))
		}
	}
	return sb.String()
}

func (g *Generator) forInit(id ast.NodeID) string {
	if !id.IsValid() {
		return ""
	}
	switch n := g.prog.Nodes.Get(id).(type) {
	case *ast.VariableDeclaration:
		return g.variableDeclaration(n)
	case *ast.ExpressionStatement:
		return g.exprString(n.Expr)
	}
	g.fail(diagnostic.CodeUnsupportedNode, "unsupported for initializer %s", g.prog.Nodes.Get(id).Kind())
	return ""
}

func (g *Generator) optionalExpr(id ast.NodeID) string {
	if !id.IsValid() {
		return ""
	}
	return g.exprString(id)
}
