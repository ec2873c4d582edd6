package generator

import (
	"strconv"
	"strings"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/builtins"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
)

// expr prints an expression. Parentheses come from Group nodes only; the
// tree keeps the source grouping, so printing it back needs no
// precedence analysis.
func (g *Generator) expr(id ast.NodeID) {
	switch n := g.prog.Nodes.Get(id).(type) {
	case *ast.Unary:
		if n.Op.IsPostfix() {
			g.expr(n.Operand)
			g.print(n.Op.String())
			return
		}
		g.print(n.Op.String())
		if g.fuses(n.Op, n.Operand) {
			g.print(" ")
		}
		g.expr(n.Operand)

	case *ast.Binary:
		g.expr(n.Left)
		g.print(" " + n.Op.String() + " ")
		g.expr(n.Right)

	case *ast.Ternary:
		g.expr(n.Condition)
		g.print(" ? ")
		g.expr(n.Then)
		g.print(" : ")
		g.expr(n.Else)

	case *ast.Cast:
		g.dialect.Cast(g, n)

	case *ast.Constructor:
		g.dialect.Constructor(g, n)

	case *ast.FunctionCall:
		g.dialect.Call(g, n)

	case *ast.IntrinsicCall:
		in := builtins.Get(n.Intrinsic)
		if in.Form.IsTexture() {
			g.dialect.TextureCall(g, in, n)
		} else {
			g.dialect.IntrinsicCall(g, in, n)
		}

	case *ast.VariableRef:
		if g.prog.Variables[n.Variable].Owner != ast.NoStruct {
			g.dialect.CBufferMember(g, n.Variable)
		} else {
			g.print(g.variableName(n.Variable))
		}

	case *ast.Member:
		g.expr(n.Base)
		g.print("." + g.variableName(n.Member))

	case *ast.SwizzleExpr:
		g.expr(n.Base)
		g.print("." + g.prog.Swizzles[n.Swizzle].String())

	case *ast.Index:
		g.expr(n.Base)
		g.print("[")
		g.expr(n.Index)
		g.print("]")

	case *ast.Group:
		g.print("(")
		g.expr(n.Expr)
		g.print(")")

	case *ast.Integer:
		g.print(strconv.FormatUint(n.Value, 10))
		if n.Unsigned {
			g.print("u")
		}

	case *ast.Number:
		g.print(formatFloat(n.Value))

	case *ast.Boolean:
		g.print(strconv.FormatBool(n.Value))

	case *ast.TextureRef:
		g.print(g.textureName(n.Texture))

	default:
		g.fail(diagnostic.CodeUnsupportedNode, "unsupported expression %s", g.prog.Nodes.Get(id).Kind())
	}
}

// fuses reports whether printing op directly before operand would merge
// two tokens, as in "- -a" or "+ ++a".
func (g *Generator) fuses(op ast.UnaryOp, operand ast.NodeID) bool {
	inner, ok := g.prog.Nodes.Get(operand).(*ast.Unary)
	if !ok || inner.Op.IsPostfix() {
		return false
	}
	first := inner.Op.String()[0]
	last := op.String()[len(op.String())-1]
	return (first == '-' || first == '+') && first == last
}

// args prints a parenthesized argument list.
func (g *Generator) args(args []ast.NodeID) {
	g.print("(")
	for i, arg := range args {
		if i > 0 {
			g.print(", ")
		}
		g.expr(arg)
	}
	g.print(")")
}

// exprString renders an expression without touching the output buffer.
func (g *Generator) exprString(id ast.NodeID) string {
	start := g.buf.Len()
	g.expr(id)
	s := g.buf.String()[start:]
	g.buf.Truncate(start)
	return s
}

// formatFloat prints the shortest representation of v that reads back as a
// float literal in every target.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
