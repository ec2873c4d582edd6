package parser

import (
	"fmt"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/builtins"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
	"github.com/HugoDaniel/shadercross/internal/lexer"
)

// shape identifies a builtin type by its components.
type shape struct {
	scalar  ast.ScalarKind
	columns uint8
	rows    uint8
}

var scalarNames = [...]string{
	ast.ScalarBool:  "bool",
	ast.ScalarInt:   "int",
	ast.ScalarUint:  "uint",
	ast.ScalarFloat: "float",
}

// registerBuiltinTypes seeds the type table with every builtin spelling.
func (p *Parser) registerBuiltinTypes() {
	p.registerBuiltin("void", shape{scalar: ast.ScalarVoid})

	for scalar := ast.ScalarBool; scalar <= ast.ScalarFloat; scalar++ {
		p.registerBuiltin(scalarNames[scalar], shape{scalar: scalar, columns: 1})
		for n := uint8(2); n <= 4; n++ {
			p.registerBuiltin(fmt.Sprintf("%s%d", scalarNames[scalar], n), shape{scalar: scalar, columns: n})
		}
	}

	for n := uint8(2); n <= 4; n++ {
		p.registerBuiltin(fmt.Sprintf("float%dx%d", n, n), shape{scalar: ast.ScalarFloat, columns: n, rows: n})
	}
}

func (p *Parser) registerBuiltin(name string, s shape) {
	id := p.prog.RegisterType(ast.Type{
		Name:    name,
		Scalar:  s.scalar,
		Columns: s.columns,
		Rows:    s.rows,
		Struct:  ast.NoStruct,
	})
	p.types[name] = id
	p.shapes[s] = id
}

// builtin returns the builtin type with the given shape.
func (p *Parser) builtin(scalar ast.ScalarKind, columns, rows uint8) ast.TypeID {
	if columns <= 1 && rows == 0 {
		columns = 1
	}
	if id, ok := p.shapes[shape{scalar, columns, rows}]; ok {
		return id
	}
	return ast.NoType
}

func (p *Parser) lookupType(tok lexer.Token) ast.TypeID {
	id, ok := p.types[tok.Name]
	p.errorIf(!ok, tok, diagnostic.CodeUndefinedSymbol, "unknown type '%s'", tok.Name)
	return id
}

func (p *Parser) isTypeName(name string) bool {
	_, ok := p.types[name]
	return ok
}

func (p *Parser) isCBufferType(id ast.TypeID) bool {
	s := p.prog.StructOf(id)
	return s != nil && s.StructType == ast.StructCBuffer
}

func (p *Parser) typeAt(id ast.TypeID) *ast.Type {
	return &p.prog.Types[id]
}

// ----------------------------------------------------------------------------
// Expression Typing
// ----------------------------------------------------------------------------

var scalarRank = [...]int{
	ast.ScalarBool:  1,
	ast.ScalarInt:   2,
	ast.ScalarUint:  3,
	ast.ScalarFloat: 4,
}

func rank(t *ast.Type) int {
	if int(t.Scalar) < len(scalarRank) {
		return scalarRank[t.Scalar]
	}
	return 0
}

// widest picks the operand type that other operands promote to: matrices
// over vectors over scalars, then float over uint over int over bool.
func (p *Parser) widest(a, b ast.TypeID) ast.TypeID {
	if a == ast.NoType {
		return b
	}
	if b == ast.NoType {
		return a
	}
	ta, tb := p.typeAt(a), p.typeAt(b)
	if ta.IsStruct() || tb.IsStruct() {
		return a
	}

	size := func(t *ast.Type) int { return int(t.Columns) * max(int(t.Rows), 1) }
	switch {
	case size(ta) > size(tb):
		return p.builtin(max(ta.Scalar, tb.Scalar, ast.ScalarBool), ta.Columns, ta.Rows)
	case size(tb) > size(ta):
		return p.builtin(max(ta.Scalar, tb.Scalar, ast.ScalarBool), tb.Columns, tb.Rows)
	}
	if rank(tb) > rank(ta) {
		return b
	}
	return a
}

// binaryType returns the result type of a binary operation.
func (p *Parser) binaryType(op ast.BinaryOp, left, right ast.TypeID) ast.TypeID {
	switch {
	case op.IsAssignment():
		return left
	case op == ast.BinaryLogicalAnd || op == ast.BinaryLogicalOr:
		return p.builtin(ast.ScalarBool, 1, 0)
	case op.IsComparison():
		w := p.widest(left, right)
		if w == ast.NoType || p.typeAt(w).IsStruct() {
			return p.builtin(ast.ScalarBool, 1, 0)
		}
		return p.builtin(ast.ScalarBool, p.typeAt(w).Columns, 0)
	case op == ast.BinaryMul:
		return p.mulType(left, right)
	case op == ast.BinaryShl || op == ast.BinaryShr:
		return left
	}
	return p.widest(left, right)
}

// mulType applies matrix/vector product shapes.
func (p *Parser) mulType(left, right ast.TypeID) ast.TypeID {
	if left == ast.NoType || right == ast.NoType {
		return p.widest(left, right)
	}
	tl, tr := p.typeAt(left), p.typeAt(right)
	switch {
	case tl.IsMatrix() && tr.IsVector():
		return right
	case tl.IsVector() && tr.IsMatrix():
		return left
	case tl.IsMatrix() && tr.IsMatrix():
		return left
	}
	return p.widest(left, right)
}

// indexType returns the element type of base[i].
func (p *Parser) indexType(base ast.NodeID) ast.TypeID {
	baseType := p.prog.TypeOf(base)
	if p.arrayDims(base) > 0 {
		return baseType
	}
	t := p.typeAt(baseType)
	switch {
	case t.IsMatrix():
		return p.builtin(t.Scalar, t.Columns, 0)
	case t.IsVector():
		return p.builtin(t.Scalar, 1, 0)
	}
	return ast.NoType
}

// arrayDims returns how many array subscripts an expression still accepts.
func (p *Parser) arrayDims(id ast.NodeID) int {
	dims := func(v ast.VariableID) int {
		variable := &p.prog.Variables[v]
		switch {
		case variable.ArrayLengthY > 0:
			return 2
		case variable.ArrayLengthX > 0:
			return 1
		}
		return 0
	}

	switch n := p.prog.Nodes.Get(id).(type) {
	case *ast.VariableRef:
		return dims(n.Variable)
	case *ast.Member:
		return dims(n.Member)
	case *ast.Index:
		if d := p.arrayDims(n.Base); d > 0 {
			return d - 1
		}
	case *ast.Group:
		return p.arrayDims(n.Expr)
	}
	return 0
}

// intrinsicType applies an intrinsic's return rule to its arguments.
func (p *Parser) intrinsicType(in *builtins.Intrinsic, args []ast.NodeID) ast.TypeID {
	argType := func(i int) ast.TypeID {
		if i < len(args) {
			return p.prog.TypeOf(args[i])
		}
		return ast.NoType
	}

	switch in.Return {
	case builtins.ReturnArg0:
		return argType(0)
	case builtins.ReturnWidest:
		w := ast.NoType
		for i := range args {
			w = p.widest(w, argType(i))
		}
		return w
	case builtins.ReturnScalar:
		if t := argType(0); t != ast.NoType {
			return p.builtin(p.typeAt(t).Scalar, 1, 0)
		}
		return p.builtin(ast.ScalarFloat, 1, 0)
	case builtins.ReturnBool:
		return p.builtin(ast.ScalarBool, 1, 0)
	case builtins.ReturnMul:
		return p.mulType(argType(0), argType(1))
	case builtins.ReturnFloat4:
		return p.builtin(ast.ScalarFloat, 4, 0)
	}
	return p.types["void"]
}
