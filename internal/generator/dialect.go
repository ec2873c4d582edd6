package generator

import (
	"fmt"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/builtins"
)

// Dialect spells the constructs that differ between targets. Methods write
// to the generator's buffer; the generator is passed in so a dialect can
// print nested expressions and reach the name caches.
type Dialect interface {
	// TypeName spells a builtin (non-struct) type.
	TypeName(g *Generator, t *ast.Type) string
	// EntryName names the function implementing an entry point.
	EntryName(g *Generator, fn *ast.Function) string

	Prologue(g *Generator)
	Struct(g *Generator, s *ast.Struct)
	CBuffer(g *Generator, s *ast.Struct)
	Texture(g *Generator, id ast.TextureID)
	// FunctionSignature prints everything before the body's opening brace.
	FunctionSignature(g *Generator, fn ast.FunctionID)

	Call(g *Generator, call *ast.FunctionCall)
	IntrinsicCall(g *Generator, in *builtins.Intrinsic, call *ast.IntrinsicCall)
	TextureCall(g *Generator, in *builtins.Intrinsic, call *ast.IntrinsicCall)
	Cast(g *Generator, cast *ast.Cast)
	Constructor(g *Generator, ctor *ast.Constructor)
	// CBufferMember prints a reference to a cbuffer member.
	CBufferMember(g *Generator, id ast.VariableID)

	Discard(g *Generator)
	Epilogue(g *Generator)
}

// defaultDialect prints the input language back out. The other dialects
// embed it.
type defaultDialect struct{}

func (defaultDialect) TypeName(g *Generator, t *ast.Type) string { return t.Name }

func (defaultDialect) EntryName(g *Generator, fn *ast.Function) string { return fn.Name }

func (defaultDialect) Prologue(g *Generator) {}

func (defaultDialect) Epilogue(g *Generator) {}

func (defaultDialect) Struct(g *Generator, s *ast.Struct) {
	g.printStruct(s, func(i int, member *ast.Variable) string {
		if member.Semantic.Kind == ast.SemanticNone {
			return ""
		}
		return " : " + member.Semantic.String()
	})
}

func (defaultDialect) CBuffer(g *Generator, s *ast.Struct) {
	g.line("cbuffer %s : slot(%d) {", g.structName(s), s.Slot)
	g.indentAdd()
	g.forEachMember(s, func(i int, id ast.VariableID, member *ast.Variable) {
		g.line("%s;", g.declarator(member.Type, g.variableName(id), member))
	})
	g.indentSub()
	g.line("};")
	g.newline()
}

func (defaultDialect) Texture(g *Generator, id ast.TextureID) {
	tex := &g.prog.Textures[id]
	g.line("%s %s : slot(%d);", sourceTextureType(tex), g.textureName(id), tex.Slot)
	g.newline()
}

func sourceTextureType(tex *ast.Texture) string {
	if tex.Writable {
		return "rwtexture2D"
	}
	switch tex.Dimension {
	case ast.Texture3D:
		return "texture3D"
	case ast.TextureCube:
		return "textureCube"
	}
	return "texture2D"
}

func (defaultDialect) FunctionSignature(g *Generator, id ast.FunctionID) {
	fn := &g.prog.Functions[id]
	if fn.FunctionType == ast.FunctionMainCompute {
		g.printNumThreads(fn)
	}
	g.printf("%s %s(%s)", g.typeName(fn.Type), g.functionName(id), joinParams(g.parameterList(id)))
}

func (g *Generator) printNumThreads(fn *ast.Function) {
	g.printf("[numthreads(%d, %d, %d)]\n", fn.Threads[0], fn.Threads[1], fn.Threads[2])
}

func (defaultDialect) Call(g *Generator, call *ast.FunctionCall) {
	g.print(g.functionName(call.Function))
	g.args(call.Args)
}

func (defaultDialect) IntrinsicCall(g *Generator, in *builtins.Intrinsic, call *ast.IntrinsicCall) {
	g.print(in.Name)
	g.args(call.Args)
}

func (defaultDialect) TextureCall(g *Generator, in *builtins.Intrinsic, call *ast.IntrinsicCall) {
	g.print(in.Name)
	g.args(call.Args)
}

func (defaultDialect) Cast(g *Generator, cast *ast.Cast) {
	g.printf("(%s)", g.typeName(cast.Type))
	g.expr(cast.Value)
}

func (defaultDialect) Constructor(g *Generator, ctor *ast.Constructor) {
	g.print(g.typeName(ctor.Type))
	g.args(ctor.Args)
}

func (defaultDialect) CBufferMember(g *Generator, id ast.VariableID) {
	g.print(g.variableName(id))
}

func (defaultDialect) Discard(g *Generator) {
	g.line("discard;")
}

// ----------------------------------------------------------------------------
// Shared Dialect Helpers
// ----------------------------------------------------------------------------

// textureArg returns the texture a texture intrinsic operates on.
func (g *Generator) textureArg(call *ast.IntrinsicCall) ast.TextureID {
	return g.prog.Nodes.Get(call.Args[0]).(*ast.TextureRef).Texture
}

// prefixedMember names a cbuffer member flattened into the global scope as
// "<cbuffer>_<member>", made unique against the program's identifiers.
func (g *Generator) prefixedMember(id ast.VariableID) string {
	if name, ok := g.names.variables[id]; ok {
		return name
	}
	v := &g.prog.Variables[id]
	owner := g.prog.Types[g.prog.Structs[v.Owner].Type].Name
	name := g.names.unique(owner + "_" + v.Name)
	g.names.variables[id] = name
	return name
}

// printFlatCBuffer prints the members of a cbuffer inside a block whose
// header is already written.
func (g *Generator) printFlatCBuffer(s *ast.Struct) {
	g.indentAdd()
	g.forEachMember(s, func(i int, id ast.VariableID, member *ast.Variable) {
		g.line("%s;", g.declarator(member.Type, g.prefixedMember(id), member))
	})
	g.indentSub()
	g.line("};")
	g.newline()
}

// vectorTypeName spells a vector or matrix with GLSL-style names.
func vectorTypeName(t *ast.Type) string {
	if t.IsMatrix() {
		if t.Columns == t.Rows {
			return fmt.Sprintf("mat%d", t.Columns)
		}
		return fmt.Sprintf("mat%dx%d", t.Columns, t.Rows)
	}
	prefix := ""
	switch t.Scalar {
	case ast.ScalarBool:
		prefix = "b"
	case ast.ScalarInt:
		prefix = "i"
	case ast.ScalarUint:
		prefix = "u"
	}
	return fmt.Sprintf("%svec%d", prefix, t.Columns)
}
