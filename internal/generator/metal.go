package generator

import (
	"fmt"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/builtins"
)

// metalDialect emits Metal Shading Language. Metal has no global
// resources, so every cbuffer and texture a function reaches is passed to
// it as a parameter, down from the entry point.
type metalDialect struct {
	defaultDialect
}

func (metalDialect) EntryName(g *Generator, fn *ast.Function) string {
	if fn.FunctionType == ast.FunctionMainCompute {
		return fn.Name + "_body"
	}
	return fn.Name
}

func (metalDialect) Prologue(g *Generator) {
	g.line("#include <metal_stdlib>")
	g.line("using namespace metal;")
	g.newline()
}

func (metalDialect) Struct(g *Generator, s *ast.Struct) {
	g.printStruct(s, func(i int, member *ast.Variable) string {
		return metalAttribute(g, s, i, member)
	})
}

func metalAttribute(g *Generator, s *ast.Struct, i int, member *ast.Variable) string {
	sem := member.Semantic
	switch {
	case s.StructType == ast.StructVertexInput:
		return fmt.Sprintf(" [[attribute(%d)]]", i)
	case isVarying(s) && sem.Kind == ast.SemanticPosition:
		return " [[position]]"
	case isVarying(s):
		location := g.varyingLocation(sem)
		if g.prog.Types[member.Type].Scalar != ast.ScalarFloat {
			return fmt.Sprintf(" [[user(locn%d), flat]]", location)
		}
		return fmt.Sprintf(" [[user(locn%d)]]", location)
	case s.StructType == ast.StructFragmentOutput && sem.Kind == ast.SemanticColor:
		return fmt.Sprintf(" [[color(%d)]]", sem.Index)
	case s.StructType == ast.StructFragmentOutput && sem.Kind == ast.SemanticDepth:
		return " [[depth(any)]]"
	}
	return ""
}

func (metalDialect) CBuffer(g *Generator, s *ast.Struct) {
	g.printStruct(s, func(int, *ast.Variable) string { return "" })
}

func (metalDialect) CBufferMember(g *Generator, id ast.VariableID) {
	owner := &g.prog.Structs[g.prog.Variables[id].Owner]
	g.printf("%s.%s", metalBufferName(g, owner), g.variableName(id))
}

func metalBufferName(g *Generator, s *ast.Struct) string {
	return g.structName(s) + "_buffer"
}

// Texture prints nothing: textures are entry point parameters in Metal.
func (metalDialect) Texture(g *Generator, id ast.TextureID) {}

func (metalDialect) FunctionSignature(g *Generator, id ast.FunctionID) {
	fn := &g.prog.Functions[id]
	params := g.parameterList(id)

	qualifier := ""
	switch fn.FunctionType {
	case ast.FunctionMainVertex:
		qualifier = "vertex "
	case ast.FunctionMainFragment:
		qualifier = "fragment "
	}
	entry := qualifier != ""
	if entry && len(params) > 0 {
		params[0] += " [[stage_in]]"
	}
	params = append(params, metalResourceParams(g, g.resourcesOf(id), entry)...)

	g.printf("%s%s %s(%s)", qualifier, g.typeName(fn.Type), g.functionName(id), joinParams(params))
}

// metalResourceParams declares a resource set as parameters. Entry points
// carry the binding attributes.
func metalResourceParams(g *Generator, set *resourceSet, bound bool) []string {
	var params []string
	attr := func(format string, slot uint32) string {
		if !bound {
			return ""
		}
		return fmt.Sprintf(format, slot)
	}
	for _, id := range set.cbuffers {
		s := &g.prog.Structs[id]
		params = append(params, fmt.Sprintf("constant %s& %s%s",
			g.structName(s), metalBufferName(g, s), attr(" [[buffer(%d)]]", s.Slot)))
	}
	for _, id := range set.textures {
		tex := &g.prog.Textures[id]
		params = append(params, fmt.Sprintf("%s %s%s",
			metalTextureType(tex), g.textureName(id), attr(" [[texture(%d)]]", tex.Slot)))
		if !tex.Writable {
			params = append(params, fmt.Sprintf("sampler %s%s",
				g.samplerName(id), attr(" [[sampler(%d)]]", tex.Slot)))
		}
	}
	return params
}

func metalResourceArgs(g *Generator, set *resourceSet) []string {
	var args []string
	for _, id := range set.cbuffers {
		args = append(args, metalBufferName(g, &g.prog.Structs[id]))
	}
	for _, id := range set.textures {
		args = append(args, g.textureName(id))
		if !g.prog.Textures[id].Writable {
			args = append(args, g.samplerName(id))
		}
	}
	return args
}

func metalTextureType(tex *ast.Texture) string {
	if tex.Writable {
		return "texture2d<float, access::write>"
	}
	switch tex.Dimension {
	case ast.Texture3D:
		return "texture3d<float>"
	case ast.TextureCube:
		return "texturecube<float>"
	}
	return "texture2d<float>"
}

func (metalDialect) Call(g *Generator, call *ast.FunctionCall) {
	args := make([]string, 0, len(call.Args))
	for _, arg := range call.Args {
		args = append(args, g.exprString(arg))
	}
	args = append(args, metalResourceArgs(g, g.resourcesOf(call.Function))...)
	g.printf("%s(%s)", g.functionName(call.Function), joinParams(args))
}

func (metalDialect) IntrinsicCall(g *Generator, in *builtins.Intrinsic, call *ast.IntrinsicCall) {
	if in.Form == builtins.FormMul {
		g.printf("(%s * %s)", g.exprString(call.Args[0]), g.exprString(call.Args[1]))
		return
	}
	g.print(in.MetalName())
	g.args(call.Args)
}

func (metalDialect) TextureCall(g *Generator, in *builtins.Intrinsic, call *ast.IntrinsicCall) {
	tex := g.textureArg(call)
	name := g.textureName(tex)
	switch in.Form {
	case builtins.FormSample:
		g.printf("%s.sample(%s, %s)", name, g.samplerName(tex), g.exprString(call.Args[1]))
	case builtins.FormSampleLevel:
		g.printf("%s.sample(%s, %s, level(%s))", name, g.samplerName(tex),
			g.exprString(call.Args[1]), g.exprString(call.Args[2]))
	case builtins.FormLoad:
		g.printf("%s.read(uint2(%s))", name, g.exprString(call.Args[1]))
	case builtins.FormStore:
		g.printf("%s.write(%s, uint2(%s))", name, g.exprString(call.Args[2]), g.exprString(call.Args[1]))
	}
}

func (metalDialect) Cast(g *Generator, cast *ast.Cast) {
	g.printf("%s(%s)", g.typeName(cast.Type), g.exprString(cast.Value))
}

func (metalDialect) Discard(g *Generator) {
	g.line("discard_fragment();")
}

// metalComputeAttributes maps compute input semantics to kernel attributes.
var metalComputeAttributes = map[ast.SemanticKind]string{
	ast.SemanticThreadID: "thread_position_in_grid",
	ast.SemanticGroupID:  "threadgroup_position_in_grid",
	ast.SemanticLocalID:  "thread_position_in_threadgroup",
}

// Epilogue emits the kernel for compute stages. The kernel receives each
// input member as an attributed parameter, rebuilds the input struct and
// calls the renamed entry function.
func (metalDialect) Epilogue(g *Generator) {
	if g.stage != ast.StageCompute {
		return
	}
	fn := &g.prog.Functions[g.entry]
	in, _ := g.entryStructs()
	set := g.resourcesOf(g.entry)

	var params []string
	if in != nil {
		g.forEachMember(in, func(i int, id ast.VariableID, member *ast.Variable) {
			params = append(params, fmt.Sprintf("%s in_%s [[%s]]",
				g.typeName(member.Type), g.variableName(id), metalComputeAttributes[member.Semantic.Kind]))
		})
	}
	params = append(params, metalResourceParams(g, set, true)...)

	g.line("kernel void %s(%s) {", fn.Name, joinParams(params))
	g.indentAdd()
	args := metalResourceArgs(g, set)
	if in != nil {
		g.line("%s main_in;", g.structName(in))
		g.forEachMember(in, func(i int, id ast.VariableID, member *ast.Variable) {
			g.line("main_in.%s = in_%s;", g.variableName(id), g.variableName(id))
		})
		args = append([]string{"main_in"}, args...)
	}
	g.line("%s(%s);", g.functionName(g.entry), joinParams(args))
	g.indentSub()
	g.line("}")
}
