package generator

import (
	"fmt"
	"slices"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/builtins"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
)

// glslDialect emits GLSL 4.x (or ES 3.x) for OpenGL and Vulkan. Stage I/O
// becomes global in/out variables, and a generated main() moves them in
// and out of the entry point's structs.
type glslDialect struct {
	defaultDialect
}

func (glslDialect) TypeName(g *Generator, t *ast.Type) string {
	if t.IsVector() || t.IsMatrix() {
		return vectorTypeName(t)
	}
	return t.Name
}

// glslVersions lists the #version values the GLSL dialect emits. 300, 310
// and 320 are GLSL ES.
var glslVersions = []int{330, 400, 410, 420, 430, 440, 450, 460, 300, 310, 320}

// CheckGLSLVersion reports an error unless v is a GLSL version the
// generator supports. 0 selects the default.
func CheckGLSLVersion(v int) error {
	if v == 0 || slices.Contains(glslVersions, v) {
		return nil
	}
	return &Error{Code: diagnostic.CodeUnsupportedTarget, Message: fmt.Sprintf("unsupported GLSL version %d", v)}
}

func isESVersion(v int) bool {
	return v == 300 || v == 310 || v == 320
}

// glslAtLeast reports whether v is at least desktop, or es for GLSL ES.
func glslAtLeast(v, desktop, es int) bool {
	if isESVersion(v) {
		return v >= es
	}
	return v >= desktop
}

// Explicit binding qualifiers and image types arrive in GLSL 4.20 and ES
// 3.10, compute shaders in 4.30 and ES 3.10.
func glslHasBinding(v int) bool { return glslAtLeast(v, 420, 310) }
func glslHasImages(v int) bool  { return glslAtLeast(v, 420, 310) }
func glslHasCompute(v int) bool { return glslAtLeast(v, 430, 310) }

func (glslDialect) Prologue(g *Generator) {
	v := g.options.GLSLVersion
	if isESVersion(v) {
		g.line("#version %d es", v)
		// ES has no default precision for sampler3D or images.
		for _, typ := range []string{"float", "int", "sampler2D", "sampler3D", "samplerCube"} {
			g.line("precision highp %s;", typ)
		}
		if glslHasImages(v) {
			g.line("precision highp image2D;")
		}
	} else {
		g.line("#version %d", v)
	}
	if g.stage == ast.StageCompute {
		if !glslHasCompute(v) {
			g.fail(diagnostic.CodeUnsupportedTarget, "compute shaders need GLSL 430 or GLSL ES 310, not %d", v)
			return
		}
		threads := g.prog.Functions[g.entry].Threads
		g.line("layout(local_size_x = %d, local_size_y = %d, local_size_z = %d) in;",
			threads[0], threads[1], threads[2])
	}
	g.newline()
}

func (d glslDialect) Struct(g *Generator, s *ast.Struct) {
	g.printStruct(s, func(int, *ast.Variable) string { return "" })

	in, out := g.entryStructs()
	if s == in {
		d.interfaceVariables(g, s, true)
	}
	if s == out {
		d.interfaceVariables(g, s, false)
	}
}

// interfaceVariables declares the global in or out variables backing the
// members of an entry point struct. Members mapped to gl_ builtins need no
// declaration.
func (glslDialect) interfaceVariables(g *Generator, s *ast.Struct, input bool) {
	declared := false
	g.forEachMember(s, func(i int, id ast.VariableID, member *ast.Variable) {
		if _, ok := glslBuiltin(g.stage, member.Semantic, input); ok {
			return
		}
		qualifier := "out"
		if input {
			qualifier = "in"
		}
		location := i
		switch {
		case isVarying(s):
			location = g.varyingLocation(member.Semantic)
		case s.StructType == ast.StructFragmentOutput && member.Semantic.Kind == ast.SemanticColor:
			location = int(member.Semantic.Index)
		}
		interpolation := ""
		if isVarying(s) && g.prog.Types[member.Type].Scalar != ast.ScalarFloat {
			interpolation = "flat "
		}
		g.line("layout(location = %d) %s%s %s %s;", location, interpolation, qualifier,
			g.typeName(member.Type), glslInterfaceName(g, id, input))
		declared = true
	})
	if declared {
		g.newline()
	}
}

// glslBuiltin returns the gl_ variable a semantic maps to in stage.
func glslBuiltin(stage ast.Stage, sem ast.Semantic, input bool) (string, bool) {
	switch {
	case sem.Kind == ast.SemanticThreadID:
		return "gl_GlobalInvocationID", true
	case sem.Kind == ast.SemanticGroupID:
		return "gl_WorkGroupID", true
	case sem.Kind == ast.SemanticLocalID:
		return "gl_LocalInvocationID", true
	case sem.Kind == ast.SemanticPosition && stage == ast.StageVertex && !input:
		return "gl_Position", true
	case sem.Kind == ast.SemanticPosition && stage == ast.StageFragment && input:
		return "gl_FragCoord", true
	case sem.Kind == ast.SemanticDepth && !input:
		return "gl_FragDepth", true
	}
	return "", false
}

func glslInterfaceName(g *Generator, id ast.VariableID, input bool) string {
	if input {
		return "in_" + g.variableName(id)
	}
	return "out_" + g.variableName(id)
}

// glslInterfaceVariable names what a member is copied from or to in main().
func glslInterfaceVariable(g *Generator, id ast.VariableID, input bool) string {
	if name, ok := glslBuiltin(g.stage, g.prog.Variables[id].Semantic, input); ok {
		return name
	}
	return glslInterfaceName(g, id, input)
}

func (glslDialect) CBuffer(g *Generator, s *ast.Struct) {
	if glslHasBinding(g.options.GLSLVersion) {
		g.line("layout(std140, binding = %d) uniform %s {", s.Slot, g.structName(s))
	} else {
		g.line("layout(std140) uniform %s {", g.structName(s))
	}
	g.printFlatCBuffer(s)
}

func (glslDialect) CBufferMember(g *Generator, id ast.VariableID) {
	g.print(g.prefixedMember(id))
}

// Texture declares a sampler or image uniform. Versions without binding
// qualifiers leave the unit to the application.
func (glslDialect) Texture(g *Generator, id ast.TextureID) {
	tex := &g.prog.Textures[id]
	v := g.options.GLSLVersion
	binding := ""
	if glslHasBinding(v) {
		binding = fmt.Sprintf("binding = %d, ", tex.Slot)
	}
	switch {
	case tex.Writable && !glslHasImages(v):
		g.fail(diagnostic.CodeUnsupportedTarget, "rwtexture '%s' needs GLSL 420 or GLSL ES 310, not %d", tex.Name, v)
		return
	case tex.Writable:
		g.line("layout(%srgba32f) uniform writeonly image2D %s;", binding, g.textureName(id))
	case binding != "":
		g.line("layout(binding = %d) uniform %s %s;", tex.Slot, glslSamplerType(tex.Dimension), g.textureName(id))
	default:
		g.line("uniform %s %s;", glslSamplerType(tex.Dimension), g.textureName(id))
	}
	g.newline()
}

func glslSamplerType(dim ast.TextureDimension) string {
	switch dim {
	case ast.Texture3D:
		return "sampler3D"
	case ast.TextureCube:
		return "samplerCube"
	}
	return "sampler2D"
}

func (glslDialect) FunctionSignature(g *Generator, id ast.FunctionID) {
	fn := &g.prog.Functions[id]
	g.printf("%s %s(%s)", g.typeName(fn.Type), g.functionName(id), joinParams(g.parameterList(id)))
}

func (glslDialect) IntrinsicCall(g *Generator, in *builtins.Intrinsic, call *ast.IntrinsicCall) {
	switch in.Form {
	case builtins.FormMul:
		g.printf("(%s * %s)", g.exprString(call.Args[0]), g.exprString(call.Args[1]))
	case builtins.FormSaturate:
		g.printf("clamp(%s, 0.0, 1.0)", g.exprString(call.Args[0]))
	default:
		g.print(in.GLSLName())
		g.args(call.Args)
	}
}

func (glslDialect) TextureCall(g *Generator, in *builtins.Intrinsic, call *ast.IntrinsicCall) {
	name := g.textureName(g.textureArg(call))
	switch in.Form {
	case builtins.FormSample:
		g.printf("texture(%s, %s)", name, g.exprString(call.Args[1]))
	case builtins.FormSampleLevel:
		g.printf("textureLod(%s, %s, %s)", name, g.exprString(call.Args[1]), g.exprString(call.Args[2]))
	case builtins.FormLoad:
		g.printf("texelFetch(%s, ivec2(%s), 0)", name, g.exprString(call.Args[1]))
	case builtins.FormStore:
		g.printf("imageStore(%s, ivec2(%s), %s)", name, g.exprString(call.Args[1]), g.exprString(call.Args[2]))
	}
}

func (glslDialect) Cast(g *Generator, cast *ast.Cast) {
	g.printf("%s(%s)", g.typeName(cast.Type), g.exprString(cast.Value))
}

// Epilogue emits main(), which gathers the stage inputs into the entry
// point's parameter, calls it and scatters the returned struct.
func (glslDialect) Epilogue(g *Generator) {
	in, out := g.entryStructs()
	fn := &g.prog.Functions[g.entry]

	g.line("void main() {")
	g.indentAdd()
	if in != nil {
		g.line("%s main_in;", g.structName(in))
		g.forEachMember(in, func(i int, id ast.VariableID, member *ast.Variable) {
			g.line("main_in.%s = %s;", g.variableName(id), glslInterfaceVariable(g, id, true))
		})
	}
	arg := ""
	if in != nil {
		arg = "main_in"
	}
	if out == nil {
		g.line("%s(%s);", g.functionName(g.entry), arg)
	} else {
		g.line("%s main_out = %s(%s);", g.typeName(fn.Type), g.functionName(g.entry), arg)
		g.forEachMember(out, func(i int, id ast.VariableID, member *ast.Variable) {
			g.line("%s = main_out.%s;", glslInterfaceVariable(g, id, false), g.variableName(id))
		})
	}
	g.indentSub()
	g.line("}")
}
