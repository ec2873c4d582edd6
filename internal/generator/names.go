package generator

import (
	"strconv"
	"strings"

	"github.com/HugoDaniel/shadercross/internal/ast"
)

// names assigns output identifiers lazily and caches them, so every
// reference to an entity prints the same name.
type names struct {
	keywords map[string]bool

	// declared holds every identifier in the source program; escaped
	// names must not collide with any of them.
	declared map[string]bool
	// taken holds escaped names already handed out.
	taken map[string]bool

	types     map[ast.TypeID]string
	functions map[ast.FunctionID]string
	variables map[ast.VariableID]string
	textures  map[ast.TextureID]string
}

func newNames(prog *ast.Program, keywords map[string]bool) names {
	n := names{
		keywords:  keywords,
		declared:  make(map[string]bool),
		taken:     make(map[string]bool),
		types:     make(map[ast.TypeID]string),
		functions: make(map[ast.FunctionID]string),
		variables: make(map[ast.VariableID]string),
		textures:  make(map[ast.TextureID]string),
	}
	for i := range prog.Types {
		n.declared[prog.Types[i].Name] = true
	}
	for i := range prog.Functions {
		n.declared[prog.Functions[i].Name] = true
	}
	for i := range prog.Variables {
		n.declared[prog.Variables[i].Name] = true
	}
	for i := range prog.Textures {
		n.declared[prog.Textures[i].Name] = true
	}
	return n
}

// assign escapes name against the target's reserved words by appending
// "_", or for GLSL's reserved gl_ prefix by prepending it. An escaped name
// that collides with a source identifier gets a "_N" suffix.
func (n *names) assign(name string) string {
	var escaped string
	switch {
	case n.keywords["gl_"] && strings.HasPrefix(name, "gl_"):
		escaped = "_" + name
	case n.keywords[name]:
		escaped = name + "_"
	default:
		return name
	}
	candidate := escaped
	for i := 1; n.declared[candidate] || n.taken[candidate] || n.keywords[candidate]; i++ {
		candidate = escaped + strconv.Itoa(i)
	}
	n.taken[candidate] = true
	return candidate
}

// unique hands out name for an identifier the generator invents. A name
// that collides with a source identifier, a reserved word or a name
// already handed out gets a "_N" suffix.
func (n *names) unique(name string) string {
	if n.keywords["gl_"] && strings.HasPrefix(name, "gl_") {
		name = "_" + name
	}
	candidate := name
	for i := 1; n.declared[candidate] || n.taken[candidate] || n.keywords[candidate]; i++ {
		candidate = name + "_" + strconv.Itoa(i)
	}
	n.taken[candidate] = true
	return candidate
}

func (g *Generator) typeName(id ast.TypeID) string {
	t := &g.prog.Types[id]
	if !t.IsStruct() {
		return g.dialect.TypeName(g, t)
	}
	if name, ok := g.names.types[id]; ok {
		return name
	}
	name := g.names.assign(t.Name)
	g.names.types[id] = name
	return name
}

func (g *Generator) functionName(id ast.FunctionID) string {
	if name, ok := g.names.functions[id]; ok {
		return name
	}
	fn := &g.prog.Functions[id]
	name := fn.Name
	if fn.FunctionType == ast.FunctionOrdinary {
		name = g.names.assign(name)
	} else {
		name = g.dialect.EntryName(g, fn)
	}
	g.names.functions[id] = name
	return name
}

func (g *Generator) variableName(id ast.VariableID) string {
	if name, ok := g.names.variables[id]; ok {
		return name
	}
	name := g.names.assign(g.prog.Variables[id].Name)
	g.names.variables[id] = name
	return name
}

func (g *Generator) textureName(id ast.TextureID) string {
	if name, ok := g.names.textures[id]; ok {
		return name
	}
	name := g.names.assign(g.prog.Textures[id].Name)
	g.names.textures[id] = name
	return name
}

// samplerName is the sampler paired with a sampled texture.
func (g *Generator) samplerName(id ast.TextureID) string {
	return g.textureName(id) + "_sampler"
}

// structName returns the output name of the struct s.
func (g *Generator) structName(s *ast.Struct) string {
	return g.typeName(s.Type)
}

// ----------------------------------------------------------------------------
// Reserved Words
// ----------------------------------------------------------------------------

func keywordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

var hlslKeywords = keywordSet(
	"AppendStructuredBuffer", "BlendState", "Buffer", "ByteAddressBuffer", "CompileShader",
	"ComputeShader", "ConsumeStructuredBuffer", "DepthStencilState", "DepthStencilView",
	"DomainShader", "GeometryShader", "HullShader", "InputPatch", "LineStream", "OutputPatch",
	"PixelShader", "PointStream", "RWBuffer", "RWByteAddressBuffer", "RWStructuredBuffer",
	"RWTexture1D", "RWTexture1DArray", "RWTexture2D", "RWTexture2DArray", "RWTexture3D",
	"RasterizerState", "RenderTargetView", "SamplerComparisonState", "SamplerState",
	"StructuredBuffer", "Texture1D", "Texture1DArray", "Texture2D", "Texture2DArray",
	"Texture2DMS", "Texture2DMSArray", "Texture3D", "TextureCube", "TextureCubeArray",
	"TriangleStream", "VertexShader", "asm", "asm_fragment", "bool", "break", "case",
	"cbuffer", "centroid", "class", "column_major", "compile", "compile_fragment", "const",
	"continue", "default", "discard", "do", "double", "dword", "else", "export", "extern",
	"false", "float", "for", "fxgroup", "groupshared", "half", "if", "in", "inline", "inout",
	"int", "interface", "line", "lineadj", "linear", "matrix", "min10float", "min12int",
	"min16float", "min16int", "min16uint", "namespace", "nointerpolation", "noperspective",
	"out", "packoffset", "pass", "pixelfragment", "point", "precise", "register", "return",
	"row_major", "sample", "sampler", "shared", "snorm", "stateblock", "stateblock_state",
	"static", "string", "struct", "switch", "tbuffer", "technique", "technique10",
	"technique11", "texture", "triangle", "triangleadj", "true", "typedef", "uint",
	"uniform", "unorm", "unsigned", "vector", "vertexfragment", "void", "volatile", "while",
)

var glslKeywords = keywordSet(
	// Reserved identifier prefix
	"gl_",
	"active", "asm", "atomic_uint", "attribute", "bool", "break", "buffer", "bvec2",
	"bvec3", "bvec4", "case", "cast", "centroid", "class", "coherent", "common", "const",
	"continue", "default", "discard", "dmat2", "dmat3", "dmat4", "do", "double", "dvec2",
	"dvec3", "dvec4", "else", "enum", "extern", "external", "false", "filter", "fixed",
	"flat", "float", "for", "fvec2", "fvec3", "fvec4", "goto", "half", "highp", "hvec2",
	"hvec3", "hvec4", "if", "iimage2D", "image2D", "image3D", "imageCube", "imageLoad",
	"imageStore", "in", "inline", "inout", "input", "int", "interface", "invariant",
	"isampler2D", "ivec2", "ivec3", "ivec4", "layout", "long", "lowp", "main", "mat2",
	"mat3", "mat4", "mediump", "namespace", "noinline", "noperspective", "out", "output",
	"partition", "patch", "precise", "precision", "public", "readonly", "resource",
	"restrict", "return", "sample", "sampler", "sampler2D", "sampler3D", "samplerCube",
	"shared", "short", "sizeof", "smooth", "static", "struct", "subroutine", "superp",
	"switch", "template", "texelFetch", "texture", "textureLod", "this", "true", "typedef",
	"uimage2D", "uint", "uniform", "union", "unsigned", "using", "uvec2", "uvec3", "uvec4",
	"varying", "vec2", "vec3", "vec4", "void", "volatile", "while", "writeonly",
	"fract", "mix", "inversesqrt", "dFdx", "dFdy", "mod",
)

var metalKeywords = keywordSet(
	"alignas", "alignof", "and", "and_eq", "array", "array_ref", "as_type", "asm", "atomic",
	"auto", "bitand", "bitor", "bool", "break", "case", "catch", "char", "class", "compl",
	"const", "const_cast", "constant", "constexpr", "continue", "decltype", "default",
	"delete", "device", "discard_fragment", "do", "double", "dynamic_cast", "else", "enum",
	"explicit", "export", "extern", "false", "float", "for", "fragment", "friend", "goto",
	"half", "if", "inline", "int", "kernel", "long", "main", "metal", "mutable", "namespace",
	"new", "noexcept", "not", "not_eq", "nullptr", "operator", "or", "or_eq", "private",
	"protected", "public", "register", "reinterpret_cast", "return", "sampler", "short",
	"signed", "sizeof", "static", "static_assert", "static_cast", "struct", "switch",
	"template", "texture", "texture2d", "texture3d", "texturecube", "this", "thread",
	"threadgroup", "throw", "true", "try", "typedef", "typeid", "typename", "uint", "union",
	"unsigned", "using", "vertex", "virtual", "void", "volatile", "wchar_t", "while",
	"xor", "xor_eq", "level", "access", "dfdx", "dfdy", "fract", "mix",
)

func keywordsFor(target Target) map[string]bool {
	switch target {
	case TargetHLSL:
		return hlslKeywords
	case TargetGLSL:
		return glslKeywords
	case TargetMetal:
		return metalKeywords
	}
	return nil
}
