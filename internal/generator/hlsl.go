package generator

import (
	"fmt"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/builtins"
)

// hlslDialect emits HLSL for D3D11/12. Types and intrinsics match the
// input language; bindings, textures and system semantics differ.
type hlslDialect struct {
	defaultDialect
}

func (hlslDialect) Struct(g *Generator, s *ast.Struct) {
	g.printStruct(s, func(i int, member *ast.Variable) string {
		if sem := hlslSemantic(g, s, member.Semantic); sem != "" {
			return " : " + sem
		}
		return ""
	})
}

// hlslSemantic spells a member semantic. Compute inputs always use system
// values; the rest only with Options.SystemValues.
func hlslSemantic(g *Generator, s *ast.Struct, sem ast.Semantic) string {
	switch sem.Kind {
	case ast.SemanticNone:
		return ""
	case ast.SemanticThreadID:
		return "SV_DispatchThreadID"
	case ast.SemanticGroupID:
		return "SV_GroupID"
	case ast.SemanticLocalID:
		return "SV_GroupThreadID"
	}
	if g.options.SystemValues {
		switch {
		case sem.Kind == ast.SemanticPosition && isVarying(s):
			return "SV_Position"
		case sem.Kind == ast.SemanticColor && s.StructType == ast.StructFragmentOutput:
			return fmt.Sprintf("SV_Target%d", sem.Index)
		case sem.Kind == ast.SemanticDepth:
			return "SV_Depth"
		}
	}
	return sem.String()
}

func (hlslDialect) CBuffer(g *Generator, s *ast.Struct) {
	g.line("cbuffer %s : register(b%d) {", g.structName(s), s.Slot)
	g.printFlatCBuffer(s)
}

func (hlslDialect) CBufferMember(g *Generator, id ast.VariableID) {
	g.print(g.prefixedMember(id))
}

func (hlslDialect) Texture(g *Generator, id ast.TextureID) {
	tex := &g.prog.Textures[id]
	if tex.Writable {
		g.line("RWTexture2D<float4> %s : register(u%d);", g.textureName(id), tex.Slot)
		g.newline()
		return
	}
	g.line("%s %s : register(t%d);", hlslTextureType(tex.Dimension), g.textureName(id), tex.Slot)
	g.line("SamplerState %s : register(s%d);", g.samplerName(id), tex.Slot)
	g.newline()
}

func hlslTextureType(dim ast.TextureDimension) string {
	switch dim {
	case ast.Texture3D:
		return "Texture3D"
	case ast.TextureCube:
		return "TextureCube"
	}
	return "Texture2D"
}

func (hlslDialect) TextureCall(g *Generator, in *builtins.Intrinsic, call *ast.IntrinsicCall) {
	tex := g.textureArg(call)
	name := g.textureName(tex)
	switch in.Form {
	case builtins.FormSample:
		g.printf("%s.Sample(%s, %s)", name, g.samplerName(tex), g.exprString(call.Args[1]))
	case builtins.FormSampleLevel:
		g.printf("%s.SampleLevel(%s, %s, %s)", name, g.samplerName(tex),
			g.exprString(call.Args[1]), g.exprString(call.Args[2]))
	case builtins.FormLoad:
		g.printf("%s.Load(int3(%s, 0))", name, g.exprString(call.Args[1]))
	case builtins.FormStore:
		g.printf("%s[%s] = %s", name, g.exprString(call.Args[1]), g.exprString(call.Args[2]))
	}
}
