// Package generator emits target source for one pipeline stage of a parsed
// program.
//
// The generator walks only the declarations the optimizer marked live for
// the stage. Everything the backends spell the same way is printed by the
// Generator itself; everything that differs goes through a Dialect. The
// default dialect prints the input language back, and the HLSL, GLSL and
// Metal dialects embed it and override only what they spell differently.
//
// Output is deterministic: the same program, stage, target and options
// always produce the same bytes.
package generator

import (
	"bytes"
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
)

// Target selects the output language.
type Target uint8

const (
	TargetDefault Target = iota
	TargetHLSL
	TargetGLSL
	TargetMetal

	TargetCount = 4
)

// Targets lists every target in blob order.
var Targets = [TargetCount]Target{TargetDefault, TargetHLSL, TargetGLSL, TargetMetal}

var targetNames = [...]string{
	TargetDefault: "default",
	TargetHLSL:    "hlsl",
	TargetGLSL:    "glsl",
	TargetMetal:   "metal",
}

func (t Target) String() string {
	if int(t) < len(targetNames) {
		return targetNames[t]
	}
	return "unknown"
}

// ParseTarget resolves a target by name.
func ParseTarget(name string) (Target, error) {
	for t, n := range targetNames {
		if strings.EqualFold(n, name) {
			return Target(t), nil
		}
	}
	return 0, &Error{Code: diagnostic.CodeUnsupportedTarget, Message: fmt.Sprintf("unsupported target %q", name)}
}

// Options controls generated output.
type Options struct {
	// SystemValues emits SV_ semantics for HLSL position, targets and depth.
	SystemValues bool

	// GLSLVersion is the #version line value; 0 means 450.
	GLSLVersion int
}

const defaultGLSLVersion = 450

// Error is a generator failure.
type Error struct {
	Code    diagnostic.DiagnosticCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("generator: %s [%s]", e.Message, e.Code)
}

// Generate emits stage of prog for target. prog must have been optimized
// for stage so its Seen flags describe what the stage reaches.
func Generate(prog *ast.Program, stage ast.Stage, target Target, options Options) (string, error) {
	g, err := New(prog, stage, target, options)
	if err != nil {
		return "", err
	}
	return g.GenerateStage()
}

// Generator emits one (stage, target) pair.
type Generator struct {
	prog    *ast.Program
	stage   ast.Stage
	target  Target
	options Options
	dialect Dialect
	entry   ast.FunctionID

	buf    bytes.Buffer
	indent int
	err    *Error

	names names

	// resources holds, per function, the cbuffers and textures it reaches.
	// Only Metal threads them through signatures.
	resources map[ast.FunctionID]*resourceSet

	// varyings maps each vertex-to-fragment semantic to its location.
	varyings map[ast.Semantic]int
}

// New creates a generator for one stage and target.
func New(prog *ast.Program, stage ast.Stage, target Target, options Options) (*Generator, error) {
	g := &Generator{
		prog:    prog,
		stage:   stage,
		target:  target,
		options: options,
		entry:   prog.EntryPoint(stage),
	}
	if g.options.GLSLVersion == 0 {
		g.options.GLSLVersion = defaultGLSLVersion
	}
	if target == TargetGLSL {
		if err := CheckGLSLVersion(g.options.GLSLVersion); err != nil {
			return nil, err
		}
	}

	switch target {
	case TargetDefault:
		g.dialect = defaultDialect{}
	case TargetHLSL:
		g.dialect = hlslDialect{}
	case TargetGLSL:
		g.dialect = glslDialect{}
	case TargetMetal:
		g.dialect = metalDialect{}
	default:
		return nil, &Error{Code: diagnostic.CodeUnsupportedTarget, Message: fmt.Sprintf("unsupported target %d", target)}
	}

	g.names = newNames(prog, keywordsFor(target))
	return g, nil
}

// GenerateStage emits the stage. It fails if the stage has no entry point.
func (g *Generator) GenerateStage() (string, error) {
	if g.entry == ast.NoFunction {
		return "", &Error{Code: diagnostic.CodeInvalidEntryPoint, Message: fmt.Sprintf("no %s entry point", g.stage)}
	}
	if !g.prog.Functions[g.entry].Seen {
		return "", &Error{Code: diagnostic.CodeInternal, Message: fmt.Sprintf("program is not optimized for the %s stage", g.stage)}
	}
	if g.target == TargetMetal {
		g.collectResources()
	}

	g.buf.Reset()
	g.dialect.Prologue(g)
	for _, id := range g.prog.Decls {
		if !g.prog.IsDeclLive(id) {
			continue
		}
		g.decl(id)
		if g.err != nil {
			return "", g.err
		}
	}
	g.dialect.Epilogue(g)

	if g.err != nil {
		return "", g.err
	}
	return g.buf.String(), nil
}

// ----------------------------------------------------------------------------
// Output Helpers
// ----------------------------------------------------------------------------

func (g *Generator) print(s string) {
	g.buf.WriteString(s)
}

func (g *Generator) printf(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
}

func (g *Generator) newline() {
	g.buf.WriteByte('\n')
}

func (g *Generator) writeIndent() {
	for i := 0; i < g.indent; i++ {
		g.buf.WriteString("    ")
	}
}

// line writes one indented line.
func (g *Generator) line(format string, args ...any) {
	g.writeIndent()
	g.printf(format, args...)
	g.newline()
}

func (g *Generator) indentAdd() { g.indent++ }
func (g *Generator) indentSub() { g.indent-- }

func (g *Generator) fail(code diagnostic.DiagnosticCode, format string, args ...any) {
	if g.err == nil {
		g.err = &Error{Code: code, Message: fmt.Sprintf(format, args...)}
	}
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

func (g *Generator) decl(id ast.NodeID) {
	switch d := g.prog.Nodes.Get(id).(type) {
	case *ast.StructDeclaration:
		s := &g.prog.Structs[d.Struct]
		if s.StructType == ast.StructCBuffer {
			g.dialect.CBuffer(g, s)
		} else {
			g.dialect.Struct(g, s)
		}
	case *ast.TextureDeclaration:
		g.dialect.Texture(g, d.Texture)
	case *ast.FunctionDeclaration:
		g.dialect.FunctionSignature(g, d.Function)
		g.print(" ")
		g.block(d.Body)
		g.newline()
		g.newline()
	default:
		g.fail(diagnostic.CodeUnsupportedNode, "unsupported declaration %s", g.prog.Nodes.Get(id).Kind())
	}
}

// printStruct prints a struct with one member per line. suffix returns
// whatever follows a member's declarator, such as a semantic.
func (g *Generator) printStruct(s *ast.Struct, suffix func(i int, member *ast.Variable) string) {
	t := &g.prog.Types[s.Type]
	g.line("struct %s {", g.typeName(s.Type))
	g.indentAdd()
	for i := uint32(0); i < t.MemberCount; i++ {
		id := ast.VariableID(uint32(t.MemberFirst) + i)
		member := &g.prog.Variables[id]
		g.line("%s%s;", g.declarator(member.Type, g.variableName(id), member), suffix(int(i), member))
	}
	g.indentSub()
	g.line("};")
	g.newline()
}

// declarator renders "T name[x][y]".
func (g *Generator) declarator(typeID ast.TypeID, name string, v *ast.Variable) string {
	return g.typeName(typeID) + " " + name + arraySuffix(v)
}

func arraySuffix(v *ast.Variable) string {
	var sb strings.Builder
	if v.ArrayLengthX > 0 {
		sb.WriteString("[" + strconv.FormatUint(uint64(v.ArrayLengthX), 10) + "]")
	}
	if v.ArrayLengthY > 0 {
		sb.WriteString("[" + strconv.FormatUint(uint64(v.ArrayLengthY), 10) + "]")
	}
	return sb.String()
}

// parameterList renders the source parameters of a function.
func (g *Generator) parameterList(fn ast.FunctionID) []string {
	f := &g.prog.Functions[fn]
	params := make([]string, 0, f.ParameterCount)
	for i := uint32(0); i < f.ParameterCount; i++ {
		id := ast.VariableID(uint32(f.ParameterFirst) + i)
		v := &g.prog.Variables[id]
		params = append(params, g.declarator(v.Type, g.variableName(id), v))
	}
	return params
}

func joinParams(params []string) string {
	return strings.Join(params, ", ")
}

// entryStructs returns the input and output struct of the stage entry. A
// missing struct yields nil.
func (g *Generator) entryStructs() (in, out *ast.Struct) {
	fn := &g.prog.Functions[g.entry]
	if fn.ParameterCount > 0 {
		in = g.prog.StructOf(g.prog.Variables[fn.ParameterFirst].Type)
	}
	out = g.prog.StructOf(fn.Type)
	return in, out
}

// forEachMember visits the members of s with their IDs.
func (g *Generator) forEachMember(s *ast.Struct, visit func(i int, id ast.VariableID, member *ast.Variable)) {
	t := &g.prog.Types[s.Type]
	for i := uint32(0); i < t.MemberCount; i++ {
		id := ast.VariableID(uint32(t.MemberFirst) + i)
		visit(int(i), id, &g.prog.Variables[id])
	}
}

// isVarying reports whether s passes data from the vertex to the fragment
// stage.
func isVarying(s *ast.Struct) bool {
	return s.StructType == ast.StructVertexOutput || s.StructType == ast.StructFragmentInput || s.FragmentInput
}

// varyingLocation returns the interface location of a vertex-to-fragment
// member in GLSL and Metal. Locations number the distinct semantics of
// every varying struct in the program in (kind, index) order, so the vertex
// output and the fragment input agree however each lists its members.
// POSITION maps to a builtin and takes no location.
func (g *Generator) varyingLocation(sem ast.Semantic) int {
	if g.varyings == nil {
		set := make(map[ast.Semantic]bool)
		for i := range g.prog.Structs {
			s := &g.prog.Structs[i]
			if !isVarying(s) {
				continue
			}
			g.forEachMember(s, func(_ int, _ ast.VariableID, member *ast.Variable) {
				if member.Semantic.Kind != ast.SemanticPosition {
					set[member.Semantic] = true
				}
			})
		}
		semantics := slices.SortedFunc(maps.Keys(set), func(a, b ast.Semantic) int {
			return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Index, b.Index))
		})
		g.varyings = make(map[ast.Semantic]int, len(semantics))
		for i, sem := range semantics {
			g.varyings[sem] = i
		}
	}
	return g.varyings[sem]
}
