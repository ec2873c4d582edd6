package parser

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/builtins"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
)

// ----------------------------------------------------------------------------
// Test Helpers
// ----------------------------------------------------------------------------

const exprParams = "float a, float b, float c, int i, float4 v, float4x4 m"

// parseReturn parses expr as the returned value of a function taking
// exprParams and returns the program and the expression node.
func parseReturned(t *testing.T, expr string) (*ast.Program, ast.NodeID) {
	t.Helper()
	src := "float4 f(" + exprParams + ") { return " + expr + "; }"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	fn := prog.Nodes.Get(prog.Functions[0].Node).(*ast.FunctionDeclaration)
	body := prog.Nodes.Get(fn.Body).(*ast.Block)
	ret := prog.Nodes.Get(body.Statements[0]).(*ast.Return)
	return prog, ret.Value
}

// expectParsed parses expr and compares its fully parenthesized form.
func expectParsed(t *testing.T, expr, expected string) {
	t.Helper()
	t.Run(expr, func(t *testing.T) {
		t.Helper()
		prog, id := parseReturned(t, expr)
		if actual := render(prog, id); actual != expected {
			t.Errorf("\ninput:    %s\nexpected: %s\nactual:   %s", expr, expected, actual)
		}
	})
}

// expectType parses expr and checks the name of its result type.
func expectType(t *testing.T, expr, expected string) {
	t.Helper()
	t.Run(expr, func(t *testing.T) {
		t.Helper()
		prog, id := parseReturned(t, expr)
		typeID := prog.TypeOf(id)
		if typeID == ast.NoType {
			t.Fatalf("%s: no result type", expr)
		}
		if actual := prog.Types[typeID].Name; actual != expected {
			t.Errorf("%s: expected type %s, got %s", expr, expected, actual)
		}
	})
}

// expectParse verifies that src parses without error.
func expectParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v\nsource:\n%s", err, src)
	}
	return prog
}

// expectParseError verifies that parsing fails with code and a message
// containing substr.
func expectParseError(t *testing.T, src string, code diagnostic.DiagnosticCode, substr string) *ParseError {
	t.Helper()
	_, err := Parse(src)
	if err == nil {
		t.Fatalf("expected error %s containing %q, got none\nsource:\n%s", code, substr, src)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Code != code {
		t.Errorf("expected code %s, got %s (%v)", code, pe.Code, pe)
	}
	if !strings.Contains(pe.Message, substr) {
		t.Errorf("expected error containing %q, got %q", substr, pe.Message)
	}
	return pe
}

// render prints an expression with every operation parenthesized.
func render(prog *ast.Program, id ast.NodeID) string {
	args := func(ids []ast.NodeID) string {
		parts := make([]string, len(ids))
		for i, a := range ids {
			parts[i] = render(prog, a)
		}
		return strings.Join(parts, ", ")
	}

	switch n := prog.Nodes.Get(id).(type) {
	case *ast.Binary:
		return "(" + render(prog, n.Left) + " " + n.Op.String() + " " + render(prog, n.Right) + ")"
	case *ast.Unary:
		if n.Op.IsPostfix() {
			return "(" + render(prog, n.Operand) + n.Op.String() + ")"
		}
		return "(" + n.Op.String() + render(prog, n.Operand) + ")"
	case *ast.Ternary:
		return "(" + render(prog, n.Condition) + " ? " + render(prog, n.Then) + " : " + render(prog, n.Else) + ")"
	case *ast.Cast:
		return "((" + prog.Types[n.Type].Name + ")" + render(prog, n.Value) + ")"
	case *ast.Constructor:
		return prog.Types[n.Type].Name + "(" + args(n.Args) + ")"
	case *ast.FunctionCall:
		return prog.Functions[n.Function].Name + "(" + args(n.Args) + ")"
	case *ast.IntrinsicCall:
		return builtins.Get(n.Intrinsic).Name + "(" + args(n.Args) + ")"
	case *ast.VariableRef:
		return prog.Variables[n.Variable].Name
	case *ast.Member:
		return render(prog, n.Base) + "." + prog.Variables[n.Member].Name
	case *ast.SwizzleExpr:
		return render(prog, n.Base) + "." + prog.Swizzles[n.Swizzle].String()
	case *ast.Index:
		return render(prog, n.Base) + "[" + render(prog, n.Index) + "]"
	case *ast.Group:
		return render(prog, n.Expr)
	case *ast.Integer:
		s := strconv.FormatUint(n.Value, 10)
		if n.Unsigned {
			s += "u"
		}
		return s
	case *ast.Number:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case *ast.Boolean:
		return strconv.FormatBool(n.Value)
	case *ast.TextureRef:
		return prog.Textures[n.Texture].Name
	}
	return "?"
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

func TestPrecedence(t *testing.T) {
	expectParsed(t, "a + b * c", "(a + (b * c))")
	expectParsed(t, "a * b + c", "((a * b) + c)")
	expectParsed(t, "a - b - c", "((a - b) - c)")
	expectParsed(t, "(a + b) * c", "((a + b) * c)")
	expectParsed(t, "-a * b", "((-a) * b)")
	expectParsed(t, "!(a < b) || a == b && b != c", "((!(a < b)) || ((a == b) && (b != c)))")
	expectParsed(t, "i << 2 + 1", "(i << (2 + 1))")
	expectParsed(t, "i & 1 | i ^ 2", "((i & 1) | (i ^ 2))")
	expectParsed(t, "i % 3 * 2", "((i % 3) * 2)")
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	expectParsed(t, "a = b = c", "(a = (b = c))")
	expectParsed(t, "a += b * c", "(a += (b * c))")
	expectParsed(t, "i <<= 1", "(i <<= 1)")
}

func TestTernary(t *testing.T) {
	expectParsed(t, "a > 0.0 ? b : c", "((a > 0) ? b : c)")
	expectParsed(t, "a > 0.0 ? b : c > 0.0 ? a : c", "((a > 0) ? b : ((c > 0) ? a : c))")
	expectParsed(t, "a > 0.0 ? b = c : c", "((a > 0) ? (b = c) : c)")
}

func TestUnaryAndPostfix(t *testing.T) {
	expectParsed(t, "i++ + ++i", "((i++) + (++i))")
	expectParsed(t, "-v.x", "(-v.x)")
	expectParsed(t, "~i", "(~i)")
	expectParsed(t, "m[1][2]", "m[1][2]")
}

func TestCastAndConstructor(t *testing.T) {
	expectParsed(t, "(float)i + a", "(((float)i) + a)")
	expectParsed(t, "(int)a * 2", "(((int)a) * 2)")
	expectParsed(t, "float2(a, b).yx", "float2(a, b).yx")
	expectParsed(t, "(float2(a, b) * c).x", "(float2(a, b) * c).x")
	expectParsed(t, "(float4(v.xyz, 1.0))", "float4(v.xyz, 1)")
}

func TestLiterals(t *testing.T) {
	expectParsed(t, "0x10u + 3u", "(16u + 3u)")
	expectParsed(t, "1.5e2", "150")
	expectParsed(t, "true ? a : b", "(true ? a : b)")
}

func TestIntrinsicCalls(t *testing.T) {
	expectParsed(t, "mul(m, v)", "mul(m, v)")
	expectParsed(t, "lerp(a, b, saturate(c))", "lerp(a, b, saturate(c))")
	expectParseError(t, "float f(float a) { return sin(a, a); }", diagnostic.CodeInvalidArgCount, "'sin' expects")
}

func TestSwizzles(t *testing.T) {
	expectParsed(t, "v.rgba", "v.xyzw")
	expectParsed(t, "v.wzyx.x", "v.wzyx.x")
	expectParseError(t, "float f(float2 v) { return v.z; }", diagnostic.CodeInvalidOperand, "invalid swizzle 'z'")
	expectParseError(t, "float f(float4 v) { return v.xyzwx; }", diagnostic.CodeInvalidOperand, "invalid swizzle")
	expectParseError(t, "float f(float a) { return a.x; }", diagnostic.CodeInvalidOperand, "has no member")
}

func TestExpressionTypes(t *testing.T) {
	expectType(t, "a + b", "float")
	expectType(t, "i + a", "float")
	expectType(t, "v * a", "float4")
	expectType(t, "a * v", "float4")
	expectType(t, "v.xy", "float2")
	expectType(t, "v.x", "float")
	expectType(t, "v < v", "bool4")
	expectType(t, "a < b", "bool")
	expectType(t, "mul(m, v)", "float4")
	expectType(t, "m * v", "float4")
	expectType(t, "m[0]", "float4")
	expectType(t, "v[2]", "float")
	expectType(t, "dot(v, v)", "float")
	expectType(t, "length(v.xyz)", "float")
	expectType(t, "(int)a", "int")
	expectType(t, "i > 0 ? v : v", "float4")
	expectType(t, "!a", "bool")
	expectType(t, "1u", "uint")
}

// ----------------------------------------------------------------------------
// Statements and Scope
// ----------------------------------------------------------------------------

func TestStatements(t *testing.T) {
	expectParse(t, `
float f(float a) {
	float x = a, y[4];
	int i;
	for (i = 0; i < 4; i++) { y[i] = x; }
	for (int j = 0; j < 4; ++j) y[j] += 1.0;
	for (;;) { break; }
	while (x > 0.0) { x -= 1.0; continue; }
	do { x += 1.0; } while (x < 10.0);
	if (x > 1.0) x = 1.0; else if (x < 0.0) x = 0.0; else { x = 0.5; }
	switch (i) {
	case 0:
	case 1: x = 2.0; break;
	default: x = 3.0;
	}
	;
	return x + y[0];
}`)
}

func TestConstructorLedStatement(t *testing.T) {
	prog := expectParse(t, "void f(float a) { float2(a, a).x; float4(a, a, a, a); }")
	fn := prog.Nodes.Get(prog.Functions[0].Node).(*ast.FunctionDeclaration)
	body := prog.Nodes.Get(fn.Body).(*ast.Block)
	if len(body.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(body.Statements))
	}
	stmt := prog.Nodes.Get(body.Statements[0]).(*ast.ExpressionStatement)
	if got := render(prog, stmt.Expr); got != "float2(a, a).x" {
		t.Errorf("expected float2(a, a).x, got %s", got)
	}

	expectParse(t, "void f(float a) { for (float2(a, a); a < 1.0; a += 1.0) {} }")
}

func TestScoping(t *testing.T) {
	// Nested blocks may shadow outer locals.
	prog := expectParse(t, `
float f(float a) {
	float x = a;
	{
		float x = 2.0;
		a = x;
	}
	return x;
}`)
	fn := prog.Nodes.Get(prog.Functions[0].Node).(*ast.FunctionDeclaration)
	body := prog.Nodes.Get(fn.Body).(*ast.Block)
	ret := prog.Nodes.Get(body.Statements[2]).(*ast.Return)
	ref := prog.Nodes.Get(ret.Value).(*ast.VariableRef)
	outer := prog.Nodes.Get(body.Statements[0]).(*ast.VariableDeclaration).Variables[0]
	if ref.Variable != outer {
		t.Errorf("return refers to variable %d, expected outer x (%d)", ref.Variable, outer)
	}

	// A loop variable goes out of scope with its loop.
	expectParse(t, "void f() { for (int i = 0; i < 2; i++) {} int i = 1; }")

	// An initializer sees the outer binding, not the one being declared.
	expectParse(t, "float f(float a) { { float a = a * 2.0; return a; } }")

	expectParseError(t, "void f() { float x; float x; }", diagnostic.CodeDuplicateSymbol, "redefinition of 'x'")
	expectParseError(t, "void f(float a) { float a; }", diagnostic.CodeDuplicateSymbol, "redefinition of 'a'")
	expectParseError(t, "void f(float a, float a) {}", diagnostic.CodeDuplicateSymbol, "redefinition of 'a'")
	expectParseError(t, "void f() { float sin = 1.0; }", diagnostic.CodeDuplicateSymbol, "redefinition of 'sin'")
	expectParseError(t, "void f() { { float y; } y = 1.0; }", diagnostic.CodeUndefinedSymbol, "undefined identifier 'y'")
	expectParseError(t, "void f() { for (int i = 0; i < 2; i++) {} i = 1; }", diagnostic.CodeUndefinedSymbol, "'i'")
}

func TestReturnChecks(t *testing.T) {
	expectParseError(t, "void f() { return 1.0; }", diagnostic.CodeInvalidOperand, "void function cannot return a value")
	expectParseError(t, "float f() { return; }", diagnostic.CodeInvalidOperand, "non-void function must return a value")
}

func TestSwitchRejectsMultipleDefaults(t *testing.T) {
	expectParseError(t, "void f(int i) { switch (i) { default: break; default: break; } }",
		diagnostic.CodeDuplicateSymbol, "multiple default labels")
}

func TestAssignmentTargets(t *testing.T) {
	expectParseError(t, "void f(float a) { 1.0 = a; }", diagnostic.CodeInvalidOperand, "invalid assignment target")
	expectParseError(t, "void f(float a) { (a + a) = a; }", diagnostic.CodeInvalidOperand, "invalid assignment target")
	expectParseError(t, `
cbuffer Params : slot(0) { float scale; };
void f() { scale = 2.0; }`, diagnostic.CodeInvalidOperand, "cannot assign to cbuffer member 'scale'")
	expectParseError(t, "void f(float a) { a++ ++; }", diagnostic.CodeInvalidOperand, "invalid assignment target")
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

func TestDeclarations(t *testing.T) {
	prog := expectParse(t, `
struct Light { float3 dir; float4 color; };
cbuffer Scene : slot(2) { float4x4 viewProj; Light lights[4]; float time; };
texture2D albedo : slot(0);
texture3D volume : slot(1);
textureCube sky : slot(2);
rwtexture2D target : slot(3);

float4 shade(float3 n) {
	return lights[0].color * saturate(dot(n, lights[0].dir)) * time;
}
`)
	if len(prog.Structs) != 2 {
		t.Fatalf("expected 2 structs, got %d", len(prog.Structs))
	}
	scene := prog.Structs[1]
	if scene.StructType != ast.StructCBuffer || scene.Slot != 2 {
		t.Errorf("Scene: got %s at slot %d", scene.StructType, scene.Slot)
	}
	members := prog.Members(scene.Type)
	if len(members) != 3 || members[1].Name != "lights" || members[1].ArrayLengthX != 4 {
		t.Errorf("Scene members: %+v", members)
	}
	for _, m := range members {
		if m.Owner != 1 {
			t.Errorf("member %s owner = %d, want 1", m.Name, m.Owner)
		}
	}

	want := []struct {
		name     string
		dim      ast.TextureDimension
		writable bool
		slot     uint32
	}{
		{"albedo", ast.Texture2D, false, 0},
		{"volume", ast.Texture3D, false, 1},
		{"sky", ast.TextureCube, false, 2},
		{"target", ast.Texture2D, true, 3},
	}
	if len(prog.Textures) != len(want) {
		t.Fatalf("expected %d textures, got %d", len(want), len(prog.Textures))
	}
	for i, w := range want {
		tex := prog.Textures[i]
		if tex.Name != w.name || tex.Dimension != w.dim || tex.Writable != w.writable || tex.Slot != w.slot {
			t.Errorf("texture %d: got %+v, want %+v", i, tex, w)
		}
	}

	// Decls are in source order: 2 structs, 4 textures, 1 function.
	if len(prog.Decls) != 7 {
		t.Errorf("expected 7 declarations, got %d", len(prog.Decls))
	}
}

func TestSemantics(t *testing.T) {
	prog := expectParse(t, `
struct VSIn { float3 pos : POSITION; float2 uv : TEXCOORD3; float4 tint : COLOR1; };
float4 vertex_main(VSIn input) { return float4(input.pos, 1.0); }
`)
	members := prog.Members(prog.Structs[0].Type)
	want := []ast.Semantic{
		{Kind: ast.SemanticPosition},
		{Kind: ast.SemanticTexcoord, Index: 3},
		{Kind: ast.SemanticColor, Index: 1},
	}
	for i, w := range want {
		if members[i].Semantic != w {
			t.Errorf("member %s: got %s, want %s", members[i].Name, members[i].Semantic, w)
		}
	}

	expectParseError(t, "struct S { float a : BOGUS; };", diagnostic.CodeInvalidSemantic, "unknown semantic 'BOGUS'")
	expectParseError(t, "struct S { float a : POSITION2; };", diagnostic.CodeInvalidSemantic, "unknown semantic")
	expectParseError(t, "cbuffer C : slot(0) { float a : COLOR0; };", diagnostic.CodeInvalidSemantic, "cbuffer members cannot have semantics")
}

func TestSlots(t *testing.T) {
	expectParseError(t, `
cbuffer A : slot(0) { float a; };
cbuffer B : slot(0) { float b; };`, diagnostic.CodeSlotCollision, "buffer slot 0 already in use")

	expectParseError(t, `
texture2D a : slot(3);
rwtexture2D b : slot(3);`, diagnostic.CodeSlotCollision, "texture slot 3 already in use")

	expectParseError(t, "cbuffer A : slot(16) { float a; };", diagnostic.CodeSlotOutOfRange, "buffer slot 16 out of range (max 15)")
	expectParseError(t, "texture2D t : slot(16);", diagnostic.CodeSlotOutOfRange, "texture slot 16 out of range")

	// Buffers and textures have separate slot spaces.
	expectParse(t, "cbuffer A : slot(0) { float a; };\ntexture2D t : slot(0);")
}

func TestNamespaceConflicts(t *testing.T) {
	expectParseError(t, "struct S { float a; };\nvoid S() {}", diagnostic.CodeDuplicateSymbol, "redefinition of 'S'")
	expectParseError(t, "void f() {}\nvoid f() {}", diagnostic.CodeDuplicateSymbol, "redefinition of 'f'")
	expectParseError(t, "texture2D t : slot(0);\nstruct t { float a; };", diagnostic.CodeDuplicateSymbol, "redefinition of 't'")
	expectParseError(t, "cbuffer C : slot(0) { float k; };\nvoid k() {}", diagnostic.CodeDuplicateSymbol, "redefinition of 'k'")
	expectParseError(t, "void dot() {}", diagnostic.CodeDuplicateSymbol, "redefinition of 'dot'")
	expectParseError(t, "struct float4 { float a; };", diagnostic.CodeDuplicateSymbol, "redefinition of 'float4'")
	expectParseError(t, "struct S { float a; float a; };", diagnostic.CodeDuplicateSymbol, "duplicate member 'a'")
}

func TestDeclareBeforeUse(t *testing.T) {
	expectParseError(t, "float f() { return g(); }\nfloat g() { return 1.0; }", diagnostic.CodeUndefinedSymbol, "undefined identifier 'g'")
	expectParseError(t, "void f(Later l) {}\nstruct Later { float a; };", diagnostic.CodeUndefinedSymbol, "unknown type 'Later'")
	expectParseError(t, "float f(float a) { return g(a, a); }\nfloat g(float x) { return x; }", diagnostic.CodeUndefinedSymbol, "'g'")
	expectParseError(t, "float g(float x) { return x; }\nfloat f(float a) { return g(a, a); }", diagnostic.CodeInvalidArgCount, "'g' expects 1 arguments, got 2")
}

func TestTextures(t *testing.T) {
	expectParse(t, `
texture2D albedo : slot(0);
rwtexture2D dst : slot(1);
struct CSIn { uint3 id : THREAD_ID; };
[numthreads(8, 8, 1)]
void compute_main(CSIn input) {}
float4 f(float2 uv) {
	float4 a = sample(albedo, uv);
	float4 b = sample_level(albedo, uv, 0.0);
	float4 c = load(albedo, int2(0, 0));
	store(dst, int2(0, 0), a + b + c);
	return a;
}`)

	expectParseError(t, "texture2D t : slot(0);\nvoid f() { store(t, int2(0, 0), float4(0.0, 0.0, 0.0, 0.0)); }",
		diagnostic.CodeInvalidTexture, "'store' requires an rwtexture2D")
	expectParseError(t, "rwtexture2D t : slot(0);\nfloat4 f() { return sample(t, float2(0.0, 0.0)); }",
		diagnostic.CodeInvalidTexture, "cannot read from rwtexture2D 't'")
	expectParseError(t, "textureCube t : slot(0);\nfloat4 f() { return load(t, int2(0, 0)); }",
		diagnostic.CodeInvalidTexture, "'load' requires a texture2D")
	expectParseError(t, "texture2D t : slot(0);\nvoid f() { float x = t; }",
		diagnostic.CodeInvalidTexture, "texture 't' can only be passed to a texture intrinsic")
	expectParseError(t, "void f(float a) { float4 x = sample(a, float2(0.0, 0.0)); }",
		diagnostic.CodeInvalidTexture, "expected texture, got 'a'")
}

// ----------------------------------------------------------------------------
// Entry Points and Struct Roles
// ----------------------------------------------------------------------------

const pipelineSource = `
struct VSIn { float3 pos : POSITION; float2 uv : TEXCOORD0; };
struct Varyings { float4 pos : POSITION; float2 uv : TEXCOORD0; };
struct Targets { float4 color : COLOR0; float4 normal : COLOR1; };

Varyings vertex_main(VSIn input) {
	Varyings o;
	o.pos = float4(input.pos, 1.0);
	o.uv = input.uv;
	return o;
}

Targets fragment_main(Varyings input) {
	Targets t;
	t.color = float4(input.uv, 0.0, 1.0);
	t.normal = t.color;
	return t;
}
`

func TestEntryPointRoles(t *testing.T) {
	prog := expectParse(t, pipelineSource)

	if prog.MainVertex == ast.NoFunction || prog.MainFragment == ast.NoFunction {
		t.Fatalf("entry points not registered: vertex=%d fragment=%d", prog.MainVertex, prog.MainFragment)
	}
	if prog.MainCompute != ast.NoFunction {
		t.Errorf("unexpected compute entry %d", prog.MainCompute)
	}

	roles := []struct {
		role          ast.StructType
		fragmentInput bool
	}{
		{ast.StructVertexInput, false},
		{ast.StructVertexOutput, true},
		{ast.StructFragmentOutput, false},
	}
	for i, want := range roles {
		s := prog.Structs[i]
		if s.StructType != want.role || s.FragmentInput != want.fragmentInput {
			t.Errorf("struct %s: got %s (fragment input %v), want %s (%v)",
				prog.Types[s.Type].Name, s.StructType, s.FragmentInput, want.role, want.fragmentInput)
		}
	}

	if got := prog.Functions[prog.MainVertex].FunctionType; got != ast.FunctionMainVertex {
		t.Errorf("vertex_main function type = %d", got)
	}
}

func TestStructRoleConflicts(t *testing.T) {
	expectParseError(t, `
struct S { float4 pos : POSITION; };
S vertex_main(S input) { return input; }`, diagnostic.CodeStructRole, "struct 'S' used as both vertex input and vertex output")

	expectParseError(t, `
cbuffer C : slot(0) { float4 pos; };
float4 vertex_main(C input) { return pos; }`, diagnostic.CodeStructRole, "cbuffer 'C' cannot be used as vertex input")

	expectParseError(t, `
struct Out { float4 a : COLOR0; float4 b : COLOR0; };
Out fragment_main() { Out o; return o; }`, diagnostic.CodeSlotCollision, "target slot 0 already in use")

	expectParseError(t, `
struct Out { float4 a : COLOR8; };
Out fragment_main() { Out o; return o; }`, diagnostic.CodeSlotOutOfRange, "target slot 8 out of range (max 7)")
}

func TestEntryPoints(t *testing.T) {
	prog := expectParse(t, `
struct CSIn { uint3 id : THREAD_ID; uint3 group : GROUP_ID; };
[numthreads(8, 4, 2)]
void compute_main(CSIn input) {}`)
	fn := prog.Functions[prog.MainCompute]
	if fn.Threads != [3]uint32{8, 4, 2} {
		t.Errorf("threads = %v", fn.Threads)
	}
	if got := prog.Structs[0].StructType; got != ast.StructComputeInput {
		t.Errorf("CSIn role = %s", got)
	}

	expectParseError(t, "[numthreads(1, 1, 1)]\nvoid other() {}", diagnostic.CodeInvalidEntryPoint, "[numthreads] is only valid on compute_main")
	expectParseError(t, "[numthreads(0, 1, 1)]\nvoid compute_main() {}", diagnostic.CodeInvalidArraySize, "thread count 0 out of range")
	expectParseError(t, "[unroll(1, 1, 1)]\nvoid compute_main() {}", diagnostic.CodeUnexpectedToken, "unknown attribute 'unroll'")
	expectParseError(t, "float4 vertex_main() { return float4(0.0, 0.0, 0.0, 1.0); }\nvoid f() { vertex_main(); }",
		diagnostic.CodeInvalidOperand, "entry point 'vertex_main' cannot be called")
}

// ----------------------------------------------------------------------------
// Errors
// ----------------------------------------------------------------------------

func TestErrorPositions(t *testing.T) {
	pe := expectParseError(t, "float f() {\n  return @;\n}", diagnostic.CodeInvalidToken, `unrecognized character sequence "@"`)
	if pe.Line != 2 || pe.Column != 10 {
		t.Errorf("expected 2:10, got %d:%d", pe.Line, pe.Column)
	}
	if got := pe.Error(); got != `2:10: unrecognized character sequence "@"` {
		t.Errorf("Error() = %q", got)
	}

	pe = expectParseError(t, "void f() {\n\tfloat x = 1.0\n}", diagnostic.CodeUnexpectedToken, `expected ';', got "}"`)
	if pe.Line != 3 || pe.Column != 1 {
		t.Errorf("expected 3:1, got %d:%d", pe.Line, pe.Column)
	}

	pe = expectParseError(t, "void f() {}\n  /* never\nclosed", diagnostic.CodeInvalidToken, "unterminated block comment")
	if pe.Line != 2 || pe.Column != 3 {
		t.Errorf("expected 2:3, got %d:%d", pe.Line, pe.Column)
	}

	expectParseError(t, "void f() { int x = 4294967296; }", diagnostic.CodeInvalidToken, `unrecognized character sequence "4294967296"`)
	expectParseError(t, "void f() {", diagnostic.CodeUnexpectedToken, "end of input")
	expectParseError(t, "42", diagnostic.CodeUnexpectedToken, "expected declaration")
	expectParseError(t, "void f() { float v[0]; }", diagnostic.CodeInvalidArraySize, "invalid array size 0")
	expectParseError(t, "void f() { void x; }", diagnostic.CodeInvalidType, "variable cannot have type void")
	expectParseError(t, "struct S { float a; };\nvoid f() { S s = S(1.0); }", diagnostic.CodeInvalidType, "type 'S' cannot be constructed")
}

func TestErrorIsDiagnostic(t *testing.T) {
	src := "void f() {\n  g();\n}"
	_, err := Parse(src)
	d, ok := diagnostic.FromError(err, "shader.shader", src)
	if !ok {
		t.Fatalf("FromError did not recognize %T", err)
	}
	if d.Code != diagnostic.CodeUndefinedSymbol || d.Range.Start.Line != 2 || d.Range.Start.Column != 3 {
		t.Errorf("diagnostic = %+v", d)
	}
	if got := d.Error(); got != "shader.shader:2:3: error: undefined identifier 'g'" {
		t.Errorf("Error() = %q", got)
	}
}
