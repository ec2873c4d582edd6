package shader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
	"github.com/HugoDaniel/shadercross/internal/generator"
	"github.com/HugoDaniel/shadercross/internal/optimizer"
	"github.com/HugoDaniel/shadercross/internal/parser"
	"github.com/HugoDaniel/shadercross/internal/test"
)

// ----------------------------------------------------------------------------
// Test Helpers
// ----------------------------------------------------------------------------

// extractProject writes every file of testdata/project.txtar into a temp
// directory and returns the paths by name.
func extractProject(t *testing.T) map[string]string {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("testdata", "project.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	paths := make(map[string]string)
	for _, f := range ar.Files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Data, 0644); err != nil {
			t.Fatal(err)
		}
		paths[f.Name] = path
	}
	return paths
}

func mustCompile(t *testing.T, path string, opts Options) *Shader {
	t.Helper()
	s, err := Compile(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("compile %s: %v", path, err)
	}
	return s
}

func generateDirect(t *testing.T, source string, stage ast.Stage, target generator.Target) string {
	t.Helper()
	prog, err := parser.Parse(source)
	if err != nil {
		t.Fatal(err)
	}
	if err := optimizer.OptimizeStage(prog, stage); err != nil {
		t.Fatal(err)
	}
	out, err := generator.Generate(prog, stage, target, generator.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// ----------------------------------------------------------------------------
// Compile
// ----------------------------------------------------------------------------

func TestCompileProject(t *testing.T) {
	paths := extractProject(t)

	sprite := mustCompile(t, paths["sprite.shader"], Options{})
	if sprite.Name != "sprite" {
		t.Errorf("Name = %q, want sprite", sprite.Name)
	}
	source, err := os.ReadFile(paths["sprite.shader"])
	if err != nil {
		t.Fatal(err)
	}

	for _, target := range generator.Targets {
		for _, stage := range []ast.Stage{ast.StageVertex, ast.StageFragment} {
			want := generateDirect(t, string(source), stage, target)
			test.AssertEqualWithDiff(t, sprite.Output(target, stage), want)
		}
		if got := sprite.Output(target, ast.StageCompute); got != "" {
			t.Errorf("%s: sprite has no compute stage, got output:\n%s", target, got)
		}
	}

	blur := mustCompile(t, paths["blur.shader"], Options{})
	if blur.HasStage(ast.StageVertex) || !blur.HasStage(ast.StageCompute) {
		t.Errorf("blur stages: vertex=%v compute=%v", blur.HasStage(ast.StageVertex), blur.HasStage(ast.StageCompute))
	}
	test.AssertContains(t, blur.Output(generator.TargetHLSL, ast.StageCompute),
		"[numthreads(8, 8, 1)]", "RWTexture2D<float4> dst : register(u1);")
}

func TestCompileStagesAreIsolated(t *testing.T) {
	paths := extractProject(t)
	s := mustCompile(t, paths["sprite.shader"], Options{Targets: []generator.Target{generator.TargetHLSL}})

	// The vertex stage reaches the cbuffer but not the texture, and the
	// fragment stage the other way round.
	vertex := s.Output(generator.TargetHLSL, ast.StageVertex)
	fragment := s.Output(generator.TargetHLSL, ast.StageFragment)
	test.AssertContains(t, vertex, "cbuffer Frame : register(b0)")
	test.AssertNotContains(t, vertex, "atlas")
	test.AssertContains(t, fragment, "Texture2D atlas : register(t0);")
	test.AssertNotContains(t, fragment, "cbuffer")
}

func TestCompileTargetsOption(t *testing.T) {
	paths := extractProject(t)
	s := mustCompile(t, paths["sprite.shader"], Options{Targets: []generator.Target{generator.TargetGLSL}})

	if s.Output(generator.TargetGLSL, ast.StageVertex) == "" {
		t.Error("expected GLSL vertex output")
	}
	for _, target := range []generator.Target{generator.TargetDefault, generator.TargetHLSL, generator.TargetMetal} {
		if s.Output(target, ast.StageVertex) != "" {
			t.Errorf("%s was not requested but has output", target)
		}
	}
}

func TestCompileMissingFile(t *testing.T) {
	_, err := Compile(context.Background(), filepath.Join(t.TempDir(), "missing.shader"), Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if IsCompileError(err) {
		t.Errorf("a missing file is not a compile error: %v", err)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   diagnostic.DiagnosticCode
		want   []string
	}{
		{
			name:   "parse",
			source: "void f() {\n\tfloat x = ;\n}",
			code:   diagnostic.CodeUnexpectedToken,
			want:   []string{"bad.shader:2:12: error:", "\tfloat x = ;", "^"},
		},
		{
			name:   "validate",
			source: "struct In { float3 pos : POSITION; };\nstruct Out { float2 uv : TEXCOORD0; };\nOut vertex_main(In input) { Out o; return o; }",
			code:   diagnostic.CodeInvalidShaderIO,
			want:   []string{"bad.shader:", "must have a POSITION member"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileSource(context.Background(), "bad.shader", tt.source, Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *Error, got %T", err)
			}
			d, ok := diagnostic.FromError(e.Err, e.Path, e.Source)
			if !ok {
				t.Fatalf("error carries no position: %v", err)
			}
			if d.Code != tt.code {
				t.Errorf("code = %s, want %s (%v)", d.Code, tt.code, err)
			}
			test.AssertContains(t, e.Detail(), tt.want...)
		})
	}
}

func TestCompileCanceled(t *testing.T) {
	paths := extractProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compile(ctx, paths["sprite.shader"], Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"shaders/sprite.shader", "sprite"},
		{"blur.hlsl", "blur"},
		{"noext", "noext"},
		{"dir/multi.dot.shader", "multi.dot"},
	}
	for _, tt := range tests {
		if got := Name(tt.path); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSourceIsNotRequiredToExist(t *testing.T) {
	s, err := CompileSource(context.Background(), "inline.shader", `
struct CSIn { uint3 id : THREAD_ID; };
[numthreads(1, 1, 1)]
void compute_main(CSIn input) {}`, Options{Targets: []generator.Target{generator.TargetMetal}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(s.Output(generator.TargetMetal, ast.StageCompute), "kernel void compute_main(") {
		t.Errorf("unexpected Metal output:\n%s", s.Output(generator.TargetMetal, ast.StageCompute))
	}
}
