package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/shader"
)

const spriteSource = `
struct VSIn { float3 pos : POSITION; };
struct Varyings { float4 pos : POSITION; };
struct Targets { float4 color : COLOR0; };

Varyings vertex_main(VSIn input) {
	Varyings o;
	o.pos = float4(input.pos, 1.0);
	return o;
}

Targets fragment_main(Varyings input) {
	Targets t;
	t.color = float4(1.0, 0.0, 0.0, 1.0);
	return t;
}
`

const blurSource = `
texture2D src : slot(0);
rwtexture2D dst : slot(1);
struct CSIn { uint3 id : THREAD_ID; };

[numthreads(8, 8, 1)]
void compute_main(CSIn input) {
	int2 p = int2(input.id.xy);
	store(dst, p, load(src, p));
}
`

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"shaders/b.shader":        "",
		"shaders/nested/a.shader": "",
		"shaders/notes.txt":   "",
		"extra.hlsl":          "",
	})

	paths, err := discover([]string{filepath.Join(dir, "shaders"), filepath.Join(dir, "extra.hlsl")})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range paths {
		rel, _ := filepath.Rel(dir, p)
		names = append(names, filepath.ToSlash(rel))
	}
	if got := strings.Join(names, " "); got != "extra.hlsl shaders/b.shader shaders/nested/a.shader" {
		t.Errorf("discovered %s", got)
	}

	writeFiles(t, dir, map[string]string{"other/b.shader": ""})
	if _, err := discover([]string{filepath.Join(dir, "shaders"), filepath.Join(dir, "other")}); err == nil {
		t.Error("expected duplicate name error")
	}
	if _, err := discover([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for missing input")
	}
	empty := filepath.Join(dir, "empty")
	if err := os.Mkdir(empty, 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := discover([]string{empty}); err == nil {
		t.Error("expected error for a directory without shaders")
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"shaders/sprite.shader": spriteSource,
		"shaders/blur.shader":   blurSource,
	})
	out := filepath.Join(dir, "build")

	err := run(context.Background(), []string{
		"-no-config", "-o", out, "-targets", "hlsl,metal", "-reflect", "-j", "2",
		filepath.Join(dir, "shaders"),
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{
		"shaders.hlsl.bin",
		"shaders.metal.bin",
		"hlsl/sprite.vertex.hlsl",
		"hlsl/sprite.fragment.hlsl",
		"hlsl/blur.compute.hlsl",
		"metal/blur.compute.metal",
		"sprite.reflect.json",
		"blur.reflect.json",
	} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	for _, name := range []string{"shaders.glsl.bin", "hlsl/sprite.compute.hlsl", "glsl"} {
		if _, err := os.Stat(filepath.Join(out, name)); err == nil {
			t.Errorf("unexpected output %s", name)
		}
	}

	// Shaders are packed in path order: blur before sprite.
	data, err := os.ReadFile(filepath.Join(out, "shaders.hlsl.bin"))
	if err != nil {
		t.Fatal(err)
	}
	blob, err := shader.DecodeBlob(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(blob.Shaders) != 2 {
		t.Fatalf("blob has %d shaders", len(blob.Shaders))
	}
	vertex, err := os.ReadFile(filepath.Join(out, "hlsl", "sprite.vertex.hlsl"))
	if err != nil {
		t.Fatal(err)
	}
	if got := blob.Source(1, ast.StageVertex); got != string(vertex) {
		t.Errorf("blob vertex source differs from file:\n%s", got)
	}
	if !strings.Contains(blob.Source(0, ast.StageCompute), "[numthreads(8, 8, 1)]") {
		t.Errorf("unexpected blur compute source:\n%s", blob.Source(0, ast.StageCompute))
	}

	reflection, err := os.ReadFile(filepath.Join(out, "blur.reflect.json"))
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Textures []struct {
			Name   string `json:"name"`
			Access string `json:"access"`
		} `json:"textures"`
	}
	if err := json.Unmarshal(reflection, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Textures) != 2 || decoded.Textures[1].Access != "write" {
		t.Errorf("unexpected textures: %+v", decoded.Textures)
	}
}

func TestRunUsesConfig(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"shadercross.json": `{"targets": ["glsl"], "outDir": "gen", "glslVersion": 300}`,
		"sprite.shader":        spriteSource,
	})

	err := run(context.Background(), []string{"-config", filepath.Join(dir, "shadercross.json"), filepath.Join(dir, "sprite.shader")})
	if err != nil {
		t.Fatal(err)
	}

	// outDir resolves against the config file's directory.
	data, err := os.ReadFile(filepath.Join(dir, "gen", "glsl", "sprite.fragment.glsl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#version 300 es\n") {
		t.Errorf("unexpected GLSL header:\n%s", data)
	}
}

func TestRunDumpsDefaultDialect(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"sprite.shader": spriteSource,
		"notes.sc":      "not a shader",
	})
	out := filepath.Join(dir, "build")

	err := run(context.Background(), []string{"-no-config", "-o", out, "-targets", "hlsl", "-dump-default", dir})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(out, "sprite.generated.shdr"))
	if err != nil {
		t.Fatal(err)
	}
	dumped := string(data)
	if !strings.HasPrefix(dumped, "// vertex\n") {
		t.Errorf("dump should start with the vertex stage:\n%s", dumped)
	}
	for _, want := range []string{"Varyings vertex_main(VSIn input)", "// fragment\n", "Targets fragment_main(Varyings input)"} {
		if !strings.Contains(dumped, want) {
			t.Errorf("dump missing %q:\n%s", want, dumped)
		}
	}

	for _, name := range []string{"shaders.default.bin", "default", "notes.generated.shdr"} {
		if _, err := os.Stat(filepath.Join(out, name)); err == nil {
			t.Errorf("unexpected output %s", name)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "shaders.hlsl.bin")); err != nil {
		t.Errorf("missing hlsl blob: %v", err)
	}
}

func TestRunFailsWithoutWriting(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"good.shader": spriteSource,
		"bad.shader":  "void f() {\n  return @;\n}",
	})
	out := filepath.Join(dir, "build")

	err := run(context.Background(), []string{"-no-config", "-o", out, dir})
	var compileErr *shader.Error
	if !errors.As(err, &compileErr) {
		t.Fatalf("expected compile error, got %v", err)
	}
	if !strings.Contains(compileErr.Detail(), "bad.shader:2:10") {
		t.Errorf("unexpected error detail:\n%s", compileErr.Detail())
	}
	if _, err := os.Stat(out); err == nil {
		t.Error("no output should be written after a failed compile")
	}
}

func TestRunFlagErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"sprite.shader": spriteSource})
	shaderPath := filepath.Join(dir, "sprite.shader")

	tests := []struct {
		name string
		args []string
	}{
		{"no input", []string{"-no-config"}},
		{"unknown target", []string{"-no-config", "-targets", "spirv", shaderPath}},
		{"unknown toolchain", []string{"-no-config", "-toolchain", "tcc", shaderPath}},
		{"bad jobs", []string{"-no-config", "-j", "0", shaderPath}},
		{"unsupported glsl version", []string{"-no-config", "-glsl-version", "150", shaderPath}},
		{"unknown flag", []string{"-bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(context.Background(), tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}
