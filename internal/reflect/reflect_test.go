package reflect

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/parser"
)

func mustReflect(t *testing.T, src string) *Result {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return Reflect(prog)
}

type placement struct {
	name   string
	offset int
	size   int
}

func expectPacking(t *testing.T, cb CBuffer, size int, want []placement) {
	t.Helper()
	if cb.Size != size {
		t.Errorf("%s: expected size %d, got %d", cb.Name, size, cb.Size)
	}
	var got []placement
	for _, m := range cb.Members {
		got = append(got, placement{m.Name, m.Offset, m.Size})
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(placement{})); diff != "" {
		t.Errorf("%s: packing mismatch (-want +got):\n%s", cb.Name, diff)
	}
}

func TestCBufferPacking(t *testing.T) {
	tests := []struct {
		name string
		body string
		size int
		want []placement
	}{
		{
			name: "scalars fill a register",
			body: "float time; float2 resolution; float brightness; float3 dir;",
			size: 32,
			want: []placement{{"time", 0, 4}, {"resolution", 4, 8}, {"brightness", 12, 4}, {"dir", 16, 12}},
		},
		{
			name: "vectors do not straddle",
			body: "float3 a; float3 b;",
			size: 32,
			want: []placement{{"a", 0, 12}, {"b", 16, 12}},
		},
		{
			name: "scalar after float3",
			body: "float3 a; float b;",
			size: 16,
			want: []placement{{"a", 0, 12}, {"b", 12, 4}},
		},
		{
			name: "array elements start registers",
			body: "float a[3]; float b;",
			size: 48,
			want: []placement{{"a", 0, 36}, {"b", 36, 4}},
		},
		{
			name: "array after scalar",
			body: "float a; float2 b[2];",
			size: 48,
			want: []placement{{"a", 0, 4}, {"b", 16, 24}},
		},
		{
			name: "two dimensional array",
			body: "float2 g[2][3];",
			size: 96,
			want: []placement{{"g", 0, 88}},
		},
		{
			name: "matrices take a register per column",
			body: "float4x4 m; float3x3 n; float x;",
			size: 112,
			want: []placement{{"m", 0, 64}, {"n", 64, 44}, {"x", 108, 4}},
		},
		{
			name: "matrix starts a register",
			body: "float a; float2x2 m;",
			size: 48,
			want: []placement{{"a", 0, 4}, {"m", 16, 24}},
		},
		{
			name: "int and bool are four bytes",
			body: "int a; uint b; bool c; int4 d;",
			size: 32,
			want: []placement{{"a", 0, 4}, {"b", 4, 4}, {"c", 8, 4}, {"d", 16, 16}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustReflect(t, "cbuffer Data : slot(0) { "+tt.body+" };")
			if len(result.CBuffers) != 1 {
				t.Fatalf("expected 1 cbuffer, got %d", len(result.CBuffers))
			}
			expectPacking(t, result.CBuffers[0], tt.size, tt.want)
		})
	}
}

func TestNestedStructPacking(t *testing.T) {
	result := mustReflect(t, `
struct Light { float3 dir; float intensity; };
cbuffer Lighting : slot(2) { float a; Light sun; float b; Light extra[2]; };
`)
	cb := result.CBuffers[0]
	expectPacking(t, cb, 80, []placement{
		{"a", 0, 4},
		{"sun", 16, 16},
		{"b", 32, 4},
		{"extra", 48, 32},
	})
	if cb.Slot != 2 {
		t.Errorf("expected slot 2, got %d", cb.Slot)
	}

	sun := cb.Members[1]
	if sun.Type != "Light" || len(sun.Members) != 2 {
		t.Fatalf("unexpected nested member: %+v", sun)
	}
	if sun.Members[1].Name != "intensity" || sun.Members[1].Offset != 12 {
		t.Errorf("unexpected nested layout: %+v", sun.Members)
	}
	if got := cb.Members[3].ArrayLength; !cmp.Equal(got, []int{2}) {
		t.Errorf("expected array length [2], got %v", got)
	}
}

func TestBindings(t *testing.T) {
	result := mustReflect(t, `
cbuffer Camera : slot(0) { float4x4 viewProj; };
texture2D albedo : slot(0);
textureCube sky : slot(1);
rwtexture2D target : slot(2);
struct VSIn { float3 pos : POSITION; float3 normal : NORMAL; float2 uv : TEXCOORD0; };
struct Varyings { float4 pos : POSITION; };
struct CSIn { uint3 id : THREAD_ID; };
Varyings vertex_main(VSIn input) {
	Varyings o;
	o.pos = mul(viewProj, float4(input.pos, 1.0));
	return o;
}
[numthreads(8, 4, 1)]
void compute_main(CSIn input) {}
`)

	wantTextures := []Texture{
		{Name: "albedo", Slot: 0, Dimension: "2d", Access: "sampled"},
		{Name: "sky", Slot: 1, Dimension: "cube", Access: "sampled"},
		{Name: "target", Slot: 2, Dimension: "2d", Access: "write"},
	}
	if diff := cmp.Diff(wantTextures, result.Textures); diff != "" {
		t.Errorf("textures mismatch (-want +got):\n%s", diff)
	}

	wantInputs := []VertexInput{
		{Name: "pos", Location: 0, Semantic: "POSITION", Type: "float3"},
		{Name: "normal", Location: 1, Semantic: "NORMAL", Type: "float3"},
		{Name: "uv", Location: 2, Semantic: "TEXCOORD0", Type: "float2"},
	}
	if diff := cmp.Diff(wantInputs, result.VertexInputs); diff != "" {
		t.Errorf("vertex inputs mismatch (-want +got):\n%s", diff)
	}

	wantEntries := []EntryPoint{
		{Name: "vertex_main", Stage: "vertex"},
		{Name: "compute_main", Stage: "compute", WorkgroupSize: []int{8, 4, 1}},
	}
	if diff := cmp.Diff(wantEntries, result.EntryPoints); diff != "" {
		t.Errorf("entry points mismatch (-want +got):\n%s", diff)
	}
}

func TestJSON(t *testing.T) {
	result := mustReflect(t, `
cbuffer Frame : slot(0) { float time; };
struct Out { float4 color : COLOR0; };
Out fragment_main() { Out o; o.color = float4(time, 0.0, 0.0, 1.0); return o; }
`)
	data, err := result.JSON()
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, data)
	}
	for _, key := range []string{"cbuffers", "textures", "vertexInputs", "entryPoints"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}

	// Empty lists encode as [], not null.
	if textures, ok := decoded["textures"].([]any); !ok || len(textures) != 0 {
		t.Errorf("expected empty textures array, got %v", decoded["textures"])
	}
	entries := decoded["entryPoints"].([]any)
	if entry := entries[0].(map[string]any); entry["workgroupSize"] != nil {
		t.Errorf("fragment entry should have null workgroupSize, got %v", entry["workgroupSize"])
	}
}

func TestTypeLayout(t *testing.T) {
	prog, err := parser.Parse("struct S { float3 a; float b; float2 c; };")
	if err != nil {
		t.Fatal(err)
	}
	lc := NewLayoutComputer(prog)

	sizes := map[string]int{
		"float": 4, "float2": 8, "float3": 12, "float4": 16,
		"float2x2": 24, "float3x3": 44, "float4x4": 64,
		"S": 24,
	}
	for i := range prog.Types {
		want, ok := sizes[prog.Types[i].Name]
		if !ok {
			continue
		}
		if got := lc.TypeLayout(ast.TypeID(i)).Size; got != want {
			t.Errorf("%s: expected size %d, got %d", prog.Types[i].Name, want, got)
		}
	}
}
