package builtins

import "testing"

func TestLookup(t *testing.T) {
	for i := range Intrinsics {
		id, ok := Lookup(Intrinsics[i].Name)
		if !ok || Get(id) != &Intrinsics[i] {
			t.Errorf("Lookup(%q) does not round-trip", Intrinsics[i].Name)
		}
	}
	if IsIntrinsic("texture") || IsIntrinsic("") {
		t.Error("unexpected intrinsic")
	}
}

func TestSpellings(t *testing.T) {
	tests := []struct {
		name  string
		glsl  string
		metal string
	}{
		{"lerp", "mix", "mix"},
		{"frac", "fract", "fract"},
		{"ddx", "dFdx", "dfdx"},
		{"rsqrt", "inversesqrt", "rsqrt"},
		{"atan2", "atan", "atan2"},
		{"fmod", "mod", "fmod"},
		{"dot", "dot", "dot"},
	}
	for _, tt := range tests {
		id, ok := Lookup(tt.name)
		if !ok {
			t.Fatalf("%s is not an intrinsic", tt.name)
		}
		in := Get(id)
		if got := in.GLSLName(); got != tt.glsl {
			t.Errorf("%s: GLSL %q, want %q", tt.name, got, tt.glsl)
		}
		if got := in.MetalName(); got != tt.metal {
			t.Errorf("%s: Metal %q, want %q", tt.name, got, tt.metal)
		}
	}
}

func TestTable(t *testing.T) {
	for _, in := range Intrinsics {
		if in.MinArgs < 1 || in.MaxArgs < in.MinArgs {
			t.Errorf("%s: bad argument counts %d..%d", in.Name, in.MinArgs, in.MaxArgs)
		}
		if in.Form.IsTexture() && in.Return != ReturnFloat4 && in.Return != ReturnVoid {
			t.Errorf("%s: texture intrinsics return float4 or void", in.Name)
		}
		if in.Fragment && in.Name != "ddx" && in.Name != "ddy" {
			t.Errorf("%s: only derivatives are fragment-only", in.Name)
		}
	}
}
