// Package builtins defines the intrinsic functions of the shading language
// and how each backend spells them.
package builtins

import "github.com/HugoDaniel/shadercross/internal/ast"

// ReturnRule describes how an intrinsic's result type follows from its
// arguments.
type ReturnRule uint8

const (
	// ReturnArg0 returns the type of the first argument.
	ReturnArg0 ReturnRule = iota
	// ReturnWidest returns the widest argument type (vectors beat scalars).
	ReturnWidest
	// ReturnScalar returns the component type of the first argument.
	ReturnScalar
	// ReturnBool returns bool.
	ReturnBool
	// ReturnMul follows matrix/vector multiplication rules.
	ReturnMul
	// ReturnFloat4 returns float4.
	ReturnFloat4
	// ReturnVoid returns void.
	ReturnVoid
)

// Form selects how a backend renders the call.
type Form uint8

const (
	// FormCall renders name(args...).
	FormCall Form = iota
	// FormMul renders mul(a, b), or (a * b) where the backend has no mul.
	FormMul
	// FormSaturate renders saturate(x), or a clamp where the backend has none.
	FormSaturate
	// FormSample and the following forms take a texture as first argument.
	FormSample
	FormSampleLevel
	FormLoad
	FormStore
)

// IsTexture reports whether the form operates on a texture argument.
func (f Form) IsTexture() bool { return f >= FormSample }

// Intrinsic describes one builtin function.
type Intrinsic struct {
	Name    string
	MinArgs int
	MaxArgs int
	Return  ReturnRule
	Form    Form

	// Backend spellings. Empty means the source name is kept.
	GLSL  string
	Metal string

	// Fragment marks derivative functions that only make sense in
	// fragment shaders.
	Fragment bool
}

// GLSLName returns the GLSL spelling of the intrinsic.
func (in *Intrinsic) GLSLName() string {
	if in.GLSL != "" {
		return in.GLSL
	}
	return in.Name
}

// MetalName returns the Metal spelling of the intrinsic.
func (in *Intrinsic) MetalName() string {
	if in.Metal != "" {
		return in.Metal
	}
	return in.Name
}

// Intrinsics is the intrinsic table indexed by ast.IntrinsicID.
var Intrinsics = []Intrinsic{
	{Name: "abs", MinArgs: 1, MaxArgs: 1},
	{Name: "acos", MinArgs: 1, MaxArgs: 1},
	{Name: "all", MinArgs: 1, MaxArgs: 1, Return: ReturnBool},
	{Name: "any", MinArgs: 1, MaxArgs: 1, Return: ReturnBool},
	{Name: "asin", MinArgs: 1, MaxArgs: 1},
	{Name: "atan", MinArgs: 1, MaxArgs: 1},
	{Name: "atan2", MinArgs: 2, MaxArgs: 2, GLSL: "atan"},
	{Name: "ceil", MinArgs: 1, MaxArgs: 1},
	{Name: "clamp", MinArgs: 3, MaxArgs: 3},
	{Name: "cos", MinArgs: 1, MaxArgs: 1},
	{Name: "cosh", MinArgs: 1, MaxArgs: 1},
	{Name: "cross", MinArgs: 2, MaxArgs: 2},
	{Name: "ddx", MinArgs: 1, MaxArgs: 1, GLSL: "dFdx", Metal: "dfdx", Fragment: true},
	{Name: "ddy", MinArgs: 1, MaxArgs: 1, GLSL: "dFdy", Metal: "dfdy", Fragment: true},
	{Name: "degrees", MinArgs: 1, MaxArgs: 1},
	{Name: "determinant", MinArgs: 1, MaxArgs: 1, Return: ReturnScalar},
	{Name: "distance", MinArgs: 2, MaxArgs: 2, Return: ReturnScalar},
	{Name: "dot", MinArgs: 2, MaxArgs: 2, Return: ReturnScalar},
	{Name: "exp", MinArgs: 1, MaxArgs: 1},
	{Name: "exp2", MinArgs: 1, MaxArgs: 1},
	{Name: "faceforward", MinArgs: 3, MaxArgs: 3},
	{Name: "floor", MinArgs: 1, MaxArgs: 1},
	{Name: "fmod", MinArgs: 2, MaxArgs: 2, GLSL: "mod"},
	{Name: "frac", MinArgs: 1, MaxArgs: 1, GLSL: "fract", Metal: "fract"},
	{Name: "length", MinArgs: 1, MaxArgs: 1, Return: ReturnScalar},
	{Name: "lerp", MinArgs: 3, MaxArgs: 3, GLSL: "mix", Metal: "mix"},
	{Name: "log", MinArgs: 1, MaxArgs: 1},
	{Name: "log2", MinArgs: 1, MaxArgs: 1},
	{Name: "max", MinArgs: 2, MaxArgs: 2, Return: ReturnWidest},
	{Name: "min", MinArgs: 2, MaxArgs: 2, Return: ReturnWidest},
	{Name: "mul", MinArgs: 2, MaxArgs: 2, Return: ReturnMul, Form: FormMul},
	{Name: "normalize", MinArgs: 1, MaxArgs: 1},
	{Name: "pow", MinArgs: 2, MaxArgs: 2},
	{Name: "radians", MinArgs: 1, MaxArgs: 1},
	{Name: "reflect", MinArgs: 2, MaxArgs: 2},
	{Name: "refract", MinArgs: 3, MaxArgs: 3},
	{Name: "round", MinArgs: 1, MaxArgs: 1},
	{Name: "rsqrt", MinArgs: 1, MaxArgs: 1, GLSL: "inversesqrt"},
	{Name: "saturate", MinArgs: 1, MaxArgs: 1, Form: FormSaturate},
	{Name: "sign", MinArgs: 1, MaxArgs: 1},
	{Name: "sin", MinArgs: 1, MaxArgs: 1},
	{Name: "sinh", MinArgs: 1, MaxArgs: 1},
	{Name: "smoothstep", MinArgs: 3, MaxArgs: 3, Return: ReturnWidest},
	{Name: "sqrt", MinArgs: 1, MaxArgs: 1},
	{Name: "step", MinArgs: 2, MaxArgs: 2, Return: ReturnWidest},
	{Name: "tan", MinArgs: 1, MaxArgs: 1},
	{Name: "tanh", MinArgs: 1, MaxArgs: 1},
	{Name: "transpose", MinArgs: 1, MaxArgs: 1},
	{Name: "trunc", MinArgs: 1, MaxArgs: 1},

	// Texture access
	{Name: "sample", MinArgs: 2, MaxArgs: 2, Return: ReturnFloat4, Form: FormSample},
	{Name: "sample_level", MinArgs: 3, MaxArgs: 3, Return: ReturnFloat4, Form: FormSampleLevel},
	{Name: "load", MinArgs: 2, MaxArgs: 2, Return: ReturnFloat4, Form: FormLoad},
	{Name: "store", MinArgs: 3, MaxArgs: 3, Return: ReturnVoid, Form: FormStore},
}

var byName map[string]ast.IntrinsicID

func init() {
	byName = make(map[string]ast.IntrinsicID, len(Intrinsics))
	for i := range Intrinsics {
		byName[Intrinsics[i].Name] = ast.IntrinsicID(i)
	}
}

// Lookup finds an intrinsic by source name.
func Lookup(name string) (ast.IntrinsicID, bool) {
	id, ok := byName[name]
	return id, ok
}

// Get returns the intrinsic with the given ID.
func Get(id ast.IntrinsicID) *Intrinsic {
	return &Intrinsics[id]
}

// IsIntrinsic reports whether name is reserved by an intrinsic.
func IsIntrinsic(name string) bool {
	_, ok := byName[name]
	return ok
}
