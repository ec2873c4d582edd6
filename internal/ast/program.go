package ast

import (
	"strconv"
	"strings"
)

// ----------------------------------------------------------------------------
// Registration IDs
// ----------------------------------------------------------------------------

type (
	TypeID      uint32
	FunctionID  uint32
	VariableID  uint32
	StructID    uint32
	TextureID   uint32
	SwizzleID   uint32
	IntrinsicID uint16
)

// Sentinels for absent table entries.
const (
	NoType     TypeID     = ^TypeID(0)
	NoFunction FunctionID = ^FunctionID(0)
	NoVariable VariableID = ^VariableID(0)
	NoStruct   StructID   = ^StructID(0)
	NoTexture  TextureID  = ^TextureID(0)
)

// ----------------------------------------------------------------------------
// Stages
// ----------------------------------------------------------------------------

// Stage is a pipeline stage a shader may implement.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute

	StageCount = 3
)

// Stages lists every stage in emission order.
var Stages = [StageCount]Stage{StageVertex, StageFragment, StageCompute}

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// ----------------------------------------------------------------------------
// Types
// ----------------------------------------------------------------------------

// ScalarKind is the component type of a builtin type.
type ScalarKind uint8

const (
	ScalarNone ScalarKind = iota // struct types
	ScalarVoid
	ScalarBool
	ScalarInt
	ScalarUint
	ScalarFloat
)

// Type is a registered type. Builtins carry their shape; struct types
// carry their member range into Program.Variables.
type Type struct {
	Name    string
	Scalar  ScalarKind
	Columns uint8 // vector width, or matrix column count; 1 for scalars
	Rows    uint8 // matrix row count; 0 for non-matrices
	Struct  StructID

	MemberFirst VariableID
	MemberCount uint32

	Seen bool
}

// IsStruct reports whether the type is declared by a struct or cbuffer.
func (t *Type) IsStruct() bool { return t.Struct != NoStruct }

// IsScalar reports whether the type is a single builtin component.
func (t *Type) IsScalar() bool {
	return t.Scalar > ScalarVoid && t.Columns == 1 && t.Rows == 0
}

// IsVector reports whether the type is a builtin vector.
func (t *Type) IsVector() bool { return t.Columns > 1 && t.Rows == 0 }

// IsMatrix reports whether the type is a builtin matrix.
func (t *Type) IsMatrix() bool { return t.Rows > 0 }

// ----------------------------------------------------------------------------
// Functions and Variables
// ----------------------------------------------------------------------------

// FunctionType distinguishes stage entry points from ordinary functions.
type FunctionType uint8

const (
	FunctionOrdinary FunctionType = iota
	FunctionMainVertex
	FunctionMainFragment
	FunctionMainCompute
)

// EntryFunctionType returns the function type marking stage's entry point.
func EntryFunctionType(stage Stage) FunctionType {
	return FunctionType(stage) + FunctionMainVertex
}

// Function is a registered function.
type Function struct {
	Name string
	Pos  int
	Type TypeID // return type

	ParameterFirst VariableID
	ParameterCount uint32

	FunctionType FunctionType
	Threads      [3]uint32 // [numthreads] for compute entries
	Node         NodeID    // declaration node

	Seen bool
}

// SemanticKind names a stage I/O binding.
type SemanticKind uint8

const (
	SemanticNone SemanticKind = iota
	SemanticPosition
	SemanticTexcoord
	SemanticNormal
	SemanticColor
	SemanticDepth
	SemanticThreadID
	SemanticGroupID
	SemanticLocalID
)

var semanticNames = [...]string{
	SemanticNone:     "",
	SemanticPosition: "POSITION",
	SemanticTexcoord: "TEXCOORD",
	SemanticNormal:   "NORMAL",
	SemanticColor:    "COLOR",
	SemanticDepth:    "DEPTH",
	SemanticThreadID: "THREAD_ID",
	SemanticGroupID:  "GROUP_ID",
	SemanticLocalID:  "LOCAL_ID",
}

func (k SemanticKind) String() string { return semanticNames[k] }

// Indexed reports whether the semantic carries a numeric suffix.
func (k SemanticKind) Indexed() bool {
	return k == SemanticTexcoord || k == SemanticColor
}

// LookupSemantic resolves a semantic name such as TEXCOORD3.
func LookupSemantic(name string) (Semantic, bool) {
	base := strings.TrimRight(name, "0123456789")
	digits := name[len(base):]
	for kind := SemanticPosition; int(kind) < len(semanticNames); kind++ {
		if semanticNames[kind] != base {
			continue
		}
		if digits == "" {
			return Semantic{Kind: kind}, true
		}
		if !kind.Indexed() || len(digits) > 2 {
			return Semantic{}, false
		}
		index := 0
		for _, c := range digits {
			index = index*10 + int(c-'0')
		}
		return Semantic{Kind: kind, Index: uint8(index)}, true
	}
	return Semantic{}, false
}

// Semantic binds a struct member to a stage input or output.
type Semantic struct {
	Kind  SemanticKind
	Index uint8
}

func (s Semantic) String() string {
	if s.Kind.Indexed() {
		return s.Kind.String() + strconv.Itoa(int(s.Index))
	}
	return s.Kind.String()
}

// Variable is a registered local, parameter or struct member.
type Variable struct {
	Name     string
	Pos      int
	Type     TypeID
	Semantic Semantic

	ArrayLengthX uint32 // 0 when not an array
	ArrayLengthY uint32 // 0 when not a two-dimensional array

	// Owner is the cbuffer a member belongs to; cbuffer members are
	// visible as globals. NoStruct for everything else.
	Owner StructID
}

// IsArray reports whether the variable has array dimensions.
func (v *Variable) IsArray() bool { return v.ArrayLengthX > 0 }

// ----------------------------------------------------------------------------
// Structs, Textures and Swizzles
// ----------------------------------------------------------------------------

// StructType is the role a struct plays in the program.
type StructType uint8

const (
	StructPlain StructType = iota
	StructCBuffer
	StructVertexInput
	StructVertexOutput
	StructFragmentInput
	StructFragmentOutput
	StructComputeInput
)

var structTypeNames = [...]string{
	StructPlain:          "struct",
	StructCBuffer:        "cbuffer",
	StructVertexInput:    "vertex input",
	StructVertexOutput:   "vertex output",
	StructFragmentInput:  "fragment input",
	StructFragmentOutput: "fragment output",
	StructComputeInput:   "compute input",
}

func (s StructType) String() string { return structTypeNames[s] }

// Struct is a registered struct or cbuffer.
type Struct struct {
	Type       TypeID
	StructType StructType
	Slot       uint32 // cbuffer slot
	Pos        int

	// FragmentInput is set when a vertex output struct is also consumed
	// by the fragment entry point.
	FragmentInput bool
}

// TextureDimension is the shape of a texture.
type TextureDimension uint8

const (
	Texture2D TextureDimension = iota
	Texture3D
	TextureCube
)

func (d TextureDimension) String() string {
	switch d {
	case Texture2D:
		return "2d"
	case Texture3D:
		return "3d"
	case TextureCube:
		return "cube"
	default:
		return "unknown"
	}
}

// Texture is a registered texture binding.
type Texture struct {
	Name      string
	Pos       int
	Dimension TextureDimension
	Writable  bool
	Slot      uint32
	Seen      bool
}

// Swizzle is a registered component selection.
type Swizzle struct {
	Components [4]uint8
	Count      uint8
}

func (s Swizzle) String() string {
	var sb strings.Builder
	for i := uint8(0); i < s.Count; i++ {
		sb.WriteByte("xyzw"[s.Components[i]])
	}
	return sb.String()
}

// ----------------------------------------------------------------------------
// Program
// ----------------------------------------------------------------------------

// Program is a parsed shader: the node arena, the flat list of top-level
// declarations, and the registration tables.
type Program struct {
	Nodes NodeBuffer
	Decls []NodeID

	Types     []Type
	Functions []Function
	Variables []Variable
	Structs   []Struct
	Textures  []Texture
	Swizzles  []Swizzle

	MainVertex   FunctionID
	MainFragment FunctionID
	MainCompute  FunctionID
}

// NewProgram returns an empty program with no entry points.
func NewProgram() *Program {
	return &Program{
		MainVertex:   NoFunction,
		MainFragment: NoFunction,
		MainCompute:  NoFunction,
	}
}

// EntryPoint returns the function implementing stage, or NoFunction.
func (p *Program) EntryPoint(stage Stage) FunctionID {
	switch stage {
	case StageVertex:
		return p.MainVertex
	case StageFragment:
		return p.MainFragment
	case StageCompute:
		return p.MainCompute
	}
	return NoFunction
}

// RegisterType appends a type and returns its ID.
func (p *Program) RegisterType(t Type) TypeID {
	id := toID[TypeID](len(p.Types))
	p.Types = append(p.Types, t)
	return id
}

// RegisterFunction appends a function and returns its ID.
func (p *Program) RegisterFunction(f Function) FunctionID {
	id := toID[FunctionID](len(p.Functions))
	p.Functions = append(p.Functions, f)
	return id
}

// RegisterVariable appends a variable and returns its ID.
func (p *Program) RegisterVariable(v Variable) VariableID {
	id := toID[VariableID](len(p.Variables))
	p.Variables = append(p.Variables, v)
	return id
}

// RegisterStruct appends a struct and returns its ID.
func (p *Program) RegisterStruct(s Struct) StructID {
	id := toID[StructID](len(p.Structs))
	p.Structs = append(p.Structs, s)
	return id
}

// RegisterTexture appends a texture and returns its ID.
func (p *Program) RegisterTexture(t Texture) TextureID {
	id := toID[TextureID](len(p.Textures))
	p.Textures = append(p.Textures, t)
	return id
}

// RegisterSwizzle appends a swizzle and returns its ID.
func (p *Program) RegisterSwizzle(s Swizzle) SwizzleID {
	id := toID[SwizzleID](len(p.Swizzles))
	p.Swizzles = append(p.Swizzles, s)
	return id
}

// NextVariable returns the ID the next registered variable will get.
func (p *Program) NextVariable() VariableID {
	return toID[VariableID](len(p.Variables))
}

// Members returns the member variables of a struct type.
func (p *Program) Members(id TypeID) []Variable {
	t := &p.Types[id]
	return p.Variables[t.MemberFirst : uint32(t.MemberFirst)+t.MemberCount]
}

// Parameters returns the parameter variables of a function.
func (p *Program) Parameters(id FunctionID) []Variable {
	f := &p.Functions[id]
	return p.Variables[f.ParameterFirst : uint32(f.ParameterFirst)+f.ParameterCount]
}

// StructOf returns the struct record of a struct type.
func (p *Program) StructOf(id TypeID) *Struct {
	if id == NoType || !p.Types[id].IsStruct() {
		return nil
	}
	return &p.Structs[p.Types[id].Struct]
}

// TypeOf returns the result type of an expression node, or NoType.
func (p *Program) TypeOf(id NodeID) TypeID {
	if !id.IsValid() {
		return NoType
	}
	if e, ok := p.Nodes.Get(id).(Expr); ok {
		return e.ResultType()
	}
	return NoType
}

// ResetSeen clears every reachability flag.
func (p *Program) ResetSeen() {
	for i := range p.Types {
		p.Types[i].Seen = false
	}
	for i := range p.Functions {
		p.Functions[i].Seen = false
	}
	for i := range p.Textures {
		p.Textures[i].Seen = false
	}
}

// IsDeclLive reports whether a top-level declaration was reached by the
// last optimizer pass.
func (p *Program) IsDeclLive(id NodeID) bool {
	switch n := p.Nodes.Get(id).(type) {
	case *FunctionDeclaration:
		return p.Functions[n.Function].Seen
	case *StructDeclaration:
		return p.Types[p.Structs[n.Struct].Type].Seen
	case *TextureDeclaration:
		return p.Textures[n.Texture].Seen
	}
	return false
}
