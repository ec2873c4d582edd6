// Package validator checks stage interfaces after parsing.
//
// The parser already resolves names, types and slots. The validator checks
// what only makes sense once the whole program is known: entry point
// signatures, the semantics each I/O struct carries, and compute
// workgroup sizes.
package validator

import (
	"fmt"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/builtins"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
)

// Error is a validation failure at a source offset.
type Error struct {
	Message string
	Pos     int
	Code    diagnostic.DiagnosticCode
}

func (e *Error) Error() string { return e.Message }

// Offset returns the byte offset of the error.
func (e *Error) Offset() int { return e.Pos }

// DiagnosticCode returns the error's code.
func (e *Error) DiagnosticCode() diagnostic.DiagnosticCode { return e.Code }

// Validator walks a parsed program and records every failure it finds.
type Validator struct {
	prog *ast.Program
	errs []*Error
}

// Validate checks prog and returns the first failure, or nil.
func Validate(prog *ast.Program) error {
	errs := Check(prog)
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// Check returns every failure in prog, in declaration order.
func Check(prog *ast.Program) []*Error {
	v := &Validator{prog: prog}

	// Phase 1: Entry point signatures
	v.validateEntryPoints()

	// Phase 2: Struct semantics by role
	v.validateStructs()

	// Phase 3: Fragment-only intrinsics outside the fragment stage
	v.validateStageIntrinsics()

	return v.errs
}

func (v *Validator) error(pos int, code diagnostic.DiagnosticCode, format string, args ...any) {
	v.errs = append(v.errs, &Error{Message: fmt.Sprintf(format, args...), Pos: pos, Code: code})
}

// ----------------------------------------------------------------------------
// Entry Points
// ----------------------------------------------------------------------------

func (v *Validator) validateEntryPoints() {
	for _, stage := range ast.Stages {
		id := v.prog.EntryPoint(stage)
		if id == ast.NoFunction {
			continue
		}
		v.validateEntryPoint(stage, id)
	}
}

func (v *Validator) validateEntryPoint(stage ast.Stage, id ast.FunctionID) {
	fn := &v.prog.Functions[id]
	params := v.prog.Parameters(id)

	if len(params) != 1 || v.prog.StructOf(params[0].Type) == nil {
		v.error(fn.Pos, diagnostic.CodeInvalidEntryPoint,
			"%s entry point '%s' must take exactly one struct parameter", stage, fn.Name)
	} else if params[0].IsArray() {
		v.error(params[0].Pos, diagnostic.CodeInvalidEntryPoint,
			"%s entry point parameter '%s' cannot be an array", stage, params[0].Name)
	}

	returnType := &v.prog.Types[fn.Type]
	switch stage {
	case ast.StageCompute:
		if returnType.Scalar != ast.ScalarVoid {
			v.error(fn.Pos, diagnostic.CodeInvalidEntryPoint,
				"compute entry point '%s' must return void", fn.Name)
		}
		if fn.Threads == [3]uint32{} {
			v.error(fn.Pos, diagnostic.CodeInvalidEntryPoint,
				"compute entry point '%s' requires [numthreads(x, y, z)]", fn.Name)
		}
	default:
		if !returnType.IsStruct() {
			v.error(fn.Pos, diagnostic.CodeInvalidEntryPoint,
				"%s entry point '%s' must return a struct, not '%s'", stage, fn.Name, returnType.Name)
		}
	}
}

// ----------------------------------------------------------------------------
// Structs
// ----------------------------------------------------------------------------

// allowed lists the semantics each struct role accepts.
var allowed = map[ast.StructType][]ast.SemanticKind{
	ast.StructVertexInput:    {ast.SemanticPosition, ast.SemanticNormal, ast.SemanticTexcoord, ast.SemanticColor},
	ast.StructVertexOutput:   {ast.SemanticPosition, ast.SemanticNormal, ast.SemanticTexcoord, ast.SemanticColor},
	ast.StructFragmentInput:  {ast.SemanticPosition, ast.SemanticNormal, ast.SemanticTexcoord, ast.SemanticColor},
	ast.StructFragmentOutput: {ast.SemanticColor, ast.SemanticDepth},
	ast.StructComputeInput:   {ast.SemanticThreadID, ast.SemanticGroupID, ast.SemanticLocalID},
}

func (v *Validator) validateStructs() {
	for i := range v.prog.Structs {
		s := &v.prog.Structs[i]
		switch s.StructType {
		case ast.StructPlain, ast.StructCBuffer:
			v.validatePlainStruct(s)
		default:
			v.validateIOStruct(s)
		}
	}
}

func (v *Validator) validatePlainStruct(s *ast.Struct) {
	for _, member := range v.prog.Members(s.Type) {
		if member.Semantic.Kind != ast.SemanticNone {
			v.error(member.Pos, diagnostic.CodeInvalidShaderIO,
				"semantic %s on member '%s' of %s '%s' which is not a stage input or output",
				member.Semantic, member.Name, s.StructType, v.prog.Types[s.Type].Name)
		}
	}
}

func (v *Validator) validateIOStruct(s *ast.Struct) {
	name := v.prog.Types[s.Type].Name
	seen := make(map[ast.Semantic]bool)
	hasPosition := false

	for _, member := range v.prog.Members(s.Type) {
		sem := member.Semantic
		if sem.Kind == ast.SemanticNone {
			v.error(member.Pos, diagnostic.CodeInvalidShaderIO,
				"member '%s' of %s '%s' needs a semantic", member.Name, s.StructType, name)
			continue
		}
		if !permits(s.StructType, sem.Kind) {
			v.error(member.Pos, diagnostic.CodeInvalidShaderIO,
				"semantic %s is not valid in %s '%s'", sem, s.StructType, name)
			continue
		}
		if seen[sem] {
			v.error(member.Pos, diagnostic.CodeInvalidShaderIO,
				"semantic %s appears twice in '%s'", sem, name)
		}
		seen[sem] = true

		if member.IsArray() {
			v.error(member.Pos, diagnostic.CodeInvalidShaderIO,
				"%s member '%s' cannot be an array", s.StructType, member.Name)
		}
		if v.prog.Types[member.Type].IsStruct() {
			v.error(member.Pos, diagnostic.CodeInvalidShaderIO,
				"%s member '%s' cannot be a struct", s.StructType, member.Name)
		}

		v.validateSemanticType(s, &member)
		if sem.Kind == ast.SemanticPosition {
			hasPosition = true
		}
	}

	if s.StructType == ast.StructVertexOutput && !hasPosition {
		v.error(s.Pos, diagnostic.CodeInvalidShaderIO,
			"vertex output '%s' must have a POSITION member", name)
	}
}

// validateSemanticType checks members whose semantic fixes their type.
func (v *Validator) validateSemanticType(s *ast.Struct, member *ast.Variable) {
	t := &v.prog.Types[member.Type]
	var want string

	switch member.Semantic.Kind {
	case ast.SemanticThreadID, ast.SemanticGroupID, ast.SemanticLocalID:
		if t.Scalar != ast.ScalarUint || t.Columns != 3 || t.Rows != 0 {
			want = "uint3"
		}
	case ast.SemanticDepth:
		if !t.IsScalar() || t.Scalar != ast.ScalarFloat {
			want = "float"
		}
	case ast.SemanticPosition:
		varying := s.StructType == ast.StructVertexOutput || s.StructType == ast.StructFragmentInput || s.FragmentInput
		if varying && (t.Scalar != ast.ScalarFloat || t.Columns != 4 || t.Rows != 0) {
			want = "float4"
		}
	}

	if want != "" {
		v.error(member.Pos, diagnostic.CodeInvalidShaderIO,
			"%s member '%s' must have type %s, not '%s'", member.Semantic, member.Name, want, t.Name)
	}
}

func permits(role ast.StructType, kind ast.SemanticKind) bool {
	for _, k := range allowed[role] {
		if k == kind {
			return true
		}
	}
	return false
}

// ----------------------------------------------------------------------------
// Stage Intrinsics
// ----------------------------------------------------------------------------

// validateStageIntrinsics rejects derivative intrinsics in every function
// the vertex or compute entry point reaches.
func (v *Validator) validateStageIntrinsics() {
	for _, stage := range []ast.Stage{ast.StageVertex, ast.StageCompute} {
		entry := v.prog.EntryPoint(stage)
		if entry == ast.NoFunction {
			continue
		}
		v.checkIntrinsics(stage, entry, make(map[ast.FunctionID]bool))
	}
}

func (v *Validator) checkIntrinsics(stage ast.Stage, id ast.FunctionID, visited map[ast.FunctionID]bool) {
	if visited[id] {
		return
	}
	visited[id] = true

	fn := &v.prog.Functions[id]
	decl, ok := v.prog.Nodes.Get(fn.Node).(*ast.FunctionDeclaration)
	if !ok {
		return
	}
	v.prog.Inspect(decl.Body, func(_ ast.NodeID, n ast.Node) bool {
		switch n := n.(type) {
		case *ast.IntrinsicCall:
			if in := builtins.Get(n.Intrinsic); in.Fragment {
				v.error(fn.Pos, diagnostic.CodeInvalidEntryPoint,
					"'%s' is only available in fragment shaders, but '%s' is reached from the %s entry point",
					in.Name, fn.Name, stage)
			}
		case *ast.FunctionCall:
			v.checkIntrinsics(stage, n.Function, visited)
		}
		return true
	})
}
