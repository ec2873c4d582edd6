// Package reflect extracts binding information from a parsed shader: the
// packed layout of every cbuffer, the texture bindings, the vertex input
// attributes and the entry points.
package reflect

import (
	"encoding/json"

	"github.com/HugoDaniel/shadercross/internal/ast"
)

// Result contains all reflection information for a shader.
type Result struct {
	CBuffers     []CBuffer     `json:"cbuffers"`
	Textures     []Texture     `json:"textures"`
	VertexInputs []VertexInput `json:"vertexInputs"`
	EntryPoints  []EntryPoint  `json:"entryPoints"`
}

// CBuffer describes a constant buffer binding.
type CBuffer struct {
	Name    string   `json:"name"`
	Slot    int      `json:"slot"`
	Size    int      `json:"size"` // rounded up to a whole register
	Members []Member `json:"members"`
}

// Member describes a single cbuffer or struct member. Offsets are relative
// to the enclosing struct.
type Member struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Offset      int      `json:"offset"`
	Size        int      `json:"size"`
	ArrayLength []int    `json:"arrayLength,omitempty"`
	Members     []Member `json:"members,omitempty"` // for nested structs
}

// Texture describes a texture binding.
type Texture struct {
	Name      string `json:"name"`
	Slot      int    `json:"slot"`
	Dimension string `json:"dimension"` // "2d", "3d", "cube"
	Access    string `json:"access"`    // "sampled" or "write"
}

// VertexInput describes one vertex attribute.
type VertexInput struct {
	Name     string `json:"name"`
	Location int    `json:"location"`
	Semantic string `json:"semantic"`
	Type     string `json:"type"`
}

// EntryPoint describes a shader entry point function.
type EntryPoint struct {
	Name          string `json:"name"`
	Stage         string `json:"stage"`         // "vertex", "fragment", "compute"
	WorkgroupSize []int  `json:"workgroupSize"` // null for vertex/fragment
}

// Reflect extracts reflection information from a parsed program.
func Reflect(prog *ast.Program) *Result {
	result := &Result{
		CBuffers:     []CBuffer{},
		Textures:     []Texture{},
		VertexInputs: []VertexInput{},
		EntryPoints:  []EntryPoint{},
	}
	lc := NewLayoutComputer(prog)

	for _, id := range prog.Decls {
		switch d := prog.Nodes.Get(id).(type) {
		case *ast.StructDeclaration:
			s := &prog.Structs[d.Struct]
			if s.StructType != ast.StructCBuffer {
				continue
			}
			layout := lc.StructLayout(s.Type)
			result.CBuffers = append(result.CBuffers, CBuffer{
				Name:    prog.Types[s.Type].Name,
				Slot:    int(s.Slot),
				Size:    roundUp(layout.Size, Register),
				Members: layout.Members,
			})

		case *ast.TextureDeclaration:
			tex := &prog.Textures[d.Texture]
			access := "sampled"
			if tex.Writable {
				access = "write"
			}
			result.Textures = append(result.Textures, Texture{
				Name:      tex.Name,
				Slot:      int(tex.Slot),
				Dimension: tex.Dimension.String(),
				Access:    access,
			})
		}
	}

	if prog.MainVertex != ast.NoFunction {
		result.VertexInputs = vertexInputs(prog, prog.MainVertex)
	}

	for _, stage := range ast.Stages {
		id := prog.EntryPoint(stage)
		if id == ast.NoFunction {
			continue
		}
		fn := &prog.Functions[id]
		entry := EntryPoint{Name: fn.Name, Stage: stage.String()}
		if stage == ast.StageCompute {
			entry.WorkgroupSize = []int{int(fn.Threads[0]), int(fn.Threads[1]), int(fn.Threads[2])}
		}
		result.EntryPoints = append(result.EntryPoints, entry)
	}

	return result
}

// vertexInputs lists the members of the vertex entry point's input struct
// with their attribute locations.
func vertexInputs(prog *ast.Program, entry ast.FunctionID) []VertexInput {
	inputs := []VertexInput{}
	params := prog.Parameters(entry)
	if len(params) == 0 || prog.StructOf(params[0].Type) == nil {
		return inputs
	}
	for i, member := range prog.Members(params[0].Type) {
		inputs = append(inputs, VertexInput{
			Name:     member.Name,
			Location: i,
			Semantic: member.Semantic.String(),
			Type:     prog.Types[member.Type].Name,
		})
	}
	return inputs
}

// JSON renders the result as indented JSON.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
