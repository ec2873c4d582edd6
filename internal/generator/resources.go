package generator

import (
	"slices"

	"github.com/HugoDaniel/shadercross/internal/ast"
)

// resourceSet is the cbuffers and textures a function reaches, directly or
// through its callees, each sorted by ID.
type resourceSet struct {
	cbuffers []ast.StructID
	textures []ast.TextureID
}

func (r *resourceSet) addCBuffer(id ast.StructID) {
	if i, found := slices.BinarySearch(r.cbuffers, id); !found {
		r.cbuffers = slices.Insert(r.cbuffers, i, id)
	}
}

func (r *resourceSet) addTexture(id ast.TextureID) {
	if i, found := slices.BinarySearch(r.textures, id); !found {
		r.textures = slices.Insert(r.textures, i, id)
	}
}

func (r *resourceSet) merge(other *resourceSet) {
	if other == nil {
		return
	}
	for _, id := range other.cbuffers {
		r.addCBuffer(id)
	}
	for _, id := range other.textures {
		r.addTexture(id)
	}
}

// collectResources fills g.resources for every live function. Functions
// are declared before use, so walking declarations in order sees every
// callee before its callers.
func (g *Generator) collectResources() {
	g.resources = make(map[ast.FunctionID]*resourceSet)
	for _, decl := range g.prog.Decls {
		d, ok := g.prog.Nodes.Get(decl).(*ast.FunctionDeclaration)
		if !ok || !g.prog.Functions[d.Function].Seen {
			continue
		}
		set := &resourceSet{}
		g.prog.Inspect(d.Body, func(id ast.NodeID, n ast.Node) bool {
			switch n := n.(type) {
			case *ast.VariableRef:
				if owner := g.prog.Variables[n.Variable].Owner; owner != ast.NoStruct {
					set.addCBuffer(owner)
				}
			case *ast.TextureRef:
				set.addTexture(n.Texture)
			case *ast.FunctionCall:
				set.merge(g.resources[n.Function])
			}
			return true
		})
		g.resources[d.Function] = set
	}
}

// resourcesOf returns the resources function id reaches; never nil.
func (g *Generator) resourcesOf(id ast.FunctionID) *resourceSet {
	if set, ok := g.resources[id]; ok {
		return set
	}
	return &resourceSet{}
}
