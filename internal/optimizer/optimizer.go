// Package optimizer marks the declarations a pipeline stage reaches.
//
// Marking works by:
// 1. Clearing every Seen flag in the program's tables
// 2. Marking the stage's entry function
// 3. Walking the top-level declarations backwards from the entry, visiting
//    only those already marked and marking everything they reference
// 4. Repeating the walk until no new entity gets marked
//
// Declarations must precede their uses, so the first walk already reaches
// everything; the repeat only confirms the count is stable. The generator
// then emits the declarations for which Program.IsDeclLive holds.
package optimizer

import (
	"fmt"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
)

// Stats reports how many entities a stage keeps.
type Stats struct {
	Functions int
	Types     int
	Textures  int
}

// Error is an internal optimizer failure.
type Error struct {
	Code    diagnostic.DiagnosticCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("optimizer: %s [%s]", e.Message, e.Code)
}

// OptimizeStage marks everything the stage's entry point reaches. A stage
// without an entry point leaves every flag cleared.
func OptimizeStage(prog *ast.Program, stage ast.Stage) error {
	_, err := Optimize(prog, stage)
	return err
}

// Optimize is OptimizeStage returning the counts of live entities.
func Optimize(prog *ast.Program, stage ast.Stage) (Stats, error) {
	prog.ResetSeen()

	entry := prog.EntryPoint(stage)
	if entry == ast.NoFunction {
		return Stats{}, nil
	}

	start := -1
	for i, decl := range prog.Decls {
		if decl == prog.Functions[entry].Node {
			start = i
			break
		}
	}
	if start < 0 {
		return Stats{}, &Error{Code: diagnostic.CodeInternal,
			Message: fmt.Sprintf("entry point '%s' has no declaration", prog.Functions[entry].Name)}
	}

	m := &marker{prog: prog}
	m.markFunction(entry)

	for {
		before := m.marked
		for i := start; i >= 0; i-- {
			m.visitDecl(prog.Decls[i])
			if m.err != nil {
				return Stats{}, m.err
			}
		}
		if m.marked == before {
			break
		}
	}

	return count(prog), nil
}

func count(prog *ast.Program) Stats {
	var s Stats
	for i := range prog.Functions {
		if prog.Functions[i].Seen {
			s.Functions++
		}
	}
	for i := range prog.Types {
		if prog.Types[i].Seen {
			s.Types++
		}
	}
	for i := range prog.Textures {
		if prog.Textures[i].Seen {
			s.Textures++
		}
	}
	return s
}

// marker sets Seen flags and counts every flag it sets.
type marker struct {
	prog   *ast.Program
	marked int
	err    error
}

func (m *marker) markType(id ast.TypeID) {
	if id == ast.NoType || m.prog.Types[id].Seen {
		return
	}
	m.prog.Types[id].Seen = true
	m.marked++
}

func (m *marker) markFunction(id ast.FunctionID) {
	if m.prog.Functions[id].Seen {
		return
	}
	m.prog.Functions[id].Seen = true
	m.marked++
}

func (m *marker) markTexture(id ast.TextureID) {
	if m.prog.Textures[id].Seen {
		return
	}
	m.prog.Textures[id].Seen = true
	m.marked++
}

func (m *marker) markVariable(id ast.VariableID) {
	v := &m.prog.Variables[id]
	m.markType(v.Type)
	if v.Owner != ast.NoStruct {
		m.markType(m.prog.Structs[v.Owner].Type)
	}
}

// visitDecl marks what a live declaration references. Dead declarations
// are skipped; a later walk revisits them if something marks them.
func (m *marker) visitDecl(id ast.NodeID) {
	switch d := m.prog.Nodes.Get(id).(type) {
	case *ast.FunctionDeclaration:
		fn := &m.prog.Functions[d.Function]
		if !fn.Seen {
			return
		}
		m.markType(fn.Type)
		for _, param := range m.prog.Parameters(d.Function) {
			m.markType(param.Type)
		}
		m.walk(d.Body)

	case *ast.StructDeclaration:
		s := &m.prog.Structs[d.Struct]
		if !m.prog.Types[s.Type].Seen {
			return
		}
		for _, member := range m.prog.Members(s.Type) {
			m.markType(member.Type)
		}

	case *ast.TextureDeclaration:
		// Textures reference nothing.

	default:
		m.fail(id)
	}
}

func (m *marker) walkAll(ids []ast.NodeID) {
	for _, id := range ids {
		m.walk(id)
	}
}

// walk marks everything a statement or expression references.
func (m *marker) walk(id ast.NodeID) {
	if !id.IsValid() || m.err != nil {
		return
	}

	switch n := m.prog.Nodes.Get(id).(type) {
	// Statements
	case *ast.Block:
		m.walkAll(n.Statements)
	case *ast.ExpressionStatement:
		m.walk(n.Expr)
	case *ast.If:
		m.walk(n.Condition)
		m.walk(n.Then)
		m.walk(n.Else)
	case *ast.While:
		m.walk(n.Condition)
		m.walk(n.Body)
	case *ast.DoWhile:
		m.walk(n.Body)
		m.walk(n.Condition)
	case *ast.For:
		m.walk(n.Init)
		m.walk(n.Condition)
		m.walk(n.Update)
		m.walk(n.Body)
	case *ast.Switch:
		m.walk(n.Value)
		m.walkAll(n.Cases)
	case *ast.Case:
		m.walk(n.Value)
		m.walkAll(n.Body)
	case *ast.Default:
		m.walkAll(n.Body)
	case *ast.Return:
		m.walk(n.Value)
	case *ast.Break, *ast.Continue, *ast.Discard:
	case *ast.VariableDeclaration:
		for _, v := range n.Variables {
			m.markVariable(v)
		}
		m.walkAll(n.Initializers)

	// Expressions
	case *ast.Unary:
		m.walk(n.Operand)
	case *ast.Binary:
		m.walk(n.Left)
		m.walk(n.Right)
	case *ast.Ternary:
		m.walk(n.Condition)
		m.walk(n.Then)
		m.walk(n.Else)
	case *ast.Cast:
		m.markType(n.Type)
		m.walk(n.Value)
	case *ast.Constructor:
		m.markType(n.Type)
		m.walkAll(n.Args)
	case *ast.FunctionCall:
		m.markFunction(n.Function)
		m.walkAll(n.Args)
	case *ast.IntrinsicCall:
		m.walkAll(n.Args)
	case *ast.VariableRef:
		m.markVariable(n.Variable)
	case *ast.Member:
		m.walk(n.Base)
		m.markType(n.Type)
	case *ast.SwizzleExpr:
		m.walk(n.Base)
	case *ast.Index:
		m.walk(n.Base)
		m.walk(n.Index)
	case *ast.Group:
		m.walk(n.Expr)
	case *ast.Integer, *ast.Number, *ast.Boolean:
	case *ast.TextureRef:
		m.markTexture(n.Texture)

	default:
		m.fail(id)
	}
}

func (m *marker) fail(id ast.NodeID) {
	if m.err == nil {
		m.err = &Error{Code: diagnostic.CodeInternal,
			Message: fmt.Sprintf("unhandled node kind %s", m.prog.Nodes.Get(id).Kind())}
	}
}
