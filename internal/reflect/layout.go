package reflect

import (
	"github.com/HugoDaniel/shadercross/internal/ast"
)

// LayoutComputer packs struct and cbuffer members with HLSL constant
// buffer rules:
//
//   - Members are laid out in declaration order in 16-byte registers.
//   - A scalar or vector never straddles a register boundary.
//   - Every array element starts a register; the last element is not
//     padded.
//   - A matrix takes one register per column and starts a register.
//   - A struct starts a register, and so does the member after it.
type LayoutComputer struct {
	prog        *ast.Program
	structCache map[ast.TypeID]*StructLayout
}

// NewLayoutComputer creates a layout computer for a program.
func NewLayoutComputer(prog *ast.Program) *LayoutComputer {
	return &LayoutComputer{
		prog:        prog,
		structCache: make(map[ast.TypeID]*StructLayout),
	}
}

// TypeLayout returns the packed size of a single (non-array) value of
// type id.
func (lc *LayoutComputer) TypeLayout(id ast.TypeID) TypeLayout {
	t := &lc.prog.Types[id]
	switch {
	case t.IsStruct():
		layout := lc.StructLayout(id)
		return TypeLayout{Size: layout.Size, NewRegister: true, Struct: layout}
	case t.IsMatrix():
		return TypeLayout{Size: Register*(int(t.Columns)-1) + componentSize*int(t.Rows), NewRegister: true}
	case t.Scalar == ast.ScalarVoid:
		return TypeLayout{}
	default:
		return TypeLayout{Size: componentSize * int(t.Columns)}
	}
}

// StructLayout packs the members of a struct or cbuffer type. The size is
// the end of the last member, not rounded to a register.
func (lc *LayoutComputer) StructLayout(id ast.TypeID) *StructLayout {
	if cached, ok := lc.structCache[id]; ok {
		return cached
	}

	layout := &StructLayout{Members: []Member{}}
	offset := 0
	for _, v := range lc.prog.Members(id) {
		member, end := lc.place(&v, offset)
		layout.Members = append(layout.Members, member)
		offset = end
	}
	layout.Size = offset

	lc.structCache[id] = layout
	return layout
}

// place positions v at the first legal offset at or after offset and
// returns the member and the offset the next member may start at.
func (lc *LayoutComputer) place(v *ast.Variable, offset int) (Member, int) {
	elem := lc.TypeLayout(v.Type)
	count := elementCount(v)

	start := offset
	size := elem.Size
	if count > 0 || elem.NewRegister || straddles(offset, elem.Size) {
		start = roundUp(offset, Register)
	}
	if count > 0 {
		size = roundUp(elem.Size, Register)*(count-1) + elem.Size
	}

	member := Member{
		Name:   v.Name,
		Type:   lc.prog.Types[v.Type].Name,
		Offset: start,
		Size:   size,
	}
	if v.IsArray() {
		member.ArrayLength = []int{int(v.ArrayLengthX)}
		if v.ArrayLengthY > 0 {
			member.ArrayLength = append(member.ArrayLength, int(v.ArrayLengthY))
		}
	}
	if elem.Struct != nil {
		member.Members = elem.Struct.Members
	}

	end := start + size
	if elem.Struct != nil {
		end = roundUp(end, Register)
	}
	return member, end
}

// elementCount returns the number of array elements in v, or 0 when v is
// not an array.
func elementCount(v *ast.Variable) int {
	if !v.IsArray() {
		return 0
	}
	n := int(v.ArrayLengthX)
	if v.ArrayLengthY > 0 {
		n *= int(v.ArrayLengthY)
	}
	return n
}
