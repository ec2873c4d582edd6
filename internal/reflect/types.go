package reflect

// Register is the size of one constant buffer register: four 32-bit
// components.
const Register = 16

// componentSize is the size of every scalar component in a constant
// buffer; bool is widened to 32 bits.
const componentSize = 4

// TypeLayout holds the packed size of a type inside a constant buffer.
type TypeLayout struct {
	Size int

	// NewRegister is set for types that always begin a register:
	// matrices and structs.
	NewRegister bool

	// Struct holds the member layout of struct types.
	Struct *StructLayout
}

// StructLayout is the packed layout of a struct or cbuffer body.
type StructLayout struct {
	Size    int      `json:"size"`
	Members []Member `json:"members"`
}

func roundUp(n, multiple int) int {
	return (n + multiple - 1) / multiple * multiple
}

// straddles reports whether size bytes at offset cross a register boundary.
func straddles(offset, size int) bool {
	if size == 0 {
		return false
	}
	return offset/Register != (offset+size-1)/Register
}
