// Package ast defines the syntax tree and registration tables for shader
// programs.
//
// The tree is stored in a paged arena (NodeBuffer) and addressed by NodeID.
// Nodes never own registration entries: they refer to types, functions,
// variables, structs, textures and swizzles by dense integer IDs into the
// tables held by Program. A node is never freed on its own; the whole arena
// goes away with its Program.
package ast

// ----------------------------------------------------------------------------
// Node Kinds
// ----------------------------------------------------------------------------

// NodeKind identifies the variant of a Node.
type NodeKind uint8

const (
	// Statements
	NodeBlock NodeKind = iota
	NodeExpressionStatement
	NodeIf
	NodeWhile
	NodeDoWhile
	NodeFor
	NodeSwitch
	NodeCase
	NodeDefault
	NodeReturn
	NodeBreak
	NodeContinue
	NodeDiscard
	NodeVariableDeclaration

	// Expressions
	NodeUnary
	NodeBinary
	NodeTernary
	NodeCast
	NodeConstructor
	NodeFunctionCall
	NodeIntrinsicCall
	NodeVariable
	NodeMember
	NodeSwizzle
	NodeIndex
	NodeGroup
	NodeInteger
	NodeNumber
	NodeBoolean
	NodeTextureRef

	// Declarations
	NodeFunctionDeclaration
	NodeStruct
	NodeTexture
)

var nodeKindNames = [...]string{
	NodeBlock:               "block",
	NodeExpressionStatement: "expression statement",
	NodeIf:                  "if",
	NodeWhile:               "while",
	NodeDoWhile:             "do-while",
	NodeFor:                 "for",
	NodeSwitch:              "switch",
	NodeCase:                "case",
	NodeDefault:             "default",
	NodeReturn:              "return",
	NodeBreak:               "break",
	NodeContinue:            "continue",
	NodeDiscard:             "discard",
	NodeVariableDeclaration: "variable declaration",
	NodeUnary:               "unary",
	NodeBinary:              "binary",
	NodeTernary:             "ternary",
	NodeCast:                "cast",
	NodeConstructor:         "constructor",
	NodeFunctionCall:        "function call",
	NodeIntrinsicCall:       "intrinsic call",
	NodeVariable:            "variable",
	NodeMember:              "member",
	NodeSwizzle:             "swizzle",
	NodeIndex:               "index",
	NodeGroup:               "group",
	NodeInteger:             "integer",
	NodeNumber:              "number",
	NodeBoolean:             "boolean",
	NodeTextureRef:          "texture reference",
	NodeFunctionDeclaration: "function declaration",
	NodeStruct:              "struct",
	NodeTexture:             "texture",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "unknown"
}

// Node is implemented by every node payload.
type Node interface {
	Kind() NodeKind
}

// Expr is a node that produces a value of a known type.
type Expr interface {
	Node
	ResultType() TypeID
}

// Typed carries the result type of an expression node.
type Typed struct {
	Type TypeID
}

// ResultType returns the type the expression evaluates to.
func (t Typed) ResultType() TypeID { return t.Type }

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// Block is a braced statement list with its own lexical scope.
type Block struct {
	Statements []NodeID
}

// ExpressionStatement evaluates an expression for its side effects.
type ExpressionStatement struct {
	Expr NodeID
}

// If is a conditional. Else is NoNode when absent.
type If struct {
	Condition NodeID
	Then      NodeID
	Else      NodeID
}

// While is a pre-tested loop.
type While struct {
	Condition NodeID
	Body      NodeID
}

// DoWhile is a post-tested loop.
type DoWhile struct {
	Body      NodeID
	Condition NodeID
}

// For is a C-style loop. Any of Init, Condition and Update may be NoNode.
type For struct {
	Init      NodeID // VariableDeclaration or ExpressionStatement
	Condition NodeID
	Update    NodeID
	Body      NodeID
}

// Switch selects among Case and Default nodes.
type Switch struct {
	Value NodeID
	Cases []NodeID
}

// Case is one labelled arm of a switch.
type Case struct {
	Value NodeID
	Body  []NodeID
}

// Default is the fallback arm of a switch.
type Default struct {
	Body []NodeID
}

// Return leaves the current function. Value is NoNode for a bare return.
type Return struct {
	Value NodeID
}

type Break struct{}

type Continue struct{}

type Discard struct{}

// VariableDeclaration declares one or more locals of the same type.
// Initializers is parallel to Variables and holds NoNode where absent.
type VariableDeclaration struct {
	Variables    []VariableID
	Initializers []NodeID
}

func (*Block) Kind() NodeKind               { return NodeBlock }
func (*ExpressionStatement) Kind() NodeKind { return NodeExpressionStatement }
func (*If) Kind() NodeKind                  { return NodeIf }
func (*While) Kind() NodeKind               { return NodeWhile }
func (*DoWhile) Kind() NodeKind             { return NodeDoWhile }
func (*For) Kind() NodeKind                 { return NodeFor }
func (*Switch) Kind() NodeKind              { return NodeSwitch }
func (*Case) Kind() NodeKind                { return NodeCase }
func (*Default) Kind() NodeKind             { return NodeDefault }
func (*Return) Kind() NodeKind              { return NodeReturn }
func (*Break) Kind() NodeKind               { return NodeBreak }
func (*Continue) Kind() NodeKind            { return NodeContinue }
func (*Discard) Kind() NodeKind             { return NodeDiscard }
func (*VariableDeclaration) Kind() NodeKind { return NodeVariableDeclaration }

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// UnaryOp represents prefix and postfix operators.
type UnaryOp uint8

const (
	UnaryNeg           UnaryOp = iota // -
	UnaryPlus                         // +
	UnaryNot                          // !
	UnaryBitNot                       // ~
	UnaryPreIncrement                 // ++x
	UnaryPreDecrement                 // --x
	UnaryPostIncrement                // x++
	UnaryPostDecrement                // x--
)

var unaryOpText = [...]string{
	UnaryNeg:           "-",
	UnaryPlus:          "+",
	UnaryNot:           "!",
	UnaryBitNot:        "~",
	UnaryPreIncrement:  "++",
	UnaryPreDecrement:  "--",
	UnaryPostIncrement: "++",
	UnaryPostDecrement: "--",
}

func (op UnaryOp) String() string { return unaryOpText[op] }

// IsPostfix reports whether the operator follows its operand.
func (op UnaryOp) IsPostfix() bool {
	return op == UnaryPostIncrement || op == UnaryPostDecrement
}

// BinaryOp represents binary and assignment operators.
type BinaryOp uint8

const (
	BinaryAdd        BinaryOp = iota // +
	BinarySub                        // -
	BinaryMul                        // *
	BinaryDiv                        // /
	BinaryMod                        // %
	BinaryAnd                        // &
	BinaryOr                         // |
	BinaryXor                        // ^
	BinaryShl                        // <<
	BinaryShr                        // >>
	BinaryLogicalAnd                 // &&
	BinaryLogicalOr                  // ||
	BinaryEq                         // ==
	BinaryNe                         // !=
	BinaryLt                         // <
	BinaryLe                         // <=
	BinaryGt                         // >
	BinaryGe                         // >=
	BinaryAssign                     // =
	BinaryAddAssign                  // +=
	BinarySubAssign                  // -=
	BinaryMulAssign                  // *=
	BinaryDivAssign                  // /=
	BinaryModAssign                  // %=
	BinaryAndAssign                  // &=
	BinaryOrAssign                   // |=
	BinaryXorAssign                  // ^=
	BinaryShlAssign                  // <<=
	BinaryShrAssign                  // >>=
)

var binaryOpText = [...]string{
	BinaryAdd:        "+",
	BinarySub:        "-",
	BinaryMul:        "*",
	BinaryDiv:        "/",
	BinaryMod:        "%",
	BinaryAnd:        "&",
	BinaryOr:         "|",
	BinaryXor:        "^",
	BinaryShl:        "<<",
	BinaryShr:        ">>",
	BinaryLogicalAnd: "&&",
	BinaryLogicalOr:  "||",
	BinaryEq:         "==",
	BinaryNe:         "!=",
	BinaryLt:         "<",
	BinaryLe:         "<=",
	BinaryGt:         ">",
	BinaryGe:         ">=",
	BinaryAssign:     "=",
	BinaryAddAssign:  "+=",
	BinarySubAssign:  "-=",
	BinaryMulAssign:  "*=",
	BinaryDivAssign:  "/=",
	BinaryModAssign:  "%=",
	BinaryAndAssign:  "&=",
	BinaryOrAssign:   "|=",
	BinaryXorAssign:  "^=",
	BinaryShlAssign:  "<<=",
	BinaryShrAssign:  ">>=",
}

func (op BinaryOp) String() string { return binaryOpText[op] }

// IsAssignment reports whether the operator stores into its left operand.
func (op BinaryOp) IsAssignment() bool { return op >= BinaryAssign }

// IsComparison reports whether the operator yields a boolean.
func (op BinaryOp) IsComparison() bool {
	return op >= BinaryLogicalAnd && op <= BinaryGe
}

// Unary is a prefix or postfix operation.
type Unary struct {
	Typed
	Op      UnaryOp
	Operand NodeID
}

// Binary is a binary operation, including assignments.
type Binary struct {
	Typed
	Op    BinaryOp
	Left  NodeID
	Right NodeID
}

// Ternary is cond ? then : else.
type Ternary struct {
	Typed
	Condition NodeID
	Then      NodeID
	Else      NodeID
}

// Cast is a C-style conversion (T)x. Its result type is the target.
type Cast struct {
	Typed
	Value NodeID
}

// Constructor builds a value of a builtin vector, matrix or scalar type
// from its arguments, as in float4(a, b).
type Constructor struct {
	Typed
	Args []NodeID
}

// FunctionCall calls a user function.
type FunctionCall struct {
	Typed
	Function FunctionID
	Args     []NodeID
}

// IntrinsicCall calls a builtin function.
type IntrinsicCall struct {
	Typed
	Intrinsic IntrinsicID
	Args      []NodeID
}

// VariableRef references a local, parameter or cbuffer member.
type VariableRef struct {
	Typed
	Variable VariableID
}

// Member accesses a struct member.
type Member struct {
	Typed
	Base   NodeID
	Member VariableID
}

// SwizzleExpr selects vector components.
type SwizzleExpr struct {
	Typed
	Base    NodeID
	Swizzle SwizzleID
}

// Index subscripts an array, vector or matrix.
type Index struct {
	Typed
	Base  NodeID
	Index NodeID
}

// Group is a parenthesized expression.
type Group struct {
	Typed
	Expr NodeID
}

// Integer is an integer literal.
type Integer struct {
	Typed
	Value    uint64
	Unsigned bool
}

// Number is a floating point literal.
type Number struct {
	Typed
	Value float64
}

// Boolean is true or false.
type Boolean struct {
	Typed
	Value bool
}

// TextureRef names a texture as an intrinsic argument.
type TextureRef struct {
	Typed
	Texture TextureID
}

func (*Unary) Kind() NodeKind         { return NodeUnary }
func (*Binary) Kind() NodeKind        { return NodeBinary }
func (*Ternary) Kind() NodeKind       { return NodeTernary }
func (*Cast) Kind() NodeKind          { return NodeCast }
func (*Constructor) Kind() NodeKind   { return NodeConstructor }
func (*FunctionCall) Kind() NodeKind  { return NodeFunctionCall }
func (*IntrinsicCall) Kind() NodeKind { return NodeIntrinsicCall }
func (*VariableRef) Kind() NodeKind   { return NodeVariable }
func (*Member) Kind() NodeKind        { return NodeMember }
func (*SwizzleExpr) Kind() NodeKind   { return NodeSwizzle }
func (*Index) Kind() NodeKind         { return NodeIndex }
func (*Group) Kind() NodeKind         { return NodeGroup }
func (*Integer) Kind() NodeKind       { return NodeInteger }
func (*Number) Kind() NodeKind        { return NodeNumber }
func (*Boolean) Kind() NodeKind       { return NodeBoolean }
func (*TextureRef) Kind() NodeKind    { return NodeTextureRef }

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

// FunctionDeclaration is a function definition with its body block.
type FunctionDeclaration struct {
	Function FunctionID
	Body     NodeID
}

// StructDeclaration declares a struct or cbuffer.
type StructDeclaration struct {
	Struct StructID
}

// TextureDeclaration declares a texture binding.
type TextureDeclaration struct {
	Texture TextureID
}

func (*FunctionDeclaration) Kind() NodeKind { return NodeFunctionDeclaration }
func (*StructDeclaration) Kind() NodeKind   { return NodeStruct }
func (*TextureDeclaration) Kind() NodeKind  { return NodeTexture }
