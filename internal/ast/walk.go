package ast

// Inspect visits the node id and, while visit returns true, its children in
// source order. Invalid IDs are skipped.
func (p *Program) Inspect(id NodeID, visit func(id NodeID, n Node) bool) {
	if !id.IsValid() {
		return
	}
	n := p.Nodes.Get(id)
	if !visit(id, n) {
		return
	}
	for _, child := range Children(n) {
		p.Inspect(child, visit)
	}
}

// Children returns the direct child nodes of n. Absent optional children
// are returned as NoNode.
func Children(n Node) []NodeID {
	switch n := n.(type) {
	case *Block:
		return n.Statements
	case *ExpressionStatement:
		return []NodeID{n.Expr}
	case *If:
		return []NodeID{n.Condition, n.Then, n.Else}
	case *While:
		return []NodeID{n.Condition, n.Body}
	case *DoWhile:
		return []NodeID{n.Body, n.Condition}
	case *For:
		return []NodeID{n.Init, n.Condition, n.Update, n.Body}
	case *Switch:
		return append([]NodeID{n.Value}, n.Cases...)
	case *Case:
		return append([]NodeID{n.Value}, n.Body...)
	case *Default:
		return n.Body
	case *Return:
		return []NodeID{n.Value}
	case *VariableDeclaration:
		return n.Initializers
	case *Unary:
		return []NodeID{n.Operand}
	case *Binary:
		return []NodeID{n.Left, n.Right}
	case *Ternary:
		return []NodeID{n.Condition, n.Then, n.Else}
	case *Cast:
		return []NodeID{n.Value}
	case *Constructor:
		return n.Args
	case *FunctionCall:
		return n.Args
	case *IntrinsicCall:
		return n.Args
	case *Member:
		return []NodeID{n.Base}
	case *SwizzleExpr:
		return []NodeID{n.Base}
	case *Index:
		return []NodeID{n.Base, n.Index}
	case *Group:
		return []NodeID{n.Expr}
	case *FunctionDeclaration:
		return []NodeID{n.Body}
	}
	return nil
}
