package ast

import (
	"fmt"

	"fortio.org/safecast"
)

// NodeID indexes a node in a NodeBuffer.
type NodeID uint32

// NoNode marks an absent child.
const NoNode NodeID = ^NodeID(0)

// IsValid reports whether the ID refers to a node.
func (id NodeID) IsValid() bool { return id != NoNode }

// nodesPerPage is the number of nodes in each arena page.
const nodesPerPage = 4096

// NodeBuffer is a paged bump arena of nodes. Pages are never reallocated
// once created, so nodes keep their identity for the buffer's lifetime.
type NodeBuffer struct {
	pages [][]Node
	count int
}

// Alloc appends a node and returns its ID.
func (b *NodeBuffer) Alloc(n Node) NodeID {
	if len(b.pages) == 0 || len(b.pages[len(b.pages)-1]) == nodesPerPage {
		b.pages = append(b.pages, make([]Node, 0, nodesPerPage))
	}
	last := len(b.pages) - 1
	b.pages[last] = append(b.pages[last], n)
	id := toID[NodeID](b.count)
	b.count++
	return id
}

// Get returns the node with the given ID.
func (b *NodeBuffer) Get(id NodeID) Node {
	return b.pages[id/nodesPerPage][id%nodesPerPage]
}

// Len returns the number of allocated nodes.
func (b *NodeBuffer) Len() int {
	return b.count
}

// Pages returns the number of pages in use.
func (b *NodeBuffer) Pages() int {
	return len(b.pages)
}

// toID converts a table length into a dense ID. Tables never approach
// 2^32 entries; overflow is an internal error.
func toID[T ~uint32](n int) T {
	v, err := safecast.Convert[uint32](n)
	if err != nil || v == ^uint32(0) {
		panic(fmt.Sprintf("ast: table index %d out of range", n))
	}
	return T(v)
}
