package cast

import "fmt"

// nodeHeaderSize is the encoded size of a node header in bytes.
const nodeHeaderSize = 24

// Node is one element of the Cast tree. A node owns its children; the link
// back to the parent is only the parent's hash.
type Node struct {
	ID   NodeID
	Hash uint64
	Size uint32 // Encoded size as stored in the header, not validated

	Children []*Node

	ParentHash uint64
	HasParent  bool

	props []*Property
	index map[string]int
}

// NewNode creates an empty node.
func NewNode(id NodeID, hash uint64) *Node {
	return &Node{ID: id, Hash: hash}
}

// Property returns the property with the given name.
func (n *Node) Property(name string) (*Property, bool) {
	i, ok := n.index[name]
	if !ok {
		return nil, false
	}
	return n.props[i], true
}

// Properties returns all properties in the order they were first seen.
func (n *Node) Properties() []*Property {
	return n.props
}

// AddProperty attaches p unless a property with the same name already
// exists, in which case p is dropped and false is returned.
func (n *Node) AddProperty(p *Property) bool {
	if n.index == nil {
		n.index = make(map[string]int)
	}
	if _, exists := n.index[p.Name]; exists {
		return false
	}
	n.index[p.Name] = len(n.props)
	n.props = append(n.props, p)
	return true
}

// AddChild appends child and records this node as its parent.
func (n *Node) AddChild(child *Node) {
	child.ParentHash = n.Hash
	child.HasParent = true
	n.Children = append(n.Children, child)
}

// Value returns the first value of the named property.
func (n *Node) Value(name string) (Value, bool) {
	p, ok := n.Property(name)
	if !ok {
		return Value{}, false
	}
	return p.First()
}

// ChildrenOfType returns direct children with the given identifier.
func (n *Node) ChildrenOfType(id NodeID) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.ID == id {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOfType returns the first direct child with the given identifier.
func (n *Node) FirstChildOfType(id NodeID) (*Node, bool) {
	for _, c := range n.Children {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// readNode decodes a node header, its properties and, recursively, its
// children. The header's size field is recorded but never used to bound or
// skip reads.
func readNode(r *reader, parent *Node) (*Node, error) {
	start := r.pos

	id, err := r.u32()
	if err != nil {
		return nil, err
	}
	size, err := r.u32()
	if err != nil {
		return nil, err
	}
	hash, err := r.u64()
	if err != nil {
		return nil, err
	}
	propCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	childCount, err := r.u32()
	if err != nil {
		return nil, err
	}

	node := &Node{
		ID:   NodeID(id),
		Hash: hash,
		Size: size,
	}
	if parent != nil {
		node.ParentHash = parent.Hash
		node.HasParent = true
	}

	for i := uint32(0); i < propCount; i++ {
		prop, err := readProperty(r)
		if err != nil {
			return nil, fmt.Errorf("node %s at offset %d, property %d: %w", node.ID, start, i, err)
		}
		node.AddProperty(prop)
	}

	if childCount > 0 {
		node.Children = make([]*Node, 0, min(int(childCount), r.remaining()/nodeHeaderSize))
	}
	for i := uint32(0); i < childCount; i++ {
		child, err := readNode(r, node)
		if err != nil {
			return nil, fmt.Errorf("node %s child %d: %w", node.ID, i, err)
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}
