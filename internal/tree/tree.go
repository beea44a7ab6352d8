// Package tree implements the label tree: an arena-backed, suffix-ordered
// container keyed by reversed DNS label paths. It backs both zone storage
// and the cache.
package tree

import "github.com/corvidlabs/dnsflow/internal/wire"

// Node is one tree node. Nodes are stored in the Tree's arena by integer
// index; Parent and the values in Children are indices into that same
// arena, never pointers, so the tree has no cyclic ownership to manage.
type Node struct {
	index    int
	parent   int // -1 for the root
	children map[wire.Label]int
	records  []wire.Record
}

// Index returns the node's position in the arena.
func (n *Node) Index() int { return n.index }

// IsRoot reports whether n is the arena's root node (index 0).
func (n *Node) IsRoot() bool { return n.parent < 0 }

// Records returns the records stored at this node.
func (n *Node) Records() []wire.Record { return n.records }

// HasRecords reports whether the node holds any records.
func (n *Node) HasRecords() bool { return len(n.records) > 0 }

// HasChildren reports whether the node has any children.
func (n *Node) HasChildren() bool { return len(n.children) > 0 }

// Child returns the index of the child labeled label, if any.
func (n *Node) Child(label wire.Label) (int, bool) {
	idx, ok := n.children[label]
	return idx, ok
}

// Tree is an append-only arena of Nodes. Index 0 is always the root and
// always exists.
type Tree struct {
	nodes []*Node
}

// New returns a tree containing only the root node.
func New() *Tree {
	return &Tree{
		nodes: []*Node{{
			index:    0,
			parent:   -1,
			children: make(map[wire.Label]int),
		}},
	}
}

// Root returns the root node (index 0).
func (t *Tree) Root() *Node { return t.nodes[0] }

// NodeAt returns the node at index, or nil if index is out of range.
func (t *Tree) NodeAt(index int) *Node {
	if index < 0 || index >= len(t.nodes) {
		return nil
	}
	return t.nodes[index]
}

// walk descends from the root following name's labels root-most first,
// allocating new nodes as needed, and returns the terminal node's index.
func (t *Tree) walk(name wire.Name) int {
	current := 0
	for _, label := range name.LabelsReversed() {
		if idx, ok := t.nodes[current].children[label]; ok {
			current = idx
			continue
		}
		current = t.addChild(current, label)
	}
	return current
}

func (t *Tree) addChild(parent int, label wire.Label) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, &Node{
		index:    idx,
		parent:   parent,
		children: make(map[wire.Label]int),
	})
	t.nodes[parent].children[label] = idx
	return idx
}

// Insert appends record to the node for name, creating intermediate nodes
// as needed.
func (t *Tree) Insert(name wire.Name, record wire.Record) {
	idx := t.walk(name)
	t.nodes[idx].records = append(t.nodes[idx].records, record)
}

// InsertMany appends all of records to the node for name.
func (t *Tree) InsertMany(name wire.Name, records []wire.Record) {
	idx := t.walk(name)
	t.nodes[idx].records = append(t.nodes[idx].records, records...)
}

// FindIndex returns the arena index of name's node, or false if any label
// along the path is missing.
func (t *Tree) FindIndex(name wire.Name) (int, bool) {
	current := 0
	for _, label := range name.LabelsReversed() {
		idx, ok := t.nodes[current].children[label]
		if !ok {
			return 0, false
		}
		current = idx
	}
	return current, true
}

// FindNode returns name's node, or nil if it does not exist.
func (t *Tree) FindNode(name wire.Name) *Node {
	idx, ok := t.FindIndex(name)
	if !ok {
		return nil
	}
	return t.nodes[idx]
}
