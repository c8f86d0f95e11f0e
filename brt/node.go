package brt

import "fmt"

const signBit = -1 << 31

// NoParent marks the root node (or a node whose parent has not been set yet).
const NoParent int32 = -1

// An internal node of the binary radix tree. The struct layout matches the
// buffer layout used by the kernels and the node dump files (4 x int32).
//
// Left and Right hold tagged child indices: a non-negative value references
// another internal node while a value with the sign bit set references a
// leaf (the index of a sorted key).
type InnerNode struct {
	// Length (in bits) of the longest common prefix of all keys under this node.
	DeltaNode int32
	Left      int32
	Right     int32
	Parent    int32
}

// A decoded child reference.
type Child struct {
	Index uint32
	Leaf  bool
}

// Tag a key index as a leaf reference.
func MakeLeaf(index uint32) int32 {
	idx := int32(index)
	return idx ^ ((-1 ^ idx) & signBit)
}

// Tag a node index as an internal node reference.
func MakeInternal(index uint32) int32 {
	return int32(index)
}

// Check whether a tagged reference points to a leaf.
func IsLeaf(tagged int32) bool {
	return tagged < 0
}

// Strip the leaf tag from a tagged reference.
func LeafIndex(tagged int32) uint32 {
	return uint32(tagged) &^ (1 << 31)
}

// Decode a tagged reference.
func DecodeChild(tagged int32) Child {
	if IsLeaf(tagged) {
		return Child{Index: LeafIndex(tagged), Leaf: true}
	}
	return Child{Index: uint32(tagged)}
}

// Encode the child into its tagged form.
func (c Child) Tagged() int32 {
	if c.Leaf {
		return MakeLeaf(c.Index)
	}
	return MakeInternal(c.Index)
}

func (c Child) String() string {
	if c.Leaf {
		return fmt.Sprintf("leaf(%d)", c.Index)
	}
	return fmt.Sprintf("internal(%d)", c.Index)
}

// Get the decoded left child.
func (n *InnerNode) LeftChild() Child {
	return DecodeChild(n.Left)
}

// Get the decoded right child.
func (n *InnerNode) RightChild() Child {
	return DecodeChild(n.Right)
}

// Set the node children.
func (n *InnerNode) SetChildren(left, right Child) {
	n.Left = left.Tagged()
	n.Right = right.Tagged()
}

// Allocate n nodes with their parent links unset.
func NewNodes(n int) []InnerNode {
	nodes := make([]InnerNode, n)
	ResetParents(nodes)
	return nodes
}

// Set the parent link of every node to NoParent.
func ResetParents(nodes []InnerNode) {
	for i := range nodes {
		nodes[i].Parent = NoParent
	}
}
