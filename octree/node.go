package octree

import (
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/achilleasa/octree/types"
)

// Per-node payload.
type Body struct {
	Mass float32
	_    [3]float32
}

// An octree node. The struct uses float4 alignment so that it can be shared
// as-is with kernels and node dumps (80 bytes per node).
//
// Bit k of ChildNodeMask is set when Children[k] references another OctNode;
// bit k of ChildLeafMask is set when Children[k] holds the index of a sorted
// key. Only the low 8 bits of each mask are used; the masks are 32 bits wide
// so that they can be updated with atomic OR operations.
type OctNode struct {
	Body Body

	// The minimum corner of the node cell. The W component is unused.
	Corner   types.Vec4
	CellSize float32

	Children [8]int32

	// uint32 instead of uint8: sync/atomic has no 8-bit OR. The width is
	// part of the kernel buffer layout (offsets 68 and 72).
	ChildNodeMask uint32
	ChildLeafMask uint32
	_             uint32
}

// Register an octree node as the child in the given slot. SetChild may be
// called concurrently for different slots of the same node.
func (n *OctNode) SetChild(child int32, slot int) {
	atomic.StoreInt32(&n.Children[slot], child)
	atomic.OrUint32(&n.ChildNodeMask, 1<<slot)
}

// Register a leaf (sorted key index) as the child in the given slot. SetLeaf
// may be called concurrently for different slots of the same node.
func (n *OctNode) SetLeaf(leaf int32, slot int) {
	atomic.StoreInt32(&n.Children[slot], leaf)
	atomic.OrUint32(&n.ChildLeafMask, 1<<slot)
}

// Check whether the child slot holds an octree node.
func (n *OctNode) HasChild(slot int) bool {
	return n.ChildNodeMask&(1<<slot) != 0
}

// Check whether the child slot holds a leaf.
func (n *OctNode) HasLeaf(slot int) bool {
	return n.ChildLeafMask&(1<<slot) != 0
}

// Number of child nodes.
func (n *OctNode) NumChildren() int {
	return bits.OnesCount32(n.ChildNodeMask)
}

// Number of leaves.
func (n *OctNode) NumLeaves() int {
	return bits.OnesCount32(n.ChildLeafMask)
}

func (n OctNode) String() string {
	return fmt.Sprintf(
		"corner: (%g, %g, %g), cell size: %g, children: %v, node mask: %08b, leaf mask: %08b",
		n.Corner[0], n.Corner[1], n.Corner[2], n.CellSize, n.Children, n.ChildNodeMask, n.ChildLeafMask,
	)
}
