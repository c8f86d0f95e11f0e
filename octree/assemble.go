package octree

import (
	"math"

	"github.com/achilleasa/octree/brt"
	"github.com/achilleasa/octree/morton"
)

// RootLevel returns the octree level of the top-most shared key prefix.
func RootLevel(nodes []brt.InnerNode) int {
	if len(nodes) == 0 {
		return 0
	}
	return int(nodes[0].DeltaNode) / 3
}

// Set the corner and cell size of the node covering the level-l prefix.
func (n *OctNode) setCell(prefix uint32, level, rootLevel int, minCoord, rng float32) {
	n.Corner = morton.KeyToPoint(morton.Expand(prefix, level), minCoord, rng).Vec4(0)
	n.CellSize = rng / float32(math.Exp2(float64(level-rootLevel)))
}

// SeedRoot initializes the root octree node from the first sorted key.
func SeedRoot(octNodes []OctNode, keys []uint32, nodes []brt.InnerNode, minCoord, rng float32) {
	rootLevel := RootLevel(nodes)
	octNodes[0].setCell(morton.Truncate(keys[0], rootLevel), rootLevel, rootLevel, minCoord, rng)
}

// MakeNodes materializes the chain of octree nodes owned by radix tree node
// i and links the top of the chain to its octree parent. Chain nodes are
// allocated bottom-up starting at offsets[i]; the octree parent of the chain
// is the bottom node of the first ancestor with a non-zero edge count.
//
// MakeNodes may be invoked concurrently for all i in [1, len(nodes)).
func MakeNodes(
	i int,
	octNodes []OctNode,
	offsets, edgeCounts []int32,
	keys []uint32,
	nodes []brt.InnerNode,
	minCoord, rng float32,
	rootLevel int,
) {
	octIdx := offsets[i]
	numNew := int(edgeCounts[i])
	nodeLevel := int(nodes[i].DeltaNode) / 3

	for j := 0; j < numNew-1; j++ {
		level := nodeLevel - j
		prefix := morton.Truncate(keys[i], level)
		parent := octIdx + 1

		octNodes[parent].SetChild(octIdx, int(prefix&0x7))
		octNodes[octIdx].setCell(prefix, level, rootLevel, minCoord, rng)
		octIdx = parent
	}

	if numNew > 0 {
		ancestor := firstNonEmptyAncestor(int(nodes[i].Parent), edgeCounts, nodes)
		topLevel := nodeLevel - numNew + 1
		prefix := morton.Truncate(keys[i], topLevel)

		octNodes[offsets[ancestor]].SetChild(octIdx, int(prefix&0x7))
		octNodes[octIdx].setCell(prefix, topLevel, rootLevel, minCoord, rng)
	}
}

// LinkLeaves attaches the leaf children of radix tree node i to the bottom
// octree node that covers them. The leaf slot is selected by the key prefix
// one level below node i.
//
// LinkLeaves may be invoked concurrently for all i in [0, len(nodes)).
func LinkLeaves(
	i int,
	octNodes []OctNode,
	offsets, edgeCounts []int32,
	keys []uint32,
	nodes []brt.InnerNode,
) {
	node := &nodes[i]
	leafLevel := int(node.DeltaNode)/3 + 1
	for _, child := range [2]brt.Child{node.LeftChild(), node.RightChild()} {
		if !child.Leaf {
			continue
		}

		owner := firstNonEmptyAncestor(i, edgeCounts, nodes)
		slot := morton.ChildSlot(keys[child.Index], leafLevel)
		octNodes[offsets[owner]].SetLeaf(int32(child.Index), slot)
	}
}

// Walk up the radix tree starting at (and including) node i until a node
// that owns at least one octree node is found. Broken parent links fall back
// to the root.
func firstNonEmptyAncestor(i int, edgeCounts []int32, nodes []brt.InnerNode) int {
	for steps := 0; i > 0 && i < len(nodes) && steps <= len(nodes); steps++ {
		if edgeCounts[i] != 0 {
			return i
		}
		i = int(nodes[i].Parent)
	}
	return 0
}
