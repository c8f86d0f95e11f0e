package octree

import (
	"github.com/achilleasa/octree/brt"
	"github.com/achilleasa/octree/scan"
)

// EdgeCount stores in edgeCounts[i] the number of octree levels between
// radix tree node i and its parent. The root (i = 0) always gets a single
// node. Nodes without a valid parent (only possible for unsorted keys) and
// nodes that are not deeper than their parent get no octree nodes.
func EdgeCount(i int, nodes []brt.InnerNode, edgeCounts []int32) {
	if i == 0 {
		edgeCounts[0] = 1
		return
	}

	parent := nodes[i].Parent
	if parent < 0 || int(parent) >= len(nodes) {
		edgeCounts[i] = 0
		return
	}

	myDepth := nodes[i].DeltaNode / 3
	parentDepth := nodes[parent].DeltaNode / 3
	edgeCounts[i] = max(myDepth-parentDepth, 0)
}

// EdgeCounts evaluates EdgeCount for every radix tree node. The returned
// slice has one entry per key; the last entry is always zero. A single key
// yields a root-only tree.
func EdgeCounts(nodes []brt.InnerNode, numKeys int) []int32 {
	if numKeys == 0 {
		return []int32{}
	}

	edgeCounts := make([]int32, numKeys)
	edgeCounts[0] = 1
	for i := 1; i < len(nodes); i++ {
		EdgeCount(i, nodes, edgeCounts)
	}
	return edgeCounts
}

// Offsets calculates the index of the first octree node owned by each radix
// tree node and the total number of octree nodes.
func Offsets(edgeCounts []int32, workers int) ([]int32, int32) {
	offsets := make([]int32, len(edgeCounts))
	total := scan.Exclusive(edgeCounts, offsets, workers)
	return offsets, total
}
