// Package octree converts a binary radix tree over sorted morton keys into a
// linear octree.
//
// Construction runs in three index-parallel passes over the radix tree
// nodes: edge counting (how many octree levels each radix tree node spans),
// node allocation via an exclusive scan of the edge counts and node
// assembly. The functions in this package evaluate a single index and can be
// driven either sequentially (see Build) or by a parallel executor.
package octree

import (
	"time"

	"github.com/achilleasa/octree/brt"
	"github.com/achilleasa/octree/log"
)

var logger = log.New("octree")

// A fully assembled octree together with the intermediate arrays used to
// build it.
type Tree struct {
	// Sorted unique morton keys. Octree leaves reference keys by index.
	Keys []uint32

	// Radix tree nodes (len(Keys)-1).
	InnerNodes []brt.InnerNode

	// Per radix tree node edge counts and octree node offsets (len(Keys)).
	EdgeCounts []int32
	Offsets    []int32

	// Octree nodes; the root is stored at index 0.
	Nodes []OctNode

	// Octree level of the root node.
	RootLevel int

	// The bounding cube used for quantizing the keys.
	MinCoord float32
	Range    float32
}

// Build assembles the octree for a sorted array of unique keys on the calling
// goroutine. An empty key array yields an empty tree while a single key
// yields a tree with just the root node.
func Build(keys []uint32, minCoord, rng float32) *Tree {
	start := time.Now()

	tree := &Tree{
		Keys:       keys,
		InnerNodes: brt.Build(keys),
		MinCoord:   minCoord,
		Range:      rng,
	}
	if len(keys) == 0 {
		tree.EdgeCounts = []int32{}
		tree.Offsets = []int32{}
		tree.Nodes = []OctNode{}
		return tree
	}

	tree.EdgeCounts = EdgeCounts(tree.InnerNodes, len(keys))
	offsets, total := Offsets(tree.EdgeCounts, 1)
	tree.Offsets = offsets
	tree.RootLevel = RootLevel(tree.InnerNodes)

	tree.Nodes = make([]OctNode, total)
	SeedRoot(tree.Nodes, keys, tree.InnerNodes, minCoord, rng)
	for i := 1; i < len(tree.InnerNodes); i++ {
		MakeNodes(i, tree.Nodes, tree.Offsets, tree.EdgeCounts, keys, tree.InnerNodes, minCoord, rng, tree.RootLevel)
	}
	for i := range tree.InnerNodes {
		LinkLeaves(i, tree.Nodes, tree.Offsets, tree.EdgeCounts, keys, tree.InnerNodes)
	}

	logger.Debugf(
		"built octree in %d ms, keys: %d, radix nodes: %d, octree nodes: %d",
		time.Since(start).Nanoseconds()/1e6,
		len(keys), len(tree.InnerNodes), len(tree.Nodes),
	)
	return tree
}
