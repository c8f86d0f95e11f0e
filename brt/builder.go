// Package brt builds a binary radix tree over a sorted array of unique
// morton keys.
//
// The construction follows Karras ("Maximizing parallelism in the
// construction of BVHs, octrees and k-d trees"): every internal node i can be
// computed independently of all others from the key array alone, so the
// nodes may be processed in any order and by any number of workers.
package brt

import (
	"math/bits"
	"sync/atomic"
	"time"

	"github.com/achilleasa/octree/log"
	"github.com/achilleasa/octree/morton"
)

// PrefixLen returns the length of the common prefix of keys i and j, not
// counting the unused top key bit.
func PrefixLen(keys []uint32, i, j int) int {
	return bits.LeadingZeros32(keys[i]^keys[j]) - morton.UnusedBits
}

// PrefixLenSafe behaves like PrefixLen but returns -1 when j lies outside the
// key array.
func PrefixLenSafe(keys []uint32, i, j int) int {
	if j < 0 || j >= len(keys) {
		return -1
	}
	return PrefixLen(keys, i, j)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// ProcessInnerNode computes internal node i for the sorted unique keys and
// stores it in nodes[i]. The parent link of each internal child is updated as
// a side-effect; the parent link of node i itself is never touched as it is
// owned by whichever node claims i as a child.
//
// Each index writes to a disjoint set of fields so ProcessInnerNode may be
// invoked concurrently for all i in [0, len(keys)-1) provided that nodes have
// been initialized with NewNodes/ResetParents beforehand.
func ProcessInnerNode(keys []uint32, i int, nodes []InnerNode) {
	// Range direction
	d := sign(PrefixLen(keys, i, i+1) - PrefixLenSafe(keys, i, i-1))

	// Find an upper bound for the length of the key range
	deltaMin := PrefixLenSafe(keys, i, i-d)
	iMax := 2
	for PrefixLenSafe(keys, i, i+iMax*d) > deltaMin {
		iMax <<= 2
	}

	// Binary search for the other end of the range
	l := 0
	for t := iMax / 2; t >= 1; t /= 2 {
		if PrefixLenSafe(keys, i, i+(l+t)*d) > deltaMin {
			l += t
		}
	}
	j := i + l*d

	// Binary search for the split position
	deltaNode := PrefixLenSafe(keys, i, j)
	s := 0
	t := l
	for {
		t = (t + 1) >> 1
		if PrefixLenSafe(keys, i, i+(s+t)*d) > deltaNode {
			s += t
		}
		if t <= 1 {
			break
		}
	}
	split := i + s*d + min(d, 0)

	lo, hi := min(i, j), max(i, j)
	left := Child{Index: uint32(split), Leaf: lo == split}
	right := Child{Index: uint32(split + 1), Leaf: hi == split+1}

	node := &nodes[i]
	node.DeltaNode = int32(deltaNode)
	node.SetChildren(left, right)

	if !left.Leaf {
		setParent(nodes, split, i)
	}
	if !right.Leaf {
		setParent(nodes, split+1, i)
	}
}

// Out of range targets can only be produced by unsorted input and are ignored.
func setParent(nodes []InnerNode, child, parent int) {
	if child >= 0 && child < len(nodes) {
		atomic.StoreInt32(&nodes[child].Parent, int32(parent))
	}
}

// Build the radix tree for a sorted array of unique keys. The returned slice
// contains len(keys)-1 nodes with the root at index 0. Fewer than two keys
// produce an empty tree.
//
// Unsorted or duplicate keys produce a meaningless topology; callers are
// responsible for sorting and de-duplicating their input.
func Build(keys []uint32) []InnerNode {
	if len(keys) < 2 {
		return []InnerNode{}
	}

	start := time.Now()
	nodes := NewNodes(len(keys) - 1)
	for i := range nodes {
		ProcessInnerNode(keys, i, nodes)
	}
	logger.Debugf("built radix tree with %d nodes in %d ms", len(nodes), time.Since(start).Nanoseconds()/1e6)
	return nodes
}

var logger = log.New("brt")
