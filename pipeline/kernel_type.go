package pipeline

import "fmt"

type kernelType uint8

// The list of kernels that implement the octree builder.
const (
	computeMortonCodes kernelType = iota
	buildRadixTree
	calculateEdgeCounts
	makeOctNodes
	linkLeafNodes
	//
	numKernels
)

// Implements Stringer; map kernel type to the kernel name as registered in
// the device program.
func (kt kernelType) String() string {
	switch kt {
	case computeMortonCodes:
		return "compute_morton_codes"
	case buildRadixTree:
		return "build_radix_tree"
	case calculateEdgeCounts:
		return "calculate_edge_counts"
	case makeOctNodes:
		return "make_oct_nodes"
	case linkLeafNodes:
		return "link_leaf_nodes"
	default:
		panic(fmt.Sprintf("Unsupported kernel type: %d", kt))
	}
}
