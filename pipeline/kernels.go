package pipeline

import (
	"github.com/achilleasa/octree/brt"
	"github.com/achilleasa/octree/device"
	"github.com/achilleasa/octree/morton"
	"github.com/achilleasa/octree/octree"
	"github.com/achilleasa/octree/types"
)

// Parameters for the compute_morton_codes kernel.
type mortonParams struct {
	MinCoord float32
	Range    float32
	Clamp    uint32
}

// Parameters for the make_oct_nodes kernel.
type octNodeParams struct {
	MinCoord  float32
	Range     float32
	RootLevel int32
}

// Program contains the kernels used by the pipeline. Each kernel evaluates a
// single element of its stage.
var Program = device.Program{
	computeMortonCodes.String():  computeMortonCodesKernel,
	buildRadixTree.String():      buildRadixTreeKernel,
	calculateEdgeCounts.String(): calculateEdgeCountsKernel,
	makeOctNodes.String():        makeOctNodesKernel,
	linkLeafNodes.String():       linkLeafNodesKernel,
}

// args: points, keys, mortonParams
func computeMortonCodesKernel(args device.Args, gid int) {
	points := device.ViewArg[types.Vec4](args, 0)
	keys := device.ViewArg[uint32](args, 1)
	params := device.Param[mortonParams](args, 2)

	p := points[gid].Vec3()
	if params.Clamp != 0 {
		keys[gid] = morton.PointToKeyClamped(p, params.MinCoord, params.Range)
	} else {
		keys[gid] = morton.PointToKey(p, params.MinCoord, params.Range)
	}
}

// args: keys, inner nodes
func buildRadixTreeKernel(args device.Args, gid int) {
	brt.ProcessInnerNode(
		device.ViewArg[uint32](args, 0),
		gid,
		device.ViewArg[brt.InnerNode](args, 1),
	)
}

// args: inner nodes, edge counts
func calculateEdgeCountsKernel(args device.Args, gid int) {
	octree.EdgeCount(
		gid,
		device.ViewArg[brt.InnerNode](args, 0),
		device.ViewArg[int32](args, 1),
	)
}

// args: oct nodes, offsets, edge counts, keys, inner nodes, octNodeParams
func makeOctNodesKernel(args device.Args, gid int) {
	params := device.Param[octNodeParams](args, 5)
	octree.MakeNodes(
		gid,
		device.ViewArg[octree.OctNode](args, 0),
		device.ViewArg[int32](args, 1),
		device.ViewArg[int32](args, 2),
		device.ViewArg[uint32](args, 3),
		device.ViewArg[brt.InnerNode](args, 4),
		params.MinCoord,
		params.Range,
		int(params.RootLevel),
	)
}

// args: oct nodes, offsets, edge counts, keys, inner nodes
func linkLeafNodesKernel(args device.Args, gid int) {
	octree.LinkLeaves(
		gid,
		device.ViewArg[octree.OctNode](args, 0),
		device.ViewArg[int32](args, 1),
		device.ViewArg[int32](args, 2),
		device.ViewArg[uint32](args, 3),
		device.ViewArg[brt.InnerNode](args, 4),
	)
}
