// Package pipeline drives octree construction on a compute device.
//
// The pipeline runs the following stages, each one a single kernel launch
// (or host step) that fully completes before the next one starts:
//
//	compute_morton_codes   points -> keys
//	(host)                 sort and de-duplicate keys
//	build_radix_tree       keys -> radix tree nodes
//	calculate_edge_counts  radix tree nodes -> edge counts
//	(host)                 exclusive scan of edge counts -> node offsets
//	make_oct_nodes         assemble octree nodes
//	link_leaf_nodes        attach keys to their octree nodes
package pipeline

import (
	"fmt"
	"time"

	"github.com/achilleasa/octree/brt"
	"github.com/achilleasa/octree/device"
	"github.com/achilleasa/octree/dump"
	"github.com/achilleasa/octree/log"
	"github.com/achilleasa/octree/octree"
	"github.com/achilleasa/octree/pointcloud"
	"github.com/achilleasa/octree/scan"
	"github.com/achilleasa/octree/types"
)

// The output of a pipeline run.
type Result struct {
	Tree  *octree.Tree
	Stats Stats
}

// Builder constructs octrees on a device. A Builder must not be used by
// multiple goroutines concurrently.
type Builder struct {
	logger log.Logger

	// The associated device.
	device *device.Device

	// The allocated device buffers.
	buffers *bufferSet

	// The pipeline kernels.
	kernels []*device.Kernel

	opts Options
}

// Create a new builder for the given device.
func NewBuilder(dev *device.Device, opts Options) *Builder {
	return &Builder{
		logger: log.New("pipeline"),
		device: dev,
		opts:   opts,
	}
}

// Initialize the device and load the pipeline kernels.
func (b *Builder) Init() error {
	var err error

	if b.device == nil {
		return fmt.Errorf("pipeline: invalid device handle")
	}

	err = b.opts.Validate()
	if err != nil {
		return err
	}

	// Initialize device
	err = b.device.Init(Program)
	if err != nil {
		b.Close()
		return err
	}

	// Allocate buffers
	b.buffers = newBufferSet(b.device)

	// Load all pipeline kernels
	b.kernels = make([]*device.Kernel, numKernels)

	var kType kernelType
	for kType = 0; kType < numKernels; kType++ {
		b.kernels[kType], err = b.device.Kernel(kType.String())
		if err != nil {
			b.Close()
			return err
		}
	}

	return nil
}

// Release all builder resources and shut down the device.
func (b *Builder) Close() error {
	if b.buffers != nil {
		b.buffers.Release()
		b.buffers = nil
	}

	if b.kernels != nil {
		for _, kernel := range b.kernels {
			if kernel != nil {
				kernel.Release()
			}
		}
		b.kernels = nil
	}

	// Shutdown device
	if b.device != nil {
		return b.device.Close()
	}
	return nil
}

// Build an octree for a set of points. Unless the builder options specify a
// bounding cube, the smallest cube that contains all points is used.
func (b *Builder) Build(points []types.Vec4) (*Result, error) {
	if b.buffers == nil {
		return nil, fmt.Errorf("pipeline: builder not initialized")
	}

	start := time.Now()
	stats := Stats{NumPoints: len(points)}

	minCoord, rng := b.opts.MinCoord, b.opts.Range
	if rng == 0 {
		minCoord, rng = pointcloud.BoundingCube(points)
	}

	var keys []uint32
	if len(points) > 0 {
		// Compute keys
		err := b.buffers.UploadPoints(points)
		if err != nil {
			return nil, err
		}

		var clamp uint32
		if b.opts.ClampKeys {
			clamp = 1
		}
		err = b.exec(&stats, computeMortonCodes, 0, len(points),
			b.buffers.Points,
			b.buffers.Keys,
			mortonParams{MinCoord: minCoord, Range: rng, Clamp: clamp},
		)
		if err != nil {
			return nil, err
		}

		// Sort and remove duplicates
		tick := time.Now()
		keys = make([]uint32, len(points))
		err = b.buffers.Keys.ReadData(0, 0, 0, keys)
		if err != nil {
			return nil, err
		}
		keys = SortUnique(keys)
		stats.addStage("sort_unique_keys", len(points), time.Since(tick))
		b.logger.Debugf("sorted %d keys; %d unique", len(points), len(keys))
	}

	return b.build(keys, minCoord, rng, &stats, start)
}

// Build an octree from an array of sorted unique keys that were quantized
// using the given bounding cube. The result is undefined if keys are not
// sorted or contain duplicates.
func (b *Builder) BuildFromKeys(keys []uint32, minCoord, rng float32) (*Result, error) {
	if b.buffers == nil {
		return nil, fmt.Errorf("pipeline: builder not initialized")
	}

	start := time.Now()
	stats := Stats{NumPoints: len(keys)}
	return b.build(keys, minCoord, rng, &stats, start)
}

func (b *Builder) build(keys []uint32, minCoord, rng float32, stats *Stats, start time.Time) (*Result, error) {
	var err error
	numKeys := len(keys)

	tree := &octree.Tree{
		Keys:       keys,
		InnerNodes: []brt.InnerNode{},
		EdgeCounts: []int32{},
		Offsets:    []int32{},
		Nodes:      []octree.OctNode{},
		MinCoord:   minCoord,
		Range:      rng,
	}
	if tree.Keys == nil {
		tree.Keys = []uint32{}
	}

	if numKeys > 0 {
		err = b.assemble(tree, stats)
		if err != nil {
			return nil, err
		}
	}

	stats.NumKeys = numKeys
	stats.NumInnerNodes = len(tree.InnerNodes)
	stats.NumOctNodes = len(tree.Nodes)
	stats.RootLevel = tree.RootLevel
	stats.BuildTime = time.Since(start)

	b.logger.Noticef(
		"built octree in %d ms; keys: %d, radix nodes: %d, octree nodes: %d",
		stats.BuildTime.Nanoseconds()/1e6,
		stats.NumKeys, stats.NumInnerNodes, stats.NumOctNodes,
	)

	return &Result{Tree: tree, Stats: *stats}, nil
}

// Run the radix tree and octree stages for a non-empty key array.
func (b *Builder) assemble(tree *octree.Tree, stats *Stats) error {
	var err error
	keys := tree.Keys
	numKeys := len(keys)
	numInner := numKeys - 1

	err = b.buffers.UploadKeys(keys)
	if err != nil {
		return err
	}

	// Radix tree
	err = b.exec(stats, buildRadixTree, 0, numInner, b.buffers.Keys, b.buffers.InnerNodes)
	if err != nil {
		return err
	}
	tree.InnerNodes = make([]brt.InnerNode, numInner)
	err = readBack(b.buffers.InnerNodes, tree.InnerNodes)
	if err != nil {
		return err
	}

	if b.opts.DumpDir != "" {
		err = b.dump(keys, tree.InnerNodes)
		if err != nil {
			return err
		}
	}

	// Edge counts; the root count is always written even for a single key
	err = b.exec(stats, calculateEdgeCounts, 0, max(numInner, 1), b.buffers.InnerNodes, b.buffers.EdgeCounts)
	if err != nil {
		return err
	}

	// Node offsets
	tick := time.Now()
	total := scan.Exclusive(
		device.View[int32](b.buffers.EdgeCounts),
		device.View[int32](b.buffers.Offsets),
		b.opts.scanWorkers(),
	)
	stats.addStage("exclusive_scan", numKeys, time.Since(tick))

	// Octree nodes
	err = b.buffers.AllocateOctNodes(int(total))
	if err != nil {
		return err
	}
	tree.RootLevel = octree.RootLevel(tree.InnerNodes)
	octree.SeedRoot(device.View[octree.OctNode](b.buffers.OctNodes), keys, tree.InnerNodes, tree.MinCoord, tree.Range)

	err = b.exec(stats, makeOctNodes, 1, max(numInner-1, 0),
		b.buffers.OctNodes,
		b.buffers.Offsets,
		b.buffers.EdgeCounts,
		b.buffers.Keys,
		b.buffers.InnerNodes,
		octNodeParams{MinCoord: tree.MinCoord, Range: tree.Range, RootLevel: int32(tree.RootLevel)},
	)
	if err != nil {
		return err
	}

	err = b.exec(stats, linkLeafNodes, 0, numInner,
		b.buffers.OctNodes,
		b.buffers.Offsets,
		b.buffers.EdgeCounts,
		b.buffers.Keys,
		b.buffers.InnerNodes,
	)
	if err != nil {
		return err
	}

	// Fetch results
	tree.EdgeCounts = make([]int32, numKeys)
	tree.Offsets = make([]int32, numKeys)
	tree.Nodes = make([]octree.OctNode, total)
	for buf, dst := range map[*device.Buffer]interface{}{
		b.buffers.EdgeCounts: tree.EdgeCounts,
		b.buffers.Offsets:    tree.Offsets,
		b.buffers.OctNodes:   tree.Nodes,
	} {
		err = readBack(buf, dst)
		if err != nil {
			return err
		}
	}

	return nil
}

// Bind args and execute a kernel over work items [offset, offset+count).
func (b *Builder) exec(stats *Stats, kType kernelType, offset, count int, args ...interface{}) error {
	kernel := b.kernels[kType]
	err := kernel.SetArgs(args...)
	if err != nil {
		return err
	}

	elapsed, err := kernel.Exec1D(offset, count, b.opts.LocalWorkSize)
	if err != nil {
		return err
	}

	stats.addStage(kType.String(), count, elapsed)
	b.logger.Debugf("%s: %d work items in %s", kType, count, elapsed)
	return nil
}

// Persist the sorted keys and the radix tree.
func (b *Builder) dump(keys []uint32, innerNodes []brt.InnerNode) error {
	keysFile, err := dump.SaveKeys(b.opts.DumpDir, keys)
	if err != nil {
		return err
	}
	nodesFile, err := dump.SaveInnerNodes(b.opts.DumpDir, len(keys), innerNodes)
	if err != nil {
		return err
	}
	b.logger.Noticef("dumped keys to %s and radix tree to %s", keysFile, nodesFile)
	return nil
}

// Copy the leading part of a device buffer that fits dst (a slice).
func readBack(buf *device.Buffer, dst interface{}) error {
	size := dataSize(dst)
	if size == 0 {
		return nil
	}
	return buf.ReadData(0, 0, size, dst)
}

func dataSize(data interface{}) int {
	switch v := data.(type) {
	case []int32:
		return len(v) * sizeofCount
	case []brt.InnerNode:
		return len(v) * sizeofInnerNode
	case []octree.OctNode:
		return len(v) * sizeofOctNode
	}
	panic(fmt.Sprintf("pipeline: unsupported readback type %T", data))
}
