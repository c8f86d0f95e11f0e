package pipeline

import (
	"reflect"
	"unsafe"

	"github.com/achilleasa/octree/brt"
	"github.com/achilleasa/octree/device"
	"github.com/achilleasa/octree/octree"
	"github.com/achilleasa/octree/types"
)

// Size of buffer elements in bytes.
const (
	sizeofPoint     = int(unsafe.Sizeof(types.Vec4{}))
	sizeofKey       = 4 // uint32
	sizeofInnerNode = int(unsafe.Sizeof(brt.InnerNode{}))
	sizeofCount     = 4 // int32
	sizeofOctNode   = int(unsafe.Sizeof(octree.OctNode{}))
)

type bufferSet struct {
	// Input points and their morton keys.
	Points *device.Buffer
	Keys   *device.Buffer

	// Radix tree.
	InnerNodes *device.Buffer

	// Per radix tree node edge counts and octree node offsets.
	EdgeCounts *device.Buffer
	Offsets    *device.Buffer

	// Octree nodes.
	OctNodes *device.Buffer
}

// Allocate new buffer set.
func newBufferSet(dev *device.Device) *bufferSet {
	return &bufferSet{
		Points:     dev.Buffer("points"),
		Keys:       dev.Buffer("keys"),
		InnerNodes: dev.Buffer("innerNodes"),
		EdgeCounts: dev.Buffer("edgeCounts"),
		Offsets:    dev.Buffer("offsets"),
		OctNodes:   dev.Buffer("octNodes"),
	}
}

// Release all buffers.
func (bs *bufferSet) Release() {
	reflVal := reflect.ValueOf(*bs)

	for fieldIndex := 0; fieldIndex < reflVal.NumField(); fieldIndex++ {
		reflVal.Field(fieldIndex).Interface().(*device.Buffer).Release()
	}
}

// Upload input points and allocate space for their keys.
func (bs *bufferSet) UploadPoints(points []types.Vec4) error {
	err := bs.Points.AllocateAndWriteData(points)
	if err != nil {
		return err
	}
	return bs.Keys.Allocate(len(points) * sizeofKey)
}

// Upload the sorted unique keys and allocate the radix tree and edge count
// buffers. All buffers get one slot per key; the radix tree uses one slot
// less than that.
func (bs *bufferSet) UploadKeys(keys []uint32) error {
	var err error
	numKeys := len(keys)

	err = bs.Keys.AllocateAndWriteData(keys)
	if err != nil {
		return err
	}
	err = bs.InnerNodes.Allocate(numKeys * sizeofInnerNode)
	if err != nil {
		return err
	}
	brt.ResetParents(device.View[brt.InnerNode](bs.InnerNodes))

	err = bs.EdgeCounts.Allocate(numKeys * sizeofCount)
	if err != nil {
		return err
	}
	return bs.Offsets.Allocate(numKeys * sizeofCount)
}

// Allocate space for the octree nodes.
func (bs *bufferSet) AllocateOctNodes(count int) error {
	return bs.OctNodes.Allocate(count * sizeofOctNode)
}
