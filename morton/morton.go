// Package morton maps points inside an axis-aligned bounding cube to 32-bit
// interleaved spatial keys (morton codes) and back.
//
// Each axis is quantized to 1024 levels (10 bits). The x, y and z bits are
// interleaved so that bit 3k holds x, bit 3k+1 holds y and bit 3k+2 holds z;
// the top two bits of the key are always zero.
package morton

import (
	"github.com/achilleasa/octree/types"
)

const (
	// Number of quantization levels per axis.
	Resolution = 1024

	// Number of key bits per axis.
	BitsPerAxis = 10

	// Number of high key bits that are excluded when computing common
	// prefix lengths between two keys.
	UnusedBits = 1

	// The key width used for octree level arithmetic. A level l prefix is
	// obtained by dropping CodeLen - 3*l low bits from a key.
	CodeLen = 32 - UnusedBits

	axisMask = Resolution - 1
)

var (
	encodeMasks = [6]uint32{0x000003ff, 0, 0x30000ff, 0x0300f00f, 0x30c30c3, 0x9249249}
	decodeMasks = [6]uint32{0, 0x000003ff, 0x30000ff, 0x0300f00f, 0x30c30c3, 0x9249249}
)

// Spread the low 10 bits of a so that bit k ends up at bit 3k.
func expandBits(a uint32) uint32 {
	x := a & encodeMasks[0]
	x = (x | x<<16) & encodeMasks[2]
	x = (x | x<<8) & encodeMasks[3]
	x = (x | x<<4) & encodeMasks[4]
	x = (x | x<<2) & encodeMasks[5]
	return x
}

// Gather every 3rd bit of a back into the low 10 bits.
func compressBits(a uint32) uint32 {
	x := a & decodeMasks[5]
	x = (x ^ x>>2) & decodeMasks[4]
	x = (x ^ x>>4) & decodeMasks[3]
	x = (x ^ x>>8) & decodeMasks[2]
	x = (x ^ x>>16) & decodeMasks[1]
	return x
}

// Encode interleaves three 10-bit grid coordinates into a key. Coordinates
// are masked to 10 bits, so a value of 1024 wraps around to 0.
func Encode(x, y, z uint32) uint32 {
	return expandBits(x) | expandBits(y)<<1 | expandBits(z)<<2
}

// Decode is the inverse of Encode.
func Decode(key uint32) (x, y, z uint32) {
	return compressBits(key), compressBits(key >> 1), compressBits(key >> 2)
}

// Map a coordinate to its (unclamped) grid index.
func quantize(v, minCoord, rng float32) uint32 {
	return uint32((v - minCoord) / rng * Resolution)
}

// PointToKey quantizes a point inside the cube [minCoord, minCoord+rng) and
// encodes it. No clamping is performed: coordinates outside the cube yield
// out-of-grid indices whose low 10 bits are interleaved as-is.
func PointToKey(p types.Vec3, minCoord, rng float32) uint32 {
	return Encode(
		quantize(p[0], minCoord, rng),
		quantize(p[1], minCoord, rng),
		quantize(p[2], minCoord, rng),
	)
}

// PointToKeyClamped behaves like PointToKey but clamps each grid index to
// [0, Resolution-1]. A point lying exactly on the upper face of the cube
// therefore maps to the last cell instead of wrapping to the first one.
func PointToKeyClamped(p types.Vec3, minCoord, rng float32) uint32 {
	var grid [3]uint32
	for axis := 0; axis < 3; axis++ {
		v := (p[axis] - minCoord) / rng * Resolution
		switch {
		case !(v >= 0): // also catches NaN
			grid[axis] = 0
		case v >= axisMask:
			grid[axis] = axisMask
		default:
			grid[axis] = uint32(v)
		}
	}
	return Encode(grid[0], grid[1], grid[2])
}

// KeyToPoint decodes a key into the minimum corner of its grid cell.
func KeyToPoint(key uint32, minCoord, rng float32) types.Vec3 {
	x, y, z := Decode(key)
	return types.XYZ(
		float32(x)/Resolution*rng+minCoord,
		float32(y)/Resolution*rng+minCoord,
		float32(z)/Resolution*rng+minCoord,
	)
}

// Number of low key bits dropped for a prefix of the given octree level.
func shiftForLevel(level int) uint {
	shift := CodeLen - 3*level
	if shift < 0 {
		return 0
	}
	return uint(shift)
}

// Truncate returns the level-l prefix of key (the key with CodeLen - 3*l low
// bits shifted off). The lowest 3 bits of the prefix select the child slot
// of the prefix cell inside its parent. Levels deeper than the key width
// return the full key.
func Truncate(key uint32, level int) uint32 {
	return key >> shiftForLevel(level)
}

// Expand is the inverse of Truncate: it shifts a level-l prefix back into
// key space, zeroing the dropped bits.
func Expand(prefix uint32, level int) uint32 {
	return prefix << shiftForLevel(level)
}

// ChildSlot returns the child slot (0-7) occupied by the level-l cell that
// contains key.
func ChildSlot(key uint32, level int) int {
	return int(Truncate(key, level) & 0x7)
}
