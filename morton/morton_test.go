package morton

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achilleasa/octree/types"
)

func TestEncodeKnownValues(t *testing.T) {
	type spec struct {
		x, y, z uint32
		expKey  uint32
	}
	specs := []spec{
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{0, 1, 0, 2},
		{0, 0, 1, 4},
		{1, 1, 1, 7},
		{2, 0, 0, 8},
		{3, 3, 3, 63},
		{1023, 1023, 1023, 1<<30 - 1},
		{1023, 0, 0, 0x9249249},
	}

	for index, s := range specs {
		assert.Equal(t, s.expKey, Encode(s.x, s.y, s.z), "spec %d", index)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	// Exhaustive over each axis while the other two sweep a coarse grid.
	for v := uint32(0); v < Resolution; v++ {
		for _, o := range []uint32{0, 1, 511, 512, 1022, 1023} {
			for _, in := range [][3]uint32{{v, o, o}, {o, v, o}, {o, o, v}, {v, v, o}} {
				x, y, z := Decode(Encode(in[0], in[1], in[2]))
				require.Equal(t, in, [3]uint32{x, y, z})
			}
		}
	}

	rng := rand.New(rand.NewSource(114514))
	for i := 0; i < 100000; i++ {
		in := [3]uint32{uint32(rng.Intn(Resolution)), uint32(rng.Intn(Resolution)), uint32(rng.Intn(Resolution))}
		x, y, z := Decode(Encode(in[0], in[1], in[2]))
		require.Equal(t, in, [3]uint32{x, y, z})
	}
}

func TestEncodeUsesThirtyBits(t *testing.T) {
	key := Encode(axisMask, axisMask, axisMask)
	assert.Zero(t, key>>30, "expected the top two key bits to be unused")
}

func TestPointToKeyAndBack(t *testing.T) {
	var minCoord, rng float32 = -10, 20
	cell := rng / Resolution

	points := []types.Vec3{
		{-10, -10, -10},
		{0, 0, 0},
		{9.99, -3.2, 4.5},
		{1.25, 7.5, -9.75},
	}

	for index, p := range points {
		key := PointToKey(p, minCoord, rng)
		corner := KeyToPoint(key, minCoord, rng)
		for axis := 0; axis < 3; axis++ {
			assert.LessOrEqual(t, corner[axis], p[axis]+1e-4, "point %d axis %d", index, axis)
			assert.Greater(t, corner[axis]+cell, p[axis]-1e-4, "point %d axis %d", index, axis)
		}
	}
}

func TestKeyToPointRequantizes(t *testing.T) {
	// A power of two range keeps every cell corner exactly representable.
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		key := Encode(uint32(rng.Intn(Resolution)), uint32(rng.Intn(Resolution)), uint32(rng.Intn(Resolution)))
		corner := KeyToPoint(key, -512, 1024)
		require.Equal(t, key, PointToKey(corner, -512, 1024))
	}
}

func TestPointToKeyUpperBoundWraps(t *testing.T) {
	var minCoord, rng float32 = 0, 1024
	upper := types.XYZ(1024, 1024, 1024)

	// The upper bound is outside the half-open cube; the 1024 grid index
	// loses its 11th bit during encoding and lands on the origin cell.
	assert.Equal(t, Encode(0, 0, 0), PointToKey(upper, minCoord, rng))
	assert.Equal(t, Encode(1023, 1023, 1023), PointToKeyClamped(upper, minCoord, rng))

	// Only the offending axis is affected.
	p := types.XYZ(3, 1024, 5)
	assert.Equal(t, Encode(3, 0, 5), PointToKey(p, minCoord, rng))
	assert.Equal(t, Encode(3, 1023, 5), PointToKeyClamped(p, minCoord, rng))
}

func TestPointToKeyClampedBelowMin(t *testing.T) {
	p := types.XYZ(-5, 2, 1e9)
	assert.Equal(t, Encode(0, 2, 1023), PointToKeyClamped(p, 0, 1024))
}

func TestClampedMatchesRawInsideCube(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		p := types.XYZ(rng.Float32()*100, rng.Float32()*100, rng.Float32()*100)
		require.Equal(t, PointToKey(p, 0, 100), PointToKeyClamped(p, 0, 100))
	}
}

func TestTruncateExpand(t *testing.T) {
	key := Encode(1023, 0, 512)

	assert.Equal(t, key>>(CodeLen-3), Truncate(key, 1))
	assert.Equal(t, key>>1, Truncate(key, 10))
	assert.Equal(t, key, Truncate(key, 11), "levels past the key width keep the whole key")
	assert.Zero(t, Truncate(key, 0))

	for level := 1; level <= 10; level++ {
		expanded := Expand(Truncate(key, level), level)
		assert.Zero(t, expanded&(1<<(CodeLen-3*level)-1), "level %d", level)
		assert.Equal(t, key&^(1<<(CodeLen-3*level)-1), expanded, "level %d", level)
	}
}

func TestChildSlot(t *testing.T) {
	key := uint32(0b101_110_011)
	assert.Equal(t, 0b011, ChildSlot(key, 11))
	assert.Equal(t, 0b001, ChildSlot(key, 10))
}
