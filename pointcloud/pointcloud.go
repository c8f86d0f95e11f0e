// Package pointcloud provides the input point sets for octree construction.
package pointcloud

import (
	"math/rand"

	"github.com/achilleasa/octree/types"
)

// Generate returns n points whose coordinates are drawn uniformly from
// [minCoord, maxCoord) using a deterministic seed. The W component of each
// point is zero.
func Generate(n int, seed int64, minCoord, maxCoord float32) []types.Vec4 {
	rng := rand.New(rand.NewSource(seed))
	extent := maxCoord - minCoord

	points := make([]types.Vec4, n)
	for i := range points {
		points[i] = types.XYZW(
			minCoord+rng.Float32()*extent,
			minCoord+rng.Float32()*extent,
			minCoord+rng.Float32()*extent,
			0,
		)
	}
	return points
}

// BoundingCube returns the smallest axis-aligned cube [minCoord,
// minCoord+rng) that contains all points. The range is padded by one grid
// cell so that the largest coordinate still quantizes inside the cube.
// An empty point set yields the unit cube at the origin.
func BoundingCube(points []types.Vec4) (minCoord, rng float32) {
	if len(points) == 0 {
		return 0, 1
	}

	lo := points[0].Vec3()
	hi := lo
	for _, p := range points[1:] {
		lo = types.MinVec3(lo, p.Vec3())
		hi = types.MaxVec3(hi, p.Vec3())
	}

	// The cube shares a single min coordinate across all axes
	minCoord = lo.MinComponent()
	maxCoord := hi.MaxComponent()
	rng = maxCoord - minCoord
	if rng <= 0 {
		rng = 1
	}
	return minCoord, rng * 1025 / 1024
}
