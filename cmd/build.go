package cmd

import (
	"errors"

	"github.com/achilleasa/octree/pipeline"
	"github.com/achilleasa/octree/pointcloud"
	"github.com/achilleasa/octree/types"
	"github.com/urfave/cli"
)

// Build an octree for a generated or loaded point cloud and display the
// pipeline statistics.
func BuildOctree(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	points, err := loadPoints(ctx)
	if err != nil {
		return err
	}

	builder, err := setupBuilder(ctx)
	if err != nil {
		return err
	}
	defer builder.Close()

	res, err := builder.Build(points)
	if err != nil {
		return err
	}

	displayStats(res.Stats)
	return nil
}

// Read the point cloud from the PCD file (or URL) argument or generate a random one.
func loadPoints(ctx *cli.Context) ([]types.Vec4, error) {
	switch ctx.NArg() {
	case 0:
		n := ctx.Int("points")
		if n < 0 {
			return nil, errors.New("point count must not be negative")
		}
		logger.Infof("generating %d random points (seed %d)", n, ctx.Int("seed"))
		return pointcloud.Generate(n, int64(ctx.Int("seed")), float32(ctx.Float64("min")), float32(ctx.Float64("max"))), nil
	case 1:
		points, err := pointcloud.Load(ctx.Args().First())
		if err != nil {
			return nil, err
		}
		logger.Infof("read %d points from %s", len(points), ctx.Args().First())
		return points, nil
	}
	return nil, errors.New("expected at most one point cloud file argument")
}

func displayStats(stats pipeline.Stats) {
	logger.Noticef("octree statistics\n%s", stats.Summary())
	logger.Noticef("stage statistics\n%s", stats.Table())
}
