package cmd

import (
	"fmt"
	"slices"

	"github.com/achilleasa/octree/dump"
	"github.com/achilleasa/octree/octree"
	"github.com/achilleasa/octree/pipeline"
	"github.com/achilleasa/octree/verify"
	"github.com/urfave/cli"
	"go.uber.org/multierr"
)

// Build an octree on the selected device and compare every intermediate
// array against the sequential reference builder. If a radix tree dump is
// supplied, it is compared against the reference radix tree too.
func VerifyOctree(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	builder, err := setupBuilder(ctx)
	if err != nil {
		return err
	}
	defer builder.Close()

	var res *pipeline.Result
	if keysFile := ctx.String("keys"); keysFile != "" {
		keys, err := dump.LoadKeys(keysFile)
		if err != nil {
			return err
		}
		keys = pipeline.SortUnique(keys)

		opts := pipelineOptions(ctx)
		if opts.Range == 0 {
			opts.MinCoord, opts.Range = 0, 1
		}
		res, err = builder.BuildFromKeys(keys, opts.MinCoord, opts.Range)
		if err != nil {
			return err
		}
	} else {
		points, err := loadPoints(ctx)
		if err != nil {
			return err
		}
		res, err = builder.Build(points)
		if err != nil {
			return err
		}
	}

	got := res.Tree
	ref := octree.Build(slices.Clone(got.Keys), got.MinCoord, got.Range)
	reports := verify.Trees(ref, got)

	if nodesFile := ctx.String("nodes"); nodesFile != "" {
		nodes, err := dump.LoadInnerNodes(nodesFile)
		if err != nil {
			return err
		}
		report := verify.InnerNodes(ref.InnerNodes, nodes)
		report.Name = "dumped inner nodes"
		reports = append(reports, report)
	}

	logger.Noticef("verification results\n%s", verify.Table(reports))

	for _, report := range reports {
		if !report.OK() {
			err = multierr.Append(err, fmt.Errorf("%s: %d mismatches", report.Name, report.Mismatches))
		}
	}
	return err
}
