package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/octree/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	deviceFlags := []cli.Flag{
		cli.StringFlag{
			Name:   "device, d",
			Usage:  "only use devices whose names contain this value",
			EnvVar: "OCTREE_DEVICE",
		},
		cli.StringFlag{
			Name:   "device-type",
			Value:  "all",
			Usage:  "device type to use (cpu or all; the host platform only provides cpu devices)",
			EnvVar: "OCTREE_DEVICE_TYPE",
		},
	}

	pipelineFlags := []cli.Flag{
		cli.IntFlag{
			Name:   "scan-workers",
			Usage:  "number of workers for the edge count scan (0 = one per CPU)",
			EnvVar: "OCTREE_SCAN_WORKERS",
		},
		cli.IntFlag{
			Name:   "local-size",
			Usage:  "kernel work group size (0 = device default)",
			EnvVar: "OCTREE_LOCAL_SIZE",
		},
		cli.BoolFlag{
			Name:   "no-clamp",
			Usage:  "let points on the upper face of the bounding cube wrap around instead of clamping them",
			EnvVar: "OCTREE_NO_CLAMP",
		},
		cli.Float64Flag{
			Name:  "cube-min",
			Usage: "min coordinate of the bounding cube (used together with --cube-range)",
		},
		cli.Float64Flag{
			Name:  "cube-range",
			Usage: "side length of the bounding cube (0 = fit the input points)",
		},
		cli.StringFlag{
			Name:   "dump-dir",
			Usage:  "dump the sorted keys and the radix tree to this folder",
			EnvVar: "OCTREE_DUMP_DIR",
		},
	}

	pointFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "points, n",
			Value: 1 << 20,
			Usage: "number of random points to generate if no point cloud file is specified",
		},
		cli.IntFlag{
			Name:  "seed",
			Value: 114514,
			Usage: "random generator seed",
		},
		cli.Float64Flag{
			Name:  "min",
			Value: 0,
			Usage: "min coordinate of generated points",
		},
		cli.Float64Flag{
			Name:  "max",
			Value: 1024,
			Usage: "max coordinate of generated points",
		},
	}

	app := cli.NewApp()
	app.Name = "octree"
	app.Usage = "build linear octrees for point clouds from radix trees over morton keys"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:   "log-level",
			Usage:  "log level (debug, info, notice, warning, error, critical or off)",
			EnvVar: "OCTREE_LOG_LEVEL",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build an octree for a point cloud",
			Description: `
Quantize the points of a point cloud into morton keys, build a binary radix
tree over the sorted unique keys and convert it into a linear octree.

The point cloud is read from a PCD file (ascii or binary; local path or
http/https URL) if one is supplied; otherwise a random point cloud is
generated.`,
			ArgsUsage: "[cloud.pcd]",
			Flags:     concat(deviceFlags, pipelineFlags, pointFlags),
			Action:    cmd.BuildOctree,
		},
		{
			Name:  "verify",
			Usage: "compare a device build against the sequential reference builder",
			Description: `
Build an octree on the selected device and compare every intermediate array
against the output of the sequential reference builder.

Instead of a point cloud, a sorted key dump (see --dump-dir) may be supplied
using the --keys flag. A radix tree dump produced by another run can be
checked using the --nodes flag.`,
			ArgsUsage: "[cloud.pcd]",
			Flags: concat(deviceFlags, pipelineFlags, pointFlags, []cli.Flag{
				cli.StringFlag{
					Name:  "keys",
					Usage: "build from a sorted key dump instead of a point cloud",
				},
				cli.StringFlag{
					Name:  "nodes",
					Usage: "radix tree dump to compare against the reference radix tree",
				},
			}),
			Action: cmd.VerifyOctree,
		},
		{
			Name:   "list-devices",
			Usage:  "list available compute devices",
			Action: cmd.ListDevices,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func concat(flagSets ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, set := range flagSets {
		out = append(out, set...)
	}
	return out
}
