package cmd

import (
	"fmt"

	"github.com/achilleasa/octree/device"
	"github.com/achilleasa/octree/pipeline"
	"github.com/urfave/cli"
)

// Select the device that matches the device filter flags. If more than one
// device matches, the fastest one is used.
func selectDevice(ctx *cli.Context) (*device.Device, error) {
	typeMask, err := device.ParseDeviceType(ctx.String("device-type"))
	if err != nil {
		return nil, err
	}

	devList, err := device.SelectDevices(typeMask, ctx.String("device"))
	if err != nil {
		return nil, err
	}
	if len(devList) == 0 {
		return nil, fmt.Errorf("no device matches type %q and name %q", ctx.String("device-type"), ctx.String("device"))
	}

	selected := devList[0]
	for _, dev := range devList[1:] {
		if dev.Speed > selected.Speed {
			selected = dev
		}
	}

	logger.Infof("selected device:\n%s", selected)
	return selected, nil
}

// Map command line flags to pipeline options.
func pipelineOptions(ctx *cli.Context) pipeline.Options {
	opts := pipeline.DefaultOptions()
	if workers := ctx.Int("scan-workers"); workers != 0 {
		opts.ScanWorkers = workers
	}
	opts.LocalWorkSize = ctx.Int("local-size")
	opts.ClampKeys = !ctx.Bool("no-clamp")
	opts.MinCoord = float32(ctx.Float64("cube-min"))
	opts.Range = float32(ctx.Float64("cube-range"))
	opts.DumpDir = ctx.String("dump-dir")
	return opts
}

// Select a device and initialize a pipeline builder on it.
func setupBuilder(ctx *cli.Context) (*pipeline.Builder, error) {
	dev, err := selectDevice(ctx)
	if err != nil {
		return nil, err
	}

	builder := pipeline.NewBuilder(dev, pipelineOptions(ctx))
	if err = builder.Init(); err != nil {
		return nil, err
	}
	return builder, nil
}
