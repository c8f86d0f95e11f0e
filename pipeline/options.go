package pipeline

import (
	"fmt"
	"runtime"

	"go.uber.org/multierr"
)

// Options for tuning the octree construction pipeline.
type Options struct {
	// Number of worker goroutines used by the host-side scan. A value of 0
	// uses one worker per available CPU.
	ScanWorkers int

	// Work group size for kernel launches. A value of 0 selects the device
	// default.
	LocalWorkSize int

	// Clamp quantized coordinates to the grid instead of letting points on
	// the upper face of the bounding cube wrap around.
	ClampKeys bool

	// The bounding cube used for key quantization. If Range is 0, the cube
	// is calculated from the input points.
	MinCoord float32
	Range    float32

	// If set, sorted keys and radix tree nodes are dumped to this folder.
	DumpDir string
}

// Get the default pipeline options.
func DefaultOptions() Options {
	return Options{
		ScanWorkers: runtime.GOMAXPROCS(0),
		ClampKeys:   true,
	}
}

// Validate options.
func (o Options) Validate() error {
	var err error
	if o.ScanWorkers < 0 {
		err = multierr.Append(err, fmt.Errorf("pipeline: invalid scan worker count %d", o.ScanWorkers))
	}
	if o.LocalWorkSize < 0 {
		err = multierr.Append(err, fmt.Errorf("pipeline: invalid local work size %d", o.LocalWorkSize))
	}
	if o.Range < 0 || o.Range != o.Range {
		err = multierr.Append(err, fmt.Errorf("pipeline: invalid bounding cube range %g", o.Range))
	}
	return err
}

func (o Options) scanWorkers() int {
	if o.ScanWorkers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.ScanWorkers
}
