// Package device implements a data-parallel kernel executor on top of host
// goroutines.
//
// The API mirrors a compute device: buffers are allocated on the device and
// bound together with scalar parameters to named kernels which are then
// launched over a 1D index space split into work groups. Work groups are
// distributed to a bounded pool of worker goroutines. Buffers live in host
// memory so kernels and the host may access them without copying.
package device

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"
)

type DeviceType uint8

// Supported device types.
const (
	CpuDevice   DeviceType = 1 << iota
	GpuDevice              = 1 << iota
	OtherDevice            = 1 << iota
	AllDevices             = 0xFF
)

var (
	indentRegex = regexp.MustCompile("(?m)^")
)

func (dt DeviceType) String() string {
	switch dt {
	case CpuDevice:
		return "CPU"
	case GpuDevice:
		return "GPU"
	case OtherDevice:
		return "Other"
	}
	panic("device: unsupported device type")
}

// Parse a device type mask from a textual name. The host platform only
// provides CPU devices, so only "cpu" and "all" (or an empty name) are
// accepted.
func ParseDeviceType(name string) (DeviceType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return AllDevices, nil
	case "cpu":
		return CpuDevice, nil
	}
	return 0, fmt.Errorf("device: unsupported device type %q; the host platform only provides cpu devices", name)
}

// A kernel evaluates a single work item. The gid argument is the global id of
// the work item (including the global offset of the launch).
type KernelFunc func(args Args, gid int)

// A program is a collection of named kernels.
type Program map[string]KernelFunc

// A compute device backed by a pool of worker goroutines.
type Device struct {
	Name string
	Type DeviceType

	// Max number of work groups that execute concurrently.
	Workers int

	// Speed estimate in GFlops.
	Speed uint32

	// Loaded program; set when the device is initialized.
	program Program

	// The batch that is currently executing.
	mutex    sync.Mutex
	inFlight *launch
}

// Implements Stringer.
func (d *Device) String() string {
	return fmt.Sprintf(
		"Name: %s\nType: %s\nSpecs: %d workers, %d GFlops approximate speed",
		d.Name,
		d.Type.String(),
		d.Workers,
		d.Speed,
	)
}

// Initialize device and load the kernels of the given program.
func (d *Device) Init(program Program) error {
	// Already initialized
	if d.program != nil {
		return nil
	}

	if len(program) == 0 {
		return fmt.Errorf("device (%s): could not load an empty program", d.Name)
	}

	if d.Workers <= 0 {
		d.Workers = runtime.GOMAXPROCS(0)
	}

	d.program = program
	return nil
}

// Shut down the device. Close blocks until any pending launch completes and
// returns its error.
func (d *Device) Close() error {
	err := d.Finish()
	d.program = nil
	return err
}

// Load kernel by name.
func (d *Device) Kernel(name string) (*Kernel, error) {
	if d.program == nil {
		return nil, fmt.Errorf("device (%s): could not load kernel %s: %w", d.Name, name, ErrNotInitialized)
	}

	fn, exists := d.program[name]
	if !exists || fn == nil {
		return nil, fmt.Errorf("device (%s): could not load kernel %s: no such kernel", d.Name, name)
	}

	return &Kernel{
		device: d,
		fn:     fn,
		name:   name,
	}, nil
}

// Create an empty buffer.
func (d *Device) Buffer(name string) *Buffer {
	return &Buffer{
		device: d,
		name:   name,
	}
}

// Block until the in-flight launch (if any) completes. Any kernel panic is
// reported as an error.
func (d *Device) Finish() error {
	d.mutex.Lock()
	l := d.inFlight
	d.mutex.Unlock()

	if l == nil {
		return nil
	}

	err := l.wait()

	d.mutex.Lock()
	if d.inFlight == l {
		d.inFlight = nil
	}
	d.mutex.Unlock()

	return err
}

// Detect device speed by timing a short arithmetic loop on a single worker.
func (d *Device) detectSpeed() {
	const iterations = 1 << 20

	tick := time.Now()
	var acc float32 = 1
	for i := 0; i < iterations; i++ {
		acc = acc*1.0000001 + 0.5
	}
	elapsed := time.Since(tick)
	if elapsed <= 0 || acc == 0 {
		elapsed = time.Nanosecond
	}

	// 2 flops per iteration
	flopsPerWorker := float64(2*iterations) / elapsed.Seconds()
	d.Speed = uint32(flopsPerWorker * float64(d.Workers) / 1e9)
}
