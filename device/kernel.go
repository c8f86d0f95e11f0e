package device

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/achilleasa/octree/types"
)

// Work group size used when a launch does not specify one.
const DefaultLocalWorkSize = 256

// Arguments bound to a kernel.
type Args []interface{}

// A kernel loaded from a device program.
type Kernel struct {
	device *Device
	fn     KernelFunc
	name   string
	args   Args
}

// Get the kernel name.
func (k *Kernel) Name() string {
	return k.name
}

// Free any allocated resources used by this kernel.
func (k *Kernel) Release() {
	k.fn = nil
	k.args = nil
}

// Bind arguments to the kernel. Supported argument types are device buffers,
// 32-bit scalars, vectors and fixed-layout parameter structs.
func (k *Kernel) SetArgs(args ...interface{}) error {
	for argIndex, arg := range args {
		switch arg.(type) {
		case *Buffer:
			if arg.(*Buffer) == nil {
				return fmt.Errorf("device (%s): could not set arg %d for kernel %s; nil buffer", k.device.Name, argIndex, k.name)
			}
		case int32, uint32, float32, types.Vec3, types.Vec4:
		default:
			if arg == nil || reflect.TypeOf(arg).Kind() != reflect.Struct {
				return fmt.Errorf(
					"device (%s): could not set arg %d for kernel %s; unsupported arg type: %T",
					k.device.Name,
					argIndex,
					k.name,
					arg,
				)
			}
		}
	}

	k.args = append(Args(nil), args...)
	return nil
}

// Queue a 1D launch of the kernel over work items [offset, offset +
// globalWorkSize). If localWorkSize is 0 then DefaultLocalWorkSize is used.
// Enqueue1D returns without waiting for the launch to complete; use
// Device.Finish to wait for it.
func (k *Kernel) Enqueue1D(offset, globalWorkSize, localWorkSize int) error {
	if k.fn == nil {
		return fmt.Errorf("device (%s): unable to execute kernel %s: %w", k.device.Name, k.name, ErrKernelReleased)
	}
	if offset < 0 || globalWorkSize < 0 || localWorkSize < 0 {
		return fmt.Errorf("device (%s): unable to execute kernel %s; invalid work size (offset %d, global %d, local %d)", k.device.Name, k.name, offset, globalWorkSize, localWorkSize)
	}
	if localWorkSize == 0 {
		localWorkSize = DefaultLocalWorkSize
	}

	return k.device.enqueue(k, offset, globalWorkSize, localWorkSize)
}

// Execute 1D kernel and wait for it to complete.
func (k *Kernel) Exec1D(offset, globalWorkSize, localWorkSize int) (time.Duration, error) {
	tick := time.Now()
	if err := k.Enqueue1D(offset, globalWorkSize, localWorkSize); err != nil {
		return time.Duration(0), err
	}

	if err := k.device.Finish(); err != nil {
		return time.Duration(0), err
	}

	return time.Since(tick), nil
}

// A batch of work groups that is executing on the device.
type launch struct {
	group *errgroup.Group

	// Closed once every work group has been handed to the group.
	dispatched chan struct{}
}

func (l *launch) wait() error {
	<-l.dispatched
	return l.group.Wait()
}

func (d *Device) enqueue(k *Kernel, offset, globalWorkSize, localWorkSize int) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.program == nil {
		return fmt.Errorf("device (%s): unable to execute kernel %s: %w", d.Name, k.name, ErrNotInitialized)
	}
	if d.inFlight != nil {
		return fmt.Errorf("device (%s): unable to execute kernel %s: %w", d.Name, k.name, ErrLaunchInFlight)
	}

	group, ctx := errgroup.WithContext(context.Background())
	group.SetLimit(d.Workers)

	l := &launch{
		group:      group,
		dispatched: make(chan struct{}),
	}
	d.inFlight = l

	fn, args, name := k.fn, k.args, k.name
	end := offset + globalWorkSize
	go func() {
		defer close(l.dispatched)
		for from := offset; from < end; from += localWorkSize {
			// A failed work group aborts the remaining ones
			if ctx.Err() != nil {
				return
			}

			to := min(from+localWorkSize, end)
			group.Go(func() error {
				return runWorkGroup(ctx, d.Name, name, fn, args, from, to)
			})
		}
	}()

	return nil
}

// Evaluate the work items of a single work group.
func runWorkGroup(ctx context.Context, devName, kernelName string, fn KernelFunc, args Args, from, to int) (err error) {
	if ctx.Err() != nil {
		return nil
	}

	gid := from
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("device (%s): kernel %s failed at work item %d: %v", devName, kernelName, gid, r)
		}
	}()

	for ; gid < to; gid++ {
		fn(args, gid)
	}
	return nil
}
