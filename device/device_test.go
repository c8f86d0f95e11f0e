package device

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achilleasa/octree/types"
)

type squareParams struct {
	Count uint32
	Scale int32
}

var testProgram = Program{
	"square": func(args Args, gid int) {
		params := Param[squareParams](args, 2)
		if gid >= int(params.Count) {
			return
		}
		in := ViewArg[int32](args, 0)
		out := ViewArg[int32](args, 1)
		out[gid] = in[gid] * in[gid] * params.Scale
	},
	"fail": func(args Args, gid int) {
		if gid == int(Param[uint32](args, 0)) {
			panic("boom")
		}
	},
	"count": func(args Args, gid int) {
		counters := ViewArg[uint32](args, 0)
		atomic.AddUint32(&counters[gid%len(counters)], 1)
	},
}

func TestSelectDevices(t *testing.T) {
	devList, err := SelectDevices(CpuDevice, "CPU")
	require.NoError(t, err)
	require.Len(t, devList, 2)

	devList, err = SelectDevices(CpuDevice, "Serial")
	require.NoError(t, err)
	require.Len(t, devList, 1)
	assert.Equal(t, 1, devList[0].Workers)

	devList, err = SelectDevices(GpuDevice, "")
	require.NoError(t, err)
	assert.Empty(t, devList)
}

func TestParseDeviceType(t *testing.T) {
	specs := []struct {
		name    string
		expType DeviceType
		expErr  bool
	}{
		{"", AllDevices, false},
		{"all", AllDevices, false},
		{" CPU ", CpuDevice, false},
		{"gpu", 0, true},
		{"fpga", 0, true},
	}

	for index, spec := range specs {
		typeMask, err := ParseDeviceType(spec.name)
		if spec.expErr {
			assert.Error(t, err, "spec %d", index)
			continue
		}
		require.NoError(t, err, "spec %d", index)
		assert.Equal(t, spec.expType, typeMask, "spec %d", index)

		devList, err := SelectDevices(typeMask, "")
		require.NoError(t, err)
		assert.NotEmpty(t, devList, "spec %d: expected %q to match a host device", index, spec.name)
	}
}

func TestPlatformInfo(t *testing.T) {
	platforms, err := GetPlatformInfo()
	require.NoError(t, err)
	require.Len(t, platforms, 1)

	info := platforms[0].String()
	assert.Contains(t, info, "Device 00:")
	assert.Contains(t, info, "    Type: CPU")
}

func TestDeviceInit(t *testing.T) {
	dev := createCpuTestDevice(t)

	assert.True(t, strings.Contains(dev.Name, "CPU"), "expected device name '%s' to contain 'CPU'", dev.Name)
	assert.Equal(t, "CPU", dev.Type.String())
	assert.Positive(t, dev.Workers)

	// Re-initializing is a no-op
	require.NoError(t, dev.Init(Program{"other": func(Args, int) {}}))
	_, err := dev.Kernel("square")
	assert.NoError(t, err)

	empty := &Device{Name: "empty"}
	assert.Error(t, empty.Init(nil))
}

func TestKernelErrors(t *testing.T) {
	dev := createCpuTestDevice(t)

	_, err := dev.Kernel("foo")
	assert.Error(t, err, "expected to get an error while trying to load an unknown kernel")

	uninitialized := &Device{Name: "uninitialized"}
	_, err = uninitialized.Kernel("square")
	assert.True(t, errors.Is(err, ErrNotInitialized))

	kernel, err := dev.Kernel("square")
	require.NoError(t, err)

	err = kernel.SetArgs([]int32{1, 2})
	assert.Error(t, err, "expected slice args to be rejected")
	err = kernel.SetArgs((*Buffer)(nil))
	assert.Error(t, err, "expected nil buffers to be rejected")

	assert.Error(t, kernel.Enqueue1D(-1, 10, 0))

	kernel.Release()
	_, err = kernel.Exec1D(0, 1, 0)
	assert.True(t, errors.Is(err, ErrKernelReleased))
}

func TestKernelExec1D(t *testing.T) {
	dev := createCpuTestDevice(t)

	type spec struct {
		dataSize      int
		localWorkSize int
	}
	specs := []spec{
		{32, 0},
		{32, 1},
		{1000, 7},
		{100000, 0},
	}

	for index, s := range specs {
		kernel, err := dev.Kernel("square")
		require.NoError(t, err)

		dataIn := make([]int32, s.dataSize)
		dataOut := make([]int32, s.dataSize)
		for i := range dataIn {
			dataIn[i] = int32(i % 1000)
		}

		bufIn := dev.Buffer("in")
		require.NoError(t, bufIn.AllocateAndWriteData(dataIn))
		bufOut := dev.Buffer("out")
		require.NoError(t, bufOut.AllocateToFitData(dataOut))

		err = kernel.SetArgs(bufIn, bufOut, squareParams{Count: uint32(s.dataSize), Scale: 2})
		require.NoError(t, err)

		// Round the global size up to a multiple of the work group size
		_, err = kernel.Exec1D(0, s.dataSize+3, s.localWorkSize)
		require.NoError(t, err, "spec %d", index)

		require.NoError(t, bufOut.ReadData(0, 0, 0, dataOut))
		for i := range dataIn {
			expValue := dataIn[i] * dataIn[i] * 2
			if dataOut[i] != expValue {
				t.Fatalf("spec %d: [item %d] expected value of %d to be %d; got %d", index, i, dataIn[i], expValue, dataOut[i])
			}
		}
	}
}

func TestKernelExec1DWithOffset(t *testing.T) {
	dev := createCpuTestDevice(t)
	kernel, err := dev.Kernel("count")
	require.NoError(t, err)

	counters := dev.Buffer("counters")
	require.NoError(t, counters.Allocate(16*4))
	require.NoError(t, kernel.SetArgs(counters))

	_, err = kernel.Exec1D(4, 12, 5)
	require.NoError(t, err)

	view := View[uint32](counters)
	for i, v := range view {
		expValue := uint32(0)
		if i >= 4 {
			expValue = 1
		}
		assert.Equal(t, expValue, v, "counter %d", i)
	}
}

func TestKernelPanicIsReported(t *testing.T) {
	dev := createCpuTestDevice(t)
	kernel, err := dev.Kernel("fail")
	require.NoError(t, err)

	require.NoError(t, kernel.SetArgs(uint32(1234)))
	_, err = kernel.Exec1D(0, 5000, 64)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "work item 1234")
	assert.Contains(t, err.Error(), "boom")

	// The device remains usable
	_, err = kernel.Exec1D(0, 10, 0)
	assert.NoError(t, err)
}

func TestKernelArgTypeMismatchIsReported(t *testing.T) {
	dev := createCpuTestDevice(t)
	kernel, err := dev.Kernel("fail")
	require.NoError(t, err)

	require.NoError(t, kernel.SetArgs(float32(1)))
	_, err = kernel.Exec1D(0, 1, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel arg 0")
}

func TestLaunchInFlight(t *testing.T) {
	release := make(chan struct{})
	dev := &Device{Name: "blocking", Type: CpuDevice, Workers: 2}
	require.NoError(t, dev.Init(Program{
		"block": func(_ Args, _ int) { <-release },
	}))

	kernel, err := dev.Kernel("block")
	require.NoError(t, err)
	require.NoError(t, kernel.Enqueue1D(0, 4, 1))

	err = kernel.Enqueue1D(0, 4, 1)
	assert.True(t, errors.Is(err, ErrLaunchInFlight), "expected ErrLaunchInFlight; got %v", err)

	close(release)
	require.NoError(t, dev.Finish())
	require.NoError(t, dev.Finish())

	_, err = kernel.Exec1D(0, 4, 1)
	assert.NoError(t, err)
	assert.NoError(t, dev.Close())
}

func TestKernelVectorArgs(t *testing.T) {
	var got types.Vec4
	dev := &Device{Name: "vec", Type: CpuDevice, Workers: 1}
	require.NoError(t, dev.Init(Program{
		"vec": func(args Args, _ int) {
			got = Param[types.Vec3](args, 0).Vec4(Param[float32](args, 1))
		},
	}))

	kernel, err := dev.Kernel("vec")
	require.NoError(t, err)
	require.NoError(t, kernel.SetArgs(types.XYZ(1, 2, 3), float32(4)))
	_, err = kernel.Exec1D(0, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, types.XYZW(1, 2, 3, 4), got)
}

func TestZeroWorkItems(t *testing.T) {
	dev := createCpuTestDevice(t)
	kernel, err := dev.Kernel("fail")
	require.NoError(t, err)
	require.NoError(t, kernel.SetArgs(uint32(0)))

	_, err = kernel.Exec1D(0, 0, 0)
	assert.NoError(t, err)
}

func TestViewAlignment(t *testing.T) {
	dev := createCpuTestDevice(t)
	buf := dev.Buffer("aligned")
	require.NoError(t, buf.Allocate(13))

	view := View[uint64](buf)
	require.Len(t, view, 1)
	assert.Zero(t, uintptr(unsafe.Pointer(&view[0]))%8)
	assert.Nil(t, View[[32]byte](buf))
}

func createCpuTestDevice(t *testing.T) *Device {
	t.Helper()

	devList, err := SelectDevices(CpuDevice, "Parallel")
	require.NoError(t, err)
	require.Len(t, devList, 1)

	dev := devList[0]
	require.NoError(t, dev.Init(testProgram), "error initializing device '%s'", dev.Name)
	t.Cleanup(func() { _ = dev.Close() })
	return dev
}
