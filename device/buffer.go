package device

import (
	"fmt"
	"reflect"
	"unsafe"
)

// A block of device memory. Device memory is host-visible so kernels access
// buffer contents through typed views (see View) without copying.
//
// Buffers may only hold plain data; element types must not contain Go
// pointers, strings, slices or maps.
type Buffer struct {
	// Backing storage; uint64 words guarantee 8-byte alignment for views.
	data []uint64

	// Associated Device.
	device *Device

	// A name for identifying the buffer.
	name string

	// Allocated size.
	size int
}

// Get buffer size.
func (b *Buffer) Size() int {
	return b.size
}

// Get buffer name.
func (b *Buffer) Name() string {
	return b.name
}

// Allocate a zero-filled buffer with the given size in bytes.
func (b *Buffer) Allocate(size int) error {
	// If the buffer is already allocated release it
	b.Release()

	if size < 0 {
		return fmt.Errorf("device (%s): could not allocate buffer %s of size %d", b.device.Name, b.name, size)
	}

	b.data = make([]uint64, (size+7)/8)
	b.size = size

	return nil
}

// Allocate a buffer with enough capacity to fit the given data.
func (b *Buffer) AllocateToFitData(data interface{}) error {
	_, dataLen := getSliceData(data)
	return b.Allocate(dataLen)
}

// Allocate a buffer that is large enough to hold the given data and copy
// the data into it. The behavior of this method is undefined if a non-slice
// argument is passed.
func (b *Buffer) AllocateAndWriteData(data interface{}) error {
	err := b.AllocateToFitData(data)
	if err != nil {
		return err
	}

	return b.WriteData(data, 0)
}

// Write data to the device buffer starting at the given byte offset. The
// behavior of this method is undefined if a non-slice argument is passed.
func (b *Buffer) WriteData(data interface{}, offset int) error {
	dataPtr, dataLen := getSliceData(data)

	if offset < 0 || offset+dataLen > b.size {
		return fmt.Errorf("device (%s): insufficient buffer space (%d) in %s for copying data of length %d at offset %d", b.device.Name, b.size, b.name, dataLen, offset)
	}
	if dataLen == 0 {
		return nil
	}

	copy(b.Bytes()[offset:], unsafe.Slice((*byte)(dataPtr), dataLen))
	return nil
}

// Read data from device buffer into the supplied host buffer. The behavior of
// this method is undefined if a non-slice argument is passed.
//
// If size is <= 0 then ReadData will read the entire buffer (starting at
// srcOffset). Both src and dst offsets are specified in bytes.
func (b *Buffer) ReadData(srcOffset, dstOffset, size int, hostBuffer interface{}) error {
	if size <= 0 {
		size = b.size - srcOffset
	}

	dataPtr, dataLen := getSliceData(hostBuffer)
	if srcOffset < 0 || srcOffset+size > b.size {
		return fmt.Errorf("device (%s): could not read %d bytes at offset %d from buffer %s of size %d", b.device.Name, size, srcOffset, b.name, b.size)
	}
	if dstOffset < 0 || dstOffset+size > dataLen {
		return fmt.Errorf("device (%s): insufficient host buffer space (%d) for copying %d bytes from %s at offset %d", b.device.Name, dataLen, size, b.name, dstOffset)
	}
	if size == 0 {
		return nil
	}

	copy(unsafe.Slice((*byte)(dataPtr), dataLen)[dstOffset:], b.Bytes()[srcOffset:srcOffset+size])
	return nil
}

// Release buffer.
func (b *Buffer) Release() {
	b.data = nil
	b.size = 0
}

// Get a byte view of the buffer contents.
func (b *Buffer) Bytes() []byte {
	if b.size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.data[0])), b.size)
}

// View returns a typed view of the buffer contents. The view shares memory
// with the buffer and remains valid until the buffer is released or
// reallocated. Any trailing bytes that do not fit a whole element are not
// part of the view.
func View[T any](b *Buffer) []T {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	if b == nil || elemSize == 0 || b.size < elemSize {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b.data[0])), b.size/elemSize)
}

// Given an interface{} containing a slice return a pointer to its data and its
// length in bytes.
func getSliceData(data interface{}) (unsafe.Pointer, int) {
	reflVal := reflect.ValueOf(data)

	if reflVal.Kind() != reflect.Slice {
		panic("getSliceData: this function only supports slices")
	}

	sliceElemCount := reflVal.Len()
	if sliceElemCount == 0 {
		return nil, 0
	}

	return reflVal.UnsafePointer(),
		sliceElemCount * int(reflect.TypeOf(data).Elem().Size())
}
