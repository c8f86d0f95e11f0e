package device

import "fmt"

// Param returns kernel argument idx as a value of type T. It panics if the
// argument has a different type; inside a kernel the panic is reported as a
// launch error.
func Param[T any](args Args, idx int) T {
	v, ok := args[idx].(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("kernel arg %d: expected %T; got %T", idx, zero, args[idx]))
	}
	return v
}

// BufferArg returns kernel argument idx as a device buffer.
func BufferArg(args Args, idx int) *Buffer {
	return Param[*Buffer](args, idx)
}

// ViewArg returns a typed view of buffer argument idx.
func ViewArg[T any](args Args, idx int) []T {
	return View[T](BufferArg(args, idx))
}
