// Package scan implements a parallel exclusive prefix sum.
package scan

import (
	"golang.org/x/sync/errgroup"
)

// Integer is the set of element types supported by the scan.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Inputs smaller than this are always scanned sequentially.
const minBlockSize = 1 << 14

// Exclusive writes the exclusive prefix sum of in to out (out[0] = 0,
// out[k] = out[k-1] + in[k-1]) and returns the sum of all elements. The
// in and out slices may alias; out must hold at least len(in) elements.
//
// The scan runs in two passes over at most workers blocks: block sums are
// computed in parallel, carried across blocks sequentially and finally each
// block is scanned in parallel starting from its carry.
func Exclusive[T Integer](in, out []T, workers int) T {
	n := len(in)
	out = out[:n]

	numBlocks := workers
	if maxBlocks := n / minBlockSize; numBlocks > maxBlocks {
		numBlocks = maxBlocks
	}
	if numBlocks <= 1 {
		return exclusive(in, out, 0)
	}

	blockSize := (n + numBlocks - 1) / numBlocks
	blockRange := func(block int) (int, int) {
		return block * blockSize, min((block+1)*blockSize, n)
	}

	carry := make([]T, numBlocks)
	var g errgroup.Group
	for block := 0; block < numBlocks; block++ {
		g.Go(func() error {
			from, to := blockRange(block)
			var sum T
			for _, v := range in[from:to] {
				sum += v
			}
			carry[block] = sum
			return nil
		})
	}
	_ = g.Wait()

	total := exclusive(carry, carry, 0)

	for block := 0; block < numBlocks; block++ {
		g.Go(func() error {
			from, to := blockRange(block)
			exclusive(in[from:to], out[from:to], carry[block])
			return nil
		})
	}
	_ = g.Wait()

	return total
}

// Sequential exclusive scan seeded with init; returns init + sum(in).
func exclusive[T Integer](in, out []T, init T) T {
	sum := init
	for i, v := range in {
		out[i] = sum
		sum += v
	}
	return sum
}
