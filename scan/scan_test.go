package scan

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusiveSmall(t *testing.T) {
	type spec struct {
		in       []int32
		expOut   []int32
		expTotal int32
	}
	specs := []spec{
		{[]int32{}, []int32{}, 0},
		{[]int32{5}, []int32{0}, 5},
		{[]int32{1, 1, 0, 0}, []int32{0, 1, 2, 2}, 2},
		{[]int32{3, 0, 2, 7, 1}, []int32{0, 3, 3, 5, 12}, 13},
	}

	for index, s := range specs {
		out := make([]int32, len(s.in))
		total := Exclusive(s.in, out, 4)
		assert.Equal(t, s.expTotal, total, "spec %d", index)
		assert.Equal(t, s.expOut, out, "spec %d", index)
	}
}

func TestExclusiveParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, n := range []int{minBlockSize, minBlockSize*2 + 1, 100003, 1 << 20} {
		in := make([]uint32, n)
		for i := range in {
			in[i] = uint32(rng.Intn(10))
		}

		expOut := make([]uint32, n)
		expTotal := exclusive(in, expOut, 0)

		for _, workers := range []int{1, 2, 3, 8, 64} {
			out := make([]uint32, n)
			total := Exclusive(in, out, workers)
			require.Equal(t, expTotal, total, "n=%d workers=%d", n, workers)
			require.Equal(t, expOut, out, "n=%d workers=%d", n, workers)
		}
	}
}

func TestExclusiveInPlace(t *testing.T) {
	n := minBlockSize * 5
	data := make([]int64, n)
	for i := range data {
		data[i] = 1
	}

	total := Exclusive(data, data, 4)
	assert.Equal(t, int64(n), total)
	for i, v := range data {
		require.Equal(t, int64(i), v)
	}
}
