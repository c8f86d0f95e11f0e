package verify

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achilleasa/octree/brt"
	"github.com/achilleasa/octree/log"
	"github.com/achilleasa/octree/octree"
)

func TestIdenticalTrees(t *testing.T) {
	keys := []uint32{1, 2, 3, 4, 100, 200, 4000}
	ref := octree.Build(keys, 0, 1)
	got := octree.Build(append([]uint32(nil), keys...), 0, 1)

	for _, report := range Trees(ref, got) {
		assert.True(t, report.OK(), report.String())
		assert.Positive(t, report.Checked, report.Name)
	}
}

func TestMismatchesAreCountedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	log.SetSink(&buf)
	defer log.SetSink(os.Stdout)

	ref := brt.Build([]uint32{1, 2, 3, 4})
	got := append([]brt.InnerNode(nil), ref...)
	got[1].DeltaNode = 12
	got[2].Parent = 5

	report := InnerNodes(ref, got)
	assert.False(t, report.OK())
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 2, report.Mismatches)
	assert.Contains(t, buf.String(), "inner nodes mismatch at index 1")
	assert.Contains(t, buf.String(), "inner nodes mismatch at index 2")
	assert.Contains(t, buf.String(), "[ERROR]")
}

func TestLengthMismatch(t *testing.T) {
	report := EdgeCounts([]int32{1, 1, 0, 0}, []int32{1, 1})
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Mismatches)

	report = Keys(nil, []uint32{1})
	assert.Equal(t, 0, report.Checked)
	assert.Equal(t, 1, report.Mismatches)
}

func TestOctNodeMismatch(t *testing.T) {
	ref := octree.Build([]uint32{1, 2, 3, 4}, 0, 1024)
	got := append([]octree.OctNode(nil), ref.Nodes...)
	got[1].SetLeaf(0, 7)

	report := OctNodes(ref.Nodes, got)
	assert.Equal(t, 1, report.Mismatches)
}

func TestTable(t *testing.T) {
	out := Table([]Report{
		{Name: "keys", Checked: 4},
		{Name: "octree nodes", Checked: 2, Mismatches: 1},
	})
	require.NotEmpty(t, out)
	assert.Contains(t, out, "octree nodes")
	assert.Contains(t, out, "MISMATCH")
}
