package dump

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achilleasa/octree/brt"
)

func TestKeysRoundTrip(t *testing.T) {
	dir := t.TempDir()
	keys := []uint32{1, 2, 3, 4, 1 << 29}

	filename, err := SaveKeys(dir, keys)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sorted_mortons_5.bin"), filename)

	loaded, err := LoadKeys(filename)
	require.NoError(t, err)
	assert.Equal(t, keys, loaded)
}

func TestInnerNodesFileLayout(t *testing.T) {
	dir := t.TempDir()
	nodes := brt.Build([]uint32{1, 2, 3, 4})

	filename, err := SaveInnerNodes(dir, 4, nodes)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "brt_nodes_4.bin"), filename)

	raw, err := os.ReadFile(filename)
	require.NoError(t, err)
	require.Len(t, raw, 3*16)

	// Records are 4 native-endian int32 values: delta, left, right, parent
	expFirst := []int32{28, brt.MakeInternal(2), brt.MakeLeaf(3), brt.NoParent}
	for i, exp := range expFirst {
		assert.Equal(t, exp, int32(binary.NativeEndian.Uint32(raw[i*4:])), "field %d", i)
	}

	loaded, err := LoadInnerNodes(filename)
	require.NoError(t, err)
	assert.Equal(t, nodes, loaded)
}

func TestLoadIgnoresTrailingPartialRecord(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "partial.bin")
	raw := make([]byte, 4*3+2)
	binary.NativeEndian.PutUint32(raw[0:], 7)
	binary.NativeEndian.PutUint32(raw[4:], 8)
	binary.NativeEndian.PutUint32(raw[8:], 9)
	require.NoError(t, os.WriteFile(filename, raw, 0o644))

	keys, err := LoadKeys(filename)
	require.NoError(t, err)
	assert.Equal(t, []uint32{7, 8, 9}, keys)
}

func TestEmptyDump(t *testing.T) {
	dir := t.TempDir()
	filename, err := SaveKeys(dir, nil)
	require.NoError(t, err)

	keys, err := LoadKeys(filename)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadKeys(filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)), "expected a not-exist error; got %v", err)
}

func TestSaveToMissingDir(t *testing.T) {
	_, err := SaveKeys(filepath.Join(t.TempDir(), "missing"), []uint32{1})
	assert.Error(t, err)
}
