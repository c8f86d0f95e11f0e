// Package dump persists intermediate construction arrays as raw, headerless
// files.
//
// Files contain a fixed-stride array of records in the native byte layout of
// the host. There is no header, versioning or checksum: readers must know
// the record type in advance and derive the element count from the file
// size. A trailing partial record is ignored.
package dump

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/achilleasa/octree/brt"
	"github.com/achilleasa/octree/log"
)

var logger = log.New("dump")

// Default file name for a sorted key dump of n keys.
func KeysFilename(n int) string {
	return fmt.Sprintf("sorted_mortons_%d.bin", n)
}

// Default file name for a radix tree dump built from n keys.
func InnerNodesFilename(n int) string {
	return fmt.Sprintf("brt_nodes_%d.bin", n)
}

// Save writes the raw contents of data to filename. T must be a plain data
// type without pointers.
func Save[T any](filename string, data []T) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "dump: could not create %s", filename)
	}
	defer func() {
		err = multierr.Append(err, errors.Wrapf(f.Close(), "dump: could not close %s", filename))
	}()

	if _, err = f.Write(asBytes(data)); err != nil {
		return errors.Wrapf(err, "dump: could not write %s", filename)
	}

	logger.Debugf("wrote %d records (%d bytes) to %s", len(data), len(data)*recordSize[T](), filename)
	return nil
}

// Load reads back an array written by Save. The number of records is the
// file size divided by the size of T.
func Load[T any](filename string) (data []T, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "dump: could not open %s", filename)
	}
	defer func() {
		err = multierr.Append(err, errors.Wrapf(f.Close(), "dump: could not close %s", filename))
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "dump: could not stat %s", filename)
	}

	data = make([]T, int(info.Size())/recordSize[T]())
	if _, err = io.ReadFull(f, asBytes(data)); err != nil {
		return nil, errors.Wrapf(err, "dump: could not read %s", filename)
	}

	logger.Debugf("read %d records from %s", len(data), filename)
	return data, nil
}

// Save sorted keys to dir using the default file name.
func SaveKeys(dir string, keys []uint32) (string, error) {
	filename := filepath.Join(dir, KeysFilename(len(keys)))
	return filename, Save(filename, keys)
}

// Load sorted keys.
func LoadKeys(filename string) ([]uint32, error) {
	return Load[uint32](filename)
}

// Save radix tree nodes for n keys to dir using the default file name.
func SaveInnerNodes(dir string, numKeys int, nodes []brt.InnerNode) (string, error) {
	filename := filepath.Join(dir, InnerNodesFilename(numKeys))
	return filename, Save(filename, nodes)
}

// Load radix tree nodes.
func LoadInnerNodes(filename string) ([]brt.InnerNode, error) {
	return Load[brt.InnerNode](filename)
}

func recordSize[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func asBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*recordSize[T]())
}
