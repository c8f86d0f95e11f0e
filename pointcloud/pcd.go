package pointcloud

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/achilleasa/octree/types"
)

type pcdDataType int

const (
	pcdAscii pcdDataType = iota
	pcdBinary
	pcdCompressed
)

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

type pcdHeader struct {
	fields []string
	size   []int
	typ    []string
	count  []int
	width  int
	height int
	points int
	data   pcdDataType
}

// ReadPCD parses a PCD (v0.7) point cloud with "x y z" or "x y z rgb" fields
// stored either as ascii or binary data. Color information is ignored.
func ReadPCD(r io.Reader) ([]types.Vec4, error) {
	in := bufio.NewReader(r)

	var header pcdHeader
	for headerLine := 0; headerLine < len(pcdHeaderFields); {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "pcd: error reading header line %d", headerLine)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err = header.parseLine(line, pcdHeaderFields[headerLine]); err != nil {
			return nil, err
		}
		headerLine++
	}

	switch header.data {
	case pcdAscii:
		return readPCDAscii(in, &header)
	case pcdBinary:
		return readPCDBinary(in, &header)
	}
	return nil, errors.New("pcd: compressed data is not supported")
}

func (h *pcdHeader) parseLine(line, name string) error {
	field, value, _ := strings.Cut(line, " ")
	if field != name {
		return errors.Errorf("pcd: line is supposed to start with %s but is %q", name, line)
	}
	tokens := strings.Fields(value)

	var err error
	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("pcd: unsupported version %s", value)
		}
	case "FIELDS":
		switch value {
		case "x y z", "x y z rgb":
			h.fields = tokens
		default:
			return errors.Errorf("pcd: unsupported fields %q", value)
		}
	case "SIZE":
		h.size, err = parseInts(tokens, len(h.fields), name)
		if err != nil {
			return err
		}
		for i, size := range h.size[:3] {
			if size != 4 {
				return errors.Errorf("pcd: unsupported size %d for field %s", size, h.fields[i])
			}
		}
	case "TYPE":
		if len(tokens) != len(h.fields) {
			return errors.Errorf("pcd: unexpected number of fields in TYPE line")
		}
		h.typ = tokens
		for i, typ := range h.typ[:3] {
			if typ != "F" {
				return errors.Errorf("pcd: unsupported type %s for field %s", typ, h.fields[i])
			}
		}
	case "COUNT":
		h.count, err = parseInts(tokens, len(h.fields), name)
		if err != nil {
			return err
		}
		for i, count := range h.count {
			if count != 1 {
				return errors.Errorf("pcd: unsupported count %d for field %s", count, h.fields[i])
			}
		}
	case "WIDTH":
		h.width, err = strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "pcd: invalid WIDTH field %s", value)
		}
	case "HEIGHT":
		h.height, err = strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "pcd: invalid HEIGHT field %s", value)
		}
	case "VIEWPOINT":
		if len(tokens) != 7 {
			return errors.Errorf("pcd: unexpected number of fields in VIEWPOINT line; expected 7, got %d", len(tokens))
		}
	case "POINTS":
		h.points, err = strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "pcd: invalid POINTS field %s", value)
		}
		if h.points != h.width*h.height {
			return errors.Errorf("pcd: POINTS field %d does not match WIDTH*HEIGHT %d", h.points, h.width*h.height)
		}
	case "DATA":
		switch value {
		case "ascii":
			h.data = pcdAscii
		case "binary":
			h.data = pcdBinary
		case "binary_compressed":
			h.data = pcdCompressed
		default:
			return errors.Errorf("pcd: unsupported data type %s", value)
		}
	}

	return nil
}

func parseInts(tokens []string, expCount int, name string) ([]int, error) {
	if len(tokens) != expCount {
		return nil, errors.Errorf("pcd: unexpected number of fields in %s line", name)
	}
	out := make([]int, len(tokens))
	for i, token := range tokens {
		v, err := strconv.Atoi(token)
		if err != nil {
			return nil, errors.Wrapf(err, "pcd: invalid %s field %s", name, token)
		}
		out[i] = v
	}
	return out, nil
}

func readPCDAscii(in *bufio.Reader, header *pcdHeader) ([]types.Vec4, error) {
	points := make([]types.Vec4, 0, header.points)
	for i := 0; i < header.points; i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return nil, errors.Wrapf(err, "pcd: error reading point %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != len(header.fields) {
			return nil, errors.Errorf("pcd: unexpected number of fields in point %d", i)
		}

		var p types.Vec4
		for j := 0; j < 3; j++ {
			coord, err := strconv.ParseFloat(tokens[j], 32)
			if err != nil {
				return nil, errors.Wrapf(err, "pcd: invalid point %d field %s", i, tokens[j])
			}
			p[j] = float32(coord)
		}
		points = append(points, p)
	}
	return points, nil
}

func readPCDBinary(in *bufio.Reader, header *pcdHeader) ([]types.Vec4, error) {
	stride := 0
	for _, size := range header.size {
		stride += size
	}

	points := make([]types.Vec4, 0, header.points)
	buf := make([]byte, stride)
	for i := 0; i < header.points; i++ {
		if _, err := io.ReadFull(in, buf); err != nil {
			return nil, errors.Wrapf(err, "pcd: error reading point %d", i)
		}
		points = append(points, types.XYZW(
			math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])),
			math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])),
			0,
		))
	}
	return points, nil
}
