// Package cast provides a parser for the Cast scene-interchange format.
// A Cast file is a recursively nested tree of typed nodes, each carrying a
// list of named, homogeneously typed properties.
package cast

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Magic is the file signature, "cast" read as a little-endian uint32.
const Magic uint32 = 0x74736163

// Cast format errors.
var (
	ErrBadMagic            = errors.New("invalid cast magic: expected 'cast'")
	ErrTruncated           = errors.New("truncated cast data")
	ErrUnknownPropertyType = errors.New("unknown cast property type")
)

// Header is the fixed file header.
type Header struct {
	Magic     uint32
	Version   uint32
	RootCount uint32
	Flags     uint32 // Reserved
}

// File represents a decoded Cast file.
type File struct {
	Version uint32
	Flags   uint32
	Roots   []*Node // Document order
}

// Parse decodes a complete Cast file from a byte slice.
func Parse(data []byte) (*File, error) {
	r := newReader(data)

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	file := &File{
		Version: header.Version,
		Flags:   header.Flags,
		Roots:   make([]*Node, 0, min(int(header.RootCount), r.remaining()/nodeHeaderSize)),
	}

	for i := uint32(0); i < header.RootCount; i++ {
		node, err := readNode(r, nil)
		if err != nil {
			return nil, fmt.Errorf("parsing root node %d: %w", i, err)
		}
		file.Roots = append(file.Roots, node)
	}

	return file, nil
}

// ParseFile parses a Cast file from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cast file: %w", err)
	}
	return Parse(data)
}

// ParseReader reads r to completion and parses the result.
func ParseReader(r io.Reader) (*File, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("reading cast data: %w", err)
	}
	return Parse(buf.Bytes())
}

// readHeader reads and validates the file header. The magic is checked
// before anything else is consumed.
func readHeader(r *reader) (Header, error) {
	var h Header
	var err error

	if h.Magic, err = r.u32(); err != nil {
		return h, err
	}
	if h.Magic != Magic {
		return h, fmt.Errorf("%w: got %#08x", ErrBadMagic, h.Magic)
	}
	if h.Version, err = r.u32(); err != nil {
		return h, err
	}
	if h.RootCount, err = r.u32(); err != nil {
		return h, err
	}
	if h.Flags, err = r.u32(); err != nil {
		return h, err
	}
	return h, nil
}

// ContainsModel reports whether data is a Cast file holding a model node
// either as a root or as a direct child of a root. It performs a full decode
// but no projection.
func ContainsModel(data []byte) bool {
	file, err := Parse(data)
	if err != nil {
		return false
	}
	for _, root := range file.Roots {
		if root.ID == NodeModel {
			return true
		}
		if _, ok := root.FirstChildOfType(NodeModel); ok {
			return true
		}
	}
	return false
}

// ContainsModelFile is ContainsModel for a file on disk.
func ContainsModelFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return ContainsModel(data), nil
}
