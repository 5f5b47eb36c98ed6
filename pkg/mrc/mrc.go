// Package mrc reads 3D MRC2014 stacks via a read-only memory mapping.
//
// Only mode 1 (signed 16-bit integer) volumes are supported, matching the
// exporter's sample model. The mapping is never copied: Samples returns a
// typed view straight over the mapped bytes, valid until Close.
package mrc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Fixed MRC2014 header layout, little-endian.
const (
	headerSize = 1024
	offNX      = 0
	offNY      = 4
	offNZ      = 8
	offMode    = 12
	offExtLen  = 92 // NSYMBT, extended header length in bytes
	modeInt16  = 1
)

var (
	// ErrNotMRC is returned when the file is too small to hold an MRC header
	// or the header fields are not a plausible volume.
	ErrNotMRC = errors.New("mrc: not an MRC file")

	// ErrUnsupportedMode is returned for any sample mode other than mode 1
	// (signed 16-bit integer).
	ErrUnsupportedMode = errors.New("mrc: unsupported sample mode")

	// ErrTruncated is returned when the file is shorter than the sample
	// volume its header declares.
	ErrTruncated = errors.New("mrc: truncated sample data")
)

// File is an open, memory-mapped MRC stack.
type File struct {
	mapped     []byte
	samples    []int16
	nx, ny, nz int
	size       int64
}

// Open maps path read-only and validates its header and sample extent.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mrc: open: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("mrc: stat: %w", err)
	}
	if st.Size() < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotMRC, st.Size())
	}

	mapped, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mrc: mmap: %w", err)
	}

	m := &File{mapped: mapped, size: st.Size()}
	if err := m.parseHeader(); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func (m *File) parseHeader() error {
	le := binary.LittleEndian
	nx := int(int32(le.Uint32(m.mapped[offNX:])))
	ny := int(int32(le.Uint32(m.mapped[offNY:])))
	nz := int(int32(le.Uint32(m.mapped[offNZ:])))
	mode := int(int32(le.Uint32(m.mapped[offMode:])))
	extLen := int(int32(le.Uint32(m.mapped[offExtLen:])))

	if nx <= 0 || ny <= 0 || nz <= 0 {
		return fmt.Errorf("%w: dimensions %dx%dx%d", ErrNotMRC, nx, ny, nz)
	}
	if extLen < 0 || extLen%2 != 0 {
		return fmt.Errorf("%w: extended header length %d", ErrNotMRC, extLen)
	}
	if mode != modeInt16 {
		return fmt.Errorf("%w: mode %d", ErrUnsupportedMode, mode)
	}

	// The sample count is computed in int64 with a pre-multiplication bound
	// so a crafted header cannot overflow the truncation check below.
	// nx and ny are at most 2^31, so their product fits in int64.
	dataOff := int64(headerSize + extLen)
	n := int64(nx) * int64(ny)
	if n > (math.MaxInt64/2)/int64(nz) {
		return fmt.Errorf("%w: need %dx%dx%d samples at offset %d in %d bytes",
			ErrTruncated, nx, ny, nz, dataOff, m.size)
	}
	n *= int64(nz)
	if dataOff+n*2 > m.size {
		return fmt.Errorf("%w: need %d samples at offset %d in %d bytes",
			ErrTruncated, n, dataOff, m.size)
	}

	m.nx, m.ny, m.nz = nx, ny, nz
	m.samples = unsafe.Slice((*int16)(unsafe.Pointer(&m.mapped[dataOff])), n)
	return nil
}

// Dimensions returns (width, height, depth).
func (m *File) Dimensions() (int, int, int) {
	return m.nx, m.ny, m.nz
}

// Samples returns the full sample buffer as a zero-copy view over the
// mapping. It is invalidated by Close.
func (m *File) Samples() []int16 {
	return m.samples
}

// SampleBytes returns the byte size of the sample volume.
func (m *File) SampleBytes() int64 {
	return int64(len(m.samples)) * 2
}

// Close unmaps the file. The views returned by Samples must not be used
// afterwards.
func (m *File) Close() error {
	if m.mapped == nil {
		return nil
	}
	err := unix.Munmap(m.mapped)
	m.mapped = nil
	m.samples = nil
	return err
}
