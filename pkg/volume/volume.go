// Package volume provides a read-only view over a 3D stack of signed 16-bit
// samples and bounds-checked access to its depth slices.
//
// A Volume never owns or copies sample data: it wraps a buffer produced by a
// reader (for example pkg/mrc) that has already validated the dimensions.
// Slices returned by [Volume.Slice] alias that buffer and are only valid for
// the lifetime of the backing storage.
package volume

import (
	"errors"
	"fmt"
)

// ErrBounds is returned when a requested slice index or the computed sample
// range falls outside the backing buffer.
var ErrBounds = errors.New("volume: slice out of bounds")

// Volume is an immutable logical view of a width x height x depth stack of
// signed 16-bit samples in row-major, frame-major order.
type Volume struct {
	data   []int16
	width  int
	height int
	depth  int
}

// New wraps data as a volume with the given dimensions. The buffer length is
// trusted to equal width*height*depth; a shorter buffer surfaces later as
// ErrBounds from Slice rather than a silent clamp.
func New(data []int16, width, height, depth int) *Volume {
	return &Volume{data: data, width: width, height: height, depth: depth}
}

// Dimensions returns (width, height, depth).
func (v *Volume) Dimensions() (int, int, int) {
	return v.width, v.height, v.depth
}

// Depth returns the number of frames in the stack.
func (v *Volume) Depth() int {
	return v.depth
}

// Slice returns the width*height samples of frame z without copying.
// It fails with ErrBounds when z is outside [0, depth) or when the computed
// range exceeds the backing buffer (a mis-reported depth).
func (v *Volume) Slice(z int) ([]int16, error) {
	if z < 0 || z >= v.depth {
		return nil, fmt.Errorf("%w: frame %d of %d", ErrBounds, z, v.depth)
	}
	size := v.width * v.height
	start := z * size
	if start+size > len(v.data) {
		return nil, fmt.Errorf("%w: frame %d needs samples [%d,%d) but buffer holds %d",
			ErrBounds, z, start, start+size, len(v.data))
	}
	return v.data[start : start+size], nil
}
