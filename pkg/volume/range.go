package volume

// FrameRange is a half-open interval [Start, Stop) of depth indices selected
// for export. The zero value is the empty range.
type FrameRange struct {
	Start int
	Stop  int
}

// RangeFromFrames derives a FrameRange from 1-indexed, inclusive user-facing
// frame numbers. stopAtFrame <= 0 means "through the last frame".
// Start is clamped below at 0 and Stop above at depth; a start frame beyond
// the stack is returned as-is, so callers must reject ranges that fail
// [FrameRange.Valid] before export.
func RangeFromFrames(startAtFrame, stopAtFrame, depth int) FrameRange {
	start := startAtFrame - 1
	if start < 0 {
		start = 0
	}
	stop := depth
	if stopAtFrame > 0 && stopAtFrame < depth {
		stop = stopAtFrame
	}
	return FrameRange{Start: start, Stop: stop}
}

// Len returns the number of frames in the range.
func (r FrameRange) Len() int {
	if r.Stop <= r.Start {
		return 0
	}
	return r.Stop - r.Start
}

// Valid reports whether the range is a usable export interval over a volume
// of the given depth.
func (r FrameRange) Valid(depth int) bool {
	return r.Start >= 0 && r.Start <= r.Stop && r.Stop <= depth
}
