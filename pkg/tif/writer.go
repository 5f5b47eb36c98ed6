// Package tif writes baseline grayscale TIFF images for signed 16-bit
// samples, in either the host's byte order or explicit big-endian.
//
// The files are minimal single-strip baseline TIFFs with an explicit tag
// directory, decodable by any standard TIFF reader: header, pixel block,
// then one IFD followed by its out-of-line rational values.
package tif

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrEncoding is returned when the requested image cannot be serialized,
// e.g. zero dimensions or a sample buffer that does not match them.
var ErrEncoding = errors.New("tif: cannot encode image")

// TIFF tag IDs used by the directory, in required ascending order.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagXResolution     = 282
	tagYResolution     = 283
	tagResolutionUnit  = 296
	tagSampleFormat    = 339
)

// TIFF field types.
const (
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

const (
	headerLen = 8  // byte-order mark, magic, first IFD offset
	entryLen  = 12 // tag, type, count, value
)

// byteOrder combines the read and append halves of encoding/binary's order
// interfaces; binary.BigEndian and binary.LittleEndian satisfy both.
type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	value uint32 // inline SHORT/LONG value, or offset for RATIONAL
}

func validate(samples []int16, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrEncoding, width, height)
	}
	if len(samples) != width*height {
		return fmt.Errorf("%w: %d samples for %dx%d image", ErrEncoding, len(samples), width, height)
	}
	return nil
}

// writeGray16 serializes one width x height frame of signed 16-bit samples
// as a single-strip baseline TIFF in the given byte order.
// Layout: 8-byte header, pixel block at offset 8, IFD, rational values.
func writeGray16(w io.Writer, order byteOrder, samples []int16, width, height int) error {
	if err := validate(samples, width, height); err != nil {
		return err
	}

	pixelLen := len(samples) * 2
	ifdOff := headerLen + pixelLen

	entries := []ifdEntry{
		{tagImageWidth, typeLong, uint32(width)},
		{tagImageLength, typeLong, uint32(height)},
		{tagBitsPerSample, typeShort, 16},
		{tagCompression, typeShort, 1}, // uncompressed
		{tagPhotometric, typeShort, 1}, // black is zero
		{tagStripOffsets, typeLong, headerLen},
		{tagSamplesPerPixel, typeShort, 1},
		{tagRowsPerStrip, typeLong, uint32(height)}, // one strip for the whole image
		{tagStripByteCounts, typeLong, uint32(pixelLen)},
		{tagXResolution, typeRational, 0}, // offsets patched below
		{tagYResolution, typeRational, 0},
		{tagResolutionUnit, typeShort, 1}, // no unit
		{tagSampleFormat, typeShort, 2},   // signed integer
	}

	// Rational values live directly after the IFD and its terminator.
	valOff := uint32(ifdOff + 2 + len(entries)*entryLen + 4)
	for i := range entries {
		if entries[i].typ == typeRational {
			entries[i].value = valOff
			valOff += 8
		}
	}

	buf := make([]byte, 0, ifdOff+2+len(entries)*entryLen+4+16)

	// Header: order mark, magic 42, offset of the first (only) IFD.
	if order == binary.BigEndian {
		buf = append(buf, 'M', 'M')
	} else {
		buf = append(buf, 'I', 'I')
	}
	buf = order.AppendUint16(buf, 42)
	buf = order.AppendUint32(buf, uint32(ifdOff))

	for _, s := range samples {
		buf = order.AppendUint16(buf, uint16(s))
	}

	buf = order.AppendUint16(buf, uint16(len(entries)))
	for _, e := range entries {
		buf = order.AppendUint16(buf, e.tag)
		buf = order.AppendUint16(buf, e.typ)
		buf = order.AppendUint32(buf, 1) // count
		if e.typ == typeShort {
			// SHORT values are left-justified within the 4-byte field.
			buf = order.AppendUint16(buf, uint16(e.value))
			buf = order.AppendUint16(buf, 0)
		} else {
			buf = order.AppendUint32(buf, e.value)
		}
	}
	buf = order.AppendUint32(buf, 0) // no next IFD

	// XResolution and YResolution, both 1/1.
	for i := 0; i < 2; i++ {
		buf = order.AppendUint32(buf, 1)
		buf = order.AppendUint32(buf, 1)
	}

	_, err := w.Write(buf)
	return err
}
