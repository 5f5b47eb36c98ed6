package tif

import (
	"encoding/binary"
	"fmt"
	"os"
)

// EncodeNative writes samples to path as a baseline TIFF in the host's byte
// order. The destination is created exclusively: an existing file is an
// error satisfying errors.Is(err, os.ErrExist), and is left untouched.
func EncodeNative(path string, samples []int16, width, height int) error {
	return encodeFile(path, nativeOrder(), samples, width, height)
}

// nativeOrder resolves binary.NativeEndian to the concrete order so the
// writer can emit the matching II/MM byte-order mark.
func nativeOrder() byteOrder {
	b := binary.NativeEndian.AppendUint16(nil, 0x00ff)
	if b[0] == 0x00 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// EncodeBigEndian writes samples to path as a baseline TIFF with every
// sample byte-swapped to big-endian, independent of host byte order.
// Creation is exclusive, as with EncodeNative.
func EncodeBigEndian(path string, samples []int16, width, height int) error {
	return encodeFile(path, binary.BigEndian, samples, width, height)
}

func encodeFile(path string, order byteOrder, samples []int16, width, height int) error {
	// Reject bad dimensions before touching the filesystem so a failed
	// encode never leaves an empty file behind.
	if err := validate(samples, width, height); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("tif: create %s: %w", path, err)
	}
	if err := writeGray16(f, order, samples, width, height); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("tif: close %s: %w", path, err)
	}
	return nil
}
