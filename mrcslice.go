// Package mrcslice exports 2D TIFF slices from 3D stacks of signed 16-bit
// samples, in parallel, one baseline TIFF file per frame.
//
// Example usage:
//
//	f, err := mrc.Open("tomogram.mrc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//	nx, ny, nz := f.Dimensions()
//	job := mrcslice.Job{
//	    Volume:  volume.New(f.Samples(), nx, ny, nz),
//	    DestDir: "./slices",
//	    Order:   mrcslice.Big,
//	    Range:   volume.FrameRange{Start: 0, Stop: nz},
//	}
//	if err := mrcslice.Export(context.Background(), job); err != nil {
//	    log.Fatal(err)
//	}
package mrcslice

import (
	"context"

	"github.com/voxelkit/mrcslice/internal/export"
	"github.com/voxelkit/mrcslice/pkg/log"
	"github.com/voxelkit/mrcslice/pkg/progress"
)

// Endianness selects the on-disk byte order of exported TIFFs.
type Endianness = export.Endianness

const (
	// Big writes explicit big-endian files regardless of host byte order.
	Big = export.Big
	// Native writes files in the host's byte order.
	Native = export.Native
)

// Job describes one export batch.
type Job = export.Job

// ErrPrecondition reports a caller contract violation. See export.ErrPrecondition.
var ErrPrecondition = export.ErrPrecondition

// Option configures optional behavior of an export run.
type Option func(*options)

type options struct {
	logger log.Logger
	sink   *progress.Sink
}

// WithLogger attaches a structured logger to the run. The default discards
// all messages.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithProgress attaches a progress sink. The pipeline sends best-effort
// InProgress updates and one terminal Done or Error message; Export closes
// the sink before returning, so consumers can range over Sink.C.
func WithProgress(s *progress.Sink) Option {
	return func(o *options) { o.sink = s }
}

// Export runs one batch to completion or first error. It is fail-fast:
// frames already dispatched when an error occurs still finish, and their
// files remain on disk.
func Export(ctx context.Context, job Job, opts ...Option) error {
	o := options{logger: log.NewNoopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	err := export.Run(ctx, job, o.logger, o.sink)
	if o.sink != nil {
		o.sink.Close()
	}
	return err
}
