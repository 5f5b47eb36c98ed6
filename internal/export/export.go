// Package export drives the parallel fan-out of volume slices to TIFF files.
package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxelkit/mrcslice/pkg/log"
	"github.com/voxelkit/mrcslice/pkg/progress"
	"github.com/voxelkit/mrcslice/pkg/tif"
	"github.com/voxelkit/mrcslice/pkg/volume"
)

// Endianness selects the on-disk byte order of exported TIFFs.
type Endianness string

const (
	// Big writes explicit big-endian files regardless of host byte order.
	Big Endianness = "big"
	// Native writes files in the host's byte order.
	Native Endianness = "native"
)

// Valid reports whether e is a known endianness selector.
func (e Endianness) Valid() bool {
	return e == Big || e == Native
}

// ErrPrecondition reports a caller contract violation (an invalid frame
// range or endianness). It is surfaced before any frame work begins: no
// files are written and no progress messages are sent.
var ErrPrecondition = errors.New("export: precondition violated")

// Job describes one export batch. It is stateless beyond these fields and
// produces exactly Range.Len() output files named slice_00001.tif onward,
// numbered relative to Range.Start.
type Job struct {
	Volume  *volume.Volume
	DestDir string
	Order   Endianness
	Range   volume.FrameRange
	Workers int // worker pool size; <= 0 means runtime.NumCPU()
}

type encodeFunc func(path string, samples []int16, width, height int) error

// Exporter runs export jobs against a shared read-only volume.
type Exporter struct {
	job    Job
	logger log.Logger
	sink   *progress.Sink
}

// New creates an exporter. logger must not be nil (use log.NewNoopLogger);
// sink may be nil for a headless run without progress reporting.
func New(job Job, logger log.Logger, sink *progress.Sink) *Exporter {
	return &Exporter{job: job, logger: logger, sink: sink}
}

// Run exports every frame in the job's range and blocks until the batch
// completes or the first frame fails. The batch is fail-fast: the first
// error observed by any worker is returned, frames already dispatched run to
// completion, and files already written are not cleaned up.
func (e *Exporter) Run(ctx context.Context) error {
	vol, r := e.job.Volume, e.job.Range
	if !r.Valid(vol.Depth()) {
		return fmt.Errorf("%w: range [%d,%d) over depth %d", ErrPrecondition, r.Start, r.Stop, vol.Depth())
	}
	if !e.job.Order.Valid() {
		return fmt.Errorf("%w: endianness %q", ErrPrecondition, e.job.Order)
	}

	// The encoder is fixed once per batch so the byte order is invariant
	// across all frames of one run.
	var encode encodeFunc
	if e.job.Order == Native {
		encode = tif.EncodeNative
	} else {
		encode = tif.EncodeBigEndian
	}

	width, height, _ := vol.Dimensions()
	total := r.Len()
	workers := e.job.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > total && total > 0 {
		workers = total
	}

	t0 := time.Now()
	e.logger.Info("starting export",
		log.Int("frames", total),
		log.Int("workers", workers),
		log.Str("endianness", string(e.job.Order)),
		log.Str("dest", e.job.DestDir))

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for z := r.Start; z < r.Stop; z++ {
		if gctx.Err() != nil {
			// A worker already failed; stop dispatching new frames.
			break
		}
		z := z
		g.Go(func() error {
			if err := e.exportFrame(vol, encode, z, width, height); err != nil {
				return err
			}
			e.sink.Send(progress.Message{
				Kind:  progress.KindInProgress,
				Done:  int(done.Add(1)),
				Total: total,
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if e.sink != nil && !e.sink.Send(progress.Message{Kind: progress.KindError, Err: err.Error()}) {
			e.logger.Warn("progress consumer missed terminal error message")
		}
		return err
	}

	if e.sink != nil && !e.sink.Send(progress.Message{Kind: progress.KindDone, Total: total}) {
		e.logger.Warn("progress consumer missed terminal done message")
	}
	e.logger.Info("export done",
		log.Int("frames", total),
		log.Duration("elapsed", time.Since(t0)))
	return nil
}

// exportFrame writes frame z as destDir/slice_NNNNN.tif, numbered 1-based
// relative to the range start.
func (e *Exporter) exportFrame(vol *volume.Volume, encode encodeFunc, z, width, height int) error {
	slice, err := vol.Slice(z)
	if err != nil {
		return err
	}
	idx := z - e.job.Range.Start + 1
	path := filepath.Join(e.job.DestDir, fmt.Sprintf("slice_%05d.tif", idx))
	if err := encode(path, slice, width, height); err != nil {
		return err
	}
	e.logger.Debug("wrote slice", log.Str("path", path), log.Int("frame", z))
	return nil
}

// Run is a convenience wrapper constructing an Exporter for a one-shot job.
func Run(ctx context.Context, job Job, logger log.Logger, sink *progress.Sink) error {
	return New(job, logger, sink).Run(ctx)
}
