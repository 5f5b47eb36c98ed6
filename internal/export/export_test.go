package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/voxelkit/mrcslice/pkg/log"
	"github.com/voxelkit/mrcslice/pkg/progress"
	"github.com/voxelkit/mrcslice/pkg/volume"
)

// seqVolume builds a width x height x depth volume whose samples count up
// from zero in row-major, frame-major order.
func seqVolume(width, height, depth int) *volume.Volume {
	data := make([]int16, width*height*depth)
	for i := range data {
		data[i] = int16(i)
	}
	return volume.New(data, width, height, depth)
}

func decodeSamples(t *testing.T, path string) []int16 {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	gray, ok := img.(*image.Gray16)
	if !ok {
		t.Fatalf("decoded %T, want *image.Gray16", img)
	}
	b := img.Bounds()
	out := make([]int16, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, int16(gray.Gray16At(x, y).Y))
		}
	}
	return out
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func runJob(t *testing.T, job Job, sink *progress.Sink) error {
	t.Helper()
	return New(job, log.NewNoopLogger(), sink).Run(context.Background())
}

func TestExportScenario(t *testing.T) {
	// 2x2x3 stack with samples 0..11; exporting frames 2..3 (1-indexed,
	// inclusive) must yield two files numbered relative to the range start.
	dir := t.TempDir()
	vol := seqVolume(2, 2, 3)
	job := Job{
		Volume:  vol,
		DestDir: dir,
		Order:   Big,
		Range:   volume.RangeFromFrames(2, 3, 3),
	}
	if err := runJob(t, job, nil); err != nil {
		t.Fatal(err)
	}

	names := listFiles(t, dir)
	if len(names) != 2 {
		t.Fatalf("wrote %v, want exactly slice_00001.tif and slice_00002.tif", names)
	}

	want := map[string][]int16{
		"slice_00001.tif": {4, 5, 6, 7},
		"slice_00002.tif": {8, 9, 10, 11},
	}
	for name, wantSamples := range want {
		got := decodeSamples(t, filepath.Join(dir, name))
		if len(got) != len(wantSamples) {
			t.Fatalf("%s: %d samples, want %d", name, len(got), len(wantSamples))
		}
		for i := range wantSamples {
			if got[i] != wantSamples[i] {
				t.Errorf("%s sample %d = %d, want %d", name, i, got[i], wantSamples[i])
			}
		}
	}
}

func TestExportFullRangeParallel(t *testing.T) {
	dir := t.TempDir()
	vol := seqVolume(4, 4, 32)
	job := Job{
		Volume:  vol,
		DestDir: dir,
		Order:   Native,
		Range:   volume.FrameRange{Start: 0, Stop: 32},
		Workers: 8,
	}
	if err := runJob(t, job, nil); err != nil {
		t.Fatal(err)
	}
	if names := listFiles(t, dir); len(names) != 32 {
		t.Fatalf("wrote %d files, want 32", len(names))
	}
	got := decodeSamples(t, filepath.Join(dir, "slice_00032.tif"))
	for i, v := range got {
		if want := int16(31*16 + i); v != want {
			t.Errorf("last slice sample %d = %d, want %d", i, v, want)
		}
	}
}

func TestExportProgress(t *testing.T) {
	dir := t.TempDir()
	vol := seqVolume(2, 2, 5)
	sink := progress.NewSink(64)
	// A single worker makes the observed done sequence deterministic;
	// concurrent workers may deliver neighboring updates out of order.
	job := Job{
		Volume:  vol,
		DestDir: dir,
		Order:   Big,
		Range:   volume.FrameRange{Start: 0, Stop: 5},
		Workers: 1,
	}
	if err := runJob(t, job, sink); err != nil {
		t.Fatal(err)
	}
	sink.Close()

	var msgs []progress.Message
	for msg := range sink.C() {
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		t.Fatal("no progress messages received")
	}

	last := msgs[len(msgs)-1]
	if last.Kind != progress.KindDone || last.Total != 5 {
		t.Fatalf("terminal message = %+v, want Done with total 5", last)
	}

	prev := 0
	for _, msg := range msgs[:len(msgs)-1] {
		if msg.Kind != progress.KindInProgress {
			t.Fatalf("non-terminal message = %+v, want InProgress", msg)
		}
		if msg.Done < prev {
			t.Errorf("done went backwards: %d after %d", msg.Done, prev)
		}
		if msg.Done > msg.Total {
			t.Errorf("done %d exceeds total %d", msg.Done, msg.Total)
		}
		prev = msg.Done
	}
}

func TestExportCollision(t *testing.T) {
	dir := t.TempDir()
	original := []byte("already here")
	if err := os.WriteFile(filepath.Join(dir, "slice_00001.tif"), original, 0o644); err != nil {
		t.Fatal(err)
	}

	vol := seqVolume(2, 2, 1)
	sink := progress.NewSink(8)
	job := Job{
		Volume:  vol,
		DestDir: dir,
		Order:   Big,
		Range:   volume.FrameRange{Start: 0, Stop: 1},
	}
	err := runJob(t, job, sink)
	if !errors.Is(err, os.ErrExist) {
		t.Fatalf("error = %v, want os.ErrExist", err)
	}
	sink.Close()

	raw, readErr := os.ReadFile(filepath.Join(dir, "slice_00001.tif"))
	if readErr != nil {
		t.Fatal(readErr)
	}
	if !bytes.Equal(raw, original) {
		t.Errorf("existing file was modified: %q", raw)
	}

	var terminal *progress.Message
	for msg := range sink.C() {
		terminal = &msg
	}
	if terminal == nil || terminal.Kind != progress.KindError {
		t.Errorf("terminal message = %+v, want Error", terminal)
	}
}

func TestExportPrecondition(t *testing.T) {
	dir := t.TempDir()
	vol := seqVolume(2, 2, 3)
	sink := progress.NewSink(8)
	job := Job{
		Volume:  vol,
		DestDir: dir,
		Order:   Big,
		Range:   volume.FrameRange{Start: 2, Stop: 1},
	}
	if err := runJob(t, job, sink); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("error = %v, want ErrPrecondition", err)
	}
	sink.Close()

	if names := listFiles(t, dir); len(names) != 0 {
		t.Errorf("precondition failure wrote files: %v", names)
	}
	for msg := range sink.C() {
		t.Errorf("precondition failure sent message %+v", msg)
	}
}

func TestExportBadEndianness(t *testing.T) {
	job := Job{
		Volume:  seqVolume(1, 1, 1),
		DestDir: t.TempDir(),
		Order:   Endianness("middle"),
		Range:   volume.FrameRange{Start: 0, Stop: 1},
	}
	if err := runJob(t, job, nil); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("error = %v, want ErrPrecondition", err)
	}
}

func TestExportEmptyRange(t *testing.T) {
	dir := t.TempDir()
	sink := progress.NewSink(4)
	job := Job{
		Volume:  seqVolume(2, 2, 3),
		DestDir: dir,
		Order:   Big,
		Range:   volume.FrameRange{Start: 1, Stop: 1},
	}
	if err := runJob(t, job, sink); err != nil {
		t.Fatal(err)
	}
	sink.Close()

	if names := listFiles(t, dir); len(names) != 0 {
		t.Errorf("empty range wrote files: %v", names)
	}
	var msgs []progress.Message
	for msg := range sink.C() {
		msgs = append(msgs, msg)
	}
	if len(msgs) != 1 || msgs[0].Kind != progress.KindDone || msgs[0].Total != 0 {
		t.Errorf("messages = %+v, want a single Done with total 0", msgs)
	}
}

func TestExportBoundsError(t *testing.T) {
	// Depth claims 3 frames but the buffer holds 2: the defensive check in
	// the volume must abort the batch.
	data := make([]int16, 8)
	vol := volume.New(data, 2, 2, 3)
	job := Job{
		Volume:  vol,
		DestDir: t.TempDir(),
		Order:   Big,
		Range:   volume.FrameRange{Start: 2, Stop: 3},
	}
	if err := runJob(t, job, nil); !errors.Is(err, volume.ErrBounds) {
		t.Fatalf("error = %v, want volume.ErrBounds", err)
	}
}
