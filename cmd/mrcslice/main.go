package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/voxelkit/mrcslice/internal/cliconfig"
	"github.com/voxelkit/mrcslice/internal/export"
	"github.com/voxelkit/mrcslice/pkg/log"
	"github.com/voxelkit/mrcslice/pkg/mrc"
	"github.com/voxelkit/mrcslice/pkg/progress"
	"github.com/voxelkit/mrcslice/pkg/volume"
)

const longHelp = `
Export every selected frame of a 3D MRC stack (16-bit signed samples) as an
independent single-strip baseline TIFF, in parallel, one file per frame.

Output files are named slice_00001.tif onward, numbered relative to the first
exported frame. Existing files are never overwritten; a name collision aborts
the run.
`

var exampleUsage = strings.TrimSpace(`
  mrcslice tomogram.mrc ./slices
  mrcslice tomogram.mrc ./slices --start-at-frame 10 --stop-at-frame 20
  mrcslice tomogram.mrc ./slices --endianness native --workers 4
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logg := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "mrcslice <volume.mrc> <dest-dir>",
		Short:   "Export 2D TIFF slices from a 3D MRC stack in parallel",
		Long:    strings.TrimSpace(longHelp),
		Example: exampleUsage,
		Version: getVersion(),
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default ~/.mrcslice/config.toml),
			// then env, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cliconfig.ApplyFileConfig(&cfg, fc, changed)
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			cfg.MRCPath = args[0]
			cfg.DestDir = args[1]
			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(cfg, logg)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: ~/.mrcslice/config.toml)")
	root.Flags().IntVarP(&cfg.StartAtFrame, "start-at-frame", "s", cfg.StartAtFrame, "first frame to export, 1-indexed")
	root.Flags().IntVarP(&cfg.StopAtFrame, "stop-at-frame", "t", cfg.StopAtFrame, "last frame to export, 1-indexed inclusive (default: last frame)")
	root.Flags().StringVarP(&cfg.Endianness, "endianness", "e", cfg.Endianness, "byte order of the written TIFFs (big|native)")
	root.Flags().IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "number of parallel workers")

	if err := root.Execute(); err != nil {
		logg.Error().Err(err).Msg("mrcslice")
		os.Exit(1)
	}
}

func run(cfg cliconfig.Config, logg zerolog.Logger) error {
	f, err := mrc.Open(cfg.MRCPath)
	if err != nil {
		return err
	}
	defer f.Close()

	nx, ny, nz := f.Dimensions()
	logg.Info().
		Str("volume", cfg.MRCPath).
		Str("dimensions", fmt.Sprintf("%dx%dx%d", nx, ny, nz)).
		Str("samples", humanize.IBytes(uint64(f.SampleBytes()))).
		Str("endianness", cfg.Endianness).
		Msg("opened volume")

	vol := volume.New(f.Samples(), nx, ny, nz)
	r := volume.RangeFromFrames(cfg.StartAtFrame, cfg.StopAtFrame, nz)
	if !r.Valid(nz) {
		return fmt.Errorf("frames %d..%d select nothing in a %d-frame stack", cfg.StartAtFrame, cfg.StopAtFrame, nz)
	}

	sink := progress.NewSink(64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		renderProgress(sink.C())
	}()

	job := export.Job{
		Volume:  vol,
		DestDir: cfg.DestDir,
		Order:   export.Endianness(cfg.Endianness),
		Range:   r,
		Workers: cfg.Workers,
	}
	err = export.Run(context.Background(), job, log.NewZerologAdapter(logg), sink)
	sink.Close()
	wg.Wait()
	return err
}

// renderProgress consumes the progress stream and redraws a single status
// line, polling with a short timeout so the line stays fresh even when no
// new message arrives.
func renderProgress(ch <-chan progress.Message) {
	var last progress.Message
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				fmt.Fprintln(os.Stderr)
				return
			}
			last = msg
			switch msg.Kind {
			case progress.KindDone:
				fmt.Fprintf(os.Stderr, "\rexported %d/%d frames", msg.Total, msg.Total)
			case progress.KindError:
				fmt.Fprintf(os.Stderr, "\rexport failed: %s", msg.Err)
			}
		case <-ticker.C:
			if last.Kind == progress.KindInProgress && last.Total > 0 {
				fmt.Fprintf(os.Stderr, "\rexported %d/%d frames", last.Done, last.Total)
			}
		}
	}
}
