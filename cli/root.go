package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ankit-chaubey/metastrip/core"
	"github.com/ankit-chaubey/metastrip/core/batch"
	"github.com/ankit-chaubey/metastrip/core/document"
	"github.com/ankit-chaubey/metastrip/core/image"
	"github.com/ankit-chaubey/metastrip/core/logger"
	"github.com/ankit-chaubey/metastrip/core/video"
)

const version = "0.2.0"

var (
	errNoFiles     = errors.New("no valid files found to process")
	errFilesFailed = errors.New("one or more files failed")
)

var log = logger.WithName("cli")

type flags struct {
	overwrite    bool
	outputDir    string
	verbose      bool
	showMetadata bool
	recursive    bool
	dryRun       bool
	backup       bool
	onlyImages   bool
	onlyVideos   bool
	onlyPDFs     bool
	stats        bool
	quiet        bool
	jsonOut      bool
	configPath   string
	workers      int
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "metastrip [flags] <file|dir>...",
		Short: "Strip metadata from images, videos and PDFs",
		Long: `metastrip removes embedded metadata (EXIF, container tags, document info)
from images (jpg, jpeg, png, gif, bmp, tiff), videos (mp4, mov, avi, mkv)
and PDFs, and reports what was removed.

Video files need ffmpeg and ffprobe on PATH. PDF info entries are reported
but the file is copied unchanged.`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args, stdout, stderr)
		},
	}

	fl := cmd.Flags()
	fl.BoolVarP(&f.overwrite, "overwrite", "w", false, "overwrite the input files")
	fl.StringVarP(&f.outputDir, "output-dir", "o", "", "write results to this directory (default: next to each input)")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log every file")
	fl.BoolVarP(&f.showMetadata, "show-metadata", "m", false, "list the removed metadata per file")
	fl.BoolVarP(&f.recursive, "recursive", "r", false, "descend into subdirectories")
	fl.BoolVar(&f.dryRun, "dry-run", false, "list what would be processed without modifying anything")
	fl.BoolVarP(&f.backup, "backup", "b", false, "copy each input to <file>.bak first")
	fl.BoolVar(&f.onlyImages, "only-images", false, "process only image files")
	fl.BoolVar(&f.onlyVideos, "only-videos", false, "process only video files")
	fl.BoolVar(&f.onlyPDFs, "only-pdfs", false, "process only PDF files")
	fl.BoolVarP(&f.stats, "stats", "s", false, "print processing statistics")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "print nothing but errors")
	fl.BoolVar(&f.jsonOut, "json", false, "print a JSON report instead of text")
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML settings file")
	fl.IntVarP(&f.workers, "workers", "j", 0, "parallel workers (default: settings, then CPU count)")

	return cmd
}

func run(ctx context.Context, f *flags, inputs []string, stdout, stderr io.Writer) error {
	settings, err := core.LoadSettings(f.configPath)
	if err != nil {
		return err
	}

	level := settings.LogLevel
	switch {
	case f.quiet:
		level = "error"
	case f.verbose:
		level = "debug"
	}
	if err := logger.ConfigureFromString(level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if f.quiet && (f.verbose || f.showMetadata) {
		fmt.Fprintln(stderr, "Warning: --quiet mode enabled, --verbose and --show-metadata will be ignored")
	}

	filter, err := batch.FilterFromFlags(f.onlyImages, f.onlyVideos, f.onlyPDFs)
	if err != nil {
		return err
	}
	if f.workers < 0 {
		return fmt.Errorf("--workers must not be negative, got %d", f.workers)
	}

	opts := batch.Options{
		Overwrite: f.overwrite,
		OutputDir: f.outputDir,
		Backup:    f.backup,
		DryRun:    f.dryRun,
		Filter:    filter,
	}
	if err := opts.Prepare(); err != nil {
		return err
	}

	files := batch.Select(collect(inputs, f.recursive), filter)
	if len(files) == 0 {
		return errNoFiles
	}

	printer := core.NewPrinter(stdout, f.jsonOut, f.quiet)
	if f.dryRun {
		printer.PrintDryRun(files)
	}

	workers := settings.WorkerCount()
	if f.workers > 0 {
		workers = f.workers
	}
	handlers := batch.Handlers{
		core.CategoryImage: image.New(settings.JPEGQuality),
		core.CategoryVideo: video.New(video.NewFFmpeg(settings.FFmpegPath, settings.FFprobePath, settings.ToolTimeout)),
		core.CategoryPDF:   document.New(),
	}

	bar := newProgress(stderr, len(files), f.quiet || f.jsonOut || f.dryRun)
	log.WithField("files", len(files)).WithField("workers", workers).WithField("filter", filter.String()).Debug("Processing")

	started := time.Now()
	outcomes, stats := batch.New(handlers, opts, workers, bar).Process(ctx, files)
	bar.Finish()

	if f.jsonOut {
		report := core.NewReport(uuid.NewString(), f.dryRun, started, time.Now(), outcomes)
		if err := printer.PrintReport(report); err != nil {
			return err
		}
	} else if !f.dryRun {
		if f.showMetadata {
			printer.PrintMetadataReport(outcomes)
		}
		if f.stats {
			printer.PrintStats(stats)
		}
		printer.PrintSummary(stats)
	}

	if stats.Failed > 0 {
		if !f.showMetadata || f.quiet {
			for _, o := range outcomes {
				if o.Err != nil {
					core.PrintError(stderr, fmt.Sprintf("%s: %v", o.File.Path, o.Err))
				}
			}
		}
		return fmt.Errorf("%w: %d of %d", errFilesFailed, stats.Failed, len(outcomes))
	}
	return nil
}
