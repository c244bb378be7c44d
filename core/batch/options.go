package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ankit-chaubey/metastrip/core"
)

// ErrConflictingFilters is returned when more than one category filter is set.
var ErrConflictingFilters = errors.New("only one file type filter can be used at a time")

// Filter restricts a run to one category.
type Filter int

const (
	// FilterNone keeps every known category.
	FilterNone Filter = iota
	FilterImages
	FilterVideos
	FilterPDFs
)

// FilterFromFlags turns the three --only-* switches into a Filter.
func FilterFromFlags(images, videos, pdfs bool) (Filter, error) {
	f, n := FilterNone, 0
	if images {
		f, n = FilterImages, n+1
	}
	if videos {
		f, n = FilterVideos, n+1
	}
	if pdfs {
		f, n = FilterPDFs, n+1
	}
	if n > 1 {
		return FilterNone, ErrConflictingFilters
	}
	return f, nil
}

// Allows reports whether files of category c pass the filter.
func (f Filter) Allows(c core.Category) bool {
	switch f {
	case FilterImages:
		return c == core.CategoryImage
	case FilterVideos:
		return c == core.CategoryVideo
	case FilterPDFs:
		return c == core.CategoryPDF
	default:
		return c != core.CategoryUnknown
	}
}

func (f Filter) String() string {
	switch f {
	case FilterImages:
		return "images"
	case FilterVideos:
		return "videos"
	case FilterPDFs:
		return "pdfs"
	default:
		return "all"
	}
}

// Select returns the files f allows, in their original order.
func Select(files []core.FileDescriptor, f Filter) []core.FileDescriptor {
	out := make([]core.FileDescriptor, 0, len(files))
	for _, fd := range files {
		if f.Allows(fd.Category) {
			out = append(out, fd)
		}
	}
	return out
}

// Options is the read-only run configuration shared by every worker.
type Options struct {
	// Overwrite writes results over the input files.
	Overwrite bool
	// OutputDir receives results when not overwriting. Empty means each
	// input's own directory.
	OutputDir string
	// Backup copies each input to <path>.bak before it is processed.
	Backup bool
	// DryRun reports what would be processed without touching any file.
	DryRun bool
	Filter Filter
}

// Prepare performs the checks that must pass before any file is touched.
// It creates OutputDir unless this is a dry run.
func (o Options) Prepare() error {
	if o.OutputDir == "" || o.DryRun || o.Overwrite {
		return nil
	}
	if err := os.MkdirAll(o.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", o.OutputDir, err)
	}
	return nil
}

// OutputPath returns where the stripped copy of path is written.
func (o Options) OutputPath(path string) string {
	if o.Overwrite {
		return path
	}
	dir := o.OutputDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return filepath.Join(dir, filepath.Base(path))
}
