// Package core defines the shared types, interfaces, and error taxonomy
// for metastrip.
package core

import "context"

// Category is the coarse classification that drives handler dispatch.
type Category string

const (
	CategoryImage   Category = "image"
	CategoryVideo   Category = "video"
	CategoryPDF     Category = "pdf"
	CategoryUnknown Category = "unknown"
)

// Label returns the display name used in reports ("Image", "Video", ...).
func (c Category) Label() string {
	switch c {
	case CategoryImage:
		return "Image"
	case CategoryVideo:
		return "Video"
	case CategoryPDF:
		return "PDF"
	default:
		return "Unknown"
	}
}

// Categories lists every category in report order.
var Categories = []Category{CategoryImage, CategoryVideo, CategoryPDF, CategoryUnknown}

// FileDescriptor is a classified input file. It is never mutated after
// Describe returns it.
type FileDescriptor struct {
	Path     string
	Category Category
}

// StripResult is what a handler reports after a successful strip.
type StripResult struct {
	// Items describes each removed metadata field, in extraction order.
	Items []string
	// Degraded is set when structured extraction failed and generic
	// placeholders were reported instead. Stripping still happened.
	Degraded bool
}

// Stripper is the interface every format handler implements.
type Stripper interface {
	// Strip writes a metadata-free copy of input to output and reports
	// what was removed. output may equal input.
	Strip(ctx context.Context, input, output string) (StripResult, error)
}

// Outcome is the per-file result of a batch run. Err == nil means success.
type Outcome struct {
	File     FileDescriptor
	Output   string
	Items    []string
	Err      error
	Degraded bool
	// Skipped marks an unknown-category file that was reported, not processed.
	Skipped bool
	// Simulated marks a dry-run pass; nothing was written.
	Simulated bool
}

// OK reports whether the file was handled without error.
func (o Outcome) OK() bool { return o.Err == nil }
