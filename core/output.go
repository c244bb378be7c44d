package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	failColor = color.New(color.FgHiRed, color.Bold)
	okColor   = color.New(color.FgHiGreen)
	headColor = color.New(color.Bold)
)

// pluralLabels are the per-category headings of the stats block.
var pluralLabels = map[Category]string{
	CategoryImage:   "Images",
	CategoryVideo:   "Videos",
	CategoryPDF:     "PDFs",
	CategoryUnknown: "Unknown",
}

// Printer renders run results. It never writes anywhere but Writer.
type Printer struct {
	JSON   bool
	Quiet  bool
	Writer io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, jsonMode, quiet bool) *Printer {
	return &Printer{JSON: jsonMode, Quiet: quiet, Writer: w}
}

// silent reports whether human-readable output is suppressed.
func (p *Printer) silent() bool { return p.Quiet || p.JSON }

// PrintDryRun lists the files a dry run would process.
func (p *Printer) PrintDryRun(files []FileDescriptor) {
	if p.silent() {
		return
	}
	headColor.Fprintln(p.Writer, "DRY RUN - No files will be modified")
	fmt.Fprintln(p.Writer, "\nFiles that would be processed:")
	for _, f := range files {
		fmt.Fprintf(p.Writer, "  %s (%s)\n", f.Path, f.Category.Label())
	}
	fmt.Fprintf(p.Writer, "\nTotal: %d files\n", len(files))
}

// PrintMetadataReport lists, per file, the removed items or the failure.
// Successful files without items are left out.
func (p *Printer) PrintMetadataReport(outcomes []Outcome) {
	if p.silent() {
		return
	}
	headColor.Fprintln(p.Writer, "\nRemoved metadata report:")
	for _, o := range outcomes {
		if o.Err != nil {
			failColor.Fprintf(p.Writer, "\n%s: Failed - %v\n", o.File.Path, o.Err)
			continue
		}
		if len(o.Items) == 0 {
			continue
		}
		suffix := ""
		if o.Degraded {
			suffix = " (metadata could not be read, showing what may have been removed)"
		}
		fmt.Fprintf(p.Writer, "\n%s:%s\n", o.File.Path, suffix)
		for _, item := range o.Items {
			fmt.Fprintf(p.Writer, "  - %s\n", item)
		}
	}
}

// PrintStats renders the aggregate counters.
func (p *Printer) PrintStats(s Stats) {
	if p.silent() {
		return
	}
	headColor.Fprintln(p.Writer, "\nProcessing Statistics:")
	fmt.Fprintf(p.Writer, "  Files processed successfully: %d\n", s.Processed)
	if s.Failed > 0 {
		failColor.Fprintf(p.Writer, "  Files failed: %d\n", s.Failed)
	} else {
		fmt.Fprintf(p.Writer, "  Files failed: %d\n", s.Failed)
	}
	fmt.Fprintf(p.Writer, "  Total metadata items removed: %d\n", s.MetadataRemoved)
	if s.Skipped > 0 {
		fmt.Fprintf(p.Writer, "  Files skipped (unsupported): %d\n", s.Skipped)
	}
	if s.Simulated > 0 {
		fmt.Fprintf(p.Writer, "  Files simulated (dry run): %d\n", s.Simulated)
	}
	if s.Degraded > 0 {
		fmt.Fprintf(p.Writer, "  Files with generic report: %d\n", s.Degraded)
	}

	fmt.Fprintln(p.Writer, "\n  By File Type:")
	for _, c := range Categories {
		if n := s.ByCategory[c]; n > 0 {
			fmt.Fprintf(p.Writer, "    %s: %d\n", pluralLabels[c], n)
		}
	}
}

// PrintSummary prints a single closing line.
func (p *Printer) PrintSummary(s Stats) {
	if p.silent() {
		return
	}
	if s.Failed > 0 {
		failColor.Fprintf(p.Writer, "✗ %d of %d files failed\n", s.Failed, s.Failed+s.Processed)
		return
	}
	okColor.Fprintf(p.Writer, "✓ %d files processed\n", s.Processed)
}

// PrintReport writes r as indented JSON. It is the only output in JSON
// mode and is printed even when quiet.
func (p *Printer) PrintReport(r Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = fmt.Fprintln(p.Writer, string(b))
	return err
}

// PrintError prints an error line to w.
func PrintError(w io.Writer, msg string) {
	failColor.Fprintln(w, "✗ Error: "+msg)
}
