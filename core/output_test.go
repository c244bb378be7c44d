package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func sampleOutcomes() []Outcome {
	return []Outcome{
		{File: Describe("a.jpg"), Output: "out/a.jpg", Items: []string{"Camera Make: Canon"}},
		{File: Describe("b.mp4"), Err: errors.New("ffmpeg failed: exit status 1")},
		{File: Describe("c.pdf"), Output: "out/c.pdf", Items: []string{"Title (if present)"}, Degraded: true},
		{File: Describe("d.txt"), Items: nil},
	}
}

func TestPrinter_DryRun(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, false, false).PrintDryRun([]FileDescriptor{Describe("a.jpg"), Describe("b.pdf")})

	assert.Equal(t, "DRY RUN - No files will be modified\n"+
		"\nFiles that would be processed:\n"+
		"  a.jpg (Image)\n"+
		"  b.pdf (PDF)\n"+
		"\nTotal: 2 files\n", buf.String())
}

func TestPrinter_MetadataReport(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, false, false).PrintMetadataReport(sampleOutcomes())

	out := buf.String()
	assert.Contains(t, out, "Removed metadata report:")
	assert.Contains(t, out, "\na.jpg:\n  - Camera Make: Canon\n")
	assert.Contains(t, out, "\nb.mp4: Failed - ffmpeg failed: exit status 1\n")
	assert.Contains(t, out, "c.pdf: (metadata could not be read")
	assert.NotContains(t, out, "d.txt")
}

func TestPrinter_Stats(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, false, false).PrintStats(ComputeStats(sampleOutcomes()))

	out := buf.String()
	assert.Contains(t, out, "  Files processed successfully: 3\n")
	assert.Contains(t, out, "  Files failed: 1\n")
	assert.Contains(t, out, "  Total metadata items removed: 2\n")
	assert.Contains(t, out, "  Files with generic report: 1\n")
	assert.Contains(t, out, "    Images: 1\n    Videos: 1\n    PDFs: 1\n    Unknown: 1\n")
}

func TestPrinter_QuietAndJSONSuppressText(t *testing.T) {
	for _, p := range []*Printer{
		NewPrinter(&bytes.Buffer{}, false, true),
		NewPrinter(&bytes.Buffer{}, true, false),
	} {
		p.PrintDryRun([]FileDescriptor{Describe("a.jpg")})
		p.PrintMetadataReport(sampleOutcomes())
		p.PrintStats(Stats{})
		p.PrintSummary(Stats{})
		assert.Empty(t, p.Writer.(*bytes.Buffer).String())
	}
}

func TestPrinter_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false, false)

	p.PrintSummary(Stats{Processed: 3})
	p.PrintSummary(Stats{Processed: 3, Failed: 1})
	assert.Equal(t, "✓ 3 files processed\n✗ 1 of 4 files failed\n", buf.String())
}

func TestPrinter_Report(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewReport("run-1", false, start, start.Add(time.Second), sampleOutcomes())

	require.NoError(t, NewPrinter(&buf, true, true).PrintReport(r))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	files := decoded["files"].([]any)
	require.Len(t, files, 4)
	assert.Equal(t, "failed", files[1].(map[string]any)["status"])
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, "no valid files found")
	assert.Equal(t, "✗ Error: no valid files found\n", buf.String())
}
