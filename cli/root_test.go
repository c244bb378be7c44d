package main

import (
	"bytes"
	"context"
	"encoding/json"
	stdimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/metastrip/core"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Setenv("GO_ENV", "test")
	var out, errOut bytes.Buffer
	code = execute(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCLI_ConflictingFilters(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := runCLI(t, "--only-images", "--only-pdfs", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "only one file type filter")
}

func TestCLI_NoFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("hi"))

	code, _, stderr := runCLI(t, "-q", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no valid files found")
}

func TestCLI_RequiresInput(t *testing.T) {
	code, _, _ := runCLI(t)
	assert.Equal(t, 1, code)
}

func TestCLI_DryRunJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.png"), pngBytes(t))
	writeFile(t, filepath.Join(dir, "doc.pdf"), []byte("%PDF-1.4\n/Author (Jane Doe)\n"))
	out := filepath.Join(t.TempDir(), "clean")

	code, stdout, _ := runCLI(t, "--dry-run", "--json", "-o", out, dir)
	require.Equal(t, 0, code)

	var r core.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &r))
	assert.True(t, r.DryRun)
	assert.NotEmpty(t, r.RunID)
	require.Len(t, r.Files, 2)
	for _, f := range r.Files {
		assert.Equal(t, core.StatusSimulated, f.Status)
	}
	assert.Equal(t, 2, r.Stats.Simulated)

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "dry run must not create the output directory")
}

func TestCLI_DryRunText(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, filepath.Join(dir, "a.png"), pngBytes(t))

	code, stdout, _ := runCLI(t, "--dry-run", p)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "DRY RUN - No files will be modified")
	assert.Contains(t, stdout, p+" (Image)")
	assert.Contains(t, stdout, "Total: 1 files")
}

func TestCLI_StripToOutputDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "doc.pdf"), []byte("%PDF-1.4\n<< /Author(Jane Doe) >>\n"))
	writeFile(t, filepath.Join(dir, "pic.png"), pngBytes(t))
	writeFile(t, filepath.Join(dir, "readme.txt"), []byte("ignored"))
	out := filepath.Join(t.TempDir(), "clean")

	code, stdout, _ := runCLI(t, "-m", "-s", "-j", "2", "-o", out, dir)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "  - Author: Jane Doe")
	assert.Contains(t, stdout, "Files processed successfully: 2")
	assert.Contains(t, stdout, "PDFs: 1")

	for _, name := range []string{"doc.pdf", "pic.png"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
	_, err := os.Stat(filepath.Join(out, "readme.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestCLI_OnlyPDFs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "doc.pdf"), []byte("%PDF-1.4\n/Title (T)\n"))
	writeFile(t, filepath.Join(dir, "pic.png"), pngBytes(t))

	code, stdout, _ := runCLI(t, "--only-pdfs", "--json", "-w", dir)
	require.Equal(t, 0, code)

	var r core.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &r))
	require.Len(t, r.Files, 1)
	assert.Equal(t, core.CategoryPDF, r.Files[0].Category)
}

func TestCLI_FailureExitStatus(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"))
	writeFile(t, filepath.Join(dir, "doc.pdf"), []byte("%PDF-1.4\n/Title (T)\n"))

	code, stdout, stderr := runCLI(t, "-w", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "1 of 2 files failed")
	assert.Contains(t, stderr, "broken.jpg")
}

func TestCLI_Backup(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, filepath.Join(dir, "pic.png"), pngBytes(t))

	code, _, _ := runCLI(t, "-q", "-w", "-b", p)
	require.Equal(t, 0, code)

	_, err := os.Stat(p + ".bak")
	assert.NoError(t, err)
}

func TestCLI_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, filepath.Join(dir, "cfg", "metastrip.yml"), []byte("jpeg_quality: 150\n"))
	p := writeFile(t, filepath.Join(dir, "pic.png"), pngBytes(t))

	code, _, stderr := runCLI(t, "-c", cfg, p)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "jpeg_quality")
}
