// Package image strips metadata from raster images:
// JPEG/JPG, PNG, GIF, BMP, TIFF
//
// Stripping works by decoding the pixels and encoding them again; a fresh
// encode never carries the source's tag blocks forward.
package image

import (
	"bufio"
	"context"
	"fmt"
	stdimage "image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"golang.org/x/image/bmp"
	xtiff "golang.org/x/image/tiff"

	"github.com/ankit-chaubey/metastrip/core"
	"github.com/ankit-chaubey/metastrip/core/fsx"
	"github.com/ankit-chaubey/metastrip/core/logger"
)

var log = logger.WithName("image")

// Report items with a fixed wording.
const (
	NoReadableValues = "EXIF metadata was present but no readable values were found"
	GPSUnparsed      = "GPS Data: Present but could not be parsed"
)

// fallbackItems name what may have been removed when EXIF could not be read.
var fallbackItems = []string{
	"EXIF metadata (if present)",
	"GPS data (if present)",
	"Camera info (if present)",
}

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// Handler implements core.Stripper for image files.
type Handler struct {
	quality int
}

// New returns a Handler that encodes JPEG output at the given quality.
// Out-of-range values fall back to the encoder's default.
func New(jpegQuality int) *Handler {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = jpeg.DefaultQuality
	}
	return &Handler{quality: jpegQuality}
}

// encoder writes img in one output format.
type encoder func(w io.Writer, img stdimage.Image, quality int) error

// encoders is keyed by lowercase input extension; the output always uses
// the format the input's name implies.
var encoders = map[string]encoder{
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
	".png":  func(w io.Writer, img stdimage.Image, _ int) error { return png.Encode(w, img) },
	".gif":  func(w io.Writer, img stdimage.Image, _ int) error { return gif.Encode(w, img, nil) },
	".bmp":  func(w io.Writer, img stdimage.Image, _ int) error { return bmp.Encode(w, img) },
	".tiff": func(w io.Writer, img stdimage.Image, _ int) error { return xtiff.Encode(w, img, nil) },
}

func encodeJPEG(w io.Writer, img stdimage.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// Strip decodes input, reports its EXIF tags and writes a freshly encoded
// copy to output. output is only replaced once the encode has succeeded.
func (h *Handler) Strip(ctx context.Context, input, output string) (core.StripResult, error) {
	ext := core.Ext(input)
	enc, ok := encoders[ext]
	if !ok {
		return core.StripResult{}, fmt.Errorf("%w: image extension %q", core.ErrUnsupportedFormat, ext)
	}

	pic, err := decode(input, ext)
	if err != nil {
		return core.StripResult{}, err
	}

	items, degraded := ExtractOrDefault(input)

	if err := ctx.Err(); err != nil {
		return core.StripResult{}, err
	}

	err = fsx.WriteAtomic(output, fsx.FileMode(input, 0o644), func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		if err := pic.encode(bw, enc, h.quality); err != nil {
			return err
		}
		return bw.Flush()
	})
	if err != nil {
		return core.StripResult{}, core.IOError("write", output, err)
	}

	log.WithField("path", input).WithField("items", len(items)).Debug("Image re-encoded without metadata")
	return core.StripResult{Items: items, Degraded: degraded}, nil
}

// ─── Decode / Encode ─────────────────────────────────────────────────────────

// picture is a decoded image. GIFs keep every frame.
type picture struct {
	still stdimage.Image
	anim  *gif.GIF
}

func decode(path, ext string) (*picture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.IOError("open", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if ext == ".gif" {
		g, err := gif.DecodeAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", core.ErrDecode, path, err)
		}
		return &picture{anim: g}, nil
	}

	img, _, err := stdimage.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrDecode, path, err)
	}
	return &picture{still: img}, nil
}

func (p *picture) encode(w io.Writer, enc encoder, quality int) error {
	if p.anim != nil {
		return gif.EncodeAll(w, p.anim)
	}
	return enc(w, p.still, quality)
}

// ──────────────────────────────────────────────────────────────────────────────
// Extract
// ──────────────────────────────────────────────────────────────────────────────

// Extract reads the EXIF block of path and describes the camera, time, GPS
// and exposure tags it holds. It fails when no EXIF block can be parsed;
// a block without any of those tags yields the single NoReadableValues item.
func Extract(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.IOError("open", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return nil, fmt.Errorf("no EXIF block in %s: %w", path, err)
	}
	return describe(x), nil
}

// ExtractOrDefault returns Extract's items, or the generic fallback items
// with degraded set when Extract fails.
func ExtractOrDefault(path string) (items []string, degraded bool) {
	items, err := Extract(path)
	if err != nil {
		log.WithField("path", path).WithError(err).Debug("EXIF extraction failed, reporting generic categories")
		return append([]string(nil), fallbackItems...), true
	}
	return items, false
}

func describe(x *exif.Exif) []string {
	var items []string
	add := func(label string, name exif.FieldName) {
		if v, ok := tagValue(x, name); ok {
			items = append(items, label+": "+v)
		}
	}

	add("Camera Make", exif.Make)
	add("Camera Model", exif.Model)
	add("Software", exif.Software)
	add("Date/Time", exif.DateTime)
	add("Original Date/Time", exif.DateTimeOriginal)

	if gps, ok := gpsItem(x); ok {
		items = append(items, gps)
	}

	add("Exposure Time", exif.ExposureTime)
	if v, ok := apertureValue(x); ok {
		items = append(items, "Aperture: "+v)
	}
	add("ISO", exif.ISOSpeedRatings)

	if len(items) == 0 {
		items = append(items, NoReadableValues)
	}
	return items
}

// ─── GPS ─────────────────────────────────────────────────────────────────────

func gpsItem(x *exif.Exif) (string, bool) {
	lat, latErr := x.Get(exif.GPSLatitude)
	lon, lonErr := x.Get(exif.GPSLongitude)
	if latErr != nil && lonErr != nil {
		return "", false
	}

	var coords []string
	if c, ok := coordinate(x, lat, exif.GPSLatitudeRef); ok {
		coords = append(coords, c)
	}
	if c, ok := coordinate(x, lon, exif.GPSLongitudeRef); ok {
		coords = append(coords, c)
	}
	if len(coords) == 0 {
		return GPSUnparsed, true
	}
	return "GPS Location: " + strings.Join(coords, " "), true
}

// coordinate renders a degrees/minutes/seconds triplet plus its hemisphere
// reference. It needs three rationals and a non-empty ASCII reference.
func coordinate(x *exif.Exif, tag *tiff.Tag, refName exif.FieldName) (string, bool) {
	if tag == nil || tag.Format() != tiff.RatVal || tag.Count < 3 {
		return "", false
	}
	refTag, err := x.Get(refName)
	if err != nil || refTag.Format() != tiff.StringVal {
		return "", false
	}
	ref, err := refTag.StringVal()
	ref = strings.TrimSpace(ref)
	if err != nil || ref == "" {
		return "", false
	}

	var dms [3]float64
	for i := range dms {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return "", false
		}
		dms[i] = float64(num) / float64(den)
	}
	return fmt.Sprintf("%.6f° %.6f' %.6f\" %s", dms[0], dms[1], dms[2], ref), true
}

// ─── Values ──────────────────────────────────────────────────────────────────

func tagValue(x *exif.Exif, name exif.FieldName) (string, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return "", false
	}
	v := displayValue(tag)
	return v, v != ""
}

func apertureValue(x *exif.Exif) (string, bool) {
	tag, err := x.Get(exif.FNumber)
	if err != nil {
		return "", false
	}
	if tag.Format() == tiff.RatVal && tag.Count > 0 {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			return fmt.Sprintf("f/%.1f", float64(num)/float64(den)), true
		}
	}
	v := displayValue(tag)
	return v, v != ""
}

// displayValue renders a tag the way a person would read it: strings
// unquoted, rationals reduced, multiple values comma separated.
func displayValue(tag *tiff.Tag) string {
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case tiff.RatVal:
		parts := make([]string, 0, tag.Count)
		for i := 0; i < int(tag.Count); i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return ""
			}
			parts = append(parts, ratString(num, den))
		}
		return strings.Join(parts, ", ")
	case tiff.IntVal:
		parts := make([]string, 0, tag.Count)
		for i := 0; i < int(tag.Count); i++ {
			v, err := tag.Int(i)
			if err != nil {
				return ""
			}
			parts = append(parts, fmt.Sprint(v))
		}
		return strings.Join(parts, ", ")
	default:
		return strings.Trim(tag.String(), `"`)
	}
}

func ratString(num, den int64) string {
	if den == 0 {
		return fmt.Sprintf("%d/0", num)
	}
	return big.NewRat(num, den).RatString()
}
