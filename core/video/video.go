// Package video strips container metadata from video files:
// MP4, MOV, AVI, MKV
//
// Streams are never re-encoded: the external tool remuxes with every
// metadata map cleared, so only container tags differ from the input.
package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/ankit-chaubey/metastrip/core"
	"github.com/ankit-chaubey/metastrip/core/fsx"
	"github.com/ankit-chaubey/metastrip/core/logger"
)

var log = logger.WithName("video")

// fallbackItems name what may have been removed when nothing could be read.
var fallbackItems = []string{
	"Creation time (if present)",
	"Encoder information (if present)",
	"Device information (if present)",
	"GPS location (if present)",
	"All metadata headers",
}

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// Handler implements core.Stripper for video files.
type Handler struct {
	tool MediaTool
}

// New returns a Handler driving tool.
func New(tool MediaTool) *Handler { return &Handler{tool: tool} }

// Strip reports input's container tags and remuxes it into output with
// all metadata cleared. The tool writes to a temporary sibling of output
// which is renamed into place only when the tool succeeded.
func (h *Handler) Strip(ctx context.Context, input, output string) (core.StripResult, error) {
	if err := h.tool.Available(); err != nil {
		if !errors.Is(err, core.ErrToolUnavailable) {
			err = fmt.Errorf("%w: %w", core.ErrToolUnavailable, err)
		}
		return core.StripResult{}, err
	}
	if _, err := os.Stat(input); err != nil {
		return core.StripResult{}, core.IOError("stat", input, err)
	}

	items, degraded := h.ExtractOrDefault(ctx, input)

	tmp, err := fsx.TempSibling(output)
	if err != nil {
		return core.StripResult{}, core.IOError("create temp for", output, err)
	}
	if err := h.tool.StripMetadata(ctx, input, tmp); err != nil {
		_ = os.Remove(tmp)
		return core.StripResult{}, err
	}
	if err := fsx.Rename(tmp, output); err != nil {
		_ = os.Remove(tmp)
		return core.StripResult{}, core.IOError("rename", output, err)
	}

	log.WithField("path", input).WithField("items", len(items)).Debug("Video remuxed without metadata")
	return core.StripResult{Items: items, Degraded: degraded}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Extract
// ──────────────────────────────────────────────────────────────────────────────

// Extract describes the container and stream tags of path. The tool's
// probe is tried first; when it fails or reports nothing, MP4/MOV atoms
// are read directly.
func (h *Handler) Extract(ctx context.Context, path string) ([]string, error) {
	p, probeErr := h.tool.Probe(ctx, path)
	if probeErr == nil && !p.Empty() {
		return describe(p), nil
	}
	if probeErr == nil {
		probeErr = errors.New("probe reported nothing")
	}

	items, err := readNative(path)
	if err != nil {
		return nil, fmt.Errorf("probe: %w; native: %w", probeErr, err)
	}
	return items, nil
}

// ExtractOrDefault returns Extract's items, or the generic fallback items
// with degraded set when Extract fails.
func (h *Handler) ExtractOrDefault(ctx context.Context, path string) (items []string, degraded bool) {
	items, err := h.Extract(ctx, path)
	if err != nil {
		log.WithField("path", path).WithError(err).Debug("Video extraction failed, reporting generic categories")
		return append([]string(nil), fallbackItems...), true
	}
	return items, false
}

// ─── Probe report ────────────────────────────────────────────────────────────

// knownTag pairs a display label with the key spellings that carry it.
type knownTag struct {
	label string
	keys  []string
}

// containerTags are reported first, in this order. Keys are matched
// case-insensitively.
var containerTags = []knownTag{
	{"Title", []string{"title"}},
	{"Artist", []string{"artist"}},
	{"Album", []string{"album"}},
	{"Date", []string{"date"}},
	{"Creation Time", []string{"creation_time"}},
	{"Encoder", []string{"encoder"}},
	{"Handler", []string{"handler_name"}},
	{"Device Make", []string{"make", "com.apple.quicktime.make"}},
	{"Device Model", []string{"model", "com.apple.quicktime.model"}},
	{"Location", []string{"location", "location-eng"}},
	{"GPS Location", []string{"com.apple.quicktime.location.ISO6709"}},
}

var streamTags = []knownTag{
	{"Creation Time", []string{"creation_time"}},
	{"Language", []string{"language"}},
	{"Handler", []string{"handler_name"}},
}

func describe(p *Probe) []string {
	var items []string

	tags := lowerKeys(p.Format.Tags)
	seen := map[string]bool{}
	for _, kt := range containerTags {
		for _, k := range kt.keys {
			k = strings.ToLower(k)
			if v := strings.TrimSpace(tags[k]); v != "" {
				items = append(items, kt.label+": "+v)
			}
			seen[k] = true
		}
	}

	rest := make([]string, 0, len(tags))
	for k := range tags {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		if v := strings.TrimSpace(tags[k]); v != "" {
			items = append(items, k+": "+v)
		}
	}

	if p.Format.FormatName != "" {
		items = append(items, "Container Format: "+p.Format.FormatName)
	}
	if p.Format.Duration != "" {
		items = append(items, "Duration: "+formatDuration(p.Format.Duration))
	}

	if s := firstStream(p.Streams, "video"); s != nil {
		if s.CodecName != "" {
			items = append(items, "Video Codec: "+s.CodecName)
		}
		if s.Width > 0 && s.Height > 0 {
			items = append(items, fmt.Sprintf("Resolution: %dx%d", s.Width, s.Height))
		}
		if fr := formatFrameRate(s.RFrameRate); fr != "" {
			items = append(items, "Frame Rate: "+fr)
		}
		items = append(items, streamTagItems("Video Stream", s.Tags)...)
	}

	if s := firstStream(p.Streams, "audio"); s != nil {
		if s.CodecName != "" {
			items = append(items, "Audio Codec: "+s.CodecName)
		}
		if s.SampleRate != "" {
			items = append(items, "Sample Rate: "+s.SampleRate+" Hz")
		}
		if s.Channels > 0 {
			items = append(items, "Channels: "+strconv.Itoa(s.Channels))
		}
		items = append(items, streamTagItems("Audio Stream", s.Tags)...)
	}

	return items
}

func streamTagItems(prefix string, raw map[string]string) []string {
	tags := lowerKeys(raw)
	var items []string
	for _, kt := range streamTags {
		if v := strings.TrimSpace(tags[kt.keys[0]]); v != "" {
			items = append(items, prefix+" "+kt.label+": "+v)
		}
	}
	return items
}

func firstStream(streams []ProbeStream, codecType string) *ProbeStream {
	for i := range streams {
		if streams[i].CodecType == codecType {
			return &streams[i]
		}
	}
	return nil
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		lk := strings.ToLower(k)
		if _, dup := out[lk]; dup && k != lk {
			continue
		}
		out[lk] = v
	}
	return out
}

// formatDuration renders ffprobe's seconds string; unparsable values are
// passed through.
func formatDuration(s string) string {
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%.2f seconds", secs)
}

// formatFrameRate turns ffprobe's "num/den" into frames per second.
func formatFrameRate(r string) string {
	num, den, ok := strings.Cut(r, "/")
	if !ok {
		return r
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 || n == 0 {
		return ""
	}
	return fmt.Sprintf("%.2f fps", n/d)
}

// ─── Native atoms ────────────────────────────────────────────────────────────

// readNative reads iTunes-style MP4/MOV atoms without the external tool.
func readNative(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.IOError("open", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrDecode, path, err)
	}

	var items []string
	add := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			items = append(items, label+": "+v)
		}
	}
	add("Title", m.Title())
	add("Artist", m.Artist())
	add("Album", m.Album())
	if y := m.Year(); y > 0 {
		add("Date", strconv.Itoa(y))
	}
	add("Genre", m.Genre())
	add("Composer", m.Composer())
	add("Comment", m.Comment())
	if enc, ok := m.Raw()["\xa9too"].(string); ok {
		add("Encoder", enc)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no container tags in %s", path)
	}
	return items, nil
}
