package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ankit-chaubey/metastrip/core"
)

// MediaTool is the external program pair the video handler depends on.
// Tests substitute a fake.
type MediaTool interface {
	// Available reports ErrToolUnavailable when either program is missing.
	Available() error
	// Probe returns the container and stream report for path.
	Probe(ctx context.Context, path string) (*Probe, error)
	// StripMetadata remuxes input into output with every metadata map
	// cleared and both streams copied unchanged.
	StripMetadata(ctx context.Context, input, output string) error
}

// Probe is the subset of ffprobe's JSON report the handler reads.
type Probe struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

type ProbeFormat struct {
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Tags       map[string]string `json:"tags"`
}

type ProbeStream struct {
	CodecType  string            `json:"codec_type"`
	CodecName  string            `json:"codec_name"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	RFrameRate string            `json:"r_frame_rate"`
	SampleRate string            `json:"sample_rate"`
	Channels   int               `json:"channels"`
	Tags       map[string]string `json:"tags"`
}

// Empty reports whether the probe carries nothing worth describing.
func (p *Probe) Empty() bool {
	return p == nil || (len(p.Format.Tags) == 0 && p.Format.FormatName == "" &&
		p.Format.Duration == "" && len(p.Streams) == 0)
}

// FFmpeg runs the ffprobe and ffmpeg binaries.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
	// Timeout bounds each invocation. Zero means no limit.
	Timeout time.Duration
}

// NewFFmpeg returns an FFmpeg using the given binary names or paths.
// Empty names default to "ffmpeg" and "ffprobe".
func NewFFmpeg(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath, Timeout: timeout}
}

func (f *FFmpeg) Available() error {
	for _, bin := range []string{f.FFprobePath, f.FFmpegPath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%w: %s: %w", core.ErrToolUnavailable, bin, err)
		}
	}
	return nil
}

func (f *FFmpeg) Probe(ctx context.Context, path string) (*Probe, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		argPath(path),
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.WithField("path", path).Debug("Probing video container")

	if err := cmd.Run(); err != nil {
		return nil, &core.ToolExecutionError{Tool: "ffprobe", Diagnostic: strings.TrimSpace(stderr.String()), Err: err}
	}

	var p Probe
	if err := json.Unmarshal(stdout.Bytes(), &p); err != nil {
		return nil, fmt.Errorf("%w: ffprobe report for %s: %w", core.ErrDecode, path, err)
	}
	return &p, nil
}

func (f *FFmpeg) StripMetadata(ctx context.Context, input, output string) error {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.FFmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", argPath(input),
		"-map_metadata", "-1",
		"-c:v", "copy",
		"-c:a", "copy",
		"-fflags", "+bitexact",
		argPath(output),
	)
	cmd.Stderr = &stderr

	log.WithField("input", input).WithField("output", output).Debug("Remuxing without metadata")

	if err := cmd.Run(); err != nil {
		return &core.ToolExecutionError{Tool: "ffmpeg", Diagnostic: strings.TrimSpace(stderr.String()), Err: err}
	}
	return nil
}

func (f *FFmpeg) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.Timeout > 0 {
		return context.WithTimeout(ctx, f.Timeout)
	}
	return context.WithCancel(ctx)
}

// argPath keeps a relative path that starts with '-' from being read as
// an option.
func argPath(p string) string {
	if strings.HasPrefix(p, "-") {
		return "./" + p
	}
	return p
}
