package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/ankit-chaubey/metastrip/core"
)

// progress feeds the batch observer into a terminal progress bar. A
// hidden progress swallows every event.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer, total int, hidden bool) *progress {
	if hidden {
		return &progress{}
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Stripping"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "#",
			SaucerHead:    ">",
			SaucerPadding: "-",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
	return &progress{bar: bar}
}

func (p *progress) OnFileDone(done, total int, o core.Outcome) {
	if p.bar == nil {
		return
	}
	if o.Err != nil {
		p.bar.Describe(fmt.Sprintf("Stripping (%s failed)", o.File.Path))
	}
	p.bar.Add(1) //nolint:errcheck
}

func (p *progress) Finish() {
	if p.bar != nil {
		p.bar.Finish() //nolint:errcheck
	}
}
