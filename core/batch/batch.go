// Package batch fans classified files out to their format handlers on a
// bounded worker pool and folds the per-file outcomes into stats.
//
// Every file gets exactly one outcome at the index it was submitted at.
// A handler error or panic is recorded in that file's outcome and never
// reaches another file.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ankit-chaubey/metastrip/core"
	"github.com/ankit-chaubey/metastrip/core/fsx"
	"github.com/ankit-chaubey/metastrip/core/logger"
)

var log = logger.WithName("batch")

// Placeholder items for files that are reported without being processed.
const (
	UnsupportedItem = "Unsupported file type - no metadata removed"
	DryRunItem      = "Dry run - no metadata removed"
)

// Observer receives one event per finished file. Calls come from worker
// goroutines; implementations must be safe for concurrent use. done is
// the number of files finished so far, counting this one.
type Observer interface {
	OnFileDone(done, total int, o core.Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(done, total int, o core.Outcome)

func (f ObserverFunc) OnFileDone(done, total int, o core.Outcome) { f(done, total, o) }

type nopObserver struct{}

func (nopObserver) OnFileDone(int, int, core.Outcome) {}

// Handlers maps each processable category to its handler.
type Handlers map[core.Category]core.Stripper

// Processor runs batches. It holds no per-run state and may be reused.
type Processor struct {
	handlers Handlers
	opts     Options
	workers  int
	observer Observer
}

// New returns a Processor. workers <= 0 means runtime.NumCPU(); a nil
// observer is allowed.
func New(handlers Handlers, opts Options, workers int, obs Observer) *Processor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if obs == nil {
		obs = nopObserver{}
	}
	return &Processor{handlers: handlers, opts: opts, workers: workers, observer: obs}
}

// Process handles every file and returns the outcomes, index-aligned with
// files, plus the stats folded from them. Cancelling ctx stops new files
// from starting; those files get ctx's error as their outcome.
func (p *Processor) Process(ctx context.Context, files []core.FileDescriptor) ([]core.Outcome, core.Stats) {
	results := make([]core.Outcome, len(files))
	total := len(files)
	var done atomic.Int64

	finish := func(i int, o core.Outcome) {
		results[i] = o
		p.observer.OnFileDone(int(done.Add(1)), total, o)
	}

	var g errgroup.Group
	g.SetLimit(p.workers)

	log.WithField("files", total).WithField("workers", p.workers).WithField("dry_run", p.opts.DryRun).Debug("Batch started")

	for i, fd := range files {
		if err := ctx.Err(); err != nil {
			finish(i, core.Outcome{File: fd, Output: p.opts.OutputPath(fd.Path), Err: err})
			continue
		}
		i, fd := i, fd
		g.Go(func() error {
			finish(i, p.processOne(ctx, fd))
			return nil
		})
	}
	_ = g.Wait()

	stats := core.ComputeStats(results)
	log.WithField("processed", stats.Processed).WithField("failed", stats.Failed).Debug("Batch finished")
	return results, stats
}

func (p *Processor) processOne(ctx context.Context, fd core.FileDescriptor) (out core.Outcome) {
	out = core.Outcome{File: fd}
	entry := log.WithField("path", fd.Path).WithField("category", string(fd.Category))

	defer func() {
		if r := recover(); r != nil {
			entry.WithField("panic", r).Error("Handler panicked")
			out.Items = nil
			out.Err = fmt.Errorf("panic while processing %s: %v", fd.Path, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	if p.opts.DryRun {
		out.Output = p.opts.OutputPath(fd.Path)
		out.Items = []string{DryRunItem}
		out.Simulated = true
		return out
	}

	if fd.Category == core.CategoryUnknown {
		entry.Warn("Unsupported file type")
		out.Items = []string{UnsupportedItem}
		out.Skipped = true
		return out
	}

	out.Output = p.opts.OutputPath(fd.Path)

	h, ok := p.handlers[fd.Category]
	if !ok {
		out.Err = fmt.Errorf("%w: no handler registered for %s files", core.ErrUnsupportedFormat, fd.Category)
		return out
	}

	if p.opts.Backup {
		if bak, err := fsx.Backup(fd.Path); err != nil {
			entry.WithError(err).Warn("Failed to create backup")
		} else {
			entry.WithField("backup", bak).Debug("Backup created")
		}
	}

	res, err := h.Strip(ctx, fd.Path, out.Output)
	if err != nil {
		entry.WithError(err).Debug("File failed")
		out.Err = err
		return out
	}

	out.Items = res.Items
	out.Degraded = res.Degraded
	entry.WithField("items", len(res.Items)).WithField("degraded", res.Degraded).Debug("Successfully processed")
	return out
}
