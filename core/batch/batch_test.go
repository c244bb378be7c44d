package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/metastrip/core"
)

// fakeStripper writes a marker file and reports one item per call, failing
// or panicking for configured paths.
type fakeStripper struct {
	fail   map[string]error
	panics map[string]bool
	delay  time.Duration
	calls  atomic.Int64
}

func (f *fakeStripper) Strip(ctx context.Context, input, output string) (core.StripResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	base := filepath.Base(input)
	if f.panics[base] {
		panic("boom: " + base)
	}
	if err := f.fail[base]; err != nil {
		return core.StripResult{}, err
	}
	if err := os.WriteFile(output, []byte("stripped"), 0o644); err != nil {
		return core.StripResult{}, core.IOError("write", output, err)
	}
	return core.StripResult{Items: []string{"Removed: " + base, "Other: x"}}, nil
}

func touch(t *testing.T, dir string, names ...string) []core.FileDescriptor {
	t.Helper()
	var files []core.FileDescriptor
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte("input "+n), 0o644))
		files = append(files, core.Describe(p))
	}
	return files
}

func allHandlers(s core.Stripper) Handlers {
	return Handlers{core.CategoryImage: s, core.CategoryVideo: s, core.CategoryPDF: s}
}

func TestProcess_FailureIsolationAndOrder(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	files := touch(t, in, "a.jpg", "bad.png", "c.mp4", "panic.pdf", "e.pdf", "notes.txt")
	s := &fakeStripper{
		fail:   map[string]error{"bad.png": fmt.Errorf("%w: bad.png", core.ErrDecode)},
		panics: map[string]bool{"panic.pdf": true},
	}

	outcomes, stats := New(allHandlers(s), Options{OutputDir: out}, 3, nil).Process(context.Background(), files)

	require.Len(t, outcomes, len(files))
	for i, o := range outcomes {
		assert.Equal(t, files[i], o.File, "outcome %d must match input %d", i, i)
	}

	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, core.ErrDecode)
	assert.NoError(t, outcomes[2].Err)
	assert.ErrorContains(t, outcomes[3].Err, "panic")
	assert.Nil(t, outcomes[3].Items)
	assert.NoError(t, outcomes[4].Err)
	assert.True(t, outcomes[5].Skipped)
	assert.Equal(t, []string{UnsupportedItem}, outcomes[5].Items)

	assert.Equal(t, 4, stats.Processed)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 6, stats.MetadataRemoved)
	assert.Equal(t, map[core.Category]int{
		core.CategoryImage:   2,
		core.CategoryVideo:   1,
		core.CategoryPDF:     2,
		core.CategoryUnknown: 1,
	}, stats.ByCategory)

	for _, name := range []string{"a.jpg", "c.mp4", "e.pdf"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
	assert.EqualValues(t, 5, s.calls.Load())
}

func TestProcess_StatsAreRecomputable(t *testing.T) {
	dir := t.TempDir()
	files := touch(t, dir, "a.jpg", "b.gif", "c.pdf")
	s := &fakeStripper{fail: map[string]error{"b.gif": errors.New("nope")}}

	outcomes, stats := New(allHandlers(s), Options{Overwrite: true}, 2, nil).Process(context.Background(), files)

	assert.Equal(t, stats, core.ComputeStats(outcomes))
	assert.Equal(t, core.ComputeStats(outcomes), core.ComputeStats(outcomes))
}

func TestProcess_DryRunTouchesNothing(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "not-created")
	files := touch(t, in, "a.jpg", "b.mov", "c.pdf", "notes.txt")
	s := &fakeStripper{}
	opts := Options{OutputDir: out, DryRun: true, Backup: true}

	require.NoError(t, opts.Prepare())
	outcomes, stats := New(allHandlers(s), opts, 0, nil).Process(context.Background(), files)

	assert.EqualValues(t, 0, s.calls.Load())
	for i, o := range outcomes {
		assert.True(t, o.Simulated, o.File.Path)
		assert.False(t, o.Skipped, o.File.Path)
		assert.Equal(t, core.StatusSimulated, core.StatusOf(o))
		assert.Equal(t, []string{DryRunItem}, o.Items)
		assert.Equal(t, filepath.Join(out, filepath.Base(files[i].Path)), o.Output)
	}
	assert.Equal(t, len(files), stats.Simulated)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 0, stats.MetadataRemoved)

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(in)
	require.NoError(t, err)
	assert.Len(t, entries, len(files), "no backups or outputs next to the inputs")
}

func TestProcess_Backup(t *testing.T) {
	dir := t.TempDir()
	files := touch(t, dir, "photo.jpg")

	outcomes, _ := New(allHandlers(&fakeStripper{}), Options{Overwrite: true, Backup: true}, 1, nil).
		Process(context.Background(), files)
	require.NoError(t, outcomes[0].Err)

	bak, err := os.ReadFile(files[0].Path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "input photo.jpg", string(bak))
	got, err := os.ReadFile(files[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "stripped", string(got))
}

func TestProcess_MissingHandler(t *testing.T) {
	dir := t.TempDir()
	files := touch(t, dir, "clip.mkv")

	outcomes, stats := New(Handlers{}, Options{Overwrite: true}, 1, nil).Process(context.Background(), files)
	assert.ErrorIs(t, outcomes[0].Err, core.ErrUnsupportedFormat)
	assert.Equal(t, 1, stats.Failed)
}

func TestProcess_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	files := touch(t, dir, "a.jpg", "b.jpg", "c.jpg")
	s := &fakeStripper{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes, stats := New(allHandlers(s), Options{Overwrite: true}, 1, nil).Process(ctx, files)

	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
	assert.Equal(t, 3, stats.Failed)
	assert.EqualValues(t, 0, s.calls.Load())
}

func TestProcess_ObserverSeesEveryFile(t *testing.T) {
	dir := t.TempDir()
	files := touch(t, dir, "a.jpg", "b.jpg", "c.pdf", "d.mp4", "e.doc")

	var mu sync.Mutex
	var dones []int
	obs := ObserverFunc(func(done, total int, o core.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 5, total)
		dones = append(dones, done)
	})

	New(allHandlers(&fakeStripper{delay: time.Millisecond}), Options{Overwrite: true}, 4, obs).
		Process(context.Background(), files)

	sort.Ints(dones)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, dones)
}

func TestProcess_Empty(t *testing.T) {
	outcomes, stats := New(nil, Options{}, 2, nil).Process(context.Background(), nil)
	assert.Empty(t, outcomes)
	assert.Equal(t, 0, stats.Processed)
	assert.NotNil(t, stats.ByCategory)
}
