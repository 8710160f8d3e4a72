// Package tree drives the patch engine across a batch of files: for each
// entry in a file list it diffs the destination file against its counterpart
// in the source tree and re-applies the patch to the destination in place.
// An empty source file deletes the destination; a missing destination is
// created empty before patching.
package tree

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/srctree/treepatch/internal/report"
	"github.com/srctree/treepatch/pkg/patch"
)

// ErrHunkFailure is returned by PatchAll when at least one hunk could not be
// applied. Since every patch is computed from the destination text it is then
// applied to, a failed hunk means the destination changed between the read
// and the apply, or the engine has a defect; either way the run must not be
// reported as clean.
var ErrHunkFailure = errors.New("one or more patch hunks failed to apply")

// Outcome classifies what happened to a single file-list entry.
type Outcome int

const (
	// OutcomePatched: destination existed and was patched in place.
	OutcomePatched Outcome = iota
	// OutcomeCreated: destination was missing, created and patched.
	OutcomeCreated
	// OutcomeDeleted: source was empty, destination removed.
	OutcomeDeleted
	// OutcomeSkipped: source missing or unreadable, destination untouched.
	OutcomeSkipped
	// OutcomeFailed: hunks failed to apply; best-effort output was written.
	OutcomeFailed
)

// Summary tallies entry outcomes for one PatchAll run.
type Summary struct {
	Patched int
	Created int
	Deleted int
	Skipped int
	Failed  int
}

func (s *Summary) add(o Outcome) {
	switch o {
	case OutcomePatched:
		s.Patched++
	case OutcomeCreated:
		s.Created++
	case OutcomeDeleted:
		s.Deleted++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// String renders the tally for the end-of-run diagnostic line.
func (s Summary) String() string {
	return fmt.Sprintf("patched %d, created %d, deleted %d, skipped %d, failed %d",
		s.Patched, s.Created, s.Deleted, s.Skipped, s.Failed)
}

// Options configure a Patcher.
type Options struct {
	// Jobs is the number of entries patched concurrently; values below 2
	// select the sequential path. Entries are independent, so any value is
	// safe as long as the file list targets disjoint paths.
	Jobs int
	// KeepGoing processes the full list even after an entry reports hunk
	// failures. The default is to stop at the first one, since a hunk
	// failure on a self-derived patch indicates a race or an engine defect.
	KeepGoing bool
	// Engine is forwarded to the patch engine for every entry.
	Engine patch.Options
}

// task pairs one relative path with its resolved source and destination
// paths. Tasks are built per entry and discarded once the entry's filesystem
// side effect completes.
type task struct {
	rel string
	src string
	dst string
}

// applyTextFunc computes the patch for one entry and applies it back to the
// base text. Swappable in tests to simulate the destination racing between
// the read and the apply, which is the only way a hunk can fail here.
type applyTextFunc func(base, goal string, opts patch.Options) patch.Result

func engineApply(base, goal string, opts patch.Options) patch.Result {
	return patch.ComputeWith(base, goal, opts).Apply(base)
}

// Patcher applies a file list against a source and destination root.
type Patcher struct {
	files     []string
	srcDir    string
	dstDir    string
	rep       *report.Reporter
	opts      Options
	applyText applyTextFunc
}

// NormalizeRoot appends a trailing path separator to dir if absent, so that
// relative paths compose against it directly.
func NormalizeRoot(dir string) string {
	if !strings.HasSuffix(dir, string(os.PathSeparator)) {
		return dir + string(os.PathSeparator)
	}
	return dir
}

// New creates a Patcher for the given file list and roots. A nil reporter
// discards diagnostics.
func New(files []string, srcDir, dstDir string, rep *report.Reporter, opts Options) *Patcher {
	if rep == nil {
		rep = report.New(nil, false)
	}
	return &Patcher{
		files:     files,
		srcDir:    NormalizeRoot(srcDir),
		dstDir:    NormalizeRoot(dstDir),
		rep:       rep,
		opts:      opts,
		applyText: engineApply,
	}
}

// PatchAll processes every entry in list order (or concurrently when
// Options.Jobs > 1). It returns ErrHunkFailure if any entry's patch did not
// apply in full, and a fatal error for contract violations such as an
// unwritable destination. Missing sources are reported, tallied as skipped
// and never abort the batch.
func (p *Patcher) PatchAll(ctx context.Context) (Summary, error) {
	if p.opts.Jobs > 1 {
		return p.patchParallel(ctx)
	}
	return p.patchSequential(ctx)
}

func (p *Patcher) patchSequential(ctx context.Context) (Summary, error) {
	var sum Summary
	for _, rel := range p.files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		out, err := p.patchOne(p.taskFor(rel))
		if err != nil {
			return sum, err
		}
		sum.add(out)
		if out == OutcomeFailed && !p.opts.KeepGoing {
			break
		}
	}
	return sum, p.finish(sum)
}

func (p *Patcher) patchParallel(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type entryResult struct {
		outcome Outcome
		err     error
	}

	entries := make(chan task)
	results := make(chan entryResult, len(p.files))

	var wg sync.WaitGroup
	for i := 0; i < p.opts.Jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range entries {
				out, err := p.patchOne(t)
				results <- entryResult{outcome: out, err: err}
				if err != nil || (out == OutcomeFailed && !p.opts.KeepGoing) {
					cancel()
				}
			}
		}()
	}

	go func() {
		defer close(entries)
		for _, rel := range p.files {
			select {
			case entries <- p.taskFor(rel):
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	var sum Summary
	var firstErr error
	for r := range results {
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
		if r.err == nil {
			sum.add(r.outcome)
		}
	}
	if firstErr != nil {
		return sum, firstErr
	}
	return sum, p.finish(sum)
}

func (p *Patcher) finish(sum Summary) error {
	if sum.Failed > 0 {
		return ErrHunkFailure
	}
	return nil
}

func (p *Patcher) taskFor(rel string) task {
	return task{rel: rel, src: p.srcDir + rel, dst: p.dstDir + rel}
}

// patchOne runs a single entry through its lifecycle. The returned error is
// reserved for contract violations (cannot create, write or remove the
// destination); recoverable conditions are reported and encoded in the
// Outcome instead.
func (p *Patcher) patchOne(t task) (Outcome, error) {
	p.rep.Info("Patching: %s , using %s", t.dst, t.src)

	dstText, created, err := p.loadDestination(t)
	if err != nil {
		return OutcomeFailed, err
	}

	srcContent, err := os.ReadFile(t.src)
	if err != nil {
		p.rep.Warn("Could not open or read source file (%v)", err)
		return OutcomeSkipped, nil
	}

	if len(srcContent) == 0 {
		if err := os.Remove(t.dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return OutcomeFailed, fmt.Errorf("remove %s: %w", t.dst, err)
		}
		p.rep.Info("Removed dst due to empty src: %s", t.dst)
		return OutcomeDeleted, nil
	}

	res := p.applyText(dstText, string(srcContent), p.opts.Engine)
	if err := os.WriteFile(t.dst, []byte(res.Text), 0o644); err != nil {
		return OutcomeFailed, fmt.Errorf("write %s: %w", t.dst, err)
	}
	if !res.Applied() {
		p.rep.Error("Patch did not apply cleanly to %s: %s", t.dst, res.Describe())
		return OutcomeFailed, nil
	}
	if created {
		return OutcomeCreated, nil
	}
	return OutcomePatched, nil
}

// loadDestination reads the destination file, creating it empty (with any
// missing parent directories) when absent.
func (p *Patcher) loadDestination(t task) (text string, created bool, err error) {
	content, err := os.ReadFile(t.dst)
	if err == nil {
		return string(content), false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", false, fmt.Errorf("read %s: %w", t.dst, err)
	}
	if err := os.MkdirAll(filepath.Dir(t.dst), 0o755); err != nil {
		return "", false, fmt.Errorf("create parent directories for %s: %w", t.dst, err)
	}
	if err := os.WriteFile(t.dst, nil, 0o644); err != nil {
		return "", false, fmt.Errorf("create %s: %w", t.dst, err)
	}
	p.rep.Info("Created the missing dst file: %s", t.dst)
	return "", true, nil
}
