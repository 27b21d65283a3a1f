package autodoc

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Runner processes many files with a bounded number of workers.
type Runner struct {
	// Workers is the maximum number of files processed concurrently. Values below 1 mean 1 (sequential).
	Workers int

	Options Options
}

// Run processes paths and returns one result per path, in the order of paths. If emit is non-nil it is called with each result, also in the order of paths, as soon
// as that result and every earlier one are ready; emit is never called concurrently.
func (r Runner) Run(ctx context.Context, paths []string, emit func(FileResult)) Summary {
	workers := max(r.Workers, 1)
	results := make([]FileResult, len(paths))
	done := make([]chan struct{}, len(paths))
	for i := range done {
		done[i] = make(chan struct{})
	}

	emitted := make(chan struct{})
	go func() {
		defer close(emitted)
		for i := range paths {
			<-done[i]
			if emit != nil {
				emit(results[i])
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			defer close(done[i])
			results[i] = ProcessFile(ctx, path, r.Options)
			return nil
		})
	}
	_ = g.Wait()
	<-emitted

	return Summary{Results: results}
}

// Summary aggregates a run.
type Summary struct {
	Results []FileResult
}

// Failed reports whether any file could not be read or written. This is the only condition that makes a run fail; skipped declarations do not.
func (s Summary) Failed() bool {
	for _, r := range s.Results {
		if r.Failed() {
			return true
		}
	}
	return false
}

// Changed returns the number of files whose content changed.
func (s Summary) Changed() int {
	n := 0
	for _, r := range s.Results {
		if r.Changed() {
			n++
		}
	}
	return n
}

// Diagnostics returns every diagnostic of the run, grouped by file in run order.
func (s Summary) Diagnostics() []Diagnostic {
	var out []Diagnostic
	for _, r := range s.Results {
		out = append(out, r.Diagnostics...)
	}
	return out
}
