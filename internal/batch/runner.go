// Package batch computes Merkle roots for every file in a directory and
// appends one report record per file, isolating failures to the file that
// caused them.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kunal-geeks/chunkroot/internal/config"
	"github.com/kunal-geeks/chunkroot/internal/merkle"
	"github.com/kunal-geeks/chunkroot/internal/report"
)

// Outcome is what happened to one file of the batch.
// Exactly one of Result and Err is meaningful.
type Outcome struct {
	Index  int
	Path   string
	Result Result
	Err    error
}

// Summary aggregates the outcomes of a run, in file order.
type Summary struct {
	Outcomes  []Outcome
	Succeeded int
	Failed    int
}

// Failures returns the outcomes that carry an error.
func (s *Summary) Failures() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// RunnerOpts configures a Runner.
type RunnerOpts struct {
	Config config.Config
	Sink   report.Sink
	Logger *slog.Logger
}

// Runner processes one directory per Run.
type Runner struct {
	cfg    config.Config
	sink   report.Sink
	logger *slog.Logger
}

// NewRunner validates the configuration and returns a Runner.
func NewRunner(opts RunnerOpts) (*Runner, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("NewRunner: %w", err)
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("NewRunner: sink is nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		cfg:    opts.Config,
		sink:   opts.Sink,
		logger: logger,
	}, nil
}

// Run lists the input directory, computes every file's root on up to
// Config.Workers goroutines and appends the records to the sink in file
// order. A file that cannot be read or hashed, or whose record cannot be
// appended, is logged and recorded in the Summary; the remaining files are
// still processed.
//
// Run only returns an error when the directory cannot be listed. When ctx
// is cancelled no further files are started; files that were not started
// carry ctx.Err().
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	paths, err := ListFiles(r.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}

	r.logger.Info("batch started",
		"dir", r.cfg.InputDir,
		"files", len(paths),
		"chunk_size", r.cfg.ChunkSize,
		"hash", r.cfg.Hash.String(),
		"workers", r.cfg.Workers,
	)

	summary := &Summary{Outcomes: make([]Outcome, 0, len(paths))}

	for o := range r.compute(ctx, paths) {
		if o.Err == nil {
			if err := r.sink.Append(o.Result.Record); err != nil {
				o.Err = &FileError{Path: o.Path, Op: OpWrite, Err: err}
			}
		}

		if o.Err != nil {
			summary.Failed++
			r.logger.Error("file failed", "file", o.Path, "error", o.Err)
		} else {
			summary.Succeeded++
			r.logger.Info("root computed",
				"file", o.Result.Record.FileName,
				"size", o.Result.Record.FileSizeBytes,
				"root", o.Result.Record.MerkleRootHex,
				"elapsed_ms", o.Result.Record.ElapsedMs,
			)
			r.logger.Debug("tree shape",
				"file", o.Result.Record.FileName,
				"leaves", o.Result.Leaves,
				"levels", merkle.Depth(o.Result.Leaves),
			)
		}

		summary.Outcomes = append(summary.Outcomes, o)
	}

	r.logger.Info("batch finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)

	return summary, nil
}

// compute fans the paths out to a bounded pool of workers and returns a
// channel that yields one Outcome per path, in path order.
func (r *Runner) compute(ctx context.Context, paths []string) <-chan Outcome {
	jobs := make(chan int)
	done := make(chan Outcome)
	ordered := make(chan Outcome)

	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := ComputeFile(paths[i], r.cfg.ChunkSize, r.cfg.Hash)
				done <- Outcome{Index: i, Path: paths[i], Result: res, Err: err}
			}
		}()
	}

	// Dispatcher: stop handing out work once ctx is done and report the
	// rest as cancelled.
	go func() {
		defer close(jobs)
		for i := range paths {
			if ctx.Err() == nil {
				select {
				case jobs <- i:
					continue
				case <-ctx.Done():
				}
			}
			for j := i; j < len(paths); j++ {
				done <- Outcome{Index: j, Path: paths[j], Err: ctx.Err()}
			}
			return
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	// Reorder completions so records are emitted in file order.
	go func() {
		defer close(ordered)
		pending := make(map[int]Outcome)
		next := 0
		for o := range done {
			pending[o.Index] = o
			for {
				p, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				ordered <- p
				next++
			}
		}
	}()

	return ordered
}
