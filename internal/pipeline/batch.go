package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/config"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/errors"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/logging"
)

// BatchOptions configure a batch run.
type BatchOptions struct {
	Config *config.Config

	// Directories lists the batch units in build order. Empty derives the
	// list from the configuration.
	Directories []string

	Overrides map[string]rune

	// Cache and Metrics are handed to every pipeline of the run.
	Cache   *ResultCache
	Metrics *Metrics

	Logger logging.Logger

	Timestamp time.Time
}

// BatchScheduler builds many directories in bounded-concurrency chunks.
// Chunks run strictly in order: a chunk starts only after every build of the
// previous chunk has finished, and the directories inside one chunk build
// concurrently.
type BatchScheduler struct {
	opts   BatchOptions
	logger logging.Logger
}

// NewBatchScheduler creates a scheduler for one batch run.
func NewBatchScheduler(opts BatchOptions) *BatchScheduler {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &BatchScheduler{
		opts:   opts,
		logger: logger.WithComponent("batch"),
	}
}

// Run builds every directory. The returned slice always has one entry per
// directory in input order; directories a failed chunk prevented from
// building carry an error explaining why.
//
// With continue-on-error enabled, per-directory failures are recorded in the
// results and Run itself returns nil. Otherwise Run stops after the first
// chunk containing a failure and returns an error summarizing how many
// directories failed.
func (s *BatchScheduler) Run(ctx context.Context) ([]Result, error) {
	cfg := s.opts.Config

	dirs := s.opts.Directories
	if len(dirs) == 0 {
		dirs = cfg.SourceDirectories()
	}
	if len(dirs) == 0 {
		return nil, errors.NewConfigurationError("input.src", "no source directories to build")
	}

	size := cfg.Batch.Size
	if size <= 0 {
		size = config.DefaultBatchSize
	}

	s.logger.Info(ctx, "batch build starting",
		"directories", len(dirs), "batch_size", size,
		"continue_on_error", cfg.Batch.ContinueOnError)

	results := make([]Result, len(dirs))
	col := errors.NewCollector()

	batchNum := 0
	for start := 0; start < len(dirs); start += size {
		batchNum++
		if err := ctx.Err(); err != nil {
			s.markSkipped(results, dirs, start, "not built: run cancelled")
			return results, err
		}

		end := min(start+size, len(dirs))
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = s.buildOne(ctx, dirs[i])
				if results[i].Err != nil {
					col.Add(fmt.Errorf("%s: %w", dirs[i], results[i].Err))
				}
			}(i)
		}
		wg.Wait()

		s.notify(ctx, config.ProgressEvent{
			Phase:     "batch",
			Completed: end,
			Total:     len(dirs),
			Current:   fmt.Sprintf("batch %d", batchNum),
		})

		chunkFailed := false
		for i := start; i < end; i++ {
			if !results[i].Success {
				chunkFailed = true
				break
			}
		}
		if chunkFailed && !cfg.Batch.ContinueOnError {
			s.markSkipped(results, dirs, end, "not built: batch aborted after earlier failure")
			return results, fmt.Errorf("%d of %d directories failed", col.Len(), len(dirs))
		}
	}

	if col.HasErrors() {
		s.logger.Warn(ctx, nil, "batch finished with failures",
			"failed", col.Len(), "total", len(dirs))
	}
	return results, nil
}

// buildOne runs one directory pipeline with the scheduler's shared state.
func (s *BatchScheduler) buildOne(ctx context.Context, dir string) Result {
	cfg := s.opts.Config
	out := OutputDir(cfg.Output.Dir, cfg.Output.Pattern, filepath.Base(dir), cfg.Font.Name)
	p := New(Options{
		Config:    cfg,
		SourceDir: dir,
		OutputDir: out,
		Overrides: s.opts.Overrides,
		Cache:     s.opts.Cache,
		Metrics:   s.opts.Metrics,
		Logger:    s.opts.Logger,
		Timestamp: s.opts.Timestamp,
	})
	return p.Process(ctx)
}

// markSkipped fills results from index from onward for directories that
// never built.
func (s *BatchScheduler) markSkipped(results []Result, dirs []string, from int, reason string) {
	cfg := s.opts.Config
	for i := from; i < len(dirs); i++ {
		results[i] = Result{
			SourceDir: dirs[i],
			OutputDir: OutputDir(cfg.Output.Dir, cfg.Output.Pattern, filepath.Base(dirs[i]), cfg.Font.Name),
			Err:       fmt.Errorf("%s", reason),
		}
	}
}

func (s *BatchScheduler) notify(ctx context.Context, ev config.ProgressEvent) {
	fn := s.opts.Config.Progress
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn(ctx, nil, "progress observer panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn(ev)
}

// OutputDir derives the output directory for one batch unit. The pattern's
// {dir} placeholder expands to the source directory basename and {name} to
// the font name; the expansion is joined under root.
func OutputDir(root, pattern, dirBase, fontName string) string {
	if pattern == "" {
		pattern = config.DefaultOutputPattern
	}
	sub := strings.ReplaceAll(pattern, "{dir}", dirBase)
	sub = strings.ReplaceAll(sub, "{name}", fontName)
	return filepath.Join(root, sub)
}
