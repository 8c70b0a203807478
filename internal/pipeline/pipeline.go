// Package pipeline orchestrates font builds.
//
// A Pipeline carries one source directory through scan, SVG font assembly,
// format conversion, and demo generation, reporting the outcome as a Result
// value. Pipelines are single-use; the batch scheduler creates one per
// directory and drives them in bounded-concurrency chunks. A shared
// ResultCache skips rebuilds of unchanged directories and a shared Metrics
// accumulates statistics across builds.
package pipeline

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/codepoint"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/config"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/converter"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/demo"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/errors"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/logging"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/scanner"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/svgfont"
)

// State is the pipeline lifecycle. A pipeline is single-use: it moves from
// StateCreated through the stage states into exactly one terminal state.
type State int32

const (
	StateCreated State = iota
	StateSVG
	StateFont
	StateDemo
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSVG:
		return "svg-stage"
	case StateFont:
		return "font-stage"
	case StateDemo:
		return "demo-stage"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Result reports one directory build. Err is nil exactly when Success is
// true; failed builds carry a *errors.StageError naming the stage that broke.
type Result struct {
	SourceDir string
	OutputDir string

	Success  bool
	Err      error
	CacheHit bool

	ProcessedCount int
	SkippedCount   int
	TotalCount     int
	Duration       time.Duration

	// Mapping is the icon name to codepoint table of the built font.
	Mapping map[string]rune

	// Conversion holds per-format outcomes for fresh builds; nil on cache
	// hits and on failures before the font stage.
	Conversion *converter.BatchResult
}

// Options configure a Pipeline.
type Options struct {
	Config    *config.Config
	SourceDir string
	OutputDir string

	// Overrides pin icon names to fixed codepoints, normally loaded from
	// the configured codepoints file.
	Overrides map[string]rune

	// Cache and Metrics are shared across pipelines; both may be nil.
	Cache   *ResultCache
	Metrics *Metrics

	Logger logging.Logger

	// Timestamp is stamped into generated font tables. Zero means now;
	// fixing it makes rebuilds byte-identical.
	Timestamp time.Time
}

// Pipeline builds one directory of icons into a webfont set.
type Pipeline struct {
	opts   Options
	logger logging.Logger
	state  atomic.Int32
}

// New creates a single-use pipeline for one source directory.
func New(opts Options) *Pipeline {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{
		opts:   opts,
		logger: logger.WithComponent("pipeline"),
	}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Process runs the build. It never panics past the package boundary and
// always returns a Result; per-build resources are released on every exit
// path. A second call reports a usage error without touching the filesystem.
func (p *Pipeline) Process(ctx context.Context) (res Result) {
	res = Result{SourceDir: p.opts.SourceDir, OutputDir: p.opts.OutputDir}

	if !p.state.CompareAndSwap(int32(StateCreated), int32(StateSVG)) {
		res.Err = fmt.Errorf("pipeline already used (state %s)", p.State())
		return res
	}

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if p.opts.Metrics != nil {
			p.opts.Metrics.Record(res)
		}
	}()

	cfg := p.opts.Config

	sources, err := scanner.New(p.logger).Scan(p.opts.SourceDir)
	if err != nil {
		return p.fail(ctx, res, errors.StageSVG, err)
	}
	if len(sources) == 0 {
		return p.fail(ctx, res, errors.StageSVG, fmt.Errorf("no SVG files found in %s", p.opts.SourceDir))
	}
	res.TotalCount = len(sources)
	p.notify(ctx, config.ProgressEvent{
		Phase:     "scan",
		Completed: len(sources),
		Total:     len(sources),
		Current:   p.opts.SourceDir,
	})

	cacheKey := ""
	if p.opts.Cache != nil {
		fp, err := scanner.Fingerprint(sources)
		if err != nil {
			// An unreadable file disables caching for this run; assembly
			// will skip or fail on it with a better error.
			p.logger.Warn(ctx, err, "fingerprint failed, caching disabled for this build")
		} else {
			cacheKey = p.cacheKey(fp)
			if cached, ok := p.opts.Cache.Lookup(cacheKey); ok {
				if outputsExist(cached.Outputs) {
					p.state.Store(int32(StateDone))
					p.logger.Debug(ctx, "unchanged inputs, reusing previous build",
						"dir", p.opts.SourceDir, "outputs", len(cached.Outputs))
					res.Success = true
					res.CacheHit = true
					res.ProcessedCount = cached.Processed
					res.SkippedCount = cached.Skipped
					res.Mapping = cached.Mapping
					return res
				}
				// Promised outputs are gone; rebuild and re-store.
				p.opts.Cache.Remove(cacheKey)
			}
		}
	}

	// MkdirAll keeps concurrent builds into sibling directories safe.
	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return p.fail(ctx, res, errors.StageSVG, fmt.Errorf("creating output directory: %w", err))
	}

	assigner := codepoint.New(rune(cfg.Font.UnicodeStart), rune(cfg.Font.UnicodeEnd), p.opts.Overrides)
	artifactPath := filepath.Join(p.opts.OutputDir, cfg.Font.Name+".svg")

	dst, err := os.Create(artifactPath)
	if err != nil {
		return p.fail(ctx, res, errors.StageSVG, fmt.Errorf("creating font artifact: %w", err))
	}

	asm := svgfont.NewAssembler(assigner, svgfont.Options{
		FontName: cfg.Font.Name,
		Timeout:  cfg.Build.Timeout,
		Logger:   p.logger,
		OnProgress: func(done, total int, name string) {
			p.notify(ctx, config.ProgressEvent{Phase: "svg", Completed: done, Total: total, Current: name})
		},
	})
	ares := asm.Assemble(ctx, sources, dst)
	if !ares.Success {
		// A failed assembly leaves no usable font; drop the partial artifact
		// so the output directory holds zero font files.
		os.Remove(artifactPath)
		return p.fail(ctx, res, errors.StageSVG, ares.Err)
	}
	res.ProcessedCount = ares.ProcessedCount
	res.SkippedCount = ares.SkippedCount
	res.Mapping = ares.Mapping

	p.state.Store(int32(StateFont))
	conv := converter.New(converter.Options{
		FontName:       cfg.Font.Name,
		OutputDir:      p.opts.OutputDir,
		ArtifactPath:   artifactPath,
		MaxConcurrency: cfg.Build.MaxConcurrency,
		Timestamp:      p.opts.Timestamp,
		Logger:         p.logger,
	})
	defer conv.Cleanup()

	batch, err := conv.GenerateBatch(ctx, cfg.Font.Formats)
	if err != nil {
		return p.fail(ctx, res, errors.StageFont, err)
	}
	res.Conversion = &batch
	if len(batch.Failed) > 0 {
		parts := make([]string, 0, len(batch.Failed))
		for _, f := range batch.Failed {
			parts = append(parts, fmt.Sprintf("%s: %v", f.Format, f.Err))
		}
		cause := fmt.Errorf("%d of %d formats failed: %s",
			len(batch.Failed), len(cfg.Font.Formats), strings.Join(parts, "; "))
		return p.fail(ctx, res, errors.StageFont, cause)
	}
	p.notify(ctx, config.ProgressEvent{
		Phase:     "font",
		Completed: len(batch.Successful),
		Total:     len(cfg.Font.Formats),
		Current:   cfg.Font.Name,
	})

	outputs := []string{artifactPath}
	generated := make([]string, 0, len(batch.Successful))
	for _, f := range batch.Successful {
		generated = append(generated, f.Format)
		if f.OutputPath != artifactPath {
			outputs = append(outputs, f.OutputPath)
		}
	}

	if !cfg.Demo.Disabled {
		p.state.Store(int32(StateDemo))
		gen := demo.New(demo.Options{
			FontName:      cfg.Font.Name,
			OutputDir:     p.opts.OutputDir,
			UnicodeHTML:   cfg.Demo.UnicodeHTML,
			FontClassHTML: cfg.Demo.FontClassHTML,
			Formats:       generated,
			Logger:        p.logger,
		})
		if err := gen.Generate(assigner.Mapping()); err != nil {
			return p.fail(ctx, res, errors.StageDemo, err)
		}
		outputs = append(outputs, gen.Outputs()...)
		p.notify(ctx, config.ProgressEvent{
			Phase:     "demo",
			Completed: len(res.Mapping),
			Total:     len(res.Mapping),
			Current:   p.opts.OutputDir,
		})
	}

	if p.opts.Cache != nil && cacheKey != "" {
		p.opts.Cache.Store(cacheKey, CachedBuild{
			Outputs:   outputs,
			Processed: res.ProcessedCount,
			Skipped:   res.SkippedCount,
			Mapping:   res.Mapping,
		})
	}

	p.state.Store(int32(StateDone))
	p.logger.Info(ctx, "directory build finished",
		"dir", p.opts.SourceDir,
		"icons", res.ProcessedCount,
		"skipped", res.SkippedCount,
		"formats", len(generated),
	)
	res.Success = true
	return res
}

// fail marks the pipeline failed, wrapping cause as a stage error.
func (p *Pipeline) fail(ctx context.Context, res Result, stage errors.Stage, cause error) Result {
	p.state.Store(int32(StateFailed))
	res.Err = errors.NewStageError(stage, cause)
	p.logger.Error(ctx, res.Err, "directory build failed",
		"dir", p.opts.SourceDir, "stage", stage.String())
	return res
}

// notify forwards a progress event to the configured observer. Observer
// panics are recovered so reporting never aborts a build.
func (p *Pipeline) notify(ctx context.Context, ev config.ProgressEvent) {
	fn := p.opts.Config.Progress
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn(ctx, nil, "progress observer panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn(ev)
}

// cacheKey combines the source fingerprint with every configuration knob
// that changes build output, so a config edit is a cache miss even when the
// sources are byte-identical.
func (p *Pipeline) cacheKey(fingerprint string) string {
	cfg := p.opts.Config

	table := crc32.MakeTable(crc32.Castagnoli)
	sum := crc32.Checksum([]byte(cfg.Font.Name), table)
	sum = crc32.Update(sum, table, []byte(fmt.Sprintf("|%x-%x|%s|%t|%s|%s",
		cfg.Font.UnicodeStart, cfg.Font.UnicodeEnd,
		strings.Join(cfg.Font.Formats, ","),
		cfg.Demo.Disabled, cfg.Demo.UnicodeHTML, cfg.Demo.FontClassHTML)))

	names := make([]string, 0, len(p.opts.Overrides))
	for name := range p.opts.Overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sum = crc32.Update(sum, table, []byte(fmt.Sprintf("|%s=%x", name, p.opts.Overrides[name])))
	}

	return fmt.Sprintf("%s|%s|%s|%08x", p.opts.SourceDir, p.opts.OutputDir, fingerprint, sum)
}

// outputsExist reports whether every promised output is still on disk.
func outputsExist(paths []string) bool {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}
