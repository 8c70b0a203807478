package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/config"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/errors"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/logging"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/pipeline"
)

var buildCmd = &cobra.Command{
	Use:     "build [src] [dist]",
	Aliases: []string{"b"},
	Short:   "Build icon fonts and demo pages from a directory of SVGs",
	Long: `Build scans src for .svg files, assigns each icon a stable private-use
codepoint, assembles an SVG font, and converts it to the requested formats.
Unless disabled, two demo pages and a stylesheet are written next to the
fonts.

With --batch, every directory listed under input.directories (or every
immediate subdirectory of src) is built as its own unit, batch-size units
at a time.

Examples:
  svgs2fonts build ./icons ./dist                 # full build, all formats
  svgs2fonts build ./icons ./dist -n brandfont    # custom font name
  svgs2fonts build ./icons ./dist --formats woff2,ttf
  svgs2fonts build ./projects ./out -b --batch-size 2
  svgs2fonts build ./icons ./dist --unicode-start 0xF000 --no-demo`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBuild,
}

var buildOpts *buildFlags

func init() {
	rootCmd.AddCommand(buildCmd)
	buildOpts = addBuildFlags(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	return executeBuild(cmd, args, buildOpts)
}

// executeBuild is shared between the build subcommand and bare root
// invocation, which carry separate flag instances.
func executeBuild(cmd *cobra.Command, args []string, opts *buildFlags) error {
	applyPositional(args)
	opts.apply(cmd)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Build.Verbose)

	session, err := newBuildSession(cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.Build.Performance {
		timer := logger.StartOperation("build")
		defer timer.End(ctx)
	}

	start := time.Now()
	results, err := session.run(ctx)
	summarize(results)
	if cfg.Build.Performance {
		printPerformance(session.metrics)
	}
	if err != nil {
		return err
	}
	if failed := failedCount(results); failed > 0 {
		return fmt.Errorf("%d of %d directories failed", failed, len(results))
	}

	fmt.Printf("Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// buildSession carries the state that survives across rebuilds in watch
// and serve mode: codepoint overrides, the result cache, and metrics.
type buildSession struct {
	cfg       *config.Config
	logger    *logging.FontLogger
	overrides map[string]rune
	cache     *pipeline.ResultCache
	metrics   *pipeline.Metrics
}

func newBuildSession(cfg *config.Config, logger *logging.FontLogger) (*buildSession, error) {
	s := &buildSession{cfg: cfg, logger: logger, metrics: pipeline.NewMetrics()}

	if cfg.Font.CodepointsFile != "" {
		overrides, err := config.LoadCodepoints(cfg.Font.CodepointsFile)
		if err != nil {
			return nil, err
		}
		s.overrides = overrides
	}
	if cfg.Build.Cache {
		s.cache = pipeline.NewResultCache(0, 0)
	}
	if cfg.Progress == nil {
		cfg.Progress = consoleProgress(cfg.Build.Verbose)
	}
	return s, nil
}

// run executes one full build pass over every configured directory.
func (s *buildSession) run(ctx context.Context) ([]pipeline.Result, error) {
	if s.cfg.Batch.Enabled {
		dirs, err := batchDirectories(s.cfg)
		if err != nil {
			return nil, err
		}
		if len(dirs) == 0 {
			return nil, errors.NewConfigurationError("input.directories",
				fmt.Sprintf("no subdirectories to build under %s", s.cfg.Input.Src))
		}
		scheduler := pipeline.NewBatchScheduler(pipeline.BatchOptions{
			Config:      s.cfg,
			Directories: dirs,
			Overrides:   s.overrides,
			Cache:       s.cache,
			Metrics:     s.metrics,
			Logger:      s.logger,
		})
		return scheduler.Run(ctx)
	}

	p := pipeline.New(pipeline.Options{
		Config:    s.cfg,
		SourceDir: s.cfg.Input.Src,
		OutputDir: s.cfg.Output.Dir,
		Overrides: s.overrides,
		Cache:     s.cache,
		Metrics:   s.metrics,
		Logger:    s.logger,
	})
	res := p.Process(ctx)
	if !res.Success {
		return []pipeline.Result{res}, res.Err
	}
	return []pipeline.Result{res}, nil
}

// batchDirectories resolves the batch units: the explicit directory list
// when configured, otherwise every immediate subdirectory of src.
func batchDirectories(cfg *config.Config) ([]string, error) {
	if len(cfg.Input.Directories) > 0 {
		return cfg.Input.Directories, nil
	}
	entries, err := os.ReadDir(cfg.Input.Src)
	if err != nil {
		return nil, fmt.Errorf("reading batch parent directory: %w", err)
	}
	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dirs = append(dirs, filepath.Join(cfg.Input.Src, entry.Name()))
	}
	return dirs, nil
}

// consoleProgress prints one line per progress event to stderr. The
// per-icon svg phase only shows under --verbose.
func consoleProgress(verbose bool) config.ProgressFunc {
	return func(ev config.ProgressEvent) {
		if ev.Phase == "svg" && !verbose {
			return
		}
		if ev.Current != "" {
			fmt.Fprintf(os.Stderr, "  [%s] %d/%d %s\n", ev.Phase, ev.Completed, ev.Total, ev.Current)
		} else {
			fmt.Fprintf(os.Stderr, "  [%s] %d/%d\n", ev.Phase, ev.Completed, ev.Total)
		}
	}
}

// summarize prints one line per completed directory. Single-directory
// failures are left to the returned error so they print exactly once.
func summarize(results []pipeline.Result) {
	for _, res := range results {
		if !res.Success {
			if len(results) > 1 {
				fmt.Fprintf(os.Stderr, "  failed %s: %v\n", res.SourceDir, res.Err)
			}
			continue
		}
		note := res.Duration.Round(time.Millisecond).String()
		if res.CacheHit {
			note = "cached"
		}
		fmt.Printf("  built %s -> %s (%d icons, %s)\n",
			res.SourceDir, res.OutputDir, res.ProcessedCount, note)
	}
}

func failedCount(results []pipeline.Result) int {
	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
		}
	}
	return failed
}

// printPerformance reports the run's timing counters under --performance.
func printPerformance(m *pipeline.Metrics) {
	snap := m.Snapshot()
	fmt.Fprintf(os.Stderr,
		"performance: %d builds (%d ok, %d failed), %d cache hits, avg %s, icons %d processed / %d skipped\n",
		snap.TotalBuilds, snap.SuccessfulBuilds, snap.FailedBuilds, snap.CacheHits,
		snap.AverageDuration.Round(time.Millisecond), snap.ProcessedIcons, snap.SkippedIcons)
}
