package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/config"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/pipeline"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/registry"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/scanner"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch [src] [dist]",
	Aliases: []string{"w"},
	Short:   "Rebuild fonts whenever the source SVGs change",
	Long: `Watch runs an initial build, then keeps watching src and rebuilds when
SVG files are added, changed, or removed. Rapid bursts of changes are
debounced into a single rebuild. Press Ctrl+C to stop.

Examples:
  svgs2fonts watch ./icons ./dist
  svgs2fonts watch ./icons ./dist --debounce 500ms
  svgs2fonts watch ./icons ./dist -n brandfont --formats woff2`,
	Args: cobra.MaximumNArgs(2),
	RunE: runWatch,
}

var (
	watchOpts     *buildFlags
	watchDebounce time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchOpts = addBuildFlags(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "delay before a burst of changes triggers a rebuild")
}

func runWatch(cmd *cobra.Command, args []string) error {
	applyPositional(args)
	watchOpts.apply(cmd)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Build.Verbose)

	session, err := newBuildSession(cfg, logger)
	if err != nil {
		return err
	}
	return watchAndRebuild(cmd.Context(), session, watchDebounce, nil)
}

// watchAndRebuild runs the initial build and then rebuilds on every
// debounced change batch until ctx is cancelled or a signal arrives.
// onBuild, when set, observes the outcome of every build pass.
func watchAndRebuild(ctx context.Context, session *buildSession, debounce time.Duration, onBuild func([]pipeline.Result, error)) error {
	cfg := session.cfg

	reg := registry.New()
	events := reg.Watch()
	defer reg.Unwatch(events)
	go func() {
		for ev := range events {
			fmt.Printf("  %s %s (U+%04X)\n", ev.Type, ev.Icon.Name, ev.Icon.Codepoint)
		}
	}()

	rebuild := func() {
		results, err := session.run(ctx)
		summarize(results)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		}
		session.syncRegistry(reg, results)
		if onBuild != nil {
			onBuild(results, err)
		}
	}

	rebuild()

	fw, err := watcher.New(debounce, session.logger)
	if err != nil {
		return err
	}
	defer fw.Stop()
	fw.AddFilter(watcher.SVGFilter)
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.ExcludeDirFilter(cfg.Output.Dir))
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		fmt.Printf("%d file(s) changed, rebuilding...\n", len(events))
		rebuild()
		return nil
	})

	watched := 0
	for _, dir := range watchDirs(cfg) {
		if err := fw.AddPath(dir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			continue
		}
		fmt.Printf("  watching %s\n", dir)
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no directories could be watched")
	}

	fw.Start(ctx)
	fmt.Println("Watching for changes... (Ctrl+C to stop)")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-sigChan:
		fmt.Println("\nStopping watch mode")
		return nil
	}
}

// watchDirs resolves the directories to watch for changes.
func watchDirs(cfg *config.Config) []string {
	if cfg.Batch.Enabled {
		dirs, err := batchDirectories(cfg)
		if err == nil && len(dirs) > 0 {
			return dirs
		}
	}
	return []string{cfg.Input.Src}
}

// syncRegistry reconciles the registry against the current source set so
// watchers see per-icon add, update, and remove events. Batch runs build
// several unrelated directories, so the diff only makes sense for a
// single successful build.
func (s *buildSession) syncRegistry(reg *registry.IconRegistry, results []pipeline.Result) {
	if s.cfg.Batch.Enabled || len(results) != 1 || !results[0].Success {
		return
	}
	res := results[0]
	sources, err := scanner.New(s.logger).Scan(res.SourceDir)
	if err != nil {
		return
	}
	added, updated, removed := reg.Sync(sources, res.Mapping)
	s.logger.Debug(context.Background(), "registry synced",
		"added", added, "updated", updated, "removed", removed)
}
