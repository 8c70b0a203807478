package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/config"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/pipeline"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/preview"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve [src] [dist]",
	Aliases: []string{"s"},
	Short:   "Watch, rebuild, and preview the demo pages with live reload",
	Long: `Serve combines watch mode with a local preview server. The demo pages
are served over HTTP and reload automatically after every successful
rebuild; build failures surface in the browser console.

Examples:
  svgs2fonts serve ./icons ./dist
  svgs2fonts serve ./icons ./dist --port 3000
  svgs2fonts serve ./icons ./dist --host 0.0.0.0 -p 8080`,
	Args: cobra.MaximumNArgs(2),
	RunE: runServe,
}

var (
	serveOpts     *buildFlags
	serveHost     string
	servePort     int
	serveDebounce time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveOpts = addBuildFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "interface to serve the preview on")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "port to serve the preview on")
	serveCmd.Flags().DurationVar(&serveDebounce, "debounce", watcher.DefaultDebounce, "delay before a burst of changes triggers a rebuild")
}

func runServe(cmd *cobra.Command, args []string) error {
	applyPositional(args)
	serveOpts.apply(cmd)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Build.Verbose)

	session, err := newBuildSession(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	srv := preview.New(preview.Options{
		Root:       cfg.Output.Dir,
		Host:       serveHost,
		Port:       servePort,
		IndexPages: []string{cfg.Demo.FontClassHTML, cfg.Demo.UnicodeHTML},
		Logger:     logger,
	})
	defer srv.Close()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(ctx)
	}()
	fmt.Printf("Preview server on http://%s\n", srv.Addr())

	onBuild := func(results []pipeline.Result, err error) {
		if err != nil {
			srv.NotifyFailure(err.Error())
			return
		}
		fresh := false
		for _, res := range results {
			if !res.Success {
				srv.NotifyFailure(fmt.Sprintf("%s: %v", res.SourceDir, res.Err))
				return
			}
			if !res.CacheHit {
				fresh = true
			}
		}
		// Cache hits mean the outputs did not change, so the open pages
		// are already current.
		if fresh {
			srv.NotifyReload(cfg.Font.Name)
		}
	}

	watchDone := make(chan error, 1)
	go func() {
		watchDone <- watchAndRebuild(ctx, session, serveDebounce, onBuild)
	}()

	select {
	case err := <-serverErr:
		cancel()
		<-watchDone
		return err
	case err := <-watchDone:
		cancel()
		<-serverErr
		return err
	}
}
