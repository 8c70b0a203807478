// Package cmd provides the svgs2fonts command-line interface with
// configuration resolved from multiple sources.
//
// Configuration precedence, highest first:
//
//	1. Command-line flags (--name, --formats, positional src/dist, ...)
//	2. SVGS2FONTS_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (SVGS2FONTS_FONT_NAME, ...)
//	4. Configuration file (.svgs2fonts.yml in the working directory)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/logging"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/version"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "svgs2fonts",
	Short: "Build icon webfonts from directories of SVG files",
	Long: `svgs2fonts turns a directory of SVG icons into a webfont. Every icon is
assigned a stable private-use codepoint derived from its name, so rebuilding
with new icons never moves the old ones. The SVG font is converted to TTF,
EOT, WOFF, and WOFF2, and demo pages show every glyph with its codepoint
and CSS class.

Quick Start:
  svgs2fonts ./icons ./dist           Build fonts and demo pages
  svgs2fonts list ./icons             Show the name-to-codepoint mapping
  svgs2fonts watch ./icons ./dist     Rebuild on every change
  svgs2fonts serve ./icons ./dist     Watch plus live-reload preview server

Command Aliases (for faster typing):
  build (b), list (l), watch (w), serve (s)`,
	Version:      version.Short(),
	SilenceUsage: true,
	// Bare invocation with positional arguments is a build.
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return executeBuild(cmd, args, rootOpts)
	},
}

var rootOpts *buildFlags

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootOpts = addBuildFlags(rootCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .svgs2fonts.yml, can also use SVGS2FONTS_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.SetVersionTemplate("svgs2fonts {{.Version}}\n")
}

// initConfig wires viper to the config file and environment.
//
// Config file resolution, highest priority first:
//  1. --config flag
//  2. SVGS2FONTS_CONFIG_FILE environment variable
//  3. .svgs2fonts.yml in the current directory
//
// Every configuration key is also reachable through the environment with
// the SVGS2FONTS_ prefix, dots replaced by underscores
// (e.g. SVGS2FONTS_FONT_NAME=brandfont).
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SVGS2FONTS_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".svgs2fonts")
	}

	viper.SetEnvPrefix("SVGS2FONTS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or malformed config files degrade to defaults; flags and
	// environment variables still apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the CLI logger from the persistent logging flags.
// Verbose drops the level to debug regardless of --log-level.
func newLogger(verbose bool) *logging.FontLogger {
	level := logging.ParseLevel(viper.GetString("log-level"))
	if verbose {
		level = logging.LevelDebug
	}
	return logging.New(&logging.Config{
		Level:  level,
		Format: viper.GetString("log-format"),
		Output: os.Stderr,
	})
}
