// Package config provides configuration management for svgs2fonts using
// Viper for flexible loading from files, environment variables, and
// command-line flags.
//
// Configuration is resolved from .svgs2fonts.yml, environment variables with
// the SVGS2FONTS_ prefix, and bound CLI flags, in ascending precedence.
// Validation is synchronous and runs before the pipeline touches the
// filesystem: every problem is reported as *errors.ConfigurationError so no
// partial output is ever produced for an invalid setup.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/errors"
)

// Default values applied when neither file, environment, nor flags provide
// an option. The unicode range defaults to the BMP private use area so icon
// glyphs never collide with real characters.
const (
	DefaultFontName       = "iconfont"
	DefaultUnicodeStart   = 0xE000
	DefaultUnicodeEnd     = 0xFFFF
	DefaultBatchSize      = 3
	DefaultMaxConcurrency = 4
	DefaultTimeout        = 60 * time.Second
	DefaultOutputPattern  = "{dir}"
	DefaultUnicodeHTML    = "demo_unicode.html"
	DefaultFontClassHTML  = "demo_fontclass.html"
)

// knownFormats lists the font formats a build may request. The converter
// keeps the authoritative registry; this copy lets validation fail fast
// before any I/O starts.
var knownFormats = []string{"svg", "ttf", "eot", "woff", "woff2"}

// DefaultFormats returns the full format set generated when none is
// configured.
func DefaultFormats() []string {
	out := make([]string, len(knownFormats))
	copy(out, knownFormats)
	return out
}

// ProgressEvent describes one step of build progress.
type ProgressEvent struct {
	Phase     string // scan, svg, font, demo, batch
	Completed int
	Total     int
	Current   string // current file or directory, when meaningful
}

// ProgressFunc receives progress events. Implementations must be fast;
// panics are recovered and logged by the emitting stage.
type ProgressFunc func(ProgressEvent)

type Config struct {
	Input  InputConfig  `yaml:"input"`
	Output OutputConfig `yaml:"output"`
	Font   FontConfig   `yaml:"font"`
	Demo   DemoConfig   `yaml:"demo"`
	Batch  BatchConfig  `yaml:"batch"`
	Build  BuildConfig  `yaml:"build"`

	// Progress is set programmatically by callers; never from files.
	Progress ProgressFunc `yaml:"-"`
}

type InputConfig struct {
	// Src is the icon source directory for a single-directory build, and
	// the parent directory whose immediate subdirectories become batch
	// units when batch mode is enabled without explicit directories.
	Src         string   `yaml:"src"`
	Directories []string `yaml:"directories"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
	// Pattern derives the per-directory output subpath in batch mode;
	// {dir} expands to the source directory basename and {name} to the
	// font name.
	Pattern string `yaml:"pattern"`
}

type FontConfig struct {
	Name         string   `yaml:"name"`
	UnicodeStart int      `yaml:"unicode_start"`
	UnicodeEnd   int      `yaml:"unicode_end"`
	Formats      []string `yaml:"formats"`
	// CodepointsFile optionally pins icon names to fixed codepoints so
	// renaming unrelated icons never shifts published glyphs.
	CodepointsFile string `yaml:"codepoints_file"`
}

type DemoConfig struct {
	Disabled      bool   `yaml:"disabled"`
	UnicodeHTML   string `yaml:"unicode_html"`
	FontClassHTML string `yaml:"fontclass_html"`
}

type BatchConfig struct {
	Enabled         bool `yaml:"enabled"`
	Size            int  `yaml:"size"`
	ContinueOnError bool `yaml:"continue_on_error"`
}

type BuildConfig struct {
	MaxConcurrency int           `yaml:"max_concurrency"`
	Cache          bool          `yaml:"cache"`
	Timeout        time.Duration `yaml:"timeout"`
	Verbose        bool          `yaml:"verbose"`
	Performance    bool          `yaml:"performance"`
}

// Default returns a Config populated with every default applied. Library
// callers start from here; the CLI goes through Load instead.
func Default() *Config {
	return &Config{
		Output: OutputConfig{Pattern: DefaultOutputPattern},
		Font: FontConfig{
			Name:         DefaultFontName,
			UnicodeStart: DefaultUnicodeStart,
			UnicodeEnd:   DefaultUnicodeEnd,
			Formats:      DefaultFormats(),
		},
		Demo: DemoConfig{
			UnicodeHTML:   DefaultUnicodeHTML,
			FontClassHTML: DefaultFontClassHTML,
		},
		Batch: BatchConfig{Size: DefaultBatchSize},
		Build: BuildConfig{
			MaxConcurrency: DefaultMaxConcurrency,
			Timeout:        DefaultTimeout,
		},
	}
}

// Load resolves the configuration from viper's merged sources, applies
// defaults, and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfigurationError("", err.Error())
	}

	// Underscored keys do not map onto struct fields through Unmarshal, so
	// read them explicitly when set.
	if viper.IsSet("font.unicode_start") {
		cfg.Font.UnicodeStart = viper.GetInt("font.unicode_start")
	}
	if viper.IsSet("font.unicode_end") {
		cfg.Font.UnicodeEnd = viper.GetInt("font.unicode_end")
	}
	if viper.IsSet("font.codepoints_file") {
		cfg.Font.CodepointsFile = viper.GetString("font.codepoints_file")
	}
	if viper.IsSet("font.formats") && len(cfg.Font.Formats) == 0 {
		cfg.Font.Formats = viper.GetStringSlice("font.formats")
	}
	if viper.IsSet("input.directories") && len(cfg.Input.Directories) == 0 {
		cfg.Input.Directories = viper.GetStringSlice("input.directories")
	}
	if viper.IsSet("demo.unicode_html") {
		cfg.Demo.UnicodeHTML = viper.GetString("demo.unicode_html")
	}
	if viper.IsSet("demo.fontclass_html") {
		cfg.Demo.FontClassHTML = viper.GetString("demo.fontclass_html")
	}
	if viper.IsSet("batch.continue_on_error") {
		cfg.Batch.ContinueOnError = viper.GetBool("batch.continue_on_error")
	}
	if viper.IsSet("build.max_concurrency") {
		cfg.Build.MaxConcurrency = viper.GetInt("build.max_concurrency")
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero-valued options in place.
func ApplyDefaults(cfg *Config) {
	if cfg.Font.Name == "" {
		cfg.Font.Name = DefaultFontName
	}
	if cfg.Font.UnicodeStart == 0 {
		cfg.Font.UnicodeStart = DefaultUnicodeStart
	}
	if cfg.Font.UnicodeEnd == 0 {
		cfg.Font.UnicodeEnd = DefaultUnicodeEnd
	}
	if len(cfg.Font.Formats) == 0 {
		cfg.Font.Formats = DefaultFormats()
	}
	if cfg.Demo.UnicodeHTML == "" {
		cfg.Demo.UnicodeHTML = DefaultUnicodeHTML
	}
	if cfg.Demo.FontClassHTML == "" {
		cfg.Demo.FontClassHTML = DefaultFontClassHTML
	}
	if cfg.Output.Pattern == "" {
		cfg.Output.Pattern = DefaultOutputPattern
	}
	if cfg.Batch.Size == 0 {
		cfg.Batch.Size = DefaultBatchSize
	}
	if cfg.Build.MaxConcurrency == 0 {
		cfg.Build.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Build.Timeout == 0 {
		cfg.Build.Timeout = DefaultTimeout
	}
}

// SourceDirectories returns the batch units for this configuration: the
// explicit directory list when given, otherwise the single Src directory.
func (c *Config) SourceDirectories() []string {
	if c.Batch.Enabled && len(c.Input.Directories) > 0 {
		out := make([]string, len(c.Input.Directories))
		copy(out, c.Input.Directories)
		return out
	}
	if c.Input.Src == "" {
		return nil
	}
	return []string{c.Input.Src}
}
