package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/config"
)

// codepointValue is a pflag.Value accepting decimal, 0x hex, and U+
// codepoint notation, so range flags fail at parse time with a usable
// message instead of deep inside configuration loading.
type codepointValue struct {
	set bool
	cp  rune
}

var _ pflag.Value = (*codepointValue)(nil)

func (v *codepointValue) String() string {
	if !v.set {
		return ""
	}
	return fmt.Sprintf("U+%04X", v.cp)
}

func (v *codepointValue) Set(s string) error {
	cp, err := parseCodepoint(s)
	if err != nil {
		return err
	}
	v.cp = cp
	v.set = true
	return nil
}

func (v *codepointValue) Type() string { return "codepoint" }

// buildFlags collects the options shared by build, watch, and serve.
// Values only reach the configuration when their flag was actually set,
// so config files and environment variables keep working underneath.
type buildFlags struct {
	name            string
	unicodeStart    codepointValue
	unicodeEnd      codepointValue
	formats         []string
	noDemo          bool
	codepoints      string
	outputPattern   string
	batch           bool
	batchSize       int
	continueOnError bool
	maxConcurrency  int
	cache           bool
	timeout         time.Duration
	verbose         bool
	performance     bool
}

// addBuildFlags registers the shared build flag set on cmd.
func addBuildFlags(cmd *cobra.Command) *buildFlags {
	f := &buildFlags{}
	flags := cmd.Flags()

	flags.StringVarP(&f.name, "name", "n", config.DefaultFontName,
		"font name and font-family identifier")
	flags.Var(&f.unicodeStart, "unicode-start",
		"first codepoint of the assignment range (decimal, 0x hex, or U+ form)")
	flags.Var(&f.unicodeEnd, "unicode-end",
		"last codepoint of the assignment range")
	flags.StringSliceVar(&f.formats, "formats", nil,
		"font formats to generate (svg, ttf, eot, woff, woff2)")
	flags.BoolVar(&f.noDemo, "no-demo", false, "skip demo page generation")
	flags.StringVar(&f.codepoints, "codepoints", "",
		"file pinning icon names to fixed codepoints")
	flags.StringVar(&f.outputPattern, "output-pattern", "",
		"per-directory output subpath in batch mode ({dir} and {name} expand)")
	flags.BoolVarP(&f.batch, "batch", "b", false,
		"build each source directory as its own unit")
	flags.IntVar(&f.batchSize, "batch-size", config.DefaultBatchSize,
		"directories built concurrently per batch")
	flags.BoolVar(&f.continueOnError, "continue-on-error", false,
		"keep building remaining batches after a failure")
	flags.IntVar(&f.maxConcurrency, "max-concurrency", config.DefaultMaxConcurrency,
		"parallel format conversions per directory")
	flags.BoolVar(&f.cache, "cache", false, "reuse results for unchanged inputs")
	flags.DurationVar(&f.timeout, "timeout", config.DefaultTimeout,
		"per-directory build timeout")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&f.performance, "performance", false,
		"report timing counters after the build")

	return f
}

// apply copies every flag the user set into viper, where configuration
// loading gives flags the highest precedence.
func (f *buildFlags) apply(cmd *cobra.Command) {
	flags := cmd.Flags()

	if f.unicodeStart.set {
		viper.Set("font.unicode_start", int(f.unicodeStart.cp))
	}
	if f.unicodeEnd.set {
		viper.Set("font.unicode_end", int(f.unicodeEnd.cp))
	}

	for flag, binding := range map[string]struct {
		key   string
		value interface{}
	}{
		"name":              {"font.name", f.name},
		"formats":           {"font.formats", f.formats},
		"codepoints":        {"font.codepoints_file", f.codepoints},
		"no-demo":           {"demo.disabled", f.noDemo},
		"output-pattern":    {"output.pattern", f.outputPattern},
		"batch":             {"batch.enabled", f.batch},
		"batch-size":        {"batch.size", f.batchSize},
		"continue-on-error": {"batch.continue_on_error", f.continueOnError},
		"max-concurrency":   {"build.max_concurrency", f.maxConcurrency},
		"cache":             {"build.cache", f.cache},
		"timeout":           {"build.timeout", f.timeout},
		"verbose":           {"build.verbose", f.verbose},
		"performance":       {"build.performance", f.performance},
	} {
		if flags.Changed(flag) {
			viper.Set(binding.key, binding.value)
		}
	}
}

// applyPositional maps the optional [src] [dist] arguments onto their
// configuration keys.
func applyPositional(args []string) {
	if len(args) > 0 {
		viper.Set("input.src", args[0])
	}
	if len(args) > 1 {
		viper.Set("output.dir", args[1])
	}
}

// parseCodepoint accepts "57344", "0xE000", and "U+E000".
func parseCodepoint(s string) (rune, error) {
	in := strings.TrimSpace(s)
	num := in
	if rest, ok := strings.CutPrefix(in, "U+"); ok {
		num = "0x" + rest
	} else if rest, ok := strings.CutPrefix(in, "u+"); ok {
		num = "0x" + rest
	}
	v, err := strconv.ParseInt(num, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid codepoint %q (use decimal, 0x hex, or U+ form)", in)
	}
	return rune(v), nil
}

// validateChoice rejects values outside the allowed set with a message
// listing the alternatives.
func validateChoice(name, value string, allowed []string) error {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s %q (supported: %s)", name, value, strings.Join(allowed, ", "))
}
