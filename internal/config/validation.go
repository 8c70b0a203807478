package config

import (
	"fmt"
	"strings"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/errors"
)

// fontNameForbidden are characters that would break generated file names or
// CSS font-family declarations.
const fontNameForbidden = `/\:*?"<>|'` + "`"

// Validate checks every option and returns the first problem found as a
// *errors.ConfigurationError. A nil return means the configuration is safe
// to build with.
func Validate(cfg *Config) error {
	if cfg.Input.Src == "" && !(cfg.Batch.Enabled && len(cfg.Input.Directories) > 0) {
		return errors.NewConfigurationError("input.src", "source directory is required")
	}
	if cfg.Output.Dir == "" {
		return errors.NewConfigurationError("output.dir", "output directory is required")
	}
	if cfg.Font.Name == "" {
		return errors.NewConfigurationError("font.name", "font name is required")
	}
	if strings.ContainsAny(cfg.Font.Name, fontNameForbidden) {
		return errors.NewConfigurationError("font.name",
			fmt.Sprintf("font name %q contains characters unsafe for file names", cfg.Font.Name))
	}

	if len(cfg.Font.Formats) == 0 {
		return errors.NewConfigurationError("font.formats", "at least one output format is required")
	}
	for _, f := range cfg.Font.Formats {
		if !isKnownFormat(f) {
			return errors.NewConfigurationError("font.formats",
				fmt.Sprintf("unknown format %q (known: %s)", f, strings.Join(knownFormats, ", ")))
		}
	}

	if cfg.Font.UnicodeStart < 0x20 {
		return errors.NewConfigurationError("font.unicode_start",
			fmt.Sprintf("start U+%04X is below U+0020", cfg.Font.UnicodeStart))
	}
	if cfg.Font.UnicodeEnd > 0x10FFFF {
		return errors.NewConfigurationError("font.unicode_end",
			fmt.Sprintf("end U+%04X is beyond the unicode range", cfg.Font.UnicodeEnd))
	}
	if cfg.Font.UnicodeStart >= cfg.Font.UnicodeEnd {
		return errors.NewConfigurationError("font.unicode_start",
			fmt.Sprintf("start U+%04X is not below end U+%04X", cfg.Font.UnicodeStart, cfg.Font.UnicodeEnd))
	}

	if cfg.Batch.Size < 1 {
		return errors.NewConfigurationError("batch.size",
			fmt.Sprintf("batch size %d must be at least 1", cfg.Batch.Size))
	}
	if cfg.Build.MaxConcurrency < 1 {
		return errors.NewConfigurationError("build.max_concurrency",
			fmt.Sprintf("max concurrency %d must be at least 1", cfg.Build.MaxConcurrency))
	}
	if cfg.Build.Timeout <= 0 {
		return errors.NewConfigurationError("build.timeout", "timeout must be positive")
	}

	if cfg.Batch.Enabled && !strings.Contains(cfg.Output.Pattern, "{dir}") {
		return errors.NewConfigurationError("output.pattern",
			fmt.Sprintf("pattern %q lacks {dir}; batch outputs would overwrite each other", cfg.Output.Pattern))
	}

	return nil
}

func isKnownFormat(f string) bool {
	for _, k := range knownFormats {
		if f == k {
			return true
		}
	}
	return false
}
