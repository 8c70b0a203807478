// Package converter fans the intermediate SVG font out into the binary
// webfont formats.
//
// A Converter is scoped to one pipeline run. It caches the raw intermediate
// artifact and the canonical TTF buffer so each is computed at most once no
// matter how many formats are requested. Format strategies only read those
// shared buffers, which is what makes the concurrent fan-out in GenerateBatch
// safe.
package converter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/errors"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/logging"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/sfnt"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/svgfont"
)

// DefaultMaxConcurrency bounds the format fan-out when Options leaves
// MaxConcurrency unset.
const DefaultMaxConcurrency = 4

// convertFunc turns the converter's cached buffers into one output format.
type convertFunc func(c *Converter) ([]byte, error)

// registry binds each supported format to its conversion strategy. Adding a
// format is a new entry here plus its encoder, nothing else.
var registry = map[string]convertFunc{
	"svg":   convertSVG,
	"ttf":   convertTTF,
	"eot":   convertEOT,
	"woff":  convertWOFF,
	"woff2": convertWOFF2,
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateFormats rejects any format that is not registered. It runs before
// conversion work starts so an unknown format fails the whole request instead
// of surfacing as one failed result among many.
func ValidateFormats(formats []string) error {
	for _, format := range formats {
		if _, ok := registry[format]; !ok {
			return errors.NewConfigurationError("font.formats", fmt.Sprintf("unsupported format %q", format))
		}
	}
	return nil
}

// FormatResult reports one format conversion. Immutable once produced.
type FormatResult struct {
	Format     string
	Success    bool
	OutputPath string
	FileSize   int64
	Duration   time.Duration
	Err        error
}

// BatchResult aggregates a GenerateBatch run.
type BatchResult struct {
	Successful    []FormatResult
	Failed        []FormatResult
	TotalDuration time.Duration

	// CompressionRatio is woff2 size over ttf size. It is only set when both
	// formats were requested and both succeeded; zero means "not computed".
	CompressionRatio float64
}

// Options configure a Converter for one pipeline run.
type Options struct {
	// FontName is the output basename: <OutputDir>/<FontName>.<format>.
	FontName string

	// OutputDir receives the generated files. It must already exist.
	OutputDir string

	// ArtifactPath locates the intermediate SVG font produced by the
	// assembler.
	ArtifactPath string

	// MaxConcurrency bounds how many conversions run at once in
	// GenerateBatch. Zero or negative selects DefaultMaxConcurrency.
	MaxConcurrency int

	// Timestamp is stamped into generated TTF headers. Zero uses the
	// current time; pin it for reproducible output.
	Timestamp time.Time

	Logger logging.Logger
}

// Converter owns the per-pipeline conversion caches. It must not be shared
// across pipeline instances; sibling pipelines in a batch each get their own.
type Converter struct {
	opts   Options
	logger logging.Logger

	rawMu  sync.Mutex
	raw    []byte
	rawErr error
	rawSet bool

	ttfMu  sync.Mutex
	ttf    []byte
	ttfErr error
	ttfSet bool
}

// New builds a Converter. A nil Logger discards output.
func New(opts Options) *Converter {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Converter{opts: opts, logger: logger.WithComponent("converter")}
}

// rawArtifact returns the intermediate SVG font bytes, reading the file at
// most once. The error is cached too, so a failed read is not retried by
// every requested format.
func (c *Converter) rawArtifact() ([]byte, error) {
	c.rawMu.Lock()
	defer c.rawMu.Unlock()
	if !c.rawSet {
		c.rawSet = true
		c.raw, c.rawErr = os.ReadFile(c.opts.ArtifactPath)
		if c.rawErr != nil {
			c.rawErr = fmt.Errorf("reading font artifact: %w", c.rawErr)
		}
	}
	return c.raw, c.rawErr
}

// canonicalTTF decodes the artifact and builds the TTF buffer every binary
// format derives from, computing it at most once. Lock order is ttfMu then
// rawMu; nothing takes them the other way around.
func (c *Converter) canonicalTTF() ([]byte, error) {
	c.ttfMu.Lock()
	defer c.ttfMu.Unlock()
	if c.ttfSet {
		return c.ttf, c.ttfErr
	}
	c.ttfSet = true

	raw, err := c.rawArtifact()
	if err != nil {
		c.ttfErr = err
		return nil, c.ttfErr
	}
	font, err := svgfont.ParseFont(bytes.NewReader(raw))
	if err != nil {
		c.ttfErr = fmt.Errorf("decoding font artifact: %w", err)
		return nil, c.ttfErr
	}
	c.ttf, c.ttfErr = sfnt.BuildTTF(font, sfnt.BuildOptions{Timestamp: c.opts.Timestamp})
	if c.ttfErr != nil {
		c.ttfErr = fmt.Errorf("building ttf: %w", c.ttfErr)
	}
	return c.ttf, c.ttfErr
}

// Cleanup releases both cached buffers. The next conversion after a Cleanup
// recomputes them.
func (c *Converter) Cleanup() {
	c.ttfMu.Lock()
	c.ttf, c.ttfErr, c.ttfSet = nil, nil, false
	c.ttfMu.Unlock()

	c.rawMu.Lock()
	c.raw, c.rawErr, c.rawSet = nil, nil, false
	c.rawMu.Unlock()
}

// OutputPath returns where GenerateFormat writes the given format.
func (c *Converter) OutputPath(format string) string {
	return filepath.Join(c.opts.OutputDir, c.opts.FontName+"."+format)
}

// GenerateFormat converts and writes one format. Failures of any kind,
// panics included, land in the result's Err field rather than crossing the
// package boundary.
func (c *Converter) GenerateFormat(ctx context.Context, format string) (res FormatResult) {
	start := time.Now()
	res = FormatResult{Format: format}
	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Success = false
			res.OutputPath = ""
			res.Err = fmt.Errorf("%s conversion panicked: %v", format, r)
			c.logger.Error(ctx, res.Err, "conversion panic", "format", format)
		}
	}()

	convert, ok := registry[format]
	if !ok {
		res.Err = errors.NewConfigurationError("font.formats", fmt.Sprintf("unsupported format %q", format))
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	data, err := convert(c)
	if err != nil {
		res.Err = err
		return res
	}
	path := c.OutputPath(format)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		res.Err = fmt.Errorf("writing %s output: %w", format, err)
		return res
	}

	res.Success = true
	res.OutputPath = path
	res.FileSize = int64(len(data))
	c.logger.Debug(ctx, "format generated",
		"format", format,
		"path", path,
		"bytes", res.FileSize,
	)
	return res
}

// GenerateBatch converts every requested format concurrently under the
// configured concurrency bound. The only error it returns is the fail-fast
// unknown-format validation error; per-format failures are reported in
// BatchResult.Failed.
func (c *Converter) GenerateBatch(ctx context.Context, formats []string) (BatchResult, error) {
	if err := ValidateFormats(formats); err != nil {
		return BatchResult{}, err
	}

	start := time.Now()
	results := make([]FormatResult, len(formats))
	sem := make(chan struct{}, c.opts.MaxConcurrency)
	var wg sync.WaitGroup

	for i, format := range formats {
		wg.Add(1)
		go func(i int, format string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = FormatResult{Format: format, Err: ctx.Err()}
				return
			}
			results[i] = c.GenerateFormat(ctx, format)
		}(i, format)
	}
	wg.Wait()

	batch := BatchResult{TotalDuration: time.Since(start)}
	sizes := make(map[string]int64, len(results))
	for _, res := range results {
		if res.Success {
			batch.Successful = append(batch.Successful, res)
			sizes[res.Format] = res.FileSize
		} else {
			batch.Failed = append(batch.Failed, res)
		}
	}
	if ttfSize, ok := sizes["ttf"]; ok && ttfSize > 0 {
		if woff2Size, ok := sizes["woff2"]; ok {
			batch.CompressionRatio = float64(woff2Size) / float64(ttfSize)
		}
	}

	c.logger.Debug(ctx, "batch conversion finished",
		"requested", len(formats),
		"succeeded", len(batch.Successful),
		"failed", len(batch.Failed),
		"duration", batch.TotalDuration,
	)
	return batch, nil
}

func convertSVG(c *Converter) ([]byte, error) {
	return c.rawArtifact()
}

func convertTTF(c *Converter) ([]byte, error) {
	return c.canonicalTTF()
}

func convertEOT(c *Converter) ([]byte, error) {
	ttf, err := c.canonicalTTF()
	if err != nil {
		return nil, err
	}
	return encodeEOT(ttf)
}

func convertWOFF(c *Converter) ([]byte, error) {
	ttf, err := c.canonicalTTF()
	if err != nil {
		return nil, err
	}
	return encodeWOFF(ttf)
}

func convertWOFF2(c *Converter) ([]byte, error) {
	ttf, err := c.canonicalTTF()
	if err != nil {
		return nil, err
	}
	return encodeWOFF2(ttf)
}
