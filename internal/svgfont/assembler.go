package svgfont

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/codepoint"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/logging"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/scanner"
)

// State is the assembler lifecycle. An assembler is single-use: it moves
// from StateIdle through StateStreaming into exactly one terminal state.
type State int32

const (
	StateIdle State = iota
	StateStreaming
	StateFinished
	StateFailed
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed-out"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// DefaultTimeout bounds one assembly run when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Result reports one assembly run. On failure ProcessedCount is zero: a
// failed run produces no usable artifact, so partial progress is not
// surfaced as work done.
type Result struct {
	Success        bool
	Err            error
	ProcessedCount int
	SkippedCount   int
	TotalCount     int
	Mapping        map[string]rune
}

// Options configure an assembler.
type Options struct {
	FontName string
	Metrics  Metrics       // zero value selects DefaultMetrics
	Timeout  time.Duration // zero selects DefaultTimeout
	Logger   logging.Logger

	// OnProgress receives sampled streaming progress. OnSkip receives each
	// icon dropped for a per-file read or parse error. Both may be nil;
	// panics in either are recovered and logged, never abort the run.
	OnProgress func(done, total int, name string)
	OnSkip     func(name string, err error)
}

// Assembler streams icon outlines into one SVG font artifact.
type Assembler struct {
	opts     Options
	assigner *codepoint.Assigner
	logger   logging.Logger
	state    atomic.Int32
	cleanup  sync.Once
}

// NewAssembler creates a single-use assembler drawing codepoints from the
// given per-build assigner.
func NewAssembler(assigner *codepoint.Assigner, opts Options) *Assembler {
	if opts.Metrics == (Metrics{}) {
		opts.Metrics = DefaultMetrics()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Assembler{
		opts:     opts,
		assigner: assigner,
		logger:   logger.WithComponent("svgfont"),
	}
}

// State returns the current lifecycle state.
func (a *Assembler) State() State {
	return State(a.state.Load())
}

// Assemble streams every source into dst as one SVG font. The destination
// is closed exactly once on every exit path, including timeout. Per-icon
// read and parse failures skip the icon; destination write errors and
// codepoint exhaustion abort the run.
func (a *Assembler) Assemble(ctx context.Context, sources []scanner.IconSource, dst io.WriteCloser) Result {
	total := len(sources)

	if !a.state.CompareAndSwap(int32(StateIdle), int32(StateStreaming)) {
		// The cleanup Once belongs to the first run; release this
		// destination directly.
		dst.Close()
		return Result{
			Err:        fmt.Errorf("assembler already used (state %s)", a.State()),
			TotalCount: total,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()
	defer a.closeOnce(dst)

	w := bufio.NewWriterSize(dst, 32*1024)
	if err := writeFontHeader(w, a.opts.FontName, a.opts.Metrics); err != nil {
		return a.fail(ctx, StateFailed, fmt.Errorf("writing font header: %w", err), total)
	}

	sample := total / 20
	if sample < 1 {
		sample = 1
	}

	mapping := make(map[string]rune, total)
	processed, skipped := 0, 0
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			state := StateFailed
			if errors.Is(err, context.DeadlineExceeded) {
				state = StateTimedOut
				err = fmt.Errorf("assembly timed out after %s (%d/%d icons)", a.opts.Timeout, i, total)
			}
			return a.fail(ctx, state, err, total)
		}

		glyph, err := a.loadGlyph(src)
		if err != nil {
			skipped++
			a.notifySkip(ctx, src.Name, err)
			continue
		}

		cp, err := a.assigner.Assign(src.Name)
		if err != nil {
			// Exhaustion invalidates the whole font, not just this icon.
			return a.fail(ctx, StateFailed, err, total)
		}
		glyph.Codepoint = cp

		if err := writeFontGlyph(w, glyph); err != nil {
			return a.fail(ctx, StateFailed, fmt.Errorf("writing glyph %q: %w", src.Name, err), total)
		}
		mapping[src.Name] = cp
		processed++

		if (i+1)%sample == 0 || i == total-1 {
			a.notifyProgress(ctx, i+1, total, src.Name)
		}
	}

	if err := writeFontFooter(w); err != nil {
		return a.fail(ctx, StateFailed, fmt.Errorf("writing font footer: %w", err), total)
	}
	if err := w.Flush(); err != nil {
		return a.fail(ctx, StateFailed, fmt.Errorf("flushing font artifact: %w", err), total)
	}
	if err := a.closeOnce(dst); err != nil {
		return a.fail(ctx, StateFailed, fmt.Errorf("closing font artifact: %w", err), total)
	}

	a.state.Store(int32(StateFinished))
	a.logger.Debug(ctx, "assembled svg font",
		"font", a.opts.FontName, "processed", processed, "skipped", skipped)
	return Result{
		Success:        true,
		ProcessedCount: processed,
		SkippedCount:   skipped,
		TotalCount:     total,
		Mapping:        mapping,
	}
}

// loadGlyph reads and parses one icon into a font-space glyph, without a
// codepoint yet.
func (a *Assembler) loadGlyph(src scanner.IconSource) (Glyph, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return Glyph{}, err
	}
	defer f.Close()

	icon, err := ParseIcon(f)
	if err != nil {
		return Glyph{}, err
	}
	return BuildGlyph(src.Name, 0, icon, a.opts.Metrics), nil
}

func (a *Assembler) fail(ctx context.Context, state State, err error, total int) Result {
	a.state.Store(int32(state))
	a.logger.Error(ctx, err, "svg font assembly failed", "state", state.String())
	return Result{Err: err, TotalCount: total}
}

// closeOnce closes the destination through the assembler's sync.Once so
// success, failure, and timeout paths all release it exactly once.
func (a *Assembler) closeOnce(dst io.WriteCloser) error {
	var err error
	a.cleanup.Do(func() {
		err = dst.Close()
	})
	return err
}

func (a *Assembler) notifyProgress(ctx context.Context, done, total int, name string) {
	if a.opts.OnProgress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn(ctx, nil, "progress observer panicked", "panic", fmt.Sprint(r))
		}
	}()
	a.opts.OnProgress(done, total, name)
}

func (a *Assembler) notifySkip(ctx context.Context, name string, err error) {
	a.logger.Warn(ctx, err, "skipping icon", "icon", name)
	if a.opts.OnSkip == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn(ctx, nil, "skip observer panicked", "panic", fmt.Sprint(r))
		}
	}()
	a.opts.OnSkip(name, err)
}
