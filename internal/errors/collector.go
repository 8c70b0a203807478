package errors

import "sync"

// Collector accumulates non-fatal errors from concurrent producers in
// arrival order. The glyph assembler uses one to record per-icon failures
// that were skipped without aborting the stream, and batch reporting uses
// one to summarize unit failures.
type Collector struct {
	mu   sync.RWMutex
	errs []error
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records err; nil errors are ignored.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

// All returns a copy of the recorded errors in arrival order.
func (c *Collector) All() []error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]error, len(c.errs))
	copy(out, c.errs)
	return out
}

// Len returns the number of recorded errors.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.errs)
}

// HasErrors reports whether anything was recorded.
func (c *Collector) HasErrors() bool {
	return c.Len() > 0
}

// Clear drops all recorded errors.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = c.errs[:0]
}
