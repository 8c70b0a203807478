//go:build property

package codepoint

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestAssignerProperties validates the allocation invariants across randomly
// generated name sets and ranges.
func TestAssignerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: no two distinct names ever share a codepoint
	properties.Property("assignment is injective", prop.ForAll(
		func(names []string) bool {
			a := New(0xE000, 0xFFFF, nil)
			seen := make(map[rune]string)
			for _, name := range names {
				if name == "" {
					continue
				}
				cp, err := a.Assign(name)
				if err != nil {
					return false
				}
				if holder, dup := seen[cp]; dup && holder != name {
					return false
				}
				seen[cp] = name
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
	))

	// Property: assigned codepoints always land inside the configured range
	properties.Property("codepoints respect the range", prop.ForAll(
		func(names []string, span int) bool {
			start := rune(0xE000)
			end := start + rune(span)
			a := New(start, end, nil)
			for _, name := range names {
				if name == "" {
					continue
				}
				cp, err := a.Assign(name)
				if err != nil {
					// Exhaustion is legal when the set outgrows the span.
					return a.Remaining() == 0
				}
				if cp < start || cp > end {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
		gen.IntRange(1, 64),
	))

	// Property: two assigners fed the same names agree on every codepoint
	properties.Property("assignment is deterministic", prop.ForAll(
		func(names []string) bool {
			a1 := New(0xE000, 0xFFFF, nil)
			a2 := New(0xE000, 0xFFFF, nil)
			for _, name := range names {
				cp1, err1 := a1.Assign(name)
				cp2, err2 := a2.Assign(name)
				if (err1 == nil) != (err2 == nil) {
					return false
				}
				if err1 == nil && cp1 != cp2 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
	))

	// Property: a full range assigns every slot exactly once, then errors
	properties.Property("exhaustion fires exactly at capacity", prop.ForAll(
		func(span int) bool {
			start := rune(0xE000)
			end := start + rune(span-1)
			a := New(start, end, nil)

			for i := 0; i < span; i++ {
				if _, err := a.Assign(fmt.Sprintf("icon-%02d", i)); err != nil {
					return false
				}
			}
			if a.Remaining() != 0 {
				return false
			}
			_, err := a.Assign("overflow-name")
			return err != nil
		},
		gen.IntRange(2, 32),
	))

	properties.TestingRun(t)
}
