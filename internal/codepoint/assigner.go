// Package codepoint assigns unicode codepoints to icon names.
//
// Each build constructs its own Assigner so concurrent builds never observe
// each other's allocations. Assignment is deterministic: a name's codepoint
// is derived from an FNV-1a hash of the name folded into the configured
// range, with linear probing upward (wrapping at the range end) when the
// candidate slot is taken. Renaming one icon therefore shifts only icons
// whose hash slots it collides with, and a fixed name set always produces
// the same mapping.
package codepoint

import (
	"fmt"
	"hash/fnv"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Sentinel is returned for empty icon names. It never occupies a slot in
// the assignable range.
const Sentinel rune = 0

// Assignment pairs an icon name with its assigned codepoint.
type Assignment struct {
	Name      string
	Codepoint rune
}

// Assigner allocates codepoints in [start, end] injectively.
type Assigner struct {
	start     rune
	end       rune
	overrides map[string]rune
	byName    map[string]rune
	taken     map[rune]string
	inRange   int
}

// New creates an assigner over the inclusive range [start, end]. Overrides
// pin specific names to fixed codepoints; they are honored even outside the
// range. New panics if start is not below end, mirroring the config
// validator that should have rejected such a range long before a build.
func New(start, end rune, overrides map[string]rune) *Assigner {
	if start >= end {
		panic(fmt.Sprintf("codepoint: invalid range U+%04X..U+%04X", start, end))
	}
	a := &Assigner{
		start:     start,
		end:       end,
		overrides: make(map[string]rune, len(overrides)),
		byName:    make(map[string]rune),
		taken:     make(map[rune]string),
	}
	for name, cp := range overrides {
		a.overrides[norm.NFC.String(name)] = cp
	}
	return a
}

// Assign returns the codepoint for name, allocating one on first use. The
// same name always maps to the same codepoint within one assigner. Empty
// names map to the U+0000 sentinel without consuming range capacity.
func (a *Assigner) Assign(name string) (rune, error) {
	if name == "" {
		return Sentinel, nil
	}
	name = norm.NFC.String(name)

	if cp, ok := a.byName[name]; ok {
		return cp, nil
	}

	if cp, ok := a.overrides[name]; ok {
		if holder, used := a.taken[cp]; used {
			return 0, fmt.Errorf("codepoint override U+%04X for %q already assigned to %q", cp, name, holder)
		}
		a.record(name, cp)
		return cp, nil
	}

	size := int(a.end-a.start) + 1
	if a.inRange >= size {
		return 0, fmt.Errorf("codepoint range U+%04X..U+%04X exhausted after %d assignments", a.start, a.end, a.inRange)
	}

	h := fnv.New32a()
	h.Write([]byte(name))
	candidate := a.start + rune(h.Sum32()%uint32(size))

	for i := 0; i < size; i++ {
		if _, used := a.taken[candidate]; !used {
			a.record(name, candidate)
			return candidate, nil
		}
		candidate++
		if candidate > a.end {
			candidate = a.start
		}
	}
	// Unreachable while inRange < size, kept as a guard.
	return 0, fmt.Errorf("codepoint range U+%04X..U+%04X exhausted after %d assignments", a.start, a.end, a.inRange)
}

func (a *Assigner) record(name string, cp rune) {
	a.byName[name] = cp
	a.taken[cp] = name
	if cp >= a.start && cp <= a.end {
		a.inRange++
	}
}

// AssignAll assigns every name in sorted order and returns the full mapping.
// Sorting first makes the probe order, and therefore the mapping,
// independent of the caller's iteration order.
func (a *Assigner) AssignAll(names []string) (map[string]rune, error) {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	for _, name := range sorted {
		if _, err := a.Assign(name); err != nil {
			return nil, err
		}
	}
	return a.MappingMap(), nil
}

// Len reports how many codepoints are currently assigned.
func (a *Assigner) Len() int {
	return len(a.taken)
}

// Remaining reports how many unassigned codepoints the range still holds.
func (a *Assigner) Remaining() int {
	return int(a.end-a.start) + 1 - a.inRange
}

// Mapping returns a snapshot of all assignments sorted by name.
func (a *Assigner) Mapping() []Assignment {
	out := make([]Assignment, 0, len(a.byName))
	for name, cp := range a.byName {
		out = append(out, Assignment{Name: name, Codepoint: cp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MappingMap returns a copy of the name→codepoint table.
func (a *Assigner) MappingMap() map[string]rune {
	out := make(map[string]rune, len(a.byName))
	for name, cp := range a.byName {
		out[name] = cp
	}
	return out
}

// Reset clears all assignments, keeping the range and overrides.
func (a *Assigner) Reset() {
	a.byName = make(map[string]rune)
	a.taken = make(map[rune]string)
	a.inRange = 0
}
