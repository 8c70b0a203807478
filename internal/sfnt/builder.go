// Package sfnt builds TrueType fonts from decoded SVG fonts and parses
// SFNT table directories back out of binary fonts.
//
// The builder emits the minimal table set every consumer expects: glyf and
// loca (long offsets) for outlines, cmap (format 4, plus format 12 when
// codepoints leave the BMP), hmtx/hhea for metrics, head, maxp, name, post
// (version 3) and OS/2 (version 4). Glyph ids are assigned in codepoint
// order after the .notdef glyph, so cmap segments stay dense.
package sfnt

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/svgfont"
)

// BuildOptions tune the generated font.
type BuildOptions struct {
	// Timestamp is written into head.created/modified. The zero value
	// selects the current time; pin it for byte-identical builds.
	Timestamp time.Time
}

// BuildTTF converts a decoded SVG font into a binary TrueType font.
func BuildTTF(font *svgfont.Font, opts BuildOptions) ([]byte, error) {
	if len(font.Glyphs) > math.MaxUint16-1 {
		return nil, fmt.Errorf("too many glyphs: %d exceeds the TrueType limit", len(font.Glyphs))
	}
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	glyphs := make([]svgfont.Glyph, len(font.Glyphs))
	copy(glyphs, font.Glyphs)
	sort.Slice(glyphs, func(i, j int) bool { return glyphs[i].Codepoint < glyphs[j].Codepoint })
	for i := 1; i < len(glyphs); i++ {
		if glyphs[i].Codepoint == glyphs[i-1].Codepoint {
			return nil, fmt.Errorf("duplicate codepoint U+%04X (%q and %q)",
				glyphs[i].Codepoint, glyphs[i-1].Name, glyphs[i].Name)
		}
	}

	// Glyph 0 is .notdef with no outline; real glyphs follow in
	// codepoint order.
	outlines := make([]glyphOutline, len(glyphs)+1)
	advances := make([]uint16, len(glyphs)+1)
	cps := make([]rune, len(glyphs))
	for i, g := range glyphs {
		outlines[i+1] = buildOutline(g.Outline)
		advances[i+1] = clampAdvance(g.Advance)
		cps[i] = g.Codepoint
	}

	glyf, loca := encodeGlyfLoca(outlines)
	metrics := font.Metrics

	b := &ttfBuilder{
		glyphs:   glyphs,
		outlines: outlines,
		advances: advances,
		metrics:  metrics,
	}

	tables := map[string][]byte{
		"cmap": encodeCmap(cps, 1),
		"glyf": glyf,
		"loca": loca,
		"head": b.head(ts),
		"hhea": b.hhea(),
		"hmtx": b.hmtx(),
		"maxp": b.maxp(),
		"name": b.name(font.Name),
		"post": b.post(),
		"OS/2": b.os2(cps),
	}
	return assembleFont(tables)
}

func clampAdvance(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}

func encodeGlyfLoca(outlines []glyphOutline) (glyf, loca []byte) {
	var g bigWriter
	var l bigWriter
	for _, o := range outlines {
		l.u32(uint32(g.len()))
		g.raw(encodeSimpleGlyph(o))
	}
	l.u32(uint32(g.len()))
	return g.bytes(), l.bytes()
}

type ttfBuilder struct {
	glyphs   []svgfont.Glyph
	outlines []glyphOutline
	advances []uint16
	metrics  svgfont.Metrics
}

func (b *ttfBuilder) numGlyphs() int { return len(b.outlines) }

func (b *ttfBuilder) globalBounds() (xMin, yMin, xMax, yMax int16) {
	xMin, yMin = math.MaxInt16, math.MaxInt16
	xMax, yMax = math.MinInt16, math.MinInt16
	any := false
	for _, o := range b.outlines {
		if o.empty() {
			continue
		}
		any = true
		xMin = min16(xMin, o.xMin)
		yMin = min16(yMin, o.yMin)
		xMax = max16(xMax, o.xMax)
		yMax = max16(yMax, o.yMax)
	}
	if !any {
		return 0, 0, 0, 0
	}
	return
}

// macEpoch is the head table time origin, 1904-01-01 UTC.
var macEpoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

func (b *ttfBuilder) head(ts time.Time) []byte {
	xMin, yMin, xMax, yMax := b.globalBounds()
	stamp := int64(ts.UTC().Sub(macEpoch).Seconds())

	var w bigWriter
	w.u32(0x00010000) // version
	w.u32(0x00010000) // fontRevision
	w.u32(0)          // checkSumAdjustment, patched after assembly
	w.u32(0x5F0F3CF5) // magicNumber
	w.u16(0x000B)     // baseline at y=0, lsb at x=0, integer ppem
	w.u16(uint16(b.metrics.UnitsPerEm))
	w.s64(stamp)
	w.s64(stamp)
	w.s16(xMin)
	w.s16(yMin)
	w.s16(xMax)
	w.s16(yMax)
	w.u16(0) // macStyle
	w.u16(8) // lowestRecPPEM
	w.s16(2) // fontDirectionHint
	w.s16(1) // indexToLocFormat: long
	w.s16(0) // glyphDataFormat
	return w.bytes()
}

func (b *ttfBuilder) hhea() []byte {
	advanceMax := uint16(0)
	minLSB, minRSB, xMaxExtent := int16(math.MaxInt16), int16(math.MaxInt16), int16(math.MinInt16)
	anyInk := false
	for i, o := range b.outlines {
		if b.advances[i] > advanceMax {
			advanceMax = b.advances[i]
		}
		if o.empty() {
			continue
		}
		anyInk = true
		minLSB = min16(minLSB, o.xMin)
		minRSB = min16(minRSB, int16(int(b.advances[i])-int(o.xMax)))
		xMaxExtent = max16(xMaxExtent, o.xMax)
	}
	if !anyInk {
		minLSB, minRSB, xMaxExtent = 0, 0, 0
	}

	var w bigWriter
	w.u32(0x00010000) // version
	w.s16(int16(b.metrics.Ascent))
	w.s16(int16(b.metrics.Descent))
	w.s16(b.lineGap())
	w.u16(advanceMax)
	w.s16(minLSB)
	w.s16(minRSB)
	w.s16(xMaxExtent)
	w.s16(1) // caretSlopeRise
	w.s16(0) // caretSlopeRun
	w.s16(0) // caretOffset
	w.s16(0)
	w.s16(0)
	w.s16(0)
	w.s16(0)
	w.s16(0) // metricDataFormat
	w.u16(uint16(b.numGlyphs()))
	return w.bytes()
}

func (b *ttfBuilder) lineGap() int16 {
	return int16(b.metrics.UnitsPerEm * 9 / 100)
}

func (b *ttfBuilder) hmtx() []byte {
	var w bigWriter
	for i, o := range b.outlines {
		w.u16(b.advances[i])
		if o.empty() {
			w.s16(0)
		} else {
			w.s16(o.xMin)
		}
	}
	return w.bytes()
}

func (b *ttfBuilder) maxp() []byte {
	maxPoints, maxContours := 0, 0
	for _, o := range b.outlines {
		if n := o.pointCount(); n > maxPoints {
			maxPoints = n
		}
		if n := len(o.contours); n > maxContours {
			maxContours = n
		}
	}

	var w bigWriter
	w.u32(0x00010000)
	w.u16(uint16(b.numGlyphs()))
	w.u16(uint16(maxPoints))
	w.u16(uint16(maxContours))
	w.u16(0) // maxCompositePoints
	w.u16(0) // maxCompositeContours
	w.u16(2) // maxZones
	w.u16(0) // maxTwilightPoints
	w.u16(0) // maxStorage
	w.u16(0) // maxFunctionDefs
	w.u16(0) // maxInstructionDefs
	w.u16(0) // maxStackElements
	w.u16(0) // maxSizeOfInstructions
	w.u16(0) // maxComponentElements
	w.u16(0) // maxComponentDepth
	return w.bytes()
}

// Name IDs written for both the Macintosh and Windows platforms.
const (
	nameIDFamily     = 1
	nameIDSubfamily  = 2
	nameIDUniqueID   = 3
	nameIDFull       = 4
	nameIDVersion    = 5
	nameIDPostScript = 6
)

func (b *ttfBuilder) name(family string) []byte {
	if family == "" {
		family = "iconfont"
	}
	entries := []struct {
		id    uint16
		value string
	}{
		{nameIDFamily, family},
		{nameIDSubfamily, "Regular"},
		{nameIDUniqueID, family + " Regular"},
		{nameIDFull, family},
		{nameIDVersion, "Version 1.0"},
		{nameIDPostScript, postScriptName(family)},
	}

	type record struct {
		platform, encoding, language, id uint16
		data                             []byte
	}
	records := make([]record, 0, len(entries)*2)
	for _, e := range entries {
		records = append(records, record{1, 0, 0, e.id, macRoman(e.value)})
		records = append(records, record{3, 1, 0x0409, e.id, utf16BE(e.value)})
	}
	sort.SliceStable(records, func(i, j int) bool {
		x, y := records[i], records[j]
		if x.platform != y.platform {
			return x.platform < y.platform
		}
		if x.encoding != y.encoding {
			return x.encoding < y.encoding
		}
		if x.language != y.language {
			return x.language < y.language
		}
		return x.id < y.id
	})

	var storage bigWriter
	var w bigWriter
	w.u16(0) // format
	w.u16(uint16(len(records)))
	w.u16(uint16(6 + 12*len(records))) // stringOffset
	for _, r := range records {
		w.u16(r.platform)
		w.u16(r.encoding)
		w.u16(r.language)
		w.u16(r.id)
		w.u16(uint16(len(r.data)))
		w.u16(uint16(storage.len()))
		storage.raw(r.data)
	}
	w.raw(storage.bytes())
	return w.bytes()
}

// postScriptName reduces a family name to the PostScript-safe subset.
func postScriptName(family string) string {
	var b strings.Builder
	for _, r := range family {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "iconfont"
	}
	return b.String()
}

func macRoman(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x80 {
			out = append(out, byte(r))
		} else {
			out = append(out, '?')
		}
	}
	return out
}

func utf16BE(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		if r > 0xFFFF {
			// Surrogate pair.
			r -= 0x10000
			out = append(out,
				byte(0xD8|((r>>18)&0x03)), byte(r>>10),
				byte(0xDC|((r>>8)&0x03)), byte(r))
			continue
		}
		out = append(out, byte(r>>8), byte(r))
	}
	return out
}

func (b *ttfBuilder) post() []byte {
	upem := b.metrics.UnitsPerEm

	fixedPitch := uint32(1)
	for i := 2; i < len(b.advances); i++ {
		if b.advances[i] != b.advances[1] {
			fixedPitch = 0
			break
		}
	}
	if len(b.advances) < 2 {
		fixedPitch = 0
	}

	var w bigWriter
	w.u32(0x00030000) // version 3: no glyph names stored
	w.u32(0)          // italicAngle
	w.s16(int16(-upem / 10))
	w.s16(int16(upem / 20))
	w.u32(fixedPitch)
	w.u32(0)
	w.u32(0)
	w.u32(0)
	w.u32(0)
	return w.bytes()
}

// Unicode range bits relevant to icon fonts.
const (
	rangeBasicLatin = 0  // U+0000..U+007F
	rangePUA        = 60 // U+E000..U+F8FF
	rangeNonPlane0  = 57 // any supplementary codepoint
)

func (b *ttfBuilder) os2(cps []rune) []byte {
	upem := b.metrics.UnitsPerEm

	var ranges [4]uint32
	setRange := func(bit int) {
		ranges[bit/32] |= 1 << (bit % 32)
	}
	first, last := uint16(0xFFFF), uint16(0)
	for _, cp := range cps {
		switch {
		case cp < 0x80:
			setRange(rangeBasicLatin)
		case cp >= 0xE000 && cp <= 0xF8FF:
			setRange(rangePUA)
		case cp > 0xFFFF:
			setRange(rangeNonPlane0)
		}
		u := uint16(0xFFFF)
		if cp <= 0xFFFF {
			u = uint16(cp)
		}
		if u < first {
			first = u
		}
		if u > last {
			last = u
		}
	}
	if len(cps) == 0 {
		first, last = 0, 0
	}

	avg := 0
	if n := len(b.advances) - 1; n > 0 {
		sum := 0
		for _, a := range b.advances[1:] {
			sum += int(a)
		}
		avg = sum / n
	}

	_, yMin, _, yMax := b.globalBounds()
	winAscent := max16(int16(b.metrics.Ascent), yMax)
	winDescent := max16(int16(-b.metrics.Descent), -yMin)
	if winDescent < 0 {
		winDescent = 0
	}

	var w bigWriter
	w.u16(4) // version
	w.s16(int16(avg))
	w.u16(400) // usWeightClass
	w.u16(5)   // usWidthClass
	w.u16(0)   // fsType: installable
	w.s16(int16(upem * 65 / 100))
	w.s16(int16(upem * 60 / 100))
	w.s16(0)
	w.s16(int16(upem * 14 / 100))
	w.s16(int16(upem * 65 / 100))
	w.s16(int16(upem * 60 / 100))
	w.s16(0)
	w.s16(int16(upem * 48 / 100))
	w.s16(int16(upem * 5 / 100))
	w.s16(int16(upem * 26 / 100))
	w.s16(0)                // sFamilyClass
	w.raw(make([]byte, 10)) // panose
	for _, r := range ranges {
		w.u32(r)
	}
	w.tag("PfEd") // achVendID
	w.u16(0x0040) // fsSelection: REGULAR
	w.u16(first)
	w.u16(last)
	w.s16(int16(b.metrics.Ascent))
	w.s16(int16(b.metrics.Descent))
	w.s16(b.lineGap())
	w.u16(uint16(winAscent))
	w.u16(uint16(winDescent))
	w.u32(1) // ulCodePageRange1: Latin 1
	w.u32(0)
	w.s16(int16(b.metrics.Ascent / 2)) // sxHeight
	w.s16(int16(b.metrics.Ascent))     // sCapHeight
	w.u16(0)                           // usDefaultChar
	w.u16(32)                          // usBreakChar
	w.u16(0)                           // usMaxContext
	return w.bytes()
}

// assembleFont lays out the table directory, computes per-table checksums,
// and patches head.checkSumAdjustment over the whole file.
func assembleFont(tables map[string][]byte) ([]byte, error) {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	numTables := len(tags)
	entrySelector := 0
	for 1<<(entrySelector+1) <= numTables {
		entrySelector++
	}
	searchRange := 16 << entrySelector

	var w bigWriter
	w.u32(0x00010000) // sfnt version: TrueType outlines
	w.u16(uint16(numTables))
	w.u16(uint16(searchRange))
	w.u16(uint16(entrySelector))
	w.u16(uint16(numTables*16 - searchRange))

	offset := 12 + 16*numTables
	headOffset := -1
	type placement struct {
		data   []byte
		offset int
	}
	placements := make([]placement, 0, numTables)
	for _, tag := range tags {
		data := tables[tag]
		padded := (len(data) + 3) &^ 3
		if tag == "head" {
			headOffset = offset
		}
		w.tag(tag)
		w.u32(Checksum(data))
		w.u32(uint32(offset))
		w.u32(uint32(len(data)))
		placements = append(placements, placement{data, offset})
		offset += padded
	}
	for _, p := range placements {
		w.raw(p.data)
		w.pad4()
	}
	font := w.bytes()
	if headOffset < 0 {
		return nil, fmt.Errorf("font has no head table")
	}

	adjustment := 0xB1B0AFBA - Checksum(font)
	putU32(font[headOffset+8:], adjustment)
	return font, nil
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// Checksum sums big-endian uint32 words, treating the data as zero-padded
// to a multiple of four bytes.
func Checksum(data []byte) uint32 {
	var sum uint32
	n := len(data) &^ 3
	for i := 0; i < n; i += 4 {
		sum += uint32(data[i])<<24 | uint32(data[i+1])<<16 | uint32(data[i+2])<<8 | uint32(data[i+3])
	}
	if rem := len(data) - n; rem > 0 {
		var last [4]byte
		copy(last[:], data[n:])
		sum += uint32(last[0])<<24 | uint32(last[1])<<16 | uint32(last[2])<<8 | uint32(last[3])
	}
	return sum
}
