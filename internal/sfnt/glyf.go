package sfnt

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/svgfont"
)

// bigWriter accumulates big-endian SFNT data.
type bigWriter struct {
	buf bytes.Buffer
}

func (w *bigWriter) u8(v uint8)   { w.buf.WriteByte(v) }
func (w *bigWriter) u16(v uint16) { w.writeBE(2, uint64(v)) }
func (w *bigWriter) u32(v uint32) { w.writeBE(4, uint64(v)) }
func (w *bigWriter) s16(v int16)  { w.u16(uint16(v)) }
func (w *bigWriter) s64(v int64)  { w.writeBE(8, uint64(v)) }

func (w *bigWriter) writeBE(n int, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf.Write(tmp[8-n:])
}

func (w *bigWriter) tag(s string) {
	var t [4]byte
	copy(t[:], s)
	for i := len(s); i < 4; i++ {
		t[i] = ' '
	}
	w.buf.Write(t[:])
}

func (w *bigWriter) raw(b []byte)    { w.buf.Write(b) }
func (w *bigWriter) len() int        { return w.buf.Len() }
func (w *bigWriter) bytes() []byte   { return w.buf.Bytes() }
func (w *bigWriter) pad4()           { w.padTo(4) }
func (w *bigWriter) padTo(align int) {
	for w.buf.Len()%align != 0 {
		w.buf.WriteByte(0)
	}
}

// glyphPoint is one TrueType contour point in font units.
type glyphPoint struct {
	x, y    int16
	onCurve bool
}

// glyphOutline is a glyph ready for glyf encoding.
type glyphOutline struct {
	contours               [][]glyphPoint
	xMin, yMin, xMax, yMax int16
}

func (o *glyphOutline) empty() bool { return len(o.contours) == 0 }

func (o *glyphOutline) pointCount() int {
	n := 0
	for _, c := range o.contours {
		n += len(c)
	}
	return n
}

// quadTolerance is the cubic-to-quadratic error bound in font units; one
// unit of a 1024-unit em is invisible at icon sizes.
const quadTolerance = 1.0

// buildOutline converts a font-space outline into TrueType contours. Cubics
// are approximated by quadratics, coordinates round to integers, and every
// contour is implicitly closed.
func buildOutline(p svgfont.Path) glyphOutline {
	q := p.Quadratic(quadTolerance)

	var out glyphOutline
	var contour []glyphPoint

	push := func(x, y float64, on bool) {
		pt := glyphPoint{clampCoord(x), clampCoord(y), on}
		if n := len(contour); n > 0 && on && contour[n-1].onCurve &&
			contour[n-1].x == pt.x && contour[n-1].y == pt.y {
			return
		}
		contour = append(contour, pt)
	}
	flush := func() {
		// Drop a trailing on-curve point that duplicates the start; the
		// rasterizer closes contours itself.
		if n := len(contour); n > 1 {
			if contour[n-1].onCurve && contour[0].onCurve &&
				contour[n-1] == contour[0] {
				contour = contour[:n-1]
			}
		}
		if len(contour) >= 2 {
			out.contours = append(out.contours, contour)
		}
		contour = nil
	}

	for _, s := range q {
		switch s.Op {
		case svgfont.SegMove:
			flush()
			push(s.Pts[0].X, s.Pts[0].Y, true)
		case svgfont.SegLine:
			push(s.Pts[0].X, s.Pts[0].Y, true)
		case svgfont.SegQuad:
			push(s.Pts[0].X, s.Pts[0].Y, false)
			push(s.Pts[1].X, s.Pts[1].Y, true)
		case svgfont.SegClose:
			flush()
		}
	}
	flush()

	out.xMin, out.yMin = math.MaxInt16, math.MaxInt16
	out.xMax, out.yMax = math.MinInt16, math.MinInt16
	for _, c := range out.contours {
		for _, pt := range c {
			out.xMin = min16(out.xMin, pt.x)
			out.yMin = min16(out.yMin, pt.y)
			out.xMax = max16(out.xMax, pt.x)
			out.yMax = max16(out.yMax, pt.y)
		}
	}
	if out.empty() {
		out.xMin, out.yMin, out.xMax, out.yMax = 0, 0, 0, 0
	}
	return out
}

func clampCoord(v float64) int16 {
	r := math.Round(v)
	if r > math.MaxInt16 {
		return math.MaxInt16
	}
	if r < math.MinInt16 {
		return math.MinInt16
	}
	return int16(r)
}

func min16(a, b int16) int16 {
	if a < b {
		return a
	}
	return b
}

func max16(a, b int16) int16 {
	if a > b {
		return a
	}
	return b
}

// Simple glyph flag bits.
const (
	flagOnCurve       = 0x01
	flagXShort        = 0x02
	flagYShort        = 0x04
	flagRepeat        = 0x08
	flagXSamePositive = 0x10
	flagYSamePositive = 0x20
)

// encodeSimpleGlyph serializes one glyph description: header, contour end
// points, flags with repeat compression, then delta-encoded coordinates.
// Empty glyphs encode as zero bytes.
func encodeSimpleGlyph(o glyphOutline) []byte {
	if o.empty() {
		return nil
	}

	var w bigWriter
	w.s16(int16(len(o.contours)))
	w.s16(o.xMin)
	w.s16(o.yMin)
	w.s16(o.xMax)
	w.s16(o.yMax)

	end := -1
	for _, c := range o.contours {
		end += len(c)
		w.u16(uint16(end))
	}
	w.u16(0) // no instructions

	flags := make([]uint8, 0, o.pointCount())
	var xData, yData bigWriter
	prev := glyphPoint{}
	for _, c := range o.contours {
		for _, pt := range c {
			var f uint8
			if pt.onCurve {
				f |= flagOnCurve
			}

			dx := int(pt.x) - int(prev.x)
			switch {
			case dx == 0:
				f |= flagXSamePositive
			case dx >= -255 && dx <= 255:
				f |= flagXShort
				if dx >= 0 {
					f |= flagXSamePositive
				} else {
					dx = -dx
				}
				xData.u8(uint8(dx))
			default:
				xData.s16(int16(dx))
			}

			dy := int(pt.y) - int(prev.y)
			switch {
			case dy == 0:
				f |= flagYSamePositive
			case dy >= -255 && dy <= 255:
				f |= flagYShort
				if dy >= 0 {
					f |= flagYSamePositive
				} else {
					dy = -dy
				}
				yData.u8(uint8(dy))
			default:
				yData.s16(int16(dy))
			}

			flags = append(flags, f)
			prev = pt
		}
	}

	// Repeat-compress the flag run.
	for i := 0; i < len(flags); {
		j := i + 1
		for j < len(flags) && flags[j] == flags[i] && j-i <= 255 {
			j++
		}
		if repeats := j - i - 1; repeats > 0 {
			w.u8(flags[i] | flagRepeat)
			w.u8(uint8(repeats))
		} else {
			w.u8(flags[i])
		}
		i = j
	}

	w.raw(xData.bytes())
	w.raw(yData.bytes())
	w.pad4()
	return w.bytes()
}

// cmapGroup is a run of consecutive codepoints mapping to consecutive
// glyph ids.
type cmapGroup struct {
	start, end   rune
	startGlyphID uint16
}

// groupCodepoints builds maximal contiguous runs from a sorted
// codepoint→glyph id mapping.
func groupCodepoints(cps []rune, firstGlyphID uint16) []cmapGroup {
	var groups []cmapGroup
	for i, cp := range cps {
		gid := firstGlyphID + uint16(i)
		if n := len(groups); n > 0 && groups[n-1].end+1 == cp {
			groups[n-1].end = cp
			continue
		}
		groups = append(groups, cmapGroup{start: cp, end: cp, startGlyphID: gid})
	}
	return groups
}

// encodeCmap builds the cmap table for the given sorted codepoints, which
// map to glyph ids firstGlyphID, firstGlyphID+1, ... in order. BMP
// codepoints are served by a format 4 subtable; a format 12 subtable is
// added only when supplementary-plane codepoints exist.
func encodeCmap(cps []rune, firstGlyphID uint16) []byte {
	var bmp, all []rune
	for _, cp := range cps {
		if cp <= 0xFFFF {
			bmp = append(bmp, cp)
		}
		all = append(all, cp)
	}
	needWide := len(bmp) != len(all)

	format4 := encodeCmapFormat4(bmp, firstGlyphID)
	var format12 []byte
	if needWide {
		format12 = encodeCmapFormat12(all, firstGlyphID)
	}

	type record struct {
		platform, encoding uint16
		subtable           []byte
	}
	records := []record{
		{0, 3, format4},
		{3, 1, format4},
	}
	if needWide {
		records = append(records, record{0, 4, format12}, record{3, 10, format12})
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].platform != records[j].platform {
			return records[i].platform < records[j].platform
		}
		return records[i].encoding < records[j].encoding
	})

	// Identical subtables are stored once and referenced twice.
	offsets := make(map[*byte]uint32)
	headerSize := 4 + 8*len(records)
	var storage bigWriter
	for _, r := range records {
		key := &r.subtable[0]
		if _, ok := offsets[key]; !ok {
			offsets[key] = uint32(headerSize + storage.len())
			storage.raw(r.subtable)
		}
	}

	var w bigWriter
	w.u16(0) // version
	w.u16(uint16(len(records)))
	for _, r := range records {
		w.u16(r.platform)
		w.u16(r.encoding)
		w.u32(offsets[&r.subtable[0]])
	}
	w.raw(storage.bytes())
	return w.bytes()
}

func encodeCmapFormat4(bmp []rune, firstGlyphID uint16) []byte {
	groups := groupCodepoints(bmp, firstGlyphID)

	type segment struct {
		start, end uint16
		delta      uint16
	}
	segs := make([]segment, 0, len(groups)+1)
	for _, g := range groups {
		segs = append(segs, segment{
			start: uint16(g.start),
			end:   uint16(g.end),
			delta: g.startGlyphID - uint16(g.start),
		})
	}
	// Format 4 requires a final segment ending at 0xFFFF; add the sentinel
	// unless a real mapping already covers it.
	if n := len(segs); n == 0 || segs[n-1].end != 0xFFFF {
		segs = append(segs, segment{start: 0xFFFF, end: 0xFFFF, delta: 1})
	}

	segCount := len(segs)
	entrySelector := 0
	for 1<<(entrySelector+1) <= segCount {
		entrySelector++
	}
	searchRange := 2 << entrySelector

	var w bigWriter
	w.u16(4)
	w.u16(uint16(16 + segCount*8)) // length
	w.u16(0)                       // language
	w.u16(uint16(segCount * 2))
	w.u16(uint16(searchRange))
	w.u16(uint16(entrySelector))
	w.u16(uint16(segCount*2 - searchRange))
	for _, s := range segs {
		w.u16(s.end)
	}
	w.u16(0) // reservedPad
	for _, s := range segs {
		w.u16(s.start)
	}
	for _, s := range segs {
		w.u16(s.delta)
	}
	for range segs {
		w.u16(0) // idRangeOffset: deltas carry every mapping
	}
	return w.bytes()
}

func encodeCmapFormat12(cps []rune, firstGlyphID uint16) []byte {
	groups := groupCodepoints(cps, firstGlyphID)

	var w bigWriter
	w.u16(12)
	w.u16(0) // reserved
	w.u32(uint32(16 + 12*len(groups)))
	w.u32(0) // language
	w.u32(uint32(len(groups)))
	for _, g := range groups {
		w.u32(uint32(g.start))
		w.u32(uint32(g.end))
		w.u32(uint32(g.startGlyphID))
	}
	return w.bytes()
}
