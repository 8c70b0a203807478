package svgfont

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// Metrics describe the em square of an assembled font. Ascent-descent
// always equals UnitsPerEm.
type Metrics struct {
	UnitsPerEm int
	Ascent     int
	Descent    int // negative
}

// DefaultMetrics returns the 1024-unit em square used for icon fonts.
func DefaultMetrics() Metrics {
	return Metrics{UnitsPerEm: 1024, Ascent: 896, Descent: -128}
}

// Glyph is one font entry: an outline in font space (y grows up) with its
// assigned codepoint and advance width.
type Glyph struct {
	Name      string
	Codepoint rune
	Advance   int
	Outline   Path
}

// BuildGlyph maps an icon into font space. The icon is scaled uniformly so
// its viewBox height fills the em square, the top of the viewBox lands on
// the ascent, the bottom on the descent, and the advance is the scaled
// viewBox width.
func BuildGlyph(name string, cp rune, icon *Icon, m Metrics) Glyph {
	scale := float64(m.UnitsPerEm) / icon.ViewBox.Height
	flip := Matrix{
		A: scale,
		D: -scale,
		E: -icon.ViewBox.MinX * scale,
		F: float64(m.Ascent) + icon.ViewBox.MinY*scale,
	}
	return Glyph{
		Name:      name,
		Codepoint: cp,
		Advance:   int(math.Round(icon.ViewBox.Width * scale)),
		Outline:   icon.Outline.Clone().Transform(flip),
	}
}

// Font is a decoded SVG font: the canonical model shared by every format
// conversion.
type Font struct {
	Name    string
	Metrics Metrics
	Glyphs  []Glyph
}

// GlyphByCodepoint returns the glyph bound to cp, if any.
func (f *Font) GlyphByCodepoint(cp rune) (Glyph, bool) {
	for _, g := range f.Glyphs {
		if g.Codepoint == cp {
			return g, true
		}
	}
	return Glyph{}, false
}

// fontHeader is the document preamble up to the first glyph.
const fontHeader = `<?xml version="1.0" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd" >
<svg xmlns="http://www.w3.org/2000/svg">
<metadata>Generated by svgs2fonts</metadata>
<defs>
  <font id="%s" horiz-adv-x="%d">
    <font-face font-family="%s"
      units-per-em="%d" ascent="%d"
      descent="%d" />
    <missing-glyph horiz-adv-x="0" />
`

const fontFooter = `  </font>
</defs>
</svg>
`

func writeFontHeader(w io.Writer, name string, m Metrics) error {
	escaped := xmlEscape(name)
	_, err := fmt.Fprintf(w, fontHeader,
		escaped, m.UnitsPerEm, escaped, m.UnitsPerEm, m.Ascent, m.Descent)
	return err
}

func writeFontGlyph(w io.Writer, g Glyph) error {
	_, err := fmt.Fprintf(w,
		"    <glyph glyph-name=\"%s\"\n      unicode=\"&#x%X;\"\n      horiz-adv-x=\"%d\" d=\"%s\" />\n",
		xmlEscape(g.Name), g.Codepoint, g.Advance, FormatPathData(g.Outline))
	return err
}

func writeFontFooter(w io.Writer) error {
	_, err := io.WriteString(w, fontFooter)
	return err
}

func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}

// ParseFont decodes an SVG font document produced by the assembler (or any
// conforming generator) back into the canonical model. Glyphs are returned
// sorted by codepoint.
func ParseFont(r io.Reader) (*Font, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	font := &Font{Metrics: DefaultMetrics()}
	defaultAdvance := 0
	sawFont := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing svg font: %w", err)
		}

		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch el.Name.Local {
		case "font":
			sawFont = true
			if id := attr(el, "id"); id != "" {
				font.Name = id
			}
			defaultAdvance = int(attrFloat(el, "horiz-adv-x", 0))

		case "font-face":
			if fam := attr(el, "font-family"); fam != "" && font.Name == "" {
				font.Name = fam
			}
			if v, ok := attrFloatOK(el, "units-per-em"); ok && v > 0 {
				font.Metrics.UnitsPerEm = int(v)
			}
			if v, ok := attrFloatOK(el, "ascent"); ok {
				font.Metrics.Ascent = int(v)
			}
			if v, ok := attrFloatOK(el, "descent"); ok {
				font.Metrics.Descent = int(v)
			}

		case "glyph":
			uni := attr(el, "unicode")
			if uni == "" {
				continue
			}
			cp, size := firstRune(uni)
			if size == 0 {
				continue
			}
			g := Glyph{
				Name:      attr(el, "glyph-name"),
				Codepoint: cp,
				Advance:   int(attrFloat(el, "horiz-adv-x", float64(defaultAdvance))),
			}
			if d := attr(el, "d"); d != "" {
				outline, err := ParsePathData(d)
				if err != nil {
					return nil, fmt.Errorf("glyph %q: %w", g.Name, err)
				}
				g.Outline = outline
			}
			font.Glyphs = append(font.Glyphs, g)
		}
	}

	if !sawFont {
		return nil, fmt.Errorf("document contains no <font> element")
	}

	sort.Slice(font.Glyphs, func(i, j int) bool {
		return font.Glyphs[i].Codepoint < font.Glyphs[j].Codepoint
	})
	return font, nil
}

func firstRune(s string) (rune, int) {
	for _, r := range s {
		return r, 1
	}
	return 0, 0
}
