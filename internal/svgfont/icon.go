package svgfont

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// kappa is the cubic control distance approximating a quarter circle.
const kappa = 0.5522847498307936

// ViewBox is the icon's coordinate system in icon space (y grows down).
type ViewBox struct {
	MinX, MinY, Width, Height float64
}

// Icon is one parsed SVG icon: its coordinate system and the merged
// outline of every drawable element, with all transforms applied.
type Icon struct {
	ViewBox ViewBox
	Outline Path
}

// skippedElements are subtrees that never contribute outline geometry.
var skippedElements = map[string]bool{
	"defs": true, "clipPath": true, "mask": true, "symbol": true,
	"style": true, "metadata": true, "title": true, "desc": true,
	"pattern": true, "marker": true, "filter": true, "script": true,
	"linearGradient": true, "radialGradient": true, "text": true,
}

// ParseIcon reads one SVG document and extracts its outline. Supported
// elements are path, rect, circle, ellipse, line, polyline and polygon;
// group and element transforms compose; strokes are ignored, the raw
// geometry carries through. The icon must declare a viewBox or positive
// width and height.
func ParseIcon(r io.Reader) (*Icon, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	icon := &Icon{}
	sawRoot := false
	// Transform stack: one entry per open container element.
	stack := []Matrix{Identity()}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing icon: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			name := el.Name.Local
			if !sawRoot {
				if name != "svg" {
					return nil, fmt.Errorf("not an SVG document: root element <%s>", name)
				}
				vb, err := parseDimensions(el)
				if err != nil {
					return nil, err
				}
				icon.ViewBox = vb
				sawRoot = true
				continue
			}

			if skippedElements[name] {
				if err := dec.Skip(); err != nil && err != io.EOF {
					return nil, fmt.Errorf("parsing icon: %w", err)
				}
				continue
			}

			ct := stack[len(stack)-1]
			if ts := attr(el, "transform"); ts != "" {
				m, err := ParseTransform(ts)
				if err != nil {
					return nil, err
				}
				ct = ct.Mul(m)
			}

			switch name {
			case "g", "svg", "a", "switch":
				stack = append(stack, ct)
			default:
				shape, err := shapeOutline(el)
				if err != nil {
					return nil, err
				}
				if len(shape) > 0 {
					icon.Outline = append(icon.Outline, shape.Transform(ct)...)
				}
				// Shape elements may legally carry children (title, desc);
				// none contribute geometry.
				if err := dec.Skip(); err != nil && err != io.EOF {
					return nil, fmt.Errorf("parsing icon: %w", err)
				}
			}

		case xml.EndElement:
			switch el.Name.Local {
			case "g", "svg", "a", "switch":
				if len(stack) > 1 {
					stack = stack[:len(stack)-1]
				}
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("not an SVG document: no root element")
	}
	return icon, nil
}

// shapeOutline builds the outline path for one drawable element in its own
// coordinates, before any transform.
func shapeOutline(el xml.StartElement) (Path, error) {
	switch el.Name.Local {
	case "path":
		d := attr(el, "d")
		if strings.TrimSpace(d) == "" {
			return nil, nil
		}
		p, err := ParsePathData(d)
		if err != nil {
			return nil, fmt.Errorf("<path>: %w", err)
		}
		return p, nil

	case "rect":
		return rectOutline(el)

	case "circle":
		cx := attrFloat(el, "cx", 0)
		cy := attrFloat(el, "cy", 0)
		r := attrFloat(el, "r", 0)
		if r <= 0 {
			return nil, nil
		}
		return ellipseOutline(cx, cy, r, r), nil

	case "ellipse":
		cx := attrFloat(el, "cx", 0)
		cy := attrFloat(el, "cy", 0)
		rx := attrFloat(el, "rx", 0)
		ry := attrFloat(el, "ry", 0)
		if rx <= 0 || ry <= 0 {
			return nil, nil
		}
		return ellipseOutline(cx, cy, rx, ry), nil

	case "line":
		p1 := Point{attrFloat(el, "x1", 0), attrFloat(el, "y1", 0)}
		p2 := Point{attrFloat(el, "x2", 0), attrFloat(el, "y2", 0)}
		return Path{
			{Op: SegMove, Pts: [3]Point{p1}},
			{Op: SegLine, Pts: [3]Point{p2}},
		}, nil

	case "polyline", "polygon":
		pts, err := parsePoints(attr(el, "points"))
		if err != nil {
			return nil, fmt.Errorf("<%s>: %w", el.Name.Local, err)
		}
		if len(pts) < 2 {
			return nil, nil
		}
		p := Path{{Op: SegMove, Pts: [3]Point{pts[0]}}}
		for _, pt := range pts[1:] {
			p = append(p, Segment{Op: SegLine, Pts: [3]Point{pt}})
		}
		if el.Name.Local == "polygon" {
			p = append(p, Segment{Op: SegClose})
		}
		return p, nil
	}

	// Unknown or non-drawable element: contributes nothing.
	return nil, nil
}

func rectOutline(el xml.StartElement) (Path, error) {
	x := attrFloat(el, "x", 0)
	y := attrFloat(el, "y", 0)
	w := attrFloat(el, "width", 0)
	h := attrFloat(el, "height", 0)
	if w <= 0 || h <= 0 {
		return nil, nil
	}

	rx, hasRx := attrFloatOK(el, "rx")
	ry, hasRy := attrFloatOK(el, "ry")
	// A lone radius applies to both axes.
	if hasRx && !hasRy {
		ry = rx
	}
	if hasRy && !hasRx {
		rx = ry
	}
	rx = math.Min(math.Max(rx, 0), w/2)
	ry = math.Min(math.Max(ry, 0), h/2)

	if rx == 0 || ry == 0 {
		return Path{
			{Op: SegMove, Pts: [3]Point{{x, y}}},
			{Op: SegLine, Pts: [3]Point{{x + w, y}}},
			{Op: SegLine, Pts: [3]Point{{x + w, y + h}}},
			{Op: SegLine, Pts: [3]Point{{x, y + h}}},
			{Op: SegClose},
		}, nil
	}

	kx := kappa * rx
	ky := kappa * ry
	return Path{
		{Op: SegMove, Pts: [3]Point{{x + rx, y}}},
		{Op: SegLine, Pts: [3]Point{{x + w - rx, y}}},
		{Op: SegCubic, Pts: [3]Point{{x + w - rx + kx, y}, {x + w, y + ry - ky}, {x + w, y + ry}}},
		{Op: SegLine, Pts: [3]Point{{x + w, y + h - ry}}},
		{Op: SegCubic, Pts: [3]Point{{x + w, y + h - ry + ky}, {x + w - rx + kx, y + h}, {x + w - rx, y + h}}},
		{Op: SegLine, Pts: [3]Point{{x + rx, y + h}}},
		{Op: SegCubic, Pts: [3]Point{{x + rx - kx, y + h}, {x, y + h - ry + ky}, {x, y + h - ry}}},
		{Op: SegLine, Pts: [3]Point{{x, y + ry}}},
		{Op: SegCubic, Pts: [3]Point{{x, y + ry - ky}, {x + rx - kx, y}, {x + rx, y}}},
		{Op: SegClose},
	}, nil
}

func ellipseOutline(cx, cy, rx, ry float64) Path {
	kx := kappa * rx
	ky := kappa * ry
	return Path{
		{Op: SegMove, Pts: [3]Point{{cx + rx, cy}}},
		{Op: SegCubic, Pts: [3]Point{{cx + rx, cy + ky}, {cx + kx, cy + ry}, {cx, cy + ry}}},
		{Op: SegCubic, Pts: [3]Point{{cx - kx, cy + ry}, {cx - rx, cy + ky}, {cx - rx, cy}}},
		{Op: SegCubic, Pts: [3]Point{{cx - rx, cy - ky}, {cx - kx, cy - ry}, {cx, cy - ry}}},
		{Op: SegCubic, Pts: [3]Point{{cx + kx, cy - ry}, {cx + rx, cy - ky}, {cx + rx, cy}}},
		{Op: SegClose},
	}
}

// parseDimensions resolves the icon coordinate system from viewBox or,
// failing that, width/height attributes.
func parseDimensions(el xml.StartElement) (ViewBox, error) {
	if vb := attr(el, "viewBox"); vb != "" {
		nums, err := parseNumberList(vb)
		if err != nil || len(nums) != 4 {
			return ViewBox{}, fmt.Errorf("bad viewBox %q", vb)
		}
		if nums[2] <= 0 || nums[3] <= 0 {
			return ViewBox{}, fmt.Errorf("viewBox %q has non-positive size", vb)
		}
		return ViewBox{MinX: nums[0], MinY: nums[1], Width: nums[2], Height: nums[3]}, nil
	}

	w := parseLength(attr(el, "width"))
	h := parseLength(attr(el, "height"))
	if w <= 0 || h <= 0 {
		return ViewBox{}, fmt.Errorf("icon declares neither viewBox nor positive width/height")
	}
	return ViewBox{Width: w, Height: h}, nil
}

// parseLength reads a CSS length, dropping a trailing unit. Percentages
// have no absolute meaning here and parse as zero.
func parseLength(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "%") {
		return 0
	}
	end := len(s)
	for end > 0 {
		c := s[end-1]
		if (c >= '0' && c <= '9') || c == '.' {
			break
		}
		end--
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

func parsePoints(s string) ([]Point, error) {
	nums, err := parseNumberList(s)
	if err != nil {
		return nil, err
	}
	// A dangling odd coordinate is dropped, matching renderer behavior of
	// drawing up to the last complete pair.
	out := make([]Point, 0, len(nums)/2)
	for i := 0; i+1 < len(nums); i += 2 {
		out = append(out, Point{nums[i], nums[i+1]})
	}
	return out, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func attrFloat(el xml.StartElement, name string, def float64) float64 {
	v, ok := attrFloatOK(el, name)
	if !ok {
		return def
	}
	return v
}

func attrFloatOK(el xml.StartElement, name string) (float64, bool) {
	s := attr(el, name)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
