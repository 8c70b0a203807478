// Package svgfont turns SVG icon files into a single SVG font artifact.
//
// Icons are parsed into flat outline paths (lines, quadratic and cubic
// curves), carried through affine transforms in icon space, then mapped into
// font space where y grows upward and the em square spans UnitsPerEm. The
// GlyphStreamAssembler streams one glyph per icon into the destination font
// under a build-wide timeout with cleanup guaranteed on every exit path.
package svgfont

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is a position or control point in 2D space.
type Point struct {
	X, Y float64
}

// SegOp identifies a path segment kind.
type SegOp uint8

const (
	SegMove SegOp = iota
	SegLine
	SegQuad
	SegCubic
	SegClose
)

// Segment is one canonical path step with absolute coordinates.
// Pts usage per op: Move/Line → Pts[0] endpoint; Quad → Pts[0] control,
// Pts[1] endpoint; Cubic → Pts[0..1] controls, Pts[2] endpoint; Close uses
// none.
type Segment struct {
	Op  SegOp
	Pts [3]Point
}

// Path is a sequence of segments forming zero or more subpaths.
type Path []Segment

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Transform maps every coordinate through m, in place, and returns p.
// Segments are lines and Béziers only, so transforming control points
// transforms the curve exactly.
func (p Path) Transform(m Matrix) Path {
	if m.IsIdentity() {
		return p
	}
	for i := range p {
		switch p[i].Op {
		case SegMove, SegLine:
			p[i].Pts[0] = m.Apply(p[i].Pts[0])
		case SegQuad:
			p[i].Pts[0] = m.Apply(p[i].Pts[0])
			p[i].Pts[1] = m.Apply(p[i].Pts[1])
		case SegCubic:
			p[i].Pts[0] = m.Apply(p[i].Pts[0])
			p[i].Pts[1] = m.Apply(p[i].Pts[1])
			p[i].Pts[2] = m.Apply(p[i].Pts[2])
		}
	}
	return p
}

// Bounds returns the control bounding box of the path. Control points are
// included, so the box is conservative for curves. ok is false for a path
// with no coordinates.
func (p Path) Bounds() (min, max Point, ok bool) {
	min = Point{math.Inf(1), math.Inf(1)}
	max = Point{math.Inf(-1), math.Inf(-1)}
	add := func(pt Point) {
		min.X = math.Min(min.X, pt.X)
		min.Y = math.Min(min.Y, pt.Y)
		max.X = math.Max(max.X, pt.X)
		max.Y = math.Max(max.Y, pt.Y)
		ok = true
	}
	for _, s := range p {
		switch s.Op {
		case SegMove, SegLine:
			add(s.Pts[0])
		case SegQuad:
			add(s.Pts[0])
			add(s.Pts[1])
		case SegCubic:
			add(s.Pts[0])
			add(s.Pts[1])
			add(s.Pts[2])
		}
	}
	if !ok {
		return Point{}, Point{}, false
	}
	return min, max, true
}

// quadErrorFactor bounds the midpoint single-quad approximation error:
// err <= sqrt(3)/36 * |P3 - 3*C2 + 3*C1 - P0|.
var quadErrorFactor = math.Sqrt(3) / 36

// maxQuadSplitDepth caps recursive subdivision so adversarial curves cannot
// blow up segment counts; at depth 8 one cubic yields at most 256 quads.
const maxQuadSplitDepth = 8

// Quadratic converts every cubic segment into quadratic approximations
// within tolerance (in path units) and returns the new path. Non-cubic
// segments pass through unchanged.
func (p Path) Quadratic(tolerance float64) Path {
	out := make(Path, 0, len(p))
	var cur Point
	for _, s := range p {
		switch s.Op {
		case SegMove:
			cur = s.Pts[0]
			out = append(out, s)
		case SegLine:
			cur = s.Pts[0]
			out = append(out, s)
		case SegQuad:
			cur = s.Pts[1]
			out = append(out, s)
		case SegCubic:
			out = appendCubicAsQuads(out, cur, s.Pts[0], s.Pts[1], s.Pts[2], tolerance, 0)
			cur = s.Pts[2]
		case SegClose:
			out = append(out, s)
		}
	}
	return out
}

func appendCubicAsQuads(dst Path, p0, c1, c2, p3 Point, tol float64, depth int) Path {
	dx := p3.X - 3*c2.X + 3*c1.X - p0.X
	dy := p3.Y - 3*c2.Y + 3*c1.Y - p0.Y
	if quadErrorFactor*math.Hypot(dx, dy) <= tol || depth >= maxQuadSplitDepth {
		ctrl := Point{
			X: (3*(c1.X+c2.X) - (p0.X + p3.X)) / 4,
			Y: (3*(c1.Y+c2.Y) - (p0.Y + p3.Y)) / 4,
		}
		return append(dst, Segment{Op: SegQuad, Pts: [3]Point{ctrl, p3}})
	}

	// de Casteljau split at t = 0.5
	ab := midpoint(p0, c1)
	bc := midpoint(c1, c2)
	cd := midpoint(c2, p3)
	abc := midpoint(ab, bc)
	bcd := midpoint(bc, cd)
	mid := midpoint(abc, bcd)

	dst = appendCubicAsQuads(dst, p0, ab, abc, mid, tol, depth+1)
	return appendCubicAsQuads(dst, mid, bcd, cd, p3, tol, depth+1)
}

func midpoint(a, b Point) Point {
	return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
}

// FormatPathData serializes the path as SVG path data with absolute
// commands and coordinates rounded to two decimals.
func FormatPathData(p Path) string {
	var b strings.Builder
	b.Grow(len(p) * 16)
	for _, s := range p {
		switch s.Op {
		case SegMove:
			b.WriteByte('M')
			writeCoord(&b, s.Pts[0])
		case SegLine:
			b.WriteByte('L')
			writeCoord(&b, s.Pts[0])
		case SegQuad:
			b.WriteByte('Q')
			writeCoord(&b, s.Pts[0])
			b.WriteByte(' ')
			writeCoord(&b, s.Pts[1])
		case SegCubic:
			b.WriteByte('C')
			writeCoord(&b, s.Pts[0])
			b.WriteByte(' ')
			writeCoord(&b, s.Pts[1])
			b.WriteByte(' ')
			writeCoord(&b, s.Pts[2])
		case SegClose:
			b.WriteByte('Z')
		}
	}
	return b.String()
}

func writeCoord(b *strings.Builder, pt Point) {
	b.WriteString(formatNumber(pt.X))
	b.WriteByte(' ')
	b.WriteString(formatNumber(pt.Y))
}

func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	if math.Abs(v) < 1e15 {
		// Rounding larger magnitudes would overflow the *100 step; they
		// are far outside any real glyph anyway.
		v = math.Round(v*100) / 100
	}
	if v == 0 {
		// Normalize -0.
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Matrix is a 2D affine transform:
//
//	| A C E |
//	| B D F |
//
// mapping (x, y) to (A*x + C*y + E, B*x + D*y + F).
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{A: 1, D: 1}
}

// IsIdentity reports whether m leaves points unchanged.
func (m Matrix) IsIdentity() bool {
	return m == Matrix{A: 1, D: 1}
}

// Mul composes transforms: the returned matrix applies n first, then m,
// matching SVG's left-to-right transform lists.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// Apply maps a point through the transform.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// Translate returns a translation transform.
func Translate(tx, ty float64) Matrix {
	return Matrix{A: 1, D: 1, E: tx, F: ty}
}

// ScaleXY returns a scale transform.
func ScaleXY(sx, sy float64) Matrix {
	return Matrix{A: sx, D: sy}
}

// Rotate returns a rotation around the origin, in degrees.
func Rotate(deg float64) Matrix {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Matrix{A: cos, B: sin, C: -sin, D: cos}
}

// SkewX returns a horizontal skew, in degrees.
func SkewX(deg float64) Matrix {
	return Matrix{A: 1, C: math.Tan(deg * math.Pi / 180), D: 1}
}

// SkewY returns a vertical skew, in degrees.
func SkewY(deg float64) Matrix {
	return Matrix{A: 1, B: math.Tan(deg * math.Pi / 180), D: 1}
}

// ParseTransform parses an SVG transform attribute (matrix, translate,
// scale, rotate, skewX, skewY) into a single matrix. Operations compose
// left to right as SVG specifies.
func ParseTransform(s string) (Matrix, error) {
	result := Identity()
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			return Matrix{}, fmt.Errorf("transform %q: missing '('", s)
		}
		name := strings.TrimSpace(strings.TrimLeft(rest[:open], ", \t\n"))
		close := strings.IndexByte(rest[open:], ')')
		if close < 0 {
			return Matrix{}, fmt.Errorf("transform %q: missing ')'", s)
		}
		args, err := parseNumberList(rest[open+1 : open+close])
		if err != nil {
			return Matrix{}, fmt.Errorf("transform %q: %w", s, err)
		}

		op, err := transformOp(name, args)
		if err != nil {
			return Matrix{}, fmt.Errorf("transform %q: %w", s, err)
		}
		result = result.Mul(op)

		rest = strings.TrimSpace(rest[open+close+1:])
	}
	return result, nil
}

func transformOp(name string, args []float64) (Matrix, error) {
	switch name {
	case "matrix":
		if len(args) != 6 {
			return Matrix{}, fmt.Errorf("matrix wants 6 args, got %d", len(args))
		}
		return Matrix{args[0], args[1], args[2], args[3], args[4], args[5]}, nil
	case "translate":
		switch len(args) {
		case 1:
			return Translate(args[0], 0), nil
		case 2:
			return Translate(args[0], args[1]), nil
		}
		return Matrix{}, fmt.Errorf("translate wants 1 or 2 args, got %d", len(args))
	case "scale":
		switch len(args) {
		case 1:
			return ScaleXY(args[0], args[0]), nil
		case 2:
			return ScaleXY(args[0], args[1]), nil
		}
		return Matrix{}, fmt.Errorf("scale wants 1 or 2 args, got %d", len(args))
	case "rotate":
		switch len(args) {
		case 1:
			return Rotate(args[0]), nil
		case 3:
			// rotate(a cx cy) = translate(cx cy) rotate(a) translate(-cx -cy)
			m := Translate(args[1], args[2]).Mul(Rotate(args[0]))
			return m.Mul(Translate(-args[1], -args[2])), nil
		}
		return Matrix{}, fmt.Errorf("rotate wants 1 or 3 args, got %d", len(args))
	case "skewX":
		if len(args) != 1 {
			return Matrix{}, fmt.Errorf("skewX wants 1 arg, got %d", len(args))
		}
		return SkewX(args[0]), nil
	case "skewY":
		if len(args) != 1 {
			return Matrix{}, fmt.Errorf("skewY wants 1 arg, got %d", len(args))
		}
		return SkewY(args[0]), nil
	}
	return Matrix{}, fmt.Errorf("unknown transform %q", name)
}

func parseNumberList(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

// arcToCubics converts one elliptical arc (SVG A command semantics) into
// cubic segments appended to dst, following the endpoint-to-center
// conversion in the SVG spec. Degenerate arcs fall back to a straight line.
func arcToCubics(dst Path, from Point, rx, ry, rotDeg float64, largeArc, sweep bool, to Point) Path {
	if from == to {
		return dst
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return append(dst, Segment{Op: SegLine, Pts: [3]Point{to}})
	}

	phi := rotDeg * math.Pi / 180
	sinPhi, cosPhi := math.Sincos(phi)

	// Step 1: midpoint to the rotated frame.
	hx := (from.X - to.X) / 2
	hy := (from.Y - to.Y) / 2
	x1p := cosPhi*hx + sinPhi*hy
	y1p := -sinPhi*hx + cosPhi*hy

	// Step 2: scale radii up when the endpoints cannot fit an ellipse.
	lambda := x1p*x1p/(rx*rx) + y1p*y1p/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	// Step 3: center in the rotated frame.
	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := math.Sqrt(math.Max(0, num/den))
	if largeArc == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	// Step 4: back to the original frame.
	cx := cosPhi*cxp - sinPhi*cyp + (from.X+to.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (from.Y+to.Y)/2

	theta1 := math.Atan2((y1p-cyp)/ry, (x1p-cxp)/rx)
	theta2 := math.Atan2((-y1p-cyp)/ry, (-x1p-cxp)/rx)
	delta := theta2 - theta1
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		// Radii far outside float range degenerate; keep the endpoint.
		return append(dst, Segment{Op: SegLine, Pts: [3]Point{to}})
	}

	// Split into segments no larger than a quarter turn and approximate
	// each with one cubic.
	segments := int(math.Ceil(math.Abs(delta) / (math.Pi / 2)))
	if segments == 0 {
		return dst
	}
	if segments > 4 {
		segments = 4
	}
	step := delta / float64(segments)
	alpha := 4.0 / 3.0 * math.Tan(step/4)

	ellipsePoint := func(theta float64) (Point, Point) {
		sinT, cosT := math.Sincos(theta)
		pt := Point{
			X: cx + rx*cosT*cosPhi - ry*sinT*sinPhi,
			Y: cy + rx*cosT*sinPhi + ry*sinT*cosPhi,
		}
		// Derivative direction, used for control point placement.
		deriv := Point{
			X: -rx*sinT*cosPhi - ry*cosT*sinPhi,
			Y: -rx*sinT*sinPhi + ry*cosT*cosPhi,
		}
		return pt, deriv
	}

	theta := theta1
	prev, dPrev := ellipsePoint(theta)
	for i := 0; i < segments; i++ {
		next := theta + step
		pt, dNext := ellipsePoint(next)
		c1 := Point{prev.X + alpha*dPrev.X, prev.Y + alpha*dPrev.Y}
		c2 := Point{pt.X - alpha*dNext.X, pt.Y - alpha*dNext.Y}
		end := pt
		if i == segments-1 {
			// Land exactly on the endpoint despite rounding.
			end = to
		}
		dst = append(dst, Segment{Op: SegCubic, Pts: [3]Point{c1, c2, end}})
		theta, prev, dPrev = next, pt, dNext
	}
	return dst
}
