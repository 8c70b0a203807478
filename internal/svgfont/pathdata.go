package svgfont

import (
	"fmt"
	"strconv"
)

// ParsePathData parses SVG 1.1 path data into a canonical Path. All
// commands are supported, including implicit repeats, relative forms,
// shorthand reflections, and arcs (converted to cubics). Coordinates are
// absolute in the result; H and V become lines. Malformed input returns an
// error, never a panic.
func ParsePathData(d string) (Path, error) {
	p := pathParser{data: d}
	return p.parse()
}

type pathParser struct {
	data string
	pos  int

	path       Path
	cur        Point
	start      Point
	cmd        byte
	lastOp     byte // previous command letter, uppercased; reflection basis
	cubicCtrl  Point
	quadCtrl   Point
	startedSub bool
}

func (p *pathParser) parse() (Path, error) {
	for {
		p.skipSeparators()
		if p.pos >= len(p.data) {
			return p.path, nil
		}

		c := p.data[p.pos]
		if isPathCommand(c) {
			p.cmd = c
			p.pos++
		} else if p.cmd == 0 {
			return nil, fmt.Errorf("path data must start with a command, got %q", rune(c))
		} else {
			// Implicit repeat: extra coordinate groups reuse the previous
			// command; after a moveto they continue as linetos.
			switch p.cmd {
			case 'M':
				p.cmd = 'L'
			case 'm':
				p.cmd = 'l'
			case 'Z', 'z':
				return nil, fmt.Errorf("unexpected %q after closepath at offset %d", rune(c), p.pos)
			}
		}

		if err := p.apply(); err != nil {
			return nil, err
		}
	}
}

func (p *pathParser) apply() error {
	rel := p.cmd >= 'a' && p.cmd <= 'z'
	upper := p.cmd
	if rel {
		upper -= 'a' - 'A'
	}

	switch upper {
	case 'M':
		pt, err := p.point(rel)
		if err != nil {
			return err
		}
		p.cur = pt
		p.start = pt
		p.startedSub = true
		p.path = append(p.path, Segment{Op: SegMove, Pts: [3]Point{pt}})

	case 'L':
		pt, err := p.point(rel)
		if err != nil {
			return err
		}
		if err := p.needSubpath(); err != nil {
			return err
		}
		p.cur = pt
		p.path = append(p.path, Segment{Op: SegLine, Pts: [3]Point{pt}})

	case 'H':
		x, err := p.number()
		if err != nil {
			return err
		}
		if err := p.needSubpath(); err != nil {
			return err
		}
		if rel {
			x += p.cur.X
		}
		p.cur = Point{x, p.cur.Y}
		p.path = append(p.path, Segment{Op: SegLine, Pts: [3]Point{p.cur}})

	case 'V':
		y, err := p.number()
		if err != nil {
			return err
		}
		if err := p.needSubpath(); err != nil {
			return err
		}
		if rel {
			y += p.cur.Y
		}
		p.cur = Point{p.cur.X, y}
		p.path = append(p.path, Segment{Op: SegLine, Pts: [3]Point{p.cur}})

	case 'C':
		c1, err := p.point(rel)
		if err != nil {
			return err
		}
		c2, err := p.point(rel)
		if err != nil {
			return err
		}
		end, err := p.point(rel)
		if err != nil {
			return err
		}
		if err := p.needSubpath(); err != nil {
			return err
		}
		p.path = append(p.path, Segment{Op: SegCubic, Pts: [3]Point{c1, c2, end}})
		p.cubicCtrl = c2
		p.cur = end

	case 'S':
		c2, err := p.point(rel)
		if err != nil {
			return err
		}
		end, err := p.point(rel)
		if err != nil {
			return err
		}
		if err := p.needSubpath(); err != nil {
			return err
		}
		c1 := p.cur
		if p.lastOp == 'C' || p.lastOp == 'S' {
			c1 = reflect(p.cubicCtrl, p.cur)
		}
		p.path = append(p.path, Segment{Op: SegCubic, Pts: [3]Point{c1, c2, end}})
		p.cubicCtrl = c2
		p.cur = end

	case 'Q':
		ctrl, err := p.point(rel)
		if err != nil {
			return err
		}
		end, err := p.point(rel)
		if err != nil {
			return err
		}
		if err := p.needSubpath(); err != nil {
			return err
		}
		p.path = append(p.path, Segment{Op: SegQuad, Pts: [3]Point{ctrl, end}})
		p.quadCtrl = ctrl
		p.cur = end

	case 'T':
		end, err := p.point(rel)
		if err != nil {
			return err
		}
		if err := p.needSubpath(); err != nil {
			return err
		}
		ctrl := p.cur
		if p.lastOp == 'Q' || p.lastOp == 'T' {
			ctrl = reflect(p.quadCtrl, p.cur)
		}
		p.path = append(p.path, Segment{Op: SegQuad, Pts: [3]Point{ctrl, end}})
		p.quadCtrl = ctrl
		p.cur = end

	case 'A':
		rx, err := p.number()
		if err != nil {
			return err
		}
		ry, err := p.number()
		if err != nil {
			return err
		}
		rot, err := p.number()
		if err != nil {
			return err
		}
		largeArc, err := p.flag()
		if err != nil {
			return err
		}
		sweep, err := p.flag()
		if err != nil {
			return err
		}
		end, err := p.point(rel)
		if err != nil {
			return err
		}
		if err := p.needSubpath(); err != nil {
			return err
		}
		p.path = arcToCubics(p.path, p.cur, rx, ry, rot, largeArc, sweep, end)
		p.cur = end

	case 'Z':
		if p.startedSub {
			p.path = append(p.path, Segment{Op: SegClose})
		}
		p.cur = p.start

	default:
		return fmt.Errorf("unknown path command %q at offset %d", rune(p.cmd), p.pos)
	}

	p.lastOp = upper
	return nil
}

// needSubpath rejects drawing commands before any moveto, which would
// otherwise draw from an undefined current point.
func (p *pathParser) needSubpath() error {
	if !p.startedSub {
		return fmt.Errorf("path command %q before any moveto", rune(p.cmd))
	}
	return nil
}

func (p *pathParser) point(rel bool) (Point, error) {
	x, err := p.number()
	if err != nil {
		return Point{}, err
	}
	y, err := p.number()
	if err != nil {
		return Point{}, err
	}
	if rel {
		x += p.cur.X
		y += p.cur.Y
	}
	return Point{x, y}, nil
}

// number scans one signed decimal with optional exponent. SVG allows
// numbers to run together ("1.5.5" is 1.5 then .5), so the scan stops at
// the second dot.
func (p *pathParser) number() (float64, error) {
	p.skipSeparators()
	begin := p.pos

	if p.pos < len(p.data) && (p.data[p.pos] == '+' || p.data[p.pos] == '-') {
		p.pos++
	}
	digits := 0
	for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
		p.pos++
		digits++
	}
	if p.pos < len(p.data) && p.data[p.pos] == '.' {
		p.pos++
		for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
			p.pos++
			digits++
		}
	}
	if digits == 0 {
		return 0, fmt.Errorf("expected number at offset %d", begin)
	}
	if p.pos < len(p.data) && (p.data[p.pos] == 'e' || p.data[p.pos] == 'E') {
		mark := p.pos
		p.pos++
		if p.pos < len(p.data) && (p.data[p.pos] == '+' || p.data[p.pos] == '-') {
			p.pos++
		}
		expDigits := 0
		for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
			p.pos++
			expDigits++
		}
		if expDigits == 0 {
			// Not an exponent; "1e" might be "1" followed by a bad command.
			p.pos = mark
		}
	}

	v, err := strconv.ParseFloat(p.data[begin:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q at offset %d", p.data[begin:p.pos], begin)
	}
	return v, nil
}

// flag scans an arc flag, which is a single '0' or '1' that may butt up
// against the next number with no separator.
func (p *pathParser) flag() (bool, error) {
	p.skipSeparators()
	if p.pos >= len(p.data) {
		return false, fmt.Errorf("expected arc flag at offset %d", p.pos)
	}
	switch p.data[p.pos] {
	case '0':
		p.pos++
		return false, nil
	case '1':
		p.pos++
		return true, nil
	}
	return false, fmt.Errorf("arc flag must be 0 or 1, got %q at offset %d", rune(p.data[p.pos]), p.pos)
}

func (p *pathParser) skipSeparators() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', ',':
			p.pos++
		default:
			return
		}
	}
}

func reflect(ctrl, around Point) Point {
	return Point{2*around.X - ctrl.X, 2*around.Y - ctrl.Y}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isPathCommand(c byte) bool {
	switch c {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c',
		'S', 's', 'Q', 'q', 'T', 't', 'A', 'a', 'Z', 'z':
		return true
	}
	return false
}
