package svgfont

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix(t *testing.T) {
	t.Run("identity leaves points unchanged", func(t *testing.T) {
		p := Identity().Apply(Point{3, 4})
		assert.Equal(t, Point{3, 4}, p)
		assert.True(t, Identity().IsIdentity())
	})

	t.Run("translate", func(t *testing.T) {
		p := Translate(10, -5).Apply(Point{1, 1})
		assert.Equal(t, Point{11, -4}, p)
	})

	t.Run("scale", func(t *testing.T) {
		p := ScaleXY(2, 3).Apply(Point{4, 5})
		assert.Equal(t, Point{8, 15}, p)
	})

	t.Run("rotate ninety degrees", func(t *testing.T) {
		p := Rotate(90).Apply(Point{1, 0})
		assert.InDelta(t, 0, p.X, 1e-9)
		assert.InDelta(t, 1, p.Y, 1e-9)
	})

	t.Run("mul applies right side first", func(t *testing.T) {
		m := Translate(10, 0).Mul(ScaleXY(2, 2))
		p := m.Apply(Point{3, 3})
		assert.Equal(t, Point{16, 6}, p)
	})
}

func TestParseTransform(t *testing.T) {
	t.Run("list composes left to right", func(t *testing.T) {
		m, err := ParseTransform("translate(10 20) scale(2)")
		require.NoError(t, err)
		p := m.Apply(Point{1, 1})
		assert.Equal(t, Point{12, 22}, p)
	})

	t.Run("matrix form", func(t *testing.T) {
		m, err := ParseTransform("matrix(1 0 0 1 5 6)")
		require.NoError(t, err)
		assert.Equal(t, Point{6, 8}, m.Apply(Point{1, 2}))
	})

	t.Run("rotate about a point", func(t *testing.T) {
		m, err := ParseTransform("rotate(180 5 5)")
		require.NoError(t, err)
		p := m.Apply(Point{0, 0})
		assert.InDelta(t, 10, p.X, 1e-9)
		assert.InDelta(t, 10, p.Y, 1e-9)
	})

	t.Run("comma separated arguments", func(t *testing.T) {
		m, err := ParseTransform("translate(3,4)")
		require.NoError(t, err)
		assert.Equal(t, Point{3, 4}, m.Apply(Point{0, 0}))
	})

	t.Run("single-argument variants", func(t *testing.T) {
		m, err := ParseTransform("translate(7)")
		require.NoError(t, err)
		assert.Equal(t, Point{7, 0}, m.Apply(Point{0, 0}))

		m, err = ParseTransform("scale(3)")
		require.NoError(t, err)
		assert.Equal(t, Point{3, 3}, m.Apply(Point{1, 1}))
	})

	errors := []string{
		"spin(45)",
		"translate 10 20",
		"matrix(1 2 3)",
		"scale(a)",
		"rotate(45 1)",
	}
	for _, s := range errors {
		t.Run("rejects "+s, func(t *testing.T) {
			_, err := ParseTransform(s)
			require.Error(t, err)
		})
	}
}

func TestPathTransformAndBounds(t *testing.T) {
	t.Run("transform maps every control point", func(t *testing.T) {
		p, err := ParsePathData("M0 0C1 1 2 2 3 3")
		require.NoError(t, err)
		p.Transform(ScaleXY(10, 10))
		assert.Equal(t, Point{0, 0}, p[0].Pts[0])
		assert.Equal(t, Point{10, 10}, p[1].Pts[0])
		assert.Equal(t, Point{20, 20}, p[1].Pts[1])
		assert.Equal(t, Point{30, 30}, p[1].Pts[2])
	})

	t.Run("bounds cover all points", func(t *testing.T) {
		p, err := ParsePathData("M1 2L8 -3 4 9Z")
		require.NoError(t, err)
		min, max, ok := p.Bounds()
		require.True(t, ok)
		assert.Equal(t, Point{1, -3}, min)
		assert.Equal(t, Point{8, 9}, max)
	})

	t.Run("empty path has no bounds", func(t *testing.T) {
		_, _, ok := Path{}.Bounds()
		assert.False(t, ok)
	})
}

func TestQuadratic(t *testing.T) {
	t.Run("converts cubics and keeps endpoints", func(t *testing.T) {
		p, err := ParsePathData("M0 0C0 10 10 10 10 0")
		require.NoError(t, err)

		q := p.Quadratic(0.5)
		require.NotEmpty(t, q)
		for _, s := range q {
			assert.NotEqual(t, SegCubic, s.Op)
		}
		last := q[len(q)-1]
		require.Equal(t, SegQuad, last.Op)
		assert.Equal(t, Point{10, 0}, last.Pts[1])
	})

	t.Run("tight tolerance subdivides more", func(t *testing.T) {
		p, err := ParsePathData("M0 0C0 100 100 100 100 0")
		require.NoError(t, err)

		loose := p.Quadratic(50)
		tight := p.Quadratic(0.1)
		assert.Greater(t, len(tight), len(loose))
	})

	t.Run("quad approximation stays within tolerance", func(t *testing.T) {
		p0 := Point{0, 0}
		c1 := Point{0, 100}
		c2 := Point{100, 100}
		p3 := Point{100, 0}
		p := Path{
			{Op: SegMove, Pts: [3]Point{p0}},
			{Op: SegCubic, Pts: [3]Point{c1, c2, p3}},
		}
		const tol = 1.0
		q := p.Quadratic(tol)

		// Compare curves at sampled parameters. Both are piecewise; sample
		// the cubic and find the nearest point on the quad chain's dense
		// sampling.
		cubicAt := func(t float64) Point {
			mt := 1 - t
			return Point{
				X: mt*mt*mt*p0.X + 3*mt*mt*t*c1.X + 3*mt*t*t*c2.X + t*t*t*p3.X,
				Y: mt*mt*mt*p0.Y + 3*mt*mt*t*c1.Y + 3*mt*t*t*c2.Y + t*t*t*p3.Y,
			}
		}
		var samples []Point
		cur := Point{}
		for _, s := range q {
			switch s.Op {
			case SegMove:
				cur = s.Pts[0]
			case SegQuad:
				for i := 0; i <= 32; i++ {
					u := float64(i) / 32
					mu := 1 - u
					samples = append(samples, Point{
						X: mu*mu*cur.X + 2*mu*u*s.Pts[0].X + u*u*s.Pts[1].X,
						Y: mu*mu*cur.Y + 2*mu*u*s.Pts[0].Y + u*u*s.Pts[1].Y,
					})
				}
				cur = s.Pts[1]
			}
		}
		for i := 0; i <= 20; i++ {
			target := cubicAt(float64(i) / 20)
			best := math.Inf(1)
			for _, s := range samples {
				best = math.Min(best, math.Hypot(s.X-target.X, s.Y-target.Y))
			}
			assert.Less(t, best, tol*2, "cubic point %v strays from quad chain", target)
		}
	})
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1.5", formatNumber(1.5))
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "0", formatNumber(math.Copysign(0, -1)))
	assert.Equal(t, "1.33", formatNumber(4.0/3.0))
	assert.Equal(t, "-2.67", formatNumber(-8.0/3.0))
	assert.Equal(t, "0", formatNumber(math.NaN()))
	assert.Equal(t, "0", formatNumber(math.Inf(1)))
	assert.Equal(t, "1024", formatNumber(1024))
}
