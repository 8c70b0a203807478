package svgfont

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePathData(t *testing.T) {
	t.Run("absolute commands", func(t *testing.T) {
		p, err := ParsePathData("M0 0L10 0 10 10Z")
		require.NoError(t, err)
		require.Len(t, p, 4)
		assert.Equal(t, Segment{Op: SegMove, Pts: [3]Point{{0, 0}}}, p[0])
		assert.Equal(t, Segment{Op: SegLine, Pts: [3]Point{{10, 0}}}, p[1])
		assert.Equal(t, Segment{Op: SegLine, Pts: [3]Point{{10, 10}}}, p[2])
		assert.Equal(t, SegClose, p[3].Op)
	})

	t.Run("relative commands accumulate", func(t *testing.T) {
		p, err := ParsePathData("m2 3l5 0l0 5z")
		require.NoError(t, err)
		require.Len(t, p, 4)
		assert.Equal(t, Point{2, 3}, p[0].Pts[0])
		assert.Equal(t, Point{7, 3}, p[1].Pts[0])
		assert.Equal(t, Point{7, 8}, p[2].Pts[0])
	})

	t.Run("horizontal and vertical become lines", func(t *testing.T) {
		p, err := ParsePathData("M2 2h20v20H2V2")
		require.NoError(t, err)
		require.Len(t, p, 5)
		assert.Equal(t, Point{22, 2}, p[1].Pts[0])
		assert.Equal(t, Point{22, 22}, p[2].Pts[0])
		assert.Equal(t, Point{2, 22}, p[3].Pts[0])
		assert.Equal(t, Point{2, 2}, p[4].Pts[0])
		for _, s := range p[1:] {
			assert.Equal(t, SegLine, s.Op)
		}
	})

	t.Run("cubic and smooth reflection", func(t *testing.T) {
		p, err := ParsePathData("M0 0C0 10 10 10 10 0S20 -10 20 0")
		require.NoError(t, err)
		require.Len(t, p, 3)
		assert.Equal(t, SegCubic, p[1].Op)
		assert.Equal(t, SegCubic, p[2].Op)
		// S reflects the previous second control point around the current
		// point: (10,10) around (10,0) gives (10,-10).
		assert.Equal(t, Point{10, -10}, p[2].Pts[0])
		assert.Equal(t, Point{20, -10}, p[2].Pts[1])
		assert.Equal(t, Point{20, 0}, p[2].Pts[2])
	})

	t.Run("smooth cubic without predecessor uses current point", func(t *testing.T) {
		p, err := ParsePathData("M5 5S10 10 20 5")
		require.NoError(t, err)
		require.Len(t, p, 2)
		assert.Equal(t, Point{5, 5}, p[1].Pts[0])
	})

	t.Run("quadratic and smooth reflection", func(t *testing.T) {
		p, err := ParsePathData("M0 0Q5 10 10 0T20 0")
		require.NoError(t, err)
		require.Len(t, p, 3)
		assert.Equal(t, SegQuad, p[1].Op)
		assert.Equal(t, SegQuad, p[2].Op)
		assert.Equal(t, Point{15, -10}, p[2].Pts[0])
	})

	t.Run("implicit lineto after moveto", func(t *testing.T) {
		p, err := ParsePathData("M0 0 10 10 20 0")
		require.NoError(t, err)
		require.Len(t, p, 3)
		assert.Equal(t, SegMove, p[0].Op)
		assert.Equal(t, SegLine, p[1].Op)
		assert.Equal(t, SegLine, p[2].Op)
	})

	t.Run("relative implicit repeat after m", func(t *testing.T) {
		p, err := ParsePathData("m1 1 2 2 2 2")
		require.NoError(t, err)
		require.Len(t, p, 3)
		assert.Equal(t, Point{3, 3}, p[1].Pts[0])
		assert.Equal(t, Point{5, 5}, p[2].Pts[0])
	})

	t.Run("close resets current point to subpath start", func(t *testing.T) {
		p, err := ParsePathData("M10 10L20 10Zl1 1")
		require.NoError(t, err)
		require.Len(t, p, 4)
		assert.Equal(t, Point{11, 11}, p[3].Pts[0])
	})

	t.Run("arc converts to cubics landing on endpoint", func(t *testing.T) {
		p, err := ParsePathData("M0 0A5 5 0 0 1 10 0")
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(p), 3)
		for _, s := range p[1:] {
			assert.Equal(t, SegCubic, s.Op)
		}
		last := p[len(p)-1]
		assert.Equal(t, Point{10, 0}, last.Pts[2])

		// Sweep flag 1 draws the upper (negative y) half.
		min, _, ok := p.Bounds()
		require.True(t, ok)
		assert.InDelta(t, -5, min.Y, 0.2)
	})

	t.Run("arc flags may run together", func(t *testing.T) {
		p, err := ParsePathData("M0 0a5 5 0 0110 0")
		require.NoError(t, err)
		last := p[len(p)-1]
		assert.Equal(t, Point{10, 0}, last.Pts[2])
	})

	t.Run("zero-radius arc degenerates to a line", func(t *testing.T) {
		p, err := ParsePathData("M0 0A0 5 0 0 1 10 0")
		require.NoError(t, err)
		require.Len(t, p, 2)
		assert.Equal(t, SegLine, p[1].Op)
		assert.Equal(t, Point{10, 0}, p[1].Pts[0])
	})

	t.Run("scientific notation and compact numbers", func(t *testing.T) {
		p, err := ParsePathData("M1e1 .5L-1.5e2-.25 1.5.5")
		require.NoError(t, err)
		require.Len(t, p, 3)
		assert.Equal(t, Point{10, 0.5}, p[0].Pts[0])
		assert.Equal(t, Point{-150, -0.25}, p[1].Pts[0])
		assert.Equal(t, Point{1.5, 0.5}, p[2].Pts[0])
	})

	t.Run("empty input yields empty path", func(t *testing.T) {
		p, err := ParsePathData("")
		require.NoError(t, err)
		assert.Empty(t, p)

		p, err = ParsePathData("   \n\t ")
		require.NoError(t, err)
		assert.Empty(t, p)
	})

	errorCases := []struct {
		name string
		d    string
	}{
		{"leading number", "10 10L20 20"},
		{"unknown command", "M0 0B5 5"},
		{"missing coordinates", "M0 0L"},
		{"half a pair", "M0 0L5"},
		{"line before moveto", "L5 5"},
		{"bad arc flag", "M0 0A5 5 0 2 0 10 0"},
		{"number after closepath", "M0 0L1 1Z5 5"},
	}
	for _, tt := range errorCases {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := ParsePathData(tt.d)
			require.Error(t, err)
		})
	}
}

func TestFormatPathDataRoundTrip(t *testing.T) {
	inputs := []string{
		"M0 0L10 0 10 10Z",
		"M2 2h20v20H2z",
		"M0 0C0 10 10 10 10 0S20 -10 20 0",
		"M0 0Q5 10 10 0T20 0",
		"M0 0A5 5 0 0 1 10 0Z",
	}
	for _, d := range inputs {
		p, err := ParsePathData(d)
		require.NoError(t, err, "input %q", d)

		again, err := ParsePathData(FormatPathData(p))
		require.NoError(t, err, "serialized form of %q", d)
		assert.Equal(t, len(p), len(again), "segment count for %q", d)
	}
}
