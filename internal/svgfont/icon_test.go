package svgfont

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseIconString(t *testing.T, svg string) *Icon {
	t.Helper()
	icon, err := ParseIcon(strings.NewReader(svg))
	require.NoError(t, err)
	return icon
}

func TestParseIcon(t *testing.T) {
	t.Run("path element with viewBox", func(t *testing.T) {
		icon := parseIconString(t,
			`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path d="M2 2L22 22Z"/></svg>`)

		assert.Equal(t, ViewBox{0, 0, 24, 24}, icon.ViewBox)
		require.Len(t, icon.Outline, 3)
		assert.Equal(t, Point{2, 2}, icon.Outline[0].Pts[0])
		assert.Equal(t, Point{22, 22}, icon.Outline[1].Pts[0])
	})

	t.Run("width and height fall back for missing viewBox", func(t *testing.T) {
		icon := parseIconString(t,
			`<svg xmlns="http://www.w3.org/2000/svg" width="16px" height="32px"><path d="M0 0L1 1"/></svg>`)
		assert.Equal(t, ViewBox{0, 0, 16, 32}, icon.ViewBox)
	})

	t.Run("offset viewBox is preserved", func(t *testing.T) {
		icon := parseIconString(t,
			`<svg xmlns="http://www.w3.org/2000/svg" viewBox="-8 -8 16 16"><circle r="5"/></svg>`)
		assert.Equal(t, ViewBox{-8, -8, 16, 16}, icon.ViewBox)
	})

	t.Run("rect becomes a closed outline", func(t *testing.T) {
		icon := parseIconString(t,
			`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect x="1" y="2" width="4" height="3"/></svg>`)

		require.Len(t, icon.Outline, 5)
		assert.Equal(t, SegMove, icon.Outline[0].Op)
		assert.Equal(t, SegClose, icon.Outline[4].Op)
		min, max, ok := icon.Outline.Bounds()
		require.True(t, ok)
		assert.Equal(t, Point{1, 2}, min)
		assert.Equal(t, Point{5, 5}, max)
	})

	t.Run("rounded rect uses curves", func(t *testing.T) {
		icon := parseIconString(t,
			`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect width="10" height="10" rx="2"/></svg>`)

		curves := 0
		for _, s := range icon.Outline {
			if s.Op == SegCubic {
				curves++
			}
		}
		assert.Equal(t, 4, curves)
	})

	t.Run("circle approximates with four curves", func(t *testing.T) {
		icon := parseIconString(t,
			`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 20 20"><circle cx="10" cy="10" r="8"/></svg>`)

		curves := 0
		for _, s := range icon.Outline {
			if s.Op == SegCubic {
				curves++
			}
		}
		assert.Equal(t, 4, curves)

		min, max, ok := icon.Outline.Bounds()
		require.True(t, ok)
		assert.InDelta(t, 2, min.X, 0.1)
		assert.InDelta(t, 18, max.Y, 0.1)
	})

	t.Run("polygon closes, polyline stays open", func(t *testing.T) {
		gon := parseIconString(t,
			`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><polygon points="0,0 10,0 5,10"/></svg>`)
		assert.Equal(t, SegClose, gon.Outline[len(gon.Outline)-1].Op)

		line := parseIconString(t,
			`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><polyline points="0,0 10,0 5,10"/></svg>`)
		assert.NotEqual(t, SegClose, line.Outline[len(line.Outline)-1].Op)
	})

	t.Run("element transform applies", func(t *testing.T) {
		icon := parseIconString(t,
			`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><path transform="translate(5 5)" d="M0 0L1 0"/></svg>`)
		assert.Equal(t, Point{5, 5}, icon.Outline[0].Pts[0])
		assert.Equal(t, Point{6, 5}, icon.Outline[1].Pts[0])
	})

	t.Run("nested group transforms compose", func(t *testing.T) {
		icon := parseIconString(t, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10">
  <g transform="translate(2 0)">
    <g transform="scale(3)">
      <path d="M1 1L2 1"/>
    </g>
  </g>
  <path d="M0 0L1 0"/>
</svg>`)

		// Inner path: scale then outer translate.
		assert.Equal(t, Point{5, 3}, icon.Outline[0].Pts[0])
		assert.Equal(t, Point{8, 3}, icon.Outline[1].Pts[0])
		// Sibling path outside the groups is untouched.
		assert.Equal(t, Point{0, 0}, icon.Outline[2].Pts[0])
	})

	t.Run("defs and hidden subtrees are skipped", func(t *testing.T) {
		icon := parseIconString(t, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10">
  <defs><path d="M0 0L9 9"/></defs>
  <title>icon</title>
  <path d="M1 1L2 2"/>
</svg>`)
		require.Len(t, icon.Outline, 2)
		assert.Equal(t, Point{1, 1}, icon.Outline[0].Pts[0])
	})

	t.Run("multiple shapes merge in document order", func(t *testing.T) {
		icon := parseIconString(t, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10">
  <line x1="0" y1="0" x2="10" y2="10"/>
  <rect width="2" height="2"/>
</svg>`)
		require.Len(t, icon.Outline, 7)
		assert.Equal(t, SegMove, icon.Outline[0].Op)
		assert.Equal(t, SegLine, icon.Outline[1].Op)
		assert.Equal(t, SegMove, icon.Outline[2].Op)
	})

	errorCases := []struct {
		name string
		svg  string
	}{
		{"not svg", `<html><body/></html>`},
		{"no dimensions", `<svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0L1 1"/></svg>`},
		{"zero viewBox", `<svg viewBox="0 0 0 24"><path d="M0 0L1 1"/></svg>`},
		{"bad path data", `<svg viewBox="0 0 24 24"><path d="M0 0L%"/></svg>`},
		{"bad transform", `<svg viewBox="0 0 24 24"><g transform="fling(1)"><path d="M0 0L1 1"/></g></svg>`},
		{"empty document", ``},
	}
	for _, tt := range errorCases {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := ParseIcon(strings.NewReader(tt.svg))
			require.Error(t, err)
		})
	}
}
