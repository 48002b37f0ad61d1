package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linework/linework/backend-go/internal/document"
)

func pt(x, y float64) document.Point { return document.Point{X: x, Y: y} }

func TestHitTestTopmostFirst(t *testing.T) {
	d := document.NewDocument()
	bottom := document.NewRectangle("el_bottom", 0, 0, "#000", 1)
	bottom.Width, bottom.Height = 100, 100
	top := document.NewRectangle("el_top", 0, 0, "#000", 1)
	top.Width, top.Height = 100, 100
	d.Append(bottom)
	d.Append(top)

	hit := HitTest(d, pt(50, 50))
	require.NotNil(t, hit)
	assert.Equal(t, "el_top", hit.Base().ID)

	top.Visible = false
	hit = HitTest(d, pt(50, 50))
	require.NotNil(t, hit)
	assert.Equal(t, "el_bottom", hit.Base().ID)

	bottom.Visible = false
	assert.Nil(t, HitTest(d, pt(50, 50)))
}

func TestContainsNormalizesNegativeBoxes(t *testing.T) {
	// Drawn right-to-left: anchor at (110, 60) with negative extents.
	r := document.NewRectangle("el_r", 110, 60, "#000", 1)
	r.Width, r.Height = -100, -50

	assert.True(t, Contains(r, pt(50, 40)))
	assert.False(t, Contains(r, pt(5, 40)))
	// Stored geometry stays signed.
	assert.Equal(t, -100.0, r.Width)
}

func TestContainsRadialKinds(t *testing.T) {
	for _, el := range []document.Element{
		func() document.Element {
			c := document.NewCircle("el_c", 0, 0, "#000", 1)
			c.Radius = 10
			return c
		}(),
		func() document.Element {
			s := document.NewStar("el_s", 0, 0, "#000", 1)
			s.Radius = 10
			return s
		}(),
		func() document.Element {
			p := document.NewPolygon("el_p", 0, 0, "#000", 1)
			p.Radius = 10
			return p
		}(),
	} {
		assert.True(t, Contains(el, pt(0, 10)), "%s boundary", el.Kind())
		assert.True(t, Contains(el, pt(6, 6)), "%s interior", el.Kind())
		assert.False(t, Contains(el, pt(8, 8)), "%s corner outside", el.Kind())
	}
}

func TestContainsLineSlop(t *testing.T) {
	l := document.NewLine("el_l", 0, 0, "#000", 2)
	l.X2, l.Y2 = 100, 0

	// Thin strokes floor at the 8px slop.
	assert.True(t, Contains(l, pt(50, 8)))
	assert.False(t, Contains(l, pt(50, 8.5)))
	// Projection clamps at the endpoints.
	assert.True(t, Contains(l, pt(-8, 0)))
	assert.False(t, Contains(l, pt(108.5, 0)))

	wide := document.NewLine("el_w", 0, 0, "#000", 30)
	wide.X2, wide.Y2 = 100, 0
	assert.True(t, Contains(wide, pt(50, 15)))
	assert.False(t, Contains(wide, pt(50, 15.5)))
}

func TestContainsZeroLengthLine(t *testing.T) {
	l := document.NewLine("el_l", 5, 5, "#000", 1)
	assert.True(t, Contains(l, pt(5, 12)))
	assert.False(t, Contains(l, pt(5, 14)))
}

func TestContainsBrushNearAnyPoint(t *testing.T) {
	b := document.NewBrush("el_b", 0, 0, "#000", 4)
	b.Points = append(b.Points, pt(100, 100))

	assert.True(t, Contains(b, pt(3, 3)))
	assert.True(t, Contains(b, pt(99, 105)))
	// Between the two recorded points but near neither.
	assert.False(t, Contains(b, pt(50, 50)))

	thick := document.NewBrush("el_t", 0, 0, "#000", 20)
	assert.True(t, Contains(thick, pt(0, 20)))
	assert.False(t, Contains(thick, pt(0, 21)))
}

func TestContainsTextBox(t *testing.T) {
	e := document.NewText("el_t", 100, 200, "#000", "Hello", 20, "sans-serif", "left")
	w := TextWidth("Hello", 20)
	require.Greater(t, w, 0.0)

	// Anchored baseline-left: the box extends up from the anchor.
	assert.True(t, Contains(e, pt(100+w/2, 190)))
	assert.True(t, Contains(e, pt(100+w-1, 181)))
	assert.False(t, Contains(e, pt(100+w+1, 190)))
	assert.False(t, Contains(e, pt(100+w/2, 201)))
	assert.False(t, Contains(e, pt(100+w/2, 179)))
}

func TestContainsImageBox(t *testing.T) {
	e := document.NewImage("el_i", 0, 0, "data:image/png;base64,xx", 100, 80)
	assert.True(t, Contains(e, pt(90, 70)))
	assert.False(t, Contains(e, pt(101, 70)))

	// Resize override replaces the natural box.
	e.Width, e.Height = 50, 40
	assert.False(t, Contains(e, pt(90, 70)))
	assert.True(t, Contains(e, pt(40, 30)))
}

func TestResizeTo(t *testing.T) {
	anchor := pt(10, 10)

	r := document.NewRectangle("el_r", 10, 10, "#000", 1)
	ResizeTo(r, anchor, pt(110, 60))
	assert.Equal(t, 100.0, r.Width)
	assert.Equal(t, 50.0, r.Height)
	ResizeTo(r, anchor, pt(0, 0))
	assert.Equal(t, -10.0, r.Width)
	assert.Equal(t, -10.0, r.Height)

	c := document.NewCircle("el_c", 10, 10, "#000", 1)
	ResizeTo(c, anchor, pt(13, 14))
	assert.Equal(t, 5.0, c.Radius)

	l := document.NewLine("el_l", 10, 10, "#000", 1)
	ResizeTo(l, anchor, pt(50, 60))
	assert.Equal(t, 50.0, l.X2)
	assert.Equal(t, 60.0, l.Y2)
	assert.Equal(t, 10.0, l.X)

	b := document.NewBrush("el_b", 10, 10, "#000", 1)
	ResizeTo(b, anchor, pt(11, 11))
	ResizeTo(b, anchor, pt(12, 12))
	require.Len(t, b.Points, 3)
	assert.Equal(t, pt(12, 12), b.Points[2])

	// Text and image geometry is fixed.
	txt := document.NewText("el_t", 10, 10, "#000", "x", 16, "sans-serif", "left")
	ResizeTo(txt, anchor, pt(99, 99))
	assert.Equal(t, 10.0, txt.X)
}

func TestTranslate(t *testing.T) {
	l := document.NewLine("el_l", 0, 0, "#000", 1)
	l.X2, l.Y2 = 10, 10
	Translate(l, 5, -5)
	assert.Equal(t, 5.0, l.X)
	assert.Equal(t, -5.0, l.Y)
	assert.Equal(t, 15.0, l.X2)
	assert.Equal(t, 5.0, l.Y2)

	b := document.NewBrush("el_b", 0, 0, "#000", 1)
	b.Points = append(b.Points, pt(10, 10))
	Translate(b, 1, 2)
	assert.Equal(t, pt(1, 2), b.Points[0])
	assert.Equal(t, pt(11, 12), b.Points[1])
	assert.Equal(t, 1.0, b.X)
}

func TestBounds(t *testing.T) {
	c := document.NewCircle("el_c", 50, 50, "#000", 1)
	c.Radius = 10
	assert.Equal(t, Rect{X: 40, Y: 40, Width: 20, Height: 20}, Bounds(c))

	l := document.NewLine("el_l", 100, 10, "#000", 1)
	l.X2, l.Y2 = 0, 60
	assert.Equal(t, Rect{X: 0, Y: 10, Width: 100, Height: 50}, Bounds(l))

	b := document.NewBrush("el_b", 0, 0, "#000", 4)
	b.Points = append(b.Points, pt(10, 20))
	assert.Equal(t, Rect{X: -2, Y: -2, Width: 14, Height: 24}, Bounds(b))
}

func TestHighlightFor(t *testing.T) {
	c := document.NewCircle("el_c", 5, 5, "#000", 1)
	c.Radius = 10
	h := HighlightFor(c)
	assert.Equal(t, HighlightRing, h.Kind)
	assert.Equal(t, 15.0, h.Radius)

	l := document.NewLine("el_l", 1, 2, "#000", 1)
	l.X2, l.Y2 = 3, 4
	h = HighlightFor(l)
	assert.Equal(t, HighlightEndpoints, h.Kind)
	assert.Equal(t, pt(1, 2), *h.P1)
	assert.Equal(t, pt(3, 4), *h.P2)

	r := document.NewRectangle("el_r", 10, 10, "#000", 1)
	r.Width, r.Height = -10, 20
	h = HighlightFor(r)
	assert.Equal(t, HighlightBox, h.Kind)
	assert.Equal(t, Rect{X: 0, Y: 10, Width: 10, Height: 20}, *h.Box)
}

func TestRectUnionAndCenter(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 20, Y: 5, Width: 10, Height: 10}
	u := a.Union(b)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 30, Height: 15}, u)
	assert.Equal(t, a, a.Union(Rect{}))

	cx, cy := u.Center()
	assert.Equal(t, 15.0, cx)
	assert.Equal(t, 7.5, cy)
}
