package editor

import (
	"math"

	"github.com/linework/linework/backend-go/internal/document"
)

// hitSlop is the minimum pick distance for thin strokes, in document pixels.
const hitSlop = 8.0

// Rect is an axis-aligned box in document space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains checks if a point is inside the rect, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// normalized flips negative extents so the box has non-negative size.
// Stored geometry stays signed; normalization happens at test time only.
func normalized(x, y, w, h float64) Rect {
	if w < 0 {
		x += w
		w = -w
	}
	if h < 0 {
		y += h
		h = -h
	}
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// HitTest returns the topmost visible element containing the document-space
// point, or nil. Elements are tested front to back (reverse slice order).
// Rotation and flips are ignored here, matching what the renderer's
// interaction layer historically did.
func HitTest(d *document.Document, p document.Point) document.Element {
	for i := len(d.Elements) - 1; i >= 0; i-- {
		el := d.Elements[i]
		if !el.Base().Visible {
			continue
		}
		if Contains(el, p) {
			return el
		}
	}
	return nil
}

// Contains reports whether the point falls inside the element, using the
// kind-specific containment rule.
func Contains(el document.Element, p document.Point) bool {
	switch e := el.(type) {
	case *document.Brush:
		tol := max(e.StrokeWidth, hitSlop)
		for _, pt := range e.Points {
			if math.Hypot(p.X-pt.X, p.Y-pt.Y) <= tol {
				return true
			}
		}
		return false
	case *document.Rectangle:
		return normalized(e.X, e.Y, e.Width, e.Height).Contains(p.X, p.Y)
	case *document.Triangle:
		return normalized(e.X, e.Y, e.Width, e.Height).Contains(p.X, p.Y)
	case *document.Circle:
		return math.Hypot(p.X-e.X, p.Y-e.Y) <= e.Radius
	case *document.Star:
		return math.Hypot(p.X-e.X, p.Y-e.Y) <= e.Radius
	case *document.Polygon:
		return math.Hypot(p.X-e.X, p.Y-e.Y) <= e.Radius
	case *document.Line:
		tol := max(e.StrokeWidth/2, hitSlop)
		a := document.Point{X: e.X, Y: e.Y}
		b := document.Point{X: e.X2, Y: e.Y2}
		return pointSegmentDistance(p, a, b) <= tol
	case *document.Text:
		w := TextWidth(e.Content, e.FontSize)
		return Rect{X: e.X, Y: e.Y - e.FontSize, Width: w, Height: e.FontSize}.Contains(p.X, p.Y)
	case *document.Image:
		w, h := e.Size()
		return Rect{X: e.X, Y: e.Y, Width: w, Height: h}.Contains(p.X, p.Y)
	}
	return false
}

// pointSegmentDistance is the perpendicular distance from p to segment ab,
// with the projection clamped to the segment ends.
func pointSegmentDistance(p, a, b document.Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// ResizeTo updates an element mid-draw from its anchor to the current
// pointer position. Width and height stay signed while drawing; text and
// images have fixed geometry and are left alone.
func ResizeTo(el document.Element, anchor, cur document.Point) {
	switch e := el.(type) {
	case *document.Brush:
		e.Points = append(e.Points, cur)
	case *document.Rectangle:
		e.Width = cur.X - anchor.X
		e.Height = cur.Y - anchor.Y
	case *document.Triangle:
		e.Width = cur.X - anchor.X
		e.Height = cur.Y - anchor.Y
	case *document.Circle:
		e.Radius = math.Hypot(cur.X-anchor.X, cur.Y-anchor.Y)
	case *document.Star:
		e.Radius = math.Hypot(cur.X-anchor.X, cur.Y-anchor.Y)
	case *document.Polygon:
		e.Radius = math.Hypot(cur.X-anchor.X, cur.Y-anchor.Y)
	case *document.Line:
		e.X2 = cur.X
		e.Y2 = cur.Y
	}
}

// Translate moves every positional field of the element by (dx, dy).
func Translate(el document.Element, dx, dy float64) {
	a := el.Base()
	a.X += dx
	a.Y += dy
	switch e := el.(type) {
	case *document.Brush:
		for i := range e.Points {
			e.Points[i].X += dx
			e.Points[i].Y += dy
		}
	case *document.Line:
		e.X2 += dx
		e.Y2 += dy
	}
}

// Bounds returns the element's axis-aligned bounding box in document space.
func Bounds(el document.Element) Rect {
	switch e := el.(type) {
	case *document.Brush:
		if len(e.Points) == 0 {
			return Rect{X: e.X, Y: e.Y}
		}
		minX, minY := e.Points[0].X, e.Points[0].Y
		maxX, maxY := minX, minY
		for _, pt := range e.Points[1:] {
			minX = min(minX, pt.X)
			minY = min(minY, pt.Y)
			maxX = max(maxX, pt.X)
			maxY = max(maxY, pt.Y)
		}
		pad := e.StrokeWidth / 2
		return Rect{X: minX - pad, Y: minY - pad, Width: maxX - minX + 2*pad, Height: maxY - minY + 2*pad}
	case *document.Rectangle:
		return normalized(e.X, e.Y, e.Width, e.Height)
	case *document.Triangle:
		return normalized(e.X, e.Y, e.Width, e.Height)
	case *document.Circle:
		return Rect{X: e.X - e.Radius, Y: e.Y - e.Radius, Width: 2 * e.Radius, Height: 2 * e.Radius}
	case *document.Star:
		return Rect{X: e.X - e.Radius, Y: e.Y - e.Radius, Width: 2 * e.Radius, Height: 2 * e.Radius}
	case *document.Polygon:
		return Rect{X: e.X - e.Radius, Y: e.Y - e.Radius, Width: 2 * e.Radius, Height: 2 * e.Radius}
	case *document.Line:
		return normalized(e.X, e.Y, e.X2-e.X, e.Y2-e.Y)
	case *document.Text:
		w := TextWidth(e.Content, e.FontSize)
		return Rect{X: e.X, Y: e.Y - e.FontSize, Width: w, Height: e.FontSize}
	case *document.Image:
		w, h := e.Size()
		return Rect{X: e.X, Y: e.Y, Width: w, Height: h}
	}
	return Rect{}
}

// Selection highlight shapes, matched to the element kind.
const (
	HighlightBox       = "box"
	HighlightRing      = "ring"
	HighlightEndpoints = "endpoints"
)

// highlightPad is the gap between a radial element and its selection ring.
const highlightPad = 5.0

type Highlight struct {
	Kind   string          `json:"kind"`
	Box    *Rect           `json:"box,omitempty"`
	Center *document.Point `json:"center,omitempty"`
	Radius float64         `json:"radius,omitempty"`
	P1     *document.Point `json:"p1,omitempty"`
	P2     *document.Point `json:"p2,omitempty"`
}

// HighlightFor describes the selection indicator the renderer should draw
// around el: a ring for radial kinds, endpoint markers for lines, a dashed
// box for everything else.
func HighlightFor(el document.Element) *Highlight {
	switch e := el.(type) {
	case *document.Circle:
		return &Highlight{Kind: HighlightRing, Center: &document.Point{X: e.X, Y: e.Y}, Radius: e.Radius + highlightPad}
	case *document.Star:
		return &Highlight{Kind: HighlightRing, Center: &document.Point{X: e.X, Y: e.Y}, Radius: e.Radius + highlightPad}
	case *document.Polygon:
		return &Highlight{Kind: HighlightRing, Center: &document.Point{X: e.X, Y: e.Y}, Radius: e.Radius + highlightPad}
	case *document.Line:
		return &Highlight{
			Kind: HighlightEndpoints,
			P1:   &document.Point{X: e.X, Y: e.Y},
			P2:   &document.Point{X: e.X2, Y: e.Y2},
		}
	default:
		box := Bounds(el)
		return &Highlight{Kind: HighlightBox, Box: &box}
	}
}
