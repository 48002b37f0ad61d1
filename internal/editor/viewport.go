package editor

import (
	"github.com/linework/linework/backend-go/internal/document"
)

const (
	MinZoom = 0.1
	MaxZoom = 5.0

	// Wheel steps apply per event with the zoom modifier held; the toolbar
	// buttons use the coarser step.
	WheelZoomIn    = 1.1
	WheelZoomOut   = 0.9
	ButtonZoomStep = 1.2
)

// Viewport maps between document space and screen space:
// screen = doc*zoom + pan. Zoom is anchored at the viewport origin, so the
// document point under the cursor drifts while zooming.
type Viewport struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
}

func NewViewport() Viewport {
	return Viewport{Zoom: 1}
}

// ToDocument converts a screen position to document space.
func (v Viewport) ToDocument(x, y float64) document.Point {
	return document.Point{
		X: (x - v.PanX) / v.Zoom,
		Y: (y - v.PanY) / v.Zoom,
	}
}

// ToScreen converts a document point to screen space.
func (v Viewport) ToScreen(p document.Point) (x, y float64) {
	return p.X*v.Zoom + v.PanX, p.Y*v.Zoom + v.PanY
}

// ZoomBy multiplies the zoom level, clamped to [MinZoom, MaxZoom].
func (v *Viewport) ZoomBy(factor float64) {
	z := v.Zoom * factor
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	v.Zoom = z
}

// PanBy shifts the view by screen-pixel deltas. Pan is unbounded.
func (v *Viewport) PanBy(dx, dy float64) {
	v.PanX += dx
	v.PanY += dy
}

// Reset restores the default view.
func (v *Viewport) Reset() {
	*v = Viewport{Zoom: 1}
}
