// Package render rasterizes documents server-side for export and previews.
// It follows the same painting contract as the browser renderer: slice order
// back to front, invisible elements skipped, stroke color and width from the
// element, optional fill with the stroke color.
package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/linework/linework/backend-go/internal/document"
	"github.com/linework/linework/backend-go/internal/editor"
)

const (
	// margin is the document-space padding around the content bounds.
	margin = 20.0

	// starInnerRatio shapes the five-point star; hexagons are regular.
	starInnerRatio = 0.5
	starPoints     = 5
	polygonSides   = 6

	highlightColor = "#4a90e2"
)

type Options struct {
	// Scale multiplies document pixels into output pixels. Zero means 1.
	Scale float64
	// FillMode fills closed shapes with their stroke color before stroking.
	FillMode bool
	// Background is a hex color; empty means white.
	Background string
	// ShowHighlight draws the selection indicator into the output.
	ShowHighlight bool
}

// Render rasterizes the document into an image sized to its content bounds
// plus a margin. An empty document yields a blank margin-sized canvas.
func Render(doc *document.Document, opts Options) (image.Image, error) {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	box := contentBounds(doc)
	w := int(math.Ceil((box.Width + 2*margin) * scale))
	h := int(math.Ceil((box.Height + 2*margin) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dc := gg.NewContext(w, h)
	if opts.Background != "" {
		dc.SetHexColor(opts.Background)
	} else {
		dc.SetHexColor("#ffffff")
	}
	dc.Clear()

	// Document point -> output pixel.
	px := func(p document.Point) (float64, float64) {
		return (p.X - box.X + margin) * scale, (p.Y - box.Y + margin) * scale
	}

	for _, el := range doc.Elements {
		if !el.Base().Visible {
			continue
		}
		drawElement(dc, el, px, scale, opts.FillMode)
	}

	if opts.ShowHighlight && doc.SelectedID != "" {
		if el := doc.Selected(); el != nil {
			drawHighlight(dc, el, px, scale)
		}
	}

	return dc.Image(), nil
}

// RenderPNG rasterizes the document and encodes it as PNG.
func RenderPNG(w io.Writer, doc *document.Document, opts Options) error {
	img, err := Render(doc, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func contentBounds(doc *document.Document) editor.Rect {
	var box editor.Rect
	first := true
	for _, el := range doc.Elements {
		if !el.Base().Visible {
			continue
		}
		b := elementBox(el)
		if first {
			box = b
			first = false
		} else {
			box = unionAll(box, b)
		}
	}
	return box
}

// unionAll unions boxes without treating zero-area boxes as empty, so
// degenerate elements still count toward the canvas extent.
func unionAll(a, b editor.Rect) editor.Rect {
	minX := math.Min(a.X, b.X)
	minY := math.Min(a.Y, b.Y)
	maxX := math.Max(a.X+a.Width, b.X+b.Width)
	maxY := math.Max(a.Y+a.Height, b.Y+b.Height)
	return editor.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// elementBox is Bounds adjusted for stored quarter-turn rotations, which
// swap the drawn extents of box-like kinds.
func elementBox(el document.Element) editor.Rect {
	b := editor.Bounds(el)
	if el.Base().Rotation%180 == 90 {
		cx, cy := b.Center()
		b = editor.Rect{X: cx - b.Height/2, Y: cy - b.Width/2, Width: b.Height, Height: b.Width}
	}
	return b
}

type mapFunc func(document.Point) (float64, float64)

func drawElement(dc *gg.Context, el document.Element, px mapFunc, scale float64, fillMode bool) {
	a := el.Base()
	lineWidth := a.StrokeWidth * scale
	if lineWidth <= 0 {
		lineWidth = scale
	}
	dc.SetHexColor(strokeColor(a))
	dc.SetLineWidth(lineWidth)

	// Quarter-turn rotations and flips are exact point transforms about the
	// element's center.
	center := boundsCenter(el)
	tp := func(p document.Point) (float64, float64) {
		return px(transformPoint(p, center, a))
	}

	switch e := el.(type) {
	case *document.Brush:
		if len(e.Points) == 1 {
			x, y := tp(e.Points[0])
			dc.DrawCircle(x, y, lineWidth/2)
			dc.Fill()
			return
		}
		for i := 0; i+1 < len(e.Points); i++ {
			x1, y1 := tp(e.Points[i])
			x2, y2 := tp(e.Points[i+1])
			dc.DrawLine(x1, y1, x2, y2)
			dc.Stroke()
		}
	case *document.Rectangle:
		drawBoxPath(dc, el, tp, e.Width, e.Height, false)
		finishShape(dc, fillMode)
	case *document.Triangle:
		drawBoxPath(dc, el, tp, e.Width, e.Height, true)
		finishShape(dc, fillMode)
	case *document.Circle:
		x, y := px(document.Point{X: e.X, Y: e.Y})
		dc.DrawCircle(x, y, e.Radius*scale)
		finishShape(dc, fillMode)
	case *document.Star:
		drawRadialPath(dc, el, tp, starVertices(e.X, e.Y, e.Radius))
		finishShape(dc, fillMode)
	case *document.Polygon:
		drawRadialPath(dc, el, tp, polygonVertices(e.X, e.Y, e.Radius))
		finishShape(dc, fillMode)
	case *document.Line:
		x1, y1 := tp(document.Point{X: e.X, Y: e.Y})
		x2, y2 := tp(document.Point{X: e.X2, Y: e.Y2})
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	case *document.Text:
		drawText(dc, e, px, scale)
	case *document.Image:
		drawImage(dc, e, px)
	}
}

func strokeColor(a *document.Attrs) string {
	if a.StrokeColor == "" {
		return "#000000"
	}
	return a.StrokeColor
}

func finishShape(dc *gg.Context, fillMode bool) {
	if fillMode {
		dc.FillPreserve()
	}
	dc.Stroke()
}

func boundsCenter(el document.Element) document.Point {
	cx, cy := editor.Bounds(el).Center()
	return document.Point{X: cx, Y: cy}
}

// transformPoint applies the element's flips then its quarter-turn rotation,
// both about the center.
func transformPoint(p, center document.Point, a *document.Attrs) document.Point {
	if a.Rotation == 0 && !a.FlipH && !a.FlipV {
		return p
	}
	dx := p.X - center.X
	dy := p.Y - center.Y
	if a.FlipH {
		dx = -dx
	}
	if a.FlipV {
		dy = -dy
	}
	switch ((a.Rotation % 360) + 360) % 360 {
	case 90:
		dx, dy = -dy, dx
	case 180:
		dx, dy = -dx, -dy
	case 270:
		dx, dy = dy, -dx
	}
	return document.Point{X: center.X + dx, Y: center.Y + dy}
}

// boxCornerPoints returns the outline corners of a rectangle or triangle in
// document space, before any flip or rotation.
func boxCornerPoints(a *document.Attrs, w, h float64, triangle bool) []document.Point {
	if triangle {
		return []document.Point{
			{X: a.X + w/2, Y: a.Y},
			{X: a.X + w, Y: a.Y + h},
			{X: a.X, Y: a.Y + h},
		}
	}
	return []document.Point{
		{X: a.X, Y: a.Y},
		{X: a.X + w, Y: a.Y},
		{X: a.X + w, Y: a.Y + h},
		{X: a.X, Y: a.Y + h},
	}
}

// drawBoxPath strokes a rectangle or triangle through the point transform,
// so rotations and flips land exactly.
func drawBoxPath(dc *gg.Context, el document.Element, tp mapFunc, w, h float64, triangle bool) {
	for i, c := range boxCornerPoints(el.Base(), w, h, triangle) {
		x, y := tp(c)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
}

func drawRadialPath(dc *gg.Context, el document.Element, tp mapFunc, vertices []document.Point) {
	for i, v := range vertices {
		x, y := tp(v)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
}

func starVertices(cx, cy, r float64) []document.Point {
	pts := make([]document.Point, 0, starPoints*2)
	for i := 0; i < starPoints*2; i++ {
		radius := r
		if i%2 == 1 {
			radius = r * starInnerRatio
		}
		angle := -math.Pi/2 + float64(i)*math.Pi/starPoints
		pts = append(pts, document.Point{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		})
	}
	return pts
}

func polygonVertices(cx, cy, r float64) []document.Point {
	pts := make([]document.Point, 0, polygonSides)
	for i := 0; i < polygonSides; i++ {
		angle := -math.Pi/2 + float64(i)*2*math.Pi/polygonSides
		pts = append(pts, document.Point{
			X: cx + r*math.Cos(angle),
			Y: cy + r*math.Sin(angle),
		})
	}
	return pts
}

// drawText paints at the baseline-left anchor. Stored rotations and flips
// are not applied to glyphs here; the interactive renderer owns that.
func drawText(dc *gg.Context, e *document.Text, px mapFunc, scale float64) {
	if e.Content == "" {
		return
	}
	dc.SetFontFace(editor.FontFace(e.FontSize * scale))
	x, y := px(document.Point{X: e.X, Y: e.Y})
	dc.DrawString(e.Content, x, y)
}

func drawImage(dc *gg.Context, e *document.Image, px mapFunc) {
	src, err := decodeDataURI(e.Source)
	if err != nil {
		// URL sources and undecodable payloads are skipped server-side.
		return
	}

	a := e.Base()
	var img image.Image = src
	if a.FlipH {
		img = transform.FlipH(img)
	}
	if a.FlipV {
		img = transform.FlipV(img)
	}
	rot := ((a.Rotation % 360) + 360) % 360
	if rot != 0 {
		img = transform.Rotate(img, float64(rot), &transform.RotationOptions{ResizeBounds: true})
	}

	// Quarter turns swap the drawn extents about the box center.
	dw, dh := e.Size()
	w, h := dw, dh
	if rot%180 == 90 {
		w, h = dh, dw
	}
	cx := e.X + dw/2
	cy := e.Y + dh/2
	x0, y0 := px(document.Point{X: cx - w/2, Y: cy - h/2})
	x1, y1 := px(document.Point{X: cx + w/2, Y: cy + h/2})

	dst, ok := dc.Image().(*image.RGBA)
	if !ok {
		return
	}
	rect := image.Rect(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x1)), int(math.Round(y1)))
	xdraw.ApproxBiLinear.Scale(dst, rect, img, img.Bounds(), xdraw.Over, nil)
}

func drawHighlight(dc *gg.Context, el document.Element, px mapFunc, scale float64) {
	h := editor.HighlightFor(el)
	dc.SetHexColor(highlightColor)
	dc.SetLineWidth(scale)
	dc.SetDash(6*scale, 4*scale)
	defer dc.SetDash()

	switch h.Kind {
	case editor.HighlightRing:
		x, y := px(*h.Center)
		dc.DrawCircle(x, y, h.Radius*scale)
		dc.Stroke()
	case editor.HighlightEndpoints:
		dc.SetDash()
		for _, p := range []*document.Point{h.P1, h.P2} {
			x, y := px(*p)
			dc.DrawCircle(x, y, 4*scale)
			dc.Stroke()
		}
	default:
		x, y := px(document.Point{X: h.Box.X, Y: h.Box.Y})
		dc.DrawRectangle(x, y, h.Box.Width*scale, h.Box.Height*scale)
		dc.Stroke()
	}
}

// decodeDataURI extracts and decodes a base64 image payload.
func decodeDataURI(source string) (image.Image, error) {
	if !strings.HasPrefix(source, "data:image/") {
		return nil, fmt.Errorf("not an image data URI")
	}
	i := strings.Index(source, ";base64,")
	if i < 0 {
		return nil, fmt.Errorf("image data URI is not base64")
	}
	raw, err := base64.StdEncoding.DecodeString(source[i+len(";base64,"):])
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
