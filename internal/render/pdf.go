package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/jung-kurt/gofpdf"

	"github.com/linework/linework/backend-go/internal/document"
	"github.com/linework/linework/backend-go/internal/editor"
)

// Page geometry in millimeters.
const (
	pageMargin = 10.0
	a4Short    = 210.0
	a4Long     = 297.0
)

// RenderPDF lays the document out on a single A4 page, landscape when the
// content is wider than tall, scaled to fit and centered. Scale in opts is
// ignored; the page bounds fix the scale.
func RenderPDF(w io.Writer, doc *document.Document, opts Options) error {
	box := contentBounds(doc)
	docW := box.Width + 2*margin
	docH := box.Height + 2*margin

	orientation := "P"
	pw, ph := a4Short, a4Long
	if docW > docH {
		orientation = "L"
		pw, ph = a4Long, a4Short
	}

	sc := math.Min((pw-2*pageMargin)/docW, (ph-2*pageMargin)/docH)
	ox := (pw - docW*sc) / 2
	oy := (ph - docH*sc) / 2

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.AddPage()
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	// Document point -> page millimeter.
	px := func(p document.Point) (float64, float64) {
		return (p.X-box.X+margin)*sc + ox, (p.Y-box.Y+margin)*sc + oy
	}

	for _, el := range doc.Elements {
		if !el.Base().Visible {
			continue
		}
		drawElementPDF(pdf, el, px, sc, opts.FillMode)
	}

	if opts.ShowHighlight && doc.SelectedID != "" {
		if el := doc.Selected(); el != nil {
			drawHighlightPDF(pdf, el, px, sc)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("encode pdf: %w", err)
	}
	return nil
}

func drawElementPDF(pdf *gofpdf.Fpdf, el document.Element, px mapFunc, sc float64, fillMode bool) {
	a := el.Base()
	r, g, b := hexRGB(strokeColor(a))
	pdf.SetDrawColor(r, g, b)
	pdf.SetFillColor(r, g, b)

	lw := a.StrokeWidth * sc
	if lw <= 0 {
		lw = sc
	}
	pdf.SetLineWidth(lw)

	style := "D"
	if fillMode {
		style = "FD"
	}

	center := boundsCenter(el)
	tp := func(p document.Point) (float64, float64) {
		return px(transformPoint(p, center, a))
	}

	switch e := el.(type) {
	case *document.Brush:
		if len(e.Points) == 1 {
			x, y := tp(e.Points[0])
			pdf.Circle(x, y, lw/2, "F")
			return
		}
		for i := 0; i+1 < len(e.Points); i++ {
			x1, y1 := tp(e.Points[i])
			x2, y2 := tp(e.Points[i+1])
			pdf.Line(x1, y1, x2, y2)
		}
	case *document.Rectangle:
		pdf.Polygon(pdfPoints(tp, boxCornerPoints(a, e.Width, e.Height, false)), style)
	case *document.Triangle:
		pdf.Polygon(pdfPoints(tp, boxCornerPoints(a, e.Width, e.Height, true)), style)
	case *document.Circle:
		x, y := px(document.Point{X: e.X, Y: e.Y})
		pdf.Circle(x, y, e.Radius*sc, style)
	case *document.Star:
		pdf.Polygon(pdfPoints(tp, starVertices(e.X, e.Y, e.Radius)), style)
	case *document.Polygon:
		pdf.Polygon(pdfPoints(tp, polygonVertices(e.X, e.Y, e.Radius)), style)
	case *document.Line:
		x1, y1 := tp(document.Point{X: e.X, Y: e.Y})
		x2, y2 := tp(document.Point{X: e.X2, Y: e.Y2})
		pdf.Line(x1, y1, x2, y2)
	case *document.Text:
		drawTextPDF(pdf, e, px, sc)
	case *document.Image:
		drawImagePDF(pdf, e, px)
	}
}

func pdfPoints(tp mapFunc, pts []document.Point) []gofpdf.PointType {
	out := make([]gofpdf.PointType, len(pts))
	for i, p := range pts {
		x, y := tp(p)
		out[i] = gofpdf.PointType{X: x, Y: y}
	}
	return out
}

// drawTextPDF paints at the baseline-left anchor, matching the raster path.
func drawTextPDF(pdf *gofpdf.Fpdf, e *document.Text, px mapFunc, sc float64) {
	if e.Content == "" {
		return
	}
	r, g, b := hexRGB(strokeColor(e.Base()))
	pdf.SetTextColor(r, g, b)
	pdf.SetFont(coreFont(e.FontFamily), "", 12)
	pdf.SetFontUnitSize(e.FontSize * sc)
	x, y := px(document.Point{X: e.X, Y: e.Y})
	pdf.Text(x, y, e.Content)
}

// coreFont maps stored families onto the built-in PDF fonts.
func coreFont(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "courier") || strings.Contains(f, "mono"):
		return "Courier"
	case strings.Contains(f, "times") || (strings.Contains(f, "serif") && !strings.Contains(f, "sans")):
		return "Times"
	default:
		return "Helvetica"
	}
}

func drawImagePDF(pdf *gofpdf.Fpdf, e *document.Image, px mapFunc) {
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

	dw, dh := e.Size()
	w, h := dw, dh
	if rot%180 == 90 {
		w, h = dh, dw
	}
	cx := e.X + dw/2
	cy := e.Y + dh/2
	x0, y0 := px(document.Point{X: cx - w/2, Y: cy - h/2})
	x1, y1 := px(document.Point{X: cx + w/2, Y: cy + h/2})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(e.ID, opts, &buf)
	pdf.ImageOptions(e.ID, x0, y0, x1-x0, y1-y0, false, opts, 0, "")
}

func drawHighlightPDF(pdf *gofpdf.Fpdf, el document.Element, px mapFunc, sc float64) {
	h := editor.HighlightFor(el)
	r, g, b := hexRGB(highlightColor)
	pdf.SetDrawColor(r, g, b)
	pdf.SetLineWidth(0.3)
	pdf.SetDashPattern([]float64{6 * sc, 4 * sc}, 0)
	defer pdf.SetDashPattern([]float64{}, 0)

	switch h.Kind {
	case editor.HighlightRing:
		x, y := px(*h.Center)
		pdf.Circle(x, y, h.Radius*sc, "D")
	case editor.HighlightEndpoints:
		pdf.SetDashPattern([]float64{}, 0)
		for _, p := range []*document.Point{h.P1, h.P2} {
			x, y := px(*p)
			pdf.Circle(x, y, 4*sc, "D")
		}
	default:
		x, y := px(document.Point{X: h.Box.X, Y: h.Box.Y})
		pdf.Rect(x, y, h.Box.Width*sc, h.Box.Height*sc, "D")
	}
}

// hexRGB parses #rgb and #rrggbb colors, defaulting to black.
func hexRGB(s string) (int, int, int) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16), int(v >> 8 & 0xff), int(v & 0xff)
}
