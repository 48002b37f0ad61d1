package document

type Kind string

const (
	KindBrush     Kind = "brush"
	KindRectangle Kind = "rectangle"
	KindTriangle  Kind = "triangle"
	KindCircle    Kind = "circle"
	KindStar      Kind = "star"
	KindPolygon   Kind = "polygon"
	KindLine      Kind = "line"
	KindText      Kind = "text"
	KindImage     Kind = "image"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Attrs holds the fields shared by every element kind. The meaning of the
// X/Y anchor is kind-specific: top-left corner for boxes and images, center
// for radial shapes, first endpoint for lines, baseline-left for text.
type Attrs struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	Visible     bool    `json:"visible"`
	Name        string  `json:"name,omitempty"`
	Rotation    int     `json:"rotation,omitempty"`
	FlipH       bool    `json:"flipH,omitempty"`
	FlipV       bool    `json:"flipV,omitempty"`
}

func (a *Attrs) Base() *Attrs { return a }

// Element is the closed set of drawing element variants. Concrete types
// embed Attrs; geometry and serialization switch exhaustively on Kind.
type Element interface {
	Kind() Kind
	Base() *Attrs
	Clone() Element
}

type Brush struct {
	Attrs
	Points []Point `json:"points"`
}

type Rectangle struct {
	Attrs
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Triangle struct {
	Attrs
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Circle struct {
	Attrs
	Radius float64 `json:"radius"`
}

type Star struct {
	Attrs
	Radius float64 `json:"radius"`
}

type Polygon struct {
	Attrs
	Radius float64 `json:"radius"`
}

type Line struct {
	Attrs
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type Text struct {
	Attrs
	Content    string  `json:"content"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	Align      string  `json:"align"`
}

type Image struct {
	Attrs
	Source        string  `json:"source"`
	NaturalWidth  float64 `json:"naturalWidth"`
	NaturalHeight float64 `json:"naturalHeight"`
	Width         float64 `json:"width,omitempty"`
	Height        float64 `json:"height,omitempty"`
}

func (*Brush) Kind() Kind     { return KindBrush }
func (*Rectangle) Kind() Kind { return KindRectangle }
func (*Triangle) Kind() Kind  { return KindTriangle }
func (*Circle) Kind() Kind    { return KindCircle }
func (*Star) Kind() Kind      { return KindStar }
func (*Polygon) Kind() Kind   { return KindPolygon }
func (*Line) Kind() Kind      { return KindLine }
func (*Text) Kind() Kind      { return KindText }
func (*Image) Kind() Kind     { return KindImage }

func (e *Brush) Clone() Element {
	c := *e
	c.Points = make([]Point, len(e.Points))
	copy(c.Points, e.Points)
	return &c
}

func (e *Rectangle) Clone() Element { c := *e; return &c }
func (e *Triangle) Clone() Element  { c := *e; return &c }
func (e *Circle) Clone() Element    { c := *e; return &c }
func (e *Star) Clone() Element      { c := *e; return &c }
func (e *Polygon) Clone() Element   { c := *e; return &c }
func (e *Line) Clone() Element      { c := *e; return &c }
func (e *Text) Clone() Element      { c := *e; return &c }
func (e *Image) Clone() Element     { c := *e; return &c }

func newAttrs(id string, x, y float64, strokeColor string, strokeWidth float64) Attrs {
	return Attrs{
		ID:          id,
		X:           x,
		Y:           y,
		StrokeColor: strokeColor,
		StrokeWidth: strokeWidth,
		Visible:     true,
	}
}

// NewBrush starts a freehand path with a single point at the anchor.
func NewBrush(id string, x, y float64, strokeColor string, strokeWidth float64) *Brush {
	return &Brush{
		Attrs:  newAttrs(id, x, y, strokeColor, strokeWidth),
		Points: []Point{{X: x, Y: y}},
	}
}

func NewRectangle(id string, x, y float64, strokeColor string, strokeWidth float64) *Rectangle {
	return &Rectangle{Attrs: newAttrs(id, x, y, strokeColor, strokeWidth)}
}

func NewTriangle(id string, x, y float64, strokeColor string, strokeWidth float64) *Triangle {
	return &Triangle{Attrs: newAttrs(id, x, y, strokeColor, strokeWidth)}
}

func NewCircle(id string, x, y float64, strokeColor string, strokeWidth float64) *Circle {
	return &Circle{Attrs: newAttrs(id, x, y, strokeColor, strokeWidth)}
}

func NewStar(id string, x, y float64, strokeColor string, strokeWidth float64) *Star {
	return &Star{Attrs: newAttrs(id, x, y, strokeColor, strokeWidth)}
}

func NewPolygon(id string, x, y float64, strokeColor string, strokeWidth float64) *Polygon {
	return &Polygon{Attrs: newAttrs(id, x, y, strokeColor, strokeWidth)}
}

// NewLine starts zero-length with both endpoints at the anchor.
func NewLine(id string, x, y float64, strokeColor string, strokeWidth float64) *Line {
	return &Line{Attrs: newAttrs(id, x, y, strokeColor, strokeWidth), X2: x, Y2: y}
}

func NewText(id string, x, y float64, color, content string, fontSize float64, fontFamily, align string) *Text {
	return &Text{
		Attrs:      newAttrs(id, x, y, color, 1),
		Content:    content,
		FontSize:   fontSize,
		FontFamily: fontFamily,
		Align:      align,
	}
}

func NewImage(id string, x, y float64, source string, naturalW, naturalH float64) *Image {
	return &Image{
		Attrs:         newAttrs(id, x, y, "", 0),
		Source:        source,
		NaturalWidth:  naturalW,
		NaturalHeight: naturalH,
	}
}

// Size returns the drawn width and height, falling back to the intrinsic
// dimensions when no override is set.
func (e *Image) Size() (w, h float64) {
	w, h = e.Width, e.Height
	if w == 0 {
		w = e.NaturalWidth
	}
	if h == 0 {
		h = e.NaturalHeight
	}
	return w, h
}
