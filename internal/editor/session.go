package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/linework/linework/backend-go/internal/document"
	"github.com/linework/linework/backend-go/internal/typeid"
)

type Tool string

const (
	ToolSelect    Tool = "select"
	ToolPan       Tool = "pan"
	ToolBrush     Tool = "brush"
	ToolRectangle Tool = "rectangle"
	ToolTriangle  Tool = "triangle"
	ToolCircle    Tool = "circle"
	ToolStar      Tool = "star"
	ToolPolygon   Tool = "polygon"
	ToolLine      Tool = "line"
	ToolText      Tool = "text"
	ToolImage     Tool = "image"
)

type Mode string

const (
	ModeIdle        Mode = "idle"
	ModePanning     Mode = "panning"
	ModeDrawing     Mode = "drawing"
	ModeDragging    Mode = "dragging"
	ModeEditingText Mode = "editing-text"
)

// Pointer buttons follow the PointerEvent convention.
const (
	ButtonLeft   = 0
	ButtonMiddle = 1
)

// Modifiers carries the keyboard state of a pointer or wheel event.
// Ctrl gates wheel zoom; Alt plus the left button pans.
type Modifiers struct {
	Ctrl  bool `json:"ctrl"`
	Shift bool `json:"shift"`
	Alt   bool `json:"alt"`
}

// PendingText is the uncommitted text-entry state while the mode is
// editing-text. The frontend mirrors the buffer into its input box.
type PendingText struct {
	Pos        document.Point
	Buffer     string
	FontSize   float64
	FontFamily string
	Align      string
}

// ErrBadImage rejects image sources that are neither data URIs nor URLs.
var ErrBadImage = errors.New("image source must be an image data URI or URL")

// imageInset is the screen offset where newly added images land.
const imageInset = 40.0

// Session is the interactive editor: it owns the document, the viewport,
// the undo history, the active tool and the in-flight gesture. Pointer
// events arrive in screen coordinates; everything stored is document space.
// A Session is single-goroutine, matching the wasm event loop.
type Session struct {
	doc     *document.Document
	view    Viewport
	history *History

	tool Tool
	mode Mode

	// Style defaults applied to new elements.
	strokeColor string
	strokeWidth float64
	fillMode    bool
	fontSize    float64
	fontFamily  string
	align       string

	// Gesture state. mode, not tool, decides how moves and releases are
	// handled, so switching tools mid-gesture cannot corrupt it.
	drawID     string
	anchor     document.Point
	dragOrigin document.Point
	dragBase   document.Element
	lastScreen document.Point
	pending    PendingText
}

func NewSession() *Session {
	doc := document.NewDocument()
	return &Session{
		doc:         doc,
		view:        NewViewport(),
		history:     NewHistory(doc),
		tool:        ToolSelect,
		mode:        ModeIdle,
		strokeColor: "#1a1a2e",
		strokeWidth: 2,
		fontSize:    16,
		fontFamily:  "sans-serif",
		align:       "left",
	}
}

// --- Pointer events (frontend → backend) ---

// PointerDown starts a gesture at screen position (x, y). A pending text
// entry is committed first, then the event proceeds as if from idle.
func (s *Session) PointerDown(x, y float64, button int, mods Modifiers) {
	if s.mode == ModeEditingText {
		s.CommitText()
	}

	if button == ButtonMiddle || (button == ButtonLeft && mods.Alt) || s.tool == ToolPan {
		s.mode = ModePanning
		s.lastScreen = document.Point{X: x, Y: y}
		return
	}
	if button != ButtonLeft {
		return
	}

	p := s.view.ToDocument(x, y)

	switch s.tool {
	case ToolSelect:
		if el := HitTest(s.doc, p); el != nil {
			s.doc.Select(el.Base().ID)
			s.dragOrigin = p
			s.dragBase = el.Clone()
			s.mode = ModeDragging
		} else {
			s.doc.Select("")
		}
	case ToolText:
		s.pending = PendingText{
			Pos:        p,
			FontSize:   s.fontSize,
			FontFamily: s.fontFamily,
			Align:      s.align,
		}
		s.mode = ModeEditingText
	case ToolImage:
		// The frontend opens its file picker; AddImage lands the result.
	default:
		el := s.newElement(p)
		if el == nil {
			return
		}
		s.doc.Append(el)
		s.doc.Select(el.Base().ID)
		s.drawID = el.Base().ID
		s.anchor = p
		s.mode = ModeDrawing
	}
}

// PointerMove advances the gesture in progress, if any.
func (s *Session) PointerMove(x, y float64) {
	switch s.mode {
	case ModePanning:
		s.view.PanBy(x-s.lastScreen.X, y-s.lastScreen.Y)
		s.lastScreen = document.Point{X: x, Y: y}
	case ModeDrawing:
		if el := s.doc.ByID(s.drawID); el != nil {
			ResizeTo(el, s.anchor, s.view.ToDocument(x, y))
		}
	case ModeDragging:
		p := s.view.ToDocument(x, y)
		// Re-derive from the drag-start clone each move so repeated deltas
		// cannot accumulate drift.
		moved := s.dragBase.Clone()
		Translate(moved, p.X-s.dragOrigin.X, p.Y-s.dragOrigin.Y)
		s.doc.Replace(moved)
	}
}

// PointerUp ends the gesture. Draws and drags commit a history entry even
// when the pointer never moved; pans never commit.
func (s *Session) PointerUp(x, y float64) {
	switch s.mode {
	case ModeDrawing, ModeDragging:
		s.drawID = ""
		s.dragBase = nil
		s.mode = ModeIdle
		s.commit()
	case ModePanning:
		s.mode = ModeIdle
	}
}

// Wheel zooms when the zoom modifier is held; plain scrolling is left to
// the frontend.
func (s *Session) Wheel(deltaY float64, mods Modifiers) {
	if !mods.Ctrl || deltaY == 0 {
		return
	}
	if deltaY < 0 {
		s.view.ZoomBy(WheelZoomIn)
	} else {
		s.view.ZoomBy(WheelZoomOut)
	}
}

func (s *Session) newElement(p document.Point) document.Element {
	id := typeid.NewElementID()
	switch s.tool {
	case ToolBrush:
		return document.NewBrush(id, p.X, p.Y, s.strokeColor, s.strokeWidth)
	case ToolRectangle:
		return document.NewRectangle(id, p.X, p.Y, s.strokeColor, s.strokeWidth)
	case ToolTriangle:
		return document.NewTriangle(id, p.X, p.Y, s.strokeColor, s.strokeWidth)
	case ToolCircle:
		return document.NewCircle(id, p.X, p.Y, s.strokeColor, s.strokeWidth)
	case ToolStar:
		return document.NewStar(id, p.X, p.Y, s.strokeColor, s.strokeWidth)
	case ToolPolygon:
		return document.NewPolygon(id, p.X, p.Y, s.strokeColor, s.strokeWidth)
	case ToolLine:
		return document.NewLine(id, p.X, p.Y, s.strokeColor, s.strokeWidth)
	}
	return nil
}

// --- Text entry ---

// TextInput replaces the pending buffer while editing text.
func (s *Session) TextInput(content string) {
	if s.mode == ModeEditingText {
		s.pending.Buffer = content
	}
}

// CommitText finalizes the pending entry. Non-empty buffers become a text
// element and a history entry; empty buffers just leave editing mode.
func (s *Session) CommitText() {
	if s.mode != ModeEditingText {
		return
	}
	pt := s.pending
	s.pending = PendingText{}
	s.mode = ModeIdle
	if pt.Buffer == "" {
		return
	}
	el := document.NewText(typeid.NewElementID(), pt.Pos.X, pt.Pos.Y,
		s.strokeColor, pt.Buffer, pt.FontSize, pt.FontFamily, pt.Align)
	s.doc.Append(el)
	s.doc.Select(el.Base().ID)
	s.commit()
}

// CancelText abandons the pending entry without a trace.
func (s *Session) CancelText() {
	if s.mode != ModeEditingText {
		return
	}
	s.pending = PendingText{}
	s.mode = ModeIdle
}

// --- Images ---

// AddImage appends a loaded image near the viewport origin and selects it.
// The frontend resolves files to data URIs and intrinsic dimensions before
// calling; loads that finish in any order each land exactly one history
// entry, and the last one keeps the selection.
func (s *Session) AddImage(source string, naturalW, naturalH float64) error {
	if !validImageSource(source) {
		return fmt.Errorf("add image: %w", ErrBadImage)
	}
	p := s.view.ToDocument(imageInset, imageInset)
	el := document.NewImage(typeid.NewElementID(), p.X, p.Y, source, naturalW, naturalH)
	s.doc.Append(el)
	s.doc.Select(el.Base().ID)
	s.commit()
	return nil
}

func validImageSource(source string) bool {
	return strings.HasPrefix(source, "data:image/") ||
		strings.HasPrefix(source, "http://") ||
		strings.HasPrefix(source, "https://")
}

// --- Commands (toolbar / property panel) ---

func (s *Session) SetTool(t Tool) {
	switch t {
	case ToolSelect, ToolPan, ToolBrush, ToolRectangle, ToolTriangle,
		ToolCircle, ToolStar, ToolPolygon, ToolLine, ToolText, ToolImage:
		s.tool = t
	}
}

func (s *Session) SetStrokeColor(c string) {
	if c != "" {
		s.strokeColor = c
	}
}

func (s *Session) SetStrokeWidth(w float64) {
	if w > 0 {
		s.strokeWidth = w
	}
}

func (s *Session) SetFillMode(on bool) { s.fillMode = on }

func (s *Session) SetFontSize(size float64) {
	if size > 0 {
		s.fontSize = size
	}
}

func (s *Session) SetFontFamily(family string) {
	if family != "" {
		s.fontFamily = family
	}
}

func (s *Session) SetAlign(align string) {
	switch align {
	case "left", "center", "right":
		s.align = align
	}
}

// UpdateSelected merges a patch into the selected element and commits.
// No selection means no-op.
func (s *Session) UpdateSelected(p document.Patch) {
	el := s.doc.Selected()
	if el == nil {
		return
	}
	p.Apply(el)
	s.commit()
}

// DeleteSelected removes the selected element and commits.
func (s *Session) DeleteSelected() {
	if s.doc.SelectedID == "" {
		return
	}
	s.doc.DeleteSelected()
	s.commit()
}

// RotateSelected turns the selected element a quarter turn clockwise.
// Rotation affects painting only, never hit-testing.
func (s *Session) RotateSelected() {
	el := s.doc.Selected()
	if el == nil {
		return
	}
	a := el.Base()
	a.Rotation = (a.Rotation + 90) % 360
	s.commit()
}

// FlipSelected mirrors the selected element horizontally ("h") or
// vertically ("v"). Flips affect painting only.
func (s *Session) FlipSelected(axis string) {
	el := s.doc.Selected()
	if el == nil {
		return
	}
	a := el.Base()
	switch axis {
	case "h":
		a.FlipH = !a.FlipH
	case "v":
		a.FlipV = !a.FlipV
	default:
		return
	}
	s.commit()
}

func (s *Session) Undo() {
	if doc, ok := s.history.Undo(); ok {
		s.doc = doc
	}
}

func (s *Session) Redo() {
	if doc, ok := s.history.Redo(); ok {
		s.doc = doc
	}
}

func (s *Session) ZoomIn()  { s.view.ZoomBy(ButtonZoomStep) }
func (s *Session) ZoomOut() { s.view.ZoomBy(1 / ButtonZoomStep) }

func (s *Session) ResetView() { s.view.Reset() }

func (s *Session) commit() {
	s.history.Commit(s.doc)
}

// --- Document load/save ---

// LoadDocument replaces the session state with a stored document. History
// restarts from the loaded state and the viewport resets.
func (s *Session) LoadDocument(data []byte) error {
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	s.doc = &doc
	s.history = NewHistory(&doc)
	s.view.Reset()
	s.mode = ModeIdle
	s.pending = PendingText{}
	s.drawID = ""
	s.dragBase = nil
	return nil
}

// DocumentJSON serializes the live document.
func (s *Session) DocumentJSON() ([]byte, error) {
	return json.Marshal(s.doc)
}

// --- Accessors ---

func (s *Session) Document() *document.Document { return s.doc }
func (s *Session) View() Viewport               { return s.view }
func (s *Session) Tool() Tool                   { return s.tool }
func (s *Session) Mode() Mode                   { return s.mode }
func (s *Session) FillMode() bool               { return s.fillMode }
func (s *Session) History() *History            { return s.history }
func (s *Session) Pending() PendingText         { return s.pending }
