package editor

import (
	"encoding/json"

	"github.com/linework/linework/backend-go/internal/document"
)

// Frame is the paint-ready payload the frontend renders from. Elements are
// in paint order (back to front); the renderer skips invisible entries,
// applies rotation/flip while painting, and draws the highlight last.
type Frame struct {
	Elements    []json.RawMessage `json:"elements"`
	SelectedID  string            `json:"selectedId,omitempty"`
	Highlight   *Highlight        `json:"highlight,omitempty"`
	Viewport    Viewport          `json:"viewport"`
	FillMode    bool              `json:"fillMode"`
	Tool        Tool              `json:"tool"`
	Mode        Mode              `json:"mode"`
	CanUndo     bool              `json:"canUndo"`
	CanRedo     bool              `json:"canRedo"`
	PendingText *PendingTextFrame `json:"pendingText,omitempty"`
}

// PendingTextFrame tells the frontend where to place its text input box,
// in both coordinate spaces.
type PendingTextFrame struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	ScreenX    float64 `json:"screenX"`
	ScreenY    float64 `json:"screenY"`
	Buffer     string  `json:"buffer"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	Align      string  `json:"align"`
}

// Frame compiles the current session state into a render payload.
func (s *Session) Frame() Frame {
	f := Frame{
		Elements:   make([]json.RawMessage, 0, len(s.doc.Elements)),
		SelectedID: s.doc.SelectedID,
		Viewport:   s.view,
		FillMode:   s.fillMode,
		Tool:       s.tool,
		Mode:       s.mode,
		CanUndo:    s.history.CanUndo(),
		CanRedo:    s.history.CanRedo(),
	}

	for _, el := range s.doc.Elements {
		raw, err := document.MarshalElement(el)
		if err != nil {
			continue
		}
		f.Elements = append(f.Elements, raw)
	}

	if el := s.doc.Selected(); el != nil {
		f.Highlight = HighlightFor(el)
	}

	if s.mode == ModeEditingText {
		sx, sy := s.view.ToScreen(s.pending.Pos)
		f.PendingText = &PendingTextFrame{
			X:          s.pending.Pos.X,
			Y:          s.pending.Pos.Y,
			ScreenX:    sx,
			ScreenY:    sy,
			Buffer:     s.pending.Buffer,
			FontSize:   s.pending.FontSize,
			FontFamily: s.pending.FontFamily,
			Align:      s.pending.Align,
		}
	}

	return f
}

// FrameJSON serializes the frame for the wasm boundary.
func (s *Session) FrameJSON() string {
	data, _ := json.Marshal(s.Frame())
	return string(data)
}
