package editor

import (
	"github.com/linework/linework/backend-go/internal/document"
)

// History is a linear undo stack of full document snapshots, selection
// included. Entry 0 is the state the session started from; committing while
// undone truncates the redo tail first. Depth is unbounded.
type History struct {
	entries []*document.Document
	index   int
}

func NewHistory(initial *document.Document) *History {
	return &History{entries: []*document.Document{initial.Clone()}}
}

// Commit records a snapshot of doc as the new head.
func (h *History) Commit(doc *document.Document) {
	h.entries = append(h.entries[:h.index+1], doc.Clone())
	h.index = len(h.entries) - 1
}

// Undo steps back one entry and returns a copy of it. Returns false at the
// bottom of the stack.
func (h *History) Undo() (*document.Document, bool) {
	if h.index == 0 {
		return nil, false
	}
	h.index--
	return h.entries[h.index].Clone(), true
}

// Redo steps forward one entry and returns a copy of it. Returns false at
// the head.
func (h *History) Redo() (*document.Document, bool) {
	if h.index >= len(h.entries)-1 {
		return nil, false
	}
	h.index++
	return h.entries[h.index].Clone(), true
}

func (h *History) CanUndo() bool { return h.index > 0 }
func (h *History) CanRedo() bool { return h.index < len(h.entries)-1 }

// Len is the number of recorded snapshots.
func (h *History) Len() int { return len(h.entries) }
