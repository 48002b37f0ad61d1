package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/linework/linework/backend-go/internal/document"
)

var (
	ErrUnknownElement = errors.New("collab: element not found")
	ErrBadOperation   = errors.New("collab: malformed operation")
)

// RoomState is the authoritative document for one sketch room. Operations
// are applied in arrival order, last write wins; the lock serializes client
// readers submitting concurrently.
type RoomState struct {
	mu   sync.RWMutex
	doc  *document.Document
	name string
	seq  int64
}

func NewRoomState(doc *document.Document, name string, seq int64) *RoomState {
	if doc == nil {
		doc = document.NewDocument()
	}
	return &RoomState{doc: doc, name: name, seq: seq}
}

func (s *RoomState) Seq() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

func (s *RoomState) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// DocumentJSON marshals the current document in wire format.
func (s *RoomState) DocumentJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.doc)
}

// Apply mutates the document and returns the new server sequence. Rejected
// operations do not advance the sequence.
func (s *RoomState) Apply(op Operation) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch op.Type {
	case OpElementCreate:
		err = s.applyCreate(op)
	case OpElementUpdate:
		err = s.applyUpdate(op)
	case OpElementDelete:
		err = s.applyDelete(op)
	case OpDocumentReplace:
		err = s.applyReplace(op)
	case OpSketchRename:
		s.name = op.Name
	default:
		err = fmt.Errorf("%w: unknown type %q", ErrBadOperation, op.Type)
	}
	if err != nil {
		return 0, err
	}

	s.seq++
	return s.seq, nil
}

func (s *RoomState) applyCreate(op Operation) error {
	el, err := document.UnmarshalElement(op.Element)
	if err != nil {
		return fmt.Errorf("%w: element: %v", ErrBadOperation, err)
	}
	// Re-creating an existing ID replaces it in place.
	if s.doc.ByID(el.Base().ID) != nil {
		s.doc.Replace(el)
		return nil
	}
	if op.Index != nil {
		s.doc.Insert(*op.Index, el)
	} else {
		s.doc.Append(el)
	}
	return nil
}

func (s *RoomState) applyUpdate(op Operation) error {
	if s.doc.ByID(op.ElementID) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownElement, op.ElementID)
	}
	var p document.Patch
	if err := json.Unmarshal(op.Patch, &p); err != nil {
		return fmt.Errorf("%w: patch: %v", ErrBadOperation, err)
	}
	s.doc.Update(op.ElementID, p)
	return nil
}

func (s *RoomState) applyDelete(op Operation) error {
	if s.doc.ByID(op.ElementID) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownElement, op.ElementID)
	}
	s.doc.Delete(op.ElementID)
	return nil
}

func (s *RoomState) applyReplace(op Operation) error {
	var doc document.Document
	if err := json.Unmarshal(op.Document, &doc); err != nil {
		return fmt.Errorf("%w: document: %v", ErrBadOperation, err)
	}
	s.doc = &doc
	return nil
}
