package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linework/linework/backend-go/internal/document"
)

func elementJSON(t *testing.T, el document.Element) json.RawMessage {
	t.Helper()
	raw, err := document.MarshalElement(el)
	require.NoError(t, err)
	return raw
}

func stateDoc(t *testing.T, s *RoomState) *document.Document {
	t.Helper()
	raw, err := s.DocumentJSON()
	require.NoError(t, err)
	var doc document.Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	return &doc
}

func TestApplyElementCreate(t *testing.T) {
	s := NewRoomState(document.NewDocument(), "", 0)

	seq, err := s.Apply(Operation{
		ID:      "op1",
		Type:    OpElementCreate,
		Element: elementJSON(t, document.NewRectangle("el_a", 10, 10, "#000000", 2)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	doc := stateDoc(t, s)
	require.NotNil(t, doc.ByID("el_a"))
	assert.Equal(t, document.KindRectangle, doc.ByID("el_a").Kind())
}

func TestApplyElementCreateAtIndex(t *testing.T) {
	s := NewRoomState(document.NewDocument(), "", 0)
	_, err := s.Apply(Operation{Type: OpElementCreate, Element: elementJSON(t, document.NewCircle("el_a", 0, 0, "#000000", 2))})
	require.NoError(t, err)
	_, err = s.Apply(Operation{Type: OpElementCreate, Element: elementJSON(t, document.NewCircle("el_b", 0, 0, "#000000", 2))})
	require.NoError(t, err)

	idx := 0
	_, err = s.Apply(Operation{
		Type:    OpElementCreate,
		Element: elementJSON(t, document.NewCircle("el_c", 0, 0, "#000000", 2)),
		Index:   &idx,
	})
	require.NoError(t, err)

	doc := stateDoc(t, s)
	require.Len(t, doc.Elements, 3)
	assert.Equal(t, "el_c", doc.Elements[0].Base().ID)
}

func TestApplyCreateExistingIDReplaces(t *testing.T) {
	s := NewRoomState(document.NewDocument(), "", 0)
	_, err := s.Apply(Operation{Type: OpElementCreate, Element: elementJSON(t, document.NewRectangle("el_a", 0, 0, "#000000", 2))})
	require.NoError(t, err)

	moved := document.NewRectangle("el_a", 99, 99, "#ff0000", 2)
	_, err = s.Apply(Operation{Type: OpElementCreate, Element: elementJSON(t, moved)})
	require.NoError(t, err)

	doc := stateDoc(t, s)
	require.Len(t, doc.Elements, 1)
	assert.Equal(t, 99.0, doc.ByID("el_a").Base().X)
}

func TestApplyElementUpdate(t *testing.T) {
	s := NewRoomState(document.NewDocument(), "", 0)
	_, err := s.Apply(Operation{Type: OpElementCreate, Element: elementJSON(t, document.NewRectangle("el_a", 10, 10, "#000000", 2))})
	require.NoError(t, err)

	seq, err := s.Apply(Operation{
		Type:      OpElementUpdate,
		ElementID: "el_a",
		Patch:     json.RawMessage(`{"x": 50, "strokeColor": "#ff0000"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	el := stateDoc(t, s).ByID("el_a")
	assert.Equal(t, 50.0, el.Base().X)
	assert.Equal(t, "#ff0000", el.Base().StrokeColor)
}

func TestApplyUpdateUnknownElement(t *testing.T) {
	s := NewRoomState(document.NewDocument(), "", 0)

	_, err := s.Apply(Operation{Type: OpElementUpdate, ElementID: "el_missing", Patch: json.RawMessage(`{"x": 1}`)})
	assert.ErrorIs(t, err, ErrUnknownElement)
	assert.Equal(t, int64(0), s.Seq())
}

func TestApplyUpdateBadPatch(t *testing.T) {
	s := NewRoomState(document.NewDocument(), "", 0)
	_, err := s.Apply(Operation{Type: OpElementCreate, Element: elementJSON(t, document.NewRectangle("el_a", 0, 0, "#000000", 2))})
	require.NoError(t, err)

	_, err = s.Apply(Operation{Type: OpElementUpdate, ElementID: "el_a", Patch: json.RawMessage(`not json`)})
	assert.ErrorIs(t, err, ErrBadOperation)
	assert.Equal(t, int64(1), s.Seq())
}

func TestApplyElementDelete(t *testing.T) {
	s := NewRoomState(document.NewDocument(), "", 0)
	_, err := s.Apply(Operation{Type: OpElementCreate, Element: elementJSON(t, document.NewRectangle("el_a", 0, 0, "#000000", 2))})
	require.NoError(t, err)

	_, err = s.Apply(Operation{Type: OpElementDelete, ElementID: "el_a"})
	require.NoError(t, err)
	assert.Empty(t, stateDoc(t, s).Elements)

	_, err = s.Apply(Operation{Type: OpElementDelete, ElementID: "el_a"})
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestApplyDocumentReplace(t *testing.T) {
	s := NewRoomState(document.NewSampleDocument(), "", 7)

	replacement := document.NewDocument()
	replacement.Append(document.NewLine("el_l", 0, 0, "#123456", 3))
	raw, err := json.Marshal(replacement)
	require.NoError(t, err)

	seq, err := s.Apply(Operation{Type: OpDocumentReplace, Document: raw})
	require.NoError(t, err)
	assert.Equal(t, int64(8), seq)

	doc := stateDoc(t, s)
	require.Len(t, doc.Elements, 1)
	assert.Equal(t, document.KindLine, doc.Elements[0].Kind())
}

func TestApplySketchRename(t *testing.T) {
	s := NewRoomState(document.NewDocument(), "old", 0)

	_, err := s.Apply(Operation{Type: OpSketchRename, Name: "new name"})
	require.NoError(t, err)
	assert.Equal(t, "new name", s.Name())
}

func TestApplyUnknownType(t *testing.T) {
	s := NewRoomState(document.NewDocument(), "", 0)

	_, err := s.Apply(Operation{Type: "element.teleport"})
	assert.ErrorIs(t, err, ErrBadOperation)
	assert.Equal(t, int64(0), s.Seq())
}
