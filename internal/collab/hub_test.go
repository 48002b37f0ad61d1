package collab

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linework/linework/backend-go/internal/document"
)

type fakeSnapshots struct {
	mu    sync.Mutex
	docs  map[string][]byte
	seqs  map[string]int64
	saves int
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{docs: map[string][]byte{}, seqs: map[string]int64{}}
}

func (f *fakeSnapshots) LoadLatest(_ context.Context, sketchID string) ([]byte, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[sketchID]
	if !ok {
		return nil, 0, ErrNoSnapshot
	}
	return doc, f.seqs[sketchID], nil
}

func (f *fakeSnapshots) Save(_ context.Context, sketchID string, seq int64, doc []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[sketchID] = doc
	f.seqs[sketchID] = seq
	f.saves++
	return nil
}

func (f *fakeSnapshots) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

// Hub handlers are invoked directly; the register/unregister channels and
// pumps need live sockets, which these tests do without.
func testClient(hub *Hub, userID, displayName, clientID string, readOnly bool) *Client {
	return NewClient(hub, nil, userID, displayName, "sk_test", clientID, readOnly)
}

func nextMessage(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	default:
		t.Fatal("no message queued")
		return nil
	}
}

func noMessage(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message: %s", data)
	default:
	}
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func createOp(t *testing.T, id string) *Message {
	t.Helper()
	raw, err := document.MarshalElement(document.NewRectangle(id, 5, 5, "#000000", 2))
	require.NoError(t, err)
	payload, err := json.Marshal(OpPayload{Operation: Operation{ID: "op_" + id, Type: OpElementCreate, Element: raw}})
	require.NoError(t, err)
	return &Message{Type: TypeOp, Payload: payload}
}

func TestJoinReceivesWelcomeAndPresenceState(t *testing.T) {
	hub := NewHub(newFakeSnapshots(), 64)
	a := testClient(hub, "user_a", "Ada", "client_a", false)

	hub.addClient(a)

	welcome := nextMessage(t, a)
	assert.Equal(t, TypeWelcome, welcome.Type)

	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.Equal(t, int64(0), wp.Seq)
	require.Len(t, wp.Members, 1)
	assert.Equal(t, "Ada", wp.Members[0].DisplayName)

	var doc document.Document
	require.NoError(t, json.Unmarshal(wp.Document, &doc))
	assert.Empty(t, doc.Elements)

	state := nextMessage(t, a)
	assert.Equal(t, TypePresenceState, state.Type)
	noMessage(t, a)
}

func TestSecondJoinBroadcastsJoin(t *testing.T) {
	hub := NewHub(newFakeSnapshots(), 64)
	a := testClient(hub, "user_a", "Ada", "client_a", false)
	b := testClient(hub, "user_b", "Ben", "client_b", false)

	hub.addClient(a)
	drain(a)
	hub.addClient(b)

	welcome := nextMessage(t, b)
	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.Len(t, wp.Members, 2)

	join := nextMessage(t, a)
	assert.Equal(t, TypePresenceJoin, join.Type)
	assert.Equal(t, "user_b", join.UserID)
}

func TestOperationAckAndBroadcast(t *testing.T) {
	hub := NewHub(newFakeSnapshots(), 64)
	a := testClient(hub, "user_a", "Ada", "client_a", false)
	b := testClient(hub, "user_b", "Ben", "client_b", false)
	hub.addClient(a)
	hub.addClient(b)
	drain(a)
	drain(b)

	hub.handleMessage(a, createOp(t, "el_1"))

	ack := nextMessage(t, a)
	assert.Equal(t, TypeAck, ack.Type)
	var ap AckPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &ap))
	assert.Equal(t, "op_el_1", ap.OperationID)
	assert.Equal(t, int64(1), ap.Seq)
	noMessage(t, a)

	broadcast := nextMessage(t, b)
	assert.Equal(t, TypeOp, broadcast.Type)
	assert.Equal(t, "user_a", broadcast.UserID)
	assert.Equal(t, int64(1), broadcast.Seq)
	var op OpPayload
	require.NoError(t, json.Unmarshal(broadcast.Payload, &op))
	assert.Equal(t, OpElementCreate, op.Operation.Type)
	assert.Equal(t, int64(1), op.Seq)
}

func TestReadOnlyClientCannotSubmit(t *testing.T) {
	hub := NewHub(newFakeSnapshots(), 64)
	a := testClient(hub, "user_a", "Ada", "client_a", false)
	v := testClient(hub, "user_v", "Val", "client_v", true)
	hub.addClient(a)
	hub.addClient(v)
	drain(a)
	drain(v)

	hub.handleMessage(v, createOp(t, "el_1"))

	errMsg := nextMessage(t, v)
	assert.Equal(t, TypeError, errMsg.Type)
	var ep ErrorPayload
	require.NoError(t, json.Unmarshal(errMsg.Payload, &ep))
	assert.Contains(t, ep.Reason, "read-only")

	// The room document is untouched and nothing reaches the editor.
	noMessage(t, a)
}

func TestRejectedOperationSendsError(t *testing.T) {
	hub := NewHub(newFakeSnapshots(), 64)
	a := testClient(hub, "user_a", "Ada", "client_a", false)
	hub.addClient(a)
	drain(a)

	payload, err := json.Marshal(OpPayload{Operation: Operation{ID: "op_x", Type: OpElementDelete, ElementID: "el_missing"}})
	require.NoError(t, err)
	hub.handleMessage(a, &Message{Type: TypeOp, Payload: payload})

	errMsg := nextMessage(t, a)
	assert.Equal(t, TypeError, errMsg.Type)
	var ep ErrorPayload
	require.NoError(t, json.Unmarshal(errMsg.Payload, &ep))
	assert.Equal(t, "op_x", ep.OperationID)
	assert.Contains(t, ep.Reason, "not found")
}

func TestPresenceUpdateBroadcast(t *testing.T) {
	hub := NewHub(newFakeSnapshots(), 64)
	a := testClient(hub, "user_a", "Ada", "client_a", false)
	b := testClient(hub, "user_b", "Ben", "client_b", false)
	hub.addClient(a)
	hub.addClient(b)
	drain(a)
	drain(b)

	payload, err := json.Marshal(PresencePayload{Cursor: &CursorPos{X: 12, Y: 34}, Tool: "rectangle"})
	require.NoError(t, err)
	hub.handleMessage(a, &Message{Type: TypePresenceUpdate, Payload: payload})

	noMessage(t, a)
	update := nextMessage(t, b)
	assert.Equal(t, TypePresenceUpdate, update.Type)
	assert.Equal(t, "user_a", update.UserID)

	var pp PresencePayload
	require.NoError(t, json.Unmarshal(update.Payload, &pp))
	require.NotNil(t, pp.Cursor)
	assert.Equal(t, 12.0, pp.Cursor.X)
	assert.Equal(t, "Ada", pp.DisplayName)
}

func TestHelloResendsWelcome(t *testing.T) {
	hub := NewHub(newFakeSnapshots(), 64)
	a := testClient(hub, "user_a", "Ada", "client_a", false)
	hub.addClient(a)
	drain(a)

	hub.handleMessage(a, &Message{Type: TypeHello})
	welcome := nextMessage(t, a)
	assert.Equal(t, TypeWelcome, welcome.Type)
}

func TestLastLeavePersistsSnapshot(t *testing.T) {
	snaps := newFakeSnapshots()
	hub := NewHub(snaps, 64)
	a := testClient(hub, "user_a", "Ada", "client_a", false)
	hub.addClient(a)
	drain(a)

	hub.handleMessage(a, createOp(t, "el_1"))
	drain(a)
	assert.Equal(t, 0, snaps.saveCount())

	hub.removeClient(a)
	assert.Equal(t, 1, snaps.saveCount())

	// The next join resumes from the stored document and sequence.
	b := testClient(hub, "user_b", "Ben", "client_b", false)
	hub.addClient(b)
	welcome := nextMessage(t, b)
	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.Equal(t, int64(1), wp.Seq)

	var doc document.Document
	require.NoError(t, json.Unmarshal(wp.Document, &doc))
	require.Len(t, doc.Elements, 1)
	assert.Equal(t, "el_1", doc.Elements[0].Base().ID)
}

func TestCleanLeaveWithoutChangesSkipsPersist(t *testing.T) {
	snaps := newFakeSnapshots()
	hub := NewHub(snaps, 64)
	a := testClient(hub, "user_a", "Ada", "client_a", false)
	hub.addClient(a)
	drain(a)

	hub.removeClient(a)
	assert.Equal(t, 0, snaps.saveCount())
}

func TestSnapshotCadence(t *testing.T) {
	snaps := newFakeSnapshots()
	hub := NewHub(snaps, 2)
	a := testClient(hub, "user_a", "Ada", "client_a", false)
	hub.addClient(a)
	drain(a)

	hub.handleMessage(a, createOp(t, "el_1"))
	assert.Equal(t, 0, snaps.saveCount())
	hub.handleMessage(a, createOp(t, "el_2"))
	assert.Equal(t, 1, snaps.saveCount())
	hub.handleMessage(a, createOp(t, "el_3"))
	assert.Equal(t, 1, snaps.saveCount())
	hub.handleMessage(a, createOp(t, "el_4"))
	assert.Equal(t, 2, snaps.saveCount())
}

func TestStopFlushesOpenRooms(t *testing.T) {
	snaps := newFakeSnapshots()
	hub := NewHub(snaps, 64)
	a := testClient(hub, "user_a", "Ada", "client_a", false)
	hub.addClient(a)
	drain(a)
	hub.handleMessage(a, createOp(t, "el_1"))

	hub.Stop(context.Background())
	assert.Equal(t, 1, snaps.saveCount())

	// Stop is idempotent.
	hub.Stop(context.Background())
	assert.Equal(t, 1, snaps.saveCount())
}

func TestRemoveUnknownClientIsNoop(t *testing.T) {
	hub := NewHub(newFakeSnapshots(), 64)
	a := testClient(hub, "user_a", "Ada", "client_a", false)
	hub.addClient(a)
	hub.removeClient(a)
	// A second unregister for the same client must not panic on the closed
	// send channel.
	hub.removeClient(a)
}
