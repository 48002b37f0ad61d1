package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/linework/linework/backend-go/internal/document"
)

// ErrNoSnapshot is returned by SnapshotStore implementations when a sketch
// has no persisted document yet.
var ErrNoSnapshot = errors.New("collab: no snapshot")

// SnapshotStore persists room documents between sessions.
type SnapshotStore interface {
	LoadLatest(ctx context.Context, sketchID string) (doc []byte, seq int64, err error)
	Save(ctx context.Context, sketchID string, seq int64, doc []byte) error
}

const persistTimeout = 5 * time.Second

type Room struct {
	sketchID string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	state    *RoomState

	persistMu    sync.Mutex
	persistedSeq int64
}

func NewRoom(sketchID string, state *RoomState) *Room {
	return &Room{
		sketchID:     sketchID,
		clients:      make(map[string]*Client),
		presence:     NewPresenceManager(),
		state:        state,
		persistedSeq: state.Seq(),
	}
}

// sincePersist reports how many applied operations are not yet persisted.
func (r *Room) sincePersist() int64 {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()
	return r.state.Seq() - r.persistedSeq
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // sketchID -> room
	register   chan *Client
	unregister chan *Client

	snapshots     SnapshotStore
	snapshotEvery int64
	done          chan struct{}
	stopOnce      sync.Once
}

// NewHub builds a hub persisting room documents through snapshots every
// snapshotEvery applied operations (and always on last leave).
func NewHub(snapshots SnapshotStore, snapshotEvery int) *Hub {
	if snapshotEvery <= 0 {
		snapshotEvery = 64
	}
	return &Hub{
		rooms:         make(map[string]*Room),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		snapshots:     snapshots,
		snapshotEvery: int64(snapshotEvery),
		done:          make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Stop ends the run loop and flushes every open room. Callers shut the HTTP
// server down first so no registrations race the stop.
func (h *Hub) Stop(ctx context.Context) {
	h.stopOnce.Do(func() { close(h.done) })

	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		h.persistRoom(ctx, room)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SketchID]
	if !ok {
		room = NewRoom(client.SketchID, h.loadState(client.SketchID))
		h.rooms[client.SketchID] = room
	}
	room.clients[client.ClientID] = client
	members := roomMembers(room)
	h.mu.Unlock()

	h.sendWelcome(client, room, members)

	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.SketchID, &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "sketch", client.SketchID, "readOnly", client.ReadOnly)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SketchID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.UserID)

	last := len(room.clients) == 0
	if last {
		delete(h.rooms, client.SketchID)
	}
	h.mu.Unlock()

	if last {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		h.persistRoom(ctx, room)
		cancel()
	} else {
		leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
		h.broadcastToRoom(client.SketchID, &Message{
			Type:    TypePresenceLeave,
			UserID:  client.UserID,
			Payload: leavePayload,
		}, "")
	}

	slog.Info("client left", "user", client.UserID, "sketch", client.SketchID)
}

// loadState fetches the latest snapshot for a sketch, starting empty when
// none exists or the stored document cannot be decoded.
func (h *Hub) loadState(sketchID string) *RoomState {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	raw, seq, err := h.snapshots.LoadLatest(ctx, sketchID)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			slog.Error("load snapshot", "sketch", sketchID, "error", err)
		}
		return NewRoomState(document.NewDocument(), "", 0)
	}

	var doc document.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Error("decode snapshot", "sketch", sketchID, "error", err)
		return NewRoomState(document.NewDocument(), "", 0)
	}
	return NewRoomState(&doc, "", seq)
}

func (h *Hub) sendWelcome(client *Client, room *Room, members []Member) {
	docJSON, err := room.state.DocumentJSON()
	if err != nil {
		slog.Error("marshal room document", "sketch", room.sketchID, "error", err)
		return
	}
	payload, _ := json.Marshal(WelcomePayload{
		Seq:        room.state.Seq(),
		SketchName: room.state.Name(),
		Document:   docJSON,
		Members:    members,
	})
	client.Send(&Message{Type: TypeWelcome, Payload: payload})
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeHello:
		h.handleHello(sender)
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOp:
		h.handleOperation(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

// handleHello re-sends the welcome state, letting clients resync after a
// missed broadcast without reconnecting.
func (h *Hub) handleHello(sender *Client) {
	h.mu.RLock()
	room, ok := h.rooms[sender.SketchID]
	var members []Member
	if ok {
		members = roomMembers(room)
	}
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.sendWelcome(sender, room, members)
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err, "user", sender.UserID)
		return
	}

	presence.DisplayName = sender.DisplayName

	h.mu.RLock()
	room, ok := h.rooms[sender.SketchID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(sender.UserID, &presence)

	outPayload, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.SketchID, &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}, sender.ClientID)
}

func (h *Hub) handleOperation(sender *Client, msg *Message) {
	var payload OpPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		sender.SendError("", "malformed operation payload")
		return
	}
	op := payload.Operation

	if sender.ReadOnly {
		sender.SendError(op.ID, "sketch is read-only for this member")
		return
	}

	h.mu.RLock()
	room, ok := h.rooms[sender.SketchID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	seq, err := room.state.Apply(op)
	if err != nil {
		slog.Warn("operation rejected", "user", sender.UserID, "sketch", sender.SketchID, "type", op.Type, "error", err)
		sender.SendError(op.ID, err.Error())
		return
	}

	ackPayload, _ := json.Marshal(AckPayload{OperationID: op.ID, Seq: seq})
	sender.Send(&Message{Type: TypeAck, Seq: seq, Payload: ackPayload})

	outPayload, _ := json.Marshal(OpPayload{Operation: op, UserID: sender.UserID, Seq: seq})
	h.broadcastToRoom(sender.SketchID, &Message{
		Type:    TypeOp,
		UserID:  sender.UserID,
		Seq:     seq,
		Payload: outPayload,
	}, sender.ClientID)

	if room.sincePersist() >= h.snapshotEvery {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		h.persistRoom(ctx, room)
		cancel()
	}
}

func (h *Hub) persistRoom(ctx context.Context, room *Room) {
	room.persistMu.Lock()
	defer room.persistMu.Unlock()

	seq := room.state.Seq()
	if seq == room.persistedSeq {
		return
	}
	docJSON, err := room.state.DocumentJSON()
	if err != nil {
		slog.Error("marshal room document", "sketch", room.sketchID, "error", err)
		return
	}
	if err := h.snapshots.Save(ctx, room.sketchID, seq, docJSON); err != nil {
		slog.Error("persist snapshot", "sketch", room.sketchID, "seq", seq, "error", err)
		return
	}
	room.persistedSeq = seq
	slog.Info("snapshot persisted", "sketch", room.sketchID, "seq", seq)
}

func (h *Hub) broadcastToRoom(sketchID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[sketchID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

// roomMembers lists connected users, one entry per user even when several
// tabs share a room. Caller holds h.mu.
func roomMembers(room *Room) []Member {
	seen := make(map[string]bool, len(room.clients))
	members := make([]Member, 0, len(room.clients))
	for _, c := range room.clients {
		if seen[c.UserID] {
			continue
		}
		seen[c.UserID] = true
		members = append(members, Member{UserID: c.UserID, DisplayName: c.DisplayName})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members
}
