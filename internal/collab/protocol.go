package collab

import "encoding/json"

// Message is the wire envelope for everything crossing a sketch socket.
// Seq and UserID are stamped by the server on applied operations.
type Message struct {
	Type     string          `json:"type"`
	SketchID string          `json:"sketchId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	// Connection
	TypeHello   = "hello"
	TypeWelcome = "welcome"

	// Presence
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	// Document operations
	TypeOp    = "op"
	TypeAck   = "ack"
	TypeError = "error"
)

// Operation kinds applied to a room document.
const (
	OpElementCreate   = "element.create"
	OpElementUpdate   = "element.update"
	OpElementDelete   = "element.delete"
	OpDocumentReplace = "document.replace"
	OpSketchRename    = "sketch.rename"
)

// Operation is one document mutation submitted by a client. Only the fields
// matching Type are read.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	ElementID string `json:"elementId,omitempty"`

	// element.create
	Element json.RawMessage `json:"element,omitempty"`
	Index   *int            `json:"index,omitempty"`

	// element.update
	Patch json.RawMessage `json:"patch,omitempty"`

	// document.replace (sent after a local undo/redo)
	Document json.RawMessage `json:"document,omitempty"`

	// sketch.rename
	Name string `json:"name,omitempty"`
}

// OpPayload wraps an operation on the wire. The server fills UserID and Seq
// when broadcasting an applied operation to the rest of the room.
type OpPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId,omitempty"`
	Seq       int64     `json:"seq,omitempty"`
}

type AckPayload struct {
	OperationID string `json:"operationId"`
	Seq         int64  `json:"seq"`
}

type ErrorPayload struct {
	OperationID string `json:"operationId,omitempty"`
	Reason      string `json:"reason"`
}

// WelcomePayload carries the full room state to a joining client.
type WelcomePayload struct {
	Seq        int64           `json:"seq"`
	SketchName string          `json:"sketchName,omitempty"`
	Document   json.RawMessage `json:"document"`
	Members    []Member        `json:"members"`
}

type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// PresencePayload is a client's live cursor state. DisplayName is filled by
// the server from the authenticated user.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	SelectedID  string     `json:"selectedId,omitempty"`
	Tool        string     `json:"tool,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

// CursorPos is a document-space position.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}
