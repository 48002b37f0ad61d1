package collab

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/linework/linework/backend-go/internal/auth"
	"github.com/linework/linework/backend-go/internal/typeid"
)

// AccessFunc authorizes a user joining a sketch room and reports whether
// they may submit operations. It returns an error for non-members.
type AccessFunc func(ctx context.Context, sketchID, userID string) (writable bool, err error)

type Handler struct {
	hub     *Hub
	auth    *auth.Service
	access  AccessFunc
	origins []string
}

func NewHandler(hub *Hub, authSvc *auth.Service, access AccessFunc, origins []string) *Handler {
	return &Handler{hub: hub, auth: authSvc, access: access, origins: origins}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws/sketches/{id}", h.handleSocket)
}

// handleSocket upgrades the connection and runs the client pumps until the
// peer disconnects. Browsers cannot set headers on WebSocket requests, so
// the JWT arrives as a query parameter.
func (h *Handler) handleSocket(w http.ResponseWriter, r *http.Request) {
	sketchID := mux.Vars(r)["id"]
	if err := typeid.Validate(sketchID, typeid.PrefixSketch); err != nil {
		http.Error(w, "invalid sketch id", http.StatusBadRequest)
		return
	}

	userID, err := h.auth.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	user, err := h.auth.GetUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	writable, err := h.access(r.Context(), sketchID, userID)
	if err != nil {
		http.Error(w, "not a member of this sketch", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		slog.Warn("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, userID, user.DisplayName, sketchID, typeid.NewClientID(), !writable)
	h.hub.Register(client)

	go client.WritePump(r.Context())
	client.ReadPump(r.Context())
}
