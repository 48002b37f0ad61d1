package sketch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linework/linework/backend-go/internal/document"
	"github.com/linework/linework/backend-go/internal/store"
	"github.com/linework/linework/backend-go/internal/typeid"
)

var (
	ErrNotFound          = errors.New("sketch not found")
	ErrForbidden         = errors.New("forbidden")
	ErrNotMember         = errors.New("not a sketch member")
	ErrUserNotFound      = errors.New("user not found")
	ErrCannotRemoveOwner = errors.New("cannot remove the sketch owner")
	ErrBadRole           = errors.New("invalid role")
	ErrBadDocument       = errors.New("invalid document")
)

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

type Sketch struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type Member struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Snapshot is the persisted document state a client resumes from.
type Snapshot struct {
	Seq       int64           `json:"seq"`
	Document  json.RawMessage `json:"document"`
	CreatedAt string          `json:"createdAt"`
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*Sketch, error) {
	sketchID := typeid.NewSketchID()

	sk, err := s.store.CreateSketch(ctx, sketchID, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("create sketch: %w", err)
	}

	// Add owner as member
	if err := s.store.AddMember(ctx, sketchID, ownerID, store.RoleOwner); err != nil {
		return nil, fmt.Errorf("add owner as member: %w", err)
	}

	// Seed empty document snapshot so collaboration can resume from seq 0
	docJSON, err := json.Marshal(document.NewDocument())
	if err != nil {
		return nil, fmt.Errorf("marshal empty document: %w", err)
	}
	if _, err := s.store.CreateSnapshot(ctx, typeid.NewSnapshotID(), sketchID, 0, docJSON); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return toSketch(sk), nil
}

func (s *Service) Get(ctx context.Context, sketchID, userID string) (*Sketch, error) {
	if err := s.checkMembership(ctx, sketchID, userID); err != nil {
		return nil, err
	}

	sk, err := s.store.SketchByID(ctx, sketchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get sketch: %w", err)
	}

	return toSketch(sk), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Sketch, error) {
	rows, err := s.store.SketchesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sketches: %w", err)
	}

	sketches := make([]Sketch, len(rows))
	for i, sk := range rows {
		sketches[i] = *toSketch(sk)
	}

	return sketches, nil
}

// Rename changes the sketch name. Editors and the owner may rename.
func (s *Service) Rename(ctx context.Context, sketchID, userID, name string) (*Sketch, error) {
	if err := s.checkCanEdit(ctx, sketchID, userID); err != nil {
		return nil, err
	}

	if err := s.store.RenameSketch(ctx, sketchID, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("rename sketch: %w", err)
	}

	sk, err := s.store.SketchByID(ctx, sketchID)
	if err != nil {
		return nil, fmt.Errorf("get sketch: %w", err)
	}
	return toSketch(sk), nil
}

func (s *Service) Delete(ctx context.Context, sketchID, userID string) error {
	if err := s.checkOwnership(ctx, sketchID, userID); err != nil {
		return err
	}

	if err := s.store.DeleteSketch(ctx, sketchID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete sketch: %w", err)
	}
	return nil
}

// InviteByEmail adds the user with the given email as a member. Only the
// owner may invite. An empty role defaults to editor; inviting an existing
// member adjusts their role.
func (s *Service) InviteByEmail(ctx context.Context, sketchID, ownerID, inviteeEmail, role string) error {
	switch role {
	case "":
		role = store.RoleEditor
	case store.RoleEditor, store.RoleViewer:
	default:
		return ErrBadRole
	}

	if err := s.checkOwnership(ctx, sketchID, ownerID); err != nil {
		return err
	}

	invitee, err := s.store.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(inviteeEmail)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.store.AddMember(ctx, sketchID, invitee.ID, role); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *Service) ListMembers(ctx context.Context, sketchID, userID string) ([]Member, error) {
	if err := s.checkMembership(ctx, sketchID, userID); err != nil {
		return nil, err
	}

	rows, err := s.store.ListMembers(ctx, sketchID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]Member, len(rows))
	for i, m := range rows {
		members[i] = Member{
			UserID:      m.UserID,
			Role:        m.Role,
			DisplayName: m.DisplayName,
			Email:       m.Email,
		}
	}

	return members, nil
}

func (s *Service) RemoveMember(ctx context.Context, sketchID, ownerID, targetUserID string) error {
	if err := s.checkOwnership(ctx, sketchID, ownerID); err != nil {
		return err
	}

	if targetUserID == ownerID {
		return ErrCannotRemoveOwner
	}

	if err := s.store.RemoveMember(ctx, sketchID, targetUserID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *Service) GetLatestSnapshot(ctx context.Context, sketchID, userID string) (*Snapshot, error) {
	if err := s.checkMembership(ctx, sketchID, userID); err != nil {
		return nil, err
	}

	snap, err := s.store.LatestSnapshot(ctx, sketchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	return &Snapshot{
		Seq:       snap.Seq,
		Document:  snap.Document,
		CreatedAt: formatTime(snap.CreatedAt),
	}, nil
}

// SaveSnapshot persists a document sent over REST, bumping the sequence past
// the latest stored snapshot so a later room load resumes from it. The
// document must decode; unknown fields are dropped by re-encoding.
func (s *Service) SaveSnapshot(ctx context.Context, sketchID, userID string, raw json.RawMessage) (int64, error) {
	if err := s.checkCanEdit(ctx, sketchID, userID); err != nil {
		return 0, err
	}

	var doc document.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	canonical, err := json.Marshal(&doc)
	if err != nil {
		return 0, fmt.Errorf("marshal document: %w", err)
	}

	var seq int64
	last, err := s.store.LatestSnapshot(ctx, sketchID)
	switch {
	case err == nil:
		seq = last.Seq + 1
	case errors.Is(err, store.ErrNotFound):
		seq = 1
	default:
		return 0, fmt.Errorf("get snapshot: %w", err)
	}

	if _, err := s.store.CreateSnapshot(ctx, typeid.NewSnapshotID(), sketchID, seq, canonical); err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}
	return seq, nil
}

// RoomAccess reports whether the user may join the sketch's live room and
// whether they may submit operations. Viewers join read-only.
func (s *Service) RoomAccess(ctx context.Context, sketchID, userID string) (bool, error) {
	role, err := s.store.MemberRole(ctx, sketchID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrNotMember
		}
		return false, fmt.Errorf("check membership: %w", err)
	}
	return role != store.RoleViewer, nil
}

func (s *Service) checkMembership(ctx context.Context, sketchID, userID string) error {
	if _, err := s.store.MemberRole(ctx, sketchID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("check membership: %w", err)
	}
	return nil
}

func (s *Service) checkCanEdit(ctx context.Context, sketchID, userID string) error {
	role, err := s.store.MemberRole(ctx, sketchID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("check membership: %w", err)
	}
	if role == store.RoleViewer {
		return ErrForbidden
	}
	return nil
}

func (s *Service) checkOwnership(ctx context.Context, sketchID, userID string) error {
	sk, err := s.store.SketchByID(ctx, sketchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get sketch: %w", err)
	}
	if sk.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func toSketch(sk store.Sketch) *Sketch {
	return &Sketch{
		ID:        sk.ID,
		Name:      sk.Name,
		OwnerID:   sk.OwnerID,
		CreatedAt: formatTime(sk.CreatedAt),
		UpdatedAt: formatTime(sk.UpdatedAt),
	}
}
