package asset

import (
	"context"
	"errors"
	"fmt"

	"github.com/linework/linework/backend-go/internal/store"
	"github.com/linework/linework/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("asset not found")
	ErrForbidden = errors.New("forbidden")
	ErrNotMember = errors.New("not a sketch member")
)

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Upload stores the image bytes under the sketch. Viewers may not upload.
func (s *Service) Upload(ctx context.Context, sketchID, userID, mime string, width, height int, data []byte) (store.Asset, error) {
	role, err := s.store.MemberRole(ctx, sketchID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Asset{}, ErrNotMember
		}
		return store.Asset{}, fmt.Errorf("check membership: %w", err)
	}
	if role == store.RoleViewer {
		return store.Asset{}, ErrForbidden
	}

	a, err := s.store.CreateAsset(ctx, store.Asset{
		ID:       typeid.NewAssetID(),
		SketchID: sketchID,
		Mime:     mime,
		Width:    width,
		Height:   height,
		Bytes:    data,
	})
	if err != nil {
		return store.Asset{}, fmt.Errorf("create asset: %w", err)
	}
	return a, nil
}

// Get returns the asset if the user is a member of its sketch.
func (s *Service) Get(ctx context.Context, assetID, userID string) (store.Asset, error) {
	a, err := s.store.AssetByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Asset{}, ErrNotFound
		}
		return store.Asset{}, fmt.Errorf("get asset: %w", err)
	}

	if _, err := s.store.MemberRole(ctx, a.SketchID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Asset{}, ErrNotMember
		}
		return store.Asset{}, fmt.Errorf("check membership: %w", err)
	}
	return a, nil
}
