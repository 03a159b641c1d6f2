package handlers

import (
	"context"

	"clickshare/models"
	"clickshare/utils"
)

var generateEditToken = utils.GenerateEditToken

type JSONResponse map[string]interface{}

// ProfileStore is the data access the handlers need. It is satisfied by
// *repository.ProfileRepository.
type ProfileStore interface {
	GetBySlug(ctx context.Context, slug string) (*models.Profile, error)
	GetByEditToken(ctx context.Context, editToken string) (*models.Profile, error)
	Create(ctx context.Context, input models.ProfileInput, slug, editToken string) (string, error)
	Update(ctx context.Context, id string, input models.ProfileInput) error
	IncrementVisits(ctx context.Context, id string) (int64, bool, error)
	IncrementQRScans(ctx context.Context, id string) (int64, bool, error)
	SetProfileImage(ctx context.Context, id, storageID string) error
}
