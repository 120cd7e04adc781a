package repository

import (
	"context"
	"errors"

	"streamraffle-backend/internal/features/giveaway/models"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")
	// ErrGiveawayAlreadyOpen surfaces the partial unique index that
	// allows at most one open giveaway per admin.
	ErrGiveawayAlreadyOpen = errors.New("admin already has an open giveaway")
)

type GiveawayRepository interface {
	Create(ctx context.Context, giveaway *models.Giveaway) error
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)
	Update(ctx context.Context, giveaway *models.Giveaway) error
	UpdateStatus(ctx context.Context, id string, status models.GiveawayStatus) error
	Delete(ctx context.Context, id string) error

	// GetOpenByAdmin returns the admin's single open giveaway, or
	// ErrGiveawayNotFound when none is open.
	GetOpenByAdmin(ctx context.Context, adminID int64) (*models.Giveaway, error)
	ListByAdmin(ctx context.Context, adminID int64) ([]*models.Giveaway, error)
}
