package repository

import (
	"context"
	"database/sql"
	"errors"

	"streamraffle-backend/internal/features/draw/models"
	entrymodels "streamraffle-backend/internal/features/entry/models"
	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
)

var (
	ErrDrawNotFound   = errors.New("draw record not found")
	ErrNoCurrentWinner = errors.New("giveaway has no current winner")
)

// DrawRepository persists draw records and gives the draw engine a
// consistent snapshot: every draw runs inside WithGiveawayLock so the entry
// read and the record insert see the same population.
type DrawRepository interface {
	// WithGiveawayLock runs fn inside a transaction holding an advisory
	// lock keyed by the giveaway id. Concurrent draws on one giveaway
	// serialize here.
	WithGiveawayLock(ctx context.Context, giveawayID string, fn func(tx *sql.Tx) error) error

	// ListEligibleEntries loads the giveaway's entries in canonical
	// order, excluding entries that won a draw later flipped to REPICK.
	ListEligibleEntries(ctx context.Context, tx *sql.Tx, giveawayID string) ([]entrymodels.Entry, error)

	CreateDrawRecord(ctx context.Context, tx *sql.Tx, record *models.DrawRecord) error

	// MarkCurrentWinnerRepicked flips the giveaway's WINNER record to
	// REPICK; ErrNoCurrentWinner when there is none.
	MarkCurrentWinnerRepicked(ctx context.Context, tx *sql.Tx, giveawayID string) error

	// CountRepicks returns how many records are already REPICK, used as
	// the repick serial in the randomness request tag.
	CountRepicks(ctx context.Context, tx *sql.Tx, giveawayID string) (int64, error)

	UpdateGiveawayStatus(ctx context.Context, tx *sql.Tx, giveawayID string, status giveawaymodels.GiveawayStatus) error

	ListByGiveaway(ctx context.Context, giveawayID string) ([]models.DrawRecord, error)
	GetCurrentWinner(ctx context.Context, giveawayID string) (*models.DrawRecord, error)
}
