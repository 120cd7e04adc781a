package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"streamraffle-backend/internal/features/entry/models"
	"streamraffle-backend/internal/features/entry/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.EntryRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, e *models.Entry) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal entry metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO entries (id, giveaway_id, platform, external_user_id, username, avatar_url, method, tickets, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.GiveawayID, e.Platform, e.ExternalUserID, e.Username,
		e.AvatarURL, e.Method, e.Tickets, metadata, e.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListByGiveaway(ctx context.Context, giveawayID string) ([]models.Entry, error) {
	// The (created_at, id) order is the canonical draw population order;
	// audit hashes are only reproducible against it.
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, giveaway_id, platform, external_user_id, username, avatar_url, method, tickets, metadata, created_at
		FROM entries
		WHERE giveaway_id = $1
		ORDER BY created_at, id`, giveawayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Entry
	for rows.Next() {
		var e models.Entry
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.GiveawayID, &e.Platform, &e.ExternalUserID,
			&e.Username, &e.AvatarURL, &e.Method, &e.Tickets, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal entry metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *postgresRepository) CountByGiveaway(ctx context.Context, giveawayID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE giveaway_id = $1`, giveawayID).Scan(&n)
	return n, err
}
