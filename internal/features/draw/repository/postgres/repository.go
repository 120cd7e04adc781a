package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"streamraffle-backend/internal/features/draw/models"
	"streamraffle-backend/internal/features/draw/repository"
	entrymodels "streamraffle-backend/internal/features/entry/models"
	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.DrawRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) WithGiveawayLock(ctx context.Context, giveawayID string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Advisory lock held until commit/rollback; serializes draws per
	// giveaway and fences out in-flight entry visibility questions.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, giveawayID); err != nil {
		return fmt.Errorf("failed to acquire giveaway lock: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresRepository) ListEligibleEntries(ctx context.Context, tx *sql.Tx, giveawayID string) ([]entrymodels.Entry, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, giveaway_id, platform, external_user_id, username, avatar_url, method, tickets, metadata, created_at
		FROM entries
		WHERE giveaway_id = $1
		  AND id NOT IN (
			SELECT winner_entry_id FROM draw_records
			WHERE giveaway_id = $1 AND status = $2
		  )
		ORDER BY created_at, id`,
		giveawayID, models.DrawStatusRepick)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entrymodels.Entry
	for rows.Next() {
		var e entrymodels.Entry
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

func (r *postgresRepository) CreateDrawRecord(ctx context.Context, tx *sql.Tx, rec *models.DrawRecord) error {
	ranges, err := json.Marshal(rec.Ranges)
	if err != nil {
		return fmt.Errorf("failed to marshal range table: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO draw_records (id, giveaway_id, winner_entry_id, status, ranges, total_tickets,
			audit_hash, hash_algorithm, random_payload, signature, verification_url,
			drawn_index, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.ID, rec.GiveawayID, rec.WinnerEntryID, rec.Status, ranges, rec.TotalTickets,
		rec.AuditHash, rec.HashAlgorithm, []byte(rec.RandomPayload), rec.Signature,
		rec.VerificationURL, rec.DrawnIndex, rec.Verified, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert draw record: %w", err)
	}
	return nil
}

func (r *postgresRepository) MarkCurrentWinnerRepicked(ctx context.Context, tx *sql.Tx, giveawayID string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE draw_records SET status = $3
		WHERE giveaway_id = $1 AND status = $2`,
		giveawayID, models.DrawStatusWinner, models.DrawStatusRepick)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNoCurrentWinner
	}
	return nil
}

func (r *postgresRepository) CountRepicks(ctx context.Context, tx *sql.Tx, giveawayID string) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM draw_records WHERE giveaway_id = $1 AND status = $2`,
		giveawayID, models.DrawStatusRepick).Scan(&n)
	return n, err
}

func (r *postgresRepository) UpdateGiveawayStatus(ctx context.Context, tx *sql.Tx, giveawayID string, status giveawaymodels.GiveawayStatus) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE giveaways SET status = $2, updated_at = NOW() WHERE id = $1`,
		giveawayID, status)
	return err
}

func (r *postgresRepository) ListByGiveaway(ctx context.Context, giveawayID string) ([]models.DrawRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, giveaway_id, winner_entry_id, status, ranges, total_tickets,
			audit_hash, hash_algorithm, random_payload, signature, verification_url,
			drawn_index, verified, created_at
		FROM draw_records WHERE giveaway_id = $1 ORDER BY created_at`, giveawayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DrawRecord
	for rows.Next() {
		rec, err := scanDrawRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *postgresRepository) GetCurrentWinner(ctx context.Context, giveawayID string) (*models.DrawRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, giveaway_id, winner_entry_id, status, ranges, total_tickets,
			audit_hash, hash_algorithm, random_payload, signature, verification_url,
			drawn_index, verified, created_at
		FROM draw_records WHERE giveaway_id = $1 AND status = $2`,
		giveawayID, models.DrawStatusWinner)
	rec, err := scanDrawRecord(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrDrawNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDrawRecord(row rowScanner) (*models.DrawRecord, error) {
	var rec models.DrawRecord
	var ranges, payload []byte
	err := row.Scan(&rec.ID, &rec.GiveawayID, &rec.WinnerEntryID, &rec.Status,
		&ranges, &rec.TotalTickets, &rec.AuditHash, &rec.HashAlgorithm,
		&payload, &rec.Signature, &rec.VerificationURL,
		&rec.DrawnIndex, &rec.Verified, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(ranges, &rec.Ranges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal range table: %w", err)
	}
	rec.RandomPayload = json.RawMessage(payload)
	return &rec, nil
}
