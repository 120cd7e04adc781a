package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"streamraffle-backend/internal/features/giveaway/models"
	"streamraffle-backend/internal/features/giveaway/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.GiveawayRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, g *models.Giveaway) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	platforms := make([]string, len(g.Platforms))
	for i, p := range g.Platforms {
		platforms[i] = string(p)
	}
	roles := make([]string, len(g.AllowedRoles))
	for i, ar := range g.AllowedRoles {
		roles[i] = string(ar)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO giveaways (id, admin_id, name, status, keyword, platforms, allowed_roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.AdminID, g.Name, g.Status, models.NormalizeKeyword(g.Keyword),
		pq.Array(platforms), pq.Array(roles), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert giveaway: %w", err)
	}

	if err := insertChildren(ctx, tx, g); err != nil {
		return err
	}

	return tx.Commit()
}

func insertChildren(ctx context.Context, tx *sql.Tx, g *models.Giveaway) error {
	for _, c := range g.DonationConfigs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO giveaway_donation_configs (giveaway_id, platform, unit_type, win_window)
			VALUES ($1, $2, $3, $4)`,
			g.ID, c.Platform, c.UnitType, c.Window)
		if err != nil {
			return fmt.Errorf("failed to insert donation config: %w", err)
		}
	}
	for _, o := range g.RoleOverrides {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO giveaway_role_overrides (giveaway_id, role, tickets_per_unit)
			VALUES ($1, $2, $3)`,
			g.ID, o.Role, o.TicketsPerUnit)
		if err != nil {
			return fmt.Errorf("failed to insert role override: %w", err)
		}
	}
	for _, o := range g.DonationOverrides {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO giveaway_donation_overrides (giveaway_id, platform, unit_type, unit_size, tickets_per_unit_size)
			VALUES ($1, $2, $3, $4, $5)`,
			g.ID, o.Platform, o.UnitType, o.UnitSize, o.TicketsPerUnitSize)
		if err != nil {
			return fmt.Errorf("failed to insert donation override: %w", err)
		}
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	g, err := r.scanGiveaway(r.db.QueryRowContext(ctx, `
		SELECT id, admin_id, name, status, keyword, platforms, allowed_roles, created_at, updated_at
		FROM giveaways WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *postgresRepository) GetOpenByAdmin(ctx context.Context, adminID int64) (*models.Giveaway, error) {
	g, err := r.scanGiveaway(r.db.QueryRowContext(ctx, `
		SELECT id, admin_id, name, status, keyword, platforms, allowed_roles, created_at, updated_at
		FROM giveaways WHERE admin_id = $1 AND status = $2`,
		adminID, models.GiveawayStatusOpen))
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *postgresRepository) scanGiveaway(row rowScanner) (*models.Giveaway, error) {
	var g models.Giveaway
	var platforms, roles []string
	err := row.Scan(&g.ID, &g.AdminID, &g.Name, &g.Status, &g.Keyword,
		pq.Array(&platforms), pq.Array(&roles), &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}
	for _, p := range platforms {
		g.Platforms = append(g.Platforms, models.Platform(p))
	}
	for _, ar := range roles {
		g.AllowedRoles = append(g.AllowedRoles, models.Role(ar))
	}
	return &g, nil
}

func (r *postgresRepository) loadChildren(ctx context.Context, g *models.Giveaway) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT platform, unit_type, win_window
		FROM giveaway_donation_configs WHERE giveaway_id = $1`, g.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var c models.DonationConfig
		if err := rows.Scan(&c.Platform, &c.UnitType, &c.Window); err != nil {
			return err
		}
		g.DonationConfigs = append(g.DonationConfigs, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	orows, err := r.db.QueryContext(ctx, `
		SELECT role, tickets_per_unit
		FROM giveaway_role_overrides WHERE giveaway_id = $1`, g.ID)
	if err != nil {
		return err
	}
	defer orows.Close()
	for orows.Next() {
		var o models.RoleOverride
		if err := orows.Scan(&o.Role, &o.TicketsPerUnit); err != nil {
			return err
		}
		g.RoleOverrides = append(g.RoleOverrides, o)
	}
	if err := orows.Err(); err != nil {
		return err
	}

	drows, err := r.db.QueryContext(ctx, `
		SELECT platform, unit_type, unit_size, tickets_per_unit_size
		FROM giveaway_donation_overrides WHERE giveaway_id = $1`, g.ID)
	if err != nil {
		return err
	}
	defer drows.Close()
	for drows.Next() {
		var o models.DonationOverride
		if err := drows.Scan(&o.Platform, &o.UnitType, &o.UnitSize, &o.TicketsPerUnitSize); err != nil {
			return err
		}
		g.DonationOverrides = append(g.DonationOverrides, o)
	}
	return drows.Err()
}

func (r *postgresRepository) Update(ctx context.Context, g *models.Giveaway) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	platforms := make([]string, len(g.Platforms))
	for i, p := range g.Platforms {
		platforms[i] = string(p)
	}
	roles := make([]string, len(g.AllowedRoles))
	for i, ar := range g.AllowedRoles {
		roles[i] = string(ar)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE giveaways
		SET name = $2, status = $3, keyword = $4, platforms = $5, allowed_roles = $6, updated_at = $7
		WHERE id = $1`,
		g.ID, g.Name, g.Status, models.NormalizeKeyword(g.Keyword),
		pq.Array(platforms), pq.Array(roles), g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update giveaway: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrGiveawayNotFound
	}

	// Overrides and configs are replaced wholesale on update.
	for _, table := range []string{"giveaway_donation_configs", "giveaway_role_overrides", "giveaway_donation_overrides"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE giveaway_id = $1", table), g.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := insertChildren(ctx, tx, g); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id string, status models.GiveawayStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE giveaways SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "idx_giveaways_admin_open" {
			return repository.ErrGiveawayAlreadyOpen
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrGiveawayNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	// Children cascade via foreign keys.
	res, err := r.db.ExecContext(ctx, `DELETE FROM giveaways WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrGiveawayNotFound
	}
	return nil
}

func (r *postgresRepository) ListByAdmin(ctx context.Context, adminID int64) ([]*models.Giveaway, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, admin_id, name, status, keyword, platforms, allowed_roles, created_at, updated_at
		FROM giveaways WHERE admin_id = $1 ORDER BY created_at DESC`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Giveaway
	for rows.Next() {
		g, err := r.scanGiveaway(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, g := range out {
		if err := r.loadChildren(ctx, g); err != nil {
			return nil, err
		}
	}
	return out, nil
}
