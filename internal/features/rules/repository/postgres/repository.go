package postgres

import (
	"context"
	"database/sql"

	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	"streamraffle-backend/internal/features/rules/models"
	"streamraffle-backend/internal/features/rules/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.RuleRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetRoleRule(ctx context.Context, adminID int64, platform giveawaymodels.Platform, ruleKey string) (*models.RoleRule, error) {
	var rule models.RoleRule
	err := r.db.QueryRowContext(ctx, `
		SELECT admin_id, platform, rule_key, tickets_per_unit, updated_at
		FROM role_rules
		WHERE admin_id = $1 AND platform = $2 AND rule_key = $3`,
		adminID, platform, ruleKey).
		Scan(&rule.AdminID, &rule.Platform, &rule.RuleKey, &rule.TicketsPerUnit, &rule.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *postgresRepository) UpsertRoleRule(ctx context.Context, rule *models.RoleRule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO role_rules (admin_id, platform, rule_key, tickets_per_unit, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (admin_id, platform, rule_key)
		DO UPDATE SET tickets_per_unit = EXCLUDED.tickets_per_unit, updated_at = NOW()`,
		rule.AdminID, rule.Platform, rule.RuleKey, rule.TicketsPerUnit)
	return err
}

func (r *postgresRepository) ListRoleRules(ctx context.Context, adminID int64) ([]models.RoleRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT admin_id, platform, rule_key, tickets_per_unit, updated_at
		FROM role_rules WHERE admin_id = $1 ORDER BY platform, rule_key`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RoleRule
	for rows.Next() {
		var rule models.RoleRule
		if err := rows.Scan(&rule.AdminID, &rule.Platform, &rule.RuleKey, &rule.TicketsPerUnit, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *postgresRepository) GetDonationRule(ctx context.Context, adminID int64, platform giveawaymodels.Platform, unitType string) (*models.DonationRule, error) {
	var rule models.DonationRule
	err := r.db.QueryRowContext(ctx, `
		SELECT admin_id, platform, unit_type, unit_size, tickets_per_unit_size, updated_at
		FROM donation_rules
		WHERE admin_id = $1 AND platform = $2 AND unit_type = $3`,
		adminID, platform, unitType).
		Scan(&rule.AdminID, &rule.Platform, &rule.UnitType, &rule.UnitSize, &rule.TicketsPerUnitSize, &rule.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *postgresRepository) UpsertDonationRule(ctx context.Context, rule *models.DonationRule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO donation_rules (admin_id, platform, unit_type, unit_size, tickets_per_unit_size, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (admin_id, platform, unit_type)
		DO UPDATE SET unit_size = EXCLUDED.unit_size, tickets_per_unit_size = EXCLUDED.tickets_per_unit_size, updated_at = NOW()`,
		rule.AdminID, rule.Platform, rule.UnitType, rule.UnitSize, rule.TicketsPerUnitSize)
	return err
}

func (r *postgresRepository) ListDonationRules(ctx context.Context, adminID int64) ([]models.DonationRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT admin_id, platform, unit_type, unit_size, tickets_per_unit_size, updated_at
		FROM donation_rules WHERE admin_id = $1 ORDER BY platform, unit_type`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DonationRule
	for rows.Next() {
		var rule models.DonationRule
		if err := rows.Scan(&rule.AdminID, &rule.Platform, &rule.UnitType, &rule.UnitSize, &rule.TicketsPerUnitSize, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}
