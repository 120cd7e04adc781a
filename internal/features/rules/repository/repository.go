package repository

import (
	"context"
	"errors"

	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	"streamraffle-backend/internal/features/rules/models"
)

var ErrRuleNotFound = errors.New("rule not found")

// RuleRepository stores an admin's global ticket-rule defaults. Role rules
// are keyed by the normalized rule key (NON_SUB for all non-sub variants).
type RuleRepository interface {
	GetRoleRule(ctx context.Context, adminID int64, platform giveawaymodels.Platform, ruleKey string) (*models.RoleRule, error)
	UpsertRoleRule(ctx context.Context, rule *models.RoleRule) error
	ListRoleRules(ctx context.Context, adminID int64) ([]models.RoleRule, error)

	GetDonationRule(ctx context.Context, adminID int64, platform giveawaymodels.Platform, unitType string) (*models.DonationRule, error)
	UpsertDonationRule(ctx context.Context, rule *models.DonationRule) error
	ListDonationRules(ctx context.Context, adminID int64) ([]models.DonationRule, error)
}
