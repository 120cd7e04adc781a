package service

import (
	"context"
	"time"

	apperrors "streamraffle-backend/internal/common/errors"
	"streamraffle-backend/internal/features/rules/models"
	"streamraffle-backend/internal/features/rules/repository"
)

// RuleService manages an admin's global ticket-rule defaults. Per-giveaway
// overrides live on the giveaway itself and shadow these at resolution time.
type RuleService interface {
	SetRoleRule(ctx context.Context, rule *models.RoleRule) error
	ListRoleRules(ctx context.Context, adminID int64) ([]models.RoleRule, error)
	SetDonationRule(ctx context.Context, rule *models.DonationRule) error
	ListDonationRules(ctx context.Context, adminID int64) ([]models.DonationRule, error)
}

type ruleService struct {
	repo repository.RuleRepository
}

func NewRuleService(repo repository.RuleRepository) RuleService {
	return &ruleService{repo: repo}
}

func (s *ruleService) SetRoleRule(ctx context.Context, rule *models.RoleRule) error {
	if err := rule.Validate(); err != nil {
		return apperrors.NewValidationError("role_rule", err.Error())
	}
	rule.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpsertRoleRule(ctx, rule); err != nil {
		return apperrors.NewDatabaseError("upsert role rule", err)
	}
	return nil
}

func (s *ruleService) ListRoleRules(ctx context.Context, adminID int64) ([]models.RoleRule, error) {
	rules, err := s.repo.ListRoleRules(ctx, adminID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list role rules", err)
	}
	return rules, nil
}

func (s *ruleService) SetDonationRule(ctx context.Context, rule *models.DonationRule) error {
	if err := rule.Validate(); err != nil {
		return apperrors.NewValidationError("donation_rule", err.Error())
	}
	rule.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpsertDonationRule(ctx, rule); err != nil {
		return apperrors.NewDatabaseError("upsert donation rule", err)
	}
	return nil
}

func (s *ruleService) ListDonationRules(ctx context.Context, adminID int64) ([]models.DonationRule, error) {
	rules, err := s.repo.ListDonationRules(ctx, adminID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list donation rules", err)
	}
	return rules, nil
}
