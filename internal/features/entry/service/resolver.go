package service

import (
	"context"

	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	rulesrepo "streamraffle-backend/internal/features/rules/repository"
)

// Resolver turns a role or a donation total into a ticket count under the
// two-level override chain: giveaway-scoped override first, then the
// admin's global default, then zero.
type Resolver struct {
	rules rulesrepo.RuleRepository
}

func NewResolver(rules rulesrepo.RuleRepository) *Resolver {
	return &Resolver{rules: rules}
}

// ResolveRoleTickets resolves tickets-per-unit for a role. The giveaway
// override is keyed by the original platform-qualified role; the global
// default is keyed by the normalized rule key, so every platform's
// non-subscriber variant shares one global NON_SUB rule.
func (r *Resolver) ResolveRoleTickets(ctx context.Context, g *giveawaymodels.Giveaway, role giveawaymodels.Role) (int64, error) {
	if tickets, ok := g.RoleOverrideFor(role); ok {
		return tickets, nil
	}

	rule, err := r.rules.GetRoleRule(ctx, g.AdminID, role.Platform(), role.RuleKey())
	if err == rulesrepo.ErrRuleNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rule.TicketsPerUnit, nil
}

// ResolveDonationTickets converts a cumulative donation total into tickets.
// Integer truncation is intentional: partial units earn nothing.
func (r *Resolver) ResolveDonationTickets(ctx context.Context, g *giveawaymodels.Giveaway, platform giveawaymodels.Platform, unitType string, totalAmount int64) (int64, error) {
	if o, ok := g.DonationOverrideFor(platform, unitType); ok {
		return convertDonation(totalAmount, o.UnitSize, o.TicketsPerUnitSize), nil
	}

	rule, err := r.rules.GetDonationRule(ctx, g.AdminID, platform, unitType)
	if err == rulesrepo.ErrRuleNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return convertDonation(totalAmount, rule.UnitSize, rule.TicketsPerUnitSize), nil
}

func convertDonation(total, unitSize, ticketsPerUnitSize int64) int64 {
	if unitSize <= 0 || total <= 0 {
		return 0
	}
	return (total / unitSize) * ticketsPerUnitSize
}
