package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	rulesmodels "streamraffle-backend/internal/features/rules/models"
	rulesrepo "streamraffle-backend/internal/features/rules/repository"
)

type fakeRuleRepo struct {
	roleRules     map[string]*rulesmodels.RoleRule
	donationRules map[string]*rulesmodels.DonationRule
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{
		roleRules:     make(map[string]*rulesmodels.RoleRule),
		donationRules: make(map[string]*rulesmodels.DonationRule),
	}
}

func (f *fakeRuleRepo) GetRoleRule(_ context.Context, _ int64, platform giveawaymodels.Platform, ruleKey string) (*rulesmodels.RoleRule, error) {
	if r, ok := f.roleRules[string(platform)+":"+ruleKey]; ok {
		return r, nil
	}
	return nil, rulesrepo.ErrRuleNotFound
}

func (f *fakeRuleRepo) UpsertRoleRule(_ context.Context, r *rulesmodels.RoleRule) error {
	f.roleRules[string(r.Platform)+":"+r.RuleKey] = r
	return nil
}

func (f *fakeRuleRepo) ListRoleRules(_ context.Context, _ int64) ([]rulesmodels.RoleRule, error) {
	return nil, nil
}

func (f *fakeRuleRepo) GetDonationRule(_ context.Context, _ int64, platform giveawaymodels.Platform, unitType string) (*rulesmodels.DonationRule, error) {
	if r, ok := f.donationRules[string(platform)+":"+unitType]; ok {
		return r, nil
	}
	return nil, rulesrepo.ErrRuleNotFound
}

func (f *fakeRuleRepo) UpsertDonationRule(_ context.Context, r *rulesmodels.DonationRule) error {
	f.donationRules[string(r.Platform)+":"+r.UnitType] = r
	return nil
}

func (f *fakeRuleRepo) ListDonationRules(_ context.Context, _ int64) ([]rulesmodels.DonationRule, error) {
	return nil, nil
}

func roleRule(tickets int64) *rulesmodels.RoleRule {
	return &rulesmodels.RoleRule{TicketsPerUnit: tickets}
}

func donationRule(unitSize, ticketsPerUnitSize int64) *rulesmodels.DonationRule {
	return &rulesmodels.DonationRule{UnitSize: unitSize, TicketsPerUnitSize: ticketsPerUnitSize}
}

func testGiveaway() *giveawaymodels.Giveaway {
	return &giveawaymodels.Giveaway{
		ID:           "g1",
		AdminID:      7,
		Status:       giveawaymodels.GiveawayStatusOpen,
		Keyword:      "!join",
		Platforms:    []giveawaymodels.Platform{giveawaymodels.PlatformTwitch},
		AllowedRoles: []giveawaymodels.Role{giveawaymodels.RoleTwitchTier1, giveawaymodels.RoleTwitchNonSub},
	}
}

func TestResolveRoleTickets_OverrideBeatsGlobal(t *testing.T) {
	repo := newFakeRuleRepo()
	repo.roleRules["twitch:TWITCH_TIER_1"] = &rulesmodels.RoleRule{TicketsPerUnit: 1}

	g := testGiveaway()
	g.RoleOverrides = []giveawaymodels.RoleOverride{
		{Role: giveawaymodels.RoleTwitchTier1, TicketsPerUnit: 5},
	}

	tickets, err := NewResolver(repo).ResolveRoleTickets(context.Background(), g, giveawaymodels.RoleTwitchTier1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), tickets)
}

func TestResolveRoleTickets_GlobalFallback(t *testing.T) {
	repo := newFakeRuleRepo()
	repo.roleRules["twitch:TWITCH_TIER_1"] = &rulesmodels.RoleRule{TicketsPerUnit: 2}

	tickets, err := NewResolver(repo).ResolveRoleTickets(context.Background(), testGiveaway(), giveawaymodels.RoleTwitchTier1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tickets)
}

func TestResolveRoleTickets_NonSubSharesGlobalKey(t *testing.T) {
	repo := newFakeRuleRepo()
	repo.roleRules["twitch:NON_SUB"] = &rulesmodels.RoleRule{TicketsPerUnit: 1}
	repo.roleRules["kick:NON_SUB"] = &rulesmodels.RoleRule{TicketsPerUnit: 3}

	resolver := NewResolver(repo)

	tickets, err := resolver.ResolveRoleTickets(context.Background(), testGiveaway(), giveawaymodels.RoleTwitchNonSub)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tickets)

	g := testGiveaway()
	g.Platforms = []giveawaymodels.Platform{giveawaymodels.PlatformKick}
	tickets, err = resolver.ResolveRoleTickets(context.Background(), g, giveawaymodels.RoleKickNonSub)
	require.NoError(t, err)
	assert.Equal(t, int64(3), tickets)
}

func TestResolveRoleTickets_NoRuleMeansZero(t *testing.T) {
	tickets, err := NewResolver(newFakeRuleRepo()).ResolveRoleTickets(context.Background(), testGiveaway(), giveawaymodels.RoleKickSub)
	require.NoError(t, err)
	assert.Zero(t, tickets)
}

func TestResolveDonationTickets_FloorDivision(t *testing.T) {
	repo := newFakeRuleRepo()
	repo.donationRules["twitch:bits"] = &rulesmodels.DonationRule{UnitSize: 100, TicketsPerUnitSize: 1}

	resolver := NewResolver(repo)

	// 250 bits at 1 ticket per 100: partial units earn nothing.
	tickets, err := resolver.ResolveDonationTickets(context.Background(), testGiveaway(), giveawaymodels.PlatformTwitch, giveawaymodels.UnitTwitchBits, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tickets)

	tickets, err = resolver.ResolveDonationTickets(context.Background(), testGiveaway(), giveawaymodels.PlatformTwitch, giveawaymodels.UnitTwitchBits, 99)
	require.NoError(t, err)
	assert.Zero(t, tickets)
}

func TestResolveDonationTickets_OverrideBeatsGlobal(t *testing.T) {
	repo := newFakeRuleRepo()
	repo.donationRules["twitch:bits"] = &rulesmodels.DonationRule{UnitSize: 100, TicketsPerUnitSize: 1}

	g := testGiveaway()
	g.DonationOverrides = []giveawaymodels.DonationOverride{
		{Platform: giveawaymodels.PlatformTwitch, UnitType: giveawaymodels.UnitTwitchBits, UnitSize: 50, TicketsPerUnitSize: 2},
	}

	tickets, err := NewResolver(repo).ResolveDonationTickets(context.Background(), g, giveawaymodels.PlatformTwitch, giveawaymodels.UnitTwitchBits, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(10), tickets)
}

func TestResolveDonationTickets_NoRuleMeansZero(t *testing.T) {
	tickets, err := NewResolver(newFakeRuleRepo()).ResolveDonationTickets(context.Background(), testGiveaway(), giveawaymodels.PlatformKick, giveawaymodels.UnitKickKicks, 1000)
	require.NoError(t, err)
	assert.Zero(t, tickets)
}

func TestConvertDonationGuards(t *testing.T) {
	assert.Zero(t, convertDonation(100, 0, 1))
	assert.Zero(t, convertDonation(0, 100, 1))
	assert.Zero(t, convertDonation(-5, 100, 1))
}
