package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validGiveaway() *Giveaway {
	return &Giveaway{
		ID:           "g1",
		AdminID:      42,
		Name:         "Friday Night Raffle",
		Status:       GiveawayStatusDraft,
		Keyword:      "!raffle",
		Platforms:    []Platform{PlatformTwitch, PlatformKick},
		AllowedRoles: []Role{RoleTwitchTier1, RoleTwitchNonSub, RoleKickSub},
	}
}

func TestNormalizeKeyword(t *testing.T) {
	assert.Equal(t, "!raffle", NormalizeKeyword("  !RAFFLE "))
	assert.Equal(t, "win", NormalizeKeyword("Win"))
	assert.Equal(t, "", NormalizeKeyword("   "))
}

func TestGiveawayValidate(t *testing.T) {
	require.NoError(t, validGiveaway().Validate())

	g := validGiveaway()
	g.Keyword = "  "
	assert.ErrorIs(t, g.Validate(), ErrEmptyKeyword)

	g = validGiveaway()
	g.Platforms = nil
	assert.ErrorIs(t, g.Validate(), ErrNoPlatforms)
}

func TestGiveawayCanTransition(t *testing.T) {
	g := validGiveaway()

	assert.True(t, g.CanTransition(GiveawayStatusOpen))
	assert.False(t, g.CanTransition(GiveawayStatusDone))
	assert.False(t, g.CanTransition(GiveawayStatusDraft))

	g.Status = GiveawayStatusOpen
	assert.True(t, g.CanTransition(GiveawayStatusDone))
	assert.False(t, g.CanTransition(GiveawayStatusDraft))

	g.Status = GiveawayStatusDone
	assert.False(t, g.CanTransition(GiveawayStatusOpen))
	assert.False(t, g.CanTransition(GiveawayStatusDraft))
}

func TestGiveawayRoleAllowed(t *testing.T) {
	g := validGiveaway()

	assert.True(t, g.RoleAllowed(RoleTwitchTier1))
	assert.True(t, g.RoleAllowed(RoleKickSub))
	assert.False(t, g.RoleAllowed(RoleTwitchTier2))
	assert.False(t, g.RoleAllowed(RoleYouTubeMember))
}

func TestGiveawayOverrideLookups(t *testing.T) {
	g := validGiveaway()
	g.RoleOverrides = []RoleOverride{{Role: RoleTwitchTier1, TicketsPerUnit: 5}}
	g.DonationOverrides = []DonationOverride{{
		Platform: PlatformTwitch, UnitType: UnitTwitchBits, UnitSize: 100, TicketsPerUnitSize: 2,
	}}

	tickets, ok := g.RoleOverrideFor(RoleTwitchTier1)
	require.True(t, ok)
	assert.Equal(t, int64(5), tickets)

	_, ok = g.RoleOverrideFor(RoleKickSub)
	assert.False(t, ok)

	o, ok := g.DonationOverrideFor(PlatformTwitch, UnitTwitchBits)
	require.True(t, ok)
	assert.Equal(t, int64(100), o.UnitSize)

	_, ok = g.DonationOverrideFor(PlatformKick, UnitKickKicks)
	assert.False(t, ok)
}

func TestGiveawayDonationConfigsFor(t *testing.T) {
	g := validGiveaway()
	g.DonationConfigs = []DonationConfig{
		{Platform: PlatformTwitch, UnitType: UnitTwitchBits, Window: WindowWeekly},
		{Platform: PlatformKick, UnitType: UnitKickKicks, Window: WindowDaily},
	}

	configs := g.DonationConfigsFor(PlatformTwitch)
	require.Len(t, configs, 1)
	assert.Equal(t, UnitTwitchBits, configs[0].UnitType)

	assert.Empty(t, g.DonationConfigsFor(PlatformYouTube))
}
