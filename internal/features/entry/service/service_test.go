package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "streamraffle-backend/internal/common/errors"
	"streamraffle-backend/internal/features/entry/models"
	"streamraffle-backend/internal/features/entry/repository"
	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	giveawayrepo "streamraffle-backend/internal/features/giveaway/repository"
	"streamraffle-backend/internal/features/notify"
)

type fakeIndex struct {
	entry *repository.IndexEntry
}

func (f *fakeIndex) Publish(context.Context, *giveawaymodels.Giveaway, map[giveawaymodels.Platform][]string) error {
	return nil
}
func (f *fakeIndex) Remove(context.Context, *giveawaymodels.Giveaway) error { return nil }
func (f *fakeIndex) Lookup(_ context.Context, platform giveawaymodels.Platform, channelID, text string) (*repository.IndexEntry, error) {
	if f.entry != nil && f.entry.Platform == platform && f.entry.ChannelID == channelID {
		return f.entry, nil
	}
	return nil, nil
}
func (f *fakeIndex) ListGiveawayIDs(context.Context) ([]string, error) { return nil, nil }
func (f *fakeIndex) RemoveByID(context.Context, string) error          { return nil }

type fakeDedup struct {
	granted map[string]bool
}

func newFakeDedup() *fakeDedup { return &fakeDedup{granted: make(map[string]bool)} }

func dedupKey(giveawayID string, platform giveawaymodels.Platform, userID string, method models.EntryMethod) string {
	return giveawayID + ":" + string(platform) + ":" + userID + ":" + string(method)
}

func (f *fakeDedup) HasGranted(_ context.Context, giveawayID string, platform giveawaymodels.Platform, userID string, method models.EntryMethod) (bool, error) {
	return f.granted[dedupKey(giveawayID, platform, userID, method)], nil
}
func (f *fakeDedup) Grant(_ context.Context, giveawayID string, platform giveawaymodels.Platform, userID string, method models.EntryMethod) error {
	f.granted[dedupKey(giveawayID, platform, userID, method)] = true
	return nil
}
func (f *fakeDedup) Clear(context.Context, string) error { return nil }

type fakeEntryRepo struct {
	entries []models.Entry
	dupes   map[string]bool
}

func newFakeEntryRepo() *fakeEntryRepo { return &fakeEntryRepo{dupes: make(map[string]bool)} }

func (f *fakeEntryRepo) Create(_ context.Context, e *models.Entry) error {
	key := dedupKey(e.GiveawayID, e.Platform, e.ExternalUserID, e.Method)
	if f.dupes[key] {
		return repository.ErrDuplicateEntry
	}
	f.dupes[key] = true
	f.entries = append(f.entries, *e)
	return nil
}
func (f *fakeEntryRepo) ListByGiveaway(context.Context, string) ([]models.Entry, error) {
	return f.entries, nil
}
func (f *fakeEntryRepo) CountByGiveaway(context.Context, string) (int64, error) {
	return int64(len(f.entries)), nil
}

type fakeGiveawayRepo struct {
	giveaway *giveawaymodels.Giveaway
}

func (f *fakeGiveawayRepo) Create(context.Context, *giveawaymodels.Giveaway) error { return nil }
func (f *fakeGiveawayRepo) GetByID(_ context.Context, id string) (*giveawaymodels.Giveaway, error) {
	if f.giveaway == nil || f.giveaway.ID != id {
		return nil, giveawayrepo.ErrGiveawayNotFound
	}
	return f.giveaway, nil
}
func (f *fakeGiveawayRepo) Update(context.Context, *giveawaymodels.Giveaway) error { return nil }
func (f *fakeGiveawayRepo) UpdateStatus(context.Context, string, giveawaymodels.GiveawayStatus) error {
	return nil
}
func (f *fakeGiveawayRepo) Delete(context.Context, string) error { return nil }
func (f *fakeGiveawayRepo) GetOpenByAdmin(context.Context, int64) (*giveawaymodels.Giveaway, error) {
	return nil, giveawayrepo.ErrGiveawayNotFound
}
func (f *fakeGiveawayRepo) ListByAdmin(context.Context, int64) ([]*giveawaymodels.Giveaway, error) {
	return nil, nil
}

type fakePlatform struct {
	totals map[string]int64
	err    error
}

func (f *fakePlatform) DonationTotal(_ context.Context, _ int64, platform giveawaymodels.Platform, _, userID, unitType string, _ giveawaymodels.DonationWindow) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.totals[string(platform)+":"+userID+":"+unitType], nil
}
func (f *fakePlatform) AvatarURL(context.Context, int64, giveawaymodels.Platform, string) (string, error) {
	return "https://cdn.example/avatar.png", nil
}

type fakeNotifier struct {
	events []notify.ParticipantAdded
}

func (f *fakeNotifier) ParticipantAdded(_ context.Context, event notify.ParticipantAdded) {
	f.events = append(f.events, event)
}

type accumulatorFixture struct {
	svc      EntryService
	index    *fakeIndex
	dedup    *fakeDedup
	entries  *fakeEntryRepo
	rules    *fakeRuleRepo
	platform *fakePlatform
	notifier *fakeNotifier
}

func newAccumulatorFixture(g *giveawaymodels.Giveaway) *accumulatorFixture {
	f := &accumulatorFixture{
		index:    &fakeIndex{},
		dedup:    newFakeDedup(),
		entries:  newFakeEntryRepo(),
		rules:    newFakeRuleRepo(),
		platform: &fakePlatform{totals: make(map[string]int64)},
		notifier: &fakeNotifier{},
	}
	if g != nil {
		f.index.entry = &repository.IndexEntry{
			GiveawayID:      g.ID,
			AdminID:         g.AdminID,
			Keyword:         g.Keyword,
			Platform:        giveawaymodels.PlatformTwitch,
			ChannelID:       "chan-1",
			AllowedRoles:    g.AllowedRoles,
			DonationConfigs: g.DonationConfigsFor(giveawaymodels.PlatformTwitch),
		}
	}
	f.svc = NewEntryService(f.index, f.dedup, f.entries, &fakeGiveawayRepo{giveaway: g}, NewResolver(f.rules), f.platform, f.notifier)
	return f
}

func twitchEvent(text string) models.InboundEvent {
	return models.InboundEvent{
		Platform:       giveawaymodels.PlatformTwitch,
		ChannelID:      "chan-1",
		Text:           text,
		ExternalUserID: "viewer-1",
		Username:       "alice",
		IsSubscriber:   true,
		SubTier:        1,
	}
}

func TestAccumulate_KeywordMissIsSilent(t *testing.T) {
	f := newAccumulatorFixture(nil)

	created, err := f.svc.Accumulate(context.Background(), twitchEvent("hello chat"))
	require.NoError(t, err)
	assert.Nil(t, created)
	assert.Empty(t, f.entries.entries)
}

func TestAccumulate_GrantsRoleEntry(t *testing.T) {
	g := testGiveaway()
	f := newAccumulatorFixture(g)
	f.rules.roleRules["twitch:TWITCH_TIER_1"] = roleRule(2)

	created, err := f.svc.Accumulate(context.Background(), twitchEvent("!join everyone"))
	require.NoError(t, err)
	require.Len(t, created, 1)

	e := created[0]
	assert.Equal(t, g.ID, e.GiveawayID)
	assert.Equal(t, models.EntryMethod("TWITCH_TIER_1"), e.Method)
	assert.Equal(t, int64(2), e.Tickets)
	assert.Equal(t, giveawaymodels.RoleTwitchTier1, e.Metadata.Role)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, e.ID, f.notifier.events[0].EntryID)
}

func TestAccumulate_SecondMessageIsDeduplicated(t *testing.T) {
	g := testGiveaway()
	f := newAccumulatorFixture(g)
	f.rules.roleRules["twitch:TWITCH_TIER_1"] = roleRule(2)

	_, err := f.svc.Accumulate(context.Background(), twitchEvent("!join"))
	require.NoError(t, err)

	created, err := f.svc.Accumulate(context.Background(), twitchEvent("!join again"))
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Len(t, f.entries.entries, 1)
}

func TestAccumulate_ClosedGiveawayRejects(t *testing.T) {
	g := testGiveaway()
	g.Status = giveawaymodels.GiveawayStatusDone
	f := newAccumulatorFixture(g)

	_, err := f.svc.Accumulate(context.Background(), twitchEvent("!join"))
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
}

func TestAccumulate_NoRuleMeansNoEntry(t *testing.T) {
	g := testGiveaway()
	f := newAccumulatorFixture(g)
	// No role rule configured anywhere: zero tickets, nothing stored.

	created, err := f.svc.Accumulate(context.Background(), twitchEvent("!join"))
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, f.entries.entries)
}

func TestAccumulate_DisallowedRoleSkipsRoleEntry(t *testing.T) {
	g := testGiveaway()
	g.AllowedRoles = []giveawaymodels.Role{giveawaymodels.RoleTwitchTier3}
	f := newAccumulatorFixture(g)
	f.rules.roleRules["twitch:TWITCH_TIER_1"] = roleRule(2)

	created, err := f.svc.Accumulate(context.Background(), twitchEvent("!join"))
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestAccumulate_IndexSnapshotGovernsEligibility(t *testing.T) {
	g := testGiveaway()
	f := newAccumulatorFixture(g)
	f.rules.roleRules["twitch:TWITCH_TIER_1"] = roleRule(2)

	// Eligibility comes from the snapshot published at open time, not
	// from whatever the giveaway row says afterwards.
	g.AllowedRoles = []giveawaymodels.Role{giveawaymodels.RoleTwitchTier3}

	created, err := f.svc.Accumulate(context.Background(), twitchEvent("!join"))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.EntryMethod("TWITCH_TIER_1"), created[0].Method)
}

func TestAccumulate_DonationEntry(t *testing.T) {
	g := testGiveaway()
	g.DonationConfigs = []giveawaymodels.DonationConfig{
		{Platform: giveawaymodels.PlatformTwitch, UnitType: giveawaymodels.UnitTwitchBits, Window: giveawaymodels.WindowWeekly},
	}
	f := newAccumulatorFixture(g)
	f.rules.roleRules["twitch:TWITCH_TIER_1"] = roleRule(1)
	f.rules.donationRules["twitch:bits"] = donationRule(100, 1)
	f.platform.totals["twitch:viewer-1:bits"] = 250

	created, err := f.svc.Accumulate(context.Background(), twitchEvent("!join"))
	require.NoError(t, err)
	require.Len(t, created, 2)

	donation := created[1]
	assert.Equal(t, models.EntryMethod("TWITCH_BITS"), donation.Method)
	assert.Equal(t, int64(2), donation.Tickets)
	assert.Equal(t, int64(250), donation.Metadata.DonationAmount)
	// Donation entries resolve in the neutral non-sub role context.
	assert.Equal(t, giveawaymodels.RoleTwitchNonSub, donation.Metadata.Role)
}

func TestAccumulate_DonationLookupDegradesToZero(t *testing.T) {
	g := testGiveaway()
	g.DonationConfigs = []giveawaymodels.DonationConfig{
		{Platform: giveawaymodels.PlatformTwitch, UnitType: giveawaymodels.UnitTwitchBits, Window: giveawaymodels.WindowWeekly},
	}
	f := newAccumulatorFixture(g)
	f.rules.roleRules["twitch:TWITCH_TIER_1"] = roleRule(1)
	f.rules.donationRules["twitch:bits"] = donationRule(100, 1)
	f.platform.err = errors.New("twitch api 503")

	// The degraded donation lookup never takes the role entry down.
	created, err := f.svc.Accumulate(context.Background(), twitchEvent("!join"))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.EntryMethod("TWITCH_TIER_1"), created[0].Method)
}

func TestAccumulate_DonationOnlyWhenRoleDisallowed(t *testing.T) {
	g := testGiveaway()
	g.AllowedRoles = []giveawaymodels.Role{giveawaymodels.RoleTwitchTier3}
	g.DonationConfigs = []giveawaymodels.DonationConfig{
		{Platform: giveawaymodels.PlatformTwitch, UnitType: giveawaymodels.UnitTwitchBits, Window: giveawaymodels.WindowMonthly},
	}
	f := newAccumulatorFixture(g)
	f.rules.donationRules["twitch:bits"] = donationRule(100, 1)
	f.platform.totals["twitch:viewer-1:bits"] = 150

	created, err := f.svc.Accumulate(context.Background(), twitchEvent("!join"))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.EntryMethod("TWITCH_BITS"), created[0].Method)
	assert.Equal(t, int64(1), created[0].Tickets)
}
