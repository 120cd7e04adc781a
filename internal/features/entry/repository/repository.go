package repository

import (
	"context"
	"errors"

	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	"streamraffle-backend/internal/features/entry/models"
)

var (
	ErrEntryNotFound  = errors.New("entry not found")
	ErrDuplicateEntry = errors.New("entry already exists for this method")
)

// EntryRepository is the durable store for ticket grants. The database
// uniqueness constraint on (giveaway, platform, external user, method) is
// the second line of defense behind the dedup ledger.
type EntryRepository interface {
	// Create persists an entry; ErrDuplicateEntry when the uniqueness
	// key is already taken.
	Create(ctx context.Context, entry *models.Entry) error
	ListByGiveaway(ctx context.Context, giveawayID string) ([]models.Entry, error)
	CountByGiveaway(ctx context.Context, giveawayID string) (int64, error)
}

// IndexEntry is the denormalized keyword-index value, a snapshot of the
// giveaway's eligibility rules taken when it opened. The accumulator gates
// role and donation grants on this snapshot; the giveaway row is only
// consulted for liveness and ticket-rule overrides.
type IndexEntry struct {
	GiveawayID      string                          `json:"giveaway_id"`
	AdminID         int64                           `json:"admin_id"`
	Keyword         string                          `json:"keyword"`
	Platform        giveawaymodels.Platform         `json:"platform"`
	ChannelID       string                          `json:"channel_id"`
	AllowedRoles    []giveawaymodels.Role           `json:"allowed_roles"`
	DonationConfigs []giveawaymodels.DonationConfig `json:"donation_configs,omitempty"`
}

// KeywordIndex maps (platform, channel) to the active giveaway descriptor.
type KeywordIndex interface {
	Publish(ctx context.Context, giveaway *giveawaymodels.Giveaway, channels map[giveawaymodels.Platform][]string) error
	Remove(ctx context.Context, giveaway *giveawaymodels.Giveaway) error
	// Lookup returns the first index entry whose keyword is a substring
	// of the normalized message text, or nil when nothing matches. A
	// miss is not an error.
	Lookup(ctx context.Context, platform giveawaymodels.Platform, channelID, messageText string) (*IndexEntry, error)

	// ListGiveawayIDs enumerates every giveaway currently indexed,
	// across all platforms and channels. Used by the sweep job.
	ListGiveawayIDs(ctx context.Context) ([]string, error)
	// RemoveByID drops all index keys for a giveaway when the giveaway
	// row is already gone and its platforms are unknown.
	RemoveByID(ctx context.Context, giveawayID string) error
}

// DedupLedger tracks which entry methods were already granted to a viewer
// within a giveaway. Expiration is storage hygiene only; the entries table
// stays the source of truth.
type DedupLedger interface {
	HasGranted(ctx context.Context, giveawayID string, platform giveawaymodels.Platform, externalUserID string, method models.EntryMethod) (bool, error)
	Grant(ctx context.Context, giveawayID string, platform giveawaymodels.Platform, externalUserID string, method models.EntryMethod) error
	// Clear removes the ledger for a giveaway (index teardown cleanup).
	Clear(ctx context.Context, giveawayID string) error
}
