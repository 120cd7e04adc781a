package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "streamraffle-backend/internal/common/errors"
	"streamraffle-backend/internal/common/logger"
	"streamraffle-backend/internal/features/entry/models"
	"streamraffle-backend/internal/features/entry/repository"
	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	giveawayrepo "streamraffle-backend/internal/features/giveaway/repository"
	"streamraffle-backend/internal/features/notify"
)

// EntryService accumulates ticket-bearing entries from inbound chat events.
type EntryService interface {
	// Accumulate matches the event against the keyword index and grants
	// at most one role entry plus one entry per enabled donation config.
	// A nil result with nil error means the event was not relevant.
	Accumulate(ctx context.Context, event models.InboundEvent) ([]models.Entry, error)
	ListEntries(ctx context.Context, giveawayID string, adminID int64) ([]models.Entry, error)
}

type entryService struct {
	index     repository.KeywordIndex
	dedup     repository.DedupLedger
	entries   repository.EntryRepository
	giveaways giveawayrepo.GiveawayRepository
	resolver  *Resolver
	platform  PlatformClient
	notifier  notify.Notifier
}

func NewEntryService(
	index repository.KeywordIndex,
	dedup repository.DedupLedger,
	entries repository.EntryRepository,
	giveaways giveawayrepo.GiveawayRepository,
	resolver *Resolver,
	platform PlatformClient,
	notifier notify.Notifier,
) EntryService {
	return &entryService{
		index:     index,
		dedup:     dedup,
		entries:   entries,
		giveaways: giveaways,
		resolver:  resolver,
		platform:  platform,
		notifier:  notifier,
	}
}

func (s *entryService) Accumulate(ctx context.Context, event models.InboundEvent) ([]models.Entry, error) {
	idx, err := s.index.Lookup(ctx, event.Platform, event.ChannelID, event.Text)
	if err != nil {
		return nil, apperrors.NewCacheError("keyword index lookup", err)
	}
	if idx == nil {
		// Not every chat message is relevant.
		return nil, nil
	}

	giveaway, err := s.giveaways.GetByID(ctx, idx.GiveawayID)
	if err == giveawayrepo.ErrGiveawayNotFound {
		// Stale index entry; the cleanup worker will sweep it.
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("load giveaway", err)
	}
	if !giveaway.IsOpen() {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "giveaway is not open").
			WithDetail("giveaway_id", giveaway.ID)
	}

	var created []models.Entry

	// Eligibility and donation configs come from the index snapshot taken
	// when the giveaway opened; the giveaway row is only consulted for
	// liveness and the resolver's override chain.
	role := event.Role()
	if giveawaymodels.RoleAllowedIn(idx.AllowedRoles, role) {
		entry, err := s.grantRoleEntry(ctx, giveaway, &event, role)
		if err != nil {
			return created, err
		}
		if entry != nil {
			created = append(created, *entry)
		}
	}

	// Donation configs are evaluated even when the role is not allowed:
	// a disallowed-role viewer can still redeem a donation-only entry.
	for _, cfg := range idx.DonationConfigs {
		entry := s.grantDonationEntry(ctx, giveaway, &event, cfg)
		if entry != nil {
			created = append(created, *entry)
		}
	}

	return created, nil
}

func (s *entryService) grantRoleEntry(ctx context.Context, g *giveawaymodels.Giveaway, event *models.InboundEvent, role giveawaymodels.Role) (*models.Entry, error) {
	method := models.RoleMethod(role)

	granted, err := s.dedup.HasGranted(ctx, g.ID, event.Platform, event.ExternalUserID, method)
	if err != nil {
		return nil, apperrors.NewCacheError("dedup check", err)
	}
	if granted {
		return nil, nil
	}

	tickets, err := s.resolver.ResolveRoleTickets(ctx, g, role)
	if err != nil {
		return nil, apperrors.NewDatabaseError("resolve role tickets", err)
	}
	if tickets <= 0 {
		// No rule resolves for this role; nothing is stored.
		return nil, nil
	}

	entry := s.newEntry(ctx, g, event, method, tickets, models.Metadata{
		Role:        role,
		BaseTickets: tickets,
	})
	return s.persist(ctx, g, entry)
}

func (s *entryService) grantDonationEntry(ctx context.Context, g *giveawaymodels.Giveaway, event *models.InboundEvent, cfg giveawaymodels.DonationConfig) *models.Entry {
	method := models.DonationMethod(cfg.Platform, cfg.UnitType)

	granted, err := s.dedup.HasGranted(ctx, g.ID, event.Platform, event.ExternalUserID, method)
	if err != nil || granted {
		if err != nil {
			logger.Warn().Err(err).Str("giveaway_id", g.ID).Msg("Donation dedup check failed")
		}
		return nil
	}

	total, err := s.platform.DonationTotal(ctx, g.AdminID, cfg.Platform, event.ChannelID, event.ExternalUserID, cfg.UnitType, cfg.Window)
	if err != nil {
		// Upstream degradation: zero tickets for this donation type,
		// never abort a role entry that may already have succeeded.
		degraded := apperrors.NewUpstreamDegradedError(string(cfg.Platform), "donation total lookup", err)
		logger.Warn().
			Err(degraded).
			Str("giveaway_id", g.ID).
			Str("unit_type", cfg.UnitType).
			Msg("Donation lookup degraded to zero tickets")
		return nil
	}

	tickets, err := s.resolver.ResolveDonationTickets(ctx, g, cfg.Platform, cfg.UnitType, total)
	if err != nil {
		logger.Warn().Err(err).Str("giveaway_id", g.ID).Msg("Donation rule resolution failed")
		return nil
	}
	if tickets <= 0 {
		return nil
	}

	// Donation entries always carry the neutral non-subscriber role so
	// base role tickets are never folded into the donation count.
	entry := s.newEntry(ctx, g, event, method, tickets, models.Metadata{
		Role:           giveawaymodels.NonSubRole(cfg.Platform),
		DonationAmount: total,
		UnitType:       cfg.UnitType,
		BonusTickets:   tickets,
	})

	persisted, err := s.persist(ctx, g, entry)
	if err != nil {
		logger.Warn().Err(err).Str("giveaway_id", g.ID).Msg("Donation entry persistence failed")
		return nil
	}
	return persisted
}

func (s *entryService) newEntry(ctx context.Context, g *giveawaymodels.Giveaway, event *models.InboundEvent, method models.EntryMethod, tickets int64, metadata models.Metadata) *models.Entry {
	avatar, err := s.platform.AvatarURL(ctx, g.AdminID, event.Platform, event.ExternalUserID)
	if err != nil {
		avatar = "" // enrichment only
	}
	return &models.Entry{
		ID:             uuid.New().String(),
		GiveawayID:     g.ID,
		Platform:       event.Platform,
		ExternalUserID: event.ExternalUserID,
		Username:       event.Username,
		AvatarURL:      avatar,
		Method:         method,
		Tickets:        tickets,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC(),
	}
}

// persist stores the entry, then marks the dedup ledger, then notifies.
// Grant comes after the insert so a crash between the two can only cause a
// rare double-credit attempt, which the uniqueness constraint absorbs.
func (s *entryService) persist(ctx context.Context, g *giveawaymodels.Giveaway, entry *models.Entry) (*models.Entry, error) {
	if err := s.entries.Create(ctx, entry); err != nil {
		if err == repository.ErrDuplicateEntry {
			// Lost a race with a concurrent delivery; re-assert the
			// ledger and treat as already granted.
			_ = s.dedup.Grant(ctx, g.ID, entry.Platform, entry.ExternalUserID, entry.Method)
			return nil, nil
		}
		return nil, apperrors.NewDatabaseError("insert entry", err)
	}

	if err := s.dedup.Grant(ctx, g.ID, entry.Platform, entry.ExternalUserID, entry.Method); err != nil {
		logger.Warn().Err(err).Str("entry_id", entry.ID).Msg("Dedup grant failed after insert")
	}

	s.notifier.ParticipantAdded(ctx, notify.ParticipantAdded{
		GiveawayID:     entry.GiveawayID,
		EntryID:        entry.ID,
		Platform:       entry.Platform,
		ExternalUserID: entry.ExternalUserID,
		Username:       entry.Username,
		Method:         string(entry.Method),
		Tickets:        entry.Tickets,
		AvatarURL:      entry.AvatarURL,
	})

	logger.Debug().
		Str("giveaway_id", entry.GiveawayID).
		Str("method", string(entry.Method)).
		Int64("tickets", entry.Tickets).
		Msg("Entry granted")

	return entry, nil
}

func (s *entryService) ListEntries(ctx context.Context, giveawayID string, adminID int64) ([]models.Entry, error) {
	g, err := s.giveaways.GetByID(ctx, giveawayID)
	if err == giveawayrepo.ErrGiveawayNotFound {
		return nil, apperrors.NewGiveawayNotFoundError(giveawayID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("load giveaway", err)
	}
	if g.AdminID != adminID {
		return nil, apperrors.New(apperrors.ErrCodeForbidden, "giveaway belongs to another admin")
	}
	return s.entries.ListByGiveaway(ctx, giveawayID)
}
