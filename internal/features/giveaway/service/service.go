package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "streamraffle-backend/internal/common/errors"
	"streamraffle-backend/internal/common/logger"
	entryrepo "streamraffle-backend/internal/features/entry/repository"
	"streamraffle-backend/internal/features/giveaway/models"
	"streamraffle-backend/internal/features/giveaway/repository"
	"streamraffle-backend/internal/platform/accounts"
)

// GiveawayService owns the giveaway lifecycle: creation, the DRAFT -> OPEN ->
// DONE transitions, and the keyword-index bookkeeping those transitions imply.
type GiveawayService interface {
	Create(ctx context.Context, giveaway *models.Giveaway) (*models.Giveaway, error)
	Get(ctx context.Context, id string, adminID int64) (*models.Giveaway, error)
	List(ctx context.Context, adminID int64) ([]*models.Giveaway, error)
	Update(ctx context.Context, giveaway *models.Giveaway) (*models.Giveaway, error)
	UpdateStatus(ctx context.Context, id string, adminID int64, status models.GiveawayStatus) (*models.Giveaway, error)
	Delete(ctx context.Context, id string, adminID int64) error
}

type giveawayService struct {
	repo     repository.GiveawayRepository
	index    entryrepo.KeywordIndex
	dedup    entryrepo.DedupLedger
	accounts accounts.Store
}

func NewGiveawayService(
	repo repository.GiveawayRepository,
	index entryrepo.KeywordIndex,
	dedup entryrepo.DedupLedger,
	accountStore accounts.Store,
) GiveawayService {
	return &giveawayService{
		repo:     repo,
		index:    index,
		dedup:    dedup,
		accounts: accountStore,
	}
}

func (s *giveawayService) Create(ctx context.Context, giveaway *models.Giveaway) (*models.Giveaway, error) {
	giveaway.Keyword = models.NormalizeKeyword(giveaway.Keyword)
	if err := giveaway.Validate(); err != nil {
		return nil, apperrors.NewValidationError("giveaway", err.Error())
	}

	requestedOpen := giveaway.Status == models.GiveawayStatusOpen
	if requestedOpen {
		// Reject before touching storage so a refused create-as-open
		// leaves nothing behind.
		if err := s.ensureNoOtherOpen(ctx, giveaway.AdminID, ""); err != nil {
			return nil, err
		}
	}
	giveaway.ID = uuid.New().String()
	giveaway.Status = models.GiveawayStatusDraft
	giveaway.CreatedAt = time.Now().UTC()
	giveaway.UpdatedAt = giveaway.CreatedAt

	if err := s.repo.Create(ctx, giveaway); err != nil {
		return nil, apperrors.NewDatabaseError("create giveaway", err)
	}

	if requestedOpen {
		return s.open(ctx, giveaway)
	}
	return giveaway, nil
}

func (s *giveawayService) Get(ctx context.Context, id string, adminID int64) (*models.Giveaway, error) {
	return s.owned(ctx, id, adminID)
}

func (s *giveawayService) List(ctx context.Context, adminID int64) ([]*models.Giveaway, error) {
	giveaways, err := s.repo.ListByAdmin(ctx, adminID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list giveaways", err)
	}
	return giveaways, nil
}

func (s *giveawayService) Update(ctx context.Context, giveaway *models.Giveaway) (*models.Giveaway, error) {
	existing, err := s.owned(ctx, giveaway.ID, giveaway.AdminID)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.GiveawayStatusDraft {
		return nil, apperrors.NewValidationError("status", "only draft giveaways can be edited")
	}

	giveaway.Keyword = models.NormalizeKeyword(giveaway.Keyword)
	if err := giveaway.Validate(); err != nil {
		return nil, apperrors.NewValidationError("giveaway", err.Error())
	}

	giveaway.Status = existing.Status
	giveaway.CreatedAt = existing.CreatedAt
	giveaway.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, giveaway); err != nil {
		return nil, apperrors.NewDatabaseError("update giveaway", err)
	}
	return giveaway, nil
}

func (s *giveawayService) UpdateStatus(ctx context.Context, id string, adminID int64, status models.GiveawayStatus) (*models.Giveaway, error) {
	giveaway, err := s.owned(ctx, id, adminID)
	if err != nil {
		return nil, err
	}
	if !giveaway.CanTransition(status) {
		return nil, apperrors.NewValidationError("status", "invalid transition").
			WithDetail("from", string(giveaway.Status)).
			WithDetail("to", string(status))
	}

	switch status {
	case models.GiveawayStatusOpen:
		return s.open(ctx, giveaway)
	case models.GiveawayStatusDone:
		return s.close(ctx, giveaway)
	}
	return nil, apperrors.NewValidationError("status", "unsupported status")
}

// open publishes the keyword index for every connected channel on the
// giveaway's platforms. An admin may hold at most one open giveaway; a
// request to open a second one is rejected outright.
func (s *giveawayService) open(ctx context.Context, giveaway *models.Giveaway) (*models.Giveaway, error) {
	if err := s.ensureNoOtherOpen(ctx, giveaway.AdminID, giveaway.ID); err != nil {
		return nil, err
	}

	channels, err := s.accounts.Channels(ctx, giveaway.AdminID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load connected channels", err)
	}
	targeted := make(map[models.Platform][]string, len(giveaway.Platforms))
	for _, p := range giveaway.Platforms {
		if ids := channels[p]; len(ids) > 0 {
			targeted[p] = ids
		}
	}
	if len(targeted) == 0 {
		return nil, apperrors.NewValidationError("platforms", "no connected channels on targeted platforms")
	}

	if err := s.repo.UpdateStatus(ctx, giveaway.ID, models.GiveawayStatusOpen); err != nil {
		if err == repository.ErrGiveawayAlreadyOpen {
			// Lost a race with a concurrent open; the partial unique
			// index caught it.
			return nil, s.alreadyOpen(ctx, giveaway.AdminID)
		}
		return nil, apperrors.NewDatabaseError("open giveaway", err)
	}
	giveaway.Status = models.GiveawayStatusOpen

	if err := s.index.Publish(ctx, giveaway, targeted); err != nil {
		// Roll the status back rather than leave an open giveaway
		// nobody can enter.
		if rbErr := s.repo.UpdateStatus(ctx, giveaway.ID, models.GiveawayStatusDraft); rbErr != nil {
			logger.Error().Err(rbErr).Str("giveaway_id", giveaway.ID).Msg("Status rollback failed")
		}
		giveaway.Status = models.GiveawayStatusDraft
		return nil, apperrors.NewCacheError("publish keyword index", err)
	}

	logger.Info().
		Str("giveaway_id", giveaway.ID).
		Str("keyword", giveaway.Keyword).
		Int("platforms", len(targeted)).
		Msg("Giveaway opened")
	return giveaway, nil
}

// ensureNoOtherOpen enforces the one-open-giveaway-per-admin invariant.
// selfID exempts the giveaway being transitioned from its own check.
func (s *giveawayService) ensureNoOtherOpen(ctx context.Context, adminID int64, selfID string) error {
	current, err := s.repo.GetOpenByAdmin(ctx, adminID)
	if err != nil && err != repository.ErrGiveawayNotFound {
		return apperrors.NewDatabaseError("check open giveaway", err)
	}
	if current != nil && current.ID != selfID {
		return apperrors.NewAlreadyOpenError(adminID, current.ID)
	}
	return nil
}

func (s *giveawayService) alreadyOpen(ctx context.Context, adminID int64) error {
	currentID := ""
	if current, err := s.repo.GetOpenByAdmin(ctx, adminID); err == nil && current != nil {
		currentID = current.ID
	}
	return apperrors.NewAlreadyOpenError(adminID, currentID)
}

func (s *giveawayService) close(ctx context.Context, giveaway *models.Giveaway) (*models.Giveaway, error) {
	if err := s.repo.UpdateStatus(ctx, giveaway.ID, models.GiveawayStatusDone); err != nil {
		return nil, apperrors.NewDatabaseError("close giveaway", err)
	}
	giveaway.Status = models.GiveawayStatusDone

	if err := s.index.Remove(ctx, giveaway); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).Msg("Keyword index removal failed")
	}
	if err := s.dedup.Clear(ctx, giveaway.ID); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).Msg("Dedup ledger cleanup failed")
	}

	logger.Info().Str("giveaway_id", giveaway.ID).Msg("Giveaway closed")
	return giveaway, nil
}

func (s *giveawayService) Delete(ctx context.Context, id string, adminID int64) error {
	giveaway, err := s.owned(ctx, id, adminID)
	if err != nil {
		return err
	}

	if err := s.index.Remove(ctx, giveaway); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", id).Msg("Keyword index removal failed")
	}
	if err := s.dedup.Clear(ctx, id); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", id).Msg("Dedup ledger cleanup failed")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.NewDatabaseError("delete giveaway", err)
	}

	logger.Info().Str("giveaway_id", id).Msg("Giveaway deleted")
	return nil
}

func (s *giveawayService) owned(ctx context.Context, id string, adminID int64) (*models.Giveaway, error) {
	giveaway, err := s.repo.GetByID(ctx, id)
	if err == repository.ErrGiveawayNotFound {
		return nil, apperrors.NewGiveawayNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("load giveaway", err)
	}
	if giveaway.AdminID != adminID {
		return nil, apperrors.New(apperrors.ErrCodeForbidden, "giveaway belongs to another admin")
	}
	return giveaway, nil
}
