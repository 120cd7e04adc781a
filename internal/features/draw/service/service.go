package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "streamraffle-backend/internal/common/errors"
	"streamraffle-backend/internal/common/logger"
	"streamraffle-backend/internal/features/draw/models"
	"streamraffle-backend/internal/features/draw/repository"
	drawredis "streamraffle-backend/internal/features/draw/repository/redis"
	entryrepo "streamraffle-backend/internal/features/entry/repository"
	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	giveawayrepo "streamraffle-backend/internal/features/giveaway/repository"
)

// RandomSource generates signed verifiable random integers. The production
// implementation is the Random.org Signed API client; tests inject a
// deterministic fake.
type RandomSource interface {
	Configured() bool
	GenerateSignedInt(ctx context.Context, max int64, tag string) (*models.SignedRandom, error)
	VerifySignature(ctx context.Context, payload json.RawMessage, signature string) (bool, error)
	VerificationURL(payload json.RawMessage, signature string) string
}

// DrawService runs verifiable draws and repicks, and serves the audit trail.
type DrawService interface {
	Draw(ctx context.Context, giveawayID string, adminID int64) (*models.DrawRecord, error)
	Repick(ctx context.Context, giveawayID string, adminID int64) (*models.DrawRecord, error)
	ListDraws(ctx context.Context, giveawayID string, adminID int64) ([]models.DrawRecord, error)
	CurrentWinner(ctx context.Context, giveawayID string, adminID int64) (*models.DrawRecord, error)
}

type drawService struct {
	repo      repository.DrawRepository
	giveaways giveawayrepo.GiveawayRepository
	index     entryrepo.KeywordIndex
	dedup     entryrepo.DedupLedger
	source    RandomSource
	locker    drawredis.DrawLocker
	hashAlgo  string
}

func NewDrawService(
	repo repository.DrawRepository,
	giveaways giveawayrepo.GiveawayRepository,
	index entryrepo.KeywordIndex,
	dedup entryrepo.DedupLedger,
	source RandomSource,
	locker drawredis.DrawLocker,
	hashAlgorithm string,
) DrawService {
	return &drawService{
		repo:      repo,
		giveaways: giveaways,
		index:     index,
		dedup:     dedup,
		source:    source,
		locker:    locker,
		hashAlgo:  hashAlgorithm,
	}
}

func (s *drawService) Draw(ctx context.Context, giveawayID string, adminID int64) (*models.DrawRecord, error) {
	giveaway, err := s.owned(ctx, giveawayID, adminID)
	if err != nil {
		return nil, err
	}
	if giveaway.Status != giveawaymodels.GiveawayStatusOpen {
		return nil, apperrors.NewValidationError("status", "draws require an open giveaway")
	}
	return s.run(ctx, giveaway, false)
}

// Repick invalidates the current winner and redraws from the remaining
// population. It only applies after the first draw has closed the giveaway.
func (s *drawService) Repick(ctx context.Context, giveawayID string, adminID int64) (*models.DrawRecord, error) {
	giveaway, err := s.owned(ctx, giveawayID, adminID)
	if err != nil {
		return nil, err
	}
	if giveaway.Status != giveawaymodels.GiveawayStatusDone {
		return nil, apperrors.NewValidationError("status", "repick requires a completed giveaway")
	}
	return s.run(ctx, giveaway, true)
}

func (s *drawService) run(ctx context.Context, giveaway *giveawaymodels.Giveaway, repick bool) (*models.DrawRecord, error) {
	if !s.source.Configured() {
		return nil, apperrors.NewConfigurationError("verifiable randomness provider API key")
	}

	acquired, err := s.locker.TryLock(ctx, giveaway.ID)
	if err != nil {
		return nil, apperrors.NewCacheError("acquire draw lock", err)
	}
	if !acquired {
		return nil, apperrors.New(apperrors.ErrCodeDrawInProgress, "a draw is already in progress for this giveaway").
			WithDetail("giveaway_id", giveaway.ID)
	}
	defer s.locker.Unlock(ctx, giveaway.ID)

	var record *models.DrawRecord
	err = s.repo.WithGiveawayLock(ctx, giveaway.ID, func(tx *sql.Tx) error {
		if repick {
			if err := s.repo.MarkCurrentWinnerRepicked(ctx, tx, giveaway.ID); err != nil {
				if err == repository.ErrNoCurrentWinner {
					return apperrors.New(apperrors.ErrCodeDrawNotFound, "no winner to repick").
						WithDetail("giveaway_id", giveaway.ID)
				}
				return apperrors.NewDatabaseError("invalidate current winner", err)
			}
		}

		entries, err := s.repo.ListEligibleEntries(ctx, tx, giveaway.ID)
		if err != nil {
			return apperrors.NewDatabaseError("load eligible entries", err)
		}
		if len(entries) < 2 {
			return apperrors.New(apperrors.ErrCodeNotEnoughEntries, "a draw needs at least two eligible entries").
				WithDetail("giveaway_id", giveaway.ID).
				WithDetail("entries", len(entries))
		}

		ranges, total := models.BuildRanges(entries)
		if total < 1 || len(ranges) < 2 {
			return apperrors.New(apperrors.ErrCodeNotEnoughEntries, "a draw needs at least two entries holding tickets").
				WithDetail("giveaway_id", giveaway.ID)
		}

		auditHash, err := models.AuditHash(ranges, s.hashAlgo)
		if err != nil {
			return apperrors.NewConfigurationError("audit hash algorithm")
		}

		tag := giveaway.Name
		if repick {
			n, err := s.repo.CountRepicks(ctx, tx, giveaway.ID)
			if err != nil {
				return apperrors.NewDatabaseError("count repicks", err)
			}
			tag = fmt.Sprintf("%s#repick-%d", giveaway.Name, n)
		}

		random, err := s.source.GenerateSignedInt(ctx, total, tag)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeExternalAPI, "verifiable randomness request failed")
		}

		verified, err := s.source.VerifySignature(ctx, random.Payload, random.Signature)
		if err != nil || !verified {
			// Verification failure never discards a draw the provider
			// already committed to; the record carries the flag.
			verified = false
			logger.Warn().
				Err(err).
				Str("giveaway_id", giveaway.ID).
				Str("code", string(apperrors.ErrCodeAuditWarning)).
				Msg("Signature verification failed, recording unverified draw")
		}

		winner, err := models.FindRange(ranges, random.Value)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "drawn index resolution failed")
		}

		record = &models.DrawRecord{
			ID:              uuid.New().String(),
			GiveawayID:      giveaway.ID,
			WinnerEntryID:   winner.EntryID,
			Status:          models.DrawStatusWinner,
			Ranges:          ranges,
			TotalTickets:    total,
			AuditHash:       auditHash,
			HashAlgorithm:   s.hashAlgo,
			RandomPayload:   random.Payload,
			Signature:       random.Signature,
			VerificationURL: s.source.VerificationURL(random.Payload, random.Signature),
			DrawnIndex:      random.Value,
			Verified:        verified,
			CreatedAt:       time.Now().UTC(),
		}
		if err := s.repo.CreateDrawRecord(ctx, tx, record); err != nil {
			return apperrors.NewDatabaseError("persist draw record", err)
		}

		if !repick {
			if err := s.repo.UpdateGiveawayStatus(ctx, tx, giveaway.ID, giveawaymodels.GiveawayStatusDone); err != nil {
				return apperrors.NewDatabaseError("close giveaway after draw", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The giveaway is DONE now; stop matching chat against its keyword
	// and drop the grant ledger, which only guards open giveaways.
	if !repick {
		if err := s.index.Remove(ctx, giveaway); err != nil {
			logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).Msg("Keyword index removal failed")
		}
		if err := s.dedup.Clear(ctx, giveaway.ID); err != nil {
			logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).Msg("Dedup ledger cleanup failed")
		}
	}

	logger.Info().
		Str("giveaway_id", giveaway.ID).
		Str("draw_id", record.ID).
		Str("winner_entry_id", record.WinnerEntryID).
		Int64("drawn_index", record.DrawnIndex).
		Bool("verified", record.Verified).
		Bool("repick", repick).
		Msg("Draw completed")

	return record, nil
}

func (s *drawService) ListDraws(ctx context.Context, giveawayID string, adminID int64) ([]models.DrawRecord, error) {
	if _, err := s.owned(ctx, giveawayID, adminID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByGiveaway(ctx, giveawayID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list draw records", err)
	}
	return records, nil
}

func (s *drawService) CurrentWinner(ctx context.Context, giveawayID string, adminID int64) (*models.DrawRecord, error) {
	if _, err := s.owned(ctx, giveawayID, adminID); err != nil {
		return nil, err
	}
	record, err := s.repo.GetCurrentWinner(ctx, giveawayID)
	if err == repository.ErrNoCurrentWinner || err == repository.ErrDrawNotFound {
		return nil, apperrors.New(apperrors.ErrCodeDrawNotFound, "giveaway has no current winner").
			WithDetail("giveaway_id", giveawayID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("load current winner", err)
	}
	return record, nil
}

func (s *drawService) owned(ctx context.Context, id string, adminID int64) (*giveawaymodels.Giveaway, error) {
	giveaway, err := s.giveaways.GetByID(ctx, id)
	if err == giveawayrepo.ErrGiveawayNotFound {
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
