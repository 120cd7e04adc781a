package workers

import (
	"context"

	"github.com/robfig/cron/v3"

	"streamraffle-backend/internal/common/logger"
	entryrepo "streamraffle-backend/internal/features/entry/repository"
	giveawayrepo "streamraffle-backend/internal/features/giveaway/repository"
)

// MaintenanceWorker runs periodic hygiene jobs: sweeping keyword-index
// entries whose giveaway is no longer open, and clearing dedup state for
// giveaways that have been deleted out from under it.
type MaintenanceWorker struct {
	cron      *cron.Cron
	index     entryrepo.KeywordIndex
	dedup     entryrepo.DedupLedger
	giveaways giveawayrepo.GiveawayRepository
}

func NewMaintenanceWorker(
	index entryrepo.KeywordIndex,
	dedup entryrepo.DedupLedger,
	giveaways giveawayrepo.GiveawayRepository,
) *MaintenanceWorker {
	return &MaintenanceWorker{
		cron:      cron.New(),
		index:     index,
		dedup:     dedup,
		giveaways: giveaways,
	}
}

// Start schedules the jobs and starts the cron loop. Stop is tied to ctx.
func (w *MaintenanceWorker) Start(ctx context.Context) error {
	if _, err := w.cron.AddFunc("@every 10m", func() { w.sweepIndex(ctx) }); err != nil {
		return err
	}
	w.cron.Start()

	go func() {
		<-ctx.Done()
		stopCtx := w.cron.Stop()
		<-stopCtx.Done()
		logger.Info().Msg("Maintenance worker stopped")
	}()

	logger.Info().Msg("Maintenance worker started")
	return nil
}

// sweepIndex removes index entries pointing at giveaways that no longer
// exist or are no longer open. Such entries appear when a crash lands
// between a status transition and its index update.
func (w *MaintenanceWorker) sweepIndex(ctx context.Context) {
	stale, err := w.index.ListGiveawayIDs(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Keyword index scan failed")
		return
	}

	swept := 0
	for _, giveawayID := range stale {
		giveaway, err := w.giveaways.GetByID(ctx, giveawayID)
		if err == giveawayrepo.ErrGiveawayNotFound {
			if err := w.index.RemoveByID(ctx, giveawayID); err != nil {
				logger.Warn().Err(err).Str("giveaway_id", giveawayID).Msg("Stale index removal failed")
				continue
			}
			if err := w.dedup.Clear(ctx, giveawayID); err != nil {
				logger.Warn().Err(err).Str("giveaway_id", giveawayID).Msg("Stale dedup cleanup failed")
			}
			swept++
			continue
		}
		if err != nil {
			logger.Error().Err(err).Str("giveaway_id", giveawayID).Msg("Giveaway lookup failed during sweep")
			continue
		}
		if !giveaway.IsOpen() {
			if err := w.index.RemoveByID(ctx, giveawayID); err != nil {
				logger.Warn().Err(err).Str("giveaway_id", giveawayID).Msg("Stale index removal failed")
				continue
			}
			swept++
		}
	}

	if swept > 0 {
		logger.Info().Int("swept", swept).Msg("Keyword index sweep completed")
	}
}
