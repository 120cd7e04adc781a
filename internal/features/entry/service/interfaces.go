package service

import (
	"context"

	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
)

// PlatformClient is the slice of the stream-platform API the accumulator
// needs: cumulative donation totals and avatar enrichment.
type PlatformClient interface {
	DonationTotal(ctx context.Context, adminID int64, platform giveawaymodels.Platform, channelID, externalUserID, unitType string, window giveawaymodels.DonationWindow) (int64, error)
	AvatarURL(ctx context.Context, adminID int64, platform giveawaymodels.Platform, externalUserID string) (string, error)
}
