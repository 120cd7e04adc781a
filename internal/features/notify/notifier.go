package notify

import (
	"context"
	"encoding/json"

	"streamraffle-backend/internal/common/logger"
	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	redisplatform "streamraffle-backend/internal/platform/redis"
)

// ParticipantsChannel is the pub/sub channel participant-added events are
// published on.
const ParticipantsChannel = "notify:participants"

// ParticipantAdded is the fire-and-forget event emitted after an entry is
// persisted.
type ParticipantAdded struct {
	GiveawayID     string                  `json:"giveaway_id"`
	EntryID        string                  `json:"entry_id"`
	Platform       giveawaymodels.Platform `json:"platform"`
	ExternalUserID string                  `json:"external_user_id"`
	Username       string                  `json:"username"`
	Method         string                  `json:"method"`
	Tickets        int64                   `json:"tickets"`
	AvatarURL      string                  `json:"avatar_url,omitempty"`
}

// Notifier delivers participant-added events. Delivery failures are logged,
// never surfaced: notification is best effort.
type Notifier interface {
	ParticipantAdded(ctx context.Context, event ParticipantAdded)
}

type redisNotifier struct {
	client *redisplatform.Client
}

// NewRedisNotifier publishes events on the participants pub/sub channel;
// the websocket hub subscribes to the same channel.
func NewRedisNotifier(client *redisplatform.Client) Notifier {
	return &redisNotifier{client: client}
}

func (n *redisNotifier) ParticipantAdded(ctx context.Context, event ParticipantAdded) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal participant event")
		return
	}
	if err := n.client.Publish(ctx, ParticipantsChannel, data).Err(); err != nil {
		logger.Warn().
			Err(err).
			Str("giveaway_id", event.GiveawayID).
			Msg("Failed to publish participant event")
	}
}
