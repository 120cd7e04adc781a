package redis

import (
	"context"
	"time"

	"streamraffle-backend/internal/common/logger"
	redisplatform "streamraffle-backend/internal/platform/redis"
)

const keyPrefixLock = "draw:lock:"

// DrawLocker is the fast-fail gate against concurrent draw requests for one
// giveaway. The advisory transaction lock underneath is the real
// serialization point; this lock just turns a double-click into an
// immediate conflict instead of a queued wait.
type DrawLocker interface {
	TryLock(ctx context.Context, giveawayID string) (bool, error)
	Unlock(ctx context.Context, giveawayID string)
}

type drawLocker struct {
	client *redisplatform.Client
	ttl    time.Duration
}

func NewDrawLocker(client *redisplatform.Client, ttl time.Duration) DrawLocker {
	return &drawLocker{client: client, ttl: ttl}
}

func (l *drawLocker) TryLock(ctx context.Context, giveawayID string) (bool, error) {
	return l.client.SetNX(ctx, keyPrefixLock+giveawayID, "1", l.ttl).Result()
}

func (l *drawLocker) Unlock(ctx context.Context, giveawayID string) {
	if err := l.client.Del(context.WithoutCancel(ctx), keyPrefixLock+giveawayID).Err(); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveawayID).Msg("Draw lock release failed")
	}
}
