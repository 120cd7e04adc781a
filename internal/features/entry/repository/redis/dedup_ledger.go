package redis

import (
	"context"
	"fmt"
	"time"

	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	"streamraffle-backend/internal/features/entry/models"
	"streamraffle-backend/internal/features/entry/repository"
	redisplatform "streamraffle-backend/internal/platform/redis"
)

const keyPrefixDedup = "dedup:"

func makeDedupKey(giveawayID string, platform giveawaymodels.Platform, externalUserID string) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefixDedup, giveawayID, platform, externalUserID)
}

type dedupLedger struct {
	client *redisplatform.Client
	ttl    time.Duration
}

func NewDedupLedger(client *redisplatform.Client, ttl time.Duration) repository.DedupLedger {
	return &dedupLedger{client: client, ttl: ttl}
}

func (l *dedupLedger) HasGranted(ctx context.Context, giveawayID string, platform giveawaymodels.Platform, externalUserID string, method models.EntryMethod) (bool, error) {
	return l.client.SIsMember(ctx, makeDedupKey(giveawayID, platform, externalUserID), string(method)).Result()
}

// Grant marks the method as granted. SADD is the atomic check-then-set:
// two concurrent deliveries of the same message cannot both add the member.
func (l *dedupLedger) Grant(ctx context.Context, giveawayID string, platform giveawaymodels.Platform, externalUserID string, method models.EntryMethod) error {
	key := makeDedupKey(giveawayID, platform, externalUserID)
	pipe := l.client.Pipeline()
	pipe.SAdd(ctx, key, string(method))
	pipe.Expire(ctx, key, l.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (l *dedupLedger) Clear(ctx context.Context, giveawayID string) error {
	pattern := fmt.Sprintf("%s%s:*", keyPrefixDedup, giveawayID)
	iter := l.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return l.client.Del(ctx, keys...).Err()
}
