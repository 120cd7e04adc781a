package workers

import (
	"context"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"streamraffle-backend/internal/common/logger"
	entrymodels "streamraffle-backend/internal/features/entry/models"
	entryservice "streamraffle-backend/internal/features/entry/service"
	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	redisplatform "streamraffle-backend/internal/platform/redis"
)

const (
	inboundStreamKey = "events:inbound"
	consumerGroup    = "streamraffle_consumers"
	consumerName     = "streamraffle_worker_1"
)

// IngestWorker consumes chat events published by the platform connectors on
// the inbound Redis stream and feeds them through the entry accumulator.
type IngestWorker struct {
	rdb     *redisplatform.Client
	entries entryservice.EntryService
}

func NewIngestWorker(rdb *redisplatform.Client, entries entryservice.EntryService) *IngestWorker {
	return &IngestWorker{
		rdb:     rdb,
		entries: entries,
	}
}

// Start blocks consuming the stream until ctx is cancelled.
func (w *IngestWorker) Start(ctx context.Context) {
	err := w.rdb.XGroupCreateMkStream(ctx, inboundStreamKey, consumerGroup, "$").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		logger.Error().Err(err).Msg("Failed to create consumer group")
	}

	logger.Info().Str("stream", inboundStreamKey).Msg("Starting ingest worker")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Stopping ingest worker")
			return
		default:
			streams, err := w.rdb.XReadGroup(ctx, &goredis.XReadGroupArgs{
				Group:    consumerGroup,
				Consumer: consumerName,
				Streams:  []string{inboundStreamKey, ">"},
				Count:    16,
				Block:    5 * time.Second,
			}).Result()
			if err != nil {
				if err != goredis.Nil && ctx.Err() == nil {
					logger.Error().Err(err).Msg("Stream read failed")
					time.Sleep(time.Second)
				}
				continue
			}

			for _, stream := range streams {
				for _, msg := range stream.Messages {
					w.processMessage(ctx, msg.Values)
					w.rdb.XAck(ctx, inboundStreamKey, consumerGroup, msg.ID)
				}
			}
		}
	}
}

func (w *IngestWorker) processMessage(ctx context.Context, values map[string]interface{}) {
	event, ok := parseEvent(values)
	if !ok {
		logger.Warn().Interface("values", values).Msg("Malformed inbound event")
		return
	}

	if _, err := w.entries.Accumulate(ctx, event); err != nil {
		logger.Error().
			Err(err).
			Str("platform", string(event.Platform)).
			Str("channel_id", event.ChannelID).
			Msg("Entry accumulation failed")
	}
}

func parseEvent(values map[string]interface{}) (entrymodels.InboundEvent, bool) {
	var event entrymodels.InboundEvent

	rawPlatform, ok := values["platform"].(string)
	if !ok {
		return event, false
	}
	platform, err := giveawaymodels.ParsePlatform(rawPlatform)
	if err != nil {
		return event, false
	}
	event.Platform = platform

	if event.ChannelID, ok = values["channel_id"].(string); !ok || event.ChannelID == "" {
		return event, false
	}
	if event.ExternalUserID, ok = values["external_user_id"].(string); !ok || event.ExternalUserID == "" {
		return event, false
	}
	event.Text, _ = values["text"].(string)
	event.Username, _ = values["username"].(string)

	if raw, ok := values["is_subscriber"].(string); ok {
		event.IsSubscriber, _ = strconv.ParseBool(raw)
	}
	if raw, ok := values["sub_tier"].(string); ok {
		event.SubTier, _ = strconv.Atoi(raw)
	}
	return event, true
}
