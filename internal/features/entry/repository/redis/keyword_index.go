package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	"streamraffle-backend/internal/features/entry/repository"
	redisplatform "streamraffle-backend/internal/platform/redis"
)

const keyPrefixIndex = "kwindex:"

// makeIndexKey builds kwindex:{platform}:{channel}:{giveaway}. Lookups scan
// the kwindex:{platform}:{channel}: prefix.
func makeIndexKey(platform giveawaymodels.Platform, channelID, giveawayID string) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefixIndex, platform, channelID, giveawayID)
}

func makeChannelPattern(platform giveawaymodels.Platform, channelID string) string {
	return fmt.Sprintf("%s%s:%s:*", keyPrefixIndex, platform, channelID)
}

// keywordMatches reports whether the normalized message text contains the
// keyword. Substring match, not token equality: a keyword typed inside a
// longer word still counts, matching real chat behavior.
func keywordMatches(keyword, normalizedText string) bool {
	return keyword != "" && strings.Contains(normalizedText, keyword)
}

type keywordIndex struct {
	client *redisplatform.Client
}

func NewKeywordIndex(client *redisplatform.Client) repository.KeywordIndex {
	return &keywordIndex{client: client}
}

func (i *keywordIndex) Publish(ctx context.Context, g *giveawaymodels.Giveaway, channels map[giveawaymodels.Platform][]string) error {
	pipe := i.client.Pipeline()
	for _, platform := range g.Platforms {
		for _, channelID := range channels[platform] {
			entry := repository.IndexEntry{
				GiveawayID:      g.ID,
				AdminID:         g.AdminID,
				Keyword:         giveawaymodels.NormalizeKeyword(g.Keyword),
				Platform:        platform,
				ChannelID:       channelID,
				AllowedRoles:    g.AllowedRoles,
				DonationConfigs: g.DonationConfigsFor(platform),
			}
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("failed to marshal index entry: %w", err)
			}
			pipe.Set(ctx, makeIndexKey(platform, channelID, g.ID), data, 0)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (i *keywordIndex) Remove(ctx context.Context, g *giveawaymodels.Giveaway) error {
	// The index keys embed channel ids we may no longer know, so scan by
	// platform prefix and match on the giveaway suffix.
	for _, platform := range g.Platforms {
		pattern := fmt.Sprintf("%s%s:*:%s", keyPrefixIndex, platform, g.ID)
		iter := i.client.Scan(ctx, 0, pattern, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := i.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (i *keywordIndex) Lookup(ctx context.Context, platform giveawaymodels.Platform, channelID, messageText string) (*repository.IndexEntry, error) {
	text := strings.ToLower(strings.TrimSpace(messageText))
	if text == "" {
		return nil, nil
	}

	iter := i.client.Scan(ctx, 0, makeChannelPattern(platform, channelID), 100).Iterator()
	for iter.Next(ctx) {
		data, err := i.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue // entry removed between scan and get
		}
		var entry repository.IndexEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal index entry: %w", err)
		}
		if keywordMatches(entry.Keyword, text) {
			return &entry, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (i *keywordIndex) ListGiveawayIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	iter := i.client.Scan(ctx, 0, keyPrefixIndex+"*", 100).Iterator()
	for iter.Next(ctx) {
		parts := strings.Split(iter.Val(), ":")
		if len(parts) < 2 {
			continue
		}
		seen[parts[len(parts)-1]] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, nil
}

func (i *keywordIndex) RemoveByID(ctx context.Context, giveawayID string) error {
	pattern := fmt.Sprintf("%s*:%s", keyPrefixIndex, giveawayID)
	iter := i.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return i.client.Del(ctx, keys...).Err()
	}
	return nil
}
