package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
)

var ErrAccountNotFound = errors.New("connected account not found")

// ConnectedAccount links an admin to one channel on one platform, with the
// OAuth token the platform clients use. Token acquisition and refresh are
// handled elsewhere; this store is read-mostly.
type ConnectedAccount struct {
	AdminID      int64
	Platform     giveawaymodels.Platform
	ChannelID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Store resolves an admin's channels and tokens per platform.
type Store interface {
	ChannelIDs(ctx context.Context, adminID int64, platform giveawaymodels.Platform) ([]string, error)
	// Channels returns all channel ids grouped by platform, for keyword
	// index publication.
	Channels(ctx context.Context, adminID int64) (map[giveawaymodels.Platform][]string, error)
	Token(ctx context.Context, adminID int64, platform giveawaymodels.Platform) (string, error)
	ByChannel(ctx context.Context, platform giveawaymodels.Platform, channelID string) (*ConnectedAccount, error)
}

type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) ChannelIDs(ctx context.Context, adminID int64, platform giveawaymodels.Platform) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id FROM connected_accounts
		WHERE admin_id = $1 AND platform = $2`, adminID, platform)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *postgresStore) Channels(ctx context.Context, adminID int64) (map[giveawaymodels.Platform][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT platform, channel_id FROM connected_accounts
		WHERE admin_id = $1`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[giveawaymodels.Platform][]string)
	for rows.Next() {
		var platform giveawaymodels.Platform
		var id string
		if err := rows.Scan(&platform, &id); err != nil {
			return nil, err
		}
		out[platform] = append(out[platform], id)
	}
	return out, rows.Err()
}

func (s *postgresStore) Token(ctx context.Context, adminID int64, platform giveawaymodels.Platform) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `
		SELECT access_token FROM connected_accounts
		WHERE admin_id = $1 AND platform = $2
		ORDER BY expires_at DESC LIMIT 1`, adminID, platform).Scan(&token)
	if err == sql.ErrNoRows {
		return "", ErrAccountNotFound
	}
	return token, err
}

func (s *postgresStore) ByChannel(ctx context.Context, platform giveawaymodels.Platform, channelID string) (*ConnectedAccount, error) {
	var a ConnectedAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT admin_id, platform, channel_id, access_token, refresh_token, expires_at
		FROM connected_accounts
		WHERE platform = $1 AND channel_id = $2`, platform, channelID).
		Scan(&a.AdminID, &a.Platform, &a.ChannelID, &a.AccessToken, &a.RefreshToken, &a.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
