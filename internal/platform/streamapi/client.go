package streamapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"streamraffle-backend/internal/common/config"
	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
	"streamraffle-backend/internal/platform/accounts"
)

// Client fetches donation totals and display metadata from the stream
// platforms' APIs. Tokens come from the connected-account store; calls are
// rate limited per platform.
type Client struct {
	cfg      *config.Config
	accounts accounts.Store
	http     *http.Client
	limiters map[giveawaymodels.Platform]*rate.Limiter
}

func NewClient(cfg *config.Config, store accounts.Store) *Client {
	limit := rate.Limit(cfg.StreamAPI.RatePerSecond)
	return &Client{
		cfg:      cfg,
		accounts: store,
		http:     &http.Client{Timeout: cfg.StreamAPI.Timeout},
		limiters: map[giveawaymodels.Platform]*rate.Limiter{
			giveawaymodels.PlatformTwitch:  rate.NewLimiter(limit, 1),
			giveawaymodels.PlatformKick:    rate.NewLimiter(limit, 1),
			giveawaymodels.PlatformYouTube: rate.NewLimiter(limit, 1),
		},
	}
}

func (c *Client) baseURL(platform giveawaymodels.Platform) string {
	switch platform {
	case giveawaymodels.PlatformTwitch:
		return c.cfg.StreamAPI.TwitchBaseURL
	case giveawaymodels.PlatformKick:
		return c.cfg.StreamAPI.KickBaseURL
	case giveawaymodels.PlatformYouTube:
		return c.cfg.StreamAPI.YouTubeBaseURL
	}
	return ""
}

func windowStart(window giveawaymodels.DonationWindow, now time.Time) time.Time {
	switch window {
	case giveawaymodels.WindowDaily:
		return now.AddDate(0, 0, -1)
	case giveawaymodels.WindowWeekly:
		return now.AddDate(0, 0, -7)
	default:
		return now.AddDate(0, -1, 0)
	}
}

type donationTotalResponse struct {
	Total int64 `json:"total"`
}

type userResponse struct {
	AvatarURL string `json:"avatar_url"`
}

// DonationTotal returns the user's cumulative donation total for the unit
// type over the window, in the platform's smallest unit.
func (c *Client) DonationTotal(ctx context.Context, adminID int64, platform giveawaymodels.Platform, channelID, externalUserID, unitType string, window giveawaymodels.DonationWindow) (int64, error) {
	if err := c.limiters[platform].Wait(ctx); err != nil {
		return 0, err
	}

	token, err := c.accounts.Token(ctx, adminID, platform)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %s token: %w", platform, err)
	}

	q := url.Values{}
	q.Set("channel_id", channelID)
	q.Set("user_id", externalUserID)
	q.Set("unit_type", unitType)
	q.Set("since", windowStart(window, time.Now()).UTC().Format(time.RFC3339))

	endpoint := fmt.Sprintf("%s/donations/total?%s", c.baseURL(platform), q.Encode())

	var resp donationTotalResponse
	if err := c.get(ctx, endpoint, token, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// AvatarURL fetches the user's avatar for entry enrichment. Best effort:
// callers treat failures as an empty avatar.
func (c *Client) AvatarURL(ctx context.Context, adminID int64, platform giveawaymodels.Platform, externalUserID string) (string, error) {
	if err := c.limiters[platform].Wait(ctx); err != nil {
		return "", err
	}

	token, err := c.accounts.Token(ctx, adminID, platform)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL(platform), url.PathEscape(externalUserID))

	var resp userResponse
	if err := c.get(ctx, endpoint, token, &resp); err != nil {
		return "", err
	}
	return resp.AvatarURL, nil
}

func (c *Client) get(ctx context.Context, endpoint, token string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("platform API returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
