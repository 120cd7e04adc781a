package models

import (
	"fmt"
	"strings"
	"time"

	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
)

// EntryMethod tags the category under which a participant received tickets:
// a platform-qualified role, or a donation unit type. The uniqueness key for
// entries is (giveaway, platform, external user, method).
type EntryMethod string

// RoleMethod builds the entry method for a role-based entry.
func RoleMethod(r giveawaymodels.Role) EntryMethod {
	return EntryMethod(r)
}

// DonationMethod builds the entry method for a donation entry.
func DonationMethod(p giveawaymodels.Platform, unitType string) EntryMethod {
	return EntryMethod(fmt.Sprintf("%s_%s", strings.ToUpper(string(p)), strings.ToUpper(unitType)))
}

// Metadata is the free-form breakdown stored with an entry for auditing.
type Metadata struct {
	Role           giveawaymodels.Role `json:"role,omitempty"`
	DonationAmount int64               `json:"donation_amount,omitempty"`
	UnitType       string              `json:"unit_type,omitempty"`
	BaseTickets    int64               `json:"base_tickets,omitempty"`
	BonusTickets   int64               `json:"bonus_tickets,omitempty"`
}

// Entry is one ticket grant for a participant. Entries are immutable once
// created and are only removed by giveaway deletion.
type Entry struct {
	ID             string                   `json:"id"`
	GiveawayID     string                   `json:"giveaway_id"`
	Platform       giveawaymodels.Platform  `json:"platform"`
	ExternalUserID string                   `json:"external_user_id"`
	Username       string                   `json:"username"`
	AvatarURL      string                   `json:"avatar_url,omitempty"`
	Method         EntryMethod              `json:"method"`
	Tickets        int64                    `json:"tickets"`
	Metadata       Metadata                 `json:"metadata"`
	CreatedAt      time.Time                `json:"created_at"`
}

// Display is the label used in the draw audit line for this entry.
func (e *Entry) Display() string {
	return fmt.Sprintf("%s|%s", e.Username, e.Method)
}

// InboundEvent is a raw chat or donation event delivered by the webhook
// transport, already reduced to the fields the accumulator consumes.
type InboundEvent struct {
	Platform       giveawaymodels.Platform `json:"platform"`
	ChannelID      string                  `json:"channel_id"`
	Text           string                  `json:"text"`
	ExternalUserID string                  `json:"external_user_id"`
	Username       string                  `json:"username"`
	IsSubscriber   bool                    `json:"is_subscriber"`
	SubTier        int                     `json:"sub_tier,omitempty"`
}

// Role maps the sender metadata to a platform-qualified role.
func (ev *InboundEvent) Role() giveawaymodels.Role {
	switch ev.Platform {
	case giveawaymodels.PlatformTwitch:
		if !ev.IsSubscriber {
			return giveawaymodels.RoleTwitchNonSub
		}
		switch ev.SubTier {
		case 2:
			return giveawaymodels.RoleTwitchTier2
		case 3:
			return giveawaymodels.RoleTwitchTier3
		default:
			return giveawaymodels.RoleTwitchTier1
		}
	case giveawaymodels.PlatformKick:
		if ev.IsSubscriber {
			return giveawaymodels.RoleKickSub
		}
		return giveawaymodels.RoleKickNonSub
	case giveawaymodels.PlatformYouTube:
		if ev.IsSubscriber {
			return giveawaymodels.RoleYouTubeMember
		}
		return giveawaymodels.RoleYouTubeNonSub
	}
	return ""
}
