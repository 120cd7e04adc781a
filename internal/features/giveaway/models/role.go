package models

import "errors"

var ErrInvalidRole = errors.New("invalid role")

// Role is a closed, platform-qualified participant role. Roles are never
// compared as free-form strings: every inbound role string goes through
// ParseRole, and rule lookups use RuleKey for the global defaults.
type Role string

const (
	RoleTwitchTier1  Role = "TWITCH_TIER_1"
	RoleTwitchTier2  Role = "TWITCH_TIER_2"
	RoleTwitchTier3  Role = "TWITCH_TIER_3"
	RoleTwitchNonSub Role = "TWITCH_NON_SUB"

	RoleKickSub    Role = "KICK_SUB"
	RoleKickNonSub Role = "KICK_NON_SUB"

	RoleYouTubeMember Role = "YOUTUBE_MEMBER"
	RoleYouTubeNonSub Role = "YOUTUBE_NON_SUB"
)

// RuleKeyNonSub is the canonical key every platform-qualified non-subscriber
// role collapses to for global rule lookup. Giveaway overrides keep the
// original platform-qualified key.
const RuleKeyNonSub = "NON_SUB"

var allRoles = map[Role]Platform{
	RoleTwitchTier1:   PlatformTwitch,
	RoleTwitchTier2:   PlatformTwitch,
	RoleTwitchTier3:   PlatformTwitch,
	RoleTwitchNonSub:  PlatformTwitch,
	RoleKickSub:       PlatformKick,
	RoleKickNonSub:    PlatformKick,
	RoleYouTubeMember: PlatformYouTube,
	RoleYouTubeNonSub: PlatformYouTube,
}

func (r Role) Valid() bool {
	_, ok := allRoles[r]
	return ok
}

// Platform returns the platform the role is qualified with.
func (r Role) Platform() Platform {
	return allRoles[r]
}

// IsNonSub reports whether the role is a platform-qualified non-subscriber.
func (r Role) IsNonSub() bool {
	switch r {
	case RoleTwitchNonSub, RoleKickNonSub, RoleYouTubeNonSub:
		return true
	}
	return false
}

// RuleKey returns the key used for global rule lookup: non-subscriber
// variants normalize to NON_SUB, every other role keys by itself.
func (r Role) RuleKey() string {
	if r.IsNonSub() {
		return RuleKeyNonSub
	}
	return string(r)
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// NonSubRole returns the non-subscriber role for a platform. Donation-only
// entries always resolve in this neutral role context so base role tickets
// are never folded into a donation entry.
func NonSubRole(p Platform) Role {
	switch p {
	case PlatformTwitch:
		return RoleTwitchNonSub
	case PlatformKick:
		return RoleKickNonSub
	case PlatformYouTube:
		return RoleYouTubeNonSub
	}
	return ""
}
