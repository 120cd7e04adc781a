package models

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyKeyword      = errors.New("keyword cannot be empty")
	ErrNoPlatforms       = errors.New("giveaway must target at least one platform")
	ErrInvalidStatus     = errors.New("invalid giveaway status")
	ErrInvalidTransition = errors.New("invalid giveaway status transition")
	ErrNotOpen           = errors.New("giveaway is not open")
)

// GiveawayStatus represents the lifecycle state of a giveaway.
type GiveawayStatus string

const (
	GiveawayStatusDraft GiveawayStatus = "draft"
	GiveawayStatusOpen  GiveawayStatus = "open"
	GiveawayStatusDone  GiveawayStatus = "done"
)

func (s GiveawayStatus) Valid() bool {
	switch s {
	case GiveawayStatusDraft, GiveawayStatusOpen, GiveawayStatusDone:
		return true
	}
	return false
}

// DonationConfig enables donation entries for one (platform, unit type)
// pair, accumulated over the configured window.
type DonationConfig struct {
	Platform Platform       `json:"platform"`
	UnitType string         `json:"unit_type"`
	Window   DonationWindow `json:"window"`
}

// RoleOverride is a giveaway-scoped tickets-per-unit override, keyed by the
// original platform-qualified role.
type RoleOverride struct {
	Role           Role  `json:"role"`
	TicketsPerUnit int64 `json:"tickets_per_unit"`
}

// DonationOverride is a giveaway-scoped donation conversion override.
type DonationOverride struct {
	Platform           Platform `json:"platform"`
	UnitType           string   `json:"unit_type"`
	UnitSize           int64    `json:"unit_size"`
	TicketsPerUnitSize int64    `json:"tickets_per_unit_size"`
}

// Giveaway is one time-boxed audience giveaway owned by an admin.
type Giveaway struct {
	ID                string             `json:"id"`
	AdminID           int64              `json:"admin_id"`
	Name              string             `json:"name"`
	Status            GiveawayStatus     `json:"status"`
	Keyword           string             `json:"keyword"`
	Platforms         []Platform         `json:"platforms"`
	AllowedRoles      []Role             `json:"allowed_roles"`
	DonationConfigs   []DonationConfig   `json:"donation_configs,omitempty"`
	RoleOverrides     []RoleOverride     `json:"role_overrides,omitempty"`
	DonationOverrides []DonationOverride `json:"donation_overrides,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// NormalizeKeyword lowercases and trims a chat keyword; keyword matching is
// always performed on this form.
func NormalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// Validate checks the invariants that hold in every status.
func (g *Giveaway) Validate() error {
	if NormalizeKeyword(g.Keyword) == "" {
		return ErrEmptyKeyword
	}
	if len(g.Platforms) == 0 {
		return ErrNoPlatforms
	}
	for _, p := range g.Platforms {
		if !p.Valid() {
			return ErrInvalidPlatform
		}
	}
	for _, r := range g.AllowedRoles {
		if !r.Valid() {
			return ErrInvalidRole
		}
	}
	if !g.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// IsOpen reports whether the giveaway accepts entries.
func (g *Giveaway) IsOpen() bool {
	return g.Status == GiveawayStatusOpen
}

// TargetsPlatform reports whether the giveaway runs on the given platform.
func (g *Giveaway) TargetsPlatform(p Platform) bool {
	for _, gp := range g.Platforms {
		if gp == p {
			return true
		}
	}
	return false
}

// RoleAllowed reports whether the role is in the allowed-roles set.
func (g *Giveaway) RoleAllowed(r Role) bool {
	return RoleAllowedIn(g.AllowedRoles, r)
}

// RoleAllowedIn checks a role against an allowed-roles set that may live
// outside a Giveaway, such as a keyword-index snapshot.
func RoleAllowedIn(roles []Role, r Role) bool {
	for _, ar := range roles {
		if ar == r {
			return true
		}
	}
	return false
}

// RoleOverrideFor returns the giveaway-scoped override for the original
// platform-qualified role key, if one exists.
func (g *Giveaway) RoleOverrideFor(r Role) (int64, bool) {
	for _, o := range g.RoleOverrides {
		if o.Role == r {
			return o.TicketsPerUnit, true
		}
	}
	return 0, false
}

// DonationOverrideFor returns the giveaway-scoped donation override for the
// (platform, unit type) pair, if one exists.
func (g *Giveaway) DonationOverrideFor(p Platform, unitType string) (*DonationOverride, bool) {
	for i := range g.DonationOverrides {
		o := &g.DonationOverrides[i]
		if o.Platform == p && o.UnitType == unitType {
			return o, true
		}
	}
	return nil, false
}

// DonationConfigsFor returns the enabled donation configs for a platform.
func (g *Giveaway) DonationConfigsFor(p Platform) []DonationConfig {
	var out []DonationConfig
	for _, c := range g.DonationConfigs {
		if c.Platform == p {
			out = append(out, c)
		}
	}
	return out
}

// CanTransition reports whether a status transition is legal. The draw
// engine owns open→done; done is terminal.
func (g *Giveaway) CanTransition(to GiveawayStatus) bool {
	switch g.Status {
	case GiveawayStatusDraft:
		return to == GiveawayStatusOpen
	case GiveawayStatusOpen:
		return to == GiveawayStatusDone
	}
	return false
}
