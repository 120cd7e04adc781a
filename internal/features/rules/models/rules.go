package models

import (
	"errors"
	"time"

	giveawaymodels "streamraffle-backend/internal/features/giveaway/models"
)

var (
	ErrInvalidUnitSize = errors.New("unit size must be positive")
	ErrNegativeTickets = errors.New("tickets per unit cannot be negative")
)

// RoleRule is an admin's global default tickets-per-unit for a role. The
// rule is keyed by the normalized rule key (NON_SUB for every non-subscriber
// variant), not the platform-qualified role.
type RoleRule struct {
	AdminID        int64                   `json:"admin_id"`
	Platform       giveawaymodels.Platform `json:"platform"`
	RuleKey        string                  `json:"rule_key"`
	TicketsPerUnit int64                   `json:"tickets_per_unit"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

func (r *RoleRule) Validate() error {
	if !r.Platform.Valid() {
		return giveawaymodels.ErrInvalidPlatform
	}
	if r.TicketsPerUnit < 0 {
		return ErrNegativeTickets
	}
	return nil
}

// DonationRule is an admin's global default donation conversion for one
// (platform, unit type) pair.
type DonationRule struct {
	AdminID            int64                   `json:"admin_id"`
	Platform           giveawaymodels.Platform `json:"platform"`
	UnitType           string                  `json:"unit_type"`
	UnitSize           int64                   `json:"unit_size"`
	TicketsPerUnitSize int64                   `json:"tickets_per_unit_size"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

func (r *DonationRule) Validate() error {
	if !r.Platform.Valid() {
		return giveawaymodels.ErrInvalidPlatform
	}
	if r.UnitSize <= 0 {
		return ErrInvalidUnitSize
	}
	if r.TicketsPerUnitSize < 0 {
		return ErrNegativeTickets
	}
	return nil
}
