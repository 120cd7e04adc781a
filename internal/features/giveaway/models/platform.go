package models

import "errors"

var ErrInvalidPlatform = errors.New("invalid platform")

// Platform identifies a supported live-stream chat platform.
type Platform string

const (
	PlatformTwitch  Platform = "twitch"
	PlatformKick    Platform = "kick"
	PlatformYouTube Platform = "youtube"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformTwitch, PlatformKick, PlatformYouTube:
		return true
	}
	return false
}

func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if !p.Valid() {
		return "", ErrInvalidPlatform
	}
	return p, nil
}

// DonationWindow is the period over which a donation total is accumulated
// before conversion to tickets.
type DonationWindow string

const (
	WindowDaily   DonationWindow = "daily"
	WindowWeekly  DonationWindow = "weekly"
	WindowMonthly DonationWindow = "monthly"
)

func (w DonationWindow) Valid() bool {
	switch w {
	case WindowDaily, WindowWeekly, WindowMonthly:
		return true
	}
	return false
}

// Donation unit types per platform.
const (
	UnitTwitchBits       = "bits"
	UnitKickKicks        = "kicks"
	UnitYouTubeSuperchat = "superchat"
)
