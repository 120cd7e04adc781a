package models

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	entrymodels "streamraffle-backend/internal/features/entry/models"
)

var (
	ErrUnknownHashAlgorithm = errors.New("unknown audit hash algorithm")
	ErrIndexOutOfRange      = errors.New("drawn index outside ticket population")
)

// DrawStatus is the state of one draw record. A repick flips the prior
// WINNER record to REPICK and produces a fresh WINNER record.
type DrawStatus string

const (
	DrawStatusWinner DrawStatus = "WINNER"
	DrawStatusRepick DrawStatus = "REPICK"
)

// Supported audit hash algorithms. md5 exists only for compatibility with
// older third-party verifiers.
const (
	HashSHA256 = "sha256"
	HashMD5    = "md5"
)

// TicketRange is the contiguous interval of ticket indices assigned to one
// entry within the ordered population.
type TicketRange struct {
	EntryID string `json:"entry_id"`
	Display string `json:"display"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
}

// DrawRecord is the immutable audit record of one draw or repick.
type DrawRecord struct {
	ID              string          `json:"id"`
	GiveawayID      string          `json:"giveaway_id"`
	WinnerEntryID   string          `json:"winner_entry_id"`
	Status          DrawStatus      `json:"status"`
	Ranges          []TicketRange   `json:"ranges"`
	TotalTickets    int64           `json:"total_tickets"`
	AuditHash       string          `json:"audit_hash"`
	HashAlgorithm   string          `json:"hash_algorithm"`
	RandomPayload   json.RawMessage `json:"random_payload"`
	Signature       string          `json:"signature"`
	VerificationURL string          `json:"verification_url"`
	DrawnIndex      int64           `json:"drawn_index"`
	Verified        bool            `json:"verified"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BuildRanges lays the entries out as a contiguous, gapless range table.
// Entries must already be in their canonical order (created_at, id). The
// returned total equals the final running start.
func BuildRanges(entries []entrymodels.Entry) ([]TicketRange, int64) {
	ranges := make([]TicketRange, 0, len(entries))
	var running int64
	for i := range entries {
		e := &entries[i]
		if e.Tickets <= 0 {
			continue
		}
		ranges = append(ranges, TicketRange{
			EntryID: e.ID,
			Display: e.Display(),
			Start:   running,
			End:     running + e.Tickets - 1,
		})
		running += e.Tickets
	}
	return ranges, running
}

// AuditLine is the canonical per-range line of the audit payload.
func (r TicketRange) AuditLine() string {
	return fmt.Sprintf("%s;%s;%d;%d", r.EntryID, r.Display, r.Start, r.End)
}

// AuditHash hashes the canonical range table so any third party can
// reconstruct and verify the exact population that was drawn against.
func AuditHash(ranges []TicketRange, algorithm string) (string, error) {
	lines := make([]string, len(ranges))
	for i, r := range ranges {
		lines[i] = r.AuditLine()
	}
	payload := []byte(strings.Join(lines, "\n"))

	switch algorithm {
	case HashSHA256:
		sum := sha256.Sum256(payload)
		return hex.EncodeToString(sum[:]), nil
	case HashMD5:
		sum := md5.Sum(payload)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", ErrUnknownHashAlgorithm
	}
}

// FindRange binary-searches the range table for the drawn index. Ranges are
// non-overlapping and sorted by construction, so this terminates with a
// match for any 0 <= index < totalTickets.
func FindRange(ranges []TicketRange, index int64) (*TicketRange, error) {
	left, right := 0, len(ranges)-1
	for left <= right {
		mid := left + (right-left)/2
		r := &ranges[mid]
		switch {
		case index < r.Start:
			right = mid - 1
		case index > r.End:
			left = mid + 1
		default:
			return r, nil
		}
	}
	return nil, ErrIndexOutOfRange
}
