package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Scope string

const (
	ScopeAll    Scope = "all"
	ScopeUnsold Scope = "unsold"
	ScopeCustom Scope = "custom"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeAll, ScopeUnsold, ScopeCustom:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusDraft  Status = "draft"
	StatusLive   Status = "live"
	StatusClosed Status = "closed"
)

// Round is one negotiation pass over a lot. RoundNumber is unique per lot and never reused.
type Round struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	LotID       snowflake.ID `gorm:"not null;uniqueIndex:ux_rounds_lot_number,priority:1" json:"lot_id"`
	RoundNumber int          `gorm:"not null;uniqueIndex:ux_rounds_lot_number,priority:2" json:"round_number"`
	Scope       Scope        `gorm:"not null" json:"scope"`
	Status      Status       `gorm:"not null" json:"status"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	ClosedAt    *time.Time   `json:"closed_at,omitempty"`
}

// Ref identifies the round an operation applies to. NumberKnown is false when
// a bound round id could not be looked up.
type Ref struct {
	ID          snowflake.ID `json:"id"`
	Number      int          `json:"number"`
	NumberKnown bool         `json:"number_known"`
}

func RefOf(r Round) Ref {
	return Ref{ID: r.ID, Number: r.RoundNumber, NumberKnown: true}
}

// Current picks the live round with the highest number, else the highest-numbered round.
// The input order does not matter.
func Current(rounds []Round) (Ref, error) {
	var live, latest *Round
	for i := range rounds {
		r := &rounds[i]
		if latest == nil || r.RoundNumber > latest.RoundNumber {
			latest = r
		}
		if r.Status == StatusLive && (live == nil || r.RoundNumber > live.RoundNumber) {
			live = r
		}
	}

	switch {
	case live != nil:
		return RefOf(*live), nil
	case latest != nil:
		return RefOf(*latest), nil
	default:
		return Ref{}, ErrNoRound
	}
}
