package models

import "time"

// MatchStatus mirrors domain.MatchStatus for storage.
type MatchStatus string

const (
	Proposed  MatchStatus = "PROPOSED"
	Pending   MatchStatus = "PENDING"
	Confirmed MatchStatus = "CONFIRMED"
	Rejected  MatchStatus = "REJECTED"
	Completed MatchStatus = "COMPLETED"
	Cancelled MatchStatus = "CANCELLED"
)

// Match is the matches table row. The ledger is append-only: rows are never
// deleted, terminal rows stay as history.
type Match struct {
	MatchID           string      `db:"match_id"`
	DemandID          string      `db:"demand_id"`
	JourneyID         int64       `db:"journey_id"`
	DemandOwnerID     string      `db:"demand_owner_id"`
	JourneyOwnerID    string      `db:"journey_owner_id"`
	Status            MatchStatus `db:"status"`
	Score             float64     `db:"score"`
	DemanderConfirmed bool        `db:"demander_confirmed"`
	TravelerConfirmed bool        `db:"traveler_confirmed"`
	MatchedAt         time.Time   `db:"matched_at"`
	ConfirmedAt       *time.Time  `db:"confirmed_at"`
	RejectedAt        *time.Time  `db:"rejected_at"`
	UpdatedAt         time.Time   `db:"updated_at"`
	Version           int64       `db:"version"`
}
