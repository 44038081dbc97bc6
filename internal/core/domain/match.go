package domain

import "time"

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

const (
	MatchProposed  MatchStatus = "PROPOSED"
	MatchPending   MatchStatus = "PENDING"
	MatchConfirmed MatchStatus = "CONFIRMED"
	MatchRejected  MatchStatus = "REJECTED"
	MatchCompleted MatchStatus = "COMPLETED"
	MatchCancelled MatchStatus = "CANCELLED"
)

// ActiveMatchStatuses are the states in which a (demand, journey) pair is considered
// taken: at most one match per pair may be in any of them at a time.
var ActiveMatchStatuses = []MatchStatus{MatchProposed, MatchPending, MatchConfirmed}

// IsActive reports whether the status still blocks re-matching of the pair.
func (s MatchStatus) IsActive() bool {
	switch s {
	case MatchProposed, MatchPending, MatchConfirmed:
		return true
	case MatchRejected, MatchCompleted, MatchCancelled:
		return false
	}
	return false
}

// IsTerminal reports whether the status is historical and accepts no further transition.
func (s MatchStatus) IsTerminal() bool {
	switch s {
	case MatchRejected, MatchCompleted, MatchCancelled:
		return true
	case MatchProposed, MatchPending, MatchConfirmed:
		return false
	}
	return false
}

// IsValid reports whether s is one of the known match statuses.
func (s MatchStatus) IsValid() bool {
	switch s {
	case MatchProposed, MatchPending, MatchConfirmed, MatchRejected, MatchCompleted, MatchCancelled:
		return true
	}
	return false
}

// Match is a proposed or confirmed pairing of one demand with one journey.
// Owner ids are denormalized at creation for authorization and fast lookup;
// MatchID, the pair references, the owners and Score never change afterwards.
type Match struct {
	MatchID           string       `json:"matchID"`
	DemandID          string       `json:"demandID"`
	JourneyID         int64        `json:"journeyID"`
	DemandOwnerID     string       `json:"demandOwnerID"`
	JourneyOwnerID    string       `json:"journeyOwnerID"`
	Status            MatchStatus  `json:"status"`
	Score             float64      `json:"score"`
	DemanderConfirmed bool         `json:"demanderConfirmed"`
	TravelerConfirmed bool         `json:"travelerConfirmed"`
	MatchedAt         time.Time    `json:"matchedAt"`
	ConfirmedAt       *time.Time   `json:"confirmedAt,omitempty"`
	RejectedAt        *time.Time   `json:"rejectedAt,omitempty"`
	UpdatedAt         time.Time    `json:"updatedAt"`
	Version           int64        `json:"-"`
}

// AcceptsConfirmation reports whether the match is still open to a confirm/reject
// from either side.
func (m *Match) AcceptsConfirmation() bool {
	return m.Status == MatchProposed || m.Status == MatchPending
}
