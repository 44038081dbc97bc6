package repositories

import (
	"context"

	"github.com/carrylink/carrylink_backend/internal/core/domain"
)

// MatchReader defines read operations against the match ledger.
type MatchReader interface {
	// FindMatchByID retrieves a specific match by its unique identifier.
	FindMatchByID(ctx context.Context, matchID string) (*domain.Match, error)

	// FindActiveJourneyIDsByDemand returns the journey ids currently bound to the
	// demand by a match in an active state (PROPOSED, PENDING or CONFIRMED).
	// Discovery uses this to exclude already-matched counterparts.
	FindActiveJourneyIDsByDemand(ctx context.Context, demandID string) (map[int64]struct{}, error)

	// FindActiveDemandIDsByJourney is the journey-side counterpart of
	// FindActiveJourneyIDsByDemand.
	FindActiveDemandIDsByJourney(ctx context.Context, journeyID int64) (map[string]struct{}, error)

	// ListMatchesByDemand retrieves all matches (active and historical) for a demand.
	ListMatchesByDemand(ctx context.Context, demandID string) ([]domain.Match, error)

	// ListMatchesByJourney retrieves all matches (active and historical) for a journey.
	ListMatchesByJourney(ctx context.Context, journeyID int64) ([]domain.Match, error)

	// ListMatchesByUser retrieves a paginated list of matches where the user is
	// either the demander or the traveler, newest first. An optional status narrows
	// the result. Returns the page and a token for the next page (nil when exhausted).
	ListMatchesByUser(ctx context.Context, userID string, status *domain.MatchStatus, limit int, nextToken *string) ([]domain.Match, *string, error)
}

// MatchWriter defines write operations against the match ledger.
type MatchWriter interface {
	// SaveMatch inserts a newly discovered match. Returns apperrors.ErrDuplicate
	// when another match for the same (demand, journey) pair is already active;
	// discovery treats that as a benign already-matched outcome.
	SaveMatch(ctx context.Context, match domain.Match) error

	// UpdateMatch persists a mutated match using optimistic versioning: the write
	// only applies if the stored version still equals match.Version. Returns the
	// persisted match with its bumped version, or apperrors.ErrConflict when a
	// concurrent writer got there first.
	UpdateMatch(ctx context.Context, match domain.Match) (*domain.Match, error)
}

// MatchRepositoryFacade combines all match ledger repository interfaces.
type MatchRepositoryFacade interface {
	MatchReader
	MatchWriter
}
