package services

import (
	"context"

	"github.com/carrylink/carrylink_backend/internal/core/domain"
)

// MatchingReaderSvc defines read operations over the match ledger.
type MatchingReaderSvc interface {
	// GetMatchByID retrieves a specific match by its unique identifier.
	GetMatchByID(ctx context.Context, matchID string) (*domain.Match, error)

	// ListMatchesForUser retrieves a paginated list of the caller's matches
	// (either side), optionally narrowed to one status, enriched best-effort.
	ListMatchesForUser(ctx context.Context, userID string, status *domain.MatchStatus, limit int, nextToken *string) ([]domain.MatchDetail, *string, error)

	// ListMatchesForDemand retrieves all matches recorded for a demand.
	ListMatchesForDemand(ctx context.Context, demandID string) ([]domain.MatchDetail, error)

	// ListMatchesForJourney retrieves all matches recorded for a journey.
	ListMatchesForJourney(ctx context.Context, journeyID int64) ([]domain.MatchDetail, error)
}

// MatchingDiscoverySvc drives match discovery for an anchor entity: pull the
// anchor, exclude already-matched counterparts, filter, score, persist qualifying
// pairs and return the full (old + new) match set for the anchor.
type MatchingDiscoverySvc interface {
	FindMatchesForDemand(ctx context.Context, demandID string) ([]domain.MatchDetail, error)
	FindMatchesForJourney(ctx context.Context, journeyID int64) ([]domain.MatchDetail, error)
}

// MatchingTransitionSvc drives the confirmation/completion/cancellation state
// machine. Confirm actions are owner-restricted; complete/cancel are gated at a
// higher layer and carry no ownership check here.
type MatchingTransitionSvc interface {
	ConfirmMatchByDemander(ctx context.Context, matchID string, callerUserID string, accept bool) (*domain.Match, error)
	ConfirmMatchByTraveler(ctx context.Context, matchID string, callerUserID string, accept bool) (*domain.Match, error)
	CompleteMatch(ctx context.Context, matchID string) (*domain.Match, error)
	CancelMatch(ctx context.Context, matchID string) (*domain.Match, error)
}

// MatchingSvcFacade combines all matching service interfaces.
type MatchingSvcFacade interface {
	MatchingReaderSvc
	MatchingDiscoverySvc
	MatchingTransitionSvc
}
