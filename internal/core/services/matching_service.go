package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carrylink/carrylink_backend/internal/apperrors"
	"github.com/carrylink/carrylink_backend/internal/core/domain"
	portsrepo "github.com/carrylink/carrylink_backend/internal/core/ports/repositories"
	portssvc "github.com/carrylink/carrylink_backend/internal/core/ports/services"
	"github.com/carrylink/carrylink_backend/internal/core/ports/sources"
	"github.com/carrylink/carrylink_backend/internal/utils/compat"
)

// maxTransitionRetries bounds the re-read/retry loop around optimistic writes.
// A stale version is re-read and re-applied, never surfaced, until retries run out.
const maxTransitionRetries = 3

type confirmingSide int

const (
	sideDemander confirmingSide = iota
	sideTraveler
)

// matchingService implements the MatchingSvcFacade interface. It is stateless
// between calls: every discovery or transition executes as an independent unit of
// work against the ledger, and source calls never run while ledger state is held.
type matchingService struct {
	BaseService
	matchRepo portsrepo.MatchRepositoryFacade
	demands   sources.DemandSource
	journeys  sources.JourneySource
}

// NewMatchingService creates a new matching service with the provided dependencies
func NewMatchingService(
	matchRepo portsrepo.MatchRepositoryFacade,
	demands sources.DemandSource,
	journeys sources.JourneySource,
) portssvc.MatchingSvcFacade {
	return &matchingService{
		matchRepo: matchRepo,
		demands:   demands,
		journeys:  journeys,
	}
}

// Ensure matchingService implements the MatchingSvcFacade interface
var _ portssvc.MatchingSvcFacade = (*matchingService)(nil)

// FindMatchesForDemand discovers journeys for a demand: excludes counterparts the
// demand is already actively matched with, filters and scores the rest, persists
// qualifying pairs as PROPOSED and returns the full (old + new) match set.
func (s *matchingService) FindMatchesForDemand(ctx context.Context, demandID string) ([]domain.MatchDetail, error) {
	demand, err := s.demands.GetDemandByID(ctx, demandID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to fetch anchor demand", slog.String("demand_id", demandID))
		}
		return nil, err
	}
	if demand.Status != domain.DemandPending {
		return nil, fmt.Errorf("%w: demand %s has status %s, discovery requires %s",
			apperrors.ErrInvalidState, demandID, demand.Status, domain.DemandPending)
	}

	taken, err := s.matchRepo.FindActiveJourneyIDsByDemand(ctx, demandID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load active matches for demand", slog.String("demand_id", demandID))
		return nil, err
	}

	candidates, err := s.journeys.ListJourneysByStatus(ctx, domain.JourneyActive)
	if err != nil {
		s.LogError(ctx, err, "Failed to list active journeys", slog.String("demand_id", demandID))
		return nil, err
	}

	created := 0
	for _, journey := range candidates {
		if _, alreadyMatched := taken[journey.JourneyID]; alreadyMatched {
			continue
		}
		if !compat.Eligible(*demand, journey) {
			continue
		}
		score := compat.Score(*demand, journey)
		if score < compat.MinPersistScore {
			continue
		}
		if err := s.matchRepo.SaveMatch(ctx, newProposedMatch(*demand, journey, score)); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				// A concurrent discovery run got there first; the pair is matched
				// either way.
				s.LogDebug(ctx, "Pair already actively matched, skipping",
					slog.String("demand_id", demandID),
					slog.Int64("journey_id", journey.JourneyID))
				continue
			}
			s.LogError(ctx, err, "Failed to persist discovered match",
				slog.String("demand_id", demandID),
				slog.Int64("journey_id", journey.JourneyID))
			return nil, err
		}
		created++
	}

	matches, err := s.matchRepo.ListMatchesByDemand(ctx, demandID)
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Discovery for demand completed",
		slog.String("demand_id", demandID),
		slog.Int("candidates", len(candidates)),
		slog.Int("new_matches", created),
		slog.Int("total_matches", len(matches)))
	return s.enrich(ctx, matches), nil
}

// FindMatchesForJourney is the journey-side mirror of FindMatchesForDemand.
func (s *matchingService) FindMatchesForJourney(ctx context.Context, journeyID int64) ([]domain.MatchDetail, error) {
	journey, err := s.journeys.GetJourneyByID(ctx, journeyID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to fetch anchor journey", slog.Int64("journey_id", journeyID))
		}
		return nil, err
	}
	if journey.Status != domain.JourneyActive {
		return nil, fmt.Errorf("%w: journey %d has status %s, discovery requires %s",
			apperrors.ErrInvalidState, journeyID, journey.Status, domain.JourneyActive)
	}

	taken, err := s.matchRepo.FindActiveDemandIDsByJourney(ctx, journeyID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load active matches for journey", slog.Int64("journey_id", journeyID))
		return nil, err
	}

	candidates, err := s.demands.ListDemandsByStatus(ctx, domain.DemandPending)
	if err != nil {
		s.LogError(ctx, err, "Failed to list pending demands", slog.Int64("journey_id", journeyID))
		return nil, err
	}

	created := 0
	for _, demand := range candidates {
		if _, alreadyMatched := taken[demand.DemandID]; alreadyMatched {
			continue
		}
		if !compat.Eligible(demand, *journey) {
			continue
		}
		score := compat.Score(demand, *journey)
		if score < compat.MinPersistScore {
			continue
		}
		if err := s.matchRepo.SaveMatch(ctx, newProposedMatch(demand, *journey, score)); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				s.LogDebug(ctx, "Pair already actively matched, skipping",
					slog.String("demand_id", demand.DemandID),
					slog.Int64("journey_id", journeyID))
				continue
			}
			s.LogError(ctx, err, "Failed to persist discovered match",
				slog.String("demand_id", demand.DemandID),
				slog.Int64("journey_id", journeyID))
			return nil, err
		}
		created++
	}

	matches, err := s.matchRepo.ListMatchesByJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Discovery for journey completed",
		slog.Int64("journey_id", journeyID),
		slog.Int("candidates", len(candidates)),
		slog.Int("new_matches", created),
		slog.Int("total_matches", len(matches)))
	return s.enrich(ctx, matches), nil
}

// newProposedMatch constructs the initial PROPOSED match for a scored pair.
func newProposedMatch(demand domain.DemandSummary, journey domain.JourneySummary, score float64) domain.Match {
	now := time.Now().UTC()
	return domain.Match{
		MatchID:           uuid.NewString(),
		DemandID:          demand.DemandID,
		JourneyID:         journey.JourneyID,
		DemandOwnerID:     demand.OwnerID,
		JourneyOwnerID:    journey.OwnerID,
		Status:            domain.MatchProposed,
		Score:             score,
		DemanderConfirmed: false,
		TravelerConfirmed: false,
		MatchedAt:         now,
		UpdatedAt:         now,
	}
}

// GetMatchByID retrieves a match by its ID.
func (s *matchingService) GetMatchByID(ctx context.Context, matchID string) (*domain.Match, error) {
	match, err := s.matchRepo.FindMatchByID(ctx, matchID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find match by ID", slog.String("match_id", matchID))
		}
		return nil, err
	}
	return match, nil
}

// ListMatchesForUser retrieves the caller's matches on either side, enriched.
func (s *matchingService) ListMatchesForUser(ctx context.Context, userID string, status *domain.MatchStatus, limit int, nextToken *string) ([]domain.MatchDetail, *string, error) {
	if status != nil && !status.IsValid() {
		return nil, nil, fmt.Errorf("%w: unknown match status %q", apperrors.ErrValidation, *status)
	}
	matches, token, err := s.matchRepo.ListMatchesByUser(ctx, userID, status, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list matches for user", slog.String("user_id", userID))
		return nil, nil, err
	}
	return s.enrich(ctx, matches), token, nil
}

// ListMatchesForDemand retrieves all matches recorded for a demand, enriched.
func (s *matchingService) ListMatchesForDemand(ctx context.Context, demandID string) ([]domain.MatchDetail, error) {
	matches, err := s.matchRepo.ListMatchesByDemand(ctx, demandID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list matches for demand", slog.String("demand_id", demandID))
		return nil, err
	}
	return s.enrich(ctx, matches), nil
}

// ListMatchesForJourney retrieves all matches recorded for a journey, enriched.
func (s *matchingService) ListMatchesForJourney(ctx context.Context, journeyID int64) ([]domain.MatchDetail, error) {
	matches, err := s.matchRepo.ListMatchesByJourney(ctx, journeyID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list matches for journey", slog.Int64("journey_id", journeyID))
		return nil, err
	}
	return s.enrich(ctx, matches), nil
}

// ConfirmMatchByDemander applies the demander-side confirmation or rejection.
// Only the match's demand owner may call it.
func (s *matchingService) ConfirmMatchByDemander(ctx context.Context, matchID string, callerUserID string, accept bool) (*domain.Match, error) {
	return s.applyConfirmation(ctx, matchID, callerUserID, accept, sideDemander)
}

// ConfirmMatchByTraveler applies the traveler-side confirmation or rejection.
// Only the match's journey owner may call it.
func (s *matchingService) ConfirmMatchByTraveler(ctx context.Context, matchID string, callerUserID string, accept bool) (*domain.Match, error) {
	return s.applyConfirmation(ctx, matchID, callerUserID, accept, sideTraveler)
}

func (s *matchingService) applyConfirmation(ctx context.Context, matchID string, callerUserID string, accept bool, side confirmingSide) (*domain.Match, error) {
	var lastErr error
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		match, err := s.matchRepo.FindMatchByID(ctx, matchID)
		if err != nil {
			return nil, err
		}

		switch side {
		case sideDemander:
			if match.DemandOwnerID != callerUserID {
				return nil, fmt.Errorf("%w: only the demand owner may confirm the demander side of match %s",
					apperrors.ErrForbidden, matchID)
			}
		case sideTraveler:
			if match.JourneyOwnerID != callerUserID {
				return nil, fmt.Errorf("%w: only the journey owner may confirm the traveler side of match %s",
					apperrors.ErrForbidden, matchID)
			}
		}

		if !match.AcceptsConfirmation() {
			return nil, fmt.Errorf("%w: match %s has status %s and accepts no further confirmation",
				apperrors.ErrInvalidState, matchID, match.Status)
		}

		now := time.Now().UTC()
		if !accept {
			match.Status = domain.MatchRejected
			match.RejectedAt = &now
		} else {
			if side == sideDemander {
				match.DemanderConfirmed = true
			} else {
				match.TravelerConfirmed = true
			}
			if match.DemanderConfirmed && match.TravelerConfirmed {
				match.Status = domain.MatchConfirmed
				// ConfirmedAt is set exactly once, on the transition into CONFIRMED.
				if match.ConfirmedAt == nil {
					match.ConfirmedAt = &now
				}
			} else {
				match.Status = domain.MatchPending
			}
		}

		updated, err := s.matchRepo.UpdateMatch(ctx, *match)
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				// A concurrent confirmation won the write; re-read and re-apply.
				lastErr = err
				continue
			}
			s.LogError(ctx, err, "Failed to persist confirmation", slog.String("match_id", matchID))
			return nil, err
		}

		s.LogInfo(ctx, "Match confirmation applied",
			slog.String("match_id", matchID),
			slog.Bool("accepted", accept),
			slog.String("status", string(updated.Status)))
		return updated, nil
	}

	s.LogError(ctx, lastErr, "Confirmation retries exhausted", slog.String("match_id", matchID))
	return nil, lastErr
}

// CompleteMatch marks a confirmed match as completed. There is no ownership check:
// completion is an administrative action gated at a higher layer.
func (s *matchingService) CompleteMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return s.finalize(ctx, matchID, domain.MatchCompleted)
}

// CancelMatch cancels a confirmed match. Like completion, it carries no ownership
// check.
func (s *matchingService) CancelMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return s.finalize(ctx, matchID, domain.MatchCancelled)
}

func (s *matchingService) finalize(ctx context.Context, matchID string, target domain.MatchStatus) (*domain.Match, error) {
	var lastErr error
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		match, err := s.matchRepo.FindMatchByID(ctx, matchID)
		if err != nil {
			return nil, err
		}

		if match.Status != domain.MatchConfirmed {
			return nil, fmt.Errorf("%w: match %s has status %s, %s requires %s",
				apperrors.ErrInvalidState, matchID, match.Status, target, domain.MatchConfirmed)
		}

		match.Status = target
		updated, err := s.matchRepo.UpdateMatch(ctx, *match)
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				lastErr = err
				continue
			}
			s.LogError(ctx, err, "Failed to finalize match", slog.String("match_id", matchID))
			return nil, err
		}

		s.LogInfo(ctx, "Match finalized",
			slog.String("match_id", matchID),
			slog.String("status", string(updated.Status)))
		return updated, nil
	}

	s.LogError(ctx, lastErr, "Finalize retries exhausted", slog.String("match_id", matchID))
	return nil, lastErr
}

// enrich attaches counterpart summaries to matches. Summaries are fetched once per
// distinct id and joined back in memory; a failed fetch leaves the field nil and is
// never surfaced to the caller of a list operation.
func (s *matchingService) enrich(ctx context.Context, matches []domain.Match) []domain.MatchDetail {
	demandsByID := make(map[string]*domain.DemandSummary)
	journeysByID := make(map[int64]*domain.JourneySummary)
	for _, m := range matches {
		demandsByID[m.DemandID] = nil
		journeysByID[m.JourneyID] = nil
	}

	for demandID := range demandsByID {
		demand, err := s.demands.GetDemandByID(ctx, demandID)
		if err != nil {
			s.LogDebug(ctx, "Demand enrichment skipped",
				slog.String("demand_id", demandID),
				slog.String("reason", err.Error()))
			continue
		}
		demandsByID[demandID] = demand
	}
	for journeyID := range journeysByID {
		journey, err := s.journeys.GetJourneyByID(ctx, journeyID)
		if err != nil {
			s.LogDebug(ctx, "Journey enrichment skipped",
				slog.Int64("journey_id", journeyID),
				slog.String("reason", err.Error()))
			continue
		}
		journeysByID[journeyID] = journey
	}

	details := make([]domain.MatchDetail, len(matches))
	for i, m := range matches {
		details[i] = domain.MatchDetail{
			Match:   m,
			Demand:  demandsByID[m.DemandID],
			Journey: journeysByID[m.JourneyID],
		}
	}
	return details
}
