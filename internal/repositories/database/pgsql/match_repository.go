package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carrylink/carrylink_backend/internal/apperrors"
	"github.com/carrylink/carrylink_backend/internal/core/domain"
	portsrepo "github.com/carrylink/carrylink_backend/internal/core/ports/repositories"
	"github.com/carrylink/carrylink_backend/internal/models"
	"github.com/carrylink/carrylink_backend/internal/utils/pagination"
)

type PgxMatchRepository struct {
	pool *pgxpool.Pool
}

// newPgxMatchRepository creates a new repository for the match ledger.
func newPgxMatchRepository(pool *pgxpool.Pool) portsrepo.MatchRepositoryFacade {
	return &PgxMatchRepository{pool: pool}
}

// Ensure PgxMatchRepository implements portsrepo.MatchRepositoryFacade
var _ portsrepo.MatchRepositoryFacade = (*PgxMatchRepository)(nil)

const matchColumns = `match_id, demand_id, journey_id, demand_owner_id, journey_owner_id,
	status, score, demander_confirmed, traveler_confirmed,
	matched_at, confirmed_at, rejected_at, updated_at, version`

// Helper to convert domain.Match to models.Match for DB storage
func toModelMatch(d domain.Match) models.Match {
	return models.Match{
		MatchID:           d.MatchID,
		DemandID:          d.DemandID,
		JourneyID:         d.JourneyID,
		DemandOwnerID:     d.DemandOwnerID,
		JourneyOwnerID:    d.JourneyOwnerID,
		Status:            models.MatchStatus(d.Status),
		Score:             d.Score,
		DemanderConfirmed: d.DemanderConfirmed,
		TravelerConfirmed: d.TravelerConfirmed,
		MatchedAt:         d.MatchedAt,
		ConfirmedAt:       d.ConfirmedAt,
		RejectedAt:        d.RejectedAt,
		UpdatedAt:         d.UpdatedAt,
		Version:           d.Version,
	}
}

// Helper to convert models.Match from DB to domain.Match
func toDomainMatch(m models.Match) domain.Match {
	return domain.Match{
		MatchID:           m.MatchID,
		DemandID:          m.DemandID,
		JourneyID:         m.JourneyID,
		DemandOwnerID:     m.DemandOwnerID,
		JourneyOwnerID:    m.JourneyOwnerID,
		Status:            domain.MatchStatus(m.Status),
		Score:             m.Score,
		DemanderConfirmed: m.DemanderConfirmed,
		TravelerConfirmed: m.TravelerConfirmed,
		MatchedAt:         m.MatchedAt,
		ConfirmedAt:       m.ConfirmedAt,
		RejectedAt:        m.RejectedAt,
		UpdatedAt:         m.UpdatedAt,
		Version:           m.Version,
	}
}

func scanMatch(row pgx.Row) (models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.MatchID,
		&m.DemandID,
		&m.JourneyID,
		&m.DemandOwnerID,
		&m.JourneyOwnerID,
		&m.Status,
		&m.Score,
		&m.DemanderConfirmed,
		&m.TravelerConfirmed,
		&m.MatchedAt,
		&m.ConfirmedAt,
		&m.RejectedAt,
		&m.UpdatedAt,
		&m.Version,
	)
	return m, err
}

// activeStatusStrings is the active-state set used in duplicate-exclusion queries.
// It mirrors the partial unique index predicate in the matches migration.
func activeStatusStrings() []string {
	statuses := make([]string, len(domain.ActiveMatchStatuses))
	for i, s := range domain.ActiveMatchStatuses {
		statuses[i] = string(s)
	}
	return statuses
}

// SaveMatch inserts a newly discovered match. The partial unique index on
// (demand_id, journey_id) over active statuses turns a concurrent duplicate
// discovery into a unique violation, surfaced as ErrDuplicate.
func (r *PgxMatchRepository) SaveMatch(ctx context.Context, match domain.Match) error {
	m := toModelMatch(match)

	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.pool.Exec(ctx, query,
		m.MatchID,
		m.DemandID,
		m.JourneyID,
		m.DemandOwnerID,
		m.JourneyOwnerID,
		m.Status,
		m.Score,
		m.DemanderConfirmed,
		m.TravelerConfirmed,
		m.MatchedAt,
		m.ConfirmedAt,
		m.RejectedAt,
		m.UpdatedAt,
		1, // version starts at 1
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: active match already exists for demand %s and journey %d",
				apperrors.ErrDuplicate, m.DemandID, m.JourneyID)
		}
		return fmt.Errorf("failed to save match %s: %w", m.MatchID, err)
	}
	return nil
}

// FindMatchByID retrieves a match by its primary key.
func (r *PgxMatchRepository) FindMatchByID(ctx context.Context, matchID string) (*domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE match_id = $1;`

	m, err := scanMatch(r.pool.QueryRow(ctx, query, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find match by ID %s: %w", matchID, err)
	}

	match := toDomainMatch(m)
	return &match, nil
}

// FindActiveJourneyIDsByDemand returns the journey ids actively matched with the demand.
func (r *PgxMatchRepository) FindActiveJourneyIDsByDemand(ctx context.Context, demandID string) (map[int64]struct{}, error) {
	query := `SELECT journey_id FROM matches WHERE demand_id = $1 AND status = ANY($2);`

	rows, err := r.pool.Query(ctx, query, demandID, activeStatusStrings())
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query active matches for demand "+demandID, err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var journeyID int64
		if err := rows.Scan(&journeyID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan active journey id", err)
		}
		ids[journeyID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating active matches for demand "+demandID, err)
	}
	return ids, nil
}

// FindActiveDemandIDsByJourney returns the demand ids actively matched with the journey.
func (r *PgxMatchRepository) FindActiveDemandIDsByJourney(ctx context.Context, journeyID int64) (map[string]struct{}, error) {
	query := `SELECT demand_id FROM matches WHERE journey_id = $1 AND status = ANY($2);`

	rows, err := r.pool.Query(ctx, query, journeyID, activeStatusStrings())
	if err != nil {
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to query active matches for journey %d", journeyID), err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var demandID string
		if err := rows.Scan(&demandID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan active demand id", err)
		}
		ids[demandID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, fmt.Sprintf("error iterating active matches for journey %d", journeyID), err)
	}
	return ids, nil
}

// ListMatchesByDemand retrieves all matches recorded for a demand, newest first.
func (r *PgxMatchRepository) ListMatchesByDemand(ctx context.Context, demandID string) ([]domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE demand_id = $1 ORDER BY matched_at DESC, match_id DESC;`
	return r.listMatches(ctx, query, demandID)
}

// ListMatchesByJourney retrieves all matches recorded for a journey, newest first.
func (r *PgxMatchRepository) ListMatchesByJourney(ctx context.Context, journeyID int64) ([]domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE journey_id = $1 ORDER BY matched_at DESC, match_id DESC;`
	return r.listMatches(ctx, query, journeyID)
}

func (r *PgxMatchRepository) listMatches(ctx context.Context, query string, args ...any) ([]domain.Match, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query matches", err)
	}
	defer rows.Close()

	matches := make([]domain.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan match", err)
		}
		matches = append(matches, toDomainMatch(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating matches", err)
	}
	return matches, nil
}

// ListMatchesByUser retrieves a page of the user's matches on either side using
// token-based pagination over (matched_at, match_id).
func (r *PgxMatchRepository) ListMatchesByUser(ctx context.Context, userID string, status *domain.MatchStatus, limit int, nextToken *string) ([]domain.Match, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + matchColumns + ` FROM matches`
	filterClause := `WHERE (demand_owner_id = $1 OR journey_owner_id = $1)`
	args := []interface{}{userID}

	if status != nil {
		args = append(args, string(*status))
		filterClause += ` AND status = $` + strconv.Itoa(len(args))
	}

	if nextToken != nil && *nextToken != "" {
		lastMatchedAt, lastMatchID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		// Tuple comparison keeps the cursor stable under ties on matched_at.
		args = append(args, lastMatchedAt, lastMatchID)
		filterClause += ` AND (matched_at, match_id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	orderByClause := `ORDER BY matched_at DESC, match_id DESC`
	args = append(args, fetchLimit)
	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query matches for user "+userID, err)
	}
	defer rows.Close()

	matches := make([]domain.Match, 0, fetchLimit)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan match", err)
		}
		matches = append(matches, toDomainMatch(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating matches for user "+userID, err)
	}

	var token *string
	if len(matches) > limit {
		matches = matches[:limit]
		last := matches[len(matches)-1]
		t := pagination.EncodeToken(last.MatchedAt, last.MatchID)
		token = &t
	}
	return matches, token, nil
}

// UpdateMatch persists a mutated match with an optimistic version check. The
// immutable columns (pair references, owners, score, matched_at) are never touched.
func (r *PgxMatchRepository) UpdateMatch(ctx context.Context, match domain.Match) (*domain.Match, error) {
	m := toModelMatch(match)
	now := time.Now().UTC()

	query := `
		UPDATE matches
		SET status = $1,
		    demander_confirmed = $2,
		    traveler_confirmed = $3,
		    confirmed_at = $4,
		    rejected_at = $5,
		    updated_at = $6,
		    version = version + 1
		WHERE match_id = $7 AND version = $8
		RETURNING ` + matchColumns + `;
	`
	updated, err := scanMatch(r.pool.QueryRow(ctx, query,
		m.Status,
		m.DemanderConfirmed,
		m.TravelerConfirmed,
		m.ConfirmedAt,
		m.RejectedAt,
		now,
		m.MatchID,
		m.Version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the match is gone or the version is stale; disambiguate so the
			// service knows whether to retry.
			if _, findErr := r.FindMatchByID(ctx, m.MatchID); findErr != nil {
				return nil, findErr
			}
			return nil, fmt.Errorf("%w: match %s was modified concurrently", apperrors.ErrConflict, m.MatchID)
		}
		return nil, fmt.Errorf("failed to update match %s: %w", m.MatchID, err)
	}

	result := toDomainMatch(updated)
	return &result, nil
}
