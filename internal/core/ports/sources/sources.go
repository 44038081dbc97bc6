// Package sources defines the read interfaces for the external services that own
// demands and journeys. The matching engine only ever reads from them; creation,
// mutation and persistence of those entities live with their owning services.
package sources

import (
	"context"

	"github.com/carrylink/carrylink_backend/internal/core/domain"
)

// DemandSource supplies demand summaries from the demand service.
type DemandSource interface {
	// GetDemandByID retrieves one demand. Returns apperrors.ErrNotFound when the
	// demand does not exist (or was deleted).
	GetDemandByID(ctx context.Context, demandID string) (*domain.DemandSummary, error)

	// ListDemandsByStatus retrieves all demands in the given status. The filter is
	// applied server-side by the source.
	ListDemandsByStatus(ctx context.Context, status domain.DemandStatus) ([]domain.DemandSummary, error)
}

// JourneySource supplies journey summaries from the journey service.
type JourneySource interface {
	// GetJourneyByID retrieves one journey. Returns apperrors.ErrNotFound when the
	// journey does not exist (or was deleted).
	GetJourneyByID(ctx context.Context, journeyID int64) (*domain.JourneySummary, error)

	// ListJourneysByStatus retrieves all journeys in the given status. The filter
	// is applied server-side by the source.
	ListJourneysByStatus(ctx context.Context, status domain.JourneyStatus) ([]domain.JourneySummary, error)
}
