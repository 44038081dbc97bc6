// Package rest implements the Demand Source and Journey Source ports as thin REST
// clients against the owning services. Calls are synchronous blocking I/O; the
// matching service never holds ledger state while one is in flight.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/carrylink/carrylink_backend/internal/apperrors"
	"github.com/carrylink/carrylink_backend/internal/core/domain"
	"github.com/carrylink/carrylink_backend/internal/core/ports/sources"
)

const defaultTimeout = 10 * time.Second

// DemandSourceClient talks to the demand service's read API.
type DemandSourceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDemandSource creates a Demand Source client for the given base URL.
func NewDemandSource(baseURL string) sources.DemandSource {
	return &DemandSourceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

var _ sources.DemandSource = (*DemandSourceClient)(nil)

// GetDemandByID retrieves one demand summary.
func (c *DemandSourceClient) GetDemandByID(ctx context.Context, demandID string) (*domain.DemandSummary, error) {
	endpoint := c.baseURL + "/demands/" + url.PathEscape(demandID)

	var demand domain.DemandSummary
	if err := c.getJSON(ctx, endpoint, &demand); err != nil {
		return nil, err
	}
	return &demand, nil
}

// ListDemandsByStatus retrieves all demands in the given status; the filter is
// applied server-side.
func (c *DemandSourceClient) ListDemandsByStatus(ctx context.Context, status domain.DemandStatus) ([]domain.DemandSummary, error) {
	endpoint := c.baseURL + "/demands?status=" + url.QueryEscape(string(status))

	var demands []domain.DemandSummary
	if err := c.getJSON(ctx, endpoint, &demands); err != nil {
		return nil, err
	}
	return demands, nil
}

func (c *DemandSourceClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build demand source request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("demand source request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return apperrors.NewAppError(resp.StatusCode, "demand source returned "+resp.Status, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode demand source response: %w", err)
	}
	return nil
}
