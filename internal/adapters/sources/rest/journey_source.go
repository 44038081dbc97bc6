package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/carrylink/carrylink_backend/internal/apperrors"
	"github.com/carrylink/carrylink_backend/internal/core/domain"
	"github.com/carrylink/carrylink_backend/internal/core/ports/sources"
)

// JourneySourceClient talks to the journey service's read API.
type JourneySourceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewJourneySource creates a Journey Source client for the given base URL.
func NewJourneySource(baseURL string) sources.JourneySource {
	return &JourneySourceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

var _ sources.JourneySource = (*JourneySourceClient)(nil)

// GetJourneyByID retrieves one journey summary.
func (c *JourneySourceClient) GetJourneyByID(ctx context.Context, journeyID int64) (*domain.JourneySummary, error) {
	endpoint := c.baseURL + "/journeys/" + strconv.FormatInt(journeyID, 10)

	var journey domain.JourneySummary
	if err := c.getJSON(ctx, endpoint, &journey); err != nil {
		return nil, err
	}
	return &journey, nil
}

// ListJourneysByStatus retrieves all journeys in the given status; the filter is
// applied server-side.
func (c *JourneySourceClient) ListJourneysByStatus(ctx context.Context, status domain.JourneyStatus) ([]domain.JourneySummary, error) {
	endpoint := c.baseURL + "/journeys?status=" + url.QueryEscape(string(status))

	var journeys []domain.JourneySummary
	if err := c.getJSON(ctx, endpoint, &journeys); err != nil {
		return nil, err
	}
	return journeys, nil
}

func (c *JourneySourceClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build journey source request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("journey source request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return apperrors.NewAppError(resp.StatusCode, "journey source returned "+resp.Status, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode journey source response: %w", err)
	}
	return nil
}
