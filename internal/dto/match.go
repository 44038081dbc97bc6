package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carrylink/carrylink_backend/internal/core/domain"
)

// ConfirmMatchRequest carries one side's confirmation decision.
// Accept is a pointer so that an explicit false (reject) passes the required check.
type ConfirmMatchRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// ListMatchesRequest holds the query parameters for listing the caller's matches.
type ListMatchesRequest struct {
	Status    *string `form:"status" binding:"omitempty,matchstatus"`
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// MatchResponse defines the data returned for a match.
// Mirrors domain.Match.
type MatchResponse struct {
	MatchID           string             `json:"matchID"`
	DemandID          string             `json:"demandID"`
	JourneyID         int64              `json:"journeyID"`
	DemandOwnerID     string             `json:"demandOwnerID"`
	JourneyOwnerID    string             `json:"journeyOwnerID"`
	Status            domain.MatchStatus `json:"status"`
	Score             float64            `json:"score"`
	DemanderConfirmed bool               `json:"demanderConfirmed"`
	TravelerConfirmed bool               `json:"travelerConfirmed"`
	MatchedAt         time.Time          `json:"matchedAt"`
	ConfirmedAt       *time.Time         `json:"confirmedAt,omitempty"`
	RejectedAt        *time.Time         `json:"rejectedAt,omitempty"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// DemandSummaryResponse mirrors domain.DemandSummary for display enrichment.
type DemandSummaryResponse struct {
	DemandID           string          `json:"demandID"`
	OwnerID            string          `json:"ownerID"`
	OriginCountry      string          `json:"originCountry"`
	OriginCity         string          `json:"originCity"`
	DestinationCountry string          `json:"destinationCountry"`
	DestinationCity    string          `json:"destinationCity"`
	WeightKg           decimal.Decimal `json:"weightKg"`
	ItemType           string          `json:"itemType"`
	Deadline           time.Time       `json:"deadline"`
	Status             string          `json:"status"`
}

// JourneySummaryResponse mirrors domain.JourneySummary for display enrichment.
type JourneySummaryResponse struct {
	JourneyID          int64           `json:"journeyID"`
	OwnerID            string          `json:"ownerID"`
	FromCountry        string          `json:"fromCountry"`
	FromCity           string          `json:"fromCity"`
	ToCountry          string          `json:"toCountry"`
	ToCity             string          `json:"toCity"`
	AvailableWeightKg  decimal.Decimal `json:"availableWeightKg"`
	PreferredItemTypes []string        `json:"preferredItemTypes"`
	DepartureDate      time.Time       `json:"departureDate"`
	Status             string          `json:"status"`
}

// MatchDetailResponse is a match with its best-effort counterpart summaries.
// Either summary may be absent when the counterpart could not be fetched.
type MatchDetailResponse struct {
	Match   MatchResponse           `json:"match"`
	Demand  *DemandSummaryResponse  `json:"demand,omitempty"`
	Journey *JourneySummaryResponse `json:"journey,omitempty"`
}

// ListMatchesResponse is a page of match details plus the token for the next page.
type ListMatchesResponse struct {
	Matches   []MatchDetailResponse `json:"matches"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// ToMatchResponse converts a domain.Match to MatchResponse DTO
func ToMatchResponse(m *domain.Match) MatchResponse {
	return MatchResponse{
		MatchID:           m.MatchID,
		DemandID:          m.DemandID,
		JourneyID:         m.JourneyID,
		DemandOwnerID:     m.DemandOwnerID,
		JourneyOwnerID:    m.JourneyOwnerID,
		Status:            m.Status,
		Score:             m.Score,
		DemanderConfirmed: m.DemanderConfirmed,
		TravelerConfirmed: m.TravelerConfirmed,
		MatchedAt:         m.MatchedAt,
		ConfirmedAt:       m.ConfirmedAt,
		RejectedAt:        m.RejectedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toDemandSummaryResponse(d *domain.DemandSummary) *DemandSummaryResponse {
	if d == nil {
		return nil
	}
	return &DemandSummaryResponse{
		DemandID:           d.DemandID,
		OwnerID:            d.OwnerID,
		OriginCountry:      d.OriginCountry,
		OriginCity:         d.OriginCity,
		DestinationCountry: d.DestinationCountry,
		DestinationCity:    d.DestinationCity,
		WeightKg:           d.WeightKg,
		ItemType:           d.ItemType,
		Deadline:           d.Deadline,
		Status:             string(d.Status),
	}
}

func toJourneySummaryResponse(j *domain.JourneySummary) *JourneySummaryResponse {
	if j == nil {
		return nil
	}
	return &JourneySummaryResponse{
		JourneyID:          j.JourneyID,
		OwnerID:            j.OwnerID,
		FromCountry:        j.FromCountry,
		FromCity:           j.FromCity,
		ToCountry:          j.ToCountry,
		ToCity:             j.ToCity,
		AvailableWeightKg:  j.AvailableWeightKg,
		PreferredItemTypes: j.PreferredItemTypes,
		DepartureDate:      j.DepartureDate,
		Status:             string(j.Status),
	}
}

// ToMatchDetailResponse converts a domain.MatchDetail to MatchDetailResponse DTO
func ToMatchDetailResponse(d domain.MatchDetail) MatchDetailResponse {
	return MatchDetailResponse{
		Match:   ToMatchResponse(&d.Match),
		Demand:  toDemandSummaryResponse(d.Demand),
		Journey: toJourneySummaryResponse(d.Journey),
	}
}

// ToListMatchDetailResponse converts a slice of domain.MatchDetail to DTOs
func ToListMatchDetailResponse(details []domain.MatchDetail) []MatchDetailResponse {
	res := make([]MatchDetailResponse, len(details))
	for i, d := range details {
		res[i] = ToMatchDetailResponse(d)
	}
	return res
}
