package domain

// MatchDetail is a match enriched with the counterpart summaries for display.
// Enrichment is best-effort: either summary may be nil when the counterpart could
// not be fetched (deleted upstream, remote failure); the match itself is still
// returned.
type MatchDetail struct {
	Match   Match           `json:"match"`
	Demand  *DemandSummary  `json:"demand,omitempty"`
	Journey *JourneySummary `json:"journey,omitempty"`
}
