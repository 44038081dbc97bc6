// Package compat holds the pure compatibility rules between demands and journeys:
// the hard eligibility constraints and the deterministic match score.
// Both functions are side-effect free and depend only on their inputs.
package compat

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/carrylink/carrylink_backend/internal/core/domain"
)

const (
	// baseScore is awarded to every eligible pair; eligibility already guarantees
	// route compatibility.
	baseScore = 0.6
	// weightBonusMax scales with how much spare capacity the journey has relative
	// to the demand's weight.
	weightBonusMax = 0.1
	// preferenceBonus applies when the traveler explicitly lists the demand's item type.
	preferenceBonus = 0.1
	// leadTimeBonusMax caps the lead-time bonus; at leadTimePerDay it saturates
	// after roughly a week of lead time.
	leadTimeBonusMax = 0.1
	leadTimePerDay   = 0.015
	// exactCityBonus duplicates a condition eligibility already requires, so it
	// fires for every eligible pair. Kept as-is until product says otherwise.
	exactCityBonus = 0.1

	// MinPersistScore is the threshold below which an eligible pair is discarded
	// without being recorded.
	MinPersistScore = 0.5
)

// Eligible reports whether the demand and journey are compatible candidates.
// All constraints must hold: same origin and destination (case-insensitive, no
// fuzzy matching), enough spare capacity, departure strictly before the deadline,
// and the journey's preferred item types (when non-empty) must include the
// demand's item type.
func Eligible(d domain.DemandSummary, j domain.JourneySummary) bool {
	if !strings.EqualFold(d.OriginCountry, j.FromCountry) || !strings.EqualFold(d.OriginCity, j.FromCity) {
		return false
	}
	if !strings.EqualFold(d.DestinationCountry, j.ToCountry) || !strings.EqualFold(d.DestinationCity, j.ToCity) {
		return false
	}
	if j.AvailableWeightKg.LessThan(d.WeightKg) {
		return false
	}
	// Equal dates are not eligible: the journey must depart before the deadline.
	if !j.DepartureDate.Before(d.Deadline) {
		return false
	}
	if len(j.PreferredItemTypes) > 0 && !slices.Contains(j.PreferredItemTypes, d.ItemType) {
		return false
	}
	return true
}

// Score computes the compatibility score in [0, 1] for an eligible pair.
// Eligibility is a precondition and is not re-checked here.
func Score(d domain.DemandSummary, j domain.JourneySummary) float64 {
	score := baseScore

	ratio := 1.0
	if d.WeightKg.IsPositive() {
		ratio = j.AvailableWeightKg.Div(d.WeightKg).InexactFloat64()
	}
	score += weightBonusMax * math.Min(1.0, ratio)

	if len(j.PreferredItemTypes) > 0 && slices.Contains(j.PreferredItemTypes, d.ItemType) {
		score += preferenceBonus
	}

	days := daysBetween(j.DepartureDate, d.Deadline)
	if days < 0 {
		days = 0
	}
	score += math.Min(leadTimeBonusMax, float64(days)*leadTimePerDay)

	if strings.EqualFold(d.OriginCity, j.FromCity) && strings.EqualFold(d.DestinationCity, j.ToCity) {
		score += exactCityBonus
	}

	return math.Min(1.0, math.Max(0.0, score))
}

// daysBetween returns the number of whole days from a to b.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
