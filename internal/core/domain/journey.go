package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JourneyStatus is the lifecycle state of a journey as reported by the Journey Source.
type JourneyStatus string

const (
	JourneyActive    JourneyStatus = "ACTIVE"
	JourneyDeparted  JourneyStatus = "DEPARTED"
	JourneyCompleted JourneyStatus = "COMPLETED"
	JourneyCancelled JourneyStatus = "CANCELLED"
)

// JourneySummary is the read-only view of a traveler's trip the matching engine
// works with. An empty PreferredItemTypes means the traveler accepts any item type.
type JourneySummary struct {
	JourneyID          int64           `json:"journeyID"`
	OwnerID            string          `json:"ownerID"`
	FromCountry        string          `json:"fromCountry"`
	FromCity           string          `json:"fromCity"`
	ToCountry          string          `json:"toCountry"`
	ToCity             string          `json:"toCity"`
	AvailableWeightKg  decimal.Decimal `json:"availableWeightKg"`
	PreferredItemTypes []string        `json:"preferredItemTypes"`
	DepartureDate      time.Time       `json:"departureDate"`
	Status             JourneyStatus   `json:"status"`
}
