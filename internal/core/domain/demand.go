package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DemandStatus is the lifecycle state of a demand as reported by the Demand Source.
type DemandStatus string

const (
	DemandPending   DemandStatus = "PENDING"
	DemandMatched   DemandStatus = "MATCHED"
	DemandDelivered DemandStatus = "DELIVERED"
	DemandCancelled DemandStatus = "CANCELLED"
)

// DemandSummary is the read-only view of a demand the matching engine works with.
// Demands are owned by the Demand Source; the engine never mutates them.
type DemandSummary struct {
	DemandID           string          `json:"demandID"`
	OwnerID            string          `json:"ownerID"`
	OriginCountry      string          `json:"originCountry"`
	OriginCity         string          `json:"originCity"`
	DestinationCountry string          `json:"destinationCountry"`
	DestinationCity    string          `json:"destinationCity"`
	WeightKg           decimal.Decimal `json:"weightKg"`
	ItemType           string          `json:"itemType"`
	Deadline           time.Time       `json:"deadline"`
	Status             DemandStatus    `json:"status"`
}
