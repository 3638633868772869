package domain

import (
	"fmt"
	"time"
)

// WeightEntry a weigh-in (weight table).
type WeightEntry struct {
	ID              string    `json:"id"`
	CatID           string    `json:"catId"`
	Weight          float64   `json:"weight"` // kilograms
	MeasurementDate time.Time `json:"measurementDate"`
	Photos          []string  `json:"photos"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (e *WeightEntry) EntryKind() Kind { return KindWeight }
func (e *WeightEntry) EntryID() string { return e.ID }
func (e *WeightEntry) OwnerID() string { return e.CatID }
func (e *WeightEntry) CreatedTime() time.Time { return e.CreatedAt }
func (e *WeightEntry) OccurredAt() time.Time { return e.MeasurementDate }

func (e *WeightEntry) SetIdentity(id, catID string, createdAt time.Time) {
	e.ID, e.CatID, e.CreatedAt = id, catID, createdAt
}

func (e *WeightEntry) Normalize() { e.Photos = NonNil(e.Photos) }

func (e *WeightEntry) Validate() error {
	if e.Weight <= 0 {
		return fmt.Errorf("weight must be > 0")
	}
	if e.MeasurementDate.IsZero() {
		return fmt.Errorf("measurement date is required")
	}
	return nil
}
