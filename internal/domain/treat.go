package domain

import (
	"fmt"
	"strings"
	"time"
)

// TreatEntry a treat given (treat table).
type TreatEntry struct {
	ID        string    `json:"id"`
	CatID     string    `json:"catId"`
	Timestamp time.Time `json:"timestamp"`
	TreatType string    `json:"treatType"`
	Brand     string    `json:"brand,omitempty"`
	Quantity  float64   `json:"quantity"`
	Calories  *float64  `json:"calories,omitempty"` // per serving, nullable
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e *TreatEntry) EntryKind() Kind { return KindTreat }
func (e *TreatEntry) EntryID() string { return e.ID }
func (e *TreatEntry) OwnerID() string { return e.CatID }
func (e *TreatEntry) CreatedTime() time.Time { return e.CreatedAt }
func (e *TreatEntry) OccurredAt() time.Time { return e.Timestamp }

func (e *TreatEntry) SetIdentity(id, catID string, createdAt time.Time) {
	e.ID, e.CatID, e.CreatedAt = id, catID, createdAt
}

func (e *TreatEntry) Normalize() {}

func (e *TreatEntry) Validate() error {
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if strings.TrimSpace(e.TreatType) == "" {
		return fmt.Errorf("treat type is required")
	}
	if e.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0")
	}
	return nil
}
