package domain

import (
	"fmt"
	"time"
)

const (
	WashroomUrination  = "urination"
	WashroomDefecation = "defecation"
	WashroomBoth       = "both"
)

var (
	washroomTypes       = []string{WashroomUrination, WashroomDefecation, WashroomBoth}
	washroomConsistency = []string{"normal", "soft", "hard", "diarrhea"}
	washroomColors      = []string{"normal", "dark", "light", "unusual"}
)

// WashroomEntry litter box visit (washroom table).
type WashroomEntry struct {
	ID          string    `json:"id"`
	CatID       string    `json:"catId"`                 // FK to profile, ON DELETE CASCADE
	Timestamp   time.Time `json:"timestamp"`             // NOT NULL
	Type        string    `json:"type"`                  // urination / defecation / both
	Consistency string    `json:"consistency,omitempty"` // normal / soft / hard / diarrhea, nullable
	HasBlood    bool      `json:"hasBlood"`              // BOOLEAN (INTEGER 0/1 on SQLite)
	Color       string    `json:"color,omitempty"`       // normal / dark / light / unusual, nullable
	Photos      []string  `json:"photos"`                // serialized string column
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e *WashroomEntry) EntryKind() Kind { return KindWashroom }
func (e *WashroomEntry) EntryID() string { return e.ID }
func (e *WashroomEntry) OwnerID() string { return e.CatID }
func (e *WashroomEntry) CreatedTime() time.Time { return e.CreatedAt }
func (e *WashroomEntry) OccurredAt() time.Time { return e.Timestamp }

func (e *WashroomEntry) SetIdentity(id, catID string, createdAt time.Time) {
	e.ID, e.CatID, e.CreatedAt = id, catID, createdAt
}

func (e *WashroomEntry) Normalize() { e.Photos = NonNil(e.Photos) }

func (e *WashroomEntry) Validate() error {
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if err := oneOf("type", e.Type, washroomTypes, false); err != nil {
		return err
	}
	if err := oneOf("consistency", e.Consistency, washroomConsistency, true); err != nil {
		return err
	}
	return oneOf("color", e.Color, washroomColors, true)
}
