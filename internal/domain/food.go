package domain

import (
	"fmt"
	"strings"
	"time"
)

var (
	foodCategories = []string{"dry", "wet"}
	foodUnits      = []string{"grams", "cups", "pieces", "portions"}
)

// FoodEntry a feeding (food table).
type FoodEntry struct {
	ID             string    `json:"id"`
	CatID          string    `json:"catId"`
	Timestamp      time.Time `json:"timestamp"`
	FoodCategory   string    `json:"foodCategory"` // dry / wet
	FoodType       string    `json:"foodType"`     // free text
	Brand          string    `json:"brand,omitempty"`
	Amount         float64   `json:"amount"`
	Unit           string    `json:"unit"`                     // grams / cups / pieces / portions
	PortionToGrams *float64  `json:"portionToGrams,omitempty"` // grams per portion, nullable
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (e *FoodEntry) EntryKind() Kind { return KindFood }
func (e *FoodEntry) EntryID() string { return e.ID }
func (e *FoodEntry) OwnerID() string { return e.CatID }
func (e *FoodEntry) CreatedTime() time.Time { return e.CreatedAt }
func (e *FoodEntry) OccurredAt() time.Time { return e.Timestamp }

func (e *FoodEntry) SetIdentity(id, catID string, createdAt time.Time) {
	e.ID, e.CatID, e.CreatedAt = id, catID, createdAt
}

func (e *FoodEntry) Normalize() {}

func (e *FoodEntry) Validate() error {
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if err := oneOf("food category", e.FoodCategory, foodCategories, false); err != nil {
		return err
	}
	if strings.TrimSpace(e.FoodType) == "" {
		return fmt.Errorf("food type is required")
	}
	if e.Amount <= 0 {
		return fmt.Errorf("amount must be > 0")
	}
	if err := oneOf("unit", e.Unit, foodUnits, false); err != nil {
		return err
	}
	if e.PortionToGrams != nil && *e.PortionToGrams <= 0 {
		return fmt.Errorf("portion-to-grams must be > 0")
	}
	return nil
}

// Grams converts the amount to grams when the unit allows it.
func (e *FoodEntry) Grams() (float64, bool) {
	switch e.Unit {
	case "grams":
		return e.Amount, true
	case "portions":
		if e.PortionToGrams != nil {
			return e.Amount * *e.PortionToGrams, true
		}
	}
	return 0, false
}
