package domain

import (
	"errors"
	"strings"
	"time"
)

// CatProfile the single cat tracked by a client (profile table).
type CatProfile struct {
	ID              string     `json:"id"`                        // client-generated UUID, PRIMARY KEY
	Name            string     `json:"name"`                      // NOT NULL
	Breed           string     `json:"breed,omitempty"`           // nullable
	BirthDate       *time.Time `json:"birthDate,omitempty"`       // nullable
	AcquisitionDate *time.Time `json:"acquisitionDate,omitempty"` // "gotcha day", nullable
	Weight          *float64   `json:"weight,omitempty"`          // kilograms, nullable
	PhotoURL        string     `json:"photoUrl,omitempty"`        // nullable
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (p *CatProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("cat name is required")
	}
	if p.Weight != nil && *p.Weight <= 0 {
		return errors.New("weight must be > 0")
	}
	if p.BirthDate != nil && p.BirthDate.After(time.Now()) {
		return errors.New("birth date cannot be in the future")
	}
	return nil
}

// WeightDisplay renders the profile weight in pounds, or "-" when unknown.
func (p *CatProfile) WeightDisplay() string {
	if p == nil || p.Weight == nil {
		return "-"
	}
	return FormatPounds(*p.Weight)
}
