package domain

import (
	"errors"
	"fmt"
	"time"
)

// Kind names an entry collection. The value doubles as the REST path segment.
type Kind string

const (
	KindWashroom Kind = "washroom"
	KindFood     Kind = "food"
	KindSleep    Kind = "sleep"
	KindWeight   Kind = "weight"
	KindPhoto    Kind = "photos"
	KindTreat    Kind = "treats"
)

// ErrUnknownKind is returned for a kind outside AllKinds.
var ErrUnknownKind = errors.New("unknown entry kind")

// AllKinds lists every entry kind in push order.
var AllKinds = []Kind{KindWashroom, KindFood, KindSleep, KindWeight, KindPhoto, KindTreat}

// ParseKind accepts the canonical path name plus a few singular/plural aliases used on the CLI.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "washroom", "litter":
		return KindWashroom, nil
	case "food", "feeding":
		return KindFood, nil
	case "sleep":
		return KindSleep, nil
	case "weight":
		return KindWeight, nil
	case "photos", "photo":
		return KindPhoto, nil
	case "treats", "treat":
		return KindTreat, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Entry is implemented by the pointer form of every entry type.
type Entry interface {
	EntryKind() Kind
	EntryID() string
	OwnerID() string
	CreatedTime() time.Time
	// OccurredAt is the event time lists are ordered by (newest first).
	OccurredAt() time.Time
	// SetIdentity stamps the identifier, owning cat and creation time.
	SetIdentity(id, catID string, createdAt time.Time)
	// Normalize replaces nil slices with empty ones so JSON never carries null arrays.
	Normalize()
	Validate() error
}

// NewEntry returns an empty entry of the given kind, ready for decoding.
func NewEntry(kind Kind) (Entry, error) {
	switch kind {
	case KindWashroom:
		return &WashroomEntry{}, nil
	case KindFood:
		return &FoodEntry{}, nil
	case KindSleep:
		return &SleepEntry{}, nil
	case KindWeight:
		return &WeightEntry{}, nil
	case KindPhoto:
		return &PhotoEntry{}, nil
	case KindTreat:
		return &TreatEntry{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
