package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is the full working set plus sync bookkeeping. It is the unit that is
// persisted to the local cache, exported, imported and pushed.
type Snapshot struct {
	CatProfile      *CatProfile      `json:"catProfile"`
	WashroomEntries []*WashroomEntry `json:"washroomEntries"`
	FoodEntries     []*FoodEntry     `json:"foodEntries"`
	SleepEntries    []*SleepEntry    `json:"sleepEntries"`
	WeightEntries   []*WeightEntry   `json:"weightEntries"`
	Photos          []*PhotoEntry    `json:"photos"`
	TreatEntries    []*TreatEntry    `json:"treatEntries"`

	// PendingDeletes holds ids deleted locally that the remote has not seen yet.
	PendingDeletes map[Kind][]string `json:"pendingDeletes,omitempty"`
	Dirty          bool              `json:"dirty,omitempty"`
	LastSyncedAt   *time.Time        `json:"lastSyncedAt,omitempty"`
}

// NewSnapshot returns an empty working set with non-nil lists.
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.Normalize()
	return s
}

// Normalize makes every list and every entry's photo list non-nil.
func (s *Snapshot) Normalize() {
	if s.WashroomEntries == nil {
		s.WashroomEntries = []*WashroomEntry{}
	}
	if s.FoodEntries == nil {
		s.FoodEntries = []*FoodEntry{}
	}
	if s.SleepEntries == nil {
		s.SleepEntries = []*SleepEntry{}
	}
	if s.WeightEntries == nil {
		s.WeightEntries = []*WeightEntry{}
	}
	if s.Photos == nil {
		s.Photos = []*PhotoEntry{}
	}
	if s.TreatEntries == nil {
		s.TreatEntries = []*TreatEntry{}
	}
	if s.PendingDeletes == nil {
		s.PendingDeletes = map[Kind][]string{}
	}
	for _, k := range AllKinds {
		for _, e := range s.Entries(k) {
			e.Normalize()
		}
	}
}

// IsEmpty reports whether the snapshot has neither a profile nor any entry.
func (s *Snapshot) IsEmpty() bool {
	if s == nil {
		return true
	}
	if s.CatProfile != nil {
		return false
	}
	for _, k := range AllKinds {
		if len(s.Entries(k)) > 0 {
			return false
		}
	}
	return true
}

// Entries returns the list for kind as the Entry interface, newest first.
func (s *Snapshot) Entries(kind Kind) []Entry {
	var out []Entry
	switch kind {
	case KindWashroom:
		out = make([]Entry, 0, len(s.WashroomEntries))
		for _, e := range s.WashroomEntries {
			out = append(out, e)
		}
	case KindFood:
		out = make([]Entry, 0, len(s.FoodEntries))
		for _, e := range s.FoodEntries {
			out = append(out, e)
		}
	case KindSleep:
		out = make([]Entry, 0, len(s.SleepEntries))
		for _, e := range s.SleepEntries {
			out = append(out, e)
		}
	case KindWeight:
		out = make([]Entry, 0, len(s.WeightEntries))
		for _, e := range s.WeightEntries {
			out = append(out, e)
		}
	case KindPhoto:
		out = make([]Entry, 0, len(s.Photos))
		for _, e := range s.Photos {
			out = append(out, e)
		}
	case KindTreat:
		out = make([]Entry, 0, len(s.TreatEntries))
		for _, e := range s.TreatEntries {
			out = append(out, e)
		}
	}
	return out
}

// SetEntries replaces the list for kind. Entries of another kind are rejected.
func (s *Snapshot) SetEntries(kind Kind, entries []Entry) error {
	switch kind {
	case KindWashroom:
		list := make([]*WashroomEntry, 0, len(entries))
		for _, e := range entries {
			v, ok := e.(*WashroomEntry)
			if !ok {
				return fmt.Errorf("entry %T is not %s", e, kind)
			}
			list = append(list, v)
		}
		s.WashroomEntries = list
	case KindFood:
		list := make([]*FoodEntry, 0, len(entries))
		for _, e := range entries {
			v, ok := e.(*FoodEntry)
			if !ok {
				return fmt.Errorf("entry %T is not %s", e, kind)
			}
			list = append(list, v)
		}
		s.FoodEntries = list
	case KindSleep:
		list := make([]*SleepEntry, 0, len(entries))
		for _, e := range entries {
			v, ok := e.(*SleepEntry)
			if !ok {
				return fmt.Errorf("entry %T is not %s", e, kind)
			}
			list = append(list, v)
		}
		s.SleepEntries = list
	case KindWeight:
		list := make([]*WeightEntry, 0, len(entries))
		for _, e := range entries {
			v, ok := e.(*WeightEntry)
			if !ok {
				return fmt.Errorf("entry %T is not %s", e, kind)
			}
			list = append(list, v)
		}
		s.WeightEntries = list
	case KindPhoto:
		list := make([]*PhotoEntry, 0, len(entries))
		for _, e := range entries {
			v, ok := e.(*PhotoEntry)
			if !ok {
				return fmt.Errorf("entry %T is not %s", e, kind)
			}
			list = append(list, v)
		}
		s.Photos = list
	case KindTreat:
		list := make([]*TreatEntry, 0, len(entries))
		for _, e := range entries {
			v, ok := e.(*TreatEntry)
			if !ok {
				return fmt.Errorf("entry %T is not %s", e, kind)
			}
			list = append(list, v)
		}
		s.TreatEntries = list
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil
}

// Clone returns a deep copy, so callers can work on it outside a lock.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return NewSnapshot()
	}
	var out Snapshot
	if err := json.Unmarshal(b, &out); err != nil {
		return NewSnapshot()
	}
	out.Normalize()
	return &out
}

// DecodeSnapshot parses a stored snapshot. Malformed input is an error; the
// caller decides whether to treat it as "no data".
func DecodeSnapshot(b []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	s.Normalize()
	return &s, nil
}

// EncodeSnapshot serializes a snapshot with ISO-8601 timestamps.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}
