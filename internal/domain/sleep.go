package domain

import (
	"fmt"
	"time"
)

var sleepQualities = []string{"restful", "normal", "restless"}

// SleepEntry a nap (sleep table). Duration is derived at creation only.
type SleepEntry struct {
	ID        string    `json:"id"`
	CatID     string    `json:"catId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Duration  int       `json:"duration"`          // minutes, >= 0
	Quality   string    `json:"quality,omitempty"` // restful / normal / restless, nullable
	Location  string    `json:"location"`          // enum or free text
	Photos    []string  `json:"photos"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e *SleepEntry) EntryKind() Kind { return KindSleep }
func (e *SleepEntry) EntryID() string { return e.ID }
func (e *SleepEntry) OwnerID() string { return e.CatID }
func (e *SleepEntry) CreatedTime() time.Time { return e.CreatedAt }
func (e *SleepEntry) OccurredAt() time.Time { return e.StartTime }

func (e *SleepEntry) SetIdentity(id, catID string, createdAt time.Time) {
	e.ID, e.CatID, e.CreatedAt = id, catID, createdAt
}

func (e *SleepEntry) Normalize() { e.Photos = NonNil(e.Photos) }

func (e *SleepEntry) Validate() error {
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return fmt.Errorf("start and end time are required")
	}
	if !e.EndTime.After(e.StartTime) {
		return fmt.Errorf("end time must be after start time")
	}
	return oneOf("quality", e.Quality, sleepQualities, true)
}

// Recalculate recomputes Duration from the current start and end times.
func (e *SleepEntry) Recalculate() {
	e.Duration = SleepMinutes(e.StartTime, e.EndTime)
}

// SleepMinutes returns whole minutes between start and end, never negative.
func SleepMinutes(start, end time.Time) int {
	d := int(end.Sub(start) / time.Minute)
	if d < 0 {
		return 0
	}
	return d
}
