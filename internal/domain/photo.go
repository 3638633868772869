package domain

import (
	"fmt"
	"strings"
	"time"
)

// PhotoEntry a gallery photo (photo table).
type PhotoEntry struct {
	ID          string    `json:"id"`
	CatID       string    `json:"catId"`
	ImageURL    string    `json:"imageUrl"`
	UploadDate  time.Time `json:"uploadDate"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags"` // serialized string column
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e *PhotoEntry) EntryKind() Kind { return KindPhoto }
func (e *PhotoEntry) EntryID() string { return e.ID }
func (e *PhotoEntry) OwnerID() string { return e.CatID }
func (e *PhotoEntry) CreatedTime() time.Time { return e.CreatedAt }
func (e *PhotoEntry) OccurredAt() time.Time { return e.UploadDate }

func (e *PhotoEntry) SetIdentity(id, catID string, createdAt time.Time) {
	e.ID, e.CatID, e.CreatedAt = id, catID, createdAt
}

func (e *PhotoEntry) Normalize() { e.Tags = NonNil(e.Tags) }

func (e *PhotoEntry) Validate() error {
	if strings.TrimSpace(e.ImageURL) == "" {
		return fmt.Errorf("image url is required")
	}
	if e.UploadDate.IsZero() {
		return fmt.Errorf("upload date is required")
	}
	return nil
}
