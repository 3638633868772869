// Package portability moves a working set in and out of files: a versioned
// JSON envelope that can be imported again, and a read-only .xlsx workbook.
package portability

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

// FormatVersion is written to every export. Import accepts this version and
// older ones.
const FormatVersion = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported export version")
	ErrNoData             = errors.New("import file holds no profile and no entries")
	ErrNoProfile          = errors.New("import file holds entries but no profile")
	ErrInvalidData        = errors.New("import file holds invalid data")
)

// Envelope is the JSON export file.
type Envelope struct {
	App        string           `json:"app"`
	Version    int              `json:"version"`
	ExportedAt time.Time        `json:"exportedAt"`
	Data       *domain.Snapshot `json:"data"`
}

// ExportJSON writes snap without its sync bookkeeping.
func ExportJSON(w io.Writer, snap *domain.Snapshot, now time.Time) error {
	data := snap.Clone()
	if data == nil {
		data = domain.NewSnapshot()
	}
	data.PendingDeletes = nil
	data.Dirty = false
	data.LastSyncedAt = nil

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Envelope{App: "cat-tracker", Version: FormatVersion, ExportedAt: now.UTC(), Data: data}); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ImportJSON reads an export. A bare snapshot object without the envelope is
// accepted too. Entries without an owning cat are assigned to the profile.
// The whole file is rejected when the profile or any entry fails validation,
// naming every offending record.
func ImportJSON(r io.Reader) (*domain.Snapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}

	var env struct {
		Version int             `json:"version"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse import: %w", err)
	}
	if env.Version > FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	body := []byte(env.Data)
	if len(env.Data) == 0 {
		body = raw
	}

	snap, err := domain.DecodeSnapshot(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse import: %w", err)
	}
	if snap.IsEmpty() {
		return nil, ErrNoData
	}
	if snap.CatProfile == nil {
		return nil, ErrNoProfile
	}

	snap.PendingDeletes = map[domain.Kind][]string{}
	snap.Dirty = false
	snap.LastSyncedAt = nil
	if snap.CatProfile.ID == "" {
		snap.CatProfile.ID = uuid.NewString()
	}
	if err := validate(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// validate assigns owners and ids, then checks every record.
func validate(snap *domain.Snapshot) error {
	var errs []error
	if err := snap.CatProfile.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("profile: %w", err))
	}
	for _, kind := range domain.AllKinds {
		for i, e := range snap.Entries(kind) {
			id, owner := e.EntryID(), e.OwnerID()
			if id == "" {
				id = uuid.NewString()
			}
			if owner == "" {
				owner = snap.CatProfile.ID
			}
			e.SetIdentity(id, owner, e.CreatedTime())
			e.Normalize()
			if err := e.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s #%d (%s): %w", kind, i+1, id, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidData, errors.Join(errs...))
	}
	return nil
}
