package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

// MemoryRepo keeps profiles and entries in maps for the API's in-memory mode and
// handler tests. It mirrors the SQL semantics, including cascade.
type MemoryRepo struct {
	mu sync.RWMutex

	profiles map[string]*domain.CatProfile
	entries  map[domain.Kind]map[string]domain.Entry // kind -> id -> entry
}

func NewMemoryRepo() *MemoryRepo {
	r := &MemoryRepo{
		profiles: map[string]*domain.CatProfile{},
		entries:  map[domain.Kind]map[string]domain.Entry{},
	}
	for _, k := range domain.AllKinds {
		r.entries[k] = map[string]domain.Entry{}
	}
	return r
}

// MemoryProfileRepository and MemoryEntriesRepository are views over one MemoryRepo.
type (
	MemoryProfileRepository struct{ *MemoryRepo }
	MemoryEntriesRepository struct{ *MemoryRepo }
)

var (
	_ ProfileRepository = MemoryProfileRepository{}
	_ EntriesRepository = MemoryEntriesRepository{}
)

func (r *MemoryRepo) Profiles() MemoryProfileRepository { return MemoryProfileRepository{r} }
func (r *MemoryRepo) Entries() MemoryEntriesRepository  { return MemoryEntriesRepository{r} }

// ---- profile ----

func (r MemoryProfileRepository) GetLatest(_ context.Context) (*domain.CatProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domain.CatProfile
	for _, p := range r.profiles {
		if latest == nil || newerProfile(p, latest) {
			latest = p
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("profile: %w", ErrNotFound)
	}
	cp := *latest
	return &cp, nil
}

// newerProfile orders like the SQL store: updated_at, then created_at.
func newerProfile(a, b *domain.CatProfile) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (r MemoryProfileRepository) Get(_ context.Context, id string) (*domain.CatProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r MemoryProfileRepository) Save(_ context.Context, p *domain.CatProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	if old, ok := r.profiles[p.ID]; ok {
		cp.CreatedAt = old.CreatedAt
	}
	r.profiles[p.ID] = &cp
	return nil
}

func (r MemoryProfileRepository) Update(_ context.Context, p *domain.CatProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.profiles[p.ID]
	if !ok {
		return fmt.Errorf("profile %s: %w", p.ID, ErrNotFound)
	}
	cp := *p
	cp.CreatedAt = old.CreatedAt
	r.profiles[p.ID] = &cp
	return nil
}

func (r MemoryProfileRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[id]; !ok {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	delete(r.profiles, id)
	for _, byID := range r.entries {
		for eid, e := range byID {
			if e.OwnerID() == id {
				delete(byID, eid)
			}
		}
	}
	return nil
}

// ---- entries ----

func (r MemoryEntriesRepository) List(_ context.Context, kind domain.Kind, catID string) ([]domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byID, ok := r.entries[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	out := []domain.Entry{}
	for _, e := range byID {
		if catID == "" || e.OwnerID() == catID {
			out = append(out, cloneEntry(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt().After(out[j].OccurredAt()) })
	return out, nil
}

func (r MemoryEntriesRepository) Get(_ context.Context, kind domain.Kind, id string) (domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[kind][id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return cloneEntry(e), nil
}

func (r MemoryEntriesRepository) Upsert(_ context.Context, e domain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsertLocked(e)
}

func (r *MemoryRepo) upsertLocked(e domain.Entry) error {
	byID, ok := r.entries[e.EntryKind()]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownKind, e.EntryKind())
	}
	if e.EntryID() == "" || e.OwnerID() == "" {
		return fmt.Errorf("%s entry requires id and cat_id", e.EntryKind())
	}
	if _, ok := r.profiles[e.OwnerID()]; !ok {
		return fmt.Errorf("profile %s: %w", e.OwnerID(), ErrNotFound)
	}
	e.Normalize()
	byID[e.EntryID()] = cloneEntry(e)
	return nil
}

func (r MemoryEntriesRepository) Delete(_ context.Context, kind domain.Kind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[kind][id]; !ok {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	delete(r.entries[kind], id)
	return nil
}

func (r MemoryEntriesRepository) ApplyBatch(_ context.Context, kind domain.Kind, upserts []domain.Entry, deletes []string) (BatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.entries[kind]
	if !ok {
		return BatchResult{}, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}

	// validate first so a failed batch changes nothing
	for _, e := range upserts {
		if e.EntryKind() != kind {
			return BatchResult{}, fmt.Errorf("batch for %s contains %s entry", kind, e.EntryKind())
		}
		if _, ok := r.profiles[e.OwnerID()]; !ok || e.EntryID() == "" {
			return BatchResult{}, fmt.Errorf("%s %s: invalid owner or id", kind, e.EntryID())
		}
	}

	var res BatchResult
	for _, e := range upserts {
		if err := r.upsertLocked(e); err != nil {
			return res, err
		}
		res.Upserted++
	}
	for _, id := range deletes {
		if _, ok := byID[id]; ok {
			delete(byID, id)
			res.Deleted++
		}
	}
	return res, nil
}

func cloneEntry(e domain.Entry) domain.Entry {
	out, _ := domain.NewEntry(e.EntryKind())
	b, err := json.Marshal(e)
	if err != nil {
		return e
	}
	if err := json.Unmarshal(b, out); err != nil {
		return e
	}
	return out
}
