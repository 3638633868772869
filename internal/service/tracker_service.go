package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
	"github.com/duaragha/cat-tracker-sub000/internal/repository"
	"github.com/duaragha/cat-tracker-sub000/internal/stats"
)

// ErrInvalid wraps validation failures so handlers can answer 400.
var ErrInvalid = errors.New("invalid request")

// TrackerService is the API's business layer over the profile and entry repositories.
type TrackerService struct {
	profiles repository.ProfileRepository
	entries  repository.EntriesRepository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewTrackerService(profiles repository.ProfileRepository, entries repository.EntriesRepository, notifier Notifier, logger *zap.Logger) *TrackerService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TrackerService{
		profiles: profiles,
		entries:  entries,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ---- profile ----

// GetProfile returns the latest profile, or nil when none exists.
func (s *TrackerService) GetProfile(ctx context.Context) (*domain.CatProfile, error) {
	p, err := s.profiles.GetLatest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// SaveProfile creates the profile, or replaces it when p.ID already exists.
func (s *TrackerService) SaveProfile(ctx context.Context, p *domain.CatProfile) (*domain.CatProfile, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	now := s.now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Change{Kind: ProfileKind, Action: ActionUpsert, ID: p.ID, CatID: p.ID, At: now})
	return s.profiles.Get(ctx, p.ID)
}

// UpdateProfile replaces the profile with the given id; repository.ErrNotFound when absent.
func (s *TrackerService) UpdateProfile(ctx context.Context, id string, p *domain.CatProfile) (*domain.CatProfile, error) {
	p.ID = id
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	now := s.now()
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Change{Kind: ProfileKind, Action: ActionUpsert, ID: id, CatID: id, At: now})
	return s.profiles.Get(ctx, id)
}

func (s *TrackerService) DeleteProfile(ctx context.Context, id string) error {
	if err := s.profiles.Delete(ctx, id); err != nil {
		return err
	}
	s.notifier.Notify(ctx, Change{Kind: ProfileKind, Action: ActionDelete, ID: id, CatID: id, At: s.now()})
	return nil
}

// ---- entries ----

func (s *TrackerService) ListEntries(ctx context.Context, kind domain.Kind, catID string) ([]domain.Entry, error) {
	return s.entries.List(ctx, kind, catID)
}

// prepare fills server-side defaults and validates.
func (s *TrackerService) prepare(e domain.Entry) error {
	if e.EntryID() == "" || e.CreatedTime().IsZero() {
		id := e.EntryID()
		if id == "" {
			id = uuid.NewString()
		}
		created := e.CreatedTime()
		if created.IsZero() {
			created = s.now()
		}
		e.SetIdentity(id, e.OwnerID(), created)
	}
	if e.OwnerID() == "" {
		return fmt.Errorf("%w: cat_id is required", ErrInvalid)
	}
	if sl, ok := e.(*domain.SleepEntry); ok && sl.Duration == 0 {
		sl.Recalculate()
	}
	e.Normalize()
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// CreateEntry stores a new entry, assigning id and created_at when missing.
func (s *TrackerService) CreateEntry(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	if err := s.prepare(e); err != nil {
		return nil, err
	}
	if err := s.entries.Upsert(ctx, e); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, entryChange(e, ActionUpsert, s.now()))
	return e, nil
}

// ReplaceEntry stores e under id (full-record replace, insert when absent).
func (s *TrackerService) ReplaceEntry(ctx context.Context, id string, e domain.Entry) (domain.Entry, error) {
	e.SetIdentity(id, e.OwnerID(), e.CreatedTime())
	return s.CreateEntry(ctx, e)
}

func (s *TrackerService) DeleteEntry(ctx context.Context, kind domain.Kind, id string) error {
	if err := s.entries.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.notifier.Notify(ctx, Change{Kind: string(kind), Action: ActionDelete, ID: id, At: s.now()})
	return nil
}

// SyncBatch applies a client's pending upserts and deletes for one kind atomically.
func (s *TrackerService) SyncBatch(ctx context.Context, kind domain.Kind, upserts []domain.Entry, deletes []string) (repository.BatchResult, error) {
	for _, e := range upserts {
		if err := s.prepare(e); err != nil {
			return repository.BatchResult{}, fmt.Errorf("%s %s: %w", kind, e.EntryID(), err)
		}
	}
	res, err := s.entries.ApplyBatch(ctx, kind, upserts, deletes)
	if err != nil {
		return res, err
	}
	now := s.now()
	for _, e := range upserts {
		s.notifier.Notify(ctx, entryChange(e, ActionUpsert, now))
	}
	for _, id := range deletes {
		s.notifier.Notify(ctx, Change{Kind: string(kind), Action: ActionDelete, ID: id, At: now})
	}
	s.logger.Debug("Applied sync batch", zap.String("kind", string(kind)),
		zap.Int("upserted", res.Upserted), zap.Int("deleted", res.Deleted))
	return res, nil
}

// Stats summarizes the latest profile's entries; zero counts when there is no profile.
func (s *TrackerService) Stats(ctx context.Context, opts stats.Options) (stats.Summary, error) {
	p, err := s.GetProfile(ctx)
	if err != nil {
		return stats.Summary{}, err
	}
	if p == nil {
		return stats.Compute(nil, opts), nil
	}
	snap := domain.NewSnapshot()
	snap.CatProfile = p
	for _, k := range domain.AllKinds {
		list, err := s.entries.List(ctx, k, p.ID)
		if err != nil {
			return stats.Summary{}, err
		}
		if err := snap.SetEntries(k, list); err != nil {
			return stats.Summary{}, err
		}
	}
	return stats.Compute(snap, opts), nil
}
