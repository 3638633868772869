package repository

import (
	"context"
	"errors"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

// ErrNotFound is returned when a profile or entry id does not exist.
var ErrNotFound = errors.New("not found")

// ProfileRepository stores the cat profile. The server holds one logical
// profile: the most recently created row.
type ProfileRepository interface {
	// GetLatest returns the newest profile, or ErrNotFound when the table is empty.
	GetLatest(ctx context.Context) (*domain.CatProfile, error)
	Get(ctx context.Context, id string) (*domain.CatProfile, error)

	// Save inserts the profile, or replaces it when the id exists.
	Save(ctx context.Context, p *domain.CatProfile) error
	// Update replaces an existing profile; ErrNotFound when absent.
	Update(ctx context.Context, p *domain.CatProfile) error

	// Delete removes the profile; entries cascade.
	Delete(ctx context.Context, id string) error
}

// EntriesRepository stores the six entry kinds behind one interface.
type EntriesRepository interface {
	// List returns entries of kind, newest first. An empty catID lists every cat.
	List(ctx context.Context, kind domain.Kind, catID string) ([]domain.Entry, error)
	Get(ctx context.Context, kind domain.Kind, id string) (domain.Entry, error)

	// Upsert inserts or fully replaces the entry by id.
	Upsert(ctx context.Context, e domain.Entry) error
	// Delete hard-deletes one entry; ErrNotFound when absent.
	Delete(ctx context.Context, kind domain.Kind, id string) error

	// ApplyBatch upserts and deletes in one transaction. Missing delete ids are ignored.
	ApplyBatch(ctx context.Context, kind domain.Kind, upserts []domain.Entry, deletes []string) (BatchResult, error)
}

// BatchResult counts what ApplyBatch changed.
type BatchResult struct {
	Upserted int `json:"upserted"`
	Deleted  int `json:"deleted"`
}
