package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

func TestMemoryRepo_CascadeAndBatch(t *testing.T) {
	repo := NewMemoryRepo()
	profiles, entries := repo.Profiles(), repo.Entries()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, profiles.Save(ctx, &domain.CatProfile{ID: "cat-1", Name: "Whiskers", CreatedAt: now, UpdatedAt: now}))

	older := &domain.TreatEntry{ID: "t1", CatID: "cat-1", Timestamp: now.Add(-time.Hour), TreatType: "tuna", Quantity: 1}
	newer := &domain.TreatEntry{ID: "t2", CatID: "cat-1", Timestamp: now, TreatType: "chicken", Quantity: 2}
	res, err := entries.ApplyBatch(ctx, domain.KindTreat, []domain.Entry{older, newer}, []string{"missing"})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Upserted: 2}, res)

	list, err := entries.List(ctx, domain.KindTreat, "cat-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t2", list[0].EntryID())

	// list returns copies
	list[0].(*domain.TreatEntry).TreatType = "mutated"
	got, err := entries.Get(ctx, domain.KindTreat, "t2")
	require.NoError(t, err)
	assert.Equal(t, "chicken", got.(*domain.TreatEntry).TreatType)

	_, err = entries.ApplyBatch(ctx, domain.KindTreat, []domain.Entry{&domain.TreatEntry{ID: "t3", CatID: "ghost"}}, nil)
	require.Error(t, err)

	require.NoError(t, profiles.Delete(ctx, "cat-1"))
	list, err = entries.List(ctx, domain.KindTreat, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = profiles.GetLatest(ctx)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryRepo_LatestFollowsUpdatedAt(t *testing.T) {
	profiles := NewMemoryRepo().Profiles()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, profiles.Save(ctx, &domain.CatProfile{ID: "imported", Name: "Whiskers", CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, profiles.Save(ctx, &domain.CatProfile{ID: "current", Name: "Old", CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)}))

	latest, err := profiles.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "current", latest.ID)

	require.NoError(t, profiles.Save(ctx, &domain.CatProfile{ID: "imported", Name: "Whiskers", CreatedAt: base, UpdatedAt: base.Add(2 * time.Hour)}))
	latest, err = profiles.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "imported", latest.ID)
}
