//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/duaragha/cat-tracker-sub000/common/config"
	"github.com/duaragha/cat-tracker-sub000/common/database"
	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

func getTestPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("cat_tracker"),
		postgres.WithUsername("cat"),
		postgres.WithPassword("cat"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping integration test: cannot start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pgContainer.Terminate(context.Background()) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.NewPostgresDB(&config.DatabaseConfig{URL: connStr, MaxConns: 5})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db, config.DriverPostgres, zap.NewNop()))
	return db
}

func TestPostgres_ProfileAndEntries(t *testing.T) {
	db := getTestPostgres(t)
	ctx := context.Background()
	profiles := NewSQLProfileRepository(db, config.DriverPostgres)
	entries := NewSQLEntriesRepository(db, config.DriverPostgres)

	now := time.Now().UTC().Truncate(time.Microsecond)
	w := 4.5
	p := &domain.CatProfile{ID: "cat-1", Name: "Whiskers", Weight: &w, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, profiles.Save(ctx, p))
	p.Name = "Whiskers II"
	require.NoError(t, profiles.Save(ctx, p))

	latest, err := profiles.GetLatest(ctx)
	require.NoError(t, err)
	require.Equal(t, "Whiskers II", latest.Name)
	require.True(t, latest.CreatedAt.Equal(now))

	entry := &domain.WashroomEntry{ID: "w1", CatID: "cat-1", Timestamp: now, Type: domain.WashroomUrination,
		HasBlood: true, Photos: []string{"a.jpg", "b.jpg"}, CreatedAt: now}
	res, err := entries.ApplyBatch(ctx, domain.KindWashroom, []domain.Entry{entry}, []string{"gone"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Upserted)

	got, err := entries.Get(ctx, domain.KindWashroom, "w1")
	require.NoError(t, err)
	require.Equal(t, []string{"a.jpg", "b.jpg"}, got.(*domain.WashroomEntry).Photos)
	require.True(t, got.(*domain.WashroomEntry).HasBlood)

	require.NoError(t, profiles.Delete(ctx, "cat-1"))
	_, err = entries.Get(ctx, domain.KindWashroom, "w1")
	require.True(t, errors.Is(err, ErrNotFound))
}
