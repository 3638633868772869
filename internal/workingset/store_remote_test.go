package workingset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
	httpapi "github.com/duaragha/cat-tracker-sub000/internal/http"
	"github.com/duaragha/cat-tracker-sub000/internal/repository"
	"github.com/duaragha/cat-tracker-sub000/internal/service"
	tracksync "github.com/duaragha/cat-tracker-sub000/internal/sync"
)

// profileWrites counts profile creates against the API.
type profileWrites struct {
	next  http.Handler
	posts atomic.Int32
}

func (p *profileWrites) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/profile" && r.Method == http.MethodPost {
		p.posts.Add(1)
	}
	p.next.ServeHTTP(w, r)
}

func newAPI(t *testing.T) (*tracksync.Client, *profileWrites, *repository.MemoryRepo) {
	t.Helper()
	repo := repository.NewMemoryRepo()
	svc := service.NewTrackerService(repo.Profiles(), repo.Entries(), nil, zap.NewNop())
	router := httpapi.NewRouter(zap.NewNop())
	router.RegisterTrackerRoutes(httpapi.NewTrackerHandler(svc, zap.NewNop()))
	writes := &profileWrites{next: router}
	srv := httptest.NewServer(writes)
	t.Cleanup(srv.Close)
	return tracksync.NewClient(srv.URL, time.Second, zap.NewNop()), writes, repo
}

// An export made before the current remote profile existed still becomes the
// current cat once imported and pushed.
func TestImport_OlderExportReplacesRemoteProfile(t *testing.T) {
	client, writes, repo := newAPI(t)
	ctx := context.Background()

	recent := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Profiles().Save(ctx, &domain.CatProfile{ID: "cat-old", Name: "Old", CreatedAt: recent, UpdatedAt: recent}))

	s := New(newMemKV(), client, testOptions())
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() { _ = s.Close() })
	require.Equal(t, "Old", s.Profile().Name)

	exported := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	in := domain.NewSnapshot()
	in.CatProfile = &domain.CatProfile{ID: "cat-1", Name: "Whiskers", CreatedAt: exported, UpdatedAt: exported}
	in.FoodEntries = []*domain.FoodEntry{{ID: "f1", CatID: "cat-1", Timestamp: exported, FoodCategory: "dry",
		FoodType: "kibble", Amount: 40, Unit: "grams", CreatedAt: exported}}
	s.Import(ctx, in)

	require.True(t, s.SyncNow(ctx))
	require.True(t, s.SyncNow(ctx))
	assert.Equal(t, int32(1), writes.posts.Load(), "later pushes update the imported profile")

	require.True(t, s.PullNow(ctx))
	p := s.Profile()
	require.NotNil(t, p)
	assert.Equal(t, "cat-1", p.ID)
	assert.Equal(t, "Whiskers", p.Name)
	assert.True(t, p.CreatedAt.Equal(exported))
	assert.Len(t, s.Entries(domain.KindFood), 1)

	latest, err := repo.Profiles().GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cat-1", latest.ID)
}

func TestSyncNow_RejectedKindKeepsWorkingSetDirty(t *testing.T) {
	client, _, repo := newAPI(t)
	ctx := context.Background()

	s := New(newMemKV(), client, testOptions())
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() { _ = s.Close() })

	in := domain.NewSnapshot()
	in.CatProfile = &domain.CatProfile{ID: "cat-1", Name: "Whiskers", CreatedAt: at, UpdatedAt: at}
	in.WashroomEntries = []*domain.WashroomEntry{{ID: "w1", CatID: "cat-1", Timestamp: at, Type: "urine", CreatedAt: at}}
	in.FoodEntries = []*domain.FoodEntry{{ID: "f1", CatID: "cat-1", Timestamp: at, FoodCategory: "dry",
		FoodType: "kibble", Amount: 40, Unit: "grams", CreatedAt: at}}
	s.Import(ctx, in)

	assert.False(t, s.SyncNow(ctx))
	assert.True(t, s.Snapshot().Dirty)

	food, err := repo.Entries().List(ctx, domain.KindFood, "cat-1")
	require.NoError(t, err)
	assert.Len(t, food, 1)

	require.NoError(t, s.DeleteEntry(domain.KindWashroom, "w1"))
	assert.True(t, s.SyncNow(ctx))
	assert.False(t, s.Snapshot().Dirty)
}
