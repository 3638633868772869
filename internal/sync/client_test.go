package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
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
)

// countingHandler records the method of every /api/profile write.
type countingHandler struct {
	next  http.Handler
	posts atomic.Int32
	puts  atomic.Int32
}

func (c *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/profile" && r.Method == http.MethodPost {
		c.posts.Add(1)
	}
	if strings.HasPrefix(r.URL.Path, "/api/profile/") && r.Method == http.MethodPut {
		c.puts.Add(1)
	}
	c.next.ServeHTTP(w, r)
}

func newBackend(t *testing.T) (*httptest.Server, *countingHandler, *repository.MemoryRepo) {
	t.Helper()
	repo := repository.NewMemoryRepo()
	svc := service.NewTrackerService(repo.Profiles(), repo.Entries(), nil, zap.NewNop())
	router := httpapi.NewRouter(zap.NewNop())
	router.RegisterTrackerRoutes(httpapi.NewTrackerHandler(svc, zap.NewNop()))
	counting := &countingHandler{next: router}
	srv := httptest.NewServer(counting)
	t.Cleanup(srv.Close)
	return srv, counting, repo
}

func sampleSnapshot() *domain.Snapshot {
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	w := 4.5
	snap := domain.NewSnapshot()
	snap.CatProfile = &domain.CatProfile{ID: "cat-1", Name: "Whiskers", Weight: &w, CreatedAt: now, UpdatedAt: now}
	snap.WashroomEntries = []*domain.WashroomEntry{
		{ID: "w1", CatID: "cat-1", Timestamp: now, Type: domain.WashroomBoth, HasBlood: true, Photos: []string{}, CreatedAt: now},
	}
	snap.SleepEntries = []*domain.SleepEntry{{
		ID: "s1", CatID: "cat-1",
		StartTime: time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC),
		Duration:  150, Location: "bed", Photos: []string{}, CreatedAt: now,
	}}
	return snap
}

func TestCheckConnection(t *testing.T) {
	srv, _, _ := newBackend(t)
	c := NewClient(srv.URL, time.Second, zap.NewNop())
	assert.True(t, c.CheckConnection(context.Background()))

	dead := NewClient("http://127.0.0.1:1", 200*time.Millisecond, zap.NewNop())
	assert.False(t, dead.CheckConnection(context.Background()))
}

func TestPushTwice_SecondIsUpdate(t *testing.T) {
	srv, counting, repo := newBackend(t)
	c := NewClient(srv.URL, time.Second, zap.NewNop())
	ctx := context.Background()
	snap := sampleSnapshot()

	require.True(t, c.PushToBackend(ctx, snap))
	require.True(t, c.PushToBackend(ctx, snap))

	assert.Equal(t, int32(1), counting.posts.Load())
	assert.Equal(t, int32(1), counting.puts.Load())

	p, err := repo.Profiles().GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Whiskers", p.Name)

	list, err := repo.Entries().List(ctx, domain.KindWashroom, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPushCarriesPendingDeletes(t *testing.T) {
	srv, _, repo := newBackend(t)
	c := NewClient(srv.URL, time.Second, zap.NewNop())
	ctx := context.Background()
	snap := sampleSnapshot()
	require.True(t, c.PushToBackend(ctx, snap))

	snap.WashroomEntries = nil
	snap.PendingDeletes = map[domain.Kind][]string{domain.KindWashroom: {"w1"}}
	require.True(t, c.PushToBackend(ctx, snap))

	list, err := repo.Entries().List(ctx, domain.KindWashroom, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPull_EmptyRemoteReturnsNil(t *testing.T) {
	srv, _, _ := newBackend(t)
	c := NewClient(srv.URL, time.Second, zap.NewNop())
	assert.Nil(t, c.PullFromBackend(context.Background()))
}

func TestPull_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond, zap.NewNop())
	assert.Nil(t, c.PullFromBackend(context.Background()))
	assert.False(t, c.PushToBackend(context.Background(), sampleSnapshot()))
}

func TestPushThenPull_RoundTrip(t *testing.T) {
	srv, _, _ := newBackend(t)
	c := NewClient(srv.URL, time.Second, zap.NewNop())
	ctx := context.Background()
	require.True(t, c.PushToBackend(ctx, sampleSnapshot()))

	got := c.PullFromBackend(ctx)
	require.NotNil(t, got)
	require.NotNil(t, got.CatProfile)
	assert.Equal(t, "cat-1", got.CatProfile.ID)
	require.NotNil(t, got.CatProfile.Weight)
	assert.Equal(t, 4.5, *got.CatProfile.Weight)

	require.Len(t, got.WashroomEntries, 1)
	assert.True(t, got.WashroomEntries[0].HasBlood)
	assert.NotNil(t, got.WashroomEntries[0].Photos)
	require.Len(t, got.SleepEntries, 1)
	assert.Equal(t, 150, got.SleepEntries[0].Duration)
	assert.True(t, got.SleepEntries[0].EndTime.Equal(time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC)))
	assert.NotNil(t, got.FoodEntries)
	assert.Empty(t, got.FoodEntries)
}

func TestPull_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second, zap.NewNop())
	assert.Nil(t, c.PullFromBackend(context.Background()))
	assert.False(t, c.CheckConnection(context.Background()))
}

// The remote already serves another cat: the first push creates ours, later
// pushes update it and a pull returns it.
func TestPush_RemoteHoldsAnotherProfile(t *testing.T) {
	srv, counting, repo := newBackend(t)
	c := NewClient(srv.URL, time.Second, zap.NewNop())
	ctx := context.Background()

	earlier := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Profiles().Save(ctx, &domain.CatProfile{ID: "cat-old", Name: "Old", CreatedAt: earlier, UpdatedAt: earlier}))

	snap := sampleSnapshot()
	snap.CatProfile.UpdatedAt = time.Now().UTC()

	require.True(t, c.PushToBackend(ctx, snap))
	require.True(t, c.PushToBackend(ctx, snap))
	assert.Equal(t, int32(1), counting.posts.Load())
	assert.Equal(t, int32(1), counting.puts.Load())

	got := c.PullFromBackend(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "cat-1", got.CatProfile.ID)
	assert.Equal(t, "Whiskers", got.CatProfile.Name)
	assert.True(t, got.CatProfile.CreatedAt.Equal(sampleSnapshot().CatProfile.CreatedAt))
	assert.Len(t, got.WashroomEntries, 1)
}

func TestPush_RejectedKindDoesNotBlockOthers(t *testing.T) {
	srv, _, repo := newBackend(t)
	c := NewClient(srv.URL, time.Second, zap.NewNop())
	ctx := context.Background()

	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	snap := sampleSnapshot()
	snap.WashroomEntries[0].Type = "urine"
	snap.FoodEntries = []*domain.FoodEntry{{ID: "f1", CatID: "cat-1", Timestamp: now, FoodCategory: "dry",
		FoodType: "kibble", Amount: 40, Unit: "grams", CreatedAt: now}}

	assert.False(t, c.PushToBackend(ctx, snap))

	washroom, err := repo.Entries().List(ctx, domain.KindWashroom, "cat-1")
	require.NoError(t, err)
	assert.Empty(t, washroom)
	food, err := repo.Entries().List(ctx, domain.KindFood, "cat-1")
	require.NoError(t, err)
	assert.Len(t, food, 1)
	sleep, err := repo.Entries().List(ctx, domain.KindSleep, "cat-1")
	require.NoError(t, err)
	assert.Len(t, sleep, 1)
}

func TestPush_EntriesWithoutProfile(t *testing.T) {
	srv, counting, _ := newBackend(t)
	c := NewClient(srv.URL, time.Second, zap.NewNop())
	ctx := context.Background()

	assert.True(t, c.PushToBackend(ctx, domain.NewSnapshot()))

	snap := sampleSnapshot()
	snap.CatProfile = nil
	assert.False(t, c.PushToBackend(ctx, snap))
	assert.Zero(t, counting.posts.Load())
}
