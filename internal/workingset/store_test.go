package workingset

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
	"github.com/duaragha/cat-tracker-sub000/internal/store"
)

// memKV is a store.KV that records every operation.
type memKV struct {
	mu   sync.Mutex
	data map[string]string
	ops  []string
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ops = append(m.ops, "set")
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.ops = append(m.ops, "delete")
	return nil
}

func (m *memKV) opsSince(n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops[n:]...)
}

func (m *memKV) opCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ops)
}

type fakeRemote struct {
	mu     sync.Mutex
	online bool
	pushOK bool
	pull   *domain.Snapshot
	block  chan struct{}
	pushes []*domain.Snapshot
	calls  []string
}

func (f *fakeRemote) CheckConnection(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeRemote) PushToBackend(ctx context.Context, snap *domain.Snapshot) bool {
	f.mu.Lock()
	block := f.block
	f.calls = append(f.calls, "push")
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return false
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, snap)
	return f.pushOK
}

func (f *fakeRemote) PullFromBackend(context.Context) *domain.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "pull")
	if f.pull == nil {
		return nil
	}
	return f.pull.Clone()
}

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func (f *fakeRemote) lastPush() *domain.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pushes) == 0 {
		return nil
	}
	return f.pushes[len(f.pushes)-1]
}

func testOptions() Options {
	return Options{
		Debounce:      10 * time.Millisecond,
		Interval:      time.Hour,
		ProbeInterval: time.Hour,
		Logger:        zap.NewNop(),
	}
}

func newStarted(t *testing.T, kv store.KV, remote *fakeRemote) *Store {
	t.Helper()
	s := New(kv, remote, testOptions())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var at = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func sampleEntry(kind domain.Kind) domain.Entry {
	switch kind {
	case domain.KindWashroom:
		return &domain.WashroomEntry{Timestamp: at, Type: domain.WashroomUrination}
	case domain.KindFood:
		return &domain.FoodEntry{Timestamp: at, FoodCategory: "dry", FoodType: "kibble", Amount: 40, Unit: "grams"}
	case domain.KindSleep:
		return &domain.SleepEntry{StartTime: at, EndTime: at.Add(time.Hour), Location: "bed"}
	case domain.KindWeight:
		return &domain.WeightEntry{Weight: 4.5, MeasurementDate: at}
	case domain.KindPhoto:
		return &domain.PhotoEntry{ImageURL: "https://example.com/cat.jpg", UploadDate: at}
	case domain.KindTreat:
		return &domain.TreatEntry{Timestamp: at, TreatType: "tuna", Quantity: 2}
	}
	return nil
}

func ids(list []domain.Entry) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.EntryID())
	}
	return out
}

func TestAddEntry_RequiresProfile(t *testing.T) {
	s := newStarted(t, newMemKV(), &fakeRemote{})
	_, err := s.AddEntry(sampleEntry(domain.KindFood))
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestAddThenDelete_RestoresList(t *testing.T) {
	s := newStarted(t, newMemKV(), &fakeRemote{})
	p := s.SetProfile(domain.CatProfile{Name: "Whiskers"})

	for _, kind := range domain.AllKinds {
		t.Run(string(kind), func(t *testing.T) {
			_, err := s.AddEntry(sampleEntry(kind))
			require.NoError(t, err)
			before := ids(s.Entries(kind))

			added, err := s.AddEntry(sampleEntry(kind))
			require.NoError(t, err)
			assert.NotEmpty(t, added.EntryID())
			assert.Equal(t, p.ID, added.OwnerID())
			assert.Equal(t, added.EntryID(), s.Entries(kind)[0].EntryID(), "new entries are prepended")

			require.NoError(t, s.DeleteEntry(kind, added.EntryID()))
			assert.Equal(t, before, ids(s.Entries(kind)))
			assert.Contains(t, s.Snapshot().PendingDeletes[kind], added.EntryID())
		})
	}
}

func TestDeleteEntry_Unknown(t *testing.T) {
	s := newStarted(t, newMemKV(), &fakeRemote{})
	s.SetProfile(domain.CatProfile{Name: "Whiskers"})
	assert.ErrorIs(t, s.DeleteEntry(domain.KindFood, "nope"), ErrNotFound)
}

func TestAddSleep_DerivesDuration(t *testing.T) {
	s := newStarted(t, newMemKV(), &fakeRemote{})
	s.SetProfile(domain.CatProfile{Name: "Whiskers"})

	e, err := s.AddEntry(&domain.SleepEntry{
		StartTime: time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC),
		Location:  "bed",
	})
	require.NoError(t, err)
	assert.Equal(t, 150, e.(*domain.SleepEntry).Duration)
}

func TestUpdateEntry_KeepsIdentity(t *testing.T) {
	s := newStarted(t, newMemKV(), &fakeRemote{})
	s.SetProfile(domain.CatProfile{Name: "Whiskers"})
	added, err := s.AddEntry(sampleEntry(domain.KindTreat))
	require.NoError(t, err)

	upd := &domain.TreatEntry{ID: added.EntryID(), Timestamp: at, TreatType: "chicken", Quantity: 1}
	require.NoError(t, s.UpdateEntry(upd))

	got, err := s.Entry(domain.KindTreat, added.EntryID())
	require.NoError(t, err)
	assert.Equal(t, "chicken", got.(*domain.TreatEntry).TreatType)
	assert.Equal(t, added.OwnerID(), got.OwnerID())
	assert.True(t, added.CreatedTime().Equal(got.CreatedTime()))
}

func TestSetProfile_KeepsIDAcrossUpdates(t *testing.T) {
	s := newStarted(t, newMemKV(), &fakeRemote{})
	first := s.SetProfile(domain.CatProfile{Name: "Whiskers"})
	second := s.SetProfile(domain.CatProfile{Name: "Mittens"})
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.Equal(t, "Mittens", s.Profile().Name)
}

func TestMutations_PersistToCache(t *testing.T) {
	kv := newMemKV()
	s := newStarted(t, kv, &fakeRemote{})
	s.SetProfile(domain.CatProfile{Name: "Whiskers"})
	_, err := s.AddEntry(sampleEntry(domain.KindWeight))
	require.NoError(t, err)

	raw, err := kv.Get(context.Background(), CacheKey)
	require.NoError(t, err)
	snap, err := domain.DecodeSnapshot([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Whiskers", snap.CatProfile.Name)
	assert.Len(t, snap.WeightEntries, 1)
	assert.True(t, snap.Dirty)
}

func seedCache(t *testing.T, kv store.KV, snap *domain.Snapshot) {
	t.Helper()
	b, err := domain.EncodeSnapshot(snap)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), CacheKey, string(b), 0))
}

func cachedSnapshot(name string, dirty bool) *domain.Snapshot {
	snap := domain.NewSnapshot()
	snap.CatProfile = &domain.CatProfile{ID: "local-cat", Name: name, CreatedAt: at, UpdatedAt: at}
	snap.FoodEntries = []*domain.FoodEntry{{ID: "f1", CatID: "local-cat", Timestamp: at, FoodCategory: "wet", FoodType: "pate", Amount: 1, Unit: "portions", CreatedAt: at}}
	snap.Dirty = dirty
	return snap
}

func TestStart_EmptyRemoteKeepsLocalCache(t *testing.T) {
	kv := newMemKV()
	seedCache(t, kv, cachedSnapshot("Whiskers", false))
	remote := &fakeRemote{online: true, pushOK: true}

	s := newStarted(t, kv, remote)
	assert.True(t, s.IsOnline())
	require.NotNil(t, s.Profile())
	assert.Equal(t, "Whiskers", s.Profile().Name)
	assert.Len(t, s.Entries(domain.KindFood), 1)
}

func TestStart_RemoteProfileReplacesWorkingSet(t *testing.T) {
	kv := newMemKV()
	seedCache(t, kv, cachedSnapshot("Whiskers", false))
	pulled := domain.NewSnapshot()
	pulled.CatProfile = &domain.CatProfile{ID: "remote-cat", Name: "Remote", CreatedAt: at, UpdatedAt: at}
	remote := &fakeRemote{online: true, pushOK: true, pull: pulled}

	s := newStarted(t, kv, remote)
	snap := s.Snapshot()
	assert.Equal(t, "remote-cat", snap.CatProfile.ID)
	assert.Empty(t, snap.FoodEntries)
	assert.False(t, snap.Dirty)
	assert.NotNil(t, s.LastSyncedAt())
}

func TestStart_DirtyCachePushesBeforePull(t *testing.T) {
	kv := newMemKV()
	seedCache(t, kv, cachedSnapshot("Whiskers", true))
	remote := &fakeRemote{online: true, pushOK: true}

	newStarted(t, kv, remote)
	remote.mu.Lock()
	defer remote.mu.Unlock()
	require.GreaterOrEqual(t, len(remote.calls), 2)
	assert.Equal(t, []string{"push", "pull"}, remote.calls[:2])
}

func TestStart_FailedPushSkipsPull(t *testing.T) {
	kv := newMemKV()
	seedCache(t, kv, cachedSnapshot("Whiskers", true))
	pulled := domain.NewSnapshot()
	pulled.CatProfile = &domain.CatProfile{ID: "remote-cat", Name: "Remote"}
	remote := &fakeRemote{online: true, pushOK: false, pull: pulled}

	s := newStarted(t, kv, remote)
	assert.Equal(t, "local-cat", s.Profile().ID)
	assert.True(t, s.Snapshot().Dirty)
}

func TestStart_UnreadableCacheStartsEmpty(t *testing.T) {
	kv := newMemKV()
	require.NoError(t, kv.Set(context.Background(), CacheKey, "{not json", 0))
	s := newStarted(t, kv, &fakeRemote{})
	assert.Nil(t, s.Profile())
	assert.True(t, s.Snapshot().IsEmpty())
}

// Offline, add a washroom entry, come back online: a push runs, syncing goes
// true then false, and the local entry is still there.
func TestOfflineThenReconnect(t *testing.T) {
	remote := &fakeRemote{pushOK: true}
	s := newStarted(t, newMemKV(), remote)
	require.False(t, s.IsOnline())

	s.SetProfile(domain.CatProfile{Name: "Whiskers"})
	_, err := s.AddEntry(&domain.WashroomEntry{Timestamp: at, Type: domain.WashroomBoth, HasBlood: true})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, remote.pushCount(), "no push while offline")

	release := make(chan struct{})
	remote.mu.Lock()
	remote.online = true
	remote.block = release
	remote.mu.Unlock()

	s.SetOnline(true)
	require.Eventually(t, s.IsSyncing, time.Second, 5*time.Millisecond)
	assert.True(t, s.IsOnline())

	close(release)
	require.Eventually(t, func() bool { return !s.IsSyncing() }, time.Second, 5*time.Millisecond)

	assert.True(t, s.IsOnline())
	assert.Len(t, s.Entries(domain.KindWashroom), 1)
	require.Eventually(t, func() bool { return !s.Snapshot().Dirty }, time.Second, 5*time.Millisecond)
	require.NotNil(t, remote.lastPush())
	assert.Len(t, remote.lastPush().WashroomEntries, 1)
}

func TestDebouncedPushWhileOnline(t *testing.T) {
	remote := &fakeRemote{online: true, pushOK: true}
	s := newStarted(t, newMemKV(), remote)
	s.SetProfile(domain.CatProfile{Name: "Whiskers"})
	for i := 0; i < 5; i++ {
		_, err := s.AddEntry(sampleEntry(domain.KindFood))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return !s.Snapshot().Dirty }, time.Second, 5*time.Millisecond)
	last := remote.lastPush()
	require.NotNil(t, last)
	assert.Len(t, last.FoodEntries, 5)
}

func TestSyncNow_DeliversPendingDeletes(t *testing.T) {
	remote := &fakeRemote{online: true, pushOK: true}
	s := newStarted(t, newMemKV(), remote)
	s.SetProfile(domain.CatProfile{Name: "Whiskers"})
	e, err := s.AddEntry(sampleEntry(domain.KindPhoto))
	require.NoError(t, err)
	require.NoError(t, s.DeleteEntry(domain.KindPhoto, e.EntryID()))

	require.True(t, s.SyncNow(context.Background()))
	assert.Contains(t, remote.lastPush().PendingDeletes[domain.KindPhoto], e.EntryID())
	assert.Empty(t, s.Snapshot().PendingDeletes[domain.KindPhoto])
	assert.NotNil(t, s.LastSyncedAt())
}

func TestSyncNow_FailureKeepsPendingDeletes(t *testing.T) {
	remote := &fakeRemote{online: true, pushOK: false}
	s := newStarted(t, newMemKV(), remote)
	s.SetProfile(domain.CatProfile{Name: "Whiskers"})
	e, err := s.AddEntry(sampleEntry(domain.KindTreat))
	require.NoError(t, err)
	require.NoError(t, s.DeleteEntry(domain.KindTreat, e.EntryID()))

	assert.False(t, s.SyncNow(context.Background()))
	snap := s.Snapshot()
	assert.Equal(t, []string{e.EntryID()}, snap.PendingDeletes[domain.KindTreat])
	assert.True(t, snap.Dirty)
}

// Importing data for a different cat clears the old working set, cache key
// included, before the new data is written.
func TestImport_ClearsBeforeWriting(t *testing.T) {
	kv := newMemKV()
	s := newStarted(t, kv, &fakeRemote{})
	old := s.SetProfile(domain.CatProfile{Name: "Whiskers"})
	_, err := s.AddEntry(sampleEntry(domain.KindFood))
	require.NoError(t, err)

	in := domain.NewSnapshot()
	in.CatProfile = &domain.CatProfile{ID: "imported-cat", Name: "Imported", CreatedAt: at, UpdatedAt: at}
	in.TreatEntries = []*domain.TreatEntry{{ID: "t1", CatID: "imported-cat", Timestamp: at, TreatType: "tuna", Quantity: 1, CreatedAt: at}}

	mark := kv.opCount()
	s.Import(context.Background(), in)

	ops := kv.opsSince(mark)
	require.GreaterOrEqual(t, len(ops), 2)
	assert.Equal(t, "delete", ops[0])
	assert.Equal(t, "set", ops[1])

	snap := s.Snapshot()
	assert.Equal(t, "imported-cat", snap.CatProfile.ID)
	assert.NotEqual(t, old.ID, snap.CatProfile.ID)
	assert.Empty(t, snap.FoodEntries)
	assert.Len(t, snap.TreatEntries, 1)
	assert.True(t, snap.Dirty)
}

func TestClearAllData(t *testing.T) {
	kv := newMemKV()
	s := newStarted(t, kv, &fakeRemote{})
	s.SetProfile(domain.CatProfile{Name: "Whiskers"})

	s.ClearAllData(context.Background())
	assert.Nil(t, s.Profile())
	_, err := kv.Get(context.Background(), CacheKey)
	assert.ErrorIs(t, err, store.ErrMiss)
}

func TestClose_FlushesDirtyWorkingSet(t *testing.T) {
	remote := &fakeRemote{online: true, pushOK: true}
	opts := testOptions()
	opts.Debounce = time.Hour
	s := New(newMemKV(), remote, opts)
	require.NoError(t, s.Start(context.Background()))
	s.SetProfile(domain.CatProfile{Name: "Whiskers"})

	require.NoError(t, s.Close())
	require.Equal(t, 1, remote.pushCount())
	assert.Equal(t, "Whiskers", remote.lastPush().CatProfile.Name)
}

func TestOfflineOption_NeverTouchesRemote(t *testing.T) {
	remote := &fakeRemote{online: true, pushOK: true}
	opts := testOptions()
	opts.Offline = true
	s := New(newMemKV(), remote, opts)
	require.NoError(t, s.Start(context.Background()))
	s.SetProfile(domain.CatProfile{Name: "Whiskers"})
	assert.False(t, s.SyncNow(context.Background()))
	require.NoError(t, s.Close())

	remote.mu.Lock()
	defer remote.mu.Unlock()
	assert.Empty(t, remote.calls)
}

func TestExternalCacheWriteReloads(t *testing.T) {
	dir := t.TempDir()
	kv, err := store.NewFileKV(dir, zap.NewNop())
	require.NoError(t, err)

	reloaded := make(chan *domain.Snapshot, 1)
	opts := testOptions()
	opts.Offline = true
	opts.OnReload = func(snap *domain.Snapshot) {
		select {
		case reloaded <- snap:
		default:
		}
	}
	s := New(kv, &fakeRemote{}, opts)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	other, err := store.NewFileKV(dir, zap.NewNop())
	require.NoError(t, err)
	seedCache(t, other, cachedSnapshot("FromElsewhere", false))

	select {
	case snap := <-reloaded:
		assert.Equal(t, "FromElsewhere", snap.CatProfile.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("working set was not reloaded")
	}
	assert.Equal(t, "FromElsewhere", s.Profile().Name)
}
