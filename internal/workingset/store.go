// Package workingset is the client's Data Context: the in-memory working set,
// its Local Cache persistence and the background sync that keeps it in step
// with the API.
package workingset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
	"github.com/duaragha/cat-tracker-sub000/internal/store"
)

// CacheKey is the single Local Cache key holding the snapshot.
const CacheKey = "cat-tracker:working-set"

var (
	ErrNoProfile = errors.New("no cat profile: set one up first")
	ErrNotFound  = errors.New("entry not found")
)

// Remote is the API side of the working set, implemented by sync.Client.
type Remote interface {
	CheckConnection(ctx context.Context) bool
	PushToBackend(ctx context.Context, snap *domain.Snapshot) bool
	PullFromBackend(ctx context.Context) *domain.Snapshot
}

type Options struct {
	Debounce      time.Duration
	Interval      time.Duration
	ProbeInterval time.Duration
	// RequestTimeout bounds the push made by Close.
	RequestTimeout time.Duration
	// Offline disables probing and background sync; the store only reads and
	// writes the Local Cache.
	Offline bool
	// OnReload is called after the working set was replaced by a pull or by
	// another process rewriting the Local Cache.
	OnReload func(snap *domain.Snapshot)
	Logger   *zap.Logger
}

func (o *Options) defaults() {
	if o.Debounce <= 0 {
		o.Debounce = 2 * time.Second
	}
	if o.Interval <= 0 {
		o.Interval = 30 * time.Second
	}
	if o.ProbeInterval <= 0 {
		o.ProbeInterval = 10 * time.Second
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Store owns the working set. All mutations go through it; it is the only
// writer of CacheKey. Network calls run outside the lock on a copy.
type Store struct {
	kv     store.KV
	remote Remote
	opts   Options
	logger *zap.Logger
	sched  *Scheduler

	mu     sync.Mutex
	snap   *domain.Snapshot
	rev    uint64 // bumped by every mutation
	online bool

	pushMu  sync.Mutex // one push at a time, scheduled or manual
	syncing atomic.Int32

	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(kv store.KV, remote Remote, opts Options) *Store {
	opts.defaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		kv:     kv,
		remote: remote,
		opts:   opts,
		logger: opts.Logger,
		snap:   domain.NewSnapshot(),
		ctx:    ctx,
		cancel: cancel,
	}
	s.sched = NewScheduler(opts.Debounce, func(ctx context.Context, t Trigger) { s.push(ctx, t) }, opts.Logger)
	return s
}

// Start loads the Local Cache and, unless offline, reconciles with the API:
// unpushed local changes are pushed first, then a remote profile replaces the
// working set. With no remote profile the cached data stays. It then starts
// the probe and interval loops and, for file caches, the external-change watch.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("working set already started")
	}
	s.started = true
	s.snap = s.load(ctx)
	dirty := s.snap.Dirty
	s.mu.Unlock()

	if w, ok := s.kv.(store.Watcher); ok {
		if err := w.Watch(s.ctx, CacheKey, s.reload); err != nil {
			s.logger.Warn("local cache watch disabled", zap.Error(err))
		}
	}
	if s.opts.Offline {
		return nil
	}

	online := s.remote.CheckConnection(ctx)
	s.mu.Lock()
	s.online = online
	s.mu.Unlock()
	s.logger.Info("working set loaded", zap.Bool("online", online), zap.Bool("dirty", dirty))

	if online {
		pushed := true
		if dirty {
			pushed = s.push(ctx, TriggerManual)
		}
		if pushed {
			s.PullNow(ctx)
		} else {
			s.logger.Warn("startup push failed, keeping local working set")
		}
	}

	s.wg.Add(1)
	go s.loop()
	return nil
}

func (s *Store) loop() {
	defer s.wg.Done()
	probe := time.NewTicker(s.opts.ProbeInterval)
	defer probe.Stop()
	interval := time.NewTicker(s.opts.Interval)
	defer interval.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-probe.C:
			s.SetOnline(s.remote.CheckConnection(s.ctx))
		case <-interval.C:
			if s.IsOnline() {
				s.sched.Schedule(TriggerInterval)
			}
		}
	}
}

// Close stops the loops and the scheduler, waits for in-flight work and then
// makes one last push if the working set holds unpushed changes and the API
// was reachable.
func (s *Store) Close() error {
	s.cancel()
	s.sched.Close()
	s.wg.Wait()

	s.mu.Lock()
	flush := s.snap.Dirty && s.online && !s.opts.Offline
	s.mu.Unlock()
	if flush {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.RequestTimeout)
		defer cancel()
		if !s.push(ctx, TriggerManual) {
			s.logger.Warn("final push failed, changes stay in the local cache")
		}
	}
	return nil
}

// SetOnline records connectivity. Offline to online schedules an immediate push.
func (s *Store) SetOnline(online bool) {
	s.mu.Lock()
	was := s.online
	s.online = online
	s.mu.Unlock()

	if was == online {
		return
	}
	s.logger.Info("connectivity changed", zap.Bool("online", online))
	if online {
		s.sched.Schedule(TriggerReconnect)
	}
}

func (s *Store) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *Store) IsSyncing() bool { return s.syncing.Load() > 0 }

func (s *Store) LastSyncedAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.LastSyncedAt == nil {
		return nil
	}
	t := *s.snap.LastSyncedAt
	return &t
}

// Snapshot returns a deep copy of the working set.
func (s *Store) Snapshot() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Profile returns a copy of the profile, or nil.
func (s *Store) Profile() *domain.CatProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.CatProfile == nil {
		return nil
	}
	p := *s.snap.CatProfile
	return &p
}

// Entries returns copies of the kind's entries, newest first.
func (s *Store) Entries(kind domain.Kind) []domain.Entry {
	return s.Snapshot().Entries(kind)
}

// SetProfile replaces the profile. The identifier and creation time are kept
// from the current profile when the caller leaves them empty.
func (s *Store) SetProfile(p domain.CatProfile) *domain.CatProfile {
	now := time.Now().UTC()

	s.mu.Lock()
	if cur := s.snap.CatProfile; cur != nil {
		if p.ID == "" {
			p.ID = cur.ID
		}
		if p.CreatedAt.IsZero() && p.ID == cur.ID {
			p.CreatedAt = cur.CreatedAt
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.snap.CatProfile = &p
	s.mutatedLocked()
	out := p
	s.mu.Unlock()

	s.sched.Schedule(TriggerDebounce)
	return &out
}

// AddEntry stamps e with a new identifier, the current cat and the creation
// time, derives sleep duration and prepends it to its kind's list.
func (s *Store) AddEntry(e domain.Entry) (domain.Entry, error) {
	s.mu.Lock()
	if s.snap.CatProfile == nil {
		s.mu.Unlock()
		return nil, ErrNoProfile
	}
	e.SetIdentity(uuid.NewString(), s.snap.CatProfile.ID, time.Now().UTC())
	if sl, ok := e.(*domain.SleepEntry); ok {
		sl.Recalculate()
	}
	e.Normalize()

	kind := e.EntryKind()
	list := append([]domain.Entry{e}, s.snap.Entries(kind)...)
	if err := s.snap.SetEntries(kind, list); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mutatedLocked()
	s.mu.Unlock()

	s.sched.Schedule(TriggerDebounce)
	return e, nil
}

// UpdateEntry replaces the entry with the same kind and identifier in place.
// Derived fields are not recomputed.
func (s *Store) UpdateEntry(e domain.Entry) error {
	s.mu.Lock()
	kind := e.EntryKind()
	list := s.snap.Entries(kind)
	idx := indexOf(list, e.EntryID())
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s %s: %w", kind, e.EntryID(), ErrNotFound)
	}
	old := list[idx]
	catID, createdAt := e.OwnerID(), e.CreatedTime()
	if catID == "" {
		catID = old.OwnerID()
	}
	if createdAt.IsZero() {
		createdAt = old.CreatedTime()
	}
	e.SetIdentity(old.EntryID(), catID, createdAt)
	e.Normalize()
	list[idx] = e
	if err := s.snap.SetEntries(kind, list); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mutatedLocked()
	s.mu.Unlock()

	s.sched.Schedule(TriggerDebounce)
	return nil
}

// DeleteEntry removes the entry and remembers the identifier until a push
// delivers the delete.
func (s *Store) DeleteEntry(kind domain.Kind, id string) error {
	s.mu.Lock()
	list := s.snap.Entries(kind)
	idx := indexOf(list, id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	list = append(list[:idx], list[idx+1:]...)
	if err := s.snap.SetEntries(kind, list); err != nil {
		s.mu.Unlock()
		return err
	}
	s.snap.PendingDeletes[kind] = append(s.snap.PendingDeletes[kind], id)
	s.mutatedLocked()
	s.mu.Unlock()

	s.sched.Schedule(TriggerDebounce)
	return nil
}

// Entry returns a copy of one entry.
func (s *Store) Entry(kind domain.Kind, id string) (domain.Entry, error) {
	list := s.Entries(kind)
	if idx := indexOf(list, id); idx >= 0 {
		return list[idx], nil
	}
	return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// ClearAllData empties the working set and removes the Local Cache key.
func (s *Store) ClearAllData(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) {
	s.snap = domain.NewSnapshot()
	s.rev++
	if err := s.kv.Delete(ctx, CacheKey); err != nil {
		s.logger.Warn("failed to clear local cache", zap.Error(err))
	}
}

// Import replaces the working set with snap. The old data, cache key
// included, is cleared before anything new is written. The imported profile
// is stamped as updated now so it becomes the API's current profile on the
// next push.
func (s *Store) Import(ctx context.Context, snap *domain.Snapshot) {
	in := snap.Clone()
	if in == nil {
		in = domain.NewSnapshot()
	}
	in.PendingDeletes = map[domain.Kind][]string{}
	in.LastSyncedAt = nil
	if in.CatProfile != nil {
		// the API serves the most recently updated profile
		in.CatProfile.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.clearLocked(ctx)
	s.snap = in
	s.mutatedLocked()
	s.mu.Unlock()

	s.sched.Schedule(TriggerDebounce)
}

// SyncNow probes the API and pushes right away. It reports whether the push
// succeeded.
func (s *Store) SyncNow(ctx context.Context) bool {
	if s.opts.Offline {
		return false
	}
	s.SetOnline(s.remote.CheckConnection(ctx))
	return s.push(ctx, TriggerManual)
}

// PullNow replaces the working set with the remote one. It returns false and
// keeps local data when the API is unreachable or holds no profile.
func (s *Store) PullNow(ctx context.Context) bool {
	remote := s.remote.PullFromBackend(ctx)
	if remote == nil {
		s.logger.Info("nothing pulled, keeping local working set")
		return false
	}
	now := time.Now().UTC()
	remote.Dirty = false
	remote.PendingDeletes = map[domain.Kind][]string{}
	remote.LastSyncedAt = &now

	s.mu.Lock()
	s.clearLocked(ctx)
	s.snap = remote
	s.persistLocked(ctx)
	out := s.snap.Clone()
	s.mu.Unlock()

	s.logger.Info("working set pulled", zap.String("cat_id", remote.CatProfile.ID))
	if s.opts.OnReload != nil {
		s.opts.OnReload(out)
	}
	return true
}

func (s *Store) push(ctx context.Context, t Trigger) bool {
	if !s.IsOnline() {
		s.logger.Debug("offline, push skipped", zap.String("trigger", string(t)))
		return false
	}

	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	s.syncing.Add(1)
	defer s.syncing.Add(-1)

	s.mu.Lock()
	snap := s.snap.Clone()
	rev := s.rev
	s.mu.Unlock()

	if !s.remote.PushToBackend(ctx, snap) {
		s.logger.Warn("push failed, will retry", zap.String("trigger", string(t)))
		return false
	}

	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rev == rev {
		s.snap.Dirty = false
	}
	for kind, ids := range snap.PendingDeletes {
		s.snap.PendingDeletes[kind] = without(s.snap.PendingDeletes[kind], ids)
		if len(s.snap.PendingDeletes[kind]) == 0 {
			delete(s.snap.PendingDeletes, kind)
		}
	}
	s.snap.LastSyncedAt = &now
	s.persistLocked(ctx)
	s.logger.Debug("push complete", zap.String("trigger", string(t)))
	return true
}

func (s *Store) mutatedLocked() {
	s.rev++
	s.snap.Dirty = true
	s.persistLocked(context.Background())
}

func (s *Store) persistLocked(ctx context.Context) {
	b, err := domain.EncodeSnapshot(s.snap)
	if err != nil {
		s.logger.Error("failed to encode working set", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, CacheKey, string(b), 0); err != nil {
		s.logger.Warn("failed to write local cache", zap.Error(err))
	}
}

func (s *Store) load(ctx context.Context) *domain.Snapshot {
	raw, err := s.kv.Get(ctx, CacheKey)
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("failed to read local cache", zap.Error(err))
		}
		return domain.NewSnapshot()
	}
	snap, err := domain.DecodeSnapshot([]byte(raw))
	if err != nil {
		s.logger.Warn("local cache unreadable, starting empty", zap.Error(err))
		return domain.NewSnapshot()
	}
	return snap
}

// reload picks up a snapshot written by another process.
func (s *Store) reload(value string) {
	snap, err := domain.DecodeSnapshot([]byte(value))
	if err != nil {
		s.logger.Warn("ignoring unreadable external cache write", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.snap = snap
	s.rev++
	out := snap.Clone()
	s.mu.Unlock()

	s.logger.Info("working set reloaded from local cache")
	if s.opts.OnReload != nil {
		s.opts.OnReload(out)
	}
}

func indexOf(list []domain.Entry, id string) int {
	for i, e := range list {
		if e.EntryID() == id {
			return i
		}
	}
	return -1
}

func without(list, drop []string) []string {
	skip := make(map[string]struct{}, len(drop))
	for _, id := range drop {
		skip[id] = struct{}{}
	}
	out := list[:0]
	for _, id := range list {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
