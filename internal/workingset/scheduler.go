package workingset

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Trigger says why a push was requested.
type Trigger string

const (
	TriggerDebounce  Trigger = "debounce"
	TriggerInterval  Trigger = "interval"
	TriggerReconnect Trigger = "reconnect"
	TriggerManual    Trigger = "manual"
)

// Scheduler runs one push at a time. Debounce requests re-arm a single timer;
// every other trigger runs at once. A request that arrives while a run is in
// flight sets a rerun flag, so any number of overlapping requests produce
// exactly one follow-up run.
type Scheduler struct {
	run      func(ctx context.Context, t Trigger)
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	rerun   bool
	next    Trigger
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(debounce time.Duration, run func(ctx context.Context, t Trigger), logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		run:      run,
		debounce: debounce,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Schedule(t Trigger) {
	if t != TriggerDebounce {
		s.fire(t)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(TriggerDebounce) })
}

func (s *Scheduler) fire(t Trigger) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.running {
		s.rerun = true
		s.next = t
		s.mu.Unlock()
		return
	}
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loop(t)
}

func (s *Scheduler) loop(t Trigger) {
	defer s.wg.Done()
	for {
		s.logger.Debug("sync run", zap.String("trigger", string(t)))
		s.run(s.ctx, t)

		s.mu.Lock()
		if !s.rerun || s.closed {
			s.running = false
			s.mu.Unlock()
			return
		}
		s.rerun = false
		t = s.next
		s.mu.Unlock()
	}
}

// Running reports whether a run is in flight.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Close drops the pending debounce, cancels the in-flight run's context and
// waits for it to return. Later Schedule calls are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
