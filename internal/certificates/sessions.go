package certificates

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionGauge tracks how many sessions are held
type SessionGauge interface {
	Set(float64)
}

// SessionStore keeps one Controller per browser session in memory.
type SessionStore struct {
	sessions   map[string]*sessionEntry
	ttl        time.Duration
	newSession func() *Controller
	onEvict    func(id string)
	gauge      SessionGauge
	now        func() time.Time
	mu         sync.RWMutex
}

type sessionEntry struct {
	controller *Controller
	lastSeen   time.Time
}

// SessionStoreOptions configures a SessionStore
type SessionStoreOptions struct {
	IdleTTL    time.Duration
	NewSession func() *Controller
	OnEvict    func(id string)
	Gauge      SessionGauge
	Now        func() time.Time
}

// NewSessionStore creates an empty session store
func NewSessionStore(opts SessionStoreOptions) *SessionStore {
	newSession := opts.NewSession
	if newSession == nil {
		newSession = func() *Controller { return NewController(ControllerOptions{}) }
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		sessions:   make(map[string]*sessionEntry),
		ttl:        opts.IdleTTL,
		newSession: newSession,
		onEvict:    opts.OnEvict,
		gauge:      opts.Gauge,
		now:        now,
	}
}

// Get returns the controller for id, creating it on first use.
func (s *SessionStore) Get(id string) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		entry = &sessionEntry{controller: s.newSession()}
		s.sessions[id] = entry
		s.updateGauge()
	}
	entry.lastSeen = s.now()
	return entry.controller
}

// Lookup returns the controller for id without creating one. A hit counts
// as activity and resets the idle timer.
func (s *SessionStore) Lookup(id string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = s.now()
	return entry.controller, true
}

// Delete drops a session
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.updateGauge()
	s.mu.Unlock()

	if ok && s.onEvict != nil {
		s.onEvict(id)
	}
}

// Size returns the number of sessions
func (s *SessionStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns their ids.
func (s *SessionStore) Sweep() []string {
	if s.ttl <= 0 {
		return nil
	}

	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var evicted []string
	for id, entry := range s.sessions {
		if entry.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	s.updateGauge()
	s.mu.Unlock()

	if s.onEvict != nil {
		for _, id := range evicted {
			s.onEvict(id)
		}
	}
	return evicted
}

// callers hold mu
func (s *SessionStore) updateGauge() {
	if s.gauge != nil {
		s.gauge.Set(float64(len(s.sessions)))
	}
}

// SessionSweeper runs SessionStore.Sweep on a cron schedule.
type SessionSweeper struct {
	cron    *cron.Cron
	store   *SessionStore
	logger  *zap.Logger
	mu      sync.Mutex
	running bool
}

// NewSessionSweeper registers the sweep job. The schedule uses standard
// cron syntax or descriptors such as "@every 5m".
func NewSessionSweeper(store *SessionStore, schedule string, logger *zap.Logger) (*SessionSweeper, error) {
	sw := &SessionSweeper{
		cron:   cron.New(),
		store:  store,
		logger: logger,
	}

	if _, err := sw.cron.AddFunc(schedule, sw.sweep); err != nil {
		return nil, err
	}
	return sw, nil
}

// Start begins running the schedule
func (sw *SessionSweeper) Start() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.running {
		return
	}
	sw.cron.Start()
	sw.running = true
	sw.logger.Info("Session sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish
func (sw *SessionSweeper) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if !sw.running {
		return
	}
	<-sw.cron.Stop().Done()
	sw.running = false
	sw.logger.Info("Session sweeper stopped")
}

func (sw *SessionSweeper) sweep() {
	evicted := sw.store.Sweep()
	if len(evicted) > 0 {
		sw.logger.Info("Evicted idle sessions",
			zap.Int("count", len(evicted)),
			zap.Int("remaining", sw.store.Size()))
	}
}
