package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "storefront_active_sessions",
	Help: "Browsing sessions currently held in memory",
})

// Manager holds the live sessions, keyed by session id, and closes the ones
// left idle.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	deps    Dependencies
	idleTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewManager creates a Manager. Sessions unused for idleTTL are closed by
// Sweep; their persisted state survives and is reloaded on the next visit.
func NewManager(deps Dependencies, idleTTL time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		deps:     deps,
		idleTTL:  idleTTL,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// Get returns the session id, creating and starting it on first use. The
// session is touched under the manager lock, so a concurrent Sweep either
// removes it before Get finds it or sees it as fresh.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		s.touch(m.now())
	}
	m.mu.Unlock()
	if ok {
		return s
	}

	created := New(ctx, id, m.deps)

	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.touch(m.now())
		m.mu.Unlock()
		created.Close(ctx)
		return s
	}
	created.touch(m.now())
	m.sessions[id] = created
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	created.Start()
	m.logger.DebugContext(ctx, "session opened", slog.String("session_id", id))
	return created
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the idle TTL and returns how
// many were closed.
func (m *Manager) Sweep(ctx context.Context) int {
	m.mu.Lock()
	cutoff := m.now().Add(-m.idleTTL)
	var idle []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range idle {
		s.Close(ctx)
	}
	if len(idle) > 0 {
		m.logger.InfoContext(ctx, "idle sessions closed", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CloseAll closes every live session.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	activeSessions.Set(0)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range all {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Close(ctx)
		}(s)
	}
	wg.Wait()
}
