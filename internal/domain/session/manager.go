package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cradlehq/cradle/backend/internal/domain/blueprint"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/logging"
	"github.com/cradlehq/cradle/backend/internal/shared/id"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

const (
	// DefaultMaxSessions caps the number of live editing sessions.
	DefaultMaxSessions = 1000
	// DefaultIdleTTL is how long an untouched session survives.
	DefaultIdleTTL = 24 * time.Hour
)

// Session is one editing session and the store it owns.
type Session struct {
	ID        string
	Template  string
	CreatedAt time.Time
	Store     *blueprint.Store

	seq        uint64
	lastActive atomic.Int64
}

func (s *Session) touch(now time.Time) { s.lastActive.Store(now.UnixNano()) }

// LastActive reports when the session was last read or written.
func (s *Session) LastActive() time.Time { return time.Unix(0, s.lastActive.Load()) }

// Info is the listing view of a session.
type Info struct {
	ID          string    `json:"id"`
	BlueprintID string    `json:"blueprintId"`
	Name        string    `json:"name"`
	Template    string    `json:"template,omitempty"`
	NodeCount   int       `json:"nodeCount"`
	EdgeCount   int       `json:"edgeCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	LastActive  time.Time `json:"lastActive"`
}

// Info summarizes the session.
func (s *Session) Info() Info {
	bp := s.Store.Blueprint()
	return Info{
		ID:          s.ID,
		BlueprintID: bp.ID,
		Name:        bp.Name,
		Template:    s.Template,
		NodeCount:   len(bp.Nodes),
		EdgeCount:   len(bp.Edges),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   bp.UpdatedAt,
		LastActive:  s.LastActive(),
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxSessions sets the live session cap.
func WithMaxSessions(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxSessions = int64(n)
		}
	}
}

// WithIdleTTL sets how long an idle session is kept.
func WithIdleTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.idleTTL = d
		}
	}
}

// WithClock overrides the clock for sessions and their stores.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithStoreOptions passes options to every store the manager creates.
func WithStoreOptions(opts ...blueprint.Option) Option {
	return func(m *Manager) {
		m.storeOpts = append(m.storeOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.OrNop(l).Named("session")
	}
}

// Manager owns the live editing sessions.
type Manager struct {
	sessions    sync.Map
	count       atomic.Int64
	seq         atomic.Uint64
	evictMu     sync.Mutex
	parser      *blueprint.Parser
	maxSessions int64
	idleTTL     time.Duration
	clock       func() time.Time
	storeOpts   []blueprint.Option
	logger      *logging.Logger
}

// NewManager creates a session manager. parser builds templates and cleans
// imported blueprints.
func NewManager(parser *blueprint.Parser, opts ...Option) *Manager {
	m := &Manager{
		parser:      parser,
		maxSessions: DefaultMaxSessions,
		idleTTL:     DefaultIdleTTL,
		clock:       time.Now,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateOptions selects the starting blueprint of a new session. Blueprint
// wins over Template when both are set.
type CreateOptions struct {
	Name      string
	Template  string
	Blueprint *blueprint.Blueprint
}

// Create starts a session.
func (m *Manager) Create(opts CreateOptions) (*Session, error) {
	var bp blueprint.Blueprint
	if opts.Blueprint != nil {
		bp = m.parser.Normalize(*opts.Blueprint)
	} else {
		var err error
		bp, err = m.parser.FromTemplate(opts.Template)
		if err != nil {
			return nil, err
		}
	}
	if opts.Name != "" {
		bp.Name = opts.Name
	}

	now := m.clock()
	storeOpts := append([]blueprint.Option{blueprint.WithClock(m.clock)}, m.storeOpts...)
	s := &Session{
		ID:        id.NewSessionID(),
		Template:  opts.Template,
		CreatedAt: now,
		Store:     blueprint.NewStore(bp, storeOpts...),
		seq:       m.seq.Add(1),
	}
	s.touch(now)

	m.sessions.Store(s.ID, s)
	if m.count.Add(1) > m.maxSessions {
		m.evict(s.ID)
	}

	m.logger.Debug("Session created",
		zap.String("session_id", s.ID),
		zap.String("template", opts.Template),
		zap.Int("nodes", len(bp.Nodes)))
	return s, nil
}

// Get returns a live session and marks it active.
func (m *Manager) Get(sessionID string) (*Session, error) {
	v, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s := v.(*Session)
	s.touch(m.clock())
	return s, nil
}

// Delete ends a session and closes its subscriptions.
func (m *Manager) Delete(sessionID string) bool {
	v, ok := m.sessions.LoadAndDelete(sessionID)
	if !ok {
		return false
	}
	m.count.Add(-1)
	v.(*Session).Store.Close()
	return true
}

// List returns session summaries, most recently active first.
func (m *Manager) List() []Info {
	out := []Info{}
	m.sessions.Range(func(_, v interface{}) bool {
		out = append(out, v.(*Session).Info())
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActive.After(out[j].LastActive)
	})
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return int(m.count.Load())
}

// Sweep removes sessions idle longer than the TTL and returns how many.
func (m *Manager) Sweep() int {
	cutoff := m.clock().Add(-m.idleTTL)
	removed := 0
	m.sessions.Range(func(key, v interface{}) bool {
		if v.(*Session).LastActive().Before(cutoff) && m.Delete(key.(string)) {
			removed++
		}
		return true
	})
	if removed > 0 {
		m.logger.Info("Expired idle sessions", zap.Int("count", removed))
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done. onSweep, when
// set, receives the number removed by each pass.
func (m *Manager) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := m.Sweep()
			if onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

// Close ends every session.
func (m *Manager) Close() {
	m.sessions.Range(func(key, _ interface{}) bool {
		m.Delete(key.(string))
		return true
	})
}

// evict drops the least recently active sessions, oldest first on ties,
// until the cap holds. keep is never a candidate.
func (m *Manager) evict(keep string) {
	m.evictMu.Lock()
	defer m.evictMu.Unlock()

	type candidate struct {
		id   string
		last int64
		seq  uint64
	}

	var evicted int64
	for {
		excess := m.count.Load() - m.maxSessions
		if excess <= 0 {
			break
		}

		var all []candidate
		m.sessions.Range(func(key, v interface{}) bool {
			s := v.(*Session)
			if s.ID != keep {
				all = append(all, candidate{id: s.ID, last: s.lastActive.Load(), seq: s.seq})
			}
			return true
		})
		sort.Slice(all, func(i, j int) bool {
			if all[i].last != all[j].last {
				return all[i].last < all[j].last
			}
			return all[i].seq < all[j].seq
		})

		deleted := int64(0)
		for _, c := range all {
			if deleted >= excess {
				break
			}
			if m.Delete(c.id) {
				deleted++
			}
		}
		evicted += deleted
		if deleted == 0 {
			break
		}
	}
	if evicted > 0 {
		m.logger.Warn("Session cap reached, evicted idle sessions", zap.Int64("evicted", evicted))
	}
}
