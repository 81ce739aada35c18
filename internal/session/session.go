// Package session tracks the lifecycle of a single standup round:
// who is expected to report, who already has, and whether the round
// is still alive. At most one session exists at a time; starting a
// new one replaces any previous session.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Manager owns the active session, if any. All methods are safe for
// concurrent use. A Manager with a configured snapshot path persists
// every state change so a restart can resume an in-flight round.
type Manager struct {
	mu      sync.Mutex
	session *state
	timeout time.Duration
	store   *snapshotStore
	now     func() time.Time
}

// state is the in-memory session record. reported only ever contains
// names present in turnOrder.
type state struct {
	scope        string
	startedAt    time.Time
	lastActivity time.Time
	turnOrder    []string
	reported     map[string]bool
	wrappingUp   bool
}

// Summary describes a session at the moment it ended.
type Summary struct {
	Scope     string
	StartedAt time.Time
	Duration  time.Duration
	Reported  int
	Expected  int
}

// Status is a read-only view of the active session.
type Status struct {
	Scope        string
	StartedAt    time.Time
	LastActivity time.Time
	TurnOrder    []string
	Reported     []string
	WrappingUp   bool
}

// NewManager creates a session manager with the given hard session
// lifetime. snapshotPath may be empty to disable persistence.
func NewManager(timeout time.Duration, snapshotPath string) *Manager {
	m := &Manager{
		timeout: timeout,
		now:     time.Now,
	}
	if snapshotPath != "" {
		m.store = &snapshotStore{path: snapshotPath}
	}
	return m
}

// SetClock overrides the manager's time source. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// ErrAlreadyActive is returned by Start while a session is in flight.
// Starts are rejected, not queued.
var ErrAlreadyActive = errors.New("session: a session is already active")

// Start begins a new session for the given scope with the given turn
// order. While a session is active, further starts fail with
// ErrAlreadyActive.
func (m *Manager) Start(scope string, turnOrder []string) error {
	if len(turnOrder) == 0 {
		return fmt.Errorf("session: turn order must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeLocked() {
		return ErrAlreadyActive
	}

	now := m.now()
	order := make([]string, len(turnOrder))
	copy(order, turnOrder)

	m.session = &state{
		scope:        scope,
		startedAt:    now,
		lastActivity: now,
		turnOrder:    order,
		reported:     make(map[string]bool, len(order)),
	}
	m.persistLocked()
	return nil
}

// Active reports whether a session is currently in flight. A session
// past its hard lifetime is discarded here as a side effect, so a true
// result always refers to a live session.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked()
}

func (m *Manager) activeLocked() bool {
	if m.session == nil {
		return false
	}
	if m.now().Sub(m.session.startedAt) >= m.timeout {
		m.discardLocked()
		return false
	}
	return true
}

// MarkReported records that a participant has given their update and
// refreshes the activity timestamp. Names outside the turn order are
// rejected; the reported set is always a subset of the turn order.
func (m *Manager) MarkReported(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return fmt.Errorf("session: no active session")
	}
	if !contains(m.session.turnOrder, name) {
		return fmt.Errorf("session: %q is not in the turn order", name)
	}

	m.session.reported[name] = true
	m.session.lastActivity = m.now()
	m.persistLocked()
	return nil
}

// NextUnreported returns the first participant in the turn order who
// has not reported yet. ok is false when everyone has reported or no
// session is active.
func (m *Manager) NextUnreported() (name string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return "", false
	}
	for _, n := range m.session.turnOrder {
		if !m.session.reported[n] {
			return n, true
		}
	}
	return "", false
}

// AllReported reports whether every participant in the turn order has
// given their update.
func (m *Manager) AllReported() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return false
	}
	for _, n := range m.session.turnOrder {
		if !m.session.reported[n] {
			return false
		}
	}
	return true
}

// TouchActivity refreshes the last-activity timestamp. Call it on any
// state-changing interaction so the inactivity watchdog has a truthful
// reference point.
func (m *Manager) TouchActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return
	}
	m.session.lastActivity = m.now()
	m.persistLocked()
}

// MarkWrappingUp flags the session as past its reporting phase. The
// flag is sticky until the session ends.
func (m *Manager) MarkWrappingUp() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return
	}
	m.session.wrappingUp = true
	m.session.lastActivity = m.now()
	m.persistLocked()
}

// WrappingUp reports whether the session is in its wrap-up phase.
func (m *Manager) WrappingUp() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return false
	}
	return m.session.wrappingUp
}

// End closes the active session and returns a summary of it. Ending
// with no active session returns ok=false.
func (m *Manager) End() (Summary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return Summary{}, false
	}

	s := m.session
	summary := Summary{
		Scope:     s.scope,
		StartedAt: s.startedAt,
		Duration:  m.now().Sub(s.startedAt),
		Reported:  len(s.reported),
		Expected:  len(s.turnOrder),
	}
	m.discardLocked()
	return summary, true
}

// Status returns a snapshot view of the active session. ok is false
// when no session is active.
func (m *Manager) Status() (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return Status{}, false
	}

	s := m.session
	st := Status{
		Scope:        s.scope,
		StartedAt:    s.startedAt,
		LastActivity: s.lastActivity,
		TurnOrder:    make([]string, len(s.turnOrder)),
		WrappingUp:   s.wrappingUp,
	}
	copy(st.TurnOrder, s.turnOrder)
	for _, n := range s.turnOrder {
		if s.reported[n] {
			st.Reported = append(st.Reported, n)
		}
	}
	return st, true
}

// SinceActivity returns how long ago the last state-changing activity
// happened. ok is false when no session is active.
func (m *Manager) SinceActivity() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return 0, false
	}
	return m.now().Sub(m.session.lastActivity), true
}

// SinceStart returns the age of the active session. ok is false when
// no session is active.
func (m *Manager) SinceStart() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return 0, false
	}
	return m.now().Sub(m.session.startedAt), true
}

// discardLocked drops the session and its snapshot. Caller holds mu.
func (m *Manager) discardLocked() {
	m.session = nil
	if m.store != nil {
		m.store.remove()
	}
}

// persistLocked writes the current session to the snapshot store.
// Persistence failures are deliberately swallowed: losing crash
// recovery must never fail a live round. Caller holds mu.
func (m *Manager) persistLocked() {
	if m.store == nil || m.session == nil {
		return
	}
	_ = m.store.save(m.session)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
