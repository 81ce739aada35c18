package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// snapshot is the on-disk form of a session, written on every state
// change so a process restart can resume an in-flight round.
type snapshot struct {
	Scope        string    `json:"scope"`
	StartedAt    time.Time `json:"startedAt"`
	LastActivity time.Time `json:"lastActivity"`
	TurnOrder    []string  `json:"turnOrder"`
	Reported     []string  `json:"reported"`
	WrappingUp   bool      `json:"wrappingUp"`
}

type snapshotStore struct {
	path string
}

func (s *snapshotStore) save(st *state) error {
	snap := snapshot{
		Scope:        st.scope,
		StartedAt:    st.startedAt,
		LastActivity: st.lastActivity,
		TurnOrder:    st.turnOrder,
		Reported:     make([]string, 0, len(st.reported)),
		WrappingUp:   st.wrappingUp,
	}
	for _, n := range st.turnOrder {
		if st.reported[n] {
			snap.Reported = append(snap.Reported, n)
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("session: create snapshot dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("session: write snapshot: %w", err)
	}
	return nil
}

func (s *snapshotStore) load() (*snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("session: parse snapshot: %w", err)
	}
	return &snap, nil
}

func (s *snapshotStore) remove() {
	_ = os.Remove(s.path)
}

// Restore adopts a persisted session for the given scope, if one
// exists and has not expired. A snapshot for a different scope or past
// the session lifetime is deleted and ignored. Returns true when a
// session was resumed.
func (m *Manager) Restore(scope string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return false
	}
	snap, err := m.store.load()
	if err != nil {
		return false
	}
	if snap.Scope != scope || m.now().Sub(snap.StartedAt) >= m.timeout {
		m.store.remove()
		return false
	}

	reported := make(map[string]bool, len(snap.Reported))
	for _, n := range snap.Reported {
		if contains(snap.TurnOrder, n) {
			reported[n] = true
		}
	}
	m.session = &state{
		scope:        snap.Scope,
		startedAt:    snap.StartedAt,
		lastActivity: snap.LastActivity,
		turnOrder:    snap.TurnOrder,
		reported:     reported,
		wrappingUp:   snap.WrappingUp,
	}
	return true
}
