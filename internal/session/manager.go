package session

import (
	"errors"
	"fmt"
	"sync"

	"rimebridge/internal/native"
	"rimebridge/internal/proto"
)

// Manager owns the sessions of one engine and routes the engine's
// notifications to them.
type Manager struct {
	engine native.Engine
	opts   []Option
	base   options

	mu       sync.RWMutex
	sessions map[native.SessionID]*Session
}

// NewManager returns a manager. The options apply to every session it
// creates; pass Manager.Dispatch as the engine's notification handler.
func NewManager(engine native.Engine, opts ...Option) *Manager {
	return &Manager{
		engine:   engine,
		opts:     opts,
		base:     buildOptions(opts),
		sessions: make(map[native.SessionID]*Session),
	}
}

// Create starts a session. Extra options override the manager's.
func (m *Manager) Create(opts ...Option) (*Session, error) {
	all := append(append([]Option(nil), m.opts...), opts...)
	s, err := New(m.engine, all...)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id native.SessionID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Destroy closes a session and forgets it.
func (m *Manager) Destroy(id native.SessionID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return native.ErrNoSession
	}
	return s.Close()
}

// Dispatch routes a notification to its session. Notifications that carry
// no known session, such as deployment progress, go to every session, or to
// the manager's handler when there are none.
func (m *Manager) Dispatch(n native.Notification) {
	if s, ok := m.Get(n.SessionID); ok {
		s.Notify(n)
		return
	}

	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	if len(all) == 0 {
		if m.base.handler != nil {
			m.base.handler(proto.NewMessage(proto.ParseMessageType(n.Type), []any{n.Value}))
		}
		return
	}
	for _, s := range all {
		s.Notify(n)
	}
}

// Deploy runs engine maintenance.
func (m *Manager) Deploy(full bool) error {
	if err := m.engine.Deploy(full); err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	return nil
}

// Close closes every session.
func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[native.SessionID]*Session)
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
