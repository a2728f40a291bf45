package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
)

type memorySession struct {
	createdAt time.Time
	expiresAt time.Time
	lists     map[leadgen.ListKind]*leadgen.LeadList
}

// Memory keeps sessions in process. Used when no database is configured and in tests.
type Memory struct {
	conf *Config

	mu       sync.RWMutex
	sessions map[string]*memorySession
}

func NewMemory(conf *Config) *Memory {
	if conf == nil {
		conf = &Config{}
	}
	conf.parse()
	return &Memory{
		conf:     conf,
		sessions: make(map[string]*memorySession),
	}
}

func (m *Memory) CreateSession(ctx context.Context) (*Session, error) {
	now := m.conf.now()
	s := &memorySession{
		createdAt: now,
		expiresAt: now.Add(m.conf.SessionTTL),
		lists:     make(map[leadgen.ListKind]*leadgen.LeadList, len(leadgen.ListKinds)),
	}
	for _, k := range leadgen.ListKinds {
		s.lists[k] = leadgen.NewLeadList(m.conf.SeedLeads...)
	}

	id := uuid.NewString()

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.conf.debugf("memory: created session %s", id)
	return s.snapshot(id), nil
}

func (m *Memory) LoadSession(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(id), nil
}

func (m *Memory) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.get(id); err != nil {
		return err
	}
	delete(m.sessions, id)
	return nil
}

func (m *Memory) List(ctx context.Context, id string, kind leadgen.ListKind) ([]leadgen.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	l, err := s.list(kind)
	if err != nil {
		return nil, err
	}
	return l.Leads(), nil
}

func (m *Memory) AddLead(ctx context.Context, id string, kind leadgen.ListKind, lead leadgen.Lead) ([]leadgen.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	l, err := s.list(kind)
	if err != nil {
		return nil, err
	}
	l.Append(lead)
	return l.Leads(), nil
}

func (m *Memory) RemoveLead(ctx context.Context, id string, kind leadgen.ListKind, index int) ([]leadgen.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	l, err := s.list(kind)
	if err != nil {
		return nil, err
	}
	if _, err := l.Remove(index); err != nil {
		return nil, err
	}
	return l.Leads(), nil
}

func (m *Memory) PurgeExpired(ctx context.Context) (int64, error) {
	now := m.conf.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, s := range m.sessions {
		if !now.Before(s.expiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// get must be called with mu held. Expired sessions read as missing until purged.
func (m *Memory) get(id string) (*memorySession, error) {
	s, ok := m.sessions[id]
	if !ok || !m.conf.now().Before(s.expiresAt) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (s *memorySession) list(kind leadgen.ListKind) (*leadgen.LeadList, error) {
	l, ok := s.lists[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", leadgen.ErrUnknownListKind, kind)
	}
	return l, nil
}

func (s *memorySession) snapshot(id string) *Session {
	out := &Session{
		ID:        id,
		CreatedAt: s.createdAt,
		ExpiresAt: s.expiresAt,
		Lists:     make(map[leadgen.ListKind][]leadgen.Lead, len(s.lists)),
	}
	for k, l := range s.lists {
		out.Lists[k] = l.Leads()
	}
	return out
}
