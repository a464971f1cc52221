package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type expiring struct {
	value     string
	expiresAt time.Time
}

func (e expiring) alive(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

type pendingCharge struct {
	sessionID string
	deadline  time.Time
	expiresAt time.Time
}

// MemoryStore реализация для одного процесса с теми же правилами TTL, что и RedisStore
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	data    map[string]expiring
	commits map[string]expiring
	charges map[string]pendingCharge
	events  map[string]expiring
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		data:    make(map[string]expiring),
		commits: make(map[string]expiring),
		charges: make(map[string]pendingCharge),
		events:  make(map[string]expiring),
	}
}

// WithClock подменяет часы, по которым истекают ключи
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

func (s *MemoryStore) Save(_ context.Context, session *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%w: Save - marshal session %s: %v", ErrStore, session.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[session.ID] = expiring{value: string(data), expiresAt: s.deadline(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	entry, ok := s.data[id]
	if ok && !entry.alive(s.now()) {
		delete(s.data, id)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(entry.value), &session); err != nil {
		return nil, fmt.Errorf("%w: session %s: %v", ErrDecode, id, err)
	}
	return &session, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	delete(s.commits, id)
	return nil
}

func (s *MemoryStore) AcquireCommitLock(_ context.Context, sessionID, token string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if held, ok := s.commits[sessionID]; ok && held.alive(s.now()) {
		return false, nil
	}
	s.commits[sessionID] = expiring{value: token, expiresAt: s.deadline(ttl)}
	return true, nil
}

func (s *MemoryStore) ReleaseCommitLock(_ context.Context, sessionID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if held, ok := s.commits[sessionID]; ok && held.value == token {
		delete(s.commits, sessionID)
	}
	return nil
}

func (s *MemoryStore) TrackCharge(_ context.Context, reference, sessionID string, deadline time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charges[reference] = pendingCharge{sessionID: sessionID, deadline: deadline, expiresAt: s.deadline(ttl)}
	return nil
}

func (s *MemoryStore) SessionByCharge(_ context.Context, reference string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	charge, ok := s.charges[reference]
	if !ok || (!charge.expiresAt.IsZero() && !s.now().Before(charge.expiresAt)) {
		return "", ErrChargeNotFound
	}
	return charge.sessionID, nil
}

func (s *MemoryStore) DueCharges(_ context.Context, now time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type due struct {
		ref      string
		deadline time.Time
	}
	var list []due
	for ref, charge := range s.charges {
		if !charge.deadline.After(now) {
			list = append(list, due{ref: ref, deadline: charge.deadline})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].deadline.Before(list[j].deadline) })

	refs := make([]string, 0, len(list))
	for i, d := range list {
		if limit > 0 && i >= limit {
			break
		}
		refs = append(refs, d.ref)
	}
	return refs, nil
}

func (s *MemoryStore) UntrackCharge(_ context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.charges, reference)
	return nil
}

func (s *MemoryStore) MarkEventProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seen, ok := s.events[eventID]; ok && seen.alive(s.now()) {
		return false, nil
	}
	s.events[eventID] = expiring{value: eventID, expiresAt: s.deadline(ttl)}
	return true, nil
}

func (s *MemoryStore) ForgetEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, eventID)
	return nil
}
