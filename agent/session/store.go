package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/sornchai/shoptalk/agent/contract"
)

const defaultMaxAge = 24 * time.Hour

// Durable is the optional backing store consulted on cache miss and written
// through on every mutation. The in-memory copy stays authoritative: durable
// failures are logged and swallowed.
type Durable interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, st *Session) error
	Delete(ctx context.Context, sessionID string) error
}

type StoreOption func(*Store)

func WithDurable(d Durable) StoreOption {
	return func(s *Store) {
		s.durable = d
	}
}

func WithMaxAge(maxAge time.Duration) StoreOption {
	return func(s *Store) {
		if maxAge > 0 {
			s.maxAge = maxAge
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store maps opaque session ids to conversation state. Mutations to a single
// session are serialized through a per-session mutex; different sessions are
// fully independent.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	durable Durable
	maxAge  time.Duration
	now     func() time.Time
}

type entry struct {
	mu      sync.Mutex
	session *Session
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		maxAge:   defaultMaxAge,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GetOrCreateParams are the caller-supplied hints for resolving a session.
type GetOrCreateParams struct {
	SessionID     string
	CustomerToken string
	CartID        string
}

// GetOrCreate resolves an existing session or creates a fresh one when the id
// is absent, unknown, or expired. A newly supplied credential applies the
// one-way guest to authenticated upgrade; this is the only point where the
// upgrade fires.
func (s *Store) GetOrCreate(ctx context.Context, p GetOrCreateParams) (*Session, error) {
	if p.SessionID != "" {
		if e, ok := s.lookup(ctx, p.SessionID); ok {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.session.Upgrade(p.CustomerToken)
			if p.CartID != "" {
				e.session.CartID = p.CartID
			}
			e.session.Touch(s.now())
			s.persist(ctx, e.session)
			return e.session.Clone(), nil
		}
	}

	st := New(uuid.NewString(), s.now())
	st.Upgrade(p.CustomerToken)
	st.CartID = p.CartID

	s.mu.Lock()
	s.sessions[st.ID] = &entry{session: st}
	s.mu.Unlock()

	s.persist(ctx, st)
	return st.Clone(), nil
}

// Append records one immutable message, enforcing the history bound. It never
// implicitly creates a session.
func (s *Store) Append(ctx context.Context, sessionID string, role contractx.Role, content string, meta Metadata) (Message, error) {
	e, ok := s.lookup(ctx, sessionID)
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", contractx.ErrNotFound, sessionID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	msg := Message{
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
		ToolsUsed: append([]string(nil), meta.ToolsUsed...),
		Intent:    meta.Intent,
	}
	e.session.append(msg)
	e.session.Touch(s.now())
	s.persist(ctx, e.session)
	return msg, nil
}

// RecentHistory returns the most recent limit messages, oldest first.
func (s *Store) RecentHistory(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	e, ok := s.lookup(ctx, sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrNotFound, sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Recent(limit), nil
}

// SetCartID overwrites the session's cart reference.
func (s *Store) SetCartID(ctx context.Context, sessionID, cartID string) error {
	e, ok := s.lookup(ctx, sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", contractx.ErrNotFound, sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.CartID = cartID
	e.session.Touch(s.now())
	s.persist(ctx, e.session)
	return nil
}

// ClearHistory drops all messages but keeps the session alive.
func (s *Store) ClearHistory(ctx context.Context, sessionID string) error {
	e, ok := s.lookup(ctx, sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", contractx.ErrNotFound, sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.History = nil
	e.session.Touch(s.now())
	s.persist(ctx, e.session)
	return nil
}

// Delete destroys a session. Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if s.durable != nil {
		if err := s.durable.Delete(ctx, sessionID); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("durable session delete failed")
		}
	}
	return nil
}

// EvictStale removes sessions idle longer than maxAge (the store default when
// non-positive) and reports how many were dropped.
func (s *Store) EvictStale(ctx context.Context, maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = s.maxAge
	}
	now := s.now()

	s.mu.Lock()
	var stale []string
	for id, e := range s.sessions {
		e.mu.Lock()
		expired := e.session.Stale(now, maxAge)
		e.mu.Unlock()
		if expired {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if s.durable != nil {
		for _, id := range stale {
			if err := s.durable.Delete(ctx, id); err != nil {
				log.Warn().Err(err).Str("session_id", id).Msg("durable session delete failed")
			}
		}
	}
	return len(stale)
}

// lookup finds a live session in memory, falling back to the durable store on
// cache miss. Expired sessions are treated as unresolvable.
func (s *Store) lookup(ctx context.Context, sessionID string) (*entry, bool) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if ok {
		// LastActivity is written under e.mu by Touch; read it under the
		// same lock. Released before the map write so e.mu is never held
		// while waiting on s.mu.
		e.mu.Lock()
		stale := e.session.Stale(s.now(), s.maxAge)
		e.mu.Unlock()
		if stale {
			s.mu.Lock()
			delete(s.sessions, sessionID)
			s.mu.Unlock()
			return nil, false
		}
		return e, true
	}

	if s.durable == nil || sessionID == "" {
		return nil, false
	}

	st, err := s.durable.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, contractx.ErrNotFound) {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("durable session load failed")
		}
		return nil, false
	}
	if st.Stale(s.now(), s.maxAge) {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionID]; ok {
		// lost the adoption race; memory wins
		return existing, true
	}
	e = &entry{session: st}
	s.sessions[sessionID] = e
	return e, true
}

// persist writes through to the durable store. Failures are logged and
// swallowed; the in-memory copy remains the source of truth.
func (s *Store) persist(ctx context.Context, st *Session) {
	if s.durable == nil {
		return
	}
	if err := s.durable.Save(ctx, st.Clone()); err != nil {
		log.Warn().Err(err).Str("session_id", st.ID).Msg("durable session save failed")
	}
}
