package controllers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"practicetest/backend/engine"
)

const maxEventLog = 200

var ErrSessionNotFound = errors.New("session not found")

// SessionEvent is an engine event as exposed to polling clients.
type SessionEvent struct {
	Seq        int                 `json:"seq"`
	Kind       engine.EventKind    `json:"kind"`
	GroupIndex int                 `json:"groupIndex"`
	Remaining  int                 `json:"remaining,omitempty"`
	Reason     engine.FinishReason `json:"reason,omitempty"`
	Error      string              `json:"error,omitempty"`
	At         time.Time           `json:"at"`
}

// LiveSession is a running attempt plus the bookkeeping the HTTP layer needs.
type LiveSession struct {
	ID        string
	OwnerID   uint
	CreatedAt time.Time
	Session   *engine.Session
	Playback  *remotePlayback

	now         func() time.Time
	hook        func(*LiveSession, engine.Event)
	hookMu      sync.Mutex
	mu          sync.Mutex
	seq         int
	events      []SessionEvent
	completedAt time.Time
}

func newLiveSession(owner uint, now func() time.Time) *LiveSession {
	return &LiveSession{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		CreatedAt: now(),
		Playback:  &remotePlayback{},
		now:       now,
	}
}

// OnEvent keeps a bounded log of recent events and notes completion.
func (l *LiveSession) OnEvent(e engine.Event) {
	if e.Kind == engine.EventTick {
		return
	}
	l.record(e)
	if l.hook != nil {
		// Completion and submission events arrive from different goroutines.
		l.hookMu.Lock()
		l.hook(l, e)
		l.hookMu.Unlock()
	}
}

func (l *LiveSession) record(e engine.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	ev := SessionEvent{
		Seq:        l.seq,
		Kind:       e.Kind,
		GroupIndex: e.GroupIndex,
		Remaining:  e.Remaining,
		Reason:     e.Reason,
		At:         l.now(),
	}
	if e.Err != nil {
		ev.Error = e.Err.Error()
	}
	l.events = append(l.events, ev)
	if len(l.events) > maxEventLog {
		l.events = append([]SessionEvent(nil), l.events[len(l.events)-maxEventLog:]...)
	}
	if e.Kind == engine.EventCompleted {
		l.completedAt = ev.At
	}
}

// EventsAfter returns logged events with a sequence number above seq.
func (l *LiveSession) EventsAfter(seq int) []SessionEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []SessionEvent{}
	for _, e := range l.events {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

func (l *LiveSession) CompletedAt() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.completedAt, !l.completedAt.IsZero()
}

// SessionStore holds live sessions in memory.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*LiveSession
	retention time.Duration
	now       func() time.Time
}

func NewSessionStore(retention time.Duration) *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]*LiveSession),
		retention: retention,
		now:       time.Now,
	}
}

func (s *SessionStore) NewLive(owner uint) *LiveSession {
	return newLiveSession(owner, s.now)
}

func (s *SessionStore) Add(l *LiveSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[l.ID] = l
}

// Get returns the session only if it belongs to owner.
func (s *SessionStore) Get(id string, owner uint) (*LiveSession, error) {
	s.mu.RLock()
	l, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || l.OwnerID != owner {
		return nil, ErrSessionNotFound
	}
	return l, nil
}

// Remove closes and forgets the session.
func (s *SessionStore) Remove(id string, owner uint) error {
	s.mu.Lock()
	l, ok := s.sessions[id]
	if !ok || l.OwnerID != owner {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	l.Session.Close()
	return nil
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions that completed more than the retention period ago
// and whose result submission has settled.
func (s *SessionStore) Sweep() int {
	cutoff := s.now().Add(-s.retention)

	s.mu.Lock()
	var expired []*LiveSession
	for id, l := range s.sessions {
		at, done := l.CompletedAt()
		if !done || at.After(cutoff) {
			continue
		}
		select {
		case <-l.Session.SubmissionDone():
		default:
			continue
		}
		delete(s.sessions, id)
		expired = append(expired, l)
	}
	s.mu.Unlock()

	for _, l := range expired {
		l.Session.Close()
	}
	return len(expired)
}

// RunSweeper sweeps every interval until ctx is done.
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// CloseAll tears down every session, used on shutdown.
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*LiveSession)
	s.mu.Unlock()

	for _, l := range all {
		l.Session.Close()
	}
}
