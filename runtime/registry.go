// Package runtime owns the mutable in-memory state of the chat core and
// the workers that run alongside it. It contains no business rules.
package runtime

import (
	"casechat/contract"
	"casechat/domain"
	"sync"
)

type Set map[string]struct{}

type liveSession struct {
	session domain.Session
	sink    contract.EventSink
}

// Registry is the only shared mutable structure without a durable backing
// store. One RWMutex guards both maps so no caller can observe a session
// present in one and missing in the other.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]liveSession // sessionID -> session + sink
	byUser   map[string]Set         // userID -> sessionIDs
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]liveSession),
		byUser:   make(map[string]Set),
	}
}

// Register inserts a live session. Idempotent: a stale entry with the same
// session id is overwritten rather than duplicated.
func (r *Registry) Register(session domain.Session, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stale, ok := r.sessions[session.ID]; ok {
		r.removeFromUser(stale.session.UserID, session.ID)
	}
	r.sessions[session.ID] = liveSession{session: session, sink: sink}

	if _, ok := r.byUser[session.UserID]; !ok {
		r.byUser[session.UserID] = make(Set)
	}
	r.byUser[session.UserID][session.ID] = struct{}{}
}

// Unregister removes and returns the session if present; no-op otherwise.
// It cleans up empty per-user sets to prevent memory leaks over time.
func (r *Registry) Unregister(sessionID string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, ok := r.sessions[sessionID]
	if !ok {
		return domain.Session{}, false
	}
	delete(r.sessions, sessionID)
	r.removeFromUser(live.session.UserID, sessionID)
	return live.session, true
}

// removeFromUser must run under the write lock.
func (r *Registry) removeFromUser(userID, sessionID string) {
	members, ok := r.byUser[userID]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.byUser, userID)
	}
}

// SessionsFor returns the live session ids of a user; empty means offline.
func (r *Registry) SessionsFor(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for sessionID := range r.byUser[userID] {
		ids = append(ids, sessionID)
	}
	return ids
}

// SinksFor resolves a user's live sessions into their sinks. Callers get a
// snapshot: sessions registered after the call are not included.
func (r *Registry) SinksFor(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for sessionID := range r.byUser[userID] {
		if live, ok := r.sessions[sessionID]; ok {
			sinks = append(sinks, live.sink)
		}
	}
	return sinks
}

// AllSinks snapshots every registered sink, for presence broadcasts.
func (r *Registry) AllSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, live := range r.sessions {
		sinks = append(sinks, live.sink)
	}
	return sinks
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// Count returns the number of live sessions, for monitoring.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
