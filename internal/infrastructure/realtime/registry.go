package realtime

import (
	"sort"
	"sync"

	"github.com/gorilla/websocket"
)

// EventOnlineUsers carries the full presence snapshot.
const EventOnlineUsers = "getOnlineUsers"

// Session is a live, identity-bound send capability. Connection implements it.
type Session interface {
	ID() string
	UserID() string
	Send(payload []byte) error
}

type closer interface {
	Close(code int, reason string)
}

// Observer is told about registry sizes after every change.
type Observer interface {
	PresenceChanged(connections, online int)
}

// Registry is the presence registry. It tracks every live session and maps each
// user to at most one of them, the most recently recorded. A newer session for
// the same user replaces the mapping but does not close the older transport.
//
// Every mutation pushes the complete online list to all live sessions. The
// snapshot is enqueued while the lock is held so that each session observes
// snapshots in mutation order.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]Session // sessionID -> session
	online   map[string]string  // userID -> sessionID
	observer Observer
}

// NewRegistry constructs an empty Registry. observer may be nil.
func NewRegistry(observer Observer) *Registry {
	return &Registry{
		sessions: make(map[string]Session),
		online:   make(map[string]string),
		observer: observer,
	}
}

// Record tracks s and makes it the current session of its user.
func (r *Registry) Record(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
	r.online[s.UserID()] = s.ID()
	r.changedLocked()
}

// Remove deletes the user's presence mapping. Removing an absent user is a no-op
// apart from the snapshot broadcast.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.online, userID)
	r.changedLocked()
}

// Detach forgets a closed session. The user's mapping is removed only if it
// still points at s; a superseded connection closing leaves the newer one online.
func (r *Registry) Detach(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s.ID())
	if current, ok := r.online[s.UserID()]; ok && current == s.ID() {
		delete(r.online, s.UserID())
	}
	r.changedLocked()
}

// Lookup returns the current session of userID.
func (r *Registry) Lookup(userID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(userID)
}

// IsOnline reports whether userID has a live mapping.
func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// ListOnline returns the users with a live mapping, sorted.
func (r *Registry) ListOnline() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked()
}

// NotifyUser delivers payload to the current session of userID.
// It reports false when the user is offline or the send failed.
func (r *Registry) NotifyUser(userID string, payload []byte) bool {
	s, ok := r.Lookup(userID)
	if !ok {
		return false
	}
	return s.Send(payload) == nil
}

// Close closes every tracked session and clears state.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]Session)
	r.online = make(map[string]string)
	r.mu.Unlock()

	for _, s := range sessions {
		if c, ok := s.(closer); ok {
			c.Close(websocket.CloseGoingAway, "server shutdown")
		}
	}
}

func (r *Registry) lookupLocked(userID string) (Session, bool) {
	id, ok := r.online[userID]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) listLocked() []string {
	ids := make([]string, 0, len(r.online))
	for uid := range r.online {
		ids = append(ids, uid)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) changedLocked() {
	if r.observer != nil {
		r.observer.PresenceChanged(len(r.sessions), len(r.online))
	}
	payload, err := Encode(EventOnlineUsers, r.listLocked())
	if err != nil {
		return
	}
	for _, s := range r.sessions {
		_ = s.Send(payload)
	}
}
