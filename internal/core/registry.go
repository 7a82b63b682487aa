package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Username string
	Conn     SignalConnection
	Cancel   context.CancelFunc
}

// Registry tracks every live connection: its bound identity (if any) and
// its transport endpoint. Identity arrives per-event, so BindIdentity is
// a last-write-wins re-bind. Scoped to process lifetime; nothing here is
// persisted.
type Registry struct {
	mu       sync.RWMutex
	roster   *Roster
	sessions map[SessionID]*sessionEntry
}

func NewRegistry(roster *Roster) *Registry {
	return &Registry{
		roster:   roster,
		sessions: make(map[SessionID]*sessionEntry),
	}
}

// Register creates an entry with no bound identity. Called when a
// connection is accepted.
func (r *Registry) Register(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sid]; ok {
		return
	}
	r.sessions[sid] = &sessionEntry{}
	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Msg("registered session")
}

// BindConn attaches the transport endpoint used by fan-out.
func (r *Registry) BindConn(sid SessionID, conn SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		entry = &sessionEntry{}
		r.sessions[sid] = entry
	}
	entry.Conn = conn
	entry.Cancel = cancel
	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Msg("bound connection")
}

func (r *Registry) BindIdentity(sid SessionID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return
	}
	entry.Username = username
	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Str("username", username).Msg("bound identity")
}

func (r *Registry) Username(sid SessionID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.Username == "" {
		return "", false
	}
	return entry.Username, true
}

func (r *Registry) Conn(sid SessionID) (SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.Conn == nil {
		return nil, false
	}
	return entry.Conn, true
}

// Unregister removes the session entry and drops it from every room.
// Called on disconnect.
func (r *Registry) Unregister(sid SessionID) {
	r.mu.Lock()
	delete(r.sessions, sid)
	r.mu.Unlock()

	r.roster.RemoveSessionEverywhere(sid)
	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Msg("unregistered session")
}

// Cancel stops the session's pumps, if a connection is bound.
func (r *Registry) Cancel(sid SessionID) bool {
	r.mu.RLock()
	entry, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok || entry.Cancel == nil {
		return false
	}
	entry.Cancel()
	return true
}
