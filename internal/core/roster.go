package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/domain"
)

// Roster maps room names to the set of currently-connected sessions.
// Entries are created implicitly on first join and pruned when the last
// member leaves; a durable Room row is a separate concern.
//
// All operations are total: joining twice or leaving a room never joined
// is a no-op. A single RWMutex guards the map; no I/O happens under it.
type Roster struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]map[SessionID]struct{}
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
}

func NewRoster() *Roster {
	return &Roster{rooms: make(map[domain.RoomName]map[SessionID]struct{})}
}

func (r *Roster) Join(name domain.RoomName, sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[name]
	if !ok {
		members = make(map[SessionID]struct{})
		r.rooms[name] = members
	}
	members[sid] = struct{}{}
	log.Info().Str("module", "core.roster").Str("room", string(name)).Str("sid", string(sid)).Msg("joined room")
}

func (r *Roster) Leave(name domain.RoomName, sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[name]
	if !ok {
		return
	}
	delete(members, sid)
	if len(members) == 0 {
		delete(r.rooms, name)
	}
	log.Info().Str("module", "core.roster").Str("room", string(name)).Str("sid", string(sid)).Msg("left room")
}

// Members returns a snapshot of the current membership, possibly empty.
func (r *Roster) Members(name domain.RoomName) []SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[name]
	out := make([]SessionID, 0, len(members))
	for sid := range members {
		out = append(out, sid)
	}
	return out
}

func (r *Roster) MemberCount(name domain.RoomName) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[name])
}

// RemoveSessionEverywhere drops the session from every room it occupies.
// Called on disconnect.
func (r *Roster) RemoveSessionEverywhere(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, members := range r.rooms {
		if _, ok := members[sid]; !ok {
			continue
		}
		delete(members, sid)
		if len(members) == 0 {
			delete(r.rooms, name)
		}
	}
	log.Info().Str("module", "core.roster").Str("sid", string(sid)).Msg("removed session everywhere")
}

// Rooms lists live rooms with member counts.
func (r *Roster) Rooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for name, members := range r.rooms {
		out = append(out, RoomInfo{Name: name, MemberCount: len(members)})
	}
	return out
}
