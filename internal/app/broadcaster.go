// Package app coordinates the live membership state with durable storage:
// one Broadcaster method per inbound chat event.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/storage"
)

// SystemUsername is the sender of join/leave notices.
const SystemUsername = "System"

// Event is the wire payload fanned out to room members.
type Event struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Content  string `json:"content"`
}

// DeliveryResult reports fan-out stats. Delivery is best effort; dropped
// members keep their membership.
type DeliveryResult struct {
	SentTo  int
	Dropped int
}

// Broadcaster fans chat events out to room members and keeps the durable
// history consistent: a message is persisted before anyone sees it live.
type Broadcaster struct {
	Store    storage.Store
	Rooms    *core.Roster
	Sessions *core.Registry
}

func NewBroadcaster(store storage.Store, rooms *core.Roster, sessions *core.Registry) *Broadcaster {
	return &Broadcaster{Store: store, Rooms: rooms, Sessions: sessions}
}

// HandleJoin adds the session to the room and tells everyone, the joiner
// included. The durable Room row is created on first join if missing, so
// a later send to this room can resolve it.
func (b *Broadcaster) HandleJoin(room domain.RoomName, username string, sid core.SessionID) {
	b.Sessions.BindIdentity(sid, username)
	b.Rooms.Join(room, sid)

	if _, err := b.Store.FirstOrCreateRoom(room); err != nil {
		log.Error().Err(err).Str("module", "app.broadcaster").Str("room", string(room)).Msg("ensure durable room")
	}

	b.broadcast(room, Event{
		Type:     "message",
		Username: SystemUsername,
		Content:  fmt.Sprintf("%s has joined the room.", username),
	})
}

// HandleLeave removes the session first, then notifies the remaining
// members, so the departed session never receives its own leave notice.
func (b *Broadcaster) HandleLeave(room domain.RoomName, username string, sid core.SessionID) {
	b.Rooms.Leave(room, sid)

	b.broadcast(room, Event{
		Type:     "message",
		Username: SystemUsername,
		Content:  fmt.Sprintf("%s has left the room.", username),
	})
}

// HandleSend persists the message and fans it out to the room's live
// membership. An unknown username or room drops the event without any
// response. A persistence failure aborts the send before any broadcast.
func (b *Broadcaster) HandleSend(room domain.RoomName, username, content string, sid core.SessionID) error {
	user, err := b.Store.FindUserByUsername(username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Debug().Str("module", "app.broadcaster").Str("username", username).Msg("send from unknown user dropped")
			return nil
		}
		return fmt.Errorf("resolve user: %w", err)
	}

	chatRoom, err := b.Store.FindRoomByName(room)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Debug().Str("module", "app.broadcaster").Str("room", string(room)).Msg("send to unknown room dropped")
			return nil
		}
		return fmt.Errorf("resolve room: %w", err)
	}

	msg := &domain.Message{
		Content:   content,
		Timestamp: time.Now().UTC(),
		UserID:    user.ID,
		RoomID:    chatRoom.ID,
	}
	if err := b.Store.CreateMessage(msg); err != nil {
		log.Error().Err(err).Str("module", "app.broadcaster").Str("room", string(room)).Msg("persist message failed, send aborted")
		return fmt.Errorf("persist message: %w", err)
	}

	b.broadcast(room, Event{Type: "message", Username: username, Content: content})
	return nil
}

// HandleDisconnect tears down the session. The source emits no leave
// notices on disconnect, only on an explicit leave event.
func (b *Broadcaster) HandleDisconnect(sid core.SessionID) {
	b.Sessions.Unregister(sid)
}

// broadcast marshals the event once and pushes it to every member's send
// queue. The membership snapshot is taken under the roster's read lock;
// TrySend happens outside it and never blocks.
func (b *Broadcaster) broadcast(room domain.RoomName, ev Event) DeliveryResult {
	frame, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcaster").Msg("marshal event")
		return DeliveryResult{}
	}

	res := DeliveryResult{}
	for _, sid := range b.Rooms.Members(room) {
		conn, ok := b.Sessions.Conn(sid)
		if !ok {
			res.Dropped++
			continue
		}
		if err := conn.TrySend(core.Frame(frame)); err != nil {
			res.Dropped++
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "app.broadcaster").Str("room", string(room)).Int("sent_to", res.SentTo).Int("dropped", res.Dropped).Msg("broadcast result")
	return res
}
