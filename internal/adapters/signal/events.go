package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
)

// chatPayload covers every inbound chat event; content is only set on
// send_message.
type chatPayload struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Room     string `json:"room"`
	Content  string `json:"content,omitempty"`
}

func (ctl *ChatWSController) decode(conn *WsSignalConn, data []byte) (chatPayload, bool) {
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad payload")
		ctl.sendError(conn, "bad_payload")
		return p, false
	}
	if p.Username == "" || p.Room == "" {
		ctl.sendError(conn, "bad_payload")
		return p, false
	}
	if err := domain.ValidateRoomName(domain.RoomName(p.Room)); err != nil {
		ctl.sendError(conn, "bad_payload")
		return p, false
	}
	return p, true
}

func (ctl *ChatWSController) handleJoin(sid core.SessionID, conn *WsSignalConn, data []byte) {
	p, ok := ctl.decode(conn, data)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Msg("join")
	ctl.App.HandleJoin(domain.RoomName(p.Room), p.Username, sid)
}

func (ctl *ChatWSController) handleLeave(sid core.SessionID, conn *WsSignalConn, data []byte) {
	p, ok := ctl.decode(conn, data)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Msg("leave")
	ctl.App.HandleLeave(domain.RoomName(p.Room), p.Username, sid)
}

func (ctl *ChatWSController) handleSend(sid core.SessionID, conn *WsSignalConn, data []byte) {
	p, ok := ctl.decode(conn, data)
	if !ok {
		return
	}
	if p.Content == "" {
		ctl.sendError(conn, "bad_payload")
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(sid) {
		ctl.sendError(conn, "rate_limited")
		return
	}
	if err := ctl.App.HandleSend(domain.RoomName(p.Room), p.Username, p.Content, sid); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("send failed")
	}
}

func (ctl *ChatWSController) handlePing(_ core.SessionID, conn *WsSignalConn, _ []byte) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}
