// Package signal is the websocket gateway: it accepts connections, decodes
// inbound chat events and hands them to the Broadcaster.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type eventHandler func(sid core.SessionID, conn *WsSignalConn, data []byte)

type ChatWSController struct {
	App     *app.Broadcaster
	Limiter *SendRateLimiter

	// ReadLimit caps inbound message size (zero = no cap); PingPeriod
	// drives keepalive pings from the write pump.
	ReadLimit  int64
	PingPeriod time.Duration

	handlers map[string]eventHandler
}

func NewChatWSController(b *app.Broadcaster, limiter *SendRateLimiter) *ChatWSController {
	ctl := &ChatWSController{App: b, Limiter: limiter}
	ctl.handlers = map[string]eventHandler{
		"join":         ctl.handleJoin,
		"leave":        ctl.handleLeave,
		"send_message": ctl.handleSend,
		"ping":         ctl.handlePing,
	}
	return ctl
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleChat upgrades the request and starts the session's pumps. The
// client-token cookie set by the HTTP middleware doubles as session id.
func (ctl *ChatWSController) HandleChat(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.App.Sessions.Register(sid)
	ctl.App.Sessions.BindConn(sid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
