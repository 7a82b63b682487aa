// Package http wires the REST surface and the websocket endpoint into a
// gin router.
package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/adapters/signal"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/storage"
)

// Deps holds the constructed collaborators the router needs. No ambient
// globals; everything is passed in from main.
type Deps struct {
	Store storage.Store
	Rooms *core.Roster
	Chat  *signal.ChatWSController
}

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware assigns each browser a stable token; the websocket
// gateway uses it as the session id.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ParleySessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := NewHandlers(deps.Store, deps.Rooms)
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/create_room", h.CreateRoom)

	api := r.Group("/api")
	api.GET("/rooms", h.Rooms)
	api.GET("/rooms/:name/messages", h.RoomMessages)
	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws endpoint hit")
		deps.Chat.HandleChat(ctx, c)
	})

	return r
}
