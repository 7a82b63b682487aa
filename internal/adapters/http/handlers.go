package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/storage"
)

const defaultHistoryLimit = 100

type Handlers struct {
	Store  storage.Store
	Roster *core.Roster
}

func NewHandlers(store storage.Store, rooms *core.Roster) *Handlers {
	return &Handlers{Store: store, Roster: rooms}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account. 201 on success, 400 on a missing or invalid
// field, 409 on a duplicate username.
func (h *Handlers) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required."})
		return
	}
	if err := domain.ValidateUsername(req.Username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid username."})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed."})
		return
	}

	user := &domain.User{Username: req.Username, Password: string(hash)}
	if err := h.Store.CreateUser(user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"message": "Username already exists."})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("create user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully."})
}

// Login verifies credentials and stores the user id in the cookie session.
// Failures stay generic: 401 with no detail.
func (h *Handlers) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials."})
		return
	}

	user, err := h.Store.FindUserByUsername(req.Username)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials."})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", uint(user.ID))
	if err := session.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login successful.", "user_id": user.ID})
}

type createRoomRequest struct {
	Name string `json:"name"`
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Room name is required."})
		return
	}
	if err := domain.ValidateRoomName(domain.RoomName(req.Name)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid room name."})
		return
	}

	room := &domain.Room{Name: domain.RoomName(req.Name)}
	if err := h.Store.CreateRoom(room); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"message": "Room already exists."})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Room creation failed."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Room created successfully."})
}

type roomView struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
}

// Rooms lists durable rooms with their live member counts.
func (h *Handlers) Rooms(c *gin.Context) {
	rooms, err := h.Store.Rooms()
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list rooms."})
		return
	}

	out := make([]roomView, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, roomView{
			Name:        room.Name,
			MemberCount: h.Roster.MemberCount(room.Name),
		})
	}
	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

// RoomMessages returns persisted history in ascending timestamp order.
func (h *Handlers) RoomMessages(c *gin.Context) {
	name := domain.RoomName(c.Param("name"))

	room, err := h.Store.FindRoomByName(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Room not found."})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("find room")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load history."})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	msgs, err := h.Store.MessagesByRoom(room.ID, limit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("load history")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load history."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": room.Name, "messages": msgs})
}
