package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/storage"
)

func setupTestRouter(t *testing.T) (*gin.Engine, storage.Store, *core.Roster) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	roster := core.NewRoster()
	h := NewHandlers(store, roster)

	r := gin.New()
	r.Use(sessions.Sessions("ParleySessions", cookie.NewStore([]byte("test-secret"))))
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/create_room", h.CreateRoom)
	r.GET("/api/rooms", h.Rooms)
	r.GET("/api/rooms/:name/messages", h.RoomMessages)
	return r, store, roster
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	r, store, _ := setupTestRouter(t)

	w := doJSON(r, http.MethodPost, "/register", `{"username":"alice","password":"secret"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	t.Run("duplicate", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/register", `{"username":"alice","password":"other"}`)
		assert.Equal(t, http.StatusConflict, w.Code)

		user, err := store.FindUserByUsername("alice")
		require.NoError(t, err)
		assert.NotEmpty(t, user.Password)
	})

	t.Run("missing password", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/register", `{"username":"bob"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("password is hashed", func(t *testing.T) {
		user, err := store.FindUserByUsername("alice")
		require.NoError(t, err)
		assert.NotEqual(t, "secret", user.Password)
	})
}

func TestLogin(t *testing.T) {
	r, _, _ := setupTestRouter(t)
	w := doJSON(r, http.MethodPost, "/register", `{"username":"alice","password":"secret"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("valid credentials", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/login", `{"username":"alice","password":"secret"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			UserID uint `json:"user_id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotZero(t, resp.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/login", `{"username":"alice","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/login", `{"username":"nobody","password":"secret"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCreateRoom(t *testing.T) {
	r, _, _ := setupTestRouter(t)

	w := doJSON(r, http.MethodPost, "/create_room", `{"name":"general"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/create_room", `{"name":"general"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, "/create_room", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRooms(t *testing.T) {
	r, _, roster := setupTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/create_room", `{"name":"general"}`).Code)
	roster.Join("general", "s1")
	roster.Join("general", "s2")

	w := doJSON(r, http.MethodGet, "/api/rooms", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Rooms []struct {
			Name        string `json:"name"`
			MemberCount int    `json:"member_count"`
		} `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rooms, 1)
	assert.Equal(t, "general", resp.Rooms[0].Name)
	assert.Equal(t, 2, resp.Rooms[0].MemberCount)
}

func TestRoomMessages(t *testing.T) {
	r, store, _ := setupTestRouter(t)

	user := &domain.User{Username: "alice", Password: "h"}
	require.NoError(t, store.CreateUser(user))
	room := &domain.Room{Name: "general"}
	require.NoError(t, store.CreateRoom(room))

	base := time.Now().UTC()
	for i, content := range []string{"one", "two"} {
		require.NoError(t, store.CreateMessage(&domain.Message{
			Content:   content,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			UserID:    user.ID,
			RoomID:    room.ID,
		}))
	}

	w := doJSON(r, http.MethodGet, "/api/rooms/general/messages", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "one", resp.Messages[0].Content)

	t.Run("limit", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/rooms/general/messages?limit=1", "")
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Messages, 1)
	})

	t.Run("unknown room", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/rooms/missing/messages", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
