package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Parley/internal/domain"
)

// setupTestStore creates an in-memory SQLite store for testing.
func setupTestStore(t *testing.T) Store {
	t.Helper()

	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_CreateUser(t *testing.T) {
	store := setupTestStore(t)

	user := &domain.User{Username: "alice", Password: "hash"}
	if err := store.CreateUser(user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("expected assigned user ID, got 0")
	}

	t.Run("duplicate username", func(t *testing.T) {
		dup := &domain.User{Username: "alice", Password: "otherhash"}
		err := store.CreateUser(dup)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("exactly one row survives", func(t *testing.T) {
		found, err := store.FindUserByUsername("alice")
		if err != nil {
			t.Fatalf("FindUserByUsername() error = %v", err)
		}
		if found.Password != "hash" {
			t.Errorf("expected first registration to win, got hash %q", found.Password)
		}
	})
}

func TestStore_FindUserByUsername(t *testing.T) {
	store := setupTestStore(t)

	if err := store.CreateUser(&domain.User{Username: "bob", Password: "h"}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	t.Run("existing user", func(t *testing.T) {
		found, err := store.FindUserByUsername("bob")
		if err != nil {
			t.Fatalf("FindUserByUsername() error = %v", err)
		}
		if found.Username != "bob" {
			t.Errorf("expected username %q, got %q", "bob", found.Username)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := store.FindUserByUsername("nobody")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStore_Rooms(t *testing.T) {
	store := setupTestStore(t)

	if err := store.CreateRoom(&domain.Room{Name: "general"}); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	err := store.CreateRoom(&domain.Room{Name: "general"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict on duplicate room, got %v", err)
	}

	_, err = store.FindRoomByName("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	t.Run("first or create is idempotent", func(t *testing.T) {
		a, err := store.FirstOrCreateRoom("lobby")
		if err != nil {
			t.Fatalf("FirstOrCreateRoom() error = %v", err)
		}
		b, err := store.FirstOrCreateRoom("lobby")
		if err != nil {
			t.Fatalf("FirstOrCreateRoom() error = %v", err)
		}
		if a.ID != b.ID {
			t.Errorf("expected same room ID, got %d and %d", a.ID, b.ID)
		}

		rooms, err := store.Rooms()
		if err != nil {
			t.Fatalf("Rooms() error = %v", err)
		}
		if len(rooms) != 2 {
			t.Errorf("expected 2 rooms, got %d", len(rooms))
		}
	})
}

func TestStore_Messages(t *testing.T) {
	store := setupTestStore(t)

	user := &domain.User{Username: "carol", Password: "h"}
	if err := store.CreateUser(user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	room := &domain.Room{Name: "general"}
	if err := store.CreateRoom(room); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i, content := range []string{"first", "second", "third"} {
		msg := &domain.Message{
			Content:   content,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			UserID:    user.ID,
			RoomID:    room.ID,
		}
		if err := store.CreateMessage(msg); err != nil {
			t.Fatalf("CreateMessage() error = %v", err)
		}
	}

	t.Run("round trip preserves references", func(t *testing.T) {
		msgs, err := store.MessagesByRoom(room.ID, 0)
		if err != nil {
			t.Fatalf("MessagesByRoom() error = %v", err)
		}
		if len(msgs) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(msgs))
		}
		if msgs[0].Content != "first" || msgs[2].Content != "third" {
			t.Errorf("wrong timestamp order: %q .. %q", msgs[0].Content, msgs[2].Content)
		}
		if msgs[0].UserID != user.ID || msgs[0].RoomID != room.ID {
			t.Errorf("wrong references: user %d room %d", msgs[0].UserID, msgs[0].RoomID)
		}
	})

	t.Run("limit", func(t *testing.T) {
		msgs, err := store.MessagesByRoom(room.ID, 2)
		if err != nil {
			t.Fatalf("MessagesByRoom() error = %v", err)
		}
		if len(msgs) != 2 {
			t.Errorf("expected 2 messages, got %d", len(msgs))
		}
	})

	t.Run("other room is empty", func(t *testing.T) {
		other := &domain.Room{Name: "empty"}
		if err := store.CreateRoom(other); err != nil {
			t.Fatalf("CreateRoom() error = %v", err)
		}
		msgs, err := store.MessagesByRoom(other.ID, 0)
		if err != nil {
			t.Fatalf("MessagesByRoom() error = %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("expected 0 messages, got %d", len(msgs))
		}
	})
}
