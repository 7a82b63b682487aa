// Package storage is the durable side of the chat: users, rooms and message
// history. Live room membership is not persisted here.
package storage

import (
	"errors"

	"github.com/dkeye/Parley/internal/domain"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Store is the persistence boundary the broadcast core and the HTTP
// handlers talk to.
type Store interface {
	CreateUser(user *domain.User) error
	FindUserByUsername(username string) (*domain.User, error)

	CreateRoom(room *domain.Room) error
	FindRoomByName(name domain.RoomName) (*domain.Room, error)
	// FirstOrCreateRoom backs implicit room creation on join.
	FirstOrCreateRoom(name domain.RoomName) (*domain.Room, error)
	Rooms() ([]*domain.Room, error)

	CreateMessage(msg *domain.Message) error
	// MessagesByRoom returns history in ascending timestamp order.
	// limit <= 0 means no limit.
	MessagesByRoom(roomID domain.RoomID, limit int) ([]*domain.Message, error)

	Close() error
}
