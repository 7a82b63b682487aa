package domain

import (
	"errors"
	"time"
)

const MaxRoomNameLen = 80

var (
	ErrRoomNameTooLong = errors.New("room name too long")
	ErrRoomNameEmpty   = errors.New("room name empty")
)

type (
	RoomName string
	RoomID   uint
)

// Room is the durable record of a named channel. Live membership lives in
// core.Roster and is rebuilt empty on process start.
type Room struct {
	ID        RoomID    `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      RoomName  `gorm:"size:80;uniqueIndex;not null" json:"name"`
}

func (Room) TableName() string { return "rooms" }

func ValidateRoomName(name RoomName) error {
	if len(name) == 0 {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return ErrRoomNameTooLong
	}
	return nil
}
