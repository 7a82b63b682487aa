package domain

import "time"

type MessageID uint

// Message is one persisted chat line. Immutable; per-room ordering is by
// Timestamp under the single-process assumption.
type Message struct {
	ID        MessageID `gorm:"primarykey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
	UserID    UserID    `gorm:"not null;index" json:"user_id"`
	RoomID    RoomID    `gorm:"not null;index" json:"room_id"`
}

func (Message) TableName() string { return "messages" }
