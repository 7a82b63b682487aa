// Package domain contains entities without logic, just meta-data
package domain

import (
	"errors"
	"time"
)

const MaxUsernameLen = 80

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type UserID uint

// User is a registered account. Rows are immutable after creation.
type User struct {
	ID        UserID    `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Username  string    `gorm:"size:80;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"size:200;not null" json:"-"`
}

func (User) TableName() string { return "users" }

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
// Password must already be hashed by the caller.
func NewUser(username, passwordHash string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	return &User{Username: username, Password: passwordHash}, nil
}

func ValidateUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
