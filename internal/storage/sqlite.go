package storage

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dkeye/Parley/internal/domain"
)

// sqliteStore implements Store on top of gorm + SQLite.
type sqliteStore struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at path and migrates the
// schema. Use ":memory:" for an ephemeral database.
func Open(path string) (Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Room{}, &domain.Message{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	log.Info().Str("module", "storage").Str("path", path).Msg("sqlite store opened")
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) CreateUser(user *domain.User) error {
	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *sqliteStore) FindUserByUsername(username string) (*domain.User, error) {
	var user domain.User
	if err := s.db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *sqliteStore) CreateRoom(room *domain.Room) error {
	if err := s.db.Create(room).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (s *sqliteStore) FindRoomByName(name domain.RoomName) (*domain.Room, error) {
	var room domain.Room
	if err := s.db.First(&room, "name = ?", string(name)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find room: %w", err)
	}
	return &room, nil
}

func (s *sqliteStore) FirstOrCreateRoom(name domain.RoomName) (*domain.Room, error) {
	var room domain.Room
	err := s.db.Where(&domain.Room{Name: name}).FirstOrCreate(&room).Error
	if err != nil {
		return nil, fmt.Errorf("first or create room: %w", err)
	}
	return &room, nil
}

func (s *sqliteStore) Rooms() ([]*domain.Room, error) {
	var rooms []*domain.Room
	if err := s.db.Order("name").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

func (s *sqliteStore) CreateMessage(msg *domain.Message) error {
	if err := s.db.Create(msg).Error; err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (s *sqliteStore) MessagesByRoom(roomID domain.RoomID, limit int) ([]*domain.Message, error) {
	var msgs []*domain.Message
	q := s.db.Where("room_id = ?", uint(roomID)).Order("timestamp, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("messages by room: %w", err)
	}
	return msgs, nil
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
