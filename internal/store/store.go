// Package store persists users, chat sessions and messages behind one
// interface with interchangeable backends: a gorm-backed relational store
// (MySQL or SQLite) and an in-memory map store, selected at process start.
package store

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Storage is the uniform persistence contract shared by all backends.
type Storage interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	// EnsureUser creates a placeholder user with the given id unless one
	// already exists; uniqueness conflicts are not errors.
	EnsureUser(ctx context.Context, id, username string) error

	GetChatSession(ctx context.Context, id string) (*ChatSession, error)
	GetUserChatSessions(ctx context.Context, userID string) ([]ChatSession, error)
	CreateChatSession(ctx context.Context, s *ChatSession) error
	UpdateChatSession(ctx context.Context, id string, upd SessionUpdate) (*ChatSession, error)
	DeleteChatSession(ctx context.Context, id string) error

	GetSessionMessages(ctx context.Context, sessionID string) ([]Message, error)
	CreateMessage(ctx context.Context, m *Message) error
	GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)

	CreateChatJob(ctx context.Context, j *ChatJob) error
	GetChatJob(ctx context.Context, id string) (*ChatJob, error)
	MarkChatJobRunning(ctx context.Context, id string) error
	MarkChatJobSucceeded(ctx context.Context, id, resultMessageID string) error
	MarkChatJobFailed(ctx context.Context, id, errMsg string) error
}

// Open selects and initializes a backend. Supported drivers: "mysql",
// "sqlite", "memory". A mysql driver with an empty DSN yields the
// Unavailable backend so every call fails fast with a configuration error.
func Open(driver, dsn string, log *zap.Logger) (Storage, error) {
	switch driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		if dsn == "" {
			dsn = "herochat.db"
		}
		db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return newGorm(db)
	case "mysql", "":
		if dsn == "" {
			log.Warn("DB_DSN not set, storage calls will fail until configured")
			return Unavailable{}, nil
		}
		db, err := gorm.Open(mysql.Open(dsn), gormConfig())
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		return newGorm(db)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}
}

func newGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&User{}, &ChatSession{}, &Message{}, &ChatJob{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return &Gorm{db: db}, nil
}

// Unavailable fails every call with ErrUnavailable. It stands in when the
// process starts without a configured database so the HTTP surface can still
// serve the static endpoints.
type Unavailable struct{}

func (Unavailable) GetUser(context.Context, string) (*User, error)            { return nil, ErrUnavailable }
func (Unavailable) GetUserByUsername(context.Context, string) (*User, error)  { return nil, ErrUnavailable }
func (Unavailable) CreateUser(context.Context, *User) error                   { return ErrUnavailable }
func (Unavailable) EnsureUser(context.Context, string, string) error          { return ErrUnavailable }
func (Unavailable) GetChatSession(context.Context, string) (*ChatSession, error) {
	return nil, ErrUnavailable
}
func (Unavailable) GetUserChatSessions(context.Context, string) ([]ChatSession, error) {
	return nil, ErrUnavailable
}
func (Unavailable) CreateChatSession(context.Context, *ChatSession) error { return ErrUnavailable }
func (Unavailable) UpdateChatSession(context.Context, string, SessionUpdate) (*ChatSession, error) {
	return nil, ErrUnavailable
}
func (Unavailable) DeleteChatSession(context.Context, string) error { return ErrUnavailable }
func (Unavailable) GetSessionMessages(context.Context, string) ([]Message, error) {
	return nil, ErrUnavailable
}
func (Unavailable) CreateMessage(context.Context, *Message) error { return ErrUnavailable }
func (Unavailable) GetRecentMessages(context.Context, string, int) ([]Message, error) {
	return nil, ErrUnavailable
}
func (Unavailable) CreateChatJob(context.Context, *ChatJob) error { return ErrUnavailable }
func (Unavailable) GetChatJob(context.Context, string) (*ChatJob, error) {
	return nil, ErrUnavailable
}
func (Unavailable) MarkChatJobRunning(context.Context, string) error { return ErrUnavailable }
func (Unavailable) MarkChatJobSucceeded(context.Context, string, string) error {
	return ErrUnavailable
}
func (Unavailable) MarkChatJobFailed(context.Context, string, string) error { return ErrUnavailable }
