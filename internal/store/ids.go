package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewSessionID returns a new ULID for sessions and jobs (lexicographically
// sortable, 26 chars).
func NewSessionID() string { return ulid.Make().String() }

// NewEntityID returns a new UUID for users and messages.
func NewEntityID() string { return uuid.NewString() }

func fillSessionDefaults(s *ChatSession) {
	if s.ID == "" {
		s.ID = NewSessionID()
	}
	if s.Title == "" {
		s.Title = "New Session"
	}
	if s.Personality == "" {
		s.Personality = "spiderman"
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
}

func fillMessageDefaults(m *Message) {
	if m.ID == "" {
		m.ID = NewEntityID()
	}
	if m.MessageType == "" {
		m.MessageType = TypeText
	}
	if m.Metadata == nil {
		m.Metadata = JSONMap{}
	}
	if m.Personality == "" {
		m.Personality = "spiderman"
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
}

func fillUserDefaults(u *User) {
	if u.ID == "" {
		u.ID = NewEntityID()
	}
	if u.Preferences == nil {
		u.Preferences = JSONMap{}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
}
