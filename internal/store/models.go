package store

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// JSONMap stores an opaque JSON object in a text column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(v any) error {
	if v == nil {
		*m = JSONMap{}
		return nil
	}
	switch b := v.(type) {
	case []byte:
		return json.Unmarshal(b, m)
	case string:
		return json.Unmarshal([]byte(b), m)
	default:
		return fmt.Errorf("jsonmap: unsupported scan type %T", v)
	}
}

// Sender values for Message.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// MessageType values for Message.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeCode  = "code"
)

type User struct {
	Seq         uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	ID          string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"id"`
	Username    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Nickname    string    `gorm:"type:varchar(64)" json:"nickname,omitempty"`
	Avatar      string    `gorm:"type:text" json:"avatar,omitempty"`
	Preferences JSONMap   `gorm:"type:text" json:"preferences"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (User) TableName() string { return "users" }

type ChatSession struct {
	Seq         uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	ID          string    `gorm:"type:varchar(26);uniqueIndex;not null" json:"id"`
	UserID      string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	Title       string    `gorm:"type:varchar(255)" json:"title"`
	Personality string    `gorm:"type:varchar(32);not null" json:"personality"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

type Message struct {
	Seq         uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	ID          string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"id"`
	SessionID   string    `gorm:"type:varchar(26);index;not null" json:"sessionId"`
	Sender      string    `gorm:"type:varchar(16);not null" json:"sender"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Personality string    `gorm:"type:varchar(32)" json:"personality,omitempty"`
	MessageType string    `gorm:"type:varchar(16);not null" json:"messageType"`
	Metadata    JSONMap   `gorm:"type:text" json:"metadata"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Message) TableName() string { return "messages" }

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// ChatJob is one queued asynchronous chat turn, consumed by cmd/worker.
type ChatJob struct {
	ID          string    `gorm:"primaryKey;size:26" json:"id"`
	SessionID   string    `gorm:"size:26;index;not null" json:"sessionId"`
	UserID      string    `gorm:"size:36;index" json:"userId,omitempty"`
	Prompt      string    `gorm:"type:text;not null" json:"-"`
	Personality string    `gorm:"type:varchar(32)" json:"personality,omitempty"`
	ModelID     string    `gorm:"type:varchar(128)" json:"modelId,omitempty"`
	Status      JobStatus `gorm:"type:varchar(16);index;not null" json:"status"`

	// Filled when succeeded.
	ResultMessageID *string `gorm:"size:36" json:"resultMessageId,omitempty"`
	// Filled when failed.
	Error *string `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ChatJob) TableName() string { return "chat_jobs" }

var (
	// ErrNotFound marks lookups whose target id does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrExists marks unique-constraint conflicts on create.
	ErrExists = errors.New("store: already exists")
	// ErrUnavailable is returned by every call when no database is configured.
	ErrUnavailable = errors.New("store: database not connected, check DB_DSN")
)

// SessionUpdate carries the caller-settable fields of UpdateChatSession.
// UpdatedAt is always stamped by the store regardless of this struct.
type SessionUpdate struct {
	Title       *string
	Personality *string
}
