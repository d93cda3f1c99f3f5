package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the relational backend. Every call goes through WithContext so the
// request context bounds the query.
type Gorm struct {
	db *gorm.DB
}

func (g *Gorm) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, normalize(err)
	}
	return &u, nil
}

func (g *Gorm) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	if err := g.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, normalize(err)
	}
	return &u, nil
}

func (g *Gorm) CreateUser(ctx context.Context, u *User) error {
	fillUserDefaults(u)
	return normalize(g.db.WithContext(ctx).Create(u).Error)
}

func (g *Gorm) EnsureUser(ctx context.Context, id, username string) error {
	u := &User{ID: id, Username: username}
	fillUserDefaults(u)
	u.ID = id
	return normalize(g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(u).Error)
}

func (g *Gorm) GetChatSession(ctx context.Context, id string) (*ChatSession, error) {
	var s ChatSession
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, normalize(err)
	}
	return &s, nil
}

func (g *Gorm) GetUserChatSessions(ctx context.Context, userID string) ([]ChatSession, error) {
	var out []ChatSession
	if err := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&out).Error; err != nil {
		return nil, normalize(err)
	}
	return out, nil
}

func (g *Gorm) CreateChatSession(ctx context.Context, s *ChatSession) error {
	fillSessionDefaults(s)
	return normalize(g.db.WithContext(ctx).Create(s).Error)
}

func (g *Gorm) UpdateChatSession(ctx context.Context, id string, upd SessionUpdate) (*ChatSession, error) {
	fields := map[string]any{"updated_at": time.Now()}
	if upd.Title != nil {
		fields["title"] = *upd.Title
	}
	if upd.Personality != nil {
		fields["personality"] = *upd.Personality
	}

	tx := g.db.WithContext(ctx).Model(&ChatSession{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return nil, normalize(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return g.GetChatSession(ctx, id)
}

// DeleteChatSession removes the session's messages first, then the session.
// Referential cleanup lives here, not in a database-level cascade. Deleting a
// missing id is not an error.
func (g *Gorm) DeleteChatSession(ctx context.Context, id string) error {
	if err := g.db.WithContext(ctx).Where("session_id = ?", id).Delete(&Message{}).Error; err != nil {
		return normalize(err)
	}
	return normalize(g.db.WithContext(ctx).Where("id = ?", id).Delete(&ChatSession{}).Error)
}

func (g *Gorm) GetSessionMessages(ctx context.Context, sessionID string) ([]Message, error) {
	var out []Message
	if err := g.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, seq ASC").
		Find(&out).Error; err != nil {
		return nil, normalize(err)
	}
	return out, nil
}

func (g *Gorm) CreateMessage(ctx context.Context, m *Message) error {
	fillMessageDefaults(m)
	return normalize(g.db.WithContext(ctx).Create(m).Error)
}

func (g *Gorm) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []Message
	if err := g.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, seq DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, normalize(err)
	}
	return out, nil
}

func (g *Gorm) CreateChatJob(ctx context.Context, j *ChatJob) error {
	return normalize(g.db.WithContext(ctx).Create(j).Error)
}

func (g *Gorm) GetChatJob(ctx context.Context, id string) (*ChatJob, error) {
	var j ChatJob
	if err := g.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, normalize(err)
	}
	return &j, nil
}

func (g *Gorm) MarkChatJobRunning(ctx context.Context, id string) error {
	return normalize(g.db.WithContext(ctx).Model(&ChatJob{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error)
}

func (g *Gorm) MarkChatJobSucceeded(ctx context.Context, id, resultMessageID string) error {
	return normalize(g.db.WithContext(ctx).Model(&ChatJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            JobSucceeded,
			"result_message_id": resultMessageID,
			"error":             nil,
		}).Error)
}

func (g *Gorm) MarkChatJobFailed(ctx context.Context, id, errMsg string) error {
	return normalize(g.db.WithContext(ctx).Model(&ChatJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            JobFailed,
			"error":             errMsg,
			"result_message_id": nil,
		}).Error)
}

func normalize(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrExists
	default:
		return err
	}
}

var _ Storage = (*Gorm)(nil)
