package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is the map-based fallback backend. It applies the same id policy as
// the relational store: user ids are always generated, never the username.
type Memory struct {
	mu         sync.RWMutex
	users      map[string]*User
	userByName map[string]string
	sessions   map[string]*ChatSession
	messages   map[string][]*Message // per session, insertion order
	jobs       map[string]*ChatJob
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]*User),
		userByName: make(map[string]string),
		sessions:   make(map[string]*ChatSession),
		messages:   make(map[string][]*Message),
		jobs:       make(map[string]*ChatJob),
	}
}

func (m *Memory) GetUser(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.userByName[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *Memory) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.userByName[u.Username]; ok {
		return ErrExists
	}
	fillUserDefaults(u)
	if _, ok := m.users[u.ID]; ok {
		return ErrExists
	}
	cp := *u
	m.users[cp.ID] = &cp
	m.userByName[cp.Username] = cp.ID
	return nil
}

func (m *Memory) EnsureUser(_ context.Context, id, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; ok {
		return nil
	}
	if _, ok := m.userByName[username]; ok {
		return nil
	}
	u := &User{ID: id, Username: username}
	fillUserDefaults(u)
	u.ID = id
	m.users[id] = u
	m.userByName[username] = id
	return nil
}

func (m *Memory) GetChatSession(_ context.Context, id string) (*ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) GetUserChatSessions(_ context.Context, userID string) ([]ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ChatSession
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *Memory) CreateChatSession(_ context.Context, s *ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fillSessionDefaults(s)
	if _, ok := m.sessions[s.ID]; ok {
		return ErrExists
	}
	cp := *s
	m.sessions[cp.ID] = &cp
	return nil
}

func (m *Memory) UpdateChatSession(_ context.Context, id string, upd SessionUpdate) (*ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Title != nil {
		s.Title = *upd.Title
	}
	if upd.Personality != nil {
		s.Personality = *upd.Personality
	}
	s.UpdatedAt = time.Now()
	cp := *s
	return &cp, nil
}

func (m *Memory) DeleteChatSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, id)
	delete(m.sessions, id)
	return nil
}

func (m *Memory) GetSessionMessages(_ context.Context, sessionID string) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[sessionID]
	out := make([]Message, 0, len(msgs))
	for _, mm := range msgs {
		out = append(out, *mm)
	}
	// Stable sort keeps insertion order for equal timestamps.
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateMessage(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fillMessageDefaults(msg)
	cp := *msg
	m.messages[cp.SessionID] = append(m.messages[cp.SessionID], &cp)
	return nil
}

func (m *Memory) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 10
	}
	asc, err := m.GetSessionMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// newest first
	out := make([]Message, 0, limit)
	for i := len(asc) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, asc[i])
	}
	return out, nil
}

func (m *Memory) CreateChatJob(_ context.Context, j *ChatJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[j.ID]; ok {
		return ErrExists
	}
	now := time.Now()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
	cp := *j
	m.jobs[cp.ID] = &cp
	return nil
}

func (m *Memory) GetChatJob(_ context.Context, id string) (*ChatJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *Memory) MarkChatJobRunning(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status == JobQueued {
		j.Status = JobRunning
		j.UpdatedAt = time.Now()
	}
	return nil
}

func (m *Memory) MarkChatJobSucceeded(_ context.Context, id, resultMessageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.Status = JobSucceeded
	j.ResultMessageID = &resultMessageID
	j.Error = nil
	j.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) MarkChatJobFailed(_ context.Context, id, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.Status = JobFailed
	j.Error = &errMsg
	j.ResultMessageID = nil
	j.UpdatedAt = time.Now()
	return nil
}

var _ Storage = (*Memory)(nil)
