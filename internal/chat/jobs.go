package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/herochat/herochat/internal/store"
)

// EnqueueChat persists the user's message immediately, records a queued job
// and hands its id to the worker queue. The session must already exist.
func (s *Service) EnqueueChat(ctx context.Context, req Request) (*store.ChatJob, error) {
	if s.pub == nil {
		return nil, ErrAsyncDisabled
	}
	if req.SessionID == "" {
		return nil, fmt.Errorf("session id is required for async chat")
	}
	if _, err := s.store.GetChatSession(ctx, req.SessionID); err != nil {
		return nil, err
	}

	userMsg := &store.Message{
		SessionID:   req.SessionID,
		Sender:      store.SenderUser,
		Content:     req.Message,
		Personality: string(req.Personality),
	}
	if err := s.store.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	job := &store.ChatJob{
		ID:          store.NewSessionID(),
		SessionID:   req.SessionID,
		UserID:      req.UserID,
		Prompt:      req.Message,
		Personality: string(req.Personality),
		ModelID:     req.ModelID,
		Status:      store.JobQueued,
	}
	if err := s.store.CreateChatJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if err := s.pub.PublishJob(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}

// GetJob looks up a job for status polling.
func (s *Service) GetJob(ctx context.Context, id string) (*store.ChatJob, error) {
	return s.store.GetChatJob(ctx, id)
}

// RunJob executes one queued chat turn. The user message was persisted at
// enqueue time, so the relay only generates and persists the bot reply.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	if err := s.store.MarkChatJobRunning(ctx, jobID); err != nil {
		return err
	}
	job, err := s.store.GetChatJob(ctx, jobID)
	if err != nil {
		return err
	}

	req := Request{
		Message:     job.Prompt,
		Personality: personaOrDefault(job.Personality),
		SessionID:   job.SessionID,
		UserID:      job.UserID,
		ModelID:     job.ModelID,
	}

	_, botID, err := s.run(ctx, req, func(string) {}, false)
	if err != nil {
		s.log.Error("chat job failed", zap.String("job_id", jobID), zap.Error(err))
		if markErr := s.store.MarkChatJobFailed(ctx, jobID, err.Error()); markErr != nil {
			return markErr
		}
		return err
	}
	return s.store.MarkChatJobSucceeded(ctx, jobID, botID)
}
