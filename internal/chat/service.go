// Package chat orchestrates one conversation turn: persist the user's
// message, assemble persona-flavored context, stream the upstream reply to
// the caller chunk by chunk, then persist the accumulated bot message and
// touch the session timestamp.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/herochat/herochat/internal/ai"
	"github.com/herochat/herochat/internal/persona"
	"github.com/herochat/herochat/internal/store"
	"github.com/herochat/herochat/internal/store/redisstore"
)

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrUnknownPersona = errors.New("unknown personality")
	ErrAsyncDisabled  = errors.New("async chat is not configured")
)

// JobPublisher enqueues a chat job id for the worker. Satisfied by
// rabbitmq.Publisher.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Service struct {
	store        store.Storage
	provider     ai.StreamProvider
	prefs        *redisstore.Prefs
	pub          JobPublisher
	log          *zap.Logger
	window       int
	defaultModel string
}

func NewService(st store.Storage, provider ai.StreamProvider, prefs *redisstore.Prefs, pub JobPublisher, log *zap.Logger, window int, defaultModel string) *Service {
	if window <= 0 {
		window = 10
	}
	if defaultModel == "" {
		defaultModel = ai.DefaultModelKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:        st,
		provider:     provider,
		prefs:        prefs,
		pub:          pub,
		log:          log,
		window:       window,
		defaultModel: defaultModel,
	}
}

// Request is one validated chat turn. SessionID, UserID and ModelID are
// optional; without a session id nothing is persisted but the reply still
// streams.
type Request struct {
	Message     string
	Personality persona.Key
	SessionID   string
	UserID      string
	ModelID     string
}

// Validate normalizes the request in place. It must pass before any
// persistence or streaming happens.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	if r.Personality == "" {
		r.Personality = persona.Default
	}
	if !persona.Valid(r.Personality) {
		return ErrUnknownPersona
	}
	return nil
}

// StreamReply runs one chat turn, delivering each upstream chunk to sink as
// it arrives and returning the accumulated reply. Upstream failures are
// downgraded to a human-readable inline chunk, never an error: by the time
// the upstream call starts the caller's response is already streaming.
func (s *Service) StreamReply(ctx context.Context, req Request, sink func(string)) (string, error) {
	reply, _, err := s.run(ctx, req, sink, true)
	return reply, err
}

func (s *Service) run(ctx context.Context, req Request, sink func(string), persistUser bool) (reply, botMessageID string, err error) {
	persisted := req.SessionID != ""

	// The user's turn is made durable before the model is called, so a
	// failed upstream call never loses it.
	if persisted && persistUser {
		userMsg := &store.Message{
			SessionID:   req.SessionID,
			Sender:      store.SenderUser,
			Content:     req.Message,
			Personality: string(req.Personality),
		}
		if err := s.store.CreateMessage(ctx, userMsg); err != nil {
			return "", "", fmt.Errorf("persist user message: %w", err)
		}
	}

	msgs, err := s.buildContext(ctx, req, persisted)
	if err != nil {
		return "", "", err
	}

	modelKey, modelCfg := s.resolveModel(ctx, req)

	var b strings.Builder
	emit := func(chunk string) {
		b.WriteString(chunk)
		sink(chunk)
	}

	// Capability gating is advisory for uncataloged ids (empty key): those
	// resolve permissively so new upstream models keep working.
	if modelKey != "" && !modelCfg.Capabilities.Chat {
		emit(fmt.Sprintf("Model %s doesn't support chat. Please use a chat or multimodal model.", modelCfg.Name))
	} else {
		chunks, errs := s.provider.StreamChat(ctx, modelCfg.ID, msgs)
		for c := range chunks {
			emit(c)
		}
		if upErr := <-errs; upErr != nil {
			s.log.Warn("upstream stream failed", zap.String("model", modelCfg.ID), zap.Error(upErr))
			emit(fmt.Sprintf("Error: %s", upErr.Error()))
		}
	}

	reply = b.String()

	if persisted {
		botMsg := &store.Message{
			SessionID:   req.SessionID,
			Sender:      store.SenderBot,
			Content:     reply,
			Personality: string(req.Personality),
		}
		if err := s.store.CreateMessage(ctx, botMsg); err != nil {
			return reply, "", fmt.Errorf("persist bot message: %w", err)
		}
		botMessageID = botMsg.ID
		if _, err := s.store.UpdateChatSession(ctx, req.SessionID, store.SessionUpdate{}); err != nil {
			// The reply already streamed; a failed touch is not fatal.
			s.log.Warn("touch session failed", zap.String("session_id", req.SessionID), zap.Error(err))
		}
	}

	return reply, botMessageID, nil
}

// buildContext assembles the upstream message list: persona system prompt
// first, then chronological history ending with the user's latest message.
func (s *Service) buildContext(ctx context.Context, req Request, persisted bool) ([]ai.Message, error) {
	out := []ai.Message{{Role: "system", Content: persona.Prompt(req.Personality)}}

	if !persisted {
		out = append(out, ai.Message{Role: "user", Content: req.Message})
		return out, nil
	}

	// Recent history arrives newest-first and already contains the message
	// persisted above; reverse it into transcript order.
	recent, err := s.store.GetRecentMessages(ctx, req.SessionID, s.window)
	if err != nil {
		return nil, fmt.Errorf("load recent messages: %w", err)
	}
	for i := len(recent) - 1; i >= 0; i-- {
		m := recent[i]
		role := "assistant"
		if m.Sender == store.SenderUser {
			role = "user"
		}
		out = append(out, ai.Message{Role: role, Content: m.Content})
	}
	return out, nil
}

func personaOrDefault(v string) persona.Key {
	k := persona.Key(v)
	if !persona.Valid(k) {
		return persona.Default
	}
	return k
}

// resolveModel picks the upstream model: explicit request id first, then the
// stored per-user preference, then the configured default.
func (s *Service) resolveModel(ctx context.Context, req Request) (string, ai.ModelConfig) {
	id := strings.TrimSpace(req.ModelID)
	if id == "" {
		id = s.prefs.GetModel(ctx, req.UserID)
	}
	if id == "" {
		id = s.defaultModel
	}
	return ai.Resolve(id)
}
