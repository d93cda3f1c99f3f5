package chat

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/herochat/herochat/internal/persona"
	"github.com/herochat/herochat/internal/store"
)

// ImageUpload is one validated image-analysis request. The caller has
// already enforced the size and content-type limits.
type ImageUpload struct {
	SessionID   string
	Personality persona.Key
	Filename    string
	MimeType    string
	Data        []byte
}

// AnalyzeImage persists the uploaded image as a user message (markdown with
// an inline data URL), produces the persona's analysis, persists that as a
// bot message and touches the session.
func (s *Service) AnalyzeImage(ctx context.Context, up ImageUpload) (string, error) {
	if up.Personality == "" {
		up.Personality = persona.Default
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", up.MimeType, base64.StdEncoding.EncodeToString(up.Data))
	sizeKB := (len(up.Data) + 512) / 1024

	userMsg := &store.Message{
		SessionID:   up.SessionID,
		Sender:      store.SenderUser,
		Content:     fmt.Sprintf("🖼️ **Uploaded image:** %s\n\n![%s](%s)\n\n*Size: %dKB*", up.Filename, up.Filename, dataURL, sizeKB),
		Personality: string(up.Personality),
		MessageType: store.TypeImage,
		Metadata: store.JSONMap{
			"originalName": up.Filename,
			"fileSize":     len(up.Data),
			"mimeType":     up.MimeType,
			"imageDataUrl": dataURL,
		},
	}
	if err := s.store.CreateMessage(ctx, userMsg); err != nil {
		return "", fmt.Errorf("persist image message: %w", err)
	}

	// The configured chat models are text-only; the analysis is the
	// persona's canned reply until a vision model is wired in.
	analysis := persona.VisionFallback(up.Personality)

	botMsg := &store.Message{
		SessionID:   up.SessionID,
		Sender:      store.SenderBot,
		Content:     analysis,
		Personality: string(up.Personality),
		MessageType: store.TypeImage,
		Metadata:    store.JSONMap{"imageAnalysis": true},
	}
	if err := s.store.CreateMessage(ctx, botMsg); err != nil {
		return "", fmt.Errorf("persist analysis message: %w", err)
	}

	if _, err := s.store.UpdateChatSession(ctx, up.SessionID, store.SessionUpdate{}); err != nil {
		return "", fmt.Errorf("touch session: %w", err)
	}
	return analysis, nil
}
