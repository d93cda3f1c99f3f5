package ai

import "context"

// Message is one conversation turn in upstream wire order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamProvider streams assistant content for a given upstream model id.
// Both returned channels are closed when streaming ends.
type StreamProvider interface {
	StreamChat(ctx context.Context, model string, messages []Message) (<-chan string, <-chan error)
}
