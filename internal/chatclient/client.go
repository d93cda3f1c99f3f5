// Package chatclient is the consumer side of the chat stream: it posts a
// message, decodes the newline-delimited {"response": "..."} chunk body as
// it arrives and folds the chunks into a growing transcript.
package chatclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const fallbackErrorText = "Sorry, I encountered an error. Please try again."

// Entry is one transcript line. Bot entries grow in place while the stream
// is live.
type Entry struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transcript is an ordered message list safe for concurrent reads while a
// stream is appending.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
}

func (t *Transcript) append(e Entry) {
	t.mu.Lock()
	t.entries = append(t.entries, e)
	t.mu.Unlock()
}

// extend concatenates chunk onto the entry with the given id, creating
// nothing if the id is unknown.
func (t *Transcript) extend(id, chunk string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries[i].Content += chunk
			return
		}
	}
}

// Entries returns a snapshot copy.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len reports the number of transcript entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
}

// SendOptions parameterizes one chat turn.
type SendOptions struct {
	Message     string
	Personality string
	SessionID   string
	UserID      string
	ModelID     string
}

type chatPayload struct {
	Message     string `json:"message"`
	Personality string `json:"personality,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	UserID      string `json:"userId,omitempty"`
	ModelID     string `json:"modelId,omitempty"`
}

type chunkLine struct {
	Response string `json:"response"`
}

// Send posts one chat turn and reduces the streamed reply into the
// transcript. The user's entry is appended optimistically before the
// request goes out and is never rolled back. The first non-empty chunk
// creates a single bot entry; later chunks extend it. Cancellation via ctx
// stops silently with the partial bot text retained; any other failure
// appends a visible fallback error entry.
func (c *Client) Send(ctx context.Context, tr *Transcript, opts SendOptions) error {
	tr.append(Entry{
		ID:        uuid.NewString(),
		Sender:    "user",
		Content:   opts.Message,
		CreatedAt: time.Now(),
	})

	body, err := json.Marshal(chatPayload{
		Message:     opts.Message,
		Personality: opts.Personality,
		SessionID:   opts.SessionID,
		UserID:      opts.UserID,
		ModelID:     opts.ModelID,
	})
	if err != nil {
		return c.failed(tr, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return c.failed(tr, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// caller aborted; keep whatever already arrived
			return ctx.Err()
		}
		return c.failed(tr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.failed(tr, fmt.Errorf("chat request failed with status %d", resp.StatusCode))
	}

	botID := ""
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		// only complete lines are parsed; a trailing partial segment at
		// stream end is dropped rather than misread
		if strings.HasSuffix(line, "\n") && len(strings.TrimSpace(line)) > 0 {
			var chunk chunkLine
			// malformed lines are skipped, not fatal
			if jerr := json.Unmarshal([]byte(line), &chunk); jerr == nil && chunk.Response != "" {
				if botID == "" {
					botID = uuid.NewString()
					tr.append(Entry{
						ID:        botID,
						Sender:    "bot",
						CreatedAt: time.Now(),
					})
				}
				tr.extend(botID, chunk.Response)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return c.failed(tr, err)
		}
	}
}

func (c *Client) failed(tr *Transcript, err error) error {
	tr.append(Entry{
		ID:        uuid.NewString(),
		Sender:    "bot",
		Content:   fallbackErrorText,
		CreatedAt: time.Now(),
	})
	return err
}
