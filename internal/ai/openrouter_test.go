package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sseServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req openRouterChatReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Stream {
			t.Errorf("expected stream:true request")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, l := range lines {
			_, _ = w.Write([]byte(l + "\n"))
		}
	}))
}

func collect(t *testing.T, chunks <-chan string, errs <-chan error) ([]string, error) {
	t.Helper()
	var out []string
	for c := range chunks {
		out = append(out, c)
	}
	return out, <-errs
}

func TestStreamChat_DeltasAndDone(t *testing.T) {
	srv := sseServer(t, []string{
		`data: {"choices":[{"delta":{"content":"Hi"}}]}`,
		"",
		`data: {"choices":[{"delta":{"content":" there"}}]}`,
		`data: {"choices":[{"delta":{"content":""}}]}`,
		`data: [DONE]`,
		`data: {"choices":[{"delta":{"content":"after done"}}]}`,
	})
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL, "test-key", "", "")
	chunks, errs := c.StreamChat(context.Background(), "fake/model", []Message{{Role: "user", Content: "hello"}})

	got, err := collect(t, chunks, errs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "Hi" || got[1] != " there" {
		t.Fatalf("unexpected chunks: %#v", got)
	}
}

func TestStreamChat_SkipsMalformedLines(t *testing.T) {
	srv := sseServer(t, []string{
		`data: {not json at all`,
		`: comment line`,
		`data: {"choices":[{"delta":{"content":"ok"}}]}`,
		`data: [DONE]`,
	})
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL, "test-key", "", "")
	chunks, errs := c.StreamChat(context.Background(), "fake/model", nil)

	got, err := collect(t, chunks, errs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "ok" {
		t.Fatalf("unexpected chunks: %#v", got)
	}
}

func TestStreamChat_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL, "test-key", "", "")
	chunks, errs := c.StreamChat(context.Background(), "fake/model", nil)

	got, err := collect(t, chunks, errs)
	if len(got) != 0 {
		t.Fatalf("expected no chunks, got %#v", got)
	}
	if err == nil {
		t.Fatalf("expected an error for non-2xx response")
	}
}

func TestStreamChat_MissingAPIKey(t *testing.T) {
	c := NewOpenRouterClient("http://127.0.0.1:0", "", "", "")
	chunks, errs := c.StreamChat(context.Background(), "fake/model", nil)

	got, err := collect(t, chunks, errs)
	if len(got) != 0 {
		t.Fatalf("expected no chunks, got %#v", got)
	}
	if err == nil || err.Error() != "OpenRouter API key not configured" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStreamChat_UpstreamErrorPayload(t *testing.T) {
	srv := sseServer(t, []string{
		`data: {"error":{"message":"model overloaded"}}`,
	})
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL, "test-key", "", "")
	chunks, errs := c.StreamChat(context.Background(), "fake/model", nil)

	_, err := collect(t, chunks, errs)
	if err == nil || err.Error() != "model overloaded" {
		t.Fatalf("unexpected error: %v", err)
	}
}
