package chatclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func chunkServer(t *testing.T, lines []string, delay time.Duration) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(delay):
			}
			w.Write([]byte(line + "\n"))
			flusher.Flush()
		}
	}))
}

func TestSend_ReducesChunksIntoOneBotEntry(t *testing.T) {
	srv := chunkServer(t, []string{
		`{"response":"Hi"}`,
		`not json at all`,
		`{"response":" there"}`,
		`{"response":""}`,
	}, 0)
	defer srv.Close()

	tr := &Transcript{}
	c := New(srv.URL)
	if err := c.Send(context.Background(), tr, SendOptions{Message: "hello"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	entries := tr.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected user + one bot entry, got %+v", entries)
	}
	if entries[0].Sender != "user" || entries[0].Content != "hello" {
		t.Fatalf("unexpected optimistic user entry %+v", entries[0])
	}
	if entries[1].Sender != "bot" || entries[1].Content != "Hi there" {
		t.Fatalf("unexpected bot entry %+v", entries[1])
	}
	if entries[1].ID == "" || entries[1].ID == entries[0].ID {
		t.Fatalf("bot entry needs its own stable id: %+v", entries)
	}
}

func TestSend_CancelKeepsPartialSilently(t *testing.T) {
	srv := chunkServer(t, []string{
		`{"response":"partial"}`,
		`{"response":" never-arrives"}`,
	}, 80*time.Millisecond)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	tr := &Transcript{}
	c := New(srv.URL)

	go func() {
		time.Sleep(120 * time.Millisecond)
		cancel()
	}()

	err := c.Send(ctx, tr, SendOptions{Message: "hello"})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	entries := tr.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected user + partial bot entry, got %+v", entries)
	}
	if entries[1].Content != "partial" {
		t.Fatalf("expected retained partial %q, got %q", "partial", entries[1].Content)
	}
	for _, e := range entries {
		if e.Content == fallbackErrorText {
			t.Fatalf("cancel must not append an error entry: %+v", entries)
		}
	}
}

func TestSend_TransportErrorAppendsFallback(t *testing.T) {
	srv := chunkServer(t, nil, 0)
	srv.Close() // refuse connections

	tr := &Transcript{}
	c := New(srv.URL)
	if err := c.Send(context.Background(), tr, SendOptions{Message: "hello"}); err == nil {
		t.Fatalf("expected transport error")
	}

	entries := tr.Entries()
	if len(entries) != 2 || entries[1].Content != fallbackErrorText {
		t.Fatalf("expected fallback error entry, got %+v", entries)
	}
}

func TestSend_NonOKStatusAppendsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Invalid request data"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tr := &Transcript{}
	c := New(srv.URL)
	if err := c.Send(context.Background(), tr, SendOptions{Message: "hello"}); err == nil {
		t.Fatalf("expected status error")
	}
	entries := tr.Entries()
	if len(entries) != 2 || entries[1].Content != fallbackErrorText {
		t.Fatalf("expected fallback error entry, got %+v", entries)
	}
}

func TestSend_EmptyStreamLeavesOnlyUserEntry(t *testing.T) {
	srv := chunkServer(t, nil, 0)
	defer srv.Close()

	tr := &Transcript{}
	c := New(srv.URL)
	if err := c.Send(context.Background(), tr, SendOptions{Message: "hello"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if tr.Len() != 1 {
		t.Fatalf("an empty stream must not create a bot entry, got %+v", tr.Entries())
	}
}
