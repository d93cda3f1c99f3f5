package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/herochat/herochat/internal/ai"
	"github.com/herochat/herochat/internal/persona"
	"github.com/herochat/herochat/internal/store"
)

type fakeProvider struct {
	chunks   []string
	err      error
	gotModel string
	gotMsgs  []ai.Message
	calls    int
}

func (f *fakeProvider) StreamChat(_ context.Context, model string, messages []ai.Message) (<-chan string, <-chan error) {
	f.calls++
	f.gotModel = model
	f.gotMsgs = append([]ai.Message(nil), messages...)

	ch := make(chan string, len(f.chunks))
	errs := make(chan error, 1)
	for _, c := range f.chunks {
		ch <- c
	}
	if f.err != nil {
		errs <- f.err
	}
	close(ch)
	close(errs)
	return ch, errs
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) PublishJob(_ context.Context, jobID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, jobID)
	return nil
}

func newTestService(t *testing.T, prov ai.StreamProvider, pub JobPublisher) (*Service, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	svc := NewService(st, prov, nil, pub, nil, 10, "")
	return svc, st
}

func createSession(t *testing.T, st store.Storage, p string) *store.ChatSession {
	t.Helper()
	sess := &store.ChatSession{UserID: "u-1", Personality: p}
	if err := st.CreateChatSession(context.Background(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess
}

func TestValidate(t *testing.T) {
	r := &Request{Message: "  "}
	if err := r.Validate(); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	r = &Request{Message: "hi", Personality: "galactus"}
	if err := r.Validate(); !errors.Is(err, ErrUnknownPersona) {
		t.Fatalf("expected ErrUnknownPersona, got %v", err)
	}

	r = &Request{Message: "hi"}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Personality != persona.Default {
		t.Fatalf("expected default persona, got %q", r.Personality)
	}
}

func TestStreamReply_PersistsUserAndBot(t *testing.T) {
	prov := &fakeProvider{chunks: []string{"Hi", " there"}}
	svc, st := newTestService(t, prov, nil)
	sess := createSession(t, st, "spiderman")
	before := sess.UpdatedAt
	time.Sleep(10 * time.Millisecond)

	var sunk []string
	reply, err := svc.StreamReply(context.Background(), Request{
		Message:     "hello",
		Personality: "spiderman",
		SessionID:   sess.ID,
	}, func(c string) { sunk = append(sunk, c) })
	if err != nil {
		t.Fatalf("stream reply: %v", err)
	}
	if reply != "Hi there" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if len(sunk) != 2 || sunk[0] != "Hi" || sunk[1] != " there" {
		t.Fatalf("unexpected sink chunks %#v", sunk)
	}

	msgs, err := st.GetSessionMessages(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Sender != store.SenderUser || msgs[0].Content != "hello" {
		t.Fatalf("unexpected user message %+v", msgs[0])
	}
	if msgs[1].Sender != store.SenderBot || msgs[1].Content != "Hi there" {
		t.Fatalf("unexpected bot message %+v", msgs[1])
	}

	got, err := st.GetChatSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !got.UpdatedAt.After(before) {
		t.Fatalf("updatedAt not refreshed: before=%v after=%v", before, got.UpdatedAt)
	}
}

func TestStreamReply_NoSessionSkipsPersistence(t *testing.T) {
	prov := &fakeProvider{chunks: []string{"yo"}}
	svc, _ := newTestService(t, prov, nil)

	var sunk []string
	reply, err := svc.StreamReply(context.Background(), Request{
		Message:     "hello",
		Personality: "deadpool",
	}, func(c string) { sunk = append(sunk, c) })
	if err != nil {
		t.Fatalf("stream reply: %v", err)
	}
	if reply != "yo" || len(sunk) != 1 {
		t.Fatalf("expected streamed reply without persistence, got %q / %#v", reply, sunk)
	}

	// provider still got the system prompt plus the user turn
	if len(prov.gotMsgs) != 2 || prov.gotMsgs[0].Role != "system" || prov.gotMsgs[1].Content != "hello" {
		t.Fatalf("unexpected provider context %#v", prov.gotMsgs)
	}
}

func TestStreamReply_ContextWindow(t *testing.T) {
	prov := &fakeProvider{chunks: []string{"ok"}}
	st := store.NewMemory()
	svc := NewService(st, prov, nil, nil, nil, 4, "")
	sess := createSession(t, st, "thor")

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 8; i++ {
		sender := store.SenderUser
		if i%2 == 1 {
			sender = store.SenderBot
		}
		if err := st.CreateMessage(context.Background(), &store.Message{
			SessionID: sess.ID,
			Sender:    sender,
			Content:   "seed",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("seed message %d: %v", i, err)
		}
	}

	if _, err := svc.StreamReply(context.Background(), Request{
		Message:     "new",
		Personality: "thor",
		SessionID:   sess.ID,
	}, func(string) {}); err != nil {
		t.Fatalf("stream reply: %v", err)
	}

	// system prompt + window of history, newest entry being the user's turn
	if len(prov.gotMsgs) != 5 {
		t.Fatalf("expected 5 provider messages, got %d", len(prov.gotMsgs))
	}
	if prov.gotMsgs[0].Role != "system" {
		t.Fatalf("expected system prompt first, got %+v", prov.gotMsgs[0])
	}
	last := prov.gotMsgs[len(prov.gotMsgs)-1]
	if last.Role != "user" || last.Content != "new" {
		t.Fatalf("expected trailing user turn, got %+v", last)
	}
}

func TestStreamReply_UpstreamErrorBecomesInlineChunk(t *testing.T) {
	prov := &fakeProvider{chunks: []string{"partial"}, err: errors.New("connection reset")}
	svc, st := newTestService(t, prov, nil)
	sess := createSession(t, st, "spiderman")

	var sunk []string
	reply, err := svc.StreamReply(context.Background(), Request{
		Message:     "hello",
		Personality: "spiderman",
		SessionID:   sess.ID,
	}, func(c string) { sunk = append(sunk, c) })
	if err != nil {
		t.Fatalf("upstream errors must not escape the relay: %v", err)
	}
	if reply != "partialError: connection reset" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if sunk[len(sunk)-1] != "Error: connection reset" {
		t.Fatalf("expected trailing inline error chunk, got %#v", sunk)
	}

	msgs, _ := st.GetSessionMessages(context.Background(), sess.ID)
	if len(msgs) != 2 || msgs[1].Content != reply {
		t.Fatalf("expected the inline error persisted as the bot reply, got %+v", msgs)
	}
}

func TestStreamReply_CapabilityGate(t *testing.T) {
	prov := &fakeProvider{chunks: []string{"should not stream"}}
	svc, st := newTestService(t, prov, nil)
	sess := createSession(t, st, "spiderman")

	var sunk []string
	reply, err := svc.StreamReply(context.Background(), Request{
		Message:     "hello",
		Personality: "spiderman",
		SessionID:   sess.ID,
		ModelID:     "blip2-caption",
	}, func(c string) { sunk = append(sunk, c) })
	if err != nil {
		t.Fatalf("stream reply: %v", err)
	}
	if prov.calls != 0 {
		t.Fatalf("expected no upstream call for a chat-incapable model")
	}
	if len(sunk) != 1 || !strings.Contains(sunk[0], "doesn't support chat") {
		t.Fatalf("expected a single explanatory chunk, got %#v", sunk)
	}

	// The explanatory text is treated as an ordinary bot reply.
	msgs, _ := st.GetSessionMessages(context.Background(), sess.ID)
	if len(msgs) != 2 || msgs[1].Content != reply {
		t.Fatalf("expected gate text persisted as bot message, got %+v", msgs)
	}
}

func TestStreamReply_UnknownModelIsPermissive(t *testing.T) {
	prov := &fakeProvider{chunks: []string{"ok"}}
	svc, st := newTestService(t, prov, nil)
	sess := createSession(t, st, "spiderman")

	if _, err := svc.StreamReply(context.Background(), Request{
		Message:     "hello",
		Personality: "spiderman",
		SessionID:   sess.ID,
		ModelID:     "acme/brand-new-model",
	}, func(string) {}); err != nil {
		t.Fatalf("stream reply: %v", err)
	}
	if prov.calls != 1 || prov.gotModel != "acme/brand-new-model" {
		t.Fatalf("expected permissive pass-through, got calls=%d model=%q", prov.calls, prov.gotModel)
	}
}

func TestAnalyzeImage(t *testing.T) {
	svc, st := newTestService(t, &fakeProvider{}, nil)
	sess := createSession(t, st, "hulk")

	analysis, err := svc.AnalyzeImage(context.Background(), ImageUpload{
		SessionID:   sess.ID,
		Personality: "hulk",
		Filename:    "smash.png",
		MimeType:    "image/png",
		Data:        []byte{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("analyze image: %v", err)
	}
	if analysis != persona.VisionFallback("hulk") {
		t.Fatalf("unexpected analysis %q", analysis)
	}

	msgs, _ := st.GetSessionMessages(context.Background(), sess.ID)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].MessageType != store.TypeImage || !strings.Contains(msgs[0].Content, "smash.png") {
		t.Fatalf("unexpected image message %+v", msgs[0])
	}
	if msgs[0].Metadata["mimeType"] != "image/png" {
		t.Fatalf("expected mime type metadata, got %#v", msgs[0].Metadata)
	}
	if msgs[1].Sender != store.SenderBot || msgs[1].Content != analysis {
		t.Fatalf("unexpected analysis message %+v", msgs[1])
	}
}

func TestEnqueueAndRunJob(t *testing.T) {
	prov := &fakeProvider{chunks: []string{"async ", "reply"}}
	pub := &fakePublisher{}
	svc, st := newTestService(t, prov, pub)
	sess := createSession(t, st, "batman")

	job, err := svc.EnqueueChat(context.Background(), Request{
		Message:     "who are you",
		Personality: "batman",
		SessionID:   sess.ID,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0] != job.ID {
		t.Fatalf("job not published: %#v", pub.published)
	}

	if err := svc.RunJob(context.Background(), job.ID); err != nil {
		t.Fatalf("run job: %v", err)
	}

	got, err := svc.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != store.JobSucceeded || got.ResultMessageID == nil {
		t.Fatalf("unexpected job state %+v", got)
	}

	msgs, _ := st.GetSessionMessages(context.Background(), sess.ID)
	if len(msgs) != 2 || msgs[1].Content != "async reply" {
		t.Fatalf("expected user + bot messages, got %+v", msgs)
	}
}

func TestEnqueue_MissingSession(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{}, &fakePublisher{})
	_, err := svc.EnqueueChat(context.Background(), Request{
		Message:     "hi",
		Personality: "batman",
		SessionID:   "missing",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnqueue_Disabled(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{}, nil)
	_, err := svc.EnqueueChat(context.Background(), Request{Message: "hi", SessionID: "s"})
	if !errors.Is(err, ErrAsyncDisabled) {
		t.Fatalf("expected ErrAsyncDisabled, got %v", err)
	}
}
