package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aschepis/backscratcher/diary/blobstore"
	"github.com/aschepis/backscratcher/diary/conversations"
	"github.com/aschepis/backscratcher/diary/journal"
	"github.com/aschepis/backscratcher/diary/llm"
	"github.com/rs/zerolog"
)

type fakeClient struct {
	reply    string
	err      error
	requests []*llm.Request
}

func (f *fakeClient) Synchronous(_ context.Context, req *llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.reply}, nil
}

type testEnv struct {
	journal *journal.Manager
	threads *conversations.Manager
	client  *fakeClient
	req     *Requester
}

func newTestEnv(policy Policy) *testEnv {
	store := blobstore.NewMemoryStore()
	clock := time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	env := &testEnv{
		journal: journal.NewManager(store, journal.Options{Folder: "diary", Now: now}, zerolog.Nop()),
		threads: conversations.NewManager(store, "diary", now, zerolog.Nop()),
		client:  &fakeClient{reply: "  You seem rested.  "},
	}
	env.req = NewRequester(env.journal, env.threads, env.client, policy, zerolog.Nop())
	return env
}

func TestBuildPromptOrder(t *testing.T) {
	window := []conversations.Message{
		{Role: conversations.RoleUser, Content: "earlier question"},
		{Role: conversations.RoleAssistant, Content: "earlier answer"},
	}
	p := BuildPrompt("why?", "entry one", window, DefaultPolicy())
	if !strings.HasPrefix(p.System, DefaultSystemPrompt) {
		t.Errorf("Expected system prompt to start with the instruction, got %q", p.System)
	}
	if !strings.HasSuffix(p.System, "Here are my journals:\nentry one") {
		t.Errorf("Expected journal context after the instruction, got %q", p.System)
	}
	if len(p.Messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(p.Messages))
	}
	if p.Messages[0].Content != "earlier question" || p.Messages[1].Role != llm.RoleAssistant {
		t.Errorf("Expected dialogue window before the question, got %+v", p.Messages)
	}
	if p.Messages[2].Role != llm.RoleUser || p.Messages[2].Content != "Question: why?" {
		t.Errorf("Expected question last, got %+v", p.Messages[2])
	}
}

func TestBuildPromptBoundsWindow(t *testing.T) {
	var window []conversations.Message
	for i := 0; i < 20; i++ {
		role := conversations.RoleUser
		if i%2 == 1 {
			role = conversations.RoleAssistant
		}
		window = append(window, conversations.Message{Role: role, Content: fmt.Sprintf("m%d", i)})
	}
	policy := DefaultPolicy()
	policy.ContextPairs = 2
	p := BuildPrompt("q", "", window, policy)
	// m16..m19 plus the question.
	if len(p.Messages) != 5 || p.Messages[0].Content != "m16" {
		t.Errorf("Expected trailing 4 messages plus question, got %+v", p.Messages)
	}
	if strings.Contains(p.System, "Here are my journals") {
		t.Error("Expected no journal section without context")
	}
}

func TestBuildPromptStartsWithUserTurn(t *testing.T) {
	window := []conversations.Message{
		{Role: conversations.RoleAssistant, Content: "orphan reply"},
		{Role: conversations.RoleUser, Content: "first"},
		{Role: conversations.RoleUser, Content: "second"},
	}
	p := BuildPrompt("q", "", window, DefaultPolicy())
	if len(p.Messages) != 1 {
		t.Fatalf("Expected user turns to merge into one message, got %+v", p.Messages)
	}
	if p.Messages[0].Content != "first\n\nsecond\n\nQuestion: q" {
		t.Errorf("Unexpected merged content %q", p.Messages[0].Content)
	}
}

func TestRequesterRejectsBlankQuestion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(DefaultPolicy())
	if _, err := env.journal.AppendEntry(ctx, time.Date(2025, time.January, 5, 22, 0, 0, 0, time.UTC), "entry"); err != nil {
		t.Fatalf("AppendEntry failed: %v", err)
	}
	if _, err := env.req.Prepare(ctx, "  "); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("Expected ErrEmptyQuestion from Prepare, got %v", err)
	}
	if _, err := env.req.Ask(ctx, "\n"); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("Expected ErrEmptyQuestion from Ask, got %v", err)
	}
	h, err := env.threads.CreateThread(ctx, "t")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	if _, err := env.req.Send(ctx, h, " ", false); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("Expected ErrEmptyQuestion from Send, got %v", err)
	}
	if len(env.client.requests) != 0 {
		t.Errorf("Expected no model call, got %d", len(env.client.requests))
	}
}

func TestBoundContext(t *testing.T) {
	var blocks []string
	for i := 0; i < 30; i++ {
		blocks = append(blocks, fmt.Sprintf("entry %02d", i))
	}
	text := strings.Join(blocks, journal.Separator)

	policy := Policy{MaxEntries: 3, MaxContextChars: 1000}
	got := BoundContext(text, policy)
	if got != strings.Join(blocks[27:], journal.Separator) {
		t.Errorf("Expected last 3 entries, got %q", got)
	}

	policy = Policy{MaxEntries: 30, MaxContextChars: 25}
	got = BoundContext(text, policy)
	if len(got) > 25 {
		t.Errorf("Expected at most 25 chars, got %d", len(got))
	}
	if !strings.HasSuffix(got, "entry 29") || strings.HasPrefix(got, "---") {
		t.Errorf("Expected whole trailing entries, got %q", got)
	}

	if got := BoundContext(text, Policy{}); got != "" {
		t.Errorf("Expected no context with zero entries allowed, got %q", got)
	}
}

func TestAskEmptyCorpus(t *testing.T) {
	env := newTestEnv(DefaultPolicy())
	answer, err := env.req.Ask(context.Background(), "How am I?")
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("Expected ErrEmptyCorpus, got %v", err)
	}
	if answer != EmptyCorpusMessage {
		t.Errorf("Expected empty corpus message, got %q", answer)
	}
	if len(env.client.requests) != 0 {
		t.Error("Expected no model call for an empty corpus")
	}
}

func TestAskUsesFreshCorpus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(DefaultPolicy())
	if _, err := env.journal.AppendEntry(ctx, time.Date(2025, time.January, 5, 22, 0, 0, 0, time.UTC), "Slept nine hours"); err != nil {
		t.Fatalf("AppendEntry failed: %v", err)
	}

	answer, err := env.req.Ask(ctx, "How did I sleep?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer != "You seem rested." {
		t.Errorf("Expected trimmed answer, got %q", answer)
	}
	if !strings.Contains(env.client.requests[0].System, "Slept nine hours") {
		t.Error("Expected the new entry in the prompt")
	}
}

func TestAskCollaboratorFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(DefaultPolicy())
	env.client.err = llm.NewRateLimitError("quota exceeded for this month", nil, nil)
	if _, err := env.journal.AppendEntry(ctx, time.Date(2025, time.January, 5, 22, 0, 0, 0, time.UTC), "entry"); err != nil {
		t.Fatalf("AppendEntry failed: %v", err)
	}

	_, err := env.req.Ask(ctx, "anything")
	if !IsCollaboratorError(err) {
		t.Fatalf("Expected collaborator error, got %v", err)
	}
	if err.Error() != "quota exceeded for this month" {
		t.Errorf("Expected collaborator text verbatim, got %q", err.Error())
	}
	if !llm.IsRateLimitError(err) {
		t.Error("Expected the llm error to stay reachable")
	}
}

func TestSendRecordsBothTurns(t *testing.T) {
	ctx := context.Background()
	policy := DefaultPolicy()
	policy.ContextPairs = 1
	env := newTestEnv(policy)

	h, err := env.threads.CreateThread(ctx, "sleep")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := env.req.Send(ctx, h, fmt.Sprintf("message %d", i), false); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}

	thread, err := env.threads.LoadThread(ctx, "sleep")
	if err != nil {
		t.Fatalf("LoadThread failed: %v", err)
	}
	if len(thread.Messages) != 6 {
		t.Fatalf("Expected 6 messages, got %d", len(thread.Messages))
	}
	if thread.Messages[5].Role != conversations.RoleAssistant || thread.Messages[5].Content != "You seem rested." {
		t.Errorf("Unexpected last message %+v", thread.Messages[5])
	}

	last := env.client.requests[2]
	// One prior pair plus the new question.
	if len(last.Messages) != 3 {
		t.Fatalf("Expected 3 messages in the last request, got %+v", last.Messages)
	}
	if last.Messages[0].Content != "message 1" || last.Messages[2].Content != "Question: message 2" {
		t.Errorf("Unexpected request messages %+v", last.Messages)
	}
}

func TestSendFailureKeepsUserMessage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(DefaultPolicy())
	env.client.err = errors.New("service unavailable")

	h, err := env.threads.CreateThread(ctx, "t")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	if _, err := env.req.Send(ctx, h, "hello", true); err == nil || err.Error() != "service unavailable" {
		t.Fatalf("Expected verbatim collaborator error, got %v", err)
	}
	thread, err := env.threads.LoadThread(ctx, "t")
	if err != nil {
		t.Fatalf("LoadThread failed: %v", err)
	}
	if len(thread.Messages) != 1 || thread.Messages[0].Role != conversations.RoleUser {
		t.Errorf("Expected only the user message, got %+v", thread.Messages)
	}
}
