package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/opc-agent/internal/config"
	"github.com/tbourn/opc-agent/internal/domain"
	"github.com/tbourn/opc-agent/internal/repo"
	"github.com/tbourn/opc-agent/internal/services"
	"github.com/tbourn/opc-agent/internal/tools"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:agent_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// scripted returns the queued messages in order and records every prompt.
type scripted struct {
	replies []Message
	errs    []error
	seen    [][]Message
}

func (s *scripted) Complete(_ context.Context, msgs []Message, _ []tools.Spec) (Message, error) {
	s.seen = append(s.seen, append([]Message(nil), msgs...))
	n := len(s.seen) - 1
	if n < len(s.errs) && s.errs[n] != nil {
		return Message{}, s.errs[n]
	}
	if n < len(s.replies) {
		return s.replies[n], nil
	}
	return s.replies[len(s.replies)-1], nil
}

type memStore struct {
	history  []Message
	appended [][]Message
	err      error
}

func (m *memStore) History(context.Context, string, int) (string, []Message, error) {
	return "conv-1", m.history, m.err
}

func (m *memStore) Append(_ context.Context, _ string, msgs []Message) error {
	m.appended = append(m.appended, msgs)
	return nil
}

type stubFAQ struct{ reply string }

func (f stubFAQ) Answer(string) (string, bool) { return f.reply, true }

type stubTools struct {
	calls []string
	err   error
}

func (s *stubTools) Specs() []tools.Spec { return []tools.Spec{{Name: "noop"}} }

func (s *stubTools) Call(_ context.Context, name, _ string) (string, error) {
	s.calls = append(s.calls, name)
	return "✅ done", s.err
}

func toolCall(id, name, args string) Message {
	return Message{Role: domain.RoleAssistant, ToolCalls: []ToolCall{{ID: id, Name: name, Arguments: args}}}
}

func TestRespond_ToolLoopPersistsTurn(t *testing.T) {
	db := newTestDB(t)
	reg := tools.New(tools.Deps{
		Customers: services.NewCustomerService(db),
		Payment:   config.PaymentConfig{ProductName: "OPC创业指导PDF"},
	})
	llm := &scripted{replies: []Message{
		toolCall("c1", "save_user_info", `{"contact_info":"u@x.com","target_city":"杭州"}`),
		{Role: domain.RoleAssistant, Content: "已为你保存信息"},
	}}
	r := &Runner{Completer: llm, Tools: reg, Store: GormStore{DB: db}, SystemPrompt: "sys"}

	reply, err := r.Respond(context.Background(), "s1", "我在杭州，邮箱 u@x.com")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "已为你保存信息" {
		t.Fatalf("reply = %q", reply)
	}

	second := llm.seen[1]
	last := second[len(second)-1]
	if last.Role != domain.RoleTool || last.ToolCallID != "c1" || !strings.HasPrefix(last.Content, "✅ **用户信息保存成功！**") {
		t.Fatalf("tool result not fed back: %#v", last)
	}
	if second[0].Role != roleSystem || second[0].Content != "sys" {
		t.Fatalf("system prompt missing: %#v", second[0])
	}

	convID, hist, err := GormStore{DB: db}.History(context.Background(), "s1", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if convID == "" || len(hist) != 4 {
		t.Fatalf("persisted %d messages, want 4", len(hist))
	}
	if len(hist[1].ToolCalls) != 1 || hist[1].ToolCalls[0].Name != "save_user_info" {
		t.Fatalf("tool calls not round-tripped: %#v", hist[1])
	}

	// The next turn replays history.
	llm2 := &scripted{replies: []Message{{Role: domain.RoleAssistant, Content: "好的"}}}
	r.Completer = llm2
	if _, err := r.Respond(context.Background(), "s1", "谢谢"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got := len(llm2.seen[0]); got != 1+4+1 {
		t.Fatalf("prompt length = %d, want system+history+user", got)
	}
}

func TestRespond_DropsOrphanToolMessages(t *testing.T) {
	store := &memStore{history: []Message{
		{Role: domain.RoleTool, Content: "orphan", ToolCallID: "gone"},
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}}
	llm := &scripted{replies: []Message{{Content: "ok"}}}
	r := &Runner{Completer: llm, Store: store}

	if _, err := r.Respond(context.Background(), "s", "next"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	got := llm.seen[0]
	if len(got) != 3 || got[0].Role != domain.RoleUser {
		t.Fatalf("prompt = %#v", got)
	}
}

func TestRespond_HistoryWindow(t *testing.T) {
	db := newTestDB(t)
	store := GormStore{DB: db}
	convID, _, err := store.History(context.Background(), "w", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	var seed []Message
	for i := 0; i < 25; i++ {
		seed = append(seed,
			Message{Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i)},
			Message{Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i)})
	}
	if err := store.Append(context.Background(), convID, seed); err != nil {
		t.Fatalf("Append: %v", err)
	}

	llm := &scripted{replies: []Message{{Content: "ok"}}}
	r := &Runner{Completer: llm, Store: store}
	if _, err := r.Respond(context.Background(), "w", "now"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	got := llm.seen[0]
	if len(got) != DefaultHistoryWindow+1 {
		t.Fatalf("prompt length = %d, want %d", len(got), DefaultHistoryWindow+1)
	}
	if got[0].Content != "q5" || got[len(got)-1].Content != "now" {
		t.Fatalf("window = %q .. %q", got[0].Content, got[len(got)-1].Content)
	}
}

func TestRespond_RoundLimit(t *testing.T) {
	store := &memStore{}
	tl := &stubTools{}
	llm := &scripted{replies: []Message{toolCall("c", "noop", "{}")}}
	r := &Runner{Completer: llm, Tools: tl, Store: store, MaxToolRounds: 3}

	reply, err := r.Respond(context.Background(), "s", "loop")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != TooManyRoundsReply {
		t.Fatalf("reply = %q", reply)
	}
	if len(llm.seen) != 3 || len(tl.calls) != 3 {
		t.Fatalf("completions=%d tool calls=%d, want 3/3", len(llm.seen), len(tl.calls))
	}
	turn := store.appended[0]
	if turn[len(turn)-1].Content != TooManyRoundsReply {
		t.Fatalf("canned reply not persisted")
	}
}

func TestRespond_Errors(t *testing.T) {
	t.Run("completion error persists nothing", func(t *testing.T) {
		store := &memStore{}
		llm := &scripted{errs: []error{errors.New("502")}, replies: []Message{{}}}
		r := &Runner{Completer: llm, Store: store, FAQ: stubFAQ{reply: "faq"}}
		if _, err := r.Respond(context.Background(), "s", "hi"); err == nil {
			t.Fatalf("expected error")
		}
		if len(store.appended) != 0 {
			t.Fatalf("turn persisted on failure")
		}
	})

	t.Run("timeout falls back to faq", func(t *testing.T) {
		store := &memStore{}
		llm := &scripted{errs: []error{fmt.Errorf("chat completion: %w", context.DeadlineExceeded)}, replies: []Message{{}}}
		r := &Runner{Completer: llm, Store: store, FAQ: stubFAQ{reply: "faq answer"}}
		reply, err := r.Respond(context.Background(), "s", "价格")
		if err != nil || reply != "faq answer" {
			t.Fatalf("reply=%q err=%v", reply, err)
		}
	})

	t.Run("tool storage error surfaces", func(t *testing.T) {
		store := &memStore{}
		llm := &scripted{replies: []Message{toolCall("c", "noop", "{}")}}
		r := &Runner{Completer: llm, Tools: &stubTools{err: errors.New("db down")}, Store: store}
		if _, err := r.Respond(context.Background(), "s", "hi"); err == nil || !strings.Contains(err.Error(), "tool noop") {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("history error", func(t *testing.T) {
		r := &Runner{Completer: &scripted{}, Store: &memStore{err: errors.New("boom")}}
		if _, err := r.Respond(context.Background(), "s", "hi"); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestRespond_EmptyModelReply(t *testing.T) {
	store := &memStore{}
	r := &Runner{Completer: &scripted{replies: []Message{{Content: "  "}}}, Store: store}
	reply, err := r.Respond(context.Background(), "s", "hi")
	if err != nil || reply != EmptyReply {
		t.Fatalf("reply=%q err=%v", reply, err)
	}
}

func TestRespond_NoCompleterUsesFAQ(t *testing.T) {
	store := &memStore{}
	r := &Runner{Store: store, FAQ: stubFAQ{reply: "售价68元"}}
	reply, err := r.Respond(context.Background(), "s", "价格")
	if err != nil || reply != "售价68元" {
		t.Fatalf("reply=%q err=%v", reply, err)
	}
	if len(store.appended) != 1 || len(store.appended[0]) != 2 {
		t.Fatalf("appended = %#v", store.appended)
	}
}

func TestTrimOrphans(t *testing.T) {
	in := []Message{{Role: domain.RoleTool}, {Role: domain.RoleTool}, {Role: domain.RoleUser}}
	if got := trimOrphans(in); len(got) != 1 {
		t.Fatalf("len = %d", len(got))
	}
	if got := trimOrphans([]Message{{Role: domain.RoleTool}}); len(got) != 0 {
		t.Fatalf("all-orphan history should be empty")
	}
}
