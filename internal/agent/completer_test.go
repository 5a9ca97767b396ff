package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/opc-agent/internal/config"
	"github.com/tbourn/opc-agent/internal/domain"
	"github.com/tbourn/opc-agent/internal/tools"
)

func TestNewOpenAICompleter_RequiresKey(t *testing.T) {
	if c := NewOpenAICompleter(config.LLMConfig{APIKey: "  "}); c != nil {
		t.Fatalf("expected nil completer without key")
	}
	c := NewOpenAICompleter(config.LLMConfig{APIKey: "k", BaseURL: "http://gw/v1/", Model: "m", Temperature: 0.7, Timeout: time.Minute})
	if c == nil || c.model != "m" || c.timeout != time.Minute {
		t.Fatalf("unexpected completer: %#v", c)
	}
}

func TestToOpenAIMessages(t *testing.T) {
	msgs := []Message{
		{Role: roleSystem, Content: "sys"},
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "get_payment_qrcode", Arguments: "{}"}}},
		{Role: domain.RoleTool, Content: "💰", ToolCallID: "c1"},
		{Role: domain.RoleAssistant, Content: "done"},
	}
	out := toOpenAIMessages(msgs)
	if len(out) != len(msgs) {
		t.Fatalf("len = %d", len(out))
	}
	if out[0].OfSystem == nil || out[1].OfUser == nil || out[3].OfTool == nil || out[4].OfAssistant == nil {
		t.Fatalf("role mapping wrong: %#v", out)
	}
	am := out[2].OfAssistant
	if am == nil || len(am.ToolCalls) != 1 || am.ToolCalls[0].ID != "c1" || am.ToolCalls[0].Function.Name != "get_payment_qrcode" {
		t.Fatalf("assistant tool calls not mapped: %#v", am)
	}
	if out[3].OfTool.ToolCallID != "c1" {
		t.Fatalf("tool call id = %q", out[3].OfTool.ToolCallID)
	}
}

func TestBuildParams_Tools(t *testing.T) {
	specs := []tools.Spec{{Name: "save_user_info", Description: "d", Parameters: map[string]any{"type": "object"}}}
	p := buildParams("gpt-4o-mini", 0.7, []Message{{Role: domain.RoleUser, Content: "x"}}, specs)
	if string(p.Model) != "gpt-4o-mini" || len(p.Messages) != 1 {
		t.Fatalf("params = %#v", p)
	}
	if len(p.Tools) != 1 || p.Tools[0].Function.Name != "save_user_info" {
		t.Fatalf("tools = %#v", p.Tools)
	}
}

func TestLoadSystemPrompt(t *testing.T) {
	def, err := LoadSystemPrompt("")
	if err != nil || !strings.Contains(def, "save_user_info") {
		t.Fatalf("embedded prompt: %v", err)
	}

	p := filepath.Join(t.TempDir(), "p.md")
	if err := os.WriteFile(p, []byte("  custom \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadSystemPrompt(p)
	if err != nil || got != "custom" {
		t.Fatalf("got %q err=%v", got, err)
	}

	empty := filepath.Join(t.TempDir(), "empty.md")
	_ = os.WriteFile(empty, nil, 0o600)
	if _, err := LoadSystemPrompt(empty); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
	if _, err := LoadSystemPrompt(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Fatalf("expected error for missing prompt")
	}
}

func TestWelcome(t *testing.T) {
	if Welcome("") != DefaultWelcome || Welcome("hi") != "hi" {
		t.Fatalf("Welcome override not honored")
	}
}
