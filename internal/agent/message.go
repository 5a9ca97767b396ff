// Package agent runs the tool-calling chat loop behind POST /api/chat.
//
// A Runner loads the session's recent history, asks a Completer for the next
// assistant message, executes any requested tools, and repeats until the
// model answers in plain text or the round limit is reached. The finished
// turn is persisted as one batch. Without a Completer the Runner answers
// from the offline FAQ.
package agent

import (
	"gorm.io/datatypes"

	"github.com/tbourn/opc-agent/internal/domain"
)

// Message is one chat turn exchanged with the model.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a tool invocation requested by the assistant.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

const roleSystem = "system"

func fromRecord(m domain.ConversationMessage) Message {
	out := Message{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
	for _, c := range m.ToolCalls.Data() {
		out.ToolCalls = append(out.ToolCalls, ToolCall(c))
	}
	return out
}

func toRecord(m Message) domain.ConversationMessage {
	rec := domain.ConversationMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
	if len(m.ToolCalls) > 0 {
		calls := make([]domain.ToolCallRecord, len(m.ToolCalls))
		for i, c := range m.ToolCalls {
			calls[i] = domain.ToolCallRecord(c)
		}
		rec.ToolCalls = datatypes.NewJSONType(calls)
	}
	return rec
}

// trimOrphans drops leading tool results whose assistant call fell out of
// the history window.
func trimOrphans(msgs []Message) []Message {
	for len(msgs) > 0 && msgs[0].Role == domain.RoleTool {
		msgs = msgs[1:]
	}
	return msgs
}
