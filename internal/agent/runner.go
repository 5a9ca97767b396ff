package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/opc-agent/internal/domain"
	"github.com/tbourn/opc-agent/internal/tools"
)

const (
	DefaultMaxToolRounds = 8
	DefaultHistoryWindow = 40
)

// Canned replies.
const (
	TooManyRoundsReply = "抱歉，这个问题处理步骤较多，我暂时没能完成。请换个方式描述你的需求，或稍后再试。"
	EmptyReply         = "抱歉，我刚才没有组织好回答，请再说一次你的问题。"
)

// ToolCaller executes tools and describes them to the model.
type ToolCaller interface {
	Specs() []tools.Spec
	Call(ctx context.Context, name, args string) (string, error)
}

// FAQ answers a question offline; ok is false when nothing matched.
type FAQ interface {
	Answer(question string) (reply string, ok bool)
}

// Runner drives one assistant turn per user message. It implements
// services.Responder.
type Runner struct {
	Completer     Completer // nil answers from FAQ only
	Tools         ToolCaller
	Store         ConversationStore
	FAQ           FAQ
	SystemPrompt  string
	MaxToolRounds int
	HistoryWindow int
}

func (r *Runner) rounds() int {
	if r.MaxToolRounds > 0 {
		return r.MaxToolRounds
	}
	return DefaultMaxToolRounds
}

func (r *Runner) window() int {
	if r.HistoryWindow > 0 {
		return r.HistoryWindow
	}
	return DefaultHistoryWindow
}

// Respond answers message within sessionID. On error nothing is persisted.
func (r *Runner) Respond(ctx context.Context, sessionID, message string) (string, error) {
	ctx, span := otel.Tracer("agent/Runner").Start(ctx, "Respond",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	convID, history, err := r.Store.History(ctx, sessionID, r.window())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load history")
		return "", fmt.Errorf("load history: %w", err)
	}
	user := Message{Role: domain.RoleUser, Content: message}

	if r.Completer == nil {
		reply := r.faqReply("no_llm", message)
		return reply, r.persist(ctx, convID, user, Message{Role: domain.RoleAssistant, Content: reply})
	}

	msgs := make([]Message, 0, len(history)+2)
	if r.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: roleSystem, Content: r.SystemPrompt})
	}
	msgs = append(msgs, trimOrphans(history)...)
	msgs = append(msgs, user)
	turn := []Message{user}

	var specs []tools.Spec
	if r.Tools != nil {
		specs = r.Tools.Specs()
	}

	reply := ""
	done := false
	round := 0
	for round < r.rounds() && !done {
		round++
		start := time.Now()
		next, err := r.Completer.Complete(ctx, msgs, specs)
		if err != nil {
			completionLat.WithLabelValues("error").Observe(time.Since(start).Seconds())
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && r.FAQ != nil {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("completion timed out; answering from faq")
				reply = r.faqReply("timeout", message)
				return reply, r.persist(ctx, convID, user, Message{Role: domain.RoleAssistant, Content: reply})
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "completion")
			return "", err
		}
		completionLat.WithLabelValues("ok").Observe(time.Since(start).Seconds())

		next.Role = domain.RoleAssistant
		msgs = append(msgs, next)
		turn = append(turn, next)

		if len(next.ToolCalls) == 0 {
			reply = next.Content
			done = true
			break
		}
		for _, tc := range next.ToolCalls {
			out, err := r.callTool(ctx, tc)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "tool "+tc.Name)
				return "", fmt.Errorf("tool %s: %w", tc.Name, err)
			}
			res := Message{Role: domain.RoleTool, Content: out, ToolCallID: tc.ID}
			msgs = append(msgs, res)
			turn = append(turn, res)
		}
	}
	turnRounds.Observe(float64(round))
	span.SetAttributes(attribute.Int("agent.rounds", round))

	switch {
	case !done:
		log.Warn().Str("session_id", sessionID).Int("rounds", round).Msg("tool round limit reached")
		reply = TooManyRoundsReply
		turn = append(turn, Message{Role: domain.RoleAssistant, Content: reply})
	case strings.TrimSpace(reply) == "":
		reply = EmptyReply
		turn[len(turn)-1].Content = reply
	}

	if err := r.Store.Append(ctx, convID, turn); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("save turn: %w", err)
	}
	return reply, nil
}

func (r *Runner) callTool(ctx context.Context, tc ToolCall) (string, error) {
	if r.Tools == nil {
		return fmt.Sprintf("❌ 未知工具：%s", tc.Name), nil
	}
	out, err := r.Tools.Call(ctx, tc.Name, tc.Arguments)
	switch {
	case err != nil:
		toolCalls.WithLabelValues(tc.Name, "error").Inc()
	case strings.HasPrefix(out, "❌"), strings.HasPrefix(out, "⚠️"):
		toolCalls.WithLabelValues(tc.Name, "rejected").Inc()
	default:
		toolCalls.WithLabelValues(tc.Name, "ok").Inc()
	}
	log.Debug().Str("tool", tc.Name).Err(err).Msg("tool call")
	return out, err
}

func (r *Runner) faqReply(reason, question string) string {
	fallbacks.WithLabelValues(reason).Inc()
	if r.FAQ == nil {
		return EmptyReply
	}
	reply, _ := r.FAQ.Answer(question)
	return reply
}

func (r *Runner) persist(ctx context.Context, convID string, msgs ...Message) error {
	if err := r.Store.Append(ctx, convID, msgs); err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}
