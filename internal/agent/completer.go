package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tbourn/opc-agent/internal/config"
	"github.com/tbourn/opc-agent/internal/domain"
	"github.com/tbourn/opc-agent/internal/tools"
)

// Completer produces the next assistant message for a conversation.
type Completer interface {
	Complete(ctx context.Context, msgs []Message, specs []tools.Spec) (Message, error)
}

// ErrNoChoices is returned when the backend answers without a choice.
var ErrNoChoices = errors.New("agent: completion returned no choices")

// OpenAICompleter talks to any OpenAI-compatible chat completions endpoint.
type OpenAICompleter struct {
	client      openai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

// NewOpenAICompleter returns nil when no API key is configured.
func NewOpenAICompleter(cfg config.LLMConfig) *OpenAICompleter {
	if !cfg.Enabled() {
		return nil
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	return &OpenAICompleter{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}
}

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, msgs []Message, specs []tools.Spec) (Message, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Chat.Completions.New(ctx, buildParams(c.model, c.temperature, msgs, specs))
	if err != nil {
		return Message{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, ErrNoChoices
	}

	got := resp.Choices[0].Message
	out := Message{Role: domain.RoleAssistant, Content: got.Content}
	for _, tc := range got.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func buildParams(model string, temperature float64, msgs []Message, specs []tools.Spec) openai.ChatCompletionNewParams {
	p := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    toOpenAIMessages(msgs),
		Temperature: openai.Float(temperature),
	}
	for _, s := range specs {
		p.Tools = append(p.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        s.Name,
				Description: openai.String(s.Description),
				Parameters:  openai.FunctionParameters(s.Parameters),
			},
		})
	}
	return p
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case roleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case domain.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case domain.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case domain.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			am := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				am.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(m.Content)}
			}
			for _, tc := range m.ToolCalls {
				am.ToolCalls = append(am.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &am})
		}
	}
	return out
}
