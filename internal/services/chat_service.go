// Package services – ChatService
//
// ChatService fronts the conversational agent for the HTTP layer. It validates
// the inbound message, serves idempotent replays for retried requests, and
// delegates the actual turn to a Responder (the agent runner).
//
// Observability: Send is OpenTelemetry-instrumented with the session id and
// whether a replay was served.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/opc-agent/internal/repo"
)

// DefaultSessionID is used when a client does not send a session id. All
// such requests share one conversation history.
const DefaultSessionID = "default"

// Responder produces the assistant reply for one user turn of a session.
type Responder interface {
	Respond(ctx context.Context, sessionID, message string) (string, error)
}

// ChatService coordinates a chat turn.
type ChatService struct {
	DB    *gorm.DB
	Agent Responder

	// ReplayTTL bounds how long an Idempotency-Key replay is honoured.
	// Zero disables replay storage.
	ReplayTTL time.Duration

	// MaxMessageRunes rejects longer messages when > 0.
	MaxMessageRunes int
}

// NewChatService constructs a ChatService.
func NewChatService(db *gorm.DB, agent Responder, replayTTL time.Duration, maxRunes int) *ChatService {
	return &ChatService{DB: db, Agent: agent, ReplayTTL: replayTTL, MaxMessageRunes: maxRunes}
}

// Send runs one chat turn. When idemKey is non-empty and a stored reply for
// (sessionID, idemKey) is still valid, that reply is returned with
// replayed=true and the agent is not called.
func (s *ChatService) Send(ctx context.Context, sessionID, message, idemKey string) (reply string, replayed bool, err error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return "", false, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return "", false, ErrMessageTooLong
	}

	if idemKey != "" && s.ReplayTTL > 0 {
		rec, err := repo.GetReplay(ctx, s.DB, sessionID, idemKey, time.Now().UTC())
		switch {
		case err == nil:
			span.SetAttributes(attribute.Bool("chat.replayed", true))
			return rec.Reply, true, nil
		case !errors.Is(err, repo.ErrNotFound):
			// Lookup failures don't block normal processing.
			log.Warn().Err(err).Msg("replay lookup failed")
		}
	}

	reply, err = s.Agent.Respond(ctx, sessionID, message)
	if err != nil {
		span.RecordError(err)
		return "", false, err
	}

	if idemKey != "" && s.ReplayTTL > 0 {
		if _, err := repo.CreateReplay(ctx, s.DB, sessionID, idemKey, reply, s.ReplayTTL); err != nil &&
			!errors.Is(err, repo.ErrDuplicate) {
			log.Warn().Err(err).Msg("replay store failed")
		}
	}
	return reply, false, nil
}
