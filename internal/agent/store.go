package agent

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/opc-agent/internal/domain"
	"github.com/tbourn/opc-agent/internal/repo"
)

// ConversationStore persists per-session agent memory.
type ConversationStore interface {
	// History returns the conversation id for sessionID and up to limit of
	// its newest messages, oldest first.
	History(ctx context.Context, sessionID string, limit int) (string, []Message, error)
	// Append stores msgs at the end of the conversation.
	Append(ctx context.Context, conversationID string, msgs []Message) error
}

// GormStore keeps conversations in the application database.
type GormStore struct {
	DB *gorm.DB
}

// History implements ConversationStore.
func (s GormStore) History(ctx context.Context, sessionID string, limit int) (string, []Message, error) {
	conv, err := repo.EnsureConversation(ctx, s.DB, sessionID)
	if err != nil {
		return "", nil, err
	}
	recs, err := repo.RecentMessages(ctx, s.DB, conv.ID, limit)
	if err != nil {
		return "", nil, err
	}
	out := make([]Message, len(recs))
	for i, r := range recs {
		out[i] = fromRecord(r)
	}
	return conv.ID, out, nil
}

// Append implements ConversationStore.
func (s GormStore) Append(ctx context.Context, conversationID string, msgs []Message) error {
	recs := make([]domain.ConversationMessage, len(msgs))
	for i, m := range msgs {
		recs[i] = toRecord(m)
	}
	return repo.AppendMessages(ctx, s.DB, conversationID, recs)
}
