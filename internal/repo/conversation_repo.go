package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/opc-agent/internal/domain"
)

// EnsureConversation returns the conversation for sessionID, creating it when
// absent. Concurrent first requests for one session converge on a single row.
func EnsureConversation(ctx context.Context, db *gorm.DB, sessionID string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	c := &domain.Conversation{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(c)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		return c, nil
	}
	var existing domain.Conversation
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// AppendMessages stores msgs in order under conversationID and bumps the
// conversation's updated_at.
func AppendMessages(ctx context.Context, db *gorm.DB, conversationID string, msgs []domain.ConversationMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range msgs {
			msgs[i].ID = 0
			msgs[i].ConversationID = conversationID
			if msgs[i].CreatedAt.IsZero() {
				msgs[i].CreatedAt = now
			}
			if err := tx.Create(&msgs[i]).Error; err != nil {
				return err
			}
		}
		return tx.Model(&domain.Conversation{}).
			Where("id = ?", conversationID).
			Update("updated_at", now).Error
	})
}

// RecentMessages returns up to limit of the newest messages of a
// conversation, oldest first. limit <= 0 returns everything.
func RecentMessages(ctx context.Context, db *gorm.DB, conversationID string, limit int) ([]domain.ConversationMessage, error) {
	var out []domain.ConversationMessage
	q := db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountMessages returns the number of stored turns for a conversation.
func CountMessages(ctx context.Context, db *gorm.DB, conversationID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.ConversationMessage{}).
		Where("conversation_id = ?", conversationID).
		Count(&n).Error
	return n, err
}
