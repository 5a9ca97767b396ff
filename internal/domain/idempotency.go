package domain

import "time"

// ChatReplay stores the reply produced for a (session_id, Idempotency-Key)
// pair so a retried POST /api/chat returns the same text without running the
// agent again.
type ChatReplay struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	SessionID string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_replay_session_key,priority:1"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_replay_session_key,priority:2"`
	Reply     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (ChatReplay) TableName() string { return "chat_replays" }
