package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Message roles stored in conversation_messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Conversation is the persisted agent memory for one chat session. The web
// page sends a session_id; requests without one share the "default" session.
type Conversation struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:varchar(128);not null;uniqueIndex:ux_conversations_session"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// ToolCallRecord is a tool invocation requested by the assistant.
type ToolCallRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ConversationMessage is one turn of a Conversation. Assistant turns may carry
// tool calls; tool turns answer exactly one call via ToolCallID. The
// auto-increment ID gives the replay order.
type ConversationMessage struct {
	ID             uint                                `json:"id"              gorm:"primaryKey"`
	ConversationID string                              `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conversation_msgs"`
	Role           string                              `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','assistant','tool')"`
	Content        string                              `json:"content"         gorm:"type:text;not null;default:''"`
	ToolCalls      datatypes.JSONType[[]ToolCallRecord] `json:"tool_calls"      gorm:"column:tool_calls"`
	ToolCallID     string                              `json:"tool_call_id"    gorm:"type:varchar(64);not null;default:''"`
	CreatedAt      time.Time                           `json:"created_at"`

	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ConversationMessage.
func (ConversationMessage) TableName() string { return "conversation_messages" }

// AgentModels lists the tables backing agent memory and reply replay.
func AgentModels() []any {
	return []any{
		&Conversation{},
		&ConversationMessage{},
		&ChatReplay{},
	}
}
