package model

import "time"

// History roles as they appear in reformulation and generation prompts.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// ConversationTurn is one question/answer pair within a session. Turns are
// append-only; ordering by CreatedAt (ID as tiebreak) defines conversational
// memory order.
type ConversationTurn struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"size:36;not null;index" json:"session_id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	UserQuery   string    `gorm:"type:text;not null" json:"user_query"`
	ModelAnswer string    `gorm:"type:text;not null" json:"model_answer"`
	ModelName   string    `gorm:"size:64;not null" json:"model_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryMessage is a single prompt-ready history entry. Each stored turn
// expands to exactly two messages, human then ai.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
