package repository

import (
	"fmt"

	"gorm.io/gorm"

	"ragdocs/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Append(turn *model.ConversationTurn) error {
	if err := r.db.Create(turn).Error; err != nil {
		return fmt.Errorf("append conversation turn failed: %w", err)
	}
	return nil
}

// TurnsBySessionID returns the session's turns oldest first. An unknown
// session yields an empty slice, not an error.
func (r *ConversationRepository) TurnsBySessionID(sessionID string, userID uint) ([]model.ConversationTurn, error) {
	var turns []model.ConversationTurn
	if err := r.db.Where("session_id = ? AND user_id = ?", sessionID, userID).
		Order("created_at ASC, id ASC").
		Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("list conversation turns failed: %w", err)
	}
	return turns, nil
}

// HistoryBySessionID expands the session's turns into prompt-ready messages,
// two per turn (human then ai), oldest first. When maxTurns > 0 only the most
// recent turns are kept.
func (r *ConversationRepository) HistoryBySessionID(sessionID string, userID uint, maxTurns int) ([]model.HistoryMessage, error) {
	turns, err := r.TurnsBySessionID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return ExpandHistory(turns, maxTurns), nil
}

// ExpandHistory converts stored turns into alternating human/ai messages.
func ExpandHistory(turns []model.ConversationTurn, maxTurns int) []model.HistoryMessage {
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	messages := make([]model.HistoryMessage, 0, 2*len(turns))
	for _, t := range turns {
		messages = append(messages,
			model.HistoryMessage{Role: model.RoleHuman, Content: t.UserQuery},
			model.HistoryMessage{Role: model.RoleAI, Content: t.ModelAnswer},
		)
	}
	return messages
}
