package app

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"ragdocs/internal/ai"
	"ragdocs/internal/cache"
	"ragdocs/internal/model"
	"ragdocs/internal/repository"
	"ragdocs/internal/vectorindex"
)

// The reformulation prompt's contract: produce a standalone question, never
// answer it.
const reformulateSystemPrompt = "Given a chat history and the latest user question " +
	"which might reference context in the chat history, formulate a standalone question " +
	"which can be understood without the chat history. Do NOT answer the question, " +
	"just reformulate it if needed and otherwise return it as is."

const answerSystemPrompt = "You are a helpful AI assistant. Use the following context " +
	"to answer questions accurately and concisely. If the context does not contain the " +
	"answer, say that you could not find it in the documents."

// LLMClient is the completion interface the pipeline calls twice per turn:
// once to reformulate, once to generate.
type LLMClient interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
}

// ConversationService turns a (user, session, question) triple into a
// grounded answer with cited sources: history lookup, query reformulation,
// owner-filtered retrieval, grounded generation, history persistence.
type ConversationService struct {
	turnRepo     *repository.ConversationRepository
	index        vectorindex.Index
	llm          LLMClient
	chatConfig   ai.ChatConfig
	historyCache *cache.HistoryCache // optional
	topK         int
	maxTurns     int
}

func NewConversationService(
	turnRepo *repository.ConversationRepository,
	index vectorindex.Index,
	llm LLMClient,
	chatConfig ai.ChatConfig,
	historyCache *cache.HistoryCache,
	topK int,
	maxTurns int,
) *ConversationService {
	if topK <= 0 {
		topK = 3
	}
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &ConversationService{
		turnRepo:     turnRepo,
		index:        index,
		llm:          llm,
		chatConfig:   chatConfig,
		historyCache: historyCache,
		topK:         topK,
		maxTurns:     maxTurns,
	}
}

type AskInput struct {
	UserID    uint
	SessionID string // empty means start a new session
	Question  string
}

type AskResult struct {
	SessionID string   `json:"session_id"`
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
}

// Ask runs one conversation turn. An unknown or absent session id is not an
// error: the session exists implicitly once its first turn is stored.
func (s *ConversationService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	turns, err := s.loadTurns(ctx, sessionID, input.UserID)
	if err != nil {
		return nil, err
	}
	history := repository.ExpandHistory(turns, s.maxTurns)

	standalone, err := s.reformulate(ctx, question, history)
	if err != nil {
		return nil, err
	}

	matches, err := s.index.Search(ctx, standalone, input.UserID, s.topK)
	if err != nil {
		return nil, err
	}

	answer, err := s.generate(ctx, question, history, matches)
	if err != nil {
		return nil, err
	}

	turn := &model.ConversationTurn{
		SessionID:   sessionID,
		UserID:      input.UserID,
		UserQuery:   question,
		ModelAnswer: answer,
		ModelName:   s.chatConfig.Model,
	}
	if err := s.turnRepo.Append(turn); err != nil {
		// The answer is already computed; losing this turn only degrades
		// future history, so return the answer and log the failure.
		log.Printf("persist conversation turn failed for session %s: %v", sessionID, err)
	} else if s.historyCache != nil {
		if err := s.historyCache.Invalidate(ctx, sessionID, input.UserID); err != nil {
			log.Printf("invalidate history cache failed for session %s: %v", sessionID, err)
		}
	}

	return &AskResult{
		SessionID: sessionID,
		Answer:    answer,
		Sources:   collectSources(matches),
	}, nil
}

// History returns the session transcript, oldest first. An unknown session
// yields an empty transcript.
func (s *ConversationService) History(ctx context.Context, sessionID string, userID uint) ([]model.ConversationTurn, error) {
	if userID == 0 || strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidInput
	}
	return s.loadTurns(ctx, sessionID, userID)
}

// loadTurns reads the transcript through the cache. Cache keys carry the
// owner alongside the session id, so entries are per tenant even when two
// tenants present the same session id.
func (s *ConversationService) loadTurns(ctx context.Context, sessionID string, userID uint) ([]model.ConversationTurn, error) {
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID, userID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetTurns(ctx, sessionID, userID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	turns, err := s.turnRepo.TurnsBySessionID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID, userID); dirtyErr == nil && !dirty {
			if err := s.historyCache.SetTurns(ctx, sessionID, userID, turns); err != nil {
				log.Printf("set history cache failed for session %s: %v", sessionID, err)
			}
		}
	}
	return turns, nil
}

// reformulate rewrites the question to be self-contained given prior turns.
// With no history the question is already standalone and no LLM call is made.
func (s *ConversationService) reformulate(ctx context.Context, question string, history []model.HistoryMessage) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: reformulateSystemPrompt})
	messages = append(messages, historyToChatMessages(history)...)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleUser, Content: question})

	standalone, err := s.llm.Complete(ctx, s.chatConfig, messages)
	if err != nil {
		return "", ErrGenerationFailed
	}
	standalone = strings.TrimSpace(standalone)
	if standalone == "" {
		return question, nil
	}
	return standalone, nil
}

// generate builds the grounded prompt (system instruction, retrieved context,
// full history, original question) and extracts the answer text.
func (s *ConversationService) generate(ctx context.Context, question string, history []model.HistoryMessage, matches []vectorindex.Match) (string, error) {
	var contextBlock strings.Builder
	for i, m := range matches {
		if i > 0 {
			contextBlock.WriteString("\n\n")
		}
		contextBlock.WriteString(m.Text)
	}

	messages := make([]ai.ChatMessage, 0, len(history)+3)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: answerSystemPrompt})
	messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: "Context: " + contextBlock.String()})
	messages = append(messages, historyToChatMessages(history)...)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleUser, Content: question})

	answer, err := s.llm.Complete(ctx, s.chatConfig, messages)
	if err != nil {
		return "", ErrGenerationFailed
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", ErrGenerationFailed
	}
	return answer, nil
}

func historyToChatMessages(history []model.HistoryMessage) []ai.ChatMessage {
	messages := make([]ai.ChatMessage, 0, len(history))
	for _, h := range history {
		role := ai.RoleUser
		if h.Role == model.RoleAI {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: h.Content})
	}
	return messages
}

// collectSources deduplicates the source field across matches, preserving
// first-seen order.
func collectSources(matches []vectorindex.Match) []string {
	sources := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if m.Source == "" {
			continue
		}
		if _, ok := seen[m.Source]; ok {
			continue
		}
		seen[m.Source] = struct{}{}
		sources = append(sources, m.Source)
	}
	return sources
}
