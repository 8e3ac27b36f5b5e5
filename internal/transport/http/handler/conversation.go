package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ragdocs/internal/app"
	"ragdocs/internal/transport/http/response"
	"ragdocs/internal/vectorindex"
)

type ConversationHandler struct {
	convService *app.ConversationService
}

type AskRequest struct {
	SessionID string `json:"session_id" binding:"max=36"`
	Question  string `json:"question" binding:"required,max=4096"`
}

func NewConversationHandler(convService *app.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

func (h *ConversationHandler) Ask(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.convService.Ask(c.Request.Context(), app.AskInput{
		UserID:    userID,
		SessionID: strings.TrimSpace(req.SessionID),
		Question:  req.Question,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrGenerationFailed):
			response.Error(c, http.StatusBadGateway, response.CodeGenerationFailed, err.Error())
		case errors.Is(err, vectorindex.ErrUnavailable):
			// Transient backend outage; the client may retry the request.
			response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, "retrieval temporarily unavailable")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ask failed")
		}
		return
	}

	response.OK(c, result)
}

func (h *ConversationHandler) History(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing session_id")
		return
	}

	turns, err := h.convService.History(c.Request.Context(), sessionID, userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch history failed")
		return
	}

	response.OK(c, gin.H{
		"session_id": sessionID,
		"turns":      turns,
	})
}
