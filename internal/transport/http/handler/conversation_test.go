package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ragdocs/internal/ai"
	"ragdocs/internal/app"
	"ragdocs/internal/model"
	"ragdocs/internal/repository"
	"ragdocs/internal/transport/http/middleware"
	"ragdocs/internal/vectorindex"
)

// downIndex simulates a vector backend outage on every search.
type downIndex struct{}

func (downIndex) Upsert(context.Context, uint, string, []vectorindex.Chunk) error {
	return nil
}

func (downIndex) DeleteByDocument(context.Context, string, uint) (int64, error) {
	return 0, nil
}

func (downIndex) Search(context.Context, string, uint, int) ([]vectorindex.Match, error) {
	return nil, fmt.Errorf("%w: search: %v", vectorindex.ErrUnavailable, errors.New("connection refused"))
}

type staticLLM struct{}

func (staticLLM) Complete(context.Context, ai.ChatConfig, []ai.ChatMessage) (string, error) {
	return "an answer", nil
}

func newAskRouter(t *testing.T, idx vectorindex.Index) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.ConversationTurn{}))

	svc := app.NewConversationService(
		repository.NewConversationRepository(db),
		idx,
		staticLLM{},
		ai.ChatConfig{Model: "test-model"},
		nil,
		3,
		20,
	)
	h := NewConversationHandler(svc)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/ask", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uint(1))
		h.Ask(c)
	})
	return r
}

func TestAskMapsIndexOutageToServiceUnavailable(t *testing.T) {
	router := newAskRouter(t, downIndex{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"hello?"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}
