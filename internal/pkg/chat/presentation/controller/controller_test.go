package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectsync/internal/logging"
	auth "projectsync/internal/pkg/auth/application/domain"
	authusecase "projectsync/internal/pkg/auth/application/usecase"
	authctl "projectsync/internal/pkg/auth/presentation/controller"
	"projectsync/internal/pkg/chat/application/usecase"
	"projectsync/internal/pkg/chat/persistence/repository/adapter"
)

func init() { gin.SetMode(gin.TestMode) }

type fixture struct {
	engine *gin.Engine
	tokens *authusecase.SessionTokens
	send   *usecase.SendMessageUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := authusecase.NewSessionTokens("secret", 0)
	require.NoError(t, err)
	repo := adapter.NewMemoryChatRepository()

	e := gin.New()
	g := e.Group("/api/v1", authctl.RequireSession(tokens, "token"))
	g.POST("/conversations", NewOpenConversationController(usecase.NewOpenConversationUseCase(repo), logging.Discard()).Handle())
	g.GET("/conversations/:conversationId/messages", NewGetMessageController(usecase.NewGetMessageUseCase(repo), logging.Discard()).Handle())
	return &fixture{engine: e, tokens: tokens, send: usecase.NewSendMessageUseCase(repo, nil)}
}

func (f *fixture) do(t *testing.T, user, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := f.tokens.Issue(auth.Identity{ID: user, Name: user})
	require.NoError(t, err)
	r := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	r.Header.Set("Authorization", "Bearer "+token)
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, r)
	return rec
}

func TestHistoryEndpoint(t *testing.T) {
	f := newFixture(t)
	out, err := f.send.Execute(context.Background(), usecase.SendMessageInput{
		SenderID: "x", RecipientID: "y", WorkspaceID: "w1", Content: "hello",
	})
	require.NoError(t, err)
	path := "/api/v1/conversations/" + out.Conversation.ID + "/messages?limit=10"

	rec := f.do(t, "y", http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Messages []struct {
			Content string `json:"content"`
			Status  string `json:"status"`
		} `json:"messages"`
		Unread int `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "hello", body.Messages[0].Content)
	assert.Equal(t, "sent", body.Messages[0].Status)
	assert.Equal(t, 1, body.Unread)

	assert.Equal(t, http.StatusForbidden, f.do(t, "z", http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "y", http.MethodGet, "/api/v1/conversations/nope/messages", "").Code)

	rec = httptest.NewRecorder()
	f.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOpenConversationEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "x", http.MethodPost, "/api/v1/conversations", `{"workspaceId":"w1","peerId":"y"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var first struct {
		ID           string    `json:"id"`
		Participants [2]string `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, [2]string{"x", "y"}, first.Participants)

	rec = f.do(t, "y", http.MethodPost, "/api/v1/conversations", `{"workspaceId":"w1","peerId":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), first.ID)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "x", http.MethodPost, "/api/v1/conversations", `{"workspaceId":"w1","peerId":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "x", http.MethodPost, "/api/v1/conversations", `{}`).Code)
}
