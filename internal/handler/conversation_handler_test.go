package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"messagebox/internal/domain/conversation"
	"messagebox/internal/services"
	messagebox_errors "messagebox/pkg/errors"
	"messagebox/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStorage struct {
	conversations []conversation.Conversation
	messages      []conversation.Message
	unread        int64
	inserted      []conversation.Conversation
}

func (s *stubStorage) InsertConversation(_ context.Context, c conversation.Conversation) error {
	s.inserted = append(s.inserted, c)
	return nil
}

func (s *stubStorage) GetConversation(_ context.Context, _ uuid.UUID) (conversation.Conversation, error) {
	return conversation.Conversation{}, messagebox_errors.ErrNotFound
}

func (s *stubStorage) StoreNewMessage(_ context.Context, _ conversation.Envelope[conversation.Message]) error {
	return nil
}

func (s *stubStorage) UpdateMessageStatus(_ context.Context, _ conversation.StatusUpdate) error {
	return nil
}

func (s *stubStorage) GetUserConversations(_ context.Context, _ uuid.UUID) ([]conversation.Conversation, error) {
	sorted := append([]conversation.Conversation{}, s.conversations...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LastActivity.After(sorted[j].LastActivity)
	})
	return sorted, nil
}

func (s *stubStorage) GetMessages(_ context.Context, _ uuid.UUID) ([]conversation.Message, error) {
	return s.messages, nil
}

func (s *stubStorage) CountUnreadConversations(_ context.Context, _ uuid.UUID) (int64, error) {
	return s.unread, nil
}

func (s *stubStorage) RemoveUnreadEntry(_ context.Context, _, _ uuid.UUID) error {
	return nil
}

type noopPostman struct{}

func (noopPostman) Deliver(_ context.Context, _ conversation.Envelope[conversation.Message]) error {
	return nil
}

func (noopPostman) NotifyStatusUpdated(_ context.Context, _ conversation.Envelope[conversation.StatusUpdate]) error {
	return nil
}

func newTestRouter(storage *stubStorage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := services.NewConversationService(storage, noopPostman{}, nil, logger.New(logger.DevelopmentMode))
	h := NewConversationHandler(service)

	router := gin.New()
	router.GET("/v1/conversations", h.List)
	router.POST("/v1/conversations", h.CreateGroup)
	router.GET("/v1/conversations/unread-count", h.UnreadCount)
	router.GET("/v1/conversations/:conversation_id/messages", h.Messages)
	return router
}

func TestListConversations(t *testing.T) {
	older := conversation.Conversation{
		ConversationID: uuid.New(),
		Interlocutors:  []uuid.UUID{uuid.New(), uuid.New()},
		LastActivity:   time.Now().Add(-time.Hour),
	}
	newer := conversation.Conversation{
		ConversationID: uuid.New(),
		Interlocutors:  []uuid.UUID{uuid.New(), uuid.New()},
		LastActivity:   time.Now(),
	}
	router := newTestRouter(&stubStorage{conversations: []conversation.Conversation{older, newer}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/conversations?userId="+uuid.NewString(), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Conversations []struct {
				ConversationID string    `json:"conversationId"`
				LastActivity   time.Time `json:"lastActivity"`
			} `json:"conversations"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Conversations, 2)
	assert.Equal(t, newer.ConversationID.String(), body.Data.Conversations[0].ConversationID)
}

func TestListConversationsRejectsBadUserID(t *testing.T) {
	router := newTestRouter(&stubStorage{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/conversations?userId=not-a-uuid", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateGroupConversation(t *testing.T) {
	storage := &stubStorage{}
	router := newTestRouter(storage)

	payload, _ := json.Marshal(map[string][]string{
		"members": {uuid.NewString(), uuid.NewString(), uuid.NewString()},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/conversations", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, storage.inserted, 1)
	assert.Len(t, storage.inserted[0].Interlocutors, 3)
}

func TestCreateGroupConversationRejectsSingleMember(t *testing.T) {
	router := newTestRouter(&stubStorage{})

	payload, _ := json.Marshal(map[string][]string{"members": {uuid.NewString()}})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/conversations", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnreadCount(t *testing.T) {
	router := newTestRouter(&stubStorage{unread: 4})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/unread-count?userId="+uuid.NewString(), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			UnreadConversations int64 `json:"unreadConversations"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(4), body.Data.UnreadConversations)
}

func TestListMessages(t *testing.T) {
	author := uuid.New()
	conversationID := uuid.New()
	router := newTestRouter(&stubStorage{messages: []conversation.Message{{
		AuthorID:             author,
		Time:                 time.Now(),
		Content:              "Hello",
		ConversationID:       conversationID,
		StatusByInterlocutor: map[uuid.UUID]conversation.Status{author: conversation.StatusSeen},
	}}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/"+conversationID.String()+"/messages", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Messages []struct {
				Content              string            `json:"content"`
				StatusByInterlocutor map[string]string `json:"statusByInterlocutor"`
			} `json:"messages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Messages, 1)
	assert.Equal(t, "Hello", body.Data.Messages[0].Content)
	assert.Equal(t, "SEEN", body.Data.Messages[0].StatusByInterlocutor[author.String()])
}
