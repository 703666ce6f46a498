package httpdto

import (
	"time"

	"messagebox/internal/domain/conversation"
)

type CreateGroupConversationRequest struct {
	Members []string `json:"members" binding:"required"`
}

type ConversationResponse struct {
	ConversationID string    `json:"conversationId"`
	Interlocutors  []string  `json:"interlocutors"`
	LastActivity   time.Time `json:"lastActivity"`
}

type ListConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

type UnreadCountResponse struct {
	UnreadConversations int64 `json:"unreadConversations"`
}

func FromConversation(c conversation.Conversation) ConversationResponse {
	interlocutors := make([]string, 0, len(c.Interlocutors))
	for _, id := range c.Interlocutors {
		interlocutors = append(interlocutors, id.String())
	}
	return ConversationResponse{
		ConversationID: c.ConversationID.String(),
		Interlocutors:  interlocutors,
		LastActivity:   c.LastActivity,
	}
}

func FromConversationSlice(items []conversation.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(items))
	for _, c := range items {
		out = append(out, FromConversation(c))
	}
	return out
}
