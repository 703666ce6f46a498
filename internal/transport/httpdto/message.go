package httpdto

import (
	"time"

	"messagebox/internal/domain/conversation"
)

type MessageResponse struct {
	AuthorID             string            `json:"authorId"`
	Time                 time.Time         `json:"time"`
	Content              string            `json:"content"`
	ConversationID       string            `json:"conversationId"`
	StatusByInterlocutor map[string]string `json:"statusByInterlocutor"`
}

type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

func FromMessage(m conversation.Message) MessageResponse {
	statuses := make(map[string]string, len(m.StatusByInterlocutor))
	for userID, status := range m.StatusByInterlocutor {
		statuses[userID.String()] = string(status)
	}
	return MessageResponse{
		AuthorID:             m.AuthorID.String(),
		Time:                 m.Time,
		Content:              m.Content,
		ConversationID:       m.ConversationID.String(),
		StatusByInterlocutor: statuses,
	}
}

func FromMessageSlice(items []conversation.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(items))
	for _, m := range items {
		out = append(out, FromMessage(m))
	}
	return out
}
