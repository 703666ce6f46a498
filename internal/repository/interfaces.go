package repository

import (
	"context"

	"messagebox/internal/domain/conversation"

	"github.com/google/uuid"
)

// ConversationStorage is the storage consistency engine consumed by the
// application service. One accepted domain event translates into a write
// group across up to four denormalized views; reads resolve back into
// domain objects.
type ConversationStorage interface {
	InsertConversation(ctx context.Context, c conversation.Conversation) error
	GetConversation(ctx context.Context, conversationID uuid.UUID) (conversation.Conversation, error)
	StoreNewMessage(ctx context.Context, envelope conversation.Envelope[conversation.Message]) error
	UpdateMessageStatus(ctx context.Context, update conversation.StatusUpdate) error
	GetUserConversations(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error)
	GetMessages(ctx context.Context, conversationID uuid.UUID) ([]conversation.Message, error)
	CountUnreadConversations(ctx context.Context, userID uuid.UUID) (int64, error)
	RemoveUnreadEntry(ctx context.Context, userID, conversationID uuid.UUID) error
}
