package services

import (
	"context"
	"fmt"

	"messagebox/internal/domain/conversation"
	"messagebox/internal/repository"
	messagebox_errors "messagebox/pkg/errors"
	"messagebox/pkg/logger"

	"github.com/google/uuid"
)

// PostMan publishes addressed envelopes to the outbound bus.
type PostMan interface {
	Deliver(ctx context.Context, envelope conversation.Envelope[conversation.Message]) error
	NotifyStatusUpdated(ctx context.Context, envelope conversation.Envelope[conversation.StatusUpdate]) error
}

// UnreadCache is the optional read-side cache for unread counts.
type UnreadCache interface {
	GetCount(ctx context.Context, userID uuid.UUID) (int64, bool, error)
	SetCount(ctx context.Context, userID uuid.UUID, count int64) error
	Invalidate(ctx context.Context, userIDs ...uuid.UUID) error
}

// ConversationService composes the aggregate, the storage engine and the
// postman per use case. On both accept paths publishing happens before
// persisting: a storage failure after a successful publish leaves recipients
// notified of state that may not be durable yet, which bus redelivery plus
// the message's triple identity turn into at-least-once with idempotent
// storage.
type ConversationService struct {
	storage repository.ConversationStorage
	postman PostMan
	cache   UnreadCache
	logger  *logger.Logger
}

func NewConversationService(storage repository.ConversationStorage, postman PostMan, cache UnreadCache, l *logger.Logger) *ConversationService {
	return &ConversationService{
		storage: storage,
		postman: postman,
		cache:   cache,
		logger:  l,
	}
}

// AcceptMessage validates an inbound message against its conversation,
// publishes the addressed envelope and persists the result.
func (s *ConversationService) AcceptMessage(ctx context.Context, msg conversation.Message) error {
	conv, err := s.storage.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return fmt.Errorf("load conversation %s: %w", msg.ConversationID, err)
	}

	envelope, err := conv.AcceptMessage(msg)
	if err != nil {
		return err
	}

	if err := s.postman.Deliver(ctx, envelope); err != nil {
		return fmt.Errorf("deliver message: %w", err)
	}
	if err := s.storage.StoreNewMessage(ctx, envelope); err != nil {
		return err
	}

	s.invalidateUnread(ctx, envelope.Recipients...)
	return nil
}

// UpdateMessageStatus validates an inbound status update, notifies the other
// interlocutors and persists the status merge plus the unread removal.
func (s *ConversationService) UpdateMessageStatus(ctx context.Context, update conversation.StatusUpdate) error {
	conv, err := s.storage.GetConversation(ctx, update.ConversationID)
	if err != nil {
		return fmt.Errorf("load conversation %s: %w", update.ConversationID, err)
	}

	envelope, err := conv.AcceptStatus(update)
	if err != nil {
		return err
	}

	if err := s.postman.NotifyStatusUpdated(ctx, envelope); err != nil {
		return fmt.Errorf("notify status updated: %w", err)
	}
	if err := s.storage.UpdateMessageStatus(ctx, update); err != nil {
		return err
	}

	s.invalidateUnread(ctx, update.UpdatedBy)
	return nil
}

// CreateFaceToFaceConversation creates a two-party conversation from a
// connection event.
func (s *ConversationService) CreateFaceToFaceConversation(ctx context.Context, connection conversation.UserConnection) error {
	conv := conversation.NewFaceToFace(connection)
	return s.storage.InsertConversation(ctx, conv)
}

// CreateGroupConversation creates a conversation over an arbitrary member
// set. Fewer than two distinct members is rejected: such a conversation
// could never accept a message from anyone but its sole member.
func (s *ConversationService) CreateGroupConversation(ctx context.Context, members []uuid.UUID) (conversation.Conversation, error) {
	conv := conversation.NewGroup(members)
	if len(conv.Interlocutors) < 2 {
		return conversation.Conversation{}, messagebox_errors.ErrInvalidInput
	}
	if err := s.storage.InsertConversation(ctx, conv); err != nil {
		return conversation.Conversation{}, err
	}
	return conv, nil
}

// GetUserConversations lists a user's conversations, most recently active first.
func (s *ConversationService) GetUserConversations(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	return s.storage.GetUserConversations(ctx, userID)
}

// GetConversationMessages lists a conversation's messages, newest first.
func (s *ConversationService) GetConversationMessages(ctx context.Context, conversationID uuid.UUID) ([]conversation.Message, error) {
	return s.storage.GetMessages(ctx, conversationID)
}

// GetUnreadCount returns the number of conversations with unacknowledged
// activity for the user, served from cache when possible.
func (s *ConversationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.cache != nil {
		count, hit, err := s.cache.GetCount(ctx, userID)
		if err != nil {
			s.logger.Warnf("unread cache read for %s: %v", userID, err)
		} else if hit {
			return count, nil
		}
	}

	count, err := s.storage.CountUnreadConversations(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetCount(ctx, userID, count); err != nil {
			s.logger.Warnf("unread cache write for %s: %v", userID, err)
		}
	}
	return count, nil
}

func (s *ConversationService) invalidateUnread(ctx context.Context, userIDs ...uuid.UUID) {
	if s.cache == nil || len(userIDs) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, userIDs...); err != nil {
		s.logger.Warnf("unread cache invalidation: %v", err)
	}
}
