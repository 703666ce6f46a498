package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Status is a per-interlocutor delivery state of a message.
type Status string

const (
	StatusDelivered Status = "DELIVERED"
	StatusSeen      Status = "SEEN"
)

// Message is a chat message inside a conversation. Its storage identity is
// the triple (ConversationID, Time, AuthorID): storing the same triple twice
// overwrites rather than duplicates. Time is assigned by the aggregate at
// acceptance; any client-supplied value is discarded.
type Message struct {
	AuthorID             uuid.UUID            `json:"authorId"`
	Time                 time.Time            `json:"time"`
	Content              string               `json:"content"`
	ConversationID       uuid.UUID            `json:"conversationId"`
	StatusByInterlocutor map[uuid.UUID]Status `json:"statusByInterlocutor,omitempty"`
}

// StatusUpdate records that UpdatedBy acknowledged the message identified by
// (ConversationID, Time, AuthorID) with the given status.
type StatusUpdate struct {
	ConversationID uuid.UUID `json:"conversationId"`
	AuthorID       uuid.UUID `json:"authorId"`
	Time           time.Time `json:"time"`
	UpdatedBy      uuid.UUID `json:"updatedBy"`
	Status         Status    `json:"status"`
}

// UserConnection is the inbound event a face-to-face conversation is created from.
type UserConnection struct {
	User1          uuid.UUID `json:"user1"`
	User2          uuid.UUID `json:"user2"`
	ConnectionDate time.Time `json:"connectionDate"`
}
