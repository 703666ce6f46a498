package conversation

import (
	"time"

	messagebox_errors "messagebox/pkg/errors"

	"github.com/google/uuid"
)

// Conversation is the aggregate all inbound messages and status updates are
// validated against. Interlocutors are fixed at creation; the only mutation
// after that is LastActivity advancing when a message is accepted.
type Conversation struct {
	ConversationID uuid.UUID   `json:"conversationId"`
	Interlocutors  []uuid.UUID `json:"interlocutors"`
	LastActivity   time.Time   `json:"lastActivity"`
}

// NewFaceToFace creates a two-party conversation from a connection event.
func NewFaceToFace(connection UserConnection) Conversation {
	return Conversation{
		ConversationID: uuid.New(),
		Interlocutors:  dedupe([]uuid.UUID{connection.User1, connection.User2}),
		LastActivity:   time.Now(),
	}
}

// NewGroup creates a conversation with an arbitrary interlocutor set.
// Duplicate member ids collapse into one.
func NewGroup(members []uuid.UUID) Conversation {
	return Conversation{
		ConversationID: uuid.New(),
		Interlocutors:  dedupe(members),
		LastActivity:   time.Now(),
	}
}

// DoesMsgBelong reports whether the message author is an interlocutor.
// Exposed separately from AcceptMessage so callers can short-circuit before
// paying for an envelope or a storage round trip.
func (c Conversation) DoesMsgBelong(msg Message) bool {
	return c.contains(msg.AuthorID)
}

// AcceptMessage validates the message against membership and turns it into an
// addressed envelope. The accepted copy gets its time assigned here and a
// status map seeded with the author, who trivially has seen their own message.
func (c Conversation) AcceptMessage(msg Message) (Envelope[Message], error) {
	if !c.DoesMsgBelong(msg) {
		return Envelope[Message]{}, &messagebox_errors.MembershipError{
			ConversationID: c.ConversationID,
			UserID:         msg.AuthorID,
		}
	}

	accepted := msg
	accepted.Time = time.Now()
	accepted.StatusByInterlocutor = map[uuid.UUID]Status{msg.AuthorID: StatusSeen}

	return Wrap(accepted, c.recipients(msg.AuthorID)), nil
}

// IsValidStatus reports whether both the original message author and the
// acker are interlocutors.
func (c Conversation) IsValidStatus(update StatusUpdate) bool {
	return c.contains(update.AuthorID) && c.contains(update.UpdatedBy)
}

// AcceptStatus validates a status update and addresses it to everyone except
// the acker, the original author included.
func (c Conversation) AcceptStatus(update StatusUpdate) (Envelope[StatusUpdate], error) {
	if !c.IsValidStatus(update) {
		offender := update.UpdatedBy
		if !c.contains(update.AuthorID) {
			offender = update.AuthorID
		}
		return Envelope[StatusUpdate]{}, &messagebox_errors.MembershipError{
			ConversationID: c.ConversationID,
			UserID:         offender,
		}
	}
	return Wrap(update, c.recipients(update.UpdatedBy)), nil
}

func (c Conversation) recipients(except uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(c.Interlocutors))
	for _, id := range c.Interlocutors {
		if id != except {
			out = append(out, id)
		}
	}
	return out
}

func (c Conversation) contains(id uuid.UUID) bool {
	for _, interlocutor := range c.Interlocutors {
		if interlocutor == id {
			return true
		}
	}
	return false
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
