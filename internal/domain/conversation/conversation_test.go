package conversation

import (
	"testing"
	"time"

	messagebox_errors "messagebox/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFaceToFace(t *testing.T) {
	user1 := uuid.New()
	user2 := uuid.New()

	conv := NewFaceToFace(UserConnection{
		User1:          user1,
		User2:          user2,
		ConnectionDate: time.Now(),
	})

	assert.NotEqual(t, uuid.Nil, conv.ConversationID)
	assert.ElementsMatch(t, []uuid.UUID{user1, user2}, conv.Interlocutors)
	assert.False(t, conv.LastActivity.IsZero())
}

func TestNewGroupDeduplicatesMembers(t *testing.T) {
	user1 := uuid.New()
	user2 := uuid.New()

	conv := NewGroup([]uuid.UUID{user1, user2, user1})

	assert.ElementsMatch(t, []uuid.UUID{user1, user2}, conv.Interlocutors)
}

func TestAcceptMessage(t *testing.T) {
	author := uuid.New()
	other1 := uuid.New()
	other2 := uuid.New()
	conv := NewGroup([]uuid.UUID{author, other1, other2})

	envelope, err := conv.AcceptMessage(Message{
		AuthorID:       author,
		Content:        "Hello",
		ConversationID: conv.ConversationID,
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{other1, other2}, envelope.Recipients)
	assert.False(t, envelope.Payload.Time.IsZero())
	assert.Equal(t, map[uuid.UUID]Status{author: StatusSeen}, envelope.Payload.StatusByInterlocutor)
	assert.Equal(t, "Hello", envelope.Payload.Content)
}

func TestAcceptMessageOverwritesClientTime(t *testing.T) {
	author := uuid.New()
	conv := NewGroup([]uuid.UUID{author, uuid.New()})
	clientTime := time.Now().Add(-24 * time.Hour)

	envelope, err := conv.AcceptMessage(Message{
		AuthorID:       author,
		Time:           clientTime,
		Content:        "stale clock",
		ConversationID: conv.ConversationID,
	})

	require.NoError(t, err)
	assert.NotEqual(t, clientTime, envelope.Payload.Time)
	assert.WithinDuration(t, time.Now(), envelope.Payload.Time, time.Minute)
}

func TestAcceptMessageFromOutsider(t *testing.T) {
	conv := NewGroup([]uuid.UUID{uuid.New(), uuid.New()})
	outsider := uuid.New()
	msg := Message{AuthorID: outsider, Content: "let me in", ConversationID: conv.ConversationID}

	assert.False(t, conv.DoesMsgBelong(msg))

	_, err := conv.AcceptMessage(msg)
	require.Error(t, err)
	assert.True(t, messagebox_errors.IsMembership(err))
}

func TestIsValidStatus(t *testing.T) {
	author := uuid.New()
	acker := uuid.New()
	conv := NewGroup([]uuid.UUID{author, acker})
	outsider := uuid.New()

	valid := StatusUpdate{ConversationID: conv.ConversationID, AuthorID: author, UpdatedBy: acker, Status: StatusSeen}
	assert.True(t, conv.IsValidStatus(valid))

	missingAuthor := valid
	missingAuthor.AuthorID = outsider
	assert.False(t, conv.IsValidStatus(missingAuthor))

	missingAcker := valid
	missingAcker.UpdatedBy = outsider
	assert.False(t, conv.IsValidStatus(missingAcker))
}

func TestAcceptStatus(t *testing.T) {
	author := uuid.New()
	acker := uuid.New()
	third := uuid.New()
	conv := NewGroup([]uuid.UUID{author, acker, third})

	envelope, err := conv.AcceptStatus(StatusUpdate{
		ConversationID: conv.ConversationID,
		AuthorID:       author,
		Time:           time.Now(),
		UpdatedBy:      acker,
		Status:         StatusSeen,
	})

	require.NoError(t, err)
	// Everyone except the acker is notified, the original author included.
	assert.ElementsMatch(t, []uuid.UUID{author, third}, envelope.Recipients)
}

func TestAcceptStatusFromOutsider(t *testing.T) {
	author := uuid.New()
	conv := NewGroup([]uuid.UUID{author, uuid.New()})

	_, err := conv.AcceptStatus(StatusUpdate{
		ConversationID: conv.ConversationID,
		AuthorID:       author,
		UpdatedBy:      uuid.New(),
		Status:         StatusDelivered,
	})

	require.Error(t, err)
	assert.True(t, messagebox_errors.IsMembership(err))
}
