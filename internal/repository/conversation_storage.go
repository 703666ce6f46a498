package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"messagebox/internal/domain/conversation"
	messagebox_errors "messagebox/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the storage engine needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresConversationStorage keeps the base conversation record, the
// per-user conversation index, the unread index and the message log
// mutually consistent. Each write group is one pgx.Batch sent outside an
// explicit transaction: statements are submitted together but applied
// independently, so a group can partially apply. That partial-failure mode
// is surfaced as a StorageError, never retried here.
type PostgresConversationStorage struct {
	db DB
}

func NewConversationStorage(db DB) *PostgresConversationStorage {
	return &PostgresConversationStorage{db: db}
}

const (
	insertMessageSQL = `INSERT INTO message (conversation_id, time, author_id, content, status_by_interlocutor)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (conversation_id, time, author_id)
		DO UPDATE SET content = EXCLUDED.content, status_by_interlocutor = EXCLUDED.status_by_interlocutor`

	touchConversationSQL = `UPDATE conversation SET last_activity = $1 WHERE conversation_id = $2`

	upsertConversationByUserSQL = `INSERT INTO conversation_by_user (user_id, conversation_id, last_activity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, conversation_id)
		DO UPDATE SET last_activity = EXCLUDED.last_activity`

	insertUnreadSQL = `INSERT INTO conversation_unread (user_id, conversation_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, conversation_id) DO NOTHING`

	mergeMessageStatusSQL = `UPDATE message
		SET status_by_interlocutor = status_by_interlocutor || jsonb_build_object($1::text, $2::text)
		WHERE conversation_id = $3 AND time = $4 AND author_id = $5`

	deleteUnreadSQL = `DELETE FROM conversation_unread WHERE user_id = $1 AND conversation_id = $2`

	insertConversationSQL = `INSERT INTO conversation (conversation_id, interlocutors, last_activity)
		VALUES ($1, $2, $3)`
)

// StoreNewMessage applies the new-message write protocol:
// the message row, the conversation's last_activity, a conversation_by_user
// upsert for every participant including the author, and an unread row for
// every recipient. The author never gets an unread row.
func (s *PostgresConversationStorage) StoreNewMessage(ctx context.Context, envelope conversation.Envelope[conversation.Message]) error {
	batch, err := storeMessageBatch(envelope)
	if err != nil {
		return messagebox_errors.NewStorageError("store message", err)
	}
	return s.sendBatch(ctx, "store message", batch)
}

// UpdateMessageStatus merges the acker's entry into the message's status map
// and removes the acker's unread row, as one write group.
func (s *PostgresConversationStorage) UpdateMessageStatus(ctx context.Context, update conversation.StatusUpdate) error {
	return s.sendBatch(ctx, "update message status", statusUpdateBatch(update))
}

// InsertConversation writes the base record plus one conversation_by_user
// row per interlocutor.
func (s *PostgresConversationStorage) InsertConversation(ctx context.Context, c conversation.Conversation) error {
	return s.sendBatch(ctx, "insert conversation", insertConversationBatch(c))
}

func (s *PostgresConversationStorage) GetConversation(ctx context.Context, conversationID uuid.UUID) (conversation.Conversation, error) {
	row := s.db.QueryRow(ctx,
		`SELECT conversation_id, interlocutors, last_activity FROM conversation WHERE conversation_id = $1`,
		conversationID)

	var c conversation.Conversation
	if err := row.Scan(&c.ConversationID, &c.Interlocutors, &c.LastActivity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return conversation.Conversation{}, messagebox_errors.ErrNotFound
		}
		return conversation.Conversation{}, messagebox_errors.NewStorageError("get conversation", err)
	}
	return c, nil
}

// GetUserConversations resolves the by-user index to the authoritative base
// records and sorts by last_activity descending. The index's cached
// last_activity is only a hint: a concurrent writer may have advanced the
// base record after the index row was upserted, so the sort key comes from
// the base record.
func (s *PostgresConversationStorage) GetUserConversations(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT conversation_id FROM conversation_by_user WHERE user_id = $1`, userID)
	if err != nil {
		return nil, messagebox_errors.NewStorageError("get user conversations", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, messagebox_errors.NewStorageError("get user conversations", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, messagebox_errors.NewStorageError("get user conversations", err)
	}

	conversations := make([]conversation.Conversation, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetConversation(ctx, id)
		if err != nil {
			if errors.Is(err, messagebox_errors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		conversations = append(conversations, c)
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastActivity.After(conversations[j].LastActivity)
	})
	return conversations, nil
}

// GetMessages returns all messages of a conversation, newest first.
func (s *PostgresConversationStorage) GetMessages(ctx context.Context, conversationID uuid.UUID) ([]conversation.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT conversation_id, time, author_id, content, status_by_interlocutor
		 FROM message WHERE conversation_id = $1 ORDER BY time DESC`, conversationID)
	if err != nil {
		return nil, messagebox_errors.NewStorageError("get messages", err)
	}
	defer rows.Close()

	var messages []conversation.Message
	for rows.Next() {
		var m conversation.Message
		var statuses []byte
		if err := rows.Scan(&m.ConversationID, &m.Time, &m.AuthorID, &m.Content, &statuses); err != nil {
			return nil, messagebox_errors.NewStorageError("get messages", err)
		}
		if len(statuses) > 0 {
			if err := json.Unmarshal(statuses, &m.StatusByInterlocutor); err != nil {
				return nil, messagebox_errors.NewStorageError("get messages", err)
			}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, messagebox_errors.NewStorageError("get messages", err)
	}
	return messages, nil
}

// CountUnreadConversations counts unread-index rows without resolving them.
func (s *PostgresConversationStorage) CountUnreadConversations(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM conversation_unread WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, messagebox_errors.NewStorageError("count unread conversations", err)
	}
	return count, nil
}

func (s *PostgresConversationStorage) RemoveUnreadEntry(ctx context.Context, userID, conversationID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, deleteUnreadSQL, userID, conversationID); err != nil {
		return messagebox_errors.NewStorageError("remove unread entry", err)
	}
	return nil
}

func (s *PostgresConversationStorage) sendBatch(ctx context.Context, op string, batch *pgx.Batch) error {
	results := s.db.SendBatch(ctx, batch)
	var firstErr error
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := results.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return messagebox_errors.NewStorageError(op, firstErr)
	}
	return nil
}

func storeMessageBatch(envelope conversation.Envelope[conversation.Message]) (*pgx.Batch, error) {
	msg := envelope.Payload
	statuses, err := json.Marshal(msg.StatusByInterlocutor)
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	batch.Queue(insertMessageSQL, msg.ConversationID, msg.Time, msg.AuthorID, msg.Content, statuses)
	batch.Queue(touchConversationSQL, msg.Time, msg.ConversationID)

	participants := append([]uuid.UUID{}, envelope.Recipients...)
	participants = append(participants, msg.AuthorID)
	for _, userID := range participants {
		batch.Queue(upsertConversationByUserSQL, userID, msg.ConversationID, msg.Time)
		if userID != msg.AuthorID {
			batch.Queue(insertUnreadSQL, userID, msg.ConversationID)
		}
	}
	return batch, nil
}

func statusUpdateBatch(update conversation.StatusUpdate) *pgx.Batch {
	batch := &pgx.Batch{}
	batch.Queue(mergeMessageStatusSQL,
		update.UpdatedBy.String(), string(update.Status),
		update.ConversationID, update.Time, update.AuthorID)
	batch.Queue(deleteUnreadSQL, update.UpdatedBy, update.ConversationID)
	return batch
}

func insertConversationBatch(c conversation.Conversation) *pgx.Batch {
	batch := &pgx.Batch{}
	batch.Queue(insertConversationSQL, c.ConversationID, c.Interlocutors, c.LastActivity)
	for _, userID := range c.Interlocutors {
		batch.Queue(upsertConversationByUserSQL, userID, c.ConversationID, c.LastActivity)
	}
	return batch
}
