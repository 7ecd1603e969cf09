package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "projectsync/internal/pkg/chat/application/domain"
	repository "projectsync/internal/pkg/chat/persistence/repository/port"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

const conversationColumns = `id::text, workspace_id, participant_a, participant_b, pair_key, last_message_id::text, created_at, updated_at`

const messageColumns = `id::text, conversation_id::text, sender_id, content, status, created_at, updated_at`

func scanConversation(row pgx.Row) (*chat.Conversation, error) {
	var c chat.Conversation
	err := row.Scan(&c.ID, &c.WorkspaceID, &c.ParticipantIDs[0], &c.ParticipantIDs[1], &c.PairKey, &c.LastMessageID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanMessage(row pgx.Row) (*chat.Message, error) {
	var (
		m      chat.Message
		status int16
	)
	if err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Status = chat.MessageStatus(status)
	return &m, nil
}

func (r *PgChatRepository) FindConversationByID(ctx context.Context, id string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	// ids are uuid columns; anything else cannot match and would only produce a cast error
	if _, err := uuid.Parse(id); err != nil {
		return nil, chat.ErrConversationNotFound
	}
	c, err := scanConversation(r.pool.QueryRow(ctx,
		"SELECT "+conversationColumns+" FROM chat.conversation WHERE id = $1::uuid", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrConversationNotFound
	}
	return c, err
}

func (r *PgChatRepository) FindOrCreateConversation(ctx context.Context, workspaceID string, a string, b string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	draft, err := chat.NewConversation(workspaceID, a, b, time.Now())
	if err != nil {
		return nil, err
	}

	// The unique (workspace_id, pair_key) index decides the winner of concurrent first sends;
	// the loser gets no row back and reads the winner's.
	c, err := scanConversation(r.pool.QueryRow(ctx, `
		INSERT INTO chat.conversation (workspace_id, participant_a, participant_b, pair_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (workspace_id, pair_key) DO NOTHING
		RETURNING `+conversationColumns,
		draft.WorkspaceID, draft.ParticipantIDs[0], draft.ParticipantIDs[1], draft.PairKey, draft.CreatedAt,
	))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return scanConversation(r.pool.QueryRow(ctx,
		"SELECT "+conversationColumns+" FROM chat.conversation WHERE workspace_id = $1 AND pair_key = $2",
		draft.WorkspaceID, draft.PairKey))
}

func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgChatRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.message (conversation_id, sender_id, content, status, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
		RETURNING id::text
	`, m.ConversationID, m.SenderID, m.Content, int16(m.Status), m.CreatedAt, m.UpdatedAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) SetLastMessage(ctx context.Context, conversationID string, messageID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation
		SET last_message_id = $2::uuid, updated_at = now()
		WHERE id = $1::uuid
	`, conversationID, messageID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrConversationNotFound
	}
	return nil
}

func (r *PgChatRepository) AdvanceMessageStatus(ctx context.Context, messageID string, to chat.MessageStatus) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if _, err := uuid.Parse(messageID); err != nil {
		return nil, chat.ErrMessageNotFound
	}
	m, err := scanMessage(r.pool.QueryRow(ctx, `
		UPDATE chat.message
		SET status = $2, updated_at = now()
		WHERE id = $1::uuid AND status < $2
		RETURNING `+messageColumns,
		messageID, int16(to),
	))
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	// already at or past `to`: report what is stored
	m, err = scanMessage(r.pool.QueryRow(ctx,
		"SELECT "+messageColumns+" FROM chat.message WHERE id = $1::uuid", messageID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrMessageNotFound
	}
	return m, err
}

func (r *PgChatRepository) MarkConversationRead(ctx context.Context, conversationID string, authorID string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.message
		SET status = $3, updated_at = now()
		WHERE conversation_id = $1::uuid AND sender_id = $2 AND status < $3
	`, conversationID, authorID, int16(chat.StatusRead))
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *PgChatRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgChatRepository) CountUnread(ctx context.Context, conversationID string, authorID string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM chat.message
		WHERE conversation_id = $1::uuid AND sender_id = $2 AND status < $3
	`, conversationID, authorID, int16(chat.StatusRead)).Scan(&n)
	return n, err
}
