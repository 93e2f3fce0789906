package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/chatwave/internal/model"
)

const messageColumns = `seq, id, conversation_id, sender_id, message_type, content, media_url, created_at, is_read`

func scanMessage(row scanner) (*model.Message, error) {
	var (
		m              model.Message
		kind           string
		content, media sql.NullString
		createdAt      int64
	)
	if err := row.Scan(&m.Seq, &m.ID, &m.ConversationID, &m.SenderID, &kind, &content, &media, &createdAt, &m.Read); err != nil {
		return nil, err
	}
	m.Kind = model.Kind(kind)
	m.Content = stringPtr(content)
	m.MediaRef = stringPtr(media)
	m.CreatedAt = fromMillis(createdAt)
	return &m, nil
}

// InsertMessage stores a new message and moves its conversation's activity
// up to the message time in the same transaction. Identity, sequence and
// creation time are assigned here.
func (db *DB) InsertMessage(ctx context.Context, nm *model.NewMessage) (*model.Message, error) {
	if err := nm.Validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	now := time.Now().UnixMilli()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, message_type, content, media_url, created_at, is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		id, nm.ConversationID, nm.SenderID, string(nm.Kind), nullString(nm.Content), nullString(nm.MediaRef), now)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	// Activity never moves backwards.
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = MAX(updated_at, ?) WHERE id = ?`, now, nm.ConversationID); err != nil {
		return nil, fmt.Errorf("bump conversation activity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return &model.Message{
		ID:             id,
		Seq:            seq,
		ConversationID: nm.ConversationID,
		SenderID:       nm.SenderID,
		Kind:           nm.Kind,
		Content:        stringPtr(nullString(nm.Content)),
		MediaRef:       stringPtr(nullString(nm.MediaRef)),
		CreatedAt:      fromMillis(now),
	}, nil
}

// LatestMessage returns the newest message of a conversation, or nil if it has none.
func (db *DB) LatestMessage(ctx context.Context, conversationID string) (*model.Message, error) {
	m, err := scanMessage(db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`, conversationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// ListMessages returns all messages of a conversation, oldest first.
func (db *DB) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, seq ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}
