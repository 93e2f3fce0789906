package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/chatwave/internal/model"
)

const conversationColumns = `id, participant_one, participant_two, created_at, updated_at`

func scanConversation(row scanner) (*model.Conversation, error) {
	var (
		c                    model.Conversation
		createdAt, updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.ParticipantOne, &c.ParticipantTwo, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return &c, nil
}

// InsertConversation creates a conversation between one and two. It does not
// check for an existing conversation for the pair.
func (db *DB) InsertConversation(ctx context.Context, one, two string) (*model.Conversation, error) {
	now := fromMillis(time.Now().UnixMilli())
	c := &model.Conversation{
		ID:             uuid.NewString(),
		ParticipantOne: one,
		ParticipantTwo: two,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO conversations (id, participant_one, participant_two, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, one, two, toMillis(now), toMillis(now))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversation returns a conversation by id, or nil.
func (db *DB) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	c, err := scanConversation(db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// FindConversation returns the conversation stored with exactly this ordered
// participant tuple, or nil. Callers check both orderings.
func (db *DB) FindConversation(ctx context.Context, one, two string) (*model.Conversation, error) {
	c, err := scanConversation(db.QueryRowContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE participant_one = ? AND participant_two = ?
		ORDER BY seq ASC LIMIT 1`, one, two))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// ListConversations returns conversations the participant belongs to, most
// recently active first.
func (db *DB) ListConversations(ctx context.Context, participantID string) ([]model.Conversation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE participant_one = ? OR participant_two = ?
		ORDER BY updated_at DESC, seq DESC`, participantID, participantID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []model.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *c)
	}
	return convs, rows.Err()
}

// TouchConversation sets the conversation's last-activity time.
func (db *DB) TouchConversation(ctx context.Context, id string, at time.Time) error {
	res, err := db.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`, toMillis(at), id)
	if err != nil {
		return err
	}
	return requireRow(res, "conversation", id)
}
