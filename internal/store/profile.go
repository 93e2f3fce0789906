package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/chatwave/internal/model"
)

const profileColumns = `id, username, avatar_index, is_online, last_seen, created_at`

func scanProfile(row scanner) (*model.Profile, error) {
	var (
		p         model.Profile
		lastSeen  int64
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.Username, &p.AvatarIndex, &p.Online, &lastSeen, &createdAt); err != nil {
		return nil, err
	}
	p.LastSeen = fromMillis(lastSeen)
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

// InsertProfile registers a new profile. Usernames are not required to be unique.
func (db *DB) InsertProfile(ctx context.Context, username string) (*model.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("insert profile: empty username")
	}
	now := fromMillis(time.Now().UnixMilli())
	p := &model.Profile{
		ID:        uuid.NewString(),
		Username:  username,
		LastSeen:  now,
		CreatedAt: now,
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (id, username, avatar_index, is_online, last_seen, created_at)
		VALUES (?, ?, 0, 0, ?, ?)`,
		p.ID, p.Username, toMillis(now), toMillis(now))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile returns a profile by id, or nil if it does not exist.
func (db *DB) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	p, err := scanProfile(db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// GetProfileByUsername returns the earliest registered profile with the given
// username (case-insensitive), or nil.
func (db *DB) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	p, err := scanProfile(db.QueryRowContext(ctx, `
		SELECT `+profileColumns+` FROM profiles
		WHERE username = ? COLLATE NOCASE
		ORDER BY seq ASC LIMIT 1`, strings.TrimSpace(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// SearchProfiles returns profiles whose username contains query, excluding excludeID.
func (db *DB) SearchProfiles(ctx context.Context, query, excludeID string, limit int) ([]model.Profile, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+profileColumns+` FROM profiles
		WHERE id != ? AND username LIKE ? ESCAPE '\'
		ORDER BY username COLLATE NOCASE ASC, seq ASC
		LIMIT ?`, excludeID, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// SetProfileOnline sets the online flag and refreshes last_seen. Redundant
// calls succeed and only move last_seen forward.
func (db *DB) SetProfileOnline(ctx context.Context, id string, online bool, at time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE profiles SET is_online = ?, last_seen = MAX(last_seen, ?)
		WHERE id = ?`, online, toMillis(at), id)
	if err != nil {
		return err
	}
	return requireRow(res, "profile", id)
}

// SetProfileAvatar changes a profile's avatar index.
func (db *DB) SetProfileAvatar(ctx context.Context, id string, index int) error {
	res, err := db.ExecContext(ctx, `UPDATE profiles SET avatar_index = ? WHERE id = ?`, index, id)
	if err != nil {
		return err
	}
	return requireRow(res, "profile", id)
}

func requireRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", what, id, model.ErrNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
