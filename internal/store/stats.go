package store

import "context"

// Stats holds row counts reported by the daemon.
type Stats struct {
	Profiles      int64
	Conversations int64
	Messages      int64
}

// Stats returns the current row counts.
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM profiles),
			(SELECT COUNT(*) FROM conversations),
			(SELECT COUNT(*) FROM messages)`).Scan(&s.Profiles, &s.Conversations, &s.Messages)
	return s, err
}
