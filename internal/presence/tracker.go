// Package presence publishes the signed-in user's online state.
package presence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// bestEffortTimeout bounds the RPC fallback used when no beacon is configured.
const bestEffortTimeout = 250 * time.Millisecond

// Updater writes the online flag of a profile.
type Updater interface {
	UpdateProfileOnline(ctx context.Context, profileID string, online bool) error
}

// Beacon sends a presence datagram without waiting for a reply.
type Beacon interface {
	Send(profileID string, online bool)
}

// Tracker marks a profile online or offline. Updates are idempotent; the
// store keeps the last write.
type Tracker struct {
	store  Updater
	beacon Beacon
	logger *zap.Logger
}

// New creates a tracker. beacon may be nil.
func New(store Updater, beacon Beacon, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, beacon: beacon, logger: logger}
}

// MarkOnline sets the profile online and refreshes its last seen time.
func (t *Tracker) MarkOnline(ctx context.Context, profileID string) error {
	if err := t.store.UpdateProfileOnline(ctx, profileID, true); err != nil {
		return fmt.Errorf("mark online: %w", err)
	}
	t.logger.Debug("marked online", zap.String("profile", profileID))
	return nil
}

// MarkOffline sets the profile offline and refreshes its last seen time.
func (t *Tracker) MarkOffline(ctx context.Context, profileID string) error {
	if err := t.store.UpdateProfileOnline(ctx, profileID, false); err != nil {
		return fmt.Errorf("mark offline: %w", err)
	}
	t.logger.Debug("marked offline", zap.String("profile", profileID))
	return nil
}

// MarkOfflineBestEffort is the teardown path. It prefers the beacon and
// falls back to a short RPC. It never reports failure.
func (t *Tracker) MarkOfflineBestEffort(profileID string) {
	if t.beacon != nil {
		t.beacon.Send(profileID, false)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), bestEffortTimeout)
	defer cancel()
	if err := t.store.UpdateProfileOnline(ctx, profileID, false); err != nil {
		t.logger.Warn("best-effort offline failed", zap.String("profile", profileID), zap.Error(err))
	}
}
