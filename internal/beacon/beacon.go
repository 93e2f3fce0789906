// Package beacon carries presence updates over a fire-and-forget datagram
// socket. A client that is being torn down cannot wait for an RPC round
// trip, so the Sender writes one datagram and returns without reading a
// reply. The daemon's Listener applies each datagram to the store.
package beacon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/matheus3301/chatwave/internal/wire"
	"go.uber.org/zap"
)

// DefaultWriteTimeout bounds a single Send.
const DefaultWriteTimeout = 250 * time.Millisecond

const maxDatagram = 1024

// Sender writes presence datagrams.
type Sender struct {
	network string
	address string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSender creates a sender for network ("unixgram" or "udp") and address.
func NewSender(network, address string, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{network: network, address: address, timeout: DefaultWriteTimeout, logger: logger}
}

// Send writes one presence datagram. Failures are logged, never returned;
// the call takes at most the write timeout.
func (s *Sender) Send(profileID string, online bool) {
	if s == nil || s.address == "" {
		return
	}
	b, err := wire.Marshal(wire.Beacon{ProfileID: profileID, Online: online, SentAtMs: time.Now().UnixMilli()})
	if err != nil {
		s.logger.Warn("beacon encode failed", zap.Error(err))
		return
	}
	conn, err := net.DialTimeout(s.network, s.address, s.timeout)
	if err != nil {
		s.logger.Warn("beacon dial failed", zap.String("address", s.address), zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetWriteDeadline(time.Now().Add(s.timeout))
	if _, err := conn.Write(b); err != nil {
		s.logger.Warn("beacon write failed", zap.String("address", s.address), zap.Error(err))
		return
	}
	s.logger.Debug("beacon sent", zap.String("profile", profileID), zap.Bool("online", online))
}

// Updater applies presence changes.
type Updater interface {
	UpdateProfileOnline(ctx context.Context, profileID string, online bool) error
}

// Listener receives presence datagrams and applies them.
type Listener struct {
	conn    net.PacketConn
	network string
	path    string
	updater Updater
	logger  *zap.Logger
}

// Listen binds the datagram socket. A stale Unix socket file is replaced.
func Listen(network, address string, updater Updater, logger *zap.Logger) (*Listener, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var path string
	if network == "unixgram" {
		path = address
		if _, err := os.Stat(path); err == nil {
			_ = os.Remove(path)
		}
	}
	conn, err := net.ListenPacket(network, address)
	if err != nil {
		return nil, fmt.Errorf("listen beacon: %w", err)
	}
	if path != "" {
		if err := os.Chmod(path, 0600); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("chmod beacon socket: %w", err)
		}
	}
	return &Listener{conn: conn, network: network, path: path, updater: updater, logger: logger}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Serve reads datagrams until the listener is closed.
func (l *Listener) Serve(ctx context.Context) error {
	l.logger.Info("beacon listener starting", zap.String("address", l.Addr().String()))
	buf := make([]byte, maxDatagram)
	for {
		n, _, err := l.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read beacon: %w", err)
		}
		var b wire.Beacon
		if err := wire.Unmarshal(buf[:n], &b); err != nil {
			l.logger.Warn("malformed beacon", zap.Int("bytes", n), zap.Error(err))
			continue
		}
		if b.ProfileID == "" {
			continue
		}
		l.apply(ctx, b)
	}
}

func (l *Listener) apply(ctx context.Context, b wire.Beacon) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := l.updater.UpdateProfileOnline(ctx, b.ProfileID, b.Online); err != nil {
		l.logger.Warn("beacon update failed", zap.String("profile", b.ProfileID), zap.Error(err))
		return
	}
	l.logger.Info("presence beacon applied",
		zap.String("profile", b.ProfileID),
		zap.Bool("online", b.Online),
		zap.Duration("age", time.Since(wire.Time(b.SentAtMs))),
	)
}

// Close stops Serve and removes the socket file.
func (l *Listener) Close() error {
	err := l.conn.Close()
	if l.path != "" {
		_ = os.Remove(l.path)
	}
	return err
}
