// Package client assembles the client side of an instance: config, log
// file, gateway connection and a signed-out chat session. Both wavetui and
// wavectl start from here.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/chatwave/internal/beacon"
	"github.com/matheus3301/chatwave/internal/bus"
	"github.com/matheus3301/chatwave/internal/chat"
	"github.com/matheus3301/chatwave/internal/config"
	"github.com/matheus3301/chatwave/internal/gateway"
	"github.com/matheus3301/chatwave/internal/instance"
	"github.com/matheus3301/chatwave/internal/logging"
	"go.uber.org/zap"
)

// Options selects the instance and overrides its endpoints.
type Options struct {
	Instance string // resolved instance name
	Address  string // --address override
	Beacon   string // --beacon override
	Program  string // log file name
	LogLevel string // --log-level override
}

// Client holds the connection to the daemon and the session running on it.
type Client struct {
	Instance  string
	Endpoints instance.Endpoints
	Config    *config.Config
	Gateway   *gateway.Client
	Session   *chat.Session
	Bus       *bus.Bus
	Logger    *zap.Logger
}

// New loads config, opens the log file and dials the daemon. The returned
// session is signed out.
func New(opts Options) (*Client, error) {
	cfg, err := config.LoadOrDefault(instance.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := opts.LogLevel
	if level == "" {
		level = cfg.Log.Level
	}
	logger, err := logging.New(logging.Options{
		Path:     instance.LogPath(opts.Instance, opts.Program),
		Instance: opts.Instance,
		Program:  opts.Program,
		Level:    level,
	})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	ep := instance.ResolveEndpoints(opts.Instance, opts.Address, opts.Beacon)
	gw, err := gateway.Dial(ep.Address, logger.Named("gateway"))
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	b := bus.New()
	sess := chat.New(gw, chat.Options{
		Beacon: beacon.NewSender(ep.BeaconNetwork, ep.BeaconAddress, logger.Named("beacon")),
		Bus:    b,
		Logger: logger.Named("chat"),
	})
	logger.Info("client started", zap.String("address", ep.Address), zap.String("beacon", ep.BeaconAddress))

	return &Client{
		Instance:  opts.Instance,
		Endpoints: ep,
		Config:    cfg,
		Gateway:   gw,
		Session:   sess,
		Bus:       b,
		Logger:    logger,
	}, nil
}

// Probe reports whether the daemon answers its health check within timeout.
func (c *Client) Probe(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Gateway.Probe(ctx)
}

// DefaultProfile returns the username to sign in as when none is given.
func (c *Client) DefaultProfile() string {
	return c.Config.DefaultProfile
}

// Close aborts a still signed-in session, then closes the connection.
func (c *Client) Close() error {
	c.Session.Abort()
	err := c.Gateway.Close()
	_ = c.Logger.Sync()
	return err
}
