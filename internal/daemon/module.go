package daemon

import (
	"context"
	"errors"

	"github.com/matheus3301/chatwave/internal/api"
	"github.com/matheus3301/chatwave/internal/beacon"
	"github.com/matheus3301/chatwave/internal/bus"
	"github.com/matheus3301/chatwave/internal/gateway"
	"github.com/matheus3301/chatwave/internal/instance"
	"github.com/matheus3301/chatwave/internal/lock"
	"github.com/matheus3301/chatwave/internal/logging"
	"github.com/matheus3301/chatwave/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Program is the daemon's name in logs and log file names.
const Program = "wavestored"

// Params holds the resolved instance configuration passed to the fx module.
type Params struct {
	Instance   string
	SocketPath string // empty = instance default
	Beacon     string // socket path or host:port; empty = instance default
	Listen     string // optional extra TCP address for gRPC
	LogLevel   string
	Console    bool // also log to stderr
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideGateway,
			provideGatewayService,
			provideBeacon,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Path:     instance.LogPath(p.Instance, Program),
		Instance: p.Instance,
		Program:  Program,
		Level:    p.LogLevel,
		Console:  p.Console,
	})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := instance.EnsureDir(p.Instance); err != nil {
		return nil, err
	}
	logger.Info("acquiring instance lock", zap.String("instance", p.Instance))
	l, err := lock.Acquire(instance.Dir(p.Instance), Program)
	if err != nil {
		return nil, err
	}
	logger.Info("instance lock acquired")
	return l, nil
}

// provideStore takes the lock so the database is never opened by a
// second daemon.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := instance.DBPath(p.Instance)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideGateway(db *store.DB, b *bus.Bus, logger *zap.Logger) *gateway.Local {
	return gateway.NewLocal(db, b, logger.Named("gateway"))
}

func provideGatewayService(p Params, local *gateway.Local, db *store.DB, b *bus.Bus, logger *zap.Logger) *api.GatewayService {
	return api.NewGatewayService(p.Instance, local, db, b, logger.Named("api"))
}

func provideBeacon(p Params, local *gateway.Local, logger *zap.Logger) (*beacon.Listener, error) {
	address := p.Beacon
	if address == "" {
		address = instance.BeaconPath(p.Instance)
	}
	network, address := instance.DatagramNetwork(address)
	return beacon.Listen(network, address, local, logger.Named("beacon"))
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, bl *beacon.Listener, local *gateway.Local, db *store.DB, lk *lock.Lock, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			go func() {
				if err := bl.Serve(ctx); err != nil {
					logger.Error("beacon listener error", zap.Error(err))
				}
			}()
			logger.Info("daemon started")
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			// Streams must end before GracefulStop can return.
			local.Shutdown()
			cancel()
			err := bl.Close()
			srv.Stop(stopCtx)
			err = errors.Join(err, db.Close())
			if relErr := lk.Release(); relErr != nil {
				logger.Warn("error releasing lock", zap.Error(relErr))
			}
			logger.Info("daemon stopped")
			return err
		},
	})
}
