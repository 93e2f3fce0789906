package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/matheus3301/chatwave/internal/api"
	"github.com/matheus3301/chatwave/internal/instance"
	"github.com/matheus3301/chatwave/internal/wire"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server manages the gRPC server lifecycle for an instance daemon.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	listeners  []net.Listener
	socketPath string
	logger     *zap.Logger
}

// NewServer creates a gRPC server bound to the instance's Unix domain
// socket and, when Listen is set, to a TCP address as well.
func NewServer(p Params, logger *zap.Logger, svc *api.GatewayService) (*Server, error) {
	socketPath := p.SocketPath
	if socketPath == "" {
		socketPath = instance.SocketPath(p.Instance)
	}

	// Clean stale socket if it exists.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	unixLis, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = unixLis.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	listeners := []net.Listener{unixLis}

	if p.Listen != "" {
		tcpLis, err := net.Listen("tcp", p.Listen)
		if err != nil {
			_ = unixLis.Close()
			return nil, fmt.Errorf("listen tcp: %w", err)
		}
		listeners = append(listeners, tcpLis)
	}

	srv := grpc.NewServer()
	wire.RegisterGatewayServer(srv, svc)
	hs := health.NewServer()
	hs.SetServingStatus(wire.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return &Server{
		grpcServer: srv,
		health:     hs,
		listeners:  listeners,
		socketPath: socketPath,
		logger:     logger,
	}, nil
}

// Addrs returns the bound listener addresses, the Unix socket first.
func (s *Server) Addrs() []net.Addr {
	addrs := make([]net.Addr, len(s.listeners))
	for i, l := range s.listeners {
		addrs[i] = l.Addr()
	}
	return addrs
}

// Start serves gRPC requests on every listener. Blocks until stopped.
func (s *Server) Start() error {
	var g errgroup.Group
	for _, l := range s.listeners {
		s.logger.Info("gRPC server starting", zap.String("address", l.Addr().String()))
		g.Go(func() error {
			if err := s.grpcServer.Serve(l); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Stop marks the service not serving, drains in-flight calls and removes
// the socket file. If ctx expires first, remaining calls are cut off.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("gRPC server stopping")
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("graceful stop timed out, forcing")
		s.grpcServer.Stop()
		<-done
	}
	_ = os.Remove(s.socketPath)
}
