package grpc

import (
	"context"
	"fmt"
	"net"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Pinger is a dependency whose reachability decides the serving status.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer exposes the standard gRPC health service. The overall status
// is SERVING only while every dependency answers its ping.
type HealthServer struct {
	addr   string
	srv    *grpc.Server
	health *health.Server
	deps   map[string]Pinger
	logger *zap.Logger
}

func NewHealthServer(addr string, deps map[string]Pinger, logger *zap.Logger) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &HealthServer{
		addr:   addr,
		srv:    srv,
		health: hs,
		deps:   deps,
		logger: logger.Named("health"),
	}
}

func (s *HealthServer) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.logger.Info("Health service started", zap.String("address", s.addr))
	return s.srv.Serve(lis)
}

// Check pings every dependency once and updates the serving status. It
// returns the names of the failing dependencies.
func (s *HealthServer) Check(ctx context.Context) []string {
	var failing []string
	for name, dep := range s.deps {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := dep.Ping(pctx)
		cancel()
		if err != nil {
			failing = append(failing, name)
			s.logger.Warn("Dependency unhealthy", zap.String("dependency", name), zap.Error(err))
		}
	}
	sort.Strings(failing)

	status := healthpb.HealthCheckResponse_SERVING
	if len(failing) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	return failing
}

// Watch re-checks dependencies every interval until ctx is done.
func (s *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
