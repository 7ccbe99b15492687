package grpc

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthServer_Check(t *testing.T) {
	var redisErr error
	s := NewHealthServer("127.0.0.1:0", map[string]Pinger{
		"mongo": pingFunc(func(context.Context) error { return nil }),
		"redis": pingFunc(func(context.Context) error { return redisErr }),
	}, zap.NewNop())
	ctx := context.Background()

	status := func() healthpb.HealthCheckResponse_ServingStatus {
		t.Helper()
		resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{})
		if err != nil {
			t.Fatal(err)
		}
		return resp.Status
	}

	if failing := s.Check(ctx); len(failing) != 0 {
		t.Fatalf("failing = %v", failing)
	}
	if got := status(); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", got)
	}

	redisErr = errors.New("connection refused")
	if failing := s.Check(ctx); len(failing) != 1 || failing[0] != "redis" {
		t.Fatalf("failing = %v", failing)
	}
	if got := status(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %v", got)
	}
}
