package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name the checkout service reports health under.
const ServiceName = "checkout.v1.CheckoutService"

// Check reports whether one backing dependency is reachable.
type Check func(ctx context.Context) error

// HealthServer exposes the standard gRPC health service for orchestrators
// and load balancers.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	logger *zap.Logger

	mu       sync.Mutex
	stopping bool
}

func NewHealthServer(logger *zap.Logger) *HealthServer {
	s := &HealthServer{
		server: grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler())),
		health: health.NewServer(),
		logger: logger,
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *HealthServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

func (s *HealthServer) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// SetServing flips the reported status. It is ignored once Stop began.
func (s *HealthServer) SetServing(serving bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return
	}
	if serving {
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
	} else {
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

// Watch runs checks every interval and reports SERVING only while all pass.
func (s *HealthServer) Watch(ctx context.Context, interval, timeout time.Duration, checks map[string]Check) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runChecks(ctx, timeout, checks)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runChecks(ctx, timeout, checks)
		}
	}
}

func (s *HealthServer) runChecks(ctx context.Context, timeout time.Duration, checks map[string]Check) {
	healthy := true
	for name, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		err := check(checkCtx)
		cancel()
		if err != nil {
			healthy = false
			s.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
		}
	}
	s.SetServing(healthy)
}

// Stop reports NOT_SERVING and drains in-flight RPCs.
func (s *HealthServer) Stop() {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	s.health.Shutdown()
	s.server.GracefulStop()
}
