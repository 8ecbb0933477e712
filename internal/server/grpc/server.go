// Package grpc serves the standard gRPC health protocol
// (grpc.health.v1.Health) for orchestrators that probe over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/recipehub/recipehub/internal/logging"
	"github.com/recipehub/recipehub/internal/server/health"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Checker is satisfied by *health.Checker.
type Checker interface {
	Check(ctx context.Context) health.Report
}

// HealthServer publishes the overall status under the empty service name
// and each dependency under its own name. Statuses are refreshed every
// interval from the checker.
type HealthServer struct {
	address  string
	checker  Checker
	interval time.Duration
	logger   logging.Logger
	health   *grpchealth.Server
}

func NewHealthServer(a string, l logging.Logger, c Checker, interval time.Duration) *HealthServer {
	return &HealthServer{
		address:  a,
		checker:  c,
		interval: interval,
		logger:   l.With("module", "grpc_health"),
		health:   grpchealth.NewServer(),
	}
}

// Refresh runs the checker once and updates the published statuses.
func (s *HealthServer) Refresh(ctx context.Context) {
	rep := s.checker.Check(ctx)

	for name, state := range rep.Services {
		s.health.SetServingStatus(name, servingStatus(state == health.ServiceUp))
	}
	s.health.SetServingStatus("", servingStatus(rep.Healthy()))
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.Refresh(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC health server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func servingStatus(up bool) healthpb.HealthCheckResponse_ServingStatus {
	if up {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
