package grpc

import (
	"context"
	"errors"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Server is a gRPC server with tracing and a health service.
type Server struct {
	GRPC   *gogrpc.Server
	Health *health.Server
}

// NewServer creates a server whose health reports SERVING for the empty
// service and each name in services.
func NewServer(services []string, opts ...gogrpc.ServerOption) *Server {
	opts = append([]gogrpc.ServerOption{gogrpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	s := &Server{
		GRPC:   gogrpc.NewServer(opts...),
		Health: health.NewServer(),
	}
	grpc_health_v1.RegisterHealthServer(s.GRPC, s.Health)
	s.Health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	for _, name := range services {
		s.Health.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_SERVING)
	}
	return s
}

// Serve accepts connections on lis until ctx is done, then drains
// in-flight calls.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.GRPC.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		s.Health.Shutdown()
		return err
	case <-ctx.Done():
		s.Health.Shutdown()
		s.GRPC.GracefulStop()
		if err := <-serveErr; err != nil && !errors.Is(err, gogrpc.ErrServerStopped) {
			return err
		}
		return nil
	}
}
