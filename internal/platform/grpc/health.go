package grpc

import (
	"context"
	"fmt"
	"time"

	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	healthProbeTimeout = time.Second
	healthMinBackoff   = 100 * time.Millisecond
	healthMaxBackoff   = time.Second
)

// WaitForHealth polls the health service of conn until it reports SERVING
// or ctx ends.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logf func(string, ...any)) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	client := grpc_health_v1.NewHealthClient(conn)
	backoff := healthMinBackoff
	for {
		probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
		resp, err := client.Check(probeCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		cancel()
		switch {
		case err != nil:
			logf("waiting for gRPC health of %s: %v", conn.Target(), err)
		case resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING:
			logf("gRPC health of %s is SERVING", conn.Target())
			return nil
		default:
			logf("waiting for gRPC health of %s: status %s", conn.Target(), resp.GetStatus())
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-timer.C:
		}
		backoff = min(backoff*2, healthMaxBackoff)
	}
}
