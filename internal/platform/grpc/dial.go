// Package grpc holds the client and server plumbing shared by flow
// binaries.
package grpc

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Dialer creates client connections.
type Dialer interface {
	Dial(target string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(target string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error)

// Dial implements Dialer.
func (fn DialerFunc) Dial(target string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	return fn(target, opts...)
}

// DialStage names the step of DialWithHealth that failed.
type DialStage string

const (
	DialStageConnect DialStage = "connect"
	DialStageHealth  DialStage = "health"
)

// DialError wraps dial and health check failures with their stage.
type DialError struct {
	Stage DialStage
	Err   error
}

// Error implements the error interface.
func (e *DialError) Error() string {
	if e == nil {
		return "gRPC dial error"
	}
	return fmt.Sprintf("gRPC %s error: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *DialError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DefaultClientDialOptions returns plaintext options with trace
// propagation on every outbound call.
func DefaultClientDialOptions() []gogrpc.DialOption {
	return []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// DialWithHealth connects to addr and waits until its health service
// reports SERVING. The connection is closed when the check fails.
func DialWithHealth(ctx context.Context, dialer Dialer, addr string, timeout time.Duration, logf func(string, ...any), opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if dialer == nil {
		dialer = DialerFunc(gogrpc.NewClient)
	}
	if len(opts) == 0 {
		opts = DefaultClientDialOptions()
	}

	conn, err := dialer.Dial(addr, opts...)
	if err != nil {
		return nil, &DialError{Stage: DialStageConnect, Err: err}
	}

	healthCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		healthCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := WaitForHealth(healthCtx, conn, "", logf); err != nil {
		_ = conn.Close()
		return nil, &DialError{Stage: DialStageHealth, Err: err}
	}
	return conn, nil
}
