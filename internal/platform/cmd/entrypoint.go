// Package cmd holds the startup plumbing shared by flow binaries.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/resourceflow/internal/platform/config"
	"github.com/louisbranch/resourceflow/internal/platform/otel"
)

const defaultOTelShutdownTimeout = 5 * time.Second

// Service names used for telemetry resources and log prefixes.
const (
	ServiceFlow    = "flow"
	ServiceBackend = "flow-backend"
)

// RunOptions controls shared entrypoint behavior.
type RunOptions struct {
	ShutdownTimeout time.Duration
	// Logf receives telemetry shutdown failures. Defaults to log.Printf.
	Logf func(string, ...any)
}

// ParseConfig loads RESOURCEFLOW_-prefixed environment values into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg, config.WithPrefix(config.EnvPrefix))
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry sets up tracing for service, runs run and flushes
// telemetry on the way out.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	return RunWithTelemetryAndOptions(ctx, service, RunOptions{}, run)
}

// RunWithTelemetryAndOptions is RunWithTelemetry with explicit options.
func RunWithTelemetryAndOptions(ctx context.Context, service string, options RunOptions, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logf := options.Logf
	if logf == nil {
		logf = log.Printf
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		timeout := options.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultOTelShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
