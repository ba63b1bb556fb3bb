// Package flow parses flow command flags and launches a scripted run or the
// users backend.
package flow

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/resourceflow/internal/platform/cmd"
	"github.com/louisbranch/resourceflow/internal/platform/timeouts"
	flowapp "github.com/louisbranch/resourceflow/internal/services/flow/app"
)

// Command modes.
const (
	ModeDemo  = "demo"
	ModeServe = "serve"
)

// Config holds flow command configuration.
type Config struct {
	Mode            string        `env:"FLOW_MODE" envDefault:"demo"`
	APIAddr         string        `env:"FLOW_API_ADDR"`
	Port            int           `env:"FLOW_PORT" envDefault:"8090"`
	DBPath          string        `env:"FLOW_DB_PATH"`
	PersistKey      string        `env:"FLOW_PERSIST_KEY" envDefault:"flow"`
	Whitelist       []string      `env:"FLOW_PERSIST_WHITELIST" envSeparator:"," envDefault:"users"`
	LogoutPath      string        `env:"FLOW_LOGOUT_PATH" envDefault:"/logout"`
	GRPCDialTimeout time.Duration `env:"FLOW_DIAL_TIMEOUT" envDefault:"2s"`
	SettleTimeout   time.Duration `env:"FLOW_SETTLE_TIMEOUT" envDefault:"10s"`
	Verbose         bool          `env:"FLOW_VERBOSE"`

	// Output receives the run report. Defaults to stdout.
	Output io.Writer
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	whitelist := strings.Join(cfg.Whitelist, ",")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Run mode: demo plays the scripted flow, serve runs the users backend")
	fs.StringVar(&cfg.APIAddr, "api-addr", cfg.APIAddr, "The users backend gRPC address; empty starts one in process")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The users backend gRPC port in serve mode")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database used to persist state; empty disables persistence")
	fs.StringVar(&cfg.PersistKey, "persist-key", cfg.PersistKey, "Snapshot key for persisted state")
	fs.StringVar(&whitelist, "persist-whitelist", whitelist, "Comma-separated state slices to persist")
	fs.StringVar(&cfg.LogoutPath, "logout-path", cfg.LogoutPath, "Route navigated to on unauthorized failures")
	fs.DurationVar(&cfg.GRPCDialTimeout, "dial-timeout", cfg.GRPCDialTimeout, "gRPC dependency dial timeout")
	fs.DurationVar(&cfg.SettleTimeout, "settle-timeout", cfg.SettleTimeout, "Maximum wait for each scripted step to settle")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Log every dispatched event")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Whitelist = splitList(whitelist)
	switch cfg.Mode {
	case ModeDemo, ModeServe:
	default:
		return Config{}, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	return cfg, nil
}

// Run starts the configured mode.
func Run(ctx context.Context, cfg Config) error {
	options := entrypoint.RunOptions{ShutdownTimeout: timeouts.Shutdown}
	if cfg.Mode == ModeServe {
		return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceBackend, options, func(ctx context.Context) error {
			return flowapp.Serve(ctx, flowapp.ServeConfig{Port: cfg.Port})
		})
	}
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceFlow, options, func(ctx context.Context) error {
		_, err := flowapp.Run(ctx, flowapp.RuntimeConfig{
			APIAddr:     cfg.APIAddr,
			DBPath:      cfg.DBPath,
			PersistKey:  cfg.PersistKey,
			Whitelist:   cfg.Whitelist,
			LogoutPath:  cfg.LogoutPath,
			DialTimeout: cfg.GRPCDialTimeout,
			Settle:      cfg.SettleTimeout,
			Verbose:     cfg.Verbose,
			Output:      output,
		})
		return err
	})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
