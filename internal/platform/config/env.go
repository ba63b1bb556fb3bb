// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every variable read by the flow binaries.
const EnvPrefix = "RESOURCEFLOW_"

type parseOptions struct {
	prefix      string
	environment map[string]string
}

// Option adjusts how ParseEnv reads variables.
type Option func(*parseOptions)

// WithPrefix prepends prefix to every env tag of the target.
func WithPrefix(prefix string) Option {
	return func(o *parseOptions) {
		o.prefix = prefix
	}
}

// WithEnvironment reads from vars instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(o *parseOptions) {
		o.environment = vars
	}
}

// ParseEnv loads target from environment variables using its env and
// envDefault tags.
func ParseEnv(target any, opts ...Option) error {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := env.ParseWithOptions(target, env.Options{
		Prefix:      o.prefix,
		Environment: o.environment,
	}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
