// Package main starts the flow process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	flowcmd "github.com/louisbranch/resourceflow/internal/cmd/flow"
	"github.com/louisbranch/resourceflow/internal/platform/config"
)

func main() {
	cfg, err := flowcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[FLOW] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := flowcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("flow %s: %v", cfg.Mode, err)
	}
}
