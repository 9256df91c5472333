package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"pixel-beach/server/internal/app"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml (empty for defaults)")
		addr       = flag.String("addr", "", "listen address override")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Config{ConfigPath: *configPath, ListenAddr: *addr}); err != nil {
		log.Fatalf("%v", err)
	}
}
