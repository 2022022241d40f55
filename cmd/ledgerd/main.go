package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"notevault/internal/bootstrap"
	"notevault/internal/config"
	"notevault/internal/server"
	"notevault/internal/tracer"
)

func main() {
	cfg := config.Load()

	shutdownTracer := tracer.InitTracer("notevault-ledgerd")
	defer shutdownTracer(context.Background())

	container, err := bootstrap.NewNodeContainer(cfg)
	if err != nil {
		log.Fatalf("Unable to start ledger node: %v", err)
	}
	defer container.Close()

	srv := server.NewLedger(cfg, container)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Printf("ledger node stopped: %v", err)
	}
}
