package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ai-buildguide-be/internal/bootstrap"
	"ai-buildguide-be/internal/config"
	"ai-buildguide-be/internal/server"
	"ai-buildguide-be/internal/tracer"

	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(ctx, cfg)

	shutdownTracer := tracer.InitTracer(ctx, container.Logger)
	defer shutdownTracer(context.Background())
	defer func() {
		if err := container.Close(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// 3. Initialize Server
	srv := server.New(cfg, container)

	// 4. Run everything until a signal arrives or one part fails
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})
	g.Go(container.StartPersistence)
	g.Go(func() error {
		return container.ListenForScans(gctx)
	})
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
