package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"collab-notes-be/internal/bootstrap"
	"collab-notes-be/internal/config"
	"collab-notes-be/internal/tracer"
	"collab-notes-be/pkg/database"
	"collab-notes-be/pkg/events"
)

func main() {
	cfg := config.Load()

	shutdownTracer := tracer.InitTracer()

	db, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	defer container.Logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background workers: event pipeline, lock sweeper, notification hub.
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatal("Error: Failed to start consumer:", err)
	}
	go container.SweeperService.Run(ctx)
	go container.Hub.Run(ctx)

	// Durable audit trail of everything the pipeline pushed to JetStream.
	if container.NatsSub != nil {
		err := container.NatsSub.Subscribe("notes.>", "note-events-audit", func(ctx context.Context, event events.Event) error {
			container.Logger.Info("audit", "Note event", map[string]interface{}{
				"type":    event.EventType(),
				"payload": event.Payload(),
			})
			return nil
		})
		if err != nil {
			log.Printf("Warn: failed to start note event audit consumer: %v", err)
		}
	}

	container.Logger.Info("worker", "Worker started", map[string]interface{}{
		"lock_ttl":       cfg.Lock.TTL.String(),
		"sweep_interval": cfg.Lock.SweepInterval.String(),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("worker", "Shutting down", nil)
	cancel()

	if container.NatsPub != nil {
		container.NatsPub.Close()
	}
	if container.NatsSub != nil {
		container.NatsSub.Close()
	}
	if err := shutdownTracer(context.Background()); err != nil {
		log.Printf("Warn: tracer shutdown: %v", err)
	}
}
