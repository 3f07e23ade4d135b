package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mongoadapter "github.com/artegra/museum-tickets/internal/adapters/mongo"
	"github.com/artegra/museum-tickets/internal/config"
	"github.com/artegra/museum-tickets/internal/inventory"
	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/artegra/museum-tickets/internal/purchase"
	"github.com/artegra/museum-tickets/internal/qr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.MongoDB)

	tickets := mongoadapter.NewTicketRepository(db, logger)
	records := mongoadapter.NewPurchaseRepository(db, logger)
	outboxRepo := mongoadapter.NewOutboxRepository(db, logger)

	stock := inventory.NewService(tickets, logger)
	encoder := qr.NewEncoder(cfg.QRSize)
	purchases := purchase.NewService(records, tickets, stock, encoder, outboxRepo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go run(ctx, purchases, logger, time.Minute)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown expiry worker")
}

// run sweeps confirmed purchases past their validity window on every
// tick. Validity checks never depend on the sweep; it serves listings
// and stats.
func run(ctx context.Context, purchases *purchase.Service, logger observability.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purchases.ExpireOverdue(ctx)
			if err != nil {
				logger.Error("failed to expire purchases", err)
				continue
			}
			if n > 0 {
				logger.WithField("count", n).Info("expired purchases")
			}
		}
	}
}
