package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mongoadapter "github.com/artegra/museum-tickets/internal/adapters/mongo"
	"github.com/artegra/museum-tickets/internal/adapters/rabbit"
	redisadapter "github.com/artegra/museum-tickets/internal/adapters/redis"
	"github.com/artegra/museum-tickets/internal/auth"
	"github.com/artegra/museum-tickets/internal/config"
	httphandler "github.com/artegra/museum-tickets/internal/http"
	"github.com/artegra/museum-tickets/internal/idempotency"
	"github.com/artegra/museum-tickets/internal/inventory"
	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/artegra/museum-tickets/internal/purchase"
	"github.com/artegra/museum-tickets/internal/qr"
	"github.com/artegra/museum-tickets/internal/rateLimit"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.MongoDB)

	if err := mongoadapter.EnsureIndexes(context.Background(), db); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	users := mongoadapter.NewUserRepository(db, logger)
	tickets := mongoadapter.NewTicketRepository(db, logger)
	artworks := mongoadapter.NewArtworkRepository(db, logger)
	records := mongoadapter.NewPurchaseRepository(db, logger)
	outboxRepo := mongoadapter.NewOutboxRepository(db, logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	redisCache := redisadapter.NewCache(redisClient)
	redisIdemp := redisadapter.NewIdempotency(redisClient)
	idemp := idempotency.NewIdempotency(redisIdemp, time.Hour)
	rl := rateLimit.NewRateLimiter(redisCache)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer rabbitConn.Close()
	if _, err := rabbit.NewPublisher(rabbitConn); err != nil {
		log.Fatalf("failed to declare exchange: %v", err)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	encoder := qr.NewEncoder(cfg.QRSize)
	stock := inventory.NewService(tickets, logger)
	purchases := purchase.NewService(records, tickets, stock, encoder, outboxRepo, logger)

	ready := func(ctx context.Context) error {
		return mongoClient.Ping(ctx, readpref.Primary())
	}
	handlers := httphandler.NewHandlers(users, tickets, artworks, records, purchases, tokens, encoder, idemp, redisCache, logger, ready)
	router := httphandler.NewRouter(handlers, tokens, rl, logger)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
