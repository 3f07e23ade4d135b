package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	mongoadapter "github.com/artegra/museum-tickets/internal/adapters/mongo"
	"github.com/artegra/museum-tickets/internal/adapters/rabbit"
	redisadapter "github.com/artegra/museum-tickets/internal/adapters/redis"
	"github.com/artegra/museum-tickets/internal/auth"
	"github.com/artegra/museum-tickets/internal/config"
	"github.com/artegra/museum-tickets/internal/domain"
	httphandler "github.com/artegra/museum-tickets/internal/http"
	"github.com/artegra/museum-tickets/internal/idempotency"
	"github.com/artegra/museum-tickets/internal/inventory"
	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/artegra/museum-tickets/internal/purchase"
	"github.com/artegra/museum-tickets/internal/qr"
	"github.com/artegra/museum-tickets/internal/rateLimit"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestIntegration_PurchaseValidateCancel(t *testing.T) {
	ctx := context.Background()

	mongoContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForExec([]string{"mongosh", "--eval", "db.runCommand('ping').ok"}),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer mongoContainer.Terminate(ctx)

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForExec([]string{"redis-cli", "ping"}),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer redisContainer.Terminate(ctx)

	rabbitContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-management",
			ExposedPorts: []string{"5672/tcp", "15672/tcp"},
			WaitingFor:   wait.ForHTTP("/api/health").WithPort("15672"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer rabbitContainer.Terminate(ctx)

	mongoHost, err := mongoContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	mongoPort, err := mongoContainer.MappedPort(ctx, "27017")
	if err != nil {
		t.Fatal(err)
	}
	redisHost, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatal(err)
	}
	rabbitHost, err := rabbitContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	rabbitPort, err := rabbitContainer.MappedPort(ctx, "5672")
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		HTTPAddr:     ":8081",
		MongoURI:     "mongodb://" + mongoHost + ":" + mongoPort.Port(),
		MongoDB:      "museum_test",
		RedisAddr:    redisHost + ":" + redisPort.Port(),
		RabbitURL:    "amqp://guest:guest@" + rabbitHost + ":" + rabbitPort.Port() + "/",
		JWTSecret:    "integration-secret",
		JWTTTL:       time.Hour,
		QRSize:       256,
		OTLPEndpoint: "", // Skip otel for test
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		t.Fatal(err)
	}
	defer mongoClient.Disconnect(ctx)
	db := mongoClient.Database(cfg.MongoDB)
	if err := mongoadapter.EnsureIndexes(ctx, db); err != nil {
		t.Fatal(err)
	}

	logger := observability.NewLogger()
	users := mongoadapter.NewUserRepository(db, logger)
	tickets := mongoadapter.NewTicketRepository(db, logger)
	artworks := mongoadapter.NewArtworkRepository(db, logger)
	records := mongoadapter.NewPurchaseRepository(db, logger)
	outboxRepo := mongoadapter.NewOutboxRepository(db, logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisCache := redisadapter.NewCache(redisClient)
	redisIdemp := redisadapter.NewIdempotency(redisClient)
	idemp := idempotency.NewIdempotency(redisIdemp, time.Hour)
	rl := rateLimit.NewRateLimiter(redisCache)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		t.Fatal(err)
	}
	defer rabbitConn.Close()
	if _, err := rabbit.NewPublisher(rabbitConn); err != nil {
		t.Fatal(err)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	encoder := qr.NewEncoder(cfg.QRSize)
	stock := inventory.NewService(tickets, logger)
	purchases := purchase.NewService(records, tickets, stock, encoder, outboxRepo, logger)

	handlers := httphandler.NewHandlers(users, tickets, artworks, records, purchases, tokens, encoder, idemp, redisCache, logger, nil)
	router := httphandler.NewRouter(handlers, tokens, rl, logger)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Error(err)
		}
	}()
	defer srv.Shutdown(ctx)
	time.Sleep(100 * time.Millisecond)

	base := "http://localhost:8081"

	// Seed an admin account directly.
	adminHash, err := auth.HashPassword("admin-password")
	if err != nil {
		t.Fatal(err)
	}
	admin, err := domain.NewUserAccount("Admin", "admin@museum.test", adminHash, "", domain.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if err := users.Create(ctx, admin); err != nil {
		t.Fatal(err)
	}

	adminToken := login(t, base, "admin@museum.test", "admin-password")

	// Admin creates a bounded ticket.
	ticketReq := map[string]interface{}{
		"name":     "Entry Ticket",
		"category": "entry",
		"price":    1000.0,
		"stock":    map[string]interface{}{"unlimited": false, "count": 5},
	}
	var ticket domain.TicketDefinition
	doJSON(t, base+"/api/tickets", http.MethodPost, adminToken, ticketReq, http.StatusCreated, &ticket)

	// Visitor registers and buys two.
	registerReq := map[string]interface{}{
		"name":     "Visitor",
		"email":    "visitor@museum.test",
		"password": "visitor-password",
	}
	var registered struct {
		Token string              `json:"token"`
		User  *domain.UserAccount `json:"user"`
	}
	doJSON(t, base+"/api/auth/register", http.MethodPost, "", registerReq, http.StatusCreated, &registered)

	purchaseReq := map[string]interface{}{
		"customer": map[string]interface{}{
			"name":  "Visitor",
			"email": "visitor@museum.test",
		},
		"items": []map[string]interface{}{
			{"ticketId": ticket.ID.String(), "quantity": 2},
		},
		"paymentMethod": "card",
	}
	body, _ := json.Marshal(purchaseReq)
	req, _ := http.NewRequest(http.MethodPost, base+"/api/purchases", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+registered.Token)
	req.Header.Set("Idempotency-Key", uuid.New().String())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("purchase failed, status %d", resp.StatusCode)
	}
	var record domain.PurchaseRecord
	json.NewDecoder(resp.Body).Decode(&record)
	resp.Body.Close()

	if record.Total != 2360 {
		t.Errorf("expected total 2360, got %v", record.Total)
	}
	if record.Code == "" || record.QRCode == "" {
		t.Error("expected code and QR code to be assigned")
	}

	// Stock went down.
	updated, err := tickets.TicketByID(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Stock.Count != 3 {
		t.Errorf("expected stock 3, got %d", updated.Stock.Count)
	}

	// Redemption verifier accepts the code.
	var validation domain.ValidationResult
	doJSON(t, base+"/api/purchases/validate", http.MethodPost, "", map[string]string{"qrCode": record.Code}, http.StatusOK, &validation)
	if !validation.Valid {
		t.Errorf("expected valid code, got reason %q", validation.Reason)
	}

	// Cancel restores stock and invalidates the code.
	var cancelled domain.PurchaseRecord
	doJSON(t, base+"/api/purchases/"+record.ID.String()+"/cancel", http.MethodPatch, registered.Token, map[string]string{"reason": "changed plans"}, http.StatusOK, &cancelled)
	if cancelled.Status != domain.StatusCancelled {
		t.Errorf("expected cancelled status, got %s", cancelled.Status)
	}

	updated, err = tickets.TicketByID(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Stock.Count != 5 {
		t.Errorf("expected stock restored to 5, got %d", updated.Stock.Count)
	}

	doJSON(t, base+"/api/purchases/validate", http.MethodPost, "", map[string]string{"qrCode": record.Code}, http.StatusBadRequest, &validation)
	if validation.Valid {
		t.Error("expected cancelled code to be invalid")
	}

	// Events reached the outbox.
	events, err := outboxRepo.Unpublished(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) < 2 {
		t.Errorf("expected created and cancelled events, got %d", len(events))
	}
}

func login(t *testing.T, base, email, password string) string {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	doJSON(t, base+"/api/auth/login", http.MethodPost, "", map[string]string{"email": email, "password": password}, http.StatusOK, &resp)
	return resp.Token
}

func doJSON(t *testing.T, url, method, token string, payload interface{}, wantStatus int, out interface{}) {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d", method, url, wantStatus, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
}
