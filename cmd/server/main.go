// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/config"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/handlers"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/middleware"
	archiverepo "github.com/Ahbabsaqlan/whatsapp-bot/internal/repository/archive"
	webhookrepo "github.com/Ahbabsaqlan/whatsapp-bot/internal/repository/webhook"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/archive"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/attachment"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/outbox"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/reply"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/scheduler"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/session"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/source"
	syncengine "github.com/Ahbabsaqlan/whatsapp-bot/internal/services/sync"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/webhook"
)

func main() {
	cfg := config.Load()

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Conversation{}, &domain.Message{},
		&domain.WebhookSubscription{}, &domain.WebhookDelivery{},
	); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	// --- Repositories ---
	archiveRepo := archiverepo.NewArchiveRepository(db)
	whRepo := webhookrepo.NewWebhookRepository(db)

	// --- Services ---
	sourceConfig := source.DefaultConfig()
	sourceConfig.BridgeURL = cfg.BridgeURL
	factory, err := source.NewBridgeFactory(sourceConfig, services.NewLogger("source"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize message source: %v", err)
	}

	sessions, err := session.NewManager(factory, session.DefaultConfig(), services.NewLogger("session"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize session manager: %v", err)
	}

	correlator, err := attachment.NewCorrelator(attachment.DefaultConfig(cfg.DownloadDir), services.NewLogger("attachment"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize attachment correlator: %v", err)
	}

	engine, err := syncengine.NewEngine(syncengine.DefaultConfig(), correlator, services.NewLogger("sync"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize sync engine: %v", err)
	}

	store := archive.NewStore(archiveRepo, cfg.OwnerName, services.NewLogger("archive"))

	replyConfig := reply.DefaultConfig(cfg.OpenAIAPIKey)
	replyConfig.Model = cfg.ReplyModel
	if cfg.SystemPrompt != "" {
		replyConfig.SystemPrompt = cfg.SystemPrompt
	}
	generator, err := reply.NewOpenAIProvider(replyConfig, services.NewLogger("reply"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize reply provider: %v", err)
	}

	webhookSecret := cfg.WebhookSecret
	if webhookSecret == "" {
		log.Println("WEBHOOK_SECRET not set; using an insecure development secret")
		webhookSecret = "dev-secret"
	}
	sender, err := webhook.NewSender(webhook.DefaultConfig(webhookSecret), services.NewLogger("webhook"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize webhook sender: %v", err)
	}

	box, err := outbox.NewOutbox(outbox.DefaultConfig(), sessions, store, whRepo, sender, services.NewLogger("outbox"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize outbox: %v", err)
	}

	schedConfig := scheduler.DefaultConfig()
	schedConfig.SyncInterval = cfg.SyncInterval
	schedConfig.ReplyInterval = cfg.ReplyInterval
	schedConfig.ReplyMaxAge = cfg.ReplyMaxAge
	schedConfig.Blacklist = cfg.ReplyBlacklist
	sched, err := scheduler.NewScheduler(schedConfig, sessions, engine, store, generator, box, correlator, services.NewLogger("scheduler"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize scheduler: %v", err)
	}

	// --- Handlers ---
	archiveHandler := handlers.NewArchiveHandler(store, box, sessions, services.NewLogger("handlers"))
	webhookHandler := handlers.NewWebhookHandler(whRepo, services.NewLogger("handlers"))

	// --- Router Setup ---
	r := mux.NewRouter()
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.LoggingMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.APIKeyAuth(cfg.APIKey))
	api.HandleFunc("/conversations", archiveHandler.ListConversations).Methods("GET")
	api.HandleFunc("/conversations/{title}/summary", archiveHandler.GetSummary).Methods("GET")
	api.HandleFunc("/conversations/{title}/messages", archiveHandler.GetMessages).Methods("GET")
	api.HandleFunc("/unreplied", archiveHandler.GetUnreplied).Methods("GET")
	api.HandleFunc("/send-message", archiveHandler.SendMessage).Methods("POST")
	api.HandleFunc("/status", archiveHandler.GetStatus).Methods("GET")
	api.HandleFunc("/login", archiveHandler.StartLogin).Methods("POST")
	api.HandleFunc("/webhooks", webhookHandler.CreateSubscription).Methods("POST")
	api.HandleFunc("/webhooks", webhookHandler.ListSubscriptions).Methods("GET")
	api.HandleFunc("/webhooks/{id}", webhookHandler.DeleteSubscription).Methods("DELETE")

	// --- Background Workers ---
	box.Start()
	sched.Start()

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Conversation archiver starting on port %s", cfg.ServerPort)
	log.Printf("Bridge: %s | DB: %s | Downloads: %s", cfg.BridgeURL, cfg.DBPath, cfg.DownloadDir)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down gracefully...")
	sched.Stop()
	box.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
