// Package main is the entry point for the DocGenie API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shimizu-Technology/docgenie-api/internal/config"
	"github.com/Shimizu-Technology/docgenie-api/internal/database"
	"github.com/Shimizu-Technology/docgenie-api/internal/handlers"
	"github.com/Shimizu-Technology/docgenie-api/internal/middleware"
	"github.com/Shimizu-Technology/docgenie-api/internal/router"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/chat"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/gemini"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/qa"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/settings"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/worker"
	"github.com/Shimizu-Technology/docgenie-api/internal/view"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("🚀 DocGenie API %s starting...", Version)

	// Step 1: Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	log.Printf("📋 Config loaded: port=%s, workers=%d, gin_mode=%s, max_pages=%d, max_upload=%dMB",
		cfg.Port, cfg.WorkerCount, cfg.GinMode, cfg.MaxPages, cfg.MaxUploadMB)

	os.Setenv("GIN_MODE", cfg.GinMode)

	// Background loops stop when ctx is cancelled during shutdown.
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Step 2: Settings store (Postgres when configured, memory otherwise)
	var store settings.Store
	var db *database.DB
	if cfg.DatabaseURL != "" {
		db, err = database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Println("✅ Database connected")

		if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
			log.Fatalf("❌ Migration failed: %v", err)
		}
		store = db
	} else {
		store = settings.NewMemoryStore()
		log.Println("⚠️  DATABASE_URL not set: the API key is kept in memory and lost on restart")
	}
	settingsService := settings.NewService(store)

	// Seed the key from the environment only if none is stored yet.
	if cfg.GeminiAPIKey != "" {
		if existing, err := settingsService.APIKey(ctx); err == nil && existing == "" {
			if err := settingsService.SaveAPIKey(ctx, cfg.GeminiAPIKey); err != nil {
				log.Printf("⚠️  Could not seed API key: %v", err)
			} else {
				log.Println("✅ API key seeded from GEMINI_API_KEY")
			}
		}
	}

	// Step 3: Create Services
	pipeline := qa.New(gemini.New(cfg.GeminiEndpoint, cfg.GeminiTimeout), qa.Options{
		MaxPages:     cfg.MaxPages,
		ExcerptChars: cfg.PageExcerptChars,
		Origin:       cfg.PrimaryOrigin(),
	})
	// Step 4: Create and Start Worker Pool
	wp := worker.NewPool(cfg.WorkerCount, cfg.JobQueueSize, pipeline)
	wp.Start()
	defer wp.Stop()

	chats := chat.NewManager(wp, settingsService, cfg.SessionIdleTTL)
	go chats.Run(ctx, time.Minute)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerHour, cfg.RateLimitBurst)
	go rateLimiter.Cleanup(ctx, 10*time.Minute)

	h := &handlers.Handler{
		Settings:       settingsService,
		Chats:          chats,
		Views:          view.NewRegistry(),
		Revoked:        middleware.NewRevocations(),
		Workers:        wp,
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       cfg.TokenTTL,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		AnswerTimeout:  cfg.AnswerTimeout(),
	}
	// Go Pattern: assign the interface only when the pointer is non-nil,
	// otherwise h.DB would hold a typed nil and compare non-nil.
	if db != nil {
		h.DB = db
	}

	// Step 5: Setup HTTP Router
	r := router.Setup(h, rateLimiter, cfg.AllowedOrigins)

	// Step 6: Start the HTTP Server
	// Chat questions give up at AnswerTimeout, before the write deadline.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://localhost:%s", cfg.Port)
		log.Printf("📖 API docs: http://localhost:%s/api/docs", cfg.Port)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	// Step 7: Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("🛑 Received signal %v, shutting down gracefully...", sig)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	log.Println("👋 Server stopped. Goodbye!")
}
