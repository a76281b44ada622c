// Package main is the entry point for the PDF Tools API server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/config"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/database"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/middleware"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/router"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/preview"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/translate"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/webhook"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/worker"
	"github.com/Shimizu-Technology/pdf-tools-api/migrations"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("🚀 PDF Tools API %s starting...", Version)

	// Step 1: Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	log.Printf("📋 Config loaded: port=%s, workers=%d, gin_mode=%s, translate=%s",
		cfg.Port, cfg.WorkerCount, cfg.GinMode, cfg.TranslateBackend)

	os.Setenv("GIN_MODE", cfg.GinMode)

	// Step 2: Connect to Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("✅ Database connected")

	if err := db.RunMigrations(migrations.FS); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	// Step 3: Create Services
	translators := map[string]translate.Translator{
		"http": translate.NewHTTP(cfg.TranslateURL, cfg.TranslateAPIKey),
	}
	if cfg.LLMAPIKey != "" {
		llm, err := translate.NewLLM(context.Background(), cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
		if err != nil {
			log.Fatalf("❌ Failed to create LLM translator: %v", err)
		}
		translators["llm"] = llm
		log.Printf("✅ LLM translation enabled (model %s)", cfg.LLMModel)
	} else {
		log.Println("⚠️  LLM translation disabled (set LLM_API_KEY to enable)")
	}
	if _, ok := translators[cfg.TranslateBackend]; !ok {
		log.Fatalf("❌ TRANSLATE_BACKEND=%s is not configured", cfg.TranslateBackend)
	}

	if cfg.FontPath == "" {
		log.Println("⚠️  No TrueType font found (set FONT_PATH); translated PDFs cannot be rebuilt")
	}

	renderer := preview.NewPopplerRenderer(cfg.PdftoppmPath)
	if renderer.Available() {
		log.Printf("✅ Page previews enabled (%s)", cfg.PdftoppmPath)
	} else {
		log.Println("⚠️  Page previews disabled (install poppler-utils or set PDFTOPPM_PATH)")
	}

	webhookService := webhook.New(db)
	log.Println("✅ Webhook notification service initialized")

	// Step 4: Create and Start Worker Pool
	wp := worker.NewPool(worker.Config{
		Workers:   cfg.WorkerCount,
		QueueSize: cfg.JobQueueSize,
		FontPath:  cfg.FontPath,
		ChunkSize: cfg.TranslateChunkSize,
	}, db, translators, webhookService)
	wp.Start()

	if cfg.AdminAPIKey != "" {
		log.Println("✅ Admin API key configured (API key creation protected)")
	} else {
		log.Println("⚠️  No admin API key set; API key creation is open (set ADMIN_API_KEY in production)")
	}

	// Step 5: Setup HTTP Router
	// The owner key skips rate limits
	rateLimiter := middleware.NewRateLimiter(cfg.DefaultRateLimit, func(k *models.APIKey) bool {
		return middleware.IsOwnerAPIKey(k, cfg.OwnerAPIKeyID, cfg.OwnerAPIKeyPrefix)
	})
	r := router.Setup(db, wp, webhookService, renderer, translators, rateLimiter, cfg)

	// Step 6: Start the HTTP Server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
		// Uploads of several large PDFs need more than the usual 15s
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://localhost:%s", cfg.Port)
		log.Printf("📖 API docs: http://localhost:%s/api/docs", cfg.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	// Step 7: Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("🛑 Received signal %v, shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop taking requests first, then stop the workers (cancelled jobs
	// still report translation.failed), then drain webhook deliveries.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}
	rateLimiter.Stop()
	wp.Stop()
	webhookService.Shutdown()

	log.Println("👋 Server stopped. Goodbye!")
}
