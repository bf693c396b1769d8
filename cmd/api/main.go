package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/slip-scanner/internal/analyzer"
	"github.com/dvloznov/slip-scanner/internal/api/handlers"
	"github.com/dvloznov/slip-scanner/internal/api/middleware"
	"github.com/dvloznov/slip-scanner/internal/config"
	"github.com/dvloznov/slip-scanner/internal/ingest"
	"github.com/dvloznov/slip-scanner/internal/ledger"
	"github.com/dvloznov/slip-scanner/internal/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New()

	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set - analyzer calls will fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := analyzer.New(ctx, analyzer.Config{
		APIKey:         cfg.GeminiAPIKey,
		Model:          cfg.GeminiModel,
		MaxAttempts:    cfg.AnalyzerMaxAttempts,
		InitialBackoff: cfg.AnalyzerInitialBackoff,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create analyzer client")
	}

	store := ledger.NewStore()
	orch := ingest.NewOrchestrator(store, client, cfg.IngestMaxConcurrent, log)
	images := handlers.NewImageCache()
	filter := handlers.NewFilter()

	slipsHandler := handlers.NewSlipsHandler(ctx, orch, images, log)
	transactionsHandler := handlers.NewTransactionsHandler(store, images, filter, log)
	categoriesHandler := handlers.NewCategoriesHandler(store, filter, log)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/slips", slipsHandler.Upload)
	mux.HandleFunc("GET /api/images/{id}", slipsHandler.GetImage)

	mux.HandleFunc("GET /api/transactions", transactionsHandler.List)
	mux.HandleFunc("PATCH /api/transactions/{id}", transactionsHandler.Update)
	mux.HandleFunc("DELETE /api/transactions/{id}", transactionsHandler.Delete)

	mux.HandleFunc("GET /api/categories", categoriesHandler.List)
	mux.HandleFunc("POST /api/categories", categoriesHandler.Create)
	mux.HandleFunc("POST /api/categories/reorder", categoriesHandler.Reorder)
	mux.HandleFunc("DELETE /api/categories/{name}", categoriesHandler.Delete)

	mux.HandleFunc("GET /api/summary", transactionsHandler.Summary)
	mux.HandleFunc("GET /api/export", transactionsHandler.Export)
	mux.HandleFunc("GET /api/filter", transactionsHandler.GetFilter)
	mux.HandleFunc("PUT /api/filter", transactionsHandler.SetFilter)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting slip scanner API")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight analyses reconcile before dropping the ledger.
	done := make(chan struct{})
	go func() {
		orch.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn().Msg("Timed out waiting for in-flight analyses")
	}
	cancel()

	log.Info().Msg("Server exited")
}
