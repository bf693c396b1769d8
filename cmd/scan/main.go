// Command scan runs the slip ingestion pipeline once over image files given
// on the command line, prints the resolved ledger, and optionally writes CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/dvloznov/slip-scanner/internal/analyzer"
	"github.com/dvloznov/slip-scanner/internal/config"
	"github.com/dvloznov/slip-scanner/internal/export"
	"github.com/dvloznov/slip-scanner/internal/ingest"
	"github.com/dvloznov/slip-scanner/internal/ledger"
	"github.com/dvloznov/slip-scanner/internal/logger"
)

func main() {
	var csvPath = flag.String("o", "", "write resolved transactions as CSV to this path")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: scan [-o out.csv] slip1.jpg [slip2.jpg ...]")
		os.Exit(2)
	}
	if cfg.GeminiAPIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY is required")
	}

	ctx := context.Background()

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

	images := make([]ingest.Image, 0, flag.NArg())
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to read image")
		}
		images = append(images, ingest.Image{Name: filepath.Base(path), Data: data})
	}

	orch.Ingest(ctx, images)
	orch.Wait()

	transactions := store.Transactions()
	for _, t := range transactions {
		switch t.Status {
		case ledger.StatusResolved:
			fmt.Printf("%-10s  %-12s  %10.2f  %s  (%s)\n", t.Status, t.Date, t.Amount, t.Payee, t.Category)
		default:
			fmt.Printf("%-10s  %s\n", t.Status, t.ImageRef)
		}
	}

	summary := store.Summarize()
	fmt.Printf("\nTotal: %.2f\n", summary.GrandTotal)

	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *csvPath).Msg("Failed to create CSV file")
		}
		defer f.Close()

		if err := export.WriteCSV(f, transactions); err != nil {
			log.Fatal().Err(err).Msg("CSV export failed")
		}
		log.Info().Str("path", *csvPath).Msg("CSV written")
	}
}
