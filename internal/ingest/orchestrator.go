package ingest

import (
	"context"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/dvloznov/slip-scanner/internal/analyzer"
	"github.com/dvloznov/slip-scanner/internal/ledger"
)

const (
	// FailedPayee is shown on entries whose analysis failed terminally.
	FailedPayee = "<failed to read>"

	// UnknownPayee substitutes an empty payee on a resolved entry.
	UnknownPayee = "unspecified"

	// UnknownDate substitutes an empty date on a resolved entry.
	UnknownDate = "-"

	// DefaultMaxConcurrent bounds how many analyses run at once.
	DefaultMaxConcurrent = 8
)

// Analyzer extracts structured transaction data from one slip image, or
// returns a terminal error once its internal retry budget is spent.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string, categories []string) (*analyzer.Result, error)
}

// Image is one raw slip accepted for ingestion.
type Image struct {
	Name string
	Data []byte
}

// Orchestrator drives slip images through analysis and reconciles the results
// into the ledger. Each image is processed independently; one image's retries
// or failure never block or abort its siblings.
type Orchestrator struct {
	store    *ledger.Store
	analyzer Analyzer
	sem      *semaphore.Weighted
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewOrchestrator creates an orchestrator bounded to maxConcurrent analyses
// in flight at once (DefaultMaxConcurrent when <= 0).
func NewOrchestrator(store *ledger.Store, a Analyzer, maxConcurrent int64, log zerolog.Logger) *Orchestrator {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Orchestrator{
		store:    store,
		analyzer: a,
		sem:      semaphore.NewWeighted(maxConcurrent),
		log:      log,
	}
}

// Ingest registers one pending ledger entry per image before any asynchronous
// work begins, so placeholders are visible immediately, then launches analysis
// for each image. It returns the assigned transaction ids in image order.
func (o *Orchestrator) Ingest(ctx context.Context, images []Image) []string {
	if len(images) == 0 {
		return nil
	}

	entries := make([]ledger.Transaction, len(images))
	ids := make([]string, len(images))
	for i, img := range images {
		id := uuid.NewString()
		ids[i] = id
		entries[i] = ledger.Transaction{
			ID:       id,
			ImageRef: imageRef(id, img.Name),
			Status:   ledger.StatusPending,
			Category: ledger.FallbackCategory,
		}
	}
	o.store.AddPending(entries)

	for i := range images {
		img := images[i]
		id := ids[i]
		o.wg.Add(1)
		go o.analyze(ctx, id, img)
	}
	return ids
}

// Wait blocks until all in-flight analyses have reconciled. Used for graceful
// shutdown and in tests.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) analyze(ctx context.Context, id string, img Image) {
	defer o.wg.Done()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		o.markFailed(id, err)
		return
	}
	defer o.sem.Release(1)

	mime := mimetype.Detect(img.Data).String()

	// The category list is read at call time, not at batch start, so
	// categories added while earlier items were in flight are honored.
	res, err := o.analyzer.Analyze(ctx, img.Data, mime, o.store.Categories())
	if err != nil {
		o.markFailed(id, err)
		return
	}

	payee := res.Payee
	if payee == "" {
		payee = UnknownPayee
	}
	date := res.Date
	if date == "" {
		date = UnknownDate
	}
	status := ledger.StatusResolved
	amount := res.Amount
	category := res.Category

	// The entry may have been deleted mid-flight; a false return here is
	// expected and the result is dropped.
	if !o.store.Update(id, ledger.Patch{
		Status:   &status,
		Payee:    &payee,
		Amount:   &amount,
		Date:     &date,
		Category: &category,
	}) {
		o.log.Debug().Str("transaction_id", id).Msg("Dropping analysis result for deleted entry")
		return
	}

	o.log.Info().
		Str("transaction_id", id).
		Str("category", category).
		Float64("amount", amount).
		Msg("Slip resolved")
}

func (o *Orchestrator) markFailed(id string, cause error) {
	status := ledger.StatusFailed
	payee := FailedPayee
	category := ledger.FallbackCategory

	o.store.Update(id, ledger.Patch{
		Status:   &status,
		Payee:    &payee,
		Category: &category,
	})

	o.log.Error().Err(cause).Str("transaction_id", id).Msg("Slip analysis failed terminally")
}

// imageRef builds the opaque display handle stored on the transaction. The
// bytes themselves are owned by the presentation layer.
func imageRef(id, name string) string {
	if name == "" {
		return "slips/" + id
	}
	return "slips/" + id + "/" + name
}
