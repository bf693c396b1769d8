package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/dvloznov/slip-scanner/internal/api/middleware"
	"github.com/dvloznov/slip-scanner/internal/export"
	"github.com/dvloznov/slip-scanner/internal/ingest"
	"github.com/dvloznov/slip-scanner/internal/ledger"
)

// maxUploadBytes caps one multipart upload request.
const maxUploadBytes = 32 << 20

// SlipsHandler handles slip upload and image serving.
type SlipsHandler struct {
	orch   *ingest.Orchestrator
	images *ImageCache
	log    zerolog.Logger

	// baseCtx outlives individual requests; analyses must not be canceled
	// when the upload response is written.
	baseCtx context.Context
}

// NewSlipsHandler creates a slips handler. baseCtx bounds the lifetime of
// in-flight analyses (normally the server's context).
func NewSlipsHandler(baseCtx context.Context, orch *ingest.Orchestrator, images *ImageCache, log zerolog.Logger) *SlipsHandler {
	return &SlipsHandler{orch: orch, images: images, log: log, baseCtx: baseCtx}
}

// Upload handles POST /api/slips. It accepts one or more images under the
// "slips" multipart field, registers pending ledger entries synchronously, and
// returns their ids before any analysis completes.
func (h *SlipsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	files := r.MultipartForm.File["slips"]
	if len(files) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "At least one slip image is required")
		return
	}

	images := make([]ingest.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		if len(data) == 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Uploaded file is empty")
			return
		}
		images = append(images, ingest.Image{Name: fh.Filename, Data: data})
	}

	ids := h.orch.Ingest(h.baseCtx, images)

	for i, id := range ids {
		h.images.Put(id, images[i].Data, mimetype.Detect(images[i].Data).String())
	}

	h.log.Info().Int("count", len(ids)).Msg("Slips accepted for ingestion")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"ids":   ids,
		"count": len(ids),
	})
}

// GetImage handles GET /api/images/{id}.
func (h *SlipsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	data, mime, ok := h.images.Get(id)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Image not found")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// TransactionsHandler handles transaction listing, edits, deletion, summary,
// export, and the active category filter.
type TransactionsHandler struct {
	store  *ledger.Store
	images *ImageCache
	filter *Filter
	log    zerolog.Logger
}

// NewTransactionsHandler creates a transactions handler.
func NewTransactionsHandler(store *ledger.Store, images *ImageCache, filter *Filter, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, images: images, filter: filter, log: log}
}

// List handles GET /api/transactions. An explicit ?category= overrides the
// active filter; entries keep their creation order regardless of when their
// analyses completed.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = h.filter.Value()
	}

	all := h.store.Transactions()
	transactions := all
	if category != FilterAll {
		transactions = make([]ledger.Transaction, 0, len(all))
		for _, t := range all {
			if t.Category == category {
				transactions = append(transactions, t)
			}
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
		"filter":       category,
	})
}

// Update handles PATCH /api/transactions/{id} for user edits of payee, amount,
// and category. Unknown categories are coerced into the set by the store.
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Payee    *string  `json:"payee"`
		Amount   *float64 `json:"amount"`
		Category *string  `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount != nil && *req.Amount < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Amount must be non-negative")
		return
	}

	patch := ledger.Patch{Payee: req.Payee, Amount: req.Amount, Category: req.Category}
	if !h.store.Update(id, patch) {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	t, _ := h.store.Transaction(id)
	middleware.WriteJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/transactions/{id}. Deletion is idempotent; the
// entry's cached image goes with it. An analysis still in flight for this id
// is not canceled — its eventual result write lands on a missing id and is
// absorbed.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	h.store.Delete(id)
	h.images.Delete(id)

	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/summary. Totals are recomputed from current state
// on every call.
func (h *TransactionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	categories := h.store.Categories()
	summary := ledger.Summarize(h.store.Transactions(), categories)

	type categoryTotal struct {
		Name  string       `json:"name"`
		Total float64      `json:"total"`
		Theme ledger.Theme `json:"theme"`
	}
	totals := make([]categoryTotal, len(categories))
	for i, c := range categories {
		totals[i] = categoryTotal{Name: c, Total: summary.PerCategory[c], Theme: ledger.ThemeAt(i)}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories":  totals,
		"grand_total": summary.GrandTotal,
		"filter":      h.filter.Value(),
	})
}

// Export handles GET /api/export, serving the resolved ledger as CSV.
func (h *TransactionsHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="slip_transactions.csv"`)

	if err := export.WriteCSV(w, h.store.Transactions()); err != nil {
		h.log.Error().Err(err).Msg("CSV export failed")
	}
}

// GetFilter handles GET /api/filter.
func (h *TransactionsHandler) GetFilter(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"filter": h.filter.Value()})
}

// SetFilter handles PUT /api/filter. The value must be "All" or a current
// category name.
func (h *TransactionsHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Category != FilterAll && !containsCategory(h.store.Categories(), req.Category) {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown category")
		return
	}

	h.filter.Set(req.Category)
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"filter": req.Category})
}

// CategoriesHandler handles category management.
type CategoriesHandler struct {
	store  *ledger.Store
	filter *Filter
	log    zerolog.Logger
}

// NewCategoriesHandler creates a categories handler.
func NewCategoriesHandler(store *ledger.Store, filter *Filter, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{store: store, filter: filter, log: log}
}

type categoryView struct {
	Name  string       `json:"name"`
	Theme ledger.Theme `json:"theme"`
}

func categoryViews(categories []string) []categoryView {
	views := make([]categoryView, len(categories))
	for i, c := range categories {
		views[i] = categoryView{Name: c, Theme: ledger.ThemeAt(i)}
	}
	return views
}

// List handles GET /api/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories := h.store.Categories()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categoryViews(categories),
		"count":      len(categories),
	})
}

// Create handles POST /api/categories. Empty names and duplicates are
// rejected as no-ops, not errors.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	added := h.store.AddCategory(req.Name)
	if added {
		h.log.Info().Str("category", req.Name).Msg("Category added")
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"added":      added,
		"categories": categoryViews(h.store.Categories()),
	})
}

// Reorder handles POST /api/categories/reorder, swapping the category at
// index with its neighbor. Boundary swaps are no-ops.
func (h *CategoriesHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index     int `json:"index"`
		Direction int `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	moved := h.store.ReorderCategory(req.Index, req.Direction)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"moved":      moved,
		"categories": categoryViews(h.store.Categories()),
	})
}

// Delete handles DELETE /api/categories/{name}. Transactions holding the
// deleted category are reassigned to the fallback in the same store
// operation, and an active filter pointing at the deleted name is reset.
// Deleting the fallback category is a no-op.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	removed, reassigned := h.store.DeleteCategory(name)

	filterReset := false
	if removed && h.filter.Value() == name {
		h.filter.Reset()
		filterReset = true
	}

	if removed {
		h.log.Info().
			Str("category", name).
			Int("reassigned", reassigned).
			Bool("filter_reset", filterReset).
			Msg("Category deleted")
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"removed":      removed,
		"reassigned":   reassigned,
		"filter_reset": filterReset,
		"categories":   categoryViews(h.store.Categories()),
	})
}

func containsCategory(categories []string, name string) bool {
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}
