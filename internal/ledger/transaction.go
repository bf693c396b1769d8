package ledger

// Status represents where a transaction is in the analysis lifecycle.
type Status string

const (
	// StatusPending indicates the slip is registered but analysis has not finished.
	StatusPending Status = "pending"
	// StatusResolved indicates the analyzer returned structured data.
	StatusResolved Status = "resolved"
	// StatusFailed indicates the analyzer exhausted its retry budget.
	// Failed entries are only revived by deletion and re-upload.
	StatusFailed Status = "failed"
)

// FallbackCategory is the one category that always exists and can never be
// removed. Unresolved, unrecognized, and orphaned transactions land here.
const FallbackCategory = "Other"

// DefaultCategories is the category sequence a fresh ledger starts with.
var DefaultCategories = []string{"Food", "Shopping", "Transfer", "Fuel", FallbackCategory}

// Transaction is one scanned payment slip.
// Date is free text as returned by the analyzer; it is stored, not parsed.
type Transaction struct {
	ID       string  `json:"id"`
	ImageRef string  `json:"image_ref"`
	Status   Status  `json:"status"`
	Payee    string  `json:"payee"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Category string  `json:"category"`
}

// Patch is a field-level update applied to exactly one transaction.
// Nil fields are left untouched.
type Patch struct {
	Status   *Status
	Payee    *string
	Amount   *float64
	Date     *string
	Category *string
}
