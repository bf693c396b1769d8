package ledger

// Summary holds the per-category and grand totals derived from the current
// ledger state. It is recomputed on every read; there are no incremental
// counters to keep consistent.
type Summary struct {
	PerCategory map[string]float64 `json:"per_category"`
	GrandTotal  float64            `json:"grand_total"`
}

// Summarize derives totals from a transaction snapshot. Only resolved entries
// with a positive amount contribute. Every category in the sequence appears in
// the map, zero-defaulting, so categories without transactions are not
// omitted. The result is independent of the iteration order of transactions.
func Summarize(transactions []Transaction, categories []string) Summary {
	per := make(map[string]float64, len(categories))
	for _, c := range categories {
		per[c] = 0
	}

	var total float64
	for _, t := range transactions {
		if t.Status != StatusResolved || t.Amount <= 0 {
			continue
		}
		per[t.Category] += t.Amount
		total += t.Amount
	}

	return Summary{PerCategory: per, GrandTotal: total}
}

// Summarize computes the summary over the store's current state.
func (s *Store) Summarize() Summary {
	return Summarize(s.Transactions(), s.Categories())
}
