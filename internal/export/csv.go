// Package export serializes the resolved ledger for spreadsheet consumption.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dvloznov/slip-scanner/internal/ledger"
)

// WriteCSV writes the resolved transactions as Excel-compatible CSV. The
// leading UTF-8 BOM lets Excel open non-ASCII payee names correctly. Pending
// and failed entries are skipped.
func WriteCSV(w io.Writer, transactions []ledger.Transaction) error {
	if _, err := io.WriteString(w, "\uFEFF"); err != nil {
		return fmt.Errorf("export: write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Payee", "Category", "Amount"}); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for _, t := range transactions {
		if t.Status != ledger.StatusResolved {
			continue
		}
		record := []string{
			t.Date,
			t.Payee,
			t.Category,
			strconv.FormatFloat(t.Amount, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export: write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}
