package analyzer

import (
	"strings"

	"github.com/dvloznov/slip-scanner/internal/ledger"
)

// buildPrompt constructs the instruction prompt for one slip, embedding the
// category names current at call time.
func buildPrompt(categories []string) string {
	var b strings.Builder

	b.WriteString("You are a payment slip reader. Analyze the attached photo of a money " +
		"transfer slip or payment receipt and extract the recipient name (payee), " +
		"the amount paid, and the date.\n\n")

	b.WriteString("Assign a category based on the payee, choosing EXACTLY one of the " +
		"following category names (case-sensitive):\n")
	for _, c := range categories {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("\nIf you are unsure which category fits, use \"" + ledger.FallbackCategory + "\".\n\n")

	b.WriteString("Return ONLY a JSON object with these fields:\n")
	b.WriteString("- \"payee\": string, the recipient or merchant name\n")
	b.WriteString("- \"amount\": number, the amount paid\n")
	b.WriteString("- \"date\": string, the date and time if present\n")
	b.WriteString("- \"category\": string, one of the categories above\n")

	return b.String()
}
