package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hubtrack/internal/sheets"
)

// ledgerHeader is written to row 1 of an empty ledger sheet.
var ledgerHeader = []any{
	"Change", "Payment", "Business", "Entrepreneur", "Period",
	"From", "To", "Actor", "Changed At",
}

// formatRow renders an entry in ledger column order (A:I).
func formatRow(e sheets.Entry) []any {
	return []any{
		e.ChangeID,
		e.PaymentID,
		e.BusinessID,
		e.EntrepreneurID,
		fmt.Sprintf("%04d-%02d", e.Year, e.Month),
		string(e.From),
		string(e.To),
		string(e.Actor),
		e.ChangedAt.UTC().Format(time.RFC3339),
	}
}

// parseChangeIDs collects the change ids of column A. Header, blank and
// non-numeric cells are skipped.
func parseChangeIDs(values [][]any) map[int64]struct{} {
	ids := make(map[int64]struct{}, len(values))
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		id, ok := parseID(row[0])
		if !ok {
			continue
		}
		ids[id] = struct{}{}
	}
	return ids
}

func parseID(cell any) (int64, bool) {
	s := strings.TrimSpace(fmt.Sprint(cell))
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Sheets may hand numbers back as floats when unformatted.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		id = int64(f)
	}
	return id, id > 0
}
