// Package sheets defines the outbound port for mirroring a user's ledger into
// a spreadsheet.
package sheets

import (
	"context"
	"fmt"
)

// LedgerMirror replaces the whole content of one tab.
type LedgerMirror interface {
	ReplaceRows(ctx context.Context, tab string, header []string, rows [][]string) error
}

// TabName is the tab that holds a user's ledger.
func TabName(userID int64) string {
	return fmt.Sprintf("ledger-%d", userID)
}
