package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"hubtrack/internal/sheets"
)

// Ledger keeps ledger rows in memory. Used when no spreadsheet is configured
// and as a test double.
type Ledger struct {
	mu      sync.Mutex
	entries []sheets.Entry
	failing error
}

var _ sheets.Ledger = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

// AppendEntry stores the entry and returns a synthetic row reference.
func (l *Ledger) AppendEntry(ctx context.Context, e sheets.Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if e.ChangeID <= 0 {
		return "", errors.New("ledger entry without change id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failing != nil {
		return "", l.failing
	}
	l.entries = append(l.entries, e)
	return fmt.Sprintf("mem:%d", len(l.entries)), nil
}

func (l *Ledger) ListChangeIDs(ctx context.Context) (map[int64]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make(map[int64]struct{}, len(l.entries))
	for _, e := range l.entries {
		ids[e.ChangeID] = struct{}{}
	}
	return ids, nil
}

// Entries returns a copy of the stored rows in append order.
func (l *Ledger) Entries() []sheets.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]sheets.Entry(nil), l.entries...)
}

// FailWith makes every following append fail with err; nil restores it.
func (l *Ledger) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failing = err
}
