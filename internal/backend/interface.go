package backend

import (
	"context"

	"hubtrack/internal/amqp"
	"hubtrack/internal/services"
	"hubtrack/internal/sheets"
	"hubtrack/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the wired service, the store beneath it and the
// optional publisher. Cleanup releases all of them.
type BackendResult struct {
	Service   *services.HubService
	Store     store.Store
	Publisher *amqp.Client // nil when AMQP is not configured
	Cleanup   CleanupFunc
}

// LedgerResult is the ledger chosen for the worker.
type LedgerResult struct {
	Ledger sheets.Ledger
	Remote bool // false for the in-memory ledger
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateLedger(ctx context.Context, config Config) (*LedgerResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets ledger; empty SpreadsheetID selects the memory ledger
	GoogleSpreadsheetID      string
	GoogleLedgerSheet        string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
