package repositories

import (
	"context"
	"time"

	"github.com/upb/llm-footprint/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UsageRepository stores and aggregates per-call usage records
type UsageRepository interface {
	// Insert inserts one usage record
	Insert(ctx context.Context, record *models.UsageRecord) error

	// InsertBatch inserts all records of one request. Callers run it inside a transaction.
	InsertBatch(ctx context.Context, records []*models.UsageRecord) error

	// ListByRequestID returns the records of one request, oldest first
	ListByRequestID(ctx context.Context, requestID string) ([]*models.UsageRecord, error)

	// SummarizeByProvider aggregates records created at or after since, per provider and mode
	SummarizeByProvider(ctx context.Context, since time.Time) ([]*models.UsageSummary, error)
}

// HealthChecker reports whether the store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Repositories holds all repository instances
type Repositories struct {
	Usage UsageRepository
}
