package income

import (
	"context"
	"time"
)

// TransactionRepository defines the interface for bank transaction data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type TransactionRepository interface {
	// Insert records a transaction keyed on external_id. Returns false when a
	// row with the same external_id already exists (idempotent no-op).
	Insert(ctx context.Context, params InsertTransactionParams) (bool, error)

	// ListByUser retrieves a user's income transactions, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*BankTransaction, error)

	// TotalsByCategorySince aggregates income per category from a date
	TotalsByCategorySince(ctx context.Context, userID string, since time.Time) ([]*CategoryTotal, error)
}

// RewardRepository defines the interface for crypto reward data access
type RewardRepository interface {
	// Insert records a reward snapshot keyed on external_id. Returns false
	// when the snapshot already exists (idempotent no-op).
	Insert(ctx context.Context, params InsertRewardParams) (bool, error)

	// ListByUser retrieves a user's reward snapshots, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*CryptoReward, error)

	// SummaryByToken aggregates a user's rewards per token
	SummaryByToken(ctx context.Context, userID string) ([]*RewardSummary, error)
}

// InterestRepository defines the interface for P2P interest data access
type InterestRepository interface {
	// Insert records an interest payment keyed on external_id. Returns false
	// when the payment already exists (idempotent no-op).
	Insert(ctx context.Context, params InsertInterestParams) (bool, error)

	// ListByUser retrieves a user's interest payments, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*InterestPayment, error)

	// TotalSince sums a user's interest income from a date
	TotalSince(ctx context.Context, userID string, since time.Time) (float64, error)
}
