package postgres

import (
	"context"
	"fmt"
	"time"

	"nestegg/internal/domain/income"
)

// TransactionRepository persists income-classified bank transactions.
// Inserts are idempotent on external_id: re-syncing an overlapping window is
// a no-op for rows already present.
type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Insert records a transaction. Returns false when a row with the same
// external_id already exists.
func (r *TransactionRepository) Insert(ctx context.Context, params income.InsertTransactionParams) (bool, error) {
	if err := params.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", income.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO transactions (user_id, bank_account_id, external_id, amount, description, category, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_id) DO NOTHING
	`

	result, err := r.db.ExecContext(
		ctx, query,
		params.UserID, params.BankAccountID, params.ExternalID,
		params.Amount, params.Description, params.Category, params.TransactionDate,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check insert result: %w", err)
	}
	return affected > 0, nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*income.BankTransaction, error) {
	query := `
		SELECT id, user_id, bank_account_id, external_id, amount, description, category, transaction_date, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY transaction_date DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*income.BankTransaction
	for rows.Next() {
		var txn income.BankTransaction
		err := rows.Scan(
			&txn.ID, &txn.UserID, &txn.BankAccountID, &txn.ExternalID,
			&txn.Amount, &txn.Description, &txn.Category, &txn.TransactionDate, &txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

func (r *TransactionRepository) TotalsByCategorySince(ctx context.Context, userID string, since time.Time) ([]*income.CategoryTotal, error) {
	query := `
		SELECT category, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND transaction_date >= $2
		GROUP BY category
		ORDER BY category
	`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate transactions: %w", err)
	}
	defer rows.Close()

	var totals []*income.CategoryTotal
	for rows.Next() {
		var total income.CategoryTotal
		if err := rows.Scan(&total.Category, &total.Total); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, &total)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category totals: %w", err)
	}
	return totals, nil
}
