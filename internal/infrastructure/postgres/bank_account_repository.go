package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"nestegg/internal/domain/connection"
)

type BankAccountRepository struct {
	db *DB
}

func NewBankAccountRepository(db *DB) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

func (r *BankAccountRepository) Upsert(ctx context.Context, params connection.UpsertBankAccountParams) (*connection.BankAccount, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", connection.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO bank_accounts (user_id, connection_id, external_id, name, account_number, sort_code, balance_pence, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			account_number = EXCLUDED.account_number,
			sort_code = EXCLUDED.sort_code,
			balance_pence = EXCLUDED.balance_pence,
			currency = EXCLUDED.currency
		RETURNING id, user_id, connection_id, external_id, name, account_number, sort_code,
		          balance_pence, currency, last_synced
	`

	var account connection.BankAccount
	var lastSynced sql.NullTime

	err := r.db.QueryRowContext(
		ctx, query,
		params.UserID, params.ConnectionID, params.ExternalID, params.Name,
		params.AccountNumber, params.SortCode, params.BalancePence, params.Currency,
	).Scan(
		&account.ID, &account.UserID, &account.ConnectionID, &account.ExternalID,
		&account.Name, &account.AccountNumber, &account.SortCode,
		&account.BalancePence, &account.Currency, &lastSynced,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert bank account: %w", err)
	}

	if lastSynced.Valid {
		account.LastSynced = &lastSynced.Time
	}
	return &account, nil
}

func (r *BankAccountRepository) ListByConnection(ctx context.Context, connectionID int64) ([]*connection.BankAccount, error) {
	query := `
		SELECT id, user_id, connection_id, external_id, name, account_number, sort_code,
		       balance_pence, currency, last_synced
		FROM bank_accounts
		WHERE connection_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	defer rows.Close()

	return collectBankAccounts(rows)
}

func (r *BankAccountRepository) ListByUser(ctx context.Context, userID string) ([]*connection.BankAccount, error) {
	query := `
		SELECT id, user_id, connection_id, external_id, name, account_number, sort_code,
		       balance_pence, currency, last_synced
		FROM bank_accounts
		WHERE user_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	defer rows.Close()

	return collectBankAccounts(rows)
}

func (r *BankAccountRepository) UpdateLastSynced(ctx context.Context, id int64) error {
	query := `UPDATE bank_accounts SET last_synced = NOW() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to update last_synced: %w", err)
	}
	return nil
}

func collectBankAccounts(rows *sql.Rows) ([]*connection.BankAccount, error) {
	var accounts []*connection.BankAccount
	for rows.Next() {
		var account connection.BankAccount
		var lastSynced sql.NullTime

		err := rows.Scan(
			&account.ID, &account.UserID, &account.ConnectionID, &account.ExternalID,
			&account.Name, &account.AccountNumber, &account.SortCode,
			&account.BalancePence, &account.Currency, &lastSynced,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}

		if lastSynced.Valid {
			account.LastSynced = &lastSynced.Time
		}
		accounts = append(accounts, &account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bank accounts: %w", err)
	}
	return accounts, nil
}
