package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"nestegg/internal/domain/connection"
)

type WalletRepository struct {
	db *DB
}

func NewWalletRepository(db *DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(ctx context.Context, params connection.CreateWalletParams) (*connection.Wallet, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", connection.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO wallets (id, user_id, address, chain, label)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, address, chain, label, last_scanned, created_at
	`

	var wallet connection.Wallet
	var lastScanned sql.NullTime

	err := r.db.QueryRowContext(
		ctx, query,
		uuid.NewString(), params.UserID, params.Address, params.Chain, params.Label,
	).Scan(
		&wallet.ID, &wallet.UserID, &wallet.Address, &wallet.Chain,
		&wallet.Label, &lastScanned, &wallet.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, connection.ErrWalletExists
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if lastScanned.Valid {
		wallet.LastScanned = &lastScanned.Time
	}
	return &wallet, nil
}

func (r *WalletRepository) ListByUser(ctx context.Context, userID string) ([]*connection.Wallet, error) {
	query := `
		SELECT id, user_id, address, chain, label, last_scanned, created_at
		FROM wallets
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	return collectWallets(rows)
}

func (r *WalletRepository) ListAll(ctx context.Context) ([]*connection.Wallet, error) {
	query := `
		SELECT id, user_id, address, chain, label, last_scanned, created_at
		FROM wallets
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	return collectWallets(rows)
}

func (r *WalletRepository) ExistsByAddress(ctx context.Context, userID, address string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM wallets WHERE user_id = $1 AND address = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, address).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check wallet existence: %w", err)
	}
	return exists, nil
}

func (r *WalletRepository) UpdateLastScanned(ctx context.Context, id string) error {
	query := `UPDATE wallets SET last_scanned = NOW() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to update last_scanned: %w", err)
	}
	return nil
}

func collectWallets(rows *sql.Rows) ([]*connection.Wallet, error) {
	var wallets []*connection.Wallet
	for rows.Next() {
		var wallet connection.Wallet
		var lastScanned sql.NullTime

		err := rows.Scan(
			&wallet.ID, &wallet.UserID, &wallet.Address, &wallet.Chain,
			&wallet.Label, &lastScanned, &wallet.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}

		if lastScanned.Valid {
			wallet.LastScanned = &lastScanned.Time
		}
		wallets = append(wallets, &wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallets: %w", err)
	}
	return wallets, nil
}
