package postgres

import (
	"context"
	"fmt"
	"time"

	"nestegg/internal/domain/income"
)

type InterestRepository struct {
	db *DB
}

func NewInterestRepository(db *DB) *InterestRepository {
	return &InterestRepository{db: db}
}

func (r *InterestRepository) Insert(ctx context.Context, params income.InsertInterestParams) (bool, error) {
	if err := params.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", income.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO p2p_interest (connection_id, user_id, external_id, amount, rate, description, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_id) DO NOTHING
	`

	result, err := r.db.ExecContext(
		ctx, query,
		params.ConnectionID, params.UserID, params.ExternalID,
		params.Amount, params.Rate, params.Description, params.PaidAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert interest payment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check insert result: %w", err)
	}
	return affected > 0, nil
}

func (r *InterestRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*income.InterestPayment, error) {
	query := `
		SELECT id, connection_id, user_id, external_id, amount, rate, description, paid_at
		FROM p2p_interest
		WHERE user_id = $1
		ORDER BY paid_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list interest payments: %w", err)
	}
	defer rows.Close()

	var payments []*income.InterestPayment
	for rows.Next() {
		var payment income.InterestPayment
		err := rows.Scan(
			&payment.ID, &payment.ConnectionID, &payment.UserID, &payment.ExternalID,
			&payment.Amount, &payment.Rate, &payment.Description, &payment.PaidAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interest payment: %w", err)
		}
		payments = append(payments, &payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interest payments: %w", err)
	}
	return payments, nil
}

func (r *InterestRepository) TotalSince(ctx context.Context, userID string, since time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM p2p_interest
		WHERE user_id = $1 AND paid_at >= $2
	`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum interest payments: %w", err)
	}
	return total, nil
}
