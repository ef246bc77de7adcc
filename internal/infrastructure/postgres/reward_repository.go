package postgres

import (
	"context"
	"fmt"

	"nestegg/internal/domain/income"
)

// RewardRepository persists daily crypto reward snapshots. The external_id
// carries the address, source, token and calendar day, so a rescan within
// the same day conflicts and no-ops.
type RewardRepository struct {
	db *DB
}

func NewRewardRepository(db *DB) *RewardRepository {
	return &RewardRepository{db: db}
}

func (r *RewardRepository) Insert(ctx context.Context, params income.InsertRewardParams) (bool, error) {
	if err := params.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", income.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO crypto_rewards (wallet_id, user_id, external_id, token, amount, amount_gbp, source, reward_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (external_id) DO NOTHING
	`

	result, err := r.db.ExecContext(
		ctx, query,
		params.WalletID, params.UserID, params.ExternalID, params.Token,
		params.Amount, params.AmountGBP, params.Source, params.RewardDate,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert reward: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check insert result: %w", err)
	}
	return affected > 0, nil
}

func (r *RewardRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*income.CryptoReward, error) {
	query := `
		SELECT id, wallet_id, user_id, external_id, token, amount, amount_gbp, source, reward_date
		FROM crypto_rewards
		WHERE user_id = $1
		ORDER BY reward_date DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []*income.CryptoReward
	for rows.Next() {
		var reward income.CryptoReward
		err := rows.Scan(
			&reward.ID, &reward.WalletID, &reward.UserID, &reward.ExternalID,
			&reward.Token, &reward.Amount, &reward.AmountGBP, &reward.Source, &reward.RewardDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, &reward)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rewards: %w", err)
	}
	return rewards, nil
}

func (r *RewardRepository) SummaryByToken(ctx context.Context, userID string) ([]*income.RewardSummary, error) {
	query := `
		SELECT token, COALESCE(SUM(amount), 0), COALESCE(SUM(amount_gbp), 0), COUNT(*)
		FROM crypto_rewards
		WHERE user_id = $1
		GROUP BY token
		ORDER BY token
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rewards: %w", err)
	}
	defer rows.Close()

	var summaries []*income.RewardSummary
	for rows.Next() {
		var summary income.RewardSummary
		if err := rows.Scan(&summary.Token, &summary.Amount, &summary.AmountGBP, &summary.Count); err != nil {
			return nil, fmt.Errorf("failed to scan reward summary: %w", err)
		}
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reward summaries: %w", err)
	}
	return summaries, nil
}
