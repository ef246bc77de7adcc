package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"nestegg/internal/domain/connection"
	"nestegg/internal/domain/income"
	"nestegg/internal/infrastructure/chainscan"
	"nestegg/internal/infrastructure/pricefeed"
)

const rewardDateFormat = "2006-01-02"

// CryptoSyncer snapshots staking positions for every watched wallet.
type CryptoSyncer struct {
	scanner chainscan.ScannerInterface
	wallets connection.WalletRepository
	rewards income.RewardRepository
	prices  pricefeed.ClientInterface
	now     func() time.Time
}

// NewCryptoSyncer creates a new crypto syncer
func NewCryptoSyncer(
	scanner chainscan.ScannerInterface,
	wallets connection.WalletRepository,
	rewards income.RewardRepository,
	prices pricefeed.ClientInterface,
) *CryptoSyncer {
	return &CryptoSyncer{
		scanner: scanner,
		wallets: wallets,
		rewards: rewards,
		prices:  prices,
		now:     time.Now,
	}
}

// Sync runs one scan pass over every wallet. The returned error is only
// non-nil when wallets cannot be enumerated.
func (s *CryptoSyncer) Sync(ctx context.Context) ([]Outcome, int, error) {
	wallets, err := s.wallets.ListAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wallets: %w", err)
	}
	return s.syncWallets(ctx, wallets)
}

// SyncUser runs an on-demand scan over one user's wallets.
func (s *CryptoSyncer) SyncUser(ctx context.Context, userID string) ([]Outcome, int, error) {
	wallets, err := s.wallets.ListByUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wallets: %w", err)
	}
	return s.syncWallets(ctx, wallets)
}

func (s *CryptoSyncer) syncWallets(ctx context.Context, wallets []*connection.Wallet) ([]Outcome, int, error) {
	var outcomes []Outcome
	var inserted int
	for _, wallet := range wallets {
		outcome := s.syncWallet(ctx, wallet)
		inserted += outcome.Inserted
		outcomes = append(outcomes, outcome)
	}
	return outcomes, inserted, nil
}

func (s *CryptoSyncer) syncWallet(ctx context.Context, wallet *connection.Wallet) Outcome {
	name := wallet.Label
	if name == "" {
		name = wallet.Address
	}

	positions, err := s.scanner.Scan(ctx, wallet.Address, wallet.Chain)
	if err != nil {
		log.Printf("Crypto sync: scan failed for wallet %s: %v", wallet.Address, err)
		return Outcome{Source: "crypto", Account: name, Status: StatusFailed, Reason: err.Error()}
	}

	day := s.now().UTC().Format(rewardDateFormat)
	rewardDate, _ := time.Parse(rewardDateFormat, day)

	var created int
	for _, position := range positions {
		// Pricing is best-effort: a dead price feed records the position
		// with a zero valuation rather than losing the snapshot.
		priceGBP, err := s.prices.PriceGBP(ctx, position.Token)
		if err != nil {
			log.Printf("Crypto sync: price lookup failed for %s: %v", position.Token, err)
			priceGBP = 0
		}

		externalID := fmt.Sprintf("%s:%s:%s:%s", wallet.Address, position.Source, position.Token, day)
		wasCreated, err := s.rewards.Insert(ctx, income.InsertRewardParams{
			WalletID:   wallet.ID,
			UserID:     wallet.UserID,
			ExternalID: externalID,
			Token:      position.Token,
			Amount:     position.Amount,
			AmountGBP:  position.Amount * priceGBP,
			Source:     position.Source,
			RewardDate: rewardDate,
		})
		if err != nil {
			return Outcome{Source: "crypto", Account: name, Status: StatusFailed, Reason: fmt.Sprintf("failed to insert reward: %v", err), Inserted: created}
		}
		if wasCreated {
			created++
		}
	}

	if err := s.wallets.UpdateLastScanned(ctx, wallet.ID); err != nil {
		log.Printf("Crypto sync: failed to record last_scanned for wallet %s: %v", wallet.ID, err)
	}

	return Outcome{Source: "crypto", Account: name, Status: StatusSynced, Inserted: created}
}
