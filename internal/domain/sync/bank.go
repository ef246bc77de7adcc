package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"nestegg/internal/domain/connection"
	"nestegg/internal/domain/income"
	"nestegg/internal/infrastructure/truelayer"
)

const (
	// First sync pulls a deep window; recurring syncs only need enough
	// overlap to never miss a transaction between passes.
	bankInitialWindow   = 90 * 24 * time.Hour
	bankRecurringWindow = 7 * 24 * time.Hour
)

// BankSyncer pulls income transactions for every TrueLayer connection.
type BankSyncer struct {
	client       truelayer.ClientInterface
	connections  connection.Repository
	bankAccounts connection.BankAccountRepository
	transactions income.TransactionRepository
	now          func() time.Time
}

// NewBankSyncer creates a new bank syncer
func NewBankSyncer(
	client truelayer.ClientInterface,
	connections connection.Repository,
	bankAccounts connection.BankAccountRepository,
	transactions income.TransactionRepository,
) *BankSyncer {
	return &BankSyncer{
		client:       client,
		connections:  connections,
		bankAccounts: bankAccounts,
		transactions: transactions,
		now:          time.Now,
	}
}

// Sync runs one pass over all bank connections. The returned error is only
// non-nil when the connections themselves cannot be enumerated; per-account
// failures are reported as outcomes.
func (s *BankSyncer) Sync(ctx context.Context) ([]Outcome, int, error) {
	conns, err := s.connections.ListByProvider(ctx, connection.ProviderTrueLayer)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bank connections: %w", err)
	}

	var outcomes []Outcome
	var inserted int
	for _, conn := range conns {
		connOutcomes, connInserted := s.syncConnection(ctx, conn)
		outcomes = append(outcomes, connOutcomes...)
		inserted += connInserted
	}
	return outcomes, inserted, nil
}

// SyncConnection runs the initial sync for one newly linked connection.
func (s *BankSyncer) SyncConnection(ctx context.Context, connectionID int64) ([]Outcome, int, error) {
	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get connection: %w", err)
	}

	outcomes, inserted := s.syncConnection(ctx, conn)
	return outcomes, inserted, nil
}

func (s *BankSyncer) syncConnection(ctx context.Context, conn *connection.Connection) ([]Outcome, int) {
	name := fmt.Sprintf("truelayer/%d", conn.ID)

	accessToken, outcome := s.ensureToken(ctx, conn, name)
	if outcome != nil {
		return []Outcome{*outcome}, 0
	}

	accounts, err := s.client.ListAccounts(ctx, accessToken)
	if err != nil {
		log.Printf("Bank sync: failed to list accounts for connection %d: %v", conn.ID, err)
		return []Outcome{{Source: "bank", Account: name, Status: StatusFailed, Reason: err.Error()}}, 0
	}

	var outcomes []Outcome
	var totalInserted int
	var syncedAccounts int
	for _, apiAccount := range accounts {
		accountOutcome := s.syncAccount(ctx, conn, accessToken, apiAccount)
		totalInserted += accountOutcome.Inserted
		if accountOutcome.Status == StatusSynced {
			syncedAccounts++
		}
		outcomes = append(outcomes, accountOutcome)
	}

	// The connection watermark only advances when at least one account made
	// it through, so a connection whose every account failed stays stale.
	if syncedAccounts > 0 {
		if err := s.connections.UpdateLastSynced(ctx, conn.ID); err != nil {
			log.Printf("Bank sync: failed to record last_synced for connection %d: %v", conn.ID, err)
		}
	}

	return outcomes, totalInserted
}

// ensureToken returns a usable access token, refreshing first if the stored
// one has expired. The refreshed pair is persisted before it is used, so a
// crash mid-pass never strands a consumed refresh token. A terminal outcome
// is returned instead when the connection cannot be synced.
func (s *BankSyncer) ensureToken(ctx context.Context, conn *connection.Connection, name string) (string, *Outcome) {
	if !conn.Expired(s.now()) {
		return conn.AccessToken, nil
	}

	if conn.RefreshToken == nil || *conn.RefreshToken == "" {
		log.Printf("Bank sync: connection %d expired with no refresh token, skipping", conn.ID)
		return "", &Outcome{Source: "bank", Account: name, Status: StatusSkipped, Reason: "token expired, re-link required"}
	}

	token, err := s.client.RefreshToken(ctx, *conn.RefreshToken)
	if err != nil {
		log.Printf("Bank sync: token refresh failed for connection %d: %v", conn.ID, err)
		return "", &Outcome{Source: "bank", Account: name, Status: StatusFailed, Reason: fmt.Sprintf("token refresh failed: %v", err)}
	}

	expiresAt := token.ExpiresAt(s.now())
	update := connection.TokenUpdate{
		AccessToken:    token.AccessToken,
		TokenExpiresAt: &expiresAt,
	}
	if token.RefreshToken != "" {
		update.RefreshToken = &token.RefreshToken
	} else {
		// Providers may omit the refresh token on rotation; keep the old one
		update.RefreshToken = conn.RefreshToken
	}

	if err := s.connections.UpdateTokens(ctx, conn.ID, update); err != nil {
		log.Printf("Bank sync: failed to persist refreshed tokens for connection %d: %v", conn.ID, err)
		return "", &Outcome{Source: "bank", Account: name, Status: StatusFailed, Reason: fmt.Sprintf("failed to persist tokens: %v", err)}
	}

	return token.AccessToken, nil
}

func (s *BankSyncer) syncAccount(ctx context.Context, conn *connection.Connection, accessToken string, apiAccount truelayer.Account) Outcome {
	name := apiAccount.DisplayName
	if name == "" {
		name = apiAccount.AccountID
	}

	// Balance failures must not block transaction sync
	var balancePence int64
	if balance, err := s.client.GetBalance(ctx, accessToken, apiAccount.AccountID); err != nil {
		log.Printf("Bank sync: balance fetch failed for account %s: %v", apiAccount.AccountID, err)
	} else {
		balancePence = int64(balance.Current * 100)
	}

	account, err := s.bankAccounts.Upsert(ctx, connection.UpsertBankAccountParams{
		UserID:        conn.UserID,
		ConnectionID:  conn.ID,
		ExternalID:    apiAccount.AccountID,
		Name:          apiAccount.DisplayName,
		AccountNumber: apiAccount.AccountNumber.Number,
		SortCode:      apiAccount.AccountNumber.SortCode,
		BalancePence:  balancePence,
		Currency:      apiAccount.Currency,
	})
	if err != nil {
		return Outcome{Source: "bank", Account: name, Status: StatusFailed, Reason: fmt.Sprintf("failed to upsert account: %v", err)}
	}

	from := s.now().Add(-bankInitialWindow)
	if account.LastSynced != nil {
		from = s.now().Add(-bankRecurringWindow)
	}

	transactions, err := s.client.ListTransactions(ctx, accessToken, apiAccount.AccountID, from)
	if err != nil {
		return Outcome{Source: "bank", Account: name, Status: StatusFailed, Reason: fmt.Sprintf("failed to list transactions: %v", err)}
	}

	var created int
	for _, txn := range transactions {
		// Only money coming in counts as income
		if !txn.IsCredit() || txn.Amount <= 0 {
			continue
		}

		date, err := txn.GetDate()
		if err != nil {
			log.Printf("Bank sync: skipping transaction %s: %v", txn.TransactionID, err)
			continue
		}

		wasCreated, err := s.transactions.Insert(ctx, income.InsertTransactionParams{
			UserID:          conn.UserID,
			BankAccountID:   account.ID,
			ExternalID:      txn.TransactionID,
			Amount:          txn.Amount,
			Description:     txn.Description,
			Category:        income.Categorize(txn.Description),
			TransactionDate: date,
		})
		if err != nil {
			return Outcome{Source: "bank", Account: name, Status: StatusFailed, Reason: fmt.Sprintf("failed to insert transaction: %v", err), Inserted: created}
		}
		if wasCreated {
			created++
		}
	}

	if err := s.bankAccounts.UpdateLastSynced(ctx, account.ID); err != nil {
		log.Printf("Bank sync: failed to record last_synced for account %d: %v", account.ID, err)
	}

	return Outcome{Source: "bank", Account: name, Status: StatusSynced, Inserted: created}
}
