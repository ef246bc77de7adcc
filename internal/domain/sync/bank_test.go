package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"nestegg/internal/domain/connection"
	"nestegg/internal/domain/income"
	"nestegg/internal/infrastructure/truelayer"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func liveConnection(id int64) *connection.Connection {
	return &connection.Connection{
		ID:             id,
		UserID:         "user-1",
		Provider:       connection.ProviderTrueLayer,
		AccessToken:    "access-token",
		RefreshToken:   strPtr("refresh-token"),
		TokenExpiresAt: timePtr(testNow.Add(time.Hour)),
	}
}

func testAccount(id string) truelayer.Account {
	account := truelayer.Account{
		AccountID:   id,
		DisplayName: "Current Account",
		Currency:    "GBP",
	}
	account.AccountNumber.Number = "12345678"
	account.AccountNumber.SortCode = "12-34-56"
	return account
}

func newTestBankSyncer(
	client *mockTrueLayerClient,
	connections *mockConnectionRepo,
	bankAccounts *mockBankAccountRepo,
	transactions *mockTransactionRepo,
) *BankSyncer {
	s := NewBankSyncer(client, connections, bankAccounts, transactions)
	s.now = func() time.Time { return testNow }
	return s
}

func TestBankSyncer_Sync_InsertsCreditsOnly(t *testing.T) {
	var inserted []income.InsertTransactionParams

	client := &mockTrueLayerClient{
		ListAccountsFunc: func(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
			if accessToken != "access-token" {
				t.Errorf("expected stored access token, got %q", accessToken)
			}
			return []truelayer.Account{testAccount("acc-1")}, nil
		},
		GetBalanceFunc: func(ctx context.Context, accessToken, accountID string) (*truelayer.Balance, error) {
			return &truelayer.Balance{Current: 1250.50, Currency: "GBP"}, nil
		},
		ListTransactionsFunc: func(ctx context.Context, accessToken, accountID string, from time.Time) ([]truelayer.Transaction, error) {
			return []truelayer.Transaction{
				{TransactionID: "txn-1", Description: "Dividend payment from Vanguard", Amount: 45.20, TransactionType: "CREDIT", Timestamp: "2025-06-10T09:00:00Z"},
				{TransactionID: "txn-2", Description: "Monthly rent - Flat 2", Amount: 950.00, TransactionType: "CREDIT", Timestamp: "2025-06-01T09:00:00Z"},
				{TransactionID: "txn-3", Description: "Tesco groceries", Amount: 52.30, TransactionType: "DEBIT", Timestamp: "2025-06-12T09:00:00Z"},
				{TransactionID: "txn-4", Description: "Interest earned", Amount: 3.10, TransactionType: "CREDIT", Timestamp: "2025-06-14T09:00:00Z"},
			}, nil
		},
	}
	connections := &mockConnectionRepo{
		ListByProviderFunc: func(ctx context.Context, provider string) ([]*connection.Connection, error) {
			if provider != connection.ProviderTrueLayer {
				t.Errorf("expected provider %q, got %q", connection.ProviderTrueLayer, provider)
			}
			return []*connection.Connection{liveConnection(1)}, nil
		},
	}
	bankAccounts := &mockBankAccountRepo{
		UpsertFunc: func(ctx context.Context, params connection.UpsertBankAccountParams) (*connection.BankAccount, error) {
			if params.BalancePence != 125050 {
				t.Errorf("expected balance 125050 pence, got %d", params.BalancePence)
			}
			return &connection.BankAccount{ID: 10, UserID: params.UserID, ExternalID: params.ExternalID}, nil
		},
	}
	transactions := &mockTransactionRepo{
		InsertFunc: func(ctx context.Context, params income.InsertTransactionParams) (bool, error) {
			inserted = append(inserted, params)
			return true, nil
		},
	}

	syncer := newTestBankSyncer(client, connections, bankAccounts, transactions)
	outcomes, count, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	if count != 3 {
		t.Errorf("expected 3 inserted transactions, got %d", count)
	}
	if len(inserted) != 3 {
		t.Fatalf("expected 3 insert calls, got %d", len(inserted))
	}
	if inserted[0].Category != "dividend" {
		t.Errorf("expected dividend category, got %q", inserted[0].Category)
	}
	if inserted[1].Category != "rental" {
		t.Errorf("expected rental category, got %q", inserted[1].Category)
	}
	if inserted[2].Category != "interest" {
		t.Errorf("expected interest category, got %q", inserted[2].Category)
	}
	if inserted[0].BankAccountID != 10 {
		t.Errorf("expected bank account ID 10, got %d", inserted[0].BankAccountID)
	}

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].Status != StatusSynced {
		t.Errorf("expected status %q, got %q", StatusSynced, outcomes[0].Status)
	}
	if outcomes[0].Inserted != 3 {
		t.Errorf("expected outcome inserted 3, got %d", outcomes[0].Inserted)
	}
}

func TestBankSyncer_Sync_SecondPassInsertsNothing(t *testing.T) {
	client := &mockTrueLayerClient{
		ListAccountsFunc: func(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
			return []truelayer.Account{testAccount("acc-1")}, nil
		},
		GetBalanceFunc: func(ctx context.Context, accessToken, accountID string) (*truelayer.Balance, error) {
			return &truelayer.Balance{Current: 100}, nil
		},
		ListTransactionsFunc: func(ctx context.Context, accessToken, accountID string, from time.Time) ([]truelayer.Transaction, error) {
			return []truelayer.Transaction{
				{TransactionID: "txn-1", Description: "Dividend", Amount: 45.20, TransactionType: "CREDIT", Timestamp: "2025-06-10T09:00:00Z"},
			}, nil
		},
	}
	connections := &mockConnectionRepo{
		ListByProviderFunc: func(ctx context.Context, provider string) ([]*connection.Connection, error) {
			return []*connection.Connection{liveConnection(1)}, nil
		},
	}
	bankAccounts := &mockBankAccountRepo{
		UpsertFunc: func(ctx context.Context, params connection.UpsertBankAccountParams) (*connection.BankAccount, error) {
			return &connection.BankAccount{ID: 10}, nil
		},
	}
	transactions := &mockTransactionRepo{
		InsertFunc: func(ctx context.Context, params income.InsertTransactionParams) (bool, error) {
			return false, nil // already recorded
		},
	}

	syncer := newTestBankSyncer(client, connections, bankAccounts, transactions)
	outcomes, count, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 inserted on replay, got %d", count)
	}
	if outcomes[0].Status != StatusSynced {
		t.Errorf("expected replay to still report %q, got %q", StatusSynced, outcomes[0].Status)
	}
}

func TestBankSyncer_Sync_RefreshPersistedBeforeUse(t *testing.T) {
	var calls []string

	expired := liveConnection(1)
	expired.TokenExpiresAt = timePtr(testNow.Add(-time.Minute))

	client := &mockTrueLayerClient{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*truelayer.Token, error) {
			calls = append(calls, "refresh")
			if refreshToken != "refresh-token" {
				t.Errorf("expected stored refresh token, got %q", refreshToken)
			}
			return &truelayer.Token{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 3600}, nil
		},
		ListAccountsFunc: func(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
			calls = append(calls, "accounts")
			if accessToken != "new-access" {
				t.Errorf("expected refreshed access token, got %q", accessToken)
			}
			return nil, nil
		},
	}
	connections := &mockConnectionRepo{
		ListByProviderFunc: func(ctx context.Context, provider string) ([]*connection.Connection, error) {
			return []*connection.Connection{expired}, nil
		},
		UpdateTokensFunc: func(ctx context.Context, id int64, update connection.TokenUpdate) error {
			calls = append(calls, "persist")
			if update.AccessToken != "new-access" {
				t.Errorf("expected persisted access token new-access, got %q", update.AccessToken)
			}
			if update.RefreshToken == nil || *update.RefreshToken != "new-refresh" {
				t.Error("expected rotated refresh token to be persisted")
			}
			want := testNow.Add(time.Hour)
			if update.TokenExpiresAt == nil || !update.TokenExpiresAt.Equal(want) {
				t.Errorf("expected expiry %v, got %v", want, update.TokenExpiresAt)
			}
			return nil
		},
	}

	syncer := newTestBankSyncer(client, connections, &mockBankAccountRepo{}, &mockTransactionRepo{})
	_, _, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	if len(calls) != 3 || calls[0] != "refresh" || calls[1] != "persist" || calls[2] != "accounts" {
		t.Errorf("expected refresh, persist, accounts order, got %v", calls)
	}
}

func TestBankSyncer_Sync_RefreshKeepsOldTokenWhenNotRotated(t *testing.T) {
	expired := liveConnection(1)
	expired.TokenExpiresAt = timePtr(testNow.Add(-time.Minute))

	client := &mockTrueLayerClient{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*truelayer.Token, error) {
			return &truelayer.Token{AccessToken: "new-access", ExpiresIn: 3600}, nil
		},
		ListAccountsFunc: func(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
			return nil, nil
		},
	}
	connections := &mockConnectionRepo{
		ListByProviderFunc: func(ctx context.Context, provider string) ([]*connection.Connection, error) {
			return []*connection.Connection{expired}, nil
		},
		UpdateTokensFunc: func(ctx context.Context, id int64, update connection.TokenUpdate) error {
			if update.RefreshToken == nil || *update.RefreshToken != "refresh-token" {
				t.Error("expected old refresh token to be kept when the provider omits it")
			}
			return nil
		},
	}

	syncer := newTestBankSyncer(client, connections, &mockBankAccountRepo{}, &mockTransactionRepo{})
	if _, _, err := syncer.Sync(context.Background()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
}

func TestBankSyncer_Sync_ExpiredWithoutRefreshTokenSkips(t *testing.T) {
	expired := liveConnection(1)
	expired.TokenExpiresAt = timePtr(testNow.Add(-time.Minute))
	expired.RefreshToken = nil

	client := &mockTrueLayerClient{
		ListAccountsFunc: func(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
			t.Error("ListAccounts must not be called for a skipped connection")
			return nil, nil
		},
	}
	connections := &mockConnectionRepo{
		ListByProviderFunc: func(ctx context.Context, provider string) ([]*connection.Connection, error) {
			return []*connection.Connection{expired}, nil
		},
	}

	syncer := newTestBankSyncer(client, connections, &mockBankAccountRepo{}, &mockTransactionRepo{})
	outcomes, count, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 inserted, got %d", count)
	}
	if len(outcomes) != 1 || outcomes[0].Status != StatusSkipped {
		t.Fatalf("expected a single skipped outcome, got %+v", outcomes)
	}
	if outcomes[0].Reason == "" {
		t.Error("expected skip reason to be set")
	}
}

func TestBankSyncer_Sync_RefreshFailureFailsConnection(t *testing.T) {
	expired := liveConnection(1)
	expired.TokenExpiresAt = timePtr(testNow.Add(-time.Minute))

	client := &mockTrueLayerClient{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*truelayer.Token, error) {
			return nil, errors.New("invalid_grant")
		},
		ListAccountsFunc: func(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
			t.Error("ListAccounts must not be called after a failed refresh")
			return nil, nil
		},
	}
	connections := &mockConnectionRepo{
		ListByProviderFunc: func(ctx context.Context, provider string) ([]*connection.Connection, error) {
			return []*connection.Connection{expired}, nil
		},
	}

	syncer := newTestBankSyncer(client, connections, &mockBankAccountRepo{}, &mockTransactionRepo{})
	outcomes, _, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != StatusFailed {
		t.Fatalf("expected a single failed outcome, got %+v", outcomes)
	}
}

func TestBankSyncer_Sync_Windows(t *testing.T) {
	tests := []struct {
		name       string
		lastSynced *time.Time
		wantFrom   time.Time
	}{
		{
			name:       "initial sync pulls ninety days",
			lastSynced: nil,
			wantFrom:   testNow.Add(-90 * 24 * time.Hour),
		},
		{
			name:       "recurring sync pulls seven days",
			lastSynced: timePtr(testNow.Add(-24 * time.Hour)),
			wantFrom:   testNow.Add(-7 * 24 * time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotFrom time.Time
			client := &mockTrueLayerClient{
				ListAccountsFunc: func(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
					return []truelayer.Account{testAccount("acc-1")}, nil
				},
				GetBalanceFunc: func(ctx context.Context, accessToken, accountID string) (*truelayer.Balance, error) {
					return &truelayer.Balance{Current: 100}, nil
				},
				ListTransactionsFunc: func(ctx context.Context, accessToken, accountID string, from time.Time) ([]truelayer.Transaction, error) {
					gotFrom = from
					return nil, nil
				},
			}
			connections := &mockConnectionRepo{
				ListByProviderFunc: func(ctx context.Context, provider string) ([]*connection.Connection, error) {
					return []*connection.Connection{liveConnection(1)}, nil
				},
			}
			bankAccounts := &mockBankAccountRepo{
				UpsertFunc: func(ctx context.Context, params connection.UpsertBankAccountParams) (*connection.BankAccount, error) {
					return &connection.BankAccount{ID: 10, LastSynced: tt.lastSynced}, nil
				},
			}

			syncer := newTestBankSyncer(client, connections, bankAccounts, &mockTransactionRepo{})
			if _, _, err := syncer.Sync(context.Background()); err != nil {
				t.Fatalf("Sync returned error: %v", err)
			}
			if !gotFrom.Equal(tt.wantFrom) {
				t.Errorf("expected from %v, got %v", tt.wantFrom, gotFrom)
			}
		})
	}
}

func TestBankSyncer_Sync_BalanceFailureDoesNotBlockTransactions(t *testing.T) {
	client := &mockTrueLayerClient{
		ListAccountsFunc: func(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
			return []truelayer.Account{testAccount("acc-1")}, nil
		},
		GetBalanceFunc: func(ctx context.Context, accessToken, accountID string) (*truelayer.Balance, error) {
			return nil, errors.New("balance endpoint down")
		},
		ListTransactionsFunc: func(ctx context.Context, accessToken, accountID string, from time.Time) ([]truelayer.Transaction, error) {
			return []truelayer.Transaction{
				{TransactionID: "txn-1", Description: "Dividend", Amount: 10, TransactionType: "CREDIT", Timestamp: "2025-06-10T09:00:00Z"},
			}, nil
		},
	}
	connections := &mockConnectionRepo{
		ListByProviderFunc: func(ctx context.Context, provider string) ([]*connection.Connection, error) {
			return []*connection.Connection{liveConnection(1)}, nil
		},
	}
	bankAccounts := &mockBankAccountRepo{
		UpsertFunc: func(ctx context.Context, params connection.UpsertBankAccountParams) (*connection.BankAccount, error) {
			if params.BalancePence != 0 {
				t.Errorf("expected zero balance on fetch failure, got %d", params.BalancePence)
			}
			return &connection.BankAccount{ID: 10}, nil
		},
	}
	transactions := &mockTransactionRepo{
		InsertFunc: func(ctx context.Context, params income.InsertTransactionParams) (bool, error) {
			return true, nil
		},
	}

	syncer := newTestBankSyncer(client, connections, bankAccounts, transactions)
	outcomes, count, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 inserted transaction, got %d", count)
	}
	if outcomes[0].Status != StatusSynced {
		t.Errorf("expected status %q, got %q", StatusSynced, outcomes[0].Status)
	}
}

func TestBankSyncer_Sync_PartialFailureIsolation(t *testing.T) {
	var lastSyncedIDs []int64

	client := &mockTrueLayerClient{
		ListAccountsFunc: func(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
			if accessToken == "bad-token" {
				return nil, errors.New("401 unauthorized")
			}
			return []truelayer.Account{testAccount("acc-1")}, nil
		},
		GetBalanceFunc: func(ctx context.Context, accessToken, accountID string) (*truelayer.Balance, error) {
			return &truelayer.Balance{Current: 100}, nil
		},
		ListTransactionsFunc: func(ctx context.Context, accessToken, accountID string, from time.Time) ([]truelayer.Transaction, error) {
			return nil, nil
		},
	}

	broken := liveConnection(1)
	broken.AccessToken = "bad-token"
	healthy := liveConnection(2)

	connections := &mockConnectionRepo{
		ListByProviderFunc: func(ctx context.Context, provider string) ([]*connection.Connection, error) {
			return []*connection.Connection{broken, healthy}, nil
		},
		UpdateLastSyncedFunc: func(ctx context.Context, id int64) error {
			lastSyncedIDs = append(lastSyncedIDs, id)
			return nil
		},
	}
	bankAccounts := &mockBankAccountRepo{
		UpsertFunc: func(ctx context.Context, params connection.UpsertBankAccountParams) (*connection.BankAccount, error) {
			return &connection.BankAccount{ID: 10}, nil
		},
	}

	syncer := newTestBankSyncer(client, connections, bankAccounts, &mockTransactionRepo{})
	outcomes, _, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Status != StatusFailed {
		t.Errorf("expected first connection to fail, got %q", outcomes[0].Status)
	}
	if outcomes[1].Status != StatusSynced {
		t.Errorf("expected second connection to sync, got %q", outcomes[1].Status)
	}
	if len(lastSyncedIDs) != 1 || lastSyncedIDs[0] != 2 {
		t.Errorf("expected only connection 2 to advance last_synced, got %v", lastSyncedIDs)
	}
}

func TestBankSyncer_Sync_EnumerationFailure(t *testing.T) {
	connections := &mockConnectionRepo{
		ListByProviderFunc: func(ctx context.Context, provider string) ([]*connection.Connection, error) {
			return nil, errors.New("database unavailable")
		},
	}

	syncer := newTestBankSyncer(&mockTrueLayerClient{}, connections, &mockBankAccountRepo{}, &mockTransactionRepo{})
	_, _, err := syncer.Sync(context.Background())
	if err == nil {
		t.Fatal("expected error when connections cannot be listed")
	}
}

func TestBankSyncer_SyncConnection(t *testing.T) {
	client := &mockTrueLayerClient{
		ListAccountsFunc: func(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
			return []truelayer.Account{testAccount("acc-1")}, nil
		},
		GetBalanceFunc: func(ctx context.Context, accessToken, accountID string) (*truelayer.Balance, error) {
			return &truelayer.Balance{Current: 100}, nil
		},
		ListTransactionsFunc: func(ctx context.Context, accessToken, accountID string, from time.Time) ([]truelayer.Transaction, error) {
			return []truelayer.Transaction{
				{TransactionID: "txn-1", Description: "Freelance invoice", Amount: 500, TransactionType: "CREDIT", Timestamp: "2025-06-10T09:00:00Z"},
			}, nil
		},
	}
	connections := &mockConnectionRepo{
		GetByIDFunc: func(ctx context.Context, id int64) (*connection.Connection, error) {
			if id != 7 {
				t.Errorf("expected lookup of connection 7, got %d", id)
			}
			return liveConnection(7), nil
		},
	}
	bankAccounts := &mockBankAccountRepo{
		UpsertFunc: func(ctx context.Context, params connection.UpsertBankAccountParams) (*connection.BankAccount, error) {
			return &connection.BankAccount{ID: 10}, nil
		},
	}
	transactions := &mockTransactionRepo{
		InsertFunc: func(ctx context.Context, params income.InsertTransactionParams) (bool, error) {
			if params.Category != "freelance" {
				t.Errorf("expected freelance category, got %q", params.Category)
			}
			return true, nil
		},
	}

	syncer := newTestBankSyncer(client, connections, bankAccounts, transactions)
	outcomes, count, err := syncer.SyncConnection(context.Background(), 7)
	if err != nil {
		t.Fatalf("SyncConnection returned error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 inserted transaction, got %d", count)
	}
	if len(outcomes) != 1 || outcomes[0].Status != StatusSynced {
		t.Fatalf("expected a single synced outcome, got %+v", outcomes)
	}
}

func TestBankSyncer_Sync_AllAccountsFailedKeepsConnectionStale(t *testing.T) {
	var watermarkAdvanced bool

	client := &mockTrueLayerClient{
		ListAccountsFunc: func(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
			return []truelayer.Account{testAccount("acc-1"), testAccount("acc-2")}, nil
		},
		GetBalanceFunc: func(ctx context.Context, accessToken, accountID string) (*truelayer.Balance, error) {
			return &truelayer.Balance{Current: 100, Currency: "GBP"}, nil
		},
		ListTransactionsFunc: func(ctx context.Context, accessToken, accountID string, from time.Time) ([]truelayer.Transaction, error) {
			return nil, errors.New("provider timeout")
		},
	}
	connections := &mockConnectionRepo{
		ListByProviderFunc: func(ctx context.Context, provider string) ([]*connection.Connection, error) {
			return []*connection.Connection{liveConnection(1)}, nil
		},
		UpdateLastSyncedFunc: func(ctx context.Context, id int64) error {
			watermarkAdvanced = true
			return nil
		},
	}
	bankAccounts := &mockBankAccountRepo{
		UpsertFunc: func(ctx context.Context, params connection.UpsertBankAccountParams) (*connection.BankAccount, error) {
			return &connection.BankAccount{ID: 10}, nil
		},
	}
	transactions := &mockTransactionRepo{}

	syncer := newTestBankSyncer(client, connections, bankAccounts, transactions)
	outcomes, _, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	for _, outcome := range outcomes {
		if outcome.Status != StatusFailed {
			t.Errorf("expected all accounts to fail, got %+v", outcome)
		}
	}
	if watermarkAdvanced {
		t.Error("connection last_synced advanced although every account failed")
	}
}
