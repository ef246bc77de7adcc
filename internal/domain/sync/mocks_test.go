package sync

import (
	"context"
	"time"

	"nestegg/internal/domain/connection"
	"nestegg/internal/domain/income"
	"nestegg/internal/infrastructure/chainscan"
	"nestegg/internal/infrastructure/truelayer"
	"nestegg/internal/infrastructure/zopa"
)

type mockConnectionRepo struct {
	CreateFunc           func(ctx context.Context, params connection.CreateConnectionParams) (*connection.Connection, error)
	GetByIDFunc          func(ctx context.Context, id int64) (*connection.Connection, error)
	ListByProviderFunc   func(ctx context.Context, provider string) ([]*connection.Connection, error)
	ListByUserFunc       func(ctx context.Context, userID, provider string) ([]*connection.Connection, error)
	UpdateTokensFunc     func(ctx context.Context, id int64, update connection.TokenUpdate) error
	UpdateLastSyncedFunc func(ctx context.Context, id int64) error
	DeleteFunc           func(ctx context.Context, id int64) error
}

func (m *mockConnectionRepo) Create(ctx context.Context, params connection.CreateConnectionParams) (*connection.Connection, error) {
	return m.CreateFunc(ctx, params)
}

func (m *mockConnectionRepo) GetByID(ctx context.Context, id int64) (*connection.Connection, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockConnectionRepo) ListByProvider(ctx context.Context, provider string) ([]*connection.Connection, error) {
	return m.ListByProviderFunc(ctx, provider)
}

func (m *mockConnectionRepo) ListByUser(ctx context.Context, userID, provider string) ([]*connection.Connection, error) {
	return m.ListByUserFunc(ctx, userID, provider)
}

func (m *mockConnectionRepo) UpdateTokens(ctx context.Context, id int64, update connection.TokenUpdate) error {
	if m.UpdateTokensFunc != nil {
		return m.UpdateTokensFunc(ctx, id, update)
	}
	return nil
}

func (m *mockConnectionRepo) UpdateLastSynced(ctx context.Context, id int64) error {
	if m.UpdateLastSyncedFunc != nil {
		return m.UpdateLastSyncedFunc(ctx, id)
	}
	return nil
}

func (m *mockConnectionRepo) Delete(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

type mockBankAccountRepo struct {
	UpsertFunc           func(ctx context.Context, params connection.UpsertBankAccountParams) (*connection.BankAccount, error)
	ListByConnectionFunc func(ctx context.Context, connectionID int64) ([]*connection.BankAccount, error)
	ListByUserFunc       func(ctx context.Context, userID string) ([]*connection.BankAccount, error)
	UpdateLastSyncedFunc func(ctx context.Context, id int64) error
}

func (m *mockBankAccountRepo) Upsert(ctx context.Context, params connection.UpsertBankAccountParams) (*connection.BankAccount, error) {
	return m.UpsertFunc(ctx, params)
}

func (m *mockBankAccountRepo) ListByConnection(ctx context.Context, connectionID int64) ([]*connection.BankAccount, error) {
	return m.ListByConnectionFunc(ctx, connectionID)
}

func (m *mockBankAccountRepo) ListByUser(ctx context.Context, userID string) ([]*connection.BankAccount, error) {
	return m.ListByUserFunc(ctx, userID)
}

func (m *mockBankAccountRepo) UpdateLastSynced(ctx context.Context, id int64) error {
	if m.UpdateLastSyncedFunc != nil {
		return m.UpdateLastSyncedFunc(ctx, id)
	}
	return nil
}

type mockWalletRepo struct {
	CreateFunc            func(ctx context.Context, params connection.CreateWalletParams) (*connection.Wallet, error)
	ListByUserFunc        func(ctx context.Context, userID string) ([]*connection.Wallet, error)
	ListAllFunc           func(ctx context.Context) ([]*connection.Wallet, error)
	ExistsByAddressFunc   func(ctx context.Context, userID, address string) (bool, error)
	UpdateLastScannedFunc func(ctx context.Context, id string) error
}

func (m *mockWalletRepo) Create(ctx context.Context, params connection.CreateWalletParams) (*connection.Wallet, error) {
	return m.CreateFunc(ctx, params)
}

func (m *mockWalletRepo) ListByUser(ctx context.Context, userID string) ([]*connection.Wallet, error) {
	return m.ListByUserFunc(ctx, userID)
}

func (m *mockWalletRepo) ListAll(ctx context.Context) ([]*connection.Wallet, error) {
	return m.ListAllFunc(ctx)
}

func (m *mockWalletRepo) ExistsByAddress(ctx context.Context, userID, address string) (bool, error) {
	return m.ExistsByAddressFunc(ctx, userID, address)
}

func (m *mockWalletRepo) UpdateLastScanned(ctx context.Context, id string) error {
	if m.UpdateLastScannedFunc != nil {
		return m.UpdateLastScannedFunc(ctx, id)
	}
	return nil
}

type mockTransactionRepo struct {
	InsertFunc                func(ctx context.Context, params income.InsertTransactionParams) (bool, error)
	ListByUserFunc            func(ctx context.Context, userID string, limit int) ([]*income.BankTransaction, error)
	TotalsByCategorySinceFunc func(ctx context.Context, userID string, since time.Time) ([]*income.CategoryTotal, error)
}

func (m *mockTransactionRepo) Insert(ctx context.Context, params income.InsertTransactionParams) (bool, error) {
	return m.InsertFunc(ctx, params)
}

func (m *mockTransactionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*income.BankTransaction, error) {
	return m.ListByUserFunc(ctx, userID, limit)
}

func (m *mockTransactionRepo) TotalsByCategorySince(ctx context.Context, userID string, since time.Time) ([]*income.CategoryTotal, error) {
	return m.TotalsByCategorySinceFunc(ctx, userID, since)
}

type mockRewardRepo struct {
	InsertFunc         func(ctx context.Context, params income.InsertRewardParams) (bool, error)
	ListByUserFunc     func(ctx context.Context, userID string, limit int) ([]*income.CryptoReward, error)
	SummaryByTokenFunc func(ctx context.Context, userID string) ([]*income.RewardSummary, error)
}

func (m *mockRewardRepo) Insert(ctx context.Context, params income.InsertRewardParams) (bool, error) {
	return m.InsertFunc(ctx, params)
}

func (m *mockRewardRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*income.CryptoReward, error) {
	return m.ListByUserFunc(ctx, userID, limit)
}

func (m *mockRewardRepo) SummaryByToken(ctx context.Context, userID string) ([]*income.RewardSummary, error) {
	return m.SummaryByTokenFunc(ctx, userID)
}

type mockInterestRepo struct {
	InsertFunc     func(ctx context.Context, params income.InsertInterestParams) (bool, error)
	ListByUserFunc func(ctx context.Context, userID string, limit int) ([]*income.InterestPayment, error)
	TotalSinceFunc func(ctx context.Context, userID string, since time.Time) (float64, error)
}

func (m *mockInterestRepo) Insert(ctx context.Context, params income.InsertInterestParams) (bool, error) {
	return m.InsertFunc(ctx, params)
}

func (m *mockInterestRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*income.InterestPayment, error) {
	return m.ListByUserFunc(ctx, userID, limit)
}

func (m *mockInterestRepo) TotalSince(ctx context.Context, userID string, since time.Time) (float64, error) {
	return m.TotalSinceFunc(ctx, userID, since)
}

type mockTrueLayerClient struct {
	AuthURLFunc          func(state string) string
	ExchangeCodeFunc     func(ctx context.Context, code string) (*truelayer.Token, error)
	RefreshTokenFunc     func(ctx context.Context, refreshToken string) (*truelayer.Token, error)
	ListAccountsFunc     func(ctx context.Context, accessToken string) ([]truelayer.Account, error)
	GetBalanceFunc       func(ctx context.Context, accessToken, accountID string) (*truelayer.Balance, error)
	ListTransactionsFunc func(ctx context.Context, accessToken, accountID string, from time.Time) ([]truelayer.Transaction, error)
}

func (m *mockTrueLayerClient) AuthURL(state string) string {
	return m.AuthURLFunc(state)
}

func (m *mockTrueLayerClient) ExchangeCode(ctx context.Context, code string) (*truelayer.Token, error) {
	return m.ExchangeCodeFunc(ctx, code)
}

func (m *mockTrueLayerClient) RefreshToken(ctx context.Context, refreshToken string) (*truelayer.Token, error) {
	return m.RefreshTokenFunc(ctx, refreshToken)
}

func (m *mockTrueLayerClient) ListAccounts(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
	return m.ListAccountsFunc(ctx, accessToken)
}

func (m *mockTrueLayerClient) GetBalance(ctx context.Context, accessToken, accountID string) (*truelayer.Balance, error) {
	return m.GetBalanceFunc(ctx, accessToken, accountID)
}

func (m *mockTrueLayerClient) ListTransactions(ctx context.Context, accessToken, accountID string, from time.Time) ([]truelayer.Transaction, error) {
	return m.ListTransactionsFunc(ctx, accessToken, accountID, from)
}

type mockZopaClient struct {
	AuthURLFunc              func(state string) string
	ExchangeCodeFunc         func(ctx context.Context, code string) (*zopa.Token, error)
	RefreshTokenFunc         func(ctx context.Context, refreshToken string) (*zopa.Token, error)
	GetAccountFunc           func(ctx context.Context, accessToken string) (*zopa.Account, error)
	ListInterestPaymentsFunc func(ctx context.Context, accessToken string, from time.Time) ([]zopa.InterestPayment, error)
}

func (m *mockZopaClient) AuthURL(state string) string {
	return m.AuthURLFunc(state)
}

func (m *mockZopaClient) ExchangeCode(ctx context.Context, code string) (*zopa.Token, error) {
	return m.ExchangeCodeFunc(ctx, code)
}

func (m *mockZopaClient) RefreshToken(ctx context.Context, refreshToken string) (*zopa.Token, error) {
	return m.RefreshTokenFunc(ctx, refreshToken)
}

func (m *mockZopaClient) GetAccount(ctx context.Context, accessToken string) (*zopa.Account, error) {
	return m.GetAccountFunc(ctx, accessToken)
}

func (m *mockZopaClient) ListInterestPayments(ctx context.Context, accessToken string, from time.Time) ([]zopa.InterestPayment, error) {
	return m.ListInterestPaymentsFunc(ctx, accessToken, from)
}

type mockScanner struct {
	ScanFunc func(ctx context.Context, address, chain string) ([]chainscan.Reward, error)
}

func (m *mockScanner) Scan(ctx context.Context, address, chain string) ([]chainscan.Reward, error) {
	return m.ScanFunc(ctx, address, chain)
}

type mockPriceFeed struct {
	PriceGBPFunc func(ctx context.Context, symbol string) (float64, error)
}

func (m *mockPriceFeed) PriceGBP(ctx context.Context, symbol string) (float64, error) {
	return m.PriceGBPFunc(ctx, symbol)
}
