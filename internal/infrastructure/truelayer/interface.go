package truelayer

import (
	"context"
	"time"
)

// ClientInterface defines the methods required from the TrueLayer API client
type ClientInterface interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Token, error)
	RefreshToken(ctx context.Context, refreshToken string) (*Token, error)
	ListAccounts(ctx context.Context, accessToken string) ([]Account, error)
	GetBalance(ctx context.Context, accessToken, accountID string) (*Balance, error)
	ListTransactions(ctx context.Context, accessToken, accountID string, from time.Time) ([]Transaction, error)
}
