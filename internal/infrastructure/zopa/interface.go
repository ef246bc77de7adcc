package zopa

import (
	"context"
	"time"
)

// ClientInterface defines the methods required from the Zopa API client
type ClientInterface interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Token, error)
	RefreshToken(ctx context.Context, refreshToken string) (*Token, error)
	GetAccount(ctx context.Context, accessToken string) (*Account, error)
	ListInterestPayments(ctx context.Context, accessToken string, from time.Time) ([]InterestPayment, error)
}
