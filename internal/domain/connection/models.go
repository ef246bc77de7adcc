package connection

import (
	"errors"
	"time"
)

// Providers for OAuth-linked income sources
const (
	ProviderTrueLayer = "truelayer"
	ProviderZopa      = "zopa"
)

// Domain errors
var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrWalletExists       = errors.New("wallet already connected")
	ErrUnsupportedChain   = errors.New("unsupported chain address")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidInput       = errors.New("invalid input")
)

// Connection is an OAuth link to an external income provider. Tokens are
// stored encrypted; the repository decrypts on read.
type Connection struct {
	ID             int64      `json:"id"`
	UserID         string     `json:"userId"`
	Provider       string     `json:"provider"`
	AccessToken    string     `json:"-"`
	RefreshToken   *string    `json:"-"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt"`
	LastSynced     *time.Time `json:"lastSynced"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Expired reports whether the access token has an expiry in the past.
// A connection with no recorded expiry is treated as live.
func (c *Connection) Expired(now time.Time) bool {
	return c.TokenExpiresAt != nil && c.TokenExpiresAt.Before(now)
}

// BankAccount is one account under a TrueLayer connection. Balances are held
// in minor units to avoid float drift on display values.
type BankAccount struct {
	ID            int64      `json:"id"`
	UserID        string     `json:"userId"`
	ConnectionID  int64      `json:"connectionId"`
	ExternalID    string     `json:"externalId"`
	Name          string     `json:"name"`
	AccountNumber string     `json:"accountNumber"`
	SortCode      string     `json:"sortCode"`
	BalancePence  int64      `json:"balancePence"`
	Currency      string     `json:"currency"`
	LastSynced    *time.Time `json:"lastSynced"`
}

// Wallet is a watched on-chain address. No keys are held, scanning is
// read-only.
type Wallet struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Address     string     `json:"address"`
	Chain       string     `json:"chain"`
	Label       string     `json:"label"`
	LastScanned *time.Time `json:"lastScanned"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreateConnectionParams contains parameters for storing a new OAuth link
type CreateConnectionParams struct {
	UserID         string
	Provider       string
	AccessToken    string
	RefreshToken   *string
	TokenExpiresAt *time.Time
}

func (p CreateConnectionParams) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.Provider != ProviderTrueLayer && p.Provider != ProviderZopa {
		return errors.New("unknown provider")
	}
	if p.AccessToken == "" {
		return errors.New("access token is required")
	}
	return nil
}

// UpsertBankAccountParams contains parameters for creating or refreshing a
// bank account row keyed on the provider's account id
type UpsertBankAccountParams struct {
	UserID        string
	ConnectionID  int64
	ExternalID    string
	Name          string
	AccountNumber string
	SortCode      string
	BalancePence  int64
	Currency      string
}

func (p UpsertBankAccountParams) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.ConnectionID <= 0 {
		return errors.New("valid connection ID is required")
	}
	if p.ExternalID == "" {
		return errors.New("external account ID is required")
	}
	return nil
}

// CreateWalletParams contains parameters for watching a new address
type CreateWalletParams struct {
	UserID  string
	Address string
	Chain   string
	Label   string
}

func (p CreateWalletParams) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.Address == "" {
		return errors.New("address is required")
	}
	if p.Chain == "" {
		return errors.New("chain is required")
	}
	return nil
}

// TokenUpdate carries a refreshed token pair. Persisted before the new token
// is used so a crash mid-sync never strands a consumed refresh token.
type TokenUpdate struct {
	AccessToken    string
	RefreshToken   *string
	TokenExpiresAt *time.Time
}
