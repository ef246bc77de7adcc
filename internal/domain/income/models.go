package income

import (
	"errors"
	"time"
)

// Income record domain errors
var (
	ErrInvalidInput = errors.New("invalid input")
)

// BankTransaction is one income-classified bank transaction. Amounts are
// positive GBP values; debits never reach this type.
type BankTransaction struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"userId"`
	BankAccountID   int64     `json:"bankAccountId"`
	ExternalID      string    `json:"externalId"`
	Amount          float64   `json:"amount"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	TransactionDate time.Time `json:"transactionDate"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CryptoReward is a daily snapshot of staking holdings for one wallet and
// source. The external id buckets by calendar day so rescans are no-ops.
type CryptoReward struct {
	ID         int64     `json:"id"`
	WalletID   string    `json:"walletId"`
	UserID     string    `json:"userId"`
	ExternalID string    `json:"externalId"`
	Token      string    `json:"token"`
	Amount     float64   `json:"amount"`
	AmountGBP  float64   `json:"amountGbp"`
	Source     string    `json:"source"`
	RewardDate time.Time `json:"rewardDate"`
}

// InterestPayment is one P2P lending interest credit.
type InterestPayment struct {
	ID           int64     `json:"id"`
	ConnectionID int64     `json:"connectionId"`
	UserID       string    `json:"userId"`
	ExternalID   string    `json:"externalId"`
	Amount       float64   `json:"amount"`
	Rate         float64   `json:"rate"`
	Description  string    `json:"description"`
	PaidAt       time.Time `json:"paidAt"`
}

// InsertTransactionParams contains parameters for recording a bank transaction
type InsertTransactionParams struct {
	UserID          string
	BankAccountID   int64
	ExternalID      string
	Amount          float64
	Description     string
	Category        string
	TransactionDate time.Time
}

func (p InsertTransactionParams) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.BankAccountID <= 0 {
		return errors.New("valid bank account ID is required")
	}
	if p.ExternalID == "" {
		return errors.New("external transaction ID is required")
	}
	if p.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	return nil
}

// InsertRewardParams contains parameters for recording a crypto reward snapshot
type InsertRewardParams struct {
	WalletID   string
	UserID     string
	ExternalID string
	Token      string
	Amount     float64
	AmountGBP  float64
	Source     string
	RewardDate time.Time
}

func (p InsertRewardParams) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.WalletID == "" {
		return errors.New("wallet ID is required")
	}
	if p.ExternalID == "" {
		return errors.New("external reward ID is required")
	}
	if p.Token == "" {
		return errors.New("token symbol is required")
	}
	return nil
}

// InsertInterestParams contains parameters for recording a P2P interest payment
type InsertInterestParams struct {
	ConnectionID int64
	UserID       string
	ExternalID   string
	Amount       float64
	Rate         float64
	Description  string
	PaidAt       time.Time
}

func (p InsertInterestParams) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.ConnectionID <= 0 {
		return errors.New("valid connection ID is required")
	}
	if p.ExternalID == "" {
		return errors.New("external payment ID is required")
	}
	return nil
}

// RewardSummary aggregates rewards per token for one user.
type RewardSummary struct {
	Token     string  `json:"token"`
	Amount    float64 `json:"amount"`
	AmountGBP float64 `json:"amountGbp"`
	Count     int     `json:"count"`
}

// CategoryTotal aggregates income per category for one user.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}
