package connection

import "context"

// Repository defines the interface for connection data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// Create stores a new OAuth connection with its initial token pair
	Create(ctx context.Context, params CreateConnectionParams) (*Connection, error)

	// GetByID retrieves a connection by its ID
	GetByID(ctx context.Context, id int64) (*Connection, error)

	// ListByProvider retrieves every connection for a provider, across users
	ListByProvider(ctx context.Context, provider string) ([]*Connection, error)

	// ListByUser retrieves a user's connections for a provider
	ListByUser(ctx context.Context, userID, provider string) ([]*Connection, error)

	// UpdateTokens replaces the stored token pair for a connection
	UpdateTokens(ctx context.Context, id int64, update TokenUpdate) error

	// UpdateLastSynced records a successful sync pass for a connection
	UpdateLastSynced(ctx context.Context, id int64) error

	// Delete removes a connection
	Delete(ctx context.Context, id int64) error
}

// BankAccountRepository defines the interface for bank account data access
type BankAccountRepository interface {
	// Upsert creates or refreshes an account row keyed on external_id
	Upsert(ctx context.Context, params UpsertBankAccountParams) (*BankAccount, error)

	// ListByConnection retrieves the accounts under one connection
	ListByConnection(ctx context.Context, connectionID int64) ([]*BankAccount, error)

	// ListByUser retrieves all of a user's bank accounts
	ListByUser(ctx context.Context, userID string) ([]*BankAccount, error)

	// UpdateLastSynced records a successful sync pass for an account
	UpdateLastSynced(ctx context.Context, id int64) error
}

// WalletRepository defines the interface for watched wallet data access
type WalletRepository interface {
	// Create stores a new watched address
	Create(ctx context.Context, params CreateWalletParams) (*Wallet, error)

	// ListByUser retrieves a user's wallets
	ListByUser(ctx context.Context, userID string) ([]*Wallet, error)

	// ListAll retrieves every wallet, across users
	ListAll(ctx context.Context) ([]*Wallet, error)

	// ExistsByAddress checks whether a user already watches an address
	ExistsByAddress(ctx context.Context, userID, address string) (bool, error)

	// UpdateLastScanned records a completed scan for a wallet
	UpdateLastScanned(ctx context.Context, id string) error
}
