package main

import (
	"log"

	"nestegg/internal/domain/sync"
	"nestegg/internal/infrastructure/chainscan"
	"nestegg/internal/infrastructure/crypto"
	"nestegg/internal/infrastructure/postgres"
	"nestegg/internal/infrastructure/pricefeed"
	"nestegg/internal/infrastructure/truelayer"
	"nestegg/internal/infrastructure/zopa"
	httphandlers "nestegg/internal/interfaces/http"
	"nestegg/internal/shared/auth"
	"nestegg/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	SyncHandler   *httphandlers.SyncHandler
	BankHandler   *httphandlers.BankHandler
	CryptoHandler *httphandlers.CryptoHandler
	P2PHandler    *httphandlers.P2PHandler
	TaxHandler    *httphandlers.TaxHandler

	// Auth
	SessionVerifier *auth.SessionVerifier

	// Sync services (for scheduler)
	BankSyncer   *sync.BankSyncer
	CryptoSyncer *sync.CryptoSyncer
	P2PSyncer    *sync.P2PSyncer
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize encryptor for tokens at rest
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	connectionRepo := postgres.NewConnectionRepository(db, encryptor)
	bankAccountRepo := postgres.NewBankAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	rewardRepo := postgres.NewRewardRepository(db)
	interestRepo := postgres.NewInterestRepository(db)

	// Initialize provider clients
	trueLayerClient := truelayer.NewClient(
		cfg.TrueLayer.ClientID,
		cfg.TrueLayer.ClientSecret,
		cfg.TrueLayer.RedirectURI,
		cfg.TrueLayer.AuthBaseURL,
		cfg.TrueLayer.APIBaseURL,
	)
	zopaClient := zopa.NewClient(
		cfg.Zopa.ClientID,
		cfg.Zopa.ClientSecret,
		cfg.Zopa.RedirectURI,
		cfg.Zopa.BaseURL,
	)
	scanner := chainscan.NewScanner(chainscan.Config{
		EthereumRPCURL:   cfg.Chains.EthereumRPCURL,
		BSCRPCURL:        cfg.Chains.BSCRPCURL,
		SolanaRPCURL:     cfg.Chains.SolanaRPCURL,
		BlockfrostURL:    cfg.Chains.BlockfrostURL,
		BlockfrostAPIKey: cfg.Chains.BlockfrostAPIKey,
	})
	priceFeed := pricefeed.NewClient()

	// Initialize sync services
	bankSyncer := sync.NewBankSyncer(trueLayerClient, connectionRepo, bankAccountRepo, transactionRepo)
	cryptoSyncer := sync.NewCryptoSyncer(scanner, walletRepo, rewardRepo, priceFeed)
	p2pSyncer := sync.NewP2PSyncer(zopaClient, connectionRepo, interestRepo)
	orchestrator := sync.NewOrchestrator(bankSyncer, cryptoSyncer, p2pSyncer)

	// Initialize auth components
	sessionVerifier := auth.NewSessionVerifier(cfg.Session.Secret)

	// Initialize handlers
	syncHandler := httphandlers.NewSyncHandler(orchestrator)
	bankHandler := httphandlers.NewBankHandler(trueLayerClient, connectionRepo, bankAccountRepo, transactionRepo, bankSyncer, cfg.Server.FrontendURL)
	cryptoHandler := httphandlers.NewCryptoHandler(walletRepo, rewardRepo, cryptoSyncer)
	p2pHandler := httphandlers.NewP2PHandler(zopaClient, connectionRepo, interestRepo, p2pSyncer, cfg.Server.FrontendURL)
	taxHandler := httphandlers.NewTaxHandler(transactionRepo, interestRepo)

	return &Dependencies{
		DB:              db,
		SyncHandler:     syncHandler,
		BankHandler:     bankHandler,
		CryptoHandler:   cryptoHandler,
		P2PHandler:      p2pHandler,
		TaxHandler:      taxHandler,
		SessionVerifier: sessionVerifier,
		BankSyncer:      bankSyncer,
		CryptoSyncer:    cryptoSyncer,
		P2PSyncer:       p2pSyncer,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
