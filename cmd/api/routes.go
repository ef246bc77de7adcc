package main

import (
	"log"
	"net/http"

	httphandlers "nestegg/internal/interfaces/http"
	"nestegg/internal/shared/config"
	"nestegg/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Machine-triggered sync, guarded by the pre-shared cron secret
	cronAuth := middleware.CronAuth(cfg.Cron.Secret)
	mux.Handle("/api/cron/sync", cronAuth(http.HandlerFunc(deps.SyncHandler.HandleCronSync)))

	// User-facing routes, authenticated by the identity provider's session token
	session := middleware.Session(deps.SessionVerifier)

	mux.Handle("/api/bank/connect", session(http.HandlerFunc(deps.BankHandler.HandleConnect)))
	mux.Handle("/api/bank/callback", session(http.HandlerFunc(deps.BankHandler.HandleCallback)))
	mux.Handle("/api/bank/accounts", session(http.HandlerFunc(deps.BankHandler.HandleAccounts)))
	mux.Handle("/api/bank/transactions", session(http.HandlerFunc(deps.BankHandler.HandleTransactions)))
	mux.Handle("/api/bank/connections/{id}", session(http.HandlerFunc(deps.BankHandler.HandleDisconnect)))

	mux.Handle("/api/crypto/wallets", session(http.HandlerFunc(deps.CryptoHandler.HandleWallets)))
	mux.Handle("/api/crypto/scan", session(http.HandlerFunc(deps.CryptoHandler.HandleScan)))
	mux.Handle("/api/crypto/rewards", session(http.HandlerFunc(deps.CryptoHandler.HandleRewards)))

	mux.Handle("/api/p2p/connect", session(http.HandlerFunc(deps.P2PHandler.HandleConnect)))
	mux.Handle("/api/p2p/callback", session(http.HandlerFunc(deps.P2PHandler.HandleCallback)))
	mux.Handle("/api/p2p/interest", session(http.HandlerFunc(deps.P2PHandler.HandleInterest)))
	mux.Handle("/api/p2p/connections/{id}", session(http.HandlerFunc(deps.P2PHandler.HandleDisconnect)))

	mux.Handle("/api/tax/estimate", session(http.HandlerFunc(deps.TaxHandler.HandleEstimate)))

	// Apply global middleware
	handler := middleware.Logging(middleware.Telemetry(middleware.CORS(cfg.Server.AllowedHosts)(mux)))

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
