package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"nestegg/internal/domain/connection"
	"nestegg/internal/domain/income"
	"nestegg/internal/domain/sync"
	"nestegg/internal/shared/middleware"
)

// CryptoSyncService runs an on-demand scan over one user's wallets
type CryptoSyncService interface {
	SyncUser(ctx context.Context, userID string) ([]sync.Outcome, int, error)
}

type CryptoHandler struct {
	wallets connection.WalletRepository
	rewards income.RewardRepository
	syncer  CryptoSyncService
}

func NewCryptoHandler(
	wallets connection.WalletRepository,
	rewards income.RewardRepository,
	syncer CryptoSyncService,
) *CryptoHandler {
	return &CryptoHandler{
		wallets: wallets,
		rewards: rewards,
		syncer:  syncer,
	}
}

type AddWalletRequest struct {
	Address string `json:"address"`
	Label   string `json:"label"`
}

type ScanResponse struct {
	Outcomes []sync.Outcome `json:"outcomes"`
	Inserted int            `json:"inserted"`
}

// HandleWallets routes wallet collection requests based on method
func (h *CryptoHandler) HandleWallets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListWallets(w, r)
	case http.MethodPost:
		h.handleAddWallet(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CryptoHandler) handleListWallets(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	wallets, err := h.wallets.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing wallets for user %s: %v", userID, err)
		http.Error(w, "Failed to list wallets", http.StatusInternalServerError)
		return
	}
	if wallets == nil {
		wallets = []*connection.Wallet{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(wallets)
}

func (h *CryptoHandler) handleAddWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req AddWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding add wallet request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	address := strings.TrimSpace(req.Address)
	chain, err := connection.DetectChain(address)
	if err != nil {
		http.Error(w, "Unrecognized wallet address", http.StatusBadRequest)
		return
	}

	params := connection.CreateWalletParams{
		UserID:  userID,
		Address: address,
		Chain:   chain,
		Label:   strings.TrimSpace(req.Label),
	}
	if err := params.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	wallet, err := h.wallets.Create(r.Context(), params)
	if err != nil {
		if errors.Is(err, connection.ErrWalletExists) {
			http.Error(w, "Wallet already connected", http.StatusBadRequest)
			return
		}
		log.Printf("Error creating wallet for user %s: %v", userID, err)
		http.Error(w, "Failed to add wallet", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(wallet)
}

// HandleScan runs an on-demand scan of the caller's wallets
func (h *CryptoHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	outcomes, inserted, err := h.syncer.SyncUser(r.Context(), userID)
	if err != nil {
		log.Printf("Error scanning wallets for user %s: %v", userID, err)
		http.Error(w, "Failed to scan wallets", http.StatusInternalServerError)
		return
	}
	if outcomes == nil {
		outcomes = []sync.Outcome{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ScanResponse{Outcomes: outcomes, Inserted: inserted})
}

// HandleRewards returns the caller's reward summary grouped by token
func (h *CryptoHandler) HandleRewards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summary, err := h.rewards.SummaryByToken(r.Context(), userID)
	if err != nil {
		log.Printf("Error summarizing rewards for user %s: %v", userID, err)
		http.Error(w, "Failed to summarize rewards", http.StatusInternalServerError)
		return
	}
	if summary == nil {
		summary = []*income.RewardSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
