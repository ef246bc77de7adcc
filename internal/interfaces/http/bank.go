package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"nestegg/internal/domain/connection"
	"nestegg/internal/domain/income"
	"nestegg/internal/domain/sync"
	"nestegg/internal/infrastructure/truelayer"
	"nestegg/internal/shared/middleware"
)

const bankStateCookie = "bank_oauth_state"

// BankSyncService runs the initial sync for a newly linked bank connection
type BankSyncService interface {
	SyncConnection(ctx context.Context, connectionID int64) ([]sync.Outcome, int, error)
}

type BankHandler struct {
	client       truelayer.ClientInterface
	connections  connection.Repository
	accounts     connection.BankAccountRepository
	transactions income.TransactionRepository
	syncer       BankSyncService
	redirectURL  string
}

func NewBankHandler(
	client truelayer.ClientInterface,
	connections connection.Repository,
	accounts connection.BankAccountRepository,
	transactions income.TransactionRepository,
	syncer BankSyncService,
	redirectURL string,
) *BankHandler {
	if redirectURL == "" {
		redirectURL = "/"
	}
	return &BankHandler{
		client:       client,
		connections:  connections,
		accounts:     accounts,
		transactions: transactions,
		syncer:       syncer,
		redirectURL:  redirectURL,
	}
}

type ConnectResponse struct {
	AuthURL string `json:"authUrl"`
}

// HandleConnect starts the TrueLayer link flow
func (h *BankHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := middleware.UserID(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	state := uuid.NewString()
	setOAuthState(w, bankStateCookie, state)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ConnectResponse{AuthURL: h.client.AuthURL(state)})
}

// HandleCallback completes the link flow: exchange the code, store the
// connection, then run the initial deep sync before redirecting back.
func (h *BankHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		log.Printf("Bank link declined for user %s: %s", userID, errParam)
		http.Redirect(w, r, h.redirectURL+"?bank=declined", http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}
	if !verifyOAuthState(w, r, bankStateCookie, r.URL.Query().Get("state")) {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	token, err := h.client.ExchangeCode(r.Context(), code)
	if err != nil {
		log.Printf("Error exchanging bank authorization code for user %s: %v", userID, err)
		http.Error(w, "Failed to link bank account", http.StatusBadGateway)
		return
	}

	expiresAt := token.ExpiresAt(time.Now())
	params := connection.CreateConnectionParams{
		UserID:         userID,
		Provider:       connection.ProviderTrueLayer,
		AccessToken:    token.AccessToken,
		TokenExpiresAt: &expiresAt,
	}
	if token.RefreshToken != "" {
		params.RefreshToken = &token.RefreshToken
	}

	conn, err := h.connections.Create(r.Context(), params)
	if err != nil {
		log.Printf("Error storing bank connection for user %s: %v", userID, err)
		http.Error(w, "Failed to link bank account", http.StatusInternalServerError)
		return
	}

	if _, _, err := h.syncer.SyncConnection(r.Context(), conn.ID); err != nil {
		// The connection is stored, the scheduled pass will pick it up
		log.Printf("Error running initial sync for connection %d: %v", conn.ID, err)
	}

	http.Redirect(w, r, h.redirectURL+"?bank=linked", http.StatusFound)
}

// HandleDisconnect unlinks a bank connection. Synced transactions are kept;
// only the connection and its tokens go away.
func (h *BankHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid connection id", http.StatusBadRequest)
		return
	}

	conn, err := h.connections.GetByID(r.Context(), id)
	if err != nil || conn.UserID != userID || conn.Provider != connection.ProviderTrueLayer {
		http.Error(w, "Connection not found", http.StatusNotFound)
		return
	}

	if err := h.connections.Delete(r.Context(), id); err != nil {
		log.Printf("Error deleting bank connection %d for user %s: %v", id, userID, err)
		http.Error(w, "Failed to disconnect", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAccounts returns the authenticated user's linked bank accounts
func (h *BankHandler) HandleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := h.accounts.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing bank accounts for user %s: %v", userID, err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}
	if accounts == nil {
		accounts = []*connection.BankAccount{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}

// HandleTransactions returns the user's recent income transactions
func (h *BankHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	transactions, err := h.transactions.ListByUser(r.Context(), userID, limit)
	if err != nil {
		log.Printf("Error listing transactions for user %s: %v", userID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []*income.BankTransaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}
