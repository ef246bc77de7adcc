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
	"nestegg/internal/infrastructure/zopa"
	"nestegg/internal/shared/middleware"
)

const p2pStateCookie = "p2p_oauth_state"

// P2PSyncService runs the initial sync for a newly linked lending connection
type P2PSyncService interface {
	SyncConnection(ctx context.Context, connectionID int64) (sync.Outcome, error)
}

type P2PHandler struct {
	client      zopa.ClientInterface
	connections connection.Repository
	interest    income.InterestRepository
	syncer      P2PSyncService
	redirectURL string
}

func NewP2PHandler(
	client zopa.ClientInterface,
	connections connection.Repository,
	interest income.InterestRepository,
	syncer P2PSyncService,
	redirectURL string,
) *P2PHandler {
	if redirectURL == "" {
		redirectURL = "/"
	}
	return &P2PHandler{
		client:      client,
		connections: connections,
		interest:    interest,
		syncer:      syncer,
		redirectURL: redirectURL,
	}
}

// HandleConnect starts the Zopa link flow
func (h *P2PHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := middleware.UserID(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	state := uuid.NewString()
	setOAuthState(w, p2pStateCookie, state)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ConnectResponse{AuthURL: h.client.AuthURL(state)})
}

// HandleCallback completes the link flow and pulls the opening six months of
// interest history.
func (h *P2PHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("P2P link declined for user %s: %s", userID, errParam)
		http.Redirect(w, r, h.redirectURL+"?p2p=declined", http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}
	if !verifyOAuthState(w, r, p2pStateCookie, r.URL.Query().Get("state")) {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	token, err := h.client.ExchangeCode(r.Context(), code)
	if err != nil {
		log.Printf("Error exchanging P2P authorization code for user %s: %v", userID, err)
		http.Error(w, "Failed to link lending account", http.StatusBadGateway)
		return
	}

	// Confirm the token actually reaches the lending account before storing
	if _, err := h.client.GetAccount(r.Context(), token.AccessToken); err != nil {
		log.Printf("Error verifying lending account for user %s: %v", userID, err)
		http.Error(w, "Failed to link lending account", http.StatusBadGateway)
		return
	}

	expiresAt := token.ExpiresAt(time.Now())
	params := connection.CreateConnectionParams{
		UserID:         userID,
		Provider:       connection.ProviderZopa,
		AccessToken:    token.AccessToken,
		TokenExpiresAt: &expiresAt,
	}
	if token.RefreshToken != "" {
		params.RefreshToken = &token.RefreshToken
	}

	conn, err := h.connections.Create(r.Context(), params)
	if err != nil {
		log.Printf("Error storing P2P connection for user %s: %v", userID, err)
		http.Error(w, "Failed to link lending account", http.StatusInternalServerError)
		return
	}

	if _, err := h.syncer.SyncConnection(r.Context(), conn.ID); err != nil {
		// The connection is stored, the scheduled pass will pick it up
		log.Printf("Error running initial sync for connection %d: %v", conn.ID, err)
	}

	http.Redirect(w, r, h.redirectURL+"?p2p=linked", http.StatusFound)
}

// HandleDisconnect unlinks a lending connection. The interest ledger is kept.
func (h *P2PHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
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
	if err != nil || conn.UserID != userID || conn.Provider != connection.ProviderZopa {
		http.Error(w, "Connection not found", http.StatusNotFound)
		return
	}

	if err := h.connections.Delete(r.Context(), id); err != nil {
		log.Printf("Error deleting P2P connection %d for user %s: %v", id, userID, err)
		http.Error(w, "Failed to disconnect", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleInterest returns the caller's recent interest payments
func (h *P2PHandler) HandleInterest(w http.ResponseWriter, r *http.Request) {
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

	payments, err := h.interest.ListByUser(r.Context(), userID, limit)
	if err != nil {
		log.Printf("Error listing interest payments for user %s: %v", userID, err)
		http.Error(w, "Failed to list interest payments", http.StatusInternalServerError)
		return
	}
	if payments == nil {
		payments = []*income.InterestPayment{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payments)
}
