package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"nestegg/internal/domain/sync"
)

// SyncRunner runs one full sync pass across all sources
type SyncRunner interface {
	Run(ctx context.Context) (*sync.Summary, error)
}

type SyncHandler struct {
	runner SyncRunner
}

func NewSyncHandler(runner SyncRunner) *SyncHandler {
	return &SyncHandler{runner: runner}
}

// HandleCronSync runs the scheduled sync pass. The cron secret is checked by
// middleware before this handler is reached.
func (h *SyncHandler) HandleCronSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary, err := h.runner.Run(r.Context())
	if err != nil {
		log.Printf("Error running sync pass: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
