package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"nestegg/internal/domain/income"
	"nestegg/internal/domain/tax"
	"nestegg/internal/shared/middleware"
)

type TaxHandler struct {
	transactions income.TransactionRepository
	interest     income.InterestRepository
	now          func() time.Time
}

func NewTaxHandler(transactions income.TransactionRepository, interest income.InterestRepository) *TaxHandler {
	return &TaxHandler{
		transactions: transactions,
		interest:     interest,
		now:          time.Now,
	}
}

type TaxEstimateResponse struct {
	TaxYearStart string       `json:"taxYearStart"`
	Income       tax.Input    `json:"income"`
	Estimate     tax.Estimate `json:"estimate"`
}

// HandleEstimate computes a UK tax estimate over the caller's stored income
// for the current tax year.
func (h *TaxHandler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	yearStart := taxYearStart(h.now())

	totals, err := h.transactions.TotalsByCategorySince(r.Context(), userID, yearStart)
	if err != nil {
		log.Printf("Error aggregating income for user %s: %v", userID, err)
		http.Error(w, "Failed to compute estimate", http.StatusInternalServerError)
		return
	}

	p2pInterest, err := h.interest.TotalSince(r.Context(), userID, yearStart)
	if err != nil {
		log.Printf("Error aggregating interest for user %s: %v", userID, err)
		http.Error(w, "Failed to compute estimate", http.StatusInternalServerError)
		return
	}

	input := tax.Input{Interest: p2pInterest}
	for _, total := range totals {
		switch total.Category {
		case income.CategoryDividend:
			input.Dividends += total.Total
		case income.CategoryInterest:
			input.Interest += total.Total
		case income.CategoryRental:
			input.Rental += total.Total
		case income.CategoryFreelance:
			input.Freelance += total.Total
		default:
			input.Other += total.Total
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TaxEstimateResponse{
		TaxYearStart: yearStart.Format("2006-01-02"),
		Income:       input,
		Estimate:     tax.Calculate(input),
	})
}

// taxYearStart returns the most recent 6 April, the start of the UK tax year.
func taxYearStart(now time.Time) time.Time {
	start := time.Date(now.Year(), time.April, 6, 0, 0, 0, 0, time.UTC)
	if now.Before(start) {
		start = start.AddDate(-1, 0, 0)
	}
	return start
}
