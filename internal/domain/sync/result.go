package sync

import "time"

// Status is the per-account outcome of one sync pass
type Status string

const (
	StatusSynced  Status = "synced"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to one account, wallet, or connection during
// a pass. Failures carry the reason; they never abort the pass.
type Outcome struct {
	Source   string `json:"source"`
	Account  string `json:"account"`
	Status   Status `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Inserted int    `json:"inserted"`
}

// Summary aggregates a full sync pass across all sources.
type Summary struct {
	BankTransactions int       `json:"bankTransactions"`
	CryptoRewards    int       `json:"cryptoRewards"`
	P2PInterest      int       `json:"p2pInterest"`
	Errors           int       `json:"errors"`
	Outcomes         []Outcome `json:"outcomes"`
	Timestamp        time.Time `json:"timestamp"`
}

func (s *Summary) add(outcomes []Outcome) {
	for _, o := range outcomes {
		if o.Status == StatusFailed {
			s.Errors++
		}
	}
	s.Outcomes = append(s.Outcomes, outcomes...)
}
