package scheduler

import (
	"context"
	"fmt"
	"log"

	"nestegg/internal/domain/sync"
)

// SourceJob runs one sync pass over a single income source.
type SourceJob struct {
	source      string
	description string
	run         func(ctx context.Context) ([]sync.Outcome, int, error)
}

func (j *SourceJob) Execute(ctx context.Context) error {
	outcomes, inserted, err := j.run(ctx)
	if err != nil {
		return fmt.Errorf("%s sync failed: %w", j.source, err)
	}

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Status == sync.StatusFailed {
			failed++
			log.Printf("Scheduler: %s sync failed for %s: %s", j.source, outcome.Account, outcome.Reason)
		}
	}
	log.Printf("Scheduler: %s sync pass done, %d inserted, %d failed of %d", j.source, inserted, failed, len(outcomes))
	return nil
}

func (j *SourceJob) Source() string {
	return j.source
}

func (j *SourceJob) Description() string {
	return j.description
}

// NewBankJob returns a job that syncs all bank connections.
func NewBankJob(syncer *sync.BankSyncer) *SourceJob {
	return &SourceJob{
		source:      "bank",
		description: "TrueLayer transaction sync",
		run:         syncer.Sync,
	}
}

// NewCryptoJob returns a job that scans all watched wallets.
func NewCryptoJob(syncer *sync.CryptoSyncer) *SourceJob {
	return &SourceJob{
		source:      "crypto",
		description: "staking reward scan",
		run:         syncer.Sync,
	}
}

// NewP2PJob returns a job that syncs all lending connections.
func NewP2PJob(syncer *sync.P2PSyncer) *SourceJob {
	return &SourceJob{
		source:      "p2p",
		description: "Zopa interest sync",
		run:         syncer.Sync,
	}
}
