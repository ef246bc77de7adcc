package sync

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Orchestrator runs one full sync pass over all income sources. Sources run
// sequentially; a failing account inside a source never stops the pass, only
// a storage enumeration failure does.
type Orchestrator struct {
	bank   *BankSyncer
	crypto *CryptoSyncer
	p2p    *P2PSyncer
	now    func() time.Time
}

// NewOrchestrator creates a new sync orchestrator
func NewOrchestrator(bank *BankSyncer, crypto *CryptoSyncer, p2p *P2PSyncer) *Orchestrator {
	return &Orchestrator{
		bank:   bank,
		crypto: crypto,
		p2p:    p2p,
		now:    time.Now,
	}
}

// Run executes one sync pass: bank, then crypto, then P2P.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	started := o.now()
	summary := &Summary{Timestamp: started}

	bankOutcomes, bankInserted, err := o.bank.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("bank sync aborted: %w", err)
	}
	summary.BankTransactions = bankInserted
	summary.add(bankOutcomes)

	cryptoOutcomes, cryptoInserted, err := o.crypto.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("crypto sync aborted: %w", err)
	}
	summary.CryptoRewards = cryptoInserted
	summary.add(cryptoOutcomes)

	p2pOutcomes, p2pInserted, err := o.p2p.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("p2p sync aborted: %w", err)
	}
	summary.P2PInterest = p2pInserted
	summary.add(p2pOutcomes)

	log.Printf("Sync pass completed in %s: bank=%d crypto=%d p2p=%d errors=%d",
		o.now().Sub(started), summary.BankTransactions, summary.CryptoRewards, summary.P2PInterest, summary.Errors)

	return summary, nil
}
