package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"nestegg/internal/domain/connection"
	"nestegg/internal/domain/income"
	"nestegg/internal/infrastructure/zopa"
)

// P2PSyncer pulls interest payments for every Zopa connection.
type P2PSyncer struct {
	client      zopa.ClientInterface
	connections connection.Repository
	interest    income.InterestRepository
	now         func() time.Time
}

// NewP2PSyncer creates a new P2P syncer
func NewP2PSyncer(
	client zopa.ClientInterface,
	connections connection.Repository,
	interest income.InterestRepository,
) *P2PSyncer {
	return &P2PSyncer{
		client:      client,
		connections: connections,
		interest:    interest,
		now:         time.Now,
	}
}

// Sync runs one pass over all P2P connections. The returned error is only
// non-nil when connections cannot be enumerated.
func (s *P2PSyncer) Sync(ctx context.Context) ([]Outcome, int, error) {
	conns, err := s.connections.ListByProvider(ctx, connection.ProviderZopa)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list P2P connections: %w", err)
	}

	var outcomes []Outcome
	var inserted int
	for _, conn := range conns {
		outcome := s.syncConnection(ctx, conn)
		inserted += outcome.Inserted
		outcomes = append(outcomes, outcome)
	}
	return outcomes, inserted, nil
}

// SyncConnection runs the initial sync for one newly linked connection.
func (s *P2PSyncer) SyncConnection(ctx context.Context, connectionID int64) (Outcome, error) {
	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to get connection: %w", err)
	}
	return s.syncConnection(ctx, conn), nil
}

func (s *P2PSyncer) syncConnection(ctx context.Context, conn *connection.Connection) Outcome {
	name := fmt.Sprintf("zopa/%d", conn.ID)

	accessToken, outcome := s.ensureToken(ctx, conn, name)
	if outcome != nil {
		return *outcome
	}

	// Interest arrives monthly, so recurring passes look back one month;
	// the first pass pulls six.
	from := s.now().AddDate(0, -6, 0)
	if conn.LastSynced != nil {
		from = s.now().AddDate(0, -1, 0)
	}

	payments, err := s.client.ListInterestPayments(ctx, accessToken, from)
	if err != nil {
		log.Printf("P2P sync: failed to list interest payments for connection %d: %v", conn.ID, err)
		return Outcome{Source: "p2p", Account: name, Status: StatusFailed, Reason: err.Error()}
	}

	var created int
	for _, payment := range payments {
		paidAt, err := payment.GetDate()
		if err != nil {
			log.Printf("P2P sync: skipping payment %s: %v", payment.PaymentID, err)
			continue
		}

		wasCreated, err := s.interest.Insert(ctx, income.InsertInterestParams{
			ConnectionID: conn.ID,
			UserID:       conn.UserID,
			ExternalID:   payment.PaymentID,
			Amount:       payment.Amount,
			Rate:         payment.Rate,
			Description:  payment.Description,
			PaidAt:       paidAt,
		})
		if err != nil {
			return Outcome{Source: "p2p", Account: name, Status: StatusFailed, Reason: fmt.Sprintf("failed to insert payment: %v", err), Inserted: created}
		}
		if wasCreated {
			created++
		}
	}

	if err := s.connections.UpdateLastSynced(ctx, conn.ID); err != nil {
		log.Printf("P2P sync: failed to record last_synced for connection %d: %v", conn.ID, err)
	}

	return Outcome{Source: "p2p", Account: name, Status: StatusSynced, Inserted: created}
}

func (s *P2PSyncer) ensureToken(ctx context.Context, conn *connection.Connection, name string) (string, *Outcome) {
	if !conn.Expired(s.now()) {
		return conn.AccessToken, nil
	}

	if conn.RefreshToken == nil || *conn.RefreshToken == "" {
		log.Printf("P2P sync: connection %d expired with no refresh token, skipping", conn.ID)
		return "", &Outcome{Source: "p2p", Account: name, Status: StatusSkipped, Reason: "token expired, re-link required"}
	}

	token, err := s.client.RefreshToken(ctx, *conn.RefreshToken)
	if err != nil {
		log.Printf("P2P sync: token refresh failed for connection %d: %v", conn.ID, err)
		return "", &Outcome{Source: "p2p", Account: name, Status: StatusFailed, Reason: fmt.Sprintf("token refresh failed: %v", err)}
	}

	expiresAt := token.ExpiresAt(s.now())
	update := connection.TokenUpdate{
		AccessToken:    token.AccessToken,
		TokenExpiresAt: &expiresAt,
	}
	if token.RefreshToken != "" {
		update.RefreshToken = &token.RefreshToken
	} else {
		update.RefreshToken = conn.RefreshToken
	}

	if err := s.connections.UpdateTokens(ctx, conn.ID, update); err != nil {
		log.Printf("P2P sync: failed to persist refreshed tokens for connection %d: %v", conn.ID, err)
		return "", &Outcome{Source: "p2p", Account: name, Status: StatusFailed, Reason: fmt.Sprintf("failed to persist tokens: %v", err)}
	}

	return token.AccessToken, nil
}
