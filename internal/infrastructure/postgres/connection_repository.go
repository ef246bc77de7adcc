package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"nestegg/internal/domain/connection"
	"nestegg/internal/infrastructure/crypto"
)

// ConnectionRepository persists OAuth connections. Token columns hold
// AES-GCM ciphertext; plaintext only exists in memory.
type ConnectionRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

func NewConnectionRepository(db *DB, encryptor *crypto.Encryptor) *ConnectionRepository {
	return &ConnectionRepository{db: db, encryptor: encryptor}
}

func (r *ConnectionRepository) Create(ctx context.Context, params connection.CreateConnectionParams) (*connection.Connection, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", connection.ErrInvalidInput, err)
	}

	accessCipher, err := r.encryptor.Encrypt(params.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	var refreshCipher sql.NullString
	if params.RefreshToken != nil {
		cipher, err := r.encryptor.Encrypt(*params.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		refreshCipher = sql.NullString{String: cipher, Valid: true}
	}

	query := `
		INSERT INTO connections (user_id, provider, access_token, refresh_token, token_expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, provider, token_expires_at, last_synced, created_at, updated_at
	`

	var conn connection.Connection
	var expiresAt, lastSynced sql.NullTime

	err = r.db.QueryRowContext(
		ctx, query,
		params.UserID, params.Provider, accessCipher, refreshCipher, params.TokenExpiresAt,
	).Scan(
		&conn.ID, &conn.UserID, &conn.Provider,
		&expiresAt, &lastSynced, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	if expiresAt.Valid {
		conn.TokenExpiresAt = &expiresAt.Time
	}
	if lastSynced.Valid {
		conn.LastSynced = &lastSynced.Time
	}
	conn.AccessToken = params.AccessToken
	conn.RefreshToken = params.RefreshToken

	return &conn, nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id int64) (*connection.Connection, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, token_expires_at,
		       last_synced, created_at, updated_at
		FROM connections
		WHERE id = $1
	`

	conn, err := r.scanConnection(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, connection.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

func (r *ConnectionRepository) ListByProvider(ctx context.Context, provider string) ([]*connection.Connection, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, token_expires_at,
		       last_synced, created_at, updated_at
		FROM connections
		WHERE provider = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	return r.collectConnections(rows)
}

func (r *ConnectionRepository) ListByUser(ctx context.Context, userID, provider string) ([]*connection.Connection, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, token_expires_at,
		       last_synced, created_at, updated_at
		FROM connections
		WHERE user_id = $1 AND provider = $2
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	return r.collectConnections(rows)
}

func (r *ConnectionRepository) UpdateTokens(ctx context.Context, id int64, update connection.TokenUpdate) error {
	accessCipher, err := r.encryptor.Encrypt(update.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	var refreshCipher sql.NullString
	if update.RefreshToken != nil {
		cipher, err := r.encryptor.Encrypt(*update.RefreshToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		refreshCipher = sql.NullString{String: cipher, Valid: true}
	}

	query := `
		UPDATE connections
		SET access_token = $1, refresh_token = $2, token_expires_at = $3, updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, accessCipher, refreshCipher, update.TokenExpiresAt, id)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return connection.ErrConnectionNotFound
	}
	return nil
}

func (r *ConnectionRepository) UpdateLastSynced(ctx context.Context, id int64) error {
	query := `UPDATE connections SET last_synced = NOW(), updated_at = NOW() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to update last_synced: %w", err)
	}
	return nil
}

func (r *ConnectionRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM connections WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ConnectionRepository) scanConnection(row rowScanner) (*connection.Connection, error) {
	var conn connection.Connection
	var accessCipher string
	var refreshCipher sql.NullString
	var expiresAt, lastSynced sql.NullTime

	err := row.Scan(
		&conn.ID, &conn.UserID, &conn.Provider,
		&accessCipher, &refreshCipher, &expiresAt,
		&lastSynced, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	conn.AccessToken, err = r.encryptor.Decrypt(accessCipher)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	if refreshCipher.Valid {
		refresh, err := r.encryptor.Decrypt(refreshCipher.String)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
		}
		conn.RefreshToken = &refresh
	}

	if expiresAt.Valid {
		conn.TokenExpiresAt = &expiresAt.Time
	}
	if lastSynced.Valid {
		conn.LastSynced = &lastSynced.Time
	}
	return &conn, nil
}

func (r *ConnectionRepository) collectConnections(rows *sql.Rows) ([]*connection.Connection, error) {
	var connections []*connection.Connection
	for rows.Next() {
		conn, err := r.scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate connections: %w", err)
	}
	return connections, nil
}
