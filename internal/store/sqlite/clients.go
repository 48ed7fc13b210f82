package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tagnestapp/tagnest-server/internal/domain"
	"github.com/tagnestapp/tagnest-server/internal/store"
)

// clientColumns is the ordered list of columns selected in client queries.
// Must match the scan order in scanClient.
const clientColumns = `id, name, email, email_verified, password_hash, google_id,
	reset_token, reset_token_expiry, verify_token, verify_token_expiry,
	created_at, updated_at`

// scanClient scans a sql.Row (or sql.Rows via its Scan method) into a domain.Client.
func scanClient(scanner interface{ Scan(dest ...any) error }) (*domain.Client, error) {
	var c domain.Client

	var (
		email             sql.NullString
		emailVerified     int
		passwordHash      sql.NullString
		googleID          sql.NullString
		resetToken        sql.NullString
		resetTokenExpiry  sql.NullString
		verifyToken       sql.NullString
		verifyTokenExpiry sql.NullString
		createdAt         string
		updatedAt         string
	)

	err := scanner.Scan(
		&c.ID,
		&c.Name,
		&email,
		&emailVerified,
		&passwordHash,
		&googleID,
		&resetToken,
		&resetTokenExpiry,
		&verifyToken,
		&verifyTokenExpiry,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Optional string fields.
	if email.Valid {
		c.Email = email.String
	}
	if passwordHash.Valid {
		c.PasswordHash = passwordHash.String
	}
	if googleID.Valid {
		c.GoogleID = googleID.String
	}
	if resetToken.Valid {
		c.ResetToken = resetToken.String
	}
	if verifyToken.Valid {
		c.VerifyToken = verifyToken.String
	}

	c.EmailVerified = emailVerified != 0

	// Token expiries.
	c.ResetTokenExpiry, err = parseNullableTime(resetTokenExpiry)
	if err != nil {
		return nil, err
	}
	c.VerifyTokenExpiry, err = parseNullableTime(verifyTokenExpiry)
	if err != nil {
		return nil, err
	}

	// Timestamps.
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// emailLower normalizes an optional email for the unique index.
func emailLower(email string) sql.NullString {
	e := strings.ToLower(strings.TrimSpace(email))
	return nullString(e)
}

// CreateClient inserts a new client into the database.
// Returns store.ErrAlreadyExists if the ID, name, email, or Google ID is taken.
func (s *Store) CreateClient(ctx context.Context, client *domain.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (
			id, name, name_lower, email, email_lower, email_verified,
			password_hash, google_id,
			reset_token, reset_token_expiry, verify_token, verify_token_expiry,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		client.ID,
		client.Name,
		strings.ToLower(strings.TrimSpace(client.Name)),
		nullString(client.Email),
		emailLower(client.Email),
		boolToInt(client.EmailVerified),
		nullString(client.PasswordHash),
		nullString(client.GoogleID),
		nullString(client.ResetToken),
		nullTimeString(client.ResetTokenExpiry),
		nullString(client.VerifyToken),
		nullTimeString(client.VerifyTokenExpiry),
		formatTime(client.CreatedAt),
		formatTime(client.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetClient retrieves a client by ID.
// Returns store.ErrNotFound if the client does not exist.
func (s *Store) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	return clientFromRow(row)
}

// GetClientByName retrieves a client by its unique name, case-insensitively.
// Returns store.ErrNotFound if the client does not exist.
func (s *Store) GetClientByName(ctx context.Context, name string) (*domain.Client, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE name_lower = ?`, lower)
	return clientFromRow(row)
}

// GetClientByEmail retrieves a client by email, case-insensitively.
// Returns store.ErrNotFound if the client does not exist.
func (s *Store) GetClientByEmail(ctx context.Context, email string) (*domain.Client, error) {
	lower := strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE email_lower = ?`, lower)
	return clientFromRow(row)
}

// GetClientByGoogleID retrieves a client by its linked Google account ID.
// Returns store.ErrNotFound if no client is linked to it.
func (s *Store) GetClientByGoogleID(ctx context.Context, googleID string) (*domain.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE google_id = ?`, googleID)
	return clientFromRow(row)
}

// GetClientByResetToken retrieves a client by an outstanding reset token.
// Expiry is NOT checked here; that's the service's job.
// Returns store.ErrNotFound if no client holds the token.
func (s *Store) GetClientByResetToken(ctx context.Context, token string) (*domain.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE reset_token = ?`, token)
	return clientFromRow(row)
}

// GetClientByVerifyToken retrieves a client by an outstanding verification token.
// Returns store.ErrNotFound if no client holds the token.
func (s *Store) GetClientByVerifyToken(ctx context.Context, token string) (*domain.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE verify_token = ?`, token)
	return clientFromRow(row)
}

func clientFromRow(row *sql.Row) (*domain.Client, error) {
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListClients returns all clients ordered by creation time.
func (s *Store) ListClients(ctx context.Context) ([]*domain.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return clients, nil
}

// UpdateClient performs a full row update on an existing client.
// Returns store.ErrNotFound if the client does not exist, or
// store.ErrAlreadyExists if the new name/email/Google ID collides.
func (s *Store) UpdateClient(ctx context.Context, client *domain.Client) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE clients SET
			name = ?,
			name_lower = ?,
			email = ?,
			email_lower = ?,
			email_verified = ?,
			password_hash = ?,
			google_id = ?,
			reset_token = ?,
			reset_token_expiry = ?,
			verify_token = ?,
			verify_token_expiry = ?,
			updated_at = ?
		WHERE id = ?`,
		client.Name,
		strings.ToLower(strings.TrimSpace(client.Name)),
		nullString(client.Email),
		emailLower(client.Email),
		boolToInt(client.EmailVerified),
		nullString(client.PasswordHash),
		nullString(client.GoogleID),
		nullString(client.ResetToken),
		nullTimeString(client.ResetTokenExpiry),
		nullString(client.VerifyToken),
		nullTimeString(client.VerifyTokenExpiry),
		formatTime(client.UpdatedAt),
		client.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteClient performs a hard delete of a client. Owned tags and sessions
// are removed by the foreign-key cascade.
// Returns store.ErrNotFound if the client does not exist.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
