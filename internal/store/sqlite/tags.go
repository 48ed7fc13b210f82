package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tagnestapp/tagnest-server/internal/domain"
	"github.com/tagnestapp/tagnest-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, slug, client_id, name, phone, phone2, address, url,
	instructions, image_id, image_blurhash, scan_count, created_at, updated_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	var (
		phone         sql.NullString
		phone2        sql.NullString
		address       sql.NullString
		url           sql.NullString
		instructions  sql.NullString
		imageID       sql.NullString
		imageBlurHash sql.NullString
		createdAt     string
		updatedAt     string
	)

	err := scanner.Scan(
		&t.ID,
		&t.Slug,
		&t.ClientID,
		&t.Name,
		&phone,
		&phone2,
		&address,
		&url,
		&instructions,
		&imageID,
		&imageBlurHash,
		&t.ScanCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Optional string fields.
	if phone.Valid {
		t.Phone = phone.String
	}
	if phone2.Valid {
		t.Phone2 = phone2.String
	}
	if address.Valid {
		t.Address = address.String
	}
	if url.Valid {
		t.URL = url.String
	}
	if instructions.Valid {
		t.Instructions = instructions.String
	}
	if imageID.Valid {
		t.ImageID = imageID.String
	}
	if imageBlurHash.Valid {
		t.ImageBlurHash = imageBlurHash.String
	}

	// Timestamps.
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a new tag into the database.
// Returns store.ErrAlreadyExists if the tag ID or slug already exists.
func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (
			id, slug, client_id, name, phone, phone2, address, url,
			instructions, image_id, image_blurhash, scan_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tag.ID,
		tag.Slug,
		tag.ClientID,
		tag.Name,
		nullString(tag.Phone),
		nullString(tag.Phone2),
		nullString(tag.Address),
		nullString(tag.URL),
		nullString(tag.Instructions),
		nullString(tag.ImageID),
		nullString(tag.ImageBlurHash),
		tag.ScanCount,
		formatTime(tag.CreatedAt),
		formatTime(tag.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTag retrieves a tag by ID.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)
	return tagFromRow(row)
}

// GetTagBySlug retrieves a tag by its public slug.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTagBySlug(ctx context.Context, slug string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE slug = ?`, slug)
	return tagFromRow(row)
}

func tagFromRow(row *sql.Row) (*domain.Tag, error) {
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTags returns all tags ordered by creation time.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTags(rows)
}

// ListTagsByClient returns all tags owned by the given client.
func (s *Store) ListTagsByClient(ctx context.Context, clientID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE client_id = ? ORDER BY created_at ASC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTags(rows)
}

func collectTags(rows *sql.Rows) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// UpdateTag performs a full row update on an existing tag.
// The slug is deliberately absent from the SET list; it is immutable.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) UpdateTag(ctx context.Context, tag *domain.Tag) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tags SET
			client_id = ?,
			name = ?,
			phone = ?,
			phone2 = ?,
			address = ?,
			url = ?,
			instructions = ?,
			image_id = ?,
			image_blurhash = ?,
			updated_at = ?
		WHERE id = ?`,
		tag.ClientID,
		tag.Name,
		nullString(tag.Phone),
		nullString(tag.Phone2),
		nullString(tag.Address),
		nullString(tag.URL),
		nullString(tag.Instructions),
		nullString(tag.ImageID),
		nullString(tag.ImageBlurHash),
		formatTime(tag.UpdatedAt),
		tag.ID,
	)
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

// DeleteTag performs a hard delete of a tag by ID.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ?`, id)
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

// IncrementTagScans bumps the scan counter for a tag.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) IncrementTagScans(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tags SET scan_count = scan_count + 1 WHERE id = ?`, id)
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
