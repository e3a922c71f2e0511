// Package sqlite provides a SQLite-backed storage driver for local
// development. Full-text search uses an external-content FTS5 table kept in
// sync with customer_observations via triggers.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS customer_profiles (
	phone       TEXT PRIMARY KEY,
	name        TEXT,
	email       TEXT,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS customer_observations (
	id              TEXT PRIMARY KEY,
	customer_phone  TEXT NOT NULL REFERENCES customer_profiles(phone) ON DELETE CASCADE,
	content         TEXT NOT NULL,
	source          TEXT NOT NULL CHECK (source IN ('voice', 'sms', 'whatsapp')),
	occurred_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_customer_observations_phone
	ON customer_observations (customer_phone);
CREATE INDEX IF NOT EXISTS idx_customer_observations_occurred_at
	ON customer_observations (occurred_at DESC);

CREATE VIRTUAL TABLE IF NOT EXISTS observations_fts USING fts5(
	content,
	content='customer_observations',
	content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS observations_ai AFTER INSERT ON customer_observations BEGIN
	INSERT INTO observations_fts(rowid, content) VALUES (new.rowid, new.content);
END;
CREATE TRIGGER IF NOT EXISTS observations_ad AFTER DELETE ON customer_observations BEGIN
	INSERT INTO observations_fts(observations_fts, rowid, content)
	VALUES ('delete', old.rowid, old.content);
END;
`

// Driver implements storage.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new SQLite-backed driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite-specific pragmas
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// GetProfile retrieves a profile by phone.
func (d *Driver) GetProfile(ctx context.Context, phone string) (*customer.Profile, error) {
	const query = `
		SELECT phone, name, email, created_at, updated_at
		FROM customer_profiles
		WHERE phone = ?`

	var p customer.Profile
	var name, email sql.NullString
	err := d.db.QueryRowContext(ctx, query, phone).
		Scan(&p.Phone, &name, &email, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound{Phone: phone}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	if name.Valid {
		p.Name = &name.String
	}
	if email.Valid {
		p.Email = &email.String
	}

	return &p, nil
}

// CreateProfile inserts a new profile row with the supplied traits.
func (d *Driver) CreateProfile(ctx context.Context, phone string, traits *customer.Traits) error {
	const query = `INSERT INTO customer_profiles (phone, name, email) VALUES (?, ?, ?)`

	var name, email *string
	if traits != nil {
		name = traits.Name
		email = traits.Email
	}

	if _, err := d.db.ExecContext(ctx, query, phone, name, email); err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return nil
}

// UpdateProfile applies the non-nil trait fields to an existing row.
func (d *Driver) UpdateProfile(ctx context.Context, phone string, traits *customer.Traits) error {
	if traits.Empty() {
		return nil
	}

	const query = `
		UPDATE customer_profiles
		SET name = COALESCE(?, name),
		    email = COALESCE(?, email),
		    updated_at = CURRENT_TIMESTAMP
		WHERE phone = ?`

	res, err := d.db.ExecContext(ctx, query, traits.Name, traits.Email, phone)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound{Phone: phone}
	}

	return nil
}

// ListProfiles returns all profiles ordered by most recent update first.
func (d *Driver) ListProfiles(ctx context.Context) ([]customer.Profile, error) {
	const query = `
		SELECT phone, name, email, created_at, updated_at
		FROM customer_profiles
		ORDER BY updated_at DESC`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []customer.Profile
	for rows.Next() {
		var p customer.Profile
		var name, email sql.NullString
		if err := rows.Scan(&p.Phone, &name, &email, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		if name.Valid {
			p.Name = &name.String
		}
		if email.Valid {
			p.Email = &email.String
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}

// CreateObservation inserts a single observation.
func (d *Driver) CreateObservation(ctx context.Context, obs *customer.Observation) error {
	if obs == nil {
		return errors.New("cannot store nil observation")
	}

	const query = `
		INSERT INTO customer_observations (id, customer_phone, content, source, occurred_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(ctx, query,
		obs.ID.String(), obs.Phone, obs.Content, string(obs.Source), obs.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}

	return nil
}

// RecentObservations returns up to limit observations ordered by occurred_at
// descending.
func (d *Driver) RecentObservations(ctx context.Context, phone string, limit int) ([]customer.Observation, error) {
	const query = `
		SELECT id, customer_phone, content, source, occurred_at, created_at
		FROM customer_observations
		WHERE customer_phone = ?
		ORDER BY occurred_at DESC
		LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// SearchObservations runs an FTS5 match over observation content. The raw
// query is rewritten into quoted tokens so user punctuation cannot produce
// FTS5 syntax errors.
func (d *Driver) SearchObservations(ctx context.Context, phone, query string, limit int) ([]customer.Observation, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	const search = `
		SELECT o.id, o.customer_phone, o.content, o.source, o.occurred_at, o.created_at
		FROM observations_fts f
		JOIN customer_observations o ON o.rowid = f.rowid
		WHERE observations_fts MATCH ? AND o.customer_phone = ?
		ORDER BY o.occurred_at DESC
		LIMIT ?`

	rows, err := d.db.QueryContext(ctx, search, match, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// CountObservations returns the number of observations for a profile.
func (d *Driver) CountObservations(ctx context.Context, phone string) (int, error) {
	const query = `SELECT count(*) FROM customer_observations WHERE customer_phone = ?`

	var count int
	if err := d.db.QueryRowContext(ctx, query, phone).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}

	return count, nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	return d.db.Close()
}

// ftsQuery turns free-form user text into an FTS5 query of quoted tokens.
// Adjacent quoted tokens are implicitly AND-ed by FTS5, matching Postgres
// plainto_tsquery semantics: every term must appear, so a multi-word query
// that only partially matches falls back to recency on both backends.
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, "")
		if f == "" {
			continue
		}
		quoted = append(quoted, `"`+f+`"`)
	}

	return strings.Join(quoted, " ")
}

func scanObservations(rows *sql.Rows) ([]customer.Observation, error) {
	var observations []customer.Observation
	for rows.Next() {
		var obs customer.Observation
		var id, source string
		if err := rows.Scan(&id, &obs.Phone, &obs.Content, &source, &obs.OccurredAt, &obs.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("failed to parse observation id %q: %w", id, err)
		}
		obs.ID = parsed
		obs.Source = customer.Source(source)
		observations = append(observations, obs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}

	return observations, nil
}
