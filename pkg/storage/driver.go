// Package storage
package storage

import (
	"context"

	"github.com/dialpoint/memline/pkg/customer"
)

// Driver defines the interface for persisting and retrieving customer
// profiles and observations in a storage backend. Drivers are injected into
// the memory layer rather than held as process-wide state so tests can
// substitute doubles.
//
// Observations are append-only: no update or delete operation exists.
// Single-row writes are atomic by construction; no multi-row transactions
// are used or required.
type Driver interface {
	// GetProfile retrieves a profile by phone. Returns ErrNotFound when no
	// row matches; absence is not a failure.
	GetProfile(ctx context.Context, phone string) (*customer.Profile, error)

	// CreateProfile inserts a new profile row with the supplied traits
	// (nil fields stored as NULL).
	CreateProfile(ctx context.Context, phone string, traits *customer.Traits) error

	// UpdateProfile applies the non-nil trait fields to an existing row.
	// Fields omitted from the traits are left unchanged; values are never
	// overwritten with empties.
	UpdateProfile(ctx context.Context, phone string, traits *customer.Traits) error

	// ListProfiles returns all profiles ordered by most recent update first.
	ListProfiles(ctx context.Context) ([]customer.Profile, error)

	// CreateObservation inserts a single observation. Referential-integrity
	// violations (no such profile) surface as ordinary errors.
	CreateObservation(ctx context.Context, obs *customer.Observation) error

	// RecentObservations returns up to limit observations for a profile,
	// ordered by occurred_at descending.
	RecentObservations(ctx context.Context, phone string, limit int) ([]customer.Observation, error)

	// SearchObservations runs a full-text search over observation content
	// for a profile, ordered by occurred_at descending, capped at limit.
	// The ranking function is store-defined and opaque to callers.
	SearchObservations(ctx context.Context, phone, query string, limit int) ([]customer.Observation, error)

	// CountObservations returns the number of observations for a profile.
	CountObservations(ctx context.Context, phone string) (int, error)

	// Close closes the store and releases any resources.
	Close() error
}
