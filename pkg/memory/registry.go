package memory

import (
	"context"
	"log/slog"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/storage"
)

// ProfileRegistry maps customer phone numbers to profile records with
// get-or-create semantics. Creation is idempotent: creating a profile that
// already exists is a trait update, never a duplicate row.
type ProfileRegistry struct {
	store  storage.Driver
	logger *slog.Logger
}

// NewProfileRegistry creates a registry on top of the given storage driver.
func NewProfileRegistry(store storage.Driver, logger *slog.Logger) *ProfileRegistry {
	return &ProfileRegistry{
		store:  store,
		logger: logger,
	}
}

// Lookup resolves a phone to its profile identifier by exact match.
// Absence is not a failure: both "no such profile" and "store unreachable"
// report false, with the latter logged.
func (r *ProfileRegistry) Lookup(ctx context.Context, phone string) (string, bool) {
	p, err := r.store.GetProfile(ctx, phone)
	if err != nil {
		if !storage.IsNotFound(err) {
			r.logger.Warn("profile lookup failed", "phone", phone, "error", err)
		}
		return "", false
	}

	return p.Phone, true
}

// CreateOrUpdate upserts the supplied traits onto a profile. Nil or empty
// traits succeed trivially with no write. Fields omitted from the traits are
// left unchanged; a record is never overwritten with empty values. Store
// failures are logged and reported as false, never propagated.
func (r *ProfileRegistry) CreateOrUpdate(ctx context.Context, phone string, traits *customer.Traits) bool {
	if traits.Empty() {
		return true
	}

	err := r.store.UpdateProfile(ctx, phone, traits)
	if storage.IsNotFound(err) {
		err = r.store.CreateProfile(ctx, phone, traits)
	}
	if err != nil {
		r.logger.Warn("profile upsert failed", "phone", phone, "error", err)
		return false
	}

	return true
}

// GetOrCreate looks the profile up first; if found, applies any supplied
// traits and returns the existing identifier. If not found, inserts a new
// profile row with the supplied traits (or nulls). The second return is
// false only on store failure.
func (r *ProfileRegistry) GetOrCreate(ctx context.Context, phone string, traits *customer.Traits) (string, bool) {
	_, err := r.store.GetProfile(ctx, phone)
	switch {
	case err == nil:
		if !traits.Empty() {
			// Best effort - the profile exists, so its identifier is
			// returned even when the trait update fails.
			if uerr := r.store.UpdateProfile(ctx, phone, traits); uerr != nil {
				r.logger.Warn("trait update failed", "phone", phone, "error", uerr)
			}
		}
		return phone, true

	case storage.IsNotFound(err):
		if cerr := r.store.CreateProfile(ctx, phone, traits); cerr != nil {
			r.logger.Warn("profile create failed", "phone", phone, "error", cerr)
			return "", false
		}
		return phone, true

	default:
		r.logger.Warn("profile lookup failed", "phone", phone, "error", err)
		return "", false
	}
}
