// Package inmemory provides an in-memory storage driver used for tests and
// as the default development store.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/storage"
)

// Driver implements storage.Driver using in-process maps.
//
// Search is a case-insensitive substring match over observation content. It
// approximates the token-based full-text search of the real backends closely
// enough for tests; ranking is recency, same as the SQL drivers.
type Driver struct {
	// mu guards both maps.
	mu sync.RWMutex

	// profiles maps phone -> profile.
	profiles map[string]*customer.Profile

	// observations maps phone -> append-ordered observations.
	observations map[string][]customer.Observation
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		profiles:     make(map[string]*customer.Profile),
		observations: make(map[string][]customer.Observation),
	}
}

// GetProfile retrieves a profile by phone.
func (d *Driver) GetProfile(_ context.Context, phone string) (*customer.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.profiles[phone]
	if !ok {
		return nil, storage.ErrNotFound{Phone: phone}
	}

	cp := *p
	return &cp, nil
}

// CreateProfile inserts a new profile row.
func (d *Driver) CreateProfile(_ context.Context, phone string, traits *customer.Traits) error {
	if phone == "" {
		return errors.New("cannot create profile without a phone")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.profiles[phone]; ok {
		return errors.New("profile already exists: " + phone)
	}

	now := time.Now().UTC()
	p := &customer.Profile{
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if traits != nil {
		p.Name = traits.Name
		p.Email = traits.Email
	}

	d.profiles[phone] = p
	return nil
}

// UpdateProfile applies the non-nil trait fields to an existing profile.
func (d *Driver) UpdateProfile(_ context.Context, phone string, traits *customer.Traits) error {
	if traits.Empty() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.profiles[phone]
	if !ok {
		return storage.ErrNotFound{Phone: phone}
	}

	if traits.Name != nil {
		p.Name = traits.Name
	}
	if traits.Email != nil {
		p.Email = traits.Email
	}
	p.UpdatedAt = time.Now().UTC()

	return nil
}

// ListProfiles returns all profiles ordered by most recent update first.
func (d *Driver) ListProfiles(_ context.Context) ([]customer.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	profiles := make([]customer.Profile, 0, len(d.profiles))
	for _, p := range d.profiles {
		profiles = append(profiles, *p)
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].UpdatedAt.After(profiles[j].UpdatedAt)
	})

	return profiles, nil
}

// CreateObservation inserts a single observation. The owning profile must
// exist, mirroring the foreign-key constraint of the SQL backends.
func (d *Driver) CreateObservation(_ context.Context, obs *customer.Observation) error {
	if obs == nil {
		return errors.New("cannot store nil observation")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.profiles[obs.Phone]; !ok {
		return storage.ErrNotFound{Phone: obs.Phone}
	}

	d.observations[obs.Phone] = append(d.observations[obs.Phone], *obs)
	return nil
}

// RecentObservations returns up to limit observations ordered by occurred_at
// descending.
func (d *Driver) RecentObservations(_ context.Context, phone string, limit int) ([]customer.Observation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return capObservations(d.sortedDesc(phone), limit), nil
}

// SearchObservations returns up to limit observations whose content contains
// the query, ordered by occurred_at descending.
func (d *Driver) SearchObservations(_ context.Context, phone, query string, limit int) ([]customer.Observation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	needle := strings.ToLower(query)
	var matched []customer.Observation
	for _, obs := range d.sortedDesc(phone) {
		if strings.Contains(strings.ToLower(obs.Content), needle) {
			matched = append(matched, obs)
		}
	}

	return capObservations(matched, limit), nil
}

// CountObservations returns the number of observations for a profile.
func (d *Driver) CountObservations(_ context.Context, phone string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.observations[phone]), nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// sortedDesc returns a copy of a profile's observations ordered by
// occurred_at descending. Callers must hold at least a read lock.
func (d *Driver) sortedDesc(phone string) []customer.Observation {
	src := d.observations[phone]
	out := make([]customer.Observation, len(src))
	copy(out, src)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	return out
}

func capObservations(obs []customer.Observation, limit int) []customer.Observation {
	if limit > 0 && len(obs) > limit {
		return obs[:limit]
	}
	return obs
}
