package testutils

import (
	"context"
	"errors"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/storage"
	"github.com/dialpoint/memline/pkg/storage/inmemory"
)

// ErrStoreDown is the error the mock driver returns for failing operations.
var ErrStoreDown = errors.New("store unavailable")

// MockStoreDriver wraps the in-memory driver with switchable failure modes
// so error paths can be exercised without a real backend outage.
type MockStoreDriver struct {
	*inmemory.Driver

	// FailReads causes profile and observation reads to fail.
	FailReads bool

	// FailWrites causes profile and observation writes to fail.
	FailWrites bool

	// FailSearch causes only SearchObservations to fail, leaving the
	// recency reads intact. Exercises the recall engine's search fallback.
	FailSearch bool
}

// NewMockStoreDriver creates a mock driver backed by a fresh in-memory store.
func NewMockStoreDriver() *MockStoreDriver {
	return &MockStoreDriver{Driver: inmemory.NewDriver()}
}

var _ storage.Driver = (*MockStoreDriver)(nil)

func (m *MockStoreDriver) GetProfile(ctx context.Context, phone string) (*customer.Profile, error) {
	if m.FailReads {
		return nil, ErrStoreDown
	}
	return m.Driver.GetProfile(ctx, phone)
}

func (m *MockStoreDriver) CreateProfile(ctx context.Context, phone string, traits *customer.Traits) error {
	if m.FailWrites {
		return ErrStoreDown
	}
	return m.Driver.CreateProfile(ctx, phone, traits)
}

func (m *MockStoreDriver) UpdateProfile(ctx context.Context, phone string, traits *customer.Traits) error {
	if m.FailWrites {
		return ErrStoreDown
	}
	return m.Driver.UpdateProfile(ctx, phone, traits)
}

func (m *MockStoreDriver) ListProfiles(ctx context.Context) ([]customer.Profile, error) {
	if m.FailReads {
		return nil, ErrStoreDown
	}
	return m.Driver.ListProfiles(ctx)
}

func (m *MockStoreDriver) CreateObservation(ctx context.Context, obs *customer.Observation) error {
	if m.FailWrites {
		return ErrStoreDown
	}
	return m.Driver.CreateObservation(ctx, obs)
}

func (m *MockStoreDriver) RecentObservations(ctx context.Context, phone string, limit int) ([]customer.Observation, error) {
	if m.FailReads {
		return nil, ErrStoreDown
	}
	return m.Driver.RecentObservations(ctx, phone, limit)
}

func (m *MockStoreDriver) SearchObservations(ctx context.Context, phone, query string, limit int) ([]customer.Observation, error) {
	if m.FailReads || m.FailSearch {
		return nil, ErrStoreDown
	}
	return m.Driver.SearchObservations(ctx, phone, query, limit)
}

func (m *MockStoreDriver) CountObservations(ctx context.Context, phone string) (int, error) {
	if m.FailReads {
		return 0, ErrStoreDown
	}
	return m.Driver.CountObservations(ctx, phone)
}
