// Package memory implements the customer memory layer for the memline
// system.
//
// The layer stores short textual observations about a customer, recalls them
// on demand (optionally via full-text search with a recency fallback), and
// extracts facts from conversation transcripts. Persistence and search are
// delegated to an injected storage driver; this package owns the policies:
// who may own an observation, how recall falls back, and which transcript
// patterns produce facts.
//
// Service is the consumer-facing surface. Its methods never propagate
// failures: every operation has a total signature using sentinel values
// (false, "", nil) so a failed recall degrades to "no memory context" in the
// caller's prompt rather than erroring the conversation. The inner components
// (ProfileRegistry, RecallEngine, FactExtractor) return ordinary errors and
// are usable on their own when callers want the distinction back.
package memory

import (
	"context"
	"log/slog"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/storage"
)

// Service is the consumer-facing memory API. External collaborators (the
// prompt builder, the conversation manager, the API server) call Service;
// failures are logged server-side and reported as sentinels.
type Service struct {
	store     storage.Driver
	registry  *ProfileRegistry
	recaller  *RecallEngine
	extractor *FactExtractor
	logger    *slog.Logger
}

// NewService creates a memory service on top of the given storage driver.
func NewService(store storage.Driver, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		registry:  NewProfileRegistry(store, logger),
		recaller:  NewRecallEngine(store, logger),
		extractor: NewFactExtractor(store, logger),
		logger:    logger,
	}
}

// CreateOrUpdateProfile upserts profile traits. Nil traits succeed trivially
// with no write. Returns false only when the store reports a failure.
func (s *Service) CreateOrUpdateProfile(ctx context.Context, phone string, traits *customer.Traits) bool {
	return s.registry.CreateOrUpdate(ctx, phone, traits)
}

// LookupProfile resolves a phone to its profile identifier. The second
// return is false when no profile exists or the lookup failed.
func (s *Service) LookupProfile(ctx context.Context, phone string) (string, bool) {
	return s.registry.Lookup(ctx, phone)
}

// GetOrCreateProfile returns the profile identifier for phone, creating the
// profile when absent. The second return is false only on store failure.
func (s *Service) GetOrCreateProfile(ctx context.Context, phone string, traits *customer.Traits) (string, bool) {
	return s.registry.GetOrCreate(ctx, phone, traits)
}

// CreateObservation records a single observation. False means "not
// persisted" - there is no partial-write state to clean up.
func (s *Service) CreateObservation(ctx context.Context, phone, content string, source customer.Source) bool {
	obs, err := customer.NewObservation(phone, content, source)
	if err != nil {
		s.logger.Warn("rejected observation", "phone", phone, "error", err)
		return false
	}

	if err := s.store.CreateObservation(ctx, obs); err != nil {
		s.logger.Warn("failed to persist observation", "phone", phone, "error", err)
		return false
	}

	return true
}

// RecallMemories retrieves observations relevant to the query, with the
// recency fallback policy of RecallEngine. A nil result means the recall
// failed; an empty result means the customer has no matching history -
// callers can tell the two apart.
func (s *Service) RecallMemories(ctx context.Context, phone, query, conversationID string) *customer.RecallResult {
	result, err := s.recaller.Recall(ctx, phone, query, conversationID)
	if err != nil {
		s.logger.Warn("recall failed", "phone", phone, "error", err)
		return nil
	}

	return result
}

// ExtractAndStoreObservations scans a conversation transcript for known
// patterns and persists any facts found. Fire-and-forget: failures are
// logged and never surfaced.
func (s *Service) ExtractAndStoreObservations(ctx context.Context, phone string, messages []customer.Message, source customer.Source) {
	s.extractor.ExtractAndStore(ctx, phone, messages, source)
}

// ListCustomers returns every profile with its observation count and latest
// activity, for the dashboard read API. Nil on failure.
func (s *Service) ListCustomers(ctx context.Context) []CustomerSummary {
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		s.logger.Warn("failed to list profiles", "error", err)
		return nil
	}

	summaries := make([]CustomerSummary, 0, len(profiles))
	for _, p := range profiles {
		count, err := s.store.CountObservations(ctx, p.Phone)
		if err != nil {
			s.logger.Warn("failed to count observations", "phone", p.Phone, "error", err)
			continue
		}

		summaries = append(summaries, CustomerSummary{
			Profile:      p,
			Observations: count,
		})
	}

	return summaries
}

// CustomerSummary is a dashboard row: a profile plus its observation count.
type CustomerSummary struct {
	Profile      customer.Profile `json:"profile"`
	Observations int              `json:"observations"`
}
