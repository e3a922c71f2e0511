package memory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/storage"
)

const (
	// recentLimit is how many observations a recall without a query returns.
	recentLimit = 10

	// searchLimit caps full-text search results.
	searchLimit = 20

	// fallbackLimit is how many recent observations stand in when a search
	// comes back empty.
	fallbackLimit = 5
)

// RecallEngine is the read side of the memory layer. Given a customer and an
// optional free-text query it returns a bounded, most-recent-first result
// set of observations.
type RecallEngine struct {
	store  storage.Driver
	logger *slog.Logger
}

// NewRecallEngine creates a recall engine on top of the given storage driver.
func NewRecallEngine(store storage.Driver, logger *slog.Logger) *RecallEngine {
	return &RecallEngine{
		store:  store,
		logger: logger,
	}
}

// Recall retrieves observations for phone.
//
// With an empty or whitespace-only query it returns the 10 most recent
// observations and no search is attempted. With a query it runs a full-text
// search capped at 20 results; a search error is logged and swallowed, and
// an empty search result - whatever the cause - falls back to the 5 most
// recent observations, ignoring the query. The fallback trades precision for
// always giving the prompt builder something to work with; it also means a
// misconfigured search index degrades silently, so the fallback is logged.
//
// conversationID is accepted for future per-conversation scoping and is
// currently unused.
//
// A non-nil error means the recall failed outright; an empty result with a
// nil error means the customer simply has no matching history. Summaries is
// reserved for derived-fact summarization and always comes back empty.
func (e *RecallEngine) Recall(ctx context.Context, phone, query, conversationID string) (*customer.RecallResult, error) {
	_ = conversationID

	var observations []customer.Observation

	if strings.TrimSpace(query) == "" {
		recent, err := e.store.RecentObservations(ctx, phone, recentLimit)
		if err != nil {
			return nil, err
		}
		observations = recent
	} else {
		found, err := e.store.SearchObservations(ctx, phone, query, searchLimit)
		if err != nil {
			// Search errors degrade to the recency fallback below rather
			// than failing the recall.
			e.logger.Warn("observation search failed", "phone", phone, "error", err)
			found = nil
		}

		if len(found) == 0 {
			e.logger.Debug("search returned nothing, falling back to recency",
				"phone", phone, "query", query)
			recent, err := e.store.RecentObservations(ctx, phone, fallbackLimit)
			if err != nil {
				return nil, err
			}
			found = recent
		}

		observations = found
	}

	summaries := make([]customer.Summary, 0, len(observations))
	for _, obs := range observations {
		summaries = append(summaries, customer.Summary{
			Content:    obs.Content,
			OccurredAt: obs.OccurredAt,
			Source:     obs.Source,
		})
	}

	return &customer.RecallResult{
		Observations: summaries,
		Summaries:    []string{},
	}, nil
}
