package memory

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/storage"
)

// amountPattern matches a dollar amount: "$" followed by digits and commas.
var amountPattern = regexp.MustCompile(`\$[0-9][0-9,]*`)

// FactExtractor scans conversation transcripts for fixed patterns and
// records the facts it finds as observations.
//
// The checks are deliberately naive keyword and regex matches. They are a
// placeholder for an LLM extraction call; keep the produced fact strings
// stable, since stored observations outlive the checks that produced them.
type FactExtractor struct {
	store  storage.Driver
	logger *slog.Logger
}

// NewFactExtractor creates an extractor writing through the given driver.
func NewFactExtractor(store storage.Driver, logger *slog.Logger) *FactExtractor {
	return &FactExtractor{
		store:  store,
		logger: logger,
	}
}

// ExtractAndStore concatenates the user-role messages of one conversation
// exchange and runs the pattern checks against the combined text. Each fact
// is persisted sequentially; a failed insert is logged and does not stop the
// remaining facts. Nothing is ever surfaced to the caller.
func (x *FactExtractor) ExtractAndStore(ctx context.Context, phone string, messages []customer.Message, source customer.Source) {
	facts := ExtractFacts(messages)
	if len(facts) == 0 {
		return
	}

	for _, fact := range facts {
		obs, err := customer.NewObservation(phone, fact, source)
		if err != nil {
			x.logger.Warn("skipping invalid fact", "phone", phone, "error", err)
			continue
		}

		if err := x.store.CreateObservation(ctx, obs); err != nil {
			x.logger.Warn("failed to store extracted fact",
				"phone", phone, "fact", fact, "error", err)
			continue
		}
	}

	x.logger.Debug("extracted facts from transcript",
		"phone", phone, "source", source, "facts", len(facts))
}

// ExtractFacts runs the fixed, ordered pattern checks against the user-role
// text of a transcript and returns the fact strings that fired. The checks
// are independent: several may fire on the same text, and each contributes
// at most one fact. The amount check uses only the first matched amount.
func ExtractFacts(messages []customer.Message) []string {
	var parts []string
	for _, msg := range messages {
		if msg.Role == "user" {
			parts = append(parts, msg.Content)
		}
	}

	blob := strings.Join(parts, " ")
	lower := strings.ToLower(blob)

	var facts []string

	if strings.Contains(lower, "preapproval") || strings.Contains(lower, "pre-approval") {
		facts = append(facts, "Customer expressed interest in mortgage pre-approval")
	}

	if strings.Contains(lower, "first time") && strings.Contains(lower, "buyer") {
		facts = append(facts, "Customer is a first-time home buyer")
	}

	// The amount is taken verbatim from the original text, not the
	// lowercased copy.
	if amount := amountPattern.FindString(blob); amount != "" {
		facts = append(facts, "Customer mentioned a budget of "+amount)
	}

	if strings.Contains(lower, "rate") || strings.Contains(lower, "interest") {
		facts = append(facts, "Customer inquired about mortgage rates")
	}

	if strings.Contains(lower, "document") {
		facts = append(facts, "Customer asked about required documents")
	}

	return facts
}
