package memory_test

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/memory"
	"github.com/dialpoint/memline/pkg/storage/inmemory"
	testutils "github.com/dialpoint/memline/pkg/utils/test"
)

const testPhone = "+15550001111"

// seedObservation inserts an observation with a controlled occurred_at so
// ordering assertions are deterministic.
func seedObservation(ctx context.Context, store *inmemory.Driver, content string, occurredAt time.Time) {
	obs := &customer.Observation{
		ID:         uuid.New(),
		Phone:      testPhone,
		Content:    content,
		Source:     customer.SourceSMS,
		OccurredAt: occurredAt,
		CreatedAt:  occurredAt,
	}
	Expect(store.CreateObservation(ctx, obs)).To(Succeed())
}

var _ = Describe("RecallEngine", func() {
	var (
		engine *memory.RecallEngine
		store  *inmemory.Driver
		ctx    context.Context
		now    time.Time
	)

	BeforeEach(func() {
		store = inmemory.NewDriver()
		engine = memory.NewRecallEngine(store, discardLogger())
		ctx = context.Background()
		now = time.Now().UTC()

		Expect(store.CreateProfile(ctx, testPhone, nil)).To(Succeed())
	})

	Context("with an empty query", func() {
		BeforeEach(func() {
			for i := 0; i < 15; i++ {
				seedObservation(ctx, store,
					fmt.Sprintf("observation %02d", i),
					now.Add(-time.Duration(i)*time.Hour))
			}
		})

		It("returns exactly the 10 most recent observations", func() {
			result, err := engine.Recall(ctx, testPhone, "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Observations).To(HaveLen(10))
		})

		It("orders them by occurred_at descending", func() {
			result, err := engine.Recall(ctx, testPhone, "", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Observations[0].Content).To(Equal("observation 00"))
			for i := 1; i < len(result.Observations); i++ {
				Expect(result.Observations[i].OccurredAt.After(result.Observations[i-1].OccurredAt)).To(BeFalse())
			}
		})

		It("treats a whitespace-only query the same as an empty one", func() {
			result, err := engine.Recall(ctx, testPhone, "   \t", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Observations).To(HaveLen(10))
		})
	})

	Context("with a matching query", func() {
		BeforeEach(func() {
			seedObservation(ctx, store, "asked about mortgage rates", now)
			seedObservation(ctx, store, "prefers email contact", now.Add(-time.Hour))
		})

		It("returns only matching observations", func() {
			result, err := engine.Recall(ctx, testPhone, "mortgage", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Observations).To(HaveLen(1))
			Expect(result.Observations[0].Content).To(ContainSubstring("mortgage"))
		})

		It("carries the observation source and time into the summary", func() {
			result, err := engine.Recall(ctx, testPhone, "mortgage", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Observations[0].Source).To(Equal(customer.SourceSMS))
			Expect(result.Observations[0].OccurredAt).To(BeTemporally("~", now, time.Second))
		})
	})

	Context("with a query matching nothing", func() {
		BeforeEach(func() {
			for i := 0; i < 8; i++ {
				seedObservation(ctx, store,
					fmt.Sprintf("observation %02d", i),
					now.Add(-time.Duration(i)*time.Hour))
			}
		})

		It("falls back to the 5 most recent observations", func() {
			result, err := engine.Recall(ctx, testPhone, "zebra unicorns", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Observations).To(HaveLen(5))
			Expect(result.Observations[0].Content).To(Equal("observation 00"))
		})
	})

	Context("when the search itself errors", func() {
		It("swallows the error and falls back to recency", func() {
			mock := testutils.NewMockStoreDriver()
			Expect(mock.CreateProfile(ctx, testPhone, nil)).To(Succeed())
			obs := &customer.Observation{
				ID: uuid.New(), Phone: testPhone, Content: "only fact",
				Source: customer.SourceVoice, OccurredAt: now, CreatedAt: now,
			}
			Expect(mock.CreateObservation(ctx, obs)).To(Succeed())
			mock.FailSearch = true

			failing := memory.NewRecallEngine(mock, discardLogger())
			result, err := failing.Recall(ctx, testPhone, "anything", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Observations).To(HaveLen(1))
			Expect(result.Observations[0].Content).To(Equal("only fact"))
		})
	})

	Context("for a profile with no observations", func() {
		It("returns an empty result, not a failure", func() {
			result, err := engine.Recall(ctx, testPhone, "anything", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).NotTo(BeNil())
			Expect(result.Observations).To(BeEmpty())
		})
	})

	Context("when the store is unreachable", func() {
		It("reports a failure, distinct from an empty result", func() {
			mock := testutils.NewMockStoreDriver()
			mock.FailReads = true

			failing := memory.NewRecallEngine(mock, discardLogger())
			result, err := failing.Recall(ctx, testPhone, "", "")
			Expect(err).To(HaveOccurred())
			Expect(result).To(BeNil())
		})
	})

	It("always returns empty summaries", func() {
		result, err := engine.Recall(ctx, testPhone, "", "conv_123")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Summaries).To(BeEmpty())
		Expect(result.Summaries).NotTo(BeNil())
	})
})
