package mcp

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/logger"
	"github.com/dialpoint/memline/pkg/memory"
	"github.com/dialpoint/memline/pkg/storage/inmemory"
)

const testPhone = "+15550001111"

var _ = Describe("Memory tools", func() {
	var (
		server *Server
		driver *inmemory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		log := logger.Nop()
		driver = inmemory.NewDriver()

		var err error
		server, err = NewServer(Config{
			Memories: memory.NewService(driver, log),
			Logger:   log,
		})
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	seedObservation := func(content string, age time.Duration) {
		obs, err := customer.NewObservation(testPhone, content, customer.SourceVoice)
		Expect(err).NotTo(HaveOccurred())
		obs.OccurredAt = time.Now().UTC().Add(-age)
		Expect(driver.CreateObservation(ctx, obs)).To(Succeed())
	}

	Describe("handleMemoryRecall", func() {
		It("rejects a missing phone", func() {
			result, _, err := server.handleMemoryRecall(ctx, nil, MemoryRecallInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})

		It("returns recent observations when no query is given", func() {
			Expect(driver.CreateProfile(ctx, testPhone, nil)).To(Succeed())
			seedObservation("older fact", 2*time.Hour)
			seedObservation("newer fact", time.Hour)

			result, output, err := server.handleMemoryRecall(ctx, nil, MemoryRecallInput{Phone: testPhone})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Observations).To(HaveLen(2))
			Expect(output.Observations[0].Content).To(Equal("newer fact"))
			Expect(output.Summaries).To(BeEmpty())
		})

		It("returns matching observations for a query", func() {
			Expect(driver.CreateProfile(ctx, testPhone, nil)).To(Succeed())
			seedObservation("budget is $300,000", time.Hour)
			seedObservation("prefers sms contact", 2*time.Hour)

			result, output, err := server.handleMemoryRecall(ctx, nil, MemoryRecallInput{
				Phone: testPhone,
				Query: "budget",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Observations).To(HaveLen(1))
			Expect(output.Observations[0].Content).To(ContainSubstring("budget"))
		})

		It("returns an empty result for an unknown customer", func() {
			result, output, err := server.handleMemoryRecall(ctx, nil, MemoryRecallInput{Phone: "+19998887777"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Observations).To(BeEmpty())
		})
	})

	Describe("handleSaveObservation", func() {
		It("rejects a missing phone", func() {
			result, output, err := server.handleSaveObservation(ctx, nil, SaveObservationInput{
				Content: "something",
				Source:  "voice",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(output.Saved).To(BeFalse())
		})

		It("rejects an unknown source", func() {
			result, _, err := server.handleSaveObservation(ctx, nil, SaveObservationInput{
				Phone:   testPhone,
				Content: "something",
				Source:  "telegraph",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})

		It("creates the profile and saves the observation", func() {
			result, output, err := server.handleSaveObservation(ctx, nil, SaveObservationInput{
				Phone:   testPhone,
				Content: "Customer asked about closing costs",
				Source:  "whatsapp",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Saved).To(BeTrue())

			count, err := driver.CountObservations(ctx, testPhone)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))

			_, err = driver.GetProfile(ctx, testPhone)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects empty content", func() {
			result, output, err := server.handleSaveObservation(ctx, nil, SaveObservationInput{
				Phone:   testPhone,
				Content: "   ",
				Source:  "voice",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(output.Saved).To(BeFalse())
		})
	})
})
