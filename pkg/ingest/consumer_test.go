package ingest

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/logger"
	"github.com/dialpoint/memline/pkg/memory"
	"github.com/dialpoint/memline/pkg/storage/inmemory"
)

var _ = Describe("Consumer handleMessage", func() {
	var (
		consumer *Consumer
		driver   *inmemory.Driver
		ctx      context.Context
	)

	BeforeEach(func() {
		log := logger.Nop()
		driver = inmemory.NewDriver()
		consumer = &Consumer{
			memories: memory.NewService(driver, log),
			logger:   log,
		}
		ctx = context.Background()
	})

	It("creates the profile and stores extracted facts", func() {
		event := validEvent()
		event.Messages = []customer.Message{
			{Role: "user", Content: "I need pre-approval and my budget is $350,000"},
		}
		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		Expect(consumer.handleMessage(ctx, payload)).To(Succeed())

		_, err = driver.GetProfile(ctx, event.CustomerPhone)
		Expect(err).NotTo(HaveOccurred())

		observations, err := driver.RecentObservations(ctx, event.CustomerPhone, 10)
		Expect(err).NotTo(HaveOccurred())

		contents := make([]string, len(observations))
		for i, obs := range observations {
			contents[i] = obs.Content
			Expect(obs.Source).To(Equal(customer.SourceVoice))
		}
		Expect(contents).To(ConsistOf(
			"Customer expressed interest in mortgage pre-approval",
			"Customer mentioned a budget of $350,000",
		))
	})

	It("succeeds with no observations for a transcript without patterns", func() {
		event := validEvent()
		event.Messages = []customer.Message{
			{Role: "user", Content: "Hello there"},
		}
		payload, _ := json.Marshal(event)

		Expect(consumer.handleMessage(ctx, payload)).To(Succeed())

		count, err := driver.CountObservations(ctx, event.CustomerPhone)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeZero())

		// The profile is still registered even when no facts fire.
		_, err = driver.GetProfile(ctx, event.CustomerPhone)
		Expect(err).NotTo(HaveOccurred())
	})

	It("does not create duplicate profiles for a returning customer", func() {
		Expect(driver.CreateProfile(ctx, "+15550001111", nil)).To(Succeed())

		payload, _ := json.Marshal(validEvent())
		Expect(consumer.handleMessage(ctx, payload)).To(Succeed())

		profiles, err := driver.ListProfiles(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(profiles).To(HaveLen(1))
	})

	It("returns an error for an undecodable payload", func() {
		Expect(consumer.handleMessage(ctx, []byte("{broken"))).NotTo(Succeed())
	})
})
