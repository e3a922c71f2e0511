package memory_test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/memory"
)

var _ = Describe("FormatMemoriesForPrompt", func() {
	It("renders nil input as the empty string", func() {
		Expect(memory.FormatMemoriesForPrompt(nil)).To(Equal(""))
	})

	It("renders an empty result as the empty string", func() {
		result := &customer.RecallResult{Observations: []customer.Summary{}, Summaries: []string{}}
		Expect(memory.FormatMemoriesForPrompt(result)).To(Equal(""))
	})

	It("renders observations under Customer History with a readable date", func() {
		occurred := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
		result := &customer.RecallResult{
			Observations: []customer.Summary{
				{Content: "Customer inquired about mortgage rates", OccurredAt: occurred, Source: customer.SourceSMS},
			},
			Summaries: []string{},
		}

		out := memory.FormatMemoriesForPrompt(result)
		Expect(out).To(ContainSubstring("Customer History:"))
		Expect(out).To(ContainSubstring("Mar 14, 2026"))
		Expect(out).To(ContainSubstring("Customer inquired about mortgage rates"))
		Expect(out).To(ContainSubstring("(sms)"))
	})

	It("includes only the first five observations", func() {
		var observations []customer.Summary
		for i := 0; i < 6; i++ {
			observations = append(observations, customer.Summary{
				Content:    fmt.Sprintf("observation %d", i),
				OccurredAt: time.Now().Add(-time.Duration(i) * time.Hour),
				Source:     customer.SourceVoice,
			})
		}

		out := memory.FormatMemoriesForPrompt(&customer.RecallResult{
			Observations: observations,
			Summaries:    []string{},
		})
		Expect(out).To(ContainSubstring("observation 4"))
		Expect(out).NotTo(ContainSubstring("observation 5"))
	})

	It("renders summaries under Key Facts", func() {
		out := memory.FormatMemoriesForPrompt(&customer.RecallResult{
			Observations: []customer.Summary{},
			Summaries:    []string{"Long-standing customer, prefers SMS"},
		})
		Expect(out).To(ContainSubstring("Key Facts:"))
		Expect(out).To(ContainSubstring("Long-standing customer, prefers SMS"))
		Expect(out).NotTo(ContainSubstring("Customer History:"))
	})
})
