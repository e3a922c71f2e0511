package sqlite

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ftsQuery", func() {
	It("quotes a single token", func() {
		Expect(ftsQuery("budget")).To(Equal(`"budget"`))
	})

	It("requires every term by joining tokens with the implicit FTS5 AND", func() {
		// "mortgage rate" must not match an observation mentioning only
		// one of the two words; the recall engine's recency fallback
		// handles partial matches instead.
		Expect(ftsQuery("mortgage rate")).To(Equal(`"mortgage" "rate"`))
	})

	It("strips embedded quotes so user input cannot break the match syntax", func() {
		Expect(ftsQuery(`say "hello"`)).To(Equal(`"say" "hello"`))
	})

	It("collapses whitespace-only input to an empty query", func() {
		Expect(ftsQuery("   ")).To(Equal(""))
	})

	It("drops tokens that are nothing but quotes", func() {
		Expect(ftsQuery(`budget ""`)).To(Equal(`"budget"`))
	})
})
