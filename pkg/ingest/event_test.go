package ingest

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dialpoint/memline/pkg/customer"
)

func validEvent() ConversationClosedEvent {
	return ConversationClosedEvent{
		SchemaVersion:  SchemaVersionV1,
		EventType:      EventTypeConversationClosed,
		ConversationID: "conv_123",
		CustomerPhone:  "+15550001111",
		Source:         "voice",
		ClosedAt:       time.Unix(1735689600, 0).UTC(),
		Messages: []customer.Message{
			{Role: "user", Content: "I want to get pre-approved"},
			{Role: "assistant", Content: "Happy to help with that."},
		},
	}
}

var _ = Describe("DecodeConversationClosedEvent", func() {
	It("decodes a valid event", func() {
		payload, err := json.Marshal(validEvent())
		Expect(err).NotTo(HaveOccurred())

		event, err := DecodeConversationClosedEvent(payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(event.CustomerPhone).To(Equal("+15550001111"))
		Expect(event.ConversationID).To(Equal("conv_123"))
		Expect(event.Messages).To(HaveLen(2))
	})

	It("rejects malformed JSON", func() {
		_, err := DecodeConversationClosedEvent([]byte("{not json"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unexpected event type", func() {
		event := validEvent()
		event.EventType = "memline.conversation.opened"
		payload, _ := json.Marshal(event)

		_, err := DecodeConversationClosedEvent(payload)
		Expect(err).To(MatchError(ContainSubstring("unexpected event type")))
	})

	It("rejects a missing customer phone", func() {
		event := validEvent()
		event.CustomerPhone = ""
		payload, _ := json.Marshal(event)

		_, err := DecodeConversationClosedEvent(payload)
		Expect(err).To(MatchError(ContainSubstring("missing customer phone")))
	})

	It("rejects an unknown source", func() {
		event := validEvent()
		event.Source = "fax"
		payload, _ := json.Marshal(event)

		_, err := DecodeConversationClosedEvent(payload)
		Expect(err).To(MatchError(ContainSubstring("unknown source")))
	})

	It("marshals with the expected top-level keys", func() {
		payload, err := json.Marshal(validEvent())
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("conversation_id"))
		Expect(got).To(HaveKey("customer_phone"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("closed_at"))
		Expect(got).To(HaveKey("messages"))
	})
})
