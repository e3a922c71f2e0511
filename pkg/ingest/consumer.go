package ingest

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/memory"
	"github.com/dialpoint/memline/pkg/utils"
)

// payloadPreviewLen bounds how much of a bad payload makes it into the log.
const payloadPreviewLen = 120

// Config holds the Kafka connection settings for the consumer.
type Config struct {
	// Brokers is the list of Kafka bootstrap addresses.
	Brokers []string

	// Topic carries conversation-closed events.
	Topic string

	// GroupID is the consumer group id. All memline replicas share one
	// group so each conversation is processed once.
	GroupID string
}

// Consumer reads conversation-closed events and feeds their transcripts to
// the memory layer. Processing failures never stall the partition: a message
// that cannot be handled is logged and committed anyway, because the memory
// layer is best-effort by design.
type Consumer struct {
	reader   *kafka.Reader
	memories *memory.Service
	logger   *slog.Logger
}

// NewConsumer creates a consumer for the given topic.
func NewConsumer(config Config, memories *memory.Service, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  config.Brokers,
		GroupID:  config.GroupID,
		Topic:    config.Topic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{
		reader:   reader,
		memories: memories,
		logger:   logger,
	}
}

// Run consumes messages until the context is cancelled. It blocks; callers
// run it in a goroutine alongside the API server.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("starting ingest consumer", "topic", c.reader.Config().Topic, "group", c.reader.Config().GroupID)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("stopping ingest consumer")
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}

		if err := c.handleMessage(ctx, msg.Value); err != nil {
			c.logger.Error("failed to handle message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message", "error", err)
		}
	}
}

// handleMessage decodes one event and runs extraction over its transcript.
func (c *Consumer) handleMessage(ctx context.Context, payload []byte) error {
	event, err := DecodeConversationClosedEvent(payload)
	if err != nil {
		c.logger.Warn("discarding undecodable event",
			"payload", utils.Truncate(string(payload), payloadPreviewLen),
		)
		return err
	}

	source, err := customer.ParseSource(event.Source)
	if err != nil {
		return err
	}

	if _, ok := c.memories.GetOrCreateProfile(ctx, event.CustomerPhone, nil); !ok {
		c.logger.Warn("could not resolve profile for event",
			"phone", event.CustomerPhone,
			"conversation_id", event.ConversationID,
		)
		return nil
	}

	c.memories.ExtractAndStoreObservations(ctx, event.CustomerPhone, event.Messages, source)

	c.logger.Debug("processed conversation",
		"phone", event.CustomerPhone,
		"conversation_id", event.ConversationID,
		"messages", len(event.Messages),
	)

	return nil
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
