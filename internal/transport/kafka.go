package transport

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"uplink/internal/logging"
)

const (
	consumerMinBytes = 1
	consumerMaxBytes = 10 << 20
)

// KafkaBroker is the production Transport, speaking the Kafka protocol to
// the replicated stream fabric. Stream identities map onto topic prefixes
// via Address.
type KafkaBroker struct {
	addrs       []string
	pollTimeout time.Duration
	logger      *slog.Logger
}

// NewKafkaBroker constructs a broker client for the given bootstrap
// addresses. pollTimeout bounds each consumer poll; a poll that elapses with
// no message ends the drain pass.
func NewKafkaBroker(addrs []string, pollTimeout time.Duration, logger *slog.Logger) *KafkaBroker {
	if pollTimeout <= 0 {
		pollTimeout = 2 * time.Second
	}
	return &KafkaBroker{
		addrs:       addrs,
		pollTimeout: pollTimeout,
		logger:      logging.NewComponentLogger(logger, "transport"),
	}
}

// Produce publishes the batch through a short-lived writer. Any error —
// including a flush failure after some messages were accepted — is reported
// as failure of the whole batch.
func (b *KafkaBroker) Produce(ctx context.Context, stream, topic string, payloads [][]byte) error {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(b.addrs...),
		Topic:                  Address(stream, topic),
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	defer writer.Close()

	messages := make([]kafka.Message, 0, len(payloads))
	for _, payload := range payloads {
		messages = append(messages, kafka.Message{Value: payload})
	}

	b.logger.Debug("producing batch",
		logging.String(logging.FieldStream, stream),
		logging.String(logging.FieldTopic, topic),
		logging.Int("messages", len(messages)),
	)
	return writer.WriteMessages(ctx, messages...)
}

// Consume establishes a fresh subscription for the group and yields message
// payloads until the poll window elapses with nothing new. Offsets are
// committed after each yielded message, so an interrupted pass redelivers
// the in-flight message on the next drain (at-least-once). New groups start
// from the earliest retained offset.
func (b *KafkaBroker) Consume(ctx context.Context, stream, topic, group string) iter.Seq[[]byte] {
	address := Address(stream, topic)
	if group == "" {
		group = "ephemeral-" + uuid.NewString()
	}

	return func(yield func([]byte) bool) {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:     b.addrs,
			GroupID:     group,
			Topic:       address,
			MinBytes:    consumerMinBytes,
			MaxBytes:    consumerMaxBytes,
			MaxWait:     b.pollTimeout,
			StartOffset: kafka.FirstOffset,
		})
		defer reader.Close()

		for {
			pollCtx, cancel := context.WithTimeout(ctx, b.pollTimeout)
			message, err := reader.FetchMessage(pollCtx)
			cancel()
			if err != nil {
				switch {
				case errors.Is(err, context.DeadlineExceeded):
					// Topic momentarily exhausted; end of this drain pass.
				case ctx.Err() != nil:
				default:
					b.logger.Error("consume failed",
						logging.String(logging.FieldStream, stream),
						logging.String(logging.FieldTopic, topic),
						logging.Error(err),
					)
				}
				return
			}

			if !yield(message.Value) {
				return
			}
			if err := reader.CommitMessages(ctx, message); err != nil {
				b.logger.Warn("offset commit failed; message may be redelivered",
					logging.String(logging.FieldTopic, topic),
					logging.Error(err),
				)
			}
		}
	}
}
