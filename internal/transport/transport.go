package transport

import (
	"context"
	"fmt"
	"iter"
)

// Transport is the named-stream, named-topic publish/subscribe primitive the
// pipeline engines are built on.
//
// Produce publishes the batch all-or-nothing: an error means callers must
// treat every message in the batch as unpublished, even if the broker
// accepted some of them before the flush failed.
//
// Consume returns a lazy, exhaustible, non-restartable sequence. Each call
// establishes a fresh subscription for the given consumer group; a group name
// of "" selects an ephemeral group that replays the whole retained log. The
// sequence ends without error once a bounded poll elapses with no further
// messages — the exhaustion signal drain passes rely on. Delivery is
// at-least-once; consumers must be idempotent with respect to duplicates.
//
// A (stream, group) pair must not be drained from two passes concurrently;
// callers serialize drains of the same logical consumer.
type Transport interface {
	Produce(ctx context.Context, stream, topic string, payloads [][]byte) error
	Consume(ctx context.Context, stream, topic, group string) iter.Seq[[]byte]
}

// Address renders the broker-level topic name for a (stream, topic) pair.
func Address(stream, topic string) string {
	return fmt.Sprintf("%s.%s", stream, topic)
}
