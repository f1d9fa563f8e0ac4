package transport

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBroker is an in-process Transport used by tests and offline demo
// runs. Topics are append-only logs; committed offsets are tracked per
// (address, group) so repeated drain passes of the same logical consumer see
// only new messages, while a fresh group replays the whole log.
type MemoryBroker struct {
	mu      sync.Mutex
	logs    map[string][][]byte
	offsets map[string]int

	pollTimeout time.Duration

	// produceErr, when set, makes the next Produce fail after accepting
	// partial state. Tests use it to assert batch atomicity.
	produceErr error
}

// NewMemoryBroker constructs a broker whose consumers treat a topic as
// exhausted after pollTimeout elapses with no new messages.
func NewMemoryBroker(pollTimeout time.Duration) *MemoryBroker {
	if pollTimeout <= 0 {
		pollTimeout = 50 * time.Millisecond
	}
	return &MemoryBroker{
		logs:        make(map[string][][]byte),
		offsets:     make(map[string]int),
		pollTimeout: pollTimeout,
	}
}

// FailNextProduce makes the next Produce call fail with err, then clears
// itself. No part of the failed batch is retained, matching the
// all-or-nothing contract callers rely on.
func (b *MemoryBroker) FailNextProduce(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.produceErr = err
}

// Produce appends the batch to the addressed topic log.
func (b *MemoryBroker) Produce(ctx context.Context, stream, topic string, payloads [][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.produceErr != nil {
		err := b.produceErr
		b.produceErr = nil
		return err
	}

	address := Address(stream, topic)
	log := b.logs[address]
	for _, payload := range payloads {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		log = append(log, cp)
	}
	b.logs[address] = log
	return nil
}

// Consume yields messages for the group from its committed offset onward,
// committing after each message is handled. Once caught up it waits out the
// poll window for stragglers, then ends the sequence.
func (b *MemoryBroker) Consume(ctx context.Context, stream, topic, group string) iter.Seq[[]byte] {
	address := Address(stream, topic)
	if group == "" {
		group = "ephemeral-" + uuid.NewString()
	}
	cursor := address + "@" + group

	return func(yield func([]byte) bool) {
		deadline := time.Now().Add(b.pollTimeout)
		for {
			if ctx.Err() != nil {
				return
			}

			b.mu.Lock()
			log := b.logs[address]
			offset := b.offsets[cursor]
			var payload []byte
			if offset < len(log) {
				payload = log[offset]
			}
			b.mu.Unlock()

			if payload == nil {
				if time.Now().After(deadline) {
					return
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Millisecond):
				}
				continue
			}

			if !yield(payload) {
				return
			}

			b.mu.Lock()
			b.offsets[cursor] = offset + 1
			b.mu.Unlock()
			deadline = time.Now().Add(b.pollTimeout)
		}
	}
}

// Depth reports the number of retained messages on a topic. Test helper.
func (b *MemoryBroker) Depth(stream, topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.logs[Address(stream, topic)])
}
