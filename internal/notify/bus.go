// Package notify carries the transactions-changed signal: an in-process
// publish/subscribe bus with a monotonically increasing revision counter.
// Read-models either subscribe for pushes or poll Revision between reads.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Bus fans the transactions-changed signal out to subscribers. It satisfies
// the storage.Notifier contract.
type Bus struct {
	mu       sync.Mutex
	revision uint64
	subs     []chan uint64

	// Forward, when set, mirrors every signal to an external channel
	// (e.g. an AMQP exchange). Failures are logged, never propagated:
	// local writes must not depend on broker availability.
	Forward func(ctx context.Context, revision uint64) error
}

func NewBus() *Bus {
	return &Bus{}
}

// TransactionsChanged bumps the revision and notifies subscribers. Slow
// subscribers are skipped rather than blocked; they catch up by reading the
// revision carried with the next delivery.
func (b *Bus) TransactionsChanged(ctx context.Context) {
	b.mu.Lock()
	b.revision++
	rev := b.revision
	subs := append([]chan uint64(nil), b.subs...)
	forward := b.Forward
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- rev:
		default:
		}
	}

	if forward != nil {
		if err := forward(ctx, rev); err != nil {
			slog.ErrorContext(ctx, "Failed to forward transactions-changed signal",
				"revision", rev, "error", err)
		}
	}
}

// Revision returns the current change revision. Zero means no write has
// happened in this process yet.
func (b *Bus) Revision() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revision
}

// Subscribe returns a buffered channel receiving revisions and a cancel
// function that releases it.
func (b *Bus) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub == ch {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}
