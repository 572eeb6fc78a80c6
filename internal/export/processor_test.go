package export

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/export/memory"
	"fintrack/internal/kvstore"
	"fintrack/internal/storage"
)

func seedTransactions(t *testing.T, repo *storage.TransactionsRepository, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := repo.Create(ctx, storage.TransactionInput{
			AccountID:  "acc1",
			Amount:     "-10",
			Category:   "Comida",
			CategoryID: "cat_food",
			Date:       "2026-03-15",
		})
		if err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}
}

func TestProcessorExportsOnce(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewTransactionsRepository(kvstore.NewMemoryStore(), "t.transactions", nil)
	sink := memory.New()
	p := NewProcessor(repo, sink, ProcessorConfig{PollInterval: time.Hour, BatchSize: 10})

	seedTransactions(t, repo, 3)

	p.exportPending(ctx)
	if got := len(sink.Rows()); got != 3 {
		t.Fatalf("exported %d rows, want 3", got)
	}

	// A second cycle with no new data appends nothing.
	p.exportPending(ctx)
	if got := len(sink.Rows()); got != 3 {
		t.Errorf("exported %d rows after idle cycle, want 3", got)
	}

	seedTransactions(t, repo, 1)
	p.exportPending(ctx)
	if got := len(sink.Rows()); got != 4 {
		t.Errorf("exported %d rows after new transaction, want 4", got)
	}
}

func TestProcessorBatchLimit(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewTransactionsRepository(kvstore.NewMemoryStore(), "t.transactions", nil)
	sink := memory.New()
	p := NewProcessor(repo, sink, ProcessorConfig{PollInterval: time.Hour, BatchSize: 2})

	seedTransactions(t, repo, 5)

	p.exportPending(ctx)
	if got := len(sink.Rows()); got != 2 {
		t.Fatalf("exported %d rows, want batch of 2", got)
	}

	// The overflow cycle was queued on the trigger channel.
	select {
	case <-p.trigger:
	default:
		t.Error("expected a queued trigger for the remaining rows")
	}

	p.exportPending(ctx)
	p.exportPending(ctx)
	if got := len(sink.Rows()); got != 5 {
		t.Errorf("exported %d rows total, want 5", got)
	}
}

func TestProcessorLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewTransactionsRepository(kvstore.NewMemoryStore(), "t.transactions", nil)
	p := NewProcessor(repo, memory.New(), ProcessorConfig{PollInterval: time.Hour, BatchSize: 10})

	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("second Start should fail while running")
	}
	if !p.IsRunning() {
		t.Error("processor should report running")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if p.IsRunning() {
		t.Error("processor should report stopped")
	}
}
