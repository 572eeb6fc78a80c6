package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/storage"
)

// ProcessorConfig holds configuration for the export processor
type ProcessorConfig struct {
	// PollInterval is how often to look for unexported transactions (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of rows to append per cycle (default: 25)
	BatchSize int
}

// DefaultProcessorConfig returns sensible defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    25,
	}
}

// Processor mirrors the transactions collection into a TransactionWriter.
// It keeps an in-memory set of exported IDs, so a restart re-exports the
// backlog; sinks are expected to tolerate duplicate rows.
type Processor struct {
	transactions *storage.TransactionsRepository
	writer       TransactionWriter
	config       ProcessorConfig

	exported map[string]struct{}
	trigger  chan struct{}

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewProcessor(transactions *storage.TransactionsRepository, writer TransactionWriter, config ProcessorConfig) *Processor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultProcessorConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultProcessorConfig().BatchSize
	}
	return &Processor{
		transactions: transactions,
		writer:       writer,
		config:       config,
		exported:     make(map[string]struct{}),
		trigger:      make(chan struct{}, 1),
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Export processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *Processor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Trigger requests an immediate export cycle. Safe to call from message
// handlers; coalesces when a cycle is already queued.
func (p *Processor) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Processor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Export immediately on startup
	p.exportPending(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-p.trigger:
			p.exportPending(ctx)
		case <-ticker.C:
			p.exportPending(ctx)
		}
	}
}

// exportPending appends transactions not yet seen this run, oldest first,
// up to BatchSize per cycle.
func (p *Processor) exportPending(ctx context.Context) {
	txs, err := p.transactions.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list transactions for export", "error", err)
		return
	}

	appended := 0
	for _, tx := range txs {
		if appended >= p.config.BatchSize {
			p.Trigger() // more left, run again soon
			break
		}
		if _, ok := p.exported[tx.ID]; ok {
			continue
		}

		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		ref, err := p.writer.Append(ctx, tx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction",
				"id", tx.ID, "error", err)
			continue
		}
		p.exported[tx.ID] = struct{}{}
		appended++
		slog.DebugContext(ctx, "Exported transaction", "id", tx.ID, "row_ref", ref)
	}

	if appended > 0 {
		slog.InfoContext(ctx, "Export cycle complete", "appended", appended)
	}
}
