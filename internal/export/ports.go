// Package export pushes persisted transactions to external sinks.
package export

import (
	"context"

	"fintrack/internal/core"
)

// TransactionWriter is the outbound port for transaction rows.
type TransactionWriter interface {
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}
