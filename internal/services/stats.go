package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/budgetscope"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/notify"
	"fintrack/internal/storage"
)

const (
	statsCacheSize = 256
	statsCacheTTL  = 5 * time.Minute
)

// StatsService aggregates transactions against budget scopes. Results are
// memoized per budget and data revision: a transactions-changed bump from
// the bus rotates the cache key, so stale sums are never served.
type StatsService struct {
	budgets      *storage.BudgetsRepository
	transactions *storage.TransactionsRepository
	bus          *notify.Bus
	spent        *cache.LRUCache[decimal.Decimal]
	lastRevision atomic.Uint64
}

func NewStatsService(budgets *storage.BudgetsRepository, transactions *storage.TransactionsRepository, bus *notify.Bus) *StatsService {
	return &StatsService{
		budgets:      budgets,
		transactions: transactions,
		bus:          bus,
		spent:        cache.NewLRUCache[decimal.Decimal](statsCacheSize, statsCacheTTL),
	}
}

// SpentCache exposes the underlying cache for expiry-sweep registration.
func (s *StatsService) SpentCache() cache.Cleaner {
	return s.spent
}

// BudgetSpent returns the total spent against the budget's scope in its
// month: the sum of absolute values of matching expense transactions.
// Income (positive amounts) never counts. Returns (zero, nil, false) when
// the budget does not exist.
func (s *StatsService) BudgetSpent(ctx context.Context, budgetID string) (decimal.Decimal, bool, error) {
	budget, err := s.budgets.GetByID(ctx, budgetID)
	if err != nil {
		return decimal.Zero, false, err
	}
	if budget == nil {
		return decimal.Zero, false, nil
	}

	revision := s.bus.Revision()
	if prev := s.lastRevision.Swap(revision); prev != revision {
		s.spent.Purge()
	}

	key := fmt.Sprintf("%s@%d", budgetID, revision)
	if total, ok := s.spent.Get(key); ok {
		return total, true, nil
	}

	total, err := s.sumSpent(ctx, budget)
	if err != nil {
		return decimal.Zero, false, err
	}
	s.spent.Set(key, total)
	return total, true, nil
}

func (s *StatsService) sumSpent(ctx context.Context, budget *core.Budget) (decimal.Decimal, error) {
	txs, err := s.transactions.ListByMonth(ctx, budget.Month)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, tx := range txs {
		amount, err := decimal.NewFromString(tx.Amount)
		if err != nil {
			continue
		}
		if amount.Sign() >= 0 {
			continue
		}
		if !budgetscope.Matches(budget.ScopeRules, tx) {
			continue
		}
		total = total.Add(amount.Abs())
	}
	return core.RoundMoney(total), nil
}
