package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/kvstore"
	"fintrack/internal/notify"
	"fintrack/internal/storage"
)

func newStatsService(t *testing.T) (*StatsService, *storage.BudgetsRepository, *storage.TransactionsRepository, kvstore.Store) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	bus := notify.NewBus()
	budgets := storage.NewBudgetsRepository(store, "t.budgets")
	transactions := storage.NewTransactionsRepository(store, "t.transactions", bus)
	return NewStatsService(budgets, transactions, bus), budgets, transactions, store
}

func expense(amount, categoryID, sub, date string) storage.TransactionInput {
	return storage.TransactionInput{
		AccountID:       "acc1",
		Amount:          amount,
		Category:        "Comida",
		CategoryID:      categoryID,
		SubcategoryName: sub,
		Date:            date,
	}
}

func TestBudgetSpentAggregation(t *testing.T) {
	ctx := context.Background()
	svc, budgets, transactions, _ := newStatsService(t)

	budget, err := budgets.Create(ctx, storage.BudgetInput{
		Name:  "Delivery marzo",
		Limit: decimal.RequireFromString("400"),
		Month: "2026-03",
		ScopeRules: []core.ScopeRule{{
			CategoryID:       "cat_food",
			Mode:             core.ScopeSelectedSubcategories,
			SubcategoryNames: []string{"Delivery"},
		}},
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	for _, in := range []storage.TransactionInput{
		expense("-300", "cat_food", "Delivery", "2026-03-05"),
		expense("-200", "cat_food", "Super", "2026-03-08"),
		expense("900", "cat_food", "Delivery", "2026-03-12"),
	} {
		if _, err := transactions.Create(ctx, in); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	spent, found, err := svc.BudgetSpent(ctx, budget.ID)
	if err != nil {
		t.Fatalf("budget spent: %v", err)
	}
	if !found {
		t.Fatal("budget not found")
	}
	if want := decimal.RequireFromString("300"); !spent.Equal(want) {
		t.Errorf("spent = %s, want %s", spent, want)
	}
}

func TestBudgetSpentExcludesOtherMonths(t *testing.T) {
	ctx := context.Background()
	svc, budgets, transactions, _ := newStatsService(t)

	budget, err := budgets.Create(ctx, storage.BudgetInput{
		Name:  "Comida",
		Limit: decimal.RequireFromString("500"),
		Month: "2026-03",
		ScopeRules: []core.ScopeRule{{
			CategoryID: "cat_food",
			Mode:       core.ScopeAllSubcategories,
		}},
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	if _, err := transactions.Create(ctx, expense("-100", "cat_food", "", "2026-03-01")); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if _, err := transactions.Create(ctx, expense("-50", "cat_food", "", "2026-04-01")); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	spent, _, err := svc.BudgetSpent(ctx, budget.ID)
	if err != nil {
		t.Fatalf("budget spent: %v", err)
	}
	if want := decimal.RequireFromString("100"); !spent.Equal(want) {
		t.Errorf("spent = %s, want %s", spent, want)
	}
}

func TestBudgetSpentUnknownBudget(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newStatsService(t)

	spent, found, err := svc.BudgetSpent(ctx, "missing")
	if err != nil {
		t.Fatalf("budget spent: %v", err)
	}
	if found {
		t.Error("expected found=false for unknown budget")
	}
	if !spent.IsZero() {
		t.Errorf("spent = %s, want 0", spent)
	}
}

func TestBudgetSpentRevisionCaching(t *testing.T) {
	ctx := context.Background()
	svc, budgets, transactions, store := newStatsService(t)

	budget, err := budgets.Create(ctx, storage.BudgetInput{
		Name:  "Comida",
		Limit: decimal.RequireFromString("500"),
		Month: "2026-03",
		ScopeRules: []core.ScopeRule{{
			CategoryID: "cat_food",
			Mode:       core.ScopeAllSubcategories,
		}},
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if _, err := transactions.Create(ctx, expense("-100", "cat_food", "", "2026-03-01")); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	spent, _, err := svc.BudgetSpent(ctx, budget.ID)
	if err != nil {
		t.Fatalf("budget spent: %v", err)
	}
	if want := decimal.RequireFromString("100"); !spent.Equal(want) {
		t.Fatalf("spent = %s, want %s", spent, want)
	}

	t.Run("same revision serves the memoized sum", func(t *testing.T) {
		// Edit behind the repository's back so no revision bump happens.
		raw, _, err := store.Read(ctx, "t.transactions")
		if err != nil {
			t.Fatalf("read raw: %v", err)
		}
		if err := store.Write(ctx, "t.transactions", []byte(`{"version":1,"items":[]}`)); err != nil {
			t.Fatalf("write raw: %v", err)
		}
		spent, _, err := svc.BudgetSpent(ctx, budget.ID)
		if err != nil {
			t.Fatalf("budget spent: %v", err)
		}
		if want := decimal.RequireFromString("100"); !spent.Equal(want) {
			t.Errorf("spent = %s, want cached %s", spent, want)
		}
		if err := store.Write(ctx, "t.transactions", raw); err != nil {
			t.Fatalf("restore raw: %v", err)
		}
	})

	t.Run("revision bump recomputes", func(t *testing.T) {
		if _, err := transactions.Create(ctx, expense("-25", "cat_food", "", "2026-03-02")); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
		spent, _, err := svc.BudgetSpent(ctx, budget.ID)
		if err != nil {
			t.Fatalf("budget spent: %v", err)
		}
		if want := decimal.RequireFromString("125"); !spent.Equal(want) {
			t.Errorf("spent = %s, want %s", spent, want)
		}
	})
}
