package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/kvstore"
)

func newInvestmentsRepo() *InvestmentsRepository {
	store := kvstore.NewMemoryStore()
	return NewInvestmentsRepository(store, "t.inv.positions", "t.inv.snapshots", "t.inv.refs")
}

func TestPositionDerivedAmount(t *testing.T) {
	ctx := context.Background()
	repo := newInvestmentsRepo()

	created, err := repo.CreatePosition(ctx, PositionInput{
		AssetType: core.AssetCrypto,
		Ticker:    " btc ",
		USDSpent:  mustDecimal(t, "1000"),
		BuyPrice:  mustDecimal(t, "40000"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Ticker != "BTC" {
		t.Errorf("ticker not normalized: %q", created.Ticker)
	}
	if created.Amount.String() != "0.025" {
		t.Errorf("amount = %s, want 0.025", created.Amount)
	}

	t.Run("recomputed on update", func(t *testing.T) {
		price := mustDecimal(t, "50000")
		updated, err := repo.UpdatePosition(ctx, created.ID, PositionPatch{BuyPrice: &price})
		if err != nil {
			t.Fatal(err)
		}
		if updated.Amount.String() != "0.02" {
			t.Errorf("amount = %s, want 0.02", updated.Amount)
		}
	})

	t.Run("invalid inputs", func(t *testing.T) {
		for name, in := range map[string]PositionInput{
			"bad asset type": {AssetType: "bond", Ticker: "X", USDSpent: mustDecimal(t, "1"), BuyPrice: mustDecimal(t, "1")},
			"empty ticker":   {AssetType: core.AssetStock, Ticker: " ", USDSpent: mustDecimal(t, "1"), BuyPrice: mustDecimal(t, "1")},
			"zero cost":      {AssetType: core.AssetStock, Ticker: "X", USDSpent: decimal.Zero, BuyPrice: mustDecimal(t, "1")},
			"zero price":     {AssetType: core.AssetStock, Ticker: "X", USDSpent: mustDecimal(t, "1"), BuyPrice: decimal.Zero},
		} {
			if _, err := repo.CreatePosition(ctx, in); err == nil || !core.IsValidation(err) {
				t.Errorf("%s: expected validation error, got %v", name, err)
			}
		}
	})
}

func TestDailyRefWindowing(t *testing.T) {
	ctx := context.Background()
	repo := newInvestmentsRepo()

	day1 := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)

	refs, err := repo.UpdateDailyRefIfNeeded(ctx, core.AssetStock, "AAPL", mustDecimal(t, "200"), day1)
	if err != nil {
		t.Fatal(err)
	}
	if refs.DailyRefPrice.String() != "200" {
		t.Fatalf("uninitialized ref should take the first price, got %s", refs.DailyRefPrice)
	}

	t.Run("same UTC day is a no-op", func(t *testing.T) {
		later := day1.Add(8 * time.Hour)
		refs, err := repo.UpdateDailyRefIfNeeded(ctx, core.AssetStock, "AAPL", mustDecimal(t, "210"), later)
		if err != nil {
			t.Fatal(err)
		}
		if refs.DailyRefPrice.String() != "200" {
			t.Errorf("same-day update changed the ref: %s", refs.DailyRefPrice)
		}
	})

	t.Run("next UTC day refreshes", func(t *testing.T) {
		day2 := day1.Add(24 * time.Hour)
		refs, err := repo.UpdateDailyRefIfNeeded(ctx, core.AssetStock, "AAPL", mustDecimal(t, "215"), day2)
		if err != nil {
			t.Fatal(err)
		}
		if refs.DailyRefPrice.String() != "215" {
			t.Errorf("next-day update should refresh, got %s", refs.DailyRefPrice)
		}
	})
}

func TestMonthRefWindowing(t *testing.T) {
	ctx := context.Background()
	repo := newInvestmentsRepo()

	july := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	if _, err := repo.UpdateMonthRefIfNeeded(ctx, core.AssetCrypto, "ETH", mustDecimal(t, "3000"), july); err != nil {
		t.Fatal(err)
	}

	// Still July: no-op even weeks later.
	refs, err := repo.UpdateMonthRefIfNeeded(ctx, core.AssetCrypto, "ETH", mustDecimal(t, "3500"), july.AddDate(0, 0, 27))
	if err != nil {
		t.Fatal(err)
	}
	if refs.MonthRefPrice.String() != "3000" {
		t.Errorf("same-month update changed the ref: %s", refs.MonthRefPrice)
	}

	// August boundary refreshes.
	refs, err = repo.UpdateMonthRefIfNeeded(ctx, core.AssetCrypto, "ETH", mustDecimal(t, "3600"), july.AddDate(0, 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if refs.MonthRefPrice.String() != "3600" {
		t.Errorf("next-month update should refresh, got %s", refs.MonthRefPrice)
	}

	// The daily ref is untouched by monthly updates.
	if refs.DailyRefPrice.Sign() != 0 {
		t.Errorf("daily ref should stay zero, got %s", refs.DailyRefPrice)
	}
}

func TestRefsLazyInitFromLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := newInvestmentsRepo()

	older := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC)
	for _, s := range []SnapshotInput{
		{AssetType: core.AssetStock, Ticker: "AAPL", Timestamp: older, Price: mustDecimal(t, "190"), Source: "manual"},
		{AssetType: core.AssetStock, Ticker: "AAPL", Timestamp: newer, Price: mustDecimal(t, "195"), Source: "manual"},
	} {
		if _, err := repo.AddSnapshot(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	refs, err := repo.Refs(ctx, core.AssetStock, "aapl")
	if err != nil {
		t.Fatal(err)
	}
	if refs.DailyRefPrice.String() != "195" || refs.MonthRefPrice.String() != "195" {
		t.Errorf("refs should initialize from the latest snapshot, got %+v", refs)
	}

	t.Run("no snapshots initializes to zero", func(t *testing.T) {
		refs, err := repo.Refs(ctx, core.AssetCrypto, "SOL")
		if err != nil {
			t.Fatal(err)
		}
		if refs.DailyRefPrice.Sign() != 0 || refs.MonthRefPrice.Sign() != 0 {
			t.Errorf("expected zero refs, got %+v", refs)
		}
	})
}

func TestInvestmentsClearAll(t *testing.T) {
	ctx := context.Background()
	repo := newInvestmentsRepo()

	if _, err := repo.CreatePosition(ctx, PositionInput{
		AssetType: core.AssetStock, Ticker: "AAPL",
		USDSpent: mustDecimal(t, "100"), BuyPrice: mustDecimal(t, "200"),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.AddSnapshot(ctx, SnapshotInput{
		AssetType: core.AssetStock, Ticker: "AAPL", Price: mustDecimal(t, "200"),
	}); err != nil {
		t.Fatal(err)
	}

	if err := repo.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	positions, _ := repo.ListPositions(ctx)
	snapshots, _ := repo.ListSnapshots(ctx, core.AssetStock, "AAPL")
	if len(positions) != 0 || len(snapshots) != 0 {
		t.Errorf("clearAll left %d positions, %d snapshots", len(positions), len(snapshots))
	}
}
