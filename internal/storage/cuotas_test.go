package storage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/kvstore"
)

func TestCuotaCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewCuotasRepository(kvstore.NewMemoryStore(), "t.cuotas")

	created, err := repo.Create(ctx, CuotaInput{
		Title:        "Heladera",
		Total:        mustDecimal(t, "1000"),
		Installments: 3,
		StartMonth:   "2025-07",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.InstallmentAmount.String() != "333.33" {
		t.Errorf("installment amount = %s, want 333.33", created.InstallmentAmount)
	}
	if created.PaidInstallments != 0 {
		t.Errorf("new plan should start unpaid, got %d", created.PaidInstallments)
	}

	t.Run("invalid inputs", func(t *testing.T) {
		for name, in := range map[string]CuotaInput{
			"blank title":       {Title: " ", Total: mustDecimal(t, "100"), Installments: 2, StartMonth: "2025-07"},
			"zero total":        {Title: "x", Total: decimal.Zero, Installments: 2, StartMonth: "2025-07"},
			"zero installments": {Title: "x", Total: mustDecimal(t, "100"), Installments: 0, StartMonth: "2025-07"},
			"bad month":         {Title: "x", Total: mustDecimal(t, "100"), Installments: 2, StartMonth: "2025/07"},
		} {
			if _, err := repo.Create(ctx, in); err == nil || !core.IsValidation(err) {
				t.Errorf("%s: expected validation error, got %v", name, err)
			}
		}
	})
}

func TestCuotaUpdateRecomputesAndClamps(t *testing.T) {
	ctx := context.Background()
	repo := NewCuotasRepository(kvstore.NewMemoryStore(), "t.cuotas")

	created, err := repo.Create(ctx, CuotaInput{
		Title:        "Tele",
		Total:        mustDecimal(t, "600"),
		Installments: 6,
		StartMonth:   "2025-07",
	})
	if err != nil {
		t.Fatal(err)
	}

	installments := 4
	updated, err := repo.Update(ctx, created.ID, CuotaPatch{Installments: &installments})
	if err != nil {
		t.Fatal(err)
	}
	if updated.InstallmentAmount.String() != "150" {
		t.Errorf("installment amount not recomputed: %s", updated.InstallmentAmount)
	}

	t.Run("paid clamps to range", func(t *testing.T) {
		paid := 99
		updated, err := repo.Update(ctx, created.ID, CuotaPatch{PaidInstallments: &paid})
		if err != nil {
			t.Fatal(err)
		}
		if updated.PaidInstallments != 4 {
			t.Errorf("paid = %d, want clamp to 4", updated.PaidInstallments)
		}
		paid = -3
		updated, _ = repo.Update(ctx, created.ID, CuotaPatch{PaidInstallments: &paid})
		if updated.PaidInstallments != 0 {
			t.Errorf("paid = %d, want clamp to 0", updated.PaidInstallments)
		}
	})

	t.Run("shrinking installments clamps paid", func(t *testing.T) {
		paid := 4
		if _, err := repo.Update(ctx, created.ID, CuotaPatch{PaidInstallments: &paid}); err != nil {
			t.Fatal(err)
		}
		installments := 2
		updated, err := repo.Update(ctx, created.ID, CuotaPatch{Installments: &installments})
		if err != nil {
			t.Fatal(err)
		}
		if updated.PaidInstallments != 2 {
			t.Errorf("paid = %d after shrinking to 2 installments", updated.PaidInstallments)
		}
	})
}

func TestCuotaRegisterPayment(t *testing.T) {
	ctx := context.Background()
	repo := NewCuotasRepository(kvstore.NewMemoryStore(), "t.cuotas")

	created, err := repo.Create(ctx, CuotaInput{
		Title:        "Bici",
		Total:        mustDecimal(t, "300"),
		Installments: 2,
		StartMonth:   "2025-07",
	})
	if err != nil {
		t.Fatal(err)
	}

	for want := 1; want <= 2; want++ {
		got, err := repo.RegisterPayment(ctx, created.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.PaidInstallments != want {
			t.Errorf("paid = %d, want %d", got.PaidInstallments, want)
		}
	}

	// Fully paid plans saturate.
	got, err := repo.RegisterPayment(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PaidInstallments != 2 {
		t.Errorf("paid = %d, want saturation at 2", got.PaidInstallments)
	}

	if missing, err := repo.RegisterPayment(ctx, "missing"); err != nil || missing != nil {
		t.Errorf("missing plan = %+v, %v; want nil, nil", missing, err)
	}
}
