package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/budgetscope"
	"fintrack/internal/core"
	"fintrack/internal/kvstore"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func TestBudgetsMigrationV1(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	v1 := `{"version":1,"items":[
		{"id":"b1","name":"Comida","limit":"500","month":"2025-07","categoryId":"cat_food","createdAt":"2025-07-01T00:00:00Z"},
		{"id":"b2","name":"Casa","limit":"900","month":"2025-07","categoryId":"cat_home"}
	]}`
	if err := store.Write(ctx, "t.budgets", []byte(v1)); err != nil {
		t.Fatal(err)
	}

	repo := NewBudgetsRepository(store, "t.budgets")
	budgets, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list after migration: %v", err)
	}
	if len(budgets) != 2 {
		t.Fatalf("expected 2 budgets, got %d", len(budgets))
	}

	b1 := budgets[0]
	if len(b1.ScopeRules) != 1 {
		t.Fatalf("expected one synthesized rule, got %+v", b1.ScopeRules)
	}
	rule := b1.ScopeRules[0]
	if rule.CategoryID != "cat_food" || rule.Mode != core.ScopeAllSubcategories {
		t.Errorf("migrated rule = %+v, want cat_food/all_subcategories", rule)
	}
	if b1.CategoryID != "cat_food" {
		t.Errorf("primary categoryId = %q, want cat_food", b1.CategoryID)
	}

	// A pre-migration budget applying to "cat_food, all subcategories" must
	// match exactly the same transactions afterwards.
	tx := core.Transaction{CategoryID: "cat_food", SubcategoryName: "Delivery"}
	if !budgetscope.Matches(b1.ScopeRules, tx) {
		t.Error("migrated budget no longer matches its category's transactions")
	}

	t.Run("persisted version tag is 2", func(t *testing.T) {
		raw, _, _ := store.Read(ctx, "t.budgets")
		var st struct {
			Version int `json:"version"`
		}
		if err := json.Unmarshal(raw, &st); err != nil || st.Version != budgetsVersion {
			t.Errorf("persisted version = %d (%v), want %d", st.Version, err, budgetsVersion)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		again := NewBudgetsRepository(store, "t.budgets")
		budgets2, err := again.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(budgets2) != 2 || budgets2[0].CategoryID != "cat_food" {
			t.Errorf("re-reading migrated data changed it: %+v", budgets2)
		}
	})
}

func TestBudgetCreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := NewBudgetsRepository(kvstore.NewMemoryStore(), "t.budgets")

	base := BudgetInput{
		Name:  "Comida",
		Limit: mustDecimal(t, "500"),
		Month: "2025-07",
		ScopeRules: []core.ScopeRule{
			{CategoryID: "cat_food", Mode: core.ScopeAllSubcategories},
		},
	}

	t.Run("valid", func(t *testing.T) {
		created, err := repo.Create(ctx, base)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.CategoryID != "cat_food" {
			t.Errorf("primary categoryId = %q", created.CategoryID)
		}
	})

	t.Run("empty rules and no legacy category", func(t *testing.T) {
		in := base
		in.Month = "2025-08"
		in.ScopeRules = nil
		_, err := repo.Create(ctx, in)
		if err != core.ErrEmptyScopeRules {
			t.Errorf("expected ErrEmptyScopeRules, got %v", err)
		}
	})

	t.Run("legacy category alone is enough", func(t *testing.T) {
		in := base
		in.Name = "Legacy"
		in.Month = "2025-08"
		in.ScopeRules = nil
		in.CategoryID = "cat_legacy"
		created, err := repo.Create(ctx, in)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if len(created.ScopeRules) != 1 || created.ScopeRules[0].Mode != core.ScopeAllSubcategories {
			t.Errorf("legacy category should synthesize an all rule: %+v", created.ScopeRules)
		}
	})

	t.Run("invalid inputs", func(t *testing.T) {
		for name, mutate := range map[string]func(*BudgetInput){
			"blank name":    func(in *BudgetInput) { in.Name = "  " },
			"zero limit":    func(in *BudgetInput) { in.Limit = decimal.Zero },
			"negative":      func(in *BudgetInput) { in.Limit = mustDecimal(t, "-1") },
			"bad month":     func(in *BudgetInput) { in.Month = "July 2025" },
			"month missing": func(in *BudgetInput) { in.Month = "" },
		} {
			in := base
			in.Month = "2025-09"
			mutate(&in)
			if _, err := repo.Create(ctx, in); err == nil || !core.IsValidation(err) {
				t.Errorf("%s: expected validation error, got %v", name, err)
			}
		}
	})

	t.Run("overlap within the same month is rejected", func(t *testing.T) {
		in := base
		in.Name = "Comida otra vez"
		_, err := repo.Create(ctx, in)
		if err == nil || !core.IsValidation(err) {
			t.Fatalf("expected overlap rejection, got %v", err)
		}
		// Same scope in another month is fine.
		in.Month = "2025-10"
		if _, err := repo.Create(ctx, in); err != nil {
			t.Errorf("same scope in another month should be allowed: %v", err)
		}
	})
}

func TestBudgetUpdateRecomputesDerivedFields(t *testing.T) {
	ctx := context.Background()
	repo := NewBudgetsRepository(kvstore.NewMemoryStore(), "t.budgets")

	created, err := repo.Create(ctx, BudgetInput{
		Name:       "Comida",
		Limit:      mustDecimal(t, "500"),
		Month:      "2025-07",
		CategoryID: "cat_food",
	})
	if err != nil {
		t.Fatal(err)
	}

	rules := []core.ScopeRule{
		{CategoryID: "cat_home", Mode: core.ScopeSelectedSubcategories,
			SubcategoryNames: []string{" Alquiler ", "", "Alquiler", "Luz"}},
	}
	updated, err := repo.Update(ctx, created.ID, BudgetPatch{ScopeRules: &rules})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CategoryID != "cat_home" {
		t.Errorf("primary categoryId not recomputed: %q", updated.CategoryID)
	}
	got := updated.ScopeRules[0].SubcategoryNames
	if len(got) != 2 || got[0] != "Alquiler" || got[1] != "Luz" {
		t.Errorf("subcategory names not trimmed/deduped: %+v", got)
	}

	t.Run("replacing with empty rules fails", func(t *testing.T) {
		empty := []core.ScopeRule{}
		if _, err := repo.Update(ctx, created.ID, BudgetPatch{ScopeRules: &empty}); err != core.ErrEmptyScopeRules {
			t.Errorf("expected ErrEmptyScopeRules, got %v", err)
		}
	})
}
