package storage

import (
	"context"
	"encoding/json"
	"testing"

	"fintrack/internal/kvstore"
)

func TestReadStateInitializesDefaults(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	repo := NewAccountsRepository(store, "t.accounts")

	accounts, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Name != defaultAccountName {
		t.Fatalf("expected seeded default account, got %+v", accounts)
	}

	// The synthesized default state is persisted immediately.
	raw, ok, _ := store.Read(ctx, "t.accounts")
	if !ok {
		t.Fatal("default state was not persisted")
	}
	var st struct {
		Version int               `json:"version"`
		Items   []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("persisted state is not valid JSON: %v", err)
	}
	if st.Version != accountsVersion || len(st.Items) != 1 {
		t.Errorf("persisted state = version %d with %d items", st.Version, len(st.Items))
	}
}

func TestReadStateResetsCorruptState(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{{`},
		{"missing items", `{"version":1}`},
		{"items not an array", `{"version":1,"items":{"a":1}}`},
		{"items wrong shape", `{"version":1,"items":[{"id":123}]}`},
		{"version from the future", `{"version":99,"items":[]}`},
		{"version zero", `{"version":0,"items":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := kvstore.NewMemoryStore()
			if err := store.Write(ctx, "t.accounts", []byte(tt.raw)); err != nil {
				t.Fatal(err)
			}
			repo := NewAccountsRepository(store, "t.accounts")

			accounts, err := repo.List(ctx)
			if err != nil {
				t.Fatalf("corrupt state must not surface an error, got %v", err)
			}
			if len(accounts) != 1 || accounts[0].Name != defaultAccountName {
				t.Errorf("expected silent reset to defaults, got %+v", accounts)
			}
		})
	}
}

func TestCopyIsolation(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	repo := NewCategoriesRepository(store, "t.categories")

	created, err := repo.Create(ctx, CategoryInput{
		Name:          "Comida",
		Subcategories: []string{"Delivery", "Super"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Mutating the returned record must not leak into repository state.
	created.Name = "hacked"
	created.Subcategories[0] = "hacked"

	listed, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 category, got %d", len(listed))
	}
	if listed[0].Name != "Comida" || listed[0].Subcategories[0] != "Delivery" {
		t.Errorf("repository state mutated through a returned copy: %+v", listed[0])
	}

	// Same for slices returned by List.
	listed[0].Subcategories[1] = "hacked"
	again, _ := repo.List(ctx)
	if again[0].Subcategories[1] != "Super" {
		t.Errorf("repository state mutated through a listed copy: %+v", again[0])
	}
}

func TestGetByIDUnknownIsNil(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountsRepository(kvstore.NewMemoryStore(), "t.accounts")

	got, err := repo.GetByID(ctx, "nope")
	if err != nil {
		t.Fatalf("unknown id must not be an error, got %v", err)
	}
	if got != nil {
		t.Errorf("unknown id should yield nil, got %+v", got)
	}
}

func TestUpdateRemoveNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountsRepository(kvstore.NewMemoryStore(), "t.accounts")

	name := "x"
	updated, err := repo.Update(ctx, "missing", AccountPatch{Name: &name})
	if err != nil || updated != nil {
		t.Errorf("update missing = %+v, %v; want nil, nil", updated, err)
	}
	removed, err := repo.Remove(ctx, "missing")
	if err != nil || removed {
		t.Errorf("remove missing = %v, %v; want false, nil", removed, err)
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountsRepository(kvstore.NewMemoryStore(), "t.accounts")

	created, err := repo.Create(ctx, AccountInput{Name: "Banco", Icon: "bank"})
	if err != nil {
		t.Fatal(err)
	}

	byID, err := repo.GetByID(ctx, created.ID)
	if err != nil || byID == nil {
		t.Fatalf("getById: %+v, %v", byID, err)
	}
	if byID.Name != created.Name || byID.Icon != created.Icon || !byID.Balance.Equal(created.Balance) {
		t.Errorf("round-trip mismatch: created %+v, got %+v", created, byID)
	}

	accounts, _ := repo.List(ctx)
	if len(accounts) != 2 { // seeded default + created
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
}

func TestClearAllReseedsAccounts(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountsRepository(kvstore.NewMemoryStore(), "t.accounts")

	if _, err := repo.Create(ctx, AccountInput{Name: "Banco"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	accounts, _ := repo.List(ctx)
	if len(accounts) != 1 || accounts[0].Name != defaultAccountName {
		t.Errorf("clearAll should reseed the default account, got %+v", accounts)
	}
}
