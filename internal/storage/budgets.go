package storage

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/budgetscope"
	"fintrack/internal/core"
	"fintrack/internal/kvstore"
)

// budgetsVersion is the current budgets schema version. Version 1 carried a
// single categoryId per budget; version 2 replaced it with scope rules.
const budgetsVersion = 2

// BudgetsRepository owns the budgets collection.
type BudgetsRepository struct {
	col *collection[core.Budget]
}

func NewBudgetsRepository(store kvstore.Store, key string) *BudgetsRepository {
	r := &BudgetsRepository{}
	r.col = newCollection(store, key, budgetsVersion, nil, func(b core.Budget) string { return b.ID })
	r.col.migrations = map[int]migrateFunc{
		1: migrateBudgetsV1,
	}
	return r
}

// migrateBudgetsV1 upgrades legacy single-category budgets: each record's
// categoryId becomes one all_subcategories scope rule, and the primary
// categoryId is re-derived from the rules. Records that already carry rules
// pass through normalization unchanged, so re-running is a no-op.
func migrateBudgetsV1(items json.RawMessage) (json.RawMessage, error) {
	var budgets []core.Budget
	if err := json.Unmarshal(items, &budgets); err != nil {
		return nil, err
	}
	for i := range budgets {
		rules := budgetscope.Normalize(budgets[i].ScopeRules, budgets[i].CategoryID)
		budgets[i].ScopeRules = rules
		budgets[i].CategoryID = budgetscope.PrimaryCategoryID(rules, "")
	}
	return json.Marshal(budgets)
}

// BudgetInput is the payload accepted by Create. CategoryID is the legacy
// single-category form, honored when ScopeRules is empty.
type BudgetInput struct {
	Name       string           `json:"name"`
	Limit      decimal.Decimal  `json:"limit"`
	Month      string           `json:"month"`
	ScopeRules []core.ScopeRule `json:"scopeRules"`
	CategoryID string           `json:"categoryId"`
}

// BudgetPatch updates individual budget fields; nil fields are untouched.
// Replacing ScopeRules re-derives the primary categoryId.
type BudgetPatch struct {
	Name       *string           `json:"name"`
	Limit      *decimal.Decimal  `json:"limit"`
	Month      *string           `json:"month"`
	ScopeRules *[]core.ScopeRule `json:"scopeRules"`
}

func (r *BudgetsRepository) List(ctx context.Context) ([]core.Budget, error) {
	return r.col.list(ctx)
}

func (r *BudgetsRepository) GetByID(ctx context.Context, id string) (*core.Budget, error) {
	return r.col.getByID(ctx, id)
}

func (r *BudgetsRepository) Create(ctx context.Context, in BudgetInput) (*core.Budget, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, core.ErrEmptyName
	}
	if err := core.RequirePositive(in.Limit); err != nil {
		return nil, err
	}
	month, err := core.ParseMonth(in.Month)
	if err != nil {
		return nil, err
	}
	rules := budgetscope.Normalize(in.ScopeRules, in.CategoryID)
	if len(rules) == 0 {
		return nil, core.ErrEmptyScopeRules
	}

	st, err := r.col.readState(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range st.Items {
		if existing.Month == month && budgetscope.Overlap(existing.ScopeRules, rules) {
			return nil, core.Invalidf("scope overlaps budget %q for %s", existing.Name, month)
		}
	}

	budget := core.Budget{
		ID:         uuid.NewString(),
		Name:       name,
		Limit:      core.RoundMoney(in.Limit),
		Month:      month,
		ScopeRules: rules,
		CategoryID: budgetscope.PrimaryCategoryID(rules, ""),
		CreatedAt:  r.col.timestamp(),
	}
	if err := r.col.writeState(ctx, append(st.Items, budget)); err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *BudgetsRepository) Update(ctx context.Context, id string, patch BudgetPatch) (*core.Budget, error) {
	st, err := r.col.readState(ctx)
	if err != nil {
		return nil, err
	}
	i := r.col.indexOf(st.Items, id)
	if i < 0 {
		return nil, nil
	}

	budget := st.Items[i]
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, core.ErrEmptyName
		}
		budget.Name = name
	}
	if patch.Limit != nil {
		if err := core.RequirePositive(*patch.Limit); err != nil {
			return nil, err
		}
		budget.Limit = core.RoundMoney(*patch.Limit)
	}
	if patch.Month != nil {
		month, err := core.ParseMonth(*patch.Month)
		if err != nil {
			return nil, err
		}
		budget.Month = month
	}
	if patch.ScopeRules != nil {
		rules := budgetscope.Normalize(*patch.ScopeRules, "")
		if len(rules) == 0 {
			return nil, core.ErrEmptyScopeRules
		}
		budget.ScopeRules = rules
		budget.CategoryID = budgetscope.PrimaryCategoryID(rules, "")
	}

	for j, other := range st.Items {
		if j != i && other.Month == budget.Month && budgetscope.Overlap(other.ScopeRules, budget.ScopeRules) {
			return nil, core.Invalidf("scope overlaps budget %q for %s", other.Name, budget.Month)
		}
	}

	budget.UpdatedAt = r.col.timestamp()
	st.Items[i] = budget
	if err := r.col.writeState(ctx, st.Items); err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *BudgetsRepository) Remove(ctx context.Context, id string) (bool, error) {
	return r.col.remove(ctx, id, nil)
}

func (r *BudgetsRepository) ClearAll(ctx context.Context) error {
	return r.col.clearAll(ctx)
}

// ListByMonth returns the budgets of one YYYY-MM month.
func (r *BudgetsRepository) ListByMonth(ctx context.Context, month string) ([]core.Budget, error) {
	items, err := r.col.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Budget, 0, len(items))
	for _, b := range items {
		if b.Month == month {
			out = append(out, b)
		}
	}
	return out, nil
}
