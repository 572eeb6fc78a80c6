package storage

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/kvstore"
)

const goalsVersion = 1

// GoalsRepository owns the goals collection. It enforces goal-local
// invariants (unique titles, positive targets); the cross-entity link to the
// goals parent category is maintained by services.GoalService.
type GoalsRepository struct {
	col *collection[core.Goal]
}

func NewGoalsRepository(store kvstore.Store, key string) *GoalsRepository {
	r := &GoalsRepository{}
	r.col = newCollection(store, key, goalsVersion, nil, func(g core.Goal) string { return g.ID })
	return r
}

// GoalInput is the payload accepted by Create.
type GoalInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Target      decimal.Decimal `json:"target"`
	Deadline    string          `json:"deadline"`
	Icon        string          `json:"icon"`
	Color       string          `json:"color"`
}

// GoalPatch updates individual goal fields; nil fields are untouched.
type GoalPatch struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Target      *decimal.Decimal `json:"target"`
	Deadline    *string          `json:"deadline"`
	Icon        *string          `json:"icon"`
	Color       *string          `json:"color"`
}

func (r *GoalsRepository) List(ctx context.Context) ([]core.Goal, error) {
	return r.col.list(ctx)
}

func (r *GoalsRepository) GetByID(ctx context.Context, id string) (*core.Goal, error) {
	return r.col.getByID(ctx, id)
}

func (r *GoalsRepository) Create(ctx context.Context, in GoalInput) (*core.Goal, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, core.ErrEmptyTitle
	}
	if err := core.RequirePositive(in.Target); err != nil {
		return nil, err
	}
	deadline, err := core.ParseDate(in.Deadline)
	if err != nil {
		return nil, err
	}

	st, err := r.col.readState(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range st.Items {
		if core.FoldName(existing.Title) == core.FoldName(title) {
			return nil, core.ErrDuplicateTitle
		}
	}

	goal := core.Goal{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Target:      core.RoundMoney(in.Target),
		Deadline:    deadline,
		Icon:        strings.TrimSpace(in.Icon),
		Color:       strings.TrimSpace(in.Color),
		CreatedAt:   r.col.timestamp(),
	}
	if err := r.col.writeState(ctx, append(st.Items, goal)); err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *GoalsRepository) Update(ctx context.Context, id string, patch GoalPatch) (*core.Goal, error) {
	st, err := r.col.readState(ctx)
	if err != nil {
		return nil, err
	}
	i := r.col.indexOf(st.Items, id)
	if i < 0 {
		return nil, nil
	}

	goal := st.Items[i]
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, core.ErrEmptyTitle
		}
		for j, other := range st.Items {
			if j != i && core.FoldName(other.Title) == core.FoldName(title) {
				return nil, core.ErrDuplicateTitle
			}
		}
		goal.Title = title
	}
	if patch.Description != nil {
		goal.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Target != nil {
		if err := core.RequirePositive(*patch.Target); err != nil {
			return nil, err
		}
		goal.Target = core.RoundMoney(*patch.Target)
	}
	if patch.Deadline != nil {
		deadline, err := core.ParseDate(*patch.Deadline)
		if err != nil {
			return nil, err
		}
		goal.Deadline = deadline
	}
	if patch.Icon != nil {
		goal.Icon = strings.TrimSpace(*patch.Icon)
	}
	if patch.Color != nil {
		goal.Color = strings.TrimSpace(*patch.Color)
	}
	goal.UpdatedAt = r.col.timestamp()

	st.Items[i] = goal
	if err := r.col.writeState(ctx, st.Items); err != nil {
		return nil, err
	}
	return &goal, nil
}

// SetCategoryID rewrites a goal's parent-category link. Used only by the
// synchronizer during reconciliation.
func (r *GoalsRepository) SetCategoryID(ctx context.Context, id, categoryID string) (*core.Goal, error) {
	st, err := r.col.readState(ctx)
	if err != nil {
		return nil, err
	}
	i := r.col.indexOf(st.Items, id)
	if i < 0 {
		return nil, nil
	}
	st.Items[i].CategoryID = categoryID
	goal := st.Items[i]
	if err := r.col.writeState(ctx, st.Items); err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *GoalsRepository) Remove(ctx context.Context, id string) (bool, error) {
	return r.col.remove(ctx, id, nil)
}

func (r *GoalsRepository) ClearAll(ctx context.Context) error {
	return r.col.clearAll(ctx)
}
