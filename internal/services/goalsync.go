// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	// GoalsCategoryName is the synthetic parent category mirroring goals.
	GoalsCategoryName = "Metas"

	goalsCategoryIcon   = "target"
	goalsCategoryIconBg = "amber"

	// legacyGoalCategoryPrefix marks per-goal categories created by an older
	// scheme. They are deleted during reconciliation once unreferenced.
	legacyGoalCategoryPrefix = "Meta: "
)

// GoalService orchestrates goals and their mirror in the categories
// collection: a single parent category whose subcategory list carries every
// goal title. Every public operation reconciles that mirror before acting,
// so drift introduced by older data or direct category edits heals on
// first use.
type GoalService struct {
	goals      *storage.GoalsRepository
	categories *storage.CategoriesRepository
}

func NewGoalService(goals *storage.GoalsRepository, categories *storage.CategoriesRepository) *GoalService {
	return &GoalService{goals: goals, categories: categories}
}

func (s *GoalService) List(ctx context.Context) ([]core.Goal, error) {
	if _, err := s.sync(ctx); err != nil {
		return nil, err
	}
	return s.goals.List(ctx)
}

func (s *GoalService) Get(ctx context.Context, id string) (*core.Goal, error) {
	if _, err := s.sync(ctx); err != nil {
		return nil, err
	}
	return s.goals.GetByID(ctx, id)
}

func (s *GoalService) Create(ctx context.Context, in storage.GoalInput) (*core.Goal, error) {
	parent, err := s.sync(ctx)
	if err != nil {
		return nil, err
	}

	goal, err := s.goals.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	goal, err = s.goals.SetCategoryID(ctx, goal.ID, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("link goal to parent category: %w", err)
	}
	if _, err := s.categories.AddSubcategory(ctx, parent.ID, goal.Title); err != nil {
		return nil, fmt.Errorf("mirror goal title: %w", err)
	}
	return goal, nil
}

func (s *GoalService) Update(ctx context.Context, id string, patch storage.GoalPatch) (*core.Goal, error) {
	parent, err := s.sync(ctx)
	if err != nil {
		return nil, err
	}

	before, err := s.goals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, nil
	}

	goal, err := s.goals.Update(ctx, id, patch)
	if err != nil || goal == nil {
		return goal, err
	}

	if core.FoldName(goal.Title) != core.FoldName(before.Title) {
		if err := s.dropTitleIfUnused(ctx, parent.ID, before.Title); err != nil {
			return nil, err
		}
		if _, err := s.categories.AddSubcategory(ctx, parent.ID, goal.Title); err != nil {
			return nil, fmt.Errorf("mirror goal title: %w", err)
		}
	}
	return goal, nil
}

func (s *GoalService) Remove(ctx context.Context, id string) (bool, error) {
	parent, err := s.sync(ctx)
	if err != nil {
		return false, err
	}

	goal, err := s.goals.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if goal == nil {
		return false, nil
	}

	removed, err := s.goals.Remove(ctx, id)
	if err != nil || !removed {
		return removed, err
	}
	if err := s.dropTitleIfUnused(ctx, parent.ID, goal.Title); err != nil {
		return false, err
	}
	return true, nil
}

// ClearAll removes every goal and empties the parent category's subcategory
// list. The parent category itself stays.
func (s *GoalService) ClearAll(ctx context.Context) error {
	parent, err := s.sync(ctx)
	if err != nil {
		return err
	}
	if err := s.goals.ClearAll(ctx); err != nil {
		return err
	}
	empty := []string{}
	if _, err := s.categories.Update(ctx, parent.ID, storage.CategoryPatch{Subcategories: &empty}); err != nil {
		return fmt.Errorf("reset goals category: %w", err)
	}
	return nil
}

// ParentCategory ensures the parent category and returns it.
func (s *GoalService) ParentCategory(ctx context.Context) (*core.Category, error) {
	return s.sync(ctx)
}

// sync ensures the parent category exists with the expected icon tokens,
// rewrites stale goal links, rebuilds the parent's subcategory list as the
// union of existing entries and goal titles, and deletes unreferenced
// legacy per-goal categories.
func (s *GoalService) sync(ctx context.Context) (*core.Category, error) {
	parent, err := s.ensureParent(ctx)
	if err != nil {
		return nil, err
	}

	goals, err := s.goals.List(ctx)
	if err != nil {
		return nil, err
	}
	for i, g := range goals {
		if g.CategoryID == parent.ID {
			continue
		}
		if _, err := s.goals.SetCategoryID(ctx, g.ID, parent.ID); err != nil {
			return nil, fmt.Errorf("relink goal %s: %w", g.ID, err)
		}
		goals[i].CategoryID = parent.ID
	}

	subs := parent.Subcategories
	seen := make(map[string]struct{}, len(subs))
	for _, name := range subs {
		seen[core.FoldName(name)] = struct{}{}
	}
	for _, g := range goals {
		if _, ok := seen[core.FoldName(g.Title)]; ok {
			continue
		}
		seen[core.FoldName(g.Title)] = struct{}{}
		subs = append(subs, g.Title)
	}
	if len(subs) != len(parent.Subcategories) {
		parent, err = s.categories.Update(ctx, parent.ID, storage.CategoryPatch{Subcategories: &subs})
		if err != nil {
			return nil, fmt.Errorf("rebuild goals category: %w", err)
		}
	}

	if err := s.dropLegacyCategories(ctx, goals); err != nil {
		return nil, err
	}
	return parent, nil
}

func (s *GoalService) ensureParent(ctx context.Context) (*core.Category, error) {
	parent, err := s.categories.GetByName(ctx, GoalsCategoryName)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		parent, err = s.categories.Create(ctx, storage.CategoryInput{
			Name:   GoalsCategoryName,
			Icon:   goalsCategoryIcon,
			IconBg: goalsCategoryIconBg,
		})
		if err != nil {
			return nil, fmt.Errorf("create goals category: %w", err)
		}
		slog.InfoContext(ctx, "Created goals parent category", "id", parent.ID)
		return parent, nil
	}

	if parent.Icon != goalsCategoryIcon || parent.IconBg != goalsCategoryIconBg {
		icon, iconBg := goalsCategoryIcon, goalsCategoryIconBg
		parent, err = s.categories.Update(ctx, parent.ID, storage.CategoryPatch{Icon: &icon, IconBg: &iconBg})
		if err != nil {
			return nil, fmt.Errorf("repair goals category: %w", err)
		}
	}
	return parent, nil
}

// dropTitleIfUnused removes title from the parent's subcategory list unless
// another goal still carries it.
func (s *GoalService) dropTitleIfUnused(ctx context.Context, parentID, title string) error {
	goals, err := s.goals.List(ctx)
	if err != nil {
		return err
	}
	folded := core.FoldName(title)
	for _, g := range goals {
		if core.FoldName(g.Title) == folded {
			return nil
		}
	}
	if _, err := s.categories.RemoveSubcategory(ctx, parentID, title); err != nil {
		return fmt.Errorf("drop goal title: %w", err)
	}
	return nil
}

func (s *GoalService) dropLegacyCategories(ctx context.Context, goals []core.Goal) error {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return err
	}
	referenced := make(map[string]struct{}, len(goals))
	for _, g := range goals {
		referenced[g.CategoryID] = struct{}{}
	}
	for _, c := range categories {
		if !strings.HasPrefix(c.Name, legacyGoalCategoryPrefix) {
			continue
		}
		if _, ok := referenced[c.ID]; ok {
			continue
		}
		if _, err := s.categories.Remove(ctx, c.ID); err != nil {
			return fmt.Errorf("drop legacy goal category %s: %w", c.ID, err)
		}
		slog.InfoContext(ctx, "Removed legacy goal category", "id", c.ID, "name", c.Name)
	}
	return nil
}
