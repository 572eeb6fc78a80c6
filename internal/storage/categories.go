package storage

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/kvstore"
)

const categoriesVersion = 1

// CategoriesRepository owns the categories collection. Categories whose name
// appears in protectedNames cannot be removed; Remove reports "not removed"
// instead of failing.
type CategoriesRepository struct {
	col            *collection[core.Category]
	protectedNames map[string]struct{}
}

func NewCategoriesRepository(store kvstore.Store, key string, protectedNames ...string) *CategoriesRepository {
	r := &CategoriesRepository{protectedNames: make(map[string]struct{}, len(protectedNames))}
	for _, n := range protectedNames {
		r.protectedNames[core.FoldName(n)] = struct{}{}
	}
	r.col = newCollection(store, key, categoriesVersion, nil, func(c core.Category) string { return c.ID })
	return r
}

// CategoryInput is the payload accepted by Create.
type CategoryInput struct {
	Name          string   `json:"name"`
	Icon          string   `json:"icon"`
	IconBg        string   `json:"iconBg"`
	Subcategories []string `json:"subcategories"`
}

// CategoryPatch updates individual category fields; nil fields are
// untouched. Setting Subcategories replaces the whole list.
type CategoryPatch struct {
	Name          *string   `json:"name"`
	Icon          *string   `json:"icon"`
	IconBg        *string   `json:"iconBg"`
	Subcategories *[]string `json:"subcategories"`
}

func (r *CategoriesRepository) List(ctx context.Context) ([]core.Category, error) {
	return r.col.list(ctx)
}

func (r *CategoriesRepository) GetByID(ctx context.Context, id string) (*core.Category, error) {
	return r.col.getByID(ctx, id)
}

// GetByName returns the category with the given name, compared
// case-insensitively, or nil.
func (r *CategoriesRepository) GetByName(ctx context.Context, name string) (*core.Category, error) {
	items, err := r.col.list(ctx)
	if err != nil {
		return nil, err
	}
	folded := core.FoldName(name)
	for i := range items {
		if core.FoldName(items[i].Name) == folded {
			return &items[i], nil
		}
	}
	return nil, nil
}

func (r *CategoriesRepository) Create(ctx context.Context, in CategoryInput) (*core.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, core.ErrEmptyName
	}

	st, err := r.col.readState(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range st.Items {
		if core.FoldName(existing.Name) == core.FoldName(name) {
			return nil, core.ErrDuplicateName
		}
	}

	subs := normalizeSubcategories(in.Subcategories)
	category := core.Category{
		ID:               uuid.NewString(),
		Name:             name,
		Icon:             strings.TrimSpace(in.Icon),
		IconBg:           strings.TrimSpace(in.IconBg),
		Subcategories:    subs,
		SubcategoryCount: len(subs),
		CreatedAt:        r.col.timestamp(),
	}
	if err := r.col.writeState(ctx, append(st.Items, category)); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoriesRepository) Update(ctx context.Context, id string, patch CategoryPatch) (*core.Category, error) {
	st, err := r.col.readState(ctx)
	if err != nil {
		return nil, err
	}
	i := r.col.indexOf(st.Items, id)
	if i < 0 {
		return nil, nil
	}

	category := st.Items[i]
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, core.ErrEmptyName
		}
		for j, other := range st.Items {
			if j != i && core.FoldName(other.Name) == core.FoldName(name) {
				return nil, core.ErrDuplicateName
			}
		}
		category.Name = name
	}
	if patch.Icon != nil {
		category.Icon = strings.TrimSpace(*patch.Icon)
	}
	if patch.IconBg != nil {
		category.IconBg = strings.TrimSpace(*patch.IconBg)
	}
	if patch.Subcategories != nil {
		category.Subcategories = normalizeSubcategories(*patch.Subcategories)
	}
	category.SubcategoryCount = len(category.Subcategories)
	category.UpdatedAt = r.col.timestamp()

	st.Items[i] = category
	if err := r.col.writeState(ctx, st.Items); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoriesRepository) Remove(ctx context.Context, id string) (bool, error) {
	return r.col.remove(ctx, id, func(c core.Category) bool {
		_, protected := r.protectedNames[core.FoldName(c.Name)]
		return protected
	})
}

func (r *CategoriesRepository) ClearAll(ctx context.Context) error {
	return r.col.clearAll(ctx)
}

// AddSubcategory ensures name is present in the category's list. Returns nil
// when the category does not exist.
func (r *CategoriesRepository) AddSubcategory(ctx context.Context, id, name string) (*core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.ErrEmptyName
	}
	return r.Update(ctx, id, categorySubsPatch(ctx, r, id, func(subs []string) []string {
		return append(subs, name)
	}))
}

// RemoveSubcategory drops name from the category's list when present.
func (r *CategoriesRepository) RemoveSubcategory(ctx context.Context, id, name string) (*core.Category, error) {
	name = strings.TrimSpace(name)
	return r.Update(ctx, id, categorySubsPatch(ctx, r, id, func(subs []string) []string {
		out := subs[:0]
		for _, s := range subs {
			if s != name {
				out = append(out, s)
			}
		}
		return out
	}))
}

// RenameSubcategory replaces oldName with newName, keeping list order.
func (r *CategoriesRepository) RenameSubcategory(ctx context.Context, id, oldName, newName string) (*core.Category, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, core.ErrEmptyName
	}
	oldName = strings.TrimSpace(oldName)
	return r.Update(ctx, id, categorySubsPatch(ctx, r, id, func(subs []string) []string {
		for i, s := range subs {
			if s == oldName {
				subs[i] = newName
			}
		}
		return subs
	}))
}

// categorySubsPatch builds a patch replacing the subcategory list with the
// transform applied to the current one. A missing category yields an empty
// patch; Update then reports not-found.
func categorySubsPatch(ctx context.Context, r *CategoriesRepository, id string, transform func([]string) []string) CategoryPatch {
	current, err := r.col.getByID(ctx, id)
	if err != nil || current == nil {
		return CategoryPatch{}
	}
	subs := transform(append([]string(nil), current.Subcategories...))
	return CategoryPatch{Subcategories: &subs}
}

// normalizeSubcategories trims, drops blanks, and deduplicates while
// preserving first-seen order.
func normalizeSubcategories(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
