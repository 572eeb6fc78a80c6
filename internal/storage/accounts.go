package storage

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/kvstore"
)

// accountsVersion is the current accounts schema version.
const accountsVersion = 1

// defaultAccountName seeds the initial account set.
const defaultAccountName = "Efectivo"

// AccountsRepository owns the accounts collection.
type AccountsRepository struct {
	col *collection[core.Account]
}

func NewAccountsRepository(store kvstore.Store, key string) *AccountsRepository {
	r := &AccountsRepository{}
	r.col = newCollection(store, key, accountsVersion, r.defaults, func(a core.Account) string { return a.ID })
	return r
}

// defaults reseeds the single cash account every fresh state starts with.
func (r *AccountsRepository) defaults() []core.Account {
	return []core.Account{{
		ID:        uuid.NewString(),
		Name:      defaultAccountName,
		Balance:   decimal.Zero,
		Icon:      "cash",
		CreatedAt: r.col.timestamp(),
	}}
}

// AccountInput is the payload accepted by Create.
type AccountInput struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
	Icon    string          `json:"icon"`
}

// AccountPatch updates individual account fields; nil fields are untouched.
type AccountPatch struct {
	Name    *string          `json:"name"`
	Balance *decimal.Decimal `json:"balance"`
	Icon    *string          `json:"icon"`
}

func (r *AccountsRepository) List(ctx context.Context) ([]core.Account, error) {
	return r.col.list(ctx)
}

func (r *AccountsRepository) GetByID(ctx context.Context, id string) (*core.Account, error) {
	return r.col.getByID(ctx, id)
}

func (r *AccountsRepository) Create(ctx context.Context, in AccountInput) (*core.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, core.ErrEmptyName
	}
	account := core.Account{
		ID:        uuid.NewString(),
		Name:      name,
		Balance:   core.RoundMoney(in.Balance),
		Icon:      strings.TrimSpace(in.Icon),
		CreatedAt: r.col.timestamp(),
	}
	if err := r.col.insert(ctx, account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountsRepository) Update(ctx context.Context, id string, patch AccountPatch) (*core.Account, error) {
	st, err := r.col.readState(ctx)
	if err != nil {
		return nil, err
	}
	i := r.col.indexOf(st.Items, id)
	if i < 0 {
		return nil, nil
	}

	account := st.Items[i]
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, core.ErrEmptyName
		}
		account.Name = name
	}
	if patch.Balance != nil {
		account.Balance = core.RoundMoney(*patch.Balance)
	}
	if patch.Icon != nil {
		account.Icon = strings.TrimSpace(*patch.Icon)
	}
	account.UpdatedAt = r.col.timestamp()

	st.Items[i] = account
	if err := r.col.writeState(ctx, st.Items); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountsRepository) Remove(ctx context.Context, id string) (bool, error) {
	return r.col.remove(ctx, id, nil)
}

func (r *AccountsRepository) ClearAll(ctx context.Context) error {
	return r.col.clearAll(ctx)
}
