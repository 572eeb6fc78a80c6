package storage

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/kvstore"
)

const transactionsVersion = 1

// Notifier receives the transactions-changed signal after every successful
// write to the transactions collection. External read-models (statistics,
// balances) subscribe through it; it is the only cross-cutting notification
// channel.
type Notifier interface {
	TransactionsChanged(ctx context.Context)
}

// TransactionsRepository owns the transactions collection.
type TransactionsRepository struct {
	col      *collection[core.Transaction]
	notifier Notifier
}

func NewTransactionsRepository(store kvstore.Store, key string, notifier Notifier) *TransactionsRepository {
	r := &TransactionsRepository{notifier: notifier}
	r.col = newCollection(store, key, transactionsVersion, nil, func(t core.Transaction) string { return t.ID })
	return r
}

func (r *TransactionsRepository) notify(ctx context.Context) {
	if r.notifier != nil {
		r.notifier.TransactionsChanged(ctx)
	}
}

// TransactionInput is the payload accepted by Create.
type TransactionInput struct {
	AccountID        string               `json:"accountId"`
	Type             core.TransactionType `json:"transactionType"`
	Amount           string               `json:"amount"`
	Category         string               `json:"category"`
	CategoryID       string               `json:"categoryId"`
	SubcategoryName  string               `json:"subcategoryName"`
	GoalID           string               `json:"goalId"`
	CuotaID          string               `json:"cuotaId"`
	CuotaInstallment int                  `json:"cuotaInstallment"`
	Date             string               `json:"date"`
	Meta             string               `json:"meta"`
}

// TransactionPatch updates individual fields; nil fields are untouched.
type TransactionPatch struct {
	AccountID       *string               `json:"accountId"`
	Type            *core.TransactionType `json:"transactionType"`
	Amount          *string               `json:"amount"`
	Category        *string               `json:"category"`
	CategoryID      *string               `json:"categoryId"`
	SubcategoryName *string               `json:"subcategoryName"`
	GoalID          *string               `json:"goalId"`
	Date            *string               `json:"date"`
	Meta            *string               `json:"meta"`
}

func (r *TransactionsRepository) List(ctx context.Context) ([]core.Transaction, error) {
	return r.col.list(ctx)
}

// ListByMonth returns the transactions whose authoritative date falls in the
// given YYYY-MM month.
func (r *TransactionsRepository) ListByMonth(ctx context.Context, month string) ([]core.Transaction, error) {
	items, err := r.col.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(items))
	for _, tx := range items {
		if core.MonthOf(tx.Date) == month {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *TransactionsRepository) GetByID(ctx context.Context, id string) (*core.Transaction, error) {
	return r.col.getByID(ctx, id)
}

func (r *TransactionsRepository) Create(ctx context.Context, in TransactionInput) (*core.Transaction, error) {
	accountID := strings.TrimSpace(in.AccountID)
	if accountID == "" {
		return nil, core.Invalid("missing account")
	}

	txType := in.Type
	if txType == "" {
		txType = core.TransactionRegular
	}
	if txType != core.TransactionRegular && txType != core.TransactionSaving {
		return nil, core.Invalidf("unknown transaction type %q", in.Type)
	}
	goalID := strings.TrimSpace(in.GoalID)
	if txType == core.TransactionSaving && goalID == "" {
		return nil, core.ErrMissingGoal
	}

	amount, err := core.ParseSignedAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}

	category := strings.TrimSpace(in.Category)
	meta := strings.TrimSpace(in.Meta)
	if meta == "" {
		meta = date + " " + category
	}

	tx := core.Transaction{
		ID:               uuid.NewString(),
		AccountID:        accountID,
		Type:             txType,
		Amount:           amount.String(),
		Category:         category,
		CategoryID:       strings.TrimSpace(in.CategoryID),
		SubcategoryName:  strings.TrimSpace(in.SubcategoryName),
		GoalID:           goalID,
		CuotaID:          strings.TrimSpace(in.CuotaID),
		CuotaInstallment: in.CuotaInstallment,
		Date:             date,
		CreatedAt:        r.col.timestamp(),
		Meta:             meta,
	}
	if err := r.col.insert(ctx, tx); err != nil {
		return nil, err
	}
	r.notify(ctx)
	return &tx, nil
}

func (r *TransactionsRepository) Update(ctx context.Context, id string, patch TransactionPatch) (*core.Transaction, error) {
	st, err := r.col.readState(ctx)
	if err != nil {
		return nil, err
	}
	i := r.col.indexOf(st.Items, id)
	if i < 0 {
		return nil, nil
	}

	tx := st.Items[i]
	if patch.AccountID != nil {
		accountID := strings.TrimSpace(*patch.AccountID)
		if accountID == "" {
			return nil, core.Invalid("missing account")
		}
		tx.AccountID = accountID
	}
	if patch.Type != nil {
		if *patch.Type != core.TransactionRegular && *patch.Type != core.TransactionSaving {
			return nil, core.Invalidf("unknown transaction type %q", *patch.Type)
		}
		tx.Type = *patch.Type
	}
	if patch.Amount != nil {
		amount, err := core.ParseSignedAmount(*patch.Amount)
		if err != nil {
			return nil, err
		}
		tx.Amount = amount.String()
	}
	if patch.Category != nil {
		tx.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.CategoryID != nil {
		tx.CategoryID = strings.TrimSpace(*patch.CategoryID)
	}
	if patch.SubcategoryName != nil {
		tx.SubcategoryName = strings.TrimSpace(*patch.SubcategoryName)
	}
	if patch.GoalID != nil {
		tx.GoalID = strings.TrimSpace(*patch.GoalID)
	}
	if patch.Date != nil {
		date, err := core.ParseDate(*patch.Date)
		if err != nil {
			return nil, err
		}
		tx.Date = date
	}
	if patch.Meta != nil {
		tx.Meta = strings.TrimSpace(*patch.Meta)
	}
	if tx.Type == core.TransactionSaving && tx.GoalID == "" {
		return nil, core.ErrMissingGoal
	}

	st.Items[i] = tx
	if err := r.col.writeState(ctx, st.Items); err != nil {
		return nil, err
	}
	r.notify(ctx)
	return &tx, nil
}

func (r *TransactionsRepository) Remove(ctx context.Context, id string) (bool, error) {
	removed, err := r.col.remove(ctx, id, nil)
	if err == nil && removed {
		r.notify(ctx)
	}
	return removed, err
}

func (r *TransactionsRepository) ClearAll(ctx context.Context) error {
	if err := r.col.clearAll(ctx); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}
