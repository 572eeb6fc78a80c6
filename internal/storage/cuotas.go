package storage

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/kvstore"
)

const cuotasVersion = 1

// CuotasRepository owns the installment-plan collection. InstallmentAmount
// is derived from total/installments on every write that touches either
// input, and PaidInstallments is clamped to the plan's range.
type CuotasRepository struct {
	col *collection[core.Cuota]
}

func NewCuotasRepository(store kvstore.Store, key string) *CuotasRepository {
	r := &CuotasRepository{}
	r.col = newCollection(store, key, cuotasVersion, nil, func(c core.Cuota) string { return c.ID })
	return r
}

// CuotaInput is the payload accepted by Create.
type CuotaInput struct {
	Title        string          `json:"title"`
	Total        decimal.Decimal `json:"total"`
	Installments int             `json:"installments"`
	StartMonth   string          `json:"startMonth"`
	CategoryID   string          `json:"categoryId"`
}

// CuotaPatch updates individual plan fields; nil fields are untouched.
type CuotaPatch struct {
	Title            *string          `json:"title"`
	Total            *decimal.Decimal `json:"total"`
	Installments     *int             `json:"installments"`
	StartMonth       *string          `json:"startMonth"`
	PaidInstallments *int             `json:"paidInstallments"`
	CategoryID       *string          `json:"categoryId"`
}

func (r *CuotasRepository) List(ctx context.Context) ([]core.Cuota, error) {
	return r.col.list(ctx)
}

func (r *CuotasRepository) GetByID(ctx context.Context, id string) (*core.Cuota, error) {
	return r.col.getByID(ctx, id)
}

func (r *CuotasRepository) Create(ctx context.Context, in CuotaInput) (*core.Cuota, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, core.ErrEmptyTitle
	}
	if err := core.RequirePositive(in.Total); err != nil {
		return nil, err
	}
	if in.Installments < 1 {
		return nil, core.Invalid("installments count must be at least 1")
	}
	startMonth, err := core.ParseMonth(in.StartMonth)
	if err != nil {
		return nil, err
	}

	total := core.RoundMoney(in.Total)
	cuota := core.Cuota{
		ID:                uuid.NewString(),
		Title:             title,
		Total:             total,
		Installments:      in.Installments,
		InstallmentAmount: core.InstallmentAmount(total, in.Installments),
		StartMonth:        startMonth,
		PaidInstallments:  0,
		CategoryID:        strings.TrimSpace(in.CategoryID),
		CreatedAt:         r.col.timestamp(),
	}
	if err := r.col.insert(ctx, cuota); err != nil {
		return nil, err
	}
	return &cuota, nil
}

func (r *CuotasRepository) Update(ctx context.Context, id string, patch CuotaPatch) (*core.Cuota, error) {
	st, err := r.col.readState(ctx)
	if err != nil {
		return nil, err
	}
	i := r.col.indexOf(st.Items, id)
	if i < 0 {
		return nil, nil
	}

	cuota := st.Items[i]
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, core.ErrEmptyTitle
		}
		cuota.Title = title
	}
	if patch.Total != nil {
		if err := core.RequirePositive(*patch.Total); err != nil {
			return nil, err
		}
		cuota.Total = core.RoundMoney(*patch.Total)
	}
	if patch.Installments != nil {
		if *patch.Installments < 1 {
			return nil, core.Invalid("installments count must be at least 1")
		}
		cuota.Installments = *patch.Installments
	}
	if patch.StartMonth != nil {
		startMonth, err := core.ParseMonth(*patch.StartMonth)
		if err != nil {
			return nil, err
		}
		cuota.StartMonth = startMonth
	}
	if patch.PaidInstallments != nil {
		cuota.PaidInstallments = *patch.PaidInstallments
	}
	if patch.CategoryID != nil {
		cuota.CategoryID = strings.TrimSpace(*patch.CategoryID)
	}

	cuota.InstallmentAmount = core.InstallmentAmount(cuota.Total, cuota.Installments)
	cuota.PaidInstallments = clamp(cuota.PaidInstallments, 0, cuota.Installments)
	cuota.UpdatedAt = r.col.timestamp()

	st.Items[i] = cuota
	if err := r.col.writeState(ctx, st.Items); err != nil {
		return nil, err
	}
	return &cuota, nil
}

// RegisterPayment marks one more installment as paid, clamped to the plan's
// installment count. Returns nil when the plan does not exist.
func (r *CuotasRepository) RegisterPayment(ctx context.Context, id string) (*core.Cuota, error) {
	current, err := r.col.getByID(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}
	paid := current.PaidInstallments + 1
	return r.Update(ctx, id, CuotaPatch{PaidInstallments: &paid})
}

func (r *CuotasRepository) Remove(ctx context.Context, id string) (bool, error) {
	return r.col.remove(ctx, id, nil)
}

func (r *CuotasRepository) ClearAll(ctx context.Context) error {
	return r.col.clearAll(ctx)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
