package storage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/kvstore"
)

const (
	positionsVersion = 1
	snapshotsVersion = 1
	refsVersion      = 1
)

// InvestmentsRepository owns the three investment collections: positions,
// price snapshots, and per-asset reference prices. Reference prices refresh
// at most once per UTC day (daily) or UTC year-month (monthly); within the
// window the call is a no-op and the stored reference is returned unchanged.
type InvestmentsRepository struct {
	positions *collection[core.Position]
	snapshots *collection[core.Snapshot]
	refs      *collection[core.AssetRefs]
}

func NewInvestmentsRepository(store kvstore.Store, positionsKey, snapshotsKey, refsKey string) *InvestmentsRepository {
	return &InvestmentsRepository{
		positions: newCollection(store, positionsKey, positionsVersion, nil, func(p core.Position) string { return p.ID }),
		snapshots: newCollection(store, snapshotsKey, snapshotsVersion, nil, func(s core.Snapshot) string { return s.ID }),
		refs:      newCollection(store, refsKey, refsVersion, nil, func(r core.AssetRefs) string { return r.AssetKey }),
	}
}

// PositionInput is the payload accepted by CreatePosition.
type PositionInput struct {
	AssetType core.AssetType  `json:"assetType"`
	Ticker    string          `json:"ticker"`
	USDSpent  decimal.Decimal `json:"usd_gastado"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
}

// PositionPatch updates a position's cost or buy price; the derived amount
// is recomputed whenever either changes.
type PositionPatch struct {
	USDSpent *decimal.Decimal `json:"usd_gastado"`
	BuyPrice *decimal.Decimal `json:"buy_price"`
}

// SnapshotInput is the payload accepted by AddSnapshot.
type SnapshotInput struct {
	AssetType core.AssetType   `json:"assetType"`
	Ticker    string           `json:"ticker"`
	Timestamp time.Time        `json:"timestamp"`
	Price     decimal.Decimal  `json:"price"`
	Source    string           `json:"source"`
	Bid       *decimal.Decimal `json:"bid"`
	Ask       *decimal.Decimal `json:"ask"`
}

func (r *InvestmentsRepository) ListPositions(ctx context.Context) ([]core.Position, error) {
	return r.positions.list(ctx)
}

func (r *InvestmentsRepository) GetPosition(ctx context.Context, id string) (*core.Position, error) {
	return r.positions.getByID(ctx, id)
}

func (r *InvestmentsRepository) CreatePosition(ctx context.Context, in PositionInput) (*core.Position, error) {
	if !core.ValidAssetType(in.AssetType) {
		return nil, core.ErrInvalidAssetType
	}
	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if ticker == "" {
		return nil, core.ErrInvalidTicker
	}
	if err := core.RequirePositive(in.USDSpent); err != nil {
		return nil, err
	}
	if err := core.RequirePositive(in.BuyPrice); err != nil {
		return nil, err
	}

	position := core.Position{
		ID:        uuid.NewString(),
		AssetType: in.AssetType,
		Ticker:    ticker,
		USDSpent:  core.RoundMoney(in.USDSpent),
		BuyPrice:  in.BuyPrice,
		Amount:    core.DeriveAssetAmount(in.USDSpent, in.BuyPrice),
		CreatedAt: r.positions.timestamp(),
	}
	if err := r.positions.insert(ctx, position); err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *InvestmentsRepository) UpdatePosition(ctx context.Context, id string, patch PositionPatch) (*core.Position, error) {
	st, err := r.positions.readState(ctx)
	if err != nil {
		return nil, err
	}
	i := r.positions.indexOf(st.Items, id)
	if i < 0 {
		return nil, nil
	}

	position := st.Items[i]
	if patch.USDSpent != nil {
		if err := core.RequirePositive(*patch.USDSpent); err != nil {
			return nil, err
		}
		position.USDSpent = core.RoundMoney(*patch.USDSpent)
	}
	if patch.BuyPrice != nil {
		if err := core.RequirePositive(*patch.BuyPrice); err != nil {
			return nil, err
		}
		position.BuyPrice = *patch.BuyPrice
	}
	position.Amount = core.DeriveAssetAmount(position.USDSpent, position.BuyPrice)

	st.Items[i] = position
	if err := r.positions.writeState(ctx, st.Items); err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *InvestmentsRepository) RemovePosition(ctx context.Context, id string) (bool, error) {
	return r.positions.remove(ctx, id, nil)
}

// AddSnapshot appends a price observation for one asset.
func (r *InvestmentsRepository) AddSnapshot(ctx context.Context, in SnapshotInput) (*core.Snapshot, error) {
	if !core.ValidAssetType(in.AssetType) {
		return nil, core.ErrInvalidAssetType
	}
	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if ticker == "" {
		return nil, core.ErrInvalidTicker
	}
	if err := core.RequirePositive(in.Price); err != nil {
		return nil, err
	}
	ts := in.Timestamp
	if ts.IsZero() {
		ts = r.snapshots.now()
	}

	snapshot := core.Snapshot{
		ID:        uuid.NewString(),
		AssetType: in.AssetType,
		Ticker:    ticker,
		Timestamp: core.Timestamp(ts),
		Price:     in.Price,
		Source:    strings.TrimSpace(in.Source),
		Bid:       in.Bid,
		Ask:       in.Ask,
	}
	if err := r.snapshots.insert(ctx, snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListSnapshots returns the snapshots of one asset, oldest first.
func (r *InvestmentsRepository) ListSnapshots(ctx context.Context, assetType core.AssetType, ticker string) ([]core.Snapshot, error) {
	items, err := r.snapshots.list(ctx)
	if err != nil {
		return nil, err
	}
	key := core.AssetKey(assetType, ticker)
	out := make([]core.Snapshot, 0, len(items))
	for _, s := range items {
		if core.AssetKey(s.AssetType, s.Ticker) == key {
			out = append(out, s)
		}
	}
	return out, nil
}

// LatestSnapshot returns the most recent snapshot of one asset, or nil.
func (r *InvestmentsRepository) LatestSnapshot(ctx context.Context, assetType core.AssetType, ticker string) (*core.Snapshot, error) {
	snapshots, err := r.ListSnapshots(ctx, assetType, ticker)
	if err != nil {
		return nil, err
	}
	var latest *core.Snapshot
	for i := range snapshots {
		if latest == nil || snapshots[i].Timestamp > latest.Timestamp {
			latest = &snapshots[i]
		}
	}
	return latest, nil
}

// Refs returns the reference prices of one asset, lazily initializing them
// from the latest snapshot (or zero) on first access.
func (r *InvestmentsRepository) Refs(ctx context.Context, assetType core.AssetType, ticker string) (core.AssetRefs, error) {
	st, err := r.refs.readState(ctx)
	if err != nil {
		return core.AssetRefs{}, err
	}
	key := core.AssetKey(assetType, ticker)
	if i := r.refs.indexOf(st.Items, key); i >= 0 {
		return st.Items[i], nil
	}

	refs := core.AssetRefs{AssetKey: key}
	if latest, err := r.LatestSnapshot(ctx, assetType, ticker); err == nil && latest != nil {
		refs.DailyRefPrice = latest.Price
		refs.DailyRefAt = latest.Timestamp
		refs.MonthRefPrice = latest.Price
		refs.MonthRefAt = latest.Timestamp
	}
	if err := r.refs.writeState(ctx, append(st.Items, refs)); err != nil {
		return core.AssetRefs{}, err
	}
	return refs, nil
}

// UpdateDailyRefIfNeeded refreshes the daily reference price when it is
// uninitialized or the UTC day of ts differs from the stored reference's
// day. Otherwise the stored reference is returned unchanged.
func (r *InvestmentsRepository) UpdateDailyRefIfNeeded(ctx context.Context, assetType core.AssetType, ticker string, price decimal.Decimal, ts time.Time) (core.AssetRefs, error) {
	return r.updateRef(ctx, assetType, ticker, price, ts, core.SameUTCDay,
		func(refs *core.AssetRefs) (*decimal.Decimal, *string) {
			return &refs.DailyRefPrice, &refs.DailyRefAt
		})
}

// UpdateMonthRefIfNeeded is the monthly counterpart of
// UpdateDailyRefIfNeeded, comparing UTC year-month instead of UTC day.
func (r *InvestmentsRepository) UpdateMonthRefIfNeeded(ctx context.Context, assetType core.AssetType, ticker string, price decimal.Decimal, ts time.Time) (core.AssetRefs, error) {
	return r.updateRef(ctx, assetType, ticker, price, ts, core.SameUTCMonth,
		func(refs *core.AssetRefs) (*decimal.Decimal, *string) {
			return &refs.MonthRefPrice, &refs.MonthRefAt
		})
}

func (r *InvestmentsRepository) updateRef(
	ctx context.Context,
	assetType core.AssetType,
	ticker string,
	price decimal.Decimal,
	ts time.Time,
	sameWindow func(a, b time.Time) bool,
	fields func(*core.AssetRefs) (*decimal.Decimal, *string),
) (core.AssetRefs, error) {
	if err := core.RequirePositive(price); err != nil {
		return core.AssetRefs{}, err
	}
	current, err := r.Refs(ctx, assetType, ticker)
	if err != nil {
		return core.AssetRefs{}, err
	}

	refPrice, refAt := fields(&current)
	if !refNeedsUpdate(*refPrice, *refAt, ts, sameWindow) {
		return current, nil
	}

	*refPrice = price
	*refAt = core.Timestamp(ts)

	st, err := r.refs.readState(ctx)
	if err != nil {
		return core.AssetRefs{}, err
	}
	i := r.refs.indexOf(st.Items, current.AssetKey)
	if i < 0 {
		st.Items = append(st.Items, current)
	} else {
		st.Items[i] = current
	}
	if err := r.refs.writeState(ctx, st.Items); err != nil {
		return core.AssetRefs{}, err
	}
	return current, nil
}

// refNeedsUpdate applies the windowing rule: a reference refreshes when it
// has no positive price, its stored timestamp is unreadable, or the new
// timestamp falls in a different window.
func refNeedsUpdate(price decimal.Decimal, at string, ts time.Time, sameWindow func(a, b time.Time) bool) bool {
	if price.Sign() <= 0 {
		return true
	}
	stored, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return true
	}
	return !sameWindow(stored, ts)
}

// ClearAll resets all three investment collections.
func (r *InvestmentsRepository) ClearAll(ctx context.Context) error {
	if err := r.positions.clearAll(ctx); err != nil {
		return err
	}
	if err := r.snapshots.clearAll(ctx); err != nil {
		return err
	}
	return r.refs.clearAll(ctx)
}
