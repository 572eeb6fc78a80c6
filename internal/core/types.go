// Package core holds the domain records persisted by the repositories and
// the validation helpers shared between them. Records serialize to the
// on-store JSON shape consumed by export features, so field tags are part of
// the wire contract.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Account is a money account with a running balance.
	Account struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Balance   decimal.Decimal `json:"balance"`
		Icon      string          `json:"icon,omitempty"`
		CreatedAt string          `json:"createdAt,omitempty"`
		UpdatedAt string          `json:"updatedAt,omitempty"`
	}

	// Category groups transactions and carries an ordered, unique list of
	// subcategory names. SubcategoryCount is derived and kept in sync on
	// every write.
	Category struct {
		ID               string   `json:"id"`
		Name             string   `json:"name"`
		Icon             string   `json:"icon,omitempty"`
		IconBg           string   `json:"iconBg,omitempty"`
		Subcategories    []string `json:"subcategories"`
		SubcategoryCount int      `json:"subcategoryCount"`
		CreatedAt        string   `json:"createdAt,omitempty"`
		UpdatedAt        string   `json:"updatedAt,omitempty"`
	}

	// Budget is a monthly spending limit over one or more scope rules.
	// CategoryID is the legacy single-category field, derived from the first
	// normalized rule and kept for backward compatibility.
	Budget struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Limit      decimal.Decimal `json:"limit"`
		Month      string          `json:"month"`
		ScopeRules []ScopeRule     `json:"scopeRules"`
		CategoryID string          `json:"categoryId,omitempty"`
		CreatedAt  string          `json:"createdAt,omitempty"`
		UpdatedAt  string          `json:"updatedAt,omitempty"`
	}

	// Goal is a savings target. CategoryID always points at the synthetic
	// goals parent category; the synchronizer keeps it that way.
	Goal struct {
		ID          string          `json:"id"`
		Title       string          `json:"title"`
		Description string          `json:"description,omitempty"`
		Target      decimal.Decimal `json:"target"`
		Deadline    string          `json:"deadline"`
		Icon        string          `json:"icon,omitempty"`
		Color       string          `json:"color,omitempty"`
		CategoryID  string          `json:"categoryId,omitempty"`
		CreatedAt   string          `json:"createdAt,omitempty"`
		UpdatedAt   string          `json:"updatedAt,omitempty"`
	}

	// Cuota is an installment plan: a total split across a fixed number of
	// monthly installments. InstallmentAmount is derived (total/installments,
	// currency-rounded) and PaidInstallments is clamped to [0, Installments].
	Cuota struct {
		ID                string          `json:"id"`
		Title             string          `json:"title"`
		Total             decimal.Decimal `json:"total"`
		Installments      int             `json:"installments"`
		InstallmentAmount decimal.Decimal `json:"installmentAmount"`
		StartMonth        string          `json:"startMonth"`
		PaidInstallments  int             `json:"paidInstallments"`
		CategoryID        string          `json:"categoryId,omitempty"`
		CreatedAt         string          `json:"createdAt,omitempty"`
		UpdatedAt         string          `json:"updatedAt,omitempty"`
	}

	// Transaction is a signed money movement. The date field is
	// authoritative; Meta is a human string prefixed with the ISO date.
	Transaction struct {
		ID               string          `json:"id"`
		AccountID        string          `json:"accountId"`
		Type             TransactionType `json:"transactionType"`
		Amount           string          `json:"amount"`
		Category         string          `json:"category,omitempty"`
		CategoryID       string          `json:"categoryId,omitempty"`
		SubcategoryName  string          `json:"subcategoryName,omitempty"`
		GoalID           string          `json:"goalId,omitempty"`
		CuotaID          string          `json:"cuotaId,omitempty"`
		CuotaInstallment int             `json:"cuotaInstallment,omitempty"`
		Date             string          `json:"date"`
		CreatedAt        string          `json:"createdAt,omitempty"`
		Meta             string          `json:"meta,omitempty"`
	}

	// Position is one investment line. Amount is always derived:
	// USDSpent / BuyPrice, rounded to a fixed precision.
	Position struct {
		ID        string          `json:"id"`
		AssetType AssetType       `json:"assetType"`
		Ticker    string          `json:"ticker"`
		USDSpent  decimal.Decimal `json:"usd_gastado"`
		BuyPrice  decimal.Decimal `json:"buy_price"`
		Amount    decimal.Decimal `json:"amount"`
		CreatedAt string          `json:"createdAt,omitempty"`
	}

	// Snapshot is a point-in-time asset price observation.
	Snapshot struct {
		ID        string           `json:"id"`
		AssetType AssetType        `json:"assetType"`
		Ticker    string           `json:"ticker"`
		Timestamp string           `json:"timestamp"`
		Price     decimal.Decimal  `json:"price"`
		Source    string           `json:"source,omitempty"`
		Bid       *decimal.Decimal `json:"bid,omitempty"`
		Ask       *decimal.Decimal `json:"ask,omitempty"`
	}

	// AssetRefs carries the per-asset daily and monthly reference prices
	// used to compute P&L deltas, refreshed once per UTC day/month.
	AssetRefs struct {
		AssetKey      string          `json:"assetKey"`
		DailyRefPrice decimal.Decimal `json:"dailyRefPrice"`
		DailyRefAt    string          `json:"dailyRefAt,omitempty"`
		MonthRefPrice decimal.Decimal `json:"monthRefPrice"`
		MonthRefAt    string          `json:"monthRefAt,omitempty"`
	}
)

// ScopeMode selects how a budget scope rule matches subcategories.
type ScopeMode string

const (
	ScopeAllSubcategories      ScopeMode = "all_subcategories"
	ScopeSelectedSubcategories ScopeMode = "selected_subcategories"
)

// ScopeRule is one budget matching criterion over a single category.
// IncludeNoSubcategory is the structural "no subcategory" sentinel: a
// selected_subcategories rule matches unlabeled transactions only when it is
// set. Older data encoded the sentinel as a reserved literal inside
// SubcategoryNames; normalization lifts it into this flag.
type ScopeRule struct {
	CategoryID           string    `json:"categoryId"`
	Mode                 ScopeMode `json:"mode"`
	SubcategoryNames     []string  `json:"subcategoryNames,omitempty"`
	IncludeNoSubcategory bool      `json:"includeNoSubcategory,omitempty"`
}

// TransactionType distinguishes regular movements from goal savings.
type TransactionType string

const (
	TransactionRegular TransactionType = "regular"
	TransactionSaving  TransactionType = "saving"
)

// AssetType is the investment asset class of a position or snapshot.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
)

// ValidAssetType reports whether t is a known asset class.
func ValidAssetType(t AssetType) bool {
	return t == AssetStock || t == AssetCrypto
}

// AssetKey identifies one investment line for snapshot and reference-price
// tracking. Tickers are normalized to upper case.
func AssetKey(t AssetType, ticker string) string {
	return string(t) + ":" + strings.ToUpper(strings.TrimSpace(ticker))
}

// FoldName normalizes a name for case/locale-insensitive comparison.
func FoldName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
