package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseSignedAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"-300", "-300", false},
		{"+12,50", "12.5", false},
		{"900.10", "900.1", false},
		{" 42 ", "42", false},
		{"0", "", true},
		{"0.00", "", true},
		{"", "", true},
		{"abc", "", true},
		{"12.3.4", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSignedAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSignedAmount(%q) expected error, got %s", tt.in, got)
				}
				if !IsValidation(err) {
					t.Errorf("ParseSignedAmount(%q) error should be a validation error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSignedAmount(%q) unexpected error: %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseSignedAmount(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestInstallmentAmount(t *testing.T) {
	total := decimal.RequireFromString("1000")
	if got := InstallmentAmount(total, 3); got.String() != "333.33" {
		t.Errorf("InstallmentAmount(1000, 3) = %s, want 333.33", got)
	}
	if got := InstallmentAmount(total, 1); got.String() != "1000" {
		t.Errorf("InstallmentAmount(1000, 1) = %s, want 1000", got)
	}
}

func TestDeriveAssetAmount(t *testing.T) {
	spent := decimal.RequireFromString("100")
	price := decimal.RequireFromString("3")
	if got := DeriveAssetAmount(spent, price); got.String() != "33.33333333" {
		t.Errorf("DeriveAssetAmount(100, 3) = %s, want 33.33333333", got)
	}
}

func TestRequirePositive(t *testing.T) {
	if err := RequirePositive(decimal.RequireFromString("0.01")); err != nil {
		t.Errorf("0.01 should be accepted: %v", err)
	}
	if err := RequirePositive(decimal.Zero); err == nil {
		t.Error("zero should be rejected")
	}
	if err := RequirePositive(decimal.RequireFromString("-5")); err == nil {
		t.Error("negative should be rejected")
	}
}
