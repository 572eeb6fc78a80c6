package core

import (
	"strings"
	"time"
)

const (
	// MonthFormat is the YYYY-MM month layout used by budgets and cuotas.
	MonthFormat = "2006-01"
	// DateFormat is the ISO date layout carried by transactions and goals.
	DateFormat = "2006-01-02"
)

// ParseMonth validates a YYYY-MM month string and returns it normalized.
func ParseMonth(s string) (string, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(MonthFormat, s)
	if err != nil {
		return "", ErrInvalidMonth
	}
	return t.Format(MonthFormat), nil
}

// ParseDate validates a YYYY-MM-DD date string and returns it normalized.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(DateFormat), nil
}

// MonthOf returns the YYYY-MM prefix of an ISO date.
func MonthOf(dateISO string) string {
	if len(dateISO) < len(MonthFormat) {
		return dateISO
	}
	return dateISO[:len(MonthFormat)]
}

// SameUTCDay reports whether a and b fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// SameUTCMonth reports whether a and b fall in the same UTC year-month.
func SameUTCMonth(a, b time.Time) bool {
	ay, am, _ := a.UTC().Date()
	by, bm, _ := b.UTC().Date()
	return ay == by && am == bm
}

// Timestamp renders t in the RFC3339 UTC form stored on records.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
