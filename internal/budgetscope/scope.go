// Package budgetscope implements the budget scope-matching engine: pure,
// side-effect-free functions that normalize scope-rule sets, decide which
// transactions count against which budget, and detect rule overlap between
// budgets. The budgets repository uses it on write; statistics read-models
// use it on read.
package budgetscope

import (
	"strings"

	"fintrack/internal/core"
)

// LegacyNoSubcategory is the reserved literal that older stored rule sets
// used to mean "transactions without a subcategory". Normalization lifts it
// into ScopeRule.IncludeNoSubcategory so a real subcategory of that name can
// no longer collide with the sentinel.
const LegacyNoSubcategory = "(sin subcategoría)"

// Normalize trims, deduplicates, and merges a scope-rule set so that at most
// one rule per category remains.
//
// Rules with a blank category are dropped. For selected_subcategories rules
// the name set is trimmed and deduplicated (order-preserving) and the legacy
// sentinel literal is lifted into IncludeNoSubcategory; a rule whose set ends
// up empty (and without the sentinel) is dropped. When two rules share a
// category, all_subcategories wins; otherwise the name sets are unioned.
// If nothing survives, a single all_subcategories rule is synthesized from
// legacyCategoryID when provided.
func Normalize(rules []core.ScopeRule, legacyCategoryID string) []core.ScopeRule {
	var out []core.ScopeRule
	index := make(map[string]int)

	for _, r := range rules {
		catID := strings.TrimSpace(r.CategoryID)
		if catID == "" {
			continue
		}

		cleaned, ok := cleanRule(catID, r)
		if !ok {
			continue
		}

		i, seen := index[catID]
		if !seen {
			index[catID] = len(out)
			out = append(out, cleaned)
			continue
		}
		out[i] = mergeRules(out[i], cleaned)
	}

	if len(out) == 0 {
		legacyCategoryID = strings.TrimSpace(legacyCategoryID)
		if legacyCategoryID != "" {
			out = []core.ScopeRule{{CategoryID: legacyCategoryID, Mode: core.ScopeAllSubcategories}}
		}
	}
	return out
}

// cleanRule trims one rule's name set and resolves the sentinel. Unknown or
// blank modes are treated as all_subcategories, matching how legacy records
// without a mode behaved.
func cleanRule(catID string, r core.ScopeRule) (core.ScopeRule, bool) {
	if r.Mode != core.ScopeSelectedSubcategories {
		return core.ScopeRule{CategoryID: catID, Mode: core.ScopeAllSubcategories}, true
	}

	includeNone := r.IncludeNoSubcategory
	seen := make(map[string]struct{})
	var names []string
	for _, n := range r.SubcategoryNames {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if n == LegacyNoSubcategory {
			includeNone = true
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	if len(names) == 0 && !includeNone {
		return core.ScopeRule{}, false
	}
	return core.ScopeRule{
		CategoryID:           catID,
		Mode:                 core.ScopeSelectedSubcategories,
		SubcategoryNames:     names,
		IncludeNoSubcategory: includeNone,
	}, true
}

func mergeRules(a, b core.ScopeRule) core.ScopeRule {
	if a.Mode == core.ScopeAllSubcategories || b.Mode == core.ScopeAllSubcategories {
		return core.ScopeRule{CategoryID: a.CategoryID, Mode: core.ScopeAllSubcategories}
	}
	merged := core.ScopeRule{
		CategoryID:           a.CategoryID,
		Mode:                 core.ScopeSelectedSubcategories,
		SubcategoryNames:     append([]string(nil), a.SubcategoryNames...),
		IncludeNoSubcategory: a.IncludeNoSubcategory || b.IncludeNoSubcategory,
	}
	seen := make(map[string]struct{}, len(merged.SubcategoryNames))
	for _, n := range merged.SubcategoryNames {
		seen[n] = struct{}{}
	}
	for _, n := range b.SubcategoryNames {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		merged.SubcategoryNames = append(merged.SubcategoryNames, n)
	}
	return merged
}

// Matches reports whether tx counts against a budget with the given rules.
// Any single matching rule is sufficient. A transaction without a
// subcategory matches a selected_subcategories rule only when the rule
// carries the no-subcategory sentinel.
func Matches(rules []core.ScopeRule, tx core.Transaction) bool {
	catID := strings.TrimSpace(tx.CategoryID)
	if catID == "" {
		return false
	}
	sub := strings.TrimSpace(tx.SubcategoryName)

	for _, r := range rules {
		if r.CategoryID != catID {
			continue
		}
		if r.Mode != core.ScopeSelectedSubcategories {
			return true
		}
		if sub == "" {
			if r.IncludeNoSubcategory || containsName(r.SubcategoryNames, LegacyNoSubcategory) {
				return true
			}
			continue
		}
		if containsName(r.SubcategoryNames, sub) {
			return true
		}
	}
	return false
}

// Overlap reports whether two rule sets could both claim the same
// transaction: some shared category where either side is all_subcategories,
// the selected name sets intersect, or both carry the sentinel. Callers use
// it to block double-counting budgets within one period.
func Overlap(a, b []core.ScopeRule) bool {
	for _, ra := range a {
		for _, rb := range b {
			if ra.CategoryID != rb.CategoryID {
				continue
			}
			if ra.Mode != core.ScopeSelectedSubcategories || rb.Mode != core.ScopeSelectedSubcategories {
				return true
			}
			if ra.IncludeNoSubcategory && rb.IncludeNoSubcategory {
				return true
			}
			for _, n := range ra.SubcategoryNames {
				if containsName(rb.SubcategoryNames, n) {
					return true
				}
			}
		}
	}
	return false
}

// PrimaryCategoryID derives the backward-compatible single-category field:
// the first normalized rule's category, or empty.
func PrimaryCategoryID(rules []core.ScopeRule, legacyCategoryID string) string {
	normalized := Normalize(rules, legacyCategoryID)
	if len(normalized) == 0 {
		return ""
	}
	return normalized[0].CategoryID
}

func containsName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
