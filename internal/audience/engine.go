package audience

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Evaluate returns the ids of all customers satisfying the rule set. An
// empty rule list matches nobody, for AND and OR alike; a segment with no
// rules has no audience rather than "everybody".
func Evaluate(data []CustomerData, rules []Rule, comb Combination, now time.Time) []string {
	ids := []string{}
	if len(rules) == 0 {
		return ids
	}
	for _, d := range data {
		if satisfies(d, rules, comb, now) {
			ids = append(ids, d.CustomerID)
		}
	}
	return ids
}

// EvaluateWithRuleMatch is the preview variant: per qualifying customer it
// reports which rule indices matched. Under AND a customer appears only
// when every rule matched (the indices are then all of them); under OR one
// match suffices and only the matching indices are reported. limit > 0
// caps the result to the first N qualifying customers in input order
// without changing who would otherwise qualify.
func EvaluateWithRuleMatch(data []CustomerData, rules []Rule, comb Combination, now time.Time, limit int) []RuleMatch {
	out := []RuleMatch{}
	if len(rules) == 0 {
		return out
	}
	for _, d := range data {
		if limit > 0 && len(out) >= limit {
			break
		}
		matched := []int{}
		for i, r := range rules {
			if r.matches(d, now) {
				matched = append(matched, i)
			}
		}
		include := false
		if comb == CombinationAnd {
			include = len(matched) == len(rules)
		} else {
			include = len(matched) > 0
		}
		if include {
			out = append(out, RuleMatch{CustomerID: d.CustomerID, MatchedRules: matched})
		}
	}
	return out
}

func satisfies(d CustomerData, rules []Rule, comb Combination, now time.Time) bool {
	if comb == CombinationAnd {
		for _, r := range rules {
			if !r.matches(d, now) {
				return false
			}
		}
		return true
	}
	for _, r := range rules {
		if r.matches(d, now) {
			return true
		}
	}
	return false
}

func (r Rule) matches(d CustomerData, now time.Time) bool {
	switch r.Attribute {
	case AttrOrderCount:
		return compareNumber(float64(d.OrderCount), r.Operator, r.Value)
	case AttrLastOrderDays:
		return compareDistance(d.LastOrderDays, r.Operator, r.Value)
	case AttrTotalSpend:
		return compareNumber(d.TotalSpend, r.Operator, r.Value)
	case AttrLocation:
		return matchSet(d.LocationIDs, r.Operator, r.Value)
	case AttrCompany:
		return matchSet(d.CompanyIDs, r.Operator, r.Value)
	case AttrRegisteredDays:
		days := math.Floor(now.Sub(d.RegisteredAt).Hours() / 24)
		return compareNumber(days, r.Operator, r.Value)
	case AttrRole:
		return matchString(d.Role, r.Operator, r.Value)
	default:
		return false
	}
}

// compareDistance applies the asymmetric never-ordered policy: a nil
// distance behaves like an infinitely large one, so gt/gte and ne match
// against any threshold while eq/lt/lte/in never do.
func compareDistance(days *int, op Operator, value any) bool {
	if days == nil {
		switch op {
		case OpGt, OpGte, OpNe:
			return true
		default:
			return false
		}
	}
	return compareNumber(float64(*days), op, value)
}

func compareNumber(v float64, op Operator, value any) bool {
	if op == OpIn {
		for _, item := range asList(value) {
			if n, ok := asNumber(item); ok && v == n {
				return true
			}
		}
		return false
	}
	n, ok := asNumber(value)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return v == n
	case OpNe:
		return v != n
	case OpGt:
		return v > n
	case OpGte:
		return v >= n
	case OpLt:
		return v < n
	case OpLte:
		return v <= n
	default:
		return false
	}
}

// matchSet evaluates membership attributes (locations, companies): eq means
// "the set contains the value", ne its negation, in "the set intersects the
// list". Ordering operators have no meaning for sets and never match.
func matchSet(members []string, op Operator, value any) bool {
	switch op {
	case OpEq:
		s, ok := asString(value)
		return ok && containsString(members, s)
	case OpNe:
		s, ok := asString(value)
		return ok && !containsString(members, s)
	case OpIn:
		for _, item := range asList(value) {
			if s, ok := asString(item); ok && containsString(members, s) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchString(v string, op Operator, value any) bool {
	switch op {
	case OpEq:
		s, ok := asString(value)
		return ok && v == s
	case OpNe:
		s, ok := asString(value)
		return ok && v != s
	case OpIn:
		for _, item := range asList(value) {
			if s, ok := asString(item); ok && v == s {
				return true
			}
		}
		return false
	default:
		return false
	}
}

var displayNames = map[Attribute]string{
	AttrOrderCount:     "Bestellanzahl",
	AttrLastOrderDays:  "Tage seit letzter Bestellung",
	AttrTotalSpend:     "Gesamtumsatz",
	AttrLocation:       "Standort",
	AttrCompany:        "Firma",
	AttrRegisteredDays: "Tage seit Registrierung",
	AttrRole:           "Rolle",
}

var operatorGlyphs = map[Operator]string{
	OpEq:  "=",
	OpNe:  "≠",
	OpGt:  ">",
	OpGte: "≥",
	OpLt:  "<",
	OpLte: "≤",
	OpIn:  "in",
}

// Label renders a human-readable description of the rule for UI previews.
// It has no part in matching logic.
func (r Rule) Label() string {
	name, ok := displayNames[r.Attribute]
	if !ok {
		name = string(r.Attribute)
	}
	glyph, ok := operatorGlyphs[r.Operator]
	if !ok {
		glyph = string(r.Operator)
	}
	return fmt.Sprintf("%s %s %s", name, glyph, formatValue(r.Value))
}

func formatValue(value any) string {
	if items := asList(value); items != nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, formatValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	if n, ok := asNumber(value); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	if s, ok := asString(value); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// asNumber coerces the loosely typed rule values that arrive via JSON.
func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		// ids serialized as JSON numbers
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

func asList(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []float64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out
	default:
		return nil
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
