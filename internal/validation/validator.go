package validation

import (
	"fmt"
	"math"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/canteenhq/customer-insights/internal/audience"
)

// New returns a configured validator with the struct-level validations the
// scoring engines rely on: they assume finite, non-negative amounts and a
// known rule vocabulary, so anything violating that is rejected here at the
// boundary rather than inside the scoring logic.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterStructValidation(computeMetricsStructValidation, ComputeMetricsRequest{})
	v.RegisterStructValidation(quintilesRequestStructValidation, QuintilesRequest{})
	v.RegisterStructValidation(segmentRuleStructValidation, SegmentRule{})

	return v
}

// computeMetricsStructValidation rejects what the field tags cannot:
// non-finite or negative amounts and breakpoints, and unordered quintiles.
func computeMetricsStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(ComputeMetricsRequest)

	for i, o := range req.Orders {
		if !isFinite(o.Amount) || o.Amount < 0 {
			sl.ReportError(o.Amount, fmt.Sprintf("orders[%d].amount", i), "Amount", "amount_finite_nonnegative", "")
		}
	}

	q := req.Quintiles
	breakpoints := []struct {
		name  string
		value float64
	}{
		{"ltv_quintiles.p20", q.P20},
		{"ltv_quintiles.p40", q.P40},
		{"ltv_quintiles.p60", q.P60},
		{"ltv_quintiles.p80", q.P80},
	}
	for _, bp := range breakpoints {
		if !isFinite(bp.value) {
			sl.ReportError(bp.value, bp.name, "Quintiles", "breakpoint_finite", "")
		}
	}
	if !(q.P20 <= q.P40 && q.P40 <= q.P60 && q.P60 <= q.P80) {
		sl.ReportError(q, "ltv_quintiles", "Quintiles", "breakpoints_ordered", "")
	}

	if !isFinite(req.OrgAvgOrderValue) || req.OrgAvgOrderValue < 0 {
		sl.ReportError(req.OrgAvgOrderValue, "org_avg_order_value", "OrgAvgOrderValue", "avg_finite_nonnegative", "")
	}
}

func quintilesRequestStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(QuintilesRequest)
	for i, v := range req.Values {
		if !isFinite(v) || v < 0 {
			sl.ReportError(v, fmt.Sprintf("values[%d]", i), "Values", "value_finite_nonnegative", "")
		}
	}
}

// segmentRuleStructValidation keeps unknown attributes and operators out of
// the rule engine, which would otherwise silently match nothing.
func segmentRuleStructValidation(sl validatorv10.StructLevel) {
	rule := sl.Current().Interface().(SegmentRule)

	if !knownAttribute(rule.Attribute) {
		sl.ReportError(rule.Attribute, "attribute", "Attribute", "known_attribute", "")
	}
	if !knownOperator(rule.Operator) {
		sl.ReportError(rule.Operator, "operator", "Operator", "known_operator", "")
	}
}

func knownAttribute(s string) bool {
	for _, a := range audience.KnownAttributes {
		if audience.Attribute(s) == a {
			return true
		}
	}
	return false
}

func knownOperator(s string) bool {
	for _, op := range audience.KnownOperators {
		if audience.Operator(s) == op {
			return true
		}
	}
	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
