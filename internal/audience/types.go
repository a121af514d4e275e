package audience

import "time"

// Attribute identifies which customer property a rule targets.
type Attribute string

const (
	AttrOrderCount     Attribute = "order_count"
	AttrLastOrderDays  Attribute = "last_order_days"
	AttrTotalSpend     Attribute = "total_spend"
	AttrLocation       Attribute = "location_id"
	AttrCompany        Attribute = "company_id"
	AttrRegisteredDays Attribute = "registered_days"
	AttrRole           Attribute = "role"
)

// Operator is the comparison a rule applies to its attribute.
type Operator string

const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

// Combination joins a rule set: AND requires every rule to match, OR at
// least one.
type Combination string

const (
	CombinationAnd Combination = "AND"
	CombinationOr  Combination = "OR"
)

// CustomerData is the flat per-customer attribute snapshot rules are
// evaluated against. The caller aggregates it from raw orders beforehand.
type CustomerData struct {
	CustomerID    string
	OrderCount    int
	LastOrderDays *int // nil = never ordered
	TotalSpend    float64
	LocationIDs   []string
	CompanyIDs    []string
	RegisteredAt  time.Time
	Role          string
}

// Rule is one attribute/operator/value triple of a segment definition.
// Value is a number, a string, or a list of either, depending on the
// attribute and operator.
type Rule struct {
	Attribute Attribute
	Operator  Operator
	Value     any
}

// RuleMatch reports, for preview purposes, which rule indices a customer
// satisfied.
type RuleMatch struct {
	CustomerID   string `json:"customer_id"`
	MatchedRules []int  `json:"matched_rule_indices"`
}

// KnownAttributes enumerates every attribute the engine can evaluate.
var KnownAttributes = []Attribute{
	AttrOrderCount,
	AttrLastOrderDays,
	AttrTotalSpend,
	AttrLocation,
	AttrCompany,
	AttrRegisteredDays,
	AttrRole,
}

// KnownOperators enumerates every supported operator.
var KnownOperators = []Operator{OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn}
