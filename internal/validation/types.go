package validation

import "time"

// OrderFact is one historical order in a metrics request.
type OrderFact struct {
	OrderID      string     `json:"order_id" validate:"required"`
	CreatedAt    time.Time  `json:"created_at" validate:"required"`
	PickupDate   *time.Time `json:"pickup_date,omitempty"` // optional scheduled fulfillment time
	Amount       float64    `json:"amount"`
	Channel      string     `json:"channel,omitempty"`
	HasCoupon    bool       `json:"has_coupon"`
	HasWallet    bool       `json:"has_wallet"`
	ProductNames []*string  `json:"product_names,omitempty"` // null entries are dropped, not counted
}

// Quintiles are the org-wide LTV breakpoints fed into monetary scoring.
type Quintiles struct {
	P20 float64 `json:"p20"`
	P40 float64 `json:"p40"`
	P60 float64 `json:"p60"`
	P80 float64 `json:"p80"`
}

// ComputeMetricsRequest is the payload for POST /v1/metrics/compute.
type ComputeMetricsRequest struct {
	CustomerID       string      `json:"customer_id" validate:"required"`
	TenantID         string      `json:"tenant_id" validate:"required"`
	RegisteredAt     time.Time   `json:"registered_at" validate:"required"`
	Orders           []OrderFact `json:"orders" validate:"dive"` // empty history is a valid case
	Quintiles        Quintiles   `json:"ltv_quintiles"`
	OrgAvgOrderValue float64     `json:"org_avg_order_value"`
	Now              *time.Time  `json:"now,omitempty"` // defaults to wall clock at the boundary
}

// QuintilesRequest is the payload for POST /v1/metrics/quintiles. An empty
// value list is valid and yields all-zero breakpoints.
type QuintilesRequest struct {
	Values []float64 `json:"values"`
}

// SegmentRule is one attribute/operator/value triple of a segment
// definition.
type SegmentRule struct {
	Attribute string `json:"attribute" validate:"required"`
	Operator  string `json:"operator" validate:"required"`
	Value     any    `json:"value"`
}

// AudienceCustomer is the flat per-customer snapshot rules run against.
type AudienceCustomer struct {
	CustomerID    string    `json:"customer_id" validate:"required"`
	OrderCount    int       `json:"order_count" validate:"min=0"`
	LastOrderDays *int      `json:"last_order_days,omitempty"` // null = never ordered
	TotalSpend    float64   `json:"total_spend"`
	LocationIDs   []string  `json:"location_ids,omitempty"`
	CompanyIDs    []string  `json:"company_ids,omitempty"`
	RegisteredAt  time.Time `json:"registered_at" validate:"required"`
	Role          string    `json:"role,omitempty"`
}

// EvaluateAudienceRequest is the payload for POST /v1/audiences/evaluate.
type EvaluateAudienceRequest struct {
	Customers   []AudienceCustomer `json:"customers" validate:"dive"`
	Rules       []SegmentRule      `json:"rules" validate:"dive"`
	Combination string             `json:"combination" validate:"required,oneof=AND OR"`
	Now         *time.Time         `json:"now,omitempty"`
}

// PreviewAudienceRequest is the payload for POST /v1/audiences/preview.
// Limit 0 means no cap.
type PreviewAudienceRequest struct {
	EvaluateAudienceRequest
	Limit int `json:"limit" validate:"min=0"`
}
