package metrics

import "time"

// Activity statuses
const (
	StatusNeu          = "NEU"
	StatusAktiv        = "AKTIV"
	StatusGelegentlich = "GELEGENTLICH"
	StatusSchlafend    = "SCHLAFEND"
	StatusAbgewandert  = "ABGEWANDERT"
)

// Customer tiers, ordered STANDARD < BRONZE < SILBER < GOLD < PLATIN.
const (
	TierStandard = "STANDARD"
	TierBronze   = "BRONZE"
	TierSilber   = "SILBER"
	TierGold     = "GOLD"
	TierPlatin   = "PLATIN"
)

// Trend directions for 30-day window comparisons.
const (
	TrendWachsend     = "WACHSEND"
	TrendStabil       = "STABIL"
	TrendRuecklaeufig = "RUECKLAEUFIG"
)

// RFM segments
const (
	SegmentNewCustomer    = "NEW_CUSTOMER"
	SegmentChampion       = "CHAMPION"
	SegmentLoyal          = "LOYAL"
	SegmentPotential      = "POTENTIAL"
	SegmentNeedsAttention = "NEEDS_ATTENTION"
	SegmentCantLose       = "CANT_LOSE"
	SegmentAtRisk         = "AT_RISK"
	SegmentHibernating    = "HIBERNATING"
)

// Time slots derived from the order hour: <10 | <14 | <17 | rest.
const (
	SlotFruehstueck = "FRUEHSTUECK"
	SlotMittag      = "MITTAG"
	SlotNachmittag  = "NACHMITTAG"
	SlotAbend       = "ABEND"
)

// OrderFact is one historical, non-cancelled order of a single customer.
// The caller is responsible for filtering by customer and status; the
// engine takes the list as-is.
type OrderFact struct {
	OrderID      string    `json:"order_id"`
	CreatedAt    time.Time `json:"created_at"`
	PickupDate   time.Time `json:"pickup_date"` // zero value = no scheduled pickup
	Amount       float64   `json:"amount"`
	Channel      string    `json:"channel,omitempty"` // "" = unknown channel
	HasCoupon    bool      `json:"has_coupon"`
	HasWallet    bool      `json:"has_wallet"`
	ProductNames []string  `json:"product_names,omitempty"` // empty entries are skipped
}

// Quintiles are the org-wide LTV distribution breakpoints. They must come
// from one LTVQuintiles call per tenant so monetary scores stay comparable
// across that tenant's customers.
type Quintiles struct {
	P20 float64 `json:"p20"`
	P40 float64 `json:"p40"`
	P60 float64 `json:"p60"`
	P80 float64 `json:"p80"`
}

// Input carries everything Compute needs for one customer. Now is required;
// callers that want wall-clock behavior set it themselves at the boundary.
type Input struct {
	CustomerID       string
	TenantID         string
	RegisteredAt     time.Time
	Orders           []OrderFact
	Quintiles        Quintiles
	OrgAvgOrderValue float64
	Now              time.Time
}

// Result is the full behavioral profile for one customer. It is fully
// determined by the Input it was computed from.
type Result struct {
	CustomerID string `json:"customer_id"`
	TenantID   string `json:"tenant_id"`

	ActivityStatus        string     `json:"activity_status"`
	DaysSinceRegistration int        `json:"days_since_registration"`
	DaysSinceLastOrder    *int       `json:"days_since_last_order,omitempty"`
	TotalOrders           int        `json:"total_orders"`
	FirstOrderAt          *time.Time `json:"first_order_at,omitempty"`
	LastOrderAt           *time.Time `json:"last_order_at,omitempty"`

	PreferredWeekday  *string `json:"preferred_weekday,omitempty"`
	PreferredTimeSlot *string `json:"preferred_time_slot,omitempty"`

	LTV                   float64 `json:"ltv"`
	AvgOrderValue         float64 `json:"avg_order_value"`
	OrderFrequencyPerWeek float64 `json:"order_frequency_per_week"`
	CustomerTier          string  `json:"customer_tier"`

	Orders30d     int     `json:"orders_30d"`
	Orders30dPrev int     `json:"orders_30d_prev"`
	Spend30d      float64 `json:"spend_30d"`
	Spend30dPrev  float64 `json:"spend_30d_prev"`

	RFMRecency   int    `json:"rfm_recency"`
	RFMFrequency int    `json:"rfm_frequency"`
	RFMMonetary  int    `json:"rfm_monetary"`
	RFMSegment   string `json:"rfm_segment"`

	FrequencyTrend string `json:"frequency_trend"`
	SpendTrend     string `json:"spend_trend"`

	ChurnRiskScore        int  `json:"churn_risk_score"`
	WinBackScore          *int `json:"win_back_score,omitempty"`
	UpsellScore           int  `json:"upsell_score"`
	OrderConsistencyScore *int `json:"order_consistency_score,omitempty"`
	OrderDiversityScore   int  `json:"order_diversity_score"`

	LunchRegularity  *float64 `json:"lunch_regularity,omitempty"`
	AvgLeadTimeHours *float64 `json:"avg_lead_time_hours,omitempty"`

	CouponUsageRate   float64 `json:"coupon_usage_rate"`
	WalletUsageRate   float64 `json:"wallet_usage_rate"`
	PrimaryChannel    *string `json:"primary_channel,omitempty"`
	ChannelLoyaltyPct float64 `json:"channel_loyalty_pct"`

	CalculatedAt time.Time `json:"calculated_at"`
}
