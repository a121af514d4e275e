package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(days int) time.Time {
	return testNow.Add(-time.Duration(days) * 24 * time.Hour)
}

func order(created time.Time, amount float64) OrderFact {
	return OrderFact{
		OrderID:   "o-" + created.Format("20060102-150405"),
		CreatedAt: created,
		Amount:    amount,
	}
}

func TestCompute_Purity(t *testing.T) {
	in := Input{
		CustomerID:   "cust-1",
		TenantID:     "tenant-1",
		RegisteredAt: daysAgo(200),
		Orders: []OrderFact{
			order(daysAgo(40), 12.5),
			order(daysAgo(20), 8),
			order(daysAgo(3), 19.9),
		},
		Quintiles:        Quintiles{P20: 10, P40: 25, P60: 60, P80: 120},
		OrgAvgOrderValue: 15,
		Now:              testNow,
	}

	first := Compute(in)
	second := Compute(in)
	require.Equal(t, first, second)
}

func TestCompute_ZeroOrders_RecentlyRegistered(t *testing.T) {
	res := Compute(Input{
		CustomerID:   "cust-1",
		TenantID:     "tenant-1",
		RegisteredAt: daysAgo(10),
		Now:          testNow,
	})

	assert.Equal(t, StatusNeu, res.ActivityStatus)
	assert.Equal(t, 10, res.DaysSinceRegistration)
	assert.Nil(t, res.DaysSinceLastOrder)
	assert.Nil(t, res.FirstOrderAt)
	assert.Nil(t, res.LastOrderAt)
	assert.Zero(t, res.LTV)
	assert.Equal(t, TierStandard, res.CustomerTier)
	assert.Equal(t, 1, res.RFMRecency)
	assert.Equal(t, 1, res.RFMFrequency)
	assert.NotEqual(t, SegmentChampion, res.RFMSegment)
	assert.NotEqual(t, SegmentLoyal, res.RFMSegment)
	assert.Nil(t, res.WinBackScore)
	assert.Nil(t, res.OrderConsistencyScore)
	assert.Nil(t, res.LunchRegularity)
	assert.Nil(t, res.AvgLeadTimeHours)
	assert.Nil(t, res.PrimaryChannel)
	assert.Zero(t, res.ChannelLoyaltyPct)

	// registered <= 30 days: only the small base churn component applies
	assert.Equal(t, 10, res.ChurnRiskScore)
	assert.Equal(t, TrendStabil, res.FrequencyTrend)
	assert.Equal(t, TrendStabil, res.SpendTrend)
}

func TestCompute_ZeroOrders_LongRegistered(t *testing.T) {
	res := Compute(Input{
		CustomerID:   "cust-1",
		TenantID:     "tenant-1",
		RegisteredAt: daysAgo(100),
		Now:          testNow,
	})

	assert.Equal(t, StatusAbgewandert, res.ActivityStatus)
	assert.Equal(t, 40, res.ChurnRiskScore)

	// lapsed without any order: no LTV share, unknown recency, no tier bonus
	require.NotNil(t, res.WinBackScore)
	assert.Equal(t, 15, *res.WinBackScore)
}

func TestCompute_EndToEndScenario(t *testing.T) {
	offsets := []int{56, 50, 45, 40, 35, 30, 25, 20, 12, 5}
	orders := make([]OrderFact, 0, len(offsets))
	for _, d := range offsets {
		o := order(daysAgo(d), 20)
		o.Channel = "APP"
		orders = append(orders, o)
	}

	res := Compute(Input{
		CustomerID:       "cust-1",
		TenantID:         "tenant-1",
		RegisteredAt:     daysAgo(200),
		Orders:           orders,
		Quintiles:        Quintiles{P20: 50, P40: 100, P60: 150, P80: 200},
		OrgAvgOrderValue: 120,
		Now:              testNow,
	})

	assert.Equal(t, StatusAktiv, res.ActivityStatus)
	assert.Equal(t, 10, res.TotalOrders)
	assert.Equal(t, 200.0, res.LTV)
	assert.Equal(t, 20.0, res.AvgOrderValue)
	assert.Equal(t, 1.25, res.OrderFrequencyPerWeek)
	assert.Equal(t, TierBronze, res.CustomerTier)

	assert.Equal(t, 5, res.RFMRecency)
	assert.Equal(t, 3, res.RFMFrequency)
	assert.Equal(t, 5, res.RFMMonetary) // 200 >= p80
	assert.Equal(t, SegmentLoyal, res.RFMSegment)

	// both windows hold 5 orders of 20 each
	assert.Equal(t, 5, res.Orders30d)
	assert.Equal(t, 5, res.Orders30dPrev)
	assert.Equal(t, 100.0, res.Spend30d)
	assert.Equal(t, 100.0, res.Spend30dPrev)
	assert.Equal(t, TrendStabil, res.FrequencyTrend)
	assert.Equal(t, TrendStabil, res.SpendTrend)

	assert.Equal(t, 0, res.ChurnRiskScore)
	assert.Nil(t, res.WinBackScore)
	assert.Equal(t, 67, res.UpsellScore) // (0.8333*0.6 + 0.4167*0.4) * 100
	assert.NotNil(t, res.OrderConsistencyScore)
	assert.NotNil(t, res.LunchRegularity)

	assert.Zero(t, res.CouponUsageRate)
	assert.Zero(t, res.WalletUsageRate)
	require.NotNil(t, res.PrimaryChannel)
	assert.Equal(t, "APP", *res.PrimaryChannel)
	assert.Equal(t, 1.0, res.ChannelLoyaltyPct)

	assert.Equal(t, testNow, res.CalculatedAt)
}

func TestTierForLTV(t *testing.T) {
	cases := []struct {
		ltv  float64
		want string
	}{
		{0, TierStandard},
		{99.99, TierStandard},
		{100, TierBronze},
		{499.99, TierBronze},
		{500, TierSilber},
		{1500, TierGold},
		{4999.99, TierGold},
		{5000, TierPlatin},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tierForLTV(tc.ltv), "ltv=%v", tc.ltv)
	}
}

func TestTierForLTV_Monotonic(t *testing.T) {
	rank := map[string]int{
		TierStandard: 0,
		TierBronze:   1,
		TierSilber:   2,
		TierGold:     3,
		TierPlatin:   4,
	}
	prev := -1
	for ltv := 0.0; ltv <= 6000; ltv += 7.5 {
		r := rank[tierForLTV(ltv)]
		require.GreaterOrEqual(t, r, prev, "tier rank dropped at ltv=%v", ltv)
		prev = r
	}
}

func TestRFMScoreBounds(t *testing.T) {
	quintiles := Quintiles{P20: 10, P40: 50, P60: 200, P80: 800}
	for orderCount := 0; orderCount <= 40; orderCount += 4 {
		for spacing := 1; spacing <= 90; spacing += 13 {
			orders := make([]OrderFact, 0, orderCount)
			for i := 0; i < orderCount; i++ {
				orders = append(orders, order(daysAgo(i*spacing+1), float64(spacing)*3))
			}
			res := Compute(Input{
				CustomerID:       "cust-1",
				TenantID:         "tenant-1",
				RegisteredAt:     daysAgo(1000),
				Orders:           orders,
				Quintiles:        quintiles,
				OrgAvgOrderValue: 40,
				Now:              testNow,
			})
			for _, score := range []int{res.RFMRecency, res.RFMFrequency, res.RFMMonetary} {
				require.GreaterOrEqual(t, score, 1)
				require.LessOrEqual(t, score, 5)
			}
			require.GreaterOrEqual(t, res.ChurnRiskScore, 0)
			require.LessOrEqual(t, res.ChurnRiskScore, 100)
			require.GreaterOrEqual(t, res.UpsellScore, 0)
			require.LessOrEqual(t, res.UpsellScore, 100)
			require.GreaterOrEqual(t, res.OrderDiversityScore, 0)
			require.LessOrEqual(t, res.OrderDiversityScore, 100)
			if res.OrderConsistencyScore != nil {
				require.GreaterOrEqual(t, *res.OrderConsistencyScore, 0)
				require.LessOrEqual(t, *res.OrderConsistencyScore, 100)
			}
		}
	}
}

func TestRecencyScore(t *testing.T) {
	five, thirty, sixtyOne, oneTwenty, twoHundred := 5, 30, 61, 120, 200
	cases := []struct {
		days *int
		want int
	}{
		{nil, 1},
		{&five, 5},
		{&thirty, 4},
		{&sixtyOne, 2},
		{&oneTwenty, 2},
		{&twoHundred, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, recencyScore(tc.days))
	}
}

func TestTrendDirection(t *testing.T) {
	assert.Equal(t, TrendWachsend, trendDirection(10, 5))
	assert.Equal(t, TrendRuecklaeufig, trendDirection(5, 10))
	assert.Equal(t, TrendStabil, trendDirection(10, 9))
	assert.Equal(t, TrendStabil, trendDirection(0, 0))
	// prev of zero is floored to 1
	assert.Equal(t, TrendWachsend, trendDirection(1, 0))
}

func TestCompute_ChurnRisk_DecliningTrends(t *testing.T) {
	orders := []OrderFact{
		order(daysAgo(50), 25),
		order(daysAgo(45), 25),
		order(daysAgo(40), 25),
		order(daysAgo(35), 25),
		order(daysAgo(20), 10),
	}
	res := Compute(Input{
		CustomerID:       "cust-1",
		TenantID:         "tenant-1",
		RegisteredAt:     daysAgo(300),
		Orders:           orders,
		Quintiles:        Quintiles{P20: 50, P40: 100, P60: 150, P80: 200},
		OrgAvgOrderValue: 25,
		Now:              testNow,
	})

	assert.Equal(t, 1, res.Orders30d)
	assert.Equal(t, 4, res.Orders30dPrev)
	assert.Equal(t, TrendRuecklaeufig, res.FrequencyTrend)
	assert.Equal(t, TrendRuecklaeufig, res.SpendTrend)

	// recency 5 + frequency drop capped at 35 + spend drop capped at 25
	assert.Equal(t, 65, res.ChurnRiskScore)
	assert.Nil(t, res.WinBackScore)
}

func TestCompute_WinBack_LapsedCustomer(t *testing.T) {
	res := Compute(Input{
		CustomerID:   "cust-1",
		TenantID:     "tenant-1",
		RegisteredAt: daysAgo(400),
		Orders: []OrderFact{
			order(daysAgo(210), 500),
			order(daysAgo(200), 500),
		},
		Quintiles:        Quintiles{P20: 50, P40: 100, P60: 150, P80: 200},
		OrgAvgOrderValue: 100,
		Now:              testNow,
	})

	assert.Equal(t, StatusAbgewandert, res.ActivityStatus)
	require.NotNil(t, res.WinBackScore)
	// 50 (ltv cap) + 30 (ordered within a year) + 10 (SILBER)
	assert.Equal(t, 90, *res.WinBackScore)
}

func TestCompute_NewCustomerSegment(t *testing.T) {
	res := Compute(Input{
		CustomerID:       "cust-1",
		TenantID:         "tenant-1",
		RegisteredAt:     daysAgo(15),
		Orders:           []OrderFact{order(daysAgo(10), 30)},
		Quintiles:        Quintiles{P20: 50, P40: 100, P60: 150, P80: 200},
		OrgAvgOrderValue: 30,
		Now:              testNow,
	})

	assert.Equal(t, SegmentNewCustomer, res.RFMSegment)
}

func TestCompute_ConsistencyRequiresThreeOrders(t *testing.T) {
	res := Compute(Input{
		CustomerID:   "cust-1",
		TenantID:     "tenant-1",
		RegisteredAt: daysAgo(100),
		Orders: []OrderFact{
			order(daysAgo(20), 10),
			order(daysAgo(10), 10),
		},
		Quintiles:        Quintiles{P20: 5, P40: 10, P60: 15, P80: 20},
		OrgAvgOrderValue: 10,
		Now:              testNow,
	})
	assert.Nil(t, res.OrderConsistencyScore)
}

func TestCompute_ConsistencyPerfectlyRegular(t *testing.T) {
	res := Compute(Input{
		CustomerID:   "cust-1",
		TenantID:     "tenant-1",
		RegisteredAt: daysAgo(100),
		Orders: []OrderFact{
			order(daysAgo(28), 10),
			order(daysAgo(21), 10),
			order(daysAgo(14), 10),
			order(daysAgo(7), 10),
		},
		Quintiles:        Quintiles{P20: 5, P40: 10, P60: 15, P80: 20},
		OrgAvgOrderValue: 10,
		Now:              testNow,
	})
	require.NotNil(t, res.OrderConsistencyScore)
	assert.Equal(t, 100, *res.OrderConsistencyScore)
}

func TestCompute_DiversityScore(t *testing.T) {
	o1 := order(daysAgo(10), 10)
	o1.ProductNames = []string{"Schnitzel", "Salat"}
	o2 := order(daysAgo(5), 10)
	o2.ProductNames = []string{"Schnitzel", ""}

	res := Compute(Input{
		CustomerID:       "cust-1",
		TenantID:         "tenant-1",
		RegisteredAt:     daysAgo(100),
		Orders:           []OrderFact{o1, o2},
		Quintiles:        Quintiles{P20: 5, P40: 10, P60: 15, P80: 20},
		OrgAvgOrderValue: 10,
		Now:              testNow,
	})

	// 2 distinct names over 3 counted occurrences, the empty entry skipped
	assert.Equal(t, 67, res.OrderDiversityScore)
}

func TestCompute_DiversityScore_NoLineItems(t *testing.T) {
	res := Compute(Input{
		CustomerID:       "cust-1",
		TenantID:         "tenant-1",
		RegisteredAt:     daysAgo(100),
		Orders:           []OrderFact{order(daysAgo(10), 10)},
		Quintiles:        Quintiles{P20: 5, P40: 10, P60: 15, P80: 20},
		OrgAvgOrderValue: 10,
		Now:              testNow,
	})
	assert.Zero(t, res.OrderDiversityScore)
}

func TestCompute_AvgLeadTime(t *testing.T) {
	o1 := order(daysAgo(10), 10)
	o1.PickupDate = o1.CreatedAt.Add(2 * time.Hour)
	o2 := order(daysAgo(5), 10)
	o2.PickupDate = o2.CreatedAt.Add(3 * time.Hour)
	o3 := order(daysAgo(2), 10)
	o3.PickupDate = o3.CreatedAt.Add(-1 * time.Hour) // malformed, skipped

	res := Compute(Input{
		CustomerID:       "cust-1",
		TenantID:         "tenant-1",
		RegisteredAt:     daysAgo(100),
		Orders:           []OrderFact{o1, o2, o3},
		Quintiles:        Quintiles{P20: 5, P40: 10, P60: 15, P80: 20},
		OrgAvgOrderValue: 10,
		Now:              testNow,
	})

	require.NotNil(t, res.AvgLeadTimeHours)
	assert.Equal(t, 2.5, *res.AvgLeadTimeHours)

	// the malformed order still counts everywhere else
	assert.Equal(t, 3, res.TotalOrders)
}

func TestCompute_AvgLeadTime_NoValidSamples(t *testing.T) {
	res := Compute(Input{
		CustomerID:       "cust-1",
		TenantID:         "tenant-1",
		RegisteredAt:     daysAgo(100),
		Orders:           []OrderFact{order(daysAgo(10), 10)}, // zero pickup date
		Quintiles:        Quintiles{P20: 5, P40: 10, P60: 15, P80: 20},
		OrgAvgOrderValue: 10,
		Now:              testNow,
	})
	assert.Nil(t, res.AvgLeadTimeHours)
}

func TestCompute_PrimaryChannel_FirstSeenTieBreak(t *testing.T) {
	channels := []string{"WEB", "APP", "WEB", "APP"}
	orders := make([]OrderFact, 0, len(channels))
	for i, ch := range channels {
		o := order(daysAgo(20-i), 10)
		o.Channel = ch
		orders = append(orders, o)
	}

	res := Compute(Input{
		CustomerID:       "cust-1",
		TenantID:         "tenant-1",
		RegisteredAt:     daysAgo(100),
		Orders:           orders,
		Quintiles:        Quintiles{P20: 5, P40: 10, P60: 15, P80: 20},
		OrgAvgOrderValue: 10,
		Now:              testNow,
	})

	require.NotNil(t, res.PrimaryChannel)
	assert.Equal(t, "WEB", *res.PrimaryChannel)
	assert.Equal(t, 0.5, res.ChannelLoyaltyPct)
}

func TestCompute_EngagementRates(t *testing.T) {
	o1 := order(daysAgo(10), 10)
	o1.HasCoupon = true
	o2 := order(daysAgo(5), 10)
	o2.HasWallet = true
	o3 := order(daysAgo(2), 10)

	res := Compute(Input{
		CustomerID:       "cust-1",
		TenantID:         "tenant-1",
		RegisteredAt:     daysAgo(100),
		Orders:           []OrderFact{o1, o2, o3},
		Quintiles:        Quintiles{P20: 5, P40: 10, P60: 15, P80: 20},
		OrgAvgOrderValue: 10,
		Now:              testNow,
	})

	assert.Equal(t, 0.333, res.CouponUsageRate)
	assert.Equal(t, 0.333, res.WalletUsageRate)
}

func TestCompute_LunchRegularity_RequiresWeekOfHistory(t *testing.T) {
	res := Compute(Input{
		CustomerID:       "cust-1",
		TenantID:         "tenant-1",
		RegisteredAt:     daysAgo(3),
		Orders:           []OrderFact{order(daysAgo(2), 10)},
		Quintiles:        Quintiles{P20: 5, P40: 10, P60: 15, P80: 20},
		OrgAvgOrderValue: 10,
		Now:              testNow,
	})
	assert.Nil(t, res.LunchRegularity)
}

func TestCompute_LunchRegularity_DistinctWorkdays(t *testing.T) {
	// 2026-08-01 is a Saturday; Monday 2026-07-27 through Friday 2026-07-31
	// plus the preceding week give 10 workdays from the first order onward.
	first := time.Date(2026, 7, 20, 12, 0, 0, 0, time.UTC) // Monday
	orders := []OrderFact{
		order(first, 10),
		order(first.Add(24*time.Hour), 10),                 // Tuesday
		order(first.Add(24*time.Hour+4*time.Hour), 10),     // same Tuesday, one workday
		order(time.Date(2026, 7, 25, 12, 0, 0, 0, time.UTC), 10), // Saturday, skipped
	}

	res := Compute(Input{
		CustomerID:       "cust-1",
		TenantID:         "tenant-1",
		RegisteredAt:     daysAgo(60),
		Orders:           orders,
		Quintiles:        Quintiles{P20: 5, P40: 10, P60: 15, P80: 20},
		OrgAvgOrderValue: 10,
		Now:              testNow,
	})

	require.NotNil(t, res.LunchRegularity)
	// 2 distinct ordered workdays over 10 workdays in range
	assert.Equal(t, 0.2, *res.LunchRegularity)
}

func TestCompute_SortsUnorderedInput(t *testing.T) {
	orders := []OrderFact{
		order(daysAgo(5), 10),
		order(daysAgo(50), 10),
		order(daysAgo(20), 10),
	}
	res := Compute(Input{
		CustomerID:       "cust-1",
		TenantID:         "tenant-1",
		RegisteredAt:     daysAgo(100),
		Orders:           orders,
		Quintiles:        Quintiles{P20: 5, P40: 10, P60: 15, P80: 20},
		OrgAvgOrderValue: 10,
		Now:              testNow,
	})

	require.NotNil(t, res.FirstOrderAt)
	require.NotNil(t, res.LastOrderAt)
	assert.Equal(t, daysAgo(50), *res.FirstOrderAt)
	assert.Equal(t, daysAgo(5), *res.LastOrderAt)
	require.NotNil(t, res.DaysSinceLastOrder)
	assert.Equal(t, 5, *res.DaysSinceLastOrder)
}
