package metrics

import (
	"math"
	"sort"
	"strings"
	"time"
)

const day = 24 * time.Hour

// Compute derives the full behavioral profile for one customer from its
// order history and the tenant-wide reference stats. It is a pure function:
// the same Input (including Input.Now) always yields the same Result. Every
// zero-order and single-order case resolves to a defined default, so there
// is no error return.
func Compute(in Input) Result {
	orders := make([]OrderFact, len(in.Orders))
	copy(orders, in.Orders)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	now := in.Now
	total := len(orders)

	res := Result{
		CustomerID:   in.CustomerID,
		TenantID:     in.TenantID,
		TotalOrders:  total,
		CalculatedAt: now,
	}

	res.DaysSinceRegistration = daysBetween(in.RegisteredAt, now)

	var firstAt, lastAt time.Time
	if total > 0 {
		firstAt = orders[0].CreatedAt
		lastAt = orders[total-1].CreatedAt
		res.FirstOrderAt = &firstAt
		res.LastOrderAt = &lastAt
		d := daysBetween(lastAt, now)
		res.DaysSinceLastOrder = &d
	}

	res.ActivityStatus = activityStatus(total, res.DaysSinceRegistration, res.DaysSinceLastOrder)

	// Preferred weekday and time slot: mode with first-seen tie-break.
	weekdays := newCounter[time.Weekday]()
	slots := newCounter[string]()
	for _, o := range orders {
		weekdays.add(o.CreatedAt.Weekday())
		slots.add(timeSlot(o.CreatedAt.Hour()))
	}
	if wd, ok := weekdays.mode(); ok {
		name := strings.ToUpper(wd.String())
		res.PreferredWeekday = &name
	}
	if slot, ok := slots.mode(); ok {
		res.PreferredTimeSlot = &slot
	}

	// Value metrics.
	var ltv float64
	for _, o := range orders {
		ltv += o.Amount
	}
	avgOrderValue := 0.0
	if total > 0 {
		avgOrderValue = ltv / float64(total)
	}
	weeksSinceFirst := 1.0
	if total > 0 {
		weeksSinceFirst = math.Max(1, now.Sub(firstAt).Hours()/(24*7))
	}
	frequencyPerWeek := float64(total) / weeksSinceFirst

	// 30/60-day windows: [now-30d, now] and [now-60d, now-30d).
	cut30 := now.Add(-30 * day)
	cut60 := now.Add(-60 * day)
	for _, o := range orders {
		switch {
		case !o.CreatedAt.Before(cut30) && !o.CreatedAt.After(now):
			res.Orders30d++
			res.Spend30d += o.Amount
		case !o.CreatedAt.Before(cut60) && o.CreatedAt.Before(cut30):
			res.Orders30dPrev++
			res.Spend30dPrev += o.Amount
		}
	}

	res.CustomerTier = tierForLTV(ltv)

	res.RFMRecency = recencyScore(res.DaysSinceLastOrder)
	res.RFMFrequency = frequencyScore(frequencyPerWeek)
	res.RFMMonetary = monetaryScore(ltv, in.Quintiles)
	res.RFMSegment = rfmSegment(res.FirstOrderAt, now, res.RFMRecency, res.RFMFrequency, res.RFMMonetary)

	res.FrequencyTrend = trendDirection(float64(res.Orders30d), float64(res.Orders30dPrev))
	res.SpendTrend = trendDirection(res.Spend30d, res.Spend30dPrev)

	res.ChurnRiskScore = churnRiskScore(res, total)

	if res.ActivityStatus == StatusAbgewandert {
		wb := winBackScore(ltv, res.DaysSinceLastOrder, res.CustomerTier)
		res.WinBackScore = &wb
	}

	res.UpsellScore = upsellScore(avgOrderValue, in.OrgAvgOrderValue, frequencyPerWeek)

	if total >= 3 {
		cs := consistencyScore(orders)
		res.OrderConsistencyScore = &cs
	}

	res.OrderDiversityScore = diversityScore(orders)

	if res.DaysSinceRegistration >= 7 && total > 0 {
		if ratio, ok := lunchRegularity(orders, firstAt, now); ok {
			res.LunchRegularity = &ratio
		}
	}

	if lead, ok := avgLeadTimeHours(orders); ok {
		res.AvgLeadTimeHours = &lead
	}

	// Engagement rates and channel preference.
	if total > 0 {
		coupons, wallets := 0, 0
		for _, o := range orders {
			if o.HasCoupon {
				coupons++
			}
			if o.HasWallet {
				wallets++
			}
		}
		res.CouponUsageRate = round3(float64(coupons) / float64(total))
		res.WalletUsageRate = round3(float64(wallets) / float64(total))
	}
	channels := newCounter[string]()
	for _, o := range orders {
		if o.Channel != "" {
			channels.add(o.Channel)
		}
	}
	if primary, ok := channels.mode(); ok {
		res.PrimaryChannel = &primary
		same := 0
		for _, o := range orders {
			if o.Channel == primary {
				same++
			}
		}
		res.ChannelLoyaltyPct = round3(float64(same) / float64(total))
	}

	res.LTV = round2(ltv)
	res.AvgOrderValue = round2(avgOrderValue)
	res.Spend30d = round2(res.Spend30d)
	res.Spend30dPrev = round2(res.Spend30dPrev)
	res.OrderFrequencyPerWeek = round3(frequencyPerWeek)

	return res
}

// activityStatus classifies recency. The zero-order case starts as NEU and
// flips to ABGEWANDERT once the customer has been registered for more than
// 90 days without ever ordering.
func activityStatus(totalOrders, daysSinceRegistration int, daysSinceLastOrder *int) string {
	if totalOrders == 0 {
		if daysSinceRegistration > 90 {
			return StatusAbgewandert
		}
		return StatusNeu
	}
	switch d := *daysSinceLastOrder; {
	case d <= 30:
		return StatusAktiv
	case d <= 90:
		return StatusGelegentlich
	case d <= 180:
		return StatusSchlafend
	default:
		return StatusAbgewandert
	}
}

func timeSlot(hour int) string {
	switch {
	case hour < 10:
		return SlotFruehstueck
	case hour < 14:
		return SlotMittag
	case hour < 17:
		return SlotNachmittag
	default:
		return SlotAbend
	}
}

func tierForLTV(ltv float64) string {
	switch {
	case ltv >= 5000:
		return TierPlatin
	case ltv >= 1500:
		return TierGold
	case ltv >= 500:
		return TierSilber
	case ltv >= 100:
		return TierBronze
	default:
		return TierStandard
	}
}

func recencyScore(daysSinceLastOrder *int) int {
	if daysSinceLastOrder == nil {
		return 1
	}
	switch d := *daysSinceLastOrder; {
	case d <= 7:
		return 5
	case d <= 30:
		return 4
	case d <= 60:
		return 3
	case d <= 120:
		return 2
	default:
		return 1
	}
}

func frequencyScore(perWeek float64) int {
	switch {
	case perWeek >= 3:
		return 5
	case perWeek >= 1.5:
		return 4
	case perWeek >= 0.75:
		return 3
	case perWeek >= 0.25:
		return 2
	default:
		return 1
	}
}

func monetaryScore(ltv float64, q Quintiles) int {
	switch {
	case ltv >= q.P80:
		return 5
	case ltv >= q.P60:
		return 4
	case ltv >= q.P40:
		return 3
	case ltv >= q.P20:
		return 2
	default:
		return 1
	}
}

// rfmSegment maps the RFM triple to a named segment. Rules are evaluated
// top to bottom, first match wins.
func rfmSegment(firstOrderAt *time.Time, now time.Time, r, f, m int) string {
	if firstOrderAt != nil && !firstOrderAt.Before(now.Add(-30*day)) {
		return SegmentNewCustomer
	}
	switch {
	case r >= 4 && f >= 4 && m >= 4:
		return SegmentChampion
	case r >= 3 && f >= 3 && m >= 3:
		return SegmentLoyal
	case r >= 4 && f <= 2 && m <= 2:
		return SegmentPotential
	case r == 3 && f >= 3 && m >= 3:
		return SegmentNeedsAttention
	case r <= 2 && f >= 4 && m >= 4:
		return SegmentCantLose
	case r >= 2 && r <= 3 && f >= 3 && m >= 3:
		return SegmentAtRisk
	default:
		return SegmentHibernating
	}
}

// trendDirection compares a current 30-day figure against the previous
// 30-day window. Relative change beyond +/-25% counts as a trend.
func trendDirection(current, previous float64) string {
	change := (current - previous) / math.Max(1, previous)
	switch {
	case change > 0.25:
		return TrendWachsend
	case change < -0.25:
		return TrendRuecklaeufig
	default:
		return TrendStabil
	}
}

func churnRiskScore(res Result, totalOrders int) int {
	score := 0
	if totalOrders == 0 {
		if res.DaysSinceRegistration > 30 {
			score += 40
		} else {
			score += 10
		}
	} else {
		switch d := *res.DaysSinceLastOrder; {
		case d > 90:
			score += 40
		case d > 60:
			score += 30
		case d > 30:
			score += 15
		case d > 14:
			score += 5
		}
	}
	if res.FrequencyTrend == TrendRuecklaeufig {
		drop := dropRatio(float64(res.Orders30dPrev), float64(res.Orders30d))
		score += minInt(35, int(math.Round(drop*50)))
	}
	if res.SpendTrend == TrendRuecklaeufig {
		drop := dropRatio(res.Spend30dPrev, res.Spend30d)
		score += minInt(25, int(math.Round(drop*35)))
	}
	return clampInt(score, 0, 100)
}

func dropRatio(previous, current float64) float64 {
	return (previous - current) / math.Max(1, previous)
}

// winBackScore prioritizes lapsed customers for re-engagement. Only
// meaningful (and only emitted) for ABGEWANDERT customers.
func winBackScore(ltv float64, daysSinceLastOrder *int, tier string) int {
	score := math.Min(50, ltv/200*50)
	if daysSinceLastOrder != nil && *daysSinceLastOrder < 365 {
		score += 30
	} else {
		score += 15
	}
	score += float64(tierBonus(tier))
	return clampInt(int(math.Round(score)), 0, 100)
}

func tierBonus(tier string) int {
	switch tier {
	case TierPlatin:
		return 20
	case TierGold:
		return 15
	case TierSilber:
		return 10
	case TierBronze:
		return 5
	default:
		return 0
	}
}

func upsellScore(avgOrderValue, orgAvgOrderValue, frequencyPerWeek float64) int {
	aovGap := math.Max(0, 1-avgOrderValue/math.Max(0.01, orgAvgOrderValue))
	freqNorm := math.Min(1, frequencyPerWeek/3)
	return clampInt(int(math.Round((aovGap*0.6+freqNorm*0.4)*100)), 0, 100)
}

// consistencyScore measures how regular the gaps between consecutive orders
// are. Requires the orders to be sorted ascending and len >= 3.
func consistencyScore(orders []OrderFact) int {
	intervals := make([]float64, 0, len(orders)-1)
	for i := 1; i < len(orders); i++ {
		intervals = append(intervals, orders[i].CreatedAt.Sub(orders[i-1].CreatedAt).Hours()/24)
	}
	mean := 0.0
	for _, v := range intervals {
		mean += v
	}
	mean /= float64(len(intervals))
	variance := 0.0
	for _, v := range intervals {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(intervals))
	stddev := math.Sqrt(variance)
	return clampInt(int(math.Round(100-stddev/math.Max(1, mean*2)*100)), 0, 100)
}

// diversityScore is the ratio of distinct product names to total line-item
// occurrences, scaled to 0-100. Empty names are skipped, not counted.
func diversityScore(orders []OrderFact) int {
	distinct := map[string]struct{}{}
	occurrences := 0
	for _, o := range orders {
		for _, name := range o.ProductNames {
			if name == "" {
				continue
			}
			occurrences++
			distinct[name] = struct{}{}
		}
	}
	if occurrences == 0 {
		return 0
	}
	return int(math.Round(float64(len(distinct)) / float64(occurrences) * 100))
}

// lunchRegularity is the share of workdays (Mon-Fri) between the first
// order and now on which the customer placed at least one order.
func lunchRegularity(orders []OrderFact, firstOrderAt, now time.Time) (float64, bool) {
	totalWorkdays := 0
	for d := startOfDayUTC(firstOrderAt); !d.After(startOfDayUTC(now)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			totalWorkdays++
		}
	}
	if totalWorkdays == 0 {
		return 0, false
	}
	orderedDates := map[string]struct{}{}
	for _, o := range orders {
		created := o.CreatedAt.UTC()
		if wd := created.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		orderedDates[created.Format("2006-01-02")] = struct{}{}
	}
	return round3(float64(len(orderedDates)) / float64(totalWorkdays)), true
}

// avgLeadTimeHours averages createdAt->pickup spans. Orders whose pickup
// predates their creation (including the zero-value "no pickup" case) are
// skipped but still count toward every other metric.
func avgLeadTimeHours(orders []OrderFact) (float64, bool) {
	sum, samples := 0.0, 0
	for _, o := range orders {
		if o.PickupDate.Before(o.CreatedAt) {
			continue
		}
		sum += o.PickupDate.Sub(o.CreatedAt).Hours()
		samples++
	}
	if samples == 0 {
		return 0, false
	}
	return round1(sum / float64(samples)), true
}

// counter tallies values preserving first-seen order, so mode() resolves
// ties deterministically to the value encountered first.
type counter[T comparable] struct {
	order  []T
	counts map[T]int
}

func newCounter[T comparable]() *counter[T] {
	return &counter[T]{counts: map[T]int{}}
}

func (c *counter[T]) add(v T) {
	if _, seen := c.counts[v]; !seen {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

func (c *counter[T]) mode() (T, bool) {
	var best T
	bestCount := 0
	for _, v := range c.order {
		if n := c.counts[v]; n > bestCount {
			best, bestCount = v, n
		}
	}
	return best, bestCount > 0
}

func daysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
