package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/canteenhq/customer-insights/internal/audience"
	"github.com/canteenhq/customer-insights/internal/aws"
	"github.com/canteenhq/customer-insights/internal/metrics"
	"github.com/canteenhq/customer-insights/internal/validation"
)

// HandlerConfig groups dependencies for the insights routes. A nil
// CloudWatch client disables metric emission.
type HandlerConfig struct {
	CloudWatchClient aws.CloudWatchAPI
	MetricNamespace  string
}

// RegisterInsightsRoutes registers the scoring and audience endpoints.
// Every endpoint is stateless: all inputs arrive in the request body and
// nothing is persisted, so repeated calls with the same body (and an
// explicit "now") return identical results.
func RegisterInsightsRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	emitter := aws.NewEmitter(cfg.CloudWatchClient, cfg.MetricNamespace)

	r.POST("/v1/metrics/quintiles", func(c *gin.Context) {
		var req validation.QuintilesRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"run_id":    uuid.NewString(),
			"quintiles": metrics.LTVQuintiles(req.Values),
			"samples":   len(req.Values),
		})
	})

	r.POST("/v1/metrics/compute", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.ComputeMetricsRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		// The engine requires an explicit "now"; wall clock only enters
		// here, at the boundary.
		now := time.Now().UTC()
		if req.Now != nil {
			now = req.Now.UTC()
		}

		result := metrics.Compute(metrics.Input{
			CustomerID:   req.CustomerID,
			TenantID:     req.TenantID,
			RegisteredAt: req.RegisteredAt,
			Orders:       toOrderFacts(req.Orders),
			Quintiles: metrics.Quintiles{
				P20: req.Quintiles.P20,
				P40: req.Quintiles.P40,
				P60: req.Quintiles.P60,
				P80: req.Quintiles.P80,
			},
			OrgAvgOrderValue: req.OrgAvgOrderValue,
			Now:              now,
		})

		if err := emitter.EmitCount(ctx, "CustomersScored", 1, map[string]string{"tenant_id": req.TenantID}); err != nil {
			log.Printf("metric emit failed: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"run_id": uuid.NewString(),
			"result": result,
		})
	})

	r.POST("/v1/audiences/evaluate", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.EvaluateAudienceRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		now := time.Now().UTC()
		if req.Now != nil {
			now = req.Now.UTC()
		}

		ids := audience.Evaluate(toCustomerData(req.Customers), toRules(req.Rules), audience.Combination(req.Combination), now)

		if err := emitter.EmitCount(ctx, "AudienceSize", float64(len(ids)), nil); err != nil {
			log.Printf("metric emit failed: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"run_id":        uuid.NewString(),
			"customer_ids":  ids,
			"audience_size": len(ids),
		})
	})

	r.POST("/v1/audiences/preview", func(c *gin.Context) {
		var req validation.PreviewAudienceRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		now := time.Now().UTC()
		if req.Now != nil {
			now = req.Now.UTC()
		}

		rules := toRules(req.Rules)
		matches := audience.EvaluateWithRuleMatch(toCustomerData(req.Customers), rules, audience.Combination(req.Combination), now, req.Limit)

		labels := make([]string, len(rules))
		for i, rule := range rules {
			labels[i] = rule.Label()
		}

		c.JSON(http.StatusOK, gin.H{
			"run_id":      uuid.NewString(),
			"matches":     matches,
			"rule_labels": labels,
		})
	})
}

func toOrderFacts(in []validation.OrderFact) []metrics.OrderFact {
	out := make([]metrics.OrderFact, 0, len(in))
	for _, o := range in {
		fact := metrics.OrderFact{
			OrderID:   o.OrderID,
			CreatedAt: o.CreatedAt,
			Amount:    o.Amount,
			Channel:   o.Channel,
			HasCoupon: o.HasCoupon,
			HasWallet: o.HasWallet,
		}
		if o.PickupDate != nil {
			fact.PickupDate = *o.PickupDate
		}
		for _, name := range o.ProductNames {
			if name == nil {
				continue
			}
			fact.ProductNames = append(fact.ProductNames, *name)
		}
		out = append(out, fact)
	}
	return out
}

func toCustomerData(in []validation.AudienceCustomer) []audience.CustomerData {
	out := make([]audience.CustomerData, 0, len(in))
	for _, c := range in {
		out = append(out, audience.CustomerData{
			CustomerID:    c.CustomerID,
			OrderCount:    c.OrderCount,
			LastOrderDays: c.LastOrderDays,
			TotalSpend:    c.TotalSpend,
			LocationIDs:   c.LocationIDs,
			CompanyIDs:    c.CompanyIDs,
			RegisteredAt:  c.RegisteredAt,
			Role:          c.Role,
		})
	}
	return out
}

func toRules(in []validation.SegmentRule) []audience.Rule {
	out := make([]audience.Rule, 0, len(in))
	for _, r := range in {
		out = append(out, audience.Rule{
			Attribute: audience.Attribute(r.Attribute),
			Operator:  audience.Operator(r.Operator),
			Value:     r.Value,
		})
	}
	return out
}
