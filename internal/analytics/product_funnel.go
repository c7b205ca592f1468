package analytics

import (
	"sort"

	"github.com/niaga-platform/service-dashboard/internal/models"
)

// ProductFunnelMetric is a product row with its derived funnel ratios. The
// ratios are nil when their denominator is zero.
type ProductFunnelMetric struct {
	models.ProductFunnelRow
	ViewToCartPct  *float64 `json:"view_to_cart_pct"`
	AbandonmentPct *float64 `json:"abandonment_pct"`
}

// ProductFunnelKPIs are the headline product funnel numbers.
type ProductFunnelKPIs struct {
	TotalViews     int64   `json:"total_views"`
	TotalAdds      int64   `json:"total_adds"`
	TotalAbandoned int64   `json:"total_abandoned"`
	ViewToCartPct  float64 `json:"view_to_cart_pct"`
	// AbandonmentRate is the mean of the per-product abandonment_pct values,
	// nil when no product has any cart adds.
	AbandonmentRate *float64 `json:"abandonment_rate"`
}

// ProductFunnelReport holds everything the product funnel tab shows.
type ProductFunnelReport struct {
	KPIs             ProductFunnelKPIs     `json:"kpis"`
	TopByAdds        []ProductFunnelMetric `json:"top_by_adds"`
	TopByAbandonment []ProductFunnelMetric `json:"top_by_abandonment"`
	Details          []ProductFunnelMetric `json:"details"`
}

// DeriveProductFunnel computes the per-row ratios, preserving row order.
func DeriveProductFunnel(rows []models.ProductFunnelRow) []ProductFunnelMetric {
	out := make([]ProductFunnelMetric, len(rows))
	for i, r := range rows {
		out[i] = ProductFunnelMetric{
			ProductFunnelRow: r,
			ViewToCartPct:    percentOrNull(r.AddedToCart, r.Views),
			AbandonmentPct:   percentOrNull(r.AbandonedCarts, r.AddedToCart),
		}
	}
	return out
}

// BuildProductFunnel derives metrics, KPIs and rankings for the given
// (already filtered) product rows.
func BuildProductFunnel(rows []models.ProductFunnelRow) ProductFunnelReport {
	metrics := DeriveProductFunnel(rows)

	var kpis ProductFunnelKPIs
	abandonment := make([]*float64, len(metrics))
	for i, m := range metrics {
		kpis.TotalViews += m.Views
		kpis.TotalAdds += m.AddedToCart
		kpis.TotalAbandoned += m.AbandonedCarts
		abandonment[i] = m.AbandonmentPct
	}
	if kpis.TotalViews != 0 {
		kpis.ViewToCartPct = float64(kpis.TotalAdds) / float64(kpis.TotalViews) * 100
	}
	kpis.AbandonmentRate = meanOfPresent(abandonment)

	byAdds := cloneMetrics(metrics)
	sort.SliceStable(byAdds, func(i, j int) bool {
		return byAdds[i].AddedToCart > byAdds[j].AddedToCart
	})

	byAbandonment := cloneMetrics(metrics)
	sort.SliceStable(byAbandonment, func(i, j int) bool {
		return greaterNullsLast(byAbandonment[i].AbandonmentPct, byAbandonment[j].AbandonmentPct)
	})

	details := cloneMetrics(metrics)
	sort.SliceStable(details, func(i, j int) bool {
		if details[i].AddedToCart != details[j].AddedToCart {
			return details[i].AddedToCart > details[j].AddedToCart
		}
		return details[i].Views > details[j].Views
	})

	return ProductFunnelReport{
		KPIs:             kpis,
		TopByAdds:        head(byAdds, TopN),
		TopByAbandonment: head(byAbandonment, TopN),
		Details:          details,
	}
}

func cloneMetrics(m []ProductFunnelMetric) []ProductFunnelMetric {
	out := make([]ProductFunnelMetric, len(m))
	copy(out, m)
	return out
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
