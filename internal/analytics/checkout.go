package analytics

import (
	"sort"

	"github.com/niaga-platform/service-dashboard/internal/models"
)

// CheckoutVisit is a visit with its checkout ratios. Unlike the product
// funnel, zero denominators yield 0 rather than nil.
type CheckoutVisit struct {
	models.VisitRow
	ViewToCart     float64 `json:"view_to_cart"`
	CartToPurchase float64 `json:"cart_to_purchase"`
	Abandoned      bool    `json:"abandoned"`
}

// CategoryAbandonment is a category row with its abandonment percentage,
// nil when the category has no cart adds.
type CategoryAbandonment struct {
	models.CategoryFunnelRow
	AbandonmentPct *float64 `json:"abandonment_pct"`
}

// CheckoutKPIs are the headline checkout numbers.
type CheckoutKPIs struct {
	AvgViewToCartPct     float64 `json:"avg_view_to_cart_pct"`
	AvgCartToPurchasePct float64 `json:"avg_cart_to_purchase_pct"`
	AbandonedVisits      int64   `json:"abandoned_visits"`
}

// CheckoutReport holds everything the checkout & conversion tab shows.
type CheckoutReport struct {
	KPIs CheckoutKPIs `json:"kpis"`
	// Categories keep warehouse order for the chart.
	Categories []CategoryAbandonment `json:"categories"`
	// CategoryDetails are sorted by abandonment_pct descending, nil last.
	CategoryDetails []CategoryAbandonment `json:"category_details"`
	Visits          []CheckoutVisit       `json:"-"`
}

// IsAbandoned reports a visit that added to cart without purchasing.
func IsAbandoned(v models.VisitRow) bool {
	return v.CartAdds > 0 && v.Purchase == 0
}

// DeriveCheckoutVisits computes per-visit ratios and flags, preserving order.
func DeriveCheckoutVisits(visits []models.VisitRow) []CheckoutVisit {
	out := make([]CheckoutVisit, len(visits))
	for i, v := range visits {
		out[i] = CheckoutVisit{
			VisitRow:       v,
			ViewToCart:     ratioOrZero(v.CartAdds, v.PageViews),
			CartToPurchase: ratioOrZero(v.Purchase, v.CartAdds),
			Abandoned:      IsAbandoned(v),
		}
	}
	return out
}

// DeriveCategoryAbandonment computes abandonment_pct, preserving order.
func DeriveCategoryAbandonment(rows []models.CategoryFunnelRow) []CategoryAbandonment {
	out := make([]CategoryAbandonment, len(rows))
	for i, r := range rows {
		out[i] = CategoryAbandonment{
			CategoryFunnelRow: r,
			AbandonmentPct:    percentOrNull(r.AbandonedCarts, r.TimesAddedToCart),
		}
	}
	return out
}

// BuildCheckoutReport derives the checkout tab from the full visit set and
// the category funnel.
func BuildCheckoutReport(visits []models.VisitRow, categories []models.CategoryFunnelRow) CheckoutReport {
	derived := DeriveCheckoutVisits(visits)

	var kpis CheckoutKPIs
	var sumViewToCart, sumCartToPurchase float64
	for _, v := range derived {
		sumViewToCart += v.ViewToCart
		sumCartToPurchase += v.CartToPurchase
		if v.Abandoned {
			kpis.AbandonedVisits++
		}
	}
	if n := len(derived); n > 0 {
		kpis.AvgViewToCartPct = sumViewToCart / float64(n) * 100
		kpis.AvgCartToPurchasePct = sumCartToPurchase / float64(n) * 100
	}

	cats := DeriveCategoryAbandonment(categories)
	sorted := make([]CategoryAbandonment, len(cats))
	copy(sorted, cats)
	sort.SliceStable(sorted, func(i, j int) bool {
		return greaterNullsLast(sorted[i].AbandonmentPct, sorted[j].AbandonmentPct)
	})

	return CheckoutReport{
		KPIs:            kpis,
		Categories:      cats,
		CategoryDetails: sorted,
		Visits:          derived,
	}
}
