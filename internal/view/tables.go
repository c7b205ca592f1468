package view

import (
	"github.com/niaga-platform/service-dashboard/internal/analytics"
	"github.com/niaga-platform/service-dashboard/internal/report"
)

// Column sets for the detail tables and exports.
var (
	ProductFunnelColumns = []string{
		"PRODUCT_NAME", "PRODUCT_CATEGORY", "VIEWS", "ADDED_TO_CART", "ABANDONED_CARTS",
		"VIEW_TO_CART_%", "ABANDONMENT_%",
	}
	CampaignColumns = []string{
		"VISIT_ID", "USER_ID", "VISIT_DATE", "PAGE_VIEWS", "CART_ADDS", "PURCHASE", "CAMPAIGN_NAME",
	}
	CheckoutColumns = []string{
		"VISIT_ID", "USER_ID", "VISIT_DATE", "PAGE_VIEWS", "CART_ADDS", "PURCHASE", "IMPRESSION", "CLICK",
		"VIEW_TO_CART", "CART_TO_PURCHASE", "ABANDONED",
	}
	CategoryColumns = []string{
		"PRODUCT_CATEGORY", "TIMES_VIEWED", "TIMES_ADDED_TO_CART", "ABANDONED_CARTS", "TIMES_PURCHASED",
		"ABANDONMENT_%",
	}
)

// ProductFunnelTable renders product metrics in the given order.
func ProductFunnelTable(rows []analytics.ProductFunnelMetric) report.Table {
	out := report.Table{Columns: ProductFunnelColumns, Rows: make([][]string, len(rows))}
	for i, r := range rows {
		out.Rows[i] = []string{
			r.ProductName,
			r.ProductCategory,
			intCell(r.Views),
			intCell(r.AddedToCart),
			intCell(r.AbandonedCarts),
			nullableCell(r.ViewToCartPct),
			nullableCell(r.AbandonmentPct),
		}
	}
	return out
}

// CampaignTable renders joined campaign rows in the given order.
func CampaignTable(rows []analytics.CampaignVisit) report.Table {
	out := report.Table{Columns: CampaignColumns, Rows: make([][]string, len(rows))}
	for i, r := range rows {
		out.Rows[i] = []string{
			r.VisitID,
			r.UserID,
			dateCell(r.VisitDate),
			intCell(r.PageViews),
			intCell(r.CartAdds),
			intCell(r.Purchase),
			r.CampaignName,
		}
	}
	return out
}

// CheckoutTable renders visits with their checkout ratios.
func CheckoutTable(rows []analytics.CheckoutVisit) report.Table {
	out := report.Table{Columns: CheckoutColumns, Rows: make([][]string, len(rows))}
	for i, r := range rows {
		out.Rows[i] = []string{
			r.VisitID,
			r.UserID,
			dateCell(r.VisitDate),
			intCell(r.PageViews),
			intCell(r.CartAdds),
			intCell(r.Purchase),
			intCell(r.Impression),
			intCell(r.Click),
			floatCell(r.ViewToCart),
			floatCell(r.CartToPurchase),
			boolCell(r.Abandoned),
		}
	}
	return out
}

// CategoryTable renders category abandonment rows in the given order.
func CategoryTable(rows []analytics.CategoryAbandonment) report.Table {
	out := report.Table{Columns: CategoryColumns, Rows: make([][]string, len(rows))}
	for i, r := range rows {
		out.Rows[i] = []string{
			r.ProductCategory,
			intCell(r.TimesViewed),
			intCell(r.TimesAddedToCart),
			intCell(r.AbandonedCarts),
			intCell(r.TimesPurchased),
			nullableCell(r.AbandonmentPct),
		}
	}
	return out
}
