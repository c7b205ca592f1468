// Package models holds the warehouse row types consumed by the dashboard.
package models

import (
	"time"

	"github.com/niaga-platform/service-dashboard/internal/warehouse"
)

// ProductFunnelRow mirrors PRODUCT_FUNNEL_SUMMARY
type ProductFunnelRow struct {
	ProductName     string `json:"product_name"`
	ProductCategory string `json:"product_category"`
	Views           int64  `json:"views"`
	AddedToCart     int64  `json:"added_to_cart"`
	AbandonedCarts  int64  `json:"abandoned_carts"`
}

// CampaignRow mirrors CAMPAIGN_IDENTIFIER
type CampaignRow struct {
	CampaignName string    `json:"campaign_name"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}

// VisitRow mirrors VISIT_SUMMARY
type VisitRow struct {
	VisitID        string    `json:"visit_id"`
	UserID         string    `json:"user_id"`
	VisitStartTime time.Time `json:"visit_start_time"`
	VisitDate      time.Time `json:"visit_date"`
	PageViews      int64     `json:"page_views"`
	CartAdds       int64     `json:"cart_adds"`
	Purchase       int64     `json:"purchase"`
	Impression     int64     `json:"impression"`
	Click          int64     `json:"click"`
}

// CategoryFunnelRow mirrors CATEGORY_FUNNEL_SUMMARY
type CategoryFunnelRow struct {
	ProductCategory  string `json:"product_category"`
	TimesViewed      int64  `json:"times_viewed"`
	TimesAddedToCart int64  `json:"times_added_to_cart"`
	AbandonedCarts   int64  `json:"abandoned_carts"`
	TimesPurchased   int64  `json:"times_purchased"`
}

// DecodeNames reads a single-column list of names, skipping NULLs.
func DecodeNames(t *warehouse.Table, column string) ([]string, error) {
	r, err := t.NewReader(column)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if r.IsNull(i, 0) {
			continue
		}
		names = append(names, r.String(i, 0))
	}
	return names, nil
}

// DecodeProductFunnel reads ProductFunnelRow values in result order.
func DecodeProductFunnel(t *warehouse.Table) ([]ProductFunnelRow, error) {
	r, err := t.NewReader("PRODUCT_NAME", "PRODUCT_CATEGORY", "VIEWS", "ADDED_TO_CART", "ABANDONED_CARTS")
	if err != nil {
		return nil, err
	}
	out := make([]ProductFunnelRow, t.Len())
	for i := range out {
		row := ProductFunnelRow{
			ProductName:     r.String(i, 0),
			ProductCategory: r.String(i, 1),
		}
		if row.Views, err = r.Int64(i, 2); err != nil {
			return nil, err
		}
		if row.AddedToCart, err = r.Int64(i, 3); err != nil {
			return nil, err
		}
		if row.AbandonedCarts, err = r.Int64(i, 4); err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// DecodeCampaigns reads CampaignRow values in result order.
func DecodeCampaigns(t *warehouse.Table) ([]CampaignRow, error) {
	r, err := t.NewReader("CAMPAIGN_NAME", "START_DATE", "END_DATE")
	if err != nil {
		return nil, err
	}
	out := make([]CampaignRow, t.Len())
	for i := range out {
		row := CampaignRow{CampaignName: r.String(i, 0)}
		if row.StartDate, err = r.Time(i, 1); err != nil {
			return nil, err
		}
		if row.EndDate, err = r.Time(i, 2); err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// DecodeVisits reads VisitRow values in result order.
func DecodeVisits(t *warehouse.Table) ([]VisitRow, error) {
	r, err := t.NewReader("VISIT_ID", "USER_ID", "VISIT_START_TIME", "VISIT_DATE",
		"PAGE_VIEWS", "CART_ADDS", "PURCHASE", "IMPRESSION", "CLICK")
	if err != nil {
		return nil, err
	}
	out := make([]VisitRow, t.Len())
	for i := range out {
		row := VisitRow{
			VisitID: r.String(i, 0),
			UserID:  r.String(i, 1),
		}
		if row.VisitStartTime, err = r.Time(i, 2); err != nil {
			return nil, err
		}
		if row.VisitDate, err = r.Time(i, 3); err != nil {
			return nil, err
		}
		ints := []*int64{&row.PageViews, &row.CartAdds, &row.Purchase, &row.Impression, &row.Click}
		for j, dst := range ints {
			if *dst, err = r.Int64(i, 4+j); err != nil {
				return nil, err
			}
		}
		out[i] = row
	}
	return out, nil
}

// DecodeCategoryFunnel reads CategoryFunnelRow values in result order.
func DecodeCategoryFunnel(t *warehouse.Table) ([]CategoryFunnelRow, error) {
	r, err := t.NewReader("PRODUCT_CATEGORY", "TIMES_VIEWED", "TIMES_ADDED_TO_CART", "ABANDONED_CARTS", "TIMES_PURCHASED")
	if err != nil {
		return nil, err
	}
	out := make([]CategoryFunnelRow, t.Len())
	for i := range out {
		row := CategoryFunnelRow{ProductCategory: r.String(i, 0)}
		ints := []*int64{&row.TimesViewed, &row.TimesAddedToCart, &row.AbandonedCarts, &row.TimesPurchased}
		for j, dst := range ints {
			if *dst, err = r.Int64(i, 1+j); err != nil {
				return nil, err
			}
		}
		out[i] = row
	}
	return out, nil
}
