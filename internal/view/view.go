// Package view turns derived dashboard metrics into a render-ready view
// model. Render is pure: the same input always yields the same model.
package view

import (
	"net/url"

	"github.com/niaga-platform/service-dashboard/internal/analytics"
	"github.com/niaga-platform/service-dashboard/internal/report"
)

// Page copy.
const (
	PageTitle   = "Clique Bait Analytics Dashboard"
	PageCaption = "Product funnel, campaign and checkout analytics"
)

// Tab identifies one dashboard tab.
type Tab string

const (
	TabProductFunnel Tab = "product-funnel"
	TabCampaign      Tab = "campaign-performance"
	TabCheckout      Tab = "checkout-conversion"
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabProductFunnel, TabCampaign, TabCheckout}

// ParseTab resolves a tab identifier.
func ParseTab(s string) (Tab, bool) {
	for _, t := range Tabs {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Title returns the tab heading.
func (t Tab) Title() string {
	switch t {
	case TabProductFunnel:
		return "Product Funnel"
	case TabCampaign:
		return "Campaign Performance"
	case TabCheckout:
		return "Checkout & Conversion"
	default:
		return string(t)
	}
}

// BaseName is the export filename without extension.
func (t Tab) BaseName() string {
	switch t {
	case TabProductFunnel:
		return "product_funnel"
	case TabCampaign:
		return "campaign_performance"
	case TabCheckout:
		return "checkout_conversion"
	default:
		return string(t)
	}
}

// Filename returns the export filename for a format ("csv" or "xlsx").
func (t Tab) Filename(format string) string {
	return t.BaseName() + "." + format
}

// KPI is one headline tile.
type KPI struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ChartKind selects how a series is drawn.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
)

// Point is one chart datum. Value is nil for an undefined metric.
type Point struct {
	Label string   `json:"label"`
	Value *float64 `json:"value"`
}

// Chart is a single-series chart.
type Chart struct {
	Title  string    `json:"title"`
	Kind   ChartKind `json:"kind"`
	XLabel string    `json:"x_label"`
	YLabel string    `json:"y_label"`
	Points []Point   `json:"points"`
}

// TableView is a detail table as displayed. TotalRows counts the rows before
// any display cap.
type TableView struct {
	Title     string `json:"title"`
	report.Table
	TotalRows int  `json:"total_rows"`
	Truncated bool `json:"truncated"`
}

// ExportLink points at one download of the tab's table.
type ExportLink struct {
	Format   string `json:"format"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// TabView is one rendered tab.
type TabView struct {
	ID      Tab          `json:"id"`
	Title   string       `json:"title"`
	KPIs    []KPI        `json:"kpis"`
	Charts  []Chart      `json:"charts"`
	Table   TableView    `json:"table"`
	Extra   []TableView  `json:"extra_tables,omitempty"`
	Exports []ExportLink `json:"exports"`
}

// FilterPanel is the sidebar: the options and the current selection.
type FilterPanel struct {
	Options  analytics.FilterOptions `json:"options"`
	Selected analytics.Selection     `json:"selected"`
}

// Dashboard is the full page model.
type Dashboard struct {
	Title   string      `json:"title"`
	Caption string      `json:"caption"`
	Filters FilterPanel `json:"filters"`
	Tabs    []TabView   `json:"tabs"`
}

// Input carries everything Render needs. Nil reports are skipped.
type Input struct {
	Selection     analytics.Selection
	Options       analytics.FilterOptions
	ProductFunnel *analytics.ProductFunnelReport
	Campaign      *analytics.CampaignReport
	Checkout      *analytics.CheckoutReport
}

// Render builds the page model.
func Render(in Input) Dashboard {
	d := Dashboard{
		Title:   PageTitle,
		Caption: PageCaption,
		Filters: FilterPanel{Options: in.Options, Selected: in.Selection},
		Tabs:    []TabView{},
	}
	if in.ProductFunnel != nil {
		d.Tabs = append(d.Tabs, ProductFunnelView(*in.ProductFunnel, in.Selection))
	}
	if in.Campaign != nil {
		d.Tabs = append(d.Tabs, CampaignView(*in.Campaign, in.Selection))
	}
	if in.Checkout != nil {
		d.Tabs = append(d.Tabs, CheckoutView(*in.Checkout, in.Selection))
	}
	return d
}

// ProductFunnelView renders the product funnel tab.
func ProductFunnelView(r analytics.ProductFunnelReport, sel analytics.Selection) TabView {
	byAdds := make([]Point, len(r.TopByAdds))
	for i, m := range r.TopByAdds {
		byAdds[i] = Point{Label: m.ProductName, Value: floatPtr(float64(m.AddedToCart))}
	}
	byAbandonment := make([]Point, len(r.TopByAbandonment))
	for i, m := range r.TopByAbandonment {
		byAbandonment[i] = Point{Label: m.ProductName, Value: m.AbandonmentPct}
	}

	table := ProductFunnelExport(r)
	return TabView{
		ID:    TabProductFunnel,
		Title: "Product Funnel (Views → Adds → Abandonment Analysis)",
		KPIs: []KPI{
			{Label: "Total Views", Value: FormatCount(r.KPIs.TotalViews)},
			{Label: "Total Adds", Value: FormatCount(r.KPIs.TotalAdds)},
			{Label: "Total Abandoned", Value: FormatCount(r.KPIs.TotalAbandoned)},
			{Label: "View → Cart", Value: FormatPercent(r.KPIs.ViewToCartPct)},
			{Label: "Abandonment Rate", Value: FormatPercentOrNA(r.KPIs.AbandonmentRate)},
		},
		Charts: []Chart{
			{Title: "Top Products by Add-to-Cart", Kind: ChartBar, XLabel: "PRODUCT_NAME", YLabel: "ADDED_TO_CART", Points: byAdds},
			{Title: "Most Abandoned (by rate)", Kind: ChartBar, XLabel: "PRODUCT_NAME", YLabel: "ABANDONMENT_%", Points: byAbandonment},
		},
		Table:   TableView{Title: "Details", Table: table, TotalRows: table.Len()},
		Exports: exportLinks(TabProductFunnel, sel),
	}
}

// CampaignView renders the campaign performance tab.
func CampaignView(r analytics.CampaignReport, sel analytics.Selection) TabView {
	purchases := make([]Point, len(r.Daily))
	visits := make([]Point, len(r.Daily))
	for i, d := range r.Daily {
		label := dateCell(d.Date)
		purchases[i] = Point{Label: label, Value: floatPtr(float64(d.Purchases))}
		visits[i] = Point{Label: label, Value: floatPtr(float64(d.Visits))}
	}

	display := CampaignTable(r.DisplayDetails())
	return TabView{
		ID:    TabCampaign,
		Title: TabCampaign.Title(),
		KPIs: []KPI{
			{Label: "Visits", Value: FormatCount(r.KPIs.Visits)},
			{Label: "Purchases", Value: FormatCount(r.KPIs.Purchases)},
			{Label: "Conv. Rate", Value: FormatPercent(r.KPIs.ConversionRate)},
			{Label: "Page Views", Value: FormatCount(r.KPIs.PageViews)},
			{Label: "Cart Adds", Value: FormatCount(r.KPIs.CartAdds)},
		},
		Charts: []Chart{
			{Title: "Purchases over Time", Kind: ChartLine, XLabel: "VISIT_DATE", YLabel: "PURCHASES", Points: purchases},
			{Title: "Visits over Time", Kind: ChartLine, XLabel: "VISIT_DATE", YLabel: "VISITS", Points: visits},
		},
		Table: TableView{
			Title:     "Raw Visit Records",
			Table:     display,
			TotalRows: len(r.Details),
			Truncated: len(r.Details) > display.Len(),
		},
		Exports: exportLinks(TabCampaign, sel),
	}
}

// CheckoutView renders the checkout & conversion tab.
func CheckoutView(r analytics.CheckoutReport, sel analytics.Selection) TabView {
	byCategory := make([]Point, len(r.Categories))
	for i, c := range r.Categories {
		byCategory[i] = Point{Label: c.ProductCategory, Value: c.AbandonmentPct}
	}

	visits := CheckoutExport(r)
	categories := CategoryTable(r.CategoryDetails)
	return TabView{
		ID:    TabCheckout,
		Title: "Checkout & Conversion Analysis",
		KPIs: []KPI{
			{Label: "Avg View → Cart", Value: FormatPercent(r.KPIs.AvgViewToCartPct)},
			{Label: "Avg Cart → Purchase", Value: FormatPercent(r.KPIs.AvgCartToPurchasePct)},
			{Label: "Abandoned Visits", Value: FormatCount(r.KPIs.AbandonedVisits)},
		},
		Charts: []Chart{
			{Title: "Abandonment by Category", Kind: ChartBar, XLabel: "PRODUCT_CATEGORY", YLabel: "ABANDONMENT_%", Points: byCategory},
		},
		Table: TableView{Title: "Visit Checkout Details", Table: visits, TotalRows: visits.Len()},
		Extra: []TableView{
			{Title: "Category Details", Table: categories, TotalRows: categories.Len()},
		},
		Exports: exportLinks(TabCheckout, sel),
	}
}

// ProductFunnelExport is the product tab's downloadable table.
func ProductFunnelExport(r analytics.ProductFunnelReport) report.Table {
	return ProductFunnelTable(r.Details)
}

// CampaignExport is the campaign tab's downloadable table, uncapped.
func CampaignExport(r analytics.CampaignReport) report.Table {
	return CampaignTable(r.Details)
}

// CheckoutExport is the checkout tab's downloadable table.
func CheckoutExport(r analytics.CheckoutReport) report.Table {
	return CheckoutTable(r.Visits)
}

// SelectionQuery encodes a selection as request query parameters.
func SelectionQuery(sel analytics.Selection) url.Values {
	q := url.Values{}
	for _, p := range sel.Products {
		q.Add("product", p)
	}
	if sel.Campaign != "" && sel.Campaign != analytics.AllCampaigns {
		q.Set("campaign", sel.Campaign)
	}
	return q
}

func exportLinks(tab Tab, sel analytics.Selection) []ExportLink {
	query := SelectionQuery(sel).Encode()
	links := make([]ExportLink, 0, 2)
	for _, format := range []string{"csv", "xlsx"} {
		u := "/api/v1/dashboard/" + string(tab) + "/export." + format
		if query != "" {
			u += "?" + query
		}
		links = append(links, ExportLink{Format: format, Filename: tab.Filename(format), URL: u})
	}
	return links
}

func floatPtr(v float64) *float64 {
	return &v
}
