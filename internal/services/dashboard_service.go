package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/niaga-platform/service-dashboard/internal/analytics"
	"github.com/niaga-platform/service-dashboard/internal/models"
	"github.com/niaga-platform/service-dashboard/internal/queries"
	"github.com/niaga-platform/service-dashboard/internal/report"
	"github.com/niaga-platform/service-dashboard/internal/telemetry"
	"github.com/niaga-platform/service-dashboard/internal/view"
	"github.com/niaga-platform/service-dashboard/internal/warehouse"
)

// QueryRunner executes statements through the query cache.
type QueryRunner interface {
	RunQuery(ctx context.Context, sql string) (*warehouse.Table, error)
	RunQueryFresh(ctx context.Context, sql string) (*warehouse.Table, error)
}

// RenderState is everything one render depends on.
type RenderState struct {
	Selection analytics.Selection
	Refresh   bool // bypass cached results
}

// DashboardService fetches warehouse data through the query runner and
// derives each tab.
type DashboardService struct {
	runner  QueryRunner
	queries *queries.Builder
	metrics *telemetry.Metrics
	logger  *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(runner QueryRunner, builder *queries.Builder, metrics *telemetry.Metrics, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		runner:  runner,
		queries: builder,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *DashboardService) query(ctx context.Context, state RenderState, sql string) (*warehouse.Table, error) {
	if state.Refresh {
		return s.runner.RunQueryFresh(ctx, sql)
	}
	return s.runner.RunQuery(ctx, sql)
}

// FilterOptions resolves the selectable products and campaigns.
func (s *DashboardService) FilterOptions(ctx context.Context, state RenderState) (analytics.FilterOptions, error) {
	productTable, err := s.query(ctx, state, s.queries.ProductNames())
	if err != nil {
		return analytics.FilterOptions{}, fmt.Errorf("failed to load products: %w", err)
	}
	products, err := models.DecodeNames(productTable, "PRODUCT_NAME")
	if err != nil {
		return analytics.FilterOptions{}, fmt.Errorf("failed to decode products: %w", err)
	}

	campaignTable, err := s.query(ctx, state, s.queries.CampaignNames())
	if err != nil {
		return analytics.FilterOptions{}, fmt.Errorf("failed to load campaigns: %w", err)
	}
	campaigns, err := models.DecodeNames(campaignTable, "CAMPAIGN_NAME")
	if err != nil {
		return analytics.FilterOptions{}, fmt.Errorf("failed to decode campaigns: %w", err)
	}

	return analytics.NewFilterOptions(products, campaigns), nil
}

// ProductFunnel derives the product funnel tab for the selected products.
func (s *DashboardService) ProductFunnel(ctx context.Context, state RenderState) (analytics.ProductFunnelReport, error) {
	table, err := s.query(ctx, state, s.queries.ProductFunnel())
	if err != nil {
		return analytics.ProductFunnelReport{}, fmt.Errorf("failed to load product funnel: %w", err)
	}
	rows, err := models.DecodeProductFunnel(table)
	if err != nil {
		return analytics.ProductFunnelReport{}, fmt.Errorf("failed to decode product funnel: %w", err)
	}
	rows = analytics.FilterProducts(rows, state.Selection.Products)
	return analytics.BuildProductFunnel(rows), nil
}

// CampaignPerformance derives the campaign tab for the selected campaign.
func (s *DashboardService) CampaignPerformance(ctx context.Context, state RenderState) (analytics.CampaignReport, error) {
	visits, err := s.visits(ctx, state)
	if err != nil {
		return analytics.CampaignReport{}, err
	}

	table, err := s.query(ctx, state, s.queries.Campaigns())
	if err != nil {
		return analytics.CampaignReport{}, fmt.Errorf("failed to load campaigns: %w", err)
	}
	campaigns, err := models.DecodeCampaigns(table)
	if err != nil {
		return analytics.CampaignReport{}, fmt.Errorf("failed to decode campaigns: %w", err)
	}

	joined := analytics.JoinCampaigns(visits, campaigns)
	joined = analytics.FilterCampaign(joined, state.Selection.Campaign)
	return analytics.BuildCampaignReport(joined), nil
}

// CheckoutConversion derives the checkout tab. Sidebar selections do not
// apply here.
func (s *DashboardService) CheckoutConversion(ctx context.Context, state RenderState) (analytics.CheckoutReport, error) {
	visits, err := s.visits(ctx, state)
	if err != nil {
		return analytics.CheckoutReport{}, err
	}

	table, err := s.query(ctx, state, s.queries.CategoryFunnel())
	if err != nil {
		return analytics.CheckoutReport{}, fmt.Errorf("failed to load category funnel: %w", err)
	}
	categories, err := models.DecodeCategoryFunnel(table)
	if err != nil {
		return analytics.CheckoutReport{}, fmt.Errorf("failed to decode category funnel: %w", err)
	}

	return analytics.BuildCheckoutReport(visits, categories), nil
}

func (s *DashboardService) visits(ctx context.Context, state RenderState) ([]models.VisitRow, error) {
	table, err := s.query(ctx, state, s.queries.Visits())
	if err != nil {
		return nil, fmt.Errorf("failed to load visits: %w", err)
	}
	visits, err := models.DecodeVisits(table)
	if err != nil {
		return nil, fmt.Errorf("failed to decode visits: %w", err)
	}
	return visits, nil
}

// Render builds the full dashboard. Any failing step aborts the render.
func (s *DashboardService) Render(ctx context.Context, state RenderState) (*view.Dashboard, error) {
	state.Selection = state.Selection.Normalize()

	options, err := s.FilterOptions(ctx, state)
	if err != nil {
		return nil, err
	}
	in := view.Input{Selection: state.Selection, Options: options}

	pf, err := s.ProductFunnel(ctx, state)
	s.metrics.Render(string(view.TabProductFunnel), err)
	if err != nil {
		return nil, err
	}
	in.ProductFunnel = &pf

	camp, err := s.CampaignPerformance(ctx, state)
	s.metrics.Render(string(view.TabCampaign), err)
	if err != nil {
		return nil, err
	}
	in.Campaign = &camp

	co, err := s.CheckoutConversion(ctx, state)
	s.metrics.Render(string(view.TabCheckout), err)
	if err != nil {
		return nil, err
	}
	in.Checkout = &co

	d := view.Render(in)
	s.logger.Debug("rendered dashboard",
		zap.Strings("products", state.Selection.Products),
		zap.String("campaign", state.Selection.Campaign),
		zap.Bool("refresh", state.Refresh),
	)
	return &d, nil
}

// RenderTab builds a single tab.
func (s *DashboardService) RenderTab(ctx context.Context, tab view.Tab, state RenderState) (*view.TabView, error) {
	state.Selection = state.Selection.Normalize()

	var tv view.TabView
	var err error
	switch tab {
	case view.TabProductFunnel:
		var r analytics.ProductFunnelReport
		if r, err = s.ProductFunnel(ctx, state); err == nil {
			tv = view.ProductFunnelView(r, state.Selection)
		}
	case view.TabCampaign:
		var r analytics.CampaignReport
		if r, err = s.CampaignPerformance(ctx, state); err == nil {
			tv = view.CampaignView(r, state.Selection)
		}
	case view.TabCheckout:
		var r analytics.CheckoutReport
		if r, err = s.CheckoutConversion(ctx, state); err == nil {
			tv = view.CheckoutView(r, state.Selection)
		}
	default:
		return nil, fmt.Errorf("unknown tab %q", tab)
	}
	s.metrics.Render(string(tab), err)
	if err != nil {
		return nil, err
	}
	return &tv, nil
}

// ExportTable returns the tab's full downloadable table for the selection.
func (s *DashboardService) ExportTable(ctx context.Context, tab view.Tab, state RenderState) (report.Table, error) {
	state.Selection = state.Selection.Normalize()

	switch tab {
	case view.TabProductFunnel:
		r, err := s.ProductFunnel(ctx, state)
		if err != nil {
			return report.Table{}, err
		}
		return view.ProductFunnelExport(r), nil
	case view.TabCampaign:
		r, err := s.CampaignPerformance(ctx, state)
		if err != nil {
			return report.Table{}, err
		}
		return view.CampaignExport(r), nil
	case view.TabCheckout:
		r, err := s.CheckoutConversion(ctx, state)
		if err != nil {
			return report.Table{}, err
		}
		return view.CheckoutExport(r), nil
	default:
		return report.Table{}, fmt.Errorf("unknown tab %q", tab)
	}
}
