package analytics

import (
	"strings"

	"github.com/niaga-platform/service-dashboard/internal/models"
)

// AllCampaigns is the campaign selection that applies no restriction.
const AllCampaigns = "(All)"

// Selection is the sidebar state: zero or more products and one campaign.
type Selection struct {
	Products []string `json:"products"`
	Campaign string   `json:"campaign"`
}

// Normalize drops blank product names and resolves a blank campaign to
// AllCampaigns.
func (s Selection) Normalize() Selection {
	products := make([]string, 0, len(s.Products))
	for _, p := range s.Products {
		if strings.TrimSpace(p) != "" {
			products = append(products, p)
		}
	}
	campaign := s.Campaign
	if strings.TrimSpace(campaign) == "" {
		campaign = AllCampaigns
	}
	return Selection{Products: products, Campaign: campaign}
}

// FilterOptions lists the selectable sidebar values.
type FilterOptions struct {
	Products  []string `json:"products"`
	Campaigns []string `json:"campaigns"`
}

// NewFilterOptions builds the option lists. Campaigns are prefixed with
// AllCampaigns.
func NewFilterOptions(products, campaigns []string) FilterOptions {
	return FilterOptions{
		Products:  append([]string{}, products...),
		Campaigns: append([]string{AllCampaigns}, campaigns...),
	}
}

// FilterProducts keeps rows whose product name is selected. No selection keeps
// every row.
func FilterProducts(rows []models.ProductFunnelRow, selected []string) []models.ProductFunnelRow {
	if len(selected) == 0 {
		return rows
	}
	set := make(map[string]struct{}, len(selected))
	for _, p := range selected {
		set[p] = struct{}{}
	}
	out := make([]models.ProductFunnelRow, 0, len(rows))
	for _, r := range rows {
		if _, ok := set[r.ProductName]; ok {
			out = append(out, r)
		}
	}
	return out
}

// FilterCampaign keeps joined rows for the selected campaign. AllCampaigns
// keeps every row.
func FilterCampaign(rows []CampaignVisit, campaign string) []CampaignVisit {
	if campaign == AllCampaigns || campaign == "" {
		return rows
	}
	out := make([]CampaignVisit, 0, len(rows))
	for _, r := range rows {
		if r.CampaignName == campaign {
			out = append(out, r)
		}
	}
	return out
}
