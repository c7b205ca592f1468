package analytics

import (
	"sort"
	"time"

	"github.com/niaga-platform/service-dashboard/internal/models"
)

// DetailDisplayLimit caps the campaign detail table on screen. Exports are
// not capped.
const DetailDisplayLimit = 500

// CampaignVisit is one visit joined to one campaign whose date range
// contains it.
type CampaignVisit struct {
	models.VisitRow
	CampaignName string `json:"campaign_name"`
}

// DailyCampaignAggregate summarizes joined rows for a single visit date.
type DailyCampaignAggregate struct {
	Date      time.Time `json:"date"`
	Visits    int64     `json:"visits"`
	Purchases int64     `json:"purchases"`
	PageViews int64     `json:"page_views"`
	CartAdds  int64     `json:"cart_adds"`
}

// CampaignKPIs are the headline campaign numbers.
type CampaignKPIs struct {
	Visits         int64   `json:"visits"`
	Purchases      int64   `json:"purchases"`
	PageViews      int64   `json:"page_views"`
	CartAdds       int64   `json:"cart_adds"`
	ConversionRate float64 `json:"conversion_rate"`
}

// CampaignReport holds everything the campaign performance tab shows.
type CampaignReport struct {
	KPIs  CampaignKPIs             `json:"kpis"`
	Daily []DailyCampaignAggregate `json:"daily"`
	// Details are every joined row by visit date ascending, uncapped.
	Details []CampaignVisit `json:"-"`
}

// DisplayDetails returns the first DetailDisplayLimit detail rows.
func (r CampaignReport) DisplayDetails() []CampaignVisit {
	return head(r.Details, DetailDisplayLimit)
}

// JoinCampaigns pairs each visit with every campaign whose inclusive
// [StartDate, EndDate] range contains the visit start time. A visit in no
// campaign produces no rows; a visit in overlapping campaigns produces one
// row per campaign. Output follows visit order, then campaign order.
func JoinCampaigns(visits []models.VisitRow, campaigns []models.CampaignRow) []CampaignVisit {
	out := make([]CampaignVisit, 0, len(visits))
	for _, v := range visits {
		for _, c := range campaigns {
			if v.VisitStartTime.Before(c.StartDate) || v.VisitStartTime.After(c.EndDate) {
				continue
			}
			out = append(out, CampaignVisit{VisitRow: v, CampaignName: c.CampaignName})
		}
	}
	return out
}

// BuildCampaignReport aggregates the (already filtered) joined rows.
func BuildCampaignReport(rows []CampaignVisit) CampaignReport {
	var kpis CampaignKPIs
	visitIDs := make(map[string]struct{})

	type day struct {
		agg    DailyCampaignAggregate
		visits map[string]struct{}
	}
	days := make(map[string]*day)

	for _, r := range rows {
		visitIDs[r.VisitID] = struct{}{}
		kpis.Purchases += r.Purchase
		kpis.PageViews += r.PageViews
		kpis.CartAdds += r.CartAdds

		key := dateKey(r.VisitDate)
		d, ok := days[key]
		if !ok {
			d = &day{
				agg:    DailyCampaignAggregate{Date: r.VisitDate},
				visits: make(map[string]struct{}),
			}
			days[key] = d
		}
		d.visits[r.VisitID] = struct{}{}
		d.agg.Purchases += r.Purchase
		d.agg.PageViews += r.PageViews
		d.agg.CartAdds += r.CartAdds
	}

	kpis.Visits = int64(len(visitIDs))
	if kpis.Visits != 0 {
		kpis.ConversionRate = float64(kpis.Purchases) / float64(kpis.Visits) * 100
	}

	daily := make([]DailyCampaignAggregate, 0, len(days))
	for _, d := range days {
		d.agg.Visits = int64(len(d.visits))
		daily = append(daily, d.agg)
	}
	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date.Before(daily[j].Date)
	})

	details := make([]CampaignVisit, len(rows))
	copy(details, rows)
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].VisitDate.Before(details[j].VisitDate)
	})

	return CampaignReport{KPIs: kpis, Daily: daily, Details: details}
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
