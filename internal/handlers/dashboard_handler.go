package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-dashboard/internal/analytics"
	"github.com/niaga-platform/service-dashboard/internal/events"
	"github.com/niaga-platform/service-dashboard/internal/monitoring"
	"github.com/niaga-platform/service-dashboard/internal/report"
	"github.com/niaga-platform/service-dashboard/internal/services"
	"github.com/niaga-platform/service-dashboard/internal/telemetry"
	"github.com/niaga-platform/service-dashboard/internal/view"
	"github.com/niaga-platform/service-dashboard/internal/warehouse"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"barWidth": barWidth,
	"pointValue": func(v *float64) string {
		if v == nil {
			return view.NotAvailable
		}
		return strconv.FormatFloat(*v, 'f', 1, 64)
	},
	"selected": func(options []string, v string) bool {
		for _, o := range options {
			if o == v {
				return true
			}
		}
		return false
	},
}).ParseFS(templateFS, "templates/dashboard.html"))

// DashboardHandler serves the dashboard page, its JSON view model and the
// table exports.
type DashboardHandler struct {
	service   *services.DashboardService
	publisher *events.Publisher
	monitor   *monitoring.SentryMonitor
	metrics   *telemetry.Metrics
	logger    *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler. publisher, monitor and
// metrics may be nil.
func NewDashboardHandler(
	service *services.DashboardService,
	publisher *events.Publisher,
	monitor *monitoring.SentryMonitor,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		service:   service,
		publisher: publisher,
		monitor:   monitor,
		metrics:   metrics,
		logger:    logger,
	}
}

// renderState reads the sidebar selection and refresh flag from the query.
func renderState(c *gin.Context) services.RenderState {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	return services.RenderState{
		Selection: analytics.Selection{
			Products: c.QueryArray("product"),
			Campaign: c.Query("campaign"),
		}.Normalize(),
		Refresh: refresh,
	}
}

// fail logs err and answers 502; every error out of the service stems from
// the warehouse or from decoding its results.
func (h *DashboardHandler) fail(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.Error(err), zap.Bool("query_failed", errors.Is(err, warehouse.ErrQueryFailed)))
	h.monitor.CaptureError(c, err)
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

func tabParam(c *gin.Context) (view.Tab, bool) {
	tab, ok := view.ParseTab(c.Param("tab"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown tab: " + c.Param("tab")})
	}
	return tab, ok
}

// GetPage renders the dashboard HTML page
// GET /
func (h *DashboardHandler) GetPage(c *gin.Context) {
	d, err := h.service.Render(c.Request.Context(), renderState(c))
	if err != nil {
		h.fail(c, "Failed to render dashboard", err)
		return
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, d); err != nil {
		h.logger.Error("Failed to execute dashboard template", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render page"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// GetDashboard returns the full view model
// GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	d, err := h.service.Render(c.Request.Context(), renderState(c))
	if err != nil {
		h.fail(c, "Failed to render dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetFilters returns the selectable products and campaigns
// GET /api/v1/dashboard/filters
func (h *DashboardHandler) GetFilters(c *gin.Context) {
	opts, err := h.service.FilterOptions(c.Request.Context(), renderState(c))
	if err != nil {
		h.fail(c, "Failed to load filter options", err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

// GetTab returns one rendered tab
// GET /api/v1/dashboard/:tab
func (h *DashboardHandler) GetTab(c *gin.Context) {
	tab, ok := tabParam(c)
	if !ok {
		return
	}

	tv, err := h.service.RenderTab(c.Request.Context(), tab, renderState(c))
	if err != nil {
		h.fail(c, "Failed to render tab", err)
		return
	}
	c.JSON(http.StatusOK, tv)
}

// ExportCSV downloads the tab's table as CSV
// GET /api/v1/dashboard/:tab/export.csv
func (h *DashboardHandler) ExportCSV(c *gin.Context) {
	h.export(c, "csv", report.ContentTypeCSV, func(buf *bytes.Buffer, tab view.Tab, t report.Table) error {
		return report.WriteCSV(buf, t)
	})
}

// ExportXLSX downloads the tab's table as an Excel workbook
// GET /api/v1/dashboard/:tab/export.xlsx
func (h *DashboardHandler) ExportXLSX(c *gin.Context) {
	h.export(c, "xlsx", report.ContentTypeXLSX, func(buf *bytes.Buffer, tab view.Tab, t report.Table) error {
		return report.WriteXLSX(buf, tab.Title(), t)
	})
}

func (h *DashboardHandler) export(
	c *gin.Context,
	format, contentType string,
	write func(*bytes.Buffer, view.Tab, report.Table) error,
) {
	tab, ok := tabParam(c)
	if !ok {
		return
	}

	state := renderState(c)
	table, err := h.service.ExportTable(c.Request.Context(), tab, state)
	if err != nil {
		h.fail(c, "Failed to build export", err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, tab, table); err != nil {
		h.logger.Error("Failed to encode export", zap.String("format", format), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode export"})
		return
	}

	filename := tab.Filename(format)
	h.metrics.Export(string(tab), format)
	if err := h.publisher.PublishExportCompleted(&events.ExportCompletedEvent{
		Tab:      string(tab),
		Format:   format,
		Filename: filename,
		Rows:     table.Len(),
		Filters: events.ExportFilters{
			Products: state.Selection.Products,
			Campaign: state.Selection.Campaign,
		},
	}); err != nil {
		h.logger.Warn("Failed to publish export event", zap.String("tab", string(tab)), zap.Error(err))
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// barWidth scales a chart value to a percentage of the series maximum.
func barWidth(v *float64, points []view.Point) float64 {
	if v == nil {
		return 0
	}
	var maxV float64
	for _, p := range points {
		if p.Value != nil && *p.Value > maxV {
			maxV = *p.Value
		}
	}
	if maxV <= 0 {
		return 0
	}
	return *v / maxV * 100
}
