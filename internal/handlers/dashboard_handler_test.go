package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-dashboard/internal/events"
	"github.com/niaga-platform/service-dashboard/internal/queries"
	"github.com/niaga-platform/service-dashboard/internal/report"
	"github.com/niaga-platform/service-dashboard/internal/services"
	"github.com/niaga-platform/service-dashboard/internal/telemetry"
	"github.com/niaga-platform/service-dashboard/internal/view"
	"github.com/niaga-platform/service-dashboard/internal/warehouse/warehousetest"
)

type capturedPublish struct {
	subjects []string
	payloads [][]byte
}

func (c *capturedPublish) Publish(subject string, data []byte) error {
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

type testServer struct {
	router    *gin.Engine
	warehouse *warehousetest.Client
	published *capturedPublish
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	wh := warehousetest.New(warehousetest.Fixture())
	logger := zap.NewNop()
	metrics := telemetry.NewMetrics()
	runner := services.NewQueryService(wh, nil, services.QueryServiceConfig{}, metrics, logger)
	svc := services.NewDashboardService(runner, queries.NewBuilder(queries.DialectBigQuery, "clique_bait"), metrics, logger)

	pub := &capturedPublish{}
	h := NewDashboardHandler(svc, events.NewPublisher(pub, logger), nil, metrics, logger)

	r := gin.New()
	r.GET("/", h.GetPage)
	r.GET("/api/v1/dashboard", h.GetDashboard)
	r.GET("/api/v1/dashboard/filters", h.GetFilters)
	r.GET("/api/v1/dashboard/:tab", h.GetTab)
	r.GET("/api/v1/dashboard/:tab/export.csv", h.ExportCSV)
	r.GET("/api/v1/dashboard/:tab/export.xlsx", h.ExportXLSX)
	return &testServer{router: r, warehouse: wh, published: pub}
}

func (s *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestGetDashboard(t *testing.T) {
	s := newTestServer(t)
	w := s.get(t, "/api/v1/dashboard?campaign=BOGOF")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var d view.Dashboard
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(d.Tabs) != 3 || d.Filters.Selected.Campaign != "BOGOF" {
		t.Fatalf("unexpected dashboard %+v", d.Filters)
	}
}

func TestGetTab(t *testing.T) {
	s := newTestServer(t)
	w := s.get(t, "/api/v1/dashboard/product-funnel?product=Salmon")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var tv view.TabView
	if err := json.Unmarshal(w.Body.Bytes(), &tv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tv.ID != view.TabProductFunnel || tv.Table.Len() != 1 || tv.Table.Rows[0][0] != "Salmon" {
		t.Fatalf("selection not applied: %+v", tv.Table)
	}
	if tv.Exports[0].URL != "/api/v1/dashboard/product-funnel/export.csv?product=Salmon" {
		t.Fatalf("unexpected export link %s", tv.Exports[0].URL)
	}
}

func TestUnknownTab(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/api/v1/dashboard/nope", "/api/v1/dashboard/nope/export.csv"} {
		if w := s.get(t, target); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", target, w.Code)
		}
	}
}

func TestWarehouseFailureIs502(t *testing.T) {
	s := newTestServer(t)
	s.warehouse.SetError(errors.New("connection refused"))

	w := s.get(t, "/api/v1/dashboard/filters")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || !strings.Contains(body["error"], "connection refused") {
		t.Fatalf("unexpected error body %s", w.Body.String())
	}
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	w := s.get(t, "/api/v1/dashboard/campaign-performance/export.csv?campaign=BOGOF")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="campaign_performance.csv"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if got := w.Header().Get("Content-Type"); got != report.ContentTypeCSV {
		t.Fatalf("unexpected content type %q", got)
	}

	table, err := report.ReadCSV(w.Body)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected the two BOGOF visits, got %d rows", table.Len())
	}

	if len(s.published.subjects) != 1 || s.published.subjects[0] != events.SubjectExportCompleted {
		t.Fatalf("expected one export event, got %v", s.published.subjects)
	}
	var ev events.ExportCompletedEvent
	if err := json.Unmarshal(s.published.payloads[0], &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Rows != 2 || ev.Filters.Campaign != "BOGOF" || ev.Format != "csv" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestExportXLSX(t *testing.T) {
	s := newTestServer(t)
	w := s.get(t, "/api/v1/dashboard/checkout-conversion/export.xlsx")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(view.TabCheckout.Title())
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	// header plus the four fixture visits
	if len(rows) != 5 || rows[0][0] != "VISIT_ID" {
		t.Fatalf("unexpected sheet rows %v", rows)
	}
}

func TestGetPage(t *testing.T) {
	s := newTestServer(t)
	w := s.get(t, "/?product=Salmon&product=Lobster")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{view.PageTitle, "Product Funnel", `value="Salmon" selected`, "Download csv"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestBarWidth(t *testing.T) {
	a, b := 5.0, 10.0
	points := []view.Point{{Value: &a}, {Value: &b}, {Value: nil}}
	if got := barWidth(&a, points); got != 50 {
		t.Fatalf("got %v", got)
	}
	if got := barWidth(nil, points); got != 0 {
		t.Fatalf("got %v", got)
	}
}
