// Package warehousetest provides an in-memory warehouse.Client with a small
// Clique Bait fixture for tests.
package warehousetest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/niaga-platform/service-dashboard/internal/warehouse"
)

// Client answers a statement with the first table whose source name appears
// in the SQL text.
type Client struct {
	mu     sync.Mutex
	tables map[string]*warehouse.Table
	err    error
	calls  atomic.Int64
}

// New returns a client serving the given tables keyed by source name.
func New(tables map[string]*warehouse.Table) *Client {
	return &Client{tables: tables}
}

// Query implements warehouse.Client.
func (c *Client) Query(ctx context.Context, sql string) (*warehouse.Table, error) {
	c.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	for name, t := range c.tables {
		if strings.Contains(sql, name) {
			return t, nil
		}
	}
	return &warehouse.Table{}, nil
}

// Close implements warehouse.Client.
func (c *Client) Close() error { return nil }

// SetError makes every subsequent query fail with err. Nil clears it.
func (c *Client) SetError(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// Calls returns the number of queries received.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

func day(d int) time.Time {
	return time.Date(2020, time.January, d, 0, 0, 0, 0, time.UTC)
}

// Fixture returns a small, fully consistent dataset:
//   - three products, one with no cart adds
//   - two campaigns, BOGOF on Jan 1-2 and Half Off on Jan 3-4
//   - four visits, one outside every campaign
//   - two categories, one with no cart adds
func Fixture() map[string]*warehouse.Table {
	return map[string]*warehouse.Table{
		"PRODUCT_FUNNEL_SUMMARY": {
			Columns: []warehouse.Column{
				{Name: "PRODUCT_NAME", Type: warehouse.TypeString},
				{Name: "PRODUCT_CATEGORY", Type: warehouse.TypeString},
				{Name: "VIEWS", Type: warehouse.TypeInteger},
				{Name: "ADDED_TO_CART", Type: warehouse.TypeInteger},
				{Name: "ABANDONED_CARTS", Type: warehouse.TypeInteger},
			},
			Rows: [][]any{
				{"Salmon", "Fish", int64(1000), int64(400), int64(100)},
				{"Lobster", "Shellfish", int64(500), int64(100), int64(50)},
				{"Caviar", "Luxury", int64(200), int64(0), int64(0)},
			},
		},
		"CAMPAIGN_IDENTIFIER": {
			Columns: []warehouse.Column{
				{Name: "CAMPAIGN_NAME", Type: warehouse.TypeString},
				{Name: "START_DATE", Type: warehouse.TypeTimestamp},
				{Name: "END_DATE", Type: warehouse.TypeTimestamp},
			},
			Rows: [][]any{
				{"BOGOF", day(1), day(2).Add(23 * time.Hour)},
				{"Half Off", day(3), day(4).Add(23 * time.Hour)},
			},
		},
		"VISIT_SUMMARY": {
			Columns: []warehouse.Column{
				{Name: "VISIT_ID", Type: warehouse.TypeString},
				{Name: "USER_ID", Type: warehouse.TypeString},
				{Name: "VISIT_START_TIME", Type: warehouse.TypeTimestamp},
				{Name: "VISIT_DATE", Type: warehouse.TypeDate},
				{Name: "PAGE_VIEWS", Type: warehouse.TypeInteger},
				{Name: "CART_ADDS", Type: warehouse.TypeInteger},
				{Name: "PURCHASE", Type: warehouse.TypeInteger},
				{Name: "IMPRESSION", Type: warehouse.TypeInteger},
				{Name: "CLICK", Type: warehouse.TypeInteger},
			},
			Rows: [][]any{
				{"v1", "u1", day(1).Add(10 * time.Hour), day(1), int64(4), int64(2), int64(1), int64(1), int64(1)},
				{"v2", "u2", day(2).Add(9 * time.Hour), day(2), int64(5), int64(1), int64(0), int64(0), int64(0)},
				{"v3", "u1", day(3).Add(8 * time.Hour), day(3), int64(2), int64(0), int64(0), int64(1), int64(0)},
				{"v4", "u3", day(9).Add(8 * time.Hour), day(9), int64(3), int64(1), int64(1), int64(0), int64(0)},
			},
		},
		"CATEGORY_FUNNEL_SUMMARY": {
			Columns: []warehouse.Column{
				{Name: "PRODUCT_CATEGORY", Type: warehouse.TypeString},
				{Name: "TIMES_VIEWED", Type: warehouse.TypeInteger},
				{Name: "TIMES_ADDED_TO_CART", Type: warehouse.TypeInteger},
				{Name: "ABANDONED_CARTS", Type: warehouse.TypeInteger},
				{Name: "TIMES_PURCHASED", Type: warehouse.TypeInteger},
			},
			Rows: [][]any{
				{"Fish", int64(900), int64(300), int64(60), int64(240)},
				{"Luxury", int64(100), int64(0), int64(0), int64(0)},
			},
		},
	}
}
