// Package queries holds the SQL text for the dashboard's warehouse sources.
package queries

import (
	"fmt"
	"strings"
)

// Warehouse sources.
const (
	TableProductFunnel  = "PRODUCT_FUNNEL_SUMMARY"
	TableCampaigns      = "CAMPAIGN_IDENTIFIER"
	TableVisits         = "VISIT_SUMMARY"
	TableCategoryFunnel = "CATEGORY_FUNNEL_SUMMARY"
)

// Dialect controls identifier quoting.
type Dialect string

const (
	DialectBigQuery Dialect = "bigquery"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// Builder renders the dashboard statements against a dataset or schema.
// An empty Dataset leaves table names unqualified.
type Builder struct {
	Dialect Dialect
	Dataset string
}

// NewBuilder creates a statement builder.
func NewBuilder(dialect Dialect, dataset string) *Builder {
	return &Builder{Dialect: dialect, Dataset: strings.TrimSpace(dataset)}
}

// Table returns the qualified name of a source table. Postgres names are left
// unquoted so they fold to lower case like tables created without quotes.
func (b *Builder) Table(name string) string {
	qualified := name
	if b.Dataset != "" {
		qualified = b.Dataset + "." + name
	}
	switch b.Dialect {
	case DialectBigQuery:
		return "`" + qualified + "`"
	case DialectMySQL:
		return quoteParts(qualified, "`")
	case DialectPostgres:
		return qualified
	default:
		return quoteParts(qualified, `"`)
	}
}

func quoteParts(qualified, q string) string {
	parts := strings.Split(qualified, ".")
	for i, p := range parts {
		parts[i] = q + p + q
	}
	return strings.Join(parts, ".")
}

// ProductNames lists distinct non-null product names in ascending order.
func (b *Builder) ProductNames() string {
	return fmt.Sprintf(`
SELECT DISTINCT PRODUCT_NAME
FROM %s
WHERE PRODUCT_NAME IS NOT NULL
ORDER BY PRODUCT_NAME`, b.Table(TableProductFunnel))
}

// CampaignNames lists distinct non-null campaign names in ascending order.
func (b *Builder) CampaignNames() string {
	return fmt.Sprintf(`
SELECT DISTINCT CAMPAIGN_NAME
FROM %s
WHERE CAMPAIGN_NAME IS NOT NULL
ORDER BY CAMPAIGN_NAME`, b.Table(TableCampaigns))
}

// ProductFunnel reads the per-product funnel summary.
func (b *Builder) ProductFunnel() string {
	return fmt.Sprintf(`
SELECT PRODUCT_NAME, PRODUCT_CATEGORY, VIEWS, ADDED_TO_CART, ABANDONED_CARTS
FROM %s`, b.Table(TableProductFunnel))
}

// Campaigns reads every campaign with its active date range.
func (b *Builder) Campaigns() string {
	return fmt.Sprintf(`
SELECT CAMPAIGN_NAME, START_DATE, END_DATE
FROM %s`, b.Table(TableCampaigns))
}

// Visits reads the per-visit summary.
func (b *Builder) Visits() string {
	return fmt.Sprintf(`
SELECT VISIT_ID, USER_ID, VISIT_START_TIME, CAST(VISIT_START_TIME AS DATE) AS VISIT_DATE,
       PAGE_VIEWS, CART_ADDS, PURCHASE, IMPRESSION, CLICK
FROM %s`, b.Table(TableVisits))
}

// CategoryFunnel reads the per-category funnel summary.
func (b *Builder) CategoryFunnel() string {
	return fmt.Sprintf(`
SELECT PRODUCT_CATEGORY, TIMES_VIEWED, TIMES_ADDED_TO_CART, ABANDONED_CARTS, TIMES_PURCHASED
FROM %s
WHERE PRODUCT_CATEGORY IS NOT NULL`, b.Table(TableCategoryFunnel))
}
