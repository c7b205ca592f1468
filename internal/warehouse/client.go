package warehouse

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Supported drivers.
const (
	DriverBigQuery = "bigquery"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Client executes a complete SQL statement and returns the full result set.
type Client interface {
	Query(ctx context.Context, sql string) (*Table, error)
	Close() error
}

// Config selects and configures a warehouse driver
type Config struct {
	Driver    string
	ProjectID string // bigquery
	Location  string // bigquery
	DSN       string // postgres, mysql
}

// Open connects to the configured warehouse.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Client, error) {
	switch cfg.Driver {
	case DriverBigQuery:
		return NewBigQueryClient(ctx, cfg.ProjectID, cfg.Location, logger)
	case DriverPostgres, DriverMySQL:
		return NewSQLClient(cfg.Driver, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}
