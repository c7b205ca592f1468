package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLClient runs statements over a gorm connection to a SQL-speaking
// warehouse.
type SQLClient struct {
	db     *gorm.DB
	driver string
	logger *zap.Logger
}

// NewSQLClient opens a gorm connection for the postgres or mysql driver.
func NewSQLClient(driver, dsn string, logger *zap.Logger) (*SQLClient, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s warehouse: %w", driver, err)
	}

	return &SQLClient{db: db, driver: driver, logger: logger}, nil
}

// Query runs the statement and scans every row.
func (c *SQLClient) Query(ctx context.Context, query string) (*Table, error) {
	rows, err := c.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, newQueryError(c.driver, query, err)
	}
	defer rows.Close()

	table, err := scanTable(rows)
	if err != nil {
		return nil, newQueryError(c.driver, query, err)
	}

	c.logger.Debug("sql query completed", zap.String("driver", c.driver), zap.Int("rows", len(table.Rows)))
	return table, nil
}

// Close closes the connection pool.
func (c *SQLClient) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func scanTable(rows *sql.Rows) (*Table, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	table := &Table{Columns: make([]Column, len(colTypes))}
	for i, ct := range colTypes {
		table.Columns[i] = Column{Name: ct.Name(), Type: sqlColumnType(ct.DatabaseTypeName())}
	}

	for rows.Next() {
		values := make([]any, len(colTypes))
		ptrs := make([]any, len(colTypes))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		table.Rows = append(table.Rows, values)
	}
	return table, rows.Err()
}

func sqlColumnType(name string) ColumnType {
	name = strings.ToUpper(name)
	switch {
	case strings.Contains(name, "INT"):
		return TypeInteger
	case strings.Contains(name, "FLOAT"), strings.Contains(name, "DOUBLE"),
		strings.Contains(name, "NUMERIC"), strings.Contains(name, "DECIMAL"), name == "REAL":
		return TypeFloat
	case strings.Contains(name, "BOOL"):
		return TypeBoolean
	case strings.Contains(name, "TIMESTAMP"), strings.Contains(name, "DATETIME"):
		return TypeTimestamp
	case name == "DATE":
		return TypeDate
	case strings.Contains(name, "CHAR"), strings.Contains(name, "TEXT"), name == "UUID":
		return TypeString
	default:
		return TypeUnknown
	}
}
