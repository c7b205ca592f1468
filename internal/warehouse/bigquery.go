package warehouse

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

// BigQueryClient runs statements as BigQuery query jobs.
type BigQueryClient struct {
	client   *bigquery.Client
	location string
	logger   *zap.Logger
}

// NewBigQueryClient creates a client for the given project. Credentials come
// from the environment (Application Default Credentials).
func NewBigQueryClient(ctx context.Context, projectID, location string, logger *zap.Logger) (*BigQueryClient, error) {
	if projectID == "" {
		return nil, errors.New("bigquery project id is required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	return &BigQueryClient{
		client:   client,
		location: location,
		logger:   logger,
	}, nil
}

// Query runs the statement and reads every row.
func (c *BigQueryClient) Query(ctx context.Context, sql string) (*Table, error) {
	q := c.client.Query(sql)
	if c.location != "" {
		q.Location = c.location
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, newQueryError(DriverBigQuery, sql, err)
	}

	table := &Table{Rows: make([][]any, 0, it.TotalRows)}
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, newQueryError(DriverBigQuery, sql, err)
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = normalizeBigQueryValue(v)
		}
		table.Rows = append(table.Rows, values)
	}
	table.Columns = bigQueryColumns(it.Schema)

	c.logger.Debug("bigquery query completed", zap.Int("rows", len(table.Rows)))
	return table, nil
}

// Close releases the underlying client.
func (c *BigQueryClient) Close() error {
	return c.client.Close()
}

func bigQueryColumns(schema bigquery.Schema) []Column {
	cols := make([]Column, len(schema))
	for i, f := range schema {
		cols[i] = Column{Name: f.Name, Type: bigQueryColumnType(f.Type)}
	}
	return cols
}

func bigQueryColumnType(t bigquery.FieldType) ColumnType {
	switch t {
	case bigquery.StringFieldType:
		return TypeString
	case bigquery.IntegerFieldType:
		return TypeInteger
	case bigquery.FloatFieldType, bigquery.NumericFieldType, bigquery.BigNumericFieldType:
		return TypeFloat
	case bigquery.BooleanFieldType:
		return TypeBoolean
	case bigquery.TimestampFieldType, bigquery.DateTimeFieldType:
		return TypeTimestamp
	case bigquery.DateFieldType:
		return TypeDate
	default:
		return TypeUnknown
	}
}

// normalizeBigQueryValue maps BigQuery's civil and numeric types onto the
// value set Table documents.
func normalizeBigQueryValue(v bigquery.Value) any {
	switch x := v.(type) {
	case civil.Date:
		return x.In(time.UTC)
	case civil.DateTime:
		return x.In(time.UTC)
	case civil.Time:
		return x.String()
	case *big.Rat:
		if x == nil {
			return nil
		}
		f, _ := x.Float64()
		return f
	case []byte:
		return string(x)
	default:
		return x
	}
}
