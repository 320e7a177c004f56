// api/store/analytics_store.go
package store

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"viewcounter/api/database"
	"viewcounter/api/models"
	"viewcounter/api/utils"
)

// chConn is the part of clickhouse.Conn the store uses.
type chConn interface {
	QueryRow(ctx context.Context, query string, args ...any) driver.Row
	Exec(ctx context.Context, query string, args ...any) error
	Close() error
}

// AnalyticsStore is the ClickHouse Backend.
type AnalyticsStore struct {
	conn   chConn
	closer func() error
}

func NewAnalyticsStore(chClient *database.ClickHouseClient) *AnalyticsStore {
	return &AnalyticsStore{
		conn:   chClient.Conn,
		closer: chClient.Close,
	}
}

func (s *AnalyticsStore) Query(ctx context.Context, q models.CountQuery, tr utils.TimeRange) (*models.QueryResult, error) {
	if err := checkDataset(q.Dataset); err != nil {
		return nil, err
	}

	where, args, err := whereClause(q.Filters, tr, func(int) string { return "?" })
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT count() FROM `%s` %s", q.Dataset, where)

	var count uint64
	if err := s.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to query view count: %w", err)
	}

	return models.CountResult(count), nil
}

func (s *AnalyticsStore) Ingest(ctx context.Context, dataset string, event models.ViewEvent) error {
	if err := checkDataset(dataset); err != nil {
		return err
	}

	metadata, err := event.MetadataJSON()
	if err != nil {
		return fmt.Errorf("failed to encode view metadata: %w", err)
	}

	rec := stamp(event)
	query := fmt.Sprintf("INSERT INTO `%s` (event_id, event_type, id, timestamp, metadata) VALUES (?, ?, ?, ?, ?)", dataset)
	if err := s.conn.Exec(ctx, query, rec.EventID, rec.EventType, rec.ID, rec.Timestamp, metadata); err != nil {
		return fmt.Errorf("failed to insert view event: %w", err)
	}
	return nil
}

func (s *AnalyticsStore) EnsureSchema(ctx context.Context, dataset string) error {
	if err := checkDataset(dataset); err != nil {
		return err
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
		"event_id String, "+
		"event_type LowCardinality(String), "+
		"id String, "+
		"timestamp DateTime64(3, 'UTC'), "+
		"metadata String"+
		") ENGINE = MergeTree ORDER BY (event_type, id, timestamp)", dataset)
	if err := s.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create dataset %s: %w", dataset, err)
	}
	return nil
}

func (s *AnalyticsStore) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return s.conn.Close()
}
