package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"viewcounter/api/models"
	"viewcounter/api/utils"
)

// PGStore is the PostgreSQL Backend. Metadata is kept as JSONB.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Query(ctx context.Context, q models.CountQuery, tr utils.TimeRange) (*models.QueryResult, error) {
	if err := checkDataset(q.Dataset); err != nil {
		return nil, err
	}

	where, args, err := whereClause(q.Filters, tr, func(n int) string { return "$" + strconv.Itoa(n) })
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT count(*) FROM %s %s", pq.QuoteIdentifier(q.Dataset), where)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to query view count: %w", err)
	}

	return models.CountResult(count), nil
}

func (s *PGStore) Ingest(ctx context.Context, dataset string, event models.ViewEvent) error {
	if err := checkDataset(dataset); err != nil {
		return err
	}

	metadata, err := event.MetadataJSON()
	if err != nil {
		return fmt.Errorf("failed to encode view metadata: %w", err)
	}

	rec := stamp(event)
	query := fmt.Sprintf(`
		INSERT INTO %s (event_id, event_type, id, timestamp, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, pq.QuoteIdentifier(dataset))
	if _, err := s.db.ExecContext(ctx, query, rec.EventID, rec.EventType, rec.ID, rec.Timestamp, metadata); err != nil {
		return fmt.Errorf("failed to insert view event: %w", err)
	}
	return nil
}

func (s *PGStore) EnsureSchema(ctx context.Context, dataset string) error {
	if err := checkDataset(dataset); err != nil {
		return err
	}

	table := pq.QuoteIdentifier(dataset)
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			event_id UUID PRIMARY KEY,
			event_type TEXT NOT NULL,
			id TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			metadata JSONB NOT NULL
		)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (id, timestamp)`,
			pq.QuoteIdentifier(dataset+"_id_timestamp_idx"), table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create dataset %s: %w", dataset, err)
		}
	}
	return nil
}

func (s *PGStore) Close() error {
	return s.db.Close()
}
