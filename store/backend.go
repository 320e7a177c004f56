package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"viewcounter/api/models"
	"viewcounter/api/utils"
)

// Backend is the analytics sink the view counter forwards to. It owns
// storage and aggregation; callers only build requests and unwrap results.
type Backend interface {
	Query(ctx context.Context, q models.CountQuery, tr utils.TimeRange) (*models.QueryResult, error)
	Ingest(ctx context.Context, dataset string, event models.ViewEvent) error
	EnsureSchema(ctx context.Context, dataset string) error
	Close() error
}

var ErrUnknownField = errors.New("unknown filter field")

var (
	datasetPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	filterColumns = map[string]string{
		"eventType": "event_type",
		"id":        "id",
	}
)

func checkDataset(dataset string) error {
	if !datasetPattern.MatchString(dataset) {
		return fmt.Errorf("invalid dataset name %q", dataset)
	}
	return nil
}

// whereClause renders the time range and equality filters. placeholder maps a
// 1-based argument position to the driver's bind syntax.
func whereClause(filters []models.Filter, tr utils.TimeRange, placeholder func(int) string) (string, []any, error) {
	conds := []string{
		"timestamp >= " + placeholder(1),
		"timestamp <= " + placeholder(2),
	}
	args := []any{tr.StartTime.UTC(), tr.EndTime.UTC()}

	for _, f := range filters {
		col, ok := filterColumns[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownField, f.Field)
		}
		args = append(args, f.Value)
		conds = append(conds, col+" = "+placeholder(len(args)))
	}

	return "WHERE " + strings.Join(conds, " AND "), args, nil
}

// stamp assigns the record its storage identity.
func stamp(event models.ViewEvent) models.StoredEvent {
	return models.StoredEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		ViewEvent: event,
	}
}
