// Package services holds the view query and ingest clients that sit between
// the HTTP handlers and the analytics backend.
package services

import (
	"context"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"viewcounter/api/metrics"
	"viewcounter/api/models"
	"viewcounter/api/store"
	"viewcounter/api/utils"
)

type Options struct {
	Dataset       string
	QueryTimeout  time.Duration
	IngestTimeout time.Duration
	Metrics       metrics.Sink
	Logger        zerolog.Logger
	Now           func() time.Time
}

// ViewService counts and records views against a single dataset.
type ViewService struct {
	backend store.Backend
	opts    Options
	wg      sync.WaitGroup
}

func NewViewService(backend store.Backend, opts Options) *ViewService {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 10 * time.Second
	}
	if opts.IngestTimeout <= 0 {
		opts.IngestTimeout = 15 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ViewService{backend: backend, opts: opts}
}

// CountViews returns the number of views of id within period. It never
// fails: backend errors and unexpected result shapes are reported as 0.
func (s *ViewService) CountViews(ctx context.Context, id string, period utils.Period) int64 {
	if !utils.IsValidIdentifier(id) {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	q := models.CountQuery{
		Dataset: s.opts.Dataset,
		Filters: []models.Filter{
			{Field: "eventType", Value: models.EventTypeView},
			{Field: "id", Value: id},
		},
	}

	start := time.Now()
	res, err := s.backend.Query(ctx, q, period.Range(s.opts.Now()))
	s.opts.Metrics.QueryCompleted(time.Since(start), err)
	if err != nil {
		s.opts.Logger.Debug().Err(err).Str("id", id).Str("period", period.String()).Msg("view count query failed")
		return 0
	}

	return firstAggregate(res)
}

// firstAggregate unwraps buckets.totals[0].aggregations[0].value.
func firstAggregate(res *models.QueryResult) int64 {
	if res == nil || len(res.Buckets.Totals) == 0 || len(res.Buckets.Totals[0].Aggregations) == 0 {
		return 0
	}

	switch v := res.Buckets.Totals[0].Aggregations[0].Value.(type) {
	case int64:
		return clamp(v)
	case int:
		return clamp(int64(v))
	case uint64:
		if v > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(v)
	case float64:
		if math.IsNaN(v) || v <= 0 {
			return 0
		}
		if v >= math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(v)
	default:
		return 0
	}
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// RecordView sends a view event for id without waiting for the backend.
// The event is built from r before returning, so r may be reused once
// RecordView returns.
func (s *ViewService) RecordView(id string, r *http.Request) {
	event := models.ViewEvent{
		EventType: models.EventTypeView,
		ID:        id,
		Metadata: models.ViewMetadata{
			Method: r.Method,
			Headers: models.ViewHeaders{
				UserAgent:    headerValue(r.Header, "User-Agent"),
				ForwardedFor: headerValue(r.Header, "X-Forwarded-For"),
			},
		},
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				s.opts.Metrics.IngestFailed()
				s.opts.Logger.Error().Str("id", id).Interface("cause", rec).Msg("failed to add view")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.IngestTimeout)
		defer cancel()

		if err := s.backend.Ingest(ctx, s.opts.Dataset, event); err != nil {
			s.opts.Metrics.IngestFailed()
			s.opts.Logger.Error().Err(err).Str("id", id).Msg("failed to add view")
		}
	}()
}

// Wait blocks until every in-flight RecordView has finished.
func (s *ViewService) Wait() {
	s.wg.Wait()
}

// headerValue returns nil when the header is absent, distinguishing it
// from a header sent with an empty value.
func headerValue(h http.Header, key string) *string {
	values, ok := h[http.CanonicalHeaderKey(key)]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
