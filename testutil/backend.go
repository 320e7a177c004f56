// Package testutil provides a scriptable analytics backend for tests.
package testutil

import (
	"context"
	"sync"

	"viewcounter/api/models"
	"viewcounter/api/utils"
)

// QueryCall is one recorded Backend.Query invocation.
type QueryCall struct {
	Query models.CountQuery
	Range utils.TimeRange
}

// IngestCall is one recorded Backend.Ingest invocation.
type IngestCall struct {
	Dataset string
	Event   models.ViewEvent
}

// FakeBackend implements store.Backend in memory. Set the exported fields
// before use; they are read under the lock.
type FakeBackend struct {
	mu sync.Mutex

	Result    *models.QueryResult
	QueryErr  error
	IngestErr error
	SchemaErr error
	// IngestHook, if set, runs inside Ingest before it returns.
	IngestHook func(models.ViewEvent)

	queries []QueryCall
	ingests []IngestCall
	schemas []string
	closed  bool
}

func (b *FakeBackend) Query(_ context.Context, q models.CountQuery, tr utils.TimeRange) (*models.QueryResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, QueryCall{Query: q, Range: tr})
	if b.QueryErr != nil {
		return nil, b.QueryErr
	}
	return b.Result, nil
}

func (b *FakeBackend) Ingest(_ context.Context, dataset string, event models.ViewEvent) error {
	b.mu.Lock()
	b.ingests = append(b.ingests, IngestCall{Dataset: dataset, Event: event})
	hook, err := b.IngestHook, b.IngestErr
	b.mu.Unlock()

	if hook != nil {
		hook(event)
	}
	return err
}

func (b *FakeBackend) EnsureSchema(_ context.Context, dataset string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.schemas = append(b.schemas, dataset)
	return b.SchemaErr
}

func (b *FakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *FakeBackend) Queries() []QueryCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]QueryCall(nil), b.queries...)
}

func (b *FakeBackend) Ingests() []IngestCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]IngestCall(nil), b.ingests...)
}

func (b *FakeBackend) Schemas() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.schemas...)
}

func (b *FakeBackend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
