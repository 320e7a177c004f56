package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	p.PixelServed()
	p.PixelServed()
	p.IngestFailed()
	p.QueryCompleted(20*time.Millisecond, nil)
	p.QueryCompleted(30*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(p.pixelRequests))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.ingestFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.queryFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(p.queryDuration))
}

func TestNewPrometheus_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg)
	require.NoError(t, err)

	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)
	p.PixelServed()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "viewcounter_pixel_requests_total 1")
}

func TestNoop(t *testing.T) {
	s := Noop()
	s.PixelServed()
	s.IngestFailed()
	s.QueryCompleted(time.Second, errors.New("ignored"))
}
