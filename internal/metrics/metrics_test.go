package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()

	r.ObserveLoad(120*time.Millisecond, 42, nil)
	r.ObserveLoad(0, 0, errors.New("boom"))
	r.ObserveReport("transfers", 10)
	r.ObserveReport("transfers", 3)
	r.ObserveCache("dataset", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.datasetLoads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.datasetLoads.WithLabelValues("error")))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.datasetRecords))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.reportsComputed.WithLabelValues("transfers")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("dataset", "hit")))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ObserveLoad(time.Second, 1, nil)
	r.ObserveReport("reverse", 1)
	r.ObserveCache("report", false)
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.ObserveReport("slow_stock", 5)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `balance_reports_computed_total{report="slow_stock"} 1`)
}
