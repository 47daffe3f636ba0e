package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inventory-balance/internal/config"
	"github.com/andresuchdata/inventory-balance/internal/domain"
	"github.com/andresuchdata/inventory-balance/internal/metrics"
	"github.com/andresuchdata/inventory-balance/internal/service"
	"github.com/andresuchdata/inventory-balance/internal/snapshot"
)

const balanceCSV = "Codigo,Clave,Descripcion,Matriz,Matriz,Centro,Centro\n" +
	"1,K1,Foco,2,A,7,C\n" +
	"2,K2,Cable,9,C,0,B\n" +
	"3,K3,Ca\xf1o,0,B,3,Sin movimiento\n"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "Balance.csv")
	require.NoError(t, os.WriteFile(path, []byte(balanceCSV), 0o644))

	cfg := &config.Config{
		Balance: config.BalanceConfig{
			Encoding:         "latin-1",
			NoMovementMarker: "sin",
			Policy:           "uncapped",
			Threshold:        10,
			ThresholdMin:     1,
			ThresholdMax:     100,
			ViewLimit:        500,
			DefaultOrigin:    "Matriz",
		},
		Export: config.ExportConfig{Encoding: "utf-8-sig"},
	}
	rec := metrics.NewRecorder()
	svc, err := service.NewBalanceService(cfg, snapshot.LocalSource{Path: path}, service.WithMetrics(rec))
	require.NoError(t, err)

	return NewRouter(&Services{BalanceService: svc, Metrics: rec}, []string{"*"})
}

func get(t *testing.T, router *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWarehousesRoute(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/balance/warehouses")
	require.Equal(t, http.StatusOK, rec.Code)

	var body domain.WarehouseList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Matriz", body.DefaultOrigin)
	assert.Len(t, body.Warehouses, 2)
	assert.Equal(t, 3, body.Records)
}

func TestKPIRoute(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/api/v1/balance/kpis?origin=Matriz")
	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.KPI.CountA)
	assert.Equal(t, 1, body.KPI.CountLowAB)

	rec = get(t, router, "/api/v1/balance/kpis?origin=Narnia")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown warehouse")
}

func TestSuggestionRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/api/v1/balance/suggestions?origin=Matriz&destinations=Centro")
	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.SuggestionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.ReportTransfers, body.Report)
	require.Len(t, body.View.Rows, 2)
	assert.Equal(t, "K1", body.View.Rows[0].Key)
	assert.Equal(t, "K3", body.View.Rows[1].Key)

	rec = get(t, router, "/api/v1/balance/suggestions?variant=capped&threshold=4")
	require.Equal(t, http.StatusOK, rec.Code)
	body = domain.SuggestionResult{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.ReportCappedTransfers, body.Report)
	require.Len(t, body.View.Rows, 2)
	assert.Equal(t, 3, body.View.Rows[0].Suggested)

	rec = get(t, router, "/api/v1/balance/suggestions?threshold=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, router, "/api/v1/balance/suggestions?variant=capped&threshold=0")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, router, "/api/v1/balance/suggestions?variant=capped&threshold=500")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, router, "/api/v1/balance/reverse")
	require.Equal(t, http.StatusOK, rec.Code)
	body = domain.SuggestionResult{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.View.Rows, 1)
	assert.Equal(t, "K2", body.View.Rows[0].Key)
}

func TestEmptyDestinationsParam(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/balance/suggestions?destinations=")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), service.NoticeNoDestinations)
}

func TestItemsRoute(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/balance/items?q=ca%C3%B1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body domain.BrowseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.View.Total)
}

func TestExportRoute(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/api/v1/balance/export/slow_stock")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="c_sinmov_Matriz.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\ufeffCodigo,Clave"))
	assert.Contains(t, rec.Body.String(), "K2,Cable,9,C")

	rec = get(t, router, "/api/v1/balance/export/nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, router, "/api/v1/balance/export/transfers?origin=Todos")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, router, "/api/v1/balance/export/browse?encoding=latin-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ca\xf1o")
}

func TestReloadAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/balance/reload", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `balance_dataset_loads_total{outcome="ok"} 1`)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
