package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	authrepository "github.com/smallbiznis/tailorbook/internal/auth/repository"
	authservice "github.com/smallbiznis/tailorbook/internal/auth/service"
	"github.com/smallbiznis/tailorbook/internal/auth/session"
	billservice "github.com/smallbiznis/tailorbook/internal/bill/service"
	"github.com/smallbiznis/tailorbook/internal/clock"
	"github.com/smallbiznis/tailorbook/internal/config"
	measurementservice "github.com/smallbiznis/tailorbook/internal/measurement/service"
	"github.com/smallbiznis/tailorbook/internal/observability"
	obsmetrics "github.com/smallbiznis/tailorbook/internal/observability/metrics"
	"github.com/smallbiznis/tailorbook/internal/providers/pdf"
	"github.com/smallbiznis/tailorbook/internal/record/allocator"
	recorddomain "github.com/smallbiznis/tailorbook/internal/record/domain"
	"github.com/smallbiznis/tailorbook/internal/record/repository"
	"github.com/smallbiznis/tailorbook/internal/record/schema"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testEpoch = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type testServer struct {
	engine *gin.Engine
	fs     afero.Fs
	store  recorddomain.Store
}

func newTestServer(t *testing.T, authCfg config.AuthConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Environment: "test",
		Records: config.RecordsConfig{
			Store:          config.StoreMemory,
			SerialStrategy: config.SerialStrategyScan,
			BillIdentity:   config.BillIdentityTimestamp,
		},
		Auth:    authCfg,
		Receipt: config.ReceiptConfig{ShopName: "Tailor Book"},
	}
	log := zap.NewNop()
	clk := clock.NewFakeClock(testEpoch)
	fs := afero.NewMemMapFs()
	store := repository.NewFileStore(fs, "/data")
	validator := schema.NewValidator(nil)

	httpMetrics, err := obsmetrics.NewHTTPMetricsWithRegisterer(prometheus.NewRegistry())
	require.NoError(t, err)
	engine := NewEngine(observability.Config{Environment: "test"}, httpMetrics)

	billSvc, err := billservice.New(billservice.Params{
		Cfg:       cfg,
		Log:       log,
		Store:     store,
		Validator: validator,
		Clock:     clk,
	})
	require.NoError(t, err)

	authSvc, err := authservice.New(authservice.Params{
		Cfg:      cfg,
		Log:      log,
		Clock:    clk,
		Sessions: authrepository.NewMemoryRepository(clk),
	})
	require.NoError(t, err)

	NewServer(ServerParams{
		Gin: engine,
		Cfg: cfg,
		Log: log,
		MeasurementSvc: measurementservice.New(measurementservice.Params{
			Cfg:       cfg,
			Log:       log,
			Store:     store,
			Allocator: allocator.NewScanAllocator(store),
			Validator: validator,
		}),
		BillSvc:  billSvc,
		Authsvc:  authSvc,
		Sessions: session.NewManager(cfg, clk),
		PDF:      pdf.New(cfg),
	})

	return &testServer{engine: engine, fs: fs, store: store}
}

func (ts *testServer) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeObject(t, rec)
	payload, ok := body["error"].(map[string]any)
	require.True(t, ok, rec.Body.String())
	errs, ok := payload["errors"].([]any)
	if !ok || len(errs) == 0 {
		return payload["type"].(string)
	}
	return errs[0].(map[string]any)["code"].(string)
}

const measurementBody = `{"name":"Ali","phoneNumber":"03001234567","measurementType":"Kameez","chaati":38}`

func TestMeasurementLifecycle(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{})

	rec := ts.do(t, http.MethodPost, "/measurements", measurementBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decodeObject(t, rec)
	assert.Equal(t, "Measurement saved successfully", created["message"])
	assert.Equal(t, "1", created["serialNumber"])
	assert.Equal(t, "measurement_1.json", created["key"])

	rec = ts.do(t, http.MethodPost, "/api/measurements", `{"name":"Sara","serialNumber":"99"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2", decodeObject(t, rec)["serialNumber"])

	rec = ts.do(t, http.MethodGet, "/measurements/measurement_1.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeObject(t, rec)
	assert.Equal(t, "1", doc["serialNumber"])
	assert.Equal(t, "Ali", doc["name"])
	assert.EqualValues(t, 38, doc["chaati"])

	rec = ts.do(t, http.MethodPut, "/measurements/measurement_1.json", `{"serialNumber":"1","name":"Ali Khan"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Measurement updated successfully", decodeObject(t, rec)["message"])

	stored, err := ts.store.Read(t.Context(), recorddomain.Measurement, "measurement_1.json")
	require.NoError(t, err)
	assert.Equal(t, recorddomain.Document{"serialNumber": "1", "name": "Ali Khan"}, stored)

	rec = ts.do(t, http.MethodDelete, "/measurements/measurement_2.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Measurement deleted successfully", decodeObject(t, rec)["message"])

	rec = ts.do(t, http.MethodGet, "/measurements/measurement_2.json", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMeasurementsSearchAndSort(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{})

	rec := ts.do(t, http.MethodGet, "/measurements", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, name := range []string{"Ali Raza", "Bilal", "Ali Khan"} {
		rec = ts.do(t, http.MethodPost, "/measurements", `{"name":"`+name+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/measurements?q=ali&sort=-identity", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "3", docs[0]["serialNumber"])
	assert.Equal(t, "1", docs[1]["serialNumber"])
}

func TestRecordErrorResponses(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{})
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/measurements", measurementBody).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed create", http.MethodPost, "/measurements", `{"name":`, http.StatusBadRequest, "invalid_document"},
		{"array body", http.MethodPost, "/bills", `[1,2]`, http.StatusBadRequest, "invalid_document"},
		{"identity mismatch", http.MethodPut, "/measurements/measurement_1.json", `{"serialNumber":"2"}`, http.StatusBadRequest, "identity_mismatch"},
		{"update missing", http.MethodPut, "/measurements/measurement_9.json", `{"name":"x"}`, http.StatusNotFound, "not_found"},
		{"delete missing", http.MethodDelete, "/bills/bill_9.json", "", http.StatusNotFound, "not_found"},
		{"foreign key", http.MethodGet, "/measurements/bill_1.json", "", http.StatusNotFound, "not_found"},
		{"unsafe bill number", http.MethodPost, "/bills", `{"billNumber":"../x"}`, http.StatusBadRequest, "invalid_identity"},
		{"bill number ending in dot", http.MethodPost, "/bills", `{"billNumber":"7."}`, http.StatusBadRequest, "invalid_identity"},
		{"unknown route", http.MethodGet, "/customers", "", http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
			assert.NotEmpty(t, decodeObject(t, rec)["message"])
		})
	}
}

func TestListWithCorruptFileFails(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{})
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/measurements", measurementBody).Code)
	require.NoError(t, afero.WriteFile(ts.fs, "/data/measurements/measurement_5.json", []byte("{oops"), 0o644))

	rec := ts.do(t, http.MethodGet, "/measurements", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", errorCode(t, rec))

	rec = ts.do(t, http.MethodGet, "/measurements/measurement_5.json", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBillCreateAndReceipt(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{})

	rec := ts.do(t, http.MethodPost, "/bills", `{"billNumber":"17","customerName":"Sara Khan","amount":2500,"status":"paid"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decodeObject(t, rec)
	assert.Equal(t, "Bill saved successfully", created["message"])
	assert.Equal(t, "17", created["billNumber"])
	assert.Equal(t, "bill_17.json", created["key"])

	rec = ts.do(t, http.MethodPost, "/bills", `{"customerName":"Walk-in"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1714557600000", decodeObject(t, rec)["billNumber"])

	rec = ts.do(t, http.MethodGet, "/api/bills/bill_1714557600000.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1714557600000", decodeObject(t, rec)["billNumber"])

	rec = ts.do(t, http.MethodGet, "/bills/bill_17.json/receipt", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bill-17-sara-khan.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = ts.do(t, http.MethodGet, "/bills/bill_404.json/receipt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthGatesRecordRoutes(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{
		Enabled:    true,
		Username:   "admin",
		Password:   "secret",
		SessionTTL: time.Hour,
	})

	rec := ts.do(t, http.MethodGet, "/measurements", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(t, rec))

	rec = ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/auth/login", `{"username":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/auth/login", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sid *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == session.DefaultCookieName {
			sid = cookie
		}
	}
	require.NotNil(t, sid)
	assert.True(t, sid.HttpOnly)

	rec = ts.do(t, http.MethodGet, "/measurements", "", sid)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/auth/me", "", sid)
	assert.Equal(t, true, decodeObject(t, rec)["authenticated"])

	rec = ts.do(t, http.MethodPost, "/auth/logout", "", sid)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/measurements", "", sid)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/auth/me", "", sid)
	assert.Equal(t, false, decodeObject(t, rec)["authenticated"])
}

func TestAuthDisabledLeavesRoutesOpen(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{})

	rec := ts.do(t, http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeObject(t, rec)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, false, body["authEnabled"])

	rec = ts.do(t, http.MethodGet, "/bills", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCorrelationHeaderEchoed(t *testing.T) {
	ts := newTestServer(t, config.AuthConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-Id", "corr-123")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	assert.Equal(t, "corr-123", rec.Header().Get("X-Correlation-Id"))
	assert.True(t, strings.Contains(rec.Body.String(), "ok"))
}
