package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babysitter/internal/metrics"
	"babysitter/internal/models"
	"babysitter/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.CycleStorage) {
	t.Helper()
	store, err := storage.NewCycleStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(":0", store, zerolog.Nop()), store
}

func seed(t *testing.T, store *storage.CycleStorage) {
	t.Helper()
	require.NoError(t, store.Append(models.CycleRecord{
		Timestamp: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
		Outcomes: []models.TargetOutcome{
			{Name: "disk-A", Passed: false, Detail: "free space low"},
		},
		Notified: true,
	}))
	require.NoError(t, store.Append(models.CycleRecord{
		Timestamp: time.Date(2026, 8, 23, 12, 0, 10, 0, time.UTC),
		Outcomes: []models.TargetOutcome{
			{Name: "disk-A", Passed: true, Detail: "free space fine"},
		},
	}))
}

func TestStatusEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seed(t, store)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var record models.CycleRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &record))
	require.Len(t, record.Outcomes, 1)
	assert.True(t, record.Outcomes[0].Passed)
}

func TestStatusEndpointEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"timestamp":null`)
}

func TestHistoryEndpointLimit(t *testing.T) {
	srv, store := newTestServer(t)
	seed(t, store)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history?limit=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var records []models.CycleRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	assert.Len(t, records, 1)
}

func TestUptimeEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seed(t, store)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/uptime", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var summary []metrics.TargetUptime
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	require.Len(t, summary, 1)
	assert.Equal(t, "disk-A", summary[0].Name)
	assert.Equal(t, 50.0, summary[0].UptimePercent)
}

func TestLiveEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seed(t, store)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var snapshot liveSnapshot
	require.NoError(t, conn.ReadJSON(&snapshot))
	require.NotNil(t, snapshot.Latest)
	assert.Len(t, snapshot.Uptime, 1)
}
