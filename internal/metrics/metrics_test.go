package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merlin-energy/truequote/internal/engine"
	"github.com/merlin-energy/truequote/internal/validation"
)

var (
	_ engine.Recorder        = (*Metrics)(nil)
	_ validation.RowRecorder = (*Metrics)(nil)
)

func TestWriteTextfile(t *testing.T) {
	m := New(false)
	m.ObserveQuote("hotel", engine.OutcomePriced, 3*time.Millisecond)
	m.ObserveQuote("hotel", engine.OutcomePriced, time.Millisecond)
	m.ObserveQuote("car_wash", engine.OutcomeHardFailure, time.Millisecond)
	m.ObserveRow("hotel", validation.StatusPass)
	m.ObserveRow("casino", validation.StatusSkip)

	path := filepath.Join(t.TempDir(), "truequote.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `truequote_quotes_total{industry="hotel",outcome="priced"} 2`)
	assert.Contains(t, out, `truequote_quotes_total{industry="car_wash",outcome="hard_failure"} 1`)
	assert.Contains(t, out, `truequote_validation_rows_total{industry="casino",status="SKIP"} 1`)
	assert.Contains(t, out, `truequote_quote_duration_seconds_count{industry="hotel"} 2`)
	assert.NotContains(t, out, "go_goroutines")
}

func TestHandler(t *testing.T) {
	m := New(true)
	m.ObserveRow("hotel", validation.StatusFail)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `truequote_validation_rows_total{industry="hotel",status="FAIL"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
