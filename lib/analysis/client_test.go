package analysis_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fiffu/tickerdigest/config"
	"github.com/fiffu/tickerdigest/lib/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func newClient(t *testing.T, baseURL string) analysis.Client {
	t.Helper()
	cfg := &config.Config{}
	cfg.Analysis.BaseURL = baseURL
	cfg.Analysis.APIKey = "test-key"
	cfg.Analysis.TimeoutSecs = 5
	return analysis.NewClient(fxtest.NewLifecycle(t), cfg, zap.NewNop(), http.DefaultTransport)
}

func TestFetch_DecodesReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/analysis", r.URL.Path)
		assert.Equal(t, "ACME", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"symbol": "ACME",
			"verdict": "bullish",
			"conviction": 0.72,
			"horizon_days": 30,
			"invalidation": "close below 100",
			"rationale": "breakout on volume",
			"key_signals": ["50d cross", "volume spike"],
			"news": [{"title": "ACME beats estimates", "url": "https://example.com/a", "source": "newswire"}],
			"last_price": 123.45
		}`))
	}))
	defer srv.Close()

	report, err := newClient(t, srv.URL).Fetch(context.Background(), "ACME")
	require.NoError(t, err)

	assert.Equal(t, "ACME", report.Symbol)
	assert.Equal(t, "bullish", report.Verdict)
	assert.Equal(t, 0.72, report.Conviction)
	assert.Equal(t, 30, report.HorizonDays)
	assert.Equal(t, []string{"50d cross", "volume spike"}, report.KeySignals)
	require.Len(t, report.News, 1)
	assert.Equal(t, "https://example.com/a", report.News[0].URL)
	assert.Equal(t, 123.45, report.LastPrice)
}

func TestFetch_DefaultsSymbolWhenOmitted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"verdict": "neutral", "conviction": 0.5}`))
	}))
	defer srv.Close()

	report, err := newClient(t, srv.URL).Fetch(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, "ACME", report.Symbol)
}

func TestFetch_NonSuccessStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).Fetch(context.Background(), "ACME")
	assert.Error(t, err)
}

func TestFetch_MalformedBodyErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"verdict": `))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).Fetch(context.Background(), "ACME")
	assert.Error(t, err)
}
