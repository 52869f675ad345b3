package analysis

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/fiffu/tickerdigest/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Report is the analysis service's directional call for one symbol.
type Report struct {
	Symbol       string     `json:"symbol"`
	Verdict      string     `json:"verdict"`
	Conviction   float64    `json:"conviction"` // 0..1
	HorizonDays  int        `json:"horizon_days"`
	Invalidation string     `json:"invalidation"`
	Rationale    string     `json:"rationale"`
	KeySignals   []string   `json:"key_signals"`
	News         []NewsItem `json:"news"`
	LastPrice    float64    `json:"last_price"`
}

type NewsItem struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

type Client interface {
	Fetch(ctx context.Context, symbol string) (*Report, error)
}

func NewClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, transport http.RoundTripper) Client {
	return &httpClient{cfg, log, transport}
}

type httpClient struct {
	cfg       *config.Config
	log       *zap.Logger
	transport http.RoundTripper
}

func (c *httpClient) Fetch(ctx context.Context, symbol string) (*Report, error) {
	timeout := time.Duration(c.cfg.Analysis.TimeoutSecs) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var report Report
	err := requests.URL(c.cfg.Analysis.BaseURL).
		Path("/v1/analysis").
		Param("symbol", symbol).
		Header("X-Api-Key", c.cfg.Analysis.APIKey).
		Transport(c.transport).
		ToJSON(&report).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("analysis fetch for %s: %w", symbol, err)
	}

	if report.Symbol == "" {
		report.Symbol = symbol
	}
	return &report, nil
}
