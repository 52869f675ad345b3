package senders

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/fiffu/tickerdigest/lib/analysis"
	"github.com/fiffu/tickerdigest/lib/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestEmailFormat(t *testing.T) {
	format := &digestEmailFormat{
		Subscription: &models.Subscription{Symbol: "ACME"},
		Report: &analysis.Report{
			Symbol:       "ACME",
			Verdict:      "bullish",
			Conviction:   0.72,
			HorizonDays:  30,
			Invalidation: "close below 100",
			Rationale:    "breakout on volume",
			KeySignals:   []string{"50d cross"},
			LastPrice:    123.45,
		},
		News: []unfurledLink{
			{Title: "ACME beats estimates", URL: "https://example.com/a", Source: "newswire"},
		},
	}

	subject := format.Subject()
	assert.Contains(t, subject, "ACME")
	assert.Contains(t, subject, "bullish")
	assert.Contains(t, subject, "72%")

	body := format.Body()
	assert.Contains(t, body, "123.45")
	assert.Contains(t, body, "30 days")
	assert.Contains(t, body, "breakout on volume")
	assert.Contains(t, body, "50d cross")
	assert.Contains(t, body, "close below 100")
	assert.Contains(t, body, `<a href="https://example.com/a">ACME beats estimates</a>`)
	assert.Contains(t, body, "newswire")
}

func TestDigestEmailFormat_EscapesReportText(t *testing.T) {
	format := &digestEmailFormat{
		Subscription: &models.Subscription{Symbol: "ACME"},
		Report: &analysis.Report{
			Symbol:    "ACME",
			Verdict:   "bullish",
			Rationale: `<script>alert("x")</script>`,
		},
	}

	body := format.Body()
	assert.NotContains(t, body, "<script>")
}

func TestVerificationEmailFormat(t *testing.T) {
	format := &verificationEmailFormat{verifyURL: "https://example.com/verify/abc"}

	assert.Contains(t, format.Subject(), "verification")
	assert.Contains(t, format.Body(), `<a href="https://example.com/verify/abc">`)
}

func TestExtractImageURL(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			"opengraph",
			`<html><head><meta property="og:image" content="https://img.example.com/og.png"></head></html>`,
			"https://img.example.com/og.png",
		},
		{
			"twitter fallback",
			`<html><head><meta name="twitter:image" content="https://img.example.com/tw.png"></head></html>`,
			"https://img.example.com/tw.png",
		},
		{
			"none",
			`<html><head><title>hi</title></head></html>`,
			"",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := htmlquery.Parse(strings.NewReader(tc.page))
			require.NoError(t, err)
			assert.Equal(t, tc.want, ExtractImageURL(doc))
		})
	}
}

func TestSelectText(t *testing.T) {
	doc, err := htmlquery.Parse(strings.NewReader(
		`<html><head><title>  ACME   Daily  </title></head><body></body></html>`,
	))
	require.NoError(t, err)

	assert.Equal(t, "ACME Daily", SelectText(doc, "/html/head/title"))
}
