package senders

import (
	"fmt"
	"html"
	"strings"

	"github.com/fiffu/tickerdigest/lib/analysis"
	"github.com/fiffu/tickerdigest/lib/models"
)

type digestEmailFormat struct {
	Subscription *models.Subscription
	Report       *analysis.Report
	News         []unfurledLink
}

func (ef *digestEmailFormat) Subject() string {
	return fmt.Sprintf(
		"Tickerdigest: %s — %s (%.0f%% conviction)",
		ef.Report.Symbol, ef.Report.Verdict, ef.Report.Conviction*100,
	)
}

func (ef *digestEmailFormat) Body() string {
	r := ef.Report
	var b strings.Builder

	fmt.Fprintf(&b, "<h3>%s: %s</h3>", html.EscapeString(r.Symbol), html.EscapeString(r.Verdict))
	fmt.Fprintf(&b, "<p>Last price: %.2f &middot; Conviction: %.0f%% &middot; Horizon: %d days</p>",
		r.LastPrice, r.Conviction*100, r.HorizonDays)
	fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(r.Rationale))

	if len(r.KeySignals) > 0 {
		b.WriteString("<ul>")
		for _, signal := range r.KeySignals {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(signal))
		}
		b.WriteString("</ul>")
	}

	if r.Invalidation != "" {
		fmt.Fprintf(&b, "<p><b>Invalidation:</b> %s</p>", html.EscapeString(r.Invalidation))
	}

	if len(ef.News) > 0 {
		b.WriteString("<h4>In the news</h4>")
		for _, link := range ef.News {
			fmt.Fprintf(&b, `<p><a href="%s">%s</a>`, link.URL, html.EscapeString(link.Title))
			if link.Source != "" {
				fmt.Fprintf(&b, " &mdash; %s", html.EscapeString(link.Source))
			}
			b.WriteString("</p>")
			if link.ImageURL != "" {
				fmt.Fprintf(&b, `<img src="%s" width="320">`, link.ImageURL)
			}
		}
	}

	return b.String()
}

type verificationEmailFormat struct {
	verifyURL string
}

func (ef *verificationEmailFormat) Subject() string {
	return "Tickerdigest: Email verification required"
}

func (ef *verificationEmailFormat) Body() string {
	url := ef.verifyURL
	return fmt.Sprintf(`Click here to verify your email: <a href="%s">%s</a>`, url, url)
}
