package senders

import (
	"context"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/carlmjohnson/requests"
	"github.com/fiffu/tickerdigest/lib/analysis"
	"golang.org/x/net/html"
)

const (
	maxNewsLinks      = 3
	unfurlTimeout     = 5 * time.Second
	unfurlTitleLength = 120
)

type unfurledLink struct {
	Title    string
	URL      string
	Source   string
	ImageURL string
}

// unfurlNews decorates news links with a page title and preview image.
// Best-effort: a link that can't be fetched is kept with whatever the report
// already carried.
func (b *base) unfurlNews(ctx context.Context, items []analysis.NewsItem) []unfurledLink {
	if len(items) > maxNewsLinks {
		items = items[:maxNewsLinks]
	}

	out := make([]unfurledLink, 0, len(items))
	for _, item := range items {
		link := unfurledLink{Title: item.Title, URL: item.URL, Source: item.Source}
		if doc := b.fetchPage(ctx, item.URL); doc != nil {
			if link.Title == "" {
				link.Title = truncate(SelectText(doc, "/html/head/title"), unfurlTitleLength)
			}
			link.ImageURL = ExtractImageURL(doc)
		}
		if link.Title == "" {
			link.Title = item.URL
		}
		out = append(out, link)
	}
	return out
}

func (b *base) fetchPage(ctx context.Context, url string) *html.Node {
	if url == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, unfurlTimeout)
	defer cancel()

	var page string
	err := requests.URL(url).
		Transport(b.transport).
		ToString(&page).
		Fetch(ctx)
	if err != nil {
		b.log.Sugar().Debugw("Failed to unfurl news link", "url", url, "err", err)
		return nil
	}

	doc, err := htmlquery.Parse(strings.NewReader(page))
	if err != nil {
		return nil
	}
	return doc
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
