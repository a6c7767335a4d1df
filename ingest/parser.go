package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"newsdesk/models"

	"github.com/mmcdole/gofeed"
)

// Parser fetches a feed URL and returns its normalized entries. A
// failure is distinguishable from a feed legitimately returning zero
// entries.
type Parser interface {
	FetchAndParse(ctx context.Context, url string) ([]models.FeedEntry, error)
}

// GofeedParser parses RSS/Atom/JSON feeds with gofeed.
type GofeedParser struct {
	parser *gofeed.Parser
}

func NewGofeedParser() *GofeedParser {
	fp := gofeed.NewParser()
	fp.UserAgent = "newsdesk/1.0"
	return &GofeedParser{parser: fp}
}

func (p *GofeedParser) FetchAndParse(ctx context.Context, url string) ([]models.FeedEntry, error) {
	feed, err := p.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}

	// Preserve gofeed's item order, assumed newest-first
	entries := make([]models.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		publishedAt := time.Now()
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		body := item.Content
		if body == "" {
			body = item.Description
		}

		entries = append(entries, models.FeedEntry{
			Title:       item.Title,
			Link:        item.Link,
			PublishedAt: publishedAt,
			Body:        body,
			MediaURL:    mediaURLOf(item),
		})
	}

	return entries, nil
}

// mediaURLOf picks the first usable media reference from an item:
// the item image, then any image-typed enclosure.
func mediaURLOf(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if enc.Type == "" || strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
