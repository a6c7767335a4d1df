package ingest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsdesk/ingest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Sample Feed</title>
    <link>https://sample.example.com</link>
    <item>
      <title>Newest story</title>
      <link>https://sample.example.com/stories/2</link>
      <description>Second story body</description>
      <pubDate>Mon, 24 Aug 2026 10:00:00 +0000</pubDate>
      <enclosure url="https://sample.example.com/images/2.jpg" type="image/jpeg" length="1024"/>
    </item>
    <item>
      <title>Older story</title>
      <link>https://sample.example.com/stories/1</link>
      <description>First story body</description>
      <pubDate>Sun, 23 Aug 2026 10:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestGofeedParser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	entries, err := ingest.NewGofeedParser().FetchAndParse(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Parser order is preserved, newest first
	assert.Equal(t, "Newest story", entries[0].Title)
	assert.Equal(t, "https://sample.example.com/stories/2", entries[0].Link)
	assert.Equal(t, "Second story body", entries[0].Body)
	assert.Equal(t, "https://sample.example.com/images/2.jpg", entries[0].MediaURL)
	assert.Equal(t, 2026, entries[0].PublishedAt.Year())

	assert.Equal(t, "Older story", entries[1].Title)
	assert.Empty(t, entries[1].MediaURL)
}

func TestGofeedParserSurfacesFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := ingest.NewGofeedParser().FetchAndParse(context.Background(), srv.URL)
	assert.Error(t, err, "a failing feed is distinguishable from an empty one")
}

func TestGofeedParserEmptyFeedIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`))
	}))
	defer srv.Close()

	entries, err := ingest.NewGofeedParser().FetchAndParse(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
