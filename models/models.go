package models

import "time"

// Article status values. Feeds with AutoPublish create articles as
// published, everything else lands as a draft for editorial review.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// FeedConfig is a configured syndication source. Mutated only through
// admin operations, read by the ingestion pipeline.
type FeedConfig struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	SourceURL            string    `json:"sourceUrl"`
	CategoryID           string    `json:"categoryId,omitempty"`
	AuthorID             string    `json:"authorId,omitempty"`
	Enabled              bool      `json:"enabled"`
	FetchIntervalMinutes int       `json:"fetchIntervalMinutes"`
	MaxItemsPerFetch     int       `json:"maxItemsPerFetch"`
	AutoPublish          bool      `json:"autoPublish"`
	CreatedAt            time.Time `json:"createdAt"`
}

// FeedEntry is one normalized item returned by the parser for a feed
// fetch. Ephemeral, consumed once per run, never persisted as-is.
type FeedEntry struct {
	Title       string
	Link        string
	PublishedAt time.Time
	Body        string
	MediaURL    string
}

// Article is a materialized content record.
type Article struct {
	ID          string    `json:"id"`
	FeedID      string    `json:"feedId"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Body        string    `json:"body"`
	CategoryID  string    `json:"categoryId,omitempty"`
	AuthorID    string    `json:"authorId,omitempty"`
	ImageKey    string    `json:"imageKey,omitempty"`
	Status      string    `json:"status"`
	PublishedAt time.Time `json:"publishedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FeedError records a single feed's failure within a run.
type FeedError struct {
	FeedID  string `json:"feedId"`
	Message string `json:"message"`
}

// FeedRunResult summarizes the processing of one feed.
type FeedRunResult struct {
	FeedID  string `json:"feedId"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Err     string `json:"error,omitempty"`
}

// RunResult summarizes one full ingestion pass. Always returned, even
// on partial failure.
type RunResult struct {
	TotalFeeds int         `json:"totalFeeds"`
	Processed  int         `json:"processed"`
	Created    int         `json:"created"`
	Errors     []FeedError `json:"errors"`
}

// QueueStats is a snapshot of the work unit counters since process
// start. Reset only on process restart.
type QueueStats struct {
	Pending   int64 `json:"pending"`
	InFlight  int64 `json:"inFlight"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// GuardSnapshot is the read-only view of the execution guard state.
type GuardSnapshot struct {
	Running   bool       `json:"running"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
}
