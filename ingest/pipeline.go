package ingest

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"newsdesk/models"
	"newsdesk/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrFeedNotFound rejects manual runs against unknown feed ids
	ErrFeedNotFound = errors.New("feed not found")
	// ErrFeedDisabled rejects manual runs against disabled feeds
	ErrFeedDisabled = errors.New("feed disabled")
)

// FeedStore is the slice of the feed repository the pipeline consumes.
type FeedStore interface {
	FindAll(ctx context.Context) ([]models.FeedConfig, error)
	FindByID(ctx context.Context, id string) (*models.FeedConfig, error)
}

// ArticleStore is the content record boundary the pipeline writes to.
type ArticleStore interface {
	ExistsByLink(ctx context.Context, link string) (bool, error)
	Create(ctx context.Context, article models.Article) (*models.Article, error)
}

// MediaOffloader uploads a source media URL to object storage,
// reporting the outcome as a value rather than an error path: media
// offload is expected to sometimes fail without failing the entry.
type MediaOffloader interface {
	Offload(ctx context.Context, mediaURL string) storage.OffloadResult
}

// DefaultFetchTimeout bounds a single feed's fetch+parse.
const DefaultFetchTimeout = 30 * time.Second

// Pipeline orchestrates ingestion passes over the configured feeds.
// Feeds are processed sequentially, one at a time, to keep outbound
// request load bounded; each feed is processed in isolation so a slow
// or failing feed never aborts the rest of the run.
type Pipeline struct {
	feeds        FeedStore
	articles     ArticleStore
	parser       Parser
	mapper       *Mapper
	media        MediaOffloader
	tracker      *Tracker
	guard        *Guard
	fetchTimeout time.Duration
}

// PipelineConfig wires the pipeline's collaborators. Media may be nil
// when no object storage is configured; entries are then created
// without images.
type PipelineConfig struct {
	Feeds        FeedStore
	Articles     ArticleStore
	Parser       Parser
	Mapper       *Mapper
	Media        MediaOffloader
	Tracker      *Tracker
	Guard        *Guard
	FetchTimeout time.Duration
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Mapper == nil {
		cfg.Mapper = NewMapper()
	}
	if cfg.Tracker == nil {
		cfg.Tracker = NewTracker()
	}
	if cfg.Guard == nil {
		cfg.Guard = NewGuard()
	}
	return &Pipeline{
		feeds:        cfg.Feeds,
		articles:     cfg.Articles,
		parser:       cfg.Parser,
		mapper:       cfg.Mapper,
		media:        cfg.Media,
		tracker:      cfg.Tracker,
		guard:        cfg.Guard,
		fetchTimeout: cfg.FetchTimeout,
	}
}

// Tracker exposes the queue counters for the status surface.
func (p *Pipeline) Tracker() *Tracker {
	return p.tracker
}

// Guard exposes the execution guard for the status surface.
func (p *Pipeline) Guard() *Guard {
	return p.guard
}

// ProcessAllFeeds runs one full ingestion pass under the execution
// guard. Concurrent invocations (two cron triggers firing close
// together) get ErrAlreadyRunning instead of a second run. The run
// summary is returned even on partial failure; there is no
// all-or-nothing outcome.
func (p *Pipeline) ProcessAllFeeds(ctx context.Context) (*models.RunResult, error) {
	if !p.guard.Acquire() {
		runsTotal.WithLabelValues("contended").Inc()
		return nil, ErrAlreadyRunning
	}
	defer p.guard.Release()

	runInProgress.Set(1)
	defer runInProgress.Set(0)
	timer := prometheus.NewTimer(runDuration)
	defer timer.ObserveDuration()

	allFeeds, err := p.feeds.FindAll(ctx)
	if err != nil {
		runsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	enabled := lo.Filter(allFeeds, func(feed models.FeedConfig, _ int) bool {
		return feed.Enabled
	})

	log.WithFields(log.Fields{
		"total":   len(allFeeds),
		"enabled": len(enabled),
	}).Info("Starting ingestion run")

	result := &models.RunResult{
		TotalFeeds: len(allFeeds),
		Errors:     []models.FeedError{},
	}

	p.tracker.enqueue(int64(len(enabled)))

	for _, feed := range enabled {
		p.tracker.start()
		feedResult := p.processFeed(ctx, feed)

		result.Processed++
		result.Created += feedResult.Created
		feedsProcessed.Inc()

		if feedResult.Err != "" {
			result.Errors = append(result.Errors, models.FeedError{
				FeedID:  feed.ID,
				Message: feedResult.Err,
			})
			feedErrors.Inc()
			p.tracker.fail()
			continue
		}
		p.tracker.complete()
	}

	outcome := "completed"
	if len(result.Errors) > 0 {
		outcome = "partial"
	}
	runsTotal.WithLabelValues(outcome).Inc()

	log.WithFields(log.Fields{
		"processed": result.Processed,
		"created":   result.Created,
		"errors":    len(result.Errors),
	}).Info("Ingestion run finished")

	return result, nil
}

// ProcessFeedManually runs the per-feed logic for a single feed,
// outside the bulk guard: a manual re-run targets one feed and may
// overlap a scheduled run by design. Configuration problems are
// rejected before any network call.
func (p *Pipeline) ProcessFeedManually(ctx context.Context, feedID string) (*models.FeedRunResult, error) {
	feed, err := p.feeds.FindByID(ctx, feedID)
	if err != nil {
		return nil, err
	}
	if feed == nil {
		return nil, ErrFeedNotFound
	}
	if !feed.Enabled {
		return nil, ErrFeedDisabled
	}

	p.tracker.enqueue(1)
	p.tracker.start()
	result := p.processFeed(ctx, *feed)
	if result.Err != "" {
		p.tracker.fail()
	} else {
		p.tracker.complete()
	}
	feedsProcessed.Inc()

	return &result, nil
}

// processFeed is the isolated per-feed unit. Every failure is captured
// in the result, never propagated, so one feed cannot take down the
// run.
func (p *Pipeline) processFeed(ctx context.Context, feed models.FeedConfig) models.FeedRunResult {
	result := models.FeedRunResult{FeedID: feed.ID}

	entries, err := WithTimeout(ctx, p.fetchTimeout, func(ctx context.Context) ([]models.FeedEntry, error) {
		return p.parser.FetchAndParse(ctx, feed.SourceURL)
	})
	if err != nil {
		log.WithFields(log.Fields{
			"feedId": feed.ID,
			"url":    feed.SourceURL,
			"error":  err,
		}).Warn("Feed fetch failed")
		result.Err = err.Error()
		return result
	}

	// Hard cap per run, preserving the parser's newest-first order
	if len(entries) > feed.MaxItemsPerFetch {
		entries = entries[:feed.MaxItemsPerFetch]
	}

	for _, entry := range entries {
		link := normalizeLink(entry.Link)
		if link == "" {
			// No natural key means no safe dedup; skip rather than
			// flood the site with duplicates on every run.
			log.WithFields(log.Fields{
				"feedId": feed.ID,
				"title":  entry.Title,
			}).Warn("Entry has no usable link, skipping")
			result.Skipped++
			continue
		}

		exists, err := p.articles.ExistsByLink(ctx, link)
		if err != nil {
			result.Err = err.Error()
			return result
		}
		if exists {
			result.Skipped++
			continue
		}

		categoryID := feed.CategoryID
		if categoryID == "" {
			categoryID = p.mapper.Map(feed.Name, feed.SourceURL)
		}

		status := models.StatusDraft
		if feed.AutoPublish {
			status = models.StatusPublished
		}

		article := models.Article{
			FeedID:      feed.ID,
			Title:       entry.Title,
			Link:        link,
			Body:        entry.Body,
			CategoryID:  categoryID,
			AuthorID:    feed.AuthorID,
			ImageKey:    p.offloadMedia(ctx, feed.ID, entry.MediaURL),
			Status:      status,
			PublishedAt: entry.PublishedAt,
		}

		if _, err := p.articles.Create(ctx, article); err != nil {
			log.WithFields(log.Fields{
				"feedId": feed.ID,
				"link":   link,
				"error":  err,
			}).Error("Failed to create article")
			result.Skipped++
			continue
		}

		result.Created++
		entriesCreated.Inc()
	}

	return result
}

// offloadMedia is best-effort: a failed upload degrades the entry to
// no image, it never drops the entry.
func (p *Pipeline) offloadMedia(ctx context.Context, feedID, mediaURL string) string {
	if p.media == nil || mediaURL == "" {
		return ""
	}

	res := p.media.Offload(ctx, mediaURL)
	if res.Err != nil {
		mediaOffloadFailures.Inc()
		log.WithFields(log.Fields{
			"feedId": feedID,
			"url":    mediaURL,
			"error":  res.Err,
		}).Warn("Media offload failed, creating entry without image")
		return ""
	}

	return res.Key
}

// normalizeLink trims and validates the entry link used as the dedup
// key. Returns "" for links that cannot be parsed as absolute URLs.
func normalizeLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	parsed, err := url.Parse(link)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return link
}
