package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"newsdesk/models"

	"github.com/google/uuid"
	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInvalidFeed rejects feed configs that violate write-time invariants
	ErrInvalidFeed = errors.New("invalid feed config")
)

// Feeds is the persistence boundary for feed configuration records
type Feeds struct {
	db *sql.DB
}

func NewFeeds(db *sql.DB) *Feeds {
	return &Feeds{db: db}
}

const feedColumns = "id, name, source_url, category_id, author_id, enabled, fetch_interval_minutes, max_items_per_fetch, auto_publish, created_at"

// validateFeed enforces the write-time invariants: a well-formed
// source URL and a positive per-fetch cap. Run time trusts what was
// written here.
func validateFeed(feed models.FeedConfig) error {
	if feed.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFeed)
	}
	parsed, err := url.Parse(feed.SourceURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%w: source url %q is not a valid URL", ErrInvalidFeed, feed.SourceURL)
	}
	if feed.MaxItemsPerFetch <= 0 {
		return fmt.Errorf("%w: max items per fetch must be > 0", ErrInvalidFeed)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeed(row rowScanner) (models.FeedConfig, error) {
	var feed models.FeedConfig
	err := row.Scan(
		&feed.ID,
		&feed.Name,
		&feed.SourceURL,
		&feed.CategoryID,
		&feed.AuthorID,
		&feed.Enabled,
		&feed.FetchIntervalMinutes,
		&feed.MaxItemsPerFetch,
		&feed.AutoPublish,
		&feed.CreatedAt,
	)
	return feed, err
}

// FindAll returns every configured feed in a stable order
func (f *Feeds) FindAll(ctx context.Context) ([]models.FeedConfig, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(feedColumns).From("feeds")
	sb.OrderBy("created_at").Asc()

	query, args := sb.Build()
	rows, err := f.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var feeds []models.FeedConfig
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		feeds = append(feeds, feed)
	}

	return feeds, rows.Err()
}

// FindByID returns the feed with the given id, or nil if none exists
func (f *Feeds) FindByID(ctx context.Context, id string) (*models.FeedConfig, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(feedColumns).From("feeds")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	feed, err := scanFeed(f.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return &feed, nil
}

// Create validates and persists a new feed config. Invariants are
// enforced here, at config-write time, not at run time: the source URL
// must be well-formed and the per-fetch cap positive.
func (f *Feeds) Create(ctx context.Context, feed models.FeedConfig) (*models.FeedConfig, error) {
	if err := validateFeed(feed); err != nil {
		return nil, err
	}
	if feed.FetchIntervalMinutes <= 0 {
		feed.FetchIntervalMinutes = 60
	}

	feed.ID = uuid.New().String()
	feed.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"name": feed.Name,
		"url":  feed.SourceURL,
	}).Info("Creating feed")

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("feeds")
	sb.Cols("id", "name", "source_url", "category_id", "author_id", "enabled",
		"fetch_interval_minutes", "max_items_per_fetch", "auto_publish", "created_at")
	sb.Values(feed.ID, feed.Name, feed.SourceURL, feed.CategoryID, feed.AuthorID, feed.Enabled,
		feed.FetchIntervalMinutes, feed.MaxItemsPerFetch, feed.AutoPublish, feed.CreatedAt)

	query, args := sb.Build()
	if _, err := f.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert error: %w", err)
	}

	return &feed, nil
}

// ExistsBySourceURL reports whether a feed with the given source URL is
// already configured. Used to make config seeding idempotent.
func (f *Feeds) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	err := f.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM feeds WHERE source_url = $1)", sourceURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query error: %w", err)
	}
	return exists, nil
}
