package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newsdesk/models"

	"github.com/google/uuid"
	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Articles is the content record store written to by the ingestion
// pipeline and read by the site.
type Articles struct {
	db *sql.DB
}

func NewArticles(db *sql.DB) *Articles {
	return &Articles{db: db}
}

// ExistsByLink checks the natural dedup key: has an article with this
// link already been ingested in any previous run
func (a *Articles) ExistsByLink(ctx context.Context, link string) (bool, error) {
	var exists bool
	err := a.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM articles WHERE link = $1)", link).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query error: %w", err)
	}
	return exists, nil
}

// Create persists a new article record
func (a *Articles) Create(ctx context.Context, article models.Article) (*models.Article, error) {
	if article.ID == "" {
		article.ID = uuid.New().String()
	}
	article.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"feedId": article.FeedID,
		"link":   article.Link,
		"status": article.Status,
	}).Info("Creating article")

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("articles")
	sb.Cols("id", "feed_id", "title", "link", "body", "category_id", "author_id",
		"image_key", "status", "published_at", "created_at")
	sb.Values(article.ID, article.FeedID, article.Title, article.Link, article.Body,
		article.CategoryID, article.AuthorID, article.ImageKey, article.Status,
		article.PublishedAt, article.CreatedAt)

	query, args := sb.Build()
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert error: %w", err)
	}

	return &article, nil
}

// ListByFeed returns the most recent articles for a feed
func (a *Articles) ListByFeed(ctx context.Context, feedID string, limit int) ([]models.Article, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "feed_id", "title", "link", "body", "category_id", "author_id",
		"image_key", "status", "published_at", "created_at")
	sb.From("articles")
	sb.Where(sb.Equal("feed_id", feedID))
	sb.OrderBy("created_at").Desc()
	sb.Limit(limit)

	query, args := sb.Build()
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		var art models.Article
		var publishedAt sql.NullTime
		if err := rows.Scan(&art.ID, &art.FeedID, &art.Title, &art.Link, &art.Body,
			&art.CategoryID, &art.AuthorID, &art.ImageKey, &art.Status,
			&publishedAt, &art.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		if publishedAt.Valid {
			art.PublishedAt = publishedAt.Time
		}
		articles = append(articles, art)
	}

	return articles, rows.Err()
}

// CountByFeed returns the number of stored articles per feed id
func (a *Articles) CountByFeed(ctx context.Context) (map[string]int64, error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT feed_id, count(*) FROM articles WHERE feed_id IS NOT NULL GROUP BY feed_id")
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var feedID string
		var count int64
		if err := rows.Scan(&feedID, &count); err != nil {
			continue
		}
		counts[feedID] = count
	}

	return counts, rows.Err()
}
