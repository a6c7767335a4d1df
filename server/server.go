package server

import (
	"context"
	"errors"
	"strconv"
	"time"

	"newsdesk/db"
	"newsdesk/ingest"
	"newsdesk/models"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// FeedAdmin is the slice of the feed repository the admin surface
// needs.
type FeedAdmin interface {
	FindAll(ctx context.Context) ([]models.FeedConfig, error)
	Create(ctx context.Context, feed models.FeedConfig) (*models.FeedConfig, error)
}

// ArticleReader is the read slice of the article store exposed over
// HTTP.
type ArticleReader interface {
	ListByFeed(ctx context.Context, feedID string, limit int) ([]models.Article, error)
}

// MediaResolver resolves access URLs for stored media keys.
type MediaResolver interface {
	ResolveAccessURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type ServerConfig struct {

	// The ingestion pipeline driving trigger endpoints
	Pipeline *ingest.Pipeline

	// Feed repository for the admin read/write surface
	Feeds FeedAdmin

	// Article store backing the per-feed article listing
	Articles ArticleReader

	// Media resolver; nil when no object storage is configured
	Media MediaResolver

	// Optional shared secret required on trigger endpoints
	TriggerSecret string
}

// Returns a fiber.App instance serving the newsdesk ingestion API
func Server(config *ServerConfig) *fiber.App {

	app := fiber.New()

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		// start timer
		start := time.Now()

		// next routes
		err := c.Next()

		// stop timer
		stop := time.Now()

		// Diff
		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"latency": stop.Sub(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Scheduler-facing trigger: bare invocation, optional shared
	// secret, no payload
	app.Post("/ingest/run", func(c *fiber.Ctx) error {
		if !authorized(c, config.TriggerSecret) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid trigger secret"})
		}

		result, err := config.Pipeline.ProcessAllFeeds(c.Context())
		if errors.Is(err, ingest.ErrAlreadyRunning) {
			// Expected backpressure, not a fault
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already running"})
		}
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Ingestion run failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "ingestion run failed"})
		}

		return c.JSON(result)
	})

	// Manual per-feed trigger from the admin panel
	app.Post("/feeds/:id/ingest", func(c *fiber.Ctx) error {
		if !authorized(c, config.TriggerSecret) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid trigger secret"})
		}

		result, err := config.Pipeline.ProcessFeedManually(c.Context(), c.Params("id"))
		switch {
		case errors.Is(err, ingest.ErrFeedNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "feed not found"})
		case errors.Is(err, ingest.ErrFeedDisabled):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "feed disabled"})
		case err != nil:
			log.WithFields(log.Fields{
				"feedId": c.Params("id"),
				"error":  err,
			}).Error("Manual feed run failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "feed run failed"})
		}

		return c.JSON(result)
	})

	// Read-only status snapshot for operators
	app.Get("/ingest/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"queue": config.Pipeline.Tracker().Stats(),
			"guard": config.Pipeline.Guard().Snapshot(),
		})
	})

	app.Get("/feeds", func(c *fiber.Ctx) error {
		feeds, err := config.Feeds.FindAll(c.Context())
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error listing feeds")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "error listing feeds"})
		}
		if feeds == nil {
			feeds = []models.FeedConfig{}
		}
		return c.JSON(feeds)
	})

	app.Post("/feeds", func(c *fiber.Ctx) error {
		var feed models.FeedConfig
		if err := c.BodyParser(&feed); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		created, err := config.Feeds.Create(c.Context(), feed)
		if errors.Is(err, db.ErrInvalidFeed) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error creating feed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "error creating feed"})
		}

		return c.Status(fiber.StatusCreated).JSON(created)
	})

	app.Get("/feeds/:id/articles", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 500 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be between 1 and 500"})
		}

		articles, err := config.Articles.ListByFeed(c.Context(), c.Params("id"), limit)
		if err != nil {
			log.WithFields(log.Fields{
				"feedId": c.Params("id"),
				"error":  err,
			}).Error("Error listing articles")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "error listing articles"})
		}
		if articles == nil {
			articles = []models.Article{}
		}
		return c.JSON(articles)
	})

	// Resolve a time-limited access URL for a stored media key
	app.Get("/media/url", func(c *fiber.Ctx) error {
		if config.Media == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "media storage not configured"})
		}

		key := c.Query("key", "")
		if key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "key is required"})
		}

		ttl := time.Duration(0)
		if raw := c.Query("ttl", ""); raw != "" {
			seconds, err := strconv.Atoi(raw)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ttl must be an integer number of seconds"})
			}
			ttl = time.Duration(seconds) * time.Second
		}

		url, err := config.Media.ResolveAccessURL(c.Context(), key, ttl)
		if err != nil {
			log.WithFields(log.Fields{
				"key":   key,
				"error": err,
			}).Error("Error resolving media URL")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "error resolving media URL"})
		}

		return c.JSON(fiber.Map{"key": key, "url": url})
	})

	return app
}

// authorized checks the shared trigger secret when one is configured
func authorized(c *fiber.Ctx, secret string) bool {
	if secret == "" {
		return true
	}
	return c.Get("X-Ingest-Secret") == secret
}
