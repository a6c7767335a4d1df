package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"newsdesk/config"
	"newsdesk/db"
	"newsdesk/ingest"
	"newsdesk/models"
	"newsdesk/server"
	"newsdesk/storage"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the newsdesk ingestion API",
		Description: `Starts the ingestion scheduler and the HTTP server.

The scheduler polls the enabled feeds on a fixed interval; the HTTP
server exposes the scheduler trigger, per-feed manual triggers, the
queue status snapshot, the feed admin surface and the media URL
resolver.`,
		Flags: append(dbFlags(),
			&cli.IntFlag{
				Name:    "port",
				Usage:   "HTTP port to listen on",
				EnvVars: []string{"NEWSDESK_PORT"},
				Value:   8080,
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the TOML config file (categories, feed seeds, storage)",
				EnvVars: []string{"NEWSDESK_CONFIG"},
			},
			&cli.IntFlag{
				Name:    "interval",
				Usage:   "Minutes between scheduled ingestion runs",
				EnvVars: []string{"NEWSDESK_INTERVAL"},
				Value:   15,
			},
			&cli.IntFlag{
				Name:    "fetch-timeout",
				Usage:   "Per-feed fetch timeout in seconds",
				EnvVars: []string{"NEWSDESK_FETCH_TIMEOUT"},
				Value:   30,
			},
			&cli.IntFlag{
				Name:    "run-ceiling",
				Usage:   "Minutes before a hung run is force-released, 0 disables",
				EnvVars: []string{"NEWSDESK_RUN_CEILING"},
				Value:   30,
			},
			&cli.StringFlag{
				Name:    "trigger-secret",
				Usage:   "Shared secret required on trigger endpoints",
				EnvVars: []string{"NEWSDESK_TRIGGER_SECRET"},
			},
			&cli.BoolFlag{
				Name:    "migrate",
				Usage:   "Run database migrations before starting",
				EnvVars: []string{"NEWSDESK_MIGRATE"},
			},
		),
		Action: func(ctx *cli.Context) error {

			fmt.Println("Starting newsdesk...")

			if ctx.Bool("migrate") {
				if err := db.Migrate(
					ctx.String("db-host"),
					ctx.Int("db-port"),
					ctx.String("db-user"),
					ctx.String("db-password"),
					ctx.String("db-name"),
				); err != nil {
					return fmt.Errorf("migrations failed: %w", err)
				}
			}

			var cfg *config.TomlConfig
			if path := ctx.String("config"); path != "" {
				loaded, err := config.LoadConfig(path)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			database, err := db.Connect(
				ctx.String("db-host"),
				ctx.Int("db-port"),
				ctx.String("db-user"),
				ctx.String("db-password"),
				ctx.String("db-name"),
			)
			if err != nil {
				return err
			}
			defer database.Close()

			feeds := db.NewFeeds(database)
			articles := db.NewArticles(database)

			if cfg != nil {
				if err := seedFeeds(ctx.Context, feeds, cfg); err != nil {
					return err
				}
			}

			var offloader *storage.Offloader
			if cfg != nil && cfg.Storage != nil {
				offloader, err = storage.NewOffloader(cfg.Storage)
				if err != nil {
					return err
				}
				log.WithFields(log.Fields{
					"bucket": cfg.Storage.Bucket,
				}).Info("Media offload enabled")
			} else {
				log.Info("No storage configured, entries will be created without images")
			}

			var guard *ingest.Guard
			if ceiling := ctx.Int("run-ceiling"); ceiling > 0 {
				guard = ingest.NewGuardWithCeiling(time.Duration(ceiling)*time.Minute, func(started time.Time) {
					log.WithFields(log.Fields{
						"startedAt": started,
					}).Error("Ingestion run overran its ceiling")
				})
			} else {
				guard = ingest.NewGuard()
			}

			pipelineCfg := ingest.PipelineConfig{
				Feeds:        feeds,
				Articles:     articles,
				Parser:       ingest.NewGofeedParser(),
				Mapper:       ingest.NewMapperFromConfig(cfg),
				Tracker:      ingest.NewTracker(),
				Guard:        guard,
				FetchTimeout: time.Duration(ctx.Int("fetch-timeout")) * time.Second,
			}
			if offloader != nil {
				pipelineCfg.Media = offloader
			}
			pipeline := ingest.NewPipeline(pipelineCfg)

			scheduler := ingest.NewScheduler(pipeline, time.Duration(ctx.Int("interval"))*time.Minute)

			serverCfg := &server.ServerConfig{
				Pipeline:      pipeline,
				Feeds:         feeds,
				Articles:      articles,
				TriggerSecret: ctx.String("trigger-secret"),
			}
			if offloader != nil {
				serverCfg.Media = offloader
			}
			app := server.Server(serverCfg)

			runCtx, cancel := context.WithCancel(ctx.Context)
			defer cancel()

			go scheduler.Run(runCtx)

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)
			go func() {
				<-c
				fmt.Println("Gracefully shutting down...")
				cancel()
				app.ShutdownWithTimeout(60 * time.Second)
			}()

			fmt.Println("Starting server...")
			if err := app.Listen(fmt.Sprintf(":%d", ctx.Int("port"))); err != nil {
				return err
			}

			fmt.Println("Done!")
			return nil
		},
	}
}

// seedFeeds creates feeds from the config file that are not configured
// yet. Matching by source URL keeps seeding idempotent across restarts.
func seedFeeds(ctx context.Context, feeds *db.Feeds, cfg *config.TomlConfig) error {
	for _, seed := range cfg.Feeds {
		exists, err := feeds.ExistsBySourceURL(ctx, seed.SourceURL)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		maxItems := seed.MaxItemsPerFetch
		if maxItems <= 0 {
			maxItems = 10
		}

		if _, err := feeds.Create(ctx, models.FeedConfig{
			Name:                 seed.Name,
			SourceURL:            seed.SourceURL,
			CategoryID:           seed.CategoryID,
			AuthorID:             seed.AuthorID,
			Enabled:              seed.Enabled,
			FetchIntervalMinutes: seed.FetchIntervalMinutes,
			MaxItemsPerFetch:     maxItems,
			AutoPublish:          seed.AutoPublish,
		}); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"name": seed.Name,
			"url":  seed.SourceURL,
		}).Info("Seeded feed from config")
	}

	return nil
}
