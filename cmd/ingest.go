package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"newsdesk/config"
	"newsdesk/db"
	"newsdesk/ingest"
	"newsdesk/storage"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func ingestCmd() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Run a single ingestion pass and print the result",
		Description: `Runs one ingestion pass over all enabled feeds and prints the run
summary as a JSON object on stdout.

Prints all other log messages to stderr, so the summary can be piped
to a tool like jq.`,
		Flags: append(dbFlags(),
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the TOML config file (categories, feed seeds, storage)",
				EnvVars: []string{"NEWSDESK_CONFIG"},
			},
			&cli.IntFlag{
				Name:    "fetch-timeout",
				Usage:   "Per-feed fetch timeout in seconds",
				EnvVars: []string{"NEWSDESK_FETCH_TIMEOUT"},
				Value:   30,
			},
		),
		Action: func(ctx *cli.Context) error {
			// Keep stdout clean for the run summary
			log.SetOutput(os.Stderr)

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

			pipelineCfg := ingest.PipelineConfig{
				Feeds:        db.NewFeeds(database),
				Articles:     db.NewArticles(database),
				Parser:       ingest.NewGofeedParser(),
				Mapper:       ingest.NewMapperFromConfig(cfg),
				FetchTimeout: time.Duration(ctx.Int("fetch-timeout")) * time.Second,
			}

			if cfg != nil && cfg.Storage != nil {
				offloader, err := storage.NewOffloader(cfg.Storage)
				if err != nil {
					return err
				}
				pipelineCfg.Media = offloader
			}

			result, err := ingest.NewPipeline(pipelineCfg).ProcessAllFeeds(ctx.Context)
			if err != nil {
				return err
			}

			out, err := json.Marshal(result)
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			return nil
		},
	}
}
