package cmd

import (
	"fmt"

	"newsdesk/db"
	"newsdesk/models"

	"github.com/urfave/cli/v2"
)

func feedsCmd() *cli.Command {
	return &cli.Command{
		Name:  "feeds",
		Usage: "Manage configured feeds",
		Subcommands: []*cli.Command{
			feedsListCmd(),
			feedsAddCmd(),
		},
	}
}

func feedsListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List configured feeds",
		Flags: dbFlags(),
		Action: func(ctx *cli.Context) error {
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

			feeds, err := db.NewFeeds(database).FindAll(ctx.Context)
			if err != nil {
				return err
			}

			if len(feeds) == 0 {
				fmt.Println("No feeds configured")
				return nil
			}

			counts, err := db.NewArticles(database).CountByFeed(ctx.Context)
			if err != nil {
				return err
			}

			for _, feed := range feeds {
				state := "enabled"
				if !feed.Enabled {
					state = "disabled"
				}
				fmt.Printf("%s  %-30s  %s  (%s, max %d/fetch, every %dm, %d articles)\n",
					feed.ID, feed.Name, feed.SourceURL, state,
					feed.MaxItemsPerFetch, feed.FetchIntervalMinutes, counts[feed.ID])
			}

			return nil
		},
	}
}

func feedsAddCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a feed",
		ArgsUsage: "<name> <source-url>",
		Flags: append(dbFlags(),
			&cli.StringFlag{
				Name:  "category",
				Usage: "Explicit category id, skips the category mapper",
			},
			&cli.StringFlag{
				Name:  "author",
				Usage: "Author id attached to created articles",
			},
			&cli.IntFlag{
				Name:  "max-items",
				Usage: "Hard cap on entries materialized per run",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "interval",
				Usage: "Minimum minutes between runs for this feed",
				Value: 60,
			},
			&cli.BoolFlag{
				Name:  "auto-publish",
				Usage: "Publish created articles immediately instead of drafting them",
			},
			&cli.BoolFlag{
				Name:  "disabled",
				Usage: "Create the feed disabled",
			},
		),
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 2 {
				return fmt.Errorf("expected <name> <source-url>, got %d arguments", ctx.NArg())
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

			feed, err := db.NewFeeds(database).Create(ctx.Context, models.FeedConfig{
				Name:                 ctx.Args().Get(0),
				SourceURL:            ctx.Args().Get(1),
				CategoryID:           ctx.String("category"),
				AuthorID:             ctx.String("author"),
				Enabled:              !ctx.Bool("disabled"),
				FetchIntervalMinutes: ctx.Int("interval"),
				MaxItemsPerFetch:     ctx.Int("max-items"),
				AutoPublish:          ctx.Bool("auto-publish"),
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created feed %s (%s)\n", feed.ID, feed.Name)
			return nil
		},
	}
}
