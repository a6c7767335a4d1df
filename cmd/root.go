package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "newsdesk",
		Usage: "Feed ingestion service for the newsdesk content site",
		Description: `Newsdesk polls a set of configured syndication feeds, parses and
		deduplicates their entries, offloads referenced media to object
		storage and materializes article records for the content site.

		At most one ingestion pass runs at a time, a slow or failing feed
		cannot stall the others, and partial failures are reported per feed
		rather than aborting the whole run.

		Flags can generally be set via environment variables, e.g.:

		--db-host => NEWSDESK_DB_HOST=localhost
		--port => NEWSDESK_PORT=8080
		`,
		Commands: []*cli.Command{
			serveCmd(),
			ingestCmd(),
			feedsCmd(),
			migrateCmd(),
			rollbackCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// dbFlags are shared by every command that talks to the database
func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db-host",
			Usage:   "PostgreSQL host",
			EnvVars: []string{"NEWSDESK_DB_HOST"},
			Value:   "localhost",
		},
		&cli.IntFlag{
			Name:    "db-port",
			Usage:   "PostgreSQL port",
			EnvVars: []string{"NEWSDESK_DB_PORT"},
			Value:   5432,
		},
		&cli.StringFlag{
			Name:    "db-user",
			Usage:   "PostgreSQL user",
			EnvVars: []string{"NEWSDESK_DB_USER"},
			Value:   "newsdesk",
		},
		&cli.StringFlag{
			Name:    "db-password",
			Usage:   "PostgreSQL password",
			EnvVars: []string{"NEWSDESK_DB_PASSWORD"},
			Value:   "newsdesk",
		},
		&cli.StringFlag{
			Name:    "db-name",
			Usage:   "PostgreSQL database name",
			EnvVars: []string{"NEWSDESK_DB_NAME"},
			Value:   "newsdesk",
		},
	}
}
